package provider

import (
	"context"
	"log"
)

// FallbackSTT wraps a preferred transcription provider with a statically
// configured fallback. The result's Provider field records which provider
// actually serviced the call. TTS and translation carry no fallback chain;
// their degradation policies live with their callers.
type FallbackSTT struct {
	Primary  SpeechToText
	Fallback SpeechToText
}

func (f *FallbackSTT) Name() string { return f.Primary.Name() }

// Transcribe calls the primary provider and, on failure, the fallback.
// Exactly one of primary result, fallback result or an ExhaustedError is
// returned; partial results are never surfaced.
func (f *FallbackSTT) Transcribe(ctx context.Context, audio []byte, opts STTOptions) (*STTResult, error) {
	res, err := f.Primary.Transcribe(ctx, audio, opts)
	if err == nil {
		if res.Provider == "" {
			res.Provider = f.Primary.Name()
		}
		return res, nil
	}
	if f.Fallback == nil || f.Fallback.Name() == f.Primary.Name() {
		return nil, err
	}

	log.Printf("stt: %s failed, falling back to %s: %v", f.Primary.Name(), f.Fallback.Name(), err)
	fres, ferr := f.Fallback.Transcribe(ctx, audio, opts)
	if ferr != nil {
		return nil, &ExhaustedError{
			Capability:  CapSpeechToText,
			Primary:     f.Primary.Name(),
			Fallback:    f.Fallback.Name(),
			PrimaryErr:  err,
			FallbackErr: ferr,
		}
	}
	fres.Provider = f.Fallback.Name()
	return fres, nil
}

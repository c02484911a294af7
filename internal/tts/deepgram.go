package tts

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"

	"github.com/parivelss/tamil-voice-gateway/internal/provider"
)

// Deepgram is the alternate speech voice. The SDK only exposes a streaming
// WebSocket client, so Synthesize collects the stream into one buffer.
type Deepgram struct {
	apiKey     string
	model      string
	sampleRate int
	encoding   string
}

func NewDeepgram(apiKey, model string) *Deepgram {
	if model == "" {
		model = "aura-2-thalia-en"
	}
	return &Deepgram{apiKey: apiKey, model: model, sampleRate: 48000, encoding: "linear16"}
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) Synthesize(ctx context.Context, text, language string, opts provider.TTSOptions) (*provider.TTSResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("deepgram: empty text: %w", provider.ErrInvalidInput)
	}
	if d.apiKey == "" {
		return nil, &provider.ProviderError{Provider: "deepgram", Message: "api key missing"}
	}

	options := &clientinterfaces.WSSpeakOptions{
		Model:      d.model,
		Encoding:   d.encoding,
		SampleRate: d.sampleRate,
	}

	var (
		mu           sync.Mutex
		audio        []byte
		lastRecvUnix int64
		seenAudio    int32
	)

	cb := &speakCallback{onBinary: func(data []byte) error {
		if len(data) == 0 {
			return nil
		}
		atomic.StoreInt64(&lastRecvUnix, time.Now().UnixNano())
		atomic.StoreInt32(&seenAudio, 1)
		mu.Lock()
		audio = append(audio, data...)
		mu.Unlock()
		return nil
	}}

	dg, err := speak.NewWSUsingCallback(ctx, d.apiKey, &clientinterfaces.ClientOptions{}, options, cb)
	if err != nil {
		return nil, &provider.ProviderError{Provider: "deepgram", Message: "create ws client", Cause: err}
	}

	stopped := false
	stopClient := func() {
		if !stopped {
			stopped = true
			dg.Stop()
		}
	}
	defer stopClient()

	if ok := dg.Connect(); !ok {
		return nil, &provider.ProviderError{Provider: "deepgram", Message: "connect failed"}
	}
	if err := dg.SpeakWithText(text); err != nil {
		return nil, &provider.ProviderError{Provider: "deepgram", Message: "speak text", Cause: err}
	}
	if err := dg.Flush(); err != nil {
		log.Printf("deepgram: flush error: %v", err)
	}

	// The stream has no explicit end-of-audio marker; treat an idle window
	// after the first audio frame as completion, bounded by a deadline.
	idleWindow := 400 * time.Millisecond
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.Now().Add(12 * time.Second)
	for {
		select {
		case <-ctx.Done():
			return nil, &provider.ProviderError{Provider: "deepgram", Message: "synthesis cancelled", Cause: ctx.Err()}
		case <-ticker.C:
			if atomic.LoadInt32(&seenAudio) == 1 {
				last := time.Unix(0, atomic.LoadInt64(&lastRecvUnix))
				if time.Since(last) > idleWindow {
					stopClient()
					mu.Lock()
					out := audio
					mu.Unlock()
					log.Printf("deepgram: synthesis completed bytes=%d", len(out))
					return &provider.TTSResult{Audio: out, Format: d.encoding, Provider: "deepgram"}, nil
				}
			}
			if time.Now().After(deadline) {
				stopClient()
				if atomic.LoadInt32(&seenAudio) == 0 {
					return nil, &provider.ProviderError{Provider: "deepgram", Message: "no audio received before deadline"}
				}
				mu.Lock()
				out := audio
				mu.Unlock()
				return &provider.TTSResult{Audio: out, Format: d.encoding, Provider: "deepgram"}, nil
			}
		}
	}
}

type speakCallback struct{ onBinary func([]byte) error }

func (s *speakCallback) Open(*msginterfaces.OpenResponse) error         { return nil }
func (s *speakCallback) Metadata(*msginterfaces.MetadataResponse) error { return nil }
func (s *speakCallback) Flush(*msginterfaces.FlushedResponse) error     { return nil }
func (s *speakCallback) Clear(*msginterfaces.ClearedResponse) error     { return nil }
func (s *speakCallback) Close(*msginterfaces.CloseResponse) error       { return nil }
func (s *speakCallback) Warning(*msginterfaces.WarningResponse) error   { return nil }
func (s *speakCallback) Error(*msginterfaces.ErrorResponse) error       { return nil }
func (s *speakCallback) UnhandledEvent([]byte) error                    { return nil }
func (s *speakCallback) Binary(byMsg []byte) error {
	if s.onBinary != nil {
		return s.onBinary(byMsg)
	}
	return nil
}

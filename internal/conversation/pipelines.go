package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/parivelss/tamil-voice-gateway/internal/provider"
	"github.com/parivelss/tamil-voice-gateway/internal/stt"
	"github.com/parivelss/tamil-voice-gateway/internal/translate"
)

// ListenRequest is a standalone transcription request, outside any
// conversation session.
type ListenRequest struct {
	Audio       []byte
	STTProvider string
	Timestamps  bool
}

type ListenResult struct {
	EnglishTranscript string
	OriginalLanguage  string
	OriginalText      string
	Confidence        float64
	Provider          string
	Timestamps        []provider.Timestamp
}

// Listen transcribes audio and pivots the transcript to English: language
// bootstrap, transcription with fallback, input-direction translation.
func (c *Controller) Listen(ctx context.Context, req ListenRequest) (*ListenResult, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("empty audio: %w", provider.ErrInvalidInput)
	}
	primary, err := c.sttFor(req.STTProvider)
	if err != nil {
		return nil, err
	}

	language := stt.BootstrapLanguage(ctx, primary, c.Detector, req.Audio)
	chain := &provider.FallbackSTT{Primary: primary, Fallback: c.STT[c.FallbackSTT]}
	res, err := chain.Transcribe(ctx, req.Audio, provider.STTOptions{Language: language, Timestamps: req.Timestamps})
	if err != nil {
		return nil, err
	}
	transcript := strings.TrimSpace(res.Text)
	if transcript == "" {
		return nil, fmt.Errorf("transcription empty: %w", provider.ErrNoSpeech)
	}

	lang := res.DetectedLanguage
	if lang == "" || lang == "auto" {
		lang = language
	}
	if lang == "auto" {
		lang = translate.DetectScript(transcript)
	}

	return &ListenResult{
		EnglishTranscript: c.Router.ToEnglish(ctx, transcript, lang),
		OriginalLanguage:  lang,
		OriginalText:      transcript,
		Confidence:        res.Confidence,
		Provider:          res.Provider,
		Timestamps:        res.Timestamps,
	}, nil
}

// SpeakRequest is a standalone synthesis request: English text rendered
// in the target language and voiced.
type SpeakRequest struct {
	EnglishText    string
	TargetLanguage string
	VoiceProvider  string
	VoiceSpeed     float64
}

type SpeakResult struct {
	Audio         []byte
	Format        string
	FinalLanguage string
	FinalText     string
	Provider      string
}

// Speak translates English text toward the target language (colloquial
// rewrite where configured) and synthesizes it through the long-text
// pipeline.
func (c *Controller) Speak(ctx context.Context, req SpeakRequest) (*SpeakResult, error) {
	text := strings.TrimSpace(req.EnglishText)
	if text == "" {
		return nil, fmt.Errorf("empty text: %w", provider.ErrInvalidInput)
	}
	if req.VoiceSpeed != 0 && (req.VoiceSpeed < 0.5 || req.VoiceSpeed > 2.0) {
		return nil, fmt.Errorf("voice speed %.2f out of range [0.5, 2.0]: %w", req.VoiceSpeed, provider.ErrInvalidInput)
	}
	synth, err := c.ttsFor(req.VoiceProvider)
	if err != nil {
		return nil, err
	}

	target := req.TargetLanguage
	if target == "" {
		target = translate.CommonLanguage
	}
	finalText, finalLang := c.Router.ToTarget(ctx, text, target)

	res, err := synth.Synthesize(ctx, finalText, finalLang, provider.TTSOptions{Speed: req.VoiceSpeed})
	if err != nil {
		return nil, err
	}
	return &SpeakResult{
		Audio:         res.Audio,
		Format:        res.Format,
		FinalLanguage: finalLang,
		FinalText:     finalText,
		Provider:      res.Provider,
	}, nil
}

package stt

import (
	"context"
	"log"
	"strings"

	"github.com/parivelss/tamil-voice-gateway/internal/provider"
)

// BootstrapLanguage discovers the spoken language before the real
// transcription pass commits to a language-specific configuration. It runs
// a cheap "auto" transcription; if the provider reports no language, the
// resulting text is run through translator language detection. Every
// failure degrades to "auto" instead of failing the request: the follow-up
// transcription call then relies on provider-side auto semantics.
func BootstrapLanguage(ctx context.Context, s provider.SpeechToText, tr provider.Translator, audio []byte) string {
	res, err := s.Transcribe(ctx, audio, provider.STTOptions{Language: "auto"})
	if err != nil {
		log.Printf("bootstrap: language detection failed, defaulting to auto: %v", err)
		return "auto"
	}
	if res.DetectedLanguage != "" && res.DetectedLanguage != "auto" {
		return res.DetectedLanguage
	}
	if tr != nil && strings.TrimSpace(res.Text) != "" {
		lang, derr := tr.DetectLanguage(ctx, res.Text)
		if derr == nil && lang != "" {
			return lang
		}
		if derr != nil {
			log.Printf("bootstrap: text language detection failed: %v", derr)
		}
	}
	return "auto"
}

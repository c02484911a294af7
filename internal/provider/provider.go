// Package provider defines the capability contracts shared by every
// external service adapter: speech-to-text, text-to-speech and translation.
// Adapters normalize provider responses into the result types below and
// never perform cross-provider fallback themselves.
package provider

import "context"

// Capability names used in logs and combined errors.
const (
	CapSpeechToText = "stt"
	CapTextToSpeech = "tts"
	CapTranslation  = "translation"
	CapGeneration   = "generation"
)

// Timestamp is a word- or phrase-level timing entry from transcription.
type Timestamp struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// STTOptions configures a transcription call.
type STTOptions struct {
	// Language is an ISO code or "auto" for provider-side detection.
	Language        string
	Timestamps      bool
	MaxAlternatives int
}

// STTResult is the normalized outcome of a transcription call.
type STTResult struct {
	Text             string
	Confidence       float64
	DetectedLanguage string
	Timestamps       []Timestamp
	Alternatives     []string
	Provider         string
}

// TTSOptions configures a synthesis call.
type TTSOptions struct {
	Voice string
	Model string
	// Speed is a multiplier in [0.5, 2.0]; 1.0 means provider default.
	Speed float64
}

// TTSResult is the normalized outcome of a synthesis call.
type TTSResult struct {
	Audio    []byte
	Format   string
	Provider string
}

// TranslationResult is the normalized outcome of a translation call.
type TranslationResult struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
	Confidence     float64
	Provider       string
}

// SpeechToText converts audio bytes to text.
type SpeechToText interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, opts STTOptions) (*STTResult, error)
}

// TextToSpeech converts text to audio bytes.
type TextToSpeech interface {
	Name() string
	Synthesize(ctx context.Context, text, language string, opts TTSOptions) (*TTSResult, error)
}

// Translator translates text between languages and detects the language of text.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage, sourceLanguage string) (*TranslationResult, error)
	DetectLanguage(ctx context.Context, text string) (string, error)
}

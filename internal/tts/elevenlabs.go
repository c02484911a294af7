// Package tts implements the text-to-speech adapters and the long-text
// chunk/synthesize/concatenate pipeline.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/parivelss/tamil-voice-gateway/internal/provider"
)

const elevenLabsDefaultURL = "https://api.elevenlabs.io/v1"

// Fallback voice IDs when no per-language voice is configured.
var elevenLabsDefaultVoices = map[string]string{
	"ta": "eh0hAHy3N3C9DE0uyHHD", // Srivi (Tamil)
	"en": "EXAVITQu4vr4xnSDxMaL", // Sarah (English)
}

// ElevenLabs synthesizes speech over the ElevenLabs REST endpoint.
type ElevenLabs struct {
	APIKey     string
	BaseURL    string
	Model      string
	VoiceTA    string
	VoiceEN    string
	HTTPClient *http.Client
}

func NewElevenLabs(apiKey string) *ElevenLabs {
	return &ElevenLabs{
		APIKey:     apiKey,
		BaseURL:    elevenLabsDefaultURL,
		Model:      "eleven_multilingual_v2",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
	Speed           float64 `json:"speed,omitempty"`
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text, language string, opts provider.TTSOptions) (*provider.TTSResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("elevenlabs: empty text: %w", provider.ErrInvalidInput)
	}
	if e.APIKey == "" {
		return nil, &provider.ProviderError{Provider: "elevenlabs", Message: "api key missing"}
	}

	voiceID := opts.Voice
	if voiceID == "" {
		voiceID = e.voiceFor(language)
	}
	model := opts.Model
	if model == "" {
		model = e.Model
	}

	settings := elevenLabsVoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		UseSpeakerBoost: true,
	}
	if opts.Speed != 0 && opts.Speed != 1.0 {
		settings.Speed = opts.Speed
	}

	body, _ := json.Marshal(elevenLabsRequest{Text: text, ModelID: model, VoiceSettings: settings})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/text-to-speech/"+voiceID, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.APIKey)

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, &provider.ProviderError{Provider: "elevenlabs", Message: "synthesize request", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		msg := string(b)
		return nil, &provider.ProviderError{
			Provider: "elevenlabs",
			Status:   resp.StatusCode,
			Message:  msg,
			Quota:    isQuotaMessage(msg),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ProviderError{Provider: "elevenlabs", Message: "read audio", Cause: err}
	}
	if len(audio) == 0 {
		return nil, &provider.ProviderError{Provider: "elevenlabs", Message: "no audio data returned"}
	}

	log.Printf("elevenlabs: synthesis completed voice=%s bytes=%d", voiceID, len(audio))
	return &provider.TTSResult{Audio: audio, Format: "mp3", Provider: "elevenlabs"}, nil
}

func (e *ElevenLabs) voiceFor(language string) string {
	switch language {
	case "ta":
		if e.VoiceTA != "" {
			return e.VoiceTA
		}
		return elevenLabsDefaultVoices["ta"]
	default:
		if e.VoiceEN != "" {
			return e.VoiceEN
		}
		return elevenLabsDefaultVoices["en"]
	}
}

func isQuotaMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "quota_exceeded") || strings.Contains(lower, "credits")
}

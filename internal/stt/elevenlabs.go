package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/parivelss/tamil-voice-gateway/internal/provider"
)

const elevenLabsSTTDefaultURL = "https://api.elevenlabs.io/v1/speech-to-text"

// ElevenLabs transcribes audio with the ElevenLabs speech-to-text
// endpoint, selectable as an alternative to Sarvam and Google.
type ElevenLabs struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

func NewElevenLabs(apiKey string) *ElevenLabs {
	return &ElevenLabs{
		APIKey:     apiKey,
		BaseURL:    elevenLabsSTTDefaultURL,
		Model:      "eleven_multilingual_v2",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }

type elevenLabsWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type elevenLabsSTTResponse struct {
	Text             string           `json:"text"`
	DetectedLanguage string           `json:"detected_language"`
	Confidence       float64          `json:"confidence"`
	Words            []elevenLabsWord `json:"words"`
}

func (e *ElevenLabs) Transcribe(ctx context.Context, audio []byte, opts provider.STTOptions) (*provider.STTResult, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("elevenlabs stt: empty audio payload: %w", provider.ErrInvalidInput)
	}
	if e.APIKey == "" {
		return nil, &provider.ProviderError{Provider: "elevenlabs", Message: "api key missing"}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "audio.webm")
	if err != nil {
		return nil, fmt.Errorf("elevenlabs stt: build form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("elevenlabs stt: write audio: %w", err)
	}
	_ = mw.WriteField("model_id", e.Model)
	if opts.Language != "" && opts.Language != "auto" {
		_ = mw.WriteField("language", elevenLabsLanguageCode(opts.Language))
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("elevenlabs stt: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, &provider.ProviderError{Provider: "elevenlabs", Message: "transcribe request", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &provider.ProviderError{Provider: "elevenlabs", Status: resp.StatusCode, Message: string(b)}
	}

	var er elevenLabsSTTResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, &provider.ProviderError{Provider: "elevenlabs", Message: "decode response", Cause: err}
	}

	lang := er.DetectedLanguage
	if lang == "" {
		lang = opts.Language
	}
	confidence := er.Confidence
	if confidence == 0 {
		// The endpoint omits confidence today.
		confidence = 0.9
	}

	res := &provider.STTResult{
		Text:             er.Text,
		Confidence:       confidence,
		DetectedLanguage: normalizeElevenLabsLanguage(lang),
		Provider:         "elevenlabs",
	}
	if opts.Timestamps {
		for _, w := range er.Words {
			res.Timestamps = append(res.Timestamps, provider.Timestamp{Start: w.Start, End: w.End, Text: w.Word})
		}
	}
	log.Printf("elevenlabs stt: transcription completed lang=%s len=%d", res.DetectedLanguage, len(res.Text))
	return res, nil
}

var elevenLabsLanguages = map[string]string{
	"ta": "ta", "ta-IN": "ta",
	"en": "en", "en-US": "en", "en-IN": "en",
}

func elevenLabsLanguageCode(language string) string {
	if code, ok := elevenLabsLanguages[language]; ok {
		return code
	}
	return "en"
}

func normalizeElevenLabsLanguage(code string) string {
	if code == "" || code == "auto" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(code), "ta") {
		return "ta"
	}
	return "en"
}

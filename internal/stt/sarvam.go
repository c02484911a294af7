// Package stt implements the speech-to-text provider adapters and the
// two-pass language bootstrap.
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

const sarvamDefaultURL = "https://api.sarvam.ai/speech-to-text/transcribe"

// Sarvam transcribes audio with the Sarvam AI batch endpoint. The saarika
// model handles Tamil/English code-switching well, which is why it is the
// preferred provider.
type Sarvam struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

func NewSarvam(apiKey string) *Sarvam {
	return &Sarvam{
		APIKey:     apiKey,
		BaseURL:    sarvamDefaultURL,
		Model:      "saarika:v2.5",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Sarvam) Name() string { return "sarvam" }

type sarvamTimestamp struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type sarvamResponse struct {
	Transcript   string            `json:"transcript"`
	LanguageCode string            `json:"language_code"`
	Timestamps   []sarvamTimestamp `json:"timestamps"`
}

func (s *Sarvam) Transcribe(ctx context.Context, audio []byte, opts provider.STTOptions) (*provider.STTResult, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("sarvam: empty audio payload: %w", provider.ErrInvalidInput)
	}
	if s.APIKey == "" {
		return nil, &provider.ProviderError{Provider: "sarvam", Message: "api key missing"}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("sarvam: build form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("sarvam: write audio: %w", err)
	}
	_ = mw.WriteField("model", s.Model)
	_ = mw.WriteField("language_code", sarvamLanguageCode(opts.Language))
	if opts.Timestamps {
		_ = mw.WriteField("with_timestamps", "true")
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("sarvam: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, &provider.ProviderError{Provider: "sarvam", Message: "transcribe request", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &provider.ProviderError{Provider: "sarvam", Status: resp.StatusCode, Message: string(b)}
	}

	var sr sarvamResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, &provider.ProviderError{Provider: "sarvam", Message: "decode response", Cause: err}
	}
	if sr.Transcript == "" {
		return nil, &provider.ProviderError{Provider: "sarvam", Message: "no transcript returned"}
	}

	res := &provider.STTResult{
		Text: sr.Transcript,
		// Sarvam does not report confidence scores.
		Confidence:       0.9,
		DetectedLanguage: normalizeSarvamLanguage(sr.LanguageCode),
		Provider:         "sarvam",
	}
	if opts.Timestamps {
		for _, ts := range sr.Timestamps {
			res.Timestamps = append(res.Timestamps, provider.Timestamp{Start: ts.Start, End: ts.End, Text: ts.Text})
		}
	}
	log.Printf("sarvam: transcription completed lang=%s len=%d", res.DetectedLanguage, len(res.Text))
	return res, nil
}

var sarvamLanguages = map[string]string{
	"auto": "unknown",
	"ta":   "ta", "en": "en", "hi": "hi", "bn": "bn", "gu": "gu",
	"kn": "kn", "ml": "ml", "mr": "mr", "or": "or", "pa": "pa", "te": "te",
}

func sarvamLanguageCode(language string) string {
	if code, ok := sarvamLanguages[language]; ok {
		return code
	}
	return "unknown"
}

// normalizeSarvamLanguage collapses a BCP-47 code to the gateway's two
// working languages; anything that is not Tamil is treated as English.
func normalizeSarvamLanguage(code string) string {
	if code == "" {
		return "en"
	}
	primary := strings.ToLower(strings.SplitN(code, "-", 2)[0])
	if primary == "ta" || primary == "tamil" {
		return "ta"
	}
	return "en"
}

package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/parivelss/tamil-voice-gateway/internal/provider"
)

const googleSpeechDefaultURL = "https://speech.googleapis.com/v1/speech:recognize"

// minSpeechBytes is the payload size below which the audio cannot contain
// speech; such requests short-circuit with an empty transcript instead of
// wasting a provider call.
const minSpeechBytes = 10

// Google transcribes audio with the Cloud Speech REST endpoint. It serves
// as the universal STT fallback.
type Google struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	// PrimaryLanguage and AltLanguage configure the "auto" recognition
	// pass; the acoustic model needs a concrete hint even when detecting.
	PrimaryLanguage string
	AltLanguage     string
}

func NewGoogle(apiKey string) *Google {
	return &Google{
		APIKey:          apiKey,
		BaseURL:         googleSpeechDefaultURL,
		HTTPClient:      &http.Client{Timeout: 30 * time.Second},
		PrimaryLanguage: "ta-IN",
		AltLanguage:     "en-IN",
	}
}

func (g *Google) Name() string { return "google" }

type googleRecognizeRequest struct {
	Config googleRecognitionConfig `json:"config"`
	Audio  googleRecognitionAudio  `json:"audio"`
}

type googleRecognitionConfig struct {
	Encoding                   string   `json:"encoding"`
	LanguageCode               string   `json:"languageCode"`
	AlternativeLanguageCodes   []string `json:"alternativeLanguageCodes,omitempty"`
	MaxAlternatives            int      `json:"maxAlternatives,omitempty"`
	EnableWordTimeOffsets      bool     `json:"enableWordTimeOffsets,omitempty"`
	EnableAutomaticPunctuation bool     `json:"enableAutomaticPunctuation"`
}

type googleRecognitionAudio struct {
	Content string `json:"content"`
}

type googleWord struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Word      string `json:"word"`
}

type googleAlternative struct {
	Transcript string       `json:"transcript"`
	Confidence float64      `json:"confidence"`
	Words      []googleWord `json:"words"`
}

type googleRecognizeResult struct {
	Alternatives []googleAlternative `json:"alternatives"`
	LanguageCode string              `json:"languageCode"`
}

type googleRecognizeResponse struct {
	Results []googleRecognizeResult `json:"results"`
}

func (g *Google) Transcribe(ctx context.Context, audio []byte, opts provider.STTOptions) (*provider.STTResult, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("google stt: empty audio payload: %w", provider.ErrInvalidInput)
	}
	if len(audio) < minSpeechBytes {
		log.Printf("google stt: audio below speech threshold (%d bytes), returning empty result", len(audio))
		return &provider.STTResult{
			Text:             "",
			Confidence:       0,
			DetectedLanguage: defaultLanguage(opts.Language),
			Provider:         "google",
		}, nil
	}
	if g.APIKey == "" {
		return nil, &provider.ProviderError{Provider: "google", Message: "api key missing"}
	}

	cfg := googleRecognitionConfig{
		Encoding:                   "ENCODING_UNSPECIFIED",
		LanguageCode:               g.languageCode(opts.Language),
		MaxAlternatives:            opts.MaxAlternatives,
		EnableWordTimeOffsets:      opts.Timestamps,
		EnableAutomaticPunctuation: true,
	}
	if opts.Language == "" || opts.Language == "auto" {
		cfg.AlternativeLanguageCodes = []string{g.AltLanguage}
	}

	body, _ := json.Marshal(googleRecognizeRequest{
		Config: cfg,
		Audio:  googleRecognitionAudio{Content: base64.StdEncoding.EncodeToString(audio)},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"?key="+g.APIKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, &provider.ProviderError{Provider: "google", Message: "recognize request", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &provider.ProviderError{Provider: "google", Status: resp.StatusCode, Message: string(b)}
	}

	var gr googleRecognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, &provider.ProviderError{Provider: "google", Message: "decode response", Cause: err}
	}
	if len(gr.Results) == 0 || len(gr.Results[0].Alternatives) == 0 {
		// Silence or unintelligible audio is an empty result, not an error.
		log.Printf("google stt: no speech detected, returning empty result")
		return &provider.STTResult{
			Text:             "",
			Confidence:       0,
			DetectedLanguage: defaultLanguage(opts.Language),
			Provider:         "google",
		}, nil
	}

	result := gr.Results[0]
	best := result.Alternatives[0]
	out := &provider.STTResult{
		Text:             best.Transcript,
		Confidence:       best.Confidence,
		DetectedLanguage: normalizeGoogleLanguage(result.LanguageCode, opts.Language),
		Provider:         "google",
	}
	if opts.Timestamps {
		for _, w := range best.Words {
			out.Timestamps = append(out.Timestamps, provider.Timestamp{
				Start: parseGoogleDuration(w.StartTime),
				End:   parseGoogleDuration(w.EndTime),
				Text:  w.Word,
			})
		}
	}
	for _, alt := range result.Alternatives[1:] {
		out.Alternatives = append(out.Alternatives, alt.Transcript)
	}
	log.Printf("google stt: transcription completed lang=%s confidence=%.2f", out.DetectedLanguage, out.Confidence)
	return out, nil
}

func (g *Google) languageCode(language string) string {
	switch language {
	case "", "auto":
		return g.PrimaryLanguage
	case "ta":
		return "ta-IN"
	case "en":
		return "en-IN"
	default:
		return language
	}
}

func defaultLanguage(requested string) string {
	if requested == "" || requested == "auto" {
		return "en"
	}
	return requested
}

func normalizeGoogleLanguage(code, requested string) string {
	if code == "" {
		return defaultLanguage(requested)
	}
	primary := strings.ToLower(strings.SplitN(code, "-", 2)[0])
	return primary
}

// parseGoogleDuration parses the REST duration format, e.g. "1.500s".
func parseGoogleDuration(s string) float64 {
	s = strings.TrimSuffix(s, "s")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

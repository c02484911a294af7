// Package translate contains the translation adapters, the routing policy
// between them and the script-based language detection heuristic.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parivelss/tamil-voice-gateway/internal/provider"
)

const googleTranslateDefaultURL = "https://translation.googleapis.com/language/translate/v2"

var supportedTargets = map[string]bool{
	"ta": true, "en": true, "hi": true, "bn": true, "gu": true,
	"kn": true, "ml": true, "mr": true, "or": true, "pa": true, "te": true,
}

// GoogleTranslate is the literal translation service used for everything
// that does not need the colloquial register.
type GoogleTranslate struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewGoogleTranslate(apiKey string) *GoogleTranslate {
	return &GoogleTranslate{
		APIKey:     apiKey,
		BaseURL:    googleTranslateDefaultURL,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type googleTranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
}

type googleDetectResponse struct {
	Data struct {
		Detections [][]struct {
			Language   string  `json:"language"`
			Confidence float64 `json:"confidence"`
		} `json:"detections"`
	} `json:"data"`
}

func (g *GoogleTranslate) Translate(ctx context.Context, text, targetLanguage, sourceLanguage string) (*provider.TranslationResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("google translate: empty text: %w", provider.ErrInvalidInput)
	}
	if !supportedTargets[targetLanguage] {
		return nil, fmt.Errorf("google translate: unsupported target language %q: %w", targetLanguage, provider.ErrInvalidInput)
	}
	if g.APIKey == "" {
		return nil, &provider.ProviderError{Provider: "google-translate", Message: "api key missing"}
	}

	form := url.Values{}
	form.Set("q", text)
	form.Set("target", targetLanguage)
	form.Set("format", "text")
	if sourceLanguage != "" && sourceLanguage != "auto" {
		form.Set("source", sourceLanguage)
	}

	body, err := g.post(ctx, g.BaseURL, form)
	if err != nil {
		return nil, err
	}
	var tr googleTranslateResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &provider.ProviderError{Provider: "google-translate", Message: "decode response", Cause: err}
	}
	if len(tr.Data.Translations) == 0 {
		return nil, &provider.ProviderError{Provider: "google-translate", Message: "no translation returned"}
	}

	first := tr.Data.Translations[0]
	detected := first.DetectedSourceLanguage
	if detected == "" {
		detected = sourceLanguage
	}
	log.Printf("google translate: %s -> %s len=%d", detected, targetLanguage, len(first.TranslatedText))
	return &provider.TranslationResult{
		Text:           html.UnescapeString(first.TranslatedText),
		SourceLanguage: detected,
		TargetLanguage: targetLanguage,
		// The v2 API does not report translation confidence.
		Confidence: 1.0,
		Provider:   "google",
	}, nil
}

func (g *GoogleTranslate) DetectLanguage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("google translate: empty text: %w", provider.ErrInvalidInput)
	}
	if g.APIKey == "" {
		return "", &provider.ProviderError{Provider: "google-translate", Message: "api key missing"}
	}

	form := url.Values{}
	form.Set("q", text)
	body, err := g.post(ctx, g.BaseURL+"/detect", form)
	if err != nil {
		return "", err
	}
	var dr googleDetectResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return "", &provider.ProviderError{Provider: "google-translate", Message: "decode response", Cause: err}
	}
	if len(dr.Data.Detections) == 0 || len(dr.Data.Detections[0]) == 0 {
		return "", &provider.ProviderError{Provider: "google-translate", Message: "no detection returned"}
	}
	return dr.Data.Detections[0][0].Language, nil
}

func (g *GoogleTranslate) post(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+g.APIKey, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, &provider.ProviderError{Provider: "google-translate", Message: "request", Cause: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &provider.ProviderError{Provider: "google-translate", Status: resp.StatusCode, Message: string(body)}
	}
	return body, nil
}

package provider

import (
	"context"
	"errors"
	"testing"
)

type stubSTT struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubSTT) Name() string { return s.name }

func (s *stubSTT) Transcribe(ctx context.Context, audio []byte, opts STTOptions) (*STTResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &STTResult{Text: s.text, Confidence: 0.9}, nil
}

func TestFallbackSTT_PrimarySucceeds(t *testing.T) {
	primary := &stubSTT{name: "sarvam", text: "hello"}
	fallback := &stubSTT{name: "google", text: "other"}
	f := &FallbackSTT{Primary: primary, Fallback: fallback}

	res, err := f.Transcribe(context.Background(), []byte("audio"), STTOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "sarvam" {
		t.Fatalf("expected provider sarvam, got %s", res.Provider)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback should not be called")
	}
}

func TestFallbackSTT_PrimaryFails(t *testing.T) {
	primary := &stubSTT{name: "sarvam", err: &ProviderError{Provider: "sarvam", Status: 500, Message: "boom"}}
	fallback := &stubSTT{name: "google", text: "hello"}
	f := &FallbackSTT{Primary: primary, Fallback: fallback}

	res, err := f.Transcribe(context.Background(), []byte("audio"), STTOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "google" {
		t.Fatalf("expected fallback provider google, got %s", res.Provider)
	}
	if res.Text != "hello" {
		t.Fatalf("expected fallback result, got %q", res.Text)
	}
}

func TestFallbackSTT_BothFail(t *testing.T) {
	primary := &stubSTT{name: "sarvam", err: errors.New("primary down")}
	fallback := &stubSTT{name: "google", err: errors.New("fallback down")}
	f := &FallbackSTT{Primary: primary, Fallback: fallback}

	_, err := f.Transcribe(context.Background(), []byte("audio"), STTOptions{})
	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if ex.Primary != "sarvam" || ex.Fallback != "google" {
		t.Fatalf("expected both providers named, got %+v", ex)
	}
	if ex.PrimaryErr == nil || ex.FallbackErr == nil {
		t.Fatalf("expected both causes recorded")
	}
}

func TestFallbackSTT_SameProviderNoRetry(t *testing.T) {
	primary := &stubSTT{name: "google", err: errors.New("down")}
	fallback := &stubSTT{name: "google"}
	f := &FallbackSTT{Primary: primary, Fallback: fallback}

	_, err := f.Transcribe(context.Background(), []byte("audio"), STTOptions{})
	if err == nil {
		t.Fatalf("expected error")
	}
	var ex *ExhaustedError
	if errors.As(err, &ex) {
		t.Fatalf("same provider must not produce an exhausted error")
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback with same name must not be invoked")
	}
}

func TestIsQuota(t *testing.T) {
	err := &ProviderError{Provider: "elevenlabs", Status: 401, Message: "quota_exceeded", Quota: true}
	if !IsQuota(err) {
		t.Fatalf("expected quota detection")
	}
	wrapped := errors.Join(errors.New("outer"), err)
	if !IsQuota(wrapped) {
		t.Fatalf("expected quota detection through wrapping")
	}
	if IsQuota(errors.New("plain")) {
		t.Fatalf("plain error must not be quota")
	}
}

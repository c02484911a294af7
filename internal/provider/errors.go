package provider

import (
	"errors"
	"fmt"
)

// Sentinel error kinds surfaced to the HTTP layer. They are wrapped with
// context via fmt.Errorf("...: %w", ...) and recovered with errors.Is.
var (
	// ErrInvalidInput marks malformed, missing or oversized payloads
	// rejected before any provider call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoSpeech marks an empty transcript after STT. It is a distinct,
	// non-retryable condition, not a transport failure.
	ErrNoSpeech = errors.New("no speech detected")
)

// ProviderError reports a failed call to one external provider.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
	// Quota marks a quota/credits exhaustion, which the turn controller
	// degrades to a text-only response instead of failing.
	Quota bool
	Cause error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status=%d %s", e.Provider, e.Status, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// IsQuota reports whether err carries a quota-exhausted provider failure.
func IsQuota(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Quota
}

// ExhaustedError reports that a capability's preferred provider and its
// fallback both failed. It is terminal for the call that raised it.
type ExhaustedError struct {
	Capability  string
	Primary     string
	Fallback    string
	PrimaryErr  error
	FallbackErr error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: all providers failed: %s (%v); %s (%v)",
		e.Capability, e.Primary, e.PrimaryErr, e.Fallback, e.FallbackErr)
}

func (e *ExhaustedError) Unwrap() error { return e.FallbackErr }

// Package conversation holds per-session state and the turn controller
// that wires transcription, dialogue and synthesis into one exchange.
package conversation

import (
	"strings"
	"unicode"
)

// SignalKeywords is the keyword data the summarization heuristic scans
// for. The sets are configuration, not code: deployments can extend them
// per language without touching the heuristic itself.
type SignalKeywords struct {
	Duration []string
	Severity []string
	Location []string
}

// DefaultSignalKeywords covers English and Tamil terms for the three
// pre-screening signals.
func DefaultSignalKeywords() SignalKeywords {
	return SignalKeywords{
		Duration: []string{
			"day", "days", "week", "weeks", "month", "months",
			"yesterday", "morning", "night", "hour", "hours",
			"நாள", "நாட்கள்", "வாரம்", "மாசம்", "மாதம்", "நேத்து", "நேற்று",
		},
		Severity: []string{
			"pain", "severe", "mild", "bad", "worse", "hurts",
			"வலி", "அதிகம்", "கம்மி", "ரொம்ப", "கொஞ்சம்",
		},
		Location: []string{
			"leg", "head", "chest", "stomach", "back", "arm", "hand",
			"throat", "knee",
			"கால்", "தலை", "மார்பு", "வயிறு", "முதுகு", "கை", "தொண்டை",
		},
	}
}

// Signals is what the heuristic extracted from the patient's side of the
// conversation so far.
type Signals struct {
	ExchangeCount int
	HasDuration   bool
	HasSeverity   bool
	HasLocation   bool
}

// ShouldSummarize reports whether enough has been gathered to close the
// investigation: at least three exchanges and all three signals present.
func (s Signals) ShouldSummarize() bool {
	return s.ExchangeCount >= 3 && s.HasDuration && s.HasSeverity && s.HasLocation
}

// ComputeSignals scans the patient messages, case-insensitively, for the
// configured keyword sets. Any digit counts as a severity signal ("8 out
// of 10", "3 நாளா").
func ComputeSignals(userMessages []string, kw SignalKeywords) Signals {
	joined := strings.ToLower(strings.Join(userMessages, " "))
	sig := Signals{
		ExchangeCount: len(userMessages),
		HasDuration:   containsAny(joined, kw.Duration),
		HasSeverity:   containsAny(joined, kw.Severity),
		HasLocation:   containsAny(joined, kw.Location),
	}
	if !sig.HasSeverity {
		sig.HasSeverity = strings.ContainsFunc(joined, unicode.IsDigit)
	}
	return sig
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

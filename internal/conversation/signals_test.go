package conversation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeSignals(t *testing.T) {
	kw := DefaultSignalKeywords()

	tests := []struct {
		name     string
		messages []string
		want     Signals
	}{
		{
			name:     "empty history",
			messages: nil,
			want:     Signals{},
		},
		{
			name:     "english all signals",
			messages: []string{"my leg hurts", "started two days ago", "pain is severe"},
			want:     Signals{ExchangeCount: 3, HasDuration: true, HasSeverity: true, HasLocation: true},
		},
		{
			name:     "tamil all signals",
			messages: []string{"கால் வலி", "மூணு நாள ஆச்சு", "ரொம்ப அதிகம்"},
			want:     Signals{ExchangeCount: 3, HasDuration: true, HasSeverity: true, HasLocation: true},
		},
		{
			name:     "digits count as severity",
			messages: []string{"head ache", "since last week", "about 8 out of 10"},
			want:     Signals{ExchangeCount: 3, HasDuration: true, HasSeverity: true, HasLocation: true},
		},
		{
			name:     "case insensitive",
			messages: []string{"CHEST PAIN", "SINCE YESTERDAY", "SEVERE"},
			want:     Signals{ExchangeCount: 3, HasDuration: true, HasSeverity: true, HasLocation: true},
		},
		{
			name:     "missing location",
			messages: []string{"hurts a lot", "two weeks now", "severe pain"},
			want:     Signals{ExchangeCount: 3, HasDuration: true, HasSeverity: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ComputeSignals(tt.messages, kw))
		})
	}
}

func TestShouldSummarize(t *testing.T) {
	all := Signals{ExchangeCount: 3, HasDuration: true, HasSeverity: true, HasLocation: true}
	require.True(t, all.ShouldSummarize())

	tooEarly := all
	tooEarly.ExchangeCount = 2
	require.False(t, tooEarly.ShouldSummarize(), "all signals but under three exchanges must not close")

	missing := all
	missing.HasDuration = false
	require.False(t, missing.ShouldSummarize())

	longButIncomplete := Signals{ExchangeCount: 10, HasSeverity: true}
	require.False(t, longButIncomplete.ShouldSummarize(), "exchange count alone must not close")
}

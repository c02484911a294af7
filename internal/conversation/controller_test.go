package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parivelss/tamil-voice-gateway/internal/llm"
	"github.com/parivelss/tamil-voice-gateway/internal/provider"
	"github.com/parivelss/tamil-voice-gateway/internal/translate"
)

type stubSTT struct {
	name   string
	result *provider.STTResult
	err    error
	calls  int
}

func (s *stubSTT) Name() string { return s.name }

func (s *stubSTT) Transcribe(ctx context.Context, audio []byte, opts provider.STTOptions) (*provider.STTResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	res := *s.result
	return &res, nil
}

// mappingTranslator translates via a fixed lookup table; unknown text
// passes through unchanged.
type mappingTranslator struct {
	mapping map[string]string
	detect  string
}

func (m *mappingTranslator) Translate(ctx context.Context, text, target, source string) (*provider.TranslationResult, error) {
	out := text
	if t, ok := m.mapping[text]; ok {
		out = t
	}
	return &provider.TranslationResult{Text: out, SourceLanguage: source, TargetLanguage: target, Provider: "stub"}, nil
}

func (m *mappingTranslator) DetectLanguage(ctx context.Context, text string) (string, error) {
	return m.detect, nil
}

type stubRewriter struct{}

func (stubRewriter) Rewrite(ctx context.Context, englishText string) string {
	return "தமிழ் " + englishText
}

type stubAgent struct {
	variant string
	reply   string
	history []llm.Message
}

func (a *stubAgent) Name() string { return a.variant }

func (a *stubAgent) Reply(ctx context.Context, userMessage, language string, summarize bool) (string, error) {
	out := a.reply
	if summarize {
		out = llm.ClosureMessage
	}
	a.history = append(a.history,
		llm.Message{Role: llm.RoleUser, Content: userMessage},
		llm.Message{Role: llm.RoleAgent, Content: out},
	)
	return out, nil
}

func (a *stubAgent) Summary(ctx context.Context) (string, error) { return "summary", nil }
func (a *stubAgent) Reset()                                      { a.history = nil }
func (a *stubAgent) History() []llm.Message                      { return a.history }

func (a *stubAgent) Stats() llm.Stats {
	s := llm.Stats{MessageCount: len(a.history)}
	for _, m := range a.history {
		if m.Role == llm.RoleUser {
			s.UserMessages++
		} else {
			s.AgentMessages++
		}
	}
	return s
}

type stubTTS struct {
	err   error
	calls int
}

func (s *stubTTS) Name() string { return "stub-tts" }

func (s *stubTTS) Synthesize(ctx context.Context, text, language string, opts provider.TTSOptions) (*provider.TTSResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &provider.TTSResult{Audio: make([]byte, len(text)), Format: "mp3", Provider: "stub-tts"}, nil
}

func newTestController(primary *stubSTT, fallback *stubSTT, tts *stubTTS) *Controller {
	tr := &mappingTranslator{detect: "en"}
	sttMap := map[string]provider.SpeechToText{primary.name: primary}
	if fallback != nil {
		sttMap[fallback.name] = fallback
	}
	c := &Controller{
		STT:         sttMap,
		DefaultSTT:  primary.name,
		FallbackSTT: "google",
		Detector:    tr,
		Router:      translate.NewRouter(tr, stubRewriter{}),
		TTS:         map[string]provider.TextToSpeech{"stub-tts": tts},
		DefaultTTS:  "stub-tts",
		Store:       NewStore(),
		Keywords:    DefaultSignalKeywords(),
		NewAgent: func(ctx context.Context, variant string) (llm.Agent, error) {
			return &stubAgent{variant: variant, reply: "Where exactly does it hurt?"}, nil
		},
		DefaultVariant: "gemini",
	}
	return c
}

func TestRunTurn_BasicExchange(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "my head hurts", DetectedLanguage: "en"}}
	tts := &stubTTS{}
	c := newTestController(primary, nil, tts)

	res, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav")})
	require.NoError(t, err)

	require.NotEmpty(t, res.SessionID, "session id assigned when absent")
	require.Equal(t, "my head hurts", res.UserTranscript)
	require.Equal(t, "en", res.UserLanguage)
	require.Equal(t, "Where exactly does it hurt?", res.AgentText)
	require.Equal(t, "en", res.AgentLanguage)
	require.NotEmpty(t, res.Audio)
	require.Equal(t, "mp3", res.AudioFormat)
	require.Equal(t, 2, res.MessageCount)
	require.False(t, res.Closure)
	require.False(t, res.Degraded)

	sess, ok := c.Store.Get(res.SessionID)
	require.True(t, ok)
	require.Len(t, sess.Agent.History(), 2, "history stays even after a completed turn")
}

func TestRunTurn_EmptyAudioRejected(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "x"}}
	c := newTestController(primary, nil, &stubTTS{})

	_, err := c.RunTurn(context.Background(), TurnRequest{})
	require.ErrorIs(t, err, provider.ErrInvalidInput)
}

func TestRunTurn_UnknownProviderRejected(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "x"}}
	c := newTestController(primary, nil, &stubTTS{})

	_, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav"), STTProvider: "whisper"})
	require.ErrorIs(t, err, provider.ErrInvalidInput)
}

func TestRunTurn_EmptyTranscriptIsNoSpeech(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "   ", DetectedLanguage: "en"}}
	tts := &stubTTS{}
	c := newTestController(primary, nil, tts)

	_, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav")})
	require.ErrorIs(t, err, provider.ErrNoSpeech)
	require.Zero(t, tts.calls, "no synthesis on silent input")
	require.Equal(t, 0, c.Store.Len(), "no session created for silent input")
}

func TestRunTurn_FallbackServesTranscript(t *testing.T) {
	primary := &stubSTT{name: "sarvam", err: &provider.ProviderError{Provider: "sarvam", Status: 500, Message: "boom"}}
	fallback := &stubSTT{name: "google", result: &provider.STTResult{Text: "hello doctor", DetectedLanguage: "en"}}
	c := newTestController(primary, fallback, &stubTTS{})

	res, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav")})
	require.NoError(t, err)
	require.Equal(t, "hello doctor", res.UserTranscript)
	require.NotZero(t, fallback.calls)
}

func TestRunTurn_QuotaDegradesToTextOnly(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "my head hurts", DetectedLanguage: "en"}}
	tts := &stubTTS{err: &provider.ProviderError{Provider: "elevenlabs", Status: 401, Message: "quota_exceeded", Quota: true}}
	c := newTestController(primary, nil, tts)

	res, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav")})
	require.NoError(t, err, "quota exhaustion must not fail the turn")
	require.True(t, res.Degraded)
	require.Empty(t, res.Audio)
	require.Equal(t, "Where exactly does it hurt?", res.AgentText)
}

func TestRunTurn_NonQuotaTTSErrorFails(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "my head hurts", DetectedLanguage: "en"}}
	tts := &stubTTS{err: &provider.ProviderError{Provider: "elevenlabs", Status: 500, Message: "boom"}}
	c := newTestController(primary, nil, tts)

	_, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav")})
	require.Error(t, err)
}

func TestRunTurn_TamilResponseRoute(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "தலை வலிக்குது", DetectedLanguage: "ta"}}
	c := newTestController(primary, nil, &stubTTS{})

	res, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav")})
	require.NoError(t, err)
	require.Equal(t, "ta", res.UserLanguage)
	require.Equal(t, "ta", res.AgentLanguage)
	require.Equal(t, "தமிழ் Where exactly does it hurt?", res.AgentText, "english reply rewritten colloquially for tamil caller")
}

func TestRunTurn_ClosureAfterSignalsComplete(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "my leg hurts", DetectedLanguage: "en"}}
	c := newTestController(primary, nil, &stubTTS{})

	first, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav")})
	require.NoError(t, err)
	require.False(t, first.Closure)

	primary.result = &provider.STTResult{Text: "it started three days ago", DetectedLanguage: "en"}
	second, err := c.RunTurn(context.Background(), TurnRequest{SessionID: first.SessionID, Audio: []byte("wav")})
	require.NoError(t, err)
	require.False(t, second.Closure, "two exchanges never close")

	primary.result = &provider.STTResult{Text: "the pain is severe", DetectedLanguage: "en"}
	third, err := c.RunTurn(context.Background(), TurnRequest{SessionID: first.SessionID, Audio: []byte("wav")})
	require.NoError(t, err)
	require.True(t, third.Closure)
	require.Equal(t, llm.ClosureMessage, third.AgentText)
	require.Equal(t, "ta", third.AgentLanguage)
	require.Equal(t, 6, third.MessageCount, "closure turn still appends its exchange")
}

func TestRunTurn_VariantSwitchDiscardsHistory(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "my head hurts", DetectedLanguage: "en"}}
	c := newTestController(primary, nil, &stubTTS{})

	first, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav"), Variant: "gemini"})
	require.NoError(t, err)
	require.Equal(t, 2, first.MessageCount)

	second, err := c.RunTurn(context.Background(), TurnRequest{SessionID: first.SessionID, Audio: []byte("wav"), Variant: "openai"})
	require.NoError(t, err)
	require.Equal(t, first.SessionID, second.SessionID)
	require.Equal(t, 2, second.MessageCount, "switching variants starts from empty history")

	sess, _ := c.Store.Get(first.SessionID)
	require.Equal(t, "openai", sess.Variant)
}

func TestRunTurn_ResetFlagReplacesSession(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "my head hurts", DetectedLanguage: "en"}}
	c := newTestController(primary, nil, &stubTTS{})

	first, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav")})
	require.NoError(t, err)

	second, err := c.RunTurn(context.Background(), TurnRequest{SessionID: first.SessionID, Audio: []byte("wav"), Reset: true})
	require.NoError(t, err)
	require.Equal(t, 2, second.MessageCount)
}

func TestReset_Idempotent(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "my head hurts", DetectedLanguage: "en"}}
	c := newTestController(primary, nil, &stubTTS{})

	res, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav")})
	require.NoError(t, err)

	require.True(t, c.Reset(res.SessionID))
	require.False(t, c.Reset(res.SessionID))
	require.False(t, c.Reset("never-existed"))
}

func TestSessions_Listing(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "my head hurts", DetectedLanguage: "en"}}
	c := newTestController(primary, nil, &stubTTS{})

	res, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav")})
	require.NoError(t, err)

	list := c.Sessions()
	require.Len(t, list, 1)
	require.Equal(t, res.SessionID, list[0].ID)
	require.Equal(t, "gemini", list[0].Variant)
	require.Equal(t, llm.Stats{MessageCount: 2, UserMessages: 1, AgentMessages: 1}, list[0].Stats)
	require.False(t, list[0].CreatedAt.IsZero())
}

// deadlineAgent records whether Reply received a bounded context.
type deadlineAgent struct {
	stubAgent
	hadDeadline bool
}

func (a *deadlineAgent) Reply(ctx context.Context, userMessage, language string, summarize bool) (string, error) {
	_, a.hadDeadline = ctx.Deadline()
	return a.stubAgent.Reply(ctx, userMessage, language, summarize)
}

func TestRunTurn_AgentCallIsBounded(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "my head hurts", DetectedLanguage: "en"}}
	c := newTestController(primary, nil, &stubTTS{})
	agent := &deadlineAgent{stubAgent: stubAgent{variant: "gemini", reply: "Where exactly does it hurt?"}}
	c.NewAgent = func(ctx context.Context, variant string) (llm.Agent, error) {
		return agent, nil
	}

	_, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav")})
	require.NoError(t, err)
	require.True(t, agent.hadDeadline, "dialogue call must carry a deadline even when the request context has none")
}

func TestRunTurn_STTChainExhaustedSurfaces(t *testing.T) {
	primary := &stubSTT{name: "sarvam", err: errors.New("primary down")}
	fallback := &stubSTT{name: "google", err: errors.New("fallback down")}
	c := newTestController(primary, fallback, &stubTTS{})

	_, err := c.RunTurn(context.Background(), TurnRequest{Audio: []byte("wav")})
	require.Error(t, err)
	var ex *provider.ExhaustedError
	require.True(t, errors.As(err, &ex))
	require.Equal(t, "sarvam", ex.Primary)
	require.Equal(t, "google", ex.Fallback)
}

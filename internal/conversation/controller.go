package conversation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parivelss/tamil-voice-gateway/internal/llm"
	"github.com/parivelss/tamil-voice-gateway/internal/provider"
	"github.com/parivelss/tamil-voice-gateway/internal/stt"
	"github.com/parivelss/tamil-voice-gateway/internal/translate"
)

// replyTimeout bounds the dialogue-agent call within a turn. The agent
// client carries its own HTTP timeout; this caps the whole generate step
// even when a variant retries internally.
const replyTimeout = 20 * time.Second

// TurnRequest carries one caller utterance through the pipeline.
type TurnRequest struct {
	SessionID   string
	Audio       []byte
	STTProvider string
	Variant     string
	Reset       bool
	VoiceSpeed  float64
}

// TurnResult is everything the transport layer needs to answer a turn.
type TurnResult struct {
	SessionID      string
	UserTranscript string
	UserLanguage   string
	AgentText      string
	AgentLanguage  string
	Audio          []byte
	AudioFormat    string
	MessageCount   int
	Degraded       bool
	Closure        bool
}

// SessionInfo is one row of the session listing.
type SessionInfo struct {
	ID        string    `json:"session_id"`
	Variant   string    `json:"variant"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	Stats     llm.Stats `json:"stats"`
}

// Controller runs complete conversational turns: transcription with
// fallback, dialogue, response-direction translation and synthesis.
type Controller struct {
	// STT maps provider name to adapter. FallbackSTT names the entry used
	// when the requested provider fails; an empty name disables fallback.
	STT         map[string]provider.SpeechToText
	DefaultSTT  string
	FallbackSTT string

	Detector provider.Translator
	Router   *translate.Router

	// TTS maps provider name to adapter, usually wrapped in the long-text
	// pipeline. DefaultTTS names the one used when a request does not pick.
	TTS        map[string]provider.TextToSpeech
	DefaultTTS string

	Store    *Store
	Keywords SignalKeywords

	// NewAgent builds a dialogue agent for the named variant.
	NewAgent       func(ctx context.Context, variant string) (llm.Agent, error)
	DefaultVariant string
}

// RunTurn executes one exchange end to end. Transcription and dialogue
// failures are fatal for the turn; a synthesis quota failure degrades the
// result to text-only instead.
func (c *Controller) RunTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("empty audio: %w", provider.ErrInvalidInput)
	}

	primary, err := c.sttFor(req.STTProvider)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	language := stt.BootstrapLanguage(ctx, primary, c.Detector, req.Audio)

	chain := &provider.FallbackSTT{Primary: primary, Fallback: c.STT[c.FallbackSTT]}
	sttRes, err := chain.Transcribe(ctx, req.Audio, provider.STTOptions{Language: language})
	if err != nil {
		return nil, err
	}
	transcript := strings.TrimSpace(sttRes.Text)
	if transcript == "" {
		return nil, fmt.Errorf("transcription empty: %w", provider.ErrNoSpeech)
	}

	userLang := sttRes.DetectedLanguage
	if userLang == "" || userLang == "auto" {
		userLang = language
	}
	if userLang == "auto" {
		userLang = translate.DetectScript(transcript)
	}

	sess, err := c.session(ctx, req)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	english := c.Router.ToEnglish(ctx, transcript, userLang)

	patientMessages := userMessagesOf(sess.Agent)
	patientMessages = append(patientMessages, english)
	sig := ComputeSignals(patientMessages, c.Keywords)
	closing := sig.ShouldSummarize()
	if closing {
		log.Printf("conversation: session %s signals complete (exchanges=%d), closing", sess.ID, sig.ExchangeCount)
	}

	replyCtx, cancelReply := context.WithTimeout(ctx, replyTimeout)
	agentText, err := sess.Agent.Reply(replyCtx, english, userLang, closing)
	cancelReply()
	if err != nil {
		return nil, err
	}

	agentLang := translate.DetectScript(agentText)
	if agentLang != userLang {
		if userLang == translate.CommonLanguage {
			agentText = c.Router.ToEnglish(ctx, agentText, agentLang)
			agentLang = translate.DetectScript(agentText)
		} else {
			agentText, agentLang = c.Router.ToTarget(ctx, agentText, userLang)
		}
	}

	res := &TurnResult{
		SessionID:      sess.ID,
		UserTranscript: transcript,
		UserLanguage:   userLang,
		AgentText:      agentText,
		AgentLanguage:  agentLang,
		MessageCount:   sess.Agent.Stats().MessageCount,
		Closure:        closing,
	}

	synth, err := c.ttsFor("")
	if err != nil {
		return nil, err
	}
	audio, synthErr := synth.Synthesize(ctx, agentText, agentLang, provider.TTSOptions{Speed: req.VoiceSpeed})
	switch {
	case synthErr == nil:
		res.Audio = audio.Audio
		res.AudioFormat = audio.Format
	case provider.IsQuota(synthErr):
		log.Printf("conversation: tts quota exhausted, returning text-only response: %v", synthErr)
		res.Degraded = true
	default:
		return nil, synthErr
	}

	c.Store.Touch(sess.ID)
	log.Printf("conversation: turn done session=%s stt=%s lang=%s closure=%t degraded=%t elapsed=%s",
		sess.ID, sttRes.Provider, userLang, res.Closure, res.Degraded, time.Since(start).Round(time.Millisecond))
	return res, nil
}

// Reset drops a session. Resetting an unknown session is not an error;
// the return value reports whether anything was there.
func (c *Controller) Reset(sessionID string) bool {
	return c.Store.Delete(sessionID)
}

// Sessions lists live sessions with their conversation stats.
func (c *Controller) Sessions() []SessionInfo {
	views := c.Store.List()
	out := make([]SessionInfo, 0, len(views))
	for _, v := range views {
		out = append(out, SessionInfo{
			ID:        v.ID,
			Variant:   v.Variant,
			CreatedAt: v.CreatedAt,
			LastUsed:  v.LastUsed,
			Stats:     v.Agent.Stats(),
		})
	}
	return out
}

func (c *Controller) sttFor(name string) (provider.SpeechToText, error) {
	if name == "" {
		name = c.DefaultSTT
	}
	p, ok := c.STT[name]
	if !ok {
		return nil, fmt.Errorf("unknown stt provider %q: %w", name, provider.ErrInvalidInput)
	}
	return p, nil
}

func (c *Controller) ttsFor(name string) (provider.TextToSpeech, error) {
	if name == "" {
		name = c.DefaultTTS
	}
	p, ok := c.TTS[name]
	if !ok {
		return nil, fmt.Errorf("unknown tts provider %q: %w", name, provider.ErrInvalidInput)
	}
	return p, nil
}

// session finds or creates the session for a turn. A reset flag or a
// variant different from the session's replaces the session wholesale;
// agent variants own incompatible history representations, so switching
// always starts clean.
func (c *Controller) session(ctx context.Context, req TurnRequest) (*Session, error) {
	variant := req.Variant
	if variant == "" {
		variant = c.DefaultVariant
	}

	if req.SessionID != "" {
		if sess, ok := c.Store.Get(req.SessionID); ok {
			if !req.Reset && sess.Variant == variant {
				return sess, nil
			}
			if sess.Variant != variant {
				log.Printf("conversation: session %s switching variant %s -> %s, history discarded", sess.ID, sess.Variant, variant)
			}
		}
	}

	agent, err := c.NewAgent(ctx, variant)
	if err != nil {
		return nil, fmt.Errorf("create %s agent: %w", variant, err)
	}
	id := req.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	sess := &Session{ID: id, Variant: variant, Agent: agent, CreatedAt: now, LastUsed: now}
	c.Store.Put(sess)
	return sess, nil
}

func userMessagesOf(a llm.Agent) []string {
	var out []string
	for _, m := range a.History() {
		if m.Role == llm.RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

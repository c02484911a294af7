// Package llm contains the dialogue-agent variants and the output
// sanitization pass applied to everything a model generates.
package llm

import (
	"context"
	"sync"
)

// Message roles in conversation history.
const (
	RoleUser  = "user"
	RoleAgent = "assistant"
)

// HistoryCap bounds the per-session history window; older entries are
// dropped, insertion order preserved.
const HistoryCap = 20

// promptWindow is how many of the most recent history entries are rendered
// into the generation prompt.
const promptWindow = 10

// Message is one history entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Stats summarizes a conversation for the session listing.
type Stats struct {
	MessageCount  int `json:"message_count"`
	UserMessages  int `json:"user_messages"`
	AgentMessages int `json:"ai_messages"`
}

// Agent is the shared contract over the dialogue-agent variants. A session
// holds the interface value; variants own incompatible internal
// representations, so switching variants discards history.
type Agent interface {
	Name() string
	// Reply runs one dialogue exchange. When summarize is set the agent
	// closes the investigation: it produces the senior-doctor summary and
	// returns the fixed closure message instead of a fresh question.
	Reply(ctx context.Context, userMessage, language string, summarize bool) (string, error)
	// Summary generates the senior-doctor handover summary from history.
	Summary(ctx context.Context) (string, error)
	Reset()
	Stats() Stats
	History() []Message
}

// conversation is the history state shared by all agent variants.
type conversation struct {
	mu      sync.Mutex
	history []Message
}

// appendExchange records one completed user/agent pair and enforces the
// history cap. History stays even-length after every completed turn.
func (c *conversation) appendExchange(user, agent string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history,
		Message{Role: RoleUser, Content: user},
		Message{Role: RoleAgent, Content: agent},
	)
	if len(c.history) > HistoryCap {
		c.history = c.history[len(c.history)-HistoryCap:]
	}
}

func (c *conversation) snapshot() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}

func (c *conversation) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

func (c *conversation) stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{MessageCount: len(c.history)}
	for _, m := range c.history {
		if m.Role == RoleUser {
			s.UserMessages++
		} else {
			s.AgentMessages++
		}
	}
	return s
}

func (c *conversation) userMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, m := range c.history {
		if m.Role == RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

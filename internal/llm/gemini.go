package llm

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiAgent is dialogue-agent variant A (the default).
type GeminiAgent struct {
	conversation
	client *genai.Client
	model  string
}

func NewGeminiAgent(ctx context.Context, apiKey string) (*GeminiAgent, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		// A stalled generate call must not hang a turn.
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini agent: create client: %w", err)
	}
	return &GeminiAgent{client: client, model: "gemini-1.5-flash"}, nil
}

func (g *GeminiAgent) Name() string { return "gemini" }

func (g *GeminiAgent) Reply(ctx context.Context, userMessage, language string, summarize bool) (string, error) {
	if summarize {
		if summary, err := g.Summary(ctx); err == nil && summary != "" {
			log.Printf("gemini agent: generated doctor summary (%d chars)", len(summary))
		}
		g.appendExchange(userMessage, ClosureMessage)
		return ClosureMessage, nil
	}

	prompt := buildPrompt(g.snapshot(), userMessage)
	out, err := g.generate(ctx, prompt)
	if err != nil {
		// Generation failure is recoverable: apologize in the caller's
		// language and keep the session alive.
		log.Printf("gemini agent: generation failed: %v", err)
		reply := Apology(language)
		g.appendExchange(userMessage, reply)
		return reply, nil
	}

	reply := LimitQuestions(Sanitize(out), 2)
	if reply == "" {
		reply = Apology(language)
	}
	g.appendExchange(userMessage, reply)
	return reply, nil
}

func (g *GeminiAgent) Summary(ctx context.Context) (string, error) {
	patient := g.userMessages()
	if len(patient) == 0 {
		return "", fmt.Errorf("gemini agent: no patient information gathered")
	}
	out, err := g.generate(ctx, buildSummaryPrompt(patient))
	if err != nil {
		return "", fmt.Errorf("gemini agent: summary: %w", err)
	}
	return out, nil
}

func (g *GeminiAgent) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", fmt.Errorf("empty response")
	}
	return out, nil
}

func (g *GeminiAgent) Reset() {
	g.reset()
	log.Printf("gemini agent: conversation history reset")
}

func (g *GeminiAgent) Stats() Stats { return g.stats() }

func (g *GeminiAgent) History() []Message { return g.snapshot() }

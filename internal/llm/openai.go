package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const openAIDefaultURL = "https://api.openai.com/v1/chat/completions"

// OpenAIAgent is dialogue-agent variant B, speaking the chat-completions
// wire format.
type OpenAIAgent struct {
	conversation
	HTTPClient *http.Client
	APIKey     string
	Model      string
	BaseURL    string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      chatMessage `json:"message"`
}

type chatCompletionsResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

func NewOpenAIAgent(apiKey string) *OpenAIAgent {
	return &OpenAIAgent{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIKey:     apiKey,
		Model:      "gpt-4o-mini",
		BaseURL:    openAIDefaultURL,
	}
}

func (o *OpenAIAgent) Name() string { return "openai" }

func (o *OpenAIAgent) Reply(ctx context.Context, userMessage, language string, summarize bool) (string, error) {
	if summarize {
		if summary, err := o.Summary(ctx); err == nil && summary != "" {
			log.Printf("openai agent: generated doctor summary (%d chars)", len(summary))
		}
		o.appendExchange(userMessage, ClosureMessage)
		return ClosureMessage, nil
	}

	messages := []chatMessage{{Role: "system", Content: systemPrompt}}
	history := o.snapshot()
	if len(history) > promptWindow {
		history = history[len(history)-promptWindow:]
	}
	for _, m := range history {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chatMessage{Role: RoleUser, Content: userMessage})

	out, err := o.complete(ctx, messages)
	if err != nil {
		log.Printf("openai agent: generation failed: %v", err)
		reply := Apology(language)
		o.appendExchange(userMessage, reply)
		return reply, nil
	}

	reply := LimitQuestions(Sanitize(out), 2)
	if reply == "" {
		reply = Apology(language)
	}
	o.appendExchange(userMessage, reply)
	return reply, nil
}

func (o *OpenAIAgent) Summary(ctx context.Context) (string, error) {
	patient := o.userMessages()
	if len(patient) == 0 {
		return "", fmt.Errorf("openai agent: no patient information gathered")
	}
	out, err := o.complete(ctx, []chatMessage{{Role: RoleUser, Content: buildSummaryPrompt(patient)}})
	if err != nil {
		return "", fmt.Errorf("openai agent: summary: %w", err)
	}
	return out, nil
}

func (o *OpenAIAgent) complete(ctx context.Context, messages []chatMessage) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("openai api key missing")
	}

	reqBody, _ := json.Marshal(chatCompletionsRequest{
		Model:       o.Model,
		Messages:    messages,
		MaxTokens:   500,
		Temperature: 0.7,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai error: status=%d body=%s", resp.StatusCode, string(b))
	}
	var cr chatCompletionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

func (o *OpenAIAgent) Reset() {
	o.reset()
	log.Printf("openai agent: conversation history reset")
}

func (o *OpenAIAgent) Stats() Stats { return o.stats() }

func (o *OpenAIAgent) History() []Message { return o.snapshot() }

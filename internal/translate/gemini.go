package translate

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const colloquialTamilPrompt = `You are a caring junior doctor translating for a patient. Translate this to natural, colloquial Tamil with a respectful and comforting tone.

Guidelines:
- Keep English medical terms as they are: fever, medicine, blood pressure, diabetes, etc.
- Use Tamil script for Tamil words: வணக்கம், எப்படி, இருக்கு, சாப்பிடு
- Mix naturally like real Tamil doctors: "Medicine சாப்ட்டு rest எடுங்க"
- Be respectful and comforting in tone
- For questions: sound caring and gentle
- For long explanations: be detailed but warm and reassuring
- Maintain the same meaning but make it sound like a caring doctor

Text to translate: %q

Provide only the Tamil translation with caring doctor tone:`

// leakedTranslationPhrases are instruction fragments the model sometimes
// echoes back in front of the actual translation.
var leakedTranslationPhrases = []string{
	"translate this to",
	"translation:",
	"in tamil:",
	"colloquial tamil:",
	"natural tamil:",
	"doctor would say:",
	"translate to colloquial",
	"output only the tamil translation:",
	"tamil translation:",
	"here is the translation:",
	"here's the translation:",
	"the translation is",
	"text:",
}

// GeminiColloquial rewrites English text as colloquial spoken Tamil via a
// language model. The literal translation service historically produced
// overly formal phrasing unusable in spoken dialogue, hence this path.
type GeminiColloquial struct {
	client *genai.Client
	model  string
}

func NewGeminiColloquial(ctx context.Context, apiKey string) (*GeminiColloquial, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		// A stalled rewrite call must not hang a turn.
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini translate: create client: %w", err)
	}
	return &GeminiColloquial{client: client, model: "gemini-1.5-flash"}, nil
}

// Rewrite returns the colloquial Tamil rendition of englishText. Any
// failure returns the input unchanged; translation never blocks the
// pipeline.
func (g *GeminiColloquial) Rewrite(ctx context.Context, englishText string) string {
	if strings.TrimSpace(englishText) == "" {
		return englishText
	}
	prompt := fmt.Sprintf(colloquialTamilPrompt, englishText)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		log.Printf("gemini translate: rewrite failed, keeping original text: %v", err)
		return englishText
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		log.Printf("gemini translate: empty rewrite, keeping original text")
		return englishText
	}
	return cleanRewriteOutput(out)
}

func cleanRewriteOutput(text string) string {
	cleaned := text
	for _, phrase := range leakedTranslationPhrases {
		idx := strings.Index(strings.ToLower(cleaned), phrase)
		for idx >= 0 {
			cleaned = cleaned[:idx] + cleaned[idx+len(phrase):]
			idx = strings.Index(strings.ToLower(cleaned), phrase)
		}
	}
	cleaned = strings.Trim(strings.TrimSpace(cleaned), `:-"' `)
	if cleaned == "" {
		return text
	}
	return cleaned
}

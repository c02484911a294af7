package translate

import (
	"context"
	"log"
	"strings"

	"github.com/parivelss/tamil-voice-gateway/internal/provider"
)

// CommonLanguage is the pivot language used as the intermediate
// representation between input and output languages.
const CommonLanguage = "en"

// Rewriter produces a colloquial-register rendition of English text.
type Rewriter interface {
	Rewrite(ctx context.Context, englishText string) string
}

// Router decides whether translation is needed and which path serves it.
// Translation degrades gracefully: any failure returns the original text
// unmodified, never an error.
type Router struct {
	Translator provider.Translator
	Colloquial Rewriter
	// ColloquialLanguages flags targets that need the language-model
	// rewrite instead of the literal translation service.
	ColloquialLanguages map[string]bool
}

func NewRouter(tr provider.Translator, colloquial Rewriter) *Router {
	return &Router{
		Translator:          tr,
		Colloquial:          colloquial,
		ColloquialLanguages: map[string]bool{"ta": true},
	}
}

// ToEnglish translates text from sourceLanguage to the pivot language.
// Pass-through when the source already is the pivot or the text is empty.
func (r *Router) ToEnglish(ctx context.Context, text, sourceLanguage string) string {
	if strings.TrimSpace(text) == "" || isEnglish(sourceLanguage) {
		return text
	}
	res, err := r.Translator.Translate(ctx, text, CommonLanguage, sourceLanguage)
	if err != nil {
		log.Printf("translate: to-english failed, keeping original text: %v", err)
		return text
	}
	return res.Text
}

// ToTarget translates pivot-language text to targetLanguage and reports the
// language the returned text actually is in.
func (r *Router) ToTarget(ctx context.Context, text, targetLanguage string) (string, string) {
	if strings.TrimSpace(text) == "" || isEnglish(targetLanguage) {
		return text, CommonLanguage
	}
	if r.ColloquialLanguages[targetLanguage] && r.Colloquial != nil {
		return r.Colloquial.Rewrite(ctx, text), targetLanguage
	}
	res, err := r.Translator.Translate(ctx, text, targetLanguage, CommonLanguage)
	if err != nil {
		log.Printf("translate: to-target %s failed, keeping original text: %v", targetLanguage, err)
		return text, CommonLanguage
	}
	return res.Text, targetLanguage
}

func isEnglish(language string) bool {
	return language == "" || language == CommonLanguage || strings.HasPrefix(language, "en-")
}

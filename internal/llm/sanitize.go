package llm

import (
	"regexp"
	"strings"
)

// leakPatterns match instruction/meta text the model occasionally echoes
// from its own system prompt.
var leakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)you are.*?doctor.*?patient`),
	regexp.MustCompile(`(?i)respond.*?like.*?doctor`),
	regexp.MustCompile(`(?i)use tamil.*?english`),
	regexp.MustCompile(`(?i)examples?:`),
	regexp.MustCompile(`(?i)patient:`),
	regexp.MustCompile(`(?i)you:`),
	regexp.MustCompile(`(?i)dr\.?\s*tamil:`),
	regexp.MustCompile(`(?i)assistant:`),
	regexp.MustCompile(`(?i)respond only with`),
	regexp.MustCompile(`(?i)output only`),
	regexp.MustCompile(`(?i)tamil translation:`),
	regexp.MustCompile(`(?i)translation:`),
	regexp.MustCompile(`(?i)here.*?translation`),
	regexp.MustCompile(`(?i)the translation is`),
}

// instructionIndicators mark whole lines that read like prompt material
// rather than dialogue.
var instructionIndicators = []string{
	"respond", "use tamil", "use english", "examples", "guidelines",
	"style", "avoid", "personality", "role", "conversation", "language mixing",
}

var bulletPrefixes = []string{"*", "-", "•", "1.", "2.", "3."}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Sanitize strips leaked prompt/instruction text from model output before
// it is spoken or displayed. If filtering would drop every line, the
// original text is returned: sanitization never turns non-empty input into
// an empty result. Sanitize is idempotent.
func Sanitize(text string) string {
	cleaned := text
	for _, p := range leakPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}

	var kept []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if hasBulletPrefix(line) {
			continue
		}
		if containsIndicator(line) {
			continue
		}
		kept = append(kept, line)
	}

	if len(kept) > 0 {
		cleaned = strings.Join(kept, " ")
	} else {
		cleaned = text
	}

	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	return strings.Trim(cleaned, ":- \"'\n\t ")
}

func hasBulletPrefix(line string) bool {
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func containsIndicator(line string) bool {
	lower := strings.ToLower(line)
	for _, ind := range instructionIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

var sentenceSplit = regexp.MustCompile(`([.!।])`)

// LimitQuestions keeps at most max question sentences in text, dropping
// the surplus while preserving statements and their punctuation.
func LimitQuestions(text string, max int) string {
	parts := sentenceSplit.Split(text, -1)
	seps := sentenceSplit.FindAllString(text, -1)

	var b strings.Builder
	questions := 0
	for i, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		if strings.Contains(trimmed, "?") {
			if questions >= max {
				continue
			}
			questions++
			// Question parts keep only their own "?"; any trailing
			// sentence punctuation from seps is dropped.
			b.WriteString(trimmed)
		} else {
			b.WriteString(trimmed)
			if i < len(seps) {
				b.WriteString(seps[i])
			}
		}
		b.WriteString(" ")
	}

	out := whitespaceRun.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(out)
}

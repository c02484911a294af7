package translate

// tamilBlock covers the Tamil Unicode block U+0B80..U+0BFF.
const (
	tamilBlockStart = 0x0B80
	tamilBlockEnd   = 0x0BFF
)

// DetectScript classifies text as Tamil or English by script presence:
// any codepoint inside the Tamil block implies Tamil. Mixed Tamil/English
// agent replies are treated as Tamil, which is the language the speech
// voice has to handle.
func DetectScript(text string) string {
	for _, r := range text {
		if r >= tamilBlockStart && r <= tamilBlockEnd {
			return "ta"
		}
	}
	return "en"
}

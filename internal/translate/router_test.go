package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/parivelss/tamil-voice-gateway/internal/provider"
)

type countingTranslator struct {
	out   string
	err   error
	calls int
}

func (c *countingTranslator) Translate(ctx context.Context, text, target, source string) (*provider.TranslationResult, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &provider.TranslationResult{Text: c.out, TargetLanguage: target, Provider: "google"}, nil
}

func (c *countingTranslator) DetectLanguage(ctx context.Context, text string) (string, error) {
	return "en", nil
}

type stubRewriter struct {
	out   string
	calls int
}

func (s *stubRewriter) Rewrite(ctx context.Context, text string) string {
	s.calls++
	return s.out
}

func TestRouter_ToEnglishPassThrough(t *testing.T) {
	tr := &countingTranslator{out: "should not be used"}
	r := NewRouter(tr, nil)

	for _, source := range []string{"en", "en-IN", ""} {
		if got := r.ToEnglish(context.Background(), "hello", source); got != "hello" {
			t.Fatalf("expected pass-through for %q, got %q", source, got)
		}
	}
	if got := r.ToEnglish(context.Background(), "  ", "ta"); got != "  " {
		t.Fatalf("empty text must pass through unchanged")
	}
	if tr.calls != 0 {
		t.Fatalf("pass-through must not invoke the provider, got %d calls", tr.calls)
	}
}

func TestRouter_ToEnglishTranslates(t *testing.T) {
	tr := &countingTranslator{out: "my leg hurts"}
	r := NewRouter(tr, nil)
	if got := r.ToEnglish(context.Background(), "கால் வலிக்குது", "ta"); got != "my leg hurts" {
		t.Fatalf("expected translation, got %q", got)
	}
}

func TestRouter_ToEnglishDegradesOnFailure(t *testing.T) {
	tr := &countingTranslator{err: errors.New("translate down")}
	r := NewRouter(tr, nil)
	if got := r.ToEnglish(context.Background(), "கால் வலிக்குது", "ta"); got != "கால் வலிக்குது" {
		t.Fatalf("failure must return original text, got %q", got)
	}
}

func TestRouter_ToTargetColloquialRoute(t *testing.T) {
	tr := &countingTranslator{out: "literal"}
	rw := &stubRewriter{out: "பேச்சு தமிழ்"}
	r := NewRouter(tr, rw)

	got, lang := r.ToTarget(context.Background(), "take rest", "ta")
	if got != "பேச்சு தமிழ்" || lang != "ta" {
		t.Fatalf("expected colloquial rewrite, got %q (%s)", got, lang)
	}
	if tr.calls != 0 {
		t.Fatalf("colloquial route must not use the literal service")
	}
	if rw.calls != 1 {
		t.Fatalf("expected one rewrite call, got %d", rw.calls)
	}
}

func TestRouter_ToTargetLiteralRoute(t *testing.T) {
	tr := &countingTranslator{out: "नमस्ते"}
	r := NewRouter(tr, &stubRewriter{out: "unused"})

	got, lang := r.ToTarget(context.Background(), "hello", "hi")
	if got != "नमस्ते" || lang != "hi" {
		t.Fatalf("expected literal translation, got %q (%s)", got, lang)
	}
}

func TestRouter_ToTargetEnglishPassThrough(t *testing.T) {
	tr := &countingTranslator{}
	r := NewRouter(tr, nil)

	got, lang := r.ToTarget(context.Background(), "hello", "en")
	if got != "hello" || lang != "en" {
		t.Fatalf("expected pass-through, got %q (%s)", got, lang)
	}
	if tr.calls != 0 {
		t.Fatalf("pass-through must not invoke the provider")
	}
}

func TestRouter_ToTargetDegradesOnFailure(t *testing.T) {
	tr := &countingTranslator{err: errors.New("down")}
	r := NewRouter(tr, nil)
	r.ColloquialLanguages = map[string]bool{}

	got, lang := r.ToTarget(context.Background(), "hello", "ta")
	if got != "hello" || lang != "en" {
		t.Fatalf("failure must return original english text, got %q (%s)", got, lang)
	}
}

func TestDetectScript(t *testing.T) {
	if got := DetectScript("கால் வலிக்குது"); got != "ta" {
		t.Fatalf("expected ta, got %s", got)
	}
	if got := DetectScript("Pain எங்க இருக்கு?"); got != "ta" {
		t.Fatalf("mixed text with Tamil script must be ta, got %s", got)
	}
	if got := DetectScript("plain english"); got != "en" {
		t.Fatalf("expected en, got %s", got)
	}
	if got := DetectScript(""); got != "en" {
		t.Fatalf("empty text defaults to en, got %s", got)
	}
}

func TestCleanRewriteOutput(t *testing.T) {
	in := `Tamil translation: "வணக்கம், fever எப்போ start ஆச்சு?"`
	got := cleanRewriteOutput(in)
	if got != "வணக்கம், fever எப்போ start ஆச்சு?" {
		t.Fatalf("unexpected cleanup result: %q", got)
	}
	if cleanRewriteOutput("translation:") == "" {
		t.Fatalf("cleanup must never return an empty string for non-empty input")
	}
}

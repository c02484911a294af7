package tts

import (
	"context"
	"log"
	"strings"

	"github.com/parivelss/tamil-voice-gateway/internal/provider"
)

const (
	// DefaultMaxSingleCall is the text length above which a synthesis
	// request is chunked. The provider limit is ~5000 characters; 2500
	// leaves headroom for multi-byte scripts.
	DefaultMaxSingleCall = 2500
	// DefaultMaxChunk bounds each chunk handed to the provider.
	DefaultMaxChunk = 2000
)

// Pipeline wraps a TextToSpeech provider with long-text handling: text
// over the single-call limit is split at sentence boundaries, each chunk
// synthesized sequentially and the audio concatenated in order. Sequential
// synthesis preserves left-to-right speech ordering and avoids rate-limit
// bursts.
type Pipeline struct {
	TTS           provider.TextToSpeech
	MaxSingleCall int
	MaxChunk      int
}

func NewPipeline(tts provider.TextToSpeech) *Pipeline {
	return &Pipeline{TTS: tts, MaxSingleCall: DefaultMaxSingleCall, MaxChunk: DefaultMaxChunk}
}

func (p *Pipeline) Name() string { return p.TTS.Name() }

func (p *Pipeline) Synthesize(ctx context.Context, text, language string, opts provider.TTSOptions) (*provider.TTSResult, error) {
	if len(text) <= p.MaxSingleCall {
		return p.TTS.Synthesize(ctx, text, language, opts)
	}

	chunks := SplitChunks(text, p.MaxChunk)
	log.Printf("tts pipeline: chunking %d chars into %d chunks", len(text), len(chunks))
	if len(chunks) == 0 {
		return &provider.TTSResult{Audio: nil, Format: "mp3", Provider: p.TTS.Name()}, nil
	}
	if len(chunks) == 1 {
		return p.TTS.Synthesize(ctx, chunks[0], language, opts)
	}

	var combined []byte
	var format, prov string
	for i, chunk := range chunks {
		res, err := p.TTS.Synthesize(ctx, chunk, language, opts)
		if err != nil {
			return nil, err
		}
		log.Printf("tts pipeline: chunk %d/%d synthesized (%d chars, %d bytes)", i+1, len(chunks), len(chunk), len(res.Audio))
		combined = append(combined, res.Audio...)
		format, prov = res.Format, res.Provider
	}
	return &provider.TTSResult{Audio: combined, Format: format, Provider: prov}, nil
}

// SplitChunks splits text into chunks of at most max characters. It first
// cuts at sentence terminators, packs whole sentences into chunks, then
// word-splits any sentence that alone exceeds the limit.
func SplitChunks(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, sentence := range splitSentences(text) {
		if current.Len() > 0 && current.Len()+1+len(sentence) > max {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	flush()

	var final []string
	for _, chunk := range chunks {
		if len(chunk) <= max {
			final = append(final, chunk)
			continue
		}
		final = append(final, splitWords(chunk, max)...)
	}
	return final
}

// splitSentences breaks text into sentences, keeping the terminating
// punctuation with each sentence.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// Only a terminator followed by whitespace (or end of text)
			// ends a sentence; "9/10" style fragments stay intact.
			if i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				if s := strings.TrimSpace(b.String()); s != "" {
					out = append(out, s)
				}
				b.Reset()
			}
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func splitWords(text string, max int) []string {
	var out []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+1+len(word) > max {
			out = append(out, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

// Package translate renders heading text into a target language. Failures
// never fail a document: Apply falls back to the original text.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Translator converts one piece of heading text.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Noop returns its input unchanged.
type Noop struct{}

func (Noop) Translate(_ context.Context, text string) (string, error) { return text, nil }

// Apply translates text with tr, returning the original text when tr is nil,
// fails, or produces nothing.
func Apply(ctx context.Context, tr Translator, text string, log *slog.Logger) string {
	if tr == nil {
		return text
	}
	out, err := tr.Translate(ctx, text)
	if err != nil {
		log.Warn("translation failed, keeping original", "text", truncate(text, 80), "error", err)
		return text
	}
	out = strings.TrimSpace(out)
	if out == "" {
		log.Warn("empty translation, keeping original", "text", truncate(text, 80))
		return text
	}
	return out
}

// Close releases resources held by tr, if any.
func Close(tr Translator) {
	if c, ok := tr.(interface{ Close() }); ok {
		c.Close()
	}
}

// Options selects and configures a provider.
type Options struct {
	Provider       string // off, claude, gemini
	Target         string
	AnthropicKey   string
	AnthropicModel string
	GeminiKey      string
	GeminiModel    string
}

// New builds the translator named by opts.Provider. Both remote clients
// record call latency into stats.
func New(ctx context.Context, opts Options, stats *Stats) (Translator, error) {
	switch strings.ToLower(opts.Provider) {
	case "", "off", "none":
		return Noop{}, nil
	case "claude":
		if opts.AnthropicKey == "" {
			return nil, fmt.Errorf("claude translation requires ANTHROPIC_API_KEY")
		}
		return NewClaude(opts.AnthropicKey, opts.AnthropicModel, opts.Target, stats), nil
	case "gemini":
		if opts.GeminiKey == "" {
			return nil, fmt.Errorf("gemini translation requires GEMINI_API_KEY")
		}
		return NewGemini(ctx, opts.GeminiKey, opts.GeminiModel, opts.Target, stats)
	default:
		return nil, fmt.Errorf("unknown translate provider %q", opts.Provider)
	}
}

func buildPrompt(target, text string) string {
	return fmt.Sprintf("Translate the following document heading into %s. "+
		"Reply with the translated heading only, no quotes or commentary.\n\n%s", target, text)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

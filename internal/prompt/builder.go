// Package prompt assembles generation requests from a theme, a style and
// corpus exemplars.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/versolabs/versobot/internal/corpus"
	"github.com/versolabs/versobot/internal/style"
)

// ErrPromptTooLarge is returned when instruction and theme alone exceed the
// prompt limit, i.e. the overflow cannot be recovered by dropping exemplars.
var ErrPromptTooLarge = errors.New("prompt too large")

// SystemInstruction opens every prompt. Kept as a constant so tests and the
// normalizer can rely on its exact text.
const SystemInstruction = "Eres un poeta experto en lengua española."

// FinalDirective closes every prompt; the normalizer uses it as an echo
// marker when providers return the full input.
const FinalDirective = "Responde únicamente con el poema, sin explicaciones ni comentarios."

const (
	defaultMaxPromptChars = 4000
	defaultMaxNewTokens   = 300
	defaultTemperature    = 0.9

	// Each exemplar is inspiration only; a capped excerpt carries the style
	// without flooding the prompt.
	maxExemplarRunes = 240
	minExemplarRunes = 80
)

// Request is a fully assembled generation request.
type Request struct {
	Theme        string
	StyleID      string
	Text         string // the prompt submitted to the endpoint
	MaxNewTokens int
	Temperature  float64
	Stop         []string
}

// Config holds configuration for the Builder.
type Config struct {
	MaxPromptChars int // rune limit for the assembled prompt (default 4000)
	MaxNewTokens   int
	Temperature    float64
	Stop           []string
}

// Builder assembles prompts with a hard length cap.
type Builder struct {
	maxChars     int
	maxNewTokens int
	temperature  float64
	stop         []string
}

// New creates a Builder.
func New(cfg Config) *Builder {
	maxChars := cfg.MaxPromptChars
	if maxChars == 0 {
		maxChars = defaultMaxPromptChars
	}
	maxTokens := cfg.MaxNewTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxNewTokens
	}
	temp := cfg.Temperature
	if temp == 0 {
		temp = defaultTemperature
	}

	return &Builder{
		maxChars:     maxChars,
		maxNewTokens: maxTokens,
		temperature:  temp,
		stop:         cfg.Stop,
	}
}

// Build assembles a request. Exemplars must arrive ordered by descending
// relevance: when the prompt overflows they are trimmed and dropped from the
// end first. The instruction and theme are never truncated.
func (b *Builder) Build(theme string, s *style.Style, exemplars []corpus.Poem) (*Request, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, fmt.Errorf("theme must not be empty")
	}

	var base strings.Builder
	base.WriteString(SystemInstruction)
	base.WriteString("\n")
	base.WriteString(s.PromptFragment)
	if s.Tone != "" {
		base.WriteString("\nTono: ")
		base.WriteString(s.Tone)
		base.WriteString(".")
	}
	base.WriteString("\nEscribe un poema sobre: \"")
	base.WriteString(theme)
	base.WriteString("\".")

	tail := "\n\n" + FinalDirective
	budget := b.maxChars - utf8.RuneCountInString(base.String()) - utf8.RuneCountInString(tail)
	if budget < 0 {
		return nil, fmt.Errorf("%w: instruction and theme need %d chars, limit is %d",
			ErrPromptTooLarge, b.maxChars-budget, b.maxChars)
	}

	blocks := exemplarBlocks(exemplars)
	blocks = fitBlocks(blocks, budget)

	var out strings.Builder
	out.WriteString(base.String())
	if len(blocks) > 0 {
		out.WriteString("\n\nInspírate en el estilo de estos ejemplos, sin copiarlos:\n")
		for _, block := range blocks {
			out.WriteString(block)
		}
	}
	out.WriteString(tail)

	return &Request{
		Theme:        theme,
		StyleID:      s.ID,
		Text:         out.String(),
		MaxNewTokens: b.maxNewTokens,
		Temperature:  b.temperature,
		Stop:         b.stop,
	}, nil
}

func exemplarBlocks(exemplars []corpus.Poem) []string {
	blocks := make([]string, 0, len(exemplars))
	for i, ex := range exemplars {
		label := fmt.Sprintf("Ejemplo %d", i+1)
		if ex.Title != "" {
			label += ": " + ex.Title
		}
		text := truncateRunes(ex.Text, maxExemplarRunes)
		blocks = append(blocks, fmt.Sprintf("\n--- %s ---\n%s\n", label, text))
	}
	return blocks
}

// fitBlocks drops and trims exemplar blocks from the end until the total
// fits the budget. A block trimmed below a useful size is dropped instead.
func fitBlocks(blocks []string, budget int) []string {
	header := utf8.RuneCountInString("\n\nInspírate en el estilo de estos ejemplos, sin copiarlos:\n")

	for len(blocks) > 0 {
		total := header
		for _, b := range blocks {
			total += utf8.RuneCountInString(b)
		}
		if total <= budget {
			return blocks
		}

		last := len(blocks) - 1
		excess := total - budget
		lastLen := utf8.RuneCountInString(blocks[last])
		if lastLen-excess >= minExemplarRunes {
			blocks[last] = truncateRunes(blocks[last], lastLen-excess)
			return blocks
		}
		blocks = blocks[:last]
	}
	return nil
}

// truncateRunes cuts s to at most max runes, backing up to a word boundary
// and appending an ellipsis when anything was removed.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	cut := string(runes[:max-1])
	if idx := strings.LastIndexAny(cut, " \n"); idx > max/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \n.,;:!?") + "…"
}

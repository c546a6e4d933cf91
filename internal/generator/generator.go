// Package generator orchestrates a poem generation request end to end:
// style resolution, exemplar sampling, prompt assembly, the endpoint call
// and output normalization. Retry policy lives here, never in the client.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/versolabs/versobot/internal/corpus"
	"github.com/versolabs/versobot/internal/db"
	"github.com/versolabs/versobot/internal/normalizer"
	"github.com/versolabs/versobot/internal/prompt"
	"github.com/versolabs/versobot/internal/style"
	"github.com/versolabs/versobot/internal/textgen"
)

// ErrNoPoem means the endpoint answered but nothing remained after
// normalization. Distinct from a network failure so the UI can say
// "no poem generated" instead of "try again later".
var ErrNoPoem = errors.New("generator: el modelo no produjo ningún poema")

// TextGenerator is the outbound call the generator depends on.
type TextGenerator interface {
	Generate(ctx context.Context, req *prompt.Request) (string, textgen.Meta, error)
}

// Poem is the final result of a generation request.
type Poem struct {
	StyleID      string
	StyleName    string
	Theme        string
	Verses       []string
	Raw          string // raw model text, kept for diagnostics
	Model        string
	UsedFallback bool
	Duration     time.Duration
}

// Text returns the displayable poem.
func (p *Poem) Text() string {
	return normalizer.Join(p.Verses)
}

// Config holds the generator's collaborators and policy knobs.
type Config struct {
	Sampler       corpus.Sampler // nil disables exemplars
	Builder       *prompt.Builder
	Client        TextGenerator
	History       *db.Store // nil disables history recording
	ExemplarCount int
	Timeout       time.Duration // per-attempt bound on the endpoint call
	RetryAttempts int           // total attempts for retryable failures
	RetryBackoff  time.Duration // initial backoff, doubled per attempt
}

// Generator runs the generation pipeline.
type Generator struct {
	sampler       corpus.Sampler
	builder       *prompt.Builder
	client        TextGenerator
	history       *db.Store
	exemplarCount int
	timeout       time.Duration
	retryAttempts int
	retryBackoff  time.Duration
}

// New creates a Generator.
func New(cfg Config) *Generator {
	exemplars := cfg.ExemplarCount
	if exemplars == 0 {
		exemplars = 3
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = 3
	}
	backoff := cfg.RetryBackoff
	if backoff == 0 {
		backoff = 2 * time.Second
	}

	return &Generator{
		sampler:       cfg.Sampler,
		builder:       cfg.Builder,
		client:        cfg.Client,
		history:       cfg.History,
		exemplarCount: exemplars,
		timeout:       timeout,
		retryAttempts: attempts,
		retryBackoff:  backoff,
	}
}

// Generate produces a poem for the given style id and theme.
func (g *Generator) Generate(ctx context.Context, styleID, theme string) (*Poem, error) {
	s, err := style.Resolve(styleID)
	if err != nil {
		return nil, err
	}

	var exemplars []corpus.Poem
	if g.sampler != nil {
		exemplars = g.sampler.Sample(ctx, theme, g.exemplarCount)
	}

	req, err := g.builder.Build(theme, s, exemplars)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, meta, err := g.callWithRetry(ctx, req)
	duration := time.Since(start)

	if err != nil {
		g.record(ctx, &db.Generation{
			Style:      s.ID,
			Theme:      req.Theme,
			Model:      meta.Model,
			DurationMs: duration.Milliseconds(),
			Error:      err.Error(),
		})
		return nil, err
	}

	verses := normalizer.Normalize(raw, req.Text)

	poem := &Poem{
		StyleID:      s.ID,
		StyleName:    s.Name,
		Theme:        req.Theme,
		Verses:       verses,
		Raw:          raw,
		Model:        meta.Model,
		UsedFallback: meta.UsedFallback,
		Duration:     duration,
	}

	record := &db.Generation{
		Style:        s.ID,
		Theme:        req.Theme,
		Model:        meta.Model,
		UsedFallback: meta.UsedFallback,
		VerseCount:   len(verses),
		RawText:      raw,
		PoemText:     poem.Text(),
		DurationMs:   duration.Milliseconds(),
	}

	if len(verses) == 0 {
		record.Error = ErrNoPoem.Error()
		g.record(ctx, record)
		return nil, fmt.Errorf("%w (modelo %s)", ErrNoPoem, meta.Model)
	}

	g.record(ctx, record)

	if s.Constrained() && len(verses) != s.VerseCount {
		// Structural compliance is requested in the prompt, not enforced.
		slog.Debug("verse count differs from the requested form",
			"style", s.ID, "want", s.VerseCount, "got", len(verses))
	}

	return poem, nil
}

// callWithRetry applies the caller-level retry policy: rate-limit and
// timeout failures retry with exponential backoff; everything else is final.
func (g *Generator) callWithRetry(ctx context.Context, req *prompt.Request) (string, textgen.Meta, error) {
	var lastErr error
	var lastMeta textgen.Meta

	backoff := g.retryBackoff
	for attempt := 1; attempt <= g.retryAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		raw, meta, err := g.client.Generate(attemptCtx, req)
		cancel()

		if err == nil {
			return raw, meta, nil
		}

		lastErr = err
		lastMeta = meta

		if !textgen.Retryable(err) || attempt == g.retryAttempts {
			break
		}

		slog.Warn("generation attempt failed, retrying",
			"attempt", attempt, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return "", lastMeta, fmt.Errorf("%w: %v", textgen.ErrTimeout, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return "", lastMeta, lastErr
}

// record writes a history row. Best effort: history must never fail a
// generation request.
func (g *Generator) record(ctx context.Context, gen *db.Generation) {
	if g.history == nil {
		return
	}
	if _, err := g.history.InsertGeneration(ctx, gen); err != nil {
		slog.Warn("failed to record generation", "error", err)
	}
}

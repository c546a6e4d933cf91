// Package exemplar provides a VecLite-backed semantic index over the corpus.
// It is optional: when no index is configured, sampling falls back to the
// corpus store's lexical scorer.
package exemplar

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abdul-hamid-achik/veclite"

	"github.com/versolabs/versobot/internal/corpus"
)

const poemsCollection = "poems"

// Config holds configuration for the Index.
type Config struct {
	// Path to the VecLite database file (e.g. "data/poems.veclite").
	Path string

	// ConfigPath is the path to veclite.yaml (optional). If empty, VecLite
	// searches ./veclite.yaml and ~/.veclite/config.yaml.
	ConfigPath string
}

// Index wraps VecLite for semantic exemplar search.
type Index struct {
	vecdb    *veclite.DB
	coll     *veclite.Collection
	embedder veclite.Embedder
}

// Open opens (or creates) the exemplar index.
func Open(cfg Config) (*Index, error) {
	vecliteCfg, err := veclite.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load veclite config: %w", err)
	}

	embedder, err := veclite.NewEmbedderFromConfig(vecliteCfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	vecdb, err := veclite.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open veclite db: %w", err)
	}

	coll, err := vecdb.CreateCollection(poemsCollection,
		veclite.WithDimension(embedder.Dimension()),
		veclite.WithDistanceType(veclite.DistanceCosine),
		veclite.WithHNSW(16, 200),
		veclite.WithTextIndex("title", "text"),
		veclite.WithEmbedder(embedder),
	)
	if err != nil {
		coll, err = vecdb.GetCollection(poemsCollection)
		if err != nil {
			vecdb.Close()
			return nil, fmt.Errorf("get collection: %w", err)
		}
	}

	return &Index{vecdb: vecdb, coll: coll, embedder: embedder}, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	if ix.vecdb != nil {
		return ix.vecdb.Close()
	}
	return nil
}

// Count returns the number of indexed poems.
func (ix *Index) Count() int {
	return ix.coll.Count()
}

// Build indexes the whole corpus. Existing contents are assumed stale only
// when counts diverge; callers that need a clean rebuild delete the file.
func (ix *Index) Build(ctx context.Context, store *corpus.Store) error {
	for i, p := range store.Poems() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		payload := map[string]any{
			"corpus_index": i,
			"title":        p.Title,
			"text":         p.Text,
		}
		if _, err := ix.coll.InsertText(p.Text, payload); err != nil {
			return fmt.Errorf("index poem %d: %w", i, err)
		}
	}

	if err := ix.vecdb.Sync(); err != nil {
		return fmt.Errorf("sync index: %w", err)
	}

	slog.Info("exemplar index built", "poems", ix.Count())
	return nil
}

// Sample implements corpus.Sampler using hybrid vector+BM25 search.
// Search failures degrade to an empty sample; exemplars are optional and a
// broken index must not fail generation.
func (ix *Index) Sample(ctx context.Context, theme string, k int) []corpus.Poem {
	if k <= 0 {
		return nil
	}

	queryVec, err := ix.embedder.Embed(theme)
	if err != nil {
		slog.Warn("embed theme failed, skipping exemplars", "error", err)
		return nil
	}

	results, err := ix.coll.HybridSearch(queryVec, theme,
		veclite.TopK(k),
		veclite.WithVectorWeight(1.0),
		veclite.WithTextWeight(0.3),
	)
	if err != nil {
		slog.Warn("exemplar search failed, skipping exemplars", "error", err)
		return nil
	}

	poems := make([]corpus.Poem, 0, len(results))
	for _, r := range results {
		p := corpus.Poem{}
		if r.Record.Payload != nil {
			if title, ok := r.Record.Payload["title"].(string); ok {
				p.Title = title
			}
			if text, ok := r.Record.Payload["text"].(string); ok {
				p.Text = text
			}
		}
		if p.Text == "" && r.Record.Content != "" {
			p.Text = r.Record.Content
		}
		if p.Text == "" {
			continue
		}
		poems = append(poems, p)
	}

	return poems
}

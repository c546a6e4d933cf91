package db

import (
	"context"
	"fmt"
	"time"
)

// Generation is one recorded generation attempt, kept for diagnostics and
// the history listings. Failed attempts are recorded too, with Error set.
type Generation struct {
	ID           int64
	Style        string
	Theme        string
	Model        string
	UsedFallback bool
	VerseCount   int
	RawText      string
	PoemText     string
	DurationMs   int64
	Error        string
	CreatedAt    time.Time
}

// InsertGeneration records a generation attempt and returns its id.
func (s *Store) InsertGeneration(ctx context.Context, g *Generation) (int64, error) {
	res, err := s.ExecContext(ctx, `
		INSERT INTO generations
			(style, theme, model, used_fallback, verse_count, raw_text, poem_text, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.Style, g.Theme, g.Model, boolToInt(g.UsedFallback), g.VerseCount,
		g.RawText, g.PoemText, g.DurationMs, g.Error)
	if err != nil {
		return 0, fmt.Errorf("insert generation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ListGenerations returns the most recent attempts, newest first.
func (s *Store) ListGenerations(ctx context.Context, limit int) ([]*Generation, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.QueryContext(ctx, `
		SELECT id, style, theme, model, used_fallback, verse_count,
		       raw_text, poem_text, duration_ms, error, created_at
		FROM generations
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var out []*Generation
	for rows.Next() {
		g := &Generation{}
		var usedFallback int
		if err := rows.Scan(&g.ID, &g.Style, &g.Theme, &g.Model, &usedFallback,
			&g.VerseCount, &g.RawText, &g.PoemText, &g.DurationMs, &g.Error, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		g.UsedFallback = usedFallback != 0
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}

	return out, nil
}

// CountGenerations returns the total number of recorded attempts.
func (s *Store) CountGenerations(ctx context.Context) (int64, error) {
	var count int64
	err := s.QueryRowContext(ctx, "SELECT COUNT(*) FROM generations").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count generations: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

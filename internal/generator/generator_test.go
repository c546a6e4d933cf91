package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versolabs/versobot/internal/corpus"
	"github.com/versolabs/versobot/internal/db"
	"github.com/versolabs/versobot/internal/prompt"
	"github.com/versolabs/versobot/internal/style"
	"github.com/versolabs/versobot/internal/textgen"
)

const haikuText = "Gotas caen\nEn el techo de zinc\nLa tierra respira"

func testCorpus(t *testing.T) *corpus.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "poems.csv")
	csv := "title,content\n" +
		"\"Lluvia\",\"gotas de lluvia caen\nsobre el tejado gris\"\n" +
		"\"Mar\",\"el mar azul canta\nbajo la luna llena\"\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	store, err := corpus.Load(path)
	require.NoError(t, err)
	return store
}

func testHistory(t *testing.T) *db.Store {
	t.Helper()
	ctx := context.Background()
	store, err := db.NewStore(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(ctx))
	return store
}

func newGenerator(t *testing.T, serverURL string, history *db.Store) *Generator {
	t.Helper()
	return New(Config{
		Sampler: testCorpus(t),
		Builder: prompt.New(prompt.Config{}),
		Client: textgen.New(textgen.Config{
			BaseURL: serverURL,
			Token:   "test-token",
			Model:   "test/model",
		}),
		History:      history,
		RetryBackoff: time.Millisecond,
	})
}

func okHandler(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{{"generated_text": text}})
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("haiku pipeline end to end", func(t *testing.T) {
		server := httptest.NewServer(okHandler(haikuText))
		defer server.Close()

		history := testHistory(t)
		g := newGenerator(t, server.URL, history)

		poem, err := g.Generate(ctx, "haiku", "la lluvia")
		require.NoError(t, err)

		assert.Equal(t, "haiku", poem.StyleID)
		assert.Equal(t, "la lluvia", poem.Theme)
		require.Len(t, poem.Verses, 3)
		for _, v := range poem.Verses {
			assert.NotEmpty(t, v)
		}
		assert.Equal(t, haikuText, poem.Text())
		assert.Equal(t, "test/model", poem.Model)

		// History recorded.
		records, err := history.ListGenerations(ctx, 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "haiku", records[0].Style)
		assert.Equal(t, 3, records[0].VerseCount)
		assert.Empty(t, records[0].Error)
	})

	t.Run("prompt carries style fragment and theme", func(t *testing.T) {
		var prompts []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Inputs string `json:"inputs"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			prompts = append(prompts, req.Inputs)
			okHandler(haikuText)(w, r)
		}))
		defer server.Close()

		g := newGenerator(t, server.URL, nil)
		_, err := g.Generate(ctx, "haiku", "la lluvia")
		require.NoError(t, err)

		haiku, err := style.Resolve("haiku")
		require.NoError(t, err)

		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], haiku.PromptFragment)
		assert.Contains(t, prompts[0], "la lluvia")
	})

	t.Run("rate limit retried then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			okHandler(haikuText)(w, r)
		}))
		defer server.Close()

		g := newGenerator(t, server.URL, nil)
		poem, err := g.Generate(ctx, "haiku", "la lluvia")
		require.NoError(t, err)
		assert.Len(t, poem.Verses, 3)
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("persistent rate limit surfaces typed error", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		history := testHistory(t)
		g := newGenerator(t, server.URL, history)

		_, err := g.Generate(ctx, "haiku", "la lluvia")
		require.Error(t, err)
		assert.ErrorIs(t, err, textgen.ErrRateLimited)
		assert.EqualValues(t, 3, calls.Load(), "should exhaust all attempts")

		// Failure recorded with its message.
		records, err := history.ListGenerations(ctx, 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.NotEmpty(t, records[0].Error)
	})

	t.Run("authentication error not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		g := newGenerator(t, server.URL, nil)
		_, err := g.Generate(ctx, "haiku", "la lluvia")
		assert.ErrorIs(t, err, textgen.ErrAuthentication)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("unknown style fails before any call", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		g := newGenerator(t, server.URL, nil)
		_, err := g.Generate(ctx, "limerick", "la lluvia")
		assert.ErrorIs(t, err, style.ErrUnknownStyle)
		assert.Zero(t, calls.Load())
	})

	t.Run("echo plus poem normalizes to the poem", func(t *testing.T) {
		var sent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Inputs string `json:"inputs"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			sent = req.Inputs
			json.NewEncoder(w).Encode([]map[string]string{
				{"generated_text": sent + "\n\n" + haikuText},
			})
		}))
		defer server.Close()

		g := newGenerator(t, server.URL, nil)
		poem, err := g.Generate(ctx, "haiku", "la lluvia")
		require.NoError(t, err)
		assert.Equal(t, haikuText, poem.Text())
	})

	t.Run("whitespace only output is no poem", func(t *testing.T) {
		server := httptest.NewServer(okHandler("  \n \n "))
		defer server.Close()

		g := newGenerator(t, server.URL, nil)
		_, err := g.Generate(ctx, "haiku", "la lluvia")
		assert.ErrorIs(t, err, ErrNoPoem)
	})

	t.Run("works without sampler or history", func(t *testing.T) {
		server := httptest.NewServer(okHandler(haikuText))
		defer server.Close()

		g := New(Config{
			Builder: prompt.New(prompt.Config{}),
			Client: textgen.New(textgen.Config{
				BaseURL: server.URL,
				Token:   "test-token",
				Model:   "test/model",
			}),
			RetryBackoff: time.Millisecond,
		})

		poem, err := g.Generate(ctx, "decima", "la libertad")
		require.NoError(t, err)
		assert.Equal(t, "decima", poem.StyleID)
	})
}

package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "poems.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const sampleCSV = `title,content
"Nocturno","La luna vela el mar
y la noche calla
sobre la arena fría"
"Lluvia","Gotas caen del cielo
la lluvia canta en el tejado
y moja la tierra"
"Otoño","Hojas secas caen
el viento las arrastra
hacia el olvido"
`

func TestLoad(t *testing.T) {
	t.Run("loads valid corpus", func(t *testing.T) {
		store, err := Load(writeCorpus(t, sampleCSV))
		require.NoError(t, err)
		assert.Equal(t, 3, store.Len())
		assert.Equal(t, "Nocturno", store.Poems()[0].Title)
		assert.Equal(t, 3, store.Poems()[0].LineCount())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCorpusLoad)
	})

	t.Run("missing content column", func(t *testing.T) {
		_, err := Load(writeCorpus(t, "author,year\nlorca,1928\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCorpusLoad)
	})

	t.Run("drops short entries", func(t *testing.T) {
		csv := "content\n\"una sola línea\"\n\"dos líneas\naquí están\"\n"
		store, err := Load(writeCorpus(t, csv))
		require.NoError(t, err)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("drops duplicates ignoring case and whitespace", func(t *testing.T) {
		csv := "content\n" +
			"\"El mar azul\ncanta de noche\"\n" +
			"\"el  MAR   azul\ncanta   de noche\"\n"
		store, err := Load(writeCorpus(t, csv))
		require.NoError(t, err)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("fails when nothing survives cleaning", func(t *testing.T) {
		_, err := Load(writeCorpus(t, "content\n\"corto\"\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCorpusLoad)
	})
}

func TestCleanText(t *testing.T) {
	t.Run("collapses whitespace and strips control chars", func(t *testing.T) {
		got := CleanText("uno \t dos\x07 tres\r\n\r\n\r\n  cuatro  ")
		assert.Equal(t, "uno dos tres\n\ncuatro", got)
	})

	t.Run("trims blank edges", func(t *testing.T) {
		got := CleanText("\n\nverso uno\nverso dos\n\n")
		assert.Equal(t, "verso uno\nverso dos", got)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := CleanText("a  b\n\n\nc")
		assert.Equal(t, once, CleanText(once))
	})
}

func TestSample(t *testing.T) {
	ctx := context.Background()

	store, err := Load(writeCorpus(t, sampleCSV))
	require.NoError(t, err)

	t.Run("relevance first", func(t *testing.T) {
		got := store.Sample(ctx, "la lluvia", 1)
		require.Len(t, got, 1)
		assert.Equal(t, "Lluvia", got[0].Title)
	})

	t.Run("never more than k", func(t *testing.T) {
		assert.Len(t, store.Sample(ctx, "mar", 2), 2)
		assert.Len(t, store.Sample(ctx, "mar", 10), 3)
	})

	t.Run("zero k", func(t *testing.T) {
		assert.Empty(t, store.Sample(ctx, "mar", 0))
	})

	t.Run("falls back when nothing matches", func(t *testing.T) {
		got := store.Sample(ctx, "zzzz inexistente", 2)
		assert.Len(t, got, 2)

		// Deterministic for the same theme.
		again := store.Sample(ctx, "zzzz inexistente", 2)
		assert.Equal(t, got, again)
	})
}

func TestLexicalScorer(t *testing.T) {
	scorer := LexicalScorer{}

	poem := Poem{Title: "Lluvia", Text: "gotas caen del cielo\nla lluvia canta"}

	t.Run("title match outweighs text match", func(t *testing.T) {
		titleHit := scorer.Score("lluvia", poem)
		textHit := scorer.Score("gotas", poem)
		assert.Greater(t, titleHit, textHit)
	})

	t.Run("stopwords ignored", func(t *testing.T) {
		assert.Zero(t, scorer.Score("la de en y", poem))
	})

	t.Run("no match scores zero", func(t *testing.T) {
		assert.Zero(t, scorer.Score("montaña nevada", poem))
	})
}

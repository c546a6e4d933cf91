package style

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Run("all catalog entries resolve", func(t *testing.T) {
		ids := []string{
			"verso-libre", "soneto", "haiku", "romance", "decima",
			"oda", "copla", "elegia", "egloga", "lira", "redondilla",
		}

		for _, id := range ids {
			s, err := Resolve(id)
			require.NoError(t, err, id)
			assert.Equal(t, id, s.ID)
			assert.NotEmpty(t, s.PromptFragment, id)
			assert.NotEmpty(t, s.Name, id)
		}
	})

	t.Run("structural lengths agree", func(t *testing.T) {
		for _, s := range All() {
			if s.SyllablePattern != nil {
				assert.Equal(t, s.VerseCount, len(s.SyllablePattern), s.ID)
			}
			if s.RhymeScheme != nil {
				assert.Equal(t, s.VerseCount, len(s.RhymeScheme), s.ID)
			}
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		s, err := Resolve("Soneto")
		require.NoError(t, err)
		assert.Equal(t, "soneto", s.ID)
	})

	t.Run("accented aliases", func(t *testing.T) {
		for alias, want := range map[string]string{
			"Décima":      "decima",
			"Elegía":      "elegia",
			"Égloga":      "egloga",
			"Verso libre": "verso-libre",
		} {
			s, err := Resolve(alias)
			require.NoError(t, err, alias)
			assert.Equal(t, want, s.ID)
		}
	})

	t.Run("unknown style", func(t *testing.T) {
		_, err := Resolve("limerick")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownStyle)
	})
}

func TestDecimaScheme(t *testing.T) {
	s, err := Resolve("decima")
	require.NoError(t, err)

	assert.Equal(t, 10, s.VerseCount)
	assert.Equal(t, "ABBAACCDDC", strings.Join(s.RhymeScheme, ""))
	for _, n := range s.SyllablePattern {
		assert.Equal(t, 8, n)
	}
	assert.Contains(t, s.PromptFragment, "ABBAACCDDC")
}

func TestHaiku(t *testing.T) {
	s, err := Resolve("haiku")
	require.NoError(t, err)

	assert.Equal(t, 3, s.VerseCount)
	assert.Equal(t, []int{5, 7, 5}, s.SyllablePattern)
	assert.Nil(t, s.RhymeScheme)
	assert.True(t, s.Constrained())
}

func TestAll(t *testing.T) {
	styles := All()
	assert.Len(t, styles, 11)

	// Stable order between calls.
	again := All()
	for i := range styles {
		assert.Equal(t, styles[i].ID, again[i].ID)
	}
}

func TestLiraMetrics(t *testing.T) {
	s, err := Resolve("lira")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 11, 7, 7, 11}, s.SyllablePattern)
	assert.Equal(t, []string{"a", "B", "a", "b", "B"}, s.RhymeScheme)
}

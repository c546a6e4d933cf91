package corpus

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sort"
	"strings"
)

// Sampler selects up to k exemplar poems for a theme. Implementations must
// never fail: an empty corpus yields an empty slice.
type Sampler interface {
	Sample(ctx context.Context, theme string, k int) []Poem
}

// Scorer assigns a relevance score to a poem for a theme. Higher is more
// relevant; zero means no match. Pluggable so the matching strategy can
// evolve (lexical overlap, semantic search) without touching callers.
type Scorer interface {
	Score(theme string, p Poem) float64
}

// LexicalScorer scores by token overlap between the theme and the poem's
// text and title. Title hits count double since titles are short and topical.
type LexicalScorer struct{}

// spanish stopwords that carry no thematic signal.
var stopwords = map[string]bool{
	"a": true, "al": true, "con": true, "de": true, "del": true, "el": true,
	"en": true, "es": true, "la": true, "las": true, "lo": true, "los": true,
	"mi": true, "más": true, "no": true, "para": true, "por": true, "que": true,
	"se": true, "sobre": true, "su": true, "tu": true, "un": true, "una": true,
	"y": true,
}

// Score implements Scorer.
func (LexicalScorer) Score(theme string, p Poem) float64 {
	themeTokens := tokenize(theme)
	if len(themeTokens) == 0 {
		return 0
	}

	textTokens := tokenSet(p.Text)
	titleTokens := tokenSet(p.Title)

	var score float64
	for _, tok := range themeTokens {
		if titleTokens[tok] {
			score += 2
		} else if textTokens[tok] {
			score += 1
		}
	}

	return score / float64(len(themeTokens))
}

// Sample returns up to k poems ordered by descending relevance. When fewer
// than k poems score above zero, the remainder is filled from a fallback
// subset chosen deterministically from the theme, so the same request always
// sees the same exemplars.
func (s *Store) Sample(ctx context.Context, theme string, k int) []Poem {
	if k <= 0 || len(s.poems) == 0 {
		return nil
	}
	if k > len(s.poems) {
		k = len(s.poems)
	}

	type scored struct {
		index int
		score float64
	}

	scores := make([]scored, 0, len(s.poems))
	for i, p := range s.poems {
		scores = append(scores, scored{index: i, score: s.scorer.Score(theme, p)})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	picked := make([]Poem, 0, k)
	used := make(map[int]bool)
	for _, sc := range scores {
		if sc.score <= 0 || len(picked) == k {
			break
		}
		picked = append(picked, s.poems[sc.index])
		used[sc.index] = true
	}

	if len(picked) < k {
		rng := rand.New(rand.NewSource(int64(themeSeed(theme))))
		for _, i := range rng.Perm(len(s.poems)) {
			if len(picked) == k {
				break
			}
			if used[i] {
				continue
			}
			picked = append(picked, s.poems[i])
			used[i] = true
		}
	}

	return picked
}

func themeSeed(theme string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(theme)))
	return h.Sum32()
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !isWordRune(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenize(s) {
		set[tok] = true
	}
	return set
}

func isWordRune(r rune) bool {
	return r == 'ñ' || r == 'Ñ' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		strings.ContainsRune("áéíóúüÁÉÍÓÚÜ", r)
}

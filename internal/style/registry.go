// Package style holds the closed catalog of supported poetic forms.
package style

import (
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownStyle is returned when a style id is not in the catalog.
// The catalog is closed: new forms are added here, not at call sites.
var ErrUnknownStyle = fmt.Errorf("unknown poem style")

// Style describes a poetic form and its structural constraints.
// VerseCount of 0 means the form does not fix a verse count.
type Style struct {
	ID              string
	Name            string
	VerseCount      int
	SyllablePattern []int    // expected syllables per verse, nil if unconstrained
	RhymeScheme     []string // rhyme-group label per verse, nil if unconstrained
	Tone            string
	PromptFragment  string // Spanish instruction encoding the constraints
}

// catalog is the authoritative set of supported forms. Constraints follow the
// traditional definitions; PromptFragment must state them precisely enough for
// a generative model to follow.
var catalog = map[string]*Style{
	"verso-libre": {
		ID:             "verso-libre",
		Name:           "Verso libre",
		Tone:           "libre y expresivo",
		PromptFragment: "Escribe en verso libre: sin rima ni métrica fija, con ritmo propio e imágenes sugerentes.",
	},
	"soneto": {
		ID:         "soneto",
		Name:       "Soneto",
		VerseCount: 14,
		SyllablePattern: []int{
			11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11,
		},
		RhymeScheme: []string{
			"A", "B", "B", "A", "A", "B", "B", "A", "C", "D", "C", "D", "C", "D",
		},
		Tone:           "solemne y reflexivo",
		PromptFragment: "Escribe un soneto clásico: catorce versos endecasílabos en dos cuartetos y dos tercetos, con rima consonante ABBA ABBA CDC DCD.",
	},
	"haiku": {
		ID:              "haiku",
		Name:            "Haiku",
		VerseCount:      3,
		SyllablePattern: []int{5, 7, 5},
		Tone:            "contemplativo, inspirado en la naturaleza",
		PromptFragment:  "Escribe un haiku: tres versos breves de cinco, siete y cinco sílabas, sin rima, capturando un instante de la naturaleza.",
	},
	"romance": {
		ID:             "romance",
		Name:           "Romance",
		Tone:           "narrativo y popular",
		PromptFragment: "Escribe un romance: serie de versos octosílabos con rima asonante en los versos pares y los impares sueltos.",
	},
	"decima": {
		ID:              "decima",
		Name:            "Décima",
		VerseCount:      10,
		SyllablePattern: []int{8, 8, 8, 8, 8, 8, 8, 8, 8, 8},
		RhymeScheme:     []string{"A", "B", "B", "A", "A", "C", "C", "D", "D", "C"},
		Tone:            "ingenioso y musical",
		PromptFragment:  "Escribe una décima espinela: diez versos octosílabos con rima consonante ABBAACCDDC.",
	},
	"oda": {
		ID:             "oda",
		Name:           "Oda",
		Tone:           "solemne y exaltado",
		PromptFragment: "Escribe una oda: poema solemne y reflexivo que celebra o exalta al tema, en estrofas de tono elevado.",
	},
	"copla": {
		ID:              "copla",
		Name:            "Copla",
		VerseCount:      4,
		SyllablePattern: []int{8, 8, 8, 8},
		RhymeScheme:     []string{"-", "a", "-", "a"},
		Tone:            "popular y directo",
		PromptFragment:  "Escribe una copla: estrofa de cuatro versos octosílabos con rima asonante en los versos pares.",
	},
	"elegia": {
		ID:             "elegia",
		Name:           "Elegía",
		Tone:           "melancólico y doliente",
		PromptFragment: "Escribe una elegía: poema melancólico que lamenta una pérdida o ausencia, de tono doliente y sereno.",
	},
	"egloga": {
		ID:             "egloga",
		Name:           "Égloga",
		Tone:           "bucólico y sereno",
		PromptFragment: "Escribe una égloga: poema bucólico en el que pastores dialogan sobre el tema en un paisaje idealizado.",
	},
	"lira": {
		ID:              "lira",
		Name:            "Lira",
		VerseCount:      5,
		SyllablePattern: []int{7, 11, 7, 7, 11},
		RhymeScheme:     []string{"a", "B", "a", "b", "B"},
		Tone:            "lírico y delicado",
		PromptFragment:  "Escribe una lira: estrofa de cinco versos con métrica 7-11-7-7-11 y rima consonante aBabB.",
	},
	"redondilla": {
		ID:              "redondilla",
		Name:            "Redondilla",
		VerseCount:      4,
		SyllablePattern: []int{8, 8, 8, 8},
		RhymeScheme:     []string{"A", "B", "B", "A"},
		Tone:            "ágil y popular",
		PromptFragment:  "Escribe una redondilla: estrofa de cuatro versos octosílabos con rima consonante ABBA.",
	},
}

// aliases maps accented or spaced spellings to canonical ids, so UI labels
// like "Décima" or "Verso libre" resolve without the caller normalizing.
var aliases = map[string]string{
	"verso libre": "verso-libre",
	"décima":      "decima",
	"elegía":      "elegia",
	"égloga":      "egloga",
}

// Resolve returns the style for the given id. The lookup is case-insensitive
// and accepts the accented display spellings as aliases.
func Resolve(id string) (*Style, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}

	s, ok := catalog[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, id)
	}
	return s, nil
}

// All returns the catalog in stable (id-sorted) order.
func All() []*Style {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	styles := make([]*Style, len(ids))
	for i, id := range ids {
		styles[i] = catalog[id]
	}
	return styles
}

// Constrained reports whether the style fixes a verse count.
func (s *Style) Constrained() bool {
	return s.VerseCount > 0
}

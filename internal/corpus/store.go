// Package corpus loads the cleaned poem dataset and samples exemplars from it.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// ErrCorpusLoad wraps every failure mode of Load: missing file, unreadable
// CSV, missing content column, or zero entries surviving the cleaning pass.
var ErrCorpusLoad = errors.New("corpus load failed")

// minLines is the minimum viable poem length after cleaning.
const minLines = 2

// Poem is a single corpus entry, cleaned and de-duplicated at load time.
type Poem struct {
	Title string
	Text  string
}

// LineCount returns the number of verse lines in the poem.
func (p Poem) LineCount() int {
	return strings.Count(p.Text, "\n") + 1
}

// Store holds the in-memory corpus. It is loaded once at startup and
// read-only afterwards, so concurrent reads need no locking.
type Store struct {
	poems  []Poem
	scorer Scorer
}

// Load reads the poem dataset from a CSV file. The file must have a header
// row with a "content" (or "text") column; a "title" column is optional.
// Poem fields may contain embedded newlines.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrCorpusLoad, path, err)
	}
	defer f.Close()

	return load(f, path)
}

func load(r io.Reader, name string) (*Store, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header of %s: %v", ErrCorpusLoad, name, err)
	}

	contentCol, titleCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "content", "text", "poem":
			if contentCol == -1 {
				contentCol = i
			}
		case "title", "titulo", "título":
			titleCol = i
		}
	}
	if contentCol == -1 {
		return nil, fmt.Errorf("%w: %s has no content column (header: %v)", ErrCorpusLoad, name, header)
	}

	var poems []Poem
	seen := make(map[string]bool)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrCorpusLoad, name, err)
		}
		if contentCol >= len(record) {
			continue
		}

		text := CleanText(record[contentCol])
		if strings.Count(text, "\n")+1 < minLines {
			continue
		}

		// Case- and whitespace-insensitive duplicate detection.
		key := dedupeKey(text)
		if seen[key] {
			continue
		}
		seen[key] = true

		title := ""
		if titleCol >= 0 && titleCol < len(record) {
			title = collapseSpaces(record[titleCol])
		}

		poems = append(poems, Poem{Title: title, Text: text})
	}

	if len(poems) == 0 {
		return nil, fmt.Errorf("%w: no valid entries in %s after cleaning", ErrCorpusLoad, name)
	}

	return &Store{poems: poems, scorer: LexicalScorer{}}, nil
}

// WithScorer replaces the relevance scorer used by Sample.
func (s *Store) WithScorer(scorer Scorer) *Store {
	s.scorer = scorer
	return s
}

// Len returns the number of poems in the corpus.
func (s *Store) Len() int {
	return len(s.poems)
}

// Poems returns the full corpus. Callers must treat the slice as read-only.
func (s *Store) Poems() []Poem {
	return s.poems
}

// CleanText normalizes a raw poem: CRLF to LF, control characters stripped,
// horizontal whitespace runs collapsed, blank-edge lines removed.
func CleanText(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = stripNonPrintable(line)
		line = collapseSpaces(line)
		cleaned = append(cleaned, line)
	}

	// Drop leading/trailing blank lines.
	start, end := 0, len(cleaned)
	for start < end && cleaned[start] == "" {
		start++
	}
	for end > start && cleaned[end-1] == "" {
		end--
	}
	cleaned = cleaned[start:end]

	// Collapse runs of blank lines to a single stanza break.
	out := make([]string, 0, len(cleaned))
	blank := false
	for _, line := range cleaned {
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

func stripNonPrintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func dedupeKey(text string) string {
	return strings.ToLower(collapseSpaces(strings.ReplaceAll(text, "\n", " ")))
}

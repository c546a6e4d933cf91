// Package normalizer turns raw model output into displayable verse lines.
package normalizer

import (
	"strings"
)

// Normalize cleans raw model output into verse lines: the echoed prompt is
// removed when present, edge blank lines dropped, and internal blank-line
// runs collapsed to a single stanza break. It never fails; when nothing
// remains the result is empty, which callers surface as "no poem generated"
// distinct from a network failure.
func Normalize(raw, promptText string) []string {
	text := stripEcho(raw, promptText)

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	// Drop leading/trailing blanks.
	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	lines = lines[start:end]

	// Collapse blank runs, keeping single blanks as stanza breaks.
	verses := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		verses = append(verses, line)
	}

	return verses
}

// Join renders verse lines back into a displayable block.
func Join(verses []string) string {
	return strings.Join(verses, "\n")
}

// stripEcho removes the submitted prompt when the provider echoes it ahead of
// the generated text. Detection is a whitespace-tolerant prefix match; as a
// second chance the final directive line of the prompt is searched for, since
// some providers rewrap the echoed input.
func stripEcho(raw, promptText string) string {
	if promptText == "" {
		return raw
	}

	if cut, ok := cutNormalizedPrefix(raw, promptText); ok {
		return cut
	}

	// The last non-blank prompt line is a reliable echo marker.
	marker := lastNonBlankLine(promptText)
	if marker != "" {
		if idx := strings.LastIndex(raw, marker); idx != -1 {
			return raw[idx+len(marker):]
		}
	}

	return raw
}

// cutNormalizedPrefix checks whether raw begins with promptText modulo
// whitespace differences, and if so returns the remainder of raw.
func cutNormalizedPrefix(raw, promptText string) (string, bool) {
	promptTokens := strings.Fields(promptText)
	if len(promptTokens) == 0 {
		return raw, false
	}

	pos := 0
	for _, tok := range promptTokens {
		rest := raw[pos:]
		skip := len(rest) - len(strings.TrimLeft(rest, " \t\r\n"))
		rest = rest[skip:]
		if !strings.HasPrefix(rest, tok) {
			return raw, false
		}
		pos += skip + len(tok)
	}

	return raw[pos:], true
}

func lastNonBlankLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

package errmap

import (
	"strings"
	"unicode"
)

// ExtractTable returns the token following "table " in message, or "".
func ExtractTable(message string) string {
	return tokenAfter(message, "table ", `".`)
}

// ExtractColumn returns the token following "column " in message, or "".
func ExtractColumn(message string) string {
	return tokenAfter(message, "column ", `".`)
}

// ExtractConstraint returns the token following "constraint " in message, or "".
func ExtractConstraint(message string) string {
	return tokenAfter(message, "constraint ", `"`)
}

// tokenAfter finds the first occurrence of marker and returns the text up to
// the next whitespace or stop character, with surrounding quotes removed.
// A leading quote is skipped so that quoted names survive.
func tokenAfter(message, marker, stops string) string {
	pos := strings.Index(message, marker)
	if pos < 0 {
		return ""
	}
	rest := strings.TrimPrefix(message[pos+len(marker):], `"`)
	end := strings.IndexFunc(rest, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(stops, r)
	})
	if end >= 0 {
		rest = rest[:end]
	}
	return strings.Trim(rest, `"`)
}

// ExtractPosition returns the 1-based character offset DuckDB marks with a
// caret under a "LINE n:" excerpt, or nil when the message has none.
func ExtractPosition(message string) *int {
	lines := strings.Split(message, "\n")
	for i := 0; i+1 < len(lines); i++ {
		line := lines[i]
		if !strings.HasPrefix(line, "LINE ") {
			continue
		}
		colon := strings.Index(line, ": ")
		caret := strings.IndexByte(lines[i+1], '^')
		if colon < 0 || caret < 0 {
			return nil
		}
		pos := caret - (colon + 2) + 1
		if pos < 1 {
			return nil
		}
		return &pos
	}
	return nil
}

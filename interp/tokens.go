package interp

import (
	"strings"
	"unicode"
)

// Token is a whitespace separated word and its byte offset in the source.
// A double quoted string is kept whole, quotes included.
type Token struct {
	Text   string
	Offset int
}

// Tokenize splits s into words, keeping quoted strings together.
func Tokenize(s string) []string {
	toks := tokenizeOffsets(s)
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

func tokenizeOffsets(s string) []Token {
	var toks []Token
	start := -1
	inQuote := false
	for i, r := range s {
		switch {
		case r == '"':
			if start < 0 {
				start = i
			}
			inQuote = !inQuote
		case unicode.IsSpace(r) && !inQuote:
			if start >= 0 {
				toks = append(toks, Token{Text: s[start:i], Offset: start})
				start = -1
			}
		default:
			if start < 0 {
				start = i
			}
		}
	}
	if start >= 0 {
		toks = append(toks, Token{Text: s[start:], Offset: start})
	}
	return toks
}

// segment is a slice of a line and where it starts in that line.
type segment struct {
	Text   string
	Offset int
}

// splitOutside splits s on sep, ignoring separators inside quotes.
func splitOutside(s string, sep byte, base int) []segment {
	var segs []segment
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case sep:
			if !inQuote {
				segs = append(segs, segment{Text: s[start:i], Offset: base + start})
				start = i + 1
			}
		}
	}
	return append(segs, segment{Text: s[start:], Offset: base + start})
}

// cutOutside splits s around the first sep outside quotes.
func cutOutside(s string, sep byte) (before, after string, idx int, found bool) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case sep:
			if !inQuote {
				return s[:i], s[i+1:], i, true
			}
		}
	}
	return s, "", -1, false
}

// trimSegment trims whitespace and keeps the offset pointing at the first
// remaining byte.
func trimSegment(s string, off int) (string, int) {
	trimmed := strings.TrimLeftFunc(s, unicode.IsSpace)
	off += len(s) - len(trimmed)
	return strings.TrimRightFunc(trimmed, unicode.IsSpace), off
}

// leadingWord returns the first token of s.
func leadingWord(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i]
	}
	return s
}

// NormalizeLine upper-cases a script line and trims the ends. Call-site
// offsets are measured on the normalized text.
func NormalizeLine(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true
	}
	return s, false
}

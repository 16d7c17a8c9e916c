package converter

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// cleanText NFC-normalises s, drops control characters other than newline
// and tab, and trims surrounding whitespace. Every engine runs extracted
// strings through it so equal text compares equal across engines.
func cleanText(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == ' ':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// collapseSpaces folds runs of spaces and tabs into one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitLines splits on newlines, normalising CRLF first.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

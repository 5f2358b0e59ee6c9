package draft

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize produces copy-ready text. Steps run in a fixed order:
// 1. Trim leading/trailing whitespace
// 2. Unify \r\n and lone \r to \n
// 3. Strip trailing whitespace from each line
// 4. Tab → one half-width space
// 5. NBSP and Unicode space separators (except U+3000) → half-width space
// 6. Collapse runs of half-width spaces
// 7. NFC
//
// Stored content is never passed through here; only the copied text is.
func Normalize(s string) string {
	s = strings.TrimFunc(s, isSpace)

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, isSpace)
	}
	s = strings.Join(lines, "\n")

	s = strings.ReplaceAll(s, "\t", " ")

	s = strings.Map(func(r rune) rune {
		if isInvisibleSpace(r) {
			return ' '
		}
		return r
	}, s)

	s = collapseSpaces(s)

	return norm.NFC.String(s)
}

// isSpace reports whether r is whitespace in the sense used for trimming:
// ASCII whitespace, line/paragraph separators, the Zs block, and BOM.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029',
		'\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

// isInvisibleSpace matches the variable-width spaces replaced in step 5.
// U+3000 (ideographic space) is deliberately absent.
func isInvisibleSpace(r rune) bool {
	switch r {
	case '\u00a0', '\u202f', '\u205f':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

// collapseSpaces folds runs of two or more U+0020 into one.
func collapseSpaces(s string) string {
	if !strings.Contains(s, "  ") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Package sjis handles the Shift-JIS text stored in the disc table of contents.
// Half-width titles hold ASCII and half-width katakana; full-width titles hold
// the double-byte range of the code page.
package sjis

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

const (
	combiningDakuten    = '\u3099'
	combiningHandakuten = '\u309a'
	spacingDakuten      = '\u309b'
	spacingHandakuten   = '\u309c'
	halfWidthDakuten    = '\uff9e'
	halfWidthHandakuten = '\uff9f'
)

// Encode converts s to Shift-JIS. Characters outside the code page are an error.
func Encode(s string) ([]byte, error) {
	return japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
}

// Decode converts Shift-JIS bytes to a string.
func Decode(b []byte) (string, error) {
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Length returns the number of bytes s occupies once encoded. Characters the
// code page lacks count as one replacement byte.
func Length(s string) int {
	out, err := encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return len(s)
	}
	return len(out)
}

// Encodable reports whether s can be encoded without loss.
func Encodable(s string) bool {
	_, err := Encode(s)
	return err == nil
}

// HalfWidthLength returns the number of half-width cells s needs. Kana with a
// (han)dakuten are stored as base character plus mark and count twice.
func HalfWidthLength(s string) int {
	n := 0
	for _, r := range s {
		n++
		if r < 0x3040 || r > 0x30ff {
			continue
		}
		decomposed := norm.NFD.String(string(r))
		if utf8.RuneCountInString(decomposed) > 1 {
			n++
		}
	}
	return n
}

// SanitizeHalfWidth maps s to characters the half-width title field can store:
// hiragana become half-width katakana and full-width ASCII becomes ASCII. If
// the result still is not single-byte Shift-JIS, non-ASCII characters are
// dropped.
func SanitizeHalfWidth(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 0x3041 && r <= 0x3096 {
			r += 0x60
		}
		b.WriteRune(r)
	}

	mapped := strings.Map(func(r rune) rune {
		switch r {
		case combiningDakuten, spacingDakuten:
			return halfWidthDakuten
		case combiningHandakuten, spacingHandakuten:
			return halfWidthHandakuten
		}
		return r
	}, norm.NFD.String(b.String()))
	narrowed := width.Narrow.String(mapped)

	if encoded, err := Encode(narrowed); err == nil && len(encoded) == HalfWidthLength(narrowed) {
		return narrowed
	}
	return SanitizeASCII(s)
}

// SanitizeFullWidth maps s to the full-width forms stored in the full-width
// title field, falling back to the widened ASCII subset of s.
func SanitizeFullWidth(s string) string {
	widened := norm.NFC.String(width.Widen.String(s))
	if Encodable(widened) {
		return widened
	}
	return width.Widen.String(SanitizeASCII(s))
}

// SanitizeASCII decomposes s and keeps only its ASCII characters.
func SanitizeASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0x7f {
			return -1
		}
		return r
	}, norm.NFD.String(s))
}

var fullWidthRange = map[rune]rune{
	'-': '－',
	'/': '／',
	';': '；',
}

// HalfWidthToFullWidthRange converts a group range such as "1-3" to its
// full-width spelling. Characters other than digits and range punctuation
// are dropped.
func HalfWidthToFullWidthRange(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r - '0' + '０')
		case fullWidthRange[r] != 0:
			b.WriteRune(fullWidthRange[r])
		}
	}
	return b.String()
}

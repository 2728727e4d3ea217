package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Latin-1 Supplement and Latin Extended-A letters that do not decompose into
// a base letter plus combining marks.
var diacriticsTable = map[rune]string{
	'Æ': "AE", 'æ': "ae",
	'Ð': "D", 'ð': "d",
	'Ø': "O", 'ø': "o",
	'Þ': "TH", 'þ': "th",
	'ß': "ss",
	'Đ': "D", 'đ': "d",
	'Ħ': "H", 'ħ': "h",
	'ı': "i",
	'Ĳ': "IJ", 'ĳ': "ij",
	'ĸ': "k",
	'Ŀ': "L", 'ŀ': "l",
	'Ł': "L", 'ł': "l",
	'ŉ': "n",
	'Ŋ': "N", 'ŋ': "n",
	'Œ': "OE", 'œ': "oe",
}

const (
	diacriticsFirst = 'À'
	diacriticsLast  = 'ž'
)

// ReplaceDiacritics folds accented Latin letters in the range À-ž to ASCII.
// Characters outside the range, and symbols inside it such as × and ÷, are kept.
func ReplaceDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < diacriticsFirst || r > diacriticsLast {
			b.WriteRune(r)
			continue
		}
		if repl, ok := diacriticsTable[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteString(foldRune(r))
	}
	return b.String()
}

// foldRune strips combining marks from the canonical decomposition of r.
func foldRune(r rune) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, string(r))
	if err != nil || folded == "" {
		return string(r)
	}
	return folded
}

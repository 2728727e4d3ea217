// Package slug turns heading text into anchor identifiers.
package slug

import (
	"regexp"
	"strconv"
	"strings"
)

// Func replaces the built-in slug algorithm entirely.
type Func func(text string, opts Options) string

// Options controls Slugify.
type Options struct {
	// Disabled returns the text untouched.
	Disabled bool
	// Custom, when set, is called instead of the built-in steps.
	Custom Func
	// StripHeadingTags removes `<...>` runs before punctuation stripping. nil means true.
	StripHeadingTags *bool
	// Num is the occurrence count of this text; appended as "-Num" when non-zero.
	Num int
}

var (
	linkPrefixRe = regexp.MustCompile(`^\[[^\]]+\]\(`)
	linkLabelRe  = regexp.MustCompile(`^\[([^\]]+)\]`)
	ansiColorRe  = regexp.MustCompile(`\x1b\[(?:[0-9]{1,2}(?:;[0-9]{1,2})?)?[m|K]`)
	htmlTagRe    = regexp.MustCompile(`</?[^>]+>`)
	punctRe      = regexp.MustCompile("[|$&`~=\\\\/@+*!?({\\[\\]})<>=.,;:'\"^]")
	cjkPunctRe   = regexp.MustCompile("[。？！，、；：“”【】（）〔〕［］﹃﹄“ ”‘’﹁﹂—…－～《》〈〉「」]")
)

// Title returns the label of a markdown link (`[label](...)`), or str unchanged.
func Title(str string) string {
	if linkPrefixRe.MatchString(str) {
		if m := linkLabelRe.FindStringSubmatch(str); m != nil {
			return m[1]
		}
	}
	return str
}

// StripTags removes anything that looks like an opening or closing HTML tag.
func StripTags(str string) string {
	return htmlTagRe.ReplaceAllString(str, "")
}

// Slugify converts heading text into an anchor slug.
// The steps run in a fixed order: link label, ANSI colors, lowercase, spaces, tabs,
// tags, punctuation, CJK punctuation, diacritics, occurrence suffix.
func Slugify(text string, opts Options) string {
	if opts.Disabled {
		return text
	}
	if opts.Custom != nil {
		return opts.Custom(text, opts)
	}

	s := Title(text)
	s = ansiColorRe.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "\t", "--")
	if opts.StripHeadingTags == nil || *opts.StripHeadingTags {
		s = StripTags(s)
	}
	s = punctRe.ReplaceAllString(s, "")
	s = cjkPunctRe.ReplaceAllString(s, "")
	s = ReplaceDiacritics(s)
	if opts.Num != 0 {
		s += "-" + strconv.Itoa(opts.Num)
	}
	return s
}

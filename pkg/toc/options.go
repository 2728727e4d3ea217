// Package toc builds a markdown table of contents from a heading token stream.
package toc

import (
	"github.com/Sriram-PR/md-toc/pkg/slug"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// ErrInvalidRenderFunction is returned when a custom ListItem renderer fails its smoke call.
var ErrInvalidRenderFunction = utils.ErrInvalidRenderFunction

var defaultBullets = []string{"-", "*", "+"}

const (
	defaultGenerateMaxDepth = 6
	defaultBulletsMaxDepth  = 3
	indentUnit              = "  "
)

// LinkifyFunc builds the rendered entry from the titleized text and escaped slug.
type LinkifyFunc func(h Heading, text, escapedSlug string) string

// TitleizeFunc replaces the built-in display-text cleanup.
type TitleizeFunc func(text string) string

// StripFunc derives display text from raw heading content.
type StripFunc func(text string) string

// FilterFunc keeps a heading when it returns true. content is the rendered entry text.
type FilterFunc func(content string, h Heading, all []Heading) bool

// ListItemFunc renders one list line for a zero-based depth.
type ListItemFunc func(depth int, text string) string

// LinkifyMode selects how an entry is rendered. The zero value renders `[text](#slug)`.
type LinkifyMode struct {
	Off  bool
	Func LinkifyFunc
}

// SlugifyMode selects how anchors are derived. The zero value uses slug.Slugify.
type SlugifyMode struct {
	Off  bool
	Func slug.Func
}

// TitleizeMode selects how display text is cleaned. The zero value unwraps links,
// strips tags and collapses whitespace.
type TitleizeMode struct {
	Off  bool
	Func TitleizeFunc
}

// Strip removes words from the display text, never from the anchor.
// Words are joined into one alternation pattern. Func wins over Words.
type Strip struct {
	Words []string
	Func  StripFunc
}

func (s Strip) enabled() bool {
	return s.Func != nil || len(s.Words) > 0
}

// Options configures Generate and Bullets. The zero value is usable.
type Options struct {
	FirstH1          *bool // nil means true
	MaxDepth         int   // 0 means the caller's default
	Linkify          LinkifyMode
	Slugify          SlugifyMode
	Titleize         TitleizeMode
	Strip            Strip
	Bullets          []string
	Chars            []string // alias of Bullets; wins when both are set
	Filter           FilterFunc
	Append           string
	StripHeadingTags *bool // nil means true
	ListItem         ListItemFunc
}

func (o Options) includeFirstH1() bool {
	return o.FirstH1 == nil || *o.FirstH1
}

func (o Options) glyphs() []string {
	if len(o.Chars) > 0 {
		return o.Chars
	}
	if len(o.Bullets) > 0 {
		return o.Bullets
	}
	return defaultBullets
}

func (o Options) slugOptions(num int) slug.Options {
	return slug.Options{
		Disabled:         o.Slugify.Off,
		Custom:           o.Slugify.Func,
		StripHeadingTags: o.StripHeadingTags,
		Num:              num,
	}
}

// Bool returns a pointer to b, for the tri-state option fields.
func Bool(b bool) *bool { return &b }

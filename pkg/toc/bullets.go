package toc

import (
	"fmt"
	"strings"

	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// Entry is one rendered list line.
type Entry struct {
	Glyph string `json:"bullet"`
	Level int    `json:"lvl"` // zero-based depth
	Text  string `json:"content"`
	Line  string `json:"line"`
}

// Builder renders headings as a nested bullet list.
type Builder struct {
	maxDepth int
	glyphs   []string
	firstH1  bool
	filter   FilterFunc
	listItem ListItemFunc
}

// NewBuilder validates opts and returns a Builder. MaxDepth 0 means 3.
// A custom ListItem is smoke-called once with (1, "test").
func NewBuilder(opts Options) (*Builder, error) {
	b := &Builder{
		maxDepth: opts.MaxDepth,
		glyphs:   opts.glyphs(),
		firstH1:  opts.includeFirstH1(),
		filter:   opts.Filter,
		listItem: opts.ListItem,
	}
	if b.maxDepth <= 0 {
		b.maxDepth = defaultBulletsMaxDepth
	}
	if b.listItem != nil {
		if err := smokeTest(b.listItem); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func smokeTest(fn ListItemFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = utils.WrapErrorf(ErrInvalidRenderFunction, "list item renderer panicked: %v", r)
		}
	}()
	fn(1, "test")
	return nil
}

// indent reports whether levels are used as-is (true) or shifted up by one.
// A lone leading H1 acts as a document title unless the caller includes it.
func (b *Builder) indent(headings []Heading) bool {
	firstIsH1 := false
	numH1s := 0
	if len(headings) >= 2 {
		for i, h := range headings {
			if h.Level == 1 {
				numH1s++
				if i == 0 {
					firstIsH1 = true
				}
			}
		}
	}

	otherH1s := false
	switch {
	case numH1s == 0:
	case firstIsH1 && numH1s > 1:
		otherH1s = true
	case !firstIsH1 && numH1s > 0:
		otherH1s = true
	}

	switch {
	case firstIsH1 && otherH1s:
		return true
	case firstIsH1 && !otherH1s:
		return b.firstH1
	case !firstIsH1 && otherH1s:
		return true
	default:
		return true
	}
}

// Build renders headings, using Rendered as the entry text when set.
// Filtered and too-deep headings still count toward the depth baseline.
func (b *Builder) Build(headings []Heading) (string, []Entry) {
	shift := 0
	if !b.indent(headings) {
		shift = 1
	}

	levels := make([]int, len(headings))
	baseline := 0
	for i, h := range headings {
		levels[i] = h.Level - shift
		if i == 0 || levels[i] < baseline {
			baseline = levels[i]
		}
	}

	entries := make([]Entry, 0, len(headings))
	for i, h := range headings {
		text := h.Rendered
		if text == "" {
			text = h.Content
		}
		if b.filter != nil && !b.filter(text, h, headings) {
			continue
		}
		if levels[i] > b.maxDepth {
			continue
		}
		depth := levels[i] - baseline
		glyph := b.glyphs[depth%len(b.glyphs)]
		entries = append(entries, Entry{
			Glyph: glyph,
			Level: depth,
			Text:  text,
			Line:  b.line(depth, glyph, text),
		})
	}

	return joinLines(entries), entries
}

func joinLines(entries []Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Line
	}
	return strings.Join(lines, "\n")
}

func (b *Builder) line(depth int, glyph, text string) string {
	if b.listItem != nil {
		return b.listItem(depth, text)
	}
	return strings.Repeat(indentUnit, depth) + glyph + " " + text
}

// Bullets renders headings with opts. MaxDepth defaults to 3 here.
func Bullets(headings []Heading, opts Options) (string, []Entry, error) {
	b, err := NewBuilder(opts)
	if err != nil {
		return "", nil, fmt.Errorf("building bullet list: %w", err)
	}
	out, entries := b.Build(headings)
	return out, entries, nil
}

package toc

import (
	"regexp"

	"github.com/Sriram-PR/md-toc/pkg/parse"
)

var markerRe = regexp.MustCompile(`<!--[ \t]*toc[ \t]*-->`)

// Heading is one heading as it moves through the pipeline.
// Extract fills Content, Level, Line and Index; the assembler adds Seen, Slug and Rendered.
type Heading struct {
	Content  string // raw heading source
	Key      string // dedup key: link label when the heading is a link, else Content
	Level    int
	Line     int
	Index    int // position of the heading_open token
	Seen     int // prior headings sharing Key
	Slug     string
	Rendered string
}

// Extract returns the headings that start after the last toc marker, in document order.
// Without a marker every heading is kept.
func Extract(tokens []parse.Token) []Heading {
	cutoff := -1
	for _, tok := range tokens {
		if len(tok.Lines) == 2 && markerRe.MatchString(tok.Content) {
			cutoff = tok.Lines[1]
		}
	}

	var out []Heading
	for i, tok := range tokens {
		if !tok.IsHeadingOpen() || i+1 >= len(tokens) {
			continue
		}
		inline := tokens[i+1]
		if inline.Type != parse.Inline || len(inline.Lines) == 0 {
			continue // empty heading
		}
		if inline.Lines[0] <= cutoff {
			continue
		}
		out = append(out, Heading{
			Content: inline.Content,
			Key:     headingKey(inline),
			Level:   tok.HLevel,
			Line:    inline.Lines[0],
			Index:   i,
		})
	}
	return out
}

func headingKey(inline parse.Token) string {
	c := inline.Children
	if len(c) > 1 && c[0].Type == parse.LinkOpen && c[1].Type == parse.Text {
		return c[1].Content
	}
	return inline.Content
}

// Highest returns the smallest level among headings, or 0 when there are none.
func Highest(headings []Heading) int {
	h := 0
	for i, hd := range headings {
		if i == 0 || hd.Level < h {
			h = hd.Level
		}
	}
	return h
}

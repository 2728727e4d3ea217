package toc

import (
	"encoding/json"
	"fmt"

	"github.com/Sriram-PR/md-toc/pkg/parse"
	"github.com/Sriram-PR/md-toc/pkg/slug"
)

// JSONHeading is the machine-readable form of an included heading.
type JSONHeading struct {
	Content string `json:"content"`
	Slug    string `json:"slug"`
	Lvl     int    `json:"lvl"`
	I       int    `json:"i"`
	Seen    int    `json:"seen"`
}

// Result is the output of Generate.
type Result struct {
	Content string        `json:"content"`
	Highest int           `json:"highest"`
	Tokens  []parse.Token `json:"tokens,omitempty"`
	JSON    []JSONHeading `json:"json"`
	Entries []Entry       `json:"entries"`
}

// JSONSummary encodes the result without the token stream.
func (r *Result) JSONSummary() ([]byte, error) {
	out := *r
	out.Tokens = nil
	return json.MarshalIndent(out, "", "  ")
}

// Generate parses markdown and builds its table of contents.
func Generate(markdown string, opts Options) (*Result, error) {
	return FromTokens(parse.ParseString(markdown), opts)
}

// FromTokens builds a table of contents from an already parsed token stream.
// MaxDepth defaults to 6.
func FromTokens(tokens []parse.Token, opts Options) (*Result, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultGenerateMaxDepth
	}

	r, err := newRenderer(opts)
	if err != nil {
		return nil, err
	}
	builder, err := NewBuilder(opts)
	if err != nil {
		return nil, err
	}

	extracted := Extract(tokens)
	headings := make([]Heading, 0, len(extracted))
	entriesJSON := make([]JSONHeading, 0, len(extracted))
	seen := make(map[string]int)

	for _, h := range extracted {
		h.Seen = seen[h.Key]
		h.Slug = slug.Slugify(h.Key, opts.slugOptions(0))

		jsonSlug := h.Slug
		if h.Seen > 0 {
			jsonSlug = fmt.Sprintf("%s-%d", h.Slug, h.Seen)
		}
		entriesJSON = append(entriesJSON, JSONHeading{
			Content: h.Content,
			Slug:    jsonSlug,
			Lvl:     h.Level,
			I:       h.Index,
			Seen:    h.Seen,
		})

		h.Rendered = r.render(h)
		headings = append(headings, h)
		seen[h.Key]++
	}

	// firsth1 == false removes the first heading's entry. The indent decision,
	// filter and maxdepth then see only the remaining headings.
	listed := headings
	if !opts.includeFirstH1() && len(listed) > 0 {
		listed = listed[1:]
	}
	content, entries := builder.Build(listed)
	if opts.Append != "" {
		content += opts.Append
	}

	return &Result{
		Content: content,
		Highest: Highest(headings),
		Tokens:  tokens,
		JSON:    entriesJSON,
		Entries: entries,
	}, nil
}

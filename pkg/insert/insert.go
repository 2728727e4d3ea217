// Package insert splices a generated table of contents between marker comments.
package insert

import (
	"regexp"
	"strings"

	"github.com/Sriram-PR/md-toc/pkg/frontmatter"
	"github.com/Sriram-PR/md-toc/pkg/toc"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// ErrMultipleTocMarkers is returned when a document holds more than one marker pair.
var ErrMultipleTocMarkers = utils.ErrMultipleTocMarkers

const (
	DefaultOpen  = "<!-- toc -->\n\n"
	DefaultClose = "<!-- tocstop -->"
)

// DefaultRegex matches both the open and the close marker.
var DefaultRegex = regexp.MustCompile(`(?i)<!--\s*toc(?:\s*stop)?\s*-->`)

var trailingNewlinesRe = regexp.MustCompile(`\n+$`)

// Options configures Insert. Zero-valued fields fall back to the defaults above.
type Options struct {
	toc.Options

	Regex *regexp.Regexp
	Open  string
	Close string
	// Toc is inserted verbatim instead of a generated table of contents.
	Toc string
}

func (o Options) withDefaults() Options {
	if o.Regex == nil {
		o.Regex = DefaultRegex
	}
	if o.Open == "" {
		o.Open = DefaultOpen
	}
	if o.Close == "" {
		o.Close = DefaultClose
	}
	return o
}

// HasMarker reports whether doc contains at least one toc marker.
func HasMarker(doc string, re *regexp.Regexp) bool {
	if re == nil {
		re = DefaultRegex
	}
	return re.MatchString(doc)
}

// Result is the outcome of Apply.
type Result struct {
	Output   string
	Headings int // headings listed by a generated table of contents; 0 for a literal Toc
}

// Insert returns doc with its table of contents inserted or replaced.
// A document without a marker comes back unchanged. The run of trailing newlines
// and any front matter block are preserved.
func Insert(doc string, opts Options) (string, error) {
	res, err := Apply(doc, opts)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// Apply is Insert that also reports how many headings the table of contents lists.
func Apply(doc string, opts Options) (Result, error) {
	opts = opts.withDefaults()

	newlines := trailingNewlinesRe.FindString(doc)

	body := doc
	var matter *frontmatter.Matter
	if frontmatter.Has(doc) {
		m, err := frontmatter.Parse(doc)
		if err != nil {
			return Result{}, err
		}
		matter = m
		body = m.Content
	}
	lead := body[:len(body)-len(strings.TrimLeft(body, "\n"))]

	sections := split(body, opts.Regex)
	if len(sections) > 3 {
		return Result{}, utils.WrapErrorf(ErrMultipleTocMarkers, "found %d markers", len(sections)-1)
	}
	if len(sections) == 1 {
		return Result{Output: doc}, nil
	}

	last := sections[len(sections)-1]
	content := opts.Toc
	headings := 0
	if content == "" {
		res, err := toc.Generate(last, opts.Options)
		if err != nil {
			return Result{}, err
		}
		content = res.Content
		headings = len(res.JSON)
	}

	var parts []string
	if len(sections) == 3 {
		parts = []string{sections[0], opts.Open + content, opts.Close, sections[2]}
	} else {
		parts = []string{sections[0], opts.Open + content + "\n\n" + opts.Close, sections[1]}
	}

	out := lead + strings.Join(dropEmptyEdges(parts), "\n\n") + newlines
	if matter != nil {
		stringified, err := matter.Stringify(out)
		if err != nil {
			return Result{}, err
		}
		out = stringified
	}
	return Result{Output: out, Headings: headings}, nil
}

func split(s string, re *regexp.Regexp) []string {
	sections := re.Split(s, -1)
	for i := range sections {
		sections[i] = strings.TrimSpace(sections[i])
	}
	return sections
}

// dropEmptyEdges removes an empty leading or trailing section so the
// result neither starts with nor gains blank lines.
func dropEmptyEdges(parts []string) []string {
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}

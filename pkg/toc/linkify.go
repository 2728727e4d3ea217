package toc

import (
	"regexp"
	"strings"

	"github.com/Sriram-PR/md-toc/pkg/slug"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

var (
	blankRunRe = regexp.MustCompile(`[ \t]+`)
	edgeDashRe = regexp.MustCompile(`^-|-$`)
)

// renderer holds the per-call strategies resolved from Options.
type renderer struct {
	opts     Options
	stripRe  *regexp.Regexp
	titleize func(string) string
	link     LinkifyFunc
}

func newRenderer(opts Options) (*renderer, error) {
	r := &renderer{opts: opts}

	if opts.Strip.Func == nil && len(opts.Strip.Words) > 0 {
		re, err := utils.CompileAlternation(opts.Strip.Words)
		if err != nil {
			return nil, err
		}
		r.stripRe = re
	}

	switch {
	case opts.Strip.enabled():
		r.titleize = r.strip
	case opts.Titleize.Off:
		r.titleize = func(s string) string { return s }
	case opts.Titleize.Func != nil:
		r.titleize = opts.Titleize.Func
	default:
		r.titleize = Titleize
	}

	switch {
	case opts.Linkify.Off:
		r.link = nil
	case opts.Linkify.Func != nil:
		r.link = opts.Linkify.Func
	default:
		r.link = func(_ Heading, text, escapedSlug string) string {
			return "[" + text + "](#" + escapedSlug + ")"
		}
	}
	return r, nil
}

func (r *renderer) strip(s string) string {
	if r.opts.Strip.Func != nil {
		return r.opts.Strip.Func(s)
	}
	if r.stripRe == nil {
		return s
	}
	s = r.stripRe.ReplaceAllString(strings.TrimSpace(s), "")
	return edgeDashRe.ReplaceAllString(s, "")
}

// render returns the entry text for h. Headings with empty content are returned as-is.
func (r *renderer) render(h Heading) string {
	if h.Content == "" {
		return h.Content
	}
	text := r.titleize(h.Content)
	if r.link == nil {
		return text
	}
	anchor := slug.Slugify(h.Content, r.opts.slugOptions(h.Seen))
	return r.link(h, text, slug.Escape(anchor))
}

// Titleize unwraps a markdown link label, removes tags and collapses blank runs.
func Titleize(s string) string {
	s = slug.Title(s)
	s = slug.StripTags(s)
	s = blankRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Linkify renders a single heading with opts, using h.Seen as the occurrence number.
func Linkify(h Heading, opts Options) (string, error) {
	r, err := newRenderer(opts)
	if err != nil {
		return "", err
	}
	return r.render(h), nil
}

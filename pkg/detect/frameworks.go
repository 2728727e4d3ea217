package detect

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FrameworkSignature defines detection patterns for a documentation generator
type FrameworkSignature struct {
	Framework    Framework
	Selector     string   // CSS selector for the main content
	Attributes   []string // HTML attributes to look for (e.g., "data-docusaurus")
	Classes      []string // CSS classes; a trailing "*" matches by prefix
	Scripts      []string // Script src substrings
	Generators   []string // <meta name="generator"> content substrings
	HTMLPatterns []string // Substrings of the raw HTML, case-insensitive
}

// Matches returns true if the document matches this generator's signature
func (sig *FrameworkSignature) Matches(doc *goquery.Document, html string) bool {
	for _, attr := range sig.Attributes {
		if doc.Find("[" + attr + "]").Length() > 0 {
			return true
		}
	}

	for _, class := range sig.Classes {
		if prefix, ok := strings.CutSuffix(class, "*"); ok {
			if hasClassPrefix(doc, prefix) {
				return true
			}
		} else if doc.Find("."+class).Length() > 0 {
			return true
		}
	}

	if anyAttrContains(doc.Find("script[src]"), "src", sig.Scripts) {
		return true
	}
	if anyAttrContains(doc.Find("meta[name='generator']"), "content", sig.Generators) {
		return true
	}

	htmlLower := strings.ToLower(html)
	for _, pattern := range sig.HTMLPatterns {
		if strings.Contains(htmlLower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

func hasClassPrefix(doc *goquery.Document, prefix string) bool {
	found := false
	doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, c := range strings.Fields(s.AttrOr("class", "")) {
			if strings.HasPrefix(c, prefix) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// anyAttrContains reports whether attr of any selected node contains one of the patterns,
// ignoring case
func anyAttrContains(sel *goquery.Selection, attr string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	found := false
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		value := strings.ToLower(s.AttrOr(attr, ""))
		for _, p := range patterns {
			if strings.Contains(value, strings.ToLower(p)) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// frameworkSignatures contains detection patterns for known documentation generators.
// Order matters: more specific patterns come first.
var frameworkSignatures = []FrameworkSignature{
	{
		Framework:    FrameworkDocusaurus,
		Selector:     "article[class*='theme-doc'], .theme-doc-markdown, article.markdown, main article",
		Attributes:   []string{"data-docusaurus", "data-docusaurus-root-container"},
		Classes:      []string{"docusaurus-wrapper", "theme-doc-markdown"},
		Generators:   []string{"docusaurus"},
		HTMLPatterns: []string{"__docusaurus"},
	},
	{
		Framework:  FrameworkVitePress,
		Selector:   ".vp-doc, main .content",
		Classes:    []string{"vp-doc", "VPDoc"},
		Generators: []string{"vitepress"},
	},
	{
		Framework:    FrameworkMkDocs,
		Selector:     "article.md-content__inner, .md-content article, .md-content, div[role='main']",
		Attributes:   []string{"data-md-component", "data-md-color-scheme"},
		Classes:      []string{"md-content", "md-main"},
		Generators:   []string{"mkdocs"},
		HTMLPatterns: []string{"material for mkdocs"},
	},
	// ReadTheDocs before Sphinx: RTD themes are Sphinx output too
	{
		Framework:    FrameworkReadTheDocs,
		Selector:     ".rst-content, div[role='main'], .document",
		Classes:      []string{"rst-content", "wy-nav-content"},
		Scripts:      []string{"readthedocs"},
		HTMLPatterns: []string{"readthedocs.org", "readthedocs.io", "sphinx-rtd-theme"},
	},
	{
		Framework:    FrameworkSphinx,
		Selector:     "div.document, div.body, article.bd-article, main.bd-main",
		Classes:      []string{"sphinxsidebar", "sphinx-tabs"},
		Scripts:      []string{"searchindex.js", "_static/sphinx"},
		HTMLPatterns: []string{"created using sphinx", "sphinx-doc.org", "_static/alabaster", "_static/pygments"},
	},
	{
		Framework:  FrameworkDocsy,
		Selector:   ".td-content, main[role='main']",
		Classes:    []string{"td-content", "td-main"},
		Generators: []string{"hugo"},
	},
	{
		Framework:    FrameworkGitBook,
		Selector:     "section.normal.markdown-section, .page-inner section, main[class*='gitbook']",
		Classes:      []string{"gitbook*", "markdown-section"},
		HTMLPatterns: []string{"gb-page"},
	},
}

// GetFrameworkSelector returns the content selector for a known generator
func GetFrameworkSelector(fw Framework) string {
	for _, sig := range frameworkSignatures {
		if sig.Framework == fw {
			return sig.Selector
		}
	}
	return ""
}

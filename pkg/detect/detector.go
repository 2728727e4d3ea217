package detect

import (
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// AutoSelector is the content selector value that turns on detection
const AutoSelector = "auto"

// Framework represents a detected documentation generator
type Framework string

const (
	FrameworkUnknown     Framework = "unknown"
	FrameworkDocusaurus  Framework = "docusaurus"
	FrameworkMkDocs      Framework = "mkdocs"
	FrameworkSphinx      Framework = "sphinx"
	FrameworkGitBook     Framework = "gitbook"
	FrameworkReadTheDocs Framework = "readthedocs"
	FrameworkVitePress   Framework = "vitepress"
	FrameworkDocsy       Framework = "docsy"
)

// DetectionResult contains the result of content selector detection
type DetectionResult struct {
	Framework Framework // Detected generator (or unknown)
	Selector  string    // CSS selector for the main content
	Fallback  bool      // True if the content must be found by readability extraction
}

// ContentDetector finds the main content selector of generated HTML documentation.
// Pages in one directory come from the same generator, so results are cached per directory.
type ContentDetector struct {
	cache *SelectorCache
	log   *logrus.Entry
}

// NewContentDetector creates a new content detector with caching
func NewContentDetector(log *logrus.Entry) *ContentDetector {
	return &ContentDetector{
		cache: NewSelectorCache(),
		log:   log,
	}
}

// Detect determines the content selector for the page at path.
// It checks the cache, then the known generator signatures, and falls back to readability.
func (d *ContentDetector) Detect(doc *goquery.Document, path string) DetectionResult {
	dir := filepath.Dir(filepath.Clean(path))

	if cached, ok := d.cache.Get(dir); ok {
		d.log.Debugf("Using cached selector for %s: %q (framework: %s)", dir, cached.Selector, cached.Framework)
		return cached
	}

	result := DetectFramework(doc)
	if result.Framework != FrameworkUnknown {
		d.log.Infof("Detected %s pages in %s, using selector: %s", result.Framework, dir, result.Selector)
	} else {
		d.log.Infof("No documentation generator detected in %s, using readability extraction", dir)
	}
	d.cache.Set(dir, result)
	return result
}

// DetectFramework matches the document against the known generator signatures
func DetectFramework(doc *goquery.Document) DetectionResult {
	html, _ := doc.Html()

	for _, sig := range frameworkSignatures {
		if sig.Matches(doc, html) {
			return DetectionResult{Framework: sig.Framework, Selector: sig.Selector}
		}
	}
	return DetectionResult{Framework: FrameworkUnknown, Fallback: true}
}

// IsAutoSelector returns true if the selector value asks for detection
func IsAutoSelector(selector string) bool {
	return strings.EqualFold(strings.TrimSpace(selector), AutoSelector)
}

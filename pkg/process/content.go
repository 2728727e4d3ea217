package process

import (
	"fmt"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/md-toc/pkg/detect"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// IsHTML reports whether path names an HTML source by extension
func IsHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// IsMarkdown reports whether path names a markdown source by extension
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

// HTMLToMarkdown selects the main content of an HTML page and converts it to markdown,
// so a table of contents can be generated from its headings.
// The "auto" selector detects the generator that produced the page; detector caches those
// results and may be nil.
func HTMLToMarkdown(page, selector, path string, detector *detect.ContentDetector) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", utils.WrapErrorf(utils.ErrParsing, "HTML document: %v", err)
	}

	content, err := selectContent(doc, selector, path, detector)
	if err != nil {
		return "", err
	}
	cleanupHTML(content)

	contentHTML, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("%w: reading selected HTML: %w", utils.ErrMarkdownConversion, err)
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(contentHTML)
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrMarkdownConversion, err)
	}
	return markdown, nil
}

// selectContent returns a copy of the page's main content
func selectContent(doc *goquery.Document, selector, path string, detector *detect.ContentDetector) (*goquery.Selection, error) {
	if selector == "" {
		selector = "body"
	}
	if !detect.IsAutoSelector(selector) {
		selection := doc.Find(selector)
		if selection.Length() == 0 {
			return nil, utils.WrapErrorf(utils.ErrParsing, "HTML content selector '%s' matched nothing", selector)
		}
		return selection.First().Clone(), nil
	}

	var result detect.DetectionResult
	if detector != nil {
		result = detector.Detect(doc, path)
	} else {
		result = detect.DetectFramework(doc)
	}
	if !result.Fallback {
		// A generator's theme may lack the expected container; readability still applies
		if selection := doc.Find(result.Selector); selection.Length() > 0 {
			return selection.First().Clone(), nil
		}
	}
	return detect.ExtractMain(doc, path)
}

// cleanupHTML removes permalink anchors that would otherwise leak into heading text
// (Sphinx `¶`, "#" hover links, edit-on-GitHub buttons).
func cleanupHTML(content *goquery.Selection) {
	content.Find("script, style, nav").Remove()

	content.Find("a.headerlink").Remove()
	content.Find("a.edit-on-github").Remove()
	content.Find("a.permalink").Remove()
	content.Find("a[title='Permalink to this heading']").Remove()
	content.Find("a[title='Link to this heading']").Remove()

	content.Find("h1 a, h2 a, h3 a, h4 a, h5 a, h6 a").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		href, _ := s.Attr("href")
		if text == "¶" || text == "#" || (text == "" && strings.HasPrefix(href, "#")) {
			s.Remove()
		}
	})
}

package detect

import (
	"fmt"
	"html"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// ExtractMain finds the main content of a page with Mozilla's Readability algorithm.
// The result is a selection over a new document, safe to modify.
func ExtractMain(doc *goquery.Document, path string) (*goquery.Selection, error) {
	page, err := doc.Html()
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrParsing, "reading HTML of '%s': %v", path, err)
	}

	article, err := readability.FromReader(strings.NewReader(page), fileURL(path))
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrParsing, "readability extraction of '%s': %v", path, err)
	}
	if strings.TrimSpace(article.Content) == "" {
		return nil, utils.WrapErrorf(utils.ErrParsing, "readability found no content in '%s'", path)
	}

	contentDoc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing extracted content: %w", utils.ErrParsing, err)
	}

	// Readability drops the page title from the article body; put it back as the top heading
	body := contentDoc.Find("body")
	if article.Title != "" && body.Find("h1").Length() == 0 {
		body.PrependHtml("<h1>" + html.EscapeString(article.Title) + "</h1>")
	}
	return body, nil
}

// fileURL gives readability a base for resolving relative links
func fileURL(path string) *url.URL {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
}

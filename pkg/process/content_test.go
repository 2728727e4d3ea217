package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/md-toc/pkg/detect"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

const mkdocsPage = `<html><head><meta name="generator" content="mkdocs-1.5.3, mkdocs-material-9.4"></head>
<body><header><h1>Site</h1></header>
<div class="md-content" data-md-component="content"><article class="md-content__inner">
<h1 id="install">Install<a class="headerlink" href="#install">¶</a></h1>
<h2 id="pip">Using pip</h2>
</article></div></body></html>`

func TestHTMLToMarkdown_ExplicitSelector(t *testing.T) {
	out, err := HTMLToMarkdown(mkdocsPage, "article", "site/install.html", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "# Install")
	assert.Contains(t, out, "## Using pip")
	assert.NotContains(t, out, "¶")
	assert.NotContains(t, out, "Site")
}

func TestHTMLToMarkdown_DefaultsToBody(t *testing.T) {
	out, err := HTMLToMarkdown(mkdocsPage, "", "site/install.html", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "# Site")
	assert.Contains(t, out, "# Install")
}

func TestHTMLToMarkdown_AutoDetectsGenerator(t *testing.T) {
	detector := detect.NewContentDetector(testLogger())

	for _, selector := range []string{"auto", "AUTO"} {
		out, err := HTMLToMarkdown(mkdocsPage, selector, "site/install.html", detector)
		require.NoError(t, err)
		assert.Contains(t, out, "# Install")
		assert.NotContains(t, out, "Site", "header outside the generator's content container")
	}

	out, err := HTMLToMarkdown(mkdocsPage, "auto", "site/install.html", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "## Using pip")
}

func TestHTMLToMarkdown_SelectorMatchesNothing(t *testing.T) {
	_, err := HTMLToMarkdown("<html><body><p>x</p></body></html>", "main", "a.html", nil)
	require.Error(t, err)
	assert.Equal(t, "Content_ParsingHTML", utils.CategorizeError(err))
}

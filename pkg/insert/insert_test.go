package insert

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/Sriram-PR/md-toc/pkg/toc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "# Title\n\n<!-- toc -->\n\n## AAA\n\ntext\n\n## BBB\n"

const expected = "# Title\n\n<!-- toc -->\n\n- [AAA](#aaa)\n- [BBB](#bbb)\n\n<!-- tocstop -->\n\n## AAA\n\ntext\n\n## BBB\n"

func mustInsert(t *testing.T, doc string, opts Options) string {
	t.Helper()
	out, err := Insert(doc, opts)
	require.NoError(t, err)
	return out
}

func TestInsert_BeneathMarker(t *testing.T) {
	assert.Equal(t, expected, mustInsert(t, fixture, Options{}))
}

func TestInsert_ReplacesExisting(t *testing.T) {
	stale := "# Title\n\n<!-- toc -->\n\n- [Old](#old)\n\n<!-- tocstop -->\n\n## AAA\n\ntext\n\n## BBB\n"
	assert.Equal(t, expected, mustInsert(t, stale, Options{}))
}

func TestInsert_Idempotent(t *testing.T) {
	once := mustInsert(t, fixture, Options{})
	twice := mustInsert(t, once, Options{})
	assert.Equal(t, once, twice)
}

func TestApply_Headings(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		opts     Options
		headings int
	}{
		{"Generated", fixture, Options{}, 2},
		{"HeadingsAboveMarkerNotCounted", "# A\n# B\n<!-- toc -->\n## C\n", Options{}, 1},
		{"LiteralToc", fixture, Options{Toc: "- custom"}, 0},
		{"NoMarker", "# A\n", Options{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Apply(tt.doc, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.headings, res.Headings)
			out, err := Insert(tt.doc, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, out, res.Output)
		})
	}
}

func TestInsert_LiteralToc(t *testing.T) {
	stale := "# Title\n\n<!-- toc -->\n\n- [Old](#old)\n\n<!-- tocstop -->\n\n## AAA\n"
	out := mustInsert(t, stale, Options{Toc: "- Foo"})
	assert.Equal(t, "# Title\n\n<!-- toc -->\n\n- Foo\n\n<!-- tocstop -->\n\n## AAA\n", out)
}

func TestInsert_NoLinks(t *testing.T) {
	out := mustInsert(t, fixture, Options{Options: toc.Options{Linkify: toc.LinkifyMode{Off: true}}})
	assert.Contains(t, out, "<!-- toc -->\n\n- AAA\n- BBB\n\n<!-- tocstop -->")
}

func TestInsert_PassesGenerationOptions(t *testing.T) {
	out := mustInsert(t, fixture, Options{Options: toc.Options{Bullets: []string{"*"}}})
	assert.Contains(t, out, "* [AAA](#aaa)\n* [BBB](#bbb)")
}

func TestInsert_MultipleMarkers(t *testing.T) {
	doc := "<!-- toc -->\n\n<!-- tocstop -->\n\n# A\n\n<!-- toc -->\n\n# B\n"
	out, err := Insert(doc, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMultipleTocMarkers))
	assert.Empty(t, out)
}

func TestInsert_NoMarkerUnchanged(t *testing.T) {
	doc := "\n  # Title\n\n## AAA\n\n"
	assert.Equal(t, doc, mustInsert(t, doc, Options{}))
}

func TestInsert_MarkerAtStart(t *testing.T) {
	out := mustInsert(t, "<!-- toc -->\n\n# AAA\n\n\n", Options{})
	assert.Equal(t, "<!-- toc -->\n\n- [AAA](#aaa)\n\n<!-- tocstop -->\n\n# AAA\n\n\n", out)
}

func TestInsert_RetainsTrailingNewlines(t *testing.T) {
	for _, tail := range []string{"", "\n", "\n\n", "\n\n\n\n"} {
		t.Run("tail"+string(rune('0'+len(tail))), func(t *testing.T) {
			for _, base := range []string{
				"# T\n\n<!-- toc -->\n\n## A",
				"# T\n\n<!-- toc -->",
				"<!-- toc -->\n\n- old\n\n<!-- tocstop -->\n\n# A",
			} {
				out := mustInsert(t, base+tail, Options{})
				got := len(out) - len(strings.TrimRight(out, "\n"))
				assert.Equal(t, len(tail), got, "input %q", base+tail)
			}
		})
	}
}

func TestInsert_FrontMatter(t *testing.T) {
	doc := "---\ntitle: Doc\n---\n\n# Title\n\n<!-- toc -->\n\n## AAA\n"
	out := mustInsert(t, doc, Options{})
	assert.Equal(t, "---\ntitle: Doc\n---\n\n# Title\n\n<!-- toc -->\n\n- [AAA](#aaa)\n\n<!-- tocstop -->\n\n## AAA\n", out)
}

func TestInsert_FrontMatterNotHeading(t *testing.T) {
	// Without front matter handling "title: Doc\n---" would read as a setext heading.
	doc := "---\ntitle: Doc\n---\n<!-- toc -->\n\n## AAA\n"
	out := mustInsert(t, doc, Options{})
	assert.NotContains(t, out, "#title-doc")
	assert.Contains(t, out, "- [AAA](#aaa)")
}

func TestInsert_InvalidFrontMatter(t *testing.T) {
	_, err := Insert("---\ntitle: [x\n---\n<!-- toc -->\n# A", Options{})
	require.Error(t, err)
}

func TestInsert_MarkerVariants(t *testing.T) {
	doc := "# Title\n\n<!--TOC-->\n\n- old\n\n<!-- toc stop -->\n\n## AAA\n"
	out := mustInsert(t, doc, Options{})
	assert.Equal(t, "# Title\n\n<!-- toc -->\n\n- [AAA](#aaa)\n\n<!-- tocstop -->\n\n## AAA\n", out)
}

func TestInsert_CustomTags(t *testing.T) {
	doc := "# Title\n\n[[toc]]\n\n## AAA\n"
	out := mustInsert(t, doc, Options{
		Regex: regexp.MustCompile(`\[\[/?toc\]\]`),
		Open:  "[[toc]]\n\n",
		Close: "[[/toc]]",
	})
	assert.Equal(t, "# Title\n\n[[toc]]\n\n- [AAA](#aaa)\n\n[[/toc]]\n\n## AAA\n", out)
	assert.Equal(t, out, mustInsert(t, out, Options{
		Regex: regexp.MustCompile(`\[\[/?toc\]\]`),
		Open:  "[[toc]]\n\n",
		Close: "[[/toc]]",
	}))
}

func TestHasMarker(t *testing.T) {
	assert.True(t, HasMarker("a\n<!-- toc -->\n", nil))
	assert.True(t, HasMarker("<!-- tocstop -->", nil))
	assert.False(t, HasMarker("# Nothing here", nil))
}

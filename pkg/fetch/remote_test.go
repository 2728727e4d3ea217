package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// docServer serves a robots.txt disallowing /private and a few documents
func docServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	robotsHits := &atomic.Int32{}
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		robotsHits.Add(1)
		w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	})
	mux.HandleFunc("/README.md", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("# Title\n\n## Usage\n"))
	})
	mux.HandleFunc("/guide", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><h1>Guide</h1></body></html>"))
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/README.md", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/private/notes.md", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# Secret\n"))
	})
	mux.HandleFunc("/big.md", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, robotsHits
}

func TestRemote_Get(t *testing.T) {
	server, robotsHits := docServer(t)
	remote := NewRemote(testConfig(0), testLogger())

	doc, err := remote.Get(context.Background(), server.URL+"/README.md")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\n## Usage\n", doc.Body)
	assert.False(t, doc.IsHTML())

	doc, err = remote.Get(context.Background(), server.URL+"/guide")
	require.NoError(t, err)
	assert.True(t, doc.IsHTML())

	doc, err = remote.Get(context.Background(), server.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/README.md", doc.URL)

	assert.Equal(t, int32(1), robotsHits.Load(), "robots.txt is fetched once per host")
}

func TestRemote_Errors(t *testing.T) {
	server, _ := docServer(t)

	tests := []struct {
		name     string
		url      string
		category string
	}{
		{"robots disallowed", server.URL + "/private/notes.md", "Policy_Robots"},
		{"not found", server.URL + "/missing.md", "HTTP_404"},
		{"bad scheme", "ftp://example.com/a.md", "Content_ParsingOther"},
	}

	remote := NewRemote(testConfig(0), testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := remote.Get(context.Background(), tt.url)
			require.Error(t, err)
			assert.Equal(t, tt.category, utils.CategorizeError(err))
		})
	}
}

func TestRemote_RobotsIgnored(t *testing.T) {
	server, robotsHits := docServer(t)
	cfg := testConfig(0)
	off := false
	cfg.RespectRobotsTxt = &off

	doc, err := NewRemote(cfg, testLogger()).Get(context.Background(), server.URL+"/private/notes.md")
	require.NoError(t, err)
	assert.Equal(t, "# Secret\n", doc.Body)
	assert.Equal(t, int32(0), robotsHits.Load())
}

func TestRemote_BodyLimit(t *testing.T) {
	server, _ := docServer(t)
	cfg := testConfig(0)
	cfg.MaxBodyBytes = 1024

	_, err := NewRemote(cfg, testLogger()).Get(context.Background(), server.URL+"/big.md")
	assert.ErrorIs(t, err, utils.ErrResponseTooLarge)
}

func TestRobots_MissingFileAllowsAll(t *testing.T) {
	server, _ := statusServer(t, http.StatusNotFound, http.StatusOK)
	cfg := testConfig(0)
	fetcher := NewFetcher(NewClient(cfg, testLogger()), cfg, testLogger())
	robots := NewRobotsHandler(fetcher, NewRateLimiter(0, testLogger()), cfg.UserAgent, testLogger())

	doc, err := http.NewRequest(http.MethodGet, server.URL+"/anything.md", nil)
	require.NoError(t, err)
	assert.True(t, robots.TestAgent(context.Background(), doc.URL))
	assert.Nil(t, robots.GetRobotsData(context.Background(), doc.URL))
}

func TestDocument_IsHTML(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		want        bool
	}{
		{"html header", "https://x.dev/a", "text/html; charset=utf-8", true},
		{"xhtml header", "https://x.dev/a", "application/xhtml+xml", true},
		{"markdown header wins over extension", "https://x.dev/a.html", "text/markdown", false},
		{"plain text", "https://x.dev/README", "text/plain", false},
		{"generic header uses extension", "https://x.dev/a.htm", "application/octet-stream", true},
		{"no header, markdown extension", "https://x.dev/a.md", "", false},
		{"no header, html extension", "https://x.dev/docs/index.HTML?v=1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Document{URL: tt.url, ContentType: tt.contentType}.IsHTML())
		})
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/README.md"))
	assert.True(t, IsURL("http://localhost:8080/doc"))
	assert.False(t, IsURL("README.md"))
	assert.False(t, IsURL("docs/http://x"))
	assert.False(t, IsURL("https://"))
	assert.False(t, IsURL("ftp://example.com/a.md"))
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTPS://Example.COM/Docs/README.md", "https://example.com/Docs/README.md"},
		{"http://example.com:80/a.md", "http://example.com/a.md"},
		{"https://example.com:443/a.md", "https://example.com/a.md"},
		{"https://example.com:8443/a.md", "https://example.com:8443/a.md"},
		{"https://example.com", "https://example.com/"},
		{"https://example.com/a.md#usage", "https://example.com/a.md"},
		{"https://example.com/a.md?raw=1", "https://example.com/a.md?raw=1"},
		{"https://example.com/guide/", "https://example.com/guide/"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

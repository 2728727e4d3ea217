package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/md-toc/pkg/config"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// Document is a remote document's body and how the server described it
type Document struct {
	URL         string // Final URL after redirects
	ContentType string
	Body        string
}

// IsHTML reports whether the document should be converted from HTML.
// The Content-Type header decides; the URL extension is used when the header is missing or generic.
func (d Document) IsHTML() bool {
	mediaType, _, err := mime.ParseMediaType(d.ContentType)
	if err == nil {
		switch mediaType {
		case "text/html", "application/xhtml+xml":
			return true
		case "text/markdown", "text/x-markdown", "text/plain":
			return false
		}
	}
	u, err := url.Parse(d.URL)
	if err != nil {
		return false
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// IsURL reports whether s names a remote http(s) document rather than a local path
func IsURL(s string) bool {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host != ""
}

// Remote reads documents over HTTP(S), honoring robots.txt and a per-host delay.
// It is safe for concurrent use.
type Remote struct {
	fetcher     *Fetcher
	rateLimiter *RateLimiter
	robots      *RobotsHandler
	cfg         config.FetchConfig
	log         *logrus.Entry
}

// NewRemote creates a Remote from validated fetch settings
func NewRemote(cfg config.FetchConfig, log *logrus.Entry) *Remote {
	remoteLog := log.WithField("component", "fetch")
	fetcher := NewFetcher(NewClient(cfg, remoteLog), cfg, remoteLog)
	rateLimiter := NewRateLimiter(cfg.DelayPerHost, remoteLog)

	r := &Remote{
		fetcher:     fetcher,
		rateLimiter: rateLimiter,
		cfg:         cfg,
		log:         remoteLog,
	}
	if cfg.GetEffectiveRespectRobots() {
		r.robots = NewRobotsHandler(fetcher, rateLimiter, cfg.UserAgent, remoteLog)
	}
	return r
}

// Get downloads the document at rawURL
func (r *Remote) Get(ctx context.Context, rawURL string) (Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Document{}, utils.WrapErrorf(utils.ErrParsing, "invalid document URL '%s'", rawURL)
	}

	if r.robots != nil && !r.robots.TestAgent(ctx, u) {
		return Document{}, utils.WrapErrorf(utils.ErrRobotsDisallowed, "%s", rawURL)
	}

	if err := r.rateLimiter.Wait(ctx, u.Host); err != nil {
		return Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, text/html;q=0.8, */*;q=0.5")

	resp, err := r.fetcher.FetchWithRetry(ctx, req)
	r.rateLimiter.Done(u.Host)
	if err != nil {
		drain(resp)
		return Document{}, fmt.Errorf("fetching '%s': %w", rawURL, err)
	}
	defer resp.Body.Close()

	limit := r.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Document{}, fmt.Errorf("%w: '%s': %w", utils.ErrResponseBodyRead, rawURL, err)
	}
	if int64(len(body)) > limit {
		return Document{}, utils.WrapErrorf(utils.ErrResponseTooLarge, "'%s' is larger than %d bytes", rawURL, limit)
	}

	r.log.WithFields(logrus.Fields{"url": rawURL, "bytes": len(body)}).Debug("Fetched remote document")
	return Document{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
	}, nil
}

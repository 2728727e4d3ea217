package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsHandler fetches, parses and caches robots.txt per host
type RobotsHandler struct {
	fetcher       *Fetcher
	rateLimiter   *RateLimiter
	userAgent     string
	robotsCache   map[string]*robotstxt.RobotsData // scheme://host -> parsed data (or nil)
	robotsCacheMu sync.Mutex
	log           *logrus.Entry
}

// NewRobotsHandler creates a RobotsHandler
func NewRobotsHandler(fetcher *Fetcher, rateLimiter *RateLimiter, userAgent string, log *logrus.Entry) *RobotsHandler {
	return &RobotsHandler{
		fetcher:     fetcher,
		rateLimiter: rateLimiter,
		userAgent:   userAgent,
		robotsCache: make(map[string]*robotstxt.RobotsData),
		log:         log,
	}
}

// GetRobotsData returns the robots.txt rules for the target's host, fetching on a cache miss.
// It returns nil when the file is missing or could not be fetched or parsed.
func (rh *RobotsHandler) GetRobotsData(ctx context.Context, targetURL *url.URL) *robotstxt.RobotsData {
	key := targetURL.Scheme + "://" + targetURL.Host

	rh.robotsCacheMu.Lock()
	robotsData, found := rh.robotsCache[key]
	rh.robotsCacheMu.Unlock()
	if found {
		return robotsData
	}

	robotsURL := &url.URL{Scheme: targetURL.Scheme, Host: targetURL.Host, Path: "/robots.txt"}
	robotsLog := rh.log.WithField("robots_url", robotsURL.String())
	robotsLog.Debug("Fetching robots.txt...")

	data := rh.fetch(ctx, robotsURL, robotsLog)

	rh.robotsCacheMu.Lock()
	rh.robotsCache[key] = data
	rh.robotsCacheMu.Unlock()
	return data
}

func (rh *RobotsHandler) fetch(ctx context.Context, robotsURL *url.URL, robotsLog *logrus.Entry) *robotstxt.RobotsData {
	host := robotsURL.Host
	if err := rh.rateLimiter.Wait(ctx, host); err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		robotsLog.Errorf("Error creating request: %v", err)
		return nil
	}
	req.Header.Set("User-Agent", rh.userAgent)

	resp, err := rh.fetcher.FetchWithRetry(ctx, req)
	rh.rateLimiter.Done(host)
	if err != nil {
		drain(resp)
		robotsLog.Debugf("No usable robots.txt: %v", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		robotsLog.Errorf("Error reading body: %v", err)
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		robotsLog.Errorf("Error parsing content: %v", err)
		return nil
	}
	robotsLog.Debug("Parsed robots.txt")
	return data
}

// TestAgent reports whether the user agent may fetch targetURL.
// Hosts without usable robots.txt rules allow everything.
func (rh *RobotsHandler) TestAgent(ctx context.Context, targetURL *url.URL) bool {
	robotsData := rh.GetRobotsData(ctx, targetURL)
	if robotsData == nil {
		return true
	}
	return robotsData.TestAgent(targetURL.RequestURI(), rh.userAgent)
}

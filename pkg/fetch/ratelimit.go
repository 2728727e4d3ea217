package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RateLimiter spaces out requests to the same host
type RateLimiter struct {
	hostLastRequest   map[string]time.Time // hostname -> last request attempt time
	hostLastRequestMu sync.Mutex
	delay             time.Duration
	log               *logrus.Entry
}

// NewRateLimiter creates a RateLimiter enforcing delay between requests to one host
func NewRateLimiter(delay time.Duration, log *logrus.Entry) *RateLimiter {
	return &RateLimiter{
		hostLastRequest: make(map[string]time.Time),
		delay:           delay,
		log:             log,
	}
}

// Wait blocks until the host's delay has passed since its last request, with +/- 10% jitter.
// It returns early with the context error if ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	if rl.delay <= 0 {
		return nil
	}

	rl.hostLastRequestMu.Lock()
	lastReqTime, exists := rl.hostLastRequest[host]
	rl.hostLastRequestMu.Unlock()
	if !exists {
		return nil
	}

	elapsed := time.Since(lastReqTime)
	if elapsed >= rl.delay {
		return nil
	}
	sleep := rl.delay - elapsed
	if width := int64(sleep) / 5; width > 0 {
		sleep += time.Duration(rand.Int63n(width)) - sleep/10
	}
	if sleep <= 0 {
		return nil
	}

	rl.log.WithFields(logrus.Fields{"host": host, "sleep": sleep, "elapsed": elapsed}).Debug("Rate limit applying sleep")
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done records the current time as the host's last request.
// Call it after the request attempt, whatever its outcome.
func (rl *RateLimiter) Done(host string) {
	rl.hostLastRequestMu.Lock()
	rl.hostLastRequest[host] = time.Now()
	rl.hostLastRequestMu.Unlock()
}

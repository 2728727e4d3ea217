package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// NumWorkers
	if c.NumWorkers <= 0 {
		warnings = append(warnings, "num_workers should be > 0, defaulting to 4")
		c.NumWorkers = 4
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './.md-toc-state'")
		c.StateDir = "./.md-toc-state"
	}

	// WatchDebounce
	if c.WatchDebounce < 0 {
		warnings = append(warnings, "watch_debounce cannot be negative, defaulting to 200ms")
		c.WatchDebounce = 0
	}
	if c.WatchDebounce == 0 {
		c.WatchDebounce = 200 * time.Millisecond
	}

	// MarkerRegex must compile, it decides where every document is split
	if c.MarkerRegex != "" {
		if _, errRe := regexp.Compile(c.MarkerRegex); errRe != nil {
			return warnings, fmt.Errorf("%w: invalid marker_regex '%s': %v", utils.ErrConfigValidation, c.MarkerRegex, errRe)
		}
	}

	warnings = append(warnings, c.Fetch.validate()...)

	tocWarnings, err := c.Defaults.Validate()
	if err != nil {
		return warnings, fmt.Errorf("defaults: %w", err)
	}
	for _, w := range tocWarnings {
		warnings = append(warnings, "defaults: "+w)
	}

	return warnings, nil
}

// validate applies defaults to the remote fetch settings
func (f *FetchConfig) validate() (warnings []string) {
	if f.UserAgent == "" {
		f.UserAgent = DefaultUserAgent
	}
	if f.Timeout <= 0 {
		f.Timeout = 30 * time.Second
	}

	if f.MaxRetries < 0 {
		warnings = append(warnings, "fetch.max_retries cannot be negative, setting to 0")
		f.MaxRetries = 0
	}
	if f.MaxRetries == 0 && f.InitialRetryDelay == 0 {
		f.MaxRetries = 3
	}
	if f.MaxRetries > 0 {
		if f.InitialRetryDelay <= 0 {
			f.InitialRetryDelay = 1 * time.Second
		}
		if f.MaxRetryDelay <= 0 {
			f.MaxRetryDelay = 30 * time.Second
		}
	}
	if f.InitialRetryDelay > f.MaxRetryDelay && f.MaxRetryDelay > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"fetch.initial_retry_delay (%v) > fetch.max_retry_delay (%v), using max_retry_delay for initial",
			f.InitialRetryDelay, f.MaxRetryDelay))
		f.InitialRetryDelay = f.MaxRetryDelay
	}

	if f.DelayPerHost < 0 {
		warnings = append(warnings, "fetch.delay_per_host cannot be negative, setting to 0")
		f.DelayPerHost = 0
	}
	if f.MaxBodyBytes <= 0 {
		f.MaxBodyBytes = 10 << 20
	}
	if f.DialerTimeout <= 0 {
		f.DialerTimeout = 15 * time.Second
	}
	if f.TLSHandshakeTimeout <= 0 {
		f.TLSHandshakeTimeout = 10 * time.Second
	}
	if f.IdleConnTimeout <= 0 {
		f.IdleConnTimeout = 90 * time.Second
	}
	return warnings
}

// Validate checks generation options and applies defaults.
func (c *TocConfig) Validate() (warnings []string, err error) {
	if c.MaxDepth < 0 {
		warnings = append(warnings, "maxdepth cannot be negative, setting to 0 (use default)")
		c.MaxDepth = 0
	}
	if c.MaxDepth > 6 {
		warnings = append(warnings, fmt.Sprintf("maxdepth %d exceeds the deepest heading level (6)", c.MaxDepth))
	}

	kept := make([]string, 0, len(c.Bullets))
	for _, b := range c.Bullets {
		if b != "" {
			kept = append(kept, b)
		}
	}
	if len(kept) != len(c.Bullets) {
		warnings = append(warnings, "empty bullet glyphs removed")
	}
	c.Bullets = kept
	if len(c.Bullets) == 0 {
		c.Bullets = nil
	}

	if _, err := utils.CompileAlternation(c.Strip); err != nil {
		return warnings, err
	}
	return warnings, nil
}

// Validate checks TargetConfig fields and applies defaults.
// Returns collected warnings and any fatal error.
func (c *TargetConfig) Validate() (warnings []string, err error) {
	// Required: Paths
	if len(c.Paths) == 0 {
		return nil, fmt.Errorf("%w: target has no paths", utils.ErrConfigValidation)
	}

	if _, err := utils.CompileRegexPatterns(c.Exclude); err != nil {
		return nil, err
	}

	tocWarnings, err := c.Toc.Validate()
	if err != nil {
		return warnings, err
	}
	warnings = append(warnings, tocWarnings...)
	return warnings, nil
}

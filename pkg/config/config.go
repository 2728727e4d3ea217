package config

import "time"

// DefaultFile is the config file looked up when no -config flag is given.
const DefaultFile = ".md-toc.yaml"

// DefaultUserAgent identifies remote document requests
const DefaultUserAgent = "md-toc/1.0 (+https://github.com/Sriram-PR/md-toc)"

// TocConfig holds the generation options that can be set globally or per target.
// Pointer fields are tri-state: nil means "inherit".
type TocConfig struct {
	FirstH1          *bool    `yaml:"firsth1,omitempty" json:"firsth1,omitempty"`
	MaxDepth         int      `yaml:"maxdepth,omitempty" json:"maxdepth,omitempty"`
	Linkify          *bool    `yaml:"linkify,omitempty" json:"linkify,omitempty"`
	Slugify          *bool    `yaml:"slugify,omitempty" json:"slugify,omitempty"`
	Titleize         *bool    `yaml:"titleize,omitempty" json:"titleize,omitempty"`
	StripHeadingTags *bool    `yaml:"strip_heading_tags,omitempty" json:"strip_heading_tags,omitempty"`
	Bullets          []string `yaml:"bullets,omitempty" json:"bullets,omitempty"`
	Strip            []string `yaml:"strip,omitempty" json:"strip,omitempty"` // Words removed from entry text, joined into one regex alternation
	Append           string   `yaml:"append,omitempty" json:"append,omitempty"`
}

// TargetConfig holds configuration for one named group of documents
type TargetConfig struct {
	Paths           []string  `yaml:"paths"`             // Files, directories or glob patterns
	Exclude         []string  `yaml:"exclude,omitempty"` // Regex patterns matched against file paths
	ContentSelector string    `yaml:"content_selector,omitempty"`
	Incremental     *bool     `yaml:"incremental,omitempty"`
	Toc             TocConfig `yaml:"toc,omitempty"`
}

// AppConfig holds the global application configuration
type AppConfig struct {
	NumWorkers      int                     `yaml:"num_workers"`
	StateDir        string                  `yaml:"state_dir"`
	Open            string                  `yaml:"open,omitempty"`
	Close           string                  `yaml:"close,omitempty"`
	MarkerRegex     string                  `yaml:"marker_regex,omitempty"`
	ContentSelector string                  `yaml:"content_selector,omitempty"` // CSS selector for HTML sources
	Incremental     bool                    `yaml:"incremental,omitempty"`
	WatchDebounce   time.Duration           `yaml:"watch_debounce,omitempty"`
	Fetch           FetchConfig             `yaml:"fetch,omitempty"`
	Defaults        TocConfig               `yaml:"defaults,omitempty"`
	Targets         map[string]TargetConfig `yaml:"targets"`
}

// FetchConfig holds settings for documents read over HTTP(S)
type FetchConfig struct {
	UserAgent           string        `yaml:"user_agent,omitempty"`
	Timeout             time.Duration `yaml:"timeout,omitempty"` // Overall request timeout
	MaxRetries          int           `yaml:"max_retries,omitempty"`
	InitialRetryDelay   time.Duration `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay       time.Duration `yaml:"max_retry_delay,omitempty"`
	DelayPerHost        time.Duration `yaml:"delay_per_host,omitempty"` // Minimum gap between requests to one host
	MaxBodyBytes        int64         `yaml:"max_body_bytes,omitempty"`
	RespectRobotsTxt    *bool         `yaml:"respect_robots_txt,omitempty"` // nil means true
	DialerTimeout       time.Duration `yaml:"dialer_timeout,omitempty"`
	TLSHandshakeTimeout time.Duration `yaml:"tls_handshake_timeout,omitempty"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout,omitempty"`
}

// GetEffectiveRespectRobots reports whether robots.txt rules are checked before fetching
func (f FetchConfig) GetEffectiveRespectRobots() bool {
	if f.RespectRobotsTxt != nil {
		return *f.RespectRobotsTxt
	}
	return true
}

// GetEffectiveToc merges target options over the global defaults field by field.
func GetEffectiveToc(targetCfg TargetConfig, appCfg AppConfig) TocConfig {
	eff := appCfg.Defaults
	t := targetCfg.Toc

	if t.FirstH1 != nil {
		eff.FirstH1 = t.FirstH1
	}
	if t.MaxDepth > 0 {
		eff.MaxDepth = t.MaxDepth
	}
	if t.Linkify != nil {
		eff.Linkify = t.Linkify
	}
	if t.Slugify != nil {
		eff.Slugify = t.Slugify
	}
	if t.Titleize != nil {
		eff.Titleize = t.Titleize
	}
	if t.StripHeadingTags != nil {
		eff.StripHeadingTags = t.StripHeadingTags
	}
	if len(t.Bullets) > 0 {
		eff.Bullets = t.Bullets
	}
	if len(t.Strip) > 0 {
		eff.Strip = t.Strip
	}
	if t.Append != "" {
		eff.Append = t.Append
	}
	return eff
}

// GetEffectiveIncremental determines whether unchanged files are skipped
func GetEffectiveIncremental(targetCfg TargetConfig, appCfg AppConfig) bool {
	if targetCfg.Incremental != nil {
		return *targetCfg.Incremental
	}
	return appCfg.Incremental
}

// GetEffectiveContentSelector determines the selector used for HTML sources
// Target config (if non-empty) overrides global; "body" when both are empty
func GetEffectiveContentSelector(targetCfg TargetConfig, appCfg AppConfig) string {
	if targetCfg.ContentSelector != "" {
		return targetCfg.ContentSelector
	}
	if appCfg.ContentSelector != "" {
		return appCfg.ContentSelector
	}
	return "body"
}

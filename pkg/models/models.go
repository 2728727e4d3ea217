package models

import "time"

// FileDBEntry stores the result of processing a document in the state database
type FileDBEntry struct {
	Status      FileStatus `json:"status"`                 // Outcome of the last run
	ErrorType   string     `json:"error_type,omitempty"`   // Error category (on failure)
	ContentHash string     `json:"content_hash,omitempty"` // SHA-256 of the file as last written or verified
	Headings    int        `json:"headings,omitempty"`     // Headings listed in the table of contents
	ProcessedAt time.Time  `json:"processed_at,omitempty"` // Timestamp of the last successful run
	LastAttempt time.Time  `json:"last_attempt"`           // Timestamp of the last processing attempt
}

// FileResult is the in-memory outcome of processing one file
type FileResult struct {
	Path     string
	Target   string
	Status   FileStatus
	Headings int
	Output   string // Rewritten document or generated table of contents
	Err      error
}

// RunReport summarizes one run over a target, written as YAML on request
type RunReport struct {
	Target    string       `yaml:"target"`
	StartTime time.Time    `yaml:"start_time"`
	EndTime   time.Time    `yaml:"end_time"`
	Updated   int          `yaml:"updated"`
	Unchanged int          `yaml:"unchanged"`
	Skipped   int          `yaml:"skipped"`
	Stale     int          `yaml:"stale"`
	Failed    int          `yaml:"failed"`
	Files     []FileReport `yaml:"files"`
}

// FileReport is one entry of a RunReport
type FileReport struct {
	Path      string     `yaml:"path"`
	Status    FileStatus `yaml:"status"`
	Headings  int        `yaml:"headings,omitempty"`
	ErrorType string     `yaml:"error_type,omitempty"`
}

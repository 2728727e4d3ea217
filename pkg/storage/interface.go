package storage

import (
	"context"
	"time"

	"github.com/Sriram-PR/md-toc/pkg/models"
)

// FileStore handles per-document processing state
type FileStore interface {
	// CheckFileStatus retrieves the status and details of a document path
	// Returns status (FileStatusUpdated, FileStatusUnchanged, ..., FileStatusNotFound, FileStatusDBError),
	// the FileDBEntry if found and parsed, and any error
	CheckFileStatus(path string) (status models.FileStatus, entry *models.FileDBEntry, err error)

	// UpdateFileStatus stores the status and details for a document path
	UpdateFileStatus(path string, entry *models.FileDBEntry) error

	// GetFileContentHash retrieves the hash recorded after the last successful run
	// Returns the hash string, whether it exists, and any error
	GetFileContentHash(path string) (hash string, exists bool, err error)

	// DeleteFile removes a document from the store. Missing keys are not an error
	DeleteFile(path string) error
}

// StoreAdmin handles lifecycle and administrative operations
type StoreAdmin interface {
	// GetFileCount returns the number of tracked documents
	GetFileCount() (int, error)

	// ListFailed scans the DB and returns paths whose last run failed
	ListFailed(ctx context.Context) (paths []string, scanErrors int, err error)

	// WriteStateLog writes one `path<TAB>status` line per tracked document
	WriteStateLog(filePath string) error

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}

// StateStore combines all store interfaces for components that need full access
type StateStore interface {
	FileStore
	StoreAdmin
}

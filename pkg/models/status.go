package models

// FileStatus represents the processing status of a document
type FileStatus string

const (
	FileStatusUnset     FileStatus = ""          // Zero value = unset/unknown
	FileStatusUpdated   FileStatus = "updated"   // Table of contents written
	FileStatusUnchanged FileStatus = "unchanged" // Output matched the file on disk
	FileStatusSkipped   FileStatus = "skipped"   // No marker, or unchanged since last run
	FileStatusStale     FileStatus = "stale"     // Check mode: file would change
	FileStatusFailure   FileStatus = "failure"   // Processing failed
	FileStatusNotFound  FileStatus = "not_found" // File not in database
	FileStatusDBError   FileStatus = "db_error"  // Database error occurred
)

// String implements fmt.Stringer for logging
func (s FileStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s FileStatus) IsValid() bool {
	switch s {
	case FileStatusUpdated, FileStatusUnchanged, FileStatusSkipped, FileStatusStale, FileStatusFailure:
		return true
	}
	return false
}

// IsSuccess reports whether the status counts as a successful run
func (s FileStatus) IsSuccess() bool {
	switch s {
	case FileStatusUpdated, FileStatusUnchanged, FileStatusSkipped:
		return true
	}
	return false
}

package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrMultipleTocMarkers    = errors.New("only one table of contents per document is supported") // More than one marker pair
	ErrInvalidRenderFunction = errors.New("invalid list item render function")                   // Custom renderer failed its smoke call
	ErrNoTocMarker           = errors.New("no toc marker found")                                  // Document has no insertion point
	ErrFrontMatter           = errors.New("front matter error")                                   // Wraps yaml errors on the front matter block
	ErrParsing               = errors.New("parsing error")                                        // Wraps specific parsing error (markdown, HTML, YAML)
	ErrMarkdownConversion    = errors.New("failed to convert HTML to markdown")
	ErrFilesystem            = errors.New("filesystem error") // Wraps os errors
	ErrDatabase              = errors.New("database error")   // Wraps badger errors
	ErrConfigValidation      = errors.New("configuration validation error")

	// Remote documents
	ErrRetryFailed       = errors.New("request failed after all retries") // Wraps the last underlying error
	ErrClientHTTPError   = errors.New("client HTTP error (4xx)")
	ErrServerHTTPError   = errors.New("server HTTP error (5xx)")
	ErrOtherHTTPError    = errors.New("other HTTP error (non-2xx)")
	ErrRobotsDisallowed  = errors.New("disallowed by robots.txt")
	ErrRequestCreation   = errors.New("failed to create HTTP request")
	ErrResponseBodyRead  = errors.New("failed to read response body")
	ErrResponseTooLarge  = errors.New("response body exceeds size limit")
)

// WrapErrorf wraps a sentinel with a formatted message, keeping errors.Is working on the sentinel.
func WrapErrorf(sentinel error, format string, args ...interface{}) error {
	if sentinel == nil {
		return fmt.Errorf(format, args...)
	}
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// CategorizeError maps an error to a predefined category string for logging and tool results.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrRetryFailed):
		return categorizeRetryFailed(err)
	case errors.Is(err, ErrClientHTTPError):
		errMsg := err.Error()
		for _, code := range []string{"404", "403", "401", "429"} {
			if strings.Contains(errMsg, " "+code+" ") {
				return "HTTP_" + code
			}
		}
		return "HTTP_4xx"
	case errors.Is(err, ErrServerHTTPError):
		return "HTTP_5xx"
	case errors.Is(err, ErrOtherHTTPError):
		return "HTTP_OtherStatus"
	case errors.Is(err, ErrRobotsDisallowed):
		return "Policy_Robots"
	case errors.Is(err, ErrRequestCreation):
		return "HTTP_RequestCreation"
	case errors.Is(err, ErrResponseBodyRead):
		return "HTTP_BodyRead"
	case errors.Is(err, ErrResponseTooLarge):
		return "HTTP_BodyTooLarge"
	case errors.Is(err, ErrMultipleTocMarkers):
		return "Toc_MultipleMarkers"
	case errors.Is(err, ErrNoTocMarker):
		return "Toc_NoMarker"
	case errors.Is(err, ErrInvalidRenderFunction):
		return "Toc_InvalidRenderFunction"
	case errors.Is(err, ErrFrontMatter):
		return "Content_FrontMatter"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		if strings.Contains(errMsg, "YAML") {
			return "Content_ParsingYAML"
		}
		if strings.Contains(errMsg, "regex") {
			return "Content_ParsingRegex"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrMarkdownConversion):
		return "Content_Markdown"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		if errors.Is(err, os.ErrExist) {
			return "Filesystem_Exist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	// Unwrapped os errors from callers that skipped the ErrFilesystem sentinel
	if errors.Is(err, os.ErrNotExist) {
		return "Filesystem_NotExist"
	}
	if errors.Is(err, os.ErrPermission) {
		return "Filesystem_Permission"
	}

	return "Unknown"
}

// categorizeRetryFailed names the cause of a request that exhausted its retries.
// err wraps both ErrRetryFailed and the last attempt's error.
func categorizeRetryFailed(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "RetryFailed_NetworkTimeout"
	}
	if errors.Is(err, ErrServerHTTPError) {
		return "RetryFailed_HTTPServer"
	}
	if errors.Is(err, ErrClientHTTPError) {
		return "RetryFailed_HTTPClient"
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "Timeout") || strings.Contains(errMsg, "deadline exceeded") {
		return "RetryFailed_NetworkTimeout"
	}
	if strings.Contains(errMsg, "connection refused") {
		return "RetryFailed_ConnectionRefused"
	}
	if strings.Contains(errMsg, "no such host") {
		return "RetryFailed_DNSLookup"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "RetryFailed_NetworkTimeout"
	}
	return "RetryFailed_NetworkOther"
}

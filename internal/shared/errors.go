package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Resolution errors
	ErrLookupFailed     = fmt.Errorf("no catalog match")
	ErrNoVideoCandidate = fmt.Errorf("no matching video found")
	ErrCancelled        = fmt.Errorf("selection cancelled")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Pipeline errors
	ErrDownloadFailed = fmt.Errorf("download failed")
	ErrConvertFailed  = fmt.Errorf("conversion failed")
	ErrTagFailed      = fmt.Errorf("tagging failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidURL      = fmt.Errorf("invalid URL")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)

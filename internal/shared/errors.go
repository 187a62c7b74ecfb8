package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrTimeout       = fmt.Errorf("operation timed out")

	// Aggregator errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrEmptyURL           = fmt.Errorf("empty URL in response")

	// Component boundary errors, surfaced to the user as non-fatal notices
	ErrSearchFailed      = fmt.Errorf("search failed")
	ErrCoverLookupFailed = fmt.Errorf("cover lookup failed")
	ErrResolutionFailed  = fmt.Errorf("track unavailable")
	ErrDownloadFailed    = fmt.Errorf("download failed")
	ErrSuperseded        = fmt.Errorf("superseded by a newer request")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidSource   = fmt.Errorf("unknown source")
	ErrInvalidQuality  = fmt.Errorf("unsupported quality")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

package sourceapi

import (
	"errors"
	"fmt"
)

var (
	ErrAuthFailed      = errors.New("sourceapi: authentication failed")
	ErrInvalidResponse = errors.New("sourceapi: invalid response body")
	ErrMissingBaseURL  = errors.New("sourceapi: base URL must not be empty")
)

// FetchError is the typed fetch-phase error raised after retry exhaustion or
// a non-retryable status. A fetch failure is fatal to the whole job; there is
// no partial-item semantics at this layer.
type FetchError struct {
	Resource   string
	StatusCode int
	Excerpt    string
	Attempts   int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("sourceapi: fetch %s failed with status %d after %d attempt(s): %s",
			e.Resource, e.StatusCode, e.Attempts, e.Excerpt)
	}
	return fmt.Sprintf("sourceapi: fetch %s failed after %d attempt(s): %v", e.Resource, e.Attempts, e.Err)
}

// Unwrap returns the underlying transport error, if any.
func (e *FetchError) Unwrap() error {
	return e.Err
}

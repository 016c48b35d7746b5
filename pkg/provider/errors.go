package provider

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by a ProviderError when the remote source reports
// that nothing exists for the request.
var ErrNotFound = errors.New("not found")

// ProviderError is returned by base providers when a fetch cannot complete.
// Decorators pass it through untouched.
type ProviderError struct {
	// Provider names the source that failed.
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a ProviderError for the named provider.
func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}

// IsProviderError reports whether err is, or wraps, a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

package modrinth

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrNotFound marks lookups for unknown projects or for version filters
// that match nothing. Callers decide whether that means skip or abort.
var ErrNotFound = errors.New("not found")

// APIError covers every other non-success registry outcome, including
// request timeouts (transient) and non-2xx responses.
type APIError struct {
	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int
	// Transient is true for timeouts and other retryable failures.
	Transient bool
	// Message describes the failure.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("registry API error: status %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("registry API error: %s", e.Message)
}

// IsNotFound reports whether err is a not-found outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

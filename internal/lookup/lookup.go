// Package lookup defines the result kinds shared by external lookup clients.
package lookup

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/m3rciful/healthbot/core/netutil"
)

var (
	// ErrNotFound reports that the upstream service knows nothing about the query.
	ErrNotFound = errors.New("lookup: not found")
	// ErrNoData reports a match that lacks the requested field.
	ErrNoData = errors.New("lookup: no data")
)

// UpstreamError describes any other failure talking to an upstream service.
type UpstreamError struct {
	Service string
	Status  int
	Err     error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Service, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Service, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	}
	return e.Service + ": upstream failure"
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an *UpstreamError for service.
func Upstream(service string, status int, err error) error {
	return &UpstreamError{Service: service, Status: status, Err: err}
}

// DefaultTimeout bounds a single lookup request.
const DefaultTimeout = 10 * time.Second

// NewHTTPClient returns the client used by lookup services. Lookups are never retried.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return netutil.NewHTTPClient(netutil.ClientOptions{Timeout: timeout})
}

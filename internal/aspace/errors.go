package aspace

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnauthorized means the credentials or session were rejected; it is never retried
	ErrUnauthorized = errors.New("archivesspace rejected credentials")

	// ErrTransient means a call kept failing with timeouts, 429s or 5xx responses until retries ran out
	ErrTransient = errors.New("archivesspace unavailable")

	// ErrNotFound means no archival object carries the requested component identifier
	ErrNotFound = errors.New("archival object not found")

	// ErrAmbiguous means more than one archival object carries the requested component identifier
	ErrAmbiguous = errors.New("component identifier matches more than one archival object")
)

// APIError is an authoritative rejection (4xx other than 401/403) returned by ArchivesSpace
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

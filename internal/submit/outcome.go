package submit

import (
	"context"
	"errors"

	"github.com/lehigh-university-libraries/daobatch/internal/aspace"
)

// Status is the result of submitting one identifier
type Status string

const (
	Created Status = "created"
	Skipped Status = "skipped"
	Failed  Status = "failed"
)

// ErrorKind classifies a failed outcome
type ErrorKind string

const (
	Transient ErrorKind = "transient"
	Rejected  ErrorKind = "rejected"
	NotFound  ErrorKind = "not_found"
)

// ReasonExists is the skip reason when the archival object already links a digital object
const ReasonExists = "already exists"

// ReasonResumed marks a created outcome that reused a digital object left unlinked by an earlier attempt
const ReasonResumed = "resumed unlinked digital object"

// Outcome is the per-identifier result of a submission. It is not modified
// after Submit returns.
type Outcome struct {
	Identifier        string    `json:"identifier" yaml:"identifier"`
	Status            Status    `json:"status" yaml:"status"`
	Reason            string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	ErrorKind         ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Detail            string    `json:"detail,omitempty" yaml:"detail,omitempty"`
	ArchivalObjectURI string    `json:"archival_object_uri,omitempty" yaml:"archival_object_uri,omitempty"`
	DigitalObjectURI  string    `json:"digital_object_uri,omitempty" yaml:"digital_object_uri,omitempty"`
	Components        []string  `json:"components,omitempty" yaml:"components,omitempty"`
	Calls             int       `json:"calls" yaml:"calls"`
	DryRun            bool      `json:"dry_run" yaml:"dry_run"`
}

// classify maps a submission error to the kind recorded on a failed outcome
func classify(err error) ErrorKind {
	var apiErr *aspace.APIError
	switch {
	case errors.Is(err, aspace.ErrNotFound):
		return NotFound
	case errors.Is(err, aspace.ErrAmbiguous), errors.As(err, &apiErr):
		return Rejected
	default:
		return Transient
	}
}

// aborts reports whether err must stop the whole batch rather than one identifier
func aborts(err error) bool {
	return errors.Is(err, aspace.ErrUnauthorized) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Package submit turns digital object specs into ArchivesSpace records,
// skipping archival objects that already link a digital object.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/daobatch/internal/aspace"
	"github.com/lehigh-university-libraries/daobatch/internal/dao"
)

// Repository is the part of an ArchivesSpace session the submitter needs.
// *aspace.Session implements it.
type Repository interface {
	FindArchivalObject(ctx context.Context, componentID string) (*aspace.ArchivalObject, error)
	FindDigitalObject(ctx context.Context, digitalObjectID string) (string, error)
	FindComponents(ctx context.Context, digitalObjectURI string, componentIDs []string) (map[string][]string, error)
	CreateDigitalObject(ctx context.Context, do aspace.DigitalObject) (string, error)
	CreateComponent(ctx context.Context, component aspace.DigitalObjectComponent) (string, error)
	LinkDigitalObject(ctx context.Context, ao *aspace.ArchivalObject, digitalObjectURI string) error
}

// Options configure a Submitter
type Options struct {
	DryRun bool
	// Calls reports the transport's running request count; optional
	Calls func() int
}

// Submitter submits one spec at a time
type Submitter struct {
	repo   Repository
	dryRun bool
	calls  func() int
}

// NewSubmitter wraps repo. In dry run every create and update is replaced by a no-op.
func NewSubmitter(repo Repository, opts Options) *Submitter {
	if opts.DryRun {
		repo = dryRun{repo}
	}
	calls := opts.Calls
	if calls == nil {
		calls = func() int { return 0 }
	}
	return &Submitter{repo: repo, dryRun: opts.DryRun, calls: calls}
}

// Submit creates the digital object tree for spec unless the archival object
// already links one. The returned error is non-nil only when the batch must
// stop: rejected credentials or a cancelled context. Every other problem is
// reported on the outcome.
func (s *Submitter) Submit(ctx context.Context, spec dao.DigitalObjectSpec) (Outcome, error) {
	start := s.calls()
	out := Outcome{Identifier: spec.Identifier, DryRun: s.dryRun}

	err := s.submit(ctx, spec, &out)
	out.Calls = s.calls() - start

	if err == nil {
		return out, nil
	}

	out.Status = Failed
	out.ErrorKind = classify(err)
	out.Detail = err.Error()

	if aborts(err) {
		slog.Error("Aborting batch", "identifier", spec.Identifier, "err", err.Error())
		return out, fmt.Errorf("failed to submit %s: %w", spec.Identifier, err)
	}

	slog.Warn("Submission failed", "identifier", spec.Identifier, "kind", out.ErrorKind, "err", err.Error())
	return out, nil
}

func (s *Submitter) submit(ctx context.Context, spec dao.DigitalObjectSpec, out *Outcome) error {
	ao, err := s.repo.FindArchivalObject(ctx, spec.Identifier)
	if err != nil {
		return err
	}
	out.ArchivalObjectURI = ao.URI

	if existing, ok := ao.LinkedDigitalObject(); ok {
		out.Status = Skipped
		out.Reason = ReasonExists
		out.DigitalObjectURI = existing
		slog.Info("Skipping archival object with linked digital object", "identifier", spec.Identifier, "digital_object", existing)
		return nil
	}

	doURI, resumed, err := s.digitalObject(ctx, spec)
	if err != nil {
		return err
	}
	out.DigitalObjectURI = doURI

	existing := map[string][]string{}
	if resumed {
		out.Reason = ReasonResumed
		ids := make([]string, 0, len(spec.Components))
		for _, component := range spec.Components {
			ids = append(ids, component.ComponentID)
		}
		if existing, err = s.repo.FindComponents(ctx, doURI, ids); err != nil {
			return err
		}
	}

	for i, component := range spec.Components {
		if uris := existing[component.ComponentID]; len(uris) > 0 {
			existing[component.ComponentID] = uris[1:]
			out.Components = append(out.Components, uris[0])
			continue
		}

		uri, err := s.repo.CreateComponent(ctx, aspace.NewComponent(component, i, doURI))
		if err != nil {
			return err
		}
		out.Components = append(out.Components, uri)
	}

	// linked last, so an archival object only counts as done once every component exists
	if err := s.repo.LinkDigitalObject(ctx, ao, doURI); err != nil {
		return err
	}

	out.Status = Created
	slog.Info("Created digital object",
		"identifier", spec.Identifier,
		"digital_object", doURI,
		"components", len(out.Components),
		"dry_run", s.dryRun)

	return nil
}

// digitalObject returns the digital object to hang components on. One left
// behind by an earlier attempt that never reached the link step is reused.
func (s *Submitter) digitalObject(ctx context.Context, spec dao.DigitalObjectSpec) (string, bool, error) {
	uri, err := s.repo.FindDigitalObject(ctx, spec.DigitalObjectID)
	if err != nil {
		return "", false, err
	}
	if uri != "" {
		slog.Info("Resuming unlinked digital object", "identifier", spec.Identifier, "digital_object", uri)
		return uri, true, nil
	}

	uri, err = s.repo.CreateDigitalObject(ctx, aspace.NewDigitalObject(spec))
	if err == nil {
		return uri, false, nil
	}

	// a retried create can be rejected as a duplicate of its own first attempt
	var apiErr *aspace.APIError
	if !errors.As(err, &apiErr) {
		return "", false, err
	}
	landed, findErr := s.repo.FindDigitalObject(ctx, spec.DigitalObjectID)
	if findErr != nil || landed == "" {
		return "", false, err
	}
	slog.Info("Resuming digital object created by a retried request", "identifier", spec.Identifier, "digital_object", landed)
	return landed, true, nil
}

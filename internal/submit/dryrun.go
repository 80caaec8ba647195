package submit

import (
	"context"

	"github.com/lehigh-university-libraries/daobatch/internal/aspace"
)

// dryRun keeps the read-only lookup and answers every write with a placeholder URI
type dryRun struct {
	Repository
}

func (dryRun) CreateDigitalObject(_ context.Context, do aspace.DigitalObject) (string, error) {
	return "dryrun:digital_object:" + do.DigitalObjectID, nil
}

func (dryRun) CreateComponent(_ context.Context, component aspace.DigitalObjectComponent) (string, error) {
	return "dryrun:digital_object_component:" + component.ComponentID, nil
}

func (dryRun) LinkDigitalObject(context.Context, *aspace.ArchivalObject, string) error {
	return nil
}

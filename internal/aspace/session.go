package aspace

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Session is an authenticated ArchivesSpace session. It is read-only after
// Login and must be closed when the run ends.
type Session struct {
	client *Client
	token  string
	closed bool
}

// Close ends the session on the server. Closing twice is a no-op.
func (s *Session) Close(ctx context.Context) error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true

	if err := s.client.doJSON(ctx, s.token, http.MethodPost, "/logout", nil, nil, nil); err != nil {
		return errors.Wrap(err, "logout")
	}

	slog.Info("Closed ArchivesSpace session")
	return nil
}

// ArchivalObject is an archival object as returned by the API. The full
// record is kept so it can be posted back unchanged apart from new instances.
type ArchivalObject struct {
	URI    string
	Title  string
	record map[string]any
}

// LinkedDigitalObject returns the URI of the first digital object instance, if any
func (a *ArchivalObject) LinkedDigitalObject() (string, bool) {
	instances, _ := a.record["instances"].([]any)
	for _, raw := range instances {
		instance, ok := raw.(map[string]any)
		if !ok || instance["instance_type"] != "digital_object" {
			continue
		}
		do, _ := instance["digital_object"].(map[string]any)
		if ref, _ := do["ref"].(string); ref != "" {
			return ref, true
		}
	}
	return "", false
}

// FindArchivalObject looks up the archival object carrying a component unique identifier
func (s *Session) FindArchivalObject(ctx context.Context, componentID string) (*ArchivalObject, error) {
	query := url.Values{"component_id[]": {componentID}}

	var found findByIDResponse
	path := s.client.repoPath("/find_by_id/archival_objects")
	if err := s.client.doJSON(ctx, s.token, http.MethodGet, path, query, nil, &found); err != nil {
		return nil, errors.Wrapf(err, "find archival object %s", componentID)
	}

	switch len(found.ArchivalObjects) {
	case 0:
		return nil, errors.WithMessagef(ErrNotFound, "component id %s", componentID)
	case 1:
	default:
		return nil, errors.WithMessagef(ErrAmbiguous, "component id %s matched %d records", componentID, len(found.ArchivalObjects))
	}

	uri := found.ArchivalObjects[0].Ref
	record := make(map[string]any)
	if err := s.client.doJSON(ctx, s.token, http.MethodGet, uri, nil, nil, &record); err != nil {
		return nil, errors.Wrapf(err, "get archival object %s", uri)
	}

	title, _ := record["title"].(string)
	return &ArchivalObject{URI: uri, Title: title, record: record}, nil
}

// CreateDigitalObject posts a digital object and returns its URI
func (s *Session) CreateDigitalObject(ctx context.Context, do DigitalObject) (string, error) {
	var created createResponse
	path := s.client.repoPath("/digital_objects")
	if err := s.client.doJSON(ctx, s.token, http.MethodPost, path, nil, do, &created); err != nil {
		return "", errors.Wrapf(err, "create digital object %s", do.DigitalObjectID)
	}

	slog.Debug("Created digital object", "uri", created.URI, "digital_object_id", do.DigitalObjectID)
	return created.URI, nil
}

// FindDigitalObject returns the URI of the digital object carrying
// digitalObjectID, or "" when there is none.
func (s *Session) FindDigitalObject(ctx context.Context, digitalObjectID string) (string, error) {
	query := url.Values{"digital_object_id[]": {digitalObjectID}}

	var found findByIDResponse
	path := s.client.repoPath("/find_by_id/digital_objects")
	if err := s.client.doJSON(ctx, s.token, http.MethodGet, path, query, nil, &found); err != nil {
		return "", errors.Wrapf(err, "find digital object %s", digitalObjectID)
	}

	switch len(found.DigitalObjects) {
	case 0:
		return "", nil
	case 1:
		return found.DigitalObjects[0].Ref, nil
	default:
		return "", errors.WithMessagef(ErrAmbiguous, "digital object id %s matched %d records", digitalObjectID, len(found.DigitalObjects))
	}
}

// FindComponents returns the URIs of components under digitalObjectURI,
// keyed by component identifier, for the identifiers asked about.
func (s *Session) FindComponents(ctx context.Context, digitalObjectURI string, componentIDs []string) (map[string][]string, error) {
	existing := make(map[string][]string)
	if len(componentIDs) == 0 {
		return existing, nil
	}

	var found findByIDResponse
	path := s.client.repoPath("/find_by_id/digital_object_components")
	query := url.Values{"component_id[]": componentIDs}
	if err := s.client.doJSON(ctx, s.token, http.MethodGet, path, query, nil, &found); err != nil {
		return nil, errors.Wrapf(err, "find components of %s", digitalObjectURI)
	}

	for _, ref := range found.DigitalObjectComponents {
		var component DigitalObjectComponent
		if err := s.client.doJSON(ctx, s.token, http.MethodGet, ref.Ref, nil, nil, &component); err != nil {
			return nil, errors.Wrapf(err, "get component %s", ref.Ref)
		}
		if component.DigitalObject.Ref != digitalObjectURI {
			continue
		}
		existing[component.ComponentID] = append(existing[component.ComponentID], ref.Ref)
	}

	return existing, nil
}

// CreateComponent posts a digital object component and returns its URI
func (s *Session) CreateComponent(ctx context.Context, component DigitalObjectComponent) (string, error) {
	var created createResponse
	path := s.client.repoPath("/digital_object_components")
	if err := s.client.doJSON(ctx, s.token, http.MethodPost, path, nil, component, &created); err != nil {
		return "", errors.Wrapf(err, "create component %s", component.ComponentID)
	}

	slog.Debug("Created digital object component", "uri", created.URI, "component_id", component.ComponentID)
	return created.URI, nil
}

// LinkDigitalObject adds a digital object instance to the archival object and saves it
func (s *Session) LinkDigitalObject(ctx context.Context, ao *ArchivalObject, digitalObjectURI string) error {
	instances, _ := ao.record["instances"].([]any)
	instances = append(instances, map[string]any{
		"jsonmodel_type": "instance",
		"instance_type":  "digital_object",
		"digital_object": map[string]any{"ref": digitalObjectURI},
	})
	ao.record["instances"] = instances

	var updated createResponse
	if err := s.client.doJSON(ctx, s.token, http.MethodPost, ao.URI, nil, ao.record, &updated); err != nil {
		return errors.Wrapf(err, "link %s to %s", digitalObjectURI, ao.URI)
	}

	ao.record["lock_version"] = updated.LockVersion
	return nil
}

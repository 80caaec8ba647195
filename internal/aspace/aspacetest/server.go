// Package aspacetest provides an in-memory ArchivesSpace backend for tests.
package aspacetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	Username   = "admin"
	Password   = "admin"
	Repository = 2
)

// Server is a fake ArchivesSpace backend. It keeps archival objects, digital
// objects and components in memory and counts every request it serves.
type Server struct {
	*httptest.Server

	mu             sync.Mutex
	sessions       map[string]bool
	archival       map[int]map[string]any
	byComponentID  map[string][]int
	digitalObjects map[int]map[string]any
	components     map[int]map[string]any
	usedObjectIDs  map[string]bool
	nextID         int

	requests  int
	mutations int
	logouts   int

	failRemaining int
	failStatus    int
	slowRemaining int
	slowFor       time.Duration
	loseCreate    bool
}

// New starts a fake backend that shuts down when the test ends
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		sessions:       make(map[string]bool),
		archival:       make(map[int]map[string]any),
		byComponentID:  make(map[string][]int),
		digitalObjects: make(map[int]map[string]any),
		components:     make(map[int]map[string]any),
		usedObjectIDs:  make(map[string]bool),
		nextID:         1,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.count)
	r.Use(s.inject)

	r.Post("/users/{username}/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/logout", s.handleLogout)
		r.Route("/repositories/{repo}", func(r chi.Router) {
			r.Use(s.repository)

			r.Get("/find_by_id/archival_objects", s.handleFindArchivalObjects)
			r.Get("/find_by_id/digital_objects", s.handleFindDigitalObjects)
			r.Get("/find_by_id/digital_object_components", s.handleFindComponents)
			r.Get("/archival_objects/{id}", s.handleGetArchivalObject)
			r.Post("/archival_objects/{id}", s.handleUpdateArchivalObject)
			r.Post("/digital_objects", s.handleCreateDigitalObject)
			r.Get("/digital_objects/{id}", s.handleGetDigitalObject)
			r.Post("/digital_object_components", s.handleCreateComponent)
			r.Get("/digital_object_components/{id}", s.handleGetComponent)
		})
	})

	return r
}

// AddArchivalObject stores an archival object carrying componentID and returns its URI
func (s *Server) AddArchivalObject(componentID, title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocate()
	uri := fmt.Sprintf("/repositories/%d/archival_objects/%d", Repository, id)
	s.archival[id] = map[string]any{
		"jsonmodel_type": "archival_object",
		"uri":            uri,
		"title":          title,
		"component_id":   componentID,
		"lock_version":   float64(0),
		"instances":      []any{},
	}
	s.byComponentID[componentID] = append(s.byComponentID[componentID], id)

	return uri
}

// FailNext makes the next n requests return status before reaching any handler
func (s *Server) FailNext(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRemaining = n
	s.failStatus = status
}

// SlowNext delays the next n requests by d
func (s *Server) SlowNext(n int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slowRemaining = n
	s.slowFor = d
}

// LoseNextCreate stores the next digital object but answers 503, as when a
// response is lost after the server committed the write
func (s *Server) LoseNextCreate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loseCreate = true
}

// ExpireSessions invalidates every open session token
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]bool)
}

// Requests is the number of requests received, failed ones included
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Mutations is the number of successful create and update calls
func (s *Server) Mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutations
}

// Logouts is the number of sessions closed through the API
func (s *Server) Logouts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logouts
}

// DigitalObjectCount is the number of stored digital objects
func (s *Server) DigitalObjectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.digitalObjects)
}

// Components returns the stored components in creation order
func (s *Server) Components() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, 0, len(s.components))
	for id := 1; id < s.nextID; id++ {
		if c, ok := s.components[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// DigitalObject returns a stored digital object by URI
func (s *Server) DigitalObject(uri string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, do := range s.digitalObjects {
		if do["uri"] == uri {
			return do, true
		}
	}
	return nil, false
}

// ArchivalObject returns a stored archival object by URI
func (s *Server) ArchivalObject(uri string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ao := range s.archival {
		if ao["uri"] == uri {
			return ao, true
		}
	}
	return nil, false
}

func (s *Server) allocate() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var delay time.Duration
		if s.slowRemaining > 0 {
			s.slowRemaining--
			delay = s.slowFor
		}
		status := 0
		if s.failRemaining > 0 {
			s.failRemaining--
			status = s.failStatus
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-ArchivesSpace-Session")
		s.mu.Lock()
		ok := s.sessions[token]
		s.mu.Unlock()

		if !ok {
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) repository(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "repo") != strconv.Itoa(Repository) {
			writeError(w, http.StatusNotFound, "Repository not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "username") != Username || r.FormValue("password") != Password {
		writeError(w, http.StatusUnauthorized, "Login failed")
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = true
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"session": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.sessions, r.Header.Get("X-ArchivesSpace-Session"))
	s.logouts++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "session logged out"})
}

func (s *Server) handleFindArchivalObjects(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs := []map[string]string{}
	for _, componentID := range r.URL.Query()["component_id[]"] {
		for _, id := range s.byComponentID[componentID] {
			refs = append(refs, map[string]string{"ref": s.archival[id]["uri"].(string)})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"archival_objects": refs})
}

func (s *Server) handleGetArchivalObject(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ao, ok := s.archival[urlID(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "Record not found")
		return
	}
	writeJSON(w, http.StatusOK, ao)
}

func (s *Server) handleUpdateArchivalObject(w http.ResponseWriter, r *http.Request) {
	var record map[string]any
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := urlID(r)
	current, ok := s.archival[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Record not found")
		return
	}
	if record["lock_version"] != current["lock_version"] {
		writeError(w, http.StatusConflict, "The record you tried to update has been modified since you fetched it.")
		return
	}

	version := current["lock_version"].(float64) + 1
	record["lock_version"] = version
	record["uri"] = current["uri"]
	s.archival[id] = record
	s.mutations++

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "Updated",
		"id":           id,
		"uri":          current["uri"],
		"lock_version": version,
	})
}

func (s *Server) handleCreateDigitalObject(w http.ResponseWriter, r *http.Request) {
	var record map[string]any
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	objectID, _ := record["digital_object_id"].(string)
	title, _ := record["title"].(string)
	if objectID == "" || title == "" {
		writeError(w, http.StatusBadRequest, "digital_object_id and title are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usedObjectIDs[objectID] {
		writeError(w, http.StatusBadRequest, "digital_object_id must be unique")
		return
	}
	s.usedObjectIDs[objectID] = true

	if s.loseCreate {
		s.loseCreate = false
		s.created(httptest.NewRecorder(), record, "digital_objects", s.digitalObjects)
		writeError(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
		return
	}

	s.created(w, record, "digital_objects", s.digitalObjects)
}

func (s *Server) handleFindDigitalObjects(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs := []map[string]string{}
	for _, objectID := range r.URL.Query()["digital_object_id[]"] {
		for id := 1; id < s.nextID; id++ {
			if do, ok := s.digitalObjects[id]; ok && do["digital_object_id"] == objectID {
				refs = append(refs, map[string]string{"ref": do["uri"].(string)})
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"digital_objects": refs})
}

func (s *Server) handleFindComponents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool)
	for _, componentID := range r.URL.Query()["component_id[]"] {
		wanted[componentID] = true
	}

	refs := []map[string]string{}
	for id := 1; id < s.nextID; id++ {
		c, ok := s.components[id]
		if !ok {
			continue
		}
		if componentID, _ := c["component_id"].(string); wanted[componentID] {
			refs = append(refs, map[string]string{"ref": c["uri"].(string)})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"digital_object_components": refs})
}

func (s *Server) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.components[urlID(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "Record not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleGetDigitalObject(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	do, ok := s.digitalObjects[urlID(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "Record not found")
		return
	}
	writeJSON(w, http.StatusOK, do)
}

func (s *Server) handleCreateComponent(w http.ResponseWriter, r *http.Request) {
	var record map[string]any
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, _ := record["digital_object"].(map[string]any)
	ref, _ := parent["ref"].(string)
	found := false
	for _, do := range s.digitalObjects {
		if do["uri"] == ref {
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusBadRequest, "digital_object must reference an existing record")
		return
	}

	s.created(w, record, "digital_object_components", s.components)
}

// created stores record under a fresh id; callers hold s.mu
func (s *Server) created(w http.ResponseWriter, record map[string]any, kind string, store map[int]map[string]any) {
	id := s.allocate()
	uri := fmt.Sprintf("/repositories/%d/%s/%d", Repository, kind, id)
	record["uri"] = uri
	record["lock_version"] = float64(0)
	store[id] = record
	s.mutations++

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "Created",
		"id":           id,
		"uri":          uri,
		"lock_version": 0,
	})
}

func urlID(r *http.Request) int {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// Package server exposes form sessions over HTTP. Each session gets a
// random id; browsers post the rendered HTML form back to the session URL
// and API clients drive the same session through JSON endpoints.
package server

import (
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/goliatone/go-formview/pkg/action"
	"github.com/goliatone/go-formview/pkg/debounce"
	"github.com/goliatone/go-formview/pkg/form"
	"github.com/goliatone/go-formview/pkg/orchestrator"
)

const (
	defaultDebounceWait = 500 * time.Millisecond

	// SessionField is the hidden input carrying the session id in rendered
	// forms.
	SessionField = "session"
)

// ErrSessionNotFound is returned for unknown or deleted session ids.
var ErrSessionNotFound = errors.New("server: session not found")

// Option customises a Server.
type Option func(*Server)

// WithOrchestrator sets the orchestrator used to open and render sessions.
func WithOrchestrator(orch *orchestrator.Orchestrator) Option {
	return func(s *Server) {
		s.orch = orch
	}
}

// WithLogger routes request and edit-burst logs to log.
func WithLogger(log logr.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithPermissions sets the permissions granted to every session.
func WithPermissions(perms action.Permissions) Option {
	return func(s *Server) {
		s.permissions = perms
	}
}

// WithDebounceWait sets the quiet period that ends an edit burst.
func WithDebounceWait(wait time.Duration) Option {
	return func(s *Server) {
		if wait > 0 {
			s.wait = wait
		}
	}
}

// WithRenderer names the renderer used for GET and POST on a session.
// Empty uses the orchestrator default.
func WithRenderer(name string) Option {
	return func(s *Server) {
		s.renderer = name
	}
}

// WithSessionOptions appends options applied to every opened session.
func WithSessionOptions(options ...form.Option) Option {
	return func(s *Server) {
		s.sessionOptions = append(s.sessionOptions, options...)
	}
}

// Server keeps open sessions in memory.
type Server struct {
	orch           *orchestrator.Orchestrator
	log            logr.Logger
	permissions    action.Permissions
	wait           time.Duration
	renderer       string
	sessionOptions []form.Option

	mu       sync.RWMutex
	sessions map[string]*entry

	router *mux.Router
}

type entry struct {
	id      string
	session *form.Session
	edits   *debounce.Debouncer[string]
}

// New builds a Server. An orchestrator is required.
func New(options ...Option) (*Server, error) {
	s := &Server{
		log:      logr.Discard(),
		wait:     defaultDebounceWait,
		sessions: make(map[string]*entry),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.orch == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP dispatches to the session routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions lists the ids of open sessions.
func (s *Server) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close ends every open session.
func (s *Server) Close() {
	s.mu.Lock()
	entries := s.sessions
	s.sessions = make(map[string]*entry)
	s.mu.Unlock()

	for _, e := range entries {
		e.close()
	}
}

func (s *Server) add(session *form.Session) *entry {
	id := uuid.NewString()
	log := s.log.WithValues("session", id, "form", session.FormKey())
	e := &entry{id: id, session: session}
	e.edits = debounce.StartEnd(
		func(field string) {
			log.V(1).Info("edit burst started", "field", field)
		},
		s.wait,
		func(field string) {
			log.Info("edit burst settled", "lastField", field, "dirty", session.IsDirty())
		},
	)

	s.mu.Lock()
	s.sessions[id] = e
	s.mu.Unlock()
	return e
}

func (s *Server) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (s *Server) remove(id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(s.sessions, id)
	return e, nil
}

func (e *entry) close() {
	e.edits.Flush()
	e.session.Close()
}

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/goliatone/go-formview/pkg/config"
	"github.com/goliatone/go-formview/pkg/draft"
	"github.com/goliatone/go-formview/pkg/form"
	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/orchestrator"
	"github.com/goliatone/go-formview/pkg/render"
	"github.com/goliatone/go-formview/pkg/validation"
)

// OpenRequest is the body of POST /sessions.
type OpenRequest struct {
	FormKey         string      `json:"formKey"`
	Record          model.Draft `json:"record"`
	CreationDefault model.Draft `json:"creationDefault"`
}

// SessionInfo describes an open session.
type SessionInfo struct {
	ID      string       `json:"id"`
	FormKey string       `json:"formKey"`
	State   render.State `json:"state"`
}

// DraftResponse is the JSON view of a session's editing state.
type DraftResponse struct {
	State    render.State      `json:"state"`
	Draft    model.Draft       `json:"draft"`
	Dirty    bool              `json:"dirty"`
	Creation bool              `json:"creation"`
	Readonly bool              `json:"readonly"`
	Errors   validation.Errors `json:"errors,omitempty"`
}

type fieldChange struct {
	Value any `json:"value"`
}

type changeResponse struct {
	Changed bool        `json:"changed"`
	Draft   model.Draft `json:"draft"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.FormKey) == "" {
		writeError(w, http.StatusBadRequest, "formKey is required")
		return
	}

	session, err := s.orch.Open(r.Context(), orchestrator.Request{
		FormKey:         req.FormKey,
		Record:          req.Record,
		CreationDefault: req.CreationDefault,
		Permissions:     s.permissions,
		Options:         s.sessionOptions,
	})
	if err != nil {
		s.log.Error(err, "open session", "form", req.FormKey)
		writeError(w, http.StatusInternalServerError, "could not open form")
		return
	}

	e := s.add(session)
	s.log.Info("session opened", "session", e.id, "form", req.FormKey, "state", session.State())
	writeJSON(w, http.StatusCreated, e.info())
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	infos := make([]SessionInfo, 0)
	for _, id := range s.Sessions() {
		e, err := s.lookup(id)
		if err != nil {
			continue
		}
		infos = append(infos, e.info())
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	s.writeView(w, r, e, http.StatusOK)
}

// submitSession handles the rendered form posting back to itself: field
// inputs are applied first, then the edit toggle or the pressed action.
func (s *Server) submitSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	if r.PostForm.Get("toggle") == "readonly" {
		e.session.ToggleReadonly()
		s.writeView(w, r, e, http.StatusOK)
		return
	}

	if err := s.applyPosted(e, r); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	status := http.StatusOK
	if key := r.PostForm.Get("action"); key != "" {
		outcome, err := e.session.Invoke(r.Context(), key)
		switch {
		case err != nil:
			s.log.Info("action failed", "session", e.id, "action", key, "error", err.Error())
			status = statusFor(err)
		case len(outcome.Errors) > 0:
			status = http.StatusUnprocessableEntity
		}
	}
	s.writeView(w, r, e, status)
}

// applyPosted feeds the posted fields the user edited into the session.
// Inputs still holding the value rendered before this submit are skipped, so
// a cascade triggered by an earlier field is not undone by the stale value of
// its dependent. Fields the session refuses as readonly are skipped.
// Checkboxes are absent when unchecked, so boolean fields are always read.
func (s *Server) applyPosted(e *entry, r *http.Request) error {
	cfg := e.session.Config()
	before := e.session.Draft()
	for _, field := range cfg.Fields() {
		if field.Readonly {
			continue
		}
		var value any
		if field.Type == model.FieldTypeBoolean {
			value = r.PostForm.Get(field.Key) == "true"
		} else {
			if _, posted := r.PostForm[field.Key]; !posted {
				continue
			}
			value = coerce(field.Type, r.PostForm.Get(field.Key))
		}
		if unchanged(field, before[field.Key], value) {
			continue
		}
		changed, err := e.session.HandleFieldChange(field.Key, value)
		if errors.Is(err, form.ErrReadonly) {
			continue
		}
		if err != nil {
			return err
		}
		if changed {
			e.edits.Call(field.Key)
		}
	}
	return nil
}

// unchanged reports whether a posted value matches the one the form was
// rendered with. An unset boolean renders as an unchecked box.
func unchanged(field model.Field, rendered, posted any) bool {
	if field.Type == model.FieldTypeBoolean && rendered == nil {
		rendered = false
	}
	return draft.Equal(model.Draft{field.Key: rendered}, model.Draft{field.Key: posted})
}

// coerce converts a posted string to the draft representation of typ. Values
// that do not parse are kept as strings for validation to report.
func coerce(typ model.FieldType, raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	switch typ {
	case model.FieldTypeInteger, model.FieldTypeNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	case model.FieldTypeObject:
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
			return decoded
		}
	}
	return raw
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	e, err := s.remove(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	e.close()
	s.log.Info("session closed", "session", e.id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e.editState())
}

func (s *Server) applyRecord(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	var record model.Draft
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "invalid record")
		return
	}
	replaced, err := e.session.ApplyRecord(record)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, changeResponse{Changed: replaced, Draft: e.session.Draft()})
}

func (s *Server) patchField(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	key := mux.Vars(r)["key"]
	var change fieldChange
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	changed, err := e.session.HandleFieldChange(key, change.Value)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if changed {
		e.edits.Call(key)
	}
	writeJSON(w, http.StatusOK, changeResponse{Changed: changed, Draft: e.session.Draft()})
}

func (s *Server) invokeAction(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	key := mux.Vars(r)["action"]
	outcome, err := e.session.Invoke(r.Context(), key)
	if err != nil {
		s.log.Info("action failed", "session", e.id, "action", key, "error", err.Error())
		writeError(w, statusFor(err), err.Error())
		return
	}
	status := http.StatusOK
	if len(outcome.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, outcome)
}

func (s *Server) toggleReadonly(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	e.session.ToggleReadonly()
	writeJSON(w, http.StatusOK, e.editState())
}

func (s *Server) resetDraft(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	if err := e.session.Reset(); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	e.edits.Cancel()
	writeJSON(w, http.StatusOK, e.editState())
}

func (s *Server) createDraft(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	if err := e.session.Create(); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, e.editState())
}

func (s *Server) entryFor(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	e, err := s.lookup(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return e, true
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, e *entry, status int) {
	out, contentType, err := s.orch.Render(r.Context(), e.session, s.renderer, render.Hidden(SessionField, e.id))
	if err != nil {
		s.log.Error(err, "render session", "session", e.id)
		http.Error(w, "could not render form", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(out); err != nil {
		s.log.Error(err, "write view", "session", e.id)
	}
}

func (e *entry) info() SessionInfo {
	return SessionInfo{ID: e.id, FormKey: e.session.FormKey(), State: e.session.State()}
}

func (e *entry) editState() DraftResponse {
	return DraftResponse{
		State:    e.session.State(),
		Draft:    e.session.Draft(),
		Dirty:    e.session.IsDirty(),
		Creation: e.session.IsCreation(),
		Readonly: e.session.Readonly(),
		Errors:   e.session.Errors(),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, form.ErrActionNotFound), errors.Is(err, config.ErrFormNotFound):
		return http.StatusNotFound
	case errors.Is(err, form.ErrNotReady),
		errors.Is(err, form.ErrReadonly),
		errors.Is(err, form.ErrActionDisabled),
		errors.Is(err, form.ErrStaleSession):
		return http.StatusConflict
	case errors.Is(err, form.ErrMissingCreateAccess):
		return http.StatusForbidden
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

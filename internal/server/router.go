package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintln(w, "OK"); err != nil {
			s.log.Error(err, "write health response")
		}
	}).Methods(http.MethodGet)

	r.HandleFunc("/sessions", s.createSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions", s.listSessions).Methods(http.MethodGet)

	r.HandleFunc("/sessions/{id}", s.showSession).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", s.submitSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", s.deleteSession).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}/draft", s.getDraft).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/record", s.applyRecord).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{id}/fields/{key}", s.patchField).Methods(http.MethodPatch)
	r.HandleFunc("/sessions/{id}/actions/{action}", s.invokeAction).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/readonly", s.toggleReadonly).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/reset", s.resetDraft).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/create", s.createDraft).Methods(http.MethodPost)
	return r
}

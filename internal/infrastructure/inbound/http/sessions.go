package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/sophialabs/testlabadvisor/internal/domain/match"
	"github.com/sophialabs/testlabadvisor/internal/domain/session"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/usecases"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	v := s.deps.Sessions.Start()
	s.logger.Info("session started", "session", v.Session.ID, "remote", r.RemoteAddr)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, v)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.Sessions.View(chi.URLParam(r, "sessionID"))
	s.writeSession(w, r, v, err)
}

func (s *Server) handleSetSessionQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	v, err := s.deps.Sessions.SetQuery(chi.URLParam(r, "sessionID"), match.Coerce(req.Query))
	s.writeSession(w, r, v, err)
}

func (s *Server) handleSetSessionSelection(w http.ResponseWriter, r *http.Request) {
	var sel match.Selector
	if !decodeBody(w, r, &sel) {
		return
	}
	v, err := s.deps.Sessions.Select(chi.URLParam(r, "sessionID"), sel)
	s.writeSession(w, r, v, err)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.deps.Sessions.End(id); err != nil {
		s.writeSession(w, r, usecases.SessionView{}, err)
		return
	}
	s.logger.Info("session ended", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, v usecases.SessionView, err error) {
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "session_not_found", "Session not found: "+chi.URLParam(r, "sessionID"))
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	render.JSON(w, r, v)
}

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/procman"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/system"
)

func (s *Server) handleSystemInfo(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, system.GetInfo())
}

func (s *Server) handleRuntimeInfo(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, system.GetRuntimeInfo())
}

type revealRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req revealRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Path == "" {
		respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{
		"revealed": system.RevealInFileManager(req.Path),
	})
}

func (s *Server) handleProcessStatuses(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Processes.Statuses())
}

func (s *Server) handleProcessStart(w http.ResponseWriter, r *http.Request) {
	var cfg procman.StartConfig
	if err := decodeJSON(r, &cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	status, err := s.deps.Processes.Start(cfg)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, status)
}

func (s *Server) handleProcessStop(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Processes.Stop(chi.URLParam(r, "id")); err != nil {
		respondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type processSendRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleProcessSend(w http.ResponseWriter, r *http.Request) {
	var req processSendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reply, err := s.deps.Processes.Send(chi.URLParam(r, "id"), req.Message)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"response": reply})
}

package httpserver

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/session"
)

// connectRequest starts a session either from a stored-style config (when
// Type is set) or from a raw stdio command.
type connectRequest struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	ctx := r.Context()
	if s.deps.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.ConnectTimeout)
		defer cancel()
	}

	var (
		info session.ClientInfo
		err  error
	)
	if req.Type != "" {
		info, err = s.deps.Sessions.ConnectFromConfig(ctx, session.ServerConfig{
			ID:      req.ID,
			Name:    req.Name,
			Type:    req.Type,
			Command: req.Command,
			Args:    req.Args,
			Env:     req.Env,
			URL:     req.URL,
		})
	} else {
		info, err = s.deps.Sessions.Connect(ctx, req.ID, req.Name, req.Command, req.Args, req.Env)
	}
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Sessions.ConnectedClients())
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.Disconnect(chi.URLParam(r, "id")); err != nil {
		respondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDisconnectAll(w http.ResponseWriter, _ *http.Request) {
	s.deps.Sessions.DisconnectAll()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := s.deps.Sessions.ListTools(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tools)
}

type callToolRequest struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments,omitempty"`
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	var req callToolRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	result, err := s.deps.Sessions.CallTool(r.Context(), chi.URLParam(r, "id"), req.Name, req.Arguments)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := s.deps.Sessions.ListResources(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resources)
}

type readResourceRequest struct {
	URI string `json:"uri"`
}

func (s *Server) handleReadResource(w http.ResponseWriter, r *http.Request) {
	var req readResourceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.URI == "" {
		respondError(w, http.StatusBadRequest, "uri is required")
		return
	}

	result, err := s.deps.Sessions.ReadResource(r.Context(), chi.URLParam(r, "id"), req.URI)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := s.deps.Sessions.ListPrompts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, prompts)
}

type getPromptRequest struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	var req getPromptRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	result, err := s.deps.Sessions.GetPrompt(r.Context(), chi.URLParam(r, "id"), req.Name, req.Arguments)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

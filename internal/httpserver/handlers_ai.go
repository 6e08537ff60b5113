package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/aiproxy"
)

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req aiproxy.Request
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	completion, err := s.deps.AI.Complete(r.Context(), req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, completion)
}

type saveKeyRequest struct {
	APIKey string `json:"apiKey"`
}

func (s *Server) handleSaveKey(w http.ResponseWriter, r *http.Request) {
	var req saveKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.APIKey == "" {
		respondError(w, http.StatusBadRequest, "apiKey is required")
		return
	}

	if err := s.deps.Keyring.Save(chi.URLParam(r, "provider"), req.APIKey); err != nil {
		respondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleKeyStatus reports whether a key is stored. The key itself never
// leaves the keyring through this API.
func (s *Server) handleKeyStatus(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	_, found, err := s.deps.Keyring.Get(provider)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"provider": provider,
		"hasKey":   found,
	})
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Keyring.Delete(chi.URLParam(r, "provider")); err != nil {
		respondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetUsage(w http.ResponseWriter, _ *http.Request) {
	stats, err := s.deps.Usage.Get()
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleResetUsage(w http.ResponseWriter, _ *http.Request) {
	if err := s.deps.Usage.Reset(); err != nil {
		respondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/store"
)

func (s *Server) handleListServers(w http.ResponseWriter, _ *http.Request) {
	servers, err := s.deps.Servers.List()
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, servers)
}

func (s *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	server, err := s.deps.Servers.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, server)
}

func (s *Server) handleAddServer(w http.ResponseWriter, r *http.Request) {
	var record store.ServerRecord
	if err := decodeJSON(r, &record); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	added, err := s.deps.Servers.Add(record)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateServer(w http.ResponseWriter, r *http.Request) {
	var record store.ServerRecord
	if err := decodeJSON(r, &record); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	record.ID = chi.URLParam(r, "id")

	updated, err := s.deps.Servers.Update(record)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Servers.Delete(chi.URLParam(r, "id")); err != nil {
		respondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, store.Presets())
}

func (s *Server) handleDetectConfigs(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, store.DetectExternalConfigs())
}

type importRequest struct {
	// Content is the raw text of the file being imported.
	Content string `json:"content"`
	// Format is json, yaml, or toml. Empty means json.
	Format string `json:"format,omitempty"`
	// Merge keeps existing servers and skips duplicates by name.
	Merge bool `json:"merge"`
}

func (s *Server) handleImportServers(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	format := store.Format(req.Format)
	if format == "" {
		format = store.FormatJSON
	}

	result, err := s.deps.Servers.Import([]byte(req.Content), format, req.Merge)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleExportServers(w http.ResponseWriter, r *http.Request) {
	var (
		data        []byte
		err         error
		contentType = "application/json"
	)
	switch format := r.URL.Query().Get("format"); format {
	case "claude":
		data, err = s.deps.Servers.ExportClaudeFormat()
	case "yaml":
		data, err = s.deps.Servers.Export(store.FormatYAML)
		contentType = "application/yaml"
	case "", "json":
		data, err = s.deps.Servers.Export(store.FormatJSON)
	default:
		respondError(w, http.StatusBadRequest, "unsupported export format "+format)
		return
	}
	if err != nil {
		respondAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

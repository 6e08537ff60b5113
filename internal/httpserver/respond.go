package httpserver

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/system"
)

// ErrorResponse is the error payload for all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes a plain error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondAppError maps an application error onto an HTTP status. Sensitive
// values are redacted before the message leaves the process.
func respondAppError(w http.ResponseWriter, err error) {
	kind := errors.GetKind(err)
	respondJSON(w, statusForKind(kind), ErrorResponse{
		Error: errors.RedactSensitive(err.Error()),
		Kind:  kind.String(),
	})
}

func statusForKind(kind errors.Kind) int {
	switch kind {
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindValidation, errors.KindUnsupportedTransport, errors.KindConfig:
		return http.StatusBadRequest
	case errors.KindAlreadyConnected:
		return http.StatusConflict
	case errors.KindSecret:
		return http.StatusUnauthorized
	case errors.KindSpawn, errors.KindHandshake, errors.KindRemoteCall, errors.KindAI:
		return http.StatusBadGateway
	case errors.KindTimeout:
		return http.StatusGatewayTimeout
	case errors.KindCanceled:
		return 499 // client closed request
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 8<<20))
	return dec.Decode(dst)
}

var startTime = time.Now()

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version,omitempty"`
	GoVersion string `json:"go_version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Version:   system.Version,
		GoVersion: runtime.Version(),
	})
}

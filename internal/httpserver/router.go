package httpserver

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// setupRouter configures the Chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(s.corsMiddleware())

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/mcp", func(r chi.Router) {
			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", s.handleListSessions)
				r.Post("/", s.handleConnect)
				r.Delete("/", s.handleDisconnectAll)
				r.Delete("/{id}", s.handleDisconnect)

				r.Get("/{id}/tools", s.handleListTools)
				r.Post("/{id}/tools/call", s.handleCallTool)
				r.Get("/{id}/resources", s.handleListResources)
				r.Post("/{id}/resources/read", s.handleReadResource)
				r.Get("/{id}/prompts", s.handleListPrompts)
				r.Post("/{id}/prompts/get", s.handleGetPrompt)
			})

			r.Route("/servers", func(r chi.Router) {
				r.Get("/", s.handleListServers)
				r.Post("/", s.handleAddServer)
				r.Get("/presets", s.handlePresets)
				r.Get("/detect", s.handleDetectConfigs)
				r.Post("/import", s.handleImportServers)
				r.Get("/export", s.handleExportServers)
				r.Get("/{id}", s.handleGetServer)
				r.Put("/{id}", s.handleUpdateServer)
				r.Delete("/{id}", s.handleDeleteServer)
			})
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/complete", s.handleComplete)
			r.Route("/keys/{provider}", func(r chi.Router) {
				r.Get("/", s.handleKeyStatus)
				r.Put("/", s.handleSaveKey)
				r.Delete("/", s.handleDeleteKey)
			})
			r.Get("/usage", s.handleGetUsage)
			r.Delete("/usage", s.handleResetUsage)
		})

		r.Route("/system", func(r chi.Router) {
			r.Get("/info", s.handleSystemInfo)
			r.Get("/runtime", s.handleRuntimeInfo)
			r.Post("/reveal", s.handleReveal)
		})

		r.Route("/process", func(r chi.Router) {
			r.Get("/", s.handleProcessStatuses)
			r.Post("/", s.handleProcessStart)
			r.Delete("/{id}", s.handleProcessStop)
			r.Post("/{id}/send", s.handleProcessSend)
		})
	})

	return r
}

// corsMiddleware returns configured CORS middleware.
func (s *Server) corsMiddleware() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// requestLogger returns a structured logging middleware.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				logFn := logger.Info
				if status >= 500 {
					logFn = logger.Error
				} else if status >= 400 {
					logFn = logger.Warn
				}

				logFn("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"duration", time.Since(start),
					"bytes", ww.BytesWritten(),
					"requestId", chimw.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/casecraft-dev/casecraft/pkg/usecase"
	"github.com/casecraft-dev/casecraft/pkg/utils/logging"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)

		r.Route("/testcases", func(r chi.Router) {
			r.Get("/", s.handleListTestCases)
			r.Post("/", s.handleCreateTestCase)
			r.Post("/bulk", s.handleBulkImport)
			r.Get("/search", s.handleSearch)

			r.Post("/generate-with-ai", s.handleGenerate)
			r.Post("/generate-and-save-with-ai", s.handleGenerateAndSave)
			r.Post("/estimate-tokens", s.handleEstimateTokens)

			r.Post("/derive/{id}", s.handleDerive)
			r.Delete("/reference/{refId}", s.handleRemoveReference)
			r.Post("/{sourceId}/reference/{targetId}", s.handleAddReference)

			r.Get("/{id}", s.handleGetTestCase)
			r.Patch("/{id}", s.handleUpdateTestCase)
			r.Delete("/{id}", s.handleDeleteTestCase)
			r.Get("/{id}/full", s.handleFullDetail)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.uc.Statistics(r.Context())
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, stats)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

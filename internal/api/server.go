package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/pagekit/internal/config"
	"github.com/dgallion1/pagekit/internal/enhance"
	"github.com/dgallion1/pagekit/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Server is the HTTP API server for pagekit.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	enhancer     *enhance.Enhancer
	cache        *lru.Cache[string, *enhance.Result] // nil when disabled
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, enh *enhance.Enhancer, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		enhancer:     enh,
		log:          log,
		cfg:          cfg,
	}
	if cfg.EnhanceCacheSize > 0 {
		cache, err := lru.New[string, *enhance.Result](cfg.EnhanceCacheSize)
		if err != nil {
			log.Warn("enhance cache disabled", "error", err)
		} else {
			s.cache = cache
		}
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"X-Pagekit-Outline-Entries", "X-Pagekit-External-Links", "X-Pagekit-Cache"},
			MaxAge:         300,
		}))
	}

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.PagekitAPIKey, s.log))

		r.Post("/api/enhance", s.handleEnhance)
		r.Post("/api/outline", s.handleOutline)
		r.Post("/api/convert", s.handleConvert)

		r.Post("/api/jobs", s.handleSubmitJob)
		r.Get("/api/jobs/{jobID}/status", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/files/{name}", s.handleJobFile)
		r.Delete("/api/jobs/{jobID}", s.handleDeleteJob)

		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

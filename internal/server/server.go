package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	preferencesin "peerlink/internal/modules/preferences/port/in"
	profilein "peerlink/internal/modules/profile/port/in"
	sessionin "peerlink/internal/modules/session/port/in"
)

type Options struct {
	CORSOrigins []string
	Logger      *slog.Logger
}

// Server exposes the session, profile and preferences use cases as a local
// JSON API for a browser front end.
type Server struct {
	router      *chi.Mux
	session     sessionin.Usecase
	profiles    profilein.Usecase
	preferences preferencesin.Usecase
	logger      *slog.Logger
	origins     []string
}

func New(session sessionin.Usecase, profiles profilein.Usecase, preferences preferencesin.Usecase, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		session:     session,
		profiles:    profiles,
		preferences: preferences,
		logger:      logger,
		origins:     opts.CORSOrigins,
	}
	s.setupRouter()
	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", clientIDHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleSessionStatus)
			r.Post("/", s.handleLogin)
			r.Delete("/", s.handleLogout)
		})
		r.Get("/participants/{login}", s.handleGetParticipant)
		r.Route("/preferences", func(r chi.Router) {
			r.Get("/", s.handleGetPreferences)
			r.Put("/", s.handleUpdatePreferences)
		})
		r.Get("/themes", s.handleListThemes)
		r.Delete("/cache", s.handlePurgeCache)
	})

	s.router = r
}

// loggingMiddleware records method, path and status only. Request bodies
// carry passwords and are never logged.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// Package api wires the HTTP surface: router, middleware chain, and
// handlers. All error mapping to HTTP status codes happens here and
// nowhere else.
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/iamangus/newish/internal/config"
	"github.com/iamangus/newish/internal/ports"
	"github.com/iamangus/newish/internal/services/identity"
	"github.com/iamangus/newish/internal/services/ratings"
	"github.com/iamangus/newish/internal/services/suggest"
)

// Server holds all shared dependencies for the HTTP layer.
type Server struct {
	cfg      *config.Config
	logger   *logrus.Entry
	identity *identity.Service
	sso      *identity.SSO
	ratings  *ratings.Service
	suggest  *suggest.Service
	catalog  ports.CatalogClient
	cache    ports.ResponseCache
	limiter  ports.RateLimiter
}

func NewServer(
	cfg *config.Config,
	logger *logrus.Entry,
	identitySvc *identity.Service,
	sso *identity.SSO,
	ratingsSvc *ratings.Service,
	suggestSvc *suggest.Service,
	catalog ports.CatalogClient,
	cache ports.ResponseCache,
	limiter ports.RateLimiter,
) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		identity: identitySvc,
		sso:      sso,
		ratings:  ratingsSvc,
		suggest:  suggestSvc,
		catalog:  catalog,
		cache:    cache,
		limiter:  limiter,
	}
}

// Routes builds the chi router with all endpoints registered.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.securityHeaders)
	r.Use(s.cors)
	r.Use(s.limitRequestBody)
	r.Use(s.rateLimit)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)

			if s.sso != nil && s.sso.Enabled() {
				r.Get("/sso/login", s.handleSSOLogin)
				r.Get("/sso/callback", s.handleSSOCallback)
			}

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Get("/check", s.handleCheck)
				r.Post("/rate-movie", s.handleRate)
				r.Delete("/rate-movie/{movieId}", s.handleUnrate)
				r.Get("/ratings", s.handleListRatings)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/search", s.handleSearch)
			r.Get("/search/trending", s.handleTrending)

			r.Route("/movies/{movieId}", func(r chi.Router) {
				r.Get("/", s.handleMovie)
				r.Get("/details", s.handleMovieDetails)
				r.Get("/credits", s.handleMovieCredits)
			})

			r.Route("/tv/{tvId}", func(r chi.Router) {
				r.Get("/details", s.handleTVDetails)
				r.Get("/credits", s.handleTVCredits)
				r.Get("/season/{seasonNumber}", s.handleTVSeason)
			})

			r.Get("/recommendations/similar", s.handleSimilar)
			r.Get("/recommendations/popular", s.handlePopular)
		})
	})

	if s.cfg.StaticDir != "" {
		r.NotFound(s.spaHandler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "newish",
	})
}

// spaHandler serves the built web client, falling back to index.html for
// client-side routes. API paths never reach it.
func (s *Server) spaHandler() http.HandlerFunc {
	fs := http.FileServer(http.Dir(s.cfg.StaticDir))
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not_found", "no such endpoint")
			return
		}
		path := filepath.Join(s.cfg.StaticDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(s.cfg.StaticDir, "index.html"))
	}
}

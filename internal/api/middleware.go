package api

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/iamangus/newish/internal/metrics"
	"github.com/iamangus/newish/internal/services/identity"
)

const (
	sessionCookieName = "jwt"
	maxBodyBytes      = 10 << 10 // 10 KB, matches the original payload cap
)

// contextKey is a typed key for request context values.
type contextKey string

const contextKeyClaims contextKey = "session_claims"

// requireAuth validates the session cookie and injects the decoded claims
// into the request context. Absent, malformed, and expired tokens all yield
// the same 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		claims, err := s.identity.Verify(cookie.Value)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimsFromCtx extracts the verified session claims set by requireAuth.
func claimsFromCtx(ctx context.Context) *identity.Claims {
	claims, _ := ctx.Value(contextKeyClaims).(*identity.Claims)
	return claims
}

// rateLimit counts requests per client IP before any handler runs. When the
// backing store is unreachable the request is allowed through in production
// (availability first) and failed in development (make outages visible).
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := s.limiter.Allow(r.Context(), clientIP(r, s.cfg.TrustProxy))
		if err != nil {
			if s.cfg.IsProduction() {
				s.logger.WithError(err).Warn("rate limiter unavailable, failing open")
				next.ServeHTTP(w, r)
				return
			}
			s.logger.WithError(err).Error("rate limiter unavailable")
			writeError(w, http.StatusInternalServerError, "internal_error", "rate limiter unavailable")
			return
		}
		if !allowed {
			metrics.RateLimited.Inc()
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the originating client address. The X-Forwarded-For
// header is honored only when trustProxy is set; a directly reachable
// server must key on the socket address or clients could forge the header
// and dodge the rate limiter.
func clientIP(r *http.Request, trustProxy bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// securityHeaders adds baseline security headers to every response.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; img-src 'self' data: https://image.tmdb.org; style-src 'self' 'unsafe-inline'")
		next.ServeHTTP(w, r)
	})
}

// cors allows credentialed requests from the configured web client origins.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Cookie")
			h.Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.CORSOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// limitRequestBody caps request bodies so oversized payloads fail early.
func (s *Server) limitRequestBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

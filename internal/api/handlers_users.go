package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iamangus/newish/internal/domain"
)

const sessionMaxAge = 24 * time.Hour

// setSessionCookie delivers the signed token as an HTTP-only, same-site
// restricted cookie. Secure is set only in production so local development
// over plain HTTP keeps working.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := s.identity.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user.Public(),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := s.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    user.Public(),
	})
}

// handleLogout clears the client-held token. Stateless tokens cannot be
// revoked server-side; the cookie removal is all there is.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// handleCheck is the session probe used by the web client on load.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromCtx(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User is logged in",
		"id":      claims.UserID,
		"email":   claims.Email,
	})
}

type rateRequest struct {
	MovieID   int64  `json:"movieId"`
	Rating    int    `json:"rating"`
	MediaType string `json:"mediaType"`
	Notes     string `json:"notes"`
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromCtx(r.Context())

	var req rateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// Older clients omit mediaType; everything they rated was a movie.
	if req.MediaType == "" {
		req.MediaType = string(domain.MediaKindMovie)
	}

	created, err := s.ratings.Rate(r.Context(), claims.UserID, req.MovieID, req.MediaType, req.Rating, req.Notes)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if created {
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Rating added successfully"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Rating updated successfully"})
}

func (s *Server) handleUnrate(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromCtx(r.Context())

	movieID, err := strconv.ParseInt(chi.URLParam(r, "movieId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "movie id must be numeric")
		return
	}

	if err := s.ratings.Unrate(r.Context(), claims.UserID, movieID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Rating deleted successfully"})
}

func (s *Server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromCtx(r.Context())

	list, err := s.ratings.List(r.Context(), claims.UserID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

package api

import (
	"net/http"
)

// handleSimilar returns catalog entries similar to the caller's
// highly-rated titles. An empty result set is a normal response for
// users with no high ratings yet.
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromCtx(r.Context())

	list, err := s.suggest.Similar(r.Context(), claims.UserID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	list, err := s.catalog.PopularMovies(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iamangus/newish/internal/domain"
	"github.com/iamangus/newish/internal/metrics"
)

// handleSearch proxies the catalog multi-search, memoized per
// (query, page). Cached and fresh responses are byte-identical.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeJSON(w, http.StatusOK, domain.ResultList{Results: []json.RawMessage{}})
		return
	}

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}

	cacheKey := fmt.Sprintf("search-%s-page-%d", strings.ToLower(query), page)
	if body, ok := s.cache.Get(r.Context(), cacheKey); ok {
		metrics.CacheHits.Inc()
		writeRawJSON(w, http.StatusOK, body)
		return
	}
	metrics.CacheMisses.Inc()

	result, err := s.catalog.SearchMulti(r.Context(), query, page)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.cache.Set(r.Context(), cacheKey, body, s.cfg.CacheTTL())
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "trending-media-day"
	if body, ok := s.cache.Get(r.Context(), cacheKey); ok {
		metrics.CacheHits.Inc()
		writeRawJSON(w, http.StatusOK, body)
		return
	}
	metrics.CacheMisses.Inc()

	result, err := s.catalog.Trending(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.cache.Set(r.Context(), cacheKey, body, s.cfg.CacheTTL())
	writeRawJSON(w, http.StatusOK, body)
}

func urlParamInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// handleMovie returns the normalized local projection of a catalog movie
// without persisting it.
func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "movieId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "movie id must be numeric")
		return
	}

	title, _, err := s.catalog.Title(r.Context(), domain.MediaKindMovie, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"movie_id":     title.ID,
		"title":        title.Name,
		"overview":     title.Overview,
		"release_date": title.ReleaseDate,
		"genre":        title.Genre,
		"metadata": map[string]any{
			"poster_path":       title.Metadata.PosterPath,
			"vote_average":      title.Metadata.VoteAverage,
			"original_language": title.Metadata.OriginalLanguage,
		},
	})
}

// passthrough forwards a raw catalog payload unchanged.
func (s *Server) passthrough(w http.ResponseWriter, body json.RawMessage, err error) {
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleMovieDetails(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "movieId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "movie id must be numeric")
		return
	}
	body, err := s.catalog.Details(r.Context(), domain.MediaKindMovie, id)
	s.passthrough(w, body, err)
}

func (s *Server) handleMovieCredits(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "movieId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "movie id must be numeric")
		return
	}
	body, err := s.catalog.Credits(r.Context(), domain.MediaKindMovie, id)
	s.passthrough(w, body, err)
}

func (s *Server) handleTVDetails(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "tvId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "tv id must be numeric")
		return
	}
	body, err := s.catalog.Details(r.Context(), domain.MediaKindTV, id)
	s.passthrough(w, body, err)
}

func (s *Server) handleTVCredits(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "tvId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "tv id must be numeric")
		return
	}
	body, err := s.catalog.Credits(r.Context(), domain.MediaKindTV, id)
	s.passthrough(w, body, err)
}

func (s *Server) handleTVSeason(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "tvId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "tv id must be numeric")
		return
	}
	season, err := strconv.Atoi(chi.URLParam(r, "seasonNumber"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "season number must be numeric")
		return
	}
	body, err := s.catalog.Season(r.Context(), id, season)
	s.passthrough(w, body, err)
}

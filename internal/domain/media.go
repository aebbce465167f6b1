package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindTV    MediaKind = "tv"
)

// ParseMediaKind validates a caller-supplied media type string.
func ParseMediaKind(s string) (MediaKind, error) {
	switch MediaKind(s) {
	case MediaKindMovie, MediaKindTV:
		return MediaKind(s), nil
	default:
		return "", fmt.Errorf("%w: media type must be %q or %q", ErrValidation, MediaKindMovie, MediaKindTV)
	}
}

// TitleMetadata is the free-form blob stored alongside a title, mirroring
// what the catalog returns for list cards.
type TitleMetadata struct {
	PosterPath       string  `json:"poster_path"`
	VoteAverage      float64 `json:"vote_average"`
	OriginalLanguage string  `json:"original_language"`
	MediaKind        string  `json:"media_type,omitempty"`
}

// Title is a movie or TV show as known locally. The ID is the external
// catalog id, never locally generated. Rows are created lazily the first
// time a title is rated and are intentionally never cleaned up.
type Title struct {
	ID          int64
	Name        string
	Genre       string // legacy comma-joined genre string, informational only
	ReleaseDate string // YYYY-MM-DD as reported by the catalog, may be empty
	Overview    string
	Metadata    TitleMetadata
}

type Genre struct {
	ID   int64
	Name string
}

// Rating is the central mutable fact: one row per (user, title).
type Rating struct {
	ID        int64
	UserID    int64
	TitleID   int64
	Kind      MediaKind
	Value     int
	Notes     string
	CreatedAt time.Time
}

// ValidateRating checks the 1-5 rating scale.
func ValidateRating(value int) error {
	if value < 1 || value > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	return nil
}

// RatedTitle is the denormalized Rating ⋈ Title view returned to clients.
type RatedTitle struct {
	TitleID     int64     `json:"id"`
	Title       string    `json:"title"`
	PosterPath  string    `json:"poster_path"`
	VoteAverage float64   `json:"vote_average"`
	ReleaseDate string    `json:"release_date"`
	Overview    string    `json:"overview"`
	Rating      int       `json:"rating"`
	MediaType   MediaKind `json:"media_type"`
	Notes       string    `json:"notes,omitempty"`
	RatedAt     time.Time `json:"rated_at"`
}

// SearchPage is a catalog search response, results passed through unmodified.
type SearchPage struct {
	Page         int               `json:"page"`
	Results      []json.RawMessage `json:"results"`
	TotalPages   int               `json:"total_pages"`
	TotalResults int               `json:"total_results"`
}

// ResultList is a bare catalog result list (trending, similar, popular).
type ResultList struct {
	Results []json.RawMessage `json:"results"`
}

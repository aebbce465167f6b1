package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iamangus/newish/internal/domain"
)

type UserRepository interface {
	// Create persists a new user. Returns domain.ErrConflict if the email
	// is already registered; the existing row is left untouched.
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type TitleRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
	// Upsert inserts or refreshes a title and replaces its genre links.
	Upsert(ctx context.Context, title *domain.Title, genres []string) error
}

type RatingRepository interface {
	// Upsert atomically inserts or updates the (user, title) rating.
	// An empty Notes field preserves any previously stored note.
	// Returns true if a new row was created.
	Upsert(ctx context.Context, rating *domain.Rating) (bool, error)
	// Delete removes the rating, returning domain.ErrNotFound if absent.
	Delete(ctx context.Context, userID, titleID int64) error
	ListByUser(ctx context.Context, userID int64) ([]domain.RatedTitle, error)
	ListHighByUser(ctx context.Context, userID int64, threshold int) ([]domain.RatedTitle, error)
}

// CatalogClient is the gateway to the external media catalog. Payloads are
// forwarded unmodified except for media-kind filtering and status mapping.
type CatalogClient interface {
	SearchMulti(ctx context.Context, query string, page int) (*domain.SearchPage, error)
	Trending(ctx context.Context) (*domain.ResultList, error)
	Details(ctx context.Context, kind domain.MediaKind, id int64) (json.RawMessage, error)
	Credits(ctx context.Context, kind domain.MediaKind, id int64) (json.RawMessage, error)
	Season(ctx context.Context, tvID int64, season int) (json.RawMessage, error)
	Similar(ctx context.Context, kind domain.MediaKind, id int64) (*domain.ResultList, error)
	PopularMovies(ctx context.Context) (*domain.ResultList, error)
	// Title fetches a normalized title record plus its genre names,
	// used to populate the local metadata cache on first rating.
	Title(ctx context.Context, kind domain.MediaKind, id int64) (*domain.Title, []string, error)
}

// ResponseCache is a TTL memo over catalog responses. A failed Set must not
// fail the request; implementations log and move on.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// RateLimiter counts requests per client key in a fixed window. The error
// return signals an unreachable backing store; the caller decides whether
// to fail open or closed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

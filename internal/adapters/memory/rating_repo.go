package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iamangus/newish/internal/domain"
)

type ratingKey struct {
	userID  int64
	titleID int64
}

// RatingRepo joins against a TitleRepo to produce the denormalized listing,
// mirroring the SQL join in the postgres adapter.
type RatingRepo struct {
	mu      sync.Mutex
	nextID  int64
	ratings map[ratingKey]domain.Rating
	order   []ratingKey
	titles  *TitleRepo
}

func NewRatingRepo(titles *TitleRepo) *RatingRepo {
	return &RatingRepo{
		nextID:  1,
		ratings: make(map[ratingKey]domain.Rating),
		titles:  titles,
	}
}

func (r *RatingRepo) Upsert(ctx context.Context, rating *domain.Rating) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ratingKey{rating.UserID, rating.TitleID}
	if existing, ok := r.ratings[key]; ok {
		existing.Kind = rating.Kind
		existing.Value = rating.Value
		if rating.Notes != "" {
			existing.Notes = rating.Notes
		}
		r.ratings[key] = existing
		*rating = existing
		return false, nil
	}

	rating.ID = r.nextID
	r.nextID++
	rating.CreatedAt = time.Now()
	r.ratings[key] = *rating
	r.order = append(r.order, key)
	return true, nil
}

func (r *RatingRepo) Delete(ctx context.Context, userID, titleID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ratingKey{userID, titleID}
	if _, ok := r.ratings[key]; !ok {
		return fmt.Errorf("rating for title %d: %w", titleID, domain.ErrNotFound)
	}
	delete(r.ratings, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *RatingRepo) ListByUser(ctx context.Context, userID int64) ([]domain.RatedTitle, error) {
	return r.list(userID, 0)
}

func (r *RatingRepo) ListHighByUser(ctx context.Context, userID int64, threshold int) ([]domain.RatedTitle, error) {
	return r.list(userID, threshold)
}

func (r *RatingRepo) list(userID int64, threshold int) ([]domain.RatedTitle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.RatedTitle{}
	for _, key := range r.order {
		rating, ok := r.ratings[key]
		if !ok || rating.UserID != userID || rating.Value < threshold {
			continue
		}
		title, _ := r.titles.Get(rating.TitleID)
		out = append(out, domain.RatedTitle{
			TitleID:     rating.TitleID,
			Title:       title.Name,
			PosterPath:  title.Metadata.PosterPath,
			VoteAverage: title.Metadata.VoteAverage,
			ReleaseDate: title.ReleaseDate,
			Overview:    title.Overview,
			Rating:      rating.Value,
			MediaType:   rating.Kind,
			Notes:       rating.Notes,
			RatedAt:     rating.CreatedAt,
		})
	}
	return out, nil
}

// Package ratings implements the rating store operations and the lazy
// title-metadata ingestion that precedes a first rating.
package ratings

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iamangus/newish/internal/domain"
	"github.com/iamangus/newish/internal/ports"
)

// HighRatingThreshold marks a rating as a similarity seed.
const HighRatingThreshold = 4

type Service struct {
	ratings ports.RatingRepository
	titles  ports.TitleRepository
	catalog ports.CatalogClient
	logger  *logrus.Entry
}

func New(ratings ports.RatingRepository, titles ports.TitleRepository, catalog ports.CatalogClient, logger *logrus.Entry) *Service {
	return &Service{ratings: ratings, titles: titles, catalog: catalog, logger: logger}
}

// Rate validates input, ensures the title exists locally, and upserts the
// user's rating. Returns true when a new rating row was created. Re-issuing
// an identical call yields the same stored state.
func (s *Service) Rate(ctx context.Context, userID, titleID int64, mediaType string, value int, notes string) (bool, error) {
	kind, err := domain.ParseMediaKind(mediaType)
	if err != nil {
		return false, err
	}
	if err := domain.ValidateRating(value); err != nil {
		return false, err
	}
	if titleID <= 0 {
		return false, fmt.Errorf("%w: a title id is required", domain.ErrValidation)
	}

	// Two-step saga: the title upsert must complete before the rating write,
	// and its failure is surfaced distinctly as an upstream error.
	if err := s.EnsureTitle(ctx, titleID, kind); err != nil {
		return false, fmt.Errorf("ensuring title %d: %w", titleID, err)
	}

	created, err := s.ratings.Upsert(ctx, &domain.Rating{
		UserID:  userID,
		TitleID: titleID,
		Kind:    kind,
		Value:   value,
		Notes:   notes,
	})
	if err != nil {
		return false, fmt.Errorf("writing rating: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"title_id": titleID,
		"rating":   value,
		"created":  created,
	}).Info("rating saved")
	return created, nil
}

// EnsureTitle idempotently populates the local metadata cache for a title.
// Already-known titles are left untouched; unknown ones are fetched from the
// catalog and upserted together with their genres.
func (s *Service) EnsureTitle(ctx context.Context, titleID int64, kind domain.MediaKind) error {
	exists, err := s.titles.Exists(ctx, titleID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	title, genres, err := s.catalog.Title(ctx, kind, titleID)
	if err != nil {
		return err
	}
	return s.titles.Upsert(ctx, title, genres)
}

// Unrate deletes the user's rating for a title. The title row is kept even
// if nothing references it anymore.
func (s *Service) Unrate(ctx context.Context, userID, titleID int64) error {
	return s.ratings.Delete(ctx, userID, titleID)
}

// List returns the user's ratings joined with cached title metadata.
func (s *Service) List(ctx context.Context, userID int64) ([]domain.RatedTitle, error) {
	return s.ratings.ListByUser(ctx, userID)
}

// ListHigh returns the user's similarity seeds (rating >= threshold).
func (s *Service) ListHigh(ctx context.Context, userID int64) ([]domain.RatedTitle, error) {
	return s.ratings.ListHighByUser(ctx, userID, HighRatingThreshold)
}

// Package suggest produces "similar content" suggestions by re-querying the
// catalog with the user's own high ratings as seeds. No scoring of any kind
// happens here; the catalog decides what is similar.
package suggest

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iamangus/newish/internal/domain"
	"github.com/iamangus/newish/internal/ports"
	"github.com/iamangus/newish/internal/services/ratings"
)

const (
	defaultSeedCap   = 15
	defaultResultCap = 10
	defaultPerSeed   = 3 * time.Second
)

type Service struct {
	ratings ports.RatingRepository
	catalog ports.CatalogClient
	logger  *logrus.Entry

	seedThreshold  int
	seedCap        int
	resultCap      int
	perSeedTimeout time.Duration
}

func New(repo ports.RatingRepository, catalog ports.CatalogClient, logger *logrus.Entry) *Service {
	return &Service{
		ratings:        repo,
		catalog:        catalog,
		logger:         logger,
		seedThreshold:  ratings.HighRatingThreshold,
		seedCap:        defaultSeedCap,
		resultCap:      defaultResultCap,
		perSeedTimeout: defaultPerSeed,
	}
}

type idProbe struct {
	ID int64 `json:"id"`
}

// Similar fans out one catalog query per sampled seed, concurrently with
// independent per-call timeouts. A failed seed contributes nothing instead
// of failing the whole call. Results are deduplicated by catalog id (first
// occurrence wins) and truncated to the output cap. A user with no high
// ratings gets an empty list, not an error.
func (s *Service) Similar(ctx context.Context, userID int64) (*domain.ResultList, error) {
	seeds, err := s.ratings.ListHighByUser(ctx, userID, s.seedThreshold)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return &domain.ResultList{Results: []json.RawMessage{}}, nil
	}

	if len(seeds) > s.seedCap {
		rand.Shuffle(len(seeds), func(i, j int) { seeds[i], seeds[j] = seeds[j], seeds[i] })
		seeds = seeds[:s.seedCap]
	}

	partial := make([][]json.RawMessage, len(seeds))
	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		go func(i int, seed domain.RatedTitle) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, s.perSeedTimeout)
			defer cancel()

			list, err := s.catalog.Similar(callCtx, seed.MediaType, seed.TitleID)
			if err != nil {
				s.logger.WithError(err).WithField("seed_title_id", seed.TitleID).
					Warn("similar query failed, skipping seed")
				return
			}
			partial[i] = list.Results
		}(i, seed)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	merged := []json.RawMessage{}
	for _, results := range partial {
		for _, raw := range results {
			var p idProbe
			if err := json.Unmarshal(raw, &p); err != nil || p.ID == 0 {
				continue
			}
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			merged = append(merged, raw)
			if len(merged) >= s.resultCap {
				return &domain.ResultList{Results: merged}, nil
			}
		}
	}
	return &domain.ResultList{Results: merged}, nil
}

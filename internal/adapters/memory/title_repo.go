package memory

import (
	"context"
	"sync"

	"github.com/iamangus/newish/internal/domain"
)

type TitleRepo struct {
	mu     sync.Mutex
	titles map[int64]domain.Title
	genres map[int64][]string
}

func NewTitleRepo() *TitleRepo {
	return &TitleRepo{
		titles: make(map[int64]domain.Title),
		genres: make(map[int64][]string),
	}
}

func (r *TitleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.titles[id]
	return ok, nil
}

func (r *TitleRepo) Upsert(ctx context.Context, title *domain.Title, genres []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles[title.ID] = *title
	r.genres[title.ID] = append([]string(nil), genres...)
	return nil
}

// Get is a test helper, not part of the TitleRepository port.
func (r *TitleRepo) Get(id int64) (domain.Title, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.titles[id]
	return t, ok
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iamangus/newish/internal/domain"
)

type PostgresRatingRepo struct {
	db *sql.DB
}

func NewRatingRepo(db *sql.DB) *PostgresRatingRepo {
	return &PostgresRatingRepo{db: db}
}

func (r *PostgresRatingRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS ratings (
			rating_id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users (user_id),
			title_id BIGINT NOT NULL REFERENCES titles (title_id),
			media_type TEXT NOT NULL,
			rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, title_id)
		);
	`)
	return err
}

// Upsert inserts or updates atomically. The UNIQUE (user_id, title_id)
// constraint is the backstop against concurrent duplicate rows; this is
// never implemented as read-then-write. An empty notes value keeps the
// previously stored note. The (xmax = 0) check reports whether the row
// was freshly inserted.
func (r *PostgresRatingRepo) Upsert(ctx context.Context, rating *domain.Rating) (bool, error) {
	var created bool
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ratings (user_id, title_id, media_type, rating, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, title_id) DO UPDATE SET
			media_type = EXCLUDED.media_type,
			rating = EXCLUDED.rating,
			notes = COALESCE(NULLIF(EXCLUDED.notes, ''), ratings.notes)
		RETURNING rating_id, created_at, (xmax = 0);
	`, rating.UserID, rating.TitleID, string(rating.Kind), rating.Value, rating.Notes).
		Scan(&rating.ID, &rating.CreatedAt, &created)
	return created, err
}

func (r *PostgresRatingRepo) Delete(ctx context.Context, userID, titleID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM ratings WHERE user_id = $1 AND title_id = $2`, userID, titleID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("rating for title %d: %w", titleID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresRatingRepo) ListByUser(ctx context.Context, userID int64) ([]domain.RatedTitle, error) {
	return r.list(ctx, `
		SELECT t.title_id, t.title, t.release_date, t.overview, t.metadata,
		       r.rating, r.media_type, r.notes, r.created_at
		FROM ratings r
		JOIN titles t ON t.title_id = r.title_id
		WHERE r.user_id = $1
		ORDER BY r.rating_id
	`, userID)
}

func (r *PostgresRatingRepo) ListHighByUser(ctx context.Context, userID int64, threshold int) ([]domain.RatedTitle, error) {
	return r.list(ctx, `
		SELECT t.title_id, t.title, t.release_date, t.overview, t.metadata,
		       r.rating, r.media_type, r.notes, r.created_at
		FROM ratings r
		JOIN titles t ON t.title_id = r.title_id
		WHERE r.user_id = $1 AND r.rating >= $2
		ORDER BY r.rating_id
	`, userID, threshold)
}

func (r *PostgresRatingRepo) list(ctx context.Context, query string, args ...any) ([]domain.RatedTitle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.RatedTitle{}
	for rows.Next() {
		var rt domain.RatedTitle
		var meta []byte
		var mediaType string
		if err := rows.Scan(&rt.TitleID, &rt.Title, &rt.ReleaseDate, &rt.Overview, &meta,
			&rt.Rating, &mediaType, &rt.Notes, &rt.RatedAt); err != nil {
			return nil, err
		}
		rt.MediaType = domain.MediaKind(mediaType)

		var tm domain.TitleMetadata
		if err := json.Unmarshal(meta, &tm); err == nil {
			rt.PosterPath = tm.PosterPath
			rt.VoteAverage = tm.VoteAverage
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

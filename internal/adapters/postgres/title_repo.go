package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/iamangus/newish/internal/domain"
)

type PostgresTitleRepo struct {
	db *sql.DB
}

func NewTitleRepo(db *sql.DB) *PostgresTitleRepo {
	return &PostgresTitleRepo{db: db}
}

func (r *PostgresTitleRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS titles (
			title_id BIGINT PRIMARY KEY,
			title TEXT NOT NULL,
			genre TEXT NOT NULL DEFAULT '',
			release_date TEXT NOT NULL DEFAULT '',
			overview TEXT NOT NULL DEFAULT '',
			metadata JSONB NOT NULL DEFAULT '{}'
		);
		CREATE TABLE IF NOT EXISTS genres (
			genre_id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS title_genres (
			title_id BIGINT NOT NULL REFERENCES titles (title_id),
			genre_id BIGINT NOT NULL REFERENCES genres (genre_id),
			PRIMARY KEY (title_id, genre_id)
		);
	`)
	return err
}

func (r *PostgresTitleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM titles WHERE title_id = $1)`, id).Scan(&exists)
	return exists, err
}

// Upsert writes the title row and replaces its genre links in one
// transaction. Re-fetching an existing title refreshes its metadata.
func (r *PostgresTitleRepo) Upsert(ctx context.Context, title *domain.Title, genres []string) error {
	meta, err := json.Marshal(title.Metadata)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO titles (title_id, title, genre, release_date, overview, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (title_id) DO UPDATE SET
			title = EXCLUDED.title,
			genre = EXCLUDED.genre,
			release_date = EXCLUDED.release_date,
			overview = EXCLUDED.overview,
			metadata = EXCLUDED.metadata;
	`, title.ID, title.Name, title.Genre, title.ReleaseDate, title.Overview, meta)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM title_genres WHERE title_id = $1`, title.ID); err != nil {
		return err
	}

	for _, name := range genres {
		var genreID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO genres (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING genre_id;
		`, name).Scan(&genreID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO title_genres (title_id, genre_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING;
		`, title.ID, genreID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

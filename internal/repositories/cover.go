package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/clmusic/internal/models"
)

const coverSchema = `
CREATE TABLE IF NOT EXISTS covers (
	source     TEXT    NOT NULL,
	picture_id TEXT    NOT NULL,
	size       INTEGER NOT NULL,
	url        TEXT    NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (source, picture_id, size)
)`

// CoverRepository stores resolved cover URLs in SQLite.
//
// Rows are keyed by (source, picture_id, size); a later write for the same key replaces the URL.
type CoverRepository struct {
	db *sql.DB
}

// NewCoverRepository creates a new CoverRepository with the given database connection
func NewCoverRepository(db *sql.DB) *CoverRepository {
	return &CoverRepository{db: db}
}

// Migrate creates the covers table when it does not exist.
func (r *CoverRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, coverSchema); err != nil {
		return fmt.Errorf("failed to create covers table: %w", err)
	}
	return nil
}

// Get returns the URL stored for key, or false when there is none.
func (r *CoverRepository) Get(ctx context.Context, key models.CoverKey) (string, bool, error) {
	var url string
	err := r.db.QueryRowContext(ctx,
		`SELECT url FROM covers WHERE source = ? AND picture_id = ? AND size = ?`,
		key.Source.String(), key.PictureID, key.Size,
	).Scan(&url)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cover %s: %w", key, err)
	}

	return url, true, nil
}

// Put stores url under key.
func (r *CoverRepository) Put(ctx context.Context, key models.CoverKey, url string) error {
	query := `
		INSERT INTO covers (source, picture_id, size, url, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (source, picture_id, size) DO UPDATE SET url = excluded.url
	`

	if _, err := r.db.ExecContext(ctx, query, key.Source.String(), key.PictureID, key.Size, url, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put cover %s: %w", key, err)
	}

	return nil
}

// Len returns the number of stored covers.
func (r *CoverRepository) Len(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM covers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count covers: %w", err)
	}
	return n, nil
}

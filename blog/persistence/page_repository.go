package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/shared/db"
)

var _ domain.PageRepository = (*SQLitePageRepository)(nil)

// SQLitePageRepository implements domain.PageRepository using SQL database (SQLite).
// The rendered payload is stored as JSON next to its generation time.
type SQLitePageRepository struct {
	db *sql.DB
}

// NewPageRepository creates a new SQLitePageRepository from a standard sql.DB
func NewPageRepository(db *sql.DB) *SQLitePageRepository {
	return &SQLitePageRepository{
		db: db,
	}
}

const upsertPageQuery = `
	INSERT INTO pages (path, kind, payload, generated_at, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		kind = excluded.kind,
		payload = excluded.payload,
		generated_at = excluded.generated_at,
		created_at = COALESCE(pages.created_at, excluded.created_at)
`

// SavePage inserts or replaces the page stored at p.Path
func (r *SQLitePageRepository) SavePage(ctx context.Context, p *domain.Page) error {
	if p == nil {
		return fmt.Errorf("page cannot be nil")
	}

	if p.Path == "" {
		return fmt.Errorf("page path cannot be empty")
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode page %s: %w", p.Path, err)
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		_, err := executor.ExecContext(txCtx, upsertPageQuery,
			p.Path,
			string(p.Kind),
			string(payload),
			p.GeneratedAt.UTC(),
			time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert page: %w", err)
		}

		return nil
	})
}

const getPageQuery = `
		SELECT path, kind, payload, generated_at
		FROM pages
		WHERE path = ?
`

// GetPage retrieves the page stored at path
func (r *SQLitePageRepository) GetPage(ctx context.Context, path string) (*domain.Page, error) {
	if path == "" {
		return nil, fmt.Errorf("page path cannot be empty")
	}

	var row pageRow
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getPageQuery, path).Scan(
		&row.Path,
		&row.Kind,
		&row.Payload,
		&row.GeneratedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: page %s", domain.ErrNotFound, path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	return row.toDomain()
}

const deletePageQuery = `DELETE FROM pages WHERE path = ?`

// DeletePage removes the page stored at path. Deleting a missing page is not an error.
func (r *SQLitePageRepository) DeletePage(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("page path cannot be empty")
	}

	if _, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, deletePageQuery, path); err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}

	return nil
}

const listPathsQuery = `SELECT path FROM pages ORDER BY path`

// ListPaths returns every stored page path in lexical order
func (r *SQLitePageRepository) ListPaths(ctx context.Context) ([]string, error) {
	rows, err := db.GetExecutor(ctx, r.db).QueryContext(ctx, listPathsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan page row: %w", err)
		}
		paths = append(paths, path)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page rows: %w", err)
	}

	return paths, nil
}

// pageRow is a private struct used to scan database rows
type pageRow struct {
	Path        string       `db:"path"`
	Kind        string       `db:"kind"`
	Payload     string       `db:"payload"`
	GeneratedAt sql.NullTime `db:"generated_at"`
}

// toDomain decodes the stored payload. The path, kind and generation time
// columns are authoritative over the payload's copies.
func (pr *pageRow) toDomain() (*domain.Page, error) {
	page := &domain.Page{}
	if err := json.Unmarshal([]byte(pr.Payload), page); err != nil {
		return nil, fmt.Errorf("failed to decode page %s: %w", pr.Path, err)
	}

	page.Path = pr.Path
	page.Kind = domain.PageKind(pr.Kind)
	if pr.GeneratedAt.Valid {
		page.GeneratedAt = pr.GeneratedAt.Time
	}

	return page, nil
}

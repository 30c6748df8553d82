package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

var errAbort = errors.New("abort")

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE pages (path TEXT PRIMARY KEY)`)
	if err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}

	return db
}

func countPages(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM pages").Scan(&count); err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	return count
}

func insertPage(ctx context.Context, db *sql.DB, path string) error {
	_, err := GetExecutor(ctx, db).ExecContext(ctx, "INSERT INTO pages (path) VALUES (?)", path)
	return err
}

func TestRunInTransaction(t *testing.T) {
	tests := []struct {
		name      string
		fn        func(ctx context.Context, db *sql.DB) error
		wantErr   bool
		wantPages int
	}{
		{
			name: "commit",
			fn: func(ctx context.Context, db *sql.DB) error {
				return insertPage(ctx, db, "/")
			},
			wantPages: 1,
		},
		{
			name: "rollback on error",
			fn: func(ctx context.Context, db *sql.DB) error {
				if err := insertPage(ctx, db, "/"); err != nil {
					return err
				}
				return errAbort
			},
			wantErr:   true,
			wantPages: 0,
		},
		{
			name: "nested joins outer",
			fn: func(ctx context.Context, db *sql.DB) error {
				if err := insertPage(ctx, db, "/"); err != nil {
					return err
				}
				return RunInTransaction(ctx, db, func(inner context.Context) error {
					return insertPage(inner, db, "/post/a")
				})
			},
			wantPages: 2,
		},
		{
			name: "nested failure rolls back outer",
			fn: func(ctx context.Context, db *sql.DB) error {
				if err := insertPage(ctx, db, "/"); err != nil {
					return err
				}
				return RunInTransaction(ctx, db, func(inner context.Context) error {
					if err := insertPage(inner, db, "/post/a"); err != nil {
						return err
					}
					return errAbort
				})
			},
			wantErr:   true,
			wantPages: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)

			err := RunInTransaction(context.Background(), db, func(txCtx context.Context) error {
				if _, ok := GetTx(txCtx); !ok {
					t.Error("Expected transaction in context")
				}
				return tt.fn(txCtx, db)
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("RunInTransaction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, errAbort) {
				t.Errorf("RunInTransaction() error = %v, want %v", err, errAbort)
			}
			if got := countPages(t, db); got != tt.wantPages {
				t.Errorf("pages = %d, want %d", got, tt.wantPages)
			}
		})
	}
}

func TestGetExecutor(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if GetExecutor(ctx, db) != db {
		t.Error("Expected executor to be the database")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if GetExecutor(WithTx(ctx, tx), db) != tx {
		t.Error("Expected executor to be the transaction")
	}
}

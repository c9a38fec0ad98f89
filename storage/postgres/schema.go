package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/storyboard/storage"
)

// ErrWidenBlocked indicates a width change that would orphan stored vectors.
var ErrWidenBlocked = errors.New("rows hold vectors of another width")

const createTableSQL = `
CREATE TABLE IF NOT EXISTS storyboards (
	id               BIGSERIAL PRIMARY KEY,
	content          JSON NOT NULL,
	embedding        vector(%d),
	embedding_scheme TEXT,
	inserted_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT storyboards_embedding_paired CHECK ((embedding IS NULL) = (embedding_scheme IS NULL))
)`

// EnsureSchema creates the storyboards table if it does not exist, with an
// embedding column of dims elements. An existing table is left alone; use
// Widen to change its width.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("%w: dims must be positive, got %d", storage.ErrInvalidQuery, dims)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf(createTableSQL, dims)); err != nil {
		return fmt.Errorf("create storyboards table: %w", err)
	}
	return nil
}

// rowQuerier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ColumnWidth returns the declared width of storyboards.embedding, or 0 if
// the column has no fixed width.
func ColumnWidth(ctx context.Context, db rowQuerier) (int, error) {
	var typmod int
	err := db.QueryRow(ctx, `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = 'storyboards'::regclass AND attname = 'embedding' AND NOT attisdropped`,
	).Scan(&typmod)
	if err != nil {
		return 0, fmt.Errorf("read embedding column width: %w", err)
	}
	// pgvector stores the dimension count directly as the type modifier
	if typmod < 0 {
		return 0, nil
	}
	return typmod, nil
}

// Widen changes the embedding column to dims elements in one transaction.
// Rows holding vectors of another width block the change unless clear is
// set, in which case their vectors and scheme versions are nulled first.
// It returns the number of cleared rows.
func Widen(ctx context.Context, pool *pgxpool.Pool, dims int, clear bool) (int64, error) {
	if dims <= 0 {
		return 0, fmt.Errorf("%w: dims must be positive, got %d", storage.ErrInvalidQuery, dims)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin widen: %w", err)
	}
	defer tx.Rollback(ctx)

	var mismatched int64
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM storyboards WHERE embedding IS NOT NULL AND vector_dims(embedding) <> $1`,
		dims,
	).Scan(&mismatched)
	if err != nil {
		return 0, fmt.Errorf("count mismatched vectors: %w", err)
	}

	if mismatched > 0 {
		if !clear {
			return 0, fmt.Errorf("%w: %d rows would not fit vector(%d)", ErrWidenBlocked, mismatched, dims)
		}
		_, err = tx.Exec(ctx, `
			UPDATE storyboards SET embedding = NULL, embedding_scheme = NULL, updated_at = now()
			WHERE embedding IS NOT NULL AND vector_dims(embedding) <> $1`, dims)
		if err != nil {
			return 0, fmt.Errorf("clear mismatched vectors: %w", err)
		}
	}

	// DDL cannot take bind parameters; dims is an int.
	alter := fmt.Sprintf(
		"ALTER TABLE storyboards ALTER COLUMN embedding TYPE vector(%d) USING embedding::vector(%d)", dims, dims)
	if _, err := tx.Exec(ctx, alter); err != nil {
		return 0, fmt.Errorf("alter embedding column: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit widen: %w", err)
	}
	return mismatched, nil
}

package sqlite

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schemaSQL string

// Initialize prepares the store behind pool: it creates the parent directory
// of the store file if absent and applies the schema script in one scope.
// The script is idempotent, so Initialize is safe on an existing store. Any
// error is fatal to startup.
func Initialize(ctx context.Context, pool *Pool) error {
	if dir := filepath.Dir(pool.Path()); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating store directory: %w", err)
		}
	}

	err := pool.Scope(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, schemaSQL)
		return err
	})
	if err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

package migrations

import (
	"context"
	"fmt"

	"risklo/internal/storage/sqlite"
)

// RunSQLiteMigrations applies all embedded SQLite files inside one transaction.
func RunSQLiteMigrations(ctx context.Context, db *sqlite.DB) error {
	files, err := load(SQLiteFS, "sqlite")
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer tx.Rollback()

	for _, m := range files {
		for _, stmt := range splitStatements(m.sql) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
	}
	return tx.Commit()
}

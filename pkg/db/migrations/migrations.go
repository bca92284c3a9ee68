// Package migrations holds the schema of the overwatch database.
package migrations

import (
	"database/sql"

	"github.com/bambi/overwatch/pkg/db"
	"github.com/pkg/errors"
)

// All returns every migration in version order.
func All() []db.Migration {
	return []db.Migration{
		createDiagnostics(),
	}
}

func createDiagnostics() db.Migration {
	return db.Migration{
		Version:     20261018090000,
		Description: "Create diagnostics table",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS diagnostics (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_id TEXT NOT NULL,
					kind TEXT NOT NULL,
					type_name TEXT NOT NULL DEFAULT '',
					method TEXT NOT NULL DEFAULT '',
					message TEXT NOT NULL,
					detail TEXT NOT NULL DEFAULT '',
					cause TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL
				)
			`); err != nil {
				return errors.Wrap(err, "failed to create diagnostics table")
			}
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_diagnostics_run ON diagnostics(run_id, id)`)
			return errors.Wrap(err, "failed to create run index")
		},
		Down: func(tx *sql.Tx) error {
			_, err := tx.Exec("DROP TABLE IF EXISTS diagnostics")
			return errors.Wrap(err, "failed to drop diagnostics table")
		},
	}
}

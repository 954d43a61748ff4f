package phonebook

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

//go:embed data/sql/migrations/*.sql
var migrationsFS embed.FS

// Migrate executes the embedded schema migrations in lexical order inside a
// single transaction.
func Migrate(ctx context.Context, db *bun.DB) error {
	entries, err := fs.ReadDir(migrationsFS, "data/sql/migrations")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read migrations")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, name := range names {
			stmts, err := migrationsFS.ReadFile("data/sql/migrations/" + name)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read migration "+name)
			}
			if _, err := tx.ExecContext(ctx, string(stmts)); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to apply migration "+name)
			}
		}
		return nil
	})
}

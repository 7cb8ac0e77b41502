package pg

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	migrations "github.com/dropDatabas3/legacybridge/migrations/postgres"
)

// Migrate aplica las migraciones embebidas en orden lexicográfico.
// Idempotente: el schema usa IF NOT EXISTS.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrations.FS.ReadFile(name)
		if err != nil {
			return err
		}
		// Simple protocol: los archivos traen múltiples statements.
		if _, err := s.pool.Exec(ctx, string(sql), pgx.QueryExecModeSimpleProtocol); err != nil {
			return fmt.Errorf("migración %s: %w", name, err)
		}
	}
	return nil
}

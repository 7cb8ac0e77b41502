package pg

import (
	"context"
	"strings"
)

func (s *Store) RoleExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM host_role WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// DefineRoles registra roles en el registry del host (seed para dev).
func (s *Store) DefineRoles(ctx context.Context, names ...string) error {
	for _, n := range names {
		if n = strings.TrimSpace(n); n == "" {
			continue
		}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO host_role (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, n)
		if err != nil {
			return err
		}
	}
	return nil
}

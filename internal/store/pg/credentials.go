package pg

import (
	"context"
	"errors"

	"github.com/dropDatabas3/legacybridge/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

func (s *Store) WritePassword(ctx context.Context, identityID, phc string) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO local_credential (identity_id, password_phc)
        VALUES ($1, $2)
        ON CONFLICT (identity_id) DO UPDATE
           SET password_phc = EXCLUDED.password_phc, updated_at = now()`,
		identityID, phc)
	return err
}

func (s *Store) WriteTOTP(ctx context.Context, identityID string, totp repository.TOTPCredential) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO totp_credential (identity_id, secret, name, digits, period, algorithm, encoding)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		identityID, totp.Secret, totp.Name, totp.Digits, totp.Period, totp.Algorithm, totp.Encoding)
	return err
}

func (s *Store) PasswordHash(ctx context.Context, identityID string) (string, error) {
	var phc string
	err := s.pool.QueryRow(ctx,
		`SELECT password_phc FROM local_credential WHERE identity_id = $1`, identityID).Scan(&phc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return phc, nil
}

package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/legacybridge/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const identityColumns = `id, username, email, email_verified, enabled,
       first_name, last_name, attributes, roles, "groups", organizations,
       required_actions, federation_link, created_at, updated_at`

func (s *Store) GetByUsername(ctx context.Context, username string) (*repository.LocalIdentity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM local_identity WHERE username = $1`, username)
	return scanIdentity(row)
}

func (s *Store) GetByID(ctx context.Context, id string) (*repository.LocalIdentity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM local_identity WHERE id = $1`, id)
	return scanIdentity(row)
}

func (s *Store) Create(ctx context.Context, input repository.CreateIdentityInput) (*repository.LocalIdentity, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, repository.ErrInvalidInput
	}
	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}

	row := s.pool.QueryRow(ctx, `
        INSERT INTO local_identity (id, username)
        VALUES ($1, $2)
        RETURNING `+identityColumns, id, input.Username)

	li, err := scanIdentity(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return li, nil
}

func (s *Store) Update(ctx context.Context, identity *repository.LocalIdentity) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE local_identity
           SET email = $2,
               email_verified = $3,
               enabled = $4,
               first_name = $5,
               last_name = $6,
               attributes = $7,
               roles = $8,
               "groups" = $9,
               organizations = $10,
               required_actions = $11,
               federation_link = $12,
               updated_at = now()
         WHERE id = $1 AND username = $13`,
		identity.ID,
		identity.Email,
		identity.EmailVerified,
		identity.Enabled,
		identity.FirstName,
		identity.LastName,
		attributesOrEmpty(identity.Attributes),
		sliceOrEmpty(identity.Roles),
		sliceOrEmpty(identity.Groups),
		sliceOrEmpty(identity.Organizations),
		sliceOrEmpty(identity.RequiredActions),
		identity.FederationLink,
		identity.Username, // el username es key natural: no se renombra acá
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanIdentity(row pgx.Row) (*repository.LocalIdentity, error) {
	var li repository.LocalIdentity
	err := row.Scan(
		&li.ID, &li.Username, &li.Email, &li.EmailVerified, &li.Enabled,
		&li.FirstName, &li.LastName, &li.Attributes, &li.Roles, &li.Groups,
		&li.Organizations, &li.RequiredActions, &li.FederationLink,
		&li.CreatedAt, &li.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &li, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func attributesOrEmpty(m map[string][]string) map[string][]string {
	if m == nil {
		return map[string][]string{}
	}
	return m
}

func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

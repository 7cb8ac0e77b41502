// Package memory implementa los contratos del host en memoria.
// Útil para desarrollo y testing; la unicidad de username/id se garantiza
// bajo el mismo lock que la creación.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/legacybridge/internal/domain/repository"
	"github.com/google/uuid"
)

type Store struct {
	mu         sync.RWMutex
	byID       map[string]*repository.LocalIdentity
	byUsername map[string]string // username -> id
	roles      map[string]struct{}
	passwords  map[string]string // identityID -> PHC
	totps      map[string][]repository.TOTPCredential
}

func New() *Store {
	return &Store{
		byID:       make(map[string]*repository.LocalIdentity),
		byUsername: make(map[string]string),
		roles:      make(map[string]struct{}),
		passwords:  make(map[string]string),
		totps:      make(map[string][]repository.TOTPCredential),
	}
}

// DefineRoles registra roles en el registry del host (seed para dev/tests).
func (s *Store) DefineRoles(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s.roles[n] = struct{}{}
		}
	}
}

// ─── IdentityRepository ───

func (s *Store) GetByUsername(ctx context.Context, username string) (*repository.LocalIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*repository.LocalIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	li, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(li), nil
}

func (s *Store) Create(ctx context.Context, input repository.CreateIdentityInput) (*repository.LocalIdentity, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, repository.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[input.Username]; exists {
		return nil, repository.ErrConflict
	}
	id := input.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, exists := s.byID[id]; exists {
		return nil, repository.ErrConflict
	}

	now := time.Now()
	li := &repository.LocalIdentity{
		ID:        id,
		Username:  input.Username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[id] = li
	s.byUsername[input.Username] = id
	return clone(li), nil
}

func (s *Store) Update(ctx context.Context, identity *repository.LocalIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[identity.ID]
	if !ok {
		return repository.ErrNotFound
	}
	// El username es la key natural: no se renombra vía Update.
	if current.Username != identity.Username {
		return repository.ErrConflict
	}

	updated := clone(identity)
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now()
	s.byID[identity.ID] = updated
	return nil
}

// ─── RoleRegistry ───

func (s *Store) RoleExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.roles[name]
	return ok, nil
}

// ─── CredentialStore / CredentialReader ───

func (s *Store) WritePassword(ctx context.Context, identityID, phc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[identityID]; !ok {
		return repository.ErrNotFound
	}
	s.passwords[identityID] = phc
	return nil
}

func (s *Store) WriteTOTP(ctx context.Context, identityID string, totp repository.TOTPCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[identityID]; !ok {
		return repository.ErrNotFound
	}
	s.totps[identityID] = append(s.totps[identityID], totp)
	return nil
}

func (s *Store) PasswordHash(ctx context.Context, identityID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	phc, ok := s.passwords[identityID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return phc, nil
}

// TOTPs retorna las credenciales TOTP almacenadas (para tests/inspección).
func (s *Store) TOTPs(identityID string) []repository.TOTPCredential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]repository.TOTPCredential(nil), s.totps[identityID]...)
}

// clone copia en profundidad para que los callers nunca aliasen el estado
// interno del store (replace-on-write).
func clone(li *repository.LocalIdentity) *repository.LocalIdentity {
	if li == nil {
		return nil
	}
	out := *li
	if li.Attributes != nil {
		out.Attributes = make(map[string][]string, len(li.Attributes))
		for k, v := range li.Attributes {
			out.Attributes[k] = append([]string(nil), v...)
		}
	}
	out.Roles = append([]string(nil), li.Roles...)
	out.Groups = append([]string(nil), li.Groups...)
	out.Organizations = append([]string(nil), li.Organizations...)
	out.RequiredActions = append([]string(nil), li.RequiredActions...)
	return &out
}

package repository

import (
	"context"
	"time"
)

// LocalIdentity es el registro de usuario del host.
// Es el resultado de traducir un usuario legacy; una vez creado vive en el
// storage del host y se actualiza in-place en cada re-sincronización.
type LocalIdentity struct {
	ID            string
	Username      string
	Email         string
	EmailVerified bool
	Enabled       bool
	FirstName     string
	LastName      string

	// Attributes se reemplazan por clave en cada traducción (overwrite, no merge).
	Attributes map[string][]string

	// Roles y Groups locales otorgados. Semántica de set: sin duplicados.
	Roles  []string
	Groups []string

	// Organizations son membresías organizacionales, identificadas por alias.
	// Se importan una sola vez al crear la identidad; después son del host.
	Organizations []string

	RequiredActions []string

	// FederationLink marca el registro como propiedad del bridge mientras la
	// credencial siga siendo legacy. Vacío = identidad totalmente local.
	FederationLink string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRole verifica pertenencia con semántica de set.
func (li *LocalIdentity) HasRole(name string) bool {
	for _, r := range li.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// HasGroup verifica pertenencia con semántica de set.
func (li *LocalIdentity) HasGroup(name string) bool {
	for _, g := range li.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// HasOrganization verifica membresía por alias.
func (li *LocalIdentity) HasOrganization(alias string) bool {
	for _, o := range li.Organizations {
		if o == alias {
			return true
		}
	}
	return false
}

// HasRequiredAction verifica si la acción ya está pendiente.
func (li *LocalIdentity) HasRequiredAction(action string) bool {
	for _, a := range li.RequiredActions {
		if a == action {
			return true
		}
	}
	return false
}

// CreateIdentityInput contiene los datos para crear una identidad local.
// ID es opcional: vacío significa "el store asigna uno".
type CreateIdentityInput struct {
	ID       string
	Username string
}

// IdentityRepository define las operaciones del host sobre identidades locales.
// El bridge no es dueño del storage: el host provee su propio control de
// concurrencia (ej: unicidad de username en Create).
type IdentityRepository interface {
	// GetByUsername busca una identidad por username.
	// Retorna ErrNotFound si no existe.
	GetByUsername(ctx context.Context, username string) (*LocalIdentity, error)

	// GetByID busca una identidad por id. Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*LocalIdentity, error)

	// Create crea una identidad nueva. Si input.ID viene vacío el store asigna
	// el identificador. Retorna ErrConflict si el username o el id ya existen.
	Create(ctx context.Context, input CreateIdentityInput) (*LocalIdentity, error)

	// Update persiste el registro completo (replace-on-write).
	Update(ctx context.Context, identity *LocalIdentity) error
}

// RoleRegistry expone el registro de roles del host.
// El bridge solo consulta presencia: un rol mapeado que no existe en el host
// se omite del set otorgado, nunca es error.
type RoleRegistry interface {
	// RoleExists verifica si un rol local está definido en el host.
	RoleExists(ctx context.Context, name string) (bool, error)
}

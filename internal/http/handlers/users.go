package handlers

import (
	"net/http"

	httpx "github.com/dropDatabas3/legacybridge/internal/http"

	"github.com/dropDatabas3/legacybridge/internal/domain/repository"
	"github.com/dropDatabas3/legacybridge/internal/legacy"
	"github.com/dropDatabas3/legacybridge/internal/migration"
	"github.com/go-chi/chi/v5"
)

type identityDTO struct {
	ID              string              `json:"id"`
	Username        string              `json:"username"`
	Email           string              `json:"email,omitempty"`
	EmailVerified   bool                `json:"email_verified"`
	Enabled         bool                `json:"enabled"`
	FirstName       string              `json:"first_name,omitempty"`
	LastName        string              `json:"last_name,omitempty"`
	Attributes      map[string][]string `json:"attributes,omitempty"`
	Roles           []string            `json:"roles,omitempty"`
	Groups          []string            `json:"groups,omitempty"`
	Organizations   []string            `json:"organizations,omitempty"`
	RequiredActions []string            `json:"required_actions,omitempty"`
	FederationLink  string              `json:"federation_link,omitempty"`
}

func toDTO(li *repository.LocalIdentity) identityDTO {
	return identityDTO{
		ID:              li.ID,
		Username:        li.Username,
		Email:           li.Email,
		EmailVerified:   li.EmailVerified,
		Enabled:         li.Enabled,
		FirstName:       li.FirstName,
		LastName:        li.LastName,
		Attributes:      li.Attributes,
		Roles:           li.Roles,
		Groups:          li.Groups,
		Organizations:   li.Organizations,
		RequiredActions: li.RequiredActions,
		FederationLink:  li.FederationLink,
	}
}

// UserLookup es el lookup administrativo: resuelve contra el sistema legacy
// y materializa/actualiza la identidad local.
//
//	GET /v1/users/{usernameOrEmail}           lookup por username
//	GET /v1/users/{usernameOrEmail}?by=email  lookup por email
type UserLookup struct {
	Provider *migration.Provider
}

func (h *UserLookup) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "usernameOrEmail")
	if key == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "falta username o email")
		return
	}

	var (
		li  *repository.LocalIdentity
		err error
	)
	if r.URL.Query().Get("by") == "email" {
		li, err = h.Provider.LookupByEmail(r.Context(), key)
	} else {
		li, err = h.Provider.LookupByUsername(r.Context(), key)
	}

	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, toDTO(li))
	case repository.IsNotFound(err):
		httpx.WriteError(w, http.StatusNotFound, "user_not_found", "usuario inexistente")
	case legacy.IsTransport(err):
		httpx.WriteError(w, http.StatusServiceUnavailable, "legacy_unavailable", "sistema legacy no disponible")
	case migration.IsConsistency(err):
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "inconsistencia de identidad")
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "error interno")
	}
}

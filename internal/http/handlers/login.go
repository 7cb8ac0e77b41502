package handlers

import (
	"net/http"
	"time"

	httpx "github.com/dropDatabas3/legacybridge/internal/http"

	"github.com/dropDatabas3/legacybridge/internal/domain/repository"
	"github.com/dropDatabas3/legacybridge/internal/legacy"
	"github.com/dropDatabas3/legacybridge/internal/migration"
	"github.com/dropDatabas3/legacybridge/internal/observability/logger"
	"github.com/dropDatabas3/legacybridge/internal/security/password"
	"github.com/dropDatabas3/legacybridge/internal/security/token"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Migrated    bool   `json:"migrated"`
}

// Login es la superficie de login del host demo. Rutea según el estado de la
// identidad: federada → bridge (validación legacy + migración one-time);
// link cortado → credencial local.
type Login struct {
	Provider *migration.Provider
	Ids      repository.IdentityRepository
	Creds    repository.CredentialReader
	Minter   *token.Minter
}

func (h *Login) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username y password son requeridos")
		return
	}

	ctx := r.Context()
	log := logger.From(ctx)

	li, err := h.Ids.GetByUsername(ctx, req.Username)
	if err == nil && li.FederationLink == "" {
		// Identidad ya migrada: el bridge no se consulta más.
		h.localLogin(w, r, li, req.Password)
		return
	}
	if err != nil && !repository.IsNotFound(err) {
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "storage no disponible")
		return
	}

	li, valid, err := h.Provider.Login(ctx, req.Username, migration.Credential{
		Type:  migration.CredentialTypePassword,
		Value: req.Password,
	})
	switch {
	case err == nil:
	case repository.IsNotFound(err):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "credenciales inválidas")
		return
	case legacy.IsTransport(err):
		// Legacy caído: se falla cerrado, nunca abierto.
		log.Warn("sistema legacy no disponible", zap.Error(err))
		httpx.WriteError(w, http.StatusServiceUnavailable, "legacy_unavailable", "sistema legacy no disponible")
		return
	case migration.IsConsistency(err):
		log.Error("inconsistencia de usernames", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "inconsistencia de identidad")
		return
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "error interno")
		return
	}

	if !valid {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "credenciales inválidas")
		return
	}
	h.issue(w, li, true)
}

func (h *Login) localLogin(w http.ResponseWriter, r *http.Request, li *repository.LocalIdentity, plain string) {
	phc, err := h.Creds.PasswordHash(r.Context(), li.ID)
	if err != nil || !password.Verify(plain, phc) {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "credenciales inválidas")
		return
	}
	h.issue(w, li, false)
}

func (h *Login) issue(w http.ResponseWriter, li *repository.LocalIdentity, migrated bool) {
	if !li.Enabled {
		httpx.WriteError(w, http.StatusForbidden, "user_disabled", "usuario deshabilitado")
		return
	}

	signed, exp, err := h.Minter.Mint(li.ID, li.Username, li.Roles)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "no se pudo emitir el token")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(exp).Seconds()),
		Migrated:    migrated,
	})
}

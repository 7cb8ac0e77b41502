package migration

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/legacybridge/internal/domain/repository"
	"github.com/dropDatabas3/legacybridge/internal/legacy"
	"github.com/dropDatabas3/legacybridge/internal/metrics"
	"github.com/dropDatabas3/legacybridge/internal/observability/logger"
	"go.uber.org/zap"
)

// TranslatorConfig parametriza la traducción. Inmutable tras la construcción;
// para cambiarla se recrea el bridge.
type TranslatorConfig struct {
	// ProviderID es el valor del federation link que marca las identidades
	// como propiedad de este bridge.
	ProviderID string

	Roles  Mapping
	Groups Mapping

	// IgnoredRoles / IgnoredGroups protegen nombres locales del sync:
	// no se importan ni se remueven.
	IgnoredRoles  IgnorePatterns
	IgnoredGroups IgnorePatterns

	// RoleSync / GroupSync gobiernan la importación por tipo (el modo
	// general del login vive en el Provider).
	RoleSync  SyncMode
	GroupSync SyncMode
}

// Translator convierte usuarios legacy en identidades locales preservando
// las invariantes del host. Stateless respecto a sus propios campos; seguro
// para uso concurrente.
type Translator struct {
	cfg      TranslatorConfig
	ids      repository.IdentityRepository
	registry repository.RoleRegistry
	creds    repository.CredentialStore
	log      *zap.Logger
}

func NewTranslator(cfg TranslatorConfig, ids repository.IdentityRepository, registry repository.RoleRegistry, creds repository.CredentialStore) *Translator {
	return &Translator{
		cfg:      cfg,
		ids:      ids,
		registry: registry,
		creds:    creds,
		log:      logger.Named("translator"),
	}
}

// Create traduce un usuario legacy a una identidad local nueva.
//
// Si el usuario legacy trae id, la identidad nueva lo preserva; si no, el
// store asigna uno. La igualdad de usernames se valida inmediatamente después
// de crear: un mismatch es *ConsistencyError, fatal. El federation link se
// setea antes de cualquier otra mutación para que una falla parcial deje el
// registro claramente atribuible al bridge.
func (t *Translator) Create(ctx context.Context, lu *legacy.User) (*repository.LocalIdentity, error) {
	if lu.ID != "" {
		// Guard: un id legacy ya tomado por otro username es un conflicto,
		// no se pisa el registro existente.
		if existing, err := t.ids.GetByID(ctx, lu.ID); err == nil {
			if existing.Username != lu.Username {
				return nil, fmt.Errorf("legacy id %s ya pertenece a %s: %w",
					lu.ID, existing.Username, repository.ErrConflict)
			}
		} else if !repository.IsNotFound(err) {
			return nil, err
		}
	}

	li, err := t.ids.Create(ctx, repository.CreateIdentityInput{
		ID:       lu.ID,
		Username: lu.Username,
	})
	if err != nil {
		return nil, err
	}

	if li.Username != lu.Username {
		return nil, &ConsistencyError{Local: li.Username, Legacy: lu.Username}
	}

	li.FederationLink = t.cfg.ProviderID
	t.applyProfile(lu, li)

	if t.cfg.RoleSync.ImportOnFirstLogin() {
		if err := t.SyncRoles(ctx, lu, li, false); err != nil {
			return nil, err
		}
	}
	if t.cfg.GroupSync.ImportOnFirstLogin() {
		t.syncGroups(lu, li, false)
	}

	applyRequiredActions(lu, li)
	applyOrganizations(lu, li)

	if err := t.ids.Update(ctx, li); err != nil {
		return nil, err
	}

	if err := t.migrateTOTPs(ctx, lu, li); err != nil {
		return nil, err
	}

	metrics.IdentitiesMigrated.Inc()
	t.log.Info("identidad migrada desde legacy",
		zap.String("username", li.Username),
		zap.String("id", li.ID))
	return li, nil
}

// Refresh aplica el snapshot legacy sobre una identidad existente.
// Valida la invariante de username primero; no persiste (el caller decide
// cuándo llamar a Update).
func (t *Translator) Refresh(ctx context.Context, lu *legacy.User, li *repository.LocalIdentity) error {
	if li.Username != lu.Username {
		return &ConsistencyError{Local: li.Username, Legacy: lu.Username}
	}
	li.FederationLink = t.cfg.ProviderID
	t.applyProfile(lu, li)
	return nil
}

// applyProfile copia los básicos incondicionalmente (legacy es autoritativo)
// y reemplaza atributos por clave (overwrite, nunca merge). Un mapa de
// atributos ausente deja los locales intactos.
func (t *Translator) applyProfile(lu *legacy.User, li *repository.LocalIdentity) {
	li.Enabled = lu.Enabled
	li.Email = lu.Email
	li.EmailVerified = lu.EmailVerified
	li.FirstName = lu.FirstName
	li.LastName = lu.LastName

	if lu.Attributes != nil {
		if li.Attributes == nil {
			li.Attributes = make(map[string][]string, len(lu.Attributes))
		}
		for k, values := range lu.Attributes {
			li.Attributes[k] = append([]string(nil), values...)
		}
	}
}

// SyncRoles reconcilia los roles locales con el snapshot legacy.
// removeMissing=false es add-only. Entradas null/blank del lado legacy se
// toleran y descartan. Un rol mapeado que no existe en el registry del host
// se omite (se loggea, nunca es error). Idempotente.
func (t *Translator) SyncRoles(ctx context.Context, lu *legacy.User, li *repository.LocalIdentity, removeMissing bool) error {
	desired := make(map[string]struct{})
	for _, legacyRole := range lu.Roles {
		local, ok := t.cfg.Roles.Resolve(legacyRole)
		if !ok {
			continue
		}
		if t.cfg.IgnoredRoles.Match(local) {
			continue
		}
		exists, err := t.registry.RoleExists(ctx, local)
		if err != nil {
			return err
		}
		if !exists {
			// Pérdida silenciosa deliberada: el rol mapeado (o pass-through)
			// no está definido en el host. Se deja rastro en el log.
			t.log.Warn("rol no definido en el host; se omite",
				zap.String("role", local),
				zap.String("username", lu.Username))
			continue
		}
		desired[local] = struct{}{}
	}

	kept := li.Roles[:0:0]
	for _, current := range li.Roles {
		if _, want := desired[current]; want {
			kept = append(kept, current)
			delete(desired, current)
			continue
		}
		if !removeMissing || t.cfg.IgnoredRoles.Match(current) {
			kept = append(kept, current)
		}
	}
	for role := range desired {
		kept = append(kept, role)
	}
	li.Roles = kept
	return nil
}

// syncGroups reconcilia grupos con la misma semántica que SyncRoles, salvo
// que el host no expone registro de grupos: un nombre mapeado se une tal cual.
func (t *Translator) syncGroups(lu *legacy.User, li *repository.LocalIdentity, removeMissing bool) {
	desired := make(map[string]struct{})
	for _, legacyGroup := range lu.Groups {
		local, ok := t.cfg.Groups.Resolve(legacyGroup)
		if !ok {
			continue
		}
		if t.cfg.IgnoredGroups.Match(local) {
			continue
		}
		desired[local] = struct{}{}
	}

	kept := li.Groups[:0:0]
	for _, current := range li.Groups {
		if _, want := desired[current]; want {
			kept = append(kept, current)
			delete(desired, current)
			continue
		}
		if !removeMissing || t.cfg.IgnoredGroups.Match(current) {
			kept = append(kept, current)
		}
	}
	for group := range desired {
		kept = append(kept, group)
	}
	li.Groups = kept
}

// SyncGroups es la variante exportada usada por el path de login.
func (t *Translator) SyncGroups(lu *legacy.User, li *repository.LocalIdentity, removeMissing bool) {
	t.syncGroups(lu, li, removeMissing)
}

func applyRequiredActions(lu *legacy.User, li *repository.LocalIdentity) {
	for _, action := range lu.RequiredActions {
		if action == "" {
			continue
		}
		found := false
		for _, existing := range li.RequiredActions {
			if existing == action {
				found = true
				break
			}
		}
		if !found {
			li.RequiredActions = append(li.RequiredActions, action)
		}
	}
}

// applyOrganizations une la identidad a las organizaciones legacy por alias,
// add-only y sin duplicados. Solo corre en la creación: una vez importadas,
// las membresías son del host y no se reconcilian en los re-syncs.
func applyOrganizations(lu *legacy.User, li *repository.LocalIdentity) {
	for _, org := range lu.Organizations {
		if org.Alias == "" {
			continue
		}
		if !li.HasOrganization(org.Alias) {
			li.Organizations = append(li.Organizations, org.Alias)
		}
	}
}

func (t *Translator) migrateTOTPs(ctx context.Context, lu *legacy.User, li *repository.LocalIdentity) error {
	for _, totp := range lu.TOTPs {
		if totp.Secret == "" {
			continue
		}
		err := t.creds.WriteTOTP(ctx, li.ID, repository.TOTPCredential{
			Secret:    totp.Secret,
			Name:      totp.Name,
			Digits:    totp.Digits,
			Period:    totp.Period,
			Algorithm: totp.Algorithm,
			Encoding:  totp.Encoding,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

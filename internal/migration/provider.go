package migration

import (
	"context"

	"github.com/dropDatabas3/legacybridge/internal/domain/repository"
	"github.com/dropDatabas3/legacybridge/internal/legacy"
	"github.com/dropDatabas3/legacybridge/internal/observability/logger"
	"go.uber.org/zap"
)

// Config es la política del provider. Inmutable por instancia.
type Config struct {
	// Mode gobierna el path de login: si la traducción corre en el primer
	// contacto, en cada login, o nunca.
	Mode SyncMode

	// RefreshAttributesOnLogin re-aplica básicos y atributos legacy en cada
	// login, independiente de los modos de roles/grupos. Requiere que la
	// identidad siga federada.
	RefreshAttributesOnLogin bool
}

// Provider es el punto de entrada del bridge: lookups administrativos y el
// path de login. Orquesta LegacyClient, Translator y CredentialValidator
// según la política configurada.
//
// Todas las operaciones son síncronas y stateless respecto a los campos del
// provider; seguro para uso concurrente.
type Provider struct {
	cfg        Config
	client     legacy.Client
	ids        repository.IdentityRepository
	translator *Translator
	validator  *CredentialValidator
	log        *zap.Logger
}

func NewProvider(cfg Config, client legacy.Client, ids repository.IdentityRepository, translator *Translator, validator *CredentialValidator) *Provider {
	return &Provider{
		cfg:        cfg,
		client:     client,
		ids:        ids,
		translator: translator,
		validator:  validator,
		log:        logger.Named("provider"),
	}
}

// LookupByUsername resuelve un username contra el sistema legacy y lo
// traduce a una identidad local (creándola o actualizándola).
//
// Retorna repository.ErrNotFound si el usuario no existe del lado legacy.
// Un *TransportError aborta antes de cualquier mutación local.
func (p *Provider) LookupByUsername(ctx context.Context, username string) (*repository.LocalIdentity, error) {
	lu, err := p.client.FindByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			p.log.Debug("usuario no encontrado en legacy", zap.String("username", username))
		}
		return nil, err
	}
	return p.materialize(ctx, lu)
}

// LookupByEmail es LookupByUsername con resolución por email.
func (p *Provider) LookupByEmail(ctx context.Context, email string) (*repository.LocalIdentity, error) {
	lu, err := p.client.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			p.log.Debug("email no encontrado en legacy", zap.String("email", email))
		}
		return nil, err
	}
	return p.materialize(ctx, lu)
}

// materialize convierte el snapshot legacy en identidad local: actualiza la
// existente o crea una nueva vía el translator.
func (p *Provider) materialize(ctx context.Context, lu *legacy.User) (*repository.LocalIdentity, error) {
	existing, err := p.ids.GetByUsername(ctx, lu.Username)
	switch {
	case err == nil:
		if rerr := p.translator.Refresh(ctx, lu, existing); rerr != nil {
			return nil, rerr
		}
		if uerr := p.ids.Update(ctx, existing); uerr != nil {
			return nil, uerr
		}
		return existing, nil

	case repository.IsNotFound(err):
		li, cerr := p.translator.Create(ctx, lu)
		if repository.IsConflict(cerr) {
			// Id legacy duplicado: se reporta ausente en lugar de pisar
			// el registro ajeno.
			p.log.Warn("id legacy duplicado, se omite la migración",
				zap.String("username", lu.Username),
				zap.String("legacy_id", lu.ID))
			return nil, repository.ErrNotFound
		}
		return li, cerr

	default:
		return nil, err
	}
}

// Login ejecuta el flujo completo para un intento de login: resolución o
// creación de la identidad según el modo, re-sincronización si corresponde,
// y validación/migración de la credencial.
//
// Retorna la identidad y si la credencial fue válida. Un sistema legacy
// inalcanzable falla cerrado: nunca se acepta la credencial.
func (p *Provider) Login(ctx context.Context, username string, cred Credential) (*repository.LocalIdentity, bool, error) {
	li, err := p.ids.GetByUsername(ctx, username)
	switch {
	case err == nil:
		p.refreshOnLogin(ctx, li)

	case repository.IsNotFound(err):
		if !p.cfg.Mode.ImportOnFirstLogin() {
			// NO_SYNC: la traducción nunca corre desde el path de login.
			return nil, false, repository.ErrNotFound
		}
		li, err = p.LookupByUsername(ctx, username)
		if err != nil {
			return nil, false, err
		}

	default:
		return nil, false, err
	}

	valid, err := p.validator.Validate(ctx, li, cred)
	if err != nil {
		return nil, false, err
	}
	return li, valid, nil
}

// refreshOnLogin re-sincroniza una identidad ya migrada si la política lo
// amerita. Solo aplica mientras la identidad siga federada. Una falla acá no
// corta el login: se loggea y la validación de credencial decide (y contra un
// legacy caído igual falla cerrado).
func (p *Provider) refreshOnLogin(ctx context.Context, li *repository.LocalIdentity) {
	if li.FederationLink == "" {
		return
	}

	roleMode := p.translator.cfg.RoleSync
	groupMode := p.translator.cfg.GroupSync
	if !p.cfg.RefreshAttributesOnLogin && !roleMode.SyncOnLogin() && !groupMode.SyncOnLogin() {
		return
	}

	lu, err := p.client.FindByUsername(ctx, li.Username)
	if err != nil {
		if repository.IsNotFound(err) {
			p.log.Debug("usuario ausente en legacy durante refresh",
				zap.String("username", li.Username))
		} else {
			p.log.Warn("refresh desde legacy falló, el login continúa",
				zap.String("username", li.Username),
				zap.Error(err))
		}
		return
	}

	if p.cfg.RefreshAttributesOnLogin {
		if err := p.translator.Refresh(ctx, lu, li); err != nil {
			p.log.Error("refresh inconsistente, se aborta la sincronización",
				zap.String("username", li.Username),
				zap.Error(err))
			return
		}
	}
	if roleMode.SyncOnLogin() {
		if err := p.translator.SyncRoles(ctx, lu, li, roleMode.RemoveMissingOnLogin()); err != nil {
			p.log.Warn("sync de roles falló", zap.Error(err))
			return
		}
	}
	if groupMode.SyncOnLogin() {
		p.translator.SyncGroups(lu, li, groupMode.RemoveMissingOnLogin())
	}

	if err := p.ids.Update(ctx, li); err != nil {
		p.log.Warn("persistencia del refresh falló", zap.Error(err))
	}
}

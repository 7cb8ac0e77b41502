package migration

import (
	"context"

	"github.com/dropDatabas3/legacybridge/internal/domain/repository"
	"github.com/dropDatabas3/legacybridge/internal/legacy"
	"github.com/dropDatabas3/legacybridge/internal/metrics"
	"github.com/dropDatabas3/legacybridge/internal/observability/logger"
	"github.com/dropDatabas3/legacybridge/internal/security/password"
	"go.uber.org/zap"
)

// CredentialTypePassword es el único tipo de credencial que el bridge valida.
const CredentialTypePassword = "password"

// RequiredActionUpdatePassword marca la identidad para que el host fuerce un
// cambio de password cuando la credencial legacy viola la política local.
const RequiredActionUpdatePassword = "UPDATE_PASSWORD"

// Credential es la credencial candidata presentada en un login.
type Credential struct {
	Type  string
	Value string
}

// ValidatorConfig parametriza la validación/migración de credenciales.
type ValidatorConfig struct {
	// UseIDForVerification usa el id local en lugar del username como path
	// param en la verificación contra el sistema legacy.
	UseIDForVerification bool

	// SeverLink corta el federation link tras la migración exitosa de la
	// credencial (default recomendado: true). Con el link cortado el host
	// deja de consultar al bridge para esa identidad.
	SeverLink bool

	// Policy son los requisitos locales de password. Una password legacy
	// verificada que los viola NO se migra: el login igual es válido, pero
	// la identidad queda con la acción UPDATE_PASSWORD pendiente y el link
	// intacto. El zero value acepta cualquier password.
	Policy password.Policy
}

// CredentialValidator orquesta la verificación de password contra el sistema
// legacy y la migración one-time de la credencial al storage local.
type CredentialValidator struct {
	cfg    ValidatorConfig
	client legacy.Client
	ids    repository.IdentityRepository
	creds  repository.CredentialStore
	log    *zap.Logger
}

func NewCredentialValidator(cfg ValidatorConfig, client legacy.Client, ids repository.IdentityRepository, creds repository.CredentialStore) *CredentialValidator {
	return &CredentialValidator{
		cfg:    cfg,
		client: client,
		ids:    ids,
		creds:  creds,
		log:    logger.Named("validator"),
	}
}

// Validate verifica la credencial candidata contra el sistema legacy.
//
// Tipos no soportados retornan false sin llamada legacy (control de flujo
// normal, no error). En éxito, si la password cumple la política local, la
// credencial se migra al storage y se corta el federation link: migración
// one-time, irreversible desde acá. Si la viola, el login igual vale pero la
// migración se pospone con UPDATE_PASSWORD pendiente. En fallo o
// TransportError no se muta nada local — se falla cerrado, nunca abierto.
func (v *CredentialValidator) Validate(ctx context.Context, li *repository.LocalIdentity, cred Credential) (bool, error) {
	if cred.Type != CredentialTypePassword {
		return false, nil
	}

	verifyAs := li.Username
	if v.cfg.UseIDForVerification {
		verifyAs = li.ID
	}

	valid, err := v.client.ValidatePassword(ctx, verifyAs, cred.Value)
	if err != nil {
		return false, err
	}
	if !valid {
		return false, nil
	}

	if ok, reasons := v.cfg.Policy.Validate(cred.Value); !ok {
		// La credencial queda del lado legacy: sin migración y sin corte de
		// link, el usuario sigue entrando mientras el host le pide el cambio.
		if !li.HasRequiredAction(RequiredActionUpdatePassword) {
			li.RequiredActions = append(li.RequiredActions, RequiredActionUpdatePassword)
			if err := v.ids.Update(ctx, li); err != nil {
				return false, err
			}
		}
		v.log.Info("password legacy viola la política local; se pospone la migración",
			zap.String("username", li.Username),
			zap.Strings("reasons", reasons))
		return true, nil
	}

	phc, err := password.Hash(password.Default, cred.Value)
	if err != nil {
		return false, err
	}
	if err := v.creds.WritePassword(ctx, li.ID, phc); err != nil {
		return false, err
	}

	if v.cfg.SeverLink && li.FederationLink != "" {
		li.FederationLink = ""
		if err := v.ids.Update(ctx, li); err != nil {
			return false, err
		}
		metrics.FederationLinksSevered.Inc()
		v.log.Info("credencial migrada, federation link cortado",
			zap.String("username", li.Username))
	}

	return true, nil
}

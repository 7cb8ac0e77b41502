package migration

import (
	"context"
	"strings"
	"testing"

	"github.com/dropDatabas3/legacybridge/internal/domain/repository"
	"github.com/dropDatabas3/legacybridge/internal/legacy"
	"github.com/dropDatabas3/legacybridge/internal/security/password"
	memstore "github.com/dropDatabas3/legacybridge/internal/store/memory"
)

// fakeLegacyClient implementa legacy.Client para los tests del core.
type fakeLegacyClient struct {
	users   map[string]*legacy.User // por username
	byEmail map[string]*legacy.User

	findErr     error
	validateOK  bool
	validateErr error

	findCalls     int
	validateCalls int
	lastVerifyAs  string
	lastPassword  string
}

func (f *fakeLegacyClient) FindByUsername(ctx context.Context, username string) (*legacy.User, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeLegacyClient) FindByEmail(ctx context.Context, email string) (*legacy.User, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeLegacyClient) ValidatePassword(ctx context.Context, usernameOrID, pass string) (bool, error) {
	f.validateCalls++
	f.lastVerifyAs = usernameOrID
	f.lastPassword = pass
	if f.validateErr != nil {
		return false, f.validateErr
	}
	return f.validateOK, nil
}

func seedIdentity(t *testing.T, store *memstore.Store, username, link string) *repository.LocalIdentity {
	t.Helper()
	li, err := store.Create(context.Background(), repository.CreateIdentityInput{Username: username})
	if err != nil {
		t.Fatalf("seed Create: %v", err)
	}
	li.Enabled = true
	li.FederationLink = link
	if err := store.Update(context.Background(), li); err != nil {
		t.Fatalf("seed Update: %v", err)
	}
	return li
}

func TestValidate_TipoNoSoportadoEsFalseSinLlamada(t *testing.T) {
	store := memstore.New()
	client := &fakeLegacyClient{}
	v := NewCredentialValidator(ValidatorConfig{SeverLink: true}, client, store, store)

	li := seedIdentity(t, store, "alice", "legacybridge")
	valid, err := v.Validate(context.Background(), li, Credential{Type: "otp", Value: "123456"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if valid {
		t.Fatalf("tipo no soportado debe ser false")
	}
	if client.validateCalls != 0 {
		t.Fatalf("no debió llamar al legacy: %d calls", client.validateCalls)
	}
}

func TestValidate_ExitoMigraCredencialYCortaLink(t *testing.T) {
	store := memstore.New()
	client := &fakeLegacyClient{validateOK: true}
	v := NewCredentialValidator(ValidatorConfig{SeverLink: true}, client, store, store)
	ctx := context.Background()

	li := seedIdentity(t, store, "alice", "legacybridge")
	valid, err := v.Validate(ctx, li, Credential{Type: CredentialTypePassword, Value: "s3cret"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !valid {
		t.Fatalf("expected valid")
	}
	if client.lastVerifyAs != "alice" {
		t.Fatalf("verificó como %q, want username", client.lastVerifyAs)
	}

	// exactamente una credencial local, en formato PHC, que verifica
	phc, err := store.PasswordHash(ctx, li.ID)
	if err != nil {
		t.Fatalf("PasswordHash: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$") {
		t.Fatalf("PHC inesperado: %q", phc)
	}
	if !password.Verify("s3cret", phc) {
		t.Fatalf("la credencial migrada no verifica")
	}

	// el link quedó cortado y persistido
	stored, _ := store.GetByUsername(ctx, "alice")
	if stored.FederationLink != "" {
		t.Fatalf("FederationLink no cortado: %q", stored.FederationLink)
	}
	if li.FederationLink != "" {
		t.Fatalf("copia en memoria no actualizada")
	}
}

func TestValidate_UseIDForVerification(t *testing.T) {
	store := memstore.New()
	client := &fakeLegacyClient{validateOK: true}
	v := NewCredentialValidator(ValidatorConfig{UseIDForVerification: true, SeverLink: true}, client, store, store)

	li := seedIdentity(t, store, "bob", "legacybridge")
	if _, err := v.Validate(context.Background(), li, Credential{Type: CredentialTypePassword, Value: "x"}); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if client.lastVerifyAs != li.ID {
		t.Fatalf("verificó como %q, want id %q", client.lastVerifyAs, li.ID)
	}
}

func TestValidate_FalloNoMutaNada(t *testing.T) {
	store := memstore.New()
	client := &fakeLegacyClient{validateOK: false}
	v := NewCredentialValidator(ValidatorConfig{SeverLink: true}, client, store, store)
	ctx := context.Background()

	li := seedIdentity(t, store, "carol", "legacybridge")
	valid, err := v.Validate(ctx, li, Credential{Type: CredentialTypePassword, Value: "mala"})
	if err != nil || valid {
		t.Fatalf("got valid=%v err=%v", valid, err)
	}

	if _, err := store.PasswordHash(ctx, li.ID); !repository.IsNotFound(err) {
		t.Fatalf("no debió escribirse credencial: %v", err)
	}
	stored, _ := store.GetByUsername(ctx, "carol")
	if stored.FederationLink != "legacybridge" {
		t.Fatalf("el link no debió tocarse: %q", stored.FederationLink)
	}
}

func TestValidate_TransportErrorFallaCerrado(t *testing.T) {
	store := memstore.New()
	client := &fakeLegacyClient{validateErr: &legacy.TransportError{Op: "validate", Err: context.DeadlineExceeded}}
	v := NewCredentialValidator(ValidatorConfig{SeverLink: true}, client, store, store)
	ctx := context.Background()

	li := seedIdentity(t, store, "dave", "legacybridge")
	valid, err := v.Validate(ctx, li, Credential{Type: CredentialTypePassword, Value: "x"})
	if valid {
		t.Fatalf("legacy caído nunca valida")
	}
	if !legacy.IsTransport(err) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if _, err := store.PasswordHash(ctx, li.ID); !repository.IsNotFound(err) {
		t.Fatalf("no debió escribirse credencial: %v", err)
	}
}

func TestValidate_PoliticaViolada_PosponeMigracion(t *testing.T) {
	store := memstore.New()
	client := &fakeLegacyClient{validateOK: true}
	v := NewCredentialValidator(ValidatorConfig{
		SeverLink: true,
		Policy:    password.Policy{MinLength: 8, RequireDigit: true},
	}, client, store, store)
	ctx := context.Background()

	li := seedIdentity(t, store, "frank", "legacybridge")
	valid, err := v.Validate(ctx, li, Credential{Type: CredentialTypePassword, Value: "corta"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// el login vale: la password ES la correcta del lado legacy
	if !valid {
		t.Fatalf("expected valid")
	}

	// pero no se migra ni se corta el link
	if _, err := store.PasswordHash(ctx, li.ID); !repository.IsNotFound(err) {
		t.Fatalf("no debió escribirse credencial: %v", err)
	}
	stored, _ := store.GetByUsername(ctx, "frank")
	if stored.FederationLink != "legacybridge" {
		t.Fatalf("el link no debió cortarse: %q", stored.FederationLink)
	}

	// queda la acción pendiente, persistida
	if !stored.HasRequiredAction(RequiredActionUpdatePassword) {
		t.Fatalf("falta UPDATE_PASSWORD en %v", stored.RequiredActions)
	}
}

func TestValidate_PoliticaViolada_NoDuplicaAccion(t *testing.T) {
	store := memstore.New()
	client := &fakeLegacyClient{validateOK: true}
	v := NewCredentialValidator(ValidatorConfig{
		SeverLink: true,
		Policy:    password.Policy{MinLength: 20},
	}, client, store, store)
	ctx := context.Background()

	seedIdentity(t, store, "grace", "legacybridge")
	for i := 0; i < 3; i++ {
		fresh, err := store.GetByUsername(ctx, "grace")
		if err != nil {
			t.Fatalf("GetByUsername: %v", err)
		}
		if valid, err := v.Validate(ctx, fresh, Credential{Type: CredentialTypePassword, Value: "corta"}); err != nil || !valid {
			t.Fatalf("login %d: valid=%v err=%v", i, valid, err)
		}
	}

	stored, _ := store.GetByUsername(ctx, "grace")
	count := 0
	for _, a := range stored.RequiredActions {
		if a == RequiredActionUpdatePassword {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("UPDATE_PASSWORD repetida %d veces: %v", count, stored.RequiredActions)
	}
}

func TestValidate_PoliticaCumplida_MigraNormalmente(t *testing.T) {
	store := memstore.New()
	client := &fakeLegacyClient{validateOK: true}
	v := NewCredentialValidator(ValidatorConfig{
		SeverLink: true,
		Policy:    password.Policy{MinLength: 8, RequireDigit: true},
	}, client, store, store)
	ctx := context.Background()

	li := seedIdentity(t, store, "heidi", "legacybridge")
	valid, err := v.Validate(ctx, li, Credential{Type: CredentialTypePassword, Value: "larga1segura"})
	if err != nil || !valid {
		t.Fatalf("got valid=%v err=%v", valid, err)
	}
	if _, err := store.PasswordHash(ctx, li.ID); err != nil {
		t.Fatalf("credencial no migrada: %v", err)
	}
	stored, _ := store.GetByUsername(ctx, "heidi")
	if stored.FederationLink != "" {
		t.Fatalf("link no cortado: %q", stored.FederationLink)
	}
	if stored.HasRequiredAction(RequiredActionUpdatePassword) {
		t.Fatalf("no debió quedar UPDATE_PASSWORD: %v", stored.RequiredActions)
	}
}

func TestValidate_SeverLinkDeshabilitado(t *testing.T) {
	store := memstore.New()
	client := &fakeLegacyClient{validateOK: true}
	v := NewCredentialValidator(ValidatorConfig{SeverLink: false}, client, store, store)
	ctx := context.Background()

	li := seedIdentity(t, store, "erin", "legacybridge")
	valid, err := v.Validate(ctx, li, Credential{Type: CredentialTypePassword, Value: "x"})
	if err != nil || !valid {
		t.Fatalf("got valid=%v err=%v", valid, err)
	}
	// la credencial se migra igual, pero el link queda
	if _, err := store.PasswordHash(ctx, li.ID); err != nil {
		t.Fatalf("credencial no migrada: %v", err)
	}
	stored, _ := store.GetByUsername(ctx, "erin")
	if stored.FederationLink != "legacybridge" {
		t.Fatalf("el link no debió cortarse: %q", stored.FederationLink)
	}
}

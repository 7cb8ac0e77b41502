package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	httpx "github.com/dropDatabas3/legacybridge/internal/http"

	"github.com/dropDatabas3/legacybridge/internal/legacy"
	"github.com/dropDatabas3/legacybridge/internal/migration"
	"github.com/dropDatabas3/legacybridge/internal/security/token"
	memstore "github.com/dropDatabas3/legacybridge/internal/store/memory"
)

// legacyBackend simula el sistema de autenticación legacy:
// GET /{key} devuelve el usuario, POST /{key} valida la password.
type legacyBackend struct {
	users     map[string]legacy.User // por username
	passwords map[string]string
}

func (b *legacyBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")

	if r.Method == http.MethodPost {
		var body struct {
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if pw, ok := b.passwords[key]; ok && pw == body.Password {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	for _, u := range b.users {
		if strings.EqualFold(u.Username, key) || strings.EqualFold(u.Email, key) {
			json.NewEncoder(w).Encode(u)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

type fixture struct {
	store   *memstore.Store
	backend *legacyBackend
	srv     *httptest.Server
	router  http.Handler
}

func newFixture(t *testing.T, mode migration.SyncMode) *fixture {
	t.Helper()

	backend := &legacyBackend{
		users:     map[string]legacy.User{},
		passwords: map[string]string{},
	}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client, err := legacy.NewREST(legacy.RESTConfig{Endpoint: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)

	store := memstore.New()
	store.DefineRoles("admin", "viewer")

	roleMap, err := migration.ParseMapping([]string{"legacyAdmin:admin"}, false)
	require.NoError(t, err)

	translator := migration.NewTranslator(migration.TranslatorConfig{
		ProviderID: "legacybridge",
		Roles:      roleMap,
	}, store, store, store)
	validator := migration.NewCredentialValidator(migration.ValidatorConfig{SeverLink: true}, client, store, store)
	provider := migration.NewProvider(migration.Config{Mode: mode}, client, store, translator, validator)

	minter, err := token.NewMinter(token.Config{Secret: "test-secret", Issuer: "test"})
	require.NoError(t, err)

	router := httpx.NewRouter(httpx.Handlers{
		Login:      &Login{Provider: provider, Ids: store, Creds: store, Minter: minter},
		UserLookup: &UserLookup{Provider: provider},
		Readyz:     &Readyz{},
	})
	return &fixture{store: store, backend: backend, srv: srv, router: router}
}

func (f *fixture) addLegacyUser(u legacy.User, password string) {
	f.backend.users[u.Username] = u
	f.backend.passwords[u.Username] = password
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

type loginResponseBody struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Migrated    bool   `json:"migrated"`
}

func TestLogin_MigraEnPrimerLoginYLuegoEsLocal(t *testing.T) {
	f := newFixture(t, migration.SyncFirstLogin)
	f.addLegacyUser(legacy.User{Username: "alice", Enabled: true, Roles: []string{"legacyAdmin"}}, "s3cret")

	rec := f.do(t, http.MethodPost, "/v1/auth/login", `{"username":"alice","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp loginResponseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Greater(t, resp.ExpiresIn, int64(0))
	require.True(t, resp.Migrated, "primer login debió marcar migrated")

	// segundo login: link cortado, el backend legacy ya no se consulta
	f.backend.users = nil
	f.backend.passwords = nil

	rec = f.do(t, http.MethodPost, "/v1/auth/login", `{"username":"alice","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Migrated, "login local no debe marcar migrated")
}

func TestLogin_PasswordIncorrecta(t *testing.T) {
	f := newFixture(t, migration.SyncFirstLogin)
	f.addLegacyUser(legacy.User{Username: "alice", Enabled: true}, "buena")

	rec := f.do(t, http.MethodPost, "/v1/auth/login", `{"username":"alice","password":"mala"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())

	var apiErr struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	require.Equal(t, "invalid_credentials", apiErr.Error)
}

func TestLogin_UsuarioInexistente(t *testing.T) {
	f := newFixture(t, migration.SyncFirstLogin)
	rec := f.do(t, http.MethodPost, "/v1/auth/login", `{"username":"nadie","password":"x"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
}

func TestLogin_LegacyCaidoEs503(t *testing.T) {
	f := newFixture(t, migration.SyncFirstLogin)
	f.srv.Close() // legacy inalcanzable

	rec := f.do(t, http.MethodPost, "/v1/auth/login", `{"username":"alice","password":"x"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())

	var apiErr struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	require.Equal(t, "legacy_unavailable", apiErr.Error)
}

func TestLogin_UsuarioDeshabilitado(t *testing.T) {
	f := newFixture(t, migration.SyncFirstLogin)
	f.addLegacyUser(legacy.User{Username: "bob", Enabled: false}, "pw")

	rec := f.do(t, http.MethodPost, "/v1/auth/login", `{"username":"bob","password":"pw"}`)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestLogin_RequestInvalida(t *testing.T) {
	f := newFixture(t, migration.SyncFirstLogin)

	rec := f.do(t, http.MethodPost, "/v1/auth/login", `{"username":"alice"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, "sin password")

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader("x=1"))
	rec2 := httptest.NewRecorder()
	f.router.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusBadRequest, rec2.Code, "sin content-type json")
}

func TestUserLookup_MaterializaYDevuelveDTO(t *testing.T) {
	f := newFixture(t, migration.SyncFirstLogin)
	f.addLegacyUser(legacy.User{
		Username:  "alice",
		Email:     "alice@example.com",
		Enabled:   true,
		FirstName: "Alice",
		Roles:     []string{"legacyAdmin"},
	}, "pw")

	rec := f.do(t, http.MethodGet, "/v1/users/alice", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto identityDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.Equal(t, "alice", dto.Username)
	require.Equal(t, "legacybridge", dto.FederationLink)
	require.Equal(t, []string{"admin"}, dto.Roles)

	// quedó materializada en el store
	_, err := f.store.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
}

func TestUserLookup_PorEmail(t *testing.T) {
	f := newFixture(t, migration.SyncFirstLogin)
	f.addLegacyUser(legacy.User{Username: "bob", Email: "bob@example.com", Enabled: true}, "pw")

	rec := f.do(t, http.MethodGet, "/v1/users/bob@example.com?by=email", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto identityDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.Equal(t, "bob", dto.Username)
}

func TestUserLookup_Inexistente(t *testing.T) {
	f := newFixture(t, migration.SyncFirstLogin)
	rec := f.do(t, http.MethodGet, "/v1/users/nadie", "")
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestUserLookup_LegacyCaido(t *testing.T) {
	f := newFixture(t, migration.SyncFirstLogin)
	f.srv.Close()

	rec := f.do(t, http.MethodGet, "/v1/users/alice", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, migration.SyncFirstLogin)
	rec := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz_SinChecksEsOK(t *testing.T) {
	f := newFixture(t, migration.SyncFirstLogin)
	rec := f.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

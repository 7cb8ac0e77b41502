package legacy

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/legacybridge/internal/domain/repository"
	"github.com/dropDatabas3/legacybridge/internal/metrics"
	"github.com/dropDatabas3/legacybridge/internal/observability/logger"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// RESTConfig configura el cliente REST contra el sistema legacy.
type RESTConfig struct {
	// Endpoint base, sin slash final. Requerido.
	Endpoint string

	// Timeout por request. Default: 10s. En timeout se retorna TransportError.
	Timeout time.Duration

	// Basic auth saliente. Solo se envía si ambos campos son no-blank.
	BasicUsername string
	BasicPassword string

	// Bearer token estático saliente. Solo se envía si es no-blank.
	// Si basic y bearer están configurados a la vez, gana bearer.
	BearerToken string
}

// RESTClient habla con el sistema legacy vía HTTP:
//
//	GET  {endpoint}/{username-o-email}  → 200 con body User, otro status = no existe
//	POST {endpoint}/{username}          → {"password": "..."}; 200 = válida
type RESTClient struct {
	endpoint   string
	authHeader string // header Authorization precomputado, "" = no se envía
	http       *http.Client
}

// NewREST construye el cliente. Valida el endpoint eagerly.
func NewREST(cfg RESTConfig) (*RESTClient, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("legacy: endpoint requerido")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("legacy: endpoint inválido: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &RESTClient{
		endpoint:   endpoint,
		authHeader: buildAuthHeader(cfg),
		http:       &http.Client{Timeout: timeout},
	}, nil
}

func buildAuthHeader(cfg RESTConfig) string {
	if token := strings.TrimSpace(cfg.BearerToken); token != "" {
		return "Bearer " + token
	}
	user := strings.TrimSpace(cfg.BasicUsername)
	pass := strings.TrimSpace(cfg.BasicPassword)
	if user != "" && pass != "" {
		raw := user + ":" + pass
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
	}
	return ""
}

func (c *RESTClient) FindByUsername(ctx context.Context, username string) (*User, error) {
	u, err := c.find(ctx, username)
	if err != nil {
		return nil, err
	}
	// El payload debe corresponder al username consultado; un eco distinto
	// (ej: lookup por alias que resuelve a otro usuario canónico) se trata
	// como no encontrado.
	if !equalsFold(username, u.Username) {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (c *RESTClient) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := c.find(ctx, email)
	if err != nil {
		return nil, err
	}
	if !equalsFold(email, u.Email) {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (c *RESTClient) find(ctx context.Context, usernameOrEmail string) (*User, error) {
	target := c.endpoint + "/" + url.PathEscape(usernameOrEmail)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{Op: "find", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.LegacyLookups.WithLabelValues("error").Inc()
		return nil, &TransportError{Op: "find", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Cualquier status no-200 significa "no existe"; el body se ignora.
		io.Copy(io.Discard, resp.Body)
		metrics.LegacyLookups.WithLabelValues("not_found").Inc()
		return nil, repository.ErrNotFound
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		metrics.LegacyLookups.WithLabelValues("error").Inc()
		return nil, &TransportError{Op: "find", Err: fmt.Errorf("decode body: %w", err)}
	}

	metrics.LegacyLookups.WithLabelValues("found").Inc()
	return &u, nil
}

type passwordDTO struct {
	Password string `json:"password"`
}

func (c *RESTClient) ValidatePassword(ctx context.Context, usernameOrID, password string) (bool, error) {
	target := c.endpoint + "/" + url.PathEscape(usernameOrID)

	body, err := json.Marshal(passwordDTO{Password: password})
	if err != nil {
		return false, &TransportError{Op: "validate", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return false, &TransportError{Op: "validate", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.PasswordValidations.WithLabelValues("error").Inc()
		return false, &TransportError{Op: "validate", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	valid := resp.StatusCode == http.StatusOK
	if valid {
		metrics.PasswordValidations.WithLabelValues("valid").Inc()
	} else {
		metrics.PasswordValidations.WithLabelValues("invalid").Inc()
		logger.L().Debug("legacy password rejected",
			zap.String("user", usernameOrID),
			zap.Int("status", resp.StatusCode))
	}
	return valid, nil
}

func equalsFold(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

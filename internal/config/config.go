package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Legacy struct {
		// Endpoint base del sistema legacy, sin slash final. Requerido.
		Endpoint string        `yaml:"endpoint"`
		Timeout  time.Duration `yaml:"timeout"`

		// Auth saliente hacia el sistema legacy. Ambos blank = sin header.
		BasicUsername string `yaml:"basic_username"`
		BasicPassword string `yaml:"basic_password"`
		BearerToken   string `yaml:"bearer_token"`

		// UseIDForVerification usa el id local en vez del username como
		// path param al verificar la password.
		UseIDForVerification bool `yaml:"use_id_for_verification"`
	} `yaml:"legacy"`

	Migration struct {
		// ProviderID es el valor del federation link. Default: "legacybridge".
		ProviderID string `yaml:"provider_id"`

		// RoleMap / GroupMap: pares "legacy:local". Se validan al cargar.
		RoleMap             []string `yaml:"role_map"`
		AllowUnmappedRoles  bool     `yaml:"allow_unmapped_roles"`
		GroupMap            []string `yaml:"group_map"`
		AllowUnmappedGroups bool     `yaml:"allow_unmapped_groups"`

		// Modos de sync: nombre del enum o "true"/"false" legacy.
		SyncMode      string `yaml:"sync_mode"`
		RoleSyncMode  string `yaml:"role_sync_mode"`
		GroupSyncMode string `yaml:"group_sync_mode"`

		RefreshAttributesOnLogin bool `yaml:"refresh_attributes_on_login"`

		// SeverLink corta el federation link tras migrar la credencial.
		// Default: true.
		SeverLink *bool `yaml:"sever_link"`

		IgnoredRoles  []string `yaml:"ignored_roles"`
		IgnoredGroups []string `yaml:"ignored_groups"`

		// PasswordPolicy gobierna si una password legacy verificada puede
		// migrarse tal cual. Vacía = sin requisitos.
		PasswordPolicy struct {
			MinLength     int  `yaml:"min_length"`
			RequireUpper  bool `yaml:"require_upper"`
			RequireLower  bool `yaml:"require_lower"`
			RequireDigit  bool `yaml:"require_digit"`
			RequireSymbol bool `yaml:"require_symbol"`
		} `yaml:"password_policy"`
	} `yaml:"migration"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		MaxConns int    `yaml:"max_conns"`

		// SeedRoles registra estos roles en el registry del host al arrancar
		// (solo dev; en producción el host ya tiene su registry).
		SeedRoles []string `yaml:"seed_roles"`
	} `yaml:"storage"`

	Cache struct {
		// none | memory | redis
		Kind  string        `yaml:"kind"`
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Token struct {
		Secret string        `yaml:"secret"`
		Issuer string        `yaml:"issuer"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"token"`
}

// Load lee el YAML, aplica overrides de entorno y defaults, y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyEnvOverrides()

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Legacy.Timeout <= 0 {
		c.Legacy.Timeout = 10 * time.Second
	}
	if c.Migration.ProviderID == "" {
		c.Migration.ProviderID = "legacybridge"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "none"
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 2 * time.Minute
	}
	if c.Token.Issuer == "" {
		c.Token.Issuer = "legacybridge"
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// SeverLinkEnabled resuelve el default (true) del flag opcional.
func (c *Config) SeverLinkEnabled() bool {
	if c.Migration.SeverLink == nil {
		return true
	}
	return *c.Migration.SeverLink
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Legacy.Endpoint) == "" {
		return fmt.Errorf("config: legacy.endpoint es requerido")
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("config: storage.dsn es requerido con driver postgres")
		}
	default:
		return fmt.Errorf("config: storage.driver desconocido: %q", c.Storage.Driver)
	}
	switch c.Cache.Kind {
	case "none", "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			return fmt.Errorf("config: cache.redis.addr es requerido con kind redis")
		}
	default:
		return fmt.Errorf("config: cache.kind desconocido: %q", c.Cache.Kind)
	}
	return nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno LEGACYBRIDGE_*.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("LEGACYBRIDGE_APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LEGACYBRIDGE_LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}
	if v, ok := getEnvStr("LEGACYBRIDGE_SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	if v, ok := getEnvStr("LEGACYBRIDGE_LEGACY_ENDPOINT"); ok {
		c.Legacy.Endpoint = v
	}
	if v, ok := getEnvDur("LEGACYBRIDGE_LEGACY_TIMEOUT"); ok {
		c.Legacy.Timeout = v
	}
	if v, ok := getEnvStr("LEGACYBRIDGE_LEGACY_BASIC_USERNAME"); ok {
		c.Legacy.BasicUsername = v
	}
	if v, ok := getEnvStr("LEGACYBRIDGE_LEGACY_BASIC_PASSWORD"); ok {
		c.Legacy.BasicPassword = v
	}
	if v, ok := getEnvStr("LEGACYBRIDGE_LEGACY_BEARER_TOKEN"); ok {
		c.Legacy.BearerToken = v
	}
	if v, ok := getEnvBool("LEGACYBRIDGE_LEGACY_USE_ID_FOR_VERIFICATION"); ok {
		c.Legacy.UseIDForVerification = v
	}

	if v, ok := getEnvStr("LEGACYBRIDGE_PROVIDER_ID"); ok {
		c.Migration.ProviderID = v
	}
	if v, ok := getEnvCSV("LEGACYBRIDGE_ROLE_MAP"); ok {
		c.Migration.RoleMap = v
	}
	if v, ok := getEnvBool("LEGACYBRIDGE_ALLOW_UNMAPPED_ROLES"); ok {
		c.Migration.AllowUnmappedRoles = v
	}
	if v, ok := getEnvCSV("LEGACYBRIDGE_GROUP_MAP"); ok {
		c.Migration.GroupMap = v
	}
	if v, ok := getEnvBool("LEGACYBRIDGE_ALLOW_UNMAPPED_GROUPS"); ok {
		c.Migration.AllowUnmappedGroups = v
	}
	if v, ok := getEnvStr("LEGACYBRIDGE_SYNC_MODE"); ok {
		c.Migration.SyncMode = v
	}
	if v, ok := getEnvStr("LEGACYBRIDGE_ROLE_SYNC_MODE"); ok {
		c.Migration.RoleSyncMode = v
	}
	if v, ok := getEnvStr("LEGACYBRIDGE_GROUP_SYNC_MODE"); ok {
		c.Migration.GroupSyncMode = v
	}
	if v, ok := getEnvBool("LEGACYBRIDGE_REFRESH_ATTRIBUTES_ON_LOGIN"); ok {
		c.Migration.RefreshAttributesOnLogin = v
	}
	if v, ok := getEnvBool("LEGACYBRIDGE_SEVER_LINK"); ok {
		c.Migration.SeverLink = &v
	}
	if v, ok := getEnvCSV("LEGACYBRIDGE_IGNORED_ROLES"); ok {
		c.Migration.IgnoredRoles = v
	}
	if v, ok := getEnvCSV("LEGACYBRIDGE_IGNORED_GROUPS"); ok {
		c.Migration.IgnoredGroups = v
	}
	if v, ok := getEnvInt("LEGACYBRIDGE_POLICY_MIN_LENGTH"); ok {
		c.Migration.PasswordPolicy.MinLength = v
	}
	if v, ok := getEnvBool("LEGACYBRIDGE_POLICY_REQUIRE_UPPER"); ok {
		c.Migration.PasswordPolicy.RequireUpper = v
	}
	if v, ok := getEnvBool("LEGACYBRIDGE_POLICY_REQUIRE_LOWER"); ok {
		c.Migration.PasswordPolicy.RequireLower = v
	}
	if v, ok := getEnvBool("LEGACYBRIDGE_POLICY_REQUIRE_DIGIT"); ok {
		c.Migration.PasswordPolicy.RequireDigit = v
	}
	if v, ok := getEnvBool("LEGACYBRIDGE_POLICY_REQUIRE_SYMBOL"); ok {
		c.Migration.PasswordPolicy.RequireSymbol = v
	}

	if v, ok := getEnvStr("LEGACYBRIDGE_STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("LEGACYBRIDGE_STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("LEGACYBRIDGE_STORAGE_MAX_CONNS"); ok {
		c.Storage.MaxConns = v
	}

	if v, ok := getEnvStr("LEGACYBRIDGE_CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvDur("LEGACYBRIDGE_CACHE_TTL"); ok {
		c.Cache.TTL = v
	}
	if v, ok := getEnvStr("LEGACYBRIDGE_CACHE_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("LEGACYBRIDGE_CACHE_REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	if v, ok := getEnvStr("LEGACYBRIDGE_TOKEN_SECRET"); ok {
		c.Token.Secret = v
	}
	if v, ok := getEnvStr("LEGACYBRIDGE_TOKEN_ISSUER"); ok {
		c.Token.Issuer = v
	}
	if v, ok := getEnvDur("LEGACYBRIDGE_TOKEN_TTL"); ok {
		c.Token.TTL = v
	}
}

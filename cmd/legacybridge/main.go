package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	cachemem "github.com/dropDatabas3/legacybridge/internal/cache/memory"
	cacheredis "github.com/dropDatabas3/legacybridge/internal/cache/redis"
	"github.com/dropDatabas3/legacybridge/internal/config"
	"github.com/dropDatabas3/legacybridge/internal/domain/repository"
	httpserver "github.com/dropDatabas3/legacybridge/internal/http"
	"github.com/dropDatabas3/legacybridge/internal/http/handlers"
	"github.com/dropDatabas3/legacybridge/internal/legacy"
	"github.com/dropDatabas3/legacybridge/internal/metrics"
	"github.com/dropDatabas3/legacybridge/internal/migration"
	"github.com/dropDatabas3/legacybridge/internal/observability/logger"
	"github.com/dropDatabas3/legacybridge/internal/security/password"
	"github.com/dropDatabas3/legacybridge/internal/security/token"
	memstore "github.com/dropDatabas3/legacybridge/internal/store/memory"
	pgstore "github.com/dropDatabas3/legacybridge/internal/store/pg"
)

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $LEGACYBRIDGE_CONFIG o configs/config.yaml)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
	)
	flag.Parse()

	if *flagEnvFile != "" && fileExists(*flagEnvFile) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("LEGACYBRIDGE_CONFIG")
	}
	if cfgPath == "" && fileExists("configs/config.yaml") {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "legacybridge"})
	defer logger.Sync()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Mappings ----
	roleMap, err := migration.ParseMapping(cfg.Migration.RoleMap, cfg.Migration.AllowUnmappedRoles)
	if err != nil {
		lg.Fatal("role map", zap.Error(err))
	}
	groupMap, err := migration.ParseMapping(cfg.Migration.GroupMap, cfg.Migration.AllowUnmappedGroups)
	if err != nil {
		lg.Fatal("group map", zap.Error(err))
	}
	ignoredRoles := migration.IgnorePatterns(cfg.Migration.IgnoredRoles)
	if len(ignoredRoles) == 0 {
		ignoredRoles = migration.DefaultIgnoredRoles
	}
	ignoredGroups := migration.IgnorePatterns(cfg.Migration.IgnoredGroups)

	// ---- Storage del host ----
	var (
		ids      repository.IdentityRepository
		registry repository.RoleRegistry
		creds    repository.CredentialStore
		reader   repository.CredentialReader
		checks   = map[string]handlers.Pinger{}
	)
	switch cfg.Storage.Driver {
	case "memory":
		m := memstore.New()
		m.DefineRoles(cfg.Storage.SeedRoles...)
		ids, registry, creds, reader = m, m, m, m
		lg.Info("storage: memory")
	case "postgres":
		openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		pgs, err := pgstore.New(openCtx, cfg.Storage.DSN, int32(cfg.Storage.MaxConns))
		cancel()
		if err != nil {
			lg.Fatal("postgres open", zap.Error(err))
		}
		defer pgs.Close()
		if err := pgs.Migrate(ctx); err != nil {
			lg.Fatal("postgres migrate", zap.Error(err))
		}
		if len(cfg.Storage.SeedRoles) > 0 {
			if err := pgs.DefineRoles(ctx, cfg.Storage.SeedRoles...); err != nil {
				lg.Fatal("seed roles", zap.Error(err))
			}
		}
		ids, registry, creds, reader = pgs, pgs, pgs, pgs
		checks["postgres"] = pgs
		lg.Info("storage: postgres")
	}

	// ---- Cliente legacy ----
	rest, err := legacy.NewREST(legacy.RESTConfig{
		Endpoint:      cfg.Legacy.Endpoint,
		Timeout:       cfg.Legacy.Timeout,
		BasicUsername: cfg.Legacy.BasicUsername,
		BasicPassword: cfg.Legacy.BasicPassword,
		BearerToken:   cfg.Legacy.BearerToken,
	})
	if err != nil {
		lg.Fatal("legacy client", zap.Error(err))
	}
	var client legacy.Client = rest
	switch cfg.Cache.Kind {
	case "memory":
		client = legacy.NewCached(rest, cachemem.New(cfg.Cache.TTL), cfg.Cache.TTL)
		lg.Info("lookup cache: memory", zap.Duration("ttl", cfg.Cache.TTL))
	case "redis":
		rc := cacheredis.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB)
		defer rc.Close()
		client = legacy.NewCached(rest, rc, cfg.Cache.TTL)
		checks["redis"] = rc
		lg.Info("lookup cache: redis", zap.String("addr", cfg.Cache.Redis.Addr))
	}

	if err := metrics.Register(nil); err != nil {
		lg.Fatal("metrics", zap.Error(err))
	}

	// ---- Core de migración ----
	syncMode := migration.SyncModeFromConfig(cfg.Migration.SyncMode, migration.SyncFirstLogin)
	translator := migration.NewTranslator(migration.TranslatorConfig{
		ProviderID:    cfg.Migration.ProviderID,
		Roles:         roleMap,
		Groups:        groupMap,
		IgnoredRoles:  ignoredRoles,
		IgnoredGroups: ignoredGroups,
		RoleSync:      migration.SyncModeFromConfig(cfg.Migration.RoleSyncMode, syncMode),
		GroupSync:     migration.SyncModeFromConfig(cfg.Migration.GroupSyncMode, syncMode),
	}, ids, registry, creds)
	validator := migration.NewCredentialValidator(migration.ValidatorConfig{
		UseIDForVerification: cfg.Legacy.UseIDForVerification,
		SeverLink:            cfg.SeverLinkEnabled(),
		Policy: password.Policy{
			MinLength:     cfg.Migration.PasswordPolicy.MinLength,
			RequireUpper:  cfg.Migration.PasswordPolicy.RequireUpper,
			RequireLower:  cfg.Migration.PasswordPolicy.RequireLower,
			RequireDigit:  cfg.Migration.PasswordPolicy.RequireDigit,
			RequireSymbol: cfg.Migration.PasswordPolicy.RequireSymbol,
		},
	}, client, ids, creds)
	provider := migration.NewProvider(migration.Config{
		Mode:                     syncMode,
		RefreshAttributesOnLogin: cfg.Migration.RefreshAttributesOnLogin,
	}, client, ids, translator, validator)

	// ---- Tokens ----
	secret := cfg.Token.Secret
	if secret == "" {
		if cfg.App.Env == "prod" {
			lg.Fatal("token.secret es requerido en prod")
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			lg.Fatal("token secret", zap.Error(err))
		}
		secret = hex.EncodeToString(buf)
		lg.Warn("token.secret vacio: usando secret efimero (los tokens no sobreviven reinicios)")
	}
	minter, err := token.NewMinter(token.Config{Secret: secret, Issuer: cfg.Token.Issuer, TTL: cfg.Token.TTL})
	if err != nil {
		lg.Fatal("token minter", zap.Error(err))
	}

	router := httpserver.NewRouter(httpserver.Handlers{
		Login:      &handlers.Login{Provider: provider, Ids: ids, Creds: reader, Minter: minter},
		UserLookup: &handlers.UserLookup{Provider: provider},
		Readyz:     &handlers.Readyz{Checks: checks},
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Serve(ctx, cfg.Server.Addr, router)
	})

	lg.Info("legacybridge up",
		zap.String("addr", cfg.Server.Addr),
		zap.String("legacy_endpoint", cfg.Legacy.Endpoint),
		zap.Stringer("sync_mode", syncMode),
	)

	if err := g.Wait(); err != nil {
		lg.Fatal("server", zap.Error(err))
	}
	lg.Info("shutdown limpio")
}

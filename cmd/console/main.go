package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/tripflow/console/internal/api/http"
	"github.com/tripflow/console/internal/api/http/handlers"
	"github.com/tripflow/console/internal/auth"
	"github.com/tripflow/console/internal/authapi"
	"github.com/tripflow/console/internal/config"
	"github.com/tripflow/console/internal/config/secrets"
	"github.com/tripflow/console/internal/events"
	"github.com/tripflow/console/internal/observability"
	"github.com/tripflow/console/internal/persistence"
	"github.com/tripflow/console/internal/repository"
	"github.com/tripflow/console/internal/service"
	"github.com/tripflow/console/internal/session"
	"github.com/tripflow/console/internal/token"
	"github.com/tripflow/console/internal/tokenstore"
	"github.com/tripflow/console/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Secrets.KeyVaultURL != "" {
		provider, err := secrets.NewKeyVaultProvider(cfg.Secrets.KeyVaultURL)
		if err != nil {
			logger.Fatal("failed to init key vault", zap.Error(err))
		}
		if err := provider.Apply(ctx, cfg, logger); err != nil {
			logger.Fatal("invalid secrets", zap.Error(err))
		}
	}

	backend, closeBackend, err := newStoreBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init session store", zap.Error(err))
	}
	defer closeBackend()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	decoder := token.NewDecoder(cfg.Auth.JWTVerifySecret)
	backendClient := authapi.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout(), cfg.App.Name+"/"+cfg.App.Version)

	manager := session.NewManager(func(clientID string) *session.Context {
		return session.New(session.Dependencies{
			ClientID:      clientID,
			Store:         tokenstore.New(backend, cfg.Session.KeyPrefix, clientID),
			Decoder:       decoder,
			Authenticator: backendClient,
			Dispatcher:    dispatcher,
			Logger:        logger,
		})
	}, cfg.Session.IdleTTL(), logger)
	sweeperDone := worker.StartSessionSweeper(ctx, manager, cfg.Session.SweepInterval(), logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"session_store": backend,
		}),
		Session: handlers.NewSessionHandler(),
		Console: handlers.NewConsoleHandler(),
		SessionMiddleware: auth.NewSessionMiddleware(manager, auth.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
		}),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("console started",
		zap.String("addr", cfg.App.Addr()),
		zap.String("store", cfg.Session.StoreDriver),
		zap.Bool("sealed", cfg.Session.SealKey != ""),
		zap.Bool("verify_signature", decoder.Verifies()))

	waitForShutdown(logger)

	cancel()
	<-sweeperDone
	_ = app.Shutdown()
}

// newStoreBackend builds the key-value backend of the token store, sealed when a key is configured.
func newStoreBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (tokenstore.Backend, func(), error) {
	var (
		backend tokenstore.Backend
		closer  = func() {}
	)

	switch cfg.Session.StoreDriver {
	case config.StoreDriverRedis:
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		backend = redis.SessionBackend()
		closer = redis.Close
	case config.StoreDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, os.DirFS(persistence.MigrationsDir), logger); err != nil {
				pg.Close()
				return nil, nil, err
			}
		}
		backend = repository.NewSessionKVRepository(pg.Pool)
		closer = pg.Close
	case config.StoreDriverMemory:
		logger.Warn("using in-memory session store; sessions are lost on restart")
		backend = tokenstore.NewMemoryBackend()
	default:
		return nil, nil, fmt.Errorf("unknown session store driver %q", cfg.Session.StoreDriver)
	}

	if cfg.Session.SealKey != "" {
		key, err := tokenstore.ParseSealKey(cfg.Session.SealKey)
		if err != nil {
			closer()
			return nil, nil, err
		}
		backend = tokenstore.NewSealedBackend(backend, key)
	}
	return backend, closer, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

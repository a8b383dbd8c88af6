// @title        Brickworks Operator Console API
// @version      1.0
// @description  Local console for order delivery reconciliation against the brickworks backend.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/brickworks/console/internal/api"
	"github.com/brickworks/console/internal/api/handler"
	"github.com/brickworks/console/internal/api/metrics"
	"github.com/brickworks/console/internal/core/ports"
	"github.com/brickworks/console/internal/core/service"
	"github.com/brickworks/console/internal/infrastructure/backend"
	"github.com/brickworks/console/internal/infrastructure/config"
	"github.com/brickworks/console/internal/infrastructure/credstore"
	mongodb "github.com/brickworks/console/internal/infrastructure/db/mongo"
	redisdb "github.com/brickworks/console/internal/infrastructure/db/redis"
	"github.com/brickworks/console/internal/infrastructure/queue"
	"github.com/brickworks/console/pkg/logger"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Process(ctx, nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Version: version,
	})

	checks := map[string]handler.DependencyCheck{}

	store, closeStore, err := credentialStore(ctx, cfg, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	guard := service.NewSessionGuard(store, log)

	client := backend.NewClient(cfg.API.BaseURL, guard, log,
		backend.WithTimeout(cfg.API.Timeout),
		backend.WithUnauthorizedHook(metrics.ForcedLogoutsTotal.Inc),
	)

	var (
		audit      ports.AuditSink
		dispatcher *queue.Dispatcher
	)
	mongoCfg := mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database}
	if mongoCfg.Enabled() {
		mongoClient, db, err := mongodb.Connect(ctx, mongoCfg)
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := mongoClient.Disconnect(dctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}()

		repo := mongodb.NewDeliveryAuditRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("delivery audit indexes")
		}
		dispatcher = queue.NewDispatcher(cfg.Audit.Workers, repo, log)
		audit = dispatcher
		checks["mongodb"] = handler.MongoCheck(db)
	} else {
		log.Info().Msg("MONGO_URI not set, delivery audit trail disabled")
	}

	flow := service.NewOrderFlow(client, guard, audit, log)
	flow.OnOrderCompleted(func(int64) { metrics.OrdersCompletedTotal.Inc() })

	authService := service.NewAuthService(client, guard, log)

	e := api.NewRouter(api.Dependencies{
		Guard:       guard,
		Auth:        authService,
		Orders:      flow,
		Checks:      checks,
		Log:         log,
		Development: cfg.IsDevelopment(),
	})

	return serve(ctx, e, cfg.ListenAddr, dispatcher, log)
}

// httpServer is the part of *echo.Echo that serve drives.
type httpServer interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

// serve runs srv until ctx is cancelled. The audit dispatcher outlives the
// server: it is stopped only after Shutdown has returned, so records from
// requests finishing during shutdown are still written.
func serve(ctx context.Context, srv httpServer, addr string, dispatcher *queue.Dispatcher, log zerolog.Logger) error {
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()
	if dispatcher != nil {
		dispatcher.Start(auditCtx)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("console listening")
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})

	err := g.Wait()
	stopAudit()
	if dispatcher != nil {
		dispatcher.Wait()
	}
	return err
}

// credentialStore builds the configured credential slot. The returned func
// releases any connection it opened.
func credentialStore(ctx context.Context, cfg *config.Config, checks map[string]handler.DependencyCheck) (ports.CredentialStore, func(), error) {
	switch cfg.Credential.Store {
	case config.StoreRedis:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		checks["redis"] = handler.RedisCheck(rdb)
		return redisdb.NewCredentialStore(rdb, cfg.Redis.CredentialKey), func() { _ = rdb.Close() }, nil
	case config.StoreMemory:
		return credstore.NewMemoryStore(), func() {}, nil
	default:
		fs, err := credstore.NewFileStore(cfg.Credential.File, cfg.Credential.Passphrase)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-intake/internal/api/http"
	"github.com/spec-kit/helpdesk-intake/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-intake/internal/auth"
	"github.com/spec-kit/helpdesk-intake/internal/config"
	"github.com/spec-kit/helpdesk-intake/internal/events"
	"github.com/spec-kit/helpdesk-intake/internal/observability"
	"github.com/spec-kit/helpdesk-intake/internal/persistence"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
	"github.com/spec-kit/helpdesk-intake/internal/repository/sqlite"
	"github.com/spec-kit/helpdesk-intake/internal/service"
	"github.com/spec-kit/helpdesk-intake/internal/worker"
)

// stores is the set of repositories backing one storage driver.
type stores struct {
	profiles    repository.ProfileRepository
	credentials repository.CredentialRepository
	tickets     repository.TicketRepository
	history     repository.TicketHistoryRepository
	claims      repository.ClaimRepository
	pinger      handlers.Pinger
	close       func()
}

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer st.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var claimCache service.ClaimCache
	if c := persistence.NewClaimCache(redis, cfg.Redis.ClaimTTL()); c != nil {
		claimCache = c
	}

	timeout := cfg.App.CollaboratorTimeout()

	var sink service.EventSink
	if kafkaSink := events.NewKafkaSink(cfg.Kafka, logger); kafkaSink != nil {
		relay := worker.StartEventRelay(kafkaSink, cfg.Kafka.QueueSize, timeout, logger)
		sink = relay
		defer func() {
			drainCtx, drainCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer drainCancel()
			if err := relay.Close(drainCtx); err != nil {
				logger.Warn("event relay not drained", zap.Int64("dropped", relay.Dropped()), zap.Error(err))
			}
			_ = kafkaSink.Close()
		}()
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, sink, logger).RegisterHandlers()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	verifier := auth.NewVerifier(cfg.Intake.Secret, tokens, st.profiles, timeout, logger)
	guard := auth.NewGuard(logger, metrics)

	intakeService := service.NewIntakeService(service.IntakeDependencies{
		Ledger:       service.NewDedupLedger(st.claims, claimCache, logger),
		Profiles:     st.profiles,
		Dispatcher:   dispatcher,
		Recorder:     metrics,
		DefaultTitle: cfg.Intake.DefaultTitle,
		Timeout:      timeout,
		Logger:       logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Tickets:    st.tickets,
		History:    st.history,
		Profiles:   st.profiles,
		Guard:      guard,
		Dispatcher: dispatcher,
		Timeout:    timeout,
		Logger:     logger,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		Tickets:    st.tickets,
		History:    st.history,
		Guard:      guard,
		Dispatcher: dispatcher,
		Timeout:    timeout,
		Logger:     logger,
	})
	accountService := service.NewAccountService(*cfg, service.AccountDependencies{
		Profiles:    st.profiles,
		Credentials: st.credentials,
		Tokens:      tokens,
		Guard:       guard,
		Logger:      logger,
	})

	readiness := map[string]handlers.Pinger{"store": st.pinger}
	if redis.Enabled() {
		readiness["redis"] = redis
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Intake:   handlers.NewIntakeHandler(intakeService),
		Tickets:  handlers.NewTicketsHandler(ticketService, lifecycleService),
		Accounts: handlers.NewAccountsHandler(accountService),
		Verifier: verifier,
		Gatherer: registry,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("storage", cfg.Storage.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("opened sqlite store", zap.String("path", cfg.Storage.SQLitePath))
		return &stores{
			profiles:    store.Profiles(),
			credentials: store.Credentials(),
			tickets:     store.Tickets(),
			history:     store.History(),
			claims:      store.Claims(),
			pinger:      store,
			close:       func() { _ = store.Close() },
		}, nil
	case config.StorageDriverPostgres:
		pg, err := persistence.OpenPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		return &stores{
			profiles:    pg.Profiles(),
			credentials: pg.Credentials(),
			tickets:     pg.Tickets(),
			history:     pg.History(),
			claims:      pg.Claims(),
			pinger:      pg,
			close:       pg.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/mrk-crm/internal/config"
	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/auth"
	"github.com/xavierca1/mrk-crm/internal/infra/database"
	"github.com/xavierca1/mrk-crm/internal/infra/http/handlers"
	"github.com/xavierca1/mrk-crm/internal/infra/http/middleware"
	"github.com/xavierca1/mrk-crm/internal/infra/mail"
	"github.com/xavierca1/mrk-crm/internal/infra/memstore"
	"github.com/xavierca1/mrk-crm/internal/infra/queue"
	"github.com/xavierca1/mrk-crm/internal/infra/worker"
	"github.com/xavierca1/mrk-crm/internal/usecase"
)

var version = "dev"

type repositories struct {
	leads        entity.LeadRepositoryInterface
	users        entity.UserRepositoryInterface
	projectTypes entity.ProjectTypeRepositoryInterface
	activities   entity.ActivityRepositoryInterface
	offers       entity.OfferRepositoryInterface
	mappings     entity.CampaignMappingRepositoryInterface
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var (
		repos  repositories
		pinger handlers.Pinger
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		repos = repositories{
			leads:        memstore.NewLeadRepository(),
			users:        memstore.NewUserRepository(),
			projectTypes: memstore.NewProjectTypeRepository(),
			activities:   memstore.NewActivityRepository(),
			offers:       memstore.NewOfferRepository(),
			mappings:     memstore.NewCampaignMappingRepository(),
		}
	default:
		db, err := database.NewDBConnection(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("database ready", "driver", cfg.Database.Driver)
		repos = postgresRepositories(db)
		pinger = db
	}

	clk := clock.WallClock
	metrics := middleware.PrometheusRecorder{}

	var (
		publisher usecase.EventPublisher = queue.NoopProducer{}
		broker    handlers.BrokerStatus
		rabbitMQ  *queue.RabbitMQ
	)
	if cfg.EventsEnabled() {
		mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer mq.Close()
		rabbitMQ = mq
		publisher = queue.NewProducer(mq.Ch)
		broker = mq
		logger.Info("rabbitmq connected", "exchange", queue.ExchangeName)
	} else {
		logger.Warn("RABBITMQ_URL not set, lead events are dropped")
	}

	var notifier usecase.Notifier
	if cfg.MailEnabled() {
		notifier = mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPassword, cfg.MailFrom)
	}

	hasher := auth.NewBcryptHasher()
	tokens := auth.NewJWTIssuer(cfg.SecretKey, cfg.AccessTTL, cfg.RefreshTTL, clk)

	userUC := usecase.NewUserUseCase(repos.users, hasher, clk)
	authUC := usecase.NewAuthUseCase(repos.users, hasher, tokens)
	campaignUC := usecase.NewCampaignMappingUseCase(repos.mappings, clk)

	if cfg.StorageDriver == config.StorageMemory && cfg.AdminEmail != "" {
		if _, _, err := userUC.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	limiter := middleware.NewRateLimiter(cfg.WebhookRateLimit, proxies)

	router := handlers.NewRouter(handlers.Router{
		Auth:  handlers.NewAuthHandler(authUC, cfg.AccessTTL, cfg.RefreshTTL, cfg.CookieSecure, logger),
		Users: handlers.NewUserHandler(userUC, logger),
		Leads: handlers.NewLeadHandler(
			usecase.NewCreateLeadUseCase(repos.leads, repos.projectTypes, publisher, clk, metrics, logger),
			usecase.NewListLeadsUseCase(repos.leads, repos.projectTypes),
			usecase.NewGetLeadUseCase(repos.leads),
			usecase.NewUpdateLeadUseCase(repos.leads, repos.users, clk),
			usecase.NewTransitionLeadUseCase(repos.leads, usecase.RolePolicy{}, publisher, clk, metrics, logger),
			usecase.NewAssignCloserUseCase(repos.leads, repos.users, publisher, clk, metrics, logger),
			logger,
		),
		Activities:       handlers.NewActivityHandler(usecase.NewActivityUseCase(repos.leads, repos.activities, clk), logger),
		Offers:           handlers.NewOfferHandler(usecase.NewOfferUseCase(repos.leads, repos.offers, clk), logger),
		CampaignMappings: handlers.NewCampaignMappingHandler(campaignUC, logger),
		Webhooks: handlers.NewWebhookHandler(
			usecase.NewIngestLeadUseCase(repos.leads, repos.projectTypes, campaignUC, publisher, clk, cfg.LeadDedupWindow, metrics, logger),
			cfg.MetaAppSecret,
			logger,
		),
		Reference:      handlers.NewReferenceHandler(repos.projectTypes, logger),
		Health:         handlers.NewHealthHandler(pinger, broker, version),
		Authenticator:  authUC,
		WebhookLimiter: limiter,
		CORSOrigins:    cfg.CORSOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// The consumer channel is opened before anything starts so a failure here
	// cannot leave the http server running without its shutdown path.
	var consumer *queue.Worker
	if rabbitMQ != nil {
		consumeCh, err := rabbitMQ.Conn.Channel()
		if err != nil {
			return fmt.Errorf("open consumer channel: %w", err)
		}
		defer consumeCh.Close()

		notify := usecase.NewNotifyCloserUseCase(repos.leads, repos.users, notifier, metrics, logger)
		consumer = queue.NewWorker(consumeCh, notify, logger)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	sweeper := worker.NewPeriodic("webhook-limiter-sweep", time.Minute, func(context.Context) error {
		limiter.Sweep()
		return nil
	}, logger)
	g.Go(func() error { return sweeper.Start(gctx) })

	if consumer != nil {
		g.Go(func() error {
			return consumer.Start(gctx, queue.QueueName)
		})
	}

	return g.Wait()
}

func postgresRepositories(db *sql.DB) repositories {
	return repositories{
		leads:        database.NewLeadRepository(db),
		users:        database.NewUserRepository(db),
		projectTypes: database.NewProjectTypeRepository(db),
		activities:   database.NewActivityRepository(db),
		offers:       database.NewOfferRepository(db),
		mappings:     database.NewCampaignMappingRepository(db),
	}
}

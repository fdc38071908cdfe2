package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/ligue-leads/internal/config"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/database"
	"github.com/xavierca1/ligue-leads/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/lock"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/memory"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/worker"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type repositories struct {
	leads      entity.LeadRepositoryInterface
	customers  entity.CustomerRepositoryInterface
	depositors entity.DepositorRepositoryInterface
	lists      entity.LeadListRepositoryInterface
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.HealthCheck{}

	// 1. Storage
	var (
		db    *sql.DB
		repos repositories
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		repos = repositories{store.Leads(), store.Customers(), store.Depositors(), store.Lists()}
		checks["database"] = store.Ping
		log.Println("[database] using in-memory store")
	case config.DriverPostgres:
		db, err = database.NewDBConnection(cfg.Storage.DatabaseURL, cfg.Storage.MaxOpenConns)
		if err != nil {
			log.Fatalf("[database] %v", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("[database] migrate: %v", err)
		}
		repos = repositories{
			database.NewLeadRepository(db),
			database.NewCustomerRepository(db),
			database.NewDepositorRepository(db),
			database.NewLeadListRepository(db),
		}
		checks["database"] = db.PingContext
	default:
		log.Fatalf("unknown storage driver %q", cfg.Storage.Driver)
	}

	// 2. Optional infrastructure
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("[redis] invalid url: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var notifier usecase.Notifier
	if cfg.Mail.Enabled {
		notifier = mail.NewEmailSender(mail.Config{
			Host:       cfg.Mail.Host,
			Port:       cfg.Mail.Port,
			User:       cfg.Mail.User,
			Password:   cfg.Mail.Password,
			From:       cfg.Mail.From,
			Supervisor: cfg.Mail.Supervisor,
		})
	}

	// With RabbitMQ the take-over mails are sent by the consumer, outside the request.
	var events usecase.EventPublisher
	syncNotifier := notifier
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
		if err != nil {
			log.Fatalf("[queue] %v", err)
		}
		defer rabbitMQ.Close()
		events = queue.NewProducer(rabbitMQ.Ch)
		syncNotifier = nil
		checks["rabbitmq"] = func(context.Context) error {
			if rabbitMQ.Conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}

		consumerCh, err := rabbitMQ.Conn.Channel()
		if err != nil {
			log.Fatalf("[queue] consumer channel: %v", err)
		}
		consumer := queue.NewConsumer(consumerCh, notifier)
		go func() {
			if err := consumer.Start(ctx, queue.QueueName); err != nil {
				log.Printf("[queue] consumer stopped: %v", err)
			}
		}()
	}

	// 3. Use cases
	registry := usecase.NewListRegistry(repos.lists, repos.leads, cfg.Lists.FallbackName)
	if _, err := registry.EnsureFallbackList(ctx); err != nil {
		log.Fatalf("[lists] fallback list: %v", err)
	}
	visibility := usecase.NewVisibilityFilter(repos.lists, repos.leads)
	ledger := usecase.NewNoteLedger(repos.leads, repos.customers, repos.depositors)
	lifecycle := usecase.NewLifecycleController(
		repos.leads, repos.customers, repos.depositors,
		registry, visibility, ledger, events, syncNotifier,
	)

	// 4. Reconciliation
	if cfg.Reconcile.Enabled {
		reconciler := usecase.NewReconciler(repos.leads, repos.customers, ledger, events, notifier, cfg.Reconcile.AutoRepair)
		reconciler.Grace = cfg.Reconcile.Grace()
		sweepLock := lock.NewLock(redisClient, db, "lead-reconciliation", cfg.Reconcile.LockTTL())
		go worker.NewReconciliationWorker(reconciler, sweepLock, cfg.Reconcile.Interval()).Start(ctx)
	}

	// 5. HTTP
	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimitPerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimitPerMinute, time.Minute)
		go limiter.Cleanup(5*time.Minute, ctx.Done())
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Lifecycle:      lifecycle,
		Registry:       registry,
		Visibility:     visibility,
		Health:         handlers.NewHealthHandler(checks, "redis", "rabbitmq"),
		RateLimiter:    limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[http] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[http] %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[http] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[http] shutdown: %v", err)
	}
}

// Command server runs the parish staff portal API: registration, peer
// approval, status management, and term lifecycle, backed by Postgres with
// Redis notifications and a Kafka audit outbox. Infrastructure that is not
// configured is skipped, so a bare process still serves the API from
// in-memory stores for local development.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"curia/internal/audit"
	"curia/internal/identity"
	"curia/internal/notify"
	"curia/internal/platform/config"
	"curia/internal/platform/httpserver"
	"curia/internal/platform/kafka"
	"curia/internal/platform/logger"
	"curia/internal/platform/middleware"
	platformredis "curia/internal/platform/redis"
	"curia/internal/staff/handler"
	staffmetrics "curia/internal/staff/metrics"
	"curia/internal/staff/service"
	"curia/internal/staff/store/account"
	"curia/internal/staff/store/term"
	"curia/internal/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("curia")

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		db       *sql.DB
		accounts account.Store
		terms    term.Store
		activity audit.Store
		provider identity.Provider
	)
	if cfg.Postgres.DSN != "" {
		db, err = sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnLifetime)
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		accounts = account.NewPostgres(db)
		terms = term.NewPostgres(db)
		activity = audit.NewPostgres(db)
		provider = identity.NewPostgres(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		accounts = account.NewInMemory()
		terms = term.NewInMemory()
		activity = audit.NewInMemory()
		provider = identity.NewInMemory()
	}

	registry := prometheus.NewRegistry()
	lifecycle := staffmetrics.New(registry)

	// Audit pipeline: non-blocking publisher drained by a background worker.
	publisher := audit.NewPublisher(cfg.Audit.BufferSize,
		audit.WithPublisherLogger(log),
		audit.WithDropHook(lifecycle.AuditDrops.Inc),
	)
	auditWorker := audit.NewWorker(activity, publisher.Inbox(), log)

	// Notification sink: Redis queue when configured.
	var sink notify.Sink
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sink = notify.NewRedisSink(redisClient.Client, cfg.Redis.QueueKey)
	} else {
		log.Warn("no redis configured, notifications disabled")
	}

	kafkaClient, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
	}

	tokens := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithAuditPublisher(publisher),
		service.WithMetrics(lifecycle),
	}
	if sink != nil {
		opts = append(opts, service.WithNotifier(sink))
	}
	registration := service.NewRegistration(provider, accounts, opts...)
	auth := service.NewAuth(provider, accounts, tokens, opts...)
	queries := service.NewQuery(accounts)
	transitions := service.NewTransition(accounts, opts...)
	termLifecycle := service.NewTerm(accounts, terms, activity, opts...)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RequestTime,
		middleware.ClientMetadata,
	)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	h := handler.New(registration, auth, queries, transitions, termLifecycle, log)
	h.Register(router,
		middleware.RequireStaff(tokens, log),
		middleware.RequireOverseer(tokens, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return auditWorker.Run(ctx)
	})
	if db != nil && kafkaClient != nil {
		outbox := audit.NewOutboxWorker(db, kafkaClient, cfg.Kafka.Topic, log,
			audit.WithOutboxInterval(cfg.Audit.OutboxPoll),
			audit.WithOutboxBatch(cfg.Audit.OutboxBatch),
		)
		group.Go(func() error {
			return outbox.Run(ctx)
		})
	}
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}

		// Let in-flight side effects land before the process exits.
		registration.Wait()
		transitions.Wait()
		termLifecycle.Wait()
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

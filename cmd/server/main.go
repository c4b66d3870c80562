// Command server runs the eligibility and form workflow engine: catalog
// loading, HTTP API, audit worker, and the application status feed consumer.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"govnav/internal/audit"
	"govnav/internal/catalog"
	"govnav/internal/eligibility"
	eligibilityhandler "govnav/internal/eligibility/handler"
	eligibilitymetrics "govnav/internal/eligibility/metrics"
	"govnav/internal/form"
	formhandler "govnav/internal/form/handler"
	formmetrics "govnav/internal/form/metrics"
	formstore "govnav/internal/form/store"
	httpapi "govnav/internal/http"
	"govnav/internal/platform/config"
	"govnav/internal/platform/httpserver"
	"govnav/internal/platform/logger"
	redisplatform "govnav/internal/platform/redis"
	"govnav/internal/submission"
	submissionhandler "govnav/internal/submission/handler"
	submissionmetrics "govnav/internal/submission/metrics"
	submissionstore "govnav/internal/submission/store"
	"govnav/internal/submission/statusfeed"
	"govnav/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshot, err := catalog.Load(cfg.Catalog.Dir)
	if err != nil {
		return err
	}
	index := catalog.NewIndex()
	index.Publish(snapshot)
	log.Info("catalog loaded", "dir", cfg.Catalog.Dir, "services", len(snapshot.Services()))

	// Stores fall back to memory when a backend is not configured.
	var (
		sessionStore form.SessionStore           = formstore.NewMemory()
		appStore     submission.ApplicationStore = submissionstore.NewMemory()
		db           *sql.DB
	)
	if cfg.Postgres.URL != "" {
		db, err = sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		if err := formstore.EnsureSchema(ctx, db); err != nil {
			return err
		}
		if err := submissionstore.EnsureSchema(ctx, db); err != nil {
			return err
		}
		sessionStore = formstore.NewPostgres(db)
		appStore = submissionstore.NewPostgres(db)
		log.Info("postgres stores enabled")
	}

	var idemStore submission.IdempotencyStore = submissionstore.NewMemoryIdempotency()
	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		idemStore = submissionstore.NewRedisIdempotency(redisClient.Client)
		log.Info("redis idempotency store enabled")
	}

	var (
		auditStore    audit.Store        = audit.NewInMemoryStore()
		gateway       submission.Gateway = submission.NewStubGateway()
		produceClient *kgo.Client
		consumeClient *kgo.Client
	)
	if len(cfg.Kafka.Brokers) > 0 {
		produceClient, err = kgo.NewClient(kgo.SeedBrokers(cfg.Kafka.Brokers...))
		if err != nil {
			return err
		}
		defer produceClient.Close()
		auditStore = audit.NewKafkaStore(produceClient, cfg.Kafka.AuditTopic)
		gateway = submission.NewKafkaGateway(produceClient, cfg.Kafka.IntakeTopic)

		consumeClient, err = kgo.NewClient(
			kgo.SeedBrokers(cfg.Kafka.Brokers...),
			kgo.ConsumerGroup(cfg.Kafka.ConsumerGroup),
			kgo.ConsumeTopics(cfg.Kafka.StatusTopic),
			kgo.AutoCommitInterval(cfg.Kafka.CommitInterval),
		)
		if err != nil {
			return err
		}
		defer consumeClient.Close()
		log.Info("kafka enabled", "brokers", cfg.Kafka.Brokers)
	}

	publisher := audit.NewPublisher(256, log)
	defer publisher.Close()
	auditWorker := audit.NewWorker(auditStore, publisher.Inbox(), log)

	eligibilityService := eligibility.NewService(index, nil,
		eligibility.WithLogger(log),
		eligibility.WithMetrics(eligibilitymetrics.New()),
	)
	formService := form.NewService(index, sessionStore,
		form.WithLogger(log),
		form.WithMetrics(formmetrics.New()),
		form.WithAuditPublisher(publisher),
	)
	submissionMetrics := submissionmetrics.New()
	submissionOpts := []submission.Option{
		submission.WithLogger(log),
		submission.WithMetrics(submissionMetrics),
		submission.WithAuditPublisher(publisher),
		submission.WithGatewayTimeout(cfg.Kafka.ExternalTimeout),
	}
	if db != nil {
		// One transaction covers the application insert and the session close.
		submissionOpts = append(submissionOpts, submission.WithTxRunner(func(ctx context.Context, fn func(context.Context) error) error {
			return tx.InTx(ctx, db, fn)
		}))
	}
	submissionService := submission.NewService(sessionStore, appStore, idemStore, gateway, submissionOpts...)

	health := map[string]httpapi.HealthChecker{}
	if db != nil {
		health["postgres"] = func(r *http.Request) error { return db.PingContext(r.Context()) }
	}
	if redisClient != nil {
		health["redis"] = func(r *http.Request) error { return redisClient.Health(r.Context()) }
	}

	router := httpapi.NewRouter(health,
		eligibilityhandler.New(eligibilityService, log),
		formhandler.New(formService, log),
		submissionhandler.New(submissionService, log),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if consumeClient != nil {
		consumer := statusfeed.New(consumeClient, submissionService, log, submissionMetrics)
		g.Go(func() error {
			return consumer.Run(ctx)
		})
	}
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

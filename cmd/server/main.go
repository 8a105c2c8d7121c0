package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accountStore "attestgate/internal/account/store"
	"attestgate/internal/anchor"
	ledgerStore "attestgate/internal/ledger/store"
	paymentStore "attestgate/internal/payments/store"
	"attestgate/internal/platform/config"
	"attestgate/internal/platform/database"
	"attestgate/internal/platform/httpserver"
	"attestgate/internal/platform/kafka"
	"attestgate/internal/platform/logger"
	platformMetrics "attestgate/internal/platform/metrics"
	platformRedis "attestgate/internal/platform/redis"
	privacyHandler "attestgate/internal/privacy/handler"
	privacyMetrics "attestgate/internal/privacy/metrics"
	privacyService "attestgate/internal/privacy/service"
	"attestgate/internal/secrets/crypto"
	secretStore "attestgate/internal/secrets/store"
	verificationHandler "attestgate/internal/verification/handler"
	verificationMetrics "attestgate/internal/verification/metrics"
	verificationService "attestgate/internal/verification/service"
	"attestgate/internal/verification/store/session"
	"attestgate/pkg/platform/audit"
	"attestgate/pkg/platform/audit/publisher"
	auditMemory "attestgate/pkg/platform/audit/store/memory"
	"attestgate/pkg/platform/audit/worker"
	"attestgate/pkg/platform/middleware"
	"attestgate/pkg/platform/tx"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}

	keyring, err := crypto.NewKeyring(cfg.Secrets.Keys, cfg.Secrets.ActiveKeyID)
	if err != nil {
		return err
	}

	// Inquiry sessions live in Redis; without a configured URL the
	// in-memory store keeps single-instance deployments working.
	var sessions verificationService.SessionStore
	redisClient, err := platformRedis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient.Client, cfg.SessionTTL)
		log.Info("session store ready", "backend", "redis")
	} else {
		sessions = session.NewInMemoryStore(cfg.SessionTTL)
		log.Info("session store ready", "backend", "memory")
	}

	// Audit events go to Kafka when brokers are configured; otherwise the
	// channel worker appends them to an in-process store.
	var auditor audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(ctx, cfg.KafkaBrokers, publisher.Topic)
		if err != nil {
			return err
		}
		defer producer.Close()
		auditor = publisher.NewKafka(producer, publisher.WithLogger(log))
		log.Info("audit publisher ready", "backend", "kafka", "topic", publisher.Topic)
	} else {
		inbox := make(chan audit.Event, 256)
		w := worker.NewWorker(auditMemory.New(), inbox, log)
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err)
			}
		}()
		auditor = publisher.NewChannel(inbox)
		log.Info("audit publisher ready", "backend", "memory")
	}

	secrets := secretStore.NewPostgresStore(db)
	events := ledgerStore.NewPostgresStore(db)
	payments := paymentStore.NewPostgresStore(db)
	accounts := accountStore.NewPostgresStore(db)

	privacySvc, err := privacyService.New(secrets, events, payments, accounts,
		privacyService.WithLogger(log),
		privacyService.WithAuditPublisher(auditor),
		privacyService.WithMetrics(privacyMetrics.New()),
	)
	if err != nil {
		return err
	}

	verificationOpts := []verificationService.Option{
		verificationService.WithLogger(log),
		verificationService.WithAuditPublisher(auditor),
		verificationService.WithMetrics(verificationMetrics.New()),
		verificationService.WithTxRunner(tx.NewRunner(db)),
	}
	if cfg.AnchorBaseURL != "" {
		verificationOpts = append(verificationOpts,
			verificationService.WithAnchorClient(anchor.NewClient(cfg.AnchorBaseURL, log)))
	}
	verificationSvc, err := verificationService.New(sessions, secrets, events, keyring, verificationOpts...)
	if err != nil {
		return err
	}

	jwtValidator := middleware.NewHMACValidator([]byte(cfg.JWTSigningKey))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(platformMetrics.New().Middleware)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	privacyHandler.New(privacySvc, log, jwtValidator).Register(router)
	verificationHandler.New(verificationSvc, log, jwtValidator).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting attestgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	return httpserver.Shutdown(srv, 10*time.Second)
}

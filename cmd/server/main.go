package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"chainpass/internal/audit"
	"chainpass/internal/ceremony"
	"chainpass/internal/challenge"
	"chainpass/internal/credential"
	"chainpass/internal/platform/config"
	"chainpass/internal/platform/httpserver"
	"chainpass/internal/platform/logger"
	"chainpass/internal/platform/metrics"
	platformredis "chainpass/internal/platform/redis"
	"chainpass/internal/registry"
	"chainpass/internal/session"
	httptransport "chainpass/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages; everything here is plumbing.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. An empty DSN selects the in-memory stores, which is the
	// single-node development mode.
	var (
		registryStore   registry.Store
		credentialStore credential.Store
		auditStore      audit.Store
		healthChecks    []func(context.Context) error
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		registryStore = registry.NewPostgresStore(db)
		credentialStore = credential.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		healthChecks = append(healthChecks, db.PingContext)
		log.Info("using postgres storage")
	} else {
		registryStore = registry.NewInMemoryStore()
		credentialStore = credential.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		log.Info("using in-memory storage")
	}

	group, ctx := errgroup.WithContext(ctx)

	// Audit pipeline. Events land in the durable store synchronously and
	// mirror onto a channel the worker drains into the optional Kafka sink.
	var auditSink audit.Store = auditStore
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("failed to build kafka sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()

		events := make(chan audit.Event, 256)
		auditSink = audit.NewTee(auditStore, events)
		worker := audit.NewWorker(log, events, kafkaSink)
		group.Go(func() error { return worker.Run(ctx) })
		log.Info("kafka event publishing enabled", "topic", cfg.KafkaTopic)
	}
	auditor := audit.NewPublisher(auditSink)

	// Challenge ledger. Redis gives cross-instance single-use consumption;
	// the in-memory ledger needs a sweeper to stay bounded.
	var ledger challenge.Ledger
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		ledger = challenge.NewRedisLedger(redisClient)
		healthChecks = append(healthChecks, redisClient.Health)
		log.Info("using redis challenge ledger")
	} else {
		memoryLedger := challenge.NewMemoryLedger()
		ledger = memoryLedger
		sweeper := challenge.NewSweeper(memoryLedger, cfg.SweepInterval, log, m)
		group.Go(func() error { return sweeper.Run(ctx) })
		log.Info("using in-memory challenge ledger")
	}

	sessions := session.NewIssuer(cfg.SessionSigningKey, cfg.RPID, cfg.SessionTTL)
	registrySvc := registry.NewService(registryStore, auditor, log, m)
	ceremonySvc := ceremony.NewService(
		ceremony.Config{
			RPName:         cfg.RPName,
			RPID:           cfg.RPID,
			ExpectedOrigin: cfg.ExpectedOrigin,
			ChallengeTTL:   cfg.ChallengeTTL,
		},
		credentialStore,
		ledger,
		sessions,
		registryStore,
		auditor,
		log,
		m,
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Registry: httptransport.NewRegistryHandler(registrySvc, session.NewMiddlewareAdapter(sessions), log),
		Ceremony: httptransport.NewCeremonyHandler(ceremonySvc),
		Health: func(ctx context.Context) error {
			for _, check := range healthChecks {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		log.Info("starting chainpass", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

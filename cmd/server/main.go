package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"tutorhub/internal/audit"
	"tutorhub/internal/auth"
	authhandler "tutorhub/internal/auth/handler"
	"tutorhub/internal/doubt"
	doubthandler "tutorhub/internal/doubt/handler"
	"tutorhub/internal/notify"
	"tutorhub/internal/platform/config"
	"tutorhub/internal/platform/httpserver"
	"tutorhub/internal/platform/logger"
	"tutorhub/internal/platform/metrics"
	"tutorhub/internal/platform/middleware"
	"tutorhub/internal/platform/postgres"
	platformredis "tutorhub/internal/platform/redis"
	"tutorhub/internal/quiz"
	quizhandler "tutorhub/internal/quiz/handler"
	transport "tutorhub/internal/transport/http"
)

const auditConsumerGroup = "tutorhub-audit-writer"

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	checks := map[string]transport.HealthChecker{}

	// Stores: PostgreSQL when configured, in-memory otherwise.
	var pool *pgxpool.Pool
	var (
		userStore  auth.Store
		doubtStore doubt.Store
		quizStore  quiz.Store
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			return err
		}
		defer pool.Close()
		userStore = auth.NewPostgresStore(pool)
		doubtStore = doubt.NewPostgresStore(pool)
		quizStore = quiz.NewPostgresStore(pool)
		auditStore = audit.NewPostgresStore(pool)
		checks["postgres"] = pool.Ping
		log.Info("using postgres stores")
	} else {
		userStore = auth.NewInMemoryStore()
		doubtStore = doubt.NewInMemoryStore()
		quizStore = quiz.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	group, ctx := errgroup.WithContext(ctx)

	// Change feed: Redis when configured, in-process bus otherwise.
	var notifier notify.Notifier
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		feed := notify.NewRedisFeed(redisClient.Client, log, notify.TableDoubts)
		group.Go(func() error { return feed.Run(ctx) })
		notifier = feed
		checks["redis"] = redisClient.Health
		log.Info("using redis change feed")
	} else {
		notifier = notify.NewBus()
		log.Warn("REDIS_URL not set, change notices stay in-process")
	}

	// Audit pipeline: Kafka when configured, channel publisher otherwise.
	// Either way one worker drains into the audit store.
	var publisher audit.Publisher
	var auditInbox <-chan audit.Event
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log, m)
		if err != nil {
			log.Error("kafka producer setup failed", "error", err)
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafkaPublisher.Close(flushCtx); err != nil {
				log.Error("kafka flush failed", "error", err)
			}
		}()
		inbox := make(chan audit.Event, 256)
		consumer, err := audit.NewKafkaConsumer(cfg.KafkaBrokers, cfg.AuditTopic, auditConsumerGroup, inbox, log)
		if err != nil {
			log.Error("kafka consumer setup failed", "error", err)
			return err
		}
		group.Go(func() error { return consumer.Run(ctx) })
		publisher = kafkaPublisher
		auditInbox = inbox
		log.Info("using kafka audit stream", "topic", cfg.AuditTopic)
	} else {
		channelPublisher, channelInbox := audit.NewChannelPublisher(log, m)
		publisher = channelPublisher
		auditInbox = channelInbox
		log.Warn("KAFKA_BROKERS not set, audit events stay in-process")
	}
	worker := audit.NewWorker(auditStore, auditInbox, log)
	group.Go(func() error { return worker.Run(ctx) })

	// Services.
	tokens := auth.NewTokenIssuer(cfg.JWTSigningKey, cfg.TokenTTL)
	accounts := auth.NewService(userStore, tokens,
		auth.WithLogger(log),
		auth.WithAuditPublisher(publisher),
		auth.WithMetrics(m),
	)
	doubts := doubt.NewService(doubtStore, notifier,
		doubt.WithLogger(log),
		doubt.WithAuditPublisher(publisher),
		doubt.WithMetrics(m),
		doubt.WithCoinCrediter(accounts),
	)
	quizzes := quiz.NewService(quizStore,
		quiz.WithLogger(log),
		quiz.WithAuditPublisher(publisher),
		quiz.WithMetrics(m),
		quiz.WithCoinCrediter(accounts),
	)

	requireAuth := middleware.RequireAuth(tokens, log)
	router := transport.NewRouter(transport.Config{
		Logger:         log,
		Metrics:        m,
		RequestTimeout: cfg.RequestTimeout,
		Handlers: []transport.Registrar{
			authhandler.New(accounts, log, requireAuth),
			doubthandler.New(doubts, log, requireAuth),
			quizhandler.New(quizzes, log, requireAuth),
		},
		StreamPaths: []string{doubthandler.EventsPath},
		ClientKeys:  cfg.ClientKeys,
		Checks:      checks,
	})

	server := httpserver.New(cfg.Addr, router)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

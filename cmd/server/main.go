package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	blockhandler "porchlight/internal/block/handler"
	blockservice "porchlight/internal/block/service"
	blockstore "porchlight/internal/block/store"
	connhandler "porchlight/internal/connection/handler"
	connservice "porchlight/internal/connection/service"
	connstore "porchlight/internal/connection/store"
	convhandler "porchlight/internal/conversation/handler"
	convservice "porchlight/internal/conversation/service"
	convstore "porchlight/internal/conversation/store"
	"porchlight/internal/platform/cache"
	"porchlight/internal/platform/config"
	"porchlight/internal/platform/health"
	"porchlight/internal/platform/httpserver"
	"porchlight/internal/platform/logger"
	"porchlight/internal/platform/metrics"
	"porchlight/internal/platform/redis"
	"porchlight/internal/platform/token"
	trusthandler "porchlight/internal/trust/handler"
	trustservice "porchlight/internal/trust/service"
	truststore "porchlight/internal/trust/store"
	"porchlight/internal/visibility"
	"porchlight/pkg/platform/events"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		log.Error("open postgres failed", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("postgres unreachable", "error", err.Error())
		os.Exit(1)
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("kafka setup failed", "error", err.Error())
			os.Exit(1)
		}
		publisher = kafkaPublisher
	}
	defer publisher.Close()

	readCache := cache.New(redisClient, cfg.Redis.CacheTTL,
		cache.WithLogger(log), cache.WithMetrics(m))

	jwtValidator := token.NewValidator(cfg.JWTSigningKey)

	trustSvc, err := trustservice.New(truststore.NewPostgres(db),
		trustservice.WithLogger(log),
		trustservice.WithMetrics(m),
		trustservice.WithPublisher(publisher),
		trustservice.WithRetryAttempts(cfg.ScoreRetryAttempts),
	)
	if err != nil {
		log.Error("trust service setup failed", "error", err.Error())
		os.Exit(1)
	}

	blockSvc, err := blockservice.New(blockstore.NewPostgres(db),
		blockservice.WithLogger(log),
		blockservice.WithMetrics(m),
		blockservice.WithPublisher(publisher),
		blockservice.WithInvalidator(readCache),
	)
	if err != nil {
		log.Error("block service setup failed", "error", err.Error())
		os.Exit(1)
	}

	connSvc, err := connservice.New(connstore.NewPostgres(db),
		connservice.WithLogger(log),
		connservice.WithMetrics(m),
	)
	if err != nil {
		log.Error("connection service setup failed", "error", err.Error())
		os.Exit(1)
	}

	gate := visibility.New(blockSvc, visibility.WithLogger(log))

	convSvc, err := convservice.New(convstore.NewPostgres(db), gate,
		convservice.WithLogger(log),
		convservice.WithCache(readCache),
	)
	if err != nil {
		log.Error("conversation service setup failed", "error", err.Error())
		os.Exit(1)
	}

	healthHandler := health.New(log)
	healthHandler.AddCheck("postgres", db.PingContext)
	if redisClient != nil {
		healthHandler.AddCheck("redis", redisClient.Health)
	}

	router := chi.NewRouter()
	router.Method(http.MethodGet, "/healthz", healthHandler)
	trusthandler.New(trustSvc, log, m, jwtValidator).Register(router)
	connhandler.New(connSvc, gate, log, m, jwtValidator).Register(router)
	blockhandler.New(blockSvc, readCache, log, m, jwtValidator).Register(router)
	convhandler.New(convSvc, log, m, jwtValidator).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())
	metricsSrv := httpserver.New(cfg.MetricsAddr, metricsRouter)

	log.Info("starting porchlight", "addr", cfg.Addr, "metrics_addr", cfg.MetricsAddr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics shutdown failed", "error", err.Error())
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/medpro/clinic-scheduling/internal/api"
	"github.com/medpro/clinic-scheduling/internal/app"
	"github.com/medpro/clinic-scheduling/internal/config"
	"github.com/medpro/clinic-scheduling/internal/db"
	"github.com/medpro/clinic-scheduling/internal/directory"
	redisclient "github.com/medpro/clinic-scheduling/internal/redis"
	"github.com/medpro/clinic-scheduling/internal/scheduling"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	log := app.NewLogger(cfg.Env)
	defer func() { _ = log.Sync() }()

	log.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("scheduling_profile", cfg.SchedulingProfile),
	)

	policy, err := scheduling.PolicyByName(cfg.SchedulingProfile)
	if err != nil {
		log.Fatal("invalid scheduling profile", zap.Error(err))
	}
	if cfg.MinimumLeadTime > 0 {
		policy.MinimumLeadTime = cfg.MinimumLeadTime
	}
	if cfg.CancellationLeadTime > 0 {
		policy.CancellationLeadTime = cfg.CancellationLeadTime
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	log.Info("connected to Postgres")

	// Apply migrations
	migrator, err := app.NewMigrator(pgPool, cfg.MigrationsDir, log)
	if err != nil {
		log.Fatal("migrator init error", zap.Error(err))
	}
	if err := migrator.Run(rootCtx); err != nil {
		log.Fatal("migration error", zap.Error(err))
	}
	_ = migrator.Close()

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("error closing redis", zap.Error(err))
		}
	}()
	log.Info("connected to Redis")

	dirRepo := directory.NewPgRepository(pgPool)
	dirSvc := directory.NewService(dirRepo)

	schedRepo := scheduling.NewPgRepository(pgPool)
	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	schedSvc := scheduling.NewService(schedRepo, dirRepo, locker, policy, log)

	router := api.NewRouter(api.RouterConfig{
		Scheduler: schedSvc,
		Directory: dirSvc,
		PgPool:    pgPool,
		Redis:     rdb,
		Logger:    log,
		Env:       cfg.Env,
		Version:   version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()

	log.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

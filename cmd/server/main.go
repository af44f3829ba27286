// FTC performance analytics service.
//
// Serves cached FIRST Tech Challenge event data, OPR/EPA estimates and
// season-wide rankings over HTTP, and keeps the rankings snapshot warm
// on a cron schedule.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/analytics"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/cache"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/config"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/ftcapi"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/handlers"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/logic"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/store"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/worker"
)

func main() {
	refreshOnce := flag.Bool("refresh-once", false, "run a single rankings refresh and exit")
	flag.Parse()

	// .env is a development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("postgres pool", "error", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		sugar.Fatalw("postgres unreachable", "error", err)
	}

	kv := newCacheStore(ctx, cfg, sugar)
	tiered := cache.NewTiered(kv, cache.DefaultRules(), cfg.CacheFreshTTL, cfg.CacheStaleTTL, sugar)

	ftc := ftcapi.New(ftcapi.Config{
		BaseURL:  cfg.FTCBaseURL,
		Username: cfg.FTCUsername,
		Token:    cfg.FTCToken,
		Cache:    tiered,
		Logger:   sugar,
	})

	st := store.New(pool)
	epaCfg := analytics.EPAConfig{
		Blend:        cfg.EPABlend,
		TrendWindow:  cfg.EPATrendWindow,
		TrendEpsilon: cfg.EPATrendEpsilon,
	}

	data := logic.NewDataService(ftc, cfg.Season, epaCfg, sugar)
	rankings := logic.NewRankingsService(data, st, kv, cfg.Season, epaCfg, cfg.FetchConcurrency, sugar)
	scouting := logic.NewScoutingService(ftc, st, cfg.Season, sugar)

	refresher := worker.New(worker.Config{
		Rankings: rankings,
		Schedule: cfg.RefreshSchedule,
		Timeout:  cfg.RefreshTimeout,
		Logger:   sugar,
	})

	if *refreshOnce {
		if err := refresher.RunOnce(ctx); err != nil {
			sugar.Fatalw("rankings refresh failed", "error", err)
		}
		return
	}

	if err := refresher.Start(); err != nil {
		sugar.Fatalw("start refresher", "error", err)
	}

	h := handlers.New(handlers.Config{
		Postgres:       pool,
		CacheStore:     kv,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		Season:         cfg.Season,
		Data:           data,
		Rankings:       rankings,
		Scouting:       scouting,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("http server listening", "addr", srv.Addr, "season", cfg.Season, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		sugar.Info("shutdown signal received")
	case err := <-errCh:
		sugar.Errorw("http server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("http shutdown", "error", err)
	}
	refresher.Stop()
	sugar.Info("shutdown complete")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newCacheStore prefers Redis when configured and reachable, otherwise
// falls back to the in-process store. A cache outage must not stop the
// service from starting.
func newCacheStore(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) cache.Store {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, using in-process cache store")
		return cache.NewMemoryStore()
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warnw("invalid REDIS_URL, using in-process cache store", "error", err)
		return cache.NewMemoryStore()
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warnw("redis unreachable, using in-process cache store", "error", err)
		client.Close()
		return cache.NewMemoryStore()
	}
	log.Info("redis cache store connected")
	return cache.NewRedisStore(client)
}

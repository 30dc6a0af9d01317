package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"propfeed/internal/adapters/exchangerate"
	server "propfeed/internal/adapters/http_server"
	"propfeed/internal/adapters/observability"
	redisad "propfeed/internal/adapters/redis"
	"propfeed/internal/app"
	"propfeed/internal/shared"
	"propfeed/internal/storage"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve(cfg.MetricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	repo, closer, err := storage.Open(ctx, cfg.StoreDriver, cfg.MySQLDSN, cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store failed")
	}
	defer closer.Close()
	log.Info().Str("driver", cfg.StoreDriver).Msg("database connection ok")

	// deps
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}

	rates := exchangerate.New(cfg.RatesBaseURL, cfg.RatesRPS, cfg.RatesAttempts)
	fx := app.NewCurrencyService(rates, cache, cfg.RateTTL)
	feed := app.NewFeedNormalizer(fx)
	imports := app.NewImportService(feed, repo, cache)
	q := app.NewQueryService(repo, cache, fx, cfg.CacheTTL)

	// http
	srv := server.New(30 * time.Second)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Imports: imports, Q: q, FX: fx})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

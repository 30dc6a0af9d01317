// Command importer loads CSV property feeds from disk into the store.
//
//	importer [-dry-run] feed1.csv [feed2.csv ...]
package main

import (
	"context"
	"flag"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"propfeed/internal/adapters/exchangerate"
	"propfeed/internal/adapters/observability"
	redisad "propfeed/internal/adapters/redis"
	"propfeed/internal/app"
	"propfeed/internal/domain"
	"propfeed/internal/shared"
	"propfeed/internal/storage"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "parse and report without writing")
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	files := flag.Args()
	if len(files) == 0 {
		log.Fatal().Msg("usage: importer [-dry-run] <file.csv>...")
	}
	log.Info().
		Strs("files", files).
		Int("workers", cfg.ImportWorkers).
		Bool("dry_run", *dryRun).
		Msg("importer starting")

	repo, closer, err := storage.Open(ctx, cfg.StoreDriver, cfg.MySQLDSN, cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open store failed")
	}
	defer closer.Close()

	// redis is optional here: without it rates are fetched per process and
	// API list caches expire on their own TTL
	var cache domain.Cache
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rc.Close()
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, continuing without shared cache")
	} else {
		cache = rc
	}

	rates := exchangerate.New(cfg.RatesBaseURL, cfg.RatesRPS, cfg.RatesAttempts)
	fx := app.NewCurrencyService(rates, cache, cfg.RateTTL)
	imports := app.NewImportService(app.NewFeedNormalizer(fx), repo, cache)

	workers := cfg.ImportWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)

	for _, path := range files {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)

			raw, err := os.ReadFile(path)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("file", path).Err(err).Msg("read failed")
				return
			}
			res, err := imports.Import(ctx, string(raw), *dryRun)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("file", path).Err(err).Msg("import failed")
				return
			}
			log.Info().
				Str("file", path).
				Str("batch", res.BatchID).
				Int("rows", res.Rows).
				Int("converted", res.Converted).
				Msg("import ok")
		}(path)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Error().Int32("failed", n).Msg("import completed with failures")
		os.Exit(1)
	}
	log.Info().Msg("import completed")
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"propfeed/internal/domain"
)

type ImportResult struct {
	BatchID   string                      `json:"batchId"`
	Rows      int                         `json:"rows"`
	Converted int                         `json:"converted"`
	DryRun    bool                        `json:"dryRun"`
	Records   []domain.PropertyFeedRecord `json:"records"`
}

type ImportService struct {
	feed  *FeedNormalizer
	repo  domain.PropertyRepository
	cache domain.Cache
}

func NewImportService(f *FeedNormalizer, r domain.PropertyRepository, cache domain.Cache) *ImportService {
	return &ImportService{feed: f, repo: r, cache: cache}
}

// Import normalizes one CSV document and persists it as a single batch.
// Only storage failures are returned; row problems were already defaulted.
func (s *ImportService) Import(ctx context.Context, raw string, dryRun bool) (ImportResult, error) {
	recs := s.feed.ParseProperties(ctx, raw)
	res := ImportResult{
		BatchID: uuid.NewString(),
		Rows:    len(recs),
		DryRun:  dryRun,
		Records: recs,
	}
	for _, r := range recs {
		if r.OriginalCurrency != nil {
			res.Converted++
		}
	}
	if dryRun || len(recs) == 0 {
		return res, nil
	}

	if err := s.repo.UpsertProperties(ctx, recs); err != nil {
		return ImportResult{}, fmt.Errorf("upsert properties for batch %s: %w", res.BatchID, err)
	}
	// audit row is best-effort; the listings are already stored
	if err := s.repo.LogBatch(ctx, domain.ImportBatch{
		ID:        res.BatchID,
		Source:    domain.SourceCSV,
		Rows:      res.Rows,
		Converted: res.Converted,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		log.Warn().Err(err).Str("batch", res.BatchID).Msg("log import batch failed")
	}

	if s.cache != nil {
		s.invalidateLists(ctx)
	}
	log.Info().Str("batch", res.BatchID).Int("rows", res.Rows).Int("converted", res.Converted).Msg("feed imported")
	return res, nil
}

// list pages are cached under a version key; bumping it orphans every page
func (s *ImportService) invalidateLists(ctx context.Context) {
	_ = s.cache.Del(ctx, listVersionKey)
}

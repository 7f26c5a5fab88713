package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"AlphaRefinery/internal/domain/models"
	domrepo "AlphaRefinery/internal/domain/repository"
	"AlphaRefinery/internal/market"
	"AlphaRefinery/internal/refine"
	"AlphaRefinery/internal/repository"
	"AlphaRefinery/pkg/config"
	applogger "AlphaRefinery/pkg/logger"
)

// RefinerUseCase runs the full refinement pass for one market: read the raw
// table, normalize, enrich, and replace the market's cleaned table.
type RefinerUseCase struct {
	wh    domrepo.Warehouse
	pub   domrepo.Publisher
	met   domrepo.Metrics
	cache domrepo.StockCache
	l     *applogger.Logger
}

func NewRefinerUseCase(
	wh domrepo.Warehouse,
	pub domrepo.Publisher,
	met domrepo.Metrics,
	cache domrepo.StockCache,
	l *applogger.Logger,
) *RefinerUseCase {
	return &RefinerUseCase{wh: wh, pub: pub, met: met, cache: cache, l: l}
}

// RefineMarket refines one configured market end to end. An empty or missing
// raw source is a normal outcome reported in the summary, not an error; the
// prior cleaned table is left untouched in that case.
func (uc *RefinerUseCase) RefineMarket(ctx context.Context, cfg config.MarketConfig) (models.RefineSummary, error) {
	start := time.Now()
	summary := models.RefineSummary{
		Market: cfg.ID,
		Table:  repository.RefinedTable(cfg.ID),
	}

	info, err := uc.wh.ReadStockInfo(ctx)
	if err != nil {
		uc.met.RecordError("stock_info")
		return uc.finish(ctx, summary, start, "failed"), fmt.Errorf("read stock info: %w", err)
	}

	rawTable, ok, err := uc.resolveRawTable(ctx, cfg)
	if err != nil {
		uc.met.RecordError("list_tables")
		return uc.finish(ctx, summary, start, "failed"), err
	}
	if !ok {
		uc.l.Warn("no raw table for market", applogger.String("market", cfg.ID))
		return uc.finish(ctx, summary, start, "empty"), nil
	}

	rows, err := uc.wh.ReadRaw(ctx, rawTable)
	if err != nil {
		uc.met.RecordError("read_raw")
		return uc.finish(ctx, summary, start, "failed"), fmt.Errorf("read %s: %w", rawTable, err)
	}
	if len(rows) == 0 {
		return uc.finish(ctx, summary, start, "empty"), nil
	}

	bars, dropped, err := refine.Normalize(rows)
	if err != nil {
		uc.met.RecordError("normalize")
		return uc.finish(ctx, summary, start, "failed"), fmt.Errorf("normalize %s: %w", rawTable, err)
	}
	summary.DroppedRows = dropped
	if len(bars) == 0 {
		return uc.finish(ctx, summary, start, "empty"), nil
	}

	engine := refine.NewEngine(market.ForMarket(cfg.ID), refine.Options{
		ETFPrefixes:          cfg.ETFPrefixes,
		ExcludeMissingSector: cfg.ExcludeMissingSector,
	})
	recs := engine.Refine(bars, info)

	summary.Rows = len(recs)
	for i := range recs {
		if recs[i].IsLimitUp {
			summary.LimitUpCount++
		}
		if recs[i].SeqLUCount > summary.MaxRun {
			summary.MaxRun = recs[i].SeqLUCount
		}
	}

	if err := uc.wh.ReplaceRefined(ctx, cfg.ID, recs); err != nil {
		uc.met.RecordError("persist")
		return uc.finish(ctx, summary, start, "failed"), fmt.Errorf("replace refined: %w", err)
	}

	uc.cache.Invalidate(ctx, cfg.ID)
	return uc.finish(ctx, summary, start, "ok"), nil
}

// resolveRawTable returns the configured raw table, or auto-detects one:
// daily_prices when present, otherwise the first table that is neither the
// stock join nor a cleaned output.
func (uc *RefinerUseCase) resolveRawTable(ctx context.Context, cfg config.MarketConfig) (string, bool, error) {
	tables, err := uc.wh.ListTables(ctx)
	if err != nil {
		return "", false, fmt.Errorf("list tables: %w", err)
	}
	if cfg.RawTable != "" {
		for _, t := range tables {
			if t == cfg.RawTable {
				return t, true, nil
			}
		}
		return "", false, nil
	}
	for _, t := range tables {
		if t == "daily_prices" {
			return t, true, nil
		}
	}
	for _, t := range tables {
		if t == "stock_info" || strings.HasPrefix(t, "cleaned_") {
			continue
		}
		return t, true, nil
	}
	return "", false, nil
}

func (uc *RefinerUseCase) finish(ctx context.Context, s models.RefineSummary, start time.Time, status string) models.RefineSummary {
	s.Status = status
	s.Took = time.Since(start)

	uc.met.RecordRefine(s.Market, s.Status, s.Rows, s.LimitUpCount, s.DroppedRows)
	uc.met.RecordRefineDuration(s.Market, s.Took.Seconds())

	// Reporting is best effort; a broker outage never fails a finished run.
	if err := uc.pub.PublishSummary(ctx, s); err != nil {
		uc.met.RecordError("publish")
		uc.l.Warn("publish refine summary failed",
			applogger.String("market", s.Market),
			applogger.Error(err),
		)
	}

	uc.l.Info("refine finished",
		applogger.String("market", s.Market),
		applogger.String("status", s.Status),
		applogger.Int("rows", s.Rows),
		applogger.Int("dropped", s.DroppedRows),
		applogger.Int("limit_ups", s.LimitUpCount),
		applogger.Int("max_run", s.MaxRun),
		applogger.Duration("took_ms", s.Took),
	)
	return s
}

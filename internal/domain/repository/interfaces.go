package repository

import (
	"context"
	"time"

	"AlphaRefinery/internal/domain/models"
)

// RawRow is one row of a raw warehouse table before normalization: column
// name (as stored, possibly a localized alias) to raw value. The normalizer
// owns the alias table that maps these onto the canonical bar schema.
type RawRow map[string]any

// Warehouse is the structured store the refinery reads raw bars from and
// writes enriched tables into. One warehouse holds every market; each market
// keeps its own raw and refined tables.
type Warehouse interface {
	// ListTables returns the table names present for the market's database.
	ListTables(ctx context.Context) ([]string, error)
	// ReadRaw streams all rows of a named table as uninterpreted rows.
	ReadRaw(ctx context.Context, table string) ([]RawRow, error)
	// ReadStockInfo returns the symbol -> market-context join, keyed by symbol.
	// A missing stock_info table yields an empty map, not an error.
	ReadStockInfo(ctx context.Context) (map[string]models.StockInfo, error)

	// ReplaceRefined replaces the market's enriched table wholesale:
	// staged insert then atomic swap. On error the prior table is intact.
	ReplaceRefined(ctx context.Context, market string, recs []models.RefinedRecord) error

	// QueryRefined reads enriched rows for a symbol and date range,
	// ordered by date ascending.
	QueryRefined(ctx context.Context, market, symbol string, from, to time.Time) ([]models.RefinedRecord, error)
	// LatestTradeDate returns the max trade date in the enriched table.
	LatestTradeDate(ctx context.Context, market string) (time.Time, bool, error)
	// LimitUpOn returns the qualifying rows for one trade date, joined with
	// stock info, ordered by run length descending.
	LimitUpOn(ctx context.Context, market string, date time.Time) ([]models.LimitUpEntry, error)
	// SymbolStats aggregates the post-limit-up next-day behavior of a symbol.
	SymbolStats(ctx context.Context, market, symbol string) (models.SymbolStats, error)

	Health(ctx context.Context) error
	Close() error
}

// Publisher emits per-market refine summaries for the out-of-process
// reporting and notification collaborators.
type Publisher interface {
	PublishSummary(ctx context.Context, s models.RefineSummary) error
	Close() error
}

// Metrics records pipeline observability series.
type Metrics interface {
	RecordRefine(market, status string, rows, limitUps, dropped int)
	RecordRefineDuration(market string, seconds float64)
	RecordError(kind string)
}

// StockCache caches per-market stock lists for the UI-facing collaborators.
// Invalidated on every successful refine of the market.
type StockCache interface {
	Get(ctx context.Context, market string) ([]models.StockInfo, bool)
	Set(ctx context.Context, market string, infos []models.StockInfo)
	Invalidate(ctx context.Context, market string)
}

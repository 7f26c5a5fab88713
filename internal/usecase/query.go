package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"AlphaRefinery/internal/domain/models"
	domrepo "AlphaRefinery/internal/domain/repository"
)

// QueryUseCase provides read access to the cleaned tables for the board and
// diagnosis endpoints.
type QueryUseCase struct {
	wh    domrepo.Warehouse
	cache domrepo.StockCache
}

func NewQueryUseCase(wh domrepo.Warehouse, cache domrepo.StockCache) *QueryUseCase {
	return &QueryUseCase{wh: wh, cache: cache}
}

type GetRefinedParams struct {
	Market string
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

func (uc *QueryUseCase) GetRefined(ctx context.Context, p GetRefinedParams) ([]models.RefinedRecord, error) {
	if p.Market == "" {
		return nil, fmt.Errorf("market required")
	}
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}

	recs, err := uc.wh.QueryRefined(ctx, p.Market, p.Symbol, p.From, p.To)
	if err != nil {
		return nil, fmt.Errorf("get refined: %w", err)
	}
	if len(recs) > p.Limit {
		recs = recs[:p.Limit]
	}
	return recs, nil
}

// GetLimitUpBoard returns the qualifying symbols for one trade date, the
// latest available date when none is given.
func (uc *QueryUseCase) GetLimitUpBoard(ctx context.Context, marketID string, date time.Time) (time.Time, []models.LimitUpEntry, error) {
	if marketID == "" {
		return time.Time{}, nil, fmt.Errorf("market required")
	}
	if date.IsZero() {
		latest, ok, err := uc.wh.LatestTradeDate(ctx, marketID)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("latest trade date: %w", err)
		}
		if !ok {
			return time.Time{}, []models.LimitUpEntry{}, nil
		}
		date = latest
	}

	entries, err := uc.wh.LimitUpOn(ctx, marketID, date)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("limit-up board: %w", err)
	}
	return date, entries, nil
}

func (uc *QueryUseCase) GetSymbolStats(ctx context.Context, marketID, symbol string) (models.SymbolStats, error) {
	if marketID == "" || symbol == "" {
		return models.SymbolStats{}, fmt.Errorf("market and symbol required")
	}
	stats, err := uc.wh.SymbolStats(ctx, marketID, symbol)
	if err != nil {
		return models.SymbolStats{}, fmt.Errorf("symbol stats: %w", err)
	}
	return stats, nil
}

// ListStocks returns the symbol universe with market context, cached per
// market until the next refine.
func (uc *QueryUseCase) ListStocks(ctx context.Context, marketID string) ([]models.StockInfo, error) {
	if marketID == "" {
		return nil, fmt.Errorf("market required")
	}
	if infos, ok := uc.cache.Get(ctx, marketID); ok {
		return infos, nil
	}

	byName, err := uc.wh.ReadStockInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	infos := make([]models.StockInfo, 0, len(byName))
	for _, si := range byName {
		infos = append(infos, si)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Symbol < infos[j].Symbol })

	uc.cache.Set(ctx, marketID, infos)
	return infos, nil
}

// Health reports warehouse reachability.
func (uc *QueryUseCase) Health(ctx context.Context) error {
	return uc.wh.Health(ctx)
}

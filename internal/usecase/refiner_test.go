package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"AlphaRefinery/internal/domain/models"
	domrepo "AlphaRefinery/internal/domain/repository"
	"AlphaRefinery/pkg/config"
	applogger "AlphaRefinery/pkg/logger"
)

type fakeWarehouse struct {
	tables     []string
	raw        map[string][]domrepo.RawRow
	info       map[string]models.StockInfo
	replaced   map[string][]models.RefinedRecord
	replaceErr error
	latest     time.Time
	hasLatest  bool
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{
		raw:      map[string][]domrepo.RawRow{},
		info:     map[string]models.StockInfo{},
		replaced: map[string][]models.RefinedRecord{},
	}
}

func (f *fakeWarehouse) ListTables(context.Context) ([]string, error) { return f.tables, nil }

func (f *fakeWarehouse) ReadRaw(_ context.Context, table string) ([]domrepo.RawRow, error) {
	rows, ok := f.raw[table]
	if !ok {
		return nil, fmt.Errorf("no such table %s", table)
	}
	return rows, nil
}

func (f *fakeWarehouse) ReadStockInfo(context.Context) (map[string]models.StockInfo, error) {
	return f.info, nil
}

func (f *fakeWarehouse) ReplaceRefined(_ context.Context, market string, recs []models.RefinedRecord) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced[market] = recs
	return nil
}

func (f *fakeWarehouse) QueryRefined(context.Context, string, string, time.Time, time.Time) ([]models.RefinedRecord, error) {
	return nil, nil
}

func (f *fakeWarehouse) LatestTradeDate(context.Context, string) (time.Time, bool, error) {
	return f.latest, f.hasLatest, nil
}

func (f *fakeWarehouse) LimitUpOn(context.Context, string, time.Time) ([]models.LimitUpEntry, error) {
	return nil, nil
}

func (f *fakeWarehouse) SymbolStats(_ context.Context, _, symbol string) (models.SymbolStats, error) {
	return models.SymbolStats{Symbol: symbol}, nil
}

func (f *fakeWarehouse) Health(context.Context) error { return nil }
func (f *fakeWarehouse) Close() error                 { return nil }

type fakePublisher struct {
	summaries []models.RefineSummary
	err       error
}

func (f *fakePublisher) PublishSummary(_ context.Context, s models.RefineSummary) error {
	if f.err != nil {
		return f.err
	}
	f.summaries = append(f.summaries, s)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	refines   int
	durations int
	errors    map[string]int
}

func (f *fakeMetrics) RecordRefine(string, string, int, int, int) { f.refines++ }
func (f *fakeMetrics) RecordRefineDuration(string, float64)       { f.durations++ }
func (f *fakeMetrics) RecordError(kind string) {
	if f.errors == nil {
		f.errors = map[string]int{}
	}
	f.errors[kind]++
}

type fakeCache struct {
	invalidated []string
	stored      map[string][]models.StockInfo
}

func (f *fakeCache) Get(_ context.Context, market string) ([]models.StockInfo, bool) {
	infos, ok := f.stored[market]
	return infos, ok
}

func (f *fakeCache) Set(_ context.Context, market string, infos []models.StockInfo) {
	if f.stored == nil {
		f.stored = map[string][]models.StockInfo{}
	}
	f.stored[market] = infos
}

func (f *fakeCache) Invalidate(_ context.Context, market string) {
	f.invalidated = append(f.invalidated, market)
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func rawBar(date, symbol string, o, h, lo, c, v float64) domrepo.RawRow {
	return domrepo.RawRow{
		"日期": date, "StockID": symbol,
		"Open": o, "High": h, "Low": lo, "收盤": c, "Volume": v,
	}
}

func TestRefineMarketHappyPath(t *testing.T) {
	wh := newFakeWarehouse()
	wh.tables = []string{"stock_info", "daily_prices"}
	wh.info["2330"] = models.StockInfo{Symbol: "2330", Name: "TSMC", Sector: "Semi", Board: models.BoardListed}
	wh.raw["daily_prices"] = []domrepo.RawRow{
		rawBar("2024-01-02", "2330", 100, 101, 99, 100, 1000),
		rawBar("2024-01-03", "2330", 102, 110, 102, 110, 5000),
		rawBar("2024-01-04", "2330", 112, 115, 111, 113, 4000),
		// ghost row, dropped at normalization
		{"日期": "2024-01-05", "StockID": "2330", "Open": 113.0, "High": 113.0, "Low": 113.0, "收盤": 113.0, "Volume": 0.0},
	}

	pub := &fakePublisher{}
	met := &fakeMetrics{}
	cache := &fakeCache{}
	uc := NewRefinerUseCase(wh, pub, met, cache, testLogger(t))

	sum, err := uc.RefineMarket(context.Background(), config.MarketConfig{ID: "tw"})
	if err != nil {
		t.Fatalf("RefineMarket: %v", err)
	}
	if sum.Status != "ok" {
		t.Fatalf("status = %q, want ok", sum.Status)
	}
	if sum.Rows != 3 {
		t.Fatalf("rows = %d, want 3", sum.Rows)
	}
	if sum.DroppedRows != 1 {
		t.Fatalf("dropped = %d, want 1", sum.DroppedRows)
	}
	if sum.LimitUpCount != 1 || sum.MaxRun != 1 {
		t.Fatalf("limit ups = %d run = %d, want 1 and 1", sum.LimitUpCount, sum.MaxRun)
	}
	if got := len(wh.replaced["tw"]); got != 3 {
		t.Fatalf("replaced rows = %d, want 3", got)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "tw" {
		t.Fatalf("cache invalidations = %v, want [tw]", cache.invalidated)
	}
	if len(pub.summaries) != 1 || pub.summaries[0].Status != "ok" {
		t.Fatalf("published = %+v, want one ok summary", pub.summaries)
	}
	if met.refines != 1 || met.durations != 1 {
		t.Fatalf("metrics refines=%d durations=%d, want 1 and 1", met.refines, met.durations)
	}
}

func TestRefineMarketNoRawTable(t *testing.T) {
	wh := newFakeWarehouse()
	wh.tables = []string{"stock_info", "cleaned_daily_base_tw"}

	pub := &fakePublisher{}
	uc := NewRefinerUseCase(wh, pub, &fakeMetrics{}, &fakeCache{}, testLogger(t))

	sum, err := uc.RefineMarket(context.Background(), config.MarketConfig{ID: "tw"})
	if err != nil {
		t.Fatalf("empty source must not error: %v", err)
	}
	if sum.Status != "empty" {
		t.Fatalf("status = %q, want empty", sum.Status)
	}
	if len(wh.replaced) != 0 {
		t.Fatalf("nothing should be written for an empty source")
	}
	if len(pub.summaries) != 1 || pub.summaries[0].Status != "empty" {
		t.Fatalf("empty runs still publish a summary, got %+v", pub.summaries)
	}
}

func TestRefineMarketConfiguredTableMissing(t *testing.T) {
	wh := newFakeWarehouse()
	wh.tables = []string{"daily_prices"}
	wh.raw["daily_prices"] = []domrepo.RawRow{rawBar("2024-01-02", "2330", 100, 101, 99, 100, 1000)}

	uc := NewRefinerUseCase(wh, &fakePublisher{}, &fakeMetrics{}, &fakeCache{}, testLogger(t))

	sum, err := uc.RefineMarket(context.Background(), config.MarketConfig{ID: "tw", RawTable: "tw_daily"})
	if err != nil {
		t.Fatalf("missing configured table must not error: %v", err)
	}
	if sum.Status != "empty" {
		t.Fatalf("status = %q, want empty", sum.Status)
	}
}

func TestRefineMarketAutoDetectSkipsOutputs(t *testing.T) {
	wh := newFakeWarehouse()
	wh.tables = []string{"cleaned_daily_base_jp", "stock_info", "jp_daily"}
	wh.raw["jp_daily"] = []domrepo.RawRow{rawBar("2024-01-02", "7203", 100, 101, 99, 100, 1000)}

	uc := NewRefinerUseCase(wh, &fakePublisher{}, &fakeMetrics{}, &fakeCache{}, testLogger(t))

	sum, err := uc.RefineMarket(context.Background(), config.MarketConfig{ID: "jp"})
	if err != nil {
		t.Fatalf("RefineMarket: %v", err)
	}
	if sum.Status != "ok" || sum.Rows != 1 {
		t.Fatalf("status = %q rows = %d, want ok and 1", sum.Status, sum.Rows)
	}
}

func TestRefineMarketPersistFailure(t *testing.T) {
	wh := newFakeWarehouse()
	wh.tables = []string{"daily_prices"}
	wh.raw["daily_prices"] = []domrepo.RawRow{rawBar("2024-01-02", "2330", 100, 101, 99, 100, 1000)}
	wh.replaceErr = fmt.Errorf("disk full")

	pub := &fakePublisher{}
	met := &fakeMetrics{}
	uc := NewRefinerUseCase(wh, pub, met, &fakeCache{}, testLogger(t))

	sum, err := uc.RefineMarket(context.Background(), config.MarketConfig{ID: "tw"})
	if err == nil {
		t.Fatal("expected persist error")
	}
	if sum.Status != "failed" {
		t.Fatalf("status = %q, want failed", sum.Status)
	}
	if met.errors["persist"] != 1 {
		t.Fatalf("persist error not recorded: %v", met.errors)
	}
	if len(pub.summaries) != 1 || pub.summaries[0].Status != "failed" {
		t.Fatalf("failed runs still publish a summary, got %+v", pub.summaries)
	}
}

func TestRefineMarketPublishFailureIsNonFatal(t *testing.T) {
	wh := newFakeWarehouse()
	wh.tables = []string{"daily_prices"}
	wh.raw["daily_prices"] = []domrepo.RawRow{rawBar("2024-01-02", "2330", 100, 101, 99, 100, 1000)}

	pub := &fakePublisher{err: fmt.Errorf("broker down")}
	met := &fakeMetrics{}
	uc := NewRefinerUseCase(wh, pub, met, &fakeCache{}, testLogger(t))

	sum, err := uc.RefineMarket(context.Background(), config.MarketConfig{ID: "tw"})
	if err != nil {
		t.Fatalf("publish failure must not fail the run: %v", err)
	}
	if sum.Status != "ok" {
		t.Fatalf("status = %q, want ok", sum.Status)
	}
	if met.errors["publish"] != 1 {
		t.Fatalf("publish error not recorded: %v", met.errors)
	}
}

func TestListStocksUsesCache(t *testing.T) {
	wh := newFakeWarehouse()
	wh.info["2330"] = models.StockInfo{Symbol: "2330", Name: "TSMC"}
	wh.info["1101"] = models.StockInfo{Symbol: "1101", Name: "Taiwan Cement"}
	cache := &fakeCache{}

	uc := NewQueryUseCase(wh, cache)

	infos, err := uc.ListStocks(context.Background(), "tw")
	if err != nil {
		t.Fatalf("ListStocks: %v", err)
	}
	if len(infos) != 2 || infos[0].Symbol != "1101" {
		t.Fatalf("infos = %+v, want sorted [1101 2330]", infos)
	}
	if _, ok := cache.stored["tw"]; !ok {
		t.Fatal("stock list was not cached")
	}

	// second call is served from cache even if the warehouse changes
	wh.info["9999"] = models.StockInfo{Symbol: "9999"}
	infos, err = uc.ListStocks(context.Background(), "tw")
	if err != nil {
		t.Fatalf("ListStocks (cached): %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("cached infos = %d entries, want 2", len(infos))
	}
}

func TestGetLimitUpBoardDefaultsToLatestDate(t *testing.T) {
	wh := newFakeWarehouse()
	wh.latest = time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	wh.hasLatest = true

	uc := NewQueryUseCase(wh, &fakeCache{})

	date, _, err := uc.GetLimitUpBoard(context.Background(), "tw", time.Time{})
	if err != nil {
		t.Fatalf("GetLimitUpBoard: %v", err)
	}
	if !date.Equal(wh.latest) {
		t.Fatalf("date = %v, want %v", date, wh.latest)
	}
}

package refine

import (
	"testing"
	"time"

	"AlphaRefinery/internal/domain/repository"
)

func rawRow(date, symbol string, o, h, l, c, v float64) repository.RawRow {
	return repository.RawRow{
		"日期": date, "StockID": symbol,
		"開盤": o, "最高": h, "最低": l, "收盤": c, "成交量": v,
	}
}

func TestNormalizeLocalizedHeaders(t *testing.T) {
	rows := []repository.RawRow{rawRow("2024-01-02", "2330", 100, 101, 99, 100.5, 1000)}
	bars, dropped, err := Normalize(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dropped != 0 || len(bars) != 1 {
		t.Fatalf("bars=%d dropped=%d, want 1/0", len(bars), dropped)
	}
	b := bars[0]
	if b.Symbol != "2330" || b.Close != 100.5 || !b.Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("bad normalization: %+v", b)
	}
}

func TestNormalizeEnglishHeaders(t *testing.T) {
	rows := []repository.RawRow{{
		"Date": "2024/01/02", "symbol": "AAPL",
		"Open": "188.5", "High": "190", "Low": "187", "Close": "189.9", "Volume": int64(55000),
	}}
	bars, _, err := Normalize(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 1 || bars[0].Symbol != "AAPL" || bars[0].Volume != 55000 {
		t.Fatalf("bad normalization: %+v", bars)
	}
}

func TestNormalizeMissingRequiredColumn(t *testing.T) {
	rows := []repository.RawRow{{"Date": "2024-01-02", "Open": 1.0}}
	if _, _, err := Normalize(rows); err == nil {
		t.Fatalf("missing symbol/close columns must fail the table")
	}
}

func TestNormalizeDropsGhostRows(t *testing.T) {
	rows := []repository.RawRow{
		rawRow("2024-01-02", "X", 10.0, 10.0, 10.0, 10.0, 0), // ghost
		rawRow("2024-01-03", "X", 10.0, 10.5, 9.9, 10.2, 500),
	}
	bars, dropped, err := Normalize(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 1 || dropped != 1 {
		t.Fatalf("bars=%d dropped=%d, want 1/1", len(bars), dropped)
	}
	if bars[0].Volume != 500 {
		t.Fatalf("the real observation should survive, got %+v", bars[0])
	}
}

func TestNormalizeDropsUnparseableRows(t *testing.T) {
	rows := []repository.RawRow{
		rawRow("not-a-date", "X", 10, 10, 10, 10, 100),
		{"日期": "2024-01-03", "StockID": "X", "收盤": "garbage"},
		rawRow("2024-01-04", "X", 10, 10.5, 9.9, 10.2, 500),
	}
	bars, dropped, err := Normalize(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 1 || dropped != 2 {
		t.Fatalf("bars=%d dropped=%d, want 1/2", len(bars), dropped)
	}
}

func TestNormalizeSortsAndDedupes(t *testing.T) {
	rows := []repository.RawRow{
		rawRow("2024-01-03", "B", 10, 11, 9, 10.5, 100),
		rawRow("2024-01-02", "B", 10, 11, 9, 10.0, 100),
		rawRow("2024-01-02", "A", 10, 11, 9, 10.0, 100),
		rawRow("2024-01-02", "B", 10, 11, 9, 10.3, 100), // duplicate day, keep last
	}
	bars, dropped, err := Normalize(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 3 || dropped != 1 {
		t.Fatalf("bars=%d dropped=%d, want 3/1", len(bars), dropped)
	}
	if bars[0].Symbol != "A" || bars[1].Symbol != "B" || bars[2].Symbol != "B" {
		t.Fatalf("order wrong: %+v", bars)
	}
	if !bars[1].Date.Before(bars[2].Date) {
		t.Fatalf("dates must be strictly increasing per symbol")
	}
	if bars[1].Close != 10.3 {
		t.Fatalf("duplicate resolution should keep the later row, got %v", bars[1].Close)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	bars, dropped, err := Normalize(nil)
	if err != nil || len(bars) != 0 || dropped != 0 {
		t.Fatalf("empty input: bars=%d dropped=%d err=%v", len(bars), dropped, err)
	}
}

package refine

import (
	"fmt"
	"sort"

	"AlphaRefinery/internal/domain/models"
	"AlphaRefinery/internal/domain/repository"
	"AlphaRefinery/pkg/util"
)

// columnAliases is the one schema-mapping table consulted at ingestion.
// Raw warehouses arrive with mixed English and localized headers; each
// canonical field lists its accepted aliases in priority order.
var columnAliases = map[string][]string{
	"date":   {"日期", "trade_date", "Date", "date", "time", "Time", "datetime"},
	"symbol": {"StockID", "symbol", "Symbol", "code", "Code", "Ticker", "ticker"},
	"open":   {"開盤", "開盤價", "Open", "open"},
	"high":   {"最高", "最高價", "High", "high"},
	"low":    {"最低", "最低價", "Low", "low"},
	"close":  {"收盤", "收盤價", "Close", "close", "Adj Close", "adj_close"},
	"volume": {"成交量", "Volume", "volume", "vol", "Vol"},
}

// resolveColumns maps canonical field -> actual column name present in the
// row set. Only fields with a matching alias appear in the result.
func resolveColumns(sample repository.RawRow) map[string]string {
	resolved := make(map[string]string, len(columnAliases))
	for field, aliases := range columnAliases {
		for _, a := range aliases {
			if _, ok := sample[a]; ok {
				resolved[field] = a
				break
			}
		}
	}
	return resolved
}

// Normalize maps raw warehouse rows onto the canonical bar schema. Rows
// lacking a parseable date or close are dropped and counted; ghost rows
// (zero volume, flat OHLC) are dropped too. Missing date/symbol/close
// columns are a table-level failure, not a row-level one.
func Normalize(rows []repository.RawRow) ([]models.PriceBar, int, error) {
	if len(rows) == 0 {
		return nil, 0, nil
	}
	cols := resolveColumns(rows[0])
	for _, required := range []string{"date", "symbol", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, 0, fmt.Errorf("required column %q not found after alias mapping", required)
		}
	}

	bars := make([]models.PriceBar, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		date, ok := util.ToDate(row[cols["date"]])
		if !ok {
			dropped++
			continue
		}
		symbol, ok := util.ToString(row[cols["symbol"]])
		if !ok || symbol == "" {
			dropped++
			continue
		}
		closeP, ok := util.ToFloat(row[cols["close"]])
		if !ok || closeP <= 0 {
			dropped++
			continue
		}

		bar := models.PriceBar{Symbol: symbol, Date: date, Close: closeP}
		bar.Open = optFloat(row, cols, "open", closeP)
		bar.High = optFloat(row, cols, "high", closeP)
		bar.Low = optFloat(row, cols, "low", closeP)
		bar.Volume = optFloat(row, cols, "volume", 0)

		if bar.IsGhost() {
			dropped++
			continue
		}
		bars = append(bars, bar)
	}

	sortBars(bars)
	bars, dupes := dedupeBars(bars)
	return bars, dropped + dupes, nil
}

func optFloat(row repository.RawRow, cols map[string]string, field string, def float64) float64 {
	col, ok := cols[field]
	if !ok {
		return def
	}
	f, ok := util.ToFloat(row[col])
	if !ok {
		return def
	}
	return f
}

// sortBars orders by (symbol, date) ascending; every grouped computation
// downstream depends on this ordering.
func sortBars(bars []models.PriceBar) {
	sort.SliceStable(bars, func(i, j int) bool {
		if bars[i].Symbol != bars[j].Symbol {
			return bars[i].Symbol < bars[j].Symbol
		}
		return bars[i].Date.Before(bars[j].Date)
	})
}

// dedupeBars collapses duplicate (symbol, date) observations, keeping the
// last occurrence (later rows carry corrected data). Input must be sorted.
func dedupeBars(bars []models.PriceBar) ([]models.PriceBar, int) {
	if len(bars) < 2 {
		return bars, 0
	}
	out := bars[:0]
	for i, b := range bars {
		if i+1 < len(bars) && bars[i+1].Symbol == b.Symbol && bars[i+1].Date.Equal(b.Date) {
			continue
		}
		out = append(out, b)
	}
	return out, len(bars) - len(out)
}

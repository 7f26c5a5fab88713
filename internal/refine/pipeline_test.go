package refine

import (
	"fmt"
	"math"
	"testing"
	"time"

	"AlphaRefinery/internal/domain/models"
	"AlphaRefinery/internal/market"
)

func day(offset int) time.Time {
	return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func bar(symbol string, d int, o, h, l, c, v float64) models.PriceBar {
	return models.PriceBar{Symbol: symbol, Date: day(d), Open: o, High: h, Low: l, Close: c, Volume: v}
}

func flatBar(symbol string, d int, c, v float64) models.PriceBar {
	return bar(symbol, d, c, c, c, c, v)
}

func twEngine() *Engine {
	return NewEngine(market.ForMarket("TW"), Options{ETFPrefixes: []string{"00"}})
}

func listedInfo(symbol string) map[string]models.StockInfo {
	return map[string]models.StockInfo{
		symbol: {Symbol: symbol, Name: symbol, Sector: "semis", Board: "上市"},
	}
}

func TestLockedOpenScenario(t *testing.T) {
	bars := []models.PriceBar{
		bar("X", 0, 99, 101, 98, 100, 1000),
		bar("X", 1, 109.5, 109.5, 109.5, 109.5, 800),
	}
	recs := twEngine().Refine(bars, listedInfo("X"))
	r := recs[1]
	if !r.IsLimitUp {
		t.Fatalf("9.5%% close on a 10%%-cap board must qualify")
	}
	if r.LimitPrice != 110.00 {
		t.Fatalf("limit price = %v, want 110.00", r.LimitPrice)
	}
	if r.LUType != models.LUTypeLockedOpen {
		t.Fatalf("LU type = %d, want locked-open", r.LUType)
	}
}

func TestGapUpScenario(t *testing.T) {
	bars := []models.PriceBar{
		bar("X", 0, 99, 101, 98, 100, 1000),
		bar("X", 1, 108, 110, 107.5, 110, 900),
	}
	recs := twEngine().Refine(bars, listedInfo("X"))
	r := recs[1]
	if !r.IsLimitUp || r.LUType != models.LUTypeGapUp {
		t.Fatalf("8%% open gap should classify gap-up, got type %d (lu=%v)", r.LUType, r.IsLimitUp)
	}
}

func TestHighTurnoverScenario(t *testing.T) {
	bars := make([]models.PriceBar, 0, 8)
	for i := 0; i < 6; i++ {
		bars = append(bars, bar("X", i, 100, 101, 99, 100, 1000))
	}
	// day 6: +9.6% on 5x the prior 5-day average volume, modest open
	bars = append(bars, bar("X", 6, 101, 109.6, 100.5, 109.6, 5000))
	recs := twEngine().Refine(bars, listedInfo("X"))
	r := recs[6]
	if !r.IsLimitUp {
		t.Fatalf("+9.6%% should qualify")
	}
	if math.Abs(r.VolRatio-5.0) > 1e-9 {
		t.Fatalf("vol ratio = %v, want 5.0 against the prior 5-day average", r.VolRatio)
	}
	if r.LUType != models.LUTypeTurnover {
		t.Fatalf("LU type = %d, want high-turnover", r.LUType)
	}
}

func TestOrdinaryFallback(t *testing.T) {
	bars := []models.PriceBar{
		bar("X", 0, 99, 101, 98, 100, 1000),
		bar("X", 1, 104, 110, 103, 110, 1000), // 4% open, no volume history
	}
	recs := twEngine().Refine(bars, listedInfo("X"))
	if recs[1].LUType != models.LUTypeOrdinary {
		t.Fatalf("LU type = %d, want ordinary", recs[1].LUType)
	}
}

func TestFailTypes(t *testing.T) {
	limitDay := func() []models.PriceBar {
		return []models.PriceBar{
			bar("X", 0, 99, 101, 98, 100, 1000),
			bar("X", 1, 104, 110, 103, 110, 1000), // limit-up at 110
		}
	}
	cases := []struct {
		name string
		next models.PriceBar
		want int
	}{
		{"collapse", bar("X", 2, 108, 112, 104, 104, 1500), models.FailTypeCollapse},
		// touched the 121.00 ceiling intraday, closed well under it
		{"rejected at ceiling", bar("X", 2, 112, 121, 110, 112, 1500), models.FailTypeRejected},
		{"no premium", bar("X", 2, 109, 113, 108, 111, 1500), models.FailTypeNoPremium},
		{"neutral", bar("X", 2, 112, 115, 110, 113, 1500), models.FailTypeNeutral},
	}
	for _, tc := range cases {
		bars := append(limitDay(), tc.next)
		recs := twEngine().Refine(bars, listedInfo("X"))
		r := recs[2]
		if !r.PrevLU {
			t.Fatalf("%s: day after a limit-up must carry prev_lu", tc.name)
		}
		if r.FailType != tc.want {
			t.Fatalf("%s: fail type = %d, want %d", tc.name, r.FailType, tc.want)
		}
	}
	// no classification without a preceding limit-up
	bars := []models.PriceBar{
		bar("X", 0, 99, 101, 98, 100, 1000),
		bar("X", 1, 100, 102, 99, 101, 1000),
		bar("X", 2, 101, 103, 95, 95, 1000),
	}
	recs := twEngine().Refine(bars, listedInfo("X"))
	if recs[2].FailType != models.FailTypeNeutral || recs[2].PrevLU {
		t.Fatalf("fail classification must only follow a limit-up day")
	}
}

func TestPrevCloseLinkage(t *testing.T) {
	bars := []models.PriceBar{
		flatBar("A", 0, 10, 100), flatBar("A", 1, 11, 100), flatBar("A", 2, 12, 100),
		flatBar("B", 0, 50, 100), flatBar("B", 1, 55, 100),
	}
	recs := twEngine().Refine(bars, nil)
	for i, r := range recs {
		if i > 0 && recs[i-1].Symbol == r.Symbol {
			if r.PrevClose != recs[i-1].Close {
				t.Fatalf("row %d: prev_close=%v want %v", i, r.PrevClose, recs[i-1].Close)
			}
		} else if !models.IsAbsent(r.PrevClose) {
			t.Fatalf("first record of %s must have absent prev_close", r.Symbol)
		}
	}
	// grouping must not leak across the A/B boundary
	if b0 := recs[3]; b0.Symbol != "B" || !models.IsAbsent(b0.RetDay) {
		t.Fatalf("symbol boundary leaked: %+v", b0)
	}
}

func TestSeqCountImpliesFlagAcrossPipeline(t *testing.T) {
	bars := []models.PriceBar{flatBar("X", 0, 100, 1000)}
	price := 100.0
	for i := 1; i <= 6; i++ {
		ret := 0.096
		if i == 3 {
			ret = 0.01
		}
		price = price * (1 + ret)
		bars = append(bars, bar("X", i, price*0.99, price*1.001, price*0.98, price, 1000))
	}
	recs := twEngine().Refine(bars, listedInfo("X"))
	wantSeq := []int{0, 1, 2, 0, 1, 2, 3}
	for i, r := range recs {
		if r.SeqLUCount != wantSeq[i] {
			t.Fatalf("row %d: seq=%d want %d", i, r.SeqLUCount, wantSeq[i])
		}
		if r.SeqLUCount > 0 && !r.IsLimitUp {
			t.Fatalf("row %d: positive run count on non-qualifying day", i)
		}
	}
}

func TestETFNeverAccumulatesRuns(t *testing.T) {
	// Regression: an index fund matching the ETF prefix rallies hard every
	// day; without structural exclusion + zero-forcing it accumulated
	// thousands of consecutive-day counts.
	bars := make([]models.PriceBar, 0, 300)
	price := 20.0
	for i := 0; i < 300; i++ {
		price *= 1.098
		bars = append(bars, flatBar("0050", i, price, 5000))
	}
	recs := twEngine().Refine(bars, listedInfo("0050"))
	for i, r := range recs {
		if r.IsLimitUp || r.SeqLUCount != 0 {
			t.Fatalf("row %d: ETF must stay excluded (lu=%v seq=%d)", i, r.IsLimitUp, r.SeqLUCount)
		}
	}
}

func TestMissingSectorExclusion(t *testing.T) {
	e := NewEngine(market.ForMarket("TW"), Options{ExcludeMissingSector: true})
	bars := []models.PriceBar{flatBar("X", 0, 100, 1000), flatBar("X", 1, 109.6, 1000)}
	recs := e.Refine(bars, nil) // no stock_info join at all
	if recs[1].IsLimitUp {
		t.Fatalf("symbol without sector classification must be excluded")
	}
}

func TestTrailingReturnBoundary(t *testing.T) {
	bars := make([]models.PriceBar, 0, 6)
	for i := 0; i < 6; i++ {
		bars = append(bars, flatBar("X", i, 100+float64(i), 1000))
	}
	recs := twEngine().Refine(bars, listedInfo("X"))
	for i := 0; i < 5; i++ {
		if !models.IsAbsent(recs[i].Ret5D) {
			t.Fatalf("row %d: ret_5d must be absent before 5 prior observations", i)
		}
	}
	want := 105.0/100.0 - 1
	if math.Abs(recs[5].Ret5D-want) > 1e-12 {
		t.Fatalf("ret_5d = %v, want %v", recs[5].Ret5D, want)
	}
	if !models.IsAbsent(recs[5].Ret20D) || !models.IsAbsent(recs[5].Ret200D) {
		t.Fatalf("longer horizons must stay absent on a 6-row series")
	}
}

func TestVolatilityWindowFill(t *testing.T) {
	bars := make([]models.PriceBar, 0, 12)
	price := 100.0
	for i := 0; i < 12; i++ {
		if i%2 == 0 {
			price *= 1.01
		} else {
			price *= 0.995
		}
		bars = append(bars, flatBar("X", i, price, 1000))
	}
	recs := twEngine().Refine(bars, listedInfo("X"))
	for i := 0; i < 10; i++ {
		if !models.IsAbsent(recs[i].Volatility10D) {
			t.Fatalf("row %d: volatility_10d before 10 returns must be absent", i)
		}
	}
	if models.IsAbsent(recs[10].Volatility10D) || recs[10].Volatility10D <= 0 {
		t.Fatalf("row 10: annualized volatility should be positive, got %v", recs[10].Volatility10D)
	}
}

func TestDrawdownAndRecovery(t *testing.T) {
	closes := []float64{100, 110, 99, 104.5}
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = flatBar("X", i, c, 1000)
	}
	recs := twEngine().Refine(bars, listedInfo("X"))
	if recs[0].DrawdownHigh20 != 0 {
		t.Fatalf("first row drawdown must be 0 (window of one), got %v", recs[0].DrawdownHigh20)
	}
	want := 99.0/110.0 - 1
	if math.Abs(recs[2].DrawdownHigh20-want) > 1e-12 {
		t.Fatalf("drawdown = %v, want %v", recs[2].DrawdownHigh20, want)
	}
	wantRec := 104.5/99.0 - 1
	if math.Abs(recs[3].RecoveryLow10-wantRec) > 1e-12 {
		t.Fatalf("recovery = %v, want %v", recs[3].RecoveryLow10, wantRec)
	}
}

func TestPeriodAnchoredReturns(t *testing.T) {
	// 2024-01-02 (Tue) .. 2024-01-08 (Mon): week resets on the 8th
	closes := []float64{100, 102, 104, 106, 110}
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		d := i // 2..5 Jan, then skip weekend to Mon 8 Jan
		if i == 4 {
			d = 6
		}
		bars[i] = flatBar("X", d, c, 1000)
	}
	recs := twEngine().Refine(bars, listedInfo("X"))
	if recs[0].RetWeek != 0 {
		t.Fatalf("first day of week anchors at itself, got %v", recs[0].RetWeek)
	}
	if math.Abs(recs[3].RetWeek-(106.0/100.0-1)) > 1e-12 {
		t.Fatalf("intra-week return = %v", recs[3].RetWeek)
	}
	if recs[4].RetWeek != 0 {
		t.Fatalf("new ISO week must reset the anchor, got %v", recs[4].RetWeek)
	}
	if math.Abs(recs[4].RetMonth-(110.0/100.0-1)) > 1e-12 {
		t.Fatalf("month anchor must not reset mid-month, got %v", recs[4].RetMonth)
	}
}

func TestForwardWindows(t *testing.T) {
	// 8 rows; highs/lows spread so each horizon picks a distinct extreme
	bars := make([]models.PriceBar, 8)
	for i := range bars {
		c := 100.0
		bars[i] = bar("X", i, c, c+float64(i+1), c-float64(i+1), c, 1000)
	}
	recs := twEngine().Refine(bars, listedInfo("X"))

	if math.Abs(recs[0].Next1DMax-(102.0/100-1)) > 1e-12 {
		t.Fatalf("next_1d_max = %v", recs[0].Next1DMax)
	}
	if math.Abs(recs[0].Next1DMin-(98.0/100-1)) > 1e-12 {
		t.Fatalf("next_1d_min = %v", recs[0].Next1DMin)
	}
	// T+1..T+5 from row 0: highs 102..106 -> max 106; lows -> 94
	if math.Abs(recs[0].Fwd5DMax-(106.0/100-1)) > 1e-12 || math.Abs(recs[0].Fwd5DMin-(94.0/100-1)) > 1e-12 {
		t.Fatalf("fwd_5d = (%v, %v)", recs[0].Fwd5DMax, recs[0].Fwd5DMin)
	}
	// T+6..T+10 from row 0 clips to rows 6..7 -> high 108
	if math.Abs(recs[0].Fwd610DMax-(108.0/100-1)) > 1e-12 {
		t.Fatalf("fwd_6_10d_max = %v", recs[0].Fwd610DMax)
	}
	// row 0 has no row at T+11..T+20
	if !models.IsAbsent(recs[0].Fwd1120Max) {
		t.Fatalf("fwd_11_20d must be absent with no future row in window")
	}
	// tail row: nothing ahead at all
	last := recs[7]
	if !models.IsAbsent(last.Next1DMax) || !models.IsAbsent(last.Fwd5DMax) {
		t.Fatalf("tail row must have absent forward stats")
	}
	// partial tail window is used, not suppressed
	if models.IsAbsent(recs[6].Fwd5DMax) {
		t.Fatalf("one future row is enough for a partial forward window")
	}
}

func TestRefineIdempotent(t *testing.T) {
	bars := make([]models.PriceBar, 0, 40)
	price := 100.0
	for i := 0; i < 40; i++ {
		price *= 1 + 0.002*float64(i%7-3)
		bars = append(bars, bar("X", i, price*0.995, price*1.01, price*0.99, price, float64(1000+i)))
	}
	a := twEngine().Refine(bars, listedInfo("X"))
	b := twEngine().Refine(bars, listedInfo("X"))
	// NaN-tolerant comparison via formatting
	if fmt.Sprintf("%v", a) != fmt.Sprintf("%v", b) {
		t.Fatalf("refinement must be deterministic for unchanged input")
	}
}

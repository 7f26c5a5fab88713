package refine

import (
	"math"
	"strings"

	"AlphaRefinery/internal/domain/models"
	"AlphaRefinery/internal/market"
	"AlphaRefinery/pkg/util"
)

const tradingDaysPerYear = 252

// Options tune the instrument-exclusion conventions of a market.
type Options struct {
	// ETFPrefixes lists symbol prefixes of exchange-traded funds and other
	// non-common-equity instruments excluded from limit qualification.
	ETFPrefixes []string
	// ExcludeMissingSector additionally excludes symbols without a sector
	// classification in stock_info.
	ExcludeMissingSector bool
}

// Engine runs the per-symbol refinement scan for one market's rule regime.
// The input must already be normalized, deduplicated and ordered by
// (symbol, date); Normalize guarantees all three.
type Engine struct {
	rule market.Rule
	opts Options
}

func NewEngine(rule market.Rule, opts Options) *Engine {
	return &Engine{rule: rule, opts: opts}
}

// Refine enriches the full bar set, one independent symbol group at a time.
// Grouped computations never cross symbol boundaries.
func (e *Engine) Refine(bars []models.PriceBar, info map[string]models.StockInfo) []models.RefinedRecord {
	out := make([]models.RefinedRecord, 0, len(bars))
	for start := 0; start < len(bars); {
		end := start + 1
		for end < len(bars) && bars[end].Symbol == bars[start].Symbol {
			end++
		}
		si, hasInfo := info[bars[start].Symbol]
		out = append(out, e.refineSymbol(bars[start:end], si, hasInfo)...)
		start = end
	}
	return out
}

func (e *Engine) excluded(symbol string, si models.StockInfo, hasInfo bool) bool {
	for _, p := range e.opts.ETFPrefixes {
		if p != "" && strings.HasPrefix(symbol, p) {
			return true
		}
	}
	if e.opts.ExcludeMissingSector && (!hasInfo || si.Sector == "") {
		return true
	}
	return false
}

func (e *Engine) refineSymbol(bars []models.PriceBar, si models.StockInfo, hasInfo bool) []models.RefinedRecord {
	n := len(bars)
	recs := make([]models.RefinedRecord, n)

	board := models.NormalizeBoard(si.Board)
	etf := e.excluded(bars[0].Symbol, si, hasInfo)

	volMA := newRollingMoments(5)
	ret10 := newRollingMoments(10)
	ret20 := newRollingMoments(20)
	ret50 := newRollingMoments(50)
	maxC10 := newRollingMax(10)
	maxC20 := newRollingMax(20)
	maxC50 := newRollingMax(50)
	minC10 := newRollingMin(10)

	prevVolMA := models.Absent()
	var wkKey, moKey, yrKey int = -1, -1, -1
	var wkFirst, moFirst, yrFirst float64

	flags := make([]bool, n)

	for i := range bars {
		rec := &recs[i]
		rec.PriceBar = bars[i]

		// previous close and day/overnight returns
		rec.PrevClose = models.Absent()
		rec.RetDay = models.Absent()
		if i > 0 {
			rec.PrevClose = bars[i-1].Close
			rec.RetDay = bars[i].Close/rec.PrevClose - 1
		}

		// trailing 5-day mean volume; the ratio uses the prior day's mean to
		// avoid lookahead
		rec.VolRatio = models.Absent()
		if !models.IsAbsent(prevVolMA) && prevVolMA > 0 {
			rec.VolRatio = bars[i].Volume / prevVolMA
		}
		volMA.Push(bars[i].Volume)
		rec.VolMA5 = models.Absent()
		if volMA.Full() {
			rec.VolMA5 = volMA.sum / 5
		}
		prevVolMA = rec.VolMA5

		// market rule dispatch
		rec.LimitPrice = models.Absent()
		if i > 0 {
			rec.LimitPrice = e.rule.LimitPrice(rec.PrevClose)
		}
		rc := market.RowContext{
			PrevClose: rec.PrevClose,
			Open:      bars[i].Open,
			High:      bars[i].High,
			Low:       bars[i].Low,
			Close:     bars[i].Close,
			Ret:       rec.RetDay,
			Board:     board,
			ETF:       etf,
		}
		rec.IsLimitUp = e.rule.IsLimitEvent(rc)
		rec.IsLimitDown = e.rule.IsLimitDown(rc)
		rec.IsAnomaly = e.rule.IsAnomaly(rc)
		flags[i] = rec.IsLimitUp

		// behavior on the day after a limit-up
		rec.PrevLU = i > 0 && recs[i-1].IsLimitUp
		rec.OvernightAlpha = models.Absent()
		if rec.PrevLU && rec.PrevClose > 0 {
			rec.OvernightAlpha = bars[i].Open/rec.PrevClose - 1
		}
		if rec.IsLimitUp {
			rec.LUType = classifyLUType(rec)
		}
		if rec.PrevLU {
			rec.FailType = classifyFailType(rec)
		}

		// trailing risk windows
		if i > 0 {
			ret10.Push(rec.RetDay)
			ret20.Push(rec.RetDay)
			ret50.Push(rec.RetDay)
		}
		rec.Volatility10D = annualizedVol(ret10)
		rec.Volatility20D = annualizedVol(ret20)
		rec.Volatility50D = annualizedVol(ret50)

		maxC10.Push(bars[i].Close)
		maxC20.Push(bars[i].Close)
		maxC50.Push(bars[i].Close)
		minC10.Push(bars[i].Close)
		rec.DrawdownHigh10 = bars[i].Close/maxC10.Extreme() - 1
		rec.DrawdownHigh20 = bars[i].Close/maxC20.Extreme() - 1
		rec.DrawdownHigh50 = bars[i].Close/maxC50.Extreme() - 1
		rec.RecoveryLow10 = bars[i].Close/minC10.Extreme() - 1

		// multi-horizon trailing returns
		rec.Ret5D = trailingReturn(bars, i, 5)
		rec.Ret20D = trailingReturn(bars, i, 20)
		rec.Ret200D = trailingReturn(bars, i, 200)

		// period-anchored cumulative returns
		if k := util.WeekKey(bars[i].Date); k != wkKey {
			wkKey, wkFirst = k, bars[i].Close
		}
		if k := util.MonthKey(bars[i].Date); k != moKey {
			moKey, moFirst = k, bars[i].Close
		}
		if k := util.YearKey(bars[i].Date); k != yrKey {
			yrKey, yrFirst = k, bars[i].Close
		}
		rec.RetWeek = bars[i].Close/wkFirst - 1
		rec.RetMonth = bars[i].Close/moFirst - 1
		rec.RetYear = bars[i].Close/yrFirst - 1
	}

	counts := RunCounts(flags)
	for i := range recs {
		recs[i].SeqLUCount = counts[i]
	}

	forwardWindows(bars, recs)
	return recs
}

func annualizedVol(m *rollingMoments) float64 {
	if !m.Full() {
		return models.Absent()
	}
	return math.Sqrt(m.SampleVariance()) * math.Sqrt(tradingDaysPerYear)
}

func trailingReturn(bars []models.PriceBar, i, horizon int) float64 {
	if i < horizon {
		return models.Absent()
	}
	return bars[i].Close/bars[i-horizon].Close - 1
}

// forwardWindows fills the lookahead extrema. Valid only because the input
// is a closed historical dataset; near the series tail a shorter available
// window is used rather than suppressing output.
func forwardWindows(bars []models.PriceBar, recs []models.RefinedRecord) {
	n := len(bars)
	for i := range bars {
		c := bars[i].Close
		recs[i].Next1DMax = models.Absent()
		recs[i].Next1DMin = models.Absent()
		if i+1 < n {
			recs[i].Next1DMax = bars[i+1].High/c - 1
			recs[i].Next1DMin = bars[i+1].Low/c - 1
		}
		recs[i].Fwd5DMax, recs[i].Fwd5DMin = forwardExtremes(bars, i, 1, 5)
		recs[i].Fwd610DMax, recs[i].Fwd610DMin = forwardExtremes(bars, i, 6, 10)
		recs[i].Fwd1120Max, recs[i].Fwd1120Min = forwardExtremes(bars, i, 11, 20)
	}
}

// forwardExtremes scans T+from..T+to relative to row i, clipped at the
// series end. Both values are absent when the window holds no future row.
func forwardExtremes(bars []models.PriceBar, i, from, to int) (float64, float64) {
	n := len(bars)
	lo := i + from
	hi := i + to
	if lo >= n {
		return models.Absent(), models.Absent()
	}
	if hi >= n {
		hi = n - 1
	}
	maxH := bars[lo].High
	minL := bars[lo].Low
	for j := lo + 1; j <= hi; j++ {
		if bars[j].High > maxH {
			maxH = bars[j].High
		}
		if bars[j].Low < minL {
			minL = bars[j].Low
		}
	}
	c := bars[i].Close
	return maxH/c - 1, minL/c - 1
}

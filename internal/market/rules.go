package market

import (
	"math"
	"strings"
)

// RowContext carries the already-materialized fields a rule needs to judge
// one symbol-day. Ret is NaN on a symbol's first observation.
type RowContext struct {
	PrevClose float64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Ret       float64
	Board     string
	ETF       bool
}

// Rule is one market's limit-move regime.
type Rule interface {
	// LimitPrice returns the theoretical ceiling for the next session given
	// the previous close. Markets without a statutory cap return prevClose
	// unchanged; anomaly detection substitutes for the limit concept there.
	LimitPrice(prevClose float64) float64
	// IsLimitEvent reports whether the day qualifies as a limit-up event.
	IsLimitEvent(rc RowContext) bool
	// IsLimitDown reports whether the day qualifies as a limit-down event.
	IsLimitDown(rc RowContext) bool
	// IsAnomaly flags an implausible move, independent of qualification.
	IsAnomaly(rc RowContext) bool
}

// retEps absorbs binary rounding of stored prices so an exactly-at-threshold
// move still qualifies.
const retEps = 1e-9

func geq(a, b float64) bool { return a >= b-retEps }
func leq(a, b float64) bool { return a <= b+retEps }

func absRet(rc RowContext) float64 {
	if math.IsNaN(rc.Ret) {
		return 0
	}
	return math.Abs(rc.Ret)
}

// ForMarket resolves a case-insensitive market identifier to its rule.
// Unknown markets fall back to the unbounded advisory regime.
func ForMarket(id string) Rule {
	switch strings.ToUpper(id) {
	case "TW":
		return TaiwanRules{}
	case "JP":
		return JapanRules{}
	case "CN":
		return ChinaRules{}
	case "KR":
		return KoreaRules{}
	default: // US, HK and anything unrecognized
		return BaseRules{}
	}
}

// BaseRules is the unbounded/advisory regime: no statutory cap, a 15%
// "strong move" marker in place of limit qualification, and a 100% absolute
// return anomaly filter.
type BaseRules struct{}

func (BaseRules) LimitPrice(prevClose float64) float64 { return prevClose }

func (BaseRules) IsLimitEvent(rc RowContext) bool {
	if math.IsNaN(rc.Ret) {
		return false
	}
	return geq(rc.Ret, 0.15)
}

func (BaseRules) IsLimitDown(RowContext) bool { return false }

func (BaseRules) IsAnomaly(rc RowContext) bool { return absRet(rc) > 1.0 }

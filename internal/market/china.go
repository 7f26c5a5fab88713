package market

import "math"

// ChinaRules applies a flat 9.5% qualification regardless of board tier.
// The A-share market actually splits 10% main board vs 20% STAR/ChiNext;
// tier inference by symbol prefix is a known limitation upstream and is
// deliberately not guessed here.
type ChinaRules struct{}

func (ChinaRules) LimitPrice(prevClose float64) float64 {
	return math.Round(prevClose*1.10*100) / 100
}

func (ChinaRules) IsLimitEvent(rc RowContext) bool {
	if math.IsNaN(rc.Ret) || rc.ETF {
		return false
	}
	return geq(rc.Ret, 0.095)
}

func (ChinaRules) IsLimitDown(rc RowContext) bool {
	if math.IsNaN(rc.Ret) || rc.ETF {
		return false
	}
	return leq(rc.Ret, -0.095)
}

func (ChinaRules) IsAnomaly(rc RowContext) bool { return absRet(rc) > 0.22 }

package market

import "math"

// KoreaRules implements the KRX ±30% wide-band limit.
type KoreaRules struct{}

func (KoreaRules) LimitPrice(prevClose float64) float64 {
	return math.Round(prevClose*1.30*100) / 100
}

func (KoreaRules) IsLimitEvent(rc RowContext) bool {
	if math.IsNaN(rc.Ret) || rc.ETF {
		return false
	}
	return geq(rc.Ret, 0.295)
}

func (KoreaRules) IsLimitDown(rc RowContext) bool {
	if math.IsNaN(rc.Ret) || rc.ETF {
		return false
	}
	return leq(rc.Ret, -0.295)
}

func (KoreaRules) IsAnomaly(rc RowContext) bool { return absRet(rc) > 0.35 }

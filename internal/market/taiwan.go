package market

import (
	"math"

	"AlphaRefinery/internal/domain/models"
)

// TaiwanRules covers both listed/OTC tiers (10% cap) and the emerging board
// (no cap, statistical flag only). ETFs carry different caps and are excluded
// from qualification.
type TaiwanRules struct{}

func (TaiwanRules) LimitPrice(prevClose float64) float64 {
	return math.Round(prevClose*1.10*100) / 100
}

func (TaiwanRules) IsLimitEvent(rc RowContext) bool {
	if math.IsNaN(rc.Ret) || rc.ETF {
		return false
	}
	if rc.Board == models.BoardEmerging {
		return false
	}
	return geq(rc.Ret, 0.095)
}

func (TaiwanRules) IsLimitDown(rc RowContext) bool {
	if math.IsNaN(rc.Ret) || rc.ETF || rc.Board == models.BoardEmerging {
		return false
	}
	return leq(rc.Ret, -0.095)
}

func (TaiwanRules) IsAnomaly(rc RowContext) bool {
	if rc.Board == models.BoardEmerging {
		return absRet(rc) > 0.80
	}
	return absRet(rc) > 0.11
}

package refine

import (
	"AlphaRefinery/internal/domain/models"
)

// classifyLUType assigns the behavioral subtype of a qualifying limit-up day.
// Priority order, first match wins. Reads only materialized columns; missing
// prerequisites fall through to the ordinary bucket.
func classifyLUType(rec *models.RefinedRecord) int {
	// locked-open: opened at the ceiling (one-tick tolerance) and never
	// traded a range
	if !models.IsAbsent(rec.LimitPrice) && rec.Open >= rec.LimitPrice-priceUnit(rec.LimitPrice) && rec.High == rec.Low {
		return models.LUTypeLockedOpen
	}
	if !models.IsAbsent(rec.PrevClose) && rec.PrevClose > 0 && rec.Open/rec.PrevClose-1 >= 0.07 {
		return models.LUTypeGapUp
	}
	if !models.IsAbsent(rec.VolRatio) && rec.VolRatio >= 3.0 {
		return models.LUTypeTurnover
	}
	return models.LUTypeOrdinary
}

// classifyFailType assigns the failure subtype of the day following a
// limit-up. Priority order, first match wins; a market without a limit
// concept uses the close as the ceiling reference.
func classifyFailType(rec *models.RefinedRecord) int {
	limitP := rec.LimitPrice
	if models.IsAbsent(limitP) {
		limitP = rec.Close
	}
	if !models.IsAbsent(rec.RetDay) && rec.RetDay <= -0.05 {
		return models.FailTypeCollapse
	}
	if rec.High >= limitP && !rec.IsLimitUp {
		return models.FailTypeRejected
	}
	if models.IsAbsent(rec.OvernightAlpha) || rec.OvernightAlpha <= 0 {
		return models.FailTypeNoPremium
	}
	return models.FailTypeNeutral
}

// priceUnit is the tick size at a given price level (TWSE-style bracket
// table). One tick is the tolerance for "opened at the limit": a limit price
// of 110.00 can only print at 109.50 or 110.00.
func priceUnit(price float64) float64 {
	switch {
	case price < 10:
		return 0.01
	case price < 50:
		return 0.05
	case price < 100:
		return 0.10
	case price < 500:
		return 0.50
	case price < 1000:
		return 1.00
	default:
		return 5.00
	}
}

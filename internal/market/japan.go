package market

import "math"

// JapanRules implements the TSE daily price limit: a fixed yen amount by
// previous-close bracket rather than a percentage cap.
type JapanRules struct{}

// bracketAmount is the TSE maximum daily move table.
func bracketAmount(price float64) float64 {
	switch {
	case price < 100:
		return 30
	case price < 500:
		return 80
	case price < 1000:
		return 150
	case price < 1500:
		return 300
	case price < 3000:
		return 500
	case price < 5000:
		return 700
	case price < 10000:
		return 1500
	case price < 30000:
		return 5000
	default:
		return 10000
	}
}

func (JapanRules) LimitPrice(prevClose float64) float64 {
	return prevClose + bracketAmount(prevClose)
}

// IsLimitEvent tolerates one yen below the computed limit; special-quote
// closes often print a tick under the theoretical ceiling.
func (r JapanRules) IsLimitEvent(rc RowContext) bool {
	if math.IsNaN(rc.Ret) {
		return false
	}
	return geq(rc.Close, r.LimitPrice(rc.PrevClose)-1)
}

func (JapanRules) IsLimitDown(RowContext) bool { return false }

// IsAnomaly flags closes far beyond the bracket: anything more than half a
// bracket above the limit is treated as a data error.
func (r JapanRules) IsAnomaly(rc RowContext) bool {
	if math.IsNaN(rc.Ret) {
		return false
	}
	return rc.Close > r.LimitPrice(rc.PrevClose)+bracketAmount(rc.PrevClose)*0.5
}

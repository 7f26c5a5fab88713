package models

import (
	"math"
	"time"
)

// PriceBar is one symbol-day OHLCV observation in the canonical schema.
// Date is a timezone-naive calendar day carried as UTC midnight.
type PriceBar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// IsGhost reports whether the bar is a non-trading placeholder row:
// zero volume with a completely flat OHLC. Ghost rows are dropped at
// normalization, never refined.
func (b PriceBar) IsGhost() bool {
	return b.Volume == 0 && b.Open == b.Close && b.High == b.Low
}

// StockInfo is per-symbol static market context joined by symbol.
// A missing join degrades to the default classification regime.
type StockInfo struct {
	Symbol string
	Name   string
	Sector string
	Board  string
}

// Board classifications used by market rules.
const (
	BoardListed   = "listed"   // main-tier board
	BoardOTC      = "otc"      // over-the-counter tier, same cap as listed
	BoardEmerging = "emerging" // alternative/emerging board, no cap
)

// NormalizeBoard folds the raw market-type strings found in stock_info
// (localized or English) onto the canonical board constants. Unrecognized
// values return "" and classification falls back to the default regime.
func NormalizeBoard(raw string) string {
	switch raw {
	case "上市", BoardListed, "main":
		return BoardListed
	case "上櫃", BoardOTC:
		return BoardOTC
	case "興櫃", BoardEmerging:
		return BoardEmerging
	default:
		return ""
	}
}

// RefinedRecord is a PriceBar enriched with every derived column the
// downstream consumers depend on. Field names map 1:1 onto the persisted
// column set; renaming a field here is a breaking contract change.
//
// Derived float fields use NaN for "absent" (insufficient history or no
// future data); the store persists NaN as SQL NULL.
type RefinedRecord struct {
	PriceBar

	PrevClose      float64
	RetDay         float64
	OvernightAlpha float64
	VolMA5         float64
	VolRatio       float64

	LimitPrice  float64
	IsLimitUp   bool
	IsLimitDown bool
	IsAnomaly   bool
	PrevLU      bool
	LUType      int
	FailType    int
	SeqLUCount  int

	Volatility10D  float64
	Volatility20D  float64
	Volatility50D  float64
	DrawdownHigh10 float64
	DrawdownHigh20 float64
	DrawdownHigh50 float64
	RecoveryLow10  float64

	Ret5D    float64
	Ret20D   float64
	Ret200D  float64
	RetWeek  float64
	RetMonth float64
	RetYear  float64

	Next1DMax  float64
	Next1DMin  float64
	Fwd5DMax   float64
	Fwd5DMin   float64
	Fwd610DMax float64
	Fwd610DMin float64
	Fwd1120Max float64
	Fwd1120Min float64
}

// LU behavioral subtypes, evaluated in priority order.
const (
	LUTypeNone       = 0
	LUTypeLockedOpen = 1 // opened at the limit and never traded a range
	LUTypeGapUp      = 2
	LUTypeTurnover   = 3
	LUTypeOrdinary   = 4
)

// Failure subtypes for the day after a limit-up, priority order.
const (
	FailTypeNeutral   = 0
	FailTypeCollapse  = 1
	FailTypeRejected  = 2 // touched the ceiling intraday, failed to hold
	FailTypeNoPremium = 4
)

// RefineSummary is the per-market status record returned by one refine run.
type RefineSummary struct {
	Market       string        `json:"market"`
	Table        string        `json:"table"`
	Rows         int           `json:"rows"`
	DroppedRows  int           `json:"dropped_rows"`
	LimitUpCount int           `json:"limit_up_count"`
	MaxRun       int           `json:"max_run"`
	Status       string        `json:"status"`
	Took         time.Duration `json:"took_ns"`
}

// Absent is the in-memory representation of a NULL derived column.
func Absent() float64 { return math.NaN() }

// IsAbsent reports whether a derived value is NULL.
func IsAbsent(f float64) bool { return math.IsNaN(f) }

package api

import (
	"time"

	"AlphaRefinery/internal/domain/models"
)

// refinedResponse is the wire shape of one enriched row. Derived columns are
// pointers so an absent value serializes as JSON null rather than NaN.
type refinedResponse struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`

	PrevClose      *float64 `json:"prev_close"`
	RetDay         *float64 `json:"ret_day"`
	OvernightAlpha *float64 `json:"overnight_alpha"`
	VolMA5         *float64 `json:"vol_ma5"`
	VolRatio       *float64 `json:"vol_ratio"`

	LimitPrice  *float64 `json:"limit_price"`
	IsLimitUp   bool     `json:"is_limit_up"`
	IsLimitDown bool     `json:"is_limit_down"`
	IsAnomaly   bool     `json:"is_anomaly"`
	PrevLU      bool     `json:"prev_lu"`
	LUType      int      `json:"lu_type"`
	FailType    int      `json:"fail_type"`
	SeqLUCount  int      `json:"seq_lu_count"`

	Volatility10D  *float64 `json:"volatility_10d"`
	Volatility20D  *float64 `json:"volatility_20d"`
	Volatility50D  *float64 `json:"volatility_50d"`
	DrawdownHigh10 *float64 `json:"drawdown_after_high_10d"`
	DrawdownHigh20 *float64 `json:"drawdown_after_high_20d"`
	DrawdownHigh50 *float64 `json:"drawdown_after_high_50d"`
	RecoveryLow10  *float64 `json:"recovery_from_dd_10d"`

	Ret5D    *float64 `json:"ret_5d"`
	Ret20D   *float64 `json:"ret_20d"`
	Ret200D  *float64 `json:"ret_200d"`
	RetWeek  *float64 `json:"ret_week"`
	RetMonth *float64 `json:"ret_month"`
	RetYear  *float64 `json:"ret_year"`

	Next1DMax  *float64 `json:"next_1d_max"`
	Next1DMin  *float64 `json:"next_1d_min"`
	Fwd5DMax   *float64 `json:"fwd_5d_max"`
	Fwd5DMin   *float64 `json:"fwd_5d_min"`
	Fwd610DMax *float64 `json:"fwd_6_10d_max"`
	Fwd610DMin *float64 `json:"fwd_6_10d_min"`
	Fwd1120Max *float64 `json:"fwd_11_20d_max"`
	Fwd1120Min *float64 `json:"fwd_11_20d_min"`
}

func toRefinedResponse(r *models.RefinedRecord) refinedResponse {
	return refinedResponse{
		Symbol: r.Symbol,
		Date:   r.Date,
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,

		PrevClose:      fptr(r.PrevClose),
		RetDay:         fptr(r.RetDay),
		OvernightAlpha: fptr(r.OvernightAlpha),
		VolMA5:         fptr(r.VolMA5),
		VolRatio:       fptr(r.VolRatio),

		LimitPrice:  fptr(r.LimitPrice),
		IsLimitUp:   r.IsLimitUp,
		IsLimitDown: r.IsLimitDown,
		IsAnomaly:   r.IsAnomaly,
		PrevLU:      r.PrevLU,
		LUType:      r.LUType,
		FailType:    r.FailType,
		SeqLUCount:  r.SeqLUCount,

		Volatility10D:  fptr(r.Volatility10D),
		Volatility20D:  fptr(r.Volatility20D),
		Volatility50D:  fptr(r.Volatility50D),
		DrawdownHigh10: fptr(r.DrawdownHigh10),
		DrawdownHigh20: fptr(r.DrawdownHigh20),
		DrawdownHigh50: fptr(r.DrawdownHigh50),
		RecoveryLow10:  fptr(r.RecoveryLow10),

		Ret5D:    fptr(r.Ret5D),
		Ret20D:   fptr(r.Ret20D),
		Ret200D:  fptr(r.Ret200D),
		RetWeek:  fptr(r.RetWeek),
		RetMonth: fptr(r.RetMonth),
		RetYear:  fptr(r.RetYear),

		Next1DMax:  fptr(r.Next1DMax),
		Next1DMin:  fptr(r.Next1DMin),
		Fwd5DMax:   fptr(r.Fwd5DMax),
		Fwd5DMin:   fptr(r.Fwd5DMin),
		Fwd610DMax: fptr(r.Fwd610DMax),
		Fwd610DMin: fptr(r.Fwd610DMin),
		Fwd1120Max: fptr(r.Fwd1120Max),
		Fwd1120Min: fptr(r.Fwd1120Min),
	}
}

func fptr(f float64) *float64 {
	if models.IsAbsent(f) {
		return nil
	}
	v := f
	return &v
}

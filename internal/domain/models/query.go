package models

import "time"

// LimitUpEntry is one row of the "today's limit-up" board: a qualifying
// symbol-day joined with its market context.
type LimitUpEntry struct {
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	Sector     string    `json:"sector"`
	Date       time.Time `json:"date"`
	Close      float64   `json:"close"`
	RetDay     float64   `json:"ret_day"`
	SeqLUCount int       `json:"seq_lu_count"`
}

// SymbolStats aggregates a symbol's historical post-limit-up behavior,
// consumed by the diagnosis views.
type SymbolStats struct {
	Symbol       string  `json:"symbol"`
	Total        int     `json:"total"`
	LimitUps     int     `json:"limit_ups"`
	AvgOvernight float64 `json:"avg_overnight"` // mean open premium after a limit-up
	AvgNext1DMax float64 `json:"avg_next_1d_max"`
}

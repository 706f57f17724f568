package models

import "time"

// TankerBalance is the derived fuel level of a tanker. It is recomputed from
// the transaction log on every read and never persisted as a source of truth.
type TankerBalance struct {
	TankerID    string    `json:"tanker_id" bson:"tanker_id"`
	TotalIn     float64   `json:"total_in" bson:"total_in"`
	TotalOut    float64   `json:"total_out" bson:"total_out"`
	Balance     float64   `json:"balance" bson:"balance"`
	Capacity    float64   `json:"capacity" bson:"capacity"`
	PercentFull float64   `json:"percent_full" bson:"percent_full"`
	Warnings    []Warning `json:"warnings,omitempty" bson:"warnings,omitempty"`
}

// Gauge clamps PercentFull into [0, 1] for progress-bar display. The raw
// ratio stays untouched so negative balances remain visible in the data.
func (b TankerBalance) Gauge() float64 {
	switch {
	case b.PercentFull < 0:
		return 0
	case b.PercentFull > 1:
		return 1
	}
	return b.PercentFull
}

// BalanceSnapshot is the daily record of all tanker balances stored in MongoDB.
type BalanceSnapshot struct {
	Date      time.Time       `bson:"date" json:"date"`
	Balances  []TankerBalance `bson:"balances" json:"balances"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
}

package models

import "time"

// ReceiptEvent records fuel coming in to a tanker from an external station.
// Events are append-only; nothing updates or deletes them after the fact.
type ReceiptEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	Date          time.Time `json:"date"`
	TankerID      string    `json:"tanker_no"`
	SourceStation string    `json:"source_station"`
	FuelInLiters  float64   `json:"fuel_in_liters"`
	Reference     string    `json:"reference,omitempty"`
}

// DispenseEvent records fuel going out of a tanker into a fleet asset.
// Category and MeterUnit are denormalized from the registry at write time
// so the log stays readable even if the registry changes later. Append-only.
type DispenseEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	Date          time.Time `json:"date"`
	FleetNo       string    `json:"fleet_no"`
	Category      Category  `json:"category"`
	SourceTanker  string    `json:"source_tanker"`
	FuelOutLiters float64   `json:"fuel_out_liters"`
	CurrentMeter  float64   `json:"current_meter"`
	MeterUnit     MeterUnit `json:"meter_unit"`
	Operator      string    `json:"operator,omitempty"`
	Remarks       string    `json:"remarks,omitempty"`
}

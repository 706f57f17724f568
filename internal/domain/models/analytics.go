package models

// CategoryConsumption is total fuel dispensed to one asset category.
type CategoryConsumption struct {
	Category Category `json:"category"`
	Liters   float64  `json:"liters"`
}

// ConsumerTotal is total fuel dispensed to one fleet asset.
type ConsumerTotal struct {
	FleetNo string  `json:"fleet_no"`
	Liters  float64 `json:"liters"`
}

// FleetSummary holds the analytics dashboard KPIs, all derived from the
// dispensing log at read time.
type FleetSummary struct {
	TotalFuelOut float64               `json:"total_fuel_out"`
	Transactions int                   `json:"transactions"`
	ActiveAssets int                   `json:"active_assets"`
	ByCategory   []CategoryConsumption `json:"by_category"`
	TopConsumers []ConsumerTotal       `json:"top_consumers"`
	Recent       []DispenseEvent       `json:"recent"`
}

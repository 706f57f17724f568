package models

import "fmt"

// WarningCode identifies a class of data-quality anomaly.
type WarningCode string

const (
	WarningNonMonotonicMeter WarningCode = "non_monotonic_meter"
	WarningBenchmarkVariance WarningCode = "benchmark_variance"
	WarningNegativeBalance   WarningCode = "negative_balance"
)

// Warning is an advisory annotation attached to an event or a balance.
// Warnings never block an append; they exist for display and alerting.
type Warning struct {
	Code    WarningCode `json:"code" bson:"code"`
	Message string      `json:"message" bson:"message"`
}

// NewNonMonotonicMeterWarning flags a meter reading lower than the previous
// one for the same fleet number.
func NewNonMonotonicMeterWarning(fleetNo string, previous, current float64) Warning {
	return Warning{
		Code:    WarningNonMonotonicMeter,
		Message: fmt.Sprintf("meter for %s went backwards: %.1f after %.1f", fleetNo, current, previous),
	}
}

// NewBenchmarkVarianceWarning flags fuel consumption outside the benchmark band.
func NewBenchmarkVarianceWarning(fleetNo string, actual, expected, variancePct float64) Warning {
	return Warning{
		Code: WarningBenchmarkVariance,
		Message: fmt.Sprintf("%s consumed %.1f L against an expected %.1f L (%+.1f%%)",
			fleetNo, actual, expected, variancePct),
	}
}

// NewNegativeBalanceWarning flags a tanker whose dispensed total exceeds its
// logged receipts, usually a sign of missing receipt entries.
func NewNegativeBalanceWarning(tankerID string, balance float64) Warning {
	return Warning{
		Code:    WarningNegativeBalance,
		Message: fmt.Sprintf("tanker %s balance is %.1f L; dispensing exceeds logged receipts", tankerID, balance),
	}
}

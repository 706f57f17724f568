package models

import (
	"fmt"
	"strings"
)

// Category classifies a fleet asset.
type Category string

const (
	CategoryVehicle   Category = "Vehicle"
	CategoryBus       Category = "Bus"
	CategoryEquipment Category = "Equipment"
	CategoryMachine   Category = "Machine"
	CategoryTanker    Category = "Tanker"
)

// MeterUnit is the unit of an asset's usage meter.
type MeterUnit string

const (
	MeterUnitKm    MeterUnit = "Km"
	MeterUnitHours MeterUnit = "Hours"
)

// categoryAliases maps the spellings found in real sheet data to canonical categories.
var categoryAliases = map[string]Category{
	"vehicle":           CategoryVehicle,
	"vehicles":          CategoryVehicle,
	"bus":               CategoryBus,
	"buses":             CategoryBus,
	"equipment":         CategoryEquipment,
	"machine":           CategoryMachine,
	"machines":          CategoryMachine,
	"machine/equipment": CategoryEquipment,
	"equipment/machine": CategoryEquipment,
	"tanker":            CategoryTanker,
	"tankers":           CategoryTanker,
}

// NormalizeCategory resolves free-form category text to its canonical form.
// The second return value reports whether the input could be resolved.
func NormalizeCategory(raw string) (Category, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	key := strings.ToLower(trimmed)
	key = strings.ReplaceAll(key, "&", "/")
	key = strings.ReplaceAll(key, " and ", "/")
	key = strings.ReplaceAll(key, " ", "")

	if canonical, ok := categoryAliases[key]; ok {
		return canonical, true
	}

	return "", false
}

// MeterUnit returns the meter unit used by assets of this category.
// Equipment, machines and tankers track engine hours; everything else tracks kilometers.
func (c Category) MeterUnit() MeterUnit {
	switch c {
	case CategoryEquipment, CategoryMachine, CategoryTanker:
		return MeterUnitHours
	default:
		return MeterUnitKm
	}
}

// Valid reports whether the category is one of the five canonical values.
func (c Category) Valid() bool {
	switch c {
	case CategoryVehicle, CategoryBus, CategoryEquipment, CategoryMachine, CategoryTanker:
		return true
	}
	return false
}

// Asset is a registered fleet asset. The registry loads assets once per
// session; they are immutable afterwards.
type Asset struct {
	FleetNo     string   `json:"fleet_no"`
	AssetID     string   `json:"asset_id"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	PlateNumber string   `json:"plate_number,omitempty"`
	// BenchmarkKmL is the expected kilometers per liter. Set only for
	// vehicles; nil for every other category.
	BenchmarkKmL *float64 `json:"benchmark_km_per_l,omitempty"`
}

// IsTanker reports whether the asset is a mobile fuel tanker.
func (a Asset) IsTanker() bool {
	return a.Category == CategoryTanker
}

// SearchLabel renders the type-ahead label shown in the entry form,
// e.g. "HSC-101 | Fuel Tanker 12000L (AB-1234)".
func (a Asset) SearchLabel() string {
	return fmt.Sprintf("%s | %s (%s)", a.FleetNo, a.Description, a.PlateNumber)
}

// Package valuation turns device attributes into an estimated value, a
// disposition recommendation, and environmental impact figures.
package valuation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Formula holds the per-device-type eco-impact coefficients.
type Formula struct {
	BaseValue   int     `yaml:"base_value"`
	WaterPerKg  float64 `yaml:"water_per_kg"` // liters
	CO2PerKg    float64 `yaml:"co2_per_kg"`   // kg
	ToxicPerKg  float64 `yaml:"toxic_per_kg"` // kg
	PointsPerKg float64 `yaml:"points_per_kg"`
}

// FormulaTable maps device types to their formulas.
type FormulaTable map[string]Formula

// defaultFormulas is the built-in eco-impact table. A YAML file from config
// can override or extend it.
var defaultFormulas = FormulaTable{
	"laptop":     {BaseValue: 300, WaterPerKg: 1200, CO2PerKg: 4.8, ToxicPerKg: 0.25, PointsPerKg: 25},
	"smartphone": {BaseValue: 250, WaterPerKg: 1500, CO2PerKg: 6.0, ToxicPerKg: 0.30, PointsPerKg: 30},
	"tablet":     {BaseValue: 200, WaterPerKg: 1300, CO2PerKg: 5.2, ToxicPerKg: 0.28, PointsPerKg: 26},
	"desktop":    {BaseValue: 250, WaterPerKg: 900, CO2PerKg: 3.5, ToxicPerKg: 0.20, PointsPerKg: 18},
	"monitor":    {BaseValue: 120, WaterPerKg: 700, CO2PerKg: 2.8, ToxicPerKg: 0.35, PointsPerKg: 14},
	"tv":         {BaseValue: 180, WaterPerKg: 650, CO2PerKg: 2.6, ToxicPerKg: 0.40, PointsPerKg: 12},
	"printer":    {BaseValue: 80, WaterPerKg: 500, CO2PerKg: 2.0, ToxicPerKg: 0.30, PointsPerKg: 10},
	"console":    {BaseValue: 150, WaterPerKg: 800, CO2PerKg: 3.2, ToxicPerKg: 0.22, PointsPerKg: 16},
	"router":     {BaseValue: 40, WaterPerKg: 400, CO2PerKg: 1.6, ToxicPerKg: 0.15, PointsPerKg: 8},
	"camera":     {BaseValue: 120, WaterPerKg: 1000, CO2PerKg: 4.0, ToxicPerKg: 0.20, PointsPerKg: 20},
}

// LoadFormulaTable returns the built-in table, overlaid with entries from the
// YAML file at path when one is configured.
func LoadFormulaTable(path string) (FormulaTable, error) {
	table := make(FormulaTable, len(defaultFormulas))
	for deviceType, formula := range defaultFormulas {
		table[deviceType] = formula
	}

	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read formula file %s: %w", path, err)
	}

	var overrides FormulaTable
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse formula file %s: %w", path, err)
	}

	for deviceType, formula := range overrides {
		table[deviceType] = formula
	}
	return table, nil
}

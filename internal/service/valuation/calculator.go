package valuation

import (
	"fmt"
	"math"

	"gorm.io/gorm"

	prommetrics "github.com/ecocycle/ecocycle/internal/metrics"
	"github.com/ecocycle/ecocycle/internal/models"
	"github.com/ecocycle/ecocycle/pkg/logger"
)

// defaultAgeYears applies when the caller does not supply a device age.
const defaultAgeYears = 2

// conditionMultipliers scale the base value by device condition.
var conditionMultipliers = map[string]float64{
	models.ConditionExcellent: 1.0,
	models.ConditionGood:      0.8,
	models.ConditionFair:      0.6,
	models.ConditionPoor:      0.4,
	models.ConditionBroken:    0.2,
}

// unknownConditionMultiplier applies to unrecognized condition strings.
const unknownConditionMultiplier = 0.5

// ImpactWriter persists impact reports inside the caller's transaction.
type ImpactWriter interface {
	CreateTx(tx *gorm.DB, report *models.ImpactReport) error
}

// PointsCrediter credits points to a user inside the caller's transaction.
type PointsCrediter interface {
	CreditPointsTx(tx *gorm.DB, userID uint, points int, reason string) error
}

// Calculator values devices and records their environmental impact.
type Calculator struct {
	formulas    FormulaTable
	defaultBase int
	impacts     ImpactWriter
	points      PointsCrediter
	log         *logger.Logger
}

// NewCalculator creates a calculator over a formula table.
func NewCalculator(formulas FormulaTable, defaultBase int, impacts ImpactWriter, points PointsCrediter, log *logger.Logger) *Calculator {
	return &Calculator{
		formulas:    formulas,
		defaultBase: defaultBase,
		impacts:     impacts,
		points:      points,
		log:         log,
	}
}

// EstimateInput holds the device attributes used for valuation.
type EstimateInput struct {
	DeviceType string
	Condition  string
	AgeYears   *int // nil defaults to 2
	WeightKg   float64
}

// EstimateResult is the valuation exposed to collaborators.
type EstimateResult struct {
	EstimatedValue int    `json:"estimated_value"`
	Recommendation string `json:"recommendation"`
}

// Estimate computes the estimated value and disposition recommendation for a
// device. An unknown device type falls back to the default base value; this
// path never errors.
func (c *Calculator) Estimate(in EstimateInput) EstimateResult {
	base := c.defaultBase
	if formula, ok := c.formulas[in.DeviceType]; ok {
		base = formula.BaseValue
	} else {
		c.log.Debug().
			Str("device_type", in.DeviceType).
			Msg("No formula for device type, using default base value")
	}

	conditionMult, ok := conditionMultipliers[in.Condition]
	if !ok {
		conditionMult = unknownConditionMultiplier
	}

	age := defaultAgeYears
	if in.AgeYears != nil {
		age = *in.AgeYears
	}
	ageMult := math.Max(0.2, 1-0.15*float64(age))

	value := int(math.Round(float64(base) * conditionMult * ageMult))

	prommetrics.ObserveEstimatedValue(value)

	return EstimateResult{
		EstimatedValue: value,
		Recommendation: recommend(value, in.Condition),
	}
}

// recommend applies the disposition policy, first match wins.
func recommend(value int, condition string) string {
	switch {
	case value > 200 && condition != models.ConditionBroken:
		return models.RecommendationResell
	case value > 100 && (condition == models.ConditionExcellent || condition == models.ConditionGood):
		return models.RecommendationDonate
	case condition == models.ConditionBroken || value < 50:
		return models.RecommendationRecycle
	default:
		return models.RecommendationRepair
	}
}

// RecordImpact computes the environmental savings for a processed device,
// writes the impact report and credits the owner's points, all within tx.
// A missing formula row logs a warning and records nothing. The calculator
// performs no deduplication; callers guarantee at-most-once invocation per
// device.
func (c *Calculator) RecordImpact(tx *gorm.DB, device *models.Device) (*models.ImpactReport, error) {
	formula, ok := c.formulas[device.DeviceType]
	if !ok {
		c.log.Warn().
			Uint("device_id", device.ID).
			Str("device_type", device.DeviceType).
			Msg("No eco-impact formula for device type, skipping impact recording")
		return nil, nil
	}

	weight := device.WeightKg
	points := int(math.Round(formula.PointsPerKg * weight))

	report := &models.ImpactReport{
		DeviceID:        device.ID,
		UserID:          device.UserID,
		WaterSaved:      formula.WaterPerKg * weight,
		CO2Saved:        formula.CO2PerKg * weight,
		ToxicWasteSaved: formula.ToxicPerKg * weight,
		PointsAwarded:   points,
	}

	if err := c.impacts.CreateTx(tx, report); err != nil {
		return nil, fmt.Errorf("failed to record impact for device %d: %w", device.ID, err)
	}

	if err := c.points.CreditPointsTx(tx, device.UserID, points, "impact"); err != nil {
		return nil, fmt.Errorf("failed to credit impact points for device %d: %w", device.ID, err)
	}

	prommetrics.RecordImpactReport(device.DeviceType)

	c.log.Info().
		Uint("device_id", device.ID).
		Uint("user_id", device.UserID).
		Float64("water_saved", report.WaterSaved).
		Float64("co2_saved", report.CO2Saved).
		Int("points", points).
		Msg("Impact recorded")

	return report, nil
}

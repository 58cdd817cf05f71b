package rating

import (
	"math"

	"github.com/verte-zerg/drumrate/internal/model"
)

// AccuracyToScore maps accuracy in [0, 1] to the accuracy score y.
func AccuracyToScore(accuracy float64) float64 {
	switch {
	case accuracy <= AccuracyFloor:
		return 0
	case accuracy <= AccuracyBreakLow:
		return accuracyPolyCoef * math.Pow(accuracy-AccuracyFloor, accuracyPolyExp)
	case accuracy <= AccuracyBreakHigh:
		return accuracyLinSlope*accuracy + accuracyLinOffset
	default:
		return accuracyExpScale*math.Exp(accuracyExpRate*math.Pow(accuracy, accuracyExpPower)) + accuracyExpOffset
	}
}

// StaminaRaw blends average and peak note density into a stamina indicator.
func StaminaRaw(avgDensity, instDensity float64) float64 {
	if avgDensity > instDensity {
		if avgDensity == 0 {
			return 0
		}
		return avgDensity + (avgDensity/100)*(1-instDensity/avgDensity)*(100-avgDensity)
	}
	if instDensity == 0 {
		return 0
	}
	return avgDensity - (1-avgDensity/instDensity)*avgDensity
}

// SpeedRaw blends peak and average note density into a speed indicator.
func SpeedRaw(instDensity, avgDensity float64) float64 {
	if instDensity > avgDensity {
		if instDensity == 0 {
			return 0
		}
		return instDensity - (1-avgDensity/instDensity)*(instDensity-avgDensity)
	}
	if avgDensity == 0 {
		return 0
	}
	return instDensity + (1-instDensity/avgDensity)*(avgDensity-instDensity)
}

// RhythmRaw combines note separation with BPM changes.
func RhythmRaw(separation, bpmChange float64) float64 {
	return separation + (separation/100)*(bpmChange/100)*(100-separation)
}

// ComplexRaw is the composite metric as-is.
func ComplexRaw(composite float64) float64 {
	return composite
}

// Indicator returns the chart-only indicator behind a dimension.
func Indicator(data model.ChartLevelData, dim model.Dimension) float64 {
	switch dim {
	case model.DimStamina:
		return StaminaRaw(data.AvgDensity, data.InstDensity)
	case model.DimSpeed:
		return SpeedRaw(data.InstDensity, data.AvgDensity)
	case model.DimRhythm:
		return RhythmRaw(data.Separation, data.BPMChange)
	case model.DimComplex:
		return ComplexRaw(data.Composite)
	default:
		return DifficultyToScale(data.Constant)
	}
}

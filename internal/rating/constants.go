// Package rating turns chart metrics and judgment counts into per-chart skill ratings.
package rating

// Accuracy curve breakpoints. The curve is zero up to AccuracyFloor and
// continuous across both breakpoints.
const (
	AccuracyFloor     = 0.5
	AccuracyBreakLow  = 0.6832
	AccuracyBreakHigh = 0.9625
	accuracyPolyCoef  = 4425.0 // low segment: coef * (a-0.5)^exp
	accuracyPolyExp   = 4.876
	accuracyLinSlope  = 30.748 // middle segment: slope*a + intercept
	accuracyLinOffset = -19.88
	accuracyExpScale  = 0.228 // high segment: scale*e^(rate*a^power) + offset
	accuracyExpRate   = 3.386
	accuracyExpPower  = 24.658
	accuracyExpOffset = 8.862
)

// Difficulty scale bounds.
const (
	MinScale = 0.05
	MaxScale = 15.5
)

// Combination parameters.
const (
	exponentRadius  = 150.0 // P1
	weightRadiusSq  = 25.0
	weightCenterY   = 23.0
	weightXSpread   = 25.0
	weightYSpread   = 69.0
	weightOffset    = 4.0
	weightFloor     = 0.5
	exponentEpsilon = 1e-9
)

// Good judgment weights per accuracy algorithm.
const (
	GoodWeightGreatOnly     = 0.0
	GoodWeightComprehensive = 0.5
)

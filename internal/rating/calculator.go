package rating

import (
	"math"

	"github.com/verte-zerg/drumrate/internal/model"
)

// AdaptiveExponent returns the power-mean exponent for a chart. Close x and y give
// a small exponent (mean-like), distant ones push it toward the max-like radius.
func AdaptiveExponent(x, y float64) float64 {
	d := x - y
	term := exponentRadius*exponentRadius - d*d/2
	if term < 0 {
		return exponentRadius
	}
	return exponentRadius - math.Sqrt(term)
}

// AdaptiveWeight returns the weight of x in the power mean, in [0.5, 1].
func AdaptiveWeight(x, y float64) float64 {
	dx := x - MaxScale
	dy := y - weightCenterY
	term := weightRadiusSq - dx*dx/weightXSpread - dy*dy/weightYSpread
	if term < 0 {
		return weightFloor
	}
	return math.Max(math.Sqrt(term)-weightOffset, weightFloor)
}

// ChartRating combines the difficulty scale x and accuracy score y.
func ChartRating(x, y float64) float64 {
	x = math.Max(x, 0)
	y = math.Max(y, 0)
	top := math.Max(x, y)
	if top == 0 {
		return 0
	}
	p := AdaptiveExponent(x, y)
	w := AdaptiveWeight(x, y)
	if p < exponentEpsilon {
		// Limit of the power mean for p -> 0.
		if x == 0 || y == 0 {
			return 0
		}
		return math.Exp(w*math.Log(x) + (1-w)*math.Log(y))
	}
	// Scale by the larger input so x^p cannot overflow for large p.
	sum := w*math.Pow(x/top, p) + (1-w)*math.Pow(y/top, p)
	return top * math.Pow(sum, 1/p)
}

// Boundaries holds the rating range a chart can span along each input axis.
type Boundaries struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// CalcBoundaries evaluates the rating at the edges of x and y while holding the other fixed.
func CalcBoundaries(x, y float64) Boundaries {
	yMax := AccuracyToScore(1)
	return Boundaries{
		XMin: ChartRating(MinScale, y),
		XMax: ChartRating(MaxScale, y),
		YMin: ChartRating(x, 0),
		YMax: ChartRating(x, yMax),
	}
}

// GoodWeight returns the contribution of a good judgment for the algorithm.
func GoodWeight(algo model.Algorithm) float64 {
	if algo == model.AlgorithmComprehensive {
		return GoodWeightComprehensive
	}
	return GoodWeightGreatOnly
}

// Accuracy returns the weighted accuracy of a score against a chart, clamped to 1.
func Accuracy(data model.ChartLevelData, score model.UserScore, goodWeight float64) (float64, bool) {
	if data.TotalNotes <= 0 {
		return 0, false
	}
	acc := (float64(score.Great) + float64(score.Good)*goodWeight) / float64(data.TotalNotes)
	return math.Min(acc, 1), true
}

// CalculateSongStats rates a score with great-only accuracy.
func CalculateSongStats(data model.ChartLevelData, score model.UserScore, title string) (model.SongStats, bool) {
	return CalculateSongStatsWeighted(data, score, title, GoodWeightGreatOnly)
}

// CalculateSongStatsWeighted rates a score. It reports false when the chart is not
// ratable: no notes, or accuracy below AccuracyFloor.
func CalculateSongStatsWeighted(data model.ChartLevelData, score model.UserScore, title string, goodWeight float64) (model.SongStats, bool) {
	acc, ok := Accuracy(data, score, goodWeight)
	if !ok || acc < AccuracyFloor {
		return model.SongStats{}, false
	}
	dims := dimensionsAt(data, acc)
	return model.SongStats{
		ID:            score.ID,
		Level:         score.Level,
		Title:         title,
		Rating:        dims.Rating,
		Daigouryoku:   dims.Daigouryoku,
		Stamina:       dims.Stamina,
		Speed:         dims.Speed,
		AccuracyPower: dims.AccuracyPower,
		Rhythm:        dims.Rhythm,
		Complex:       dims.Complex,
		Great:         score.Great,
		Good:          score.Good,
		Bad:           score.Bad,
	}, true
}

// CalcMaxRatings returns the ceiling of every dimension on a chart, i.e. at accuracy 1.
func CalcMaxRatings(data model.ChartLevelData) model.Dimensions {
	return dimensionsAt(data, 1)
}

func dimensionsAt(data model.ChartLevelData, accuracy float64) model.Dimensions {
	x := DifficultyToScale(data.Constant)
	y := AccuracyToScore(accuracy)
	r := ChartRating(x, y)
	return model.Dimensions{
		Rating:        r,
		Daigouryoku:   math.Sqrt(r * x),
		Stamina:       blend(r, StaminaRaw(data.AvgDensity, data.InstDensity)),
		Speed:         blend(r, SpeedRaw(data.InstDensity, data.AvgDensity)),
		AccuracyPower: math.Sqrt(r * y),
		Rhythm:        blend(r, RhythmRaw(data.Separation, data.BPMChange)),
		Complex:       blend(r, ComplexRaw(data.Composite)),
	}
}

func blend(r, raw float64) float64 {
	if raw <= 0 || math.IsNaN(raw) {
		return 0
	}
	return math.Sqrt(r * raw * MaxScale / 100)
}

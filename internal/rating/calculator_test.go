package rating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/drumrate/internal/model"
)

func TestAccuracyToScoreBreakpoints(t *testing.T) {
	assert.Equal(t, 0.0, AccuracyToScore(0))
	assert.Equal(t, 0.0, AccuracyToScore(0.5))

	lowPoly := accuracyPolyCoef * math.Pow(AccuracyBreakLow-AccuracyFloor, accuracyPolyExp)
	lowLin := accuracyLinSlope*AccuracyBreakLow + accuracyLinOffset
	assert.InDelta(t, lowPoly, lowLin, 1e-3)

	highLin := accuracyLinSlope*AccuracyBreakHigh + accuracyLinOffset
	highExp := accuracyExpScale*math.Exp(accuracyExpRate*math.Pow(AccuracyBreakHigh, accuracyExpPower)) + accuracyExpOffset
	assert.InDelta(t, highLin, highExp, 1e-3)

	assert.InDelta(t, 9.3306, AccuracyToScore(0.95), 1e-9)
	assert.InDelta(t, 15.5988, AccuracyToScore(1), 1e-3)
}

func TestAccuracyToScoreNonDecreasing(t *testing.T) {
	prev := AccuracyToScore(0)
	for i := 1; i <= 10000; i++ {
		a := float64(i) / 10000
		v := AccuracyToScore(a)
		if v < prev-1e-9 {
			t.Fatalf("score decreased at %.4f: %v < %v", a, v, prev)
		}
		prev = v
	}
}

func TestDifficultyToScale(t *testing.T) {
	assert.Equal(t, 11.09, DifficultyToScale(9.6))
	assert.Equal(t, MaxScale, DifficultyToScale(11.6))
	assert.Equal(t, MinScale, DifficultyToScale(1.0))
	assert.Equal(t, MinScale, DifficultyToScale(9.65))
	assert.Equal(t, MinScale, DifficultyToScale(11.7))
	assert.Equal(t, MinScale, DifficultyToScale(0))
	// Constants arrive as decimal literals; 0.1 steps must still resolve.
	assert.Equal(t, 4.66, DifficultyToScale(5.0+1.0))
	assert.Equal(t, 7.26, DifficultyToScale(0.1*76))
}

func TestDifficultyTableIsMonotonic(t *testing.T) {
	prev := 0.0
	for k := 10; k <= 116; k++ {
		v, ok := scaleTable[k]
		require.True(t, ok, "missing constant %d", k)
		require.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestAdaptiveExponent(t *testing.T) {
	assert.Equal(t, 0.0, AdaptiveExponent(7, 7))
	assert.Equal(t, exponentRadius, AdaptiveExponent(400, 0))
	assert.Greater(t, AdaptiveExponent(15, 1), AdaptiveExponent(10, 5))
}

func TestAdaptiveWeight(t *testing.T) {
	assert.InDelta(t, 1.0, AdaptiveWeight(MaxScale, 23), 1e-12)
	assert.Equal(t, weightFloor, AdaptiveWeight(0, 0))
	for x := 0.0; x <= 16; x += 0.5 {
		for y := 0.0; y <= 16; y += 0.5 {
			w := AdaptiveWeight(x, y)
			if w < 0.5 || w > 1 {
				t.Fatalf("weight out of range at (%v, %v): %v", x, y, w)
			}
		}
	}
}

func TestChartRatingBounded(t *testing.T) {
	for x := 0.05; x <= MaxScale; x += 0.35 {
		for y := 0.0; y <= 15.6; y += 0.4 {
			r := ChartRating(x, y)
			lo := math.Min(x, y)
			hi := math.Max(x, y)
			if r < lo-1e-9 || r > hi+1e-9 || math.IsNaN(r) {
				t.Fatalf("rating %v outside [%v, %v] for (%v, %v)", r, lo, hi, x, y)
			}
		}
	}
}

func TestChartRatingEqualInputs(t *testing.T) {
	assert.InDelta(t, 5.0, ChartRating(5, 5), 1e-9)
	assert.Equal(t, 0.0, ChartRating(0, 0))
}

func TestChartRatingApproachesMaxForDistantInputs(t *testing.T) {
	r := ChartRating(400, 1)
	assert.False(t, math.IsInf(r, 0))
	assert.InDelta(t, 400*math.Pow(0.5, 1/exponentRadius), r, 1e-9)
	assert.InDelta(t, 400, r, 400*0.01)
}

func TestCalculateSongStatsEndToEnd(t *testing.T) {
	data := model.ChartLevelData{
		Constant:    9.6,
		TotalNotes:  1000,
		Composite:   40,
		AvgDensity:  8,
		InstDensity: 12,
		Separation:  30,
		BPMChange:   20,
	}
	score := model.UserScore{ID: 7, Level: model.TierOni, Great: 950, Good: 30, Bad: 20}

	st, ok := CalculateSongStats(data, score, "Song")
	require.True(t, ok)

	x := DifficultyToScale(9.6)
	y := AccuracyToScore(0.95)
	assert.Equal(t, ChartRating(x, y), st.Rating)
	assert.InDelta(t, 10.4185, st.Rating, 1e-3)
	assert.Equal(t, math.Sqrt(st.Rating*x), st.Daigouryoku)
	assert.Equal(t, math.Sqrt(st.Rating*y), st.AccuracyPower)
	for _, d := range model.AllDimensions {
		assert.Greater(t, d.Of(st), 0.0, d)
	}
	assert.Equal(t, "Song", st.Title)
	assert.Equal(t, 950, st.Great)
	assert.Equal(t, model.ChartKey{ID: 7, Tier: model.TierOni}, st.Key())
}

func TestCalculateSongStatsNotRatable(t *testing.T) {
	data := model.ChartLevelData{Constant: 8, TotalNotes: 1000}
	_, ok := CalculateSongStats(data, model.UserScore{Great: 499, Good: 400}, "low")
	assert.False(t, ok)

	_, ok = CalculateSongStats(model.ChartLevelData{Constant: 8}, model.UserScore{Great: 10}, "empty")
	assert.False(t, ok)
}

func TestCalculateSongStatsGoodWeight(t *testing.T) {
	data := model.ChartLevelData{Constant: 9.6, TotalNotes: 1000}
	score := model.UserScore{Great: 400, Good: 300}

	_, ok := CalculateSongStatsWeighted(data, score, "", GoodWeight(model.AlgorithmGreatOnly))
	assert.False(t, ok)

	st, ok := CalculateSongStatsWeighted(data, score, "", GoodWeight(model.AlgorithmComprehensive))
	require.True(t, ok)
	assert.Equal(t, ChartRating(DifficultyToScale(9.6), AccuracyToScore(0.55)), st.Rating)
}

func TestAccuracyClampedToOne(t *testing.T) {
	acc, ok := Accuracy(model.ChartLevelData{TotalNotes: 100}, model.UserScore{Great: 120}, 0)
	require.True(t, ok)
	assert.Equal(t, 1.0, acc)
}

func TestCalcMaxRatingsIsCeiling(t *testing.T) {
	data := model.ChartLevelData{Constant: 10.2, TotalNotes: 800, Composite: 55, AvgDensity: 9, InstDensity: 14, Separation: 40, BPMChange: 10}
	ceiling := CalcMaxRatings(data)
	st, ok := CalculateSongStats(data, model.UserScore{Great: 780}, "")
	require.True(t, ok)
	for _, d := range model.AllDimensions {
		assert.GreaterOrEqual(t, ceiling.Get(d), d.Of(st), d)
	}
}

func TestCalcBoundaries(t *testing.T) {
	b := CalcBoundaries(11.09, 9.33)
	assert.LessOrEqual(t, b.XMin, b.XMax)
	assert.LessOrEqual(t, b.YMin, b.YMax)
	assert.Less(t, b.YMin, 11.09)
	assert.Greater(t, b.YMax, b.YMin)
}

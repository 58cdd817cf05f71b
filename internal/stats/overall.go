package stats

import (
	"sort"

	"github.com/verte-zerg/drumrate/internal/model"
)

// Calibration holds the reference values of a full-score player for one dimension.
type Calibration struct {
	FullMedian  float64
	FullAverage float64
	Threshold   float64
}

// Calibrations per dimension.
var Calibrations = map[model.Dimension]Calibration{
	model.DimRating:        {FullMedian: 15.28, FullAverage: 15.31, Threshold: 14.59},
	model.DimDaigouryoku:   {FullMedian: 15.26, FullAverage: 15.29, Threshold: 14.54},
	model.DimStamina:       {FullMedian: 14.68, FullAverage: 14.92, Threshold: 13.36},
	model.DimSpeed:         {FullMedian: 14.25, FullAverage: 14.59, Threshold: 14.00},
	model.DimAccuracyPower: {FullMedian: 15.44, FullAverage: 15.45, Threshold: 15.08},
	model.DimRhythm:        {FullMedian: 14.52, FullAverage: 14.83, Threshold: 14.02},
	model.DimComplex:       {FullMedian: 13.77, FullAverage: 14.26, Threshold: 13.45},
}

const compensateCeiling = 15.5

// TopValueCompensate lifts the median toward the scale ceiling once the average
// passes the threshold.
func TopValueCompensate(median, fullMedian, average, fullAverage, threshold float64) float64 {
	if average < threshold {
		return median
	}
	if fullAverage == threshold {
		return median
	}
	per := (average - threshold) / (fullAverage - threshold)
	return median + per*(compensateCeiling-fullMedian)
}

// DimensionScore runs median, weighted average and compensation for one dimension.
func DimensionScore(list []model.SongStats, dim model.Dimension) float64 {
	cal := Calibrations[dim]
	return TopValueCompensate(
		Top20Median(list, dim),
		cal.FullMedian,
		Top20WeightedAverage(list, dim),
		cal.FullAverage,
		cal.Threshold,
	)
}

// Summary is the headline rating with its radar axes.
type Summary struct {
	Overall float64
	Radar   model.Dimensions
	Rated   int
}

// Overall de-duplicates the stats and scores every dimension.
func Overall(list []model.SongStats, groups []model.DuplicateGroup) Summary {
	filtered := FilterDuplicateSongs(list, groups)
	var radar model.Dimensions
	for _, d := range model.AllDimensions {
		radar.Set(d, DimensionScore(filtered, d))
	}
	return Summary{
		Overall: radar.Rating,
		Radar:   radar,
		Rated:   len(filtered),
	}
}

// WeakDimensions returns the n radar axes with the lowest score, rating excluded.
func WeakDimensions(s Summary, n int) []model.Dimension {
	dims := make([]model.Dimension, 0, len(model.AllDimensions)-1)
	for _, d := range model.AllDimensions {
		if d == model.DimRating {
			continue
		}
		dims = append(dims, d)
	}
	sort.SliceStable(dims, func(i, j int) bool {
		return s.Radar.Get(dims[i]) < s.Radar.Get(dims[j])
	})
	if n <= 0 || n > len(dims) {
		n = len(dims)
	}
	return dims[:n]
}

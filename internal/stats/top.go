package stats

import (
	"math"
	"sort"

	"github.com/verte-zerg/drumrate/internal/model"
)

// TopCount is the size of the best-N window used by every aggregate.
const TopCount = 20

// Positional weights of the top window: ranks 1-5, 6-10, 11-16 and 17-20 share
// 40%, 30%, 20% and 10% of the total.
var topWeightBands = []struct {
	until  int
	weight float64
}{
	{until: 5, weight: 0.4 / 5},
	{until: 10, weight: 0.3 / 5},
	{until: 16, weight: 0.2 / 6},
	{until: 20, weight: 0.1 / 4},
}

// SortByDimension returns a copy of list ordered by dim, highest first.
func SortByDimension(list []model.SongStats, dim model.Dimension) []model.SongStats {
	out := append([]model.SongStats(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := dim.Of(out[i]), dim.Of(out[j])
		if vi == vj {
			return out[i].Key().Less(out[j].Key())
		}
		return vi > vj
	})
	return out
}

// TopN returns the n best entries for dim.
func TopN(list []model.SongStats, dim model.Dimension, n int) []model.SongStats {
	if n <= 0 || len(list) == 0 {
		return nil
	}
	sorted := SortByDimension(list, dim)
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// Top20Average is the plain mean of the best 20 values.
func Top20Average(list []model.SongStats, dim model.Dimension) float64 {
	values := topValues(list, dim)
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return round2(sum / float64(len(values)))
}

// Top20WeightedAverage weights the best 20 values by rank band and divides by
// the weights actually used.
func Top20WeightedAverage(list []model.SongStats, dim model.Dimension) float64 {
	values := topValues(list, dim)
	if len(values) == 0 {
		return 0
	}
	var sum, weights float64
	for i, v := range values {
		w := rankWeight(i)
		sum += v * w
		weights += w
	}
	return round2(sum / weights)
}

// Top20Median is the median of the best 20 values.
func Top20Median(list []model.SongStats, dim model.Dimension) float64 {
	return round2(median(topValues(list, dim)))
}

func topValues(list []model.SongStats, dim model.Dimension) []float64 {
	top := TopN(list, dim, TopCount)
	values := make([]float64, len(top))
	for i, s := range top {
		values[i] = dim.Of(s)
	}
	return values
}

func rankWeight(idx int) float64 {
	for _, band := range topWeightBands {
		if idx < band.until {
			return band.weight
		}
	}
	return 0
}

func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

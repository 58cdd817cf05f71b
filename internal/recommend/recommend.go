// Package recommend picks charts worth practising next.
package recommend

import (
	"math"
	"sort"

	"github.com/verte-zerg/drumrate/internal/model"
	"github.com/verte-zerg/drumrate/internal/rating"
	"github.com/verte-zerg/drumrate/internal/stats"
)

// DefaultLimit is used when Options.Limit is not positive.
const DefaultLimit = 20

const (
	excludedTop     = 10
	potentialWeight = 100
	proximityWeight = 10
)

// Catalog is the chart database the recommender draws candidates from.
type Catalog interface {
	Expand() []model.Chart
	Lookup(key model.ChartKey) (model.Chart, bool)
}

// Options tunes a recommendation run.
type Options struct {
	Limit int
	// Filter keeps a chart in the candidate universe when it returns true.
	Filter func(model.Chart) bool
	// DifficultyAdjustment widens or narrows the constant cap above the base.
	DifficultyAdjustment float64
	// ConstantBase overrides the Best-20 median constant when set.
	ConstantBase    *float64
	DuplicateGroups []model.DuplicateGroup
	PreferCN        bool
}

// Recommendation is one suggested chart.
type Recommendation struct {
	Stats     model.SongStats
	Chart     model.Chart
	Ceiling   float64
	Potential float64
	Score     float64
	Unplayed  bool
}

// Recommender ranks practice candidates against a chart catalog. The zero
// value has no catalog and recommends nothing.
type Recommender struct {
	catalog Catalog
}

// New returns a recommender over the catalog.
func New(catalog Catalog) *Recommender {
	return &Recommender{catalog: catalog}
}

// Baseline describes the Best-20 reference a run scored against.
type Baseline struct {
	Best         []model.SongStats
	ConstantBase float64
	MinValue     float64
	MedianScale  float64
}

// Recommend returns up to opts.Limit charts for improving dim, best first.
func (r *Recommender) Recommend(all []model.SongStats, dim model.Dimension, opts Options) []Recommendation {
	recs, _ := r.RecommendWithBaseline(all, dim, opts)
	return recs
}

// RecommendWithBaseline is Recommend that also reports the baseline used.
func (r *Recommender) RecommendWithBaseline(all []model.SongStats, dim model.Dimension, opts Options) ([]Recommendation, Baseline) {
	if r == nil || r.catalog == nil || len(all) == 0 {
		return nil, Baseline{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	base := r.baseline(all, dim, opts.ConstantBase)
	excluded := make(map[model.ChartKey]struct{}, excludedTop)
	for i, s := range base.Best {
		if i >= excludedTop {
			break
		}
		excluded[s.Key()] = struct{}{}
	}

	played := make(map[model.ChartKey]model.SongStats, len(all))
	for _, s := range all {
		if _, ok := played[s.Key()]; !ok {
			played[s.Key()] = s
		}
	}

	var candidates []model.SongStats
	for _, c := range r.catalog.Expand() {
		if _, ok := excluded[c.Key()]; ok {
			continue
		}
		if opts.Filter != nil && !opts.Filter(c) {
			continue
		}
		s, ok := played[c.Key()]
		if !ok {
			s = model.SongStats{ID: c.ID, Level: c.Tier, Title: c.DisplayTitle(opts.PreferCN)}
		}
		candidates = append(candidates, s)
	}
	candidates = stats.FilterDuplicateSongs(candidates, opts.DuplicateGroups)

	limitConstant := base.ConstantBase + opts.DifficultyAdjustment
	var scored []Recommendation
	for _, s := range candidates {
		chart, ok := r.catalog.Lookup(s.Key())
		if !ok || chart.Data.TotalNotes <= 0 || chart.Data.Constant <= 0 {
			continue
		}
		if chart.Data.Constant > limitConstant {
			continue
		}
		ceiling := rating.CalcMaxRatings(chart.Data).Get(dim)
		if ceiling < base.MinValue || ceiling <= 0 {
			continue
		}
		_, isPlayed := played[s.Key()]
		potential := 1.0
		if isPlayed {
			potential = (ceiling - dim.Of(s)) / ceiling
			if potential <= 0 {
				continue
			}
		}
		proximity := math.Abs(rating.DifficultyToScale(chart.Data.Constant) - base.MedianScale)
		scored = append(scored, Recommendation{
			Stats:     s,
			Chart:     chart,
			Ceiling:   ceiling,
			Potential: potential,
			Score:     -potential*potentialWeight + proximity*proximityWeight,
			Unplayed:  !isPlayed,
		})
	}
	return pick(scored, limit), base
}

func (r *Recommender) baseline(all []model.SongStats, dim model.Dimension, override *float64) Baseline {
	best := stats.TopN(all, dim, stats.TopCount)
	b := Baseline{Best: best}
	var constants, scales []float64
	for _, s := range best {
		chart, ok := r.catalog.Lookup(s.Key())
		if !ok {
			continue
		}
		constants = append(constants, chart.Data.Constant)
		scales = append(scales, rating.DifficultyToScale(chart.Data.Constant))
	}
	if len(best) > 0 {
		b.MinValue = dim.Of(best[len(best)-1])
	}
	b.ConstantBase = median(constants)
	if override != nil {
		b.ConstantBase = *override
	}
	b.MedianScale = median(scales)
	return b
}

// pick splits the sorted candidates evenly between unplayed and played charts,
// letting either side fill the other's shortfall.
func pick(scored []Recommendation, limit int) []Recommendation {
	sortRecommendations(scored)
	var unplayed, played []Recommendation
	for _, rec := range scored {
		if rec.Unplayed {
			unplayed = append(unplayed, rec)
		} else {
			played = append(played, rec)
		}
	}

	wantUnplayed := (limit + 1) / 2
	wantPlayed := limit / 2
	shortUnplayed := wantUnplayed - min(wantUnplayed, len(unplayed))
	shortPlayed := wantPlayed - min(wantPlayed, len(played))
	takeUnplayed := min(len(unplayed), wantUnplayed+shortPlayed)
	takePlayed := min(len(played), wantPlayed+shortUnplayed)

	out := make([]Recommendation, 0, takeUnplayed+takePlayed)
	out = append(out, unplayed[:takeUnplayed]...)
	out = append(out, played[:takePlayed]...)
	sortRecommendations(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortRecommendations(list []Recommendation) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score < list[j].Score
		}
		return list[i].Chart.Key().Less(list[j].Chart.Key())
	})
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

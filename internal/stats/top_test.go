package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/drumrate/internal/model"
)

func ratedList(values ...float64) []model.SongStats {
	out := make([]model.SongStats, len(values))
	for i, v := range values {
		out[i] = model.SongStats{ID: i + 1, Level: model.TierOni, Rating: v, Stamina: v / 2}
	}
	return out
}

func descending(from, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(from - i)
	}
	return out
}

func TestTop20StatsOnFullWindow(t *testing.T) {
	list := ratedList(descending(25, 25)...)
	assert.InDelta(t, 15.5, Top20Average(list, model.DimRating), 1e-9)
	assert.InDelta(t, 15.5, Top20Median(list, model.DimRating), 1e-9)
	assert.InDelta(t, 17.85, Top20WeightedAverage(list, model.DimRating), 1e-9)
}

func TestTop20StatsOnShortInput(t *testing.T) {
	list := ratedList(5, 1, 3, 2, 4)
	assert.InDelta(t, 3.0, Top20Average(list, model.DimRating), 1e-9)
	assert.InDelta(t, 3.0, Top20Median(list, model.DimRating), 1e-9)
	assert.InDelta(t, 3.0, Top20WeightedAverage(list, model.DimRating), 1e-9)
	assert.InDelta(t, 1.5, Top20Median(list, model.DimStamina), 1e-9)

	even := ratedList(4, 1, 3, 2)
	assert.InDelta(t, 2.5, Top20Median(even, model.DimRating), 1e-9)
}

func TestTop20StatsOnEmptyInput(t *testing.T) {
	assert.Zero(t, Top20Average(nil, model.DimRating))
	assert.Zero(t, Top20Median(nil, model.DimRating))
	assert.Zero(t, Top20WeightedAverage(nil, model.DimRating))
	assert.Empty(t, TopN(nil, model.DimRating, 20))
}

func TestTop20StatsRounding(t *testing.T) {
	list := ratedList(1, 1, 2)
	assert.InDelta(t, 1.33, Top20Average(list, model.DimRating), 1e-9)
}

func TestTopNOrdering(t *testing.T) {
	list := []model.SongStats{
		{ID: 3, Level: model.TierOni, Rating: 9},
		{ID: 2, Level: model.TierUra, Rating: 10},
		{ID: 2, Level: model.TierOni, Rating: 10},
		{ID: 1, Level: model.TierOni, Rating: 8},
	}
	top := TopN(list, model.DimRating, 3)
	require.Len(t, top, 3)
	assert.Equal(t, model.ChartKey{ID: 2, Tier: model.TierOni}, top[0].Key())
	assert.Equal(t, model.ChartKey{ID: 2, Tier: model.TierUra}, top[1].Key())
	assert.Equal(t, 3, top[2].ID)
	assert.Equal(t, 3, list[0].ID, "input must not be reordered")
	assert.Len(t, TopN(list, model.DimRating, 10), 4)
}

func TestTopValueCompensate(t *testing.T) {
	assert.InDelta(t, 14.0, TopValueCompensate(14, 15.28, 14.0, 15.31, 14.59), 1e-9)
	assert.InDelta(t, 14.0+(0.41/0.72)*0.22, TopValueCompensate(14, 15.28, 15.0, 15.31, 14.59), 1e-9)
	assert.InDelta(t, 14.0+0.22, TopValueCompensate(14, 15.28, 15.31, 15.31, 14.59), 1e-9)
	assert.InDelta(t, 14.0, TopValueCompensate(14, 15.28, 15.0, 15.0, 15.0), 1e-9)
}

func TestFilterDuplicateSongsKeepsBest(t *testing.T) {
	list := []model.SongStats{
		{ID: 1, Level: model.TierOni, Rating: 10},
		{ID: 9, Level: model.TierOni, Rating: 7},
		{ID: 2, Level: model.TierOni, Rating: 15},
		{ID: 3, Level: model.TierOni, Rating: 12},
	}
	groups := []model.DuplicateGroup{{
		{ID: 1, Tier: model.TierOni},
		{ID: 2, Tier: model.TierOni},
		{ID: 3, Tier: model.TierOni},
	}}
	got := FilterDuplicateSongs(list, groups)
	require.Len(t, got, 2)
	assert.Equal(t, 9, got[0].ID)
	assert.Equal(t, 2, got[1].ID)
	assert.InDelta(t, 15.0, got[1].Rating, 1e-9)
}

func TestFilterDuplicateSongsTieBreak(t *testing.T) {
	groups := []model.DuplicateGroup{{{ID: 5, Tier: model.TierOni}, {ID: 4, Tier: model.TierUra}}}
	a := model.SongStats{ID: 5, Level: model.TierOni, Rating: 11}
	b := model.SongStats{ID: 4, Level: model.TierUra, Rating: 11}

	for _, list := range [][]model.SongStats{{a, b}, {b, a}} {
		got := FilterDuplicateSongs(list, groups)
		require.Len(t, got, 1)
		assert.Equal(t, 4, got[0].ID)
	}
}

func TestFilterDuplicateSongsWithoutGroups(t *testing.T) {
	list := ratedList(1, 2)
	got := FilterDuplicateSongs(list, nil)
	assert.Equal(t, list, got)
	got[0].Rating = 99
	assert.InDelta(t, 1.0, list[0].Rating, 1e-9)
}

func TestOverall(t *testing.T) {
	s := Overall(nil, nil)
	assert.Zero(t, s.Overall)
	assert.Zero(t, s.Rated)

	list := ratedList(descending(12, 10)...)
	s = Overall(list, nil)
	assert.Equal(t, 10, s.Rated)
	assert.InDelta(t, 7.5, s.Overall, 1e-9)
	assert.InDelta(t, 3.75, s.Radar.Stamina, 1e-9)
	assert.InDelta(t, s.Overall, s.Radar.Rating, 1e-9)
}

func TestWeakDimensions(t *testing.T) {
	var s Summary
	s.Radar.Set(model.DimDaigouryoku, 10)
	s.Radar.Set(model.DimStamina, 4)
	s.Radar.Set(model.DimSpeed, 6)
	s.Radar.Set(model.DimAccuracyPower, 9)
	s.Radar.Set(model.DimRhythm, 5)
	s.Radar.Set(model.DimComplex, 8)

	assert.Equal(t, []model.Dimension{model.DimStamina, model.DimRhythm}, WeakDimensions(s, 2))
	assert.Len(t, WeakDimensions(s, 0), 6)
}

func TestBuildTopLists(t *testing.T) {
	current := []model.SongStats{
		{ID: 1, Level: model.TierOni, Rating: 9, Stamina: 2},
		{ID: 2, Level: model.TierOni, Rating: 8, Stamina: 5},
	}
	previous := []model.SongStats{{ID: 1, Level: model.TierOni, Rating: 8.5}}

	lists := BuildTopLists(current, previous, nil, nil, 20)
	require.Len(t, lists[model.DimRating], 2)
	first := lists[model.DimRating][0]
	assert.Equal(t, 1, first.ID)
	assert.False(t, first.IsNew)
	assert.InDelta(t, 0.5, first.RatingDiff, 1e-9)
	assert.Equal(t, 2, first.Ranks[model.DimStamina])
	assert.True(t, lists[model.DimRating][1].IsNew)
	assert.Equal(t, 2, lists[model.DimStamina][0].ID)

	noHistory := BuildTopLists(current, nil, nil, nil, 1)
	require.Len(t, noHistory[model.DimRating], 1)
	assert.False(t, noHistory[model.DimRating][0].IsNew)
}

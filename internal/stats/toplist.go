package stats

import (
	"github.com/verte-zerg/drumrate/internal/model"
	"github.com/verte-zerg/drumrate/internal/rating"
)

// ChartLookup resolves chart reference data by key.
type ChartLookup interface {
	Lookup(key model.ChartKey) (model.Chart, bool)
}

// TopEntry is a top-list row with chart context and change since the last import.
type TopEntry struct {
	model.SongStats
	Constant   float64
	Ceiling    model.Dimensions
	Ranks      map[model.Dimension]int
	Unplayed   bool
	IsNew      bool
	RatingDiff float64
}

// TopLists holds the best entries per dimension.
type TopLists map[model.Dimension][]TopEntry

// BuildTopLists de-duplicates current and builds the n best entries for every
// dimension. previous is the stat set of the prior import, nil when there is none.
func BuildTopLists(current, previous []model.SongStats, groups []model.DuplicateGroup, db ChartLookup, n int) TopLists {
	filtered := FilterDuplicateSongs(current, groups)

	ranks := make(map[model.Dimension]map[model.ChartKey]int, len(model.AllDimensions))
	for _, d := range model.AllDimensions {
		m := make(map[model.ChartKey]int, len(filtered))
		for i, s := range SortByDimension(filtered, d) {
			m[s.Key()] = i + 1
		}
		ranks[d] = m
	}

	var last map[model.ChartKey]model.SongStats
	if previous != nil {
		last = make(map[model.ChartKey]model.SongStats, len(previous))
		for _, s := range previous {
			last[s.Key()] = s
		}
	}

	lists := make(TopLists, len(model.AllDimensions))
	for _, d := range model.AllDimensions {
		top := TopN(filtered, d, n)
		entries := make([]TopEntry, 0, len(top))
		for _, s := range top {
			entries = append(entries, enhance(s, ranks, last, db))
		}
		lists[d] = entries
	}
	return lists
}

func enhance(s model.SongStats, ranks map[model.Dimension]map[model.ChartKey]int, last map[model.ChartKey]model.SongStats, db ChartLookup) TopEntry {
	e := TopEntry{
		SongStats: s,
		Ranks:     make(map[model.Dimension]int, len(ranks)),
		Unplayed:  s.Great == 0 && s.Good == 0 && s.Bad == 0,
	}
	for d, m := range ranks {
		e.Ranks[d] = m[s.Key()]
	}
	if db != nil {
		if c, ok := db.Lookup(s.Key()); ok {
			e.Constant = c.Data.Constant
			e.Ceiling = rating.CalcMaxRatings(c.Data)
		}
	}
	if last != nil {
		prev, ok := last[s.Key()]
		e.IsNew = !ok
		if ok {
			e.RatingDiff = s.Rating - prev.Rating
		}
	}
	return e
}

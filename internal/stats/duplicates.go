package stats

import "github.com/verte-zerg/drumrate/internal/model"

// FilterDuplicateSongs keeps only the best rated member of every duplicate group.
// Equal ratings resolve to the smaller chart key. Survivors keep their input order.
func FilterDuplicateSongs(list []model.SongStats, groups []model.DuplicateGroup) []model.SongStats {
	if len(groups) == 0 {
		return append([]model.SongStats(nil), list...)
	}
	groupOf := make(map[model.ChartKey]int)
	for gi, g := range groups {
		for _, key := range g {
			if _, seen := groupOf[key]; !seen {
				groupOf[key] = gi
			}
		}
	}

	best := make(map[int]int)
	for i, s := range list {
		gi, ok := groupOf[s.Key()]
		if !ok {
			continue
		}
		cur, ok := best[gi]
		if !ok || beats(s, list[cur]) {
			best[gi] = i
		}
	}

	out := make([]model.SongStats, 0, len(list))
	for i, s := range list {
		if gi, ok := groupOf[s.Key()]; ok && best[gi] != i {
			continue
		}
		out = append(out, s)
	}
	return out
}

func beats(a, b model.SongStats) bool {
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	return a.Key().Less(b.Key())
}

package stats

import (
	"context"
	"fmt"

	"github.com/verte-zerg/drumrate/internal/chartdb"
	"github.com/verte-zerg/drumrate/internal/model"
	"github.com/verte-zerg/drumrate/internal/rating"
	"github.com/verte-zerg/drumrate/internal/scores"
	"github.com/verte-zerg/drumrate/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Snapshot    *model.Snapshot
	Previous    *model.Snapshot
	Charts      *chartdb.Database
	Stats       []model.SongStats
	Summary     Summary
	LastOverall float64
	HasLast     bool
	Top         TopLists
	Blacklist   map[model.ChartKey]struct{}
	Locked      int
}

// RatingDiff is the overall change against the previous import.
func (r Report) RatingDiff() float64 {
	if !r.HasLast {
		return 0
	}
	return round2(r.Summary.Overall - r.LastOverall)
}

// BuildReport loads the latest two imports and user preferences and prepares
// everything the stats views need.
func BuildReport(ctx context.Context, st *store.Store, db *chartdb.Database, groups []model.DuplicateGroup, cfg model.ReportConfig) (Report, error) {
	snaps, err := st.LatestSnapshots(ctx, 2)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load snapshots: %w", err)
	}
	locks, err := st.ListLockedScores(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load locked scores: %w", err)
	}
	blacklist, err := st.ListBlacklist(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load blacklist: %w", err)
	}

	in := ReportInput{Locked: locks, Blacklist: blacklist}
	if len(snaps) > 0 {
		in.Snapshot = &snaps[0]
		in.Current = scores.ParsePastedScores(snaps[0].Raw)
	}
	if len(snaps) > 1 {
		in.Previous = &snaps[1]
		in.Last = scores.ParsePastedScores(snaps[1].Raw)
	}
	return Compute(db, groups, cfg, in), nil
}

// ReportInput is the raw material of a report.
type ReportInput struct {
	Snapshot  *model.Snapshot
	Previous  *model.Snapshot
	Current   []model.UserScore
	Last      []model.UserScore
	Locked    []model.LockedScore
	Blacklist []model.BlacklistEntry
}

// Compute rates both imports with the same settings, applies locks and the CN
// filter, and builds the summary and top lists.
func Compute(db *chartdb.Database, groups []model.DuplicateGroup, cfg model.ReportConfig, in ReportInput) Report {
	if cfg.OnlyCN {
		db = db.OnlyCN()
	}
	gw := rating.GoodWeight(cfg.Algorithm)
	size := cfg.TopSize
	if size <= 0 {
		size = TopCount
	}

	current := RateScores(db, MergeLocked(in.Current, in.Locked), gw, cfg.OnlyCN)
	r := Report{
		Snapshot:  in.Snapshot,
		Previous:  in.Previous,
		Charts:    db,
		Stats:     current,
		Summary:   Overall(current, groups),
		Blacklist: make(map[model.ChartKey]struct{}, len(in.Blacklist)),
		Locked:    len(in.Locked),
	}
	for _, b := range in.Blacklist {
		r.Blacklist[b.Key] = struct{}{}
	}

	var previous []model.SongStats
	if in.Previous != nil {
		previous = RateScores(db, MergeLocked(in.Last, in.Locked), gw, cfg.OnlyCN)
		if previous == nil {
			previous = []model.SongStats{}
		}
		r.LastOverall = Overall(previous, groups).Overall
		r.HasLast = true
	}
	r.Top = BuildTopLists(current, previous, groups, db, size)
	return r
}

// RateScores turns score records into stats. Records without chart data or
// below the accuracy floor are dropped.
func RateScores(db *chartdb.Database, list []model.UserScore, goodWeight float64, preferCN bool) []model.SongStats {
	var out []model.SongStats
	for _, sc := range list {
		if !sc.Level.Valid() {
			continue
		}
		chart, ok := db.Lookup(sc.Key())
		if !ok {
			continue
		}
		s, ok := rating.CalculateSongStatsWeighted(chart.Data, sc, chart.DisplayTitle(preferCN), goodWeight)
		if !ok {
			continue
		}
		out = append(out, s)
	}
	return out
}

// MergeLocked replaces imported scores with locked ones and appends locks for
// charts the import does not contain.
func MergeLocked(list []model.UserScore, locks []model.LockedScore) []model.UserScore {
	if len(locks) == 0 {
		return list
	}
	byKey := make(map[model.ChartKey]model.UserScore, len(locks))
	for _, l := range locks {
		byKey[l.Score.Key()] = l.Score
	}
	out := make([]model.UserScore, 0, len(list)+len(locks))
	used := make(map[model.ChartKey]bool, len(locks))
	for _, sc := range list {
		if locked, ok := byKey[sc.Key()]; ok {
			if !used[sc.Key()] {
				out = append(out, locked)
				used[sc.Key()] = true
			}
			continue
		}
		out = append(out, sc)
	}
	for _, l := range locks {
		if !used[l.Score.Key()] {
			out = append(out, l.Score)
			used[l.Score.Key()] = true
		}
	}
	return out
}

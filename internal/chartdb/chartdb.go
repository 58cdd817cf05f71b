// Package chartdb loads the chart reference database.
package chartdb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/drumrate/internal/model"
)

// Database is an indexed, read-only view of the chart entries.
type Database struct {
	entries []model.ChartEntry
	charts  []model.Chart
	index   map[model.ChartKey]int
	titles  map[string][]int
}

// New indexes entries. Tiers other than oni and ura are ignored.
func New(entries []model.ChartEntry) *Database {
	db := &Database{
		entries: entries,
		index:   make(map[model.ChartKey]int),
		titles:  make(map[string][]int),
	}
	for _, e := range entries {
		tiers := make([]model.Tier, 0, len(e.Level))
		for tier := range e.Level {
			if tier.Valid() {
				tiers = append(tiers, tier)
			}
		}
		sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
		for _, tier := range tiers {
			c := model.Chart{
				ID:      e.ID,
				Title:   e.Title,
				TitleCN: e.TitleCN,
				IsCN:    e.IsCN,
				Tier:    tier,
				Data:    e.Level[tier],
			}
			if _, dup := db.index[c.Key()]; dup {
				continue
			}
			idx := len(db.charts)
			db.charts = append(db.charts, c)
			db.index[c.Key()] = idx
			for _, t := range []string{e.Title, e.TitleCN} {
				if t == "" {
					continue
				}
				k := foldTitle(t)
				db.titles[k] = append(db.titles[k], idx)
			}
		}
	}
	return db
}

// Parse decodes a JSON array of chart entries.
func Parse(r io.Reader) (*Database, error) {
	var entries []model.ChartEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode chart database: %w", err)
	}
	return New(entries), nil
}

// Load reads the chart database from path.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chart database: %w", err)
	}
	defer func() {
		// Best-effort close of a read-only file.
		_ = f.Close()
	}()
	return Parse(f)
}

// Entries returns the raw entries.
func (db *Database) Entries() []model.ChartEntry {
	if db == nil {
		return nil
	}
	return db.entries
}

// Expand returns every (song, tier) pair.
func (db *Database) Expand() []model.Chart {
	if db == nil {
		return nil
	}
	return append([]model.Chart(nil), db.charts...)
}

// Len returns the number of charts.
func (db *Database) Len() int {
	if db == nil {
		return 0
	}
	return len(db.charts)
}

// Lookup finds a chart by song id and tier.
func (db *Database) Lookup(key model.ChartKey) (model.Chart, bool) {
	if db == nil {
		return model.Chart{}, false
	}
	idx, ok := db.index[key]
	if !ok {
		return model.Chart{}, false
	}
	return db.charts[idx], true
}

// FindByTitle returns all charts whose title or CN title matches after
// width and case folding. A trailing tier suffix selects that tier.
func (db *Database) FindByTitle(title string) []model.Chart {
	if db == nil {
		return nil
	}
	wantTier := model.Tier(0)
	trimmed := strings.TrimSpace(title)
	if s := model.TierUra.Suffix(); strings.HasSuffix(trimmed, s) {
		trimmed = strings.TrimSuffix(trimmed, s)
		wantTier = model.TierUra
	}
	var out []model.Chart
	for _, idx := range db.titles[foldTitle(trimmed)] {
		c := db.charts[idx]
		if wantTier != 0 && c.Tier != wantTier {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Filter returns a database holding only the charts accepted by keep.
func (db *Database) Filter(keep func(model.Chart) bool) *Database {
	if db == nil {
		return New(nil)
	}
	byID := make(map[int]int)
	var entries []model.ChartEntry
	for _, c := range db.charts {
		if !keep(c) {
			continue
		}
		i, ok := byID[c.ID]
		if !ok {
			i = len(entries)
			byID[c.ID] = i
			entries = append(entries, model.ChartEntry{
				ID:      c.ID,
				Title:   c.Title,
				TitleCN: c.TitleCN,
				IsCN:    c.IsCN,
				Level:   map[model.Tier]model.ChartLevelData{},
			})
		}
		entries[i].Level[c.Tier] = c.Data
	}
	return New(entries)
}

// OnlyCN keeps the songs released on CN servers.
func (db *Database) OnlyCN() *Database {
	return db.Filter(func(c model.Chart) bool { return c.IsCN })
}

func foldTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(norm.NFKC.String(s)), " "))
}

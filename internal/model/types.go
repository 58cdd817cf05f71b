// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// Tier is a chart difficulty tier.
type Tier int

const (
	// TierOni is the regular top difficulty.
	TierOni Tier = 4
	// TierUra is the hidden ("ura") difficulty.
	TierUra Tier = 5
)

// Valid reports whether the tier is one the rating engine understands.
func (t Tier) Valid() bool {
	return t == TierOni || t == TierUra
}

// Suffix returns the title suffix used to tell tiers apart in listings.
func (t Tier) Suffix() string {
	if t == TierUra {
		return "(裏)"
	}
	return ""
}

// ChartLevelData holds the reference metrics of one chart tier.
type ChartLevelData struct {
	Constant    float64 `json:"constant"`
	TotalNotes  int     `json:"totalNotes"`
	Composite   float64 `json:"composite"`
	AvgDensity  float64 `json:"avgDensity"`
	InstDensity float64 `json:"instDensity"`
	Separation  float64 `json:"separation"`
	BPMChange   float64 `json:"bpmChange"`
	HSChange    float64 `json:"hsChange"`
}

// ChartEntry is one song of the chart database with its available tiers.
type ChartEntry struct {
	ID      int                     `json:"id"`
	Title   string                  `json:"title"`
	TitleCN string                  `json:"title_cn,omitempty"`
	IsCN    bool                    `json:"is_cn,omitempty"`
	Level   map[Tier]ChartLevelData `json:"level"`
}

// ChartKey identifies a chart by song id and tier.
type ChartKey struct {
	ID   int  `yaml:"id" json:"id"`
	Tier Tier `yaml:"level" json:"level"`
}

func (k ChartKey) String() string {
	return fmt.Sprintf("%d-%d", k.ID, k.Tier)
}

// Less orders keys by id, then tier.
func (k ChartKey) Less(other ChartKey) bool {
	if k.ID != other.ID {
		return k.ID < other.ID
	}
	return k.Tier < other.Tier
}

// Chart is a single (song, tier) pair expanded from a ChartEntry.
type Chart struct {
	ID      int
	Title   string
	TitleCN string
	IsCN    bool
	Tier    Tier
	Data    ChartLevelData
}

// Key returns the chart identity.
func (c Chart) Key() ChartKey {
	return ChartKey{ID: c.ID, Tier: c.Tier}
}

// DisplayTitle returns the title shown to the user, optionally the CN title.
func (c Chart) DisplayTitle(preferCN bool) string {
	title := c.Title
	if preferCN && c.TitleCN != "" {
		title = c.TitleCN
	}
	return title + c.Tier.Suffix()
}

// UserScore is one positional record of the score export.
type UserScore struct {
	ID             int
	Level          Tier
	Score          int
	ScoreRank      int
	Great          int
	Good           int
	Bad            int
	Drumroll       int
	Combo          int
	PlayCount      int
	ClearCount     int
	FullComboCount int
	PerfectCount   int
	UpdatedAt      string
}

// Key returns the chart the score belongs to.
func (s UserScore) Key() ChartKey {
	return ChartKey{ID: s.ID, Tier: s.Level}
}

// SongStats is the derived rating of one played chart.
type SongStats struct {
	ID            int
	Level         Tier
	Title         string
	Rating        float64
	Daigouryoku   float64
	Stamina       float64
	Speed         float64
	AccuracyPower float64
	Rhythm        float64
	Complex       float64
	Great         int
	Good          int
	Bad           int
}

// Key returns the chart the stats belong to.
func (s SongStats) Key() ChartKey {
	return ChartKey{ID: s.ID, Tier: s.Level}
}

// DuplicateGroup lists charts with equivalent content.
type DuplicateGroup []ChartKey

// Algorithm selects how "good" judgments contribute to accuracy.
type Algorithm string

const (
	// AlgorithmGreatOnly counts great judgments only.
	AlgorithmGreatOnly Algorithm = "great-only"
	// AlgorithmComprehensive counts good judgments at half weight.
	AlgorithmComprehensive Algorithm = "comprehensive"
)

// ReportConfig controls how a report is assembled.
type ReportConfig struct {
	Algorithm Algorithm
	OnlyCN    bool
	TopSize   int
}

// HistoryConfig filters the snapshot history.
type HistoryConfig struct {
	Since  *time.Time
	Last   int
	Window int
}

// Snapshot is one stored score import.
type Snapshot struct {
	ID         int64
	ImportedAt time.Time
	Source     string
	Raw        string
	Records    int
	Rated      int
	Overall    float64
	Dimensions map[Dimension]float64
}

// BlacklistEntry marks a chart excluded from recommendations.
type BlacklistEntry struct {
	Key     ChartKey
	AddedAt time.Time
}

// LockedScore is a manually pinned score that overrides imports.
type LockedScore struct {
	Score     UserScore
	UpdatedAt time.Time
}

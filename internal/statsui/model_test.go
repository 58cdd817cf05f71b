package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/drumrate/internal/chartdb"
	"github.com/verte-zerg/drumrate/internal/model"
	"github.com/verte-zerg/drumrate/internal/store"
)

const testCharts = `[
	{"id": 1, "title": "Alpha", "level": {"4": {"constant": 9.6, "totalNotes": 1000, "avgDensity": 6, "instDensity": 9}}},
	{"id": 2, "title": "Beta", "level": {"4": {"constant": 9.0, "totalNotes": 1000, "avgDensity": 5, "instDensity": 8}}}
]`

func newTestModel(t *testing.T, raw string) *Model {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "drumrate.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	if raw != "" {
		snap := model.Snapshot{ImportedAt: time.Now(), Source: "test", Raw: raw, Records: 1, Rated: 1, Overall: 10}
		if _, err := st.InsertSnapshot(context.Background(), snap); err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
	}
	db, err := chartdb.Parse(strings.NewReader(testCharts))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	m := NewModel(st, db, nil, Config{Dimension: model.DimRating, History: model.HistoryConfig{Window: 1}})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEmptyStore(t *testing.T) {
	m := newTestModel(t, "")
	view := m.View()
	if !strings.Contains(view, "Overview") || !strings.Contains(view, "No imports found") {
		t.Fatalf("unexpected overview:\n%s", view)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabTop {
		t.Fatalf("expected top tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "No rated charts") {
		t.Fatalf("expected empty top list:\n%s", m.View())
	}
}

func TestTopTabListsCharts(t *testing.T) {
	m := newTestModel(t, `[[1, 4, 0, 0, 950, 40, 10, 0, 0, 1, 1, 0, 0, ""]]`)
	if m.errMsg != "" {
		t.Fatalf("unexpected error: %s", m.errMsg)
	}
	if len(m.report.Stats) != 1 {
		t.Fatalf("expected one rated chart, got %d", len(m.report.Stats))
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if view := m.View(); !strings.Contains(view, "Alpha") {
		t.Fatalf("expected Alpha in top list:\n%s", view)
	}
}

func TestDimensionCycling(t *testing.T) {
	m := newTestModel(t, "")
	m.Update(key("["))
	if got := m.dimension(); got != model.DimComplex {
		t.Fatalf("expected wrap to %s, got %s", model.DimComplex, got)
	}
	m.Update(key("]"))
	m.Update(key("]"))
	if got := m.dimension(); got != model.DimDaigouryoku {
		t.Fatalf("expected %s, got %s", model.DimDaigouryoku, got)
	}
}

func TestToggles(t *testing.T) {
	m := newTestModel(t, "")
	m.Update(key("a"))
	if m.cfg.Report.Algorithm != model.AlgorithmComprehensive {
		t.Fatalf("expected comprehensive algorithm, got %q", m.cfg.Report.Algorithm)
	}
	m.Update(key("a"))
	if m.cfg.Report.Algorithm != model.AlgorithmGreatOnly {
		t.Fatalf("expected great-only algorithm, got %q", m.cfg.Report.Algorithm)
	}
	m.Update(key("c"))
	if !m.cfg.Report.OnlyCN {
		t.Fatalf("expected CN filter on")
	}
}

func TestSettingsForm(t *testing.T) {
	m := newTestModel(t, "")
	m.Update(key("/"))
	if !m.settingsMode {
		t.Fatalf("expected settings mode")
	}
	m.settingsInputs[0].SetValue("5")
	m.settingsInputs[1].SetValue("0.5")
	m.settingsInputs[2].SetValue("10.5")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.settingsMode {
		t.Fatalf("expected settings to close, error: %s", m.settingsError)
	}
	if m.cfg.Recommend.Limit != 5 || m.cfg.Recommend.DifficultyAdjustment != 0.5 {
		t.Fatalf("unexpected recommend options: %+v", m.cfg.Recommend)
	}
	if m.cfg.Recommend.ConstantBase == nil || *m.cfg.Recommend.ConstantBase != 10.5 {
		t.Fatalf("expected constant base override")
	}

	m.Update(key("/"))
	m.settingsInputs[0].SetValue("0")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.settingsMode || m.settingsError == "" {
		t.Fatalf("expected invalid limit to keep the form open")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.settingsMode || m.cfg.Recommend.Limit != 5 {
		t.Fatalf("expected cancel to keep previous settings")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, "")
	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Fatalf("expected quit command")
	}
}

func TestFitLines(t *testing.T) {
	got := fitLines("ab\ncd\nef", 4, 2)
	if got != "ab  \ncd  " {
		t.Fatalf("unexpected fit: %q", got)
	}
	got = fitLines("x", 2, 3)
	if got != "x \n  \n  " {
		t.Fatalf("unexpected padding: %q", got)
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("太鼓の達人", 7); got != "太鼓..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateLine("short", 10); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

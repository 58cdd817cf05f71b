package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/drumrate/internal/chartdb"
	"github.com/verte-zerg/drumrate/internal/config"
	"github.com/verte-zerg/drumrate/internal/model"
)

const testCharts = `[
	{"id": 1, "title": "Alpha", "level": {"4": {"constant": 9.6, "totalNotes": 1000, "avgDensity": 6, "instDensity": 9}}},
	{"id": 2, "title": "Beta", "level": {
		"4": {"constant": 9.0, "totalNotes": 1000, "avgDensity": 5, "instDensity": 8},
		"5": {"constant": 10.0, "totalNotes": 1200, "avgDensity": 7, "instDensity": 10}}}
]`

type testEnv struct {
	dir    string
	charts string
	db     string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	env := testEnv{
		dir:    dir,
		charts: filepath.Join(dir, "charts.json"),
		db:     filepath.Join(dir, "drumrate.db"),
	}
	if err := os.WriteFile(env.charts, []byte(testCharts), 0o644); err != nil {
		t.Fatalf("write charts: %v", err)
	}
	return env
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--db", e.db, "--charts", e.charts))
	err := cmd.Execute()
	return out.String(), err
}

func (e testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%s failed: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestImportAndReports(t *testing.T) {
	env := newTestEnv(t)
	scoresPath := filepath.Join(env.dir, "scores.json")
	raw := `[[1, 4, 0, 0, 950, 40, 10, 0, 0, 1, 1, 0, 0, ""]]`
	if err := os.WriteFile(scoresPath, []byte(raw), 0o644); err != nil {
		t.Fatalf("write scores: %v", err)
	}

	out := env.mustRun(t, "import", scoresPath)
	if !strings.Contains(out, "Imported 1 records (1 rated)") {
		t.Fatalf("unexpected import output: %q", out)
	}

	out = env.mustRun(t, "top")
	if !strings.Contains(out, "Rating:") || !strings.Contains(out, "Alpha") {
		t.Fatalf("unexpected top output: %q", out)
	}

	out = env.mustRun(t, "blacklist", "2-4")
	if !strings.Contains(out, "Added to blacklist: Beta") {
		t.Fatalf("unexpected blacklist output: %q", out)
	}
	out = env.mustRun(t, "recommend")
	if !strings.Contains(out, "No charts to recommend.") {
		t.Fatalf("expected no recommendations, got %q", out)
	}

	out = env.mustRun(t, "lock", "Alpha", "--great", "1000")
	if !strings.Contains(out, "Locked Alpha: 1000/0/0") {
		t.Fatalf("unexpected lock output: %q", out)
	}
	out = env.mustRun(t, "lock")
	if !strings.Contains(out, "1-4") {
		t.Fatalf("expected lock listing, got %q", out)
	}
	out = env.mustRun(t, "unlock", "1-4")
	if !strings.Contains(out, "Unlocked Alpha") {
		t.Fatalf("unexpected unlock output: %q", out)
	}
	if _, err := env.run(t, "unlock", "1-4"); err == nil {
		t.Fatalf("expected error unlocking twice")
	}

	out = env.mustRun(t, "history")
	if !strings.Contains(out, "scores.json") {
		t.Fatalf("expected source in history, got %q", out)
	}
	out = env.mustRun(t, "history", "--delete", "1")
	if !strings.Contains(out, "No imports found.") {
		t.Fatalf("expected empty history after delete, got %q", out)
	}
	if _, err := env.run(t, "history", "--delete", "1"); err == nil {
		t.Fatalf("expected error deleting a missing import")
	}
}

func TestImportRejectsEmptyExport(t *testing.T) {
	env := newTestEnv(t)
	for i, raw := range []string{`{"not": "rows"}`, `[[1, 4, 0, 0, 950, 40, 10, 0, 0, 1, 1, 0, 0, ""], [2, 4, 9`} {
		path := filepath.Join(env.dir, fmt.Sprintf("bad%d.json", i))
		if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := env.run(t, "import", path); err == nil {
			t.Fatalf("expected error importing %q", raw)
		}
	}
	out := env.mustRun(t, "history")
	if !strings.Contains(out, "No imports found.") {
		t.Fatalf("expected nothing stored, got %q", out)
	}
}

func TestMissingChartDatabase(t *testing.T) {
	env := newTestEnv(t)
	env.charts = filepath.Join(env.dir, "missing.json")
	_, err := env.run(t, "top")
	if err == nil || !strings.Contains(err.Error(), "drumrate fetch") {
		t.Fatalf("expected fetch hint, got %v", err)
	}
}

func TestResolveChart(t *testing.T) {
	db, err := chartdb.Parse(strings.NewReader(testCharts))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	cases := []struct {
		arg  string
		ura  bool
		want model.ChartKey
	}{
		{arg: "2-5", want: model.ChartKey{ID: 2, Tier: model.TierUra}},
		{arg: "2", want: model.ChartKey{ID: 2, Tier: model.TierOni}},
		{arg: "2", ura: true, want: model.ChartKey{ID: 2, Tier: model.TierUra}},
		{arg: "alpha", want: model.ChartKey{ID: 1, Tier: model.TierOni}},
		{arg: "Beta(裏)", want: model.ChartKey{ID: 2, Tier: model.TierUra}},
		{arg: "Beta", ura: true, want: model.ChartKey{ID: 2, Tier: model.TierUra}},
	}
	for _, tc := range cases {
		got, err := resolveChart(db, tc.arg, tc.ura)
		if err != nil {
			t.Fatalf("resolveChart(%q): %v", tc.arg, err)
		}
		if got.Key() != tc.want {
			t.Fatalf("resolveChart(%q): expected %s, got %s", tc.arg, tc.want, got.Key())
		}
	}

	if _, err := resolveChart(db, "Beta", false); err == nil || !strings.Contains(err.Error(), "several charts") {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
	if _, err := resolveChart(db, "1-3", false); err == nil {
		t.Fatalf("expected invalid level error")
	}
	if _, err := resolveChart(db, "Gamma", false); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestValidateJudgments(t *testing.T) {
	chart := model.Chart{ID: 1, Title: "Alpha", Tier: model.TierOni, Data: model.ChartLevelData{TotalNotes: 100}}
	if err := validateJudgments(chart, 90, 5, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateJudgments(chart, 90, 10, 5); err == nil {
		t.Fatalf("expected error for too many judgments")
	}
	if err := validateJudgments(chart, -1, 0, 0); err == nil {
		t.Fatalf("expected error for negative counts")
	}
}

func TestHistorySettings(t *testing.T) {
	cfg, err := historySettings{since: "2024-05-01", last: 3, window: 2}.resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Since == nil || cfg.Since.Day() != 1 || cfg.Last != 3 || cfg.Window != 2 {
		t.Fatalf("unexpected history config: %+v", cfg)
	}
	if _, err := (historySettings{since: "May 1", window: 1}).resolve(); err == nil {
		t.Fatalf("expected invalid date error")
	}
	if _, err := (historySettings{window: 0}).resolve(); err == nil {
		t.Fatalf("expected invalid window error")
	}
}

func TestDefaultConfigTemplateUncommented(t *testing.T) {
	var lines []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		lines = append(lines, line)
	}
	var cfg config.FileConfig
	md, err := toml.Decode(strings.Join(lines, "\n"), &cfg)
	if err != nil {
		t.Fatalf("template does not decode: %v", err)
	}
	if len(md.Undecoded()) != 0 {
		t.Fatalf("template has unknown keys: %v", md.Undecoded())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("template values invalid: %v", err)
	}
	if cfg.Rating.Algorithm == nil || *cfg.Rating.Algorithm != string(model.AlgorithmGreatOnly) {
		t.Fatalf("expected algorithm in template")
	}
}

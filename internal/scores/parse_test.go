package scores

import (
	"testing"

	"github.com/verte-zerg/drumrate/internal/model"
)

func TestParsePastedScoresPositional(t *testing.T) {
	raw := `[[101, 4, 998000, 8, 900, 80, 20, 55, 1000, 12, 10, 3, 0, "2024-05-01"]]`
	got := ParsePastedScores(raw)
	if len(got) != 1 {
		t.Fatalf("expected 1 score, got %d", len(got))
	}
	want := model.UserScore{
		ID: 101, Level: model.TierOni, Score: 998000, ScoreRank: 8,
		Great: 900, Good: 80, Bad: 20, Drumroll: 55, Combo: 1000,
		PlayCount: 12, ClearCount: 10, FullComboCount: 3, PerfectCount: 0,
		UpdatedAt: "2024-05-01",
	}
	if got[0] != want {
		t.Fatalf("unexpected score:\n got %+v\nwant %+v", got[0], want)
	}
}

func TestParsePastedScoresRainbowCrown(t *testing.T) {
	raw := `[
		[200, 5, 0, 0, 950, 40, 10, 0, 1000, 1, 1, 1, 1, ""],
		[775, 4, 0, 0, 950, 40, 10, 0, 1000, 1, 1, 1, 1, ""],
		[201, 4, 0, 0, 950, 40, 10, 0, 1000, 1, 1, 1, 0, ""]
	]`
	got := ParsePastedScores(raw)
	if len(got) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(got))
	}
	if got[0].Great != 1000 || got[0].Good != 0 || got[0].Bad != 0 {
		t.Fatalf("expected collapsed judgments, got %+v", got[0])
	}
	if got[1].Great != 950 || got[1].Good != 40 || got[1].Bad != 10 {
		t.Fatalf("expected excluded chart to keep judgments, got %+v", got[1])
	}
	if got[2].Great != 950 || got[2].Good != 40 {
		t.Fatalf("expected non-perfect record untouched, got %+v", got[2])
	}
}

func TestRainbowCrownExclusionTable(t *testing.T) {
	for _, key := range []model.ChartKey{
		{ID: 775, Tier: model.TierOni},
		{ID: 775, Tier: model.TierUra},
		{ID: 1032, Tier: model.TierUra},
		{ID: 1037, Tier: model.TierOni},
	} {
		if !IsRainbowCrownExcluded(key) {
			t.Fatalf("expected %s to be excluded", key)
		}
	}
	if IsRainbowCrownExcluded(model.ChartKey{ID: 1032, Tier: model.TierOni}) {
		t.Fatalf("1032-4 must not be excluded")
	}
}

func TestParsePastedScoresCoercion(t *testing.T) {
	raw := `[["12", "5", "abc", null, true, 3.9], "oops", [1]]`
	got := ParsePastedScores(raw)
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	first := got[0]
	if first.ID != 12 || first.Level != model.TierUra {
		t.Fatalf("expected numeric strings to convert, got %+v", first)
	}
	if first.Score != 0 || first.ScoreRank != 0 {
		t.Fatalf("expected non-numeric fields to be 0, got %+v", first)
	}
	if first.Great != 1 {
		t.Fatalf("expected true to convert to 1, got %d", first.Great)
	}
	if first.Good != 3 {
		t.Fatalf("expected fractional good to truncate, got %d", first.Good)
	}
	if got[1] != (model.UserScore{}) {
		t.Fatalf("expected zero record for non-array row, got %+v", got[1])
	}
	if got[2].ID != 1 || got[2].Level != 0 {
		t.Fatalf("expected short row to default missing fields, got %+v", got[2])
	}
}

func TestParsePastedScoresNonArray(t *testing.T) {
	for _, raw := range []string{
		"", "{}", `{"a": 1}`, "42", "not json",
		`[[1,4,0,0,950`,
		`[[775,4,0,0,950,40,10,0,1000,1,1,1,1,"x"],[12,5,9`,
		`[[1,4,0,0,950,30,20 garbage`,
		`[[1,4,0,0,950]] trailing`,
	} {
		if got := ParsePastedScores(raw); len(got) != 0 {
			t.Fatalf("expected empty result for %q, got %+v", raw, got)
		}
		if n := CountRows(raw); n != 0 {
			t.Fatalf("expected no rows counted for %q, got %d", raw, n)
		}
	}
}

func TestParseRows(t *testing.T) {
	rows := [][]any{
		{float64(300), float64(5), 1, 2, "900", 50, 50, 0, 0, 0, 0, 0, 2, "now"},
		{},
		{int32(7), uint8(4), float32(2.5), true, uint64(800), int16(3)},
	}
	got := ParseRows(rows)
	if len(got) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(got))
	}
	third := got[2]
	if third.ID != 7 || third.Level != model.TierOni || third.Score != 2 || third.ScoreRank != 1 || third.Great != 800 || third.Good != 3 {
		t.Fatalf("expected sized numbers and bools to convert, got %+v", third)
	}
	if got[0].ID != 300 || got[0].Great != 1000 || got[0].Good != 0 || got[0].UpdatedAt != "now" {
		t.Fatalf("unexpected parsed row: %+v", got[0])
	}
	if got[1] != (model.UserScore{}) {
		t.Fatalf("expected empty row to parse as zero, got %+v", got[1])
	}
}

func TestFormatScoresRoundTrip(t *testing.T) {
	in := []model.UserScore{
		{ID: 1, Level: model.TierOni, Score: 1000000, Great: 500, Good: 1, Bad: 0, PerfectCount: 0, UpdatedAt: "2024-01-02"},
		{ID: 2, Level: model.TierUra, Great: 700, PlayCount: 4},
	}
	raw, err := FormatScores(in)
	if err != nil {
		t.Fatalf("FormatScores failed: %v", err)
	}
	if CountRows(raw) != 2 {
		t.Fatalf("expected 2 rows in %s", raw)
	}
	out := ParsePastedScores(raw)
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestFormatScoresEmpty(t *testing.T) {
	raw, err := FormatScores(nil)
	if err != nil {
		t.Fatalf("FormatScores failed: %v", err)
	}
	if raw != "[]" {
		t.Fatalf("expected empty array, got %q", raw)
	}
}

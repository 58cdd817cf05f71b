package model

import "testing"

func TestParseDimension(t *testing.T) {
	cases := map[string]Dimension{
		"rating":         DimRating,
		" Stamina ":      DimStamina,
		"accuracy":       DimAccuracyPower,
		"accuracy_power": DimAccuracyPower,
	}
	for in, want := range cases {
		got, err := ParseDimension(in)
		if err != nil {
			t.Fatalf("ParseDimension(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseDimension(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseDimension("power"); err == nil {
		t.Fatalf("expected error for unknown dimension")
	}
}

func TestDimensionsGetSet(t *testing.T) {
	var v Dimensions
	for i, d := range AllDimensions {
		v.Set(d, float64(i+1))
	}
	for i, d := range AllDimensions {
		if got := v.Get(d); got != float64(i+1) {
			t.Fatalf("%s: expected %d, got %v", d, i+1, got)
		}
	}
}

func TestChartDisplayTitle(t *testing.T) {
	c := Chart{ID: 1, Title: "Song", TitleCN: "歌", Tier: TierUra}
	if got := c.DisplayTitle(false); got != "Song(裏)" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := c.DisplayTitle(true); got != "歌(裏)" {
		t.Fatalf("unexpected cn title: %q", got)
	}
	c.Tier = TierOni
	c.TitleCN = ""
	if got := c.DisplayTitle(true); got != "Song" {
		t.Fatalf("unexpected fallback title: %q", got)
	}
}

func TestChartKeyLess(t *testing.T) {
	a := ChartKey{ID: 1, Tier: TierUra}
	b := ChartKey{ID: 2, Tier: TierOni}
	if !a.Less(b) || b.Less(a) {
		t.Fatalf("expected id to order first")
	}
	if !(ChartKey{ID: 2, Tier: TierOni}).Less(ChartKey{ID: 2, Tier: TierUra}) {
		t.Fatalf("expected tier to break ties")
	}
	if a.String() != "1-5" {
		t.Fatalf("unexpected key string %q", a.String())
	}
}

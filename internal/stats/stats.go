// Package stats aggregates per-chart results into top lists and ratings and
// renders them as text.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/drumrate/internal/model"
)

const sparkChars = " .:-=+*#%@"

// titleWidth caps the title column of text tables.
const titleWidth = 36

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	last := len(sparkChars) - 1
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		b.WriteByte(sparkChars[min(max(idx, 0), last)])
	}
	return b.String()
}

// WriteTable prints an aligned table followed by a blank line.
func WriteTable(w io.Writer, headers []string, rows [][]string, rightAlign map[int]bool) error {
	t := textTable{headers: headers, rows: rows, right: rightAlign}
	for i, h := range headers {
		if h == "Title" {
			t.maxWidth = map[int]int{i: titleWidth}
		}
	}
	for _, line := range t.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// RenderSummary prints the overall rating and the radar axes.
func RenderSummary(w io.Writer, r Report) error {
	if r.Snapshot == nil {
		_, err := fmt.Fprintln(w, "No imports found. Run `drumrate import` first.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Rating: %.2f", r.Summary.Overall); err != nil {
		return err
	}
	if r.HasLast {
		if _, err := fmt.Fprintf(w, " (%+.2f)", r.RatingDiff()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nRated charts: %d of %d records", r.Summary.Rated, r.Snapshot.Records); err != nil {
		return err
	}
	if r.Locked > 0 {
		if _, err := fmt.Fprintf(w, ", %d locked", r.Locked); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nImported %s\n\n", humanize.Time(r.Snapshot.ImportedAt)); err != nil {
		return err
	}

	rows := make([][]string, 0, len(model.AllDimensions)-1)
	for _, d := range model.AllDimensions {
		if d == model.DimRating {
			continue
		}
		rows = append(rows, []string{d.Label(), fmt.Sprintf("%.2f", r.Summary.Radar.Get(d))})
	}
	return WriteTable(w, []string{"Dimension", "Score"}, rows, map[int]bool{1: true})
}

// RenderTopList prints the top entries of one dimension.
func RenderTopList(w io.Writer, dim model.Dimension, entries []TopEntry) error {
	if _, err := fmt.Fprintf(w, "Top %d: %s\n", len(entries), dim.Label()); err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No rated charts.")
		return err
	}
	headers := []string{"#", "Title", "Const", dim.Label(), "Max", "Great", "Good", "Bad", "Diff"}
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Title,
			fmt.Sprintf("%.1f", e.Constant),
			fmt.Sprintf("%.2f", dim.Of(e.SongStats)),
			fmt.Sprintf("%.2f", e.Ceiling.Get(dim)),
			fmt.Sprintf("%d", e.Great),
			fmt.Sprintf("%d", e.Good),
			fmt.Sprintf("%d", e.Bad),
			diffLabel(e),
		})
	}
	right := map[int]bool{0: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true}
	return WriteTable(w, headers, rows, right)
}

func diffLabel(e TopEntry) string {
	switch {
	case e.IsNew:
		return "new"
	case math.Abs(e.RatingDiff) < 0.005:
		return ""
	default:
		return fmt.Sprintf("%+.2f", e.RatingDiff)
	}
}

// HistoryPoint is the overall rating of one snapshot.
func HistoryPoint(s model.Snapshot) float64 {
	if v, ok := s.Dimensions[model.DimRating]; ok {
		return v
	}
	return s.Overall
}

// RenderHistory prints the snapshot list and the rating curve.
func RenderHistory(w io.Writer, snaps []model.Snapshot, window int) error {
	return RenderHistoryWithSize(w, snaps, window, 0, defaultPlotHeight, false, time.Now())
}

// RenderHistoryWithSize prints the history sized to a given total width.
func RenderHistoryWithSize(w io.Writer, snaps []model.Snapshot, window, totalWidth, height int, useColor bool, now time.Time) error {
	if len(snaps) == 0 {
		_, err := fmt.Fprintln(w, "No imports found.")
		return err
	}
	rows := make([][]string, 0, len(snaps))
	ratings := make([]float64, len(snaps))
	for i, s := range snaps {
		ratings[i] = HistoryPoint(s)
		diff := ""
		if i > 0 {
			diff = fmt.Sprintf("%+.2f", ratings[i]-ratings[i-1])
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.ID),
			humanize.RelTime(s.ImportedAt, now, "ago", "from now"),
			s.Source,
			humanize.Comma(int64(s.Records)),
			fmt.Sprintf("%.2f", ratings[i]),
			diff,
		})
	}
	headers := []string{"ID", "Imported", "Source", "Records", "Rating", "Diff"}
	if err := WriteTable(w, headers, rows, map[int]bool{0: true, 3: true, 4: true, 5: true}); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trend: %s\n\n", Sparkline(ratings)); err != nil {
		return err
	}
	if len(snaps) < 2 {
		return nil
	}

	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	series := []Series{{Name: "Rating", Values: ratings}}
	if window > 1 {
		series = append(series, Series{Name: fmt.Sprintf("Avg(%d)", window), Values: MovingAverage(ratings, window)})
	}
	return PlotSeriesWithColor(w, "Rating History", series, width, height, useColor)
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/drumrate/internal/model"
	"github.com/verte-zerg/drumrate/internal/scores"
	"github.com/verte-zerg/drumrate/internal/stats"
)

var importSource string

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file|-]",
		Short: "Import a score export",
		Long:  "Import a score export (a JSON array of positional score rows) from a file or stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importSource, "source", "", "label stored with the import (default: file name)")
	addRatingFlags(cmd)
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := reportConfig(cmd)
	if err != nil {
		return err
	}
	raw, source, err := readScoreInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if importSource != "" {
		source = importSource
	}

	records := scores.CountRows(raw)
	parsed := scores.ParsePastedScores(raw)
	if len(parsed) == 0 {
		return fmt.Errorf("no score records found in %s", source)
	}
	normalized, err := scores.FormatScores(parsed)
	if err != nil {
		return err
	}

	db, err := loadCharts()
	if err != nil {
		return err
	}
	groups := loadGroups()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	locks, err := st.ListLockedScores(ctx)
	if err != nil {
		return fmt.Errorf("failed to load locked scores: %w", err)
	}
	report := stats.Compute(db, groups, cfg, stats.ReportInput{Current: parsed, Locked: locks})

	snap := model.Snapshot{
		ImportedAt: time.Now(),
		Source:     source,
		Raw:        normalized,
		Records:    records,
		Rated:      report.Summary.Rated,
		Overall:    report.Summary.Overall,
		Dimensions: make(map[model.Dimension]float64, len(model.AllDimensions)),
	}
	for _, d := range model.AllDimensions {
		snap.Dimensions[d] = report.Summary.Radar.Get(d)
	}
	id, err := st.InsertSnapshot(ctx, snap)
	if err != nil {
		return fmt.Errorf("failed to save import: %w", err)
	}
	slog.Info("imported snapshot", "id", id, "records", records, "rated", snap.Rated)

	previous, err := st.LatestSnapshots(ctx, 2)
	if err != nil {
		slog.Warn("failed to load previous import", "err", err)
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Imported %d records (%d rated). Rating: %.2f", records, snap.Rated, snap.Overall); err != nil {
		return err
	}
	if len(previous) > 1 {
		if _, err := fmt.Fprintf(out, " (%+.2f)", snap.Overall-stats.HistoryPoint(previous[1])); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(out)
	return err
}

// readScoreInput reads the export from the file argument, or stdin for "-" or
// no argument.
func readScoreInput(args []string, stdin io.Reader) (raw, source string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read score export: %w", err)
	}
	return string(data), filepath.Base(args[0]), nil
}

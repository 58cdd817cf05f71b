package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/drumrate/internal/export"
	"github.com/verte-zerg/drumrate/internal/model"
	"github.com/verte-zerg/drumrate/internal/recommend"
	"github.com/verte-zerg/drumrate/internal/stats"
	"github.com/verte-zerg/drumrate/internal/statsui"
)

const exportTimeout = 30 * time.Second

var (
	statsRecommend recommendSettings
	statsHistory   historySettings

	topDimension string
	topAll       bool

	recommendFlags recommendSettings

	historyFlags  historySettings
	historyDelete int64

	exportRecommend recommendSettings
	exportSheetURL  string
	exportSheetName string
	exportCreds     string
)

// historySettings holds the history filter flags.
type historySettings struct {
	since  string
	last   int
	window int
}

func addHistoryFlags(cmd *cobra.Command, s *historySettings) {
	cmd.Flags().StringVar(&s.since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&s.last, "last", 0, "limit to last N imports")
	cmd.Flags().IntVar(&s.window, "window", defaultCurveWindow, "moving average window")
}

func (s historySettings) resolve() (model.HistoryConfig, error) {
	cfg := model.HistoryConfig{Last: s.last, Window: s.window}
	if s.since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s.since, time.Local)
		if err != nil {
			return model.HistoryConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	if s.last < 0 {
		return model.HistoryConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if s.window < 1 {
		return model.HistoryConfig{}, fmt.Errorf("--window must be >= 1")
	}
	return cfg, nil
}

// loadReport opens the chart database and the store and builds the current report.
func loadReport(cmd *cobra.Command) (stats.Report, []model.DuplicateGroup, error) {
	cfg, err := reportConfig(cmd)
	if err != nil {
		return stats.Report{}, nil, err
	}
	db, err := loadCharts()
	if err != nil {
		return stats.Report{}, nil, err
	}
	groups := loadGroups()
	st, err := openStore()
	if err != nil {
		return stats.Report{}, nil, err
	}
	defer closeStore(st)

	report, err := stats.BuildReport(context.Background(), st, db, groups, cfg)
	if err != nil {
		return stats.Report{}, nil, err
	}
	return report, groups, nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse ratings, top lists and recommendations",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	addRatingFlags(cmd)
	addRecommendFlags(cmd, &statsRecommend)
	addHistoryFlags(cmd, &statsHistory)
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	rcfg, err := reportConfig(cmd)
	if err != nil {
		return err
	}
	dim, opts, err := statsRecommend.resolve(cmd)
	if err != nil {
		return err
	}
	hcfg, err := statsHistory.resolve()
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

	ui := statsui.NewModel(st, db, groups, statsui.Config{
		Report:    rcfg,
		History:   hcfg,
		Dimension: dim,
		Recommend: opts,
	})
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newTopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Print the overall rating and the best charts",
		Args:  cobra.NoArgs,
		RunE:  runTopCmd,
	}
	cmd.Flags().StringVarP(&topDimension, "dimension", "d", defaultDimension, "dimension to list")
	cmd.Flags().BoolVar(&topAll, "all", false, "list every dimension")
	addRatingFlags(cmd)
	return cmd
}

func runTopCmd(cmd *cobra.Command, _ []string) error {
	dims := model.AllDimensions
	if !topAll {
		dim, err := model.ParseDimension(topDimension)
		if err != nil {
			return fmt.Errorf("--dimension: %w", err)
		}
		dims = []model.Dimension{dim}
	}
	report, _, err := loadReport(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report); err != nil {
		return err
	}
	if report.Snapshot == nil {
		return nil
	}
	for _, d := range dims {
		if err := stats.RenderTopList(out, d, report.Top[d]); err != nil {
			return err
		}
	}
	return nil
}

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest charts to practise next",
		Args:  cobra.NoArgs,
		RunE:  runRecommendCmd,
	}
	addRecommendFlags(cmd, &recommendFlags)
	addRatingFlags(cmd)
	return cmd
}

func runRecommendCmd(cmd *cobra.Command, _ []string) error {
	dim, opts, err := recommendFlags.resolve(cmd)
	if err != nil {
		return err
	}
	report, groups, err := loadReport(cmd)
	if err != nil {
		return err
	}
	if report.Snapshot == nil {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No imports found. Run `drumrate import` first.")
		return err
	}
	dim, recs := recommendFor(report, dim, opts, groups, ratingOnlyCN, recommendFlags.focusWeak)
	slog.Debug("recommended", "dimension", dim, "count", len(recs), "blacklisted", len(report.Blacklist))
	return renderRecommendations(cmd.OutOrStdout(), dim, recs)
}

func renderRecommendations(w io.Writer, dim model.Dimension, recs []recommend.Recommendation) error {
	if _, err := fmt.Fprintf(w, "Recommendations: %s\n", dim.Label()); err != nil {
		return err
	}
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No charts to recommend.")
		return err
	}
	headers := []string{"#", "Title", "Const", "Now", "Max", "Room", "Status"}
	rows := make([][]string, 0, len(recs))
	for i, rec := range recs {
		status := "played"
		now := fmt.Sprintf("%.2f", dim.Of(rec.Stats))
		if rec.Unplayed {
			status = "new"
			now = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			rec.Stats.Title,
			fmt.Sprintf("%.1f", rec.Chart.Data.Constant),
			now,
			fmt.Sprintf("%.2f", rec.Ceiling),
			fmt.Sprintf("%.0f%%", rec.Potential*100),
			status,
		})
	}
	right := map[int]bool{0: true, 2: true, 3: true, 4: true, 5: true}
	return stats.WriteTable(w, headers, rows, right)
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the rating across imports",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	addHistoryFlags(cmd, &historyFlags)
	cmd.Flags().Int64Var(&historyDelete, "delete", 0, "delete the import with this ID")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := historyFlags.resolve()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	if cmd.Flags().Changed("delete") {
		if err := st.DeleteSnapshot(ctx, historyDelete); err != nil {
			return fmt.Errorf("failed to delete import %d: %w", historyDelete, err)
		}
		slog.Info("deleted import", "id", historyDelete)
	}
	snaps, err := st.ListSnapshots(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return stats.RenderHistory(cmd.OutOrStdout(), snaps, cfg.Window)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Upload the report to Google Sheets",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportSheetURL, "sheet-url", "", "spreadsheet URL")
	cmd.Flags().StringVar(&exportSheetName, "sheet-name", defaultSheetName, "sheet (tab) name")
	cmd.Flags().StringVar(&exportCreds, "credentials", "", "service account JSON file")
	addRecommendFlags(cmd, &exportRecommend)
	addRatingFlags(cmd)
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "sheet-url", &exportSheetURL, fileCfg.Export.SheetURL)
	applyStringConfig(cmd, "sheet-name", &exportSheetName, fileCfg.Export.SheetName)
	applyStringConfig(cmd, "credentials", &exportCreds, fileCfg.Export.Credentials)
	if exportSheetURL == "" {
		return fmt.Errorf("--sheet-url is required")
	}
	if exportCreds == "" {
		return fmt.Errorf("--credentials is required")
	}
	dim, opts, err := exportRecommend.resolve(cmd)
	if err != nil {
		return err
	}
	creds, err := os.ReadFile(exportCreds)
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	report, groups, err := loadReport(cmd)
	if err != nil {
		return err
	}
	if report.Snapshot == nil {
		return fmt.Errorf("nothing to export (run: drumrate import)")
	}
	dim, recs := recommendFor(report, dim, opts, groups, ratingOnlyCN, exportRecommend.focusWeak)
	rows := export.BuildRows(report, dim, recs)

	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()
	client, err := export.NewSheetsClient(ctx, creds, exportSheetURL, exportSheetName)
	if err != nil {
		return err
	}
	if err := client.Upload(ctx, rows); err != nil {
		return err
	}
	slog.Info("exported report", "sheet", exportSheetName, "rows", len(rows))
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/drumrate/internal/chartdb"
	"github.com/verte-zerg/drumrate/internal/model"
	"github.com/verte-zerg/drumrate/internal/rating"
	"github.com/verte-zerg/drumrate/internal/scores"
	"github.com/verte-zerg/drumrate/internal/stats"
	"github.com/verte-zerg/drumrate/internal/store"
)

var (
	fetchForce bool
	fetchURL   string

	chartUra bool

	lockGreat int
	lockGood  int
	lockBad   int
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the chart database",
		Args:  cobra.NoArgs,
		RunE:  runFetchCmd,
	}
	cmd.Flags().BoolVar(&fetchForce, "force", false, "download even if a cached copy exists")
	cmd.Flags().StringVar(&fetchURL, "url", "", "chart database URL (default from config)")
	return cmd
}

func runFetchCmd(cmd *cobra.Command, _ []string) error {
	url := chartDBURL
	if fetchURL != "" {
		url = fetchURL
	}
	slog.Info("fetching chart database", "url", url)
	dl, err := chartdb.Fetch(context.Background(), url, chartDBPath, fetchForce)
	if err != nil {
		return err
	}
	state := "Downloaded"
	if dl.Cached {
		state = "Using cached"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s chart database %s (%s)\n", state, dl.Path, humanize.Bytes(uint64(dl.Bytes)))
	return err
}

// resolveChart finds the chart named by arg: "<id>-<level>", a bare id, or a title.
func resolveChart(db *chartdb.Database, arg string, ura bool) (model.Chart, error) {
	arg = strings.TrimSpace(arg)
	tier := model.TierOni
	if ura {
		tier = model.TierUra
	}
	if idPart, levelPart, ok := strings.Cut(arg, "-"); ok {
		id, idErr := strconv.Atoi(idPart)
		level, levelErr := strconv.Atoi(levelPart)
		if idErr == nil && levelErr == nil {
			return lookupChart(db, model.ChartKey{ID: id, Tier: model.Tier(level)})
		}
	}
	if id, err := strconv.Atoi(arg); err == nil {
		return lookupChart(db, model.ChartKey{ID: id, Tier: tier})
	}

	matches := db.FindByTitle(arg)
	if ura {
		filtered := matches[:0]
		for _, c := range matches {
			if c.Tier == model.TierUra {
				filtered = append(filtered, c)
			}
		}
		matches = filtered
	}
	switch len(matches) {
	case 0:
		return model.Chart{}, fmt.Errorf("no chart matches %q", arg)
	case 1:
		return matches[0], nil
	}
	keys := make([]string, len(matches))
	for i, c := range matches {
		keys[i] = fmt.Sprintf("%s %s", c.Key(), c.DisplayTitle(false))
	}
	return model.Chart{}, fmt.Errorf("%q matches several charts, use <id>-<level>:\n  %s", arg, strings.Join(keys, "\n  "))
}

func lookupChart(db *chartdb.Database, key model.ChartKey) (model.Chart, error) {
	if !key.Tier.Valid() {
		return model.Chart{}, fmt.Errorf("invalid level %d (want %d or %d)", key.Tier, model.TierOni, model.TierUra)
	}
	chart, ok := db.Lookup(key)
	if !ok {
		return model.Chart{}, fmt.Errorf("chart %s not found", key)
	}
	return chart, nil
}

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart <title|id|id-level>",
		Short: "Show chart data and rating ceilings",
		Args:  cobra.ExactArgs(1),
		RunE:  runChartCmd,
	}
	cmd.Flags().BoolVar(&chartUra, "ura", false, "select the ura chart")
	return cmd
}

func runChartCmd(cmd *cobra.Command, args []string) error {
	db, err := loadCharts()
	if err != nil {
		return err
	}
	chart, err := resolveChart(db, args[0], chartUra)
	if err != nil {
		return err
	}
	return renderChart(cmd.OutOrStdout(), chart)
}

func renderChart(w io.Writer, chart model.Chart) error {
	d := chart.Data
	if _, err := fmt.Fprintf(w, "%s [%s]\nConstant %.1f, %d notes, density %.2f avg / %.2f peak\n\n",
		chart.DisplayTitle(false), chart.Key(), d.Constant, d.TotalNotes, d.AvgDensity, d.InstDensity); err != nil {
		return err
	}
	x := rating.DifficultyToScale(d.Constant)
	b := rating.CalcBoundaries(x, rating.AccuracyToScore(1))
	ceilings := rating.CalcMaxRatings(d)
	rows := make([][]string, 0, len(model.AllDimensions))
	for _, dim := range model.AllDimensions {
		rows = append(rows, []string{dim.Label(), fmt.Sprintf("%.2f", ceilings.Get(dim))})
	}
	if err := stats.WriteTable(w, []string{"Dimension", "Max"}, rows, map[int]bool{1: true}); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Rating span: %.2f to %.2f by accuracy\n", b.YMin, b.YMax)
	return err
}

func newBlacklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist [title|id|id-level]",
		Short: "List blacklisted charts or toggle one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBlacklistCmd,
	}
	cmd.Flags().BoolVar(&chartUra, "ura", false, "select the ura chart")
	return cmd
}

func runBlacklistCmd(cmd *cobra.Command, args []string) error {
	db, err := loadCharts()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		entries, err := st.ListBlacklist(ctx)
		if err != nil {
			return fmt.Errorf("failed to load blacklist: %w", err)
		}
		if len(entries) == 0 {
			_, err := fmt.Fprintln(out, "Blacklist is empty.")
			return err
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			title := "?"
			if c, ok := db.Lookup(e.Key); ok {
				title = c.DisplayTitle(false)
			}
			rows = append(rows, []string{e.Key.String(), title, humanize.Time(e.AddedAt)})
		}
		return stats.WriteTable(out, []string{"Chart", "Title", "Added"}, rows, nil)
	}

	chart, err := resolveChart(db, args[0], chartUra)
	if err != nil {
		return err
	}
	on, err := st.ToggleBlacklist(ctx, chart.Key(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update blacklist: %w", err)
	}
	verb := "Removed from"
	if on {
		verb = "Added to"
	}
	_, err = fmt.Fprintf(out, "%s blacklist: %s\n", verb, chart.DisplayTitle(false))
	return err
}

func newLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock [title|id|id-level]",
		Short: "List locked scores or pin a score for a chart",
		Long:  "Pin the judgments of a chart so they override every import. Without arguments, list the locks.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLockCmd,
	}
	cmd.Flags().BoolVar(&chartUra, "ura", false, "select the ura chart")
	cmd.Flags().IntVar(&lockGreat, "great", 0, "great judgments")
	cmd.Flags().IntVar(&lockGood, "good", 0, "good judgments")
	cmd.Flags().IntVar(&lockBad, "bad", 0, "bad judgments")
	return cmd
}

func runLockCmd(cmd *cobra.Command, args []string) error {
	db, err := loadCharts()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	if len(args) == 0 {
		return listLocks(ctx, cmd.OutOrStdout(), st, db)
	}
	if !cmd.Flags().Changed("great") {
		return fmt.Errorf("--great is required")
	}
	chart, err := resolveChart(db, args[0], chartUra)
	if err != nil {
		return err
	}
	if err := validateJudgments(chart, lockGreat, lockGood, lockBad); err != nil {
		return err
	}

	now := time.Now()
	err = st.UpdateLockedScore(ctx, chart.Key(), lockGreat, lockGood, lockBad, now)
	switch {
	case err == nil:
		slog.Info("updated locked score", "chart", chart.Key())
	case errors.Is(err, store.ErrNotLocked):
		score := importedScore(ctx, st, chart.Key())
		score.Great, score.Good, score.Bad = lockGreat, lockGood, lockBad
		if err := st.LockScore(ctx, score, now); err != nil {
			return fmt.Errorf("failed to lock score: %w", err)
		}
		slog.Info("locked score", "chart", chart.Key())
	default:
		return fmt.Errorf("failed to update locked score: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Locked %s: %d/%d/%d\n", chart.DisplayTitle(false), lockGreat, lockGood, lockBad)
	return err
}

func validateJudgments(chart model.Chart, great, good, bad int) error {
	if great < 0 || good < 0 || bad < 0 {
		return fmt.Errorf("judgment counts must be >= 0")
	}
	if total := chart.Data.TotalNotes; total > 0 && great+good+bad > total {
		return fmt.Errorf("judgments exceed the %d notes of %s", total, chart.DisplayTitle(false))
	}
	return nil
}

// importedScore returns the latest imported record of a chart, or an empty
// record for it.
func importedScore(ctx context.Context, st *store.Store, key model.ChartKey) model.UserScore {
	fallback := model.UserScore{ID: key.ID, Level: key.Tier}
	snaps, err := st.LatestSnapshots(ctx, 1)
	if err != nil {
		slog.Warn("failed to load latest import", "err", err)
		return fallback
	}
	if len(snaps) == 0 {
		return fallback
	}
	for _, sc := range scores.ParsePastedScores(snaps[0].Raw) {
		if sc.Key() == key {
			return sc
		}
	}
	return fallback
}

func listLocks(ctx context.Context, w io.Writer, st *store.Store, db *chartdb.Database) error {
	locks, err := st.ListLockedScores(ctx)
	if err != nil {
		return fmt.Errorf("failed to load locked scores: %w", err)
	}
	if len(locks) == 0 {
		_, err := fmt.Fprintln(w, "No locked scores.")
		return err
	}
	rows := make([][]string, 0, len(locks))
	for _, l := range locks {
		title := "?"
		if c, ok := db.Lookup(l.Score.Key()); ok {
			title = c.DisplayTitle(false)
		}
		rows = append(rows, []string{
			l.Score.Key().String(),
			title,
			strconv.Itoa(l.Score.Great),
			strconv.Itoa(l.Score.Good),
			strconv.Itoa(l.Score.Bad),
			humanize.Time(l.UpdatedAt),
		})
	}
	return stats.WriteTable(w, []string{"Chart", "Title", "Great", "Good", "Bad", "Updated"}, rows, map[int]bool{2: true, 3: true, 4: true})
}

func newUnlockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlock <title|id|id-level>",
		Short: "Remove a locked score",
		Args:  cobra.ExactArgs(1),
		RunE:  runUnlockCmd,
	}
	cmd.Flags().BoolVar(&chartUra, "ura", false, "select the ura chart")
	return cmd
}

func runUnlockCmd(cmd *cobra.Command, args []string) error {
	db, err := loadCharts()
	if err != nil {
		return err
	}
	chart, err := resolveChart(db, args[0], chartUra)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	removed, err := st.UnlockScore(context.Background(), chart.Key())
	if err != nil {
		return fmt.Errorf("failed to unlock score: %w", err)
	}
	if !removed {
		return fmt.Errorf("%s has no locked score", chart.DisplayTitle(false))
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Unlocked %s\n", chart.DisplayTitle(false))
	return err
}

// Package main provides the CLI entrypoint for drumrate.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/drumrate/internal/chartdb"
	"github.com/verte-zerg/drumrate/internal/config"
	"github.com/verte-zerg/drumrate/internal/model"
	"github.com/verte-zerg/drumrate/internal/recommend"
	"github.com/verte-zerg/drumrate/internal/stats"
	"github.com/verte-zerg/drumrate/internal/store"
)

const (
	defaultAlgorithm   = string(model.AlgorithmGreatOnly)
	defaultDimension   = string(model.DimRating)
	defaultCurveWindow = 5
	defaultSheetName   = "drumrate"
	defaultLogLevel    = "info"
	defaultChartDBURL  = "https://rating.ourtaiko.org/songs.json"
)

var (
	verbose  bool
	fileCfg  config.FileConfig
	logLevel = new(slog.LevelVar)

	ratingAlgorithm string
	ratingOnlyCN    bool
	ratingTopSize   int

	chartDBURL     string
	chartDBPath    string
	duplicatesPath string
	dbPath         string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "drumrate",
		Short:             "Taiko drum skill rating and chart recommendations",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&chartDBPath, "charts", config.DefaultChartDBPath(), "chart database file")
	rootCmd.PersistentFlags().StringVar(&duplicatesPath, "duplicates", config.DefaultDuplicatesPath(), "duplicate group table (YAML)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "SQLite database")

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newTopCmd())
	rootCmd.AddCommand(newRecommendCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newChartCmd())
	rootCmd.AddCommand(newBlacklistCmd())
	rootCmd.AddCommand(newLockCmd())
	rootCmd.AddCommand(newUnlockCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// setup loads the config file and configures logging before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg = cfg

	level := defaultLogLevel
	if cfg.Log.Level != nil {
		level = *cfg.Log.Level
	}
	if verbose {
		level = "debug"
	}
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	applyStringConfig(cmd, "charts", &chartDBPath, cfg.Data.ChartDBPath)
	applyStringConfig(cmd, "duplicates", &duplicatesPath, cfg.Data.DuplicatesPath)
	applyStringConfig(cmd, "db", &dbPath, cfg.Data.DBPath)
	chartDBURL = defaultChartDBURL
	if cfg.Data.ChartDBURL != nil {
		chartDBURL = *cfg.Data.ChartDBURL
	}
	slog.Debug("configured", "db", dbPath, "charts", chartDBPath, "duplicates", duplicatesPath)
	return nil
}

// addRatingFlags registers the flags that change how scores are rated.
func addRatingFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ratingAlgorithm, "algorithm", defaultAlgorithm, "accuracy algorithm (great-only or comprehensive)")
	cmd.Flags().BoolVar(&ratingOnlyCN, "only-cn", false, "only rate charts available on CN servers")
	cmd.Flags().IntVar(&ratingTopSize, "top", stats.TopCount, "entries per top list")
}

func reportConfig(cmd *cobra.Command) (model.ReportConfig, error) {
	applyStringConfig(cmd, "algorithm", &ratingAlgorithm, fileCfg.Rating.Algorithm)
	applyBoolConfig(cmd, "only-cn", &ratingOnlyCN, fileCfg.Rating.OnlyCN)
	applyIntConfig(cmd, "top", &ratingTopSize, fileCfg.Rating.TopSize)

	algo, err := config.ParseAlgorithm(ratingAlgorithm)
	if err != nil {
		return model.ReportConfig{}, fmt.Errorf("--algorithm: %w", err)
	}
	if ratingTopSize <= 0 {
		return model.ReportConfig{}, fmt.Errorf("--top must be > 0")
	}
	return model.ReportConfig{Algorithm: algo, OnlyCN: ratingOnlyCN, TopSize: ratingTopSize}, nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Warn("failed to close db", "err", err)
	}
}

func loadCharts() (*chartdb.Database, error) {
	db, err := chartdb.Load(chartDBPath)
	if err != nil {
		if _, statErr := os.Stat(chartDBPath); os.IsNotExist(statErr) {
			return nil, fmt.Errorf("chart database not found at %s (run: drumrate fetch)", chartDBPath)
		}
		return nil, err
	}
	slog.Debug("loaded chart database", "path", chartDBPath, "charts", db.Len())
	return db, nil
}

func loadGroups() []model.DuplicateGroup {
	groups, err := chartdb.LoadDuplicateGroups(duplicatesPath)
	if err != nil {
		slog.Warn("ignoring duplicate groups", "path", duplicatesPath, "err", err)
		return nil
	}
	slog.Debug("loaded duplicate groups", "path", duplicatesPath, "groups", len(groups))
	return groups
}

// recommendSettings holds the resolved recommendation flags.
type recommendSettings struct {
	dimension string
	limit     int
	adjust    float64
	base      float64
	focusWeak bool
}

func addRecommendFlags(cmd *cobra.Command, s *recommendSettings) {
	cmd.Flags().StringVarP(&s.dimension, "dimension", "d", defaultDimension, "dimension to improve")
	cmd.Flags().IntVarP(&s.limit, "limit", "n", recommend.DefaultLimit, "number of recommendations")
	cmd.Flags().Float64Var(&s.adjust, "difficulty-adjust", 0, "raise or lower the constant cap")
	cmd.Flags().Float64Var(&s.base, "constant-base", 0, "override the Best-20 median constant")
	cmd.Flags().BoolVar(&s.focusWeak, "focus-weak", false, "target the weakest radar dimension")
}

func (s *recommendSettings) resolve(cmd *cobra.Command) (model.Dimension, recommend.Options, error) {
	applyStringConfig(cmd, "dimension", &s.dimension, fileCfg.Recommend.Dimension)
	applyIntConfig(cmd, "limit", &s.limit, fileCfg.Recommend.Limit)
	applyFloatConfig(cmd, "difficulty-adjust", &s.adjust, fileCfg.Recommend.DifficultyAdjust)
	applyFloatConfig(cmd, "constant-base", &s.base, fileCfg.Recommend.ConstantBase)
	applyBoolConfig(cmd, "focus-weak", &s.focusWeak, fileCfg.Recommend.FocusWeak)

	dim, err := model.ParseDimension(s.dimension)
	if err != nil {
		return "", recommend.Options{}, fmt.Errorf("--dimension: %w", err)
	}
	if s.limit <= 0 {
		return "", recommend.Options{}, fmt.Errorf("--limit must be > 0")
	}
	if s.adjust < config.MinDifficultyAdjust {
		return "", recommend.Options{}, fmt.Errorf("--difficulty-adjust must be >= %.0f", config.MinDifficultyAdjust)
	}
	opts := recommend.Options{Limit: s.limit, DifficultyAdjustment: s.adjust}
	if cmd.Flags().Changed("constant-base") || fileCfg.Recommend.ConstantBase != nil {
		if s.base <= 0 {
			return "", recommend.Options{}, fmt.Errorf("--constant-base must be > 0")
		}
		base := s.base
		opts.ConstantBase = &base
	}
	return dim, opts, nil
}

// recommendFor runs the recommender over a report, skipping blacklisted charts.
func recommendFor(r stats.Report, dim model.Dimension, opts recommend.Options, groups []model.DuplicateGroup, preferCN, focusWeak bool) (model.Dimension, []recommend.Recommendation) {
	if focusWeak {
		if weak := stats.WeakDimensions(r.Summary, 1); len(weak) > 0 {
			dim = weak[0]
			slog.Info("focusing weakest dimension", "dimension", dim)
		}
	}
	opts.DuplicateGroups = groups
	opts.PreferCN = preferCN
	opts.Filter = func(c model.Chart) bool {
		_, blocked := r.Blacklist[c.Key()]
		return !blocked
	}
	return dim, recommend.New(r.Charts).Recommend(r.Stats, dim, opts)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		slog.Info("created config", "path", path)
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# drumrate configuration
# Uncomment a value to enable it. CLI flags override config values.

[rating]
# algorithm = %q      # great-only or comprehensive
# only-cn = false              # Only rate charts available on CN servers
# top-size = %d                # Entries per top list

[recommend]
# dimension = %q          # rating, daigouryoku, stamina, speed, accuracy, rhythm, complex
# limit = %d                   # Number of recommendations
# difficulty-adjust = 0.0      # Raise or lower the constant cap
# constant-base = 10.5         # Override the Best-20 median constant
# focus-weak = false           # Target the weakest radar dimension

[data]
# chart-db-url = %q
# chart-db-path = %q
# duplicates-path = %q
# db-path = %q

[export]
# sheet-url = ""               # https://docs.google.com/spreadsheets/d/<id>/edit
# sheet-name = %q
# credentials = ""             # Service account JSON file

[log]
# level = %q               # debug, info, warn or error
`,
		defaultAlgorithm,
		stats.TopCount,
		defaultDimension,
		recommend.DefaultLimit,
		defaultChartDBURL,
		config.DefaultChartDBPath(),
		config.DefaultDuplicatesPath(),
		config.DefaultDBPath(),
		defaultSheetName,
		defaultLogLevel,
	)
}

// Package main provides the CLI entrypoint for potlog.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/potlog/internal/config"
	"github.com/verte-zerg/potlog/internal/importer"
	"github.com/verte-zerg/potlog/internal/ingest"
	"github.com/verte-zerg/potlog/internal/model"
	"github.com/verte-zerg/potlog/internal/stats"
	"github.com/verte-zerg/potlog/internal/statsui"
	"github.com/verte-zerg/potlog/internal/store"
	"github.com/verte-zerg/potlog/internal/watch"
)

const (
	defaultFormat      = "Hold'em"
	defaultConfidence  = stats.DefaultConfidence
	defaultPageSize    = 50
	defaultImportsList = 20
	defaultCurveHeight = 12
)

const adjustLayout = "2006-01-02 15:04"

var (
	filterStakes string
	filterGame   string
	filterResult string
	filterSince  string
	filterUntil  string
	filterRange  string

	statsFormat     string
	statsConfidence float64
	statsHoursAxis  bool
	statsNoCurve    bool

	sessionsSort     string
	sessionsDesc     bool
	sessionsPage     int
	sessionsPageSize int

	groupsSort string
	groupsDesc bool

	importYear int
	importRoom string

	convertOut string

	adjustAt string

	purgeYes bool

	importsLimit int

	watchDir    string
	watchNotify bool
	watchScan   bool
)

var sessionColumns = map[string]model.Column{
	string(model.ColumnDate):   model.ColumnDate,
	string(model.ColumnStakes): model.ColumnStakes,
	string(model.ColumnGame):   model.ColumnGame,
	string(model.ColumnHands):  model.ColumnHands,
	string(model.ColumnResult): model.ColumnResult,
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "potlog",
		Short:         "Poker session tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runUICmd,
	}
	addFilterFlags(rootCmd)
	addReportFlags(rootCmd)
	rootCmd.Flags().IntVar(&sessionsPageSize, "page-size", defaultPageSize, "sessions per page")

	rootCmd.AddCommand(newUICmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newGroupsCmd())
	rootCmd.AddCommand(newAdjustCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newPurgeCmd())
	rootCmd.AddCommand(newImportsCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&filterStakes, "stakes", "", "stakes filter (exact, e.g. \"1 SC / 2 SC\")")
	cmd.Flags().StringVar(&filterGame, "game", "", "game format filter (exact)")
	cmd.Flags().StringVar(&filterResult, "result", "", "result filter: winning or losing")
	cmd.Flags().StringVar(&filterSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filterUntil, "until", "", "end date, exclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filterRange, "range", string(stats.RangeAll), "range preset: all, week, month, 3months, year")
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&statsFormat, "format", defaultFormat, "game format for BB/100 and variance (empty = all)")
	cmd.Flags().Float64Var(&statsConfidence, "confidence", defaultConfidence, "bankroll confidence: 0.90, 0.95 or 0.99")
	cmd.Flags().BoolVar(&statsHoursAxis, "hours", false, "plot the bankroll curve against hours played")
}

func newUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the stats viewer",
		Args:  cobra.NoArgs,
		RunE:  runUICmd,
	}
	addFilterFlags(cmd)
	addReportFlags(cmd)
	cmd.Flags().IntVar(&sessionsPageSize, "page-size", defaultPageSize, "sessions per page")
	return cmd
}

func runUICmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "page-size", &sessionsPageSize, fileCfg.Sessions.PageSize)
	if sessionsPageSize <= 0 {
		return fmt.Errorf("--page-size must be > 0")
	}
	cfg, err := buildStatsConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	cfg.PageSize = sessionsPageSize

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	model := statsui.NewModel(st, cfg, time.Now)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import session exports or saved history pages",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImportCmd,
	}
	addIngestFlags(cmd)
	return cmd
}

func addIngestFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&importYear, "year", 0, "year assigned to start times (0 = current year)")
	cmd.Flags().StringVar(&importRoom, "room", "", "room name stored with imported sessions")
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIngestConfig(cmd, fileCfg)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	im := importer.New(st, importer.Options{})
	opts := ingestOptions()
	failed := 0
	for _, path := range args {
		candidates, err := ingest.LoadFile(path, opts)
		if err != nil {
			logErrf("%s: %v\n", path, err)
			failed++
			continue
		}
		res, err := im.Import(cmd.Context(), filepath.Base(path), candidates)
		if err != nil {
			logErrf("%s: %s\n", path, res.Message)
			failed++
			continue
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, res.Message); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, len(args))
	}
	return nil
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <page>...",
		Short: "Convert saved history pages into session exports",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runConvertCmd,
	}
	addIngestFlags(cmd)
	cmd.Flags().StringVar(&convertOut, "out", "", "output directory (default: import directory)")
	return cmd
}

func runConvertCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIngestConfig(cmd, fileCfg)
	if convertOut == "" {
		convertOut = config.DefaultImportDir()
		applyStringConfig(cmd, "out", &convertOut, fileCfg.Import.Dir)
	}

	opts := ingestOptions()
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		candidates := ingest.ParsePage(string(content), opts)
		if len(candidates) == 0 {
			logErrf("%s: no sessions found\n", path)
			continue
		}
		sessions := make([]model.Session, 0, len(candidates))
		for _, c := range candidates {
			s, rej := ingest.Validate(c)
			if rej != nil {
				return fmt.Errorf("%s: %w", path, rej)
			}
			sessions = append(sessions, s)
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		outPath := filepath.Join(convertOut, stem+"-export.txt")
		if err := writeExport(outPath, sessions); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: wrote %d sessions to %s\n", path, len(sessions), outPath); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// writeExport writes through a hidden temp file so a running watcher only
// sees the finished export.
func writeExport(path string, sessions []model.Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp export: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := ingest.WriteExport(writer, sessions); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionsCmd,
	}
	addFilterFlags(cmd)
	cmd.Flags().StringVar(&sessionsSort, "sort", string(model.ColumnDate), "order by: date, stakes, game, hands, result")
	cmd.Flags().BoolVar(&sessionsDesc, "desc", false, "descending order")
	cmd.Flags().IntVar(&sessionsPage, "page", 1, "page number (1-based)")
	cmd.Flags().IntVar(&sessionsPageSize, "page-size", defaultPageSize, "sessions per page")
	return cmd
}

func runSessionsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "page-size", &sessionsPageSize, fileCfg.Sessions.PageSize)
	if sessionsPageSize <= 0 {
		return fmt.Errorf("--page-size must be > 0")
	}
	if sessionsPage < 1 {
		return fmt.Errorf("--page must be >= 1")
	}
	order, ok := sessionColumns[strings.ToLower(sessionsSort)]
	if !ok {
		return fmt.Errorf("invalid --sort value %q", sessionsSort)
	}
	cfg, err := buildStatsConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	filter := stats.EffectiveFilter(cfg, time.Now())
	total, err := st.CountSessions(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to count sessions: %w", err)
	}
	offset := (sessionsPage - 1) * sessionsPageSize
	sessions, err := st.ListSessions(ctx, model.Query{
		Filter: filter,
		Order:  order,
		Desc:   sessionsDesc,
		Limit:  sessionsPageSize,
		Offset: offset,
	})
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	return stats.RenderSessions(cmd.OutOrStdout(), sessions, offset, total)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print summary, bankroll and variance stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	addFilterFlags(cmd)
	addReportFlags(cmd)
	cmd.Flags().BoolVar(&statsNoCurve, "no-curve", false, "omit the bankroll curve")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := buildStatsConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	rep, err := stats.BuildReport(cmd.Context(), st, cfg, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, rep); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if statsNoCurve || len(rep.Sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderCurve(out, rep.Sessions, cfg.HoursAxis, 0, defaultCurveHeight, false); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Print results grouped by stakes and game",
		Args:  cobra.NoArgs,
		RunE:  runGroupsCmd,
	}
	addFilterFlags(cmd)
	cmd.Flags().StringVar(&groupsSort, "sort", string(stats.SortStakes), "sort by: stakes, game, profit, hands, bb100")
	cmd.Flags().BoolVar(&groupsDesc, "desc", false, "descending order")
	return cmd
}

func runGroupsCmd(cmd *cobra.Command, _ []string) error {
	key, err := stats.ParseSortKey(groupsSort)
	if err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := buildStatsConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	sessions, err := st.ListAll(cmd.Context(), stats.EffectiveFilter(cfg, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	groups := stats.Groups(sessions)
	stats.Sorter{Key: key, Ascending: !groupsDesc}.Sort(groups)
	return stats.RenderGroups(cmd.OutOrStdout(), groups)
}

func newAdjustCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adjust <amount>",
		Short: "Record a manual bankroll adjustment",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdjustCmd,
	}
	cmd.Flags().StringVar(&adjustAt, "at", "", "time of the adjustment (YYYY-MM-DD HH:MM, default now)")
	cmd.Flags().StringVar(&importRoom, "room", "", "room name stored with the adjustment")
	return cmd
}

func runAdjustCmd(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[0])
	}
	var at time.Time
	if adjustAt != "" {
		at, err = time.ParseInLocation(adjustLayout, adjustAt, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --at value (expected %s)", adjustLayout)
		}
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "room", &importRoom, fileCfg.Import.Room)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	res, err := importer.New(st, importer.Options{}).Adjust(cmd.Context(), amount, at, importRoom)
	if err != nil {
		return errors.New(res.Message)
	}
	if res.Duplicates > 0 {
		logErrln("an identical adjustment already exists")
		return nil
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded adjustment of %s\n", stats.FormatMoney(amount))
	return err
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Recompute total hours for every session",
		Args:  cobra.NoArgs,
		RunE:  runRefreshCmd,
	}
}

func runRefreshCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	changed, err := importer.New(st, importer.Options{}).Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to refresh sessions: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated %d sessions\n", changed)
	return err
}

func newPurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all sessions and the import log",
		Args:  cobra.NoArgs,
		RunE:  runPurgeCmd,
	}
	cmd.Flags().BoolVar(&purgeYes, "yes", false, "confirm deletion")
	return cmd
}

func runPurgeCmd(cmd *cobra.Command, _ []string) error {
	if !purgeYes {
		return fmt.Errorf("refusing to delete all sessions without --yes")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	deleted, err := st.DeleteAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d sessions\n", deleted)
	return err
}

func newImportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imports",
		Short: "List recent imports",
		Args:  cobra.NoArgs,
		RunE:  runImportsCmd,
	}
	cmd.Flags().IntVar(&importsLimit, "last", defaultImportsList, "number of imports to show")
	return cmd
}

func runImportsCmd(cmd *cobra.Command, _ []string) error {
	if importsLimit <= 0 {
		return fmt.Errorf("--last must be > 0")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	records, err := st.ListImports(cmd.Context(), importsLimit)
	if err != nil {
		return fmt.Errorf("failed to list imports: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No imports yet.")
		return err
	}
	for _, rec := range records {
		if _, err := fmt.Fprintf(out, "%s  %s  %-24s imported %d, skipped %d\n",
			rec.CreatedAt.Format("2006-01-02 15:04"), shortID(rec.BatchID), rec.Source, rec.Imported, rec.Duplicates); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Import exports as they appear in the import directory",
		Args:  cobra.NoArgs,
		RunE:  runWatchCmd,
	}
	addIngestFlags(cmd)
	cmd.Flags().StringVar(&watchDir, "dir", "", "directory to watch (default: import directory)")
	cmd.Flags().BoolVar(&watchNotify, "notify", false, "show a desktop notification after each import")
	cmd.Flags().BoolVar(&watchScan, "scan", false, "import exports already in the directory on start")
	return cmd
}

func runWatchCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIngestConfig(cmd, fileCfg)
	applyBoolConfig(cmd, "notify", &watchNotify, fileCfg.Import.Notify)
	if watchDir == "" {
		watchDir = config.DefaultImportDir()
		applyStringConfig(cmd, "dir", &watchDir, fileCfg.Import.Dir)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifier watch.Notifier
	if watchNotify {
		notifier = watch.DesktopNotifier{AppName: "potlog"}
	}
	w, err := watch.New(watch.Options{
		Dir:          watchDir,
		ScanExisting: watchScan,
		Load: func(path string) ([]model.Candidate, error) {
			return ingest.LoadFile(path, ingestOptions())
		},
		Importer: importer.New(st, importer.Options{}),
		Logf:     logErrf,
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		if serr := w.Stop(); serr != nil {
			_ = serr
		}
		return err
	}
	logErrf("Watching %s (Ctrl+C to stop)\n", watchDir)

	results := w.Results()
	for {
		select {
		case <-ctx.Done():
			if err := w.Stop(); err != nil {
				logErrf("failed to stop watcher: %v\n", err)
			}
			for ev := range results {
				reportWatchEvent(cmd, ev, notifier)
			}
			return nil
		case ev := <-results:
			reportWatchEvent(cmd, ev, notifier)
		}
	}
}

func reportWatchEvent(cmd *cobra.Command, ev watch.Event, notifier watch.Notifier) {
	name := filepath.Base(ev.Path)
	if ev.Err != nil {
		msg := ev.Err.Error()
		if ev.Result.Message != "" {
			msg = ev.Result.Message
		}
		logErrf("%s: %s\n", name, msg)
		return
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, ev.Result.Message); err != nil {
		logErrf("failed to write output: %v\n", err)
	}
	if notifier == nil || ev.Result.Imported == 0 {
		return
	}
	if err := notifier.Notify("potlog: "+name, ev.Result.Message); err != nil {
		logErrf("failed to send notification: %v\n", err)
	}
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

// buildStatsConfig merges file config into the report flags and parses the
// shared filter flags. Commands without report flags keep the defaults.
func buildStatsConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.StatsConfig, error) {
	if cmd.Flags().Lookup("format") != nil {
		applyStringConfig(cmd, "format", &statsFormat, fileCfg.Stats.Format)
		applyFloatConfig(cmd, "confidence", &statsConfidence, fileCfg.Stats.Confidence)
		if !slices.Contains(stats.Confidences(), statsConfidence) {
			return model.StatsConfig{}, fmt.Errorf("--confidence must be one of 0.90, 0.95 or 0.99")
		}
	}
	applyStringConfig(cmd, "range", &filterRange, fileCfg.Stats.Range)

	rng, err := stats.ParseRange(filterRange)
	if err != nil {
		return model.StatsConfig{}, err
	}
	outcome, err := statsui.ParseOutcome(filterResult)
	if err != nil {
		return model.StatsConfig{}, err
	}
	since, err := parseDateFlag(filterSince, "--since")
	if err != nil {
		return model.StatsConfig{}, err
	}
	until, err := parseDateFlag(filterUntil, "--until")
	if err != nil {
		return model.StatsConfig{}, err
	}
	return model.StatsConfig{
		Filter: model.Filter{
			Stakes:     filterStakes,
			GameFormat: filterGame,
			Outcome:    outcome,
			Since:      since,
			Until:      until,
		},
		Range:      string(rng),
		Format:     statsFormat,
		Confidence: statsConfidence,
		HoursAxis:  statsHoursAxis,
	}, nil
}

func parseDateFlag(v, name string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %w", name, err)
	}
	return &parsed, nil
}

func applyIngestConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyIntConfig(cmd, "year", &importYear, fileCfg.Import.Year)
	applyStringConfig(cmd, "room", &importRoom, fileCfg.Import.Room)
}

func ingestOptions() ingest.Options {
	return ingest.Options{
		Year: importYear,
		Now:  time.Now(),
		Room: importRoom,
	}
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
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
	return fmt.Sprintf(`# potlog configuration
# Uncomment a value to enable it. CLI flags override config values.

[stats]
# confidence = %.2f       # Bankroll confidence: 0.90, 0.95 or 0.99
# format = %q        # Game format used for BB/100 and variance ("" = all)
# range = %q              # all, week, month, 3months or year

[sessions]
# page-size = %d          # Sessions per page

[import]
# dir = %q
# year = 0               # Year assigned to start times (0 = current year)
# room = ""              # Room name stored with imported sessions
# notify = false         # Desktop notification after a watched import
`,
		defaultConfidence,
		defaultFormat,
		string(stats.RangeAll),
		defaultPageSize,
		config.DefaultImportDir(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/joho/godotenv"
	"github.com/san-kum/pendulab/internal/clock"
	"github.com/san-kum/pendulab/internal/config"
	"github.com/san-kum/pendulab/internal/experiment"
	"github.com/san-kum/pendulab/internal/logging"
	"github.com/san-kum/pendulab/internal/server"
	"github.com/san-kum/pendulab/internal/sim"
	"github.com/san-kum/pendulab/internal/storage"
	"github.com/san-kum/pendulab/internal/storeclient"
	"github.com/san-kum/pendulab/internal/trials"
	"github.com/san-kum/pendulab/internal/tui"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"
)

const logFileName = "pendulab.log"

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	devLog     bool
	storeURL   string
	// Trial parameters
	oscillations float64
	lengthCm     int
	angle        float64
	profile      string
	theme        string
	// run
	numTrials int
	save      bool
	// serve
	listenAddr string
	dbPath     string
	// export
	outFile string
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "pendulab",
		Short:         "simple pendulum timing lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")
	pf.BoolVar(&devLog, "dev-log", false, "human readable development logs")
	pf.StringVar(&storeURL, "store", config.DefaultStoreURL, "trial store url, empty to disable")

	addTrialFlags(rootCmd)

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive pendulum lab",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
	addTrialFlags(tuiCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "time trials headless and print the average period",
		Args:  cobra.NoArgs,
		RunE:  runTrials,
	}
	addTrialFlags(runCmd)
	runCmd.Flags().IntVar(&numTrials, "trials", 3, "number of trials")
	runCmd.Flags().BoolVar(&save, "save", false, "archive the session under the data directory")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the trial store",
		Args:  cobra.NoArgs,
		RunE:  runServer,
	}
	serveCmd.Flags().StringVar(&listenAddr, "listen", config.DefaultListenAddr, "listen address")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (default in memory)")

	averageCmd := &cobra.Command{
		Use:   "average",
		Short: "ask the trial store for its average period",
		Args:  cobra.NoArgs,
		RunE:  storeAverage,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "remove every trial from the trial store",
		Args:  cobra.NoArgs,
		RunE:  storeClear,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived sessions",
		Args:  cobra.NoArgs,
		RunE:  listSessions,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [session_id]",
		Short: "plot T² against length for a session",
		Args:  cobra.ExactArgs(1),
		RunE:  plotSession,
	}

	exportCmd := &cobra.Command{
		Use:   "export [session_id]",
		Short: "export a session as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSession,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}
	addTrialFlags(configCmd)

	rootCmd.AddCommand(tuiCmd, runCmd, serveCmd, averageCmd, clearCmd, listCmd, plotCmd, exportCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func addTrialFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64VarP(&oscillations, "oscillations", "n", sim.DefaultOscillations, "oscillations to time")
	f.IntVarP(&lengthCm, "length", "l", sim.DefaultLengthCm, "pendulum length in cm")
	f.Float64Var(&angle, "angle", sim.DefaultInitialAngleDeg, "release angle in degrees")
	f.StringVar(&profile, "profile", sim.ProfileStandard.Name, "timing profile (standard, constrained)")
	f.StringVar(&theme, "theme", config.DefaultTheme, "tui theme")
	f.StringVar(&preset, "preset", "", "preset as group/name")
}

// loadConfig layers defaults, the config file, the environment, a preset
// and finally the flags the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	f := cmd.Flags()
	if f.Lookup("preset") != nil && preset != "" {
		p, err := lookupPreset(preset)
		if err != nil {
			return nil, err
		}
		cfg.Apply(p)
	}

	changed := func(name string) bool {
		return f.Lookup(name) != nil && f.Changed(name)
	}
	if changed("oscillations") {
		cfg.Oscillations = oscillations
	}
	if changed("length") {
		cfg.LengthCm = lengthCm
	}
	if changed("angle") {
		cfg.InitialAngleDeg = angle
	}
	if changed("profile") {
		cfg.Profile = profile
	}
	if changed("theme") {
		cfg.Theme = theme
	}
	if changed("data") {
		cfg.DataDir = dataDir
	}
	if changed("store") {
		cfg.Store.URL = storeURL
	}
	if changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if changed("dev-log") {
		cfg.Log.Development = devLog
	}
	if changed("listen") {
		cfg.Server.Listen = listenAddr
	}
	if changed("db") {
		cfg.Server.DB = dbPath
	}

	cfg.Sanitize()
	return cfg, nil
}

func lookupPreset(name string) (*config.Config, error) {
	group, key, ok := strings.Cut(name, "/")
	if !ok {
		return nil, fmt.Errorf("preset %q: expected group/name (groups: %v)", name, config.ListGroups())
	}
	p := config.GetPreset(group, key)
	if p == nil {
		return nil, fmt.Errorf("unknown preset: %s (available in %s: %v)", name, group, config.ListPresets(group))
	}
	return p, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	atexit.Register(func() { _ = logger.Sync() })
	return logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file in the data directory.
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return err
	}
	logger, err := logging.NewFile(cfg.Log.Level, cfg.Log.Development, filepath.Join(cfg.DataDir, logFileName))
	if err != nil {
		return err
	}
	atexit.Register(func() { _ = logger.Sync() })

	return tui.Run(tui.Options{Config: cfg, Clock: clock.Real(), Logger: logger})
}

// progress prints each trial as it completes.
type progress struct {
	out io.Writer
}

func (p progress) OnFrame(sim.State)         {}
func (p progress) OnStopwatch(time.Duration) {}

func (p progress) OnTrial(t trials.Trial) {
	fmt.Fprintf(p.out, "trial %d: %.2fs for %g oscillations, period %.2fs\n",
		t.Number, t.TotalTime, t.Oscillations, t.Period)
}

func runTrials(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	if numTrials < 1 {
		return fmt.Errorf("--trials must be at least 1")
	}

	exp, err := experiment.New(experiment.FromConfig(cfg, numTrials), clock.Real(), logger)
	if err != nil {
		return err
	}
	defer exp.Close()

	out := cmd.OutOrStdout()
	exp.Setup(progress{out: out})

	p := exp.Config().Params
	fmt.Fprintf(out, "timing %d trial(s): %g oscillations, %d cm, %g°, %s profile\n",
		numTrials, p.TargetOscillations, p.LengthCm, p.InitialAngleDeg, cfg.Profile)

	ctx, stop := signalContext()
	defer stop()

	start := time.Now()
	report, runErr := exp.Run(ctx)
	if report == nil {
		return runErr
	}
	if errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(out, "interrupted")
	}

	fmt.Fprintln(out)
	if err := printReport(out, report); err != nil {
		return err
	}
	fmt.Fprintf(out, "wall time: %s\n", time.Since(start).Round(time.Millisecond))

	if save && len(report.Trials) > 0 {
		archive := storage.New(cfg.DataDir)
		if err := archive.Init(); err != nil {
			return err
		}
		id, err := archive.Save(cfg.Profile, exp.Log(), report.Result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved session %s\n", id)
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func printReport(out io.Writer, report *experiment.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tOSC\tTOTAL\tPERIOD\tLENGTH")
	for _, t := range report.Trials {
		fmt.Fprintf(w, "%d\t%g\t%.2fs\t%.2fs\t%dcm\n", t.Number, t.Oscillations, t.TotalTime, t.Period, t.LengthCm)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	r := report.Result
	if r.Empty() {
		fmt.Fprintln(out, "no trials to average")
		return nil
	}
	fmt.Fprintf(out, "average period: %.2fs over %d trial(s) (%s)\n", r.Average, r.Count, r.Source)
	return nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	var store storage.TrialStore
	if cfg.Server.DB != "" {
		db, err := storage.NewSQLite(cfg.Server.DB)
		if err != nil {
			return err
		}
		store = db
	} else {
		store = storage.NewMemory()
	}
	defer store.Close()

	ctx, stop := signalContext()
	defer stop()

	backend := "memory"
	if cfg.Server.DB != "" {
		backend = cfg.Server.DB
	}
	logger.Info("trial store backend", zap.String("db", backend))
	return server.New(store, logger.Named("server")).ListenAndServe(ctx, cfg.Server.Listen)
}

func newStoreClient(cmd *cobra.Command) (*storeclient.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Store.URL == "" {
		return nil, fmt.Errorf("no trial store configured")
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return storeclient.New(cfg.Store.URL,
		storeclient.WithTimeout(cfg.Store.Timeout),
		storeclient.WithLogger(logger.Named("store")))
}

func storeAverage(cmd *cobra.Command, args []string) error {
	client, err := newStoreClient(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	summary, err := client.Average(ctx)
	out := cmd.OutOrStdout()
	if storeclient.IsEmptyReply(err) || (err == nil && summary.Count == 0) {
		fmt.Fprintf(out, "%s holds no trials\n", client.URL())
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "average period: %.2fs over %d trial(s) at %s\n", summary.Average, summary.Count, client.URL())
	return nil
}

func storeClear(cmd *cobra.Command, args []string) error {
	client, err := newStoreClient(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	if err := client.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", client.URL())
	return nil
}

func openArchive(cmd *cobra.Command) (*storage.Archive, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func listSessions(cmd *cobra.Command, args []string) error {
	archive, err := openArchive(cmd)
	if err != nil {
		return err
	}
	sessions, err := archive.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "no sessions found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tPROFILE\tLENGTH\tTRIALS\tAVERAGE\tSOURCE")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dcm\t%d\t%.2fs\t%s\n",
			s.ID,
			humanize.Time(s.Timestamp),
			s.Profile,
			s.LengthCm,
			s.Count,
			s.Average,
			s.Source,
		)
	}
	return w.Flush()
}

func plotSession(cmd *cobra.Command, args []string) error {
	archive, err := openArchive(cmd)
	if err != nil {
		return err
	}
	id := args[0]

	meta, err := archive.Load(id)
	if err != nil {
		return err
	}
	rows, err := archive.LoadTrials(id)
	if err != nil {
		return err
	}
	points := trials.SeriesOf(rows)
	if len(points) == 0 {
		return fmt.Errorf("no data to plot")
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].LengthM < points[j].LengthM })
	data := make([]float64, len(points))
	for i, p := range points {
		data[i] = p.TSquared
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session: %s\n", meta.ID)
	fmt.Fprintf(out, "trials: %d\n\n", len(rows))

	caption := fmt.Sprintf("T² (s²) by length, %.2fm to %.2fm", points[0].LengthM, points[len(points)-1].LengthM)
	fmt.Fprintln(out, asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(caption),
	))

	if g, ok := trials.EstimateGravity(points); ok {
		fmt.Fprintf(out, "\nestimated g: %.2f m/s²\n", g)
	}
	return nil
}

func exportSession(cmd *cobra.Command, args []string) error {
	archive, err := openArchive(cmd)
	if err != nil {
		return err
	}
	data, err := archive.Export(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		return storage.WriteJSON(cmd.OutOrStdout(), data)
	}
	if err := storage.ExportJSON(outFile, data); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", data.Session.ID, outFile)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	groups := config.ListGroups()
	if len(args) == 1 {
		if config.ListPresets(args[0]) == nil {
			return fmt.Errorf("unknown preset group: %s (available: %v)", args[0], groups)
		}
		groups = args[:1]
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tOSC\tLENGTH\tANGLE\tPROFILE")
	for _, g := range groups {
		for _, name := range config.ListPresets(g) {
			p := config.GetPreset(g, name)
			fmt.Fprintf(w, "%s/%s\t%g\t%dcm\t%g°\t%s\n", g, name, p.Oscillations, p.LengthCm, p.InitialAngleDeg, p.Profile)
		}
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		path := filepath.Join(cfg.DataDir, "config.yaml")
		args = []string{path}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return err
		}
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
	return nil
}

// Package cmd parses flags and wires the sampler, store, engine and UI
// together for each run mode.
package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/perflens/perflens/config"
	"github.com/perflens/perflens/engine"
	"github.com/perflens/perflens/model"
	"github.com/perflens/perflens/provider"
	"github.com/perflens/perflens/sampler"
	"github.com/perflens/perflens/store"
	"github.com/perflens/perflens/ui"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

// Options holds CLI configuration after flag parsing.
type Options struct {
	Interval   time.Duration
	BufferSize int
	Window     time.Duration
	Floor      int
	Profile    string
	Prometheus string
	RecordPath string
	JSONMode   bool
	WatchMode  bool
	Compare    bool
	Profiles   bool
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `perflens v%s — hardware performance bottleneck analyzer

Usage:
  perflens [OPTIONS] [INTERVAL]
  perflens -compare RUN1.json RUN2.json

Modes:
  (default)         Live watch TUI with rolling diagnosis
  -json             Sample for one window, print run + analysis as JSON, exit
  -compare A B      Compare two recorded runs and print the report
  -profiles         List available workload profiles and exit
  -version          Print version and exit

Options:
  -interval N       Sampling interval in seconds (default: 1, clamped 0.1-10)
  -buffer N         Samples to keep per metric type (default: 600)
  -window N         Analysis window in seconds (default: 60)
  -profile ID       Workload profile (see -profiles)
  -floor N          Minimum severity to report (default: 20)
  -prometheus ADDR  Serve Prometheus text metrics on ADDR while running
  -record FILE      Write the completed run as JSON to FILE

Positional:
  INTERVAL          First positional arg sets interval: perflens 5

Examples:
  perflens                           Watch TUI, 1s sampling
  perflens 2 -profile gaming         Watch TUI, 2s sampling, gaming rules
  perflens -json -window 30          30s capture, JSON report to stdout
  perflens -json -record before.json
  perflens -compare before.json after.json
  perflens -prometheus 127.0.0.1:9321
`, Version)
}

// Run parses flags and starts the application.
func Run() error {
	cfg := config.Load()

	var opts Options
	var intervalSec, windowSec float64
	var showVersion bool

	flag.Float64Var(&intervalSec, "interval", float64(cfg.IntervalMS)/1000, "Sampling interval in seconds")
	flag.IntVar(&opts.BufferSize, "buffer", cfg.BufferSize, "Samples to keep per metric type")
	flag.Float64Var(&windowSec, "window", float64(cfg.WindowSec), "Analysis window in seconds")
	flag.IntVar(&opts.Floor, "floor", cfg.SeverityFloor, "Minimum severity to report")
	flag.StringVar(&opts.Profile, "profile", cfg.Profile, "Workload profile ID")
	flag.StringVar(&opts.Prometheus, "prometheus", promAddr(cfg), "Prometheus listen address")
	flag.StringVar(&opts.RecordPath, "record", "", "Write the completed run as JSON to FILE")
	flag.BoolVar(&opts.JSONMode, "json", false, "Capture one window and print JSON")
	flag.BoolVar(&opts.WatchMode, "watch", false, "Live watch TUI (default mode)")
	flag.BoolVar(&opts.Compare, "compare", false, "Compare two recorded runs")
	flag.BoolVar(&opts.Profiles, "profiles", false, "List workload profiles and exit")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Usage = printUsage
	flag.Parse()

	if showVersion {
		fmt.Printf("perflens v%s\n", Version)
		return nil
	}
	if opts.Profiles {
		return runProfiles(cfg)
	}
	if opts.Compare {
		args := flag.Args()
		if len(args) != 2 {
			return fmt.Errorf("-compare needs exactly two run files")
		}
		return runCompare(args[0], args[1])
	}

	// Support positional arg for interval: `perflens 5`.
	if args := flag.Args(); len(args) > 0 {
		if n, err := strconv.ParseFloat(args[0], 64); err == nil && n > 0 {
			intervalSec = n
		}
	}
	opts.Interval = time.Duration(intervalSec * float64(time.Second))
	opts.Window = time.Duration(windowSec * float64(time.Second))
	if opts.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	if opts.BufferSize <= 0 {
		return fmt.Errorf("buffer must be positive")
	}

	profile, err := config.FindProfile(cfg.ProfilesDir, opts.Profile)
	if err != nil {
		return err
	}

	if opts.JSONMode {
		return runJSON(opts, profile)
	}
	return runWatch(opts, profile)
}

func promAddr(cfg config.Config) string {
	if cfg.Prometheus.Enabled {
		return cfg.Prometheus.Addr
	}
	return ""
}

// newPipeline builds the store and sampler shared by the live modes.
func newPipeline(opts Options, profile *model.WorkloadProfile) (*store.Store, *sampler.Sampler, error) {
	st, err := store.NewDefault(opts.BufferSize)
	if err != nil {
		return nil, nil, err
	}
	s := sampler.New(provider.NewRegistry(), st, sampler.Options{
		Interval: opts.Interval,
		Profile:  profile,
	})
	return st, s, nil
}

// serveExporter publishes analysis state for Prometheus on addr. It owns
// its own refresh loop so the TUI does not have to know about it.
func serveExporter(ctx context.Context, addr string, st *store.Store, window time.Duration,
	profile *model.WorkloadProfile, eopts engine.Options) {

	exporter := engine.NewExporter()
	mux := http.NewServeMux()
	mux.Handle("/metrics", exporter.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = server.Close()
				return
			case <-ticker.C:
				streams := st.SnapshotAll(window)
				result, err := engine.Analyze(streams, window, profile, eopts)
				if err == nil {
					exporter.Update(streams, result)
				}
			}
		}
	}()
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "prometheus listener: %v\n", err)
		}
	}()
}

func runWatch(opts Options, profile *model.WorkloadProfile) error {
	st, smp, err := newPipeline(opts, profile)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	smp.Start(ctx)
	defer smp.Stop()

	eopts := engine.Options{Floor: opts.Floor}
	if opts.Prometheus != "" {
		serveExporter(ctx, opts.Prometheus, st, opts.Window, profile, eopts)
	}

	program := tea.NewProgram(ui.NewModel(st, profile, opts.Window, eopts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}

	smp.Stop()
	if opts.RecordPath != "" {
		run, err := analyzedRun(smp, "watch", opts.Window, profile, eopts)
		if err != nil {
			return err
		}
		return saveRun(run, opts.RecordPath)
	}
	return nil
}

// analyzedRun snapshots the capture into a run and attaches its analysis.
func analyzedRun(smp *sampler.Sampler, name string, window time.Duration,
	profile *model.WorkloadProfile, eopts engine.Options) (*model.Run, error) {

	run := smp.BuildRun(name)
	result, err := engine.Analyze(run.Streams, window, profile, eopts)
	if err != nil {
		return nil, err
	}
	run.Analysis = result
	return run, nil
}

// jsonReport is the -json mode output envelope.
type jsonReport struct {
	Run      *model.Run               `json:"run"`
	Insights model.UserFacingInsights `json:"insights"`
}

func runJSON(opts Options, profile *model.WorkloadProfile) error {
	st, smp, err := newPipeline(opts, profile)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eopts := engine.Options{Floor: opts.Floor}
	if opts.Prometheus != "" {
		serveExporter(ctx, opts.Prometheus, st, opts.Window, profile, eopts)
	}

	smp.Start(ctx)
	select {
	case <-time.After(opts.Window):
	case <-ctx.Done():
	}
	smp.Stop()

	run, err := analyzedRun(smp, "capture", opts.Window, profile, eopts)
	if err != nil {
		return err
	}
	report := jsonReport{
		Run:      run,
		Insights: engine.GenerateInsights(run.Analysis, profile),
	}

	if opts.RecordPath != "" {
		if err := saveRun(run, opts.RecordPath); err != nil {
			return err
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func runCompare(path1, path2 string) error {
	run1, err := loadRun(path1)
	if err != nil {
		return err
	}
	run2, err := loadRun(path2)
	if err != nil {
		return err
	}

	result := engine.CompareRuns(run1, run2)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runProfiles(cfg config.Config) error {
	profiles, err := config.Profiles(cfg.ProfilesDir)
	if err != nil {
		return err
	}
	for _, p := range profiles {
		fmt.Printf("%-14s %-14s %s\n", p.ID, p.Workload, p.Name)
	}
	return nil
}

func saveRun(run *model.Run, path string) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func loadRun(path string) (*model.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", path, err)
	}
	var run model.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parse run %s: %w", path, err)
	}
	return &run, nil
}

// Command predcompare compares a test predictions file against a reference
// predictions file and reports missing and mismatched filepaths.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/predcompare/internal/charts"
	"github.com/banshee-data/predcompare/internal/compare"
	"github.com/banshee-data/predcompare/internal/config"
	"github.com/banshee-data/predcompare/internal/db"
	"github.com/banshee-data/predcompare/internal/fsutil"
	"github.com/banshee-data/predcompare/internal/monitoring"
	"github.com/banshee-data/predcompare/internal/prediction"
	"github.com/banshee-data/predcompare/internal/version"
)

// Exit codes
const (
	exitOK          = 0
	exitError       = 1
	exitDifferences = 2
)

// Options holds the parsed command line.
type Options struct {
	ConfigPath    string
	Mode          string
	MaxErrors     int
	Workers       int
	ReportMissing bool
	OutputJSON    string
	DBPath        string
	History       int
	ChartHTML     string
	PlotPNG       string
	Strict        bool
	Verbose       bool
	ShowVersion   bool

	TestPath string
	RefPath  string

	// set records which flags were given explicitly so only those
	// override the config file.
	set map[string]bool
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), "Usage: predcompare [flags] <test.json> <ref.json>\n")
		fmt.Fprintf(fs.Output(), "       predcompare -db runs.db -history N\n\n")
		fs.PrintDefaults()
	}
}

func parseFlags(args []string, stderr io.Writer) (*Options, error) {
	opts := &Options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("predcompare", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs)

	fs.StringVar(&opts.ConfigPath, "config", "", "Comparison config JSON file")
	fs.StringVar(&opts.Mode, "mode", string(compare.PolicyTolerance), "Comparison mode: tolerance or rounding")
	fs.IntVar(&opts.MaxErrors, "max-errors", compare.DefaultMaxReportedErrors, "Maximum missing/mismatched filepaths listed in the transcript")
	fs.IntVar(&opts.Workers, "workers", 1, "Number of comparison workers")
	fs.BoolVar(&opts.ReportMissing, "report-missing", false, "Report fields missing from the test data as mismatches")
	fs.StringVar(&opts.OutputJSON, "json", "", "Write the full report as JSON to this file")
	fs.StringVar(&opts.DBPath, "db", "", "SQLite database to record comparison runs in")
	fs.IntVar(&opts.History, "history", 0, "List the N most recent runs from -db and exit")
	fs.StringVar(&opts.ChartHTML, "chart", "", "Write HTML error and mismatch charts to this file")
	fs.StringVar(&opts.PlotPNG, "plot", "", "Write a PNG histogram of absolute errors to this file")
	fs.BoolVar(&opts.Strict, "strict", false, "Exit with status 2 when any filepath is missing or mismatched")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.ShowVersion, "version", false, "Print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.ShowVersion {
		return opts, nil
	}
	if opts.History > 0 {
		if opts.DBPath == "" {
			return nil, errors.New("-history requires -db")
		}
		return opts, nil
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return nil, fmt.Errorf("expected 2 arguments (test and ref files), got %d", fs.NArg())
	}
	opts.TestPath, opts.RefPath = fs.Arg(0), fs.Arg(1)
	for _, p := range []string{opts.TestPath, opts.RefPath} {
		if filepath.Ext(p) != ".json" {
			return nil, fmt.Errorf("input file must have .json extension: %s", p)
		}
	}
	return opts, nil
}

// compareConfig merges the config file (if any) with explicitly set flags.
func (o *Options) compareConfig() (*config.CompareConfig, error) {
	cfg := config.EmptyCompareConfig()
	if o.ConfigPath != "" {
		loaded, err := config.LoadCompareConfig(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if o.set["mode"] {
		mode := o.Mode
		cfg.Mode = &mode
	}
	if o.set["max-errors"] {
		n := o.MaxErrors
		cfg.MaxReportedErrors = &n
	}
	if o.set["workers"] {
		n := o.Workers
		cfg.Workers = &n
	}
	if o.set["report-missing"] {
		b := o.ReportMissing
		cfg.ReportMissingFields = &b
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if cfg.RoundsNothing() {
		monitoring.Logf("Warning: rounding mode with no precision set, values are compared unrounded")
	}
	return cfg, nil
}

func main() {
	log.SetFlags(log.LstdFlags)
	code, err := run(os.Args[1:], fsutil.OSFileSystem{}, os.Stdout, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitOK)
		}
		log.Fatalf("predcompare: %v", err)
	}
	os.Exit(code)
}

func run(args []string, fsys fsutil.FileSystem, stdout, stderr io.Writer) (int, error) {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return exitError, err
	}
	if opts.ShowVersion {
		fmt.Fprintf(stdout, "predcompare %s\n", version.String())
		return exitOK, nil
	}
	monitoring.SetVerbose(opts.Verbose)

	if opts.History > 0 {
		return exitOK, printHistory(opts.DBPath, opts.History, stdout)
	}

	fileCfg, err := opts.compareConfig()
	if err != nil {
		return exitError, err
	}
	cmpCfg := fileCfg.Options()

	test, err := prediction.LoadFile(fsys, opts.TestPath)
	if err != nil {
		return exitError, err
	}
	ref, err := prediction.LoadFile(fsys, opts.RefPath)
	if err != nil {
		return exitError, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	report, err := compare.CompareContext(ctx, test, ref, cmpCfg)
	if err != nil {
		return exitError, fmt.Errorf("comparison failed: %w", err)
	}
	monitoring.Debugf("compared %d ref filepaths in %s", report.RefCount, time.Since(start))

	if err := compare.WriteTranscript(stdout, report, compare.TranscriptOptions{
		TestName:    opts.TestPath,
		RefName:     opts.RefPath,
		MaxReported: cmpCfg.MaxReportedErrors,
	}); err != nil {
		return exitError, fmt.Errorf("failed to write transcript: %w", err)
	}

	if opts.OutputJSON != "" {
		if err := exportJSON(fsys, report, opts.OutputJSON); err != nil {
			return exitError, fmt.Errorf("failed to export JSON: %w", err)
		}
		monitoring.Logf("Report exported to: %s", opts.OutputJSON)
	}

	subtitle := fmt.Sprintf("%s vs %s", opts.TestPath, opts.RefPath)
	if opts.ChartHTML != "" {
		if err := writeOutput(fsys, opts.ChartHTML, func(w io.Writer) error {
			return charts.WriteReportPage(w, report, subtitle)
		}); err != nil {
			return exitError, fmt.Errorf("failed to write chart: %w", err)
		}
		monitoring.Logf("Chart written to: %s", opts.ChartHTML)
	}
	if opts.PlotPNG != "" {
		err := writeOutput(fsys, opts.PlotPNG, func(w io.Writer) error {
			return charts.WriteErrorHistogram(w, report)
		})
		switch {
		case errors.Is(err, charts.ErrNoSamples):
			monitoring.Logf("Warning: no error samples to plot (rounding mode records none)")
		case err != nil:
			return exitError, fmt.Errorf("failed to write plot: %w", err)
		default:
			monitoring.Logf("Plot written to: %s", opts.PlotPNG)
		}
	}

	if opts.DBPath != "" {
		runID, err := saveRun(opts, fileCfg, report)
		if err != nil {
			return exitError, err
		}
		monitoring.Logf("Comparison run %s recorded in %s", runID, opts.DBPath)
	}

	if opts.Strict && report.HasDifferences() {
		return exitDifferences, nil
	}
	return exitOK, nil
}

// writeOutput creates path (and its directory) and hands it to write. A
// failed write still closes the file.
func writeOutput(fsys fsutil.FileSystem, path string, write func(io.Writer) error) error {
	f, err := fsutil.CreateWithDirs(fsys, path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportJSON(fsys fsutil.FileSystem, report *compare.Report, path string) error {
	return writeOutput(fsys, path, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	})
}

func saveRun(opts *Options, cfg *config.CompareConfig, report *compare.Report) (string, error) {
	database, err := db.NewDB(opts.DBPath)
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	effective, err := json.Marshal(config.FromOptions(cfg.Options()))
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	runID, err := database.SaveReport(db.RunMeta{
		TestFile:    opts.TestPath,
		RefFile:     opts.RefPath,
		ToolVersion: version.Version,
		ConfigJSON:  string(effective),
	}, report)
	if err != nil {
		return "", err
	}
	return runID, nil
}

func printHistory(dbPath string, limit int, w io.Writer) error {
	database, err := db.NewDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runs, err := database.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No comparison runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tMODE\tTEST\tREF\tMISSING\tMISMATCHED\tRMSE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d/%d\t%s\n",
			r.RunID,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.Mode,
			r.TestFile,
			r.RefFile,
			r.MissingCount,
			r.MismatchedCount,
			r.RefCount,
			formatRMSE(r.RMSE),
		)
	}
	return tw.Flush()
}

func formatRMSE(rmse map[string]float64) string {
	var parts []string
	for _, mc := range compare.MetricClasses {
		if v, ok := rmse[mc.String()]; ok {
			parts = append(parts, fmt.Sprintf("%s=%.3f", mc, v))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

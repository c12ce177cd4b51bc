// Command digest turns raw Compend 2000 instrument files into clean,
// analysis-ready tables. Pointed at a single test file it normalizes the
// base file; pointed at a run with high-speed fragments it concatenates
// them and derives the time, load and cycle-count columns.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"compendcli/internal/config"
	"compendcli/internal/digest"
	"compendcli/internal/exporter"
	"compendcli/internal/files"
	"compendcli/internal/infrastructure"
	"compendcli/internal/measurement"
	"compendcli/internal/rig"
	"compendcli/internal/summarize"
)

// maxParallelRuns caps how many test runs digest at once in batch mode.
const maxParallelRuns = 4

func main() {
	rigName := flag.String("rig", "", "rig schema name (defaults to config, te38)")
	schemaFile := flag.String("schema", "", "load a rig schema from a YAML file instead of the built-in registry")
	dir := flag.String("dir", "", "digest every test run in this directory")
	out := flag.String("out", "", "output directory (defaults to config output dir)")
	format := flag.String("format", "", "output format: tsv | csv | xlsx (defaults to config, tsv)")
	perCycle := flag.Bool("summarize", false, "also write a per-cycle summary of each high speed digest")
	lengthFactor := flag.Float64("length-factor", 0, "central wear-track fraction for the summary (defaults to schema)")
	listRigs := flag.Bool("rigs", false, "list the registered rig schemas and exit")
	flag.Parse()

	if *listRigs {
		fmt.Println(strings.Join(rig.Names(), "\n"))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{
				Level:    "info",
				Output:   "console",
				FilePath: "logs/digest.log",
			},
			Digest: config.DigestConfig{Rig: "te38", Format: "tsv"},
		}
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	// flags beat config, config beats built-in defaults
	if *rigName == "" {
		*rigName = cfg.Digest.Rig
	}
	if *format == "" {
		*format = cfg.Digest.Format
	}
	if *out == "" {
		*out = paths.OutputDir
	}
	if cfg.Digest.Summarize {
		*perCycle = true
	}
	if *lengthFactor == 0 {
		*lengthFactor = cfg.Digest.LengthFactor
	}

	schema, err := resolveSchema(*rigName, *schemaFile, paths)
	if err != nil {
		logger.Error("Failed to resolve rig schema",
			slog.String("rig", *rigName),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	job := &digestJob{
		digester:     digest.NewDigester(schema, logger),
		writer:       exporter.NewWriter(*out, logger),
		logger:       logger,
		format:       *format,
		summarize:    *perCycle,
		lengthFactor: *lengthFactor,
	}

	logger.Info("Starting digest",
		slog.String("rig", schema.Name),
		slog.String("format", *format),
		slog.String("output_dir", *out))

	var digested int
	if *dir != "" {
		digested, err = job.digestDirectory(ctx, paths.GetDataPath(*dir))
	} else {
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "usage: digest [flags] <test file>...  or  digest -dir <directory>")
			flag.PrintDefaults()
			os.Exit(2)
		}
		digested, err = job.digestFiles(ctx, flag.Args(), paths)
	}
	if err != nil {
		logger.Error("Digest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Digest completed", slog.Int("runs", digested))
	fmt.Printf("Digest complete: %d runs\n", digested)
}

// resolveSchema picks the rig schema: an explicit YAML file wins over
// the built-in registry.
func resolveSchema(name, schemaFile string, paths *config.Paths) (rig.Schema, error) {
	if schemaFile != "" {
		return rig.Load(paths.GetSchemaPath(schemaFile))
	}
	return rig.Lookup(name)
}

// digestJob carries the shared pieces of one CLI invocation.
type digestJob struct {
	digester     *digest.Digester
	writer       *exporter.Writer
	logger       *slog.Logger
	format       string
	summarize    bool
	lengthFactor float64
}

// digestDirectory digests every test run found in dir, a bounded number
// at a time. One failing run fails the whole batch.
func (j *digestJob) digestDirectory(ctx context.Context, dir string) (int, error) {
	runs, err := files.FindTestRuns(dir)
	if err != nil {
		return 0, err
	}
	if len(runs) == 0 {
		j.logger.Warn("No test runs found", slog.String("dir", dir))
		return 0, nil
	}
	j.logger.Info("Test runs found",
		slog.String("dir", dir),
		slog.Int("count", len(runs)))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelRuns)
	for _, run := range runs {
		run := run
		g.Go(func() error {
			return j.digestRun(infrastructure.ContextWithTraceID(ctx), run.Base.Path)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(runs), nil
}

// digestFiles digests the base files named on the command line.
func (j *digestJob) digestFiles(ctx context.Context, args []string, paths *config.Paths) (int, error) {
	for _, arg := range args {
		if err := j.digestRun(ctx, paths.GetDataPath(arg)); err != nil {
			return 0, err
		}
	}
	return len(args), nil
}

// digestRun digests one test run and writes its outputs.
func (j *digestJob) digestRun(ctx context.Context, basePath string) error {
	runName := strings.TrimSuffix(filepath.Base(basePath), filepath.Ext(basePath))
	logger := infrastructure.LoggerWithContext(ctx).With(slog.String("run", runName))

	table, err := j.digester.DigestHSDFiles(ctx, basePath)
	if err != nil {
		return fmt.Errorf("digesting run %s: %w", runName, err)
	}

	outName := digest.OutputName(runName, j.format)
	if err := j.writer.Write(outName, j.format, table); err != nil {
		return fmt.Errorf("writing %s: %w", outName, err)
	}
	logger.Info("Run digested",
		slog.String("output", outName),
		slog.Int("rows", len(table.Rows)))

	if !j.summarize {
		return nil
	}
	return j.writeSummary(runName, table, logger)
}

// writeSummary reduces a digested table to its per-cycle summary and
// writes it beside the digest output.
func (j *digestJob) writeSummary(runName string, table *measurement.Table, logger *slog.Logger) error {
	if _, ok := table.ColumnIndex(digest.CycleColumn); !ok {
		logger.Info("Run has no high speed data, skipping summary")
		return nil
	}

	s := summarize.NewSummarizer(j.digester.Schema(), j.logger, summarize.Config{
		LengthFactor: j.lengthFactor,
		DropColumns:  []string{"HSD Force Input"},
		StripPrefix:  true,
	})
	summary, err := s.PerCycle(table)
	if err != nil {
		return fmt.Errorf("summarizing run %s: %w", runName, err)
	}

	outName := summaryName(runName, j.format)
	if err := j.writer.Write(outName, j.format, summary); err != nil {
		return fmt.Errorf("writing %s: %w", outName, err)
	}
	logger.Info("Summary written",
		slog.String("output", outName),
		slog.Int("cycles", len(summary.Rows)))
	return nil
}

// summaryName returns the per-cycle summary file name for a run.
func summaryName(runName, format string) string {
	switch format {
	case "csv":
		return fmt.Sprintf("%s_cycles.csv", runName)
	case "xlsx":
		return fmt.Sprintf("%s_cycles.xlsx", runName)
	default:
		return fmt.Sprintf("%s_cycles.TSV", runName)
	}
}

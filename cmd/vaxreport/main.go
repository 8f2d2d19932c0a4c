// Command vaxreport loads a vaccination dataset, applies a filter selection
// and writes the coverage reports to a directory.
//
//	vaxreport -file records.csv -district Mohali -start 2024-01-01 -end 2024-03-31 -out reports
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"vaxpulse/internal/config"
	apperrors "vaxpulse/internal/errors"
	"vaxpulse/internal/exporter"
	"vaxpulse/internal/infrastructure"
	"vaxpulse/internal/services"
	"vaxpulse/internal/source"
	"vaxpulse/pkg/contracts"
	"vaxpulse/pkg/contracts/domain"
)

const formatAll = "all"

type options struct {
	configFile string
	file       string
	sheet      string
	kind       string
	dsn        string
	query      string
	out        string
	format     string
	logLevel   string
	version    bool

	district string
	vaccine  string
	ageGroup string
	gender   string
	start    string
	end      string
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "vaxreport: %v\n", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("vaxreport", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.configFile, "config", "", "YAML config file (defaults to "+config.EnvPrefix+"_CONFIG_FILE or config.yaml)")
	fs.StringVar(&o.file, "file", "", "CSV or XLSX dataset; implies -source file")
	fs.StringVar(&o.sheet, "sheet", "", "worksheet to read from an XLSX dataset")
	fs.StringVar(&o.kind, "source", "", "dataset source: file, postgres or sqlite (overrides config)")
	fs.StringVar(&o.dsn, "dsn", "", "database DSN for postgres or sqlite sources")
	fs.StringVar(&o.query, "query", "", "SQL query for database sources")
	fs.StringVar(&o.out, "out", "", "output directory (defaults to the reports directory)")
	fs.StringVar(&o.format, "format", formatAll, "report format: all, csv, xlsx, pdf or txt")
	fs.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVar(&o.version, "version", false, "print version information and exit")

	fs.StringVar(&o.district, "district", domain.AllValues, "district filter")
	fs.StringVar(&o.vaccine, "vaccine", domain.AllValues, "vaccine filter")
	fs.StringVar(&o.ageGroup, "age-group", domain.AllValues, "age group filter")
	fs.StringVar(&o.gender, "gender", domain.AllValues, "gender filter")
	fs.StringVar(&o.start, "start", "", "first date of the range, YYYY-MM-DD")
	fs.StringVar(&o.end, "end", "", "last date of the range, YYYY-MM-DD")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if _, ok := domain.ParseReportFormat(o.format); !ok && o.format != formatAll {
		return o, fmt.Errorf("unknown format %q; use all, csv, xlsx, pdf or txt", o.format)
	}
	return o, nil
}

// selection builds the filter from the flags. Both dates or neither must be
// given.
func (o options) selection() (domain.FilterSelection, error) {
	sel := domain.FilterSelection{
		District: o.district,
		Vaccine:  o.vaccine,
		AgeGroup: o.ageGroup,
		Gender:   o.gender,
	}

	if (o.start == "") != (o.end == "") {
		return sel, fmt.Errorf("-start and -end must be given together")
	}
	if o.start == "" {
		return sel, nil
	}

	start, err := time.Parse(time.DateOnly, o.start)
	if err != nil {
		return sel, fmt.Errorf("invalid -start %q: %w", o.start, err)
	}
	end, err := time.Parse(time.DateOnly, o.end)
	if err != nil {
		return sel, fmt.Errorf("invalid -end %q: %w", o.end, err)
	}
	sel.DateRange = domain.DateRange{Start: start, End: end}
	return sel, nil
}

// loadConfig applies the command line overrides on top of the config file
// and environment.
func (o options) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.file != "" {
		cfg.Source.Kind = config.SourceFile
		cfg.Source.File = o.file
		cfg.Source.Sheet = o.sheet
	}
	if o.kind != "" {
		cfg.Source.Kind = o.kind
	}
	if o.dsn != "" {
		cfg.Source.DSN = o.dsn
	}
	if o.query != "" {
		cfg.Source.Query = o.query
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	sel, err := opts.selection()
	if err != nil {
		return err
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := infrastructure.NewLogger(stderr, cfg.Logging)
	logger.InfoContext(ctx, "vaxreport starting", slog.String("version", contracts.GetVersionString()))

	loader, err := source.New(cfg.Source, logger)
	if err != nil {
		return err
	}
	if loader == nil {
		return fmt.Errorf("no dataset source configured; pass -file or -source")
	}

	outDir := opts.out
	if outDir == "" {
		paths, err := config.ResolvePaths(cfg.Paths)
		if err != nil {
			return err
		}
		outDir = paths.ReportsDir
	}

	svc := services.NewCoverageService(cfg, loader, logger)
	result, err := svc.Reload(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	fmt.Fprintf(stdout, "loaded %d records from %s (%d rows dropped)\n",
		result.Records, result.Source, result.Dropped.Total())

	written, artifacts, err := export(ctx, svc, opts.format, sel, outDir)
	for _, art := range artifacts {
		if art.Err != nil {
			fmt.Fprintf(stdout, "skipped %s: %v\n", art.Format, art.Err)
		}
	}
	for _, path := range written {
		fmt.Fprintf(stdout, "wrote %s\n", path)
	}
	if err != nil {
		if apperrors.IsEmptyResult(err) {
			return fmt.Errorf("the selection matches no records: %w", err)
		}
		return err
	}

	recs, err := svc.Recommendations(ctx, sel)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, "recommendations:")
	for _, rec := range recs {
		fmt.Fprintf(stdout, "  - %s\n", rec.Plain())
	}
	return nil
}

func export(ctx context.Context, svc *services.CoverageService, format string, sel domain.FilterSelection, dir string) ([]string, []exporter.Artifact, error) {
	if format == formatAll {
		return svc.ExportAll(ctx, sel, dir)
	}

	f, ok := domain.ParseReportFormat(format)
	if !ok {
		return nil, nil, fmt.Errorf("unknown format %q; use all, csv, xlsx, pdf or txt", format)
	}
	art, err := svc.Export(ctx, f, sel)
	if err != nil {
		return nil, nil, err
	}
	written, err := exporter.WriteBundle(dir, []exporter.Artifact{art})
	return written, []exporter.Artifact{art}, err
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/usestring/storeadvisor/internal/ingest"
	"github.com/usestring/storeadvisor/pkg/analyzer"
)

type analyzeFlags struct {
	format       string
	maxSample    int
	flattenDepth int
	recordsPath  string
	dialect      string
	store        bool
}

func newAnalyzeCmd() *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Classify JSON files and print the recommendation",
		Long: `Classify each JSON file as relational or document-oriented. Files are
processed concurrently (INGEST_WORKERS). With --store the records are written
to the recommended backend and the upload is recorded in the event log.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, f)
		},
	}

	cmd.Flags().StringVarP(&f.format, "format", "f", formatText, "Output format (text, json, yaml)")
	cmd.Flags().IntVar(&f.maxSample, "max-sample", 0, "Records to sample (default MAX_SAMPLE)")
	cmd.Flags().IntVar(&f.flattenDepth, "flatten-depth", 0, "Object levels to flatten into columns (default FLATTEN_DEPTH)")
	cmd.Flags().StringVar(&f.recordsPath, "records-path", "", "jq path of the record array, e.g. .data.items")
	cmd.Flags().StringVar(&f.dialect, "dialect", "", "SQL dialect of the printed DDL (postgres, sqlite, mysql, sqlserver)")
	cmd.Flags().BoolVar(&f.store, "store", false, "Persist records in the recommended backend")
	return cmd
}

func runAnalyze(cmd *cobra.Command, paths []string, f analyzeFlags) error {
	if !validFormat(f.format) {
		return fmt.Errorf("unknown format %q (want text, json or yaml)", f.format)
	}
	var dialect analyzer.Dialect
	if f.dialect != "" {
		d, err := analyzer.ParseDialect(f.dialect)
		if err != nil {
			return err
		}
		dialect = d
	}

	cfg, logCleanup, err := loadConfig()
	if err != nil {
		return err
	}
	defer logCleanup()

	if f.maxSample > 0 {
		cfg.MaxSample = f.maxSample
	}
	if f.flattenDepth > 0 {
		cfg.FlattenDepth = f.flattenDepth
	}
	cfg.StoreEnabled = f.store

	ctx := cmd.Context()
	svc := ingest.New(cfg, ingest.Deps{})
	if f.store {
		opened, cleanup, err := ingest.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		svc = opened
	}

	uploads := make([]ingest.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := ingest.ReadFile(p, cfg.MaxUploadBytes)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		uploads = append(uploads, ingest.Upload{
			Filename:    filepath.Base(p),
			Data:        data,
			RecordsPath: f.recordsPath,
			AnalyzeOnly: !f.store,
		})
	}

	outcomes := svc.ProcessBatch(ctx, uploads)
	if dialect != "" {
		applyDialect(outcomes, dialect)
	}
	if err := render(cmd.OutOrStdout(), f.format, outcomes); err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", o.Filename, ingest.Wrap(o.Err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(outcomes))
	}
	return nil
}

// applyDialect regenerates the DDL of relational results for d. Results may
// be shared through the analysis cache, so each report gets its own copy.
func applyDialect(outcomes []ingest.Outcome, d analyzer.Dialect) {
	for _, o := range outcomes {
		if o.Report == nil || o.Report.Result == nil || !o.Report.Result.Relational() {
			continue
		}
		res := *o.Report.Result
		res.CreateTableSQL, res.Columns = analyzer.GenerateDDL(res.Fields, analyzer.DDLOptions{Dialect: d})
		o.Report.Result = &res
	}
}

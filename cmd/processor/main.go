// Command processor runs the hot-parts ingestion service: it watches the
// unprocessed directory, merges every workbook into the masters and serves
// the query API. With -once it processes the backlog and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"hotparts/internal/app"
	"hotparts/internal/config"
	"hotparts/internal/operations"
	"hotparts/pkg/contracts"
)

func main() {
	configFile := flag.String("config", "", "YAML config file (defaults to HOTPARTS_CONFIG or ./config.yaml)")
	inDir := flag.String("in", "", "directory watched for new workbooks")
	processedDir := flag.String("processed", "", "directory receiving processed workbooks")
	errorsDir := flag.String("errors", "", "directory receiving failed workbooks")
	outDir := flag.String("out", "", "directory receiving the master workbooks")
	dbPath := flag.String("db", "", "SQLite database file")
	workers := flag.Int("workers", 0, "number of processing workers")
	once := flag.Bool("once", false, "process the waiting files, export and exit")
	noHTTP := flag.Bool("no-http", false, "do not start the query API")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Paths.UnprocessedDir, *inDir)
	override(&cfg.Paths.ProcessedDir, *processedDir)
	override(&cfg.Paths.ErrorsDir, *errorsDir)
	override(&cfg.Paths.OutputDir, *outDir)
	override(&cfg.Paths.Database, *dbPath)
	if *workers > 0 {
		cfg.Processing.Workers = *workers
	}
	if *noHTTP || *once {
		cfg.Server.Enabled = false
	}

	ctx := context.Background()
	application, err := app.New(ctx, app.Options{Config: cfg})
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *once {
		results, err := application.RunOnce(ctx)
		printResults(results)
		if stopErr := application.Stop(ctx); stopErr != nil {
			application.Logger.Error("Shutdown error", slog.String("error", stopErr.Error()))
		}
		if err != nil {
			application.Logger.Error("Backlog processing failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	if err := application.Run(ctx); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func printResults(results []operations.Result) {
	if len(results) == 0 {
		fmt.Println("No files waiting.")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tTYPE\tSTATUS\tPROCESSED\tADDED\tMATCHES\tERROR")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.File, r.FileType, r.Status, r.Processed, r.Added, r.MatchesAdded, r.ErrorMessage)
	}
	tw.Flush()
}

// Command query reads the master store without running the service.
//
//	query [-config file] stats
//	query masters <kind> [-mpn MPN]
//	query summary <kind>
//	query random [-count N] [-min-price P] [-max-manufacturers N]
//	query log [-limit N]
//	query export
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"hotparts/internal/config"
	"hotparts/internal/exporter"
	"hotparts/internal/infrastructure"
	"hotparts/internal/master"
	"hotparts/internal/services"
	"hotparts/pkg/contracts/domain"
)

var errUsage = errors.New("usage: query [-config file] stats|masters <kind>|summary <kind>|random|log|export")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every subcommand works against.
type env struct {
	cfg      *config.Config
	paths    *config.Paths
	store    *master.SQLiteStore
	query    *services.QueryService
	exporter *exporter.MasterExporter
	out      io.Writer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("query", flag.ContinueOnError)
	configFile := global.String("config", "", "YAML config file")
	dbPath := global.String("db", "", "SQLite database file")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return errUsage
	}

	e, err := open(ctx, *configFile, *dbPath, out)
	if err != nil {
		return err
	}
	defer e.store.Close()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "stats":
		return e.stats(ctx)
	case "masters":
		return e.masters(ctx, rest)
	case "summary":
		return e.summary(ctx, rest)
	case "random":
		return e.random(ctx, rest)
	case "log":
		return e.log(ctx, rest)
	case "export":
		return e.export(ctx)
	}
	return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
}

func open(ctx context.Context, configFile, dbPath string, out io.Writer) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Paths.Database = dbPath
	}

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, err
	}

	logger := infrastructure.NewLogger(os.Stderr, "warn")

	store, err := master.OpenSQLite(ctx, paths.DatabasePath, logger)
	if err != nil {
		return nil, err
	}
	acc, err := master.Open(ctx, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &env{
		cfg:      cfg,
		paths:    paths,
		store:    store,
		query:    services.NewQueryService(acc, store, logger),
		exporter: exporter.NewMasterExporter(acc, paths.OutputDir, cfg.Processing.ExportCSV, logger),
		out:      out,
	}, nil
}

func (e *env) stats(ctx context.Context) error {
	s, err := e.query.Stats(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Hot parts records:\t%d\t(%d unique MPNs)\n", s.HotPartsCount, s.UniqueHotPartsMPNs)
	fmt.Fprintf(tw, "Pivot records:\t%d\n", s.PivotCount)
	fmt.Fprintf(tw, "Excess records:\t%d\t(%d unique MPNs)\n", s.ExcessCount, s.UniqueExcessMPNs)
	fmt.Fprintf(tw, "Matches:\t%d\t(%d unique MPNs)\n", s.MatchesCount, s.UniqueMatchMPNs)
	fmt.Fprintf(tw, "Files logged:\t%d\n", s.ProcessingLogCount)
	fmt.Fprintf(tw, "Hot parts dates:\t%s\n", s.HotPartsDateRange)
	return tw.Flush()
}

func (e *env) masters(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("masters", flag.ContinueOnError)
	mpn := fs.String("mpn", "", "only records of this MPN")
	kind, err := parseKindArg(fs, args)
	if err != nil {
		return err
	}

	records, err := e.query.Masters(ctx, kind, *mpn)
	if err != nil {
		return err
	}
	return e.json(records)
}

func (e *env) summary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	kind, err := parseKindArg(fs, args)
	if err != nil {
		return err
	}

	items, err := e.query.Summary(ctx, kind)
	if err != nil {
		return err
	}
	return e.json(items)
}

func (e *env) random(ctx context.Context, args []string) error {
	q := services.DefaultRandomPartsQuery()

	fs := flag.NewFlagSet("random", flag.ContinueOnError)
	fs.IntVar(&q.Count, "count", q.Count, "number of parts (1-100)")
	fs.Float64Var(&q.MinPrice, "min-price", q.MinPrice, "exclusive lower bound on the target price")
	fs.IntVar(&q.MaxManufacturers, "max-manufacturers", q.MaxManufacturers, "number of manufacturers sampled (1-50)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	parts, err := e.query.RandomParts(ctx, q)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MPN\tMANUFACTURER\tTARGET PRICE\tQTY\tEXCESS FILE")
	for _, p := range parts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			p.MPN, p.Manufacturer, domain.FormatPrice(p.TargetPrice), p.ExcessQty, p.ExcessFilename)
	}
	return tw.Flush()
}

func (e *env) log(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("log", flag.ContinueOnError)
	limit := fs.Int("limit", services.DefaultLogLimit, "number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, err := e.query.ProcessingLog(ctx, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROCESSED AT\tFILE\tTYPE\tSTATUS\tPROCESSED\tADDED\tSKIPPED\tERROR")
	for _, l := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			l.ProcessedAt.Format("2006-01-02 15:04:05"), l.Filename, l.FileType, l.Status,
			l.RecordsProcessed, l.RecordsAdded, l.RecordsSkipped, l.ErrorMessage)
	}
	return tw.Flush()
}

func (e *env) export(ctx context.Context) error {
	if err := os.MkdirAll(e.paths.OutputDir, 0755); err != nil {
		return err
	}
	written, err := e.exporter.ExportAll(ctx)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintln(e.out, path)
	}
	return nil
}

func (e *env) json(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseKindArg(fs *flag.FlagSet, args []string) (domain.Kind, error) {
	if len(args) == 0 {
		return "", errUsage
	}
	kind, err := domain.ParseKind(args[0])
	if err != nil {
		return "", err
	}
	if err := fs.Parse(args[1:]); err != nil {
		return "", err
	}
	return kind, nil
}

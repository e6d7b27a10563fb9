// Command aggregate builds the customer, item and manufacturer return
// histories and the customer sales classes from a labelled order file and
// saves them to the configured lookup store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"orderreturns/internal/app"
	"orderreturns/internal/operations"
	"orderreturns/pkg/contracts"
)

type options struct {
	configPath string
	version    bool
	trainPath  string
	workbook   string
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("aggregate", flag.ContinueOnError)
	fs.SetOutput(output)
	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "path to config.yaml (defaults to RETURNS_CONFIG or ./config.yaml)")
	fs.StringVar(&opts.trainPath, "train", "", "labelled order file, .csv or .xlsx (defaults to <data_dir>/train.csv)")
	fs.StringVar(&opts.workbook, "xlsx", "", "also export the lookup tables to this workbook")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func parameters(opts *options, application *app.Application) map[string]interface{} {
	params := map[string]interface{}{
		operations.ContextKeyTrainPath: opts.trainPath,
	}
	if opts.trainPath == "" {
		params[operations.ContextKeyTrainPath] = application.Paths.TrainFile
	}
	workbook := opts.workbook
	if workbook == "" {
		workbook = application.Paths.WorkbookFile
	}
	if workbook != "" {
		params[operations.ContextKeyWorkbookPath] = workbook
	}
	return params
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	application, err := app.NewApplication(context.Background(), app.Options{ConfigPath: opts.configPath})
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(operations.OperationTypeAggregate, parameters(opts, application)); err != nil {
		slog.Error("Aggregation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

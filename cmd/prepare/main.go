// Command prepare transforms an order file into the model feature table
// using the lookup tables saved by the aggregate command.
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
	inputPath  string
	outputPath string
	dropID     bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("prepare", flag.ContinueOnError)
	fs.SetOutput(output)
	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "path to config.yaml (defaults to RETURNS_CONFIG or ./config.yaml)")
	fs.StringVar(&opts.inputPath, "in", "", "order file to transform (defaults to <data_dir>/train.csv)")
	fs.StringVar(&opts.outputPath, "out", "", "feature table to write (defaults to <output_dir>/features.csv)")
	fs.BoolVar(&opts.dropID, "drop-id", false, "omit the order id column from the output")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func parameters(opts *options, application *app.Application) map[string]interface{} {
	input := opts.inputPath
	if input == "" {
		input = application.Paths.TrainFile
	}
	output := opts.outputPath
	if output == "" {
		output = application.Paths.FeaturesFile
	}
	return map[string]interface{}{
		operations.ContextKeyInputPath:  input,
		operations.ContextKeyOutputPath: output,
		operations.ContextKeyDropID:     opts.dropID,
	}
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

	if err := application.Run(operations.OperationTypePrepare, parameters(opts, application)); err != nil {
		slog.Error("Feature preparation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

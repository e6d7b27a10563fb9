// Command predict fits the baseline classifier on the labelled orders and
// writes one return prediction per test order.
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
	testPath   string
	outputPath string
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(output)
	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "path to config.yaml (defaults to RETURNS_CONFIG or ./config.yaml)")
	fs.StringVar(&opts.trainPath, "train", "", "labelled order file (defaults to <data_dir>/train.csv)")
	fs.StringVar(&opts.testPath, "test", "", "unlabelled order file (defaults to <data_dir>/test.csv)")
	fs.StringVar(&opts.outputPath, "out", "", "submission file (defaults to <output_dir>/submission.csv)")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parameters(opts *options, application *app.Application) map[string]interface{} {
	return map[string]interface{}{
		operations.ContextKeyTrainPath:  orDefault(opts.trainPath, application.Paths.TrainFile),
		operations.ContextKeyTestPath:   orDefault(opts.testPath, application.Paths.TestFile),
		operations.ContextKeyOutputPath: orDefault(opts.outputPath, application.Paths.SubmissionFile),
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

	if err := application.Run(operations.OperationTypePredict, parameters(opts, application)); err != nil {
		slog.Error("Prediction failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

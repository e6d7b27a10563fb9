package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved directories and well-known files of one run
type Paths struct {
	DataDir   string
	OutputDir string
	LogsDir   string
	LookupDir string

	TrainFile      string
	TestFile       string
	FeaturesFile   string
	SubmissionFile string
	WorkbookFile   string
}

// ResolvePaths turns the configured directories into absolute paths under base.
// An empty base means the working directory.
func (c *Config) ResolvePaths(base string) (*Paths, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	dataDir := abs(c.Paths.DataDir)
	outputDir := abs(c.Paths.OutputDir)
	workbook := c.Lookup.ExportXLSX
	if workbook != "" {
		workbook = abs(workbook)
	}

	return &Paths{
		DataDir:        dataDir,
		OutputDir:      outputDir,
		LogsDir:        abs(c.Paths.LogsDir),
		LookupDir:      abs(c.Lookup.Dir),
		TrainFile:      filepath.Join(dataDir, "train.csv"),
		TestFile:       filepath.Join(dataDir, "test.csv"),
		FeaturesFile:   filepath.Join(outputDir, "features.csv"),
		SubmissionFile: filepath.Join(outputDir, "submission.csv"),
		WorkbookFile:   workbook,
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.OutputDir, p.LogsDir, p.LookupDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Path resolution",
		slog.String("data_dir", p.DataDir),
		slog.String("output_dir", p.OutputDir),
		slog.String("logs_dir", p.LogsDir),
		slog.String("lookup_dir", p.LookupDir))
}

package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"orderreturns/internal/errors"
)

// OrderFileExtensions are the order file formats the parser reads.
var OrderFileExtensions = []string{".csv", ".xlsx"}

// FileValidator checks input and output paths before a step touches them.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks that path exists, is a regular file and can be opened.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return errors.NewNotFoundError(fmt.Sprintf("file %s", path))
	}
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		return errors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOrderFile checks that path is a readable, non-empty .csv or .xlsx
// file and not an Excel lock file.
func (v *FileValidator) ValidateOrderFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	known := false
	for _, e := range OrderFileExtensions {
		if ext == e {
			known = true
			break
		}
	}
	if !known {
		return errors.NewAppValidationError(
			fmt.Sprintf("order file %s has unsupported extension %q (want %s)", path, ext, strings.Join(OrderFileExtensions, " or ")))
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return errors.NewAppValidationError(fmt.Sprintf("%s is a temporary Excel file", path))
	}

	if err := v.ValidateFile(path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.Size() == 0 {
		return errors.NewAppValidationError(fmt.Sprintf("order file %s is empty", path))
	}
	return nil
}

// ValidateOutputDirectory ensures dir exists or can be created, and is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	probe, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateOutputFile checks that path can be written: its directory is
// writable and path itself is not a directory.
func (v *FileValidator) ValidateOutputFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return errors.NewAppValidationError(fmt.Sprintf("output path %s is a directory", path))
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}

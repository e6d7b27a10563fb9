package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"orderreturns/internal/dataprocessing"
	"orderreturns/internal/errors"
	"orderreturns/internal/exporter"
	"orderreturns/pkg/contracts/domain"
)

// CSVStore keeps each lookup table as a CSV file in one directory.
type CSVStore struct {
	dir    string
	writer *exporter.CSVWriter
	logger *slog.Logger
}

// NewCSVStore creates a store rooted at dir.
func NewCSVStore(dir string, logger *slog.Logger) *CSVStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVStore{dir: dir, writer: exporter.NewCSVWriter("", logger), logger: logger}
}

// HistoryPath returns the file an entity's history is written to.
func (s *CSVStore) HistoryPath(entity domain.Entity) string {
	return filepath.Join(s.dir, HistoryName(entity)+".csv")
}

// SalesClassPath returns the sales-class lookup file.
func (s *CSVStore) SalesClassPath() string {
	return filepath.Join(s.dir, SalesClassName+".csv")
}

func (s *CSVStore) SaveHistory(ctx context.Context, entity domain.Entity, records []domain.HistoryRecord) error {
	return s.writer.WriteHistory(s.HistoryPath(entity), entity, records)
}

func (s *CSVStore) SaveSalesClasses(ctx context.Context, records []domain.SalesClassRecord) error {
	return s.writer.WriteSalesClasses(s.SalesClassPath(), records)
}

// LoadHistory reads an entity's history. Rates and counts that do not parse
// are kept as invalid values so the join yields null for them.
func (s *CSVStore) LoadHistory(ctx context.Context, entity domain.Entity) (domain.HistoryIndex, error) {
	t, err := s.readTable(s.HistoryPath(entity))
	if err != nil {
		return nil, err
	}
	keys, ok := t.Column(entity.KeyColumn())
	if !ok {
		return nil, errors.NewParsingError(fmt.Sprintf("%s has no %s column", s.HistoryPath(entity), entity.KeyColumn()), nil)
	}
	rates, ok := t.Column(domain.ColReturnRate)
	if !ok {
		return nil, errors.NewParsingError(fmt.Sprintf("%s has no %s column", s.HistoryPath(entity), domain.ColReturnRate), nil)
	}
	counts, hasCounts := t.Column(domain.ColTotalOrders)

	idx := make(domain.HistoryIndex, t.Len())
	duplicates := 0
	for i := 0; i < t.Len(); i++ {
		key, ok := dataprocessing.NormalizeIdentifier(keys.Values[i])
		if !ok {
			continue
		}
		if _, dup := idx[key]; dup {
			duplicates++
			continue
		}
		var stats domain.JoinStats
		if v, ok := rates.Str(i); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
				stats.ReturnRate.Float64, stats.ReturnRate.Valid = f, true
			}
		}
		if hasCounts {
			if v, ok := counts.Str(i); ok {
				if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
					stats.OrderCount.Int64, stats.OrderCount.Valid = n, true
				}
			}
		}
		idx[key] = stats
	}
	if duplicates > 0 {
		s.logger.WarnContext(ctx, "Duplicate lookup keys ignored",
			slog.String("entity", string(entity)),
			slog.Int("duplicates", duplicates))
	}
	return idx, nil
}

func (s *CSVStore) LoadSalesClasses(ctx context.Context) (domain.SalesClassIndex, error) {
	t, err := s.readTable(s.SalesClassPath())
	if err != nil {
		return nil, err
	}
	keys, okKeys := t.Column(domain.ColCustomerID)
	classes, okClasses := t.Column(domain.ColCustomerClass)
	if !okKeys || !okClasses {
		return nil, errors.NewParsingError(fmt.Sprintf("%s lacks customerID or customer_class", s.SalesClassPath()), nil)
	}

	idx := make(domain.SalesClassIndex, t.Len())
	for i := 0; i < t.Len(); i++ {
		key, ok := dataprocessing.NormalizeIdentifier(keys.Values[i])
		if !ok {
			continue
		}
		class, ok := classes.Str(i)
		if !ok {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = domain.SalesClass(strings.TrimSpace(class))
		}
	}
	return idx, nil
}

// readTable reads a lookup file with every column kept as text.
func (s *CSVStore) readTable(path string) (*dataprocessing.Table, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("lookup file " + path)
		}
		return nil, errors.NewStorageError("failed to stat "+path, err)
	}
	return dataprocessing.ParseFile(path, dataprocessing.ParseOptions{})
}

// Close is a no-op; files are closed after every call.
func (s *CSVStore) Close() error { return nil }

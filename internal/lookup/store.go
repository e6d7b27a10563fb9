package lookup

import (
	"context"
	"fmt"
	"log/slog"

	"orderreturns/internal/config"
	"orderreturns/internal/dataprocessing"
	"orderreturns/internal/errors"
	"orderreturns/internal/validation"
	"orderreturns/pkg/contracts/domain"
)

// Store persists lookup tables once per training run and serves them read-only afterwards.
type Store interface {
	SaveHistory(ctx context.Context, entity domain.Entity, records []domain.HistoryRecord) error
	LoadHistory(ctx context.Context, entity domain.Entity) (domain.HistoryIndex, error)
	SaveSalesClasses(ctx context.Context, records []domain.SalesClassRecord) error
	LoadSalesClasses(ctx context.Context) (domain.SalesClassIndex, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Open creates the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.LookupConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("backend", cfg.Backend))

	switch cfg.Backend {
	case BackendCSV, "":
		return NewCSVStore(cfg.Dir, logger), nil
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, logger)
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN, logger)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("unknown lookup backend %q", cfg.Backend), nil)
	}
}

// SaveAll persists every entity history and, when classes is non-nil, the sales classes.
func SaveAll(ctx context.Context, store Store, histories map[domain.Entity][]domain.HistoryRecord, classes []domain.SalesClassRecord) error {
	for _, entity := range domain.Entities() {
		records, ok := histories[entity]
		if !ok {
			return errors.NewAppValidationError(fmt.Sprintf("missing %s history", entity))
		}
		if err := validation.ValidateHistory(entity, records); err != nil {
			return err
		}
		if err := store.SaveHistory(ctx, entity, records); err != nil {
			return err
		}
	}
	if classes != nil {
		if err := validation.ValidateSalesClasses(classes); err != nil {
			return err
		}
		return store.SaveSalesClasses(ctx, classes)
	}
	return nil
}

// LoadLookups reads the join indexes the record transformer needs.
func LoadLookups(ctx context.Context, store Store, includeSalesClass bool) (dataprocessing.Lookups, error) {
	var lookups dataprocessing.Lookups
	for _, entity := range domain.Entities() {
		idx, err := store.LoadHistory(ctx, entity)
		if err != nil {
			return lookups, err
		}
		switch entity {
		case domain.EntityCustomer:
			lookups.Customer = idx
		case domain.EntityItem:
			lookups.Item = idx
		case domain.EntityManufacturer:
			lookups.Manufacturer = idx
		}
	}
	if includeSalesClass {
		idx, err := store.LoadSalesClasses(ctx)
		if err != nil {
			return lookups, err
		}
		lookups.SalesClass = idx
	}
	return lookups, nil
}

// HistoryName is the file or table name an entity's history is stored under.
func HistoryName(entity domain.Entity) string {
	return string(entity) + "_returns"
}

// SalesClassName is the file or table name of the sales-class lookup.
const SalesClassName = "customer_abcd"

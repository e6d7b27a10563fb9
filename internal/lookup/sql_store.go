package lookup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"orderreturns/internal/errors"
	"orderreturns/pkg/contracts/domain"
)

// SQLStore keeps lookup tables in a SQL database. The same schema serves
// SQLite and PostgreSQL; sqlx rebinds placeholders for the driver.
type SQLStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLStore wraps an open connection. Call Migrate before first use.
func NewSQLStore(db *sqlx.DB, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{db: db, logger: logger}
}

// OpenSQLite opens (creating if needed) a SQLite lookup database at path.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStorageError("failed to open SQLite lookup database", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	return openSQL(ctx, db, logger)
}

// OpenPostgres connects to a PostgreSQL lookup database.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*SQLStore, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, errors.NewStorageError("failed to initialize PostgreSQL connection", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return openSQL(ctx, db, logger)
}

func openSQL(ctx context.Context, db *sqlx.DB, logger *slog.Logger) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewStorageError("failed to connect to lookup database", err)
	}
	s := NewSQLStore(db, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the lookup tables if they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, entity := range domain.Entities() {
		query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			entity_id TEXT PRIMARY KEY,
			total_returns BIGINT NOT NULL,
			total_orders BIGINT NOT NULL,
			return_rate DOUBLE PRECISION,
			return_category TEXT
		)`, HistoryName(entity))
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return errors.NewStorageError("failed to create "+HistoryName(entity), err)
		}
	}
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		customer_id TEXT PRIMARY KEY,
		total_sales DOUBLE PRECISION NOT NULL,
		customer_class TEXT NOT NULL
	)`, SalesClassName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return errors.NewStorageError("failed to create "+SalesClassName, err)
	}
	return nil
}

// SaveHistory replaces the entity's history table in one transaction.
func (s *SQLStore) SaveHistory(ctx context.Context, entity domain.Entity, records []domain.HistoryRecord) error {
	table := HistoryName(entity)
	insert := s.db.Rebind(fmt.Sprintf(
		"INSERT INTO %s (entity_id, total_returns, total_orders, return_rate, return_category) VALUES (?, ?, ?, ?, ?)", table))

	return s.replace(ctx, table, len(records), func(tx *sqlx.Tx) error {
		for _, r := range records {
			if _, err := tx.ExecContext(ctx, insert, r.EntityID, r.TotalReturns, r.TotalOrders, r.ReturnRate, string(r.Category)); err != nil {
				return fmt.Errorf("insert %s %s: %w", entity, r.EntityID, err)
			}
		}
		return nil
	})
}

// SaveSalesClasses replaces the sales-class table in one transaction.
func (s *SQLStore) SaveSalesClasses(ctx context.Context, records []domain.SalesClassRecord) error {
	insert := s.db.Rebind(fmt.Sprintf(
		"INSERT INTO %s (customer_id, total_sales, customer_class) VALUES (?, ?, ?)", SalesClassName))

	return s.replace(ctx, SalesClassName, len(records), func(tx *sqlx.Tx) error {
		for _, r := range records {
			if _, err := tx.ExecContext(ctx, insert, r.CustomerID, r.TotalSales, string(r.Class)); err != nil {
				return fmt.Errorf("insert customer %s: %w", r.CustomerID, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) replace(ctx context.Context, table string, rows int, fill func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		_ = tx.Rollback()
		return errors.NewStorageError("failed to clear "+table, err)
	}
	if err := fill(tx); err != nil {
		_ = tx.Rollback()
		return errors.NewStorageError("failed to write "+table, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit "+table, err)
	}
	s.logger.InfoContext(ctx, "Lookup table saved",
		slog.String("table", table),
		slog.Int("rows", rows))
	return nil
}

type historyRow struct {
	EntityID    string          `db:"entity_id"`
	TotalOrders sql.NullInt64   `db:"total_orders"`
	ReturnRate  sql.NullFloat64 `db:"return_rate"`
}

func (s *SQLStore) LoadHistory(ctx context.Context, entity domain.Entity) (domain.HistoryIndex, error) {
	var rows []historyRow
	query := fmt.Sprintf("SELECT entity_id, total_orders, return_rate FROM %s ORDER BY entity_id", HistoryName(entity))
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.NewStorageError("failed to load "+HistoryName(entity), err)
	}

	idx := make(domain.HistoryIndex, len(rows))
	for _, r := range rows {
		idx[r.EntityID] = domain.JoinStats{ReturnRate: r.ReturnRate, OrderCount: r.TotalOrders}
	}
	return idx, nil
}

type salesClassRow struct {
	CustomerID string `db:"customer_id"`
	Class      string `db:"customer_class"`
}

func (s *SQLStore) LoadSalesClasses(ctx context.Context) (domain.SalesClassIndex, error) {
	var rows []salesClassRow
	query := fmt.Sprintf("SELECT customer_id, customer_class FROM %s ORDER BY customer_id", SalesClassName)
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.NewStorageError("failed to load "+SalesClassName, err)
	}

	idx := make(domain.SalesClassIndex, len(rows))
	for _, r := range rows {
		idx[r.CustomerID] = domain.SalesClass(r.Class)
	}
	return idx, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

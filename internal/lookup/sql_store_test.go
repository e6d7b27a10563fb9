package lookup

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderreturns/internal/errors"
	"orderreturns/pkg/contracts/domain"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(sqlx.NewDb(db, "pgx"), nil), mock
}

func TestSQLStore_MigrateCreatesTables(t *testing.T) {
	store, mock := newMockStore(t)
	for _, name := range []string{"customer_returns", "item_returns", "manufacturer_returns", "customer_abcd"} {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS " + name)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_SaveHistoryUsesPostgresPlaceholders(t *testing.T) {
	store, mock := newMockStore(t)
	records := sampleHistories()[domain.EntityCustomer]

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customer_returns")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	insert := regexp.QuoteMeta("INSERT INTO customer_returns (entity_id, total_returns, total_orders, return_rate, return_category) VALUES ($1, $2, $3, $4, $5)")
	for _, r := range records {
		mock.ExpectExec(insert).
			WithArgs(r.EntityID, r.TotalReturns, r.TotalOrders, r.ReturnRate, string(r.Category)).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, store.SaveHistory(context.Background(), domain.EntityCustomer, records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_SaveRollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customer_abcd")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customer_abcd (customer_id, total_sales, customer_class) VALUES ($1, $2, $3)")).
		WithArgs("8", 130.0, "a").
		WillReturnError(fmt.Errorf("duplicate key"))
	mock.ExpectRollback()

	err := store.SaveSalesClasses(context.Background(), sampleClasses())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeStorage))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_LoadHistory(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"entity_id", "total_orders", "return_rate"}).
		AddRow("3", int64(2), 0.5).
		AddRow("4", nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT entity_id, total_orders, return_rate FROM item_returns ORDER BY entity_id")).
		WillReturnRows(rows)

	idx, err := store.LoadHistory(context.Background(), domain.EntityItem)
	require.NoError(t, err)
	require.Len(t, idx, 2)
	assert.Equal(t, 0.5, idx["3"].ReturnRate.Float64)
	assert.Equal(t, int64(2), idx["3"].OrderCount.Int64)
	assert.False(t, idx["4"].ReturnRate.Valid)
	assert.False(t, idx["4"].OrderCount.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_LoadSalesClasses(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT customer_id, customer_class FROM customer_abcd ORDER BY customer_id")).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "customer_class"}).AddRow("7", "d"))

	idx, err := store.LoadSalesClasses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SalesClassIndex{"7": domain.SalesClassD}, idx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_LoadError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT entity_id").WillReturnError(fmt.Errorf("relation does not exist"))

	_, err := store.LoadHistory(context.Background(), domain.EntityManufacturer)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeStorage))
}

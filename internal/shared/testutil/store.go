package testutil

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/pionia-project/pionia/internal/database"
)

// NewMockStore returns a store backed by sqlmock. The mock uses
// regexp matching so expectations can quote fragments of the
// generated SQL. Cleanup closes the pool and verifies expectations.
func NewMockStore(t *testing.T) (*database.SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("open sqlmock: %v", err)
	}

	logger, _ := NewTestLogger(t)
	store := database.NewSQLStore(sqlx.NewDb(db, "sqlmock"), logger)

	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
		db.Close()
	})

	return store, mock
}

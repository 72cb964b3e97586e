// Package database provides the default SQL persistence provider
// behind the generic CRUD operations. Any store satisfying the Store
// interface can replace it.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pionia-project/pionia/internal/config"
)

// Store is the persistence boundary consulted by the CRUD operations.
// Implementations return sql.ErrNoRows when a keyed row is absent.
type Store interface {
	List(ctx context.Context, table Table, columns []string, limit, offset int) ([]Record, error)
	Get(ctx context.Context, table Table, pk any) (Record, error)
	Insert(ctx context.Context, table Table, rec Record) (Record, error)
	Update(ctx context.Context, table Table, pk any, rec Record) (Record, error)
	Delete(ctx context.Context, table Table, pk any) error
	Count(ctx context.Context, table Table) (int64, error)
	Ping(ctx context.Context) error
}

// SQLStore implements Store on top of an sqlx database handle.
type SQLStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var _ Store = (*SQLStore)(nil)

// Open connects to the configured database and applies pool settings.
func Open(cfg config.DatabaseConfig, logger *slog.Logger) (*SQLStore, error) {
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return NewSQLStore(db, logger), nil
}

// NewSQLStore wraps an existing handle. Used by tests with sqlmock.
func NewSQLStore(db *sqlx.DB, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{
		db:     db,
		logger: logger.With(slog.String("component", "sql_store")),
	}
}

// DB exposes the underlying handle for health checks and migrations.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

// Ping verifies the connection is alive.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// projection renders the selected column list, defaulting to the
// binding's allowlist, then to all columns.
func projection(table Table, columns []string) string {
	if len(columns) == 0 {
		columns = table.Columns
	}
	if len(columns) == 0 {
		return "*"
	}
	quoted := make([]string, 0, len(columns)+1)
	seen := false
	for _, c := range columns {
		if c == table.PrimaryKey {
			seen = true
		}
		quoted = append(quoted, pq.QuoteIdentifier(c))
	}
	if !seen {
		quoted = append([]string{pq.QuoteIdentifier(table.PrimaryKey)}, quoted...)
	}
	return strings.Join(quoted, ", ")
}

// List returns a page of records ordered by primary key.
func (s *SQLStore) List(ctx context.Context, table Table, columns []string, limit, offset int) ([]Record, error) {
	table = table.WithDefaults()
	query := fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY %s LIMIT $1 OFFSET $2",
		projection(table, columns),
		pq.QuoteIdentifier(table.Name),
		pq.QuoteIdentifier(table.PrimaryKey),
	)

	rows, err := s.db.QueryxContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table.Name, err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		rec := Record{}
		if err := rows.MapScan(rec); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table.Name, err)
		}
		records = append(records, normalize(rec))
	}
	return records, rows.Err()
}

// Get fetches a single record by primary key.
func (s *SQLStore) Get(ctx context.Context, table Table, pk any) (Record, error) {
	table = table.WithDefaults()
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		projection(table, nil),
		pq.QuoteIdentifier(table.Name),
		pq.QuoteIdentifier(table.PrimaryKey),
	)

	row := s.db.QueryRowxContext(ctx, query, pk)
	rec := Record{}
	if err := row.MapScan(rec); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get %s: %w", table.Name, err)
	}
	return normalize(rec), nil
}

// Insert persists a new record and returns the stored row.
func (s *SQLStore) Insert(ctx context.Context, table Table, rec Record) (Record, error) {
	table = table.WithDefaults()
	if table.AutoID {
		if _, ok := rec[table.PrimaryKey]; !ok {
			withID := make(Record, len(rec)+1)
			for k, v := range rec {
				withID[k] = v
			}
			withID[table.PrimaryKey] = uuid.NewString()
			rec = withID
		}
	}

	columns := sortedColumns(rec)
	if len(columns) == 0 {
		return nil, fmt.Errorf("insert %s: no columns to insert", table.Name)
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec[c]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		pq.QuoteIdentifier(table.Name),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
		projection(table, nil),
	)

	row := s.db.QueryRowxContext(ctx, query, args...)
	stored := Record{}
	if err := row.MapScan(stored); err != nil {
		return nil, fmt.Errorf("insert %s: %w", table.Name, err)
	}
	return normalize(stored), nil
}

// Update modifies the record with the given primary key and returns
// the stored row. Returns sql.ErrNoRows when no row matches.
func (s *SQLStore) Update(ctx context.Context, table Table, pk any, rec Record) (Record, error) {
	table = table.WithDefaults()

	// Copy instead of deleting the PK in place; the caller's map must
	// stay untouched.
	updates := make(Record, len(rec))
	for k, v := range rec {
		if k == table.PrimaryKey {
			continue
		}
		updates[k] = v
	}

	columns := sortedColumns(updates)
	if len(columns) == 0 {
		return nil, fmt.Errorf("update %s: no columns to update", table.Name)
	}

	assignments := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, c := range columns {
		assignments[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c), i+1)
		args = append(args, updates[c])
	}
	args = append(args, pk)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d RETURNING %s",
		pq.QuoteIdentifier(table.Name),
		strings.Join(assignments, ", "),
		pq.QuoteIdentifier(table.PrimaryKey),
		len(columns)+1,
		projection(table, nil),
	)

	row := s.db.QueryRowxContext(ctx, query, args...)
	stored := Record{}
	if err := row.MapScan(stored); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("update %s: %w", table.Name, err)
	}
	return normalize(stored), nil
}

// Delete removes the record with the given primary key. Returns
// sql.ErrNoRows when no row matches.
func (s *SQLStore) Delete(ctx context.Context, table Table, pk any) error {
	table = table.WithDefaults()
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = $1",
		pq.QuoteIdentifier(table.Name),
		pq.QuoteIdentifier(table.PrimaryKey),
	)

	result, err := s.db.ExecContext(ctx, query, pk)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table.Name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", table.Name, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count returns the total number of rows in the table.
func (s *SQLStore) Count(ctx context.Context, table Table) (int64, error) {
	table = table.WithDefaults()
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pq.QuoteIdentifier(table.Name))

	var count int64
	if err := s.db.QueryRowxContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table.Name, err)
	}
	return count, nil
}

// sortedColumns returns the record's columns in stable order so the
// generated SQL is deterministic.
func sortedColumns(rec Record) []string {
	columns := make([]string, 0, len(rec))
	for c := range rec {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	return columns
}

// normalize converts driver byte slices to strings so records
// serialize cleanly as JSON.
func normalize(rec Record) Record {
	for k, v := range rec {
		if b, ok := v.([]byte); ok {
			rec[k] = string(b)
		}
	}
	return rec
}

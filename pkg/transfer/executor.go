package transfer

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dbferry/dbferry/pkg/table"
	"github.com/dbferry/dbferry/pkg/typeconv"
)

// Executor runs statements against one side of a transfer. Query
// materializes the full result set; batches are bounded by the page
// queries the engine issues, never by the executor.
type Executor interface {
	Query(ctx context.Context, query string) (columns []string, rows [][]any, err error)
	Exec(ctx context.Context, stmt string) error
}

// Introspector supplies the schema facts the engine needs from a side:
// column metadata for hint classification, and a paging cursor.
type Introspector interface {
	Columns(ctx context.Context, tableName string) ([]typeconv.Column, error)
	Cursor(ctx context.Context, tableName string) ([]string, error)
}

// dbSide adapts a *sql.DB pool to Executor and Introspector. Table names
// without a schema qualifier resolve against defaultSchema.
type dbSide struct {
	db            *sql.DB
	dialect       typeconv.Dialect
	defaultSchema string
}

func newDBSide(db *sql.DB, dialect typeconv.Dialect, defaultSchema string) *dbSide {
	if defaultSchema == "" && dialect == typeconv.DialectPostgres {
		defaultSchema = "public"
	}
	return &dbSide{db: db, dialect: dialect, defaultSchema: defaultSchema}
}

func (s *dbSide) Query(ctx context.Context, query string) ([]string, [][]any, error) {
	res, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer res.Close()

	columns, err := res.Columns()
	if err != nil {
		return nil, nil, err
	}
	var rows [][]any
	for res.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := res.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		// Drivers may reuse byte buffers between Scan calls.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
		}
		rows = append(rows, values)
	}
	return columns, rows, res.Err()
}

func (s *dbSide) Exec(ctx context.Context, stmt string) error {
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

func (s *dbSide) Columns(ctx context.Context, tableName string) ([]typeconv.Column, error) {
	ti := s.tableInfo(tableName)
	if err := ti.SetInfo(ctx); err != nil {
		return nil, err
	}
	return ti.Columns, nil
}

func (s *dbSide) Cursor(ctx context.Context, tableName string) ([]string, error) {
	return s.tableInfo(tableName).ResolveCursor(ctx)
}

func (s *dbSide) tableInfo(tableName string) *table.TableInfo {
	schema := s.defaultSchema
	if before, after, found := strings.Cut(tableName, "."); found {
		schema, tableName = before, after
	}
	return table.NewTableInfo(s.db, s.dialect, schema, tableName)
}

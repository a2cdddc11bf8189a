// Package table provides schema introspection for transfer steps: the
// column metadata that feeds the value classifier, and resolution of a
// deterministic paging cursor from the table's keys.
package table

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dbferry/dbferry/pkg/typeconv"
)

// TableInfo represents a table and its introspected columns.
type TableInfo struct {
	db      *sql.DB
	dialect typeconv.Dialect

	SchemaName string
	TableName  string
	Columns    []typeconv.Column
}

// NewTableInfo returns an unpopulated TableInfo: call SetInfo to
// introspect the columns.
func NewTableInfo(db *sql.DB, dialect typeconv.Dialect, schema, tableName string) *TableInfo {
	return &TableInfo{
		db:         db,
		dialect:    dialect,
		SchemaName: schema,
		TableName:  tableName,
	}
}

const mysqlColumnsQuery = `SELECT column_name, data_type, column_type
FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`

// PostgreSQL has no column_type; an equivalent is synthesized from the
// udt name plus numeric precision so the classifier sees "numeric(10,2)"
// style text on both dialects.
const postgresColumnsQuery = `SELECT column_name, data_type,
	udt_name ||
	CASE WHEN numeric_precision IS NOT NULL AND numeric_scale IS NOT NULL AND data_type IN ('numeric', 'decimal')
		THEN '(' || numeric_precision || ',' || numeric_scale || ')'
		ELSE ''
	END
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

// SetInfo introspects the table's columns in ordinal order.
func (t *TableInfo) SetInfo(ctx context.Context) error {
	query := mysqlColumnsQuery
	if t.dialect == typeconv.DialectPostgres {
		query = postgresColumnsQuery
	}
	rows, err := t.db.QueryContext(ctx, query, t.SchemaName, t.TableName)
	if err != nil {
		return err
	}
	defer rows.Close()

	t.Columns = t.Columns[:0]
	for rows.Next() {
		var col typeconv.Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.ColumnType); err != nil {
			return err
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(t.Columns) == 0 {
		return errors.New("table not found: " + t.QuotedName())
	}
	return nil
}

// ColumnNames returns the column names in ordinal order.
func (t *TableInfo) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Hints classifies every introspected column.
func (t *TableInfo) Hints() typeconv.Hints {
	return typeconv.NewHints(t.Columns)
}

// QuotedName returns the schema-qualified, dialect-quoted table name.
func (t *TableInfo) QuotedName() string {
	return t.dialect.QuoteIdent(t.SchemaName) + "." + t.dialect.QuoteIdent(t.TableName)
}

// Package statement renders INSERT, UPSERT and TRUNCATE text per target
// dialect. Values are coerced to literals through typeconv so the same
// builder serves the database sink and the SQL-script sink.
package statement

import (
	"errors"
	"strings"

	"github.com/dbferry/dbferry/pkg/typeconv"
)

// Mode is how rows land in the target table.
type Mode string

const (
	ModeAppend  Mode = "append"
	ModeReplace Mode = "replace"
	ModeUpsert  Mode = "upsert"
)

// ParseMode normalizes a user-supplied mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAppend:
		return ModeAppend, nil
	case ModeReplace:
		return ModeReplace, nil
	case ModeUpsert:
		return ModeUpsert, nil
	default:
		return "", errors.New("mode must be one of: append, replace, upsert")
	}
}

// Builder renders write statements for one (dialect, table) pair.
// It is created once per step and reused for every row.
type Builder struct {
	dialect    typeconv.Dialect
	table      string
	columns    []string
	keyColumns map[string]bool
	keyOrder   []string
	mode       Mode
	hints      typeconv.Hints

	// Rendered once; only the VALUES part changes per row.
	insertPrefix string
	upsertSuffix string
}

// NewBuilder validates the write mode and prepares the constant statement
// parts. Upsert with no key columns is rejected here, before any row is
// processed.
func NewBuilder(dialect typeconv.Dialect, table string, columns []string, mode Mode, keyColumns []string, hints typeconv.Hints) (*Builder, error) {
	if !dialect.Supported() {
		return nil, errors.New("unsupported target dialect: " + string(dialect))
	}
	if mode == ModeUpsert && len(keyColumns) == 0 {
		return nil, errors.New("upsert mode requires key columns")
	}
	b := &Builder{
		dialect:    dialect,
		table:      table,
		columns:    columns,
		keyColumns: make(map[string]bool, len(keyColumns)),
		keyOrder:   keyColumns,
		mode:       mode,
		hints:      hints,
	}
	for _, col := range keyColumns {
		b.keyColumns[strings.ToLower(col)] = true
	}
	b.insertPrefix = b.renderInsertPrefix()
	if mode == ModeUpsert {
		b.upsertSuffix = b.renderUpsertSuffix()
	}
	return b, nil
}

// InsertRow renders a complete INSERT (or UPSERT) statement for one row.
// Values are matched to columns positionally.
func (b *Builder) InsertRow(row []any) string {
	var sb strings.Builder
	sb.WriteString(b.insertPrefix)
	sb.WriteString(" VALUES (")
	for i, col := range b.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		var value any
		if i < len(row) {
			value = row[i]
		}
		sb.WriteString(typeconv.Coerce(b.dialect, value, b.hints.For(col)))
	}
	sb.WriteString(")")
	sb.WriteString(b.upsertSuffix)
	return sb.String()
}

// Truncate renders the statement run once per step in replace mode,
// before any row is written.
func (b *Builder) Truncate() string {
	return "TRUNCATE TABLE " + b.dialect.QuoteTable(b.table)
}

func (b *Builder) renderInsertPrefix() string {
	quoted := make([]string, len(b.columns))
	for i, col := range b.columns {
		quoted[i] = b.dialect.QuoteIdent(col)
	}
	return "INSERT INTO " + b.dialect.QuoteTable(b.table) + " (" + strings.Join(quoted, ", ") + ")"
}

func (b *Builder) renderUpsertSuffix() string {
	nonKeys := make([]string, 0, len(b.columns))
	for _, col := range b.columns {
		if !b.keyColumns[strings.ToLower(col)] {
			nonKeys = append(nonKeys, col)
		}
	}
	switch b.dialect {
	case typeconv.DialectMySQL:
		if len(nonKeys) == 0 {
			// Every column is a key: update the first key column against
			// itself as a structurally valid no-op.
			first := b.dialect.QuoteIdent(b.keyOrder[0])
			return " ON DUPLICATE KEY UPDATE " + first + " = " + first
		}
		assignments := make([]string, len(nonKeys))
		for i, col := range nonKeys {
			q := b.dialect.QuoteIdent(col)
			assignments[i] = q + " = VALUES(" + q + ")"
		}
		return " ON DUPLICATE KEY UPDATE " + strings.Join(assignments, ", ")
	default: // PostgreSQL
		keys := make([]string, len(b.keyOrder))
		for i, col := range b.keyOrder {
			keys[i] = b.dialect.QuoteIdent(col)
		}
		conflict := " ON CONFLICT (" + strings.Join(keys, ", ") + ")"
		if len(nonKeys) == 0 {
			return conflict + " DO NOTHING"
		}
		assignments := make([]string, len(nonKeys))
		for i, col := range nonKeys {
			q := b.dialect.QuoteIdent(col)
			assignments[i] = q + " = EXCLUDED." + q
		}
		return conflict + " DO UPDATE SET " + strings.Join(assignments, ", ")
	}
}

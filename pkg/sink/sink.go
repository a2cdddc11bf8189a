// Package sink contains the writers a transfer step can emit rows to: a
// live database connection, or a CSV, JSONL or SQL-script file. File
// writers buffer and are flushed once, at the very end of the step.
package sink

import (
	"context"
	"errors"
	"strings"
)

// Type identifies where a step writes its rows.
type Type string

const (
	TypeDatabase Type = "database"
	TypeCSV      Type = "csv"
	TypeJSONL    Type = "jsonl"
	TypeSQL      Type = "sql"
)

// ParseType normalizes a user-supplied sink type name.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeDatabase, "db":
		return TypeDatabase, nil
	case TypeCSV:
		return TypeCSV, nil
	case TypeJSONL, "ndjson":
		return TypeJSONL, nil
	case TypeSQL:
		return TypeSQL, nil
	default:
		return "", errors.New("sink type must be one of: database, csv, jsonl, sql")
	}
}

// RequiresPath reports whether this sink type writes to a file.
func (t Type) RequiresPath() bool {
	return t != TypeDatabase
}

// Writer consumes the rows of one step. WriteRow is called once per row;
// Flush exactly once after the final batch.
type Writer interface {
	WriteRow(ctx context.Context, row []any) error
	Flush() error
	Close() error
}

// Execer executes a statement against the target database. Satisfied by
// the transfer engine's executor.
type Execer interface {
	Exec(ctx context.Context, stmt string) error
}

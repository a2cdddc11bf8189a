package sink

import (
	"context"

	"github.com/dbferry/dbferry/pkg/statement"
)

// databaseWriter executes one statement per row against the target. No
// multi-row batching: this trades throughput for per-row error locality.
type databaseWriter struct {
	execer  Execer
	builder *statement.Builder
}

// NewDatabase returns a Writer that executes rendered statements
// directly against the target connection.
func NewDatabase(execer Execer, builder *statement.Builder) Writer {
	return &databaseWriter{execer: execer, builder: builder}
}

func (w *databaseWriter) WriteRow(ctx context.Context, row []any) error {
	return w.execer.Exec(ctx, w.builder.InsertRow(row))
}

// Flush is a no-op: every row has already been executed.
func (w *databaseWriter) Flush() error { return nil }

func (w *databaseWriter) Close() error { return nil }

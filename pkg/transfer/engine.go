package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dbferry/dbferry/pkg/metrics"
	"github.com/dbferry/dbferry/pkg/sink"
	"github.com/dbferry/dbferry/pkg/statement"
	"github.com/dbferry/dbferry/pkg/typeconv"
)

// batchSize is the fixed page size for both paging strategies.
const batchSize = 1000

// Engine executes transfer steps against a resolved pair of sides. It
// is stateless across steps: every step re-counts, re-introspects and
// re-resolves its own cursor.
type Engine struct {
	source        Executor
	sourceMeta    Introspector
	sourceDialect typeconv.Dialect

	// target and targetMeta are nil for file-sink-only use.
	target        Executor
	targetMeta    Introspector
	targetDialect typeconv.Dialect

	logger      *slog.Logger
	metricsSink metrics.Sink
}

func NewEngine(source Executor, sourceMeta Introspector, sourceDialect typeconv.Dialect,
	target Executor, targetMeta Introspector, targetDialect typeconv.Dialect) *Engine {
	return &Engine{
		source:        source,
		sourceMeta:    sourceMeta,
		sourceDialect: sourceDialect,
		target:        target,
		targetMeta:    targetMeta,
		targetDialect: targetDialect,
		logger:        slog.Default(),
		metricsSink:   &metrics.NoopSink{},
	}
}

func (e *Engine) SetLogger(logger *slog.Logger) {
	e.logger = logger
}

func (e *Engine) SetMetricsSink(sink metrics.Sink) {
	e.metricsSink = sink
}

// RunStep validates and executes one step. With dryRun set it counts
// the source (and, for the database sink, the target, for connectivity)
// and returns without writing anything.
func (e *Engine) RunStep(ctx context.Context, step Step, dryRun bool) (StepResult, error) {
	result := StepResult{DryRun: dryRun}
	if err := step.Normalize(); err != nil {
		return result, err
	}
	result.StepKey = step.StepKey
	if err := e.checkDialects(step); err != nil {
		return result, err
	}

	sourceRows, err := e.countRows(ctx, e.source, e.sourceDialect, step.SourceTable)
	if err != nil {
		return result, err
	}
	result.SourceRows = sourceRows

	sourceColumns, err := e.sourceMeta.Columns(ctx, step.SourceTable)
	if err != nil {
		return result, err
	}
	hints, err := e.targetHints(ctx, step, sourceColumns)
	if err != nil {
		return result, err
	}

	if dryRun {
		if step.SinkType == sink.TypeDatabase {
			// Counting the target validates connectivity; the count
			// itself is discarded.
			if _, err := e.countRows(ctx, e.target, e.targetDialect, step.TargetTable); err != nil {
				return result, err
			}
		}
		return result, nil
	}

	columnNames := make([]string, len(sourceColumns))
	for i, col := range sourceColumns {
		columnNames[i] = col.Name
	}
	builder, err := statement.NewBuilder(e.targetDialect, step.TargetTable, columnNames, step.Mode, step.KeyColumns, hints)
	if err != nil {
		return result, err
	}

	// openSink is re-invoked on an offset restart so replace mode
	// re-truncates and file sinks start over from an empty file.
	openSink := func(ctx context.Context) (sink.Writer, error) {
		return e.openSink(ctx, step, builder, columnNames)
	}

	cursor, err := e.sourceMeta.Cursor(ctx, step.SourceTable)
	if err != nil {
		return result, err
	}
	sourceHints := typeconv.NewHints(sourceColumns)

	written, err := e.copyRows(ctx, step, openSink, columnNames, sourceHints, cursor)
	if err != nil {
		return result, err
	}
	result.WrittenRows = written
	return result, nil
}

// supportedPairs is the dispatch matrix for database-to-database steps.
// Same-dialect pairs and the MySQL/PostgreSQL cross pairs are known.
var supportedPairs = map[[2]typeconv.Dialect]bool{
	{typeconv.DialectMySQL, typeconv.DialectMySQL}:       true,
	{typeconv.DialectPostgres, typeconv.DialectPostgres}: true,
	{typeconv.DialectMySQL, typeconv.DialectPostgres}:    true,
	{typeconv.DialectPostgres, typeconv.DialectMySQL}:    true,
}

func (e *Engine) checkDialects(step Step) error {
	if !e.sourceDialect.Supported() {
		return fmt.Errorf("step %s: %w: source %q", step.StepKey, ErrUnsupportedDialectPair, e.sourceDialect)
	}
	if step.SinkType != sink.TypeDatabase {
		return nil
	}
	if !supportedPairs[[2]typeconv.Dialect{e.sourceDialect, e.targetDialect}] {
		return fmt.Errorf("step %s: %w: %q to %q", step.StepKey, ErrUnsupportedDialectPair, e.sourceDialect, e.targetDialect)
	}
	return nil
}

func (e *Engine) countRows(ctx context.Context, exec Executor, dialect typeconv.Dialect, tableName string) (int64, error) {
	_, rows, err := exec.Query(ctx, "SELECT COUNT(*) FROM "+dialect.QuoteTable(tableName))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, errors.New("count query returned no rows")
	}
	return toInt64(rows[0][0])
}

// targetHints classifies the destination columns. The database sink
// introspects the target table; file sinks have no live destination, so
// the source schema stands in for it.
func (e *Engine) targetHints(ctx context.Context, step Step, sourceColumns []typeconv.Column) (typeconv.Hints, error) {
	if step.SinkType != sink.TypeDatabase {
		return typeconv.NewHints(sourceColumns), nil
	}
	targetColumns, err := e.targetMeta.Columns(ctx, step.TargetTable)
	if err != nil {
		return nil, err
	}
	return typeconv.NewHints(targetColumns), nil
}

func (e *Engine) openSink(ctx context.Context, step Step, builder *statement.Builder, columnNames []string) (sink.Writer, error) {
	switch step.SinkType {
	case sink.TypeDatabase:
		if step.Mode == statement.ModeReplace {
			if err := e.target.Exec(ctx, builder.Truncate()); err != nil {
				return nil, err
			}
		}
		return sink.NewDatabase(e.target, builder), nil
	case sink.TypeCSV:
		return sink.NewCSV(step.SinkPath, columnNames)
	case sink.TypeJSONL:
		return sink.NewJSONL(step.SinkPath, columnNames)
	case sink.TypeSQL:
		return sink.NewSQL(step.SinkPath, builder, step.Mode == statement.ModeReplace)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSinkType, step.SinkType)
	}
}

type openSinkFunc func(ctx context.Context) (sink.Writer, error)

// copyRows runs the batch loop: keyset paging when a cursor exists,
// offset paging otherwise, with a single restart from scratch under
// offset paging if the cursor proves unreliable mid-transfer.
func (e *Engine) copyRows(ctx context.Context, step Step, openSink openSinkFunc, columnNames []string, sourceHints typeconv.Hints, cursor []string) (int64, error) {
	selectBase := e.selectBase(step.SourceTable, columnNames)

	if len(cursor) == 0 {
		e.logger.Info("no reliable paging key, using offset paging",
			"step", step.StepKey, "table", step.SourceTable)
		return e.runLoop(ctx, openSink, func(w sink.Writer) (int64, error) {
			return e.offsetLoop(ctx, w, selectBase)
		})
	}

	written, err := e.runLoop(ctx, openSink, func(w sink.Writer) (int64, error) {
		return e.keysetLoop(ctx, w, selectBase, columnNames, sourceHints, cursor)
	})
	if !errors.Is(err, ErrKeysetReliability) {
		return written, err
	}

	// A database-sink keyset attempt already wrote rows it will not
	// undo. Replace re-truncates on restart, upsert is idempotent by
	// key, and file sinks rewrite the file from scratch, but a
	// database append would duplicate rows, so the fallback is refused
	// there.
	if step.SinkType == sink.TypeDatabase && step.Mode == statement.ModeAppend {
		return written, fmt.Errorf("step %s: %w: cannot restart with offset paging in append mode without duplicating rows", step.StepKey, err)
	}
	e.logger.Warn("keyset cursor unreliable, restarting step with offset paging",
		"step", step.StepKey, "cursor", strings.Join(cursor, ","), "error", err)
	e.sendMetrics(ctx, metrics.MetricValue{
		Name:  metrics.StepOffsetFallbackMetricName,
		Value: 1,
		Type:  metrics.COUNTER,
	})
	return e.runLoop(ctx, openSink, func(w sink.Writer) (int64, error) {
		return e.offsetLoop(ctx, w, selectBase)
	})
}

// runLoop opens the sink fresh, drives one paging loop over it, and
// flushes and closes it. The flush only happens after the final batch.
func (e *Engine) runLoop(ctx context.Context, openSink openSinkFunc, loop func(sink.Writer) (int64, error)) (int64, error) {
	w, err := openSink(ctx)
	if err != nil {
		return 0, err
	}
	written, err := loop(w)
	if err != nil {
		_ = w.Close()
		return written, err
	}
	if err := w.Flush(); err != nil {
		_ = w.Close()
		return written, err
	}
	return written, w.Close()
}

func (e *Engine) selectBase(tableName string, columnNames []string) string {
	quoted := make([]string, len(columnNames))
	for i, col := range columnNames {
		quoted[i] = e.sourceDialect.QuoteIdent(col)
	}
	return "SELECT " + strings.Join(quoted, ", ") + " FROM " + e.sourceDialect.QuoteTable(tableName)
}

func (e *Engine) keysetLoop(ctx context.Context, w sink.Writer, selectBase string, columnNames []string, sourceHints typeconv.Hints, cursor []string) (int64, error) {
	positions, err := cursorPositions(columnNames, cursor)
	if err != nil {
		return 0, err
	}
	orderBy := make([]string, len(cursor))
	for i, col := range cursor {
		orderBy[i] = e.sourceDialect.QuoteIdent(col)
	}
	suffix := fmt.Sprintf(" ORDER BY %s LIMIT %d", strings.Join(orderBy, ", "), batchSize)

	var written int64
	var prev []any
	for {
		query := selectBase
		if prev != nil {
			query += " WHERE " + e.seekPredicate(cursor, prev, sourceHints)
		}
		query += suffix

		_, rows, err := e.source.Query(ctx, query)
		if err != nil {
			return written, err
		}
		if len(rows) == 0 {
			return written, nil
		}
		if err := e.writeBatch(ctx, w, rows); err != nil {
			return written, err
		}
		written += int64(len(rows))

		next := make([]any, len(positions))
		for i, pos := range positions {
			next[i] = rows[len(rows)-1][pos]
			if next[i] == nil {
				return written, fmt.Errorf("%w: column %q is null", ErrKeysetReliability, cursor[i])
			}
		}
		if prev != nil && compareCursor(next, prev) <= 0 {
			return written, fmt.Errorf("%w: cursor did not advance past %v", ErrKeysetReliability, prev)
		}
		prev = next

		if len(rows) < batchSize {
			return written, nil
		}
	}
}

func (e *Engine) offsetLoop(ctx context.Context, w sink.Writer, selectBase string) (int64, error) {
	var written int64
	var offset int64
	for {
		query := fmt.Sprintf("%s LIMIT %d OFFSET %d", selectBase, batchSize, offset)
		_, rows, err := e.source.Query(ctx, query)
		if err != nil {
			return written, err
		}
		if len(rows) == 0 {
			return written, nil
		}
		if err := e.writeBatch(ctx, w, rows); err != nil {
			return written, err
		}
		written += int64(len(rows))
		offset += int64(len(rows))
		if len(rows) < batchSize {
			return written, nil
		}
	}
}

func (e *Engine) writeBatch(ctx context.Context, w sink.Writer, rows [][]any) error {
	start := time.Now()
	for _, row := range rows {
		if err := w.WriteRow(ctx, row); err != nil {
			return err
		}
	}
	e.sendMetrics(ctx,
		metrics.MetricValue{
			Name:  metrics.BatchRowsCountMetricName,
			Value: float64(len(rows)),
			Type:  metrics.COUNTER,
		},
		metrics.MetricValue{
			Name:  metrics.BatchProcessingTimeMetricName,
			Value: float64(time.Since(start).Milliseconds()),
			Type:  metrics.GAUGE,
		})
	return nil
}

func (e *Engine) sendMetrics(ctx context.Context, values ...metrics.MetricValue) {
	sendCtx, cancel := context.WithTimeout(ctx, metrics.SinkTimeout)
	defer cancel()
	if err := e.metricsSink.Send(sendCtx, &metrics.Metrics{Values: values}); err != nil {
		e.logger.Error("error sending metrics", "error", err)
	}
}

// seekPredicate renders the lexicographic seek expansion: for cursor
// columns c1..cn and previous values v1..vn, OR over i of
// (c1 = v1 AND ... AND c_{i-1} = v_{i-1} AND c_i > v_i).
func (e *Engine) seekPredicate(cursor []string, prev []any, sourceHints typeconv.Hints) string {
	literal := func(i int) string {
		return typeconv.Coerce(e.sourceDialect, prev[i], sourceHints.For(cursor[i]))
	}
	terms := make([]string, len(cursor))
	for i := range cursor {
		var conds []string
		for j := 0; j < i; j++ {
			conds = append(conds, e.sourceDialect.QuoteIdent(cursor[j])+" = "+literal(j))
		}
		conds = append(conds, e.sourceDialect.QuoteIdent(cursor[i])+" > "+literal(i))
		terms[i] = "(" + strings.Join(conds, " AND ") + ")"
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return strings.Join(terms, " OR ")
}

func cursorPositions(columnNames, cursor []string) ([]int, error) {
	positions := make([]int, len(cursor))
	for i, col := range cursor {
		positions[i] = -1
		for j, name := range columnNames {
			if strings.EqualFold(name, col) {
				positions[i] = j
				break
			}
		}
		if positions[i] == -1 {
			return nil, fmt.Errorf("cursor column %q not in select list", col)
		}
	}
	return positions, nil
}

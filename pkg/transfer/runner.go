package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dbferry/dbferry/pkg/dbconn"
	"github.com/dbferry/dbferry/pkg/metrics"
	"github.com/dbferry/dbferry/pkg/sink"
	"golang.org/x/sync/errgroup"
)

// Plan is a sequence of steps between one source connection and an
// optional target connection. The target may be nil when every step
// writes to a file sink.
type Plan struct {
	Source *Connection
	Target *Connection
	Steps  []Step
	DryRun bool
}

// Runner executes a plan: preflight both connections, then run the
// steps strictly sequentially, halting on the first failure.
type Runner struct {
	plan *Plan

	logger      *slog.Logger
	metricsSink metrics.Sink
	dbConfig    *dbconn.DBConfig
}

func NewRunner(plan *Plan) *Runner {
	return &Runner{
		plan:        plan,
		logger:      slog.Default(),
		metricsSink: &metrics.NoopSink{},
		dbConfig:    dbconn.NewDBConfig(),
	}
}

func (r *Runner) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

func (r *Runner) SetMetricsSink(sink metrics.Sink) {
	r.metricsSink = sink
}

// Run executes every step. The returned ExecutionResult reflects the
// steps processed so far even when an error halts the plan.
func (r *Runner) Run(ctx context.Context) (*ExecutionResult, error) {
	result := &ExecutionResult{}
	if r.plan.Source == nil {
		return result, errors.New("plan has no source connection")
	}
	if r.plan.Target == nil && r.needsTarget() {
		return result, errors.New("plan has database-sink steps but no target connection")
	}
	if err := r.preflight(ctx); err != nil {
		return result, fmt.Errorf("preflight: %w", err)
	}

	for _, step := range r.plan.Steps {
		stepResult, err := r.runStep(ctx, step)
		result.Steps = append(result.Steps, stepResult)
		result.ProcessedSteps++
		result.TotalSourceRows += stepResult.SourceRows
		result.TotalWrittenRows += stepResult.WrittenRows
		if err != nil {
			// Steps run sequentially, so the remaining plan halts here.
			return result, fmt.Errorf("step %s: %w", stepResult.StepKey, err)
		}
	}
	result.Succeeded = true
	return result, nil
}

func (r *Runner) needsTarget() bool {
	for _, step := range r.plan.Steps {
		if step.SinkType == sink.TypeDatabase || step.SinkType == "" {
			return true
		}
	}
	return false
}

// preflight pings source and target concurrently so a dead connection
// fails the plan before any step does work.
func (r *Runner) preflight(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	ping := func(conn *Connection) func() error {
		return func() error {
			db, err := dbconn.New(conn.Dialect, conn.DSN(), r.dbConfig)
			if err != nil {
				return fmt.Errorf("connection %s: %w", conn.Name, err)
			}
			defer db.Close()
			return db.PingContext(ctx)
		}
	}
	g.Go(ping(r.plan.Source))
	if r.plan.Target != nil {
		g.Go(ping(r.plan.Target))
	}
	return g.Wait()
}

// runStep opens fresh pools for one step, builds an engine over them,
// and executes the step. Pools are not shared across steps.
func (r *Runner) runStep(ctx context.Context, step Step) (StepResult, error) {
	start := time.Now()
	r.logger.Info("starting step",
		"step", step.StepKey,
		"source", step.SourceTable,
		"sink", step.SinkType,
		"mode", step.Mode,
		"dry-run", r.plan.DryRun)

	sourceDB, err := dbconn.New(r.plan.Source.Dialect, r.plan.Source.DSN(), r.dbConfig)
	if err != nil {
		return StepResult{StepKey: step.StepKey}, err
	}
	defer sourceDB.Close()
	sourceSide := newDBSide(sourceDB, r.plan.Source.Dialect, r.plan.Source.DefaultSchema())

	targetDialect := r.plan.Source.Dialect
	var targetSide *dbSide
	var targetDB *sql.DB
	if r.plan.Target != nil {
		targetDialect = r.plan.Target.Dialect
		targetDB, err = dbconn.New(targetDialect, r.plan.Target.DSN(), r.dbConfig)
		if err != nil {
			return StepResult{StepKey: step.StepKey}, err
		}
		defer targetDB.Close()
		targetSide = newDBSide(targetDB, targetDialect, r.plan.Target.DefaultSchema())
	}

	engine := NewEngine(sourceSide, sourceSide, r.plan.Source.Dialect,
		targetExecutor(targetSide), targetIntrospector(targetSide), targetDialect)
	engine.SetLogger(r.logger)
	engine.SetMetricsSink(r.metricsSink)

	stepResult, err := engine.RunStep(ctx, step, r.plan.DryRun)
	if err != nil {
		r.logger.Error("step failed",
			"step", stepResult.StepKey,
			"duration", time.Since(start).Round(time.Millisecond),
			"error", err)
		return stepResult, err
	}

	r.sendStepMetrics(ctx, stepResult)
	r.logger.Info("step complete",
		"step", stepResult.StepKey,
		"source-rows", stepResult.SourceRows,
		"written-rows", stepResult.WrittenRows,
		"dry-run", stepResult.DryRun,
		"duration", time.Since(start).Round(time.Millisecond))
	return stepResult, nil
}

// targetExecutor avoids handing the engine a typed-nil interface when
// there is no target connection.
func targetExecutor(side *dbSide) Executor {
	if side == nil {
		return nil
	}
	return side
}

func targetIntrospector(side *dbSide) Introspector {
	if side == nil {
		return nil
	}
	return side
}

func (r *Runner) sendStepMetrics(ctx context.Context, res StepResult) {
	sendCtx, cancel := context.WithTimeout(ctx, metrics.SinkTimeout)
	defer cancel()
	err := r.metricsSink.Send(sendCtx, &metrics.Metrics{Values: []metrics.MetricValue{{
		Name:  metrics.StepRowsWrittenMetricName,
		Value: float64(res.WrittenRows),
		Type:  metrics.COUNTER,
	}}})
	if err != nil {
		r.logger.Error("error sending metrics", "error", err)
	}
}

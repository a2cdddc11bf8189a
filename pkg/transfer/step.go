// Package transfer contains the engine that moves table data between
// dialects: it validates a step, counts and pages through the source,
// coerces each value for the target, and drives a sink writer. Steps in
// a plan run strictly sequentially; the engine holds no state across
// invocations.
package transfer

import (
	"fmt"

	"github.com/dbferry/dbferry/pkg/sink"
	"github.com/dbferry/dbferry/pkg/statement"
	"github.com/google/uuid"
)

// Step describes one table transfer.
type Step struct {
	// StepKey identifies the step in results and logs. Defaulted to a
	// random UUID when empty.
	StepKey string

	// SourceTable and TargetTable may be schema-qualified. TargetTable
	// defaults to SourceTable.
	SourceTable string
	TargetTable string

	Mode       statement.Mode
	KeyColumns []string

	SinkType sink.Type
	SinkPath string
}

// Normalize fills defaults and checks the step's own invariants. Errors
// here are returned before any connection is touched.
func (s *Step) Normalize() error {
	if s.StepKey == "" {
		s.StepKey = uuid.New().String()
	}
	if s.SourceTable == "" {
		return fmt.Errorf("step %s: source table is required", s.StepKey)
	}
	if s.TargetTable == "" {
		s.TargetTable = s.SourceTable
	}
	if s.Mode == "" {
		s.Mode = statement.ModeAppend
	}
	if s.SinkType == "" {
		s.SinkType = sink.TypeDatabase
	}
	switch s.SinkType {
	case sink.TypeDatabase, sink.TypeCSV, sink.TypeJSONL, sink.TypeSQL:
	default:
		return fmt.Errorf("step %s: %w: %q", s.StepKey, ErrUnsupportedSinkType, s.SinkType)
	}
	if s.SinkType.RequiresPath() && s.SinkPath == "" {
		return fmt.Errorf("step %s: %w: %q", s.StepKey, ErrMissingSinkPath, s.SinkType)
	}
	if s.Mode == statement.ModeUpsert && len(s.KeyColumns) == 0 {
		return fmt.Errorf("step %s: %w", s.StepKey, ErrMissingKeyColumnsForUpsert)
	}
	return nil
}

// StepResult is the outcome of one step. Created fresh per invocation
// and never persisted by the engine.
type StepResult struct {
	StepKey     string
	SourceRows  int64
	WrittenRows int64
	DryRun      bool
}

// ExecutionResult aggregates a plan's steps.
type ExecutionResult struct {
	ProcessedSteps   int
	Succeeded        bool
	TotalSourceRows  int64
	TotalWrittenRows int64
	Steps            []StepResult
}

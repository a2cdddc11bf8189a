package transfer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dbferry/dbferry/pkg/metrics"
	"github.com/dbferry/dbferry/pkg/sink"
	"github.com/dbferry/dbferry/pkg/statement"
	"github.com/dbferry/dbferry/pkg/typeconv"
)

// Transfer is the CLI command. A plan file drives multi-step transfers;
// without one, the flags describe a single step.
type Transfer struct {
	Config     string `name:"config" help:"Plan file with [connection.*] and [step.*] sections." optional:""`
	SourceName string `name:"source" help:"Connection name in the plan file to read from." optional:"" default:"source"`
	TargetName string `name:"target" help:"Connection name in the plan file to write to." optional:"" default:"target"`

	SourceDialect string `name:"source-dialect" help:"Source dialect (mysql, postgres)." optional:"" default:"mysql"`
	SourceDSN     string `name:"source-dsn" help:"Where to copy rows from." optional:"" default:"root:@tcp(127.0.0.1:3306)/test"`
	TargetDialect string `name:"target-dialect" help:"Target dialect (mysql, postgres)." optional:"" default:"postgres"`
	TargetDSN     string `name:"target-dsn" help:"Where to copy rows to. Not needed for file sinks." optional:""`

	Table       string   `name:"table" help:"Source table, optionally schema-qualified." optional:""`
	TargetTable string   `name:"target-table" help:"Target table. Defaults to the source table." optional:""`
	Mode        string   `name:"mode" help:"Write mode: append, replace or upsert." optional:"" default:"append"`
	KeyColumns  []string `name:"key-columns" help:"Key columns for upsert mode." optional:""`
	Sink        string   `name:"sink" help:"Sink type: database, csv, jsonl or sql." optional:"" default:"database"`
	SinkPath    string   `name:"sink-path" help:"Output file for file sinks." optional:""`

	DryRun     bool `name:"dry-run" help:"Count rows and validate connectivity without writing." optional:"" default:"false"`
	LogMetrics bool `name:"log-metrics" help:"Log per-batch metrics." optional:"" default:"false"`
}

func (t *Transfer) Run() error {
	plan, err := t.plan()
	if err != nil {
		return err
	}
	runner := NewRunner(plan)
	if t.LogMetrics {
		runner.SetMetricsSink(metrics.NewLogSink(slog.Default()))
	}
	result, err := runner.Run(context.TODO())
	slog.Info("plan finished",
		"processed-steps", result.ProcessedSteps,
		"succeeded", result.Succeeded,
		"total-source-rows", result.TotalSourceRows,
		"total-written-rows", result.TotalWrittenRows)
	return err
}

func (t *Transfer) plan() (*Plan, error) {
	if t.Config != "" {
		return t.planFromConfig()
	}
	return t.planFromFlags()
}

func (t *Transfer) planFromConfig() (*Plan, error) {
	config, err := LoadConfig(t.Config)
	if err != nil {
		return nil, err
	}
	source, ok := config.Connections[t.SourceName]
	if !ok {
		return nil, fmt.Errorf("plan file has no [connection.%s] section", t.SourceName)
	}
	// The target section is optional: a plan of pure file-sink steps
	// does not need one.
	target := config.Connections[t.TargetName]
	if len(config.Steps) == 0 {
		return nil, fmt.Errorf("plan file %s has no [step.*] sections", t.Config)
	}
	return &Plan{
		Source: source,
		Target: target,
		Steps:  config.Steps,
		DryRun: t.DryRun,
	}, nil
}

func (t *Transfer) planFromFlags() (*Plan, error) {
	if t.Table == "" {
		return nil, fmt.Errorf("either --config or --table is required")
	}
	sourceDialect, err := typeconv.ParseDialect(t.SourceDialect)
	if err != nil {
		return nil, err
	}
	mode, err := statement.ParseMode(t.Mode)
	if err != nil {
		return nil, err
	}
	sinkType, err := sink.ParseType(t.Sink)
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		Source: &Connection{Name: "source", Dialect: sourceDialect, dsn: t.SourceDSN},
		Steps: []Step{{
			SourceTable: t.Table,
			TargetTable: t.TargetTable,
			Mode:        mode,
			KeyColumns:  t.KeyColumns,
			SinkType:    sinkType,
			SinkPath:    t.SinkPath,
		}},
		DryRun: t.DryRun,
	}
	if t.TargetDSN != "" {
		targetDialect, err := typeconv.ParseDialect(t.TargetDialect)
		if err != nil {
			return nil, err
		}
		plan.Target = &Connection{Name: "target", Dialect: targetDialect, dsn: t.TargetDSN}
	}
	return plan, nil
}

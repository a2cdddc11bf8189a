package transfer

import "errors"

var (
	// ErrUnsupportedDialectPair is returned when a database-to-database
	// step names a source/target dialect combination the engine cannot
	// pair, or a file-sink step names an unsupported source dialect.
	ErrUnsupportedDialectPair = errors.New("unsupported source/target dialect pair")

	// ErrUnsupportedSinkType is returned for a sink type the engine does
	// not know.
	ErrUnsupportedSinkType = errors.New("unsupported sink type")

	// ErrMissingSinkPath is returned when a file sink has no path.
	ErrMissingSinkPath = errors.New("sink type requires a sink path")

	// ErrMissingKeyColumnsForUpsert is returned before any row is
	// processed when an upsert step declares no key columns.
	ErrMissingKeyColumnsForUpsert = errors.New("upsert mode requires key columns")

	// ErrKeysetReliability means the paging cursor returned a null value
	// or failed to advance between batches. It is the only error the
	// engine retries internally, by restarting the step with offset
	// paging.
	ErrKeysetReliability = errors.New("keyset cursor is null or did not advance")
)

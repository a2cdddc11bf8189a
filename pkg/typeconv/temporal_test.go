package typeconv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func temporalHint(kind TargetKind, aware bool) TargetColumnHint {
	h := UnknownHint()
	h.Kind = kind
	h.TimezoneAware = aware
	return h
}

func TestTemporalZoneHandling(t *testing.T) {
	// A zoned value destined for a timezone-aware column converts to UTC.
	got, ok := coerceTemporal("2025-01-01T12:00:00+02:00", temporalHint(KindTimestamp, true))
	require.True(t, ok)
	assert.Equal(t, "2025-01-01 10:00:00", got)

	// A non-aware destination keeps the wall clock; the offset is
	// dropped, not converted.
	got, ok = coerceTemporal("2025-01-01T12:00:00+02:00", temporalHint(KindTimestamp, false))
	require.True(t, ok)
	assert.Equal(t, "2025-01-01 12:00:00", got)
}

func TestTemporalTextFormats(t *testing.T) {
	tests := []struct {
		in   string
		kind TargetKind
		want string
	}{
		{"2025-06-15T08:30:00Z", KindTimestamp, "2025-06-15 08:30:00"},
		{"2025-06-15 08:30:00", KindTimestamp, "2025-06-15 08:30:00"},
		{"2025-06-15 08:30:00.123456", KindTimestamp, "2025-06-15 08:30:00"},
		{"2025-06-15", KindTimestamp, "2025-06-15 00:00:00"},
		{"2025-06-15", KindDate, "2025-06-15"},
		{"2025-06-15 08:30:00", KindDate, "2025-06-15"},
		{"08:30:00", KindTime, "08:30:00"},
		{"2025-06-15 08:30:59", KindTime, "08:30:59"},
	}
	for _, tt := range tests {
		got, ok := coerceTemporal(tt.in, temporalHint(tt.kind, false))
		require.True(t, ok, "parse %q", tt.in)
		assert.Equal(t, tt.want, got, "coerceTemporal(%q, %s)", tt.in, tt.kind)
	}
}

func TestTemporalEpochThreshold(t *testing.T) {
	// 1735732800 seconds = 2025-01-01 12:00:00 UTC.
	got, ok := coerceTemporal(int64(1735732800), temporalHint(KindTimestamp, true))
	require.True(t, ok)
	assert.Equal(t, "2025-01-01 12:00:00", got)

	// The same instant in milliseconds crosses the 1e12 threshold.
	got, ok = coerceTemporal(int64(1735732800000), temporalHint(KindTimestamp, true))
	require.True(t, ok)
	assert.Equal(t, "2025-01-01 12:00:00", got)

	// Numeric text is still an epoch.
	got, ok = coerceTemporal("1735732800", temporalHint(KindTimestamp, true))
	require.True(t, ok)
	assert.Equal(t, "2025-01-01 12:00:00", got)
}

func TestTemporalDriverTime(t *testing.T) {
	loc := time.FixedZone("plus2", 2*3600)
	v := time.Date(2025, 1, 1, 12, 0, 0, 0, loc)

	got, ok := coerceTemporal(v, temporalHint(KindTimestamp, true))
	require.True(t, ok)
	assert.Equal(t, "2025-01-01 10:00:00", got)

	got, ok = coerceTemporal(v, temporalHint(KindTimestamp, false))
	require.True(t, ok)
	assert.Equal(t, "2025-01-01 12:00:00", got)
}

func TestTemporalUnparseableFallback(t *testing.T) {
	_, ok := coerceTemporal("not a time", temporalHint(KindTimestamp, false))
	assert.False(t, ok)
	// Through Coerce the failure becomes a generic literal.
	assert.Equal(t, "'not a time'", Coerce(DialectPostgres, "not a time", temporalHint(KindTimestamp, false)))
}

func TestTemporalQuoted(t *testing.T) {
	assert.Equal(t, "'2025-06-15 08:30:00'", Coerce(DialectMySQL, "2025-06-15 08:30:00", temporalHint(KindTimestamp, false)))
}

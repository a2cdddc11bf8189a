package typeconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimalHint(precision, scale int, unsigned bool) TargetColumnHint {
	return TargetColumnHint{Kind: KindDecimal, Precision: precision, Scale: scale, Unsigned: unsigned}
}

func TestDecimalRounding(t *testing.T) {
	tests := []struct {
		in    string
		scale int
		want  string
	}{
		{"12.345", 2, "12.35"}, // half-up
		{"12.344", 2, "12.34"},
		{"12.3", 2, "12.30"}, // pad to scale
		{"12", 2, "12.00"},
		{"0.96", 1, "1.0"},  // carry into integer part
		{"9.99", 1, "10.0"}, // carry overflows integer digits
		{"99.999", 2, "100.00"},
		{"-12.345", 2, "-12.35"},
		{"-0.04", 1, "0.0"}, // zero result loses the sign
		{"0.005", 2, "0.01"},
		{"1.005", 0, "1"},
		{"007.10", 1, "7.1"}, // leading zeros normalized
	}
	for _, tt := range tests {
		got, ok := coerceDecimal(tt.in, decimalHint(0, tt.scale, false))
		require.True(t, ok, "coerceDecimal(%q)", tt.in)
		assert.Equal(t, tt.want, got, "coerceDecimal(%q, scale=%d)", tt.in, tt.scale)
	}
}

func TestDecimalRoundingNegativeZero(t *testing.T) {
	// A zero result must not render as negative.
	got, ok := coerceDecimal("-0.04", decimalHint(0, 1, false))
	require.True(t, ok)
	assert.Equal(t, "0.0", got)

	got, ok = coerceDecimal("-0.00", decimalHint(0, 2, false))
	require.True(t, ok)
	assert.Equal(t, "0.00", got)
}

func TestDecimalUnsignedClamp(t *testing.T) {
	got, ok := coerceDecimal("-5.00", decimalHint(0, 2, true))
	require.True(t, ok)
	assert.Equal(t, "0.00", got)

	// Positive values are untouched by the unsigned flag.
	got, ok = coerceDecimal("5.00", decimalHint(0, 2, true))
	require.True(t, ok)
	assert.Equal(t, "5.00", got)
}

func TestDecimalPrecisionRejection(t *testing.T) {
	_, ok := coerceDecimal("12345.67", decimalHint(6, 2, false))
	assert.False(t, ok, "7 significant digits exceed precision 6")

	got, ok := coerceDecimal("1234.56", decimalHint(6, 2, false))
	require.True(t, ok)
	assert.Equal(t, "1234.56", got)
}

func TestDecimalRejectsNonDecimalText(t *testing.T) {
	for _, in := range []string{"1e5", "1.2E-3", "abc", "", ".", "1.2.3", "0x10", "NaN", "Infinity"} {
		_, ok := coerceDecimal(in, decimalHint(0, 2, false))
		assert.False(t, ok, "input %q must reject", in)
	}
	// ".5" and "5." are valid decimal text.
	got, ok := coerceDecimal(".5", decimalHint(0, 2, false))
	require.True(t, ok)
	assert.Equal(t, "0.50", got)
	got, ok = coerceDecimal("5.", decimalHint(0, 2, false))
	require.True(t, ok)
	assert.Equal(t, "5.00", got)
}

func TestDecimalNoScale(t *testing.T) {
	// Undeclared scale leaves the fraction as parsed.
	got, ok := coerceDecimal("12.345", decimalHint(0, -1, false))
	require.True(t, ok)
	assert.Equal(t, "12.345", got)
}

func TestDecimalFromDriverNumbers(t *testing.T) {
	got, ok := coerceDecimal(int64(-7), decimalHint(0, 2, false))
	require.True(t, ok)
	assert.Equal(t, "-7.00", got)

	got, ok = coerceDecimal(12.5, decimalHint(0, 2, false))
	require.True(t, ok)
	assert.Equal(t, "12.50", got)
}

func TestCoerceDecimalFallback(t *testing.T) {
	// Coercion failure falls back to a generic literal, never an error.
	assert.Equal(t, "'not-a-number'", Coerce(DialectPostgres, "not-a-number", decimalHint(10, 2, false)))
}

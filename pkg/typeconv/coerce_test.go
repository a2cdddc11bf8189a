package typeconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func hintOf(kind TargetKind) TargetColumnHint {
	h := UnknownHint()
	h.Kind = kind
	return h
}

func TestCoerceNull(t *testing.T) {
	// NULL wins over every hint.
	for _, kind := range []TargetKind{KindUnknown, KindJSON, KindBinary, KindBoolean, KindInteger, KindFloat, KindDecimal, KindDate, KindTime, KindTimestamp} {
		assert.Equal(t, "NULL", Coerce(DialectMySQL, nil, hintOf(kind)))
		assert.Equal(t, "NULL", Coerce(DialectPostgres, nil, hintOf(kind)))
	}
}

func TestCoerceBooleanTokens(t *testing.T) {
	trueTokens := []string{"1", "true", "t", "yes", "y", "on", "TRUE", "Yes", " On "}
	falseTokens := []string{"0", "false", "f", "no", "n", "off", "FALSE", "No"}
	hint := hintOf(KindBoolean)

	for _, tok := range trueTokens {
		assert.Equal(t, "1", Coerce(DialectMySQL, tok, hint), "token %q", tok)
		assert.Equal(t, "TRUE", Coerce(DialectPostgres, tok, hint), "token %q", tok)
	}
	for _, tok := range falseTokens {
		assert.Equal(t, "0", Coerce(DialectMySQL, tok, hint), "token %q", tok)
		assert.Equal(t, "FALSE", Coerce(DialectPostgres, tok, hint), "token %q", tok)
	}

	// Numeric non-zero is true.
	assert.Equal(t, "TRUE", Coerce(DialectPostgres, int64(-3), hint))
	assert.Equal(t, "FALSE", Coerce(DialectPostgres, int64(0), hint))
	assert.Equal(t, "TRUE", Coerce(DialectPostgres, 0.5, hint))
	assert.Equal(t, "TRUE", Coerce(DialectPostgres, "2", hint))

	// Unrecognized tokens fall back to the generic literal.
	assert.Equal(t, "'maybe'", Coerce(DialectPostgres, "maybe", hint))
}

func TestCoerceBinary(t *testing.T) {
	hint := hintOf(KindBinary)
	// All three encodings of "Hi" produce the same bytes.
	for _, in := range []string{"base64:SGk=", "b64:SGk=", "hex:4869", "0x4869", "4869", `\x4869`} {
		assert.Equal(t, "X'4869'", Coerce(DialectMySQL, in, hint), "input %q", in)
		assert.Equal(t, "decode('4869','hex')", Coerce(DialectPostgres, in, hint), "input %q", in)
	}
	// Undecodable text is treated as raw bytes.
	assert.Equal(t, "X'686921'", Coerce(DialectMySQL, "hi!", hint))
	// Raw non-UTF8 driver bytes skip text decoding.
	assert.Equal(t, "X'ff00'", Coerce(DialectMySQL, []byte{0xff, 0x00}, hint))
}

func TestCoerceJSON(t *testing.T) {
	hint := hintOf(KindJSON)
	// Valid JSON passes through verbatim.
	assert.Equal(t, `CAST('{"a":1}' AS JSON)`, Coerce(DialectMySQL, `{"a":1}`, hint))
	assert.Equal(t, `'{"a":1}'::json`, Coerce(DialectPostgres, `{"a":1}`, hint))

	jsonb := hint
	jsonb.PostgresJSONB = true
	assert.Equal(t, `'{"a":1}'::jsonb`, Coerce(DialectPostgres, `{"a":1}`, jsonb))

	// Non-JSON text is re-encoded as a JSON string.
	assert.Equal(t, `'"plain text"'::json`, Coerce(DialectPostgres, "plain text", hint))
	assert.Equal(t, `CAST('"plain text"' AS JSON)`, Coerce(DialectMySQL, "plain text", hint))
}

func TestCoerceInteger(t *testing.T) {
	hint := hintOf(KindInteger)
	assert.Equal(t, "42", Coerce(DialectMySQL, int64(42), hint))
	assert.Equal(t, "42", Coerce(DialectMySQL, "42", hint))
	assert.Equal(t, "42", Coerce(DialectMySQL, 42.0, hint))
	assert.Equal(t, "18446744073709551615", Coerce(DialectMySQL, uint64(18446744073709551615), hint))
	assert.Equal(t, "1", Coerce(DialectMySQL, true, hint))

	// Unsigned clamps negatives to zero.
	unsigned := hint
	unsigned.Unsigned = true
	assert.Equal(t, "0", Coerce(DialectMySQL, int64(-5), unsigned))

	// Exceeding a declared precision rejects to the generic literal.
	narrow := hint
	narrow.Precision = 3
	assert.Equal(t, "'12345'", Coerce(DialectMySQL, "12345", narrow))
	assert.Equal(t, "999", Coerce(DialectMySQL, "999", narrow))

	// Fractional floats fall back.
	assert.Equal(t, "1.5", Coerce(DialectMySQL, 1.5, hint))
}

func TestCoerceUnknownFallback(t *testing.T) {
	hint := UnknownHint()
	assert.Equal(t, "'it''s'", Coerce(DialectMySQL, "it's", hint))
	assert.Equal(t, "123", Coerce(DialectMySQL, int64(123), hint))
	assert.Equal(t, "1", Coerce(DialectMySQL, true, hint))
	assert.Equal(t, "TRUE", Coerce(DialectPostgres, true, hint))
}

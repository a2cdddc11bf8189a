package typeconv

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Coerce renders a runtime value as a dialect literal for a column with
// the given hint. It never fails: when a value does not fit its hint it
// falls back to a generic literal, prioritizing completing the transfer
// over rejecting a row. Callers that need strict correctness must verify
// the result separately.
func Coerce(dialect Dialect, value any, hint TargetColumnHint) string {
	if value == nil {
		return "NULL"
	}
	switch hint.Kind {
	case KindJSON:
		if lit, ok := coerceJSON(dialect, value, hint); ok {
			return lit
		}
	case KindBinary:
		if lit, ok := coerceBinary(dialect, value); ok {
			return lit
		}
	case KindBoolean:
		if b, ok := parseBoolean(value); ok {
			return dialect.BooleanLiteral(b)
		}
	case KindInteger:
		if lit, ok := coerceInteger(value, hint); ok {
			return lit
		}
	case KindFloat:
		if lit, ok := coerceFloat(value); ok {
			return lit
		}
	case KindDecimal:
		if lit, ok := coerceDecimal(value, hint); ok {
			return lit
		}
	case KindDate, KindTime, KindTimestamp:
		if lit, ok := coerceTemporal(value, hint); ok {
			return "'" + lit + "'"
		}
	case KindUnknown:
		// fall through to the generic literal
	}
	return GenericLiteral(dialect, value)
}

// GenericLiteral renders a raw runtime value without type hints:
// strings escaped and quoted, numbers as-is, booleans per dialect.
func GenericLiteral(dialect Dialect, value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case bool:
		return dialect.BooleanLiteral(v)
	case int:
		return strconv.Itoa(v)
	case int8, int16, int32:
		return fmt.Sprintf("%d", v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint, uint8, uint16, uint32:
		return fmt.Sprintf("%d", v)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return "'" + v.Format("2006-01-02 15:04:05") + "'"
	case []byte:
		return "'" + dialect.EscapeString(string(v)) + "'"
	case string:
		return "'" + dialect.EscapeString(v) + "'"
	default:
		return "'" + dialect.EscapeString(fmt.Sprint(v)) + "'"
	}
}

// stringValue flattens driver values to text for the text-shaped coercers.
func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}

func coerceJSON(dialect Dialect, value any, hint TargetColumnHint) (string, bool) {
	text, ok := stringValue(value)
	if !ok {
		return "", false
	}
	// If the source text already parses as JSON it passes through
	// verbatim; anything else is re-encoded as a JSON string.
	if !json.Valid([]byte(text)) {
		encoded, err := json.Marshal(text)
		if err != nil {
			return "", false
		}
		text = string(encoded)
	}
	switch dialect {
	case DialectMySQL:
		return "CAST('" + dialect.EscapeString(text) + "' AS JSON)", true
	case DialectPostgres:
		cast := "::json"
		if hint.PostgresJSONB {
			cast = "::jsonb"
		}
		return "'" + dialect.EscapeString(text) + "'" + cast, true
	default:
		return "", false
	}
}

func coerceBinary(dialect Dialect, value any) (string, bool) {
	var raw []byte
	if b, ok := value.([]byte); ok && !utf8.Valid(b) {
		// Already raw bytes from the driver; no text decoding applies.
		raw = b
	} else {
		text, ok := stringValue(value)
		if !ok {
			return "", false
		}
		raw = decodeBinaryText(text)
	}
	encoded := hex.EncodeToString(raw)
	switch dialect {
	case DialectMySQL:
		return "X'" + encoded + "'", true
	case DialectPostgres:
		return "decode('" + encoded + "','hex')", true
	default:
		return "", false
	}
}

// decodeBinaryText decodes source text by trying, in order: a base64
// prefix, a hex prefix, then a bare hex string. Text that matches none of
// these is treated as raw bytes.
func decodeBinaryText(text string) []byte {
	lower := strings.ToLower(text)
	for _, prefix := range []string{"base64:", "b64:"} {
		if strings.HasPrefix(lower, prefix) {
			if decoded, err := base64.StdEncoding.DecodeString(text[len(prefix):]); err == nil {
				return decoded
			}
		}
	}
	if strings.HasPrefix(lower, "hex:") {
		if decoded, err := hex.DecodeString(text[len("hex:"):]); err == nil {
			return decoded
		}
	}
	bare := text
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(bare, `\x`) {
		bare = bare[2:]
	}
	if bare != "" && len(bare)%2 == 0 {
		if decoded, err := hex.DecodeString(bare); err == nil {
			return decoded
		}
	}
	return []byte(text)
}

// parseBoolean accepts bool, number, and string tokens case-insensitively.
func parseBoolean(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case float32:
		return v != 0, true
	case float64:
		return v != 0, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, _ := parseInteger(value)
		return n.Sign() != 0, true
	case string, []byte:
		text, _ := stringValue(value)
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "1", "true", "t", "yes", "y", "on":
			return true, true
		case "0", "false", "f", "no", "n", "off":
			return false, true
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return f != 0, true
		}
		return false, false
	default:
		return false, false
	}
}

// coerceInteger parses to a big.Int intermediate so very large unsigned
// values survive the trip between dialects.
func coerceInteger(value any, hint TargetColumnHint) (string, bool) {
	n, ok := parseInteger(value)
	if !ok {
		return "", false
	}
	if hint.Unsigned && n.Sign() < 0 {
		n = big.NewInt(0)
	}
	rendered := n.String()
	if hint.Precision > 0 {
		digits := len(strings.TrimPrefix(rendered, "-"))
		if digits > hint.Precision {
			return "", false
		}
	}
	return rendered, true
}

func parseInteger(value any) (*big.Int, bool) {
	switch v := value.(type) {
	case bool:
		if v {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	case int:
		return big.NewInt(int64(v)), true
	case int8:
		return big.NewInt(int64(v)), true
	case int16:
		return big.NewInt(int64(v)), true
	case int32:
		return big.NewInt(int64(v)), true
	case int64:
		return big.NewInt(v), true
	case uint:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint8:
		return big.NewInt(int64(v)), true
	case uint16:
		return big.NewInt(int64(v)), true
	case uint32:
		return big.NewInt(int64(v)), true
	case uint64:
		return new(big.Int).SetUint64(v), true
	case float32:
		return wholeFloatToInt(float64(v))
	case float64:
		return wholeFloatToInt(v)
	case string, []byte:
		text, _ := stringValue(value)
		n, ok := new(big.Int).SetString(strings.TrimSpace(text), 10)
		if !ok {
			return nil, false
		}
		return n, true
	default:
		return nil, false
	}
}

func wholeFloatToInt(f float64) (*big.Int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return nil, false
	}
	n, _ := big.NewFloat(f).Int(nil)
	return n, true
}

func coerceFloat(value any) (string, bool) {
	switch v := value.(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	case string, []byte:
		text, _ := stringValue(value)
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatFloat(f, 'g', -1, 64), true
	default:
		return "", false
	}
}

package typeconv

import (
	"fmt"
	"strconv"
	"strings"
)

// Exact decimal coercion. Values are parsed from their decimal *text* into
// sign + integer digits + fraction digits and manipulated as digit strings.
// They must never pass through a binary float: rounding is half-up with
// explicit carry propagation into the integer part.

type decimal struct {
	neg  bool
	ints string // integer digits, no leading zeros ("" means 0)
	frac string // fraction digits, trailing zeros preserved
}

func coerceDecimal(value any, hint TargetColumnHint) (string, bool) {
	text, ok := decimalText(value)
	if !ok {
		return "", false
	}
	d, ok := parseDecimal(text)
	if !ok {
		return "", false
	}
	if hint.Unsigned && d.neg && !d.isZero() {
		// Clamp negative values to positive zero.
		d = decimal{}
	}
	if hint.Scale >= 0 {
		d = d.round(hint.Scale)
	}
	if hint.Precision > 0 && d.significantDigits() > hint.Precision {
		return "", false
	}
	return d.String(), true
}

// decimalText converts a runtime value to decimal text without losing
// precision. Driver-native floats are formatted with the shortest exact
// round-trip representation; everything already textual stays textual.
func decimalText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// parseDecimal accepts [+-]digits[.digits]. Scientific notation is
// rejected: an exponent cannot be honored without float arithmetic.
func parseDecimal(text string) (decimal, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal{}, false
	}
	var d decimal
	switch s[0] {
	case '-':
		d.neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	ints, frac, hasFrac := strings.Cut(s, ".")
	if ints == "" && frac == "" {
		return decimal{}, false
	}
	if !allDigits(ints) || (hasFrac && !allDigits(frac)) {
		return decimal{}, false
	}
	d.ints = strings.TrimLeft(ints, "0")
	d.frac = frac
	if d.isZero() {
		d.neg = false
	}
	return d, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (d decimal) isZero() bool {
	return d.ints == "" && strings.TrimLeft(d.frac, "0") == ""
}

// round adjusts the fraction to exactly scale digits using half-up
// rounding, carrying into the integer digits when the fraction overflows.
func (d decimal) round(scale int) decimal {
	if len(d.frac) <= scale {
		d.frac += strings.Repeat("0", scale-len(d.frac))
		return d
	}
	keep, next := d.frac[:scale], d.frac[scale]
	d.frac = keep
	if next >= '5' {
		carried, carry := incrementDigits(keep)
		d.frac = carried
		if carry {
			d.ints, carry = incrementDigits(d.ints)
			if carry {
				d.ints = "1" + d.ints
			}
		}
	}
	if d.isZero() {
		d.neg = false
	}
	return d
}

// incrementDigits adds one to a digit string, reporting overflow carry.
// "99" becomes ("00", true); "" means zero and becomes ("1", false)...
// except an empty string has no digit positions, so incrementing it
// overflows into the caller's next column: ("", true).
func incrementDigits(s string) (string, bool) {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b), false
		}
		b[i] = '0'
	}
	return string(b), true
}

// significantDigits counts digits that must fit within a declared
// precision: integer digits (leading zeros stripped at parse time) plus
// all fraction digits.
func (d decimal) significantDigits() int {
	return len(d.ints) + len(d.frac)
}

// String renders canonical decimal text: no leading zeros, fraction kept
// to its current length so a rounded scale survives verbatim.
func (d decimal) String() string {
	var b strings.Builder
	if d.neg {
		b.WriteByte('-')
	}
	if d.ints == "" {
		b.WriteByte('0')
	} else {
		b.WriteString(d.ints)
	}
	if d.frac != "" {
		b.WriteByte('.')
		b.WriteString(d.frac)
	}
	return b.String()
}

package typeconv

import (
	"regexp"
	"strconv"
	"strings"
)

// TargetKind is the semantic kind of a destination column. It is a closed
// enum: Coerce switches over it exhaustively.
type TargetKind int

const (
	KindUnknown TargetKind = iota
	KindJSON
	KindBinary
	KindBoolean
	KindInteger
	KindFloat
	KindDecimal
	KindDate
	KindTime
	KindTimestamp
)

func (k TargetKind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindBinary:
		return "binary"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Column is the slice of schema introspection this package needs:
// the declared type text of one column.
type Column struct {
	Name       string
	DataType   string // e.g. "decimal", "timestamp with time zone"
	ColumnType string // full type text where available, e.g. "decimal(10,2) unsigned"
}

// TargetColumnHint describes how values destined for one column should be
// interpreted and coerced. The zero value means "no information": generic
// literal rendering.
type TargetColumnHint struct {
	Kind          TargetKind
	PostgresJSONB bool // emit ::jsonb rather than ::json
	Precision     int  // 0 = undeclared
	Scale         int  // -1 = undeclared (0 is a meaningful scale)
	Unsigned      bool
	TimezoneAware bool
}

// UnknownHint is the hint used when no destination column matches.
func UnknownHint() TargetColumnHint {
	return TargetColumnHint{Kind: KindUnknown, Scale: -1}
}

var (
	precisionScaleRegex = regexp.MustCompile(`\((\d+)\s*,\s*(\d+)\)`)
	precisionOnlyRegex  = regexp.MustCompile(`\((\d+)\)`)
)

// Classify maps a column's declared type text to a TargetColumnHint.
//
// The predicates are tested in a fixed priority order because several can
// match the same type text: tinyint(1) is both integer-shaped and
// boolean-shaped, timestamptz contains "time", and so on.
func Classify(col Column) TargetColumnHint {
	text := strings.ToLower(strings.TrimSpace(col.DataType + " " + col.ColumnType))
	base := baseType(text)

	hint := UnknownHint()
	hint.TimezoneAware = containsAny(text, "with time zone", "timestamptz", "timetz", "datetimeoffset")
	hint.Unsigned = strings.Contains(text, "unsigned")

	switch {
	case strings.Contains(text, "json"):
		hint.Kind = KindJSON
		hint.PostgresJSONB = strings.Contains(text, "jsonb")
	case containsAny(text, "bytea", "blob", "binary", "image"):
		hint.Kind = KindBinary
	case strings.Contains(text, "bool") || strings.Contains(text, "tinyint(1)") || base == "bit":
		hint.Kind = KindBoolean
	case containsAny(text, "decimal", "numeric", "money"):
		hint.Kind = KindDecimal
		hint.Precision, hint.Scale = declaredPrecision(text)
	case containsAny(text, "float", "double", "real"):
		hint.Kind = KindFloat
	case isIntegerBase(base) || strings.Contains(text, "serial"):
		hint.Kind = KindInteger
	case containsAny(text, "timestamp", "datetime", "smalldatetime"):
		// also covers datetime2 and datetimeoffset
		hint.Kind = KindTimestamp
	case strings.Contains(text, "date"):
		hint.Kind = KindDate
	case strings.Contains(text, "time") && !strings.HasPrefix(base, "timestamp"):
		hint.Kind = KindTime
	}
	return hint
}

// Hints is a per-destination-column hint set keyed by lowercased column name.
type Hints map[string]TargetColumnHint

// NewHints classifies every column of the destination table.
func NewHints(cols []Column) Hints {
	hints := make(Hints, len(cols))
	for _, col := range cols {
		hints[strings.ToLower(col.Name)] = Classify(col)
	}
	return hints
}

// For returns the hint for a column, or the Unknown hint when no
// destination column matches the (case-insensitive) name.
func (h Hints) For(name string) TargetColumnHint {
	if hint, ok := h[strings.ToLower(name)]; ok {
		return hint
	}
	return UnknownHint()
}

func baseType(text string) string {
	base := text
	if idx := strings.IndexAny(base, "( "); idx != -1 {
		base = base[:idx]
	}
	return base
}

func containsAny(text string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}

func isIntegerBase(base string) bool {
	switch base {
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint", "int2", "int4", "int8", "year":
		return true
	}
	return false
}

// declaredPrecision parses "(precision[,scale])" from type text.
// Scale is -1 when undeclared.
func declaredPrecision(text string) (precision, scale int) {
	scale = -1
	if m := precisionScaleRegex.FindStringSubmatch(text); len(m) == 3 {
		precision, _ = strconv.Atoi(m[1])
		scale, _ = strconv.Atoi(m[2])
		return precision, scale
	}
	if m := precisionOnlyRegex.FindStringSubmatch(text); len(m) == 2 {
		precision, _ = strconv.Atoi(m[1])
	}
	return precision, scale
}

package typeconv

import (
	"math"
	"strconv"
	"time"
)

const (
	dateFormat      = "2006-01-02"
	timeFormat      = "15:04:05"
	timestampFormat = "2006-01-02 15:04:05"

	// Numeric epoch values above this are interpreted as milliseconds.
	// 1e12 seconds is the year 33658; 1e12 milliseconds is 2001.
	epochMillisThreshold = 1e12
)

// Zoned textual formats, tried before the naive ones. A match means the
// value carries an explicit offset.
var zonedFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
}

// Naive formats carry no offset: the wall clock is taken as-is.
var naiveFormats = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dateFormat,
	"15:04:05.999999999",
	timeFormat,
}

// coerceTemporal renders a date/time/timestamp value as canonical,
// dialect-agnostic text (without quotes). If the parsed value carries a
// zone and the destination is timezone-aware, it is converted to UTC; if
// the destination is not timezone-aware the local wall-clock component is
// kept and the offset dropped, not converted.
func coerceTemporal(value any, hint TargetColumnHint) (string, bool) {
	t, zoned, ok := parseTemporal(value)
	if !ok {
		return "", false
	}
	if zoned && hint.TimezoneAware {
		t = t.UTC()
	}
	switch hint.Kind {
	case KindDate:
		return t.Format(dateFormat), true
	case KindTime:
		return t.Format(timeFormat), true
	default:
		return t.Format(timestampFormat), true
	}
}

func parseTemporal(value any) (t time.Time, zoned bool, ok bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, parsed := parseInteger(value)
		if !parsed || !n.IsInt64() {
			return time.Time{}, false, false
		}
		return epochToTime(n.Int64()), true, true
	case float32:
		return epochFloatToTime(float64(v))
	case float64:
		return epochFloatToTime(v)
	case string, []byte:
		text, _ := stringValue(value)
		for _, layout := range zonedFormats {
			if parsed, err := time.Parse(layout, text); err == nil {
				return parsed, true, true
			}
		}
		for _, layout := range naiveFormats {
			if parsed, err := time.Parse(layout, text); err == nil {
				return parsed, false, true
			}
		}
		// Purely numeric text is an epoch value.
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return epochToTime(n), true, true
		}
		return time.Time{}, false, false
	default:
		return time.Time{}, false, false
	}
}

func epochFloatToTime(f float64) (time.Time, bool, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false, false
	}
	return epochToTime(int64(f)), true, true
}

// epochToTime disambiguates seconds from milliseconds by magnitude.
func epochToTime(n int64) time.Time {
	if n >= epochMillisThreshold || n <= -epochMillisThreshold {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

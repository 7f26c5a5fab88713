package util

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when parsing raw trade dates. Upstream
// warehouses mix ISO dates, slashed dates, datetimes and unix seconds.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"20060102",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate parses a raw trade-date value into a timezone-naive calendar day
// (UTC midnight). Returns (t, true) on success.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DayUTC(t), true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 1e9 {
		return DayUTC(time.Unix(ts, 0).UTC()), true
	}
	return time.Time{}, false
}

// DayUTC truncates a timestamp to its calendar day at UTC midnight.
func DayUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekKey identifies the ISO week a trade date belongs to.
func WeekKey(t time.Time) int {
	y, w := t.ISOWeek()
	return y*100 + w
}

// MonthKey identifies the calendar month a trade date belongs to.
func MonthKey(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}

// YearKey identifies the calendar year a trade date belongs to.
func YearKey(t time.Time) int { return t.Year() }

// ToFloat coerces the loosely-typed values a raw warehouse row can carry.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int:
		return float64(x), true
	case uint64:
		return float64(x), true
	case []byte:
		return parseFloatString(string(x))
	case string:
		return parseFloatString(x)
	default:
		return 0, false
	}
}

func parseFloatString(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ToDate coerces a raw warehouse value into a calendar day.
func ToDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return DayUTC(x), true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return DayUTC(*x), true
	case string:
		return ParseDate(x)
	case []byte:
		return ParseDate(string(x))
	default:
		return time.Time{}, false
	}
}

// ToString coerces a raw warehouse value into a trimmed string.
func ToString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case []byte:
		return strings.TrimSpace(string(x)), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		// integer-like symbol columns sometimes arrive as floats
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return "", false
	}
}

package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// DateLayout is the canonical day key used everywhere in the history.
const DateLayout = "2006/01/02"

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a canonical key into midnight of that day in UTC.
// Calendar arithmetic on the result is free of DST shifts.
func ParseDate(canonical string) (time.Time, error) {
	t, err := time.Parse(DateLayout, canonical)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, canonical)
	}
	return t, nil
}

// NormalizeDate turns a raw date into its canonical key. Strings pass
// through untouched; Unix timestamps (seconds) are rendered on the local
// calendar of loc.
func NormalizeDate(raw any, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}

	switch v := raw.(type) {
	case string:
		return v, nil
	case int:
		return FormatDate(time.Unix(int64(v), 0).In(loc)), nil
	case int64:
		return FormatDate(time.Unix(v, 0).In(loc)), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("unsupported timestamp %v", v)
		}
		return FormatDate(time.Unix(int64(v), 0).In(loc)), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return FormatDate(time.Unix(i, 0).In(loc)), nil
		}
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return "", fmt.Errorf("unsupported timestamp %q", v.String())
		}
		return FormatDate(time.Unix(int64(f), 0).In(loc)), nil
	default:
		return "", fmt.Errorf("unsupported date type %T", raw)
	}
}

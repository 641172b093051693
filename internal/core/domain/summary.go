package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	summaryEntity = "Summary"
	userEntity    = "User"
)

// summaryDefaults is applied when a metric arrives null or absent. The remote
// API omits metrics for the in-progress day.
var summaryDefaults = map[string]int{
	"gainedXp":         0,
	"numSessions":      0,
	"totalSessionTime": 0,
}

// Summary is one day of raw activity as reported by the remote service.
type Summary struct {
	Date             string `json:"date"`
	GainedXP         int    `json:"gainedXp"`
	NumSessions      int    `json:"numSessions"`
	TotalSessionTime int    `json:"totalSessionTime"`
}

// User carries the only user attribute the sync needs.
type User struct {
	SiteStreak int `json:"siteStreak"`
}

func ParseSummary(raw []byte, loc *time.Location) (Summary, error) {
	obj, err := decodeObject(raw, summaryEntity)
	if err != nil {
		return Summary{}, err
	}

	rawDate, ok := obj["date"]
	if !ok || rawDate == nil {
		return Summary{}, schemaError(summaryEntity, "date", "field required")
	}
	date, err := NormalizeDate(rawDate, loc)
	if err != nil {
		return Summary{}, schemaError(summaryEntity, "date", "%v", err)
	}

	s := Summary{Date: date}
	fields := []struct {
		key string
		dst *int
	}{
		{"gainedXp", &s.GainedXP},
		{"numSessions", &s.NumSessions},
		{"totalSessionTime", &s.TotalSessionTime},
	}
	for _, f := range fields {
		def := summaryDefaults[f.key]
		v, err := intField(obj, summaryEntity, f.key, &def)
		if err != nil {
			return Summary{}, err
		}
		*f.dst = v
	}

	return s, nil
}

func ParseSummaries(raw []json.RawMessage, loc *time.Location) ([]Summary, error) {
	summaries := make([]Summary, 0, len(raw))
	for _, r := range raw {
		s, err := ParseSummary(r, loc)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func ParseUser(raw []byte) (User, error) {
	obj, err := decodeObject(raw, userEntity)
	if err != nil {
		return User{}, err
	}

	streak, err := intField(obj, userEntity, "siteStreak", nil)
	if err != nil {
		return User{}, err
	}
	return User{SiteStreak: streak}, nil
}

func decodeObject(raw []byte, entity string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, schemaError(entity, "*", "not a JSON object: %v", err)
	}
	if obj == nil {
		return nil, schemaError(entity, "*", "null document")
	}
	return obj, nil
}

// intField reads a non-negative integer. A nil def makes the field required.
func intField(obj map[string]any, entity, key string, def *int) (int, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		if def == nil {
			return 0, schemaError(entity, key, "field required")
		}
		return *def, nil
	}

	var n int64
	switch v := raw.(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil || f != float64(int64(f)) {
				return 0, schemaError(entity, key, "value %s is not a valid integer", v)
			}
			i = int64(f)
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, schemaError(entity, key, "value %q is not a valid integer", v)
		}
		n = i
	default:
		return 0, schemaError(entity, key, "unexpected type %T", raw)
	}

	if n < 0 {
		return 0, schemaError(entity, key, "value %d cannot be negative", n)
	}
	return int(n), nil
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
)

// DecodeHistory normalizes a persisted progress document into a History.
//
// Recognized shapes:
//   - empty or null: empty history
//   - {"YYYY/MM/DD": {...}}: the canonical map
//   - [{"date": "YYYY/MM/DD", ...}, ...]: the legacy list; items without a
//     date cannot be keyed and are dropped
func DecodeHistory(doc []byte) (History, error) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return History{}, nil
	}

	switch trimmed[0] {
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, schemaError("History", "*", "%v", err)
		}
		h := make(History, len(raw))
		for date, body := range raw {
			e, err := ParseProgressEntry(body)
			if err != nil {
				return nil, fmt.Errorf("history entry %s: %w", date, err)
			}
			h[date] = e
		}
		return h, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, schemaError("History", "*", "%v", err)
		}
		h := make(History, len(items))
		for i, item := range items {
			obj, err := decodeObject(item, progressEntity)
			if err != nil {
				return nil, fmt.Errorf("legacy history item %d: %w", i, err)
			}
			date, ok := obj["date"].(string)
			if !ok || date == "" {
				log.Printf("[STORE] Dropping legacy history item %d without a date", i)
				continue
			}
			e, err := progressEntryFromObject(obj)
			if err != nil {
				return nil, fmt.Errorf("legacy history item %s: %w", date, err)
			}
			h[date] = e
		}
		return h, nil

	default:
		return nil, schemaError("History", "*", "unexpected document shape")
	}
}

// DecodeStatistics normalizes a persisted run statistics document. Anything
// but an object from an older layout is discarded, as are entries whose run
// time is not a string.
func DecodeStatistics(doc []byte) (RunStatistics, error) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return RunStatistics{}, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, schemaError("RunStatistics", "*", "%v", err)
	}

	stats := make(RunStatistics, len(raw))
	for date, v := range raw {
		at, ok := v.(string)
		if !ok {
			log.Printf("[STORE] Dropping run statistics entry %s with a %T value", date, v)
			continue
		}
		stats[date] = at
	}
	return stats, nil
}

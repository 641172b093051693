package domain

import (
	"sort"
)

const progressEntity = "ProgressEntry"

// ProgressEntry is one day of persisted progress.
type ProgressEntry struct {
	XPToday          int `json:"xp_today"`
	NumberOfSessions int `json:"number_of_sessions"`
	SessionTime      int `json:"session_time"`
	Streak           int `json:"streak"`
}

// NewProgressEntry projects the metrics of a summary. The remote service only
// reports the current streak, so it is supplied by the caller.
func NewProgressEntry(s Summary, streak int) ProgressEntry {
	return ProgressEntry{
		XPToday:          s.GainedXP,
		NumberOfSessions: s.NumSessions,
		SessionTime:      s.TotalSessionTime,
		Streak:           streak,
	}
}

// PlaceholderEntry backfills a day with no fetched data.
func PlaceholderEntry(streak int) ProgressEntry {
	return ProgressEntry{Streak: streak}
}

// ParseProgressEntry decodes a persisted entry. All four fields are required.
func ParseProgressEntry(raw []byte) (ProgressEntry, error) {
	obj, err := decodeObject(raw, progressEntity)
	if err != nil {
		return ProgressEntry{}, err
	}
	return progressEntryFromObject(obj)
}

func progressEntryFromObject(obj map[string]any) (ProgressEntry, error) {
	var e ProgressEntry
	fields := []struct {
		key string
		dst *int
	}{
		{"xp_today", &e.XPToday},
		{"number_of_sessions", &e.NumberOfSessions},
		{"session_time", &e.SessionTime},
		{"streak", &e.Streak},
	}
	for _, f := range fields {
		v, err := intField(obj, progressEntity, f.key, nil)
		if err != nil {
			return ProgressEntry{}, err
		}
		*f.dst = v
	}
	return e, nil
}

// History maps canonical dates to progress entries.
type History map[string]ProgressEntry

func (h History) Clone() History {
	out := make(History, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Dates returns the keys in chronological order. Canonical keys sort
// lexically in date order.
func (h History) Dates() []string {
	dates := make([]string, 0, len(h))
	for k := range h {
		dates = append(dates, k)
	}
	sort.Strings(dates)
	return dates
}

// DatedEntry pairs an entry with its key for ordered output.
type DatedEntry struct {
	Date string `json:"date"`
	ProgressEntry
}

// Between returns the entries whose date lies in [from, to], ordered by date.
// An empty bound is open.
func (h History) Between(from, to string) []DatedEntry {
	out := make([]DatedEntry, 0)
	for _, d := range h.Dates() {
		if from != "" && d < from {
			continue
		}
		if to != "" && d > to {
			continue
		}
		out = append(out, DatedEntry{Date: d, ProgressEntry: h[d]})
	}
	return out
}

package services

import (
	"log"
	"sort"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

// Reconcile merges a fetched summary window into history and backfills every
// missing day between the earliest and latest known dates. Existing entries
// are never overwritten or removed; the input map is left untouched.
func Reconcile(history domain.History, summaries []domain.Summary) domain.History {
	result := history.Clone()

	window := make(map[string]domain.Summary, len(summaries))
	for _, s := range summaries {
		if !isCanonical(s.Date) {
			log.Printf("[SYNC] Skipping summary with malformed date %q", s.Date)
			continue
		}
		window[s.Date] = s
	}

	windowDates := make([]string, 0, len(window))
	for d := range window {
		windowDates = append(windowDates, d)
	}
	sort.Strings(windowDates)

	for _, date := range windowDates {
		if _, exists := result[date]; exists {
			continue
		}
		result[date] = domain.NewProgressEntry(window[date], streakOn(result, date))
	}

	fillGaps(result)

	return result
}

// streakOn picks the streak in effect on date: the nearest earlier entry's,
// falling back to the nearest later one.
func streakOn(h domain.History, date string) int {
	var before, after string
	for k := range h {
		if !isCanonical(k) {
			continue
		}
		if k < date && k > before {
			before = k
		}
		if k > date && (after == "" || k < after) {
			after = k
		}
	}

	switch {
	case before != "":
		return h[before].Streak
	case after != "":
		return h[after].Streak
	default:
		return 0
	}
}

func fillGaps(h domain.History) {
	dates := canonicalDates(h)

	for i := 0; i < len(dates)-1; i++ {
		prev, _ := domain.ParseDate(dates[i])
		next, _ := domain.ParseDate(dates[i+1])
		streak := h[dates[i]].Streak

		for d := prev.AddDate(0, 0, 1); d.Before(next); d = d.AddDate(0, 0, 1) {
			key := domain.FormatDate(d)
			h[key] = domain.PlaceholderEntry(streak)
		}
	}
}

func canonicalDates(h domain.History) []string {
	dates := make([]string, 0, len(h))
	for _, k := range h.Dates() {
		if isCanonical(k) {
			dates = append(dates, k)
		} else {
			log.Printf("[SYNC] History key %q is not a canonical date, leaving it as is", k)
		}
	}
	return dates
}

func isCanonical(date string) bool {
	t, err := domain.ParseDate(date)
	return err == nil && domain.FormatDate(t) == date
}

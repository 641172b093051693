package services

import "github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"

// Changed reports whether two histories differ in keys or in any entry field.
func Changed(newHistory, oldHistory domain.History) bool {
	if len(newHistory) != len(oldHistory) {
		return true
	}

	for date, entry := range newHistory {
		old, ok := oldHistory[date]
		if !ok || old != entry {
			return true
		}
	}

	return false
}

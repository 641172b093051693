package domain

// ProgressReport summarizes a slice of the history for the read API.
type ProgressReport struct {
	From             string       `json:"from"`
	To               string       `json:"to"`
	Days             []DatedEntry `json:"days"`
	TotalXP          int          `json:"total_xp"`
	TotalSessions    int          `json:"total_sessions"`
	TotalSessionTime int          `json:"total_session_time"`
	ActiveDays       int          `json:"active_days"`
	Placeholders     int          `json:"placeholders"`
	LatestStreak     int          `json:"latest_streak"`
}

// IsPlaceholder reports whether the entry stands in for a day without
// recorded activity.
func (e ProgressEntry) IsPlaceholder() bool {
	return e.XPToday == 0 && e.NumberOfSessions == 0 && e.SessionTime == 0
}

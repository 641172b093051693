package domain

import "time"

const TimeLayout = "15:04:05"

// RunStatistics records the last run time of every day the sync ran.
type RunStatistics map[string]string

// Record stamps the run, overwriting an earlier run on the same day.
func (s RunStatistics) Record(at time.Time) RunStatistics {
	out := make(RunStatistics, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[FormatDate(at)] = at.Format(TimeLayout)
	return out
}

package services

import (
	"context"
	"fmt"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

const maxDaysRange = 366

type ProgressService struct {
	progress   domain.ProgressRepository
	statistics domain.StatisticsRepository
}

func NewProgressService(progress domain.ProgressRepository, statistics domain.StatisticsRepository) *ProgressService {
	return &ProgressService{
		progress:   progress,
		statistics: statistics,
	}
}

// GetRange returns the entries between from and to (inclusive) with their
// totals. An empty bound is open; a closed range may span at most a year.
func (s *ProgressService) GetRange(ctx context.Context, from, to string) (*domain.ProgressReport, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	history, err := s.progress.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.ProgressReport{
		From: from,
		To:   to,
		Days: history.Between(from, to),
	}

	for _, d := range report.Days {
		report.TotalXP += d.XPToday
		report.TotalSessions += d.NumberOfSessions
		report.TotalSessionTime += d.SessionTime

		if d.IsPlaceholder() {
			report.Placeholders++
		} else {
			report.ActiveDays++
		}
	}

	if n := len(report.Days); n > 0 {
		report.LatestStreak = report.Days[n-1].Streak
		if report.From == "" {
			report.From = report.Days[0].Date
		}
		if report.To == "" {
			report.To = report.Days[n-1].Date
		}
	}

	return report, nil
}

func (s *ProgressService) GetDay(ctx context.Context, date string) (*domain.DatedEntry, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return nil, err
	}

	history, err := s.progress.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}

	entry, ok := history[date]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, date)
	}
	return &domain.DatedEntry{Date: date, ProgressEntry: entry}, nil
}

func (s *ProgressService) GetStatistics(ctx context.Context) (domain.RunStatistics, error) {
	return s.statistics.LoadStatistics(ctx)
}

func validateRange(from, to string) error {
	var bounds [2]struct {
		set bool
		day int64
	}
	for i, raw := range []string{from, to} {
		if raw == "" {
			continue
		}
		t, err := domain.ParseDate(raw)
		if err != nil {
			return err
		}
		bounds[i].set = true
		bounds[i].day = t.Unix() / 86400
	}

	if !bounds[0].set || !bounds[1].set {
		return nil
	}
	if bounds[0].day > bounds[1].day {
		return domain.ErrInvalidRange
	}
	if bounds[1].day-bounds[0].day >= maxDaysRange {
		return domain.ErrRangeTooLarge
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/duo-sync-engine/internal/config"
	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

// ProgressSource is the remote service the summaries are fetched from.
type ProgressSource interface {
	Login(ctx context.Context, identity, secret string) (string, error)
	FetchData(ctx context.Context, identity, token string) (*domain.RawProgress, error)
}

type SyncService struct {
	source     ProgressSource
	progress   domain.ProgressRepository
	statistics domain.StatisticsRepository

	username   string
	credential config.Credential
	location   *time.Location
	now        func() time.Time
}

type SyncOptions struct {
	Username   string
	Credential config.Credential
	Location   *time.Location
	Now        func() time.Time
}

func NewSyncService(source ProgressSource, progress domain.ProgressRepository, statistics domain.StatisticsRepository, opts SyncOptions) *SyncService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &SyncService{
		source:     source,
		progress:   progress,
		statistics: statistics,
		username:   opts.Username,
		credential: opts.Credential,
		location:   opts.Location,
		now:        opts.Now,
	}
}

type SyncResult struct {
	RunID        string
	Passwordless bool
	Changed      bool
	Today        string
	Added        int
	Total        int
	FinishedAt   time.Time
}

// Run performs one full synchronization. Nothing is persisted unless every
// step before persistence succeeded.
func (s *SyncService) Run(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{RunID: uuid.NewString()}

	token, passwordless, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	result.Passwordless = passwordless

	raw, err := s.source.FetchData(ctx, s.username, token)
	if err != nil {
		return nil, err
	}
	log.Printf("[SYNC] %s: fetched user record and %d summaries", result.RunID, len(raw.Summaries))
	log.Printf("[SYNC] %s: user record: %s", result.RunID, raw.User)
	if len(raw.Summaries) > 0 {
		log.Printf("[SYNC] %s: first summary: %s", result.RunID, raw.Summaries[0])
	}

	user, err := domain.ParseUser(raw.User)
	if err != nil {
		return nil, err
	}
	summaries, err := domain.ParseSummaries(raw.Summaries, s.location)
	if err != nil {
		return nil, err
	}

	stored, err := s.progress.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}

	working := stored.Clone()
	if today, ok := latestSummary(summaries); ok {
		working[today.Date] = domain.NewProgressEntry(today, user.SiteStreak)
		result.Today = today.Date
	} else {
		log.Printf("[SYNC] %s: no summaries in the fetch window", result.RunID)
	}

	synced := Reconcile(working, summaries)
	result.Changed = Changed(synced, stored)
	result.Added = len(synced) - len(stored)
	result.Total = len(synced)

	if err := s.progress.SaveHistory(ctx, synced); err != nil {
		return nil, fmt.Errorf("sync service: %w", err)
	}

	now := s.now().In(s.location)
	stats, err := s.statistics.LoadStatistics(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.statistics.SaveStatistics(ctx, stats.Record(now)); err != nil {
		return nil, fmt.Errorf("sync service: %w", err)
	}
	result.FinishedAt = now

	return result, nil
}

func (s *SyncService) authenticate(ctx context.Context) (string, bool, error) {
	switch c := s.credential.(type) {
	case config.Bearer:
		return c.Token, true, nil
	case config.Password:
		token, err := s.source.Login(ctx, s.username, c.Secret)
		if err != nil {
			return "", false, err
		}
		return token, false, nil
	default:
		return "", false, config.ErrMissingCredential
	}
}

// latestSummary picks the entry for the most recent day of the window,
// whatever order the window arrived in.
func latestSummary(summaries []domain.Summary) (domain.Summary, bool) {
	var latest domain.Summary
	found := false
	for _, s := range summaries {
		if !isCanonical(s.Date) {
			continue
		}
		if !found || s.Date >= latest.Date {
			latest = s
			found = true
		}
	}
	return latest, found
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/cache"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/config"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/github"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/metrics"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/errors"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
	"github.com/rs/xid"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

const DefaultYear = 2025

type Outcome string

const (
	OutcomeCacheHit      Outcome = "cache_hit"
	OutcomeRefreshed     Outcome = "refreshed"
	OutcomeStaleFallback Outcome = "stale_fallback"
)

// * GitHubClient is the subset of the GitHub adapter the orchestrator calls
type GitHubClient interface {
	UserExists(ctx context.Context, login string) (*github.Account, error)
	FetchContributions(ctx context.Context, login string, from, to time.Time) (*github.ContributionsPayload, error)
	FetchCommitHistory(ctx context.Context, login string, repos []github.RepositoryContribution, from, to time.Time) ([]github.CommitNode, error)
}

type EventPublisher interface {
	PublishGenerated(ctx context.Context, event models.GeneratedEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishGenerated(context.Context, models.GeneratedEvent) error { return nil }

type Resolution struct {
	User    *models.GitHubUser `json:"user"`
	Outcome Outcome            `json:"outcome"`
}

// * OutcomeCounts is a point-in-time copy of the resolution counters
type OutcomeCounts struct {
	CacheHits   int64 `json:"cacheHits"`
	Refreshed   int64 `json:"refreshed"`
	StaleServed int64 `json:"staleServed"`
	Failures    int64 `json:"failures"`
}

type WrappedService struct {
	github    GitHubClient
	store     models.UserStore
	publisher EventPublisher
	policy    cache.Policy
	year      int

	group    singleflight.Group
	averages *atomic.Pointer[models.AverageStats]

	cacheHits   atomic.Int64
	refreshed   atomic.Int64
	staleServed atomic.Int64
	failures    atomic.Int64
}

type Option func(*WrappedService)

func WithPublisher(p EventPublisher) Option {
	return func(s *WrappedService) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *WrappedService) {
		if ttl > 0 {
			s.policy.TTL = ttl
		}
	}
}

func WithYear(year int) Option {
	return func(s *WrappedService) {
		if year > 0 {
			s.year = year
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *WrappedService) {
		if now != nil {
			s.policy.Now = now
		}
	}
}

func NewWrappedService(githubClient GitHubClient, store models.UserStore, opts ...Option) *WrappedService {
	s := &WrappedService{
		github:    githubClient,
		store:     store,
		publisher: noopPublisher{},
		policy:    cache.NewPolicy(cache.DefaultTTL),
		year:      DefaultYear,
		averages:  atomic.NewPointer[models.AverageStats](nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WrappedService) Year() int {
	return s.year
}

// * ResolveUser returns the wrapped record for a username, refreshing it from GitHub when the
// * cached copy is missing, older than the TTL or incomplete.
func (s *WrappedService) ResolveUser(ctx context.Context, rawUsername string) (*Resolution, error) {
	username, err := ValidateUsername(rawUsername)
	if err != nil {
		return nil, err
	}

	cached, err := s.store.GetUser(ctx, username)
	if err != nil {
		logger.Warn("reading cached wrapped for %s failed, treating as miss: %v", username, err)
		cached = nil
	}

	if s.policy.IsFresh(cached) {
		s.cacheHits.Inc()
		logger.Debug("cache hit for %s", username)
		return &Resolution{User: cached, Outcome: OutcomeCacheHit}, nil
	}

	// * callers sharing a flight must not be failed by the first caller going away
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(username, func() (any, error) {
		return s.refresh(flightCtx, username, cached)
	})
	if shared {
		logger.Debug("joined in-flight refresh for %s", username)
	}
	if err != nil {
		s.failures.Inc()
		logger.Error("resolving wrapped for %s failed: %v", username, err)
		return nil, err
	}

	return v.(*Resolution), nil
}

func (s *WrappedService) refresh(ctx context.Context, username string, cached *models.GitHubUser) (*Resolution, error) {
	if _, err := s.github.UserExists(ctx, username); err != nil {
		return s.fallback(username, cached, err)
	}

	from, to := config.YearWindow(s.year)

	payload, err := s.github.FetchContributions(ctx, username, from, to)
	if err != nil {
		return s.fallback(username, cached, err)
	}

	commits, err := s.github.FetchCommitHistory(ctx, username, payload.ContributionsCollection.CommitContributionsByRepository, from, to)
	if err != nil {
		logger.Warn("first/last commit lookup for %s failed, leaving them empty: %v", username, err)
		commits = nil
	}

	m := metrics.Build(payload, commits, s.year)

	user, err := s.store.UpsertUser(ctx, username, m)
	if err != nil {
		logger.Error("saving wrapped for %s failed, serving unsaved record: %v", username, err)
		user = &models.GitHubUser{
			Username:      username,
			FetchedAt:     s.now().UTC(),
			SchemaVersion: models.CurrentSchemaVersion,
			Metrics:       m,
		}
	}

	s.refreshed.Inc()
	logger.Info("refreshed wrapped for %s (%d commits, streak %d)", username, m.TotalCommits, m.LongestStreak)
	s.publish(ctx, user)

	return &Resolution{User: user, Outcome: OutcomeRefreshed}, nil
}

// * fallback serves the cached record when the failure is one a stale copy can paper over
func (s *WrappedService) fallback(username string, cached *models.GitHubUser, err error) (*Resolution, error) {
	switch errors.KindOf(err) {
	case errors.KindUserNotFound:
		return nil, err
	case errors.KindAuthFailure, errors.KindRateLimited, errors.KindFetchFailed:
	default:
		err = errors.Classified(
			errors.KindFetchFailed,
			"Failed to fetch GitHub data",
			fmt.Sprintf("Could not refresh wrapped data for '%s'", username),
			err,
		)
	}

	if cached == nil {
		return nil, err
	}

	s.staleServed.Inc()
	logger.Warn("serving stale wrapped for %s (fetched %s): %v", username, cached.FetchedAt.Format(time.RFC3339), err)
	return &Resolution{User: cached, Outcome: OutcomeStaleFallback}, nil
}

func (s *WrappedService) publish(ctx context.Context, user *models.GitHubUser) {
	event := models.GeneratedEvent{
		ID:            xid.New().String(),
		Username:      user.Username,
		Year:          s.year,
		TotalCommits:  user.Metrics.TotalCommits,
		LongestStreak: user.Metrics.LongestStreak,
		FetchedAt:     user.FetchedAt,
	}
	if err := s.publisher.PublishGenerated(ctx, event); err != nil {
		logger.Warn("publishing wrapped.generated for %s failed: %v", user.Username, err)
	}
}

// * AverageStats serves the worker's snapshot when one exists and reads the store otherwise
func (s *WrappedService) AverageStats(ctx context.Context) (models.AverageStats, error) {
	if snapshot := s.averages.Load(); snapshot != nil {
		return *snapshot, nil
	}
	return s.store.AverageStats(ctx)
}

func (s *WrappedService) RefreshAverages(ctx context.Context) (models.AverageStats, error) {
	stats, err := s.store.AverageStats(ctx)
	if err != nil {
		return models.AverageStats{}, err
	}
	s.averages.Store(&stats)
	return stats, nil
}

func (s *WrappedService) CountUsers(ctx context.Context) (int, error) {
	return s.store.CountUsers(ctx)
}

func (s *WrappedService) Outcomes() OutcomeCounts {
	return OutcomeCounts{
		CacheHits:   s.cacheHits.Load(),
		Refreshed:   s.refreshed.Load(),
		StaleServed: s.staleServed.Load(),
		Failures:    s.failures.Load(),
	}
}

func (s *WrappedService) now() time.Time {
	if s.policy.Now != nil {
		return s.policy.Now()
	}
	return time.Now()
}

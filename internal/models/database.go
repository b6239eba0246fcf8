package models

import "context"

// * UserStore defines all persistence operations needed by the application.
// * Implementations normalize usernames themselves; a missing user is (nil, nil).
type UserStore interface {
	GetUser(ctx context.Context, username string) (*GitHubUser, error)
	UpsertUser(ctx context.Context, username string, metrics GitHubMetrics) (*GitHubUser, error)
	AverageStats(ctx context.Context) (AverageStats, error)
	CountUsers(ctx context.Context) (int, error)
	Close() error
}

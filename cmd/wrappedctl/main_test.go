package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	queued []string
	err    error
}

func (p *recordingPublisher) PublishWarmup(_ context.Context, username string) error {
	if p.err != nil {
		return p.err
	}
	p.queued = append(p.queued, username)
	return nil
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"lookup", "stats", "migrate", "warmup"})
}

func TestLookupRequiresUsername(t *testing.T) {
	assert.Error(t, lookupCmd.Args(lookupCmd, nil))
	assert.NoError(t, lookupCmd.Args(lookupCmd, []string{"octocat"}))
}

func TestQueueWarmups(t *testing.T) {
	pub := &recordingPublisher{}
	var out bytes.Buffer

	err := queueWarmups(context.Background(), &out, pub, []string{"OctoCat", "bad--name", " mona "})
	require.NoError(t, err)

	assert.Equal(t, []string{"octocat", "mona"}, pub.queued)
	assert.Contains(t, out.String(), `skipping "bad--name"`)
}

func TestQueueWarmups_PublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("channel closed")}
	err := queueWarmups(context.Background(), &bytes.Buffer{}, pub, []string{"octocat"})
	assert.ErrorContains(t, err, "channel closed")
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, &service.Resolution{
		Outcome: service.OutcomeCacheHit,
		User: &models.GitHubUser{
			Username:  "octocat",
			FetchedAt: time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC),
			Metrics: models.GitHubMetrics{
				TotalCommits:  420,
				LongestStreak: 12,
				Languages:     []models.Language{{Name: "Go", Percentage: 80}},
				TopRepos:      []models.TopRepo{{Name: "wrapped", Owner: "octocat", Commits: 200}},
			},
		},
	}, 2025)

	s := out.String()
	assert.Contains(t, s, "@octocat · 2025 wrapped (cache_hit")
	assert.Contains(t, s, "commits:        420")
	assert.Contains(t, s, "Go 80.0%")
	assert.Contains(t, s, "#1 octocat/wrapped (200 commits)")
}

func TestPrintStats(t *testing.T) {
	var out bytes.Buffer
	printStats(&out, models.AverageStats{TotalCommits: 250, LongestStreak: 9}, 4)

	assert.Contains(t, out.String(), "users: 4")
	assert.Contains(t, out.String(), "average commits:        250")
}

package cache

import (
	"testing"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/stretchr/testify/assert"
)

func record(age time.Duration, now time.Time, withCalendar bool, version int) *models.GitHubUser {
	u := &models.GitHubUser{
		Username:      "octocat",
		FetchedAt:     now.Add(-age),
		SchemaVersion: version,
	}
	if withCalendar {
		u.Metrics.ContributionCalendar = []models.CalendarWeek{}
	}
	return u
}

func TestIsFresh(t *testing.T) {
	now := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)
	current := models.CurrentSchemaVersion

	tests := []struct {
		name string
		user *models.GitHubUser
		want bool
	}{
		{"nil record", nil, false},
		{"recent and complete", record(time.Hour, now, true, current), true},
		{"just under three days", record(DefaultTTL-time.Second, now, true, current), true},
		{"exactly three days", record(DefaultTTL, now, true, current), false},
		{"older than three days but complete", record(4*24*time.Hour, now, true, current), false},
		{"recent but calendar missing", record(time.Hour, now, false, current), false},
		{"recent but written by old schema", record(time.Hour, now, true, current-1), false},
		{"old and incomplete", record(10*24*time.Hour, now, false, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFresh(tt.user, now, DefaultTTL))
		})
	}
}

func TestPolicy(t *testing.T) {
	now := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)
	p := NewPolicy(time.Hour)
	p.Now = func() time.Time { return now }

	assert.True(t, p.IsFresh(record(30*time.Minute, now, true, models.CurrentSchemaVersion)))
	assert.False(t, p.IsFresh(record(2*time.Hour, now, true, models.CurrentSchemaVersion)))

	assert.Equal(t, DefaultTTL, NewPolicy(0).TTL)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "octocat", NormalizeUsername("  OctoCat "))
	assert.Equal(t, NormalizeUsername("OCTOCAT"), NormalizeUsername("octocat"))
}

func TestComplete(t *testing.T) {
	u := &GitHubUser{SchemaVersion: CurrentSchemaVersion}
	assert.False(t, u.Complete(), "calendar missing")

	u.Metrics.ContributionCalendar = []CalendarWeek{}
	assert.True(t, u.Complete(), "empty calendar is still present")

	u.SchemaVersion = CurrentSchemaVersion - 1
	assert.False(t, u.Complete(), "old schema tag")
}

func TestTotalContributions(t *testing.T) {
	m := GitHubMetrics{ContributionCalendar: []CalendarWeek{
		{ContributionDays: []CalendarDay{{Date: "2025-01-01", ContributionCount: 2}, {Date: "2025-01-02"}}},
		{ContributionDays: []CalendarDay{{Date: "2025-01-08", ContributionCount: 5}}},
	}}
	assert.Equal(t, 7, m.TotalContributions())
}

package models

import (
	"strings"
	"time"
)

// * CurrentSchemaVersion is bumped whenever GitHubMetrics gains a field older records lack.
// * Version 2 introduced the contribution calendar.
const CurrentSchemaVersion = 2

type GitHubUser struct {
	Username      string        `json:"username" bson:"username"`
	FetchedAt     time.Time     `json:"fetchedAt" bson:"fetchedAt"`
	SchemaVersion int           `json:"schemaVersion" bson:"schemaVersion"`
	Metrics       GitHubMetrics `json:"metrics" bson:"metrics"`
}

// * Complete reports whether the record was written by the current schema
func (u *GitHubUser) Complete() bool {
	return u.SchemaVersion >= CurrentSchemaVersion && u.Metrics.ContributionCalendar != nil
}

type AverageStats struct {
	TotalCommits  int `json:"totalCommits"`
	LongestStreak int `json:"longestStreak"`
	TotalPRs      int `json:"totalPRs"`
	TotalIssues   int `json:"totalIssues"`
	StarsReceived int `json:"starsReceived"`
	UserCount     int `json:"userCount"`
}

// * NormalizeUsername is the single place usernames become store keys
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

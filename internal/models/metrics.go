package models

import "time"

// * CalendarDay is one cell of the contribution calendar
type CalendarDay struct {
	Date              string `json:"date" bson:"date"`
	ContributionCount int    `json:"contributionCount" bson:"contributionCount"`
}

type CalendarWeek struct {
	ContributionDays []CalendarDay `json:"contributionDays" bson:"contributionDays"`
}

type Language struct {
	Name       string  `json:"name" bson:"name"`
	Percentage float64 `json:"percentage" bson:"percentage"`
}

// * TopRepo additions/deletions are always 0: the contributions query has no line counts
type TopRepo struct {
	Name      string `json:"name" bson:"name"`
	Owner     string `json:"owner" bson:"owner"`
	Commits   int    `json:"commits" bson:"commits"`
	Additions int    `json:"additions" bson:"additions"`
	Deletions int    `json:"deletions" bson:"deletions"`
	URL       string `json:"url" bson:"url"`
}

type CommitRef struct {
	Date    time.Time `json:"date" bson:"date"`
	Repo    string    `json:"repo" bson:"repo"`
	Message string    `json:"message" bson:"message"`
	URL     string    `json:"url" bson:"url"`
}

// * GitHubMetrics is replaced as a whole on every refresh.
// * ContributionCalendar is nil on records written before the calendar existed.
type GitHubMetrics struct {
	TotalCommits         int            `json:"totalCommits" bson:"totalCommits"`
	TotalPRs             int            `json:"totalPRs" bson:"totalPRs"`
	TotalIssues          int            `json:"totalIssues" bson:"totalIssues"`
	CodeReviewComments   int            `json:"codeReviewComments" bson:"codeReviewComments"`
	StarsReceived        int            `json:"starsReceived" bson:"starsReceived"`
	LongestStreak        int            `json:"longestStreak" bson:"longestStreak"`
	ContributionCalendar []CalendarWeek `json:"contributionCalendar" bson:"contributionCalendar"`
	ReposCreated         int            `json:"reposCreated" bson:"reposCreated"`
	ReposContributed     int            `json:"reposContributed" bson:"reposContributed"`
	ReposForked          int            `json:"reposForked" bson:"reposForked"`
	Languages            []Language     `json:"languages" bson:"languages"`
	TopRepos             []TopRepo      `json:"topRepos" bson:"topRepos"`
	FirstCommit          *CommitRef     `json:"firstCommit" bson:"firstCommit"`
	LastCommit           *CommitRef     `json:"lastCommit" bson:"lastCommit"`
}

// * TotalContributions sums every day of the calendar
func (m GitHubMetrics) TotalContributions() int {
	total := 0
	for _, week := range m.ContributionCalendar {
		for _, day := range week.ContributionDays {
			total += day.ContributionCount
		}
	}
	return total
}

package github

import (
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
)

type Account struct {
	ID    string `json:"id"`
	Login string `json:"login"`
}

type RateLimit struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"resetAt"`
}

type Owner struct {
	Login string `json:"login"`
}

type LanguageEdge struct {
	Size int `json:"size"`
	Node struct {
		Name string `json:"name"`
	} `json:"node"`
}

type Repository struct {
	Name           string    `json:"name"`
	URL            string    `json:"url"`
	IsFork         bool      `json:"isFork"`
	StargazerCount int       `json:"stargazerCount"`
	CreatedAt      time.Time `json:"createdAt"`
	Owner          Owner     `json:"owner"`
	Languages      struct {
		Edges []LanguageEdge `json:"edges"`
	} `json:"languages"`
}

func (r Repository) FullName() string {
	return r.Owner.Login + "/" + r.Name
}

type RepositoryContribution struct {
	Contributions struct {
		TotalCount int `json:"totalCount"`
	} `json:"contributions"`
	Repository Repository `json:"repository"`
}

type ContributionsCollection struct {
	TotalCommitContributions            int `json:"totalCommitContributions"`
	TotalPullRequestContributions       int `json:"totalPullRequestContributions"`
	TotalIssueContributions             int `json:"totalIssueContributions"`
	TotalPullRequestReviewContributions int `json:"totalPullRequestReviewContributions"`
	ContributionCalendar                struct {
		Weeks []models.CalendarWeek `json:"weeks"`
	} `json:"contributionCalendar"`
	CommitContributionsByRepository []RepositoryContribution `json:"commitContributionsByRepository"`
}

// * ContributionsPayload is the user node of the contributions query plus the rate-limit snapshot
type ContributionsPayload struct {
	Login                   string                  `json:"login"`
	ContributionsCollection ContributionsCollection `json:"contributionsCollection"`
	Repositories            struct {
		Nodes []Repository `json:"nodes"`
	} `json:"repositories"`
	RepositoriesContributedTo struct {
		TotalCount int `json:"totalCount"`
	} `json:"repositoriesContributedTo"`
	RateLimit RateLimit `json:"-"`
}

type CommitAuthor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

type CommitDetail struct {
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
}

// * Commit is an entry of the REST commits listing
type Commit struct {
	SHA     string       `json:"sha"`
	HTMLURL string       `json:"html_url"`
	Commit  CommitDetail `json:"commit"`
	Author  struct {
		Login string `json:"login"`
	} `json:"author"`
}

// * CommitNode is a commit tagged with the repository it was found in
type CommitNode struct {
	Repo    string
	Message string
	URL     string
	Date    time.Time
}

type CommitListOptions struct {
	Author string
	Since  time.Time
	Until  time.Time
}

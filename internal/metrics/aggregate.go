package metrics

import (
	"math"
	"sort"
	"strings"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/github"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
)

const (
	maxLanguages = 10
	maxTopRepos  = 5
)

// * LongestStreak returns the longest run of consecutive days with at least one contribution
func LongestStreak(weeks []models.CalendarWeek) int {
	longest, current := 0, 0
	for _, week := range weeks {
		for _, day := range week.ContributionDays {
			if day.ContributionCount > 0 {
				current++
				longest = max(longest, current)
			} else {
				current = 0
			}
		}
	}
	return longest
}

// * AggregateLanguages weights each language by its byte size across all repositories.
// * Percentages have one decimal; only the 10 largest are kept.
func AggregateLanguages(repos []github.RepositoryContribution) []models.Language {
	bytesByName := make(map[string]int)
	total := 0
	for _, rc := range repos {
		for _, edge := range rc.Repository.Languages.Edges {
			bytesByName[edge.Node.Name] += edge.Size
			total += edge.Size
		}
	}

	if total == 0 {
		return []models.Language{}
	}

	languages := make([]models.Language, 0, len(bytesByName))
	for name, size := range bytesByName {
		languages = append(languages, models.Language{
			Name:       name,
			Percentage: math.Round(float64(size)/float64(total)*1000) / 10,
		})
	}

	sort.Slice(languages, func(i, j int) bool {
		if languages[i].Percentage != languages[j].Percentage {
			return languages[i].Percentage > languages[j].Percentage
		}
		return languages[i].Name < languages[j].Name
	})

	if len(languages) > maxLanguages {
		languages = languages[:maxLanguages]
	}
	return languages
}

// * RankTopRepos keeps the five repositories with the most commit contributions
func RankTopRepos(repos []github.RepositoryContribution) []models.TopRepo {
	ranked := make([]github.RepositoryContribution, len(repos))
	copy(ranked, repos)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Contributions.TotalCount > ranked[j].Contributions.TotalCount
	})

	if len(ranked) > maxTopRepos {
		ranked = ranked[:maxTopRepos]
	}

	top := make([]models.TopRepo, 0, len(ranked))
	for _, rc := range ranked {
		top = append(top, models.TopRepo{
			Name:    rc.Repository.Name,
			Owner:   rc.Repository.Owner.Login,
			Commits: rc.Contributions.TotalCount,
			URL:     rc.Repository.URL,
		})
	}
	return top
}

// * CountCreatedInYear counts non-fork repositories created during year
func CountCreatedInYear(repos []github.Repository, year int) int {
	count := 0
	for _, r := range repos {
		if !r.IsFork && r.CreatedAt.Year() == year {
			count++
		}
	}
	return count
}

// * CountForked counts forks among the owned repositories
func CountForked(repos []github.Repository) int {
	count := 0
	for _, r := range repos {
		if r.IsFork {
			count++
		}
	}
	return count
}

// * SumStars totals stargazers across the owned repositories
func SumStars(repos []github.Repository) int {
	total := 0
	for _, r := range repos {
		total += r.StargazerCount
	}
	return total
}

// * FirstLastCommit returns the oldest and newest commit, or nil, nil without commits
func FirstLastCommit(nodes []github.CommitNode) (first, last *models.CommitRef) {
	if len(nodes) == 0 {
		return nil, nil
	}

	sorted := make([]github.CommitNode, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	return toCommitRef(sorted[0]), toCommitRef(sorted[len(sorted)-1])
}

func toCommitRef(n github.CommitNode) *models.CommitRef {
	return &models.CommitRef{
		Date:    n.Date,
		Repo:    n.Repo,
		Message: firstLine(n.Message),
		URL:     n.URL,
	}
}

func firstLine(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimRight(line, "\r")
}

// * Build assembles the full record; commits may be nil when the history sub-query failed
func Build(p *github.ContributionsPayload, commits []github.CommitNode, year int) models.GitHubMetrics {
	collection := p.ContributionsCollection
	owned := p.Repositories.Nodes

	calendar := collection.ContributionCalendar.Weeks
	if calendar == nil {
		calendar = []models.CalendarWeek{}
	}

	first, last := FirstLastCommit(commits)

	return models.GitHubMetrics{
		TotalCommits:         collection.TotalCommitContributions,
		TotalPRs:             collection.TotalPullRequestContributions,
		TotalIssues:          collection.TotalIssueContributions,
		CodeReviewComments:   collection.TotalPullRequestReviewContributions,
		StarsReceived:        SumStars(owned),
		LongestStreak:        LongestStreak(calendar),
		ContributionCalendar: calendar,
		ReposCreated:         CountCreatedInYear(owned, year),
		ReposContributed:     p.RepositoriesContributedTo.TotalCount,
		ReposForked:          CountForked(owned),
		Languages:            AggregateLanguages(collection.CommitContributionsByRepository),
		TopRepos:             RankTopRepos(collection.CommitContributionsByRepository),
		FirstCommit:          first,
		LastCommit:           last,
	}
}

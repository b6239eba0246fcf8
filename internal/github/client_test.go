package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/KOFI-GYIMAH/github-wrapped/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	originalBaseURL := baseURL
	baseURL = server.URL
	t.Cleanup(func() {
		baseURL = originalBaseURL
		server.Close()
	})
}

func TestNewClient(t *testing.T) {
	token := "test-token"
	client := NewClient(token)

	assert.NotNil(t, client)
	assert.Equal(t, token, client.token)
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)

	client = NewClient(token, WithTimeout(5*time.Second))
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
}

func TestClient_makeRequest(t *testing.T) {
	tests := []struct {
		name        string
		token       string
		validateReq func(t *testing.T, r *http.Request)
	}{
		{
			name:  "request with token",
			token: "test-token",
			validateReq: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "bearer test-token", r.Header.Get("Authorization"))
				assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
			},
		},
		{
			name:  "request without token",
			token: "",
			validateReq: func(t *testing.T, r *http.Request) {
				assert.Empty(t, r.Header.Get("Authorization"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withServer(t, func(w http.ResponseWriter, r *http.Request) {
				tt.validateReq(t, r)
				w.WriteHeader(http.StatusOK)
			})

			client := NewClient(tt.token)
			resp, err := client.makeRequest(context.Background(), http.MethodGet, "/test", nil)
			require.NoError(t, err)
			resp.Body.Close()
		})
	}
}

func TestClient_UserExists(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind apperrors.Kind
		wantID   string
	}{
		{
			name:   "existing user",
			status: http.StatusOK,
			body:   `{"data":{"user":{"id":"MDQ6VXNlcjE=","login":"octocat"}}}`,
			wantID: "MDQ6VXNlcjE=",
		},
		{
			name:     "could not resolve to a user",
			status:   http.StatusOK,
			body:     `{"data":{"user":null},"errors":[{"type":"NOT_FOUND","path":["user"],"message":"Could not resolve to a User with the login of 'nobody-here'."}]}`,
			wantKind: apperrors.KindUserNotFound,
		},
		{
			name:     "untyped could not resolve message",
			status:   http.StatusOK,
			body:     `{"errors":[{"message":"Could not resolve to a User with the login of 'ghost'."}]}`,
			wantKind: apperrors.KindUserNotFound,
		},
		{
			name:     "null user without errors",
			status:   http.StatusOK,
			body:     `{"data":{"user":null}}`,
			wantKind: apperrors.KindUserNotFound,
		},
		{
			name:     "bad credentials",
			status:   http.StatusUnauthorized,
			body:     `{"message":"Bad credentials","documentation_url":"https://docs.github.com/graphql"}`,
			wantKind: apperrors.KindAuthFailure,
		},
		{
			name:     "graphql rate limited",
			status:   http.StatusOK,
			body:     `{"errors":[{"type":"RATE_LIMITED","message":"API rate limit exceeded for user ID 1."}]}`,
			wantKind: apperrors.KindRateLimited,
		},
		{
			name:     "server error",
			status:   http.StatusBadGateway,
			body:     `oops`,
			wantKind: apperrors.KindFetchFailed,
		},
		{
			name:     "invalid json",
			status:   http.StatusOK,
			body:     `invalid json`,
			wantKind: apperrors.KindFetchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/graphql", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)

				var req graphQLRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "octocat", req.Variables["login"])

				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			client := NewClient("test-token")
			account, err := client.UserExists(context.Background(), "octocat")

			if tt.wantKind != apperrors.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
				assert.Nil(t, account)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, account.ID)
		})
	}
}

func TestClient_FetchContributions(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)

	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2025-01-01T00:00:00Z", req.Variables["from"])
		assert.Equal(t, "2025-12-31T23:59:59Z", req.Variables["to"])

		io.WriteString(w, `{"data":{
			"rateLimit":{"remaining":42,"limit":5000,"resetAt":"2025-06-01T10:00:00Z"},
			"user":{
				"login":"octocat",
				"contributionsCollection":{
					"totalCommitContributions":120,
					"totalPullRequestContributions":7,
					"totalIssueContributions":3,
					"totalPullRequestReviewContributions":11,
					"contributionCalendar":{"weeks":[{"contributionDays":[{"date":"2025-01-01","contributionCount":2}]}]},
					"commitContributionsByRepository":[
						{"contributions":{"totalCount":100},"repository":{"name":"hello","url":"https://github.com/octocat/hello","isFork":false,"stargazerCount":5,"createdAt":"2025-02-01T00:00:00Z","owner":{"login":"octocat"},"languages":{"edges":[{"size":300,"node":{"name":"Go"}}]}}}
					]
				},
				"repositories":{"nodes":[{"name":"hello","isFork":false,"stargazerCount":5,"createdAt":"2025-02-01T00:00:00Z","owner":{"login":"octocat"}}]},
				"repositoriesContributedTo":{"totalCount":9}
			}
		}}`)
	})

	client := NewClient("test-token")
	payload, err := client.FetchContributions(context.Background(), "octocat", from, to)
	require.NoError(t, err)

	assert.Equal(t, 120, payload.ContributionsCollection.TotalCommitContributions)
	assert.Equal(t, 11, payload.ContributionsCollection.TotalPullRequestReviewContributions)
	require.Len(t, payload.ContributionsCollection.CommitContributionsByRepository, 1)
	repo := payload.ContributionsCollection.CommitContributionsByRepository[0]
	assert.Equal(t, "octocat/hello", repo.Repository.FullName())
	assert.Equal(t, "Go", repo.Repository.Languages.Edges[0].Node.Name)
	assert.Equal(t, 9, payload.RepositoriesContributedTo.TotalCount)
	assert.Equal(t, 42, payload.RateLimit.Remaining)
	assert.Equal(t, 42, client.RateLimiter().Remaining(ResourceGraphQL))
}

func TestClient_ListAuthorCommits_Pagination(t *testing.T) {
	var calls int32
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/repos/octocat/hello/commits", r.URL.Path)
		assert.Equal(t, "octocat", r.URL.Query().Get("author"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 1 {
			w.Header().Set("Link", fmt.Sprintf(`<%s?page=2>; rel="next"`, r.URL.Path))
		}
		json.NewEncoder(w).Encode([]*Commit{{
			SHA:     fmt.Sprintf("sha%d", page),
			HTMLURL: fmt.Sprintf("https://github.com/octocat/hello/commit/sha%d", page),
			Commit: CommitDetail{
				Message: "commit",
				Author:  CommitAuthor{Date: time.Date(2025, 3, page, 0, 0, 0, 0, time.UTC)},
			},
		}})
	})

	client := NewClient("test-token")
	commits, err := client.ListAuthorCommits(context.Background(), "octocat", "hello", CommitListOptions{Author: "octocat"})
	require.NoError(t, err)
	assert.Len(t, commits, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_ListAuthorCommits_KeepsOldestPagePastCap(t *testing.T) {
	var pages []int
	var mu sync.Mutex
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		mu.Lock()
		pages = append(pages, page)
		mu.Unlock()

		if page < 25 {
			w.Header().Set("Link", fmt.Sprintf(`<%[1]s?page=%[2]d>; rel="next", <%[1]s?page=25>; rel="last"`, r.URL.Path, page+1))
		}
		json.NewEncoder(w).Encode([]*Commit{{
			SHA:    fmt.Sprintf("sha%d", page),
			Commit: CommitDetail{Message: "commit", Author: CommitAuthor{Date: time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -page)}},
		}})
	})

	client := NewClient("test-token")
	commits, err := client.ListAuthorCommits(context.Background(), "octocat", "big", CommitListOptions{Author: "octocat"})
	require.NoError(t, err)

	require.Len(t, commits, maxCommitPages+1)
	assert.Equal(t, "sha25", commits[len(commits)-1].SHA)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 25}, pages)
}

func TestParseLinks(t *testing.T) {
	pl := parseLinks(`<https://api.github.com/repos/o/r/commits?page=2&per_page=100>; rel="next", <https://api.github.com/repos/o/r/commits?page=14&per_page=100>; rel="last"`)
	assert.True(t, pl.hasNext)
	assert.Equal(t, 14, pl.last)

	pl = parseLinks(`<https://api.github.com/repos/o/r/commits?page=1>; rel="prev"`)
	assert.False(t, pl.hasNext)
	assert.Zero(t, pl.last)

	assert.Equal(t, pageLinks{}, parseLinks(""))
}

func TestClient_ListAuthorCommits_EmptyRepository(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"message":"Git Repository is empty."}`)
	})

	client := NewClient("test-token")
	commits, err := client.ListAuthorCommits(context.Background(), "octocat", "empty", CommitListOptions{})
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestClient_FetchCommitHistory(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octocat/a/commits":
			io.WriteString(w, `[{"sha":"1","html_url":"https://x/1","commit":{"message":"fix a\n\nbody","author":{"date":"2025-05-01T00:00:00Z"}}}]`)
		case "/repos/acme/b/commits":
			io.WriteString(w, `[{"sha":"2","html_url":"https://x/2","commit":{"message":"feat b","author":{"date":"2025-01-10T00:00:00Z"}}}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	repos := []RepositoryContribution{
		{Repository: Repository{Name: "a", Owner: Owner{Login: "octocat"}}},
		{Repository: Repository{Name: "b", Owner: Owner{Login: "acme"}}},
	}

	client := NewClient("test-token")
	nodes, err := client.FetchCommitHistory(context.Background(), "octocat", repos, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	byRepo := map[string]CommitNode{}
	for _, n := range nodes {
		byRepo[n.Repo] = n
	}
	assert.Equal(t, "fix a\n\nbody", byRepo["octocat/a"].Message)
	assert.Equal(t, "https://x/2", byRepo["acme/b"].URL)
}

func TestClient_FetchCommitHistory_Failure(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	repos := []RepositoryContribution{{Repository: Repository{Name: "a", Owner: Owner{Login: "octocat"}}}}
	client := NewClient("test-token")
	_, err := client.FetchCommitHistory(context.Background(), "octocat", repos, time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindFetchFailed, apperrors.KindOf(err))
}

func TestRateLimiter_FailsFastWhenExhausted(t *testing.T) {
	var calls int32
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"message":"API rate limit exceeded"}`)
	})

	client := NewClient("test-token")

	_, err := client.UserExists(context.Background(), "octocat")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindRateLimited, apperrors.KindOf(err))

	_, err = client.UserExists(context.Background(), "octocat")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindRateLimited, apperrors.KindOf(err))
	assert.True(t, errors.Is(err, ErrBudgetExhausted))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second call must not reach GitHub")
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	rl := NewRateLimiter()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := http.Header{}
	h.Set("Retry-After", "60")
	rl.updateFromHeaders(ResourceCore, h)
	assert.ErrorIs(t, rl.checkBudget(ResourceCore), ErrBudgetExhausted)

	now = now.Add(2 * time.Minute)
	assert.NoError(t, rl.checkBudget(ResourceCore))
}

func TestRateLimiter_SeparateQuotas(t *testing.T) {
	var graphqlCalls, restCalls int32
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		reset := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
		if r.URL.Path == "/graphql" {
			atomic.AddInt32(&graphqlCalls, 1)
			w.Header().Set("X-RateLimit-Resource", "graphql")
			w.Header().Set("X-RateLimit-Remaining", "4000")
			w.Header().Set("X-RateLimit-Reset", reset)
			io.WriteString(w, `{"data":{"user":{"id":"MDQ6VXNlcjE=","login":"octocat"}}}`)
			return
		}
		atomic.AddInt32(&restCalls, 1)
		w.Header().Set("X-RateLimit-Resource", "core")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", reset)
		io.WriteString(w, `[]`)
	})

	client := NewClient("test-token")

	_, err := client.ListAuthorCommits(context.Background(), "o", "r", CommitListOptions{Author: "octocat"})
	require.NoError(t, err)
	assert.Equal(t, 0, client.RateLimiter().Remaining(ResourceCore))

	// * a spent REST quota leaves GraphQL calls alone
	account, err := client.UserExists(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat", account.Login)
	assert.Equal(t, int32(1), atomic.LoadInt32(&graphqlCalls))
	assert.Equal(t, 4000, client.RateLimiter().Remaining(ResourceGraphQL))

	// * while further REST calls fail fast
	_, err = client.ListAuthorCommits(context.Background(), "o", "r", CommitListOptions{Author: "octocat"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindRateLimited, apperrors.KindOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&restCalls))
}

func TestRateLimiter_ObserveOnlyTouchesGraphQL(t *testing.T) {
	rl := NewRateLimiter()
	rl.Observe(RateLimit{Remaining: 0, Limit: 5000, ResetAt: time.Now().Add(time.Hour)})

	assert.ErrorIs(t, rl.checkBudget(ResourceGraphQL), ErrBudgetExhausted)
	assert.NoError(t, rl.checkBudget(ResourceCore))
}

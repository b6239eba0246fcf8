package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/KOFI-GYIMAH/github-wrapped/pkg/errors"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
	"golang.org/x/sync/errgroup"
)

var (
	baseURL = "https://api.github.com"
)

const (
	DefaultTimeout = 30 * time.Second

	maxCommitPages = 10
	commitFanOut   = 4
)

type Client struct {
	httpClient *http.Client
	token      string
	limiter    *RateLimiter
}

type Option func(*Client)

// * WithTimeout bounds every call made through the client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func NewClient(token string, opts ...Option) *Client {
	rl := NewRateLimiter()

	client := &http.Client{
		Timeout:   DefaultTimeout,
		Transport: rl.Middleware(http.DefaultTransport),
	}

	c := &Client{
		httpClient: client,
		token:      token,
		limiter:    rl,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) RateLimiter() *RateLimiter {
	return c.limiter
}

func (c *Client) makeRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	return resp, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (c *Client) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return apperrors.Classified(apperrors.KindFetchFailed, "Failed to build GitHub query", "Could not encode the GraphQL request", err)
	}

	resp, err := c.makeRequest(ctx, http.MethodPost, "/graphql", bytes.NewReader(payload))
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Classified(apperrors.KindFetchFailed, "Failed to read GitHub API response", "Could not read the response body from GitHub API", err)
	}

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp, body)
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apperrors.Classified(apperrors.KindFetchFailed, "Failed to parse GitHub API response", "Could not understand the response from GitHub API", err)
	}

	if len(envelope.Errors) > 0 {
		return classifyGraphQLErrors(envelope.Errors)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return apperrors.Classified(apperrors.KindFetchFailed, "Failed to parse GitHub API response", "Unexpected shape of GraphQL data", err)
	}
	return nil
}

// * UserExists is the lightweight existence probe run before a full metrics fetch
func (c *Client) UserExists(ctx context.Context, login string) (*Account, error) {
	var data struct {
		User *Account `json:"user"`
	}

	if err := c.graphql(ctx, userExistsQuery, map[string]any{"login": login}, &data); err != nil {
		return nil, err
	}

	if data.User == nil {
		return nil, userNotFound(login, nil)
	}
	return data.User, nil
}

func (c *Client) FetchContributions(ctx context.Context, login string, from, to time.Time) (*ContributionsPayload, error) {
	var data struct {
		RateLimit *RateLimit            `json:"rateLimit"`
		User      *ContributionsPayload `json:"user"`
	}

	variables := map[string]any{
		"login": login,
		"from":  from.UTC().Format(time.RFC3339),
		"to":    to.UTC().Format(time.RFC3339),
	}

	if err := c.graphql(ctx, contributionsQuery, variables, &data); err != nil {
		return nil, err
	}

	if data.RateLimit != nil {
		c.limiter.Observe(*data.RateLimit)
	}

	if data.User == nil {
		return nil, userNotFound(login, nil)
	}

	if data.RateLimit != nil {
		data.User.RateLimit = *data.RateLimit
	}

	logger.Info("Fetched contributions for %s: %d commits across %d repositories",
		login,
		data.User.ContributionsCollection.TotalCommitContributions,
		len(data.User.ContributionsCollection.CommitContributionsByRepository),
	)
	return data.User, nil
}

// * ListAuthorCommits walks the REST commits listing of one repository, newest first
func (c *Client) ListAuthorCommits(ctx context.Context, owner, repo string, opts CommitListOptions) ([]*Commit, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits", url.PathEscape(owner), url.PathEscape(repo))

	queryParams := make(url.Values)
	if opts.Author != "" {
		queryParams.Set("author", opts.Author)
	}
	if !opts.Since.IsZero() {
		queryParams.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}
	if !opts.Until.IsZero() {
		queryParams.Set("until", opts.Until.UTC().Format(time.RFC3339))
	}
	queryParams.Set("per_page", "100")

	var (
		allCommits []*Commit
		links      pageLinks
	)
	for page := 1; page <= maxCommitPages; page++ {
		queryParams.Set("page", strconv.Itoa(page))

		commits, pl, err := c.fetchCommitPage(ctx, path+"?"+queryParams.Encode(), page)
		if err != nil {
			return nil, err
		}

		allCommits = append(allCommits, commits...)
		links = pl
		if len(commits) == 0 || !links.hasNext {
			break
		}
	}

	// * The listing is newest first; past the page cap keep the oldest page so the first commit survives
	if links.hasNext && links.last > maxCommitPages {
		queryParams.Set("page", strconv.Itoa(links.last))
		commits, _, err := c.fetchCommitPage(ctx, path+"?"+queryParams.Encode(), links.last)
		if err != nil {
			return nil, err
		}
		logger.Debug("Skipped pages %d-%d of %s/%s commits", maxCommitPages+1, links.last-1, owner, repo)
		allCommits = append(allCommits, commits...)
	}

	logger.Debug("Fetched %d commits from %s/%s", len(allCommits), owner, repo)
	return allCommits, nil
}

type pageLinks struct {
	hasNext bool
	last    int
}

// * parseLinks reads the rel="next" and rel="last" entries of a Link header
func parseLinks(header string) pageLinks {
	var pl pageLinks
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		for _, attr := range segments[1:] {
			switch strings.TrimSpace(attr) {
			case `rel="next"`:
				pl.hasNext = true
			case `rel="last"`:
				if u, err := url.Parse(target); err == nil {
					if n, err := strconv.Atoi(u.Query().Get("page")); err == nil {
						pl.last = n
					}
				}
			}
		}
	}
	return pl
}

func (c *Client) fetchCommitPage(ctx context.Context, path string, page int) ([]*Commit, pageLinks, error) {
	resp, err := c.makeRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, pageLinks{}, classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pageLinks{}, apperrors.Classified(
			apperrors.KindFetchFailed,
			"Failed to read commits from GitHub",
			fmt.Sprintf("Could not read the response body for page %d of commits", page),
			err,
		)
	}

	// * Empty repositories answer 409
	if resp.StatusCode == http.StatusConflict {
		return nil, pageLinks{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, pageLinks{}, classifyStatus(resp, body)
	}

	var commits []*Commit
	if err := json.Unmarshal(body, &commits); err != nil {
		return nil, pageLinks{}, apperrors.Classified(
			apperrors.KindFetchFailed,
			"Failed to parse commits from GitHub",
			fmt.Sprintf("Could not understand the commits data for page %d returned by GitHub API", page),
			err,
		)
	}

	return commits, parseLinks(resp.Header.Get("Link")), nil
}

// * FetchCommitHistory collects the user's commits in the window across repositories,
// * at most commitFanOut requests in flight
func (c *Client) FetchCommitHistory(ctx context.Context, login string, repos []RepositoryContribution, from, to time.Time) ([]CommitNode, error) {
	var (
		mu    sync.Mutex
		nodes []CommitNode
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commitFanOut)

	for _, rc := range repos {
		repo := rc.Repository
		g.Go(func() error {
			commits, err := c.ListAuthorCommits(gctx, repo.Owner.Login, repo.Name, CommitListOptions{
				Author: login,
				Since:  from,
				Until:  to,
			})
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			for _, commit := range commits {
				nodes = append(nodes, CommitNode{
					Repo:    repo.FullName(),
					Message: commit.Commit.Message,
					URL:     commit.HTMLURL,
					Date:    commit.Commit.Author.Date,
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}

func userNotFound(login string, cause error) error {
	return apperrors.Classified(
		apperrors.KindUserNotFound,
		"User not found on GitHub",
		fmt.Sprintf("GitHub could not resolve a user with login %q", login),
		cause,
	)
}

func classifyTransport(err error) error {
	if errors.Is(err, ErrBudgetExhausted) {
		return apperrors.Classified(apperrors.KindRateLimited, "GitHub rate limit exceeded", "The request budget is exhausted until the next reset", err)
	}
	return apperrors.Classified(apperrors.KindFetchFailed, "Failed to reach GitHub", "Could not connect to GitHub API", err)
}

func classifyStatus(resp *http.Response, body []byte) error {
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	lower := strings.ToLower(string(body))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.Classified(apperrors.KindAuthFailure, "GitHub rejected the credentials", "Bad credentials", cause)
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.Classified(apperrors.KindRateLimited, "GitHub rate limit exceeded", "Too many requests", cause)
	case resp.StatusCode == http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || strings.Contains(lower, "rate limit") {
			return apperrors.Classified(apperrors.KindRateLimited, "GitHub rate limit exceeded", "Primary or secondary rate limit hit", cause)
		}
		return apperrors.Classified(apperrors.KindAuthFailure, "GitHub refused access", "The token lacks access to this resource", cause)
	}

	return apperrors.Classified(
		apperrors.KindFetchFailed,
		"Unexpected response from GitHub API",
		fmt.Sprintf("GitHub API returned status %d", resp.StatusCode),
		cause,
	)
}

func classifyGraphQLErrors(errs []graphQLError) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Message)
	}
	cause := errors.New(strings.Join(messages, "; "))

	for _, e := range errs {
		switch {
		case e.Type == "NOT_FOUND" || strings.Contains(e.Message, "Could not resolve to a User"):
			return apperrors.Classified(apperrors.KindUserNotFound, "User not found on GitHub", e.Message, cause)
		case e.Type == "RATE_LIMITED" || strings.Contains(strings.ToLower(e.Message), "rate limit"):
			return apperrors.Classified(apperrors.KindRateLimited, "GitHub rate limit exceeded", e.Message, cause)
		}
	}

	return apperrors.Classified(apperrors.KindFetchFailed, "GitHub query failed", "GitHub returned errors for the query", cause)
}

package github

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
)

// * ErrBudgetExhausted is returned by the transport instead of calling GitHub once the budget is spent
var ErrBudgetExhausted = errors.New("github rate limit budget exhausted")

// * GitHub meters REST and GraphQL calls against separate quotas
const (
	ResourceCore    = "core"
	ResourceGraphQL = "graphql"
)

type budget struct {
	remaining int
	limit     int
	reset     time.Time
}

type RateLimiter struct {
	mu      sync.Mutex
	budgets map[string]*budget
	lowWarn int
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		budgets: make(map[string]*budget),
		lowWarn: 100,
		now:     time.Now,
	}
}

// * resourceFor picks the quota a request is metered against, before any response names it
func resourceFor(req *http.Request) string {
	if strings.HasSuffix(req.URL.Path, "/graphql") {
		return ResourceGraphQL
	}
	return ResourceCore
}

// * budgetFor must be called with mu held
func (r *RateLimiter) budgetFor(resource string) *budget {
	b, ok := r.budgets[resource]
	if !ok {
		b = &budget{remaining: 5000, limit: 5000, reset: r.now()}
		r.budgets[resource] = b
	}
	return b
}

func (r *RateLimiter) checkBudget(resource string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.budgetFor(resource)
	if b.remaining <= 0 && r.now().Before(b.reset) {
		return fmt.Errorf("%w: %s quota resets at %s", ErrBudgetExhausted, resource, b.reset.Format(time.RFC1123))
	}
	return nil
}

// * updateFromHeaders trusts X-RateLimit-Resource over the request-derived fallback
func (r *RateLimiter) updateFromHeaders(fallback string, headers http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	resource := fallback
	if named := strings.ToLower(strings.TrimSpace(headers.Get("X-RateLimit-Resource"))); named != "" {
		resource = named
	}
	b := r.budgetFor(resource)

	seen := false
	if remaining := headers.Get("X-RateLimit-Remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			b.remaining = val
			seen = true
		}
	}

	if limit := headers.Get("X-RateLimit-Limit"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			b.limit = val
		}
	}

	if reset := headers.Get("X-RateLimit-Reset"); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			b.reset = time.Unix(val, 0)
		}
	}

	// * Secondary limits only send Retry-After
	if retry := headers.Get("Retry-After"); retry != "" {
		if seconds, err := strconv.Atoi(retry); err == nil {
			b.remaining = 0
			b.reset = r.now().Add(time.Duration(seconds) * time.Second)
			seen = true
		}
	}

	if seen {
		r.warnIfLow(resource, b)
	}
}

// * Observe records the budget snapshot returned inside a GraphQL response
func (r *RateLimiter) Observe(rl RateLimit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.budgetFor(ResourceGraphQL)
	b.remaining = rl.Remaining
	b.limit = rl.Limit
	b.reset = rl.ResetAt

	logger.Info("[RateLimiter] GitHub graphql budget: %d/%d remaining, resets at %s", rl.Remaining, rl.Limit, rl.ResetAt.Format(time.RFC1123))
	r.warnIfLow(ResourceGraphQL, b)
}

func (r *RateLimiter) warnIfLow(resource string, b *budget) {
	if b.remaining < r.lowWarn {
		logger.Warn("[RateLimiter] Low %s rate limit: %d remaining. Resets at %s", resource, b.remaining, b.reset.Format(time.RFC1123))
	}
}

func (r *RateLimiter) Remaining(resource string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.budgetFor(resource).remaining
}

// * Middleware never sleeps or retries: an exhausted budget fails the request immediately
func (r *RateLimiter) Middleware(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		resource := resourceFor(req)
		if err := r.checkBudget(resource); err != nil {
			logger.Warn("[RateLimiter] Refusing %s %s: %v", req.Method, req.URL.Path, err)
			return nil, err
		}

		resp, err := next.RoundTrip(req)
		if err != nil {
			logger.Error("Network error in RoundTrip: %v", err)
			return nil, err
		}

		r.updateFromHeaders(resource, resp.Header)
		return resp, nil
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

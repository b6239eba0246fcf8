package cache

import (
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
)

// * DefaultTTL is the freshness window of a stored record
const DefaultTTL = 72 * time.Hour

// * IsFresh holds only when the record is younger than ttl and was written by the current schema.
// * A time-fresh but incomplete record is stale so the refresh can fill the missing fields.
func IsFresh(user *models.GitHubUser, now time.Time, ttl time.Duration) bool {
	if user == nil {
		return false
	}
	return now.Sub(user.FetchedAt) < ttl && user.Complete()
}

// * Policy binds a TTL and a clock
type Policy struct {
	TTL time.Duration
	Now func() time.Time
}

// * NewPolicy falls back to DefaultTTL for a non-positive ttl
func NewPolicy(ttl time.Duration) Policy {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Policy{TTL: ttl, Now: time.Now}
}

func (p Policy) IsFresh(user *models.GitHubUser) bool {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	ttl := p.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return IsFresh(user, now(), ttl)
}

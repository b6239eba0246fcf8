package models

import "time"

// * GeneratedEvent is published after a wrapped record was (re)computed
type GeneratedEvent struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Year          int       `json:"year"`
	TotalCommits  int       `json:"totalCommits"`
	LongestStreak int       `json:"longestStreak"`
	FetchedAt     time.Time `json:"fetchedAt"`
}

// * WarmupRequest asks for a username to be resolved ahead of a visit
type WarmupRequest struct {
	Username string `json:"username"`
}

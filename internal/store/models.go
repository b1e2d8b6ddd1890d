package store

import "time"

type Idea struct {
	ID          string
	TeamID      string
	HackathonID string
	Title       string
	Description string
	Tags        []string
	Status      string
	VoteCount   int
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Vote struct {
	ID        string
	IdeaID    string
	UserID    string
	CreatedAt time.Time
}

type User struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IdeaFilter narrows and orders a team board listing.
type IdeaFilter struct {
	TeamID      string
	HackathonID string
	Status      string   // empty = all
	Tags        []string // empty = all; otherwise ideas carrying any of these
	SortBy      string   // "votes" or "newest" (default)
	Limit       int
}

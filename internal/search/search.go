package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Snippet     string   `json:"snippet"`
	TeamID      string   `json:"teamId"`
	HackathonID string   `json:"hackathonId"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags,omitempty"`
	VoteCount   int      `json:"voteCount"`
}

// Query describes a search request over a board.
type Query struct {
	Text        string
	TeamID      string
	HackathonID string
	Status      string // empty = all
	Limit       int
	Offset      int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over ideas.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push ideas into a search index.
type Indexer interface {
	IndexIdea(idea IdeaRecord) error
	DeleteIdea(id string) error
}

// IdeaRecord is the data we index for an idea.
type IdeaRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TeamID      string   `json:"teamId"`
	HackathonID string   `json:"hackathonId"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	VoteCount   int      `json:"voteCount"`
}

// Package export renders a team's idea board as a shareable PDF summary.
package export

import (
	"errors"
	"time"
)

// Request contains parameters for an export operation
type Request struct {
	TeamID      string
	HackathonID string
	Status      string // empty = all statuses
}

// BoardIdea is one idea as it appears on the exported board
type BoardIdea struct {
	ID          string
	Title       string
	Description string
	Status      string
	Tags        []string
	VoteCount   int
	CreatedAt   time.Time
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")

package export

import (
	"context"
	"fmt"
	"time"

	"ideaboard/api/internal/store"
)

// DataStore provides read access to the ideas being exported.
type DataStore interface {
	ListTeamIdeas(ctx context.Context, filter store.IdeaFilter) ([]store.Idea, error)
}

// Service renders a team's idea board to PDF.
type Service struct {
	store DataStore
}

func NewService(ds DataStore) *Service {
	return &Service{store: ds}
}

// Export lists the board's ideas, sorted by votes, and prints them to PDF.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	ideas, err := s.store.ListTeamIdeas(ctx, store.IdeaFilter{
		TeamID:      req.TeamID,
		HackathonID: req.HackathonID,
		Status:      req.Status,
		SortBy:      "votes",
	})
	if err != nil {
		return nil, fmt.Errorf("export: list ideas: %w", err)
	}

	data := TemplateData{
		TeamID:      req.TeamID,
		HackathonID: req.HackathonID,
		GeneratedAt: time.Now(),
		Ideas:       make([]BoardIdea, 0, len(ideas)),
	}
	for _, idea := range ideas {
		data.Ideas = append(data.Ideas, BoardIdea{
			ID:          idea.ID,
			Title:       idea.Title,
			Description: idea.Description,
			Status:      idea.Status,
			Tags:        idea.Tags,
			VoteCount:   idea.VoteCount,
			CreatedAt:   idea.CreatedAt,
		})
	}

	html, err := renderBoardHTML(data)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("idea-board-%s-%s", req.TeamID, req.HackathonID)
	return exportPDF(html, title)
}

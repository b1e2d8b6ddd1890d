package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"ideaboard/api/internal/config"
	"ideaboard/api/internal/notify"
	"ideaboard/api/internal/points"
	"ideaboard/api/internal/search"
	"ideaboard/api/internal/store"
	"ideaboard/api/internal/tasks"
)

// Viewer identifies the authenticated caller, resolved upstream by the
// gateway and forwarded via headers.
type Viewer struct {
	UserID   string
	UserName string
}

type CreateIdeaInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type ListIdeasInput struct {
	Status string
	Tags   []string
	SortBy string
	Limit  int
}

type VoteResult struct {
	Vote store.Vote
	Idea store.Idea
}

type ConvertResult struct {
	Task tasks.Task
	Idea store.Idea
}

var allowedIdeaStatuses = map[string]struct{}{
	"submitted":   {},
	"approved":    {},
	"in_progress": {},
	"completed":   {},
	"rejected":    {},
}

// Ideas with this many votes convert into high-priority tasks.
const highPriorityVotes = 5

type dataStore interface {
	CreateIdea(context.Context, store.Idea) (store.Idea, error)
	GetIdea(context.Context, string) (store.Idea, error)
	ListTeamIdeas(context.Context, store.IdeaFilter) ([]store.Idea, error)
	UpdateIdeaStatus(context.Context, string, string) (store.Idea, error)
	AdjustVoteCount(context.Context, string, int) (store.Idea, error)
	ApproveIfEligible(context.Context, string, int) (store.Idea, bool, error)
	CreateVote(context.Context, store.Vote) (store.Vote, error)
	FindVote(context.Context, string, string) (*store.Vote, error)
	DeleteVote(context.Context, string) (bool, error)
	ListVotedIdeaIDs(context.Context, []string, string) ([]string, error)
	UpsertUser(context.Context, string, string) error
	GetUserDisplayName(context.Context, string) (string, error)
	Ping(ctx context.Context) error
}

type notifier interface {
	Notify(ctx context.Context, teamID, hackathonID, text, eventType string, metadata map[string]any) error
}

type pointsService interface {
	IsConfigured() bool
	AwardPoints(ctx context.Context, userID, teamID, action string, amountOverride *int, hackathonID, displayName string) error
}

type taskService interface {
	IsConfigured() bool
	CreateTask(ctx context.Context, req tasks.CreateRequest) (tasks.Task, error)
}

type searchIndexer interface {
	IndexIdea(idea search.IdeaRecord)
	DeleteIdea(id string)
}

type Service struct {
	cfg    config.Config
	store  dataStore
	notify notifier
	points pointsService
	tasks  taskService
	search searchIndexer
}

func New(cfg config.Config, dataStore *store.PostgresStore, boardNotifier *notify.RedisNotifier, pointsClient *points.Client, taskClient *tasks.Client, searchService *search.Service) *Service {
	s := &Service{cfg: cfg, store: dataStore}
	if boardNotifier != nil {
		s.notify = boardNotifier
	}
	if pointsClient != nil {
		s.points = pointsClient
	}
	if taskClient != nil {
		s.tasks = taskClient
	}
	if searchService != nil {
		s.search = searchService
	}
	return s
}

// CreateIdea submits a new idea onto the board with status=submitted and a
// zero vote count. Notification and point award run best-effort.
func (s *Service) CreateIdea(ctx context.Context, teamID, hackathonID string, viewer Viewer, input CreateIdeaInput) (store.Idea, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return store.Idea{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Title and description are required", nil)
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	if err := s.store.UpsertUser(ctx, viewer.UserID, viewer.UserName); err != nil {
		log.Printf("upsert user %s failed: %v", viewer.UserID, err)
	}

	idea, err := s.store.CreateIdea(ctx, store.Idea{
		TeamID:      teamID,
		HackathonID: hackathonID,
		Title:       title,
		Description: description,
		Tags:        tags,
		Status:      "submitted",
		VoteCount:   0,
		CreatedBy:   viewer.UserID,
	})
	if err != nil {
		return store.Idea{}, fmt.Errorf("create idea: %w", err)
	}

	s.emit(teamID, hackathonID,
		fmt.Sprintf("%s submitted a new idea: %q", viewer.UserName, idea.Title),
		"idea_created",
		map[string]any{"ideaId": idea.ID})
	s.award(viewer.UserID, teamID, "idea_submitted", hackathonID, viewer.UserName)
	s.indexIdea(idea)
	return idea, nil
}

// VoteOnIdea records one vote per user per idea. The counter moves through
// the store's atomic increment, so concurrent votes never lose updates.
func (s *Service) VoteOnIdea(ctx context.Context, ideaID string, viewer Viewer) (VoteResult, error) {
	existing, err := s.store.FindVote(ctx, ideaID, viewer.UserID)
	if err != nil {
		return VoteResult{}, fmt.Errorf("find vote: %w", err)
	}
	if existing != nil {
		return VoteResult{}, domainError(http.StatusConflict, "CONFLICT", "You have already voted on this idea", nil)
	}

	vote, err := s.store.CreateVote(ctx, store.Vote{IdeaID: ideaID, UserID: viewer.UserID})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateVote) {
			return VoteResult{}, domainError(http.StatusConflict, "CONFLICT", "You have already voted on this idea", nil)
		}
		return VoteResult{}, fmt.Errorf("create vote: %w", err)
	}

	if _, err := s.store.AdjustVoteCount(ctx, ideaID, 1); err != nil {
		return VoteResult{}, fmt.Errorf("update vote count: %w", err)
	}

	idea, _, err := s.CheckAutoApproval(ctx, ideaID)
	if err != nil {
		return VoteResult{}, err
	}

	s.emit(idea.TeamID, idea.HackathonID,
		fmt.Sprintf("%s voted for %q (%d votes)", viewer.UserName, idea.Title, idea.VoteCount),
		"idea_voted",
		map[string]any{"ideaId": idea.ID, "voteCount": idea.VoteCount})
	s.indexIdea(idea)
	return VoteResult{Vote: vote, Idea: idea}, nil
}

// RemoveVote deletes the caller's vote and decrements the counter, floored
// at zero by the store.
func (s *Service) RemoveVote(ctx context.Context, ideaID string, viewer Viewer) (store.Idea, error) {
	vote, err := s.store.FindVote(ctx, ideaID, viewer.UserID)
	if err != nil {
		return store.Idea{}, fmt.Errorf("find vote: %w", err)
	}
	if vote == nil {
		return store.Idea{}, domainError(http.StatusNotFound, "NOT_FOUND", "No vote found to remove", nil)
	}

	removed, err := s.store.DeleteVote(ctx, vote.ID)
	if err != nil {
		return store.Idea{}, fmt.Errorf("delete vote: %w", err)
	}
	if !removed {
		return store.Idea{}, domainError(http.StatusNotFound, "NOT_FOUND", "No vote found to remove", nil)
	}

	idea, err := s.store.AdjustVoteCount(ctx, ideaID, -1)
	if err != nil {
		return store.Idea{}, fmt.Errorf("update vote count: %w", err)
	}
	s.indexIdea(idea)
	return idea, nil
}

// UpdateIdeaStatus writes any of the defined status values. Transition
// legality beyond set membership is the caller's responsibility.
func (s *Service) UpdateIdeaStatus(ctx context.Context, ideaID, status string, viewer Viewer) (store.Idea, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if _, ok := allowedIdeaStatuses[status]; !ok {
		return store.Idea{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid status: must be one of submitted, approved, in_progress, completed, rejected", nil)
	}
	idea, err := s.store.UpdateIdeaStatus(ctx, ideaID, status)
	if err != nil {
		return store.Idea{}, fmt.Errorf("update idea status: %w", err)
	}
	s.indexIdea(idea)
	return idea, nil
}

// CheckAutoApproval promotes a submitted idea to approved once it reaches
// the configured vote threshold. The store's conditional write makes the
// transition idempotent: once the status leaves submitted, later votes do
// not re-fire it.
func (s *Service) CheckAutoApproval(ctx context.Context, ideaID string) (store.Idea, bool, error) {
	idea, triggered, err := s.store.ApproveIfEligible(ctx, ideaID, s.cfg.ApprovalThreshold)
	if err != nil {
		return store.Idea{}, false, fmt.Errorf("auto approval: %w", err)
	}
	if triggered {
		s.emit(idea.TeamID, idea.HackathonID,
			fmt.Sprintf("%q reached %d votes and was approved automatically", idea.Title, idea.VoteCount),
			"idea_auto_approved",
			map[string]any{"ideaId": idea.ID, "voteCount": idea.VoteCount, "threshold": s.cfg.ApprovalThreshold})
		s.indexIdea(idea)
	}
	return idea, triggered, nil
}

// ConvertIdeaToTask creates a task from the idea in the external task
// service, then marks the idea in_progress. Task creation failures
// propagate and leave the idea untouched.
func (s *Service) ConvertIdeaToTask(ctx context.Context, ideaID string, viewer Viewer) (ConvertResult, error) {
	if s.tasks == nil || !s.tasks.IsConfigured() {
		return ConvertResult{}, domainError(http.StatusServiceUnavailable, "TASKS_UNAVAILABLE", "Task service is not configured", nil)
	}

	idea, err := s.store.GetIdea(ctx, ideaID)
	if err != nil {
		return ConvertResult{}, fmt.Errorf("get idea: %w", err)
	}

	priority := "medium"
	if idea.VoteCount >= highPriorityVotes {
		priority = "high"
	}
	labels := append(append([]string{}, idea.Tags...), "from-idea")

	creatorName, err := s.store.GetUserDisplayName(ctx, idea.CreatedBy)
	if err != nil || strings.TrimSpace(creatorName) == "" {
		creatorName = viewer.UserName
	}

	task, err := s.tasks.CreateTask(ctx, tasks.CreateRequest{
		TeamID:       idea.TeamID,
		HackathonID:  idea.HackathonID,
		Title:        idea.Title,
		Description:  fmt.Sprintf("%s\n\nConverted from an idea with %d votes.", idea.Description, idea.VoteCount),
		Priority:     priority,
		Labels:       labels,
		AssignedTo:   idea.CreatedBy,
		CreatedBy:    idea.CreatedBy,
		CreatorName:  creatorName,
		AssigneeName: creatorName,
	})
	if err != nil {
		return ConvertResult{}, fmt.Errorf("create task: %w", err)
	}

	updated, err := s.store.UpdateIdeaStatus(ctx, ideaID, "in_progress")
	if err != nil {
		return ConvertResult{}, fmt.Errorf("update idea status: %w", err)
	}

	s.emit(idea.TeamID, idea.HackathonID,
		fmt.Sprintf("%s converted %q (%d votes) into a task", viewer.UserName, idea.Title, idea.VoteCount),
		"idea_converted",
		map[string]any{"ideaId": idea.ID, "taskId": task.ID, "voteCount": idea.VoteCount, "convertedBy": viewer.UserName})
	s.indexIdea(updated)
	return ConvertResult{Task: task, Idea: updated}, nil
}

// GetTeamIdeas lists a board's ideas, filtered and ordered.
func (s *Service) GetTeamIdeas(ctx context.Context, teamID, hackathonID string, opts ListIdeasInput) ([]store.Idea, error) {
	status := strings.ToLower(strings.TrimSpace(opts.Status))
	if status != "" {
		if _, ok := allowedIdeaStatuses[status]; !ok {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid status filter", nil)
		}
	}
	sortBy := "newest"
	if opts.SortBy == "votes" {
		sortBy = "votes"
	}
	ideas, err := s.store.ListTeamIdeas(ctx, store.IdeaFilter{
		TeamID:      teamID,
		HackathonID: hackathonID,
		Status:      status,
		Tags:        opts.Tags,
		SortBy:      sortBy,
		Limit:       opts.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	return ideas, nil
}

// GetUserVoteStatus reports which of the given ideas the user has voted on.
// Store failures are soft: the caller gets an empty map, since this feeds
// best-effort UI hints only.
func (s *Service) GetUserVoteStatus(ctx context.Context, ideaIDs []string, userID string) map[string]bool {
	statuses := map[string]bool{}
	if len(ideaIDs) == 0 {
		return statuses
	}
	voted, err := s.store.ListVotedIdeaIDs(ctx, ideaIDs, userID)
	if err != nil {
		log.Printf("vote status lookup for user %s failed: %v", userID, err)
		return map[string]bool{}
	}
	for _, id := range ideaIDs {
		statuses[id] = false
	}
	for _, id := range voted {
		statuses[id] = true
	}
	return statuses
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) NotifierPing(ctx context.Context) error {
	type pinger interface{ Ping(context.Context) error }
	if p, ok := s.notify.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// emit publishes a board notification without blocking the caller. Failures
// are logged and suppressed.
func (s *Service) emit(teamID, hackathonID, text, eventType string, metadata map[string]any) {
	if s.notify == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notify.Notify(ctx, teamID, hackathonID, text, eventType, metadata); err != nil {
			log.Printf("notify %s failed: %v", eventType, err)
		}
	}()
}

// award requests a point award without blocking the caller. The points
// service owns the action-to-amount mapping.
func (s *Service) award(userID, teamID, action, hackathonID, displayName string) {
	if s.points == nil || !s.points.IsConfigured() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.points.AwardPoints(ctx, userID, teamID, action, nil, hackathonID, displayName); err != nil {
			log.Printf("award points (%s) for user %s failed: %v", action, userID, err)
		}
	}()
}

func (s *Service) indexIdea(idea store.Idea) {
	if s.search == nil {
		return
	}
	s.search.IndexIdea(search.IdeaRecord{
		ID:          idea.ID,
		Title:       idea.Title,
		Description: idea.Description,
		TeamID:      idea.TeamID,
		HackathonID: idea.HackathonID,
		Status:      idea.Status,
		Tags:        idea.Tags,
		VoteCount:   idea.VoteCount,
	})
}

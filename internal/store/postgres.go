package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"ideaboard/api/internal/util"
)

// ErrDuplicateVote surfaces the unique (idea_id, user_id) index. The engine
// checks for an existing vote first; this covers the race between the check
// and the insert.
var ErrDuplicateVote = errors.New("duplicate vote")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

const ideaColumns = `id, team_id, hackathon_id, title, description, tags, status, vote_count, created_by, created_at, updated_at`

func scanIdea(row interface{ Scan(...any) error }) (Idea, error) {
	var idea Idea
	var tags []byte
	err := row.Scan(
		&idea.ID,
		&idea.TeamID,
		&idea.HackathonID,
		&idea.Title,
		&idea.Description,
		&tags,
		&idea.Status,
		&idea.VoteCount,
		&idea.CreatedBy,
		&idea.CreatedAt,
		&idea.UpdatedAt,
	)
	if err != nil {
		return Idea{}, err
	}
	idea.Tags = decodeTags(tags)
	return idea, nil
}

func decodeTags(raw []byte) []string {
	tags := []string{}
	if len(raw) == 0 {
		return tags
	}
	_ = json.Unmarshal(raw, &tags)
	if tags == nil {
		tags = []string{}
	}
	return tags
}

func encodeTags(tags []string) []byte {
	if tags == nil {
		tags = []string{}
	}
	raw, _ := json.Marshal(tags)
	return raw
}

func (s *PostgresStore) CreateIdea(ctx context.Context, idea Idea) (Idea, error) {
	if idea.ID == "" {
		idea.ID = util.NewID("idea")
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO ideas (id, team_id, hackathon_id, title, description, tags, status, vote_count, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, 'submitted', 0, $7)
		RETURNING `+ideaColumns+`
	`, idea.ID, idea.TeamID, idea.HackathonID, idea.Title, idea.Description, encodeTags(idea.Tags), idea.CreatedBy)
	created, err := scanIdea(row)
	if err != nil {
		return Idea{}, fmt.Errorf("insert idea: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetIdea(ctx context.Context, ideaID string) (Idea, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE id=$1`, ideaID)
	return scanIdea(row)
}

func (s *PostgresStore) ListTeamIdeas(ctx context.Context, filter IdeaFilter) ([]Idea, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + ideaColumns + ` FROM ideas WHERE team_id=$1 AND hackathon_id=$2`)
	args := []any{filter.TeamID, filter.HackathonID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		sb.WriteString(` AND status=$` + strconv.Itoa(len(args)))
	}
	if len(filter.Tags) > 0 {
		args = append(args, filter.Tags)
		sb.WriteString(` AND tags ?| $` + strconv.Itoa(len(args)))
	}

	switch filter.SortBy {
	case "votes":
		sb.WriteString(` ORDER BY vote_count DESC, created_at DESC`)
	default:
		sb.WriteString(` ORDER BY created_at DESC`)
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sb.WriteString(` LIMIT $` + strconv.Itoa(len(args)))
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	defer rows.Close()

	items := make([]Idea, 0)
	for rows.Next() {
		item, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ideas: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateIdeaStatus(ctx context.Context, ideaID, status string) (Idea, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE ideas SET status=$2, updated_at=NOW()
		WHERE id=$1
		RETURNING `+ideaColumns+`
	`, ideaID, status)
	return scanIdea(row)
}

// AdjustVoteCount applies delta atomically, never letting the counter go
// below zero.
func (s *PostgresStore) AdjustVoteCount(ctx context.Context, ideaID string, delta int) (Idea, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE ideas SET vote_count=GREATEST(vote_count + $2, 0), updated_at=NOW()
		WHERE id=$1
		RETURNING `+ideaColumns+`
	`, ideaID, delta)
	return scanIdea(row)
}

// ApproveIfEligible flips a submitted idea to approved once its counter has
// reached threshold. The WHERE clause makes the transition idempotent under
// concurrent voters: only one caller observes changed=true.
func (s *PostgresStore) ApproveIfEligible(ctx context.Context, ideaID string, threshold int) (Idea, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE ideas SET status='approved', updated_at=NOW()
		WHERE id=$1 AND status='submitted' AND vote_count >= $2
		RETURNING `+ideaColumns+`
	`, ideaID, threshold)
	idea, err := scanIdea(row)
	if errors.Is(err, sql.ErrNoRows) {
		idea, err = s.GetIdea(ctx, ideaID)
		if err != nil {
			return Idea{}, false, err
		}
		return idea, false, nil
	}
	if err != nil {
		return Idea{}, false, fmt.Errorf("auto-approve idea: %w", err)
	}
	return idea, true, nil
}

func (s *PostgresStore) CreateVote(ctx context.Context, vote Vote) (Vote, error) {
	if vote.ID == "" {
		vote.ID = util.NewID("vote")
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO votes (id, idea_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, vote.ID, vote.IdeaID, vote.UserID).Scan(&vote.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Vote{}, ErrDuplicateVote
		}
		return Vote{}, fmt.Errorf("insert vote: %w", err)
	}
	return vote, nil
}

// FindVote returns nil without error when the user has not voted on the idea.
func (s *PostgresStore) FindVote(ctx context.Context, ideaID, userID string) (*Vote, error) {
	var vote Vote
	err := s.db.QueryRowContext(ctx, `
		SELECT id, idea_id, user_id, created_at FROM votes WHERE idea_id=$1 AND user_id=$2
	`, ideaID, userID).Scan(&vote.ID, &vote.IdeaID, &vote.UserID, &vote.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find vote: %w", err)
	}
	return &vote, nil
}

func (s *PostgresStore) DeleteVote(ctx context.Context, voteID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM votes WHERE id=$1`, voteID)
	if err != nil {
		return false, fmt.Errorf("delete vote: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete vote rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) ListVotedIdeaIDs(ctx context.Context, ideaIDs []string, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idea_id FROM votes WHERE user_id=$1 AND idea_id = ANY($2)
	`, userID, ideaIDs)
	if err != nil {
		return nil, fmt.Errorf("list voted ideas: %w", err)
	}
	defer rows.Close()

	voted := make([]string, 0, len(ideaIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan voted idea: %w", err)
		}
		voted = append(voted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voted ideas: %w", err)
	}
	return voted, nil
}

func (s *PostgresStore) UpsertUser(ctx context.Context, userID, displayName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET display_name=EXCLUDED.display_name, updated_at=NOW()
	`, userID, displayName)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserDisplayName(ctx context.Context, userID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT display_name FROM users WHERE id=$1`, userID).Scan(&name)
	if err != nil {
		return "", err
	}
	return name, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

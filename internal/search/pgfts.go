package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search queries the ideas table with plainto_tsquery and ts_rank, using
// ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := `search_vector @@ plainto_tsquery('english', $1) AND team_id = $2 AND hackathon_id = $3`
	args := []any{q.Text, q.TeamID, q.HackathonID}
	if q.Status != "" {
		args = append(args, q.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	ctx := context.Background()

	var total int
	countSQL := `SELECT count(*) FROM ideas WHERE ` + where
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT id, title,
			ts_headline('english', coalesce(description, ''), plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
			team_id, hackathon_id, status, tags, vote_count
		FROM ideas
		WHERE %s
		ORDER BY ts_rank(search_vector, plainto_tsquery('english', $1)) DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var tags []byte
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.TeamID, &r.HackathonID, &r.Status, &tags, &r.VoteCount); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		if len(tags) > 0 {
			_ = json.Unmarshal(tags, &r.Tags)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all ideas for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]IdeaRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, title, description, team_id, hackathon_id, status, tags, vote_count
		FROM ideas
	`)
	if err != nil {
		return nil, fmt.Errorf("load ideas: %w", err)
	}
	defer rows.Close()

	ideas := make([]IdeaRecord, 0)
	for rows.Next() {
		var rec IdeaRecord
		var tags []byte
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Description, &rec.TeamID, &rec.HackathonID, &rec.Status, &tags, &rec.VoteCount); err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		if len(tags) > 0 {
			_ = json.Unmarshal(tags, &rec.Tags)
		}
		ideas = append(ideas, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ideas: %w", err)
	}
	return ideas, nil
}

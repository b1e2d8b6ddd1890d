// Package notify publishes board events for downstream chat delivery.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is the payload published for each board notification.
type Event struct {
	TeamID      string         `json:"team_id"`
	HackathonID string         `json:"hackathon_id"`
	Text        string         `json:"text"`
	EventType   string         `json:"event_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// RedisNotifier publishes events on a per-board Redis channel. The chat
// service subscribes on the other side; delivery semantics are its problem.
type RedisNotifier struct {
	client *redis.Client
	prefix string
}

// NewRedisNotifier connects to Redis and verifies the connection.
func NewRedisNotifier(redisURL string) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisNotifier{client: client, prefix: "board:"}, nil
}

// NewRedisNotifierWithClient creates a notifier from an existing client.
func NewRedisNotifierWithClient(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client, prefix: "board:"}
}

func (n *RedisNotifier) channel(teamID, hackathonID string) string {
	return n.prefix + teamID + ":" + hackathonID
}

// Notify publishes one event. Callers treat failures as best-effort.
func (n *RedisNotifier) Notify(ctx context.Context, teamID, hackathonID, text, eventType string, metadata map[string]any) error {
	event := Event{
		TeamID:      teamID,
		HackathonID: hackathonID,
		Text:        text,
		EventType:   eventType,
		Metadata:    metadata,
		OccurredAt:  time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel(teamID, hackathonID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// Ping checks if Redis is reachable.
func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

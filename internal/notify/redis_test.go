package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestNotifier(t *testing.T) (*RedisNotifier, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	notifier, err := NewRedisNotifier("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create notifier: %v", err)
	}
	return notifier, s
}

func TestNewRedisNotifier(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	notifier, err := NewRedisNotifier("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedisNotifier failed: %v", err)
	}
	defer notifier.Close()

	if err := notifier.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRedisNotifierRejectsBadURL(t *testing.T) {
	if _, err := NewRedisNotifier("not-a-url"); err == nil {
		t.Error("expected error for invalid redis url, got nil")
	}
}

func TestNotifyPublishesToBoardChannel(t *testing.T) {
	notifier, s := setupTestNotifier(t)
	defer notifier.Close()
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "board:team-1:hack-1")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	err := notifier.Notify(ctx, "team-1", "hack-1", "New idea: Dark mode", "idea_created", map[string]any{
		"ideaId": "idea_abc",
	})
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if event.EventType != "idea_created" {
			t.Errorf("expected event type idea_created, got %s", event.EventType)
		}
		if event.Text != "New idea: Dark mode" {
			t.Errorf("unexpected text: %s", event.Text)
		}
		if event.Metadata["ideaId"] != "idea_abc" {
			t.Errorf("expected ideaId metadata, got %v", event.Metadata)
		}
		if event.OccurredAt.IsZero() {
			t.Error("expected occurred_at to be set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestNotifyScopesChannelPerBoard(t *testing.T) {
	notifier, s := setupTestNotifier(t)
	defer notifier.Close()
	defer s.Close()

	if got := notifier.channel("t1", "h1"); got != "board:t1:h1" {
		t.Errorf("unexpected channel: %s", got)
	}
	if notifier.channel("t1", "h1") == notifier.channel("t1", "h2") {
		t.Error("expected distinct channels per hackathon")
	}
}

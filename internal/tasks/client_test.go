package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateTaskPostsAndDecodesTask(t *testing.T) {
	var received CreateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tasks" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("expected bearer token, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Task{
			ID:       "task-1",
			Title:    received.Title,
			Priority: received.Priority,
			Labels:   received.Labels,
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Token: "secret"})
	task, err := client.CreateTask(context.Background(), CreateRequest{
		TeamID:      "team-1",
		HackathonID: "hack-1",
		Title:       "Dark mode",
		Priority:    "high",
		Labels:      []string{"ui", "from-idea"},
		AssignedTo:  "user-1",
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	if task.ID != "task-1" {
		t.Errorf("expected task-1, got %s", task.ID)
	}
	if received.Title != "Dark mode" {
		t.Errorf("expected title forwarded, got %q", received.Title)
	}
	if len(received.Labels) != 2 || received.Labels[1] != "from-idea" {
		t.Errorf("expected labels forwarded, got %v", received.Labels)
	}
}

func TestCreateTaskPropagatesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "tracker unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if _, err := client.CreateTask(context.Background(), CreateRequest{Title: "X"}); err == nil {
		t.Fatal("expected error for 502 response, got nil")
	}
}

func TestCreateTaskRequiresConfiguration(t *testing.T) {
	client := NewClient(Config{})
	if client.IsConfigured() {
		t.Error("expected unconfigured client")
	}
	if _, err := client.CreateTask(context.Background(), CreateRequest{Title: "X"}); err == nil {
		t.Fatal("expected error when unconfigured, got nil")
	}
}

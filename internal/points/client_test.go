package points

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAwardPointsPostsAction(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/awards" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	err := client.AwardPoints(context.Background(), "user-1", "team-1", "idea_submitted", nil, "hack-1", "Priya")
	if err != nil {
		t.Fatalf("AwardPoints() error = %v", err)
	}

	if received["action"] != "idea_submitted" {
		t.Errorf("expected action idea_submitted, got %v", received["action"])
	}
	if received["userId"] != "user-1" {
		t.Errorf("expected userId user-1, got %v", received["userId"])
	}
	if _, present := received["amount"]; present {
		t.Error("expected amount omitted when no override given")
	}
}

func TestAwardPointsSendsOverrideAmount(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	amount := 25
	if err := client.AwardPoints(context.Background(), "user-1", "team-1", "idea_submitted", &amount, "hack-1", "Priya"); err != nil {
		t.Fatalf("AwardPoints() error = %v", err)
	}
	if received["amount"] != float64(25) {
		t.Errorf("expected amount 25, got %v", received["amount"])
	}
}

func TestAwardPointsReturnsErrorOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if err := client.AwardPoints(context.Background(), "u", "t", "a", nil, "h", "n"); err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
}

func TestAwardPointsRequiresConfiguration(t *testing.T) {
	client := NewClient(Config{})
	if client.IsConfigured() {
		t.Error("expected unconfigured client")
	}
	if err := client.AwardPoints(context.Background(), "u", "t", "a", nil, "h", "n"); err == nil {
		t.Fatal("expected error when unconfigured, got nil")
	}
}

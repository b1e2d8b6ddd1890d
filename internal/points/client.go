// Package points talks to the gamification service's point-award endpoint.
// Award definitions and leaderboards live entirely on the remote side.
package points

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds points service configuration
type Config struct {
	BaseURL string
	Token   string
}

// Client awards points over HTTP
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a new points client
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// IsConfigured returns true if a points endpoint is configured
func (c *Client) IsConfigured() bool {
	return strings.TrimSpace(c.config.BaseURL) != ""
}

type awardRequest struct {
	UserID      string `json:"userId"`
	TeamID      string `json:"teamId"`
	HackathonID string `json:"hackathonId"`
	Action      string `json:"action"`
	Amount      *int   `json:"amount,omitempty"`
	DisplayName string `json:"displayName"`
}

// AwardPoints requests a point award for an action. amountOverride, when
// non-nil, replaces the amount the service maps to the action.
func (c *Client) AwardPoints(ctx context.Context, userID, teamID, action string, amountOverride *int, hackathonID, displayName string) error {
	if !c.IsConfigured() {
		return fmt.Errorf("points service not configured")
	}

	payload, err := json.Marshal(awardRequest{
		UserID:      userID,
		TeamID:      teamID,
		HackathonID: hackathonID,
		Action:      action,
		Amount:      amountOverride,
		DisplayName: displayName,
	})
	if err != nil {
		return fmt.Errorf("marshal award request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/awards"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build award request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("award points: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("award points: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

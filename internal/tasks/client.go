// Package tasks is the client for the external task tracker. Unlike the
// notification and points collaborators, task creation failures matter: the
// caller aborts and reports them.
package tasks

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

// Task is the tracker's view of a created work item.
type Task struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"teamId"`
	HackathonID string    `json:"hackathonId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Labels      []string  `json:"labels"`
	AssignedTo  string    `json:"assignedTo"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateRequest carries everything needed to open a task.
type CreateRequest struct {
	TeamID       string   `json:"teamId"`
	HackathonID  string   `json:"hackathonId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Priority     string   `json:"priority"`
	Labels       []string `json:"labels"`
	AssignedTo   string   `json:"assignedTo"`
	CreatedBy    string   `json:"createdBy"`
	CreatorName  string   `json:"creatorName"`
	AssigneeName string   `json:"assigneeName"`
}

// Config holds task service configuration
type Config struct {
	BaseURL string
	Token   string
}

// Client creates tasks over HTTP
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a new task service client
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		http:   &http.Client{Timeout: 15 * time.Second},
	}
}

// IsConfigured returns true if a task tracker endpoint is configured
func (c *Client) IsConfigured() bool {
	return strings.TrimSpace(c.config.BaseURL) != ""
}

// CreateTask opens a task in the tracker and returns the created record.
func (c *Client) CreateTask(ctx context.Context, req CreateRequest) (Task, error) {
	if !c.IsConfigured() {
		return Task{}, fmt.Errorf("task service not configured")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Task{}, fmt.Errorf("marshal task request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/tasks"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Task{}, fmt.Errorf("build task request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Task{}, fmt.Errorf("create task: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var task Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return Task{}, fmt.Errorf("decode task response: %w", err)
	}
	return task, nil
}

// Package client talks to the goal API over HTTP. Client satisfies store.API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/templui/goalboard/internal/engine"
	"github.com/templui/goalboard/internal/model"
	"github.com/templui/goalboard/internal/validation"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("goal api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("goal api returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes field errors as validation.Errors and 404s as a missing goal.
func (e *StatusError) Unwrap() error {
	if len(e.Fields) > 0 {
		return validation.Errors(e.Fields)
	}
	if e.StatusCode == http.StatusNotFound {
		return engine.ErrGoalNotFound
	}
	return nil
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) FetchGoals(ctx context.Context, ownerID string) ([]model.Goal, error) {
	var goals []model.Goal
	err := c.do(ctx, http.MethodGet, ownerPath(ownerID, "goals"), nil, &goals)
	return goals, err
}

func (c *Client) CreateGoal(ctx context.Context, ownerID string, draft model.GoalDraft) ([]model.Goal, error) {
	var goals []model.Goal
	err := c.do(ctx, http.MethodPost, ownerPath(ownerID, "goals"), draft, &goals)
	return goals, err
}

func (c *Client) UpdateGoal(ctx context.Context, ownerID, goalID string, patch model.GoalPatch) ([]model.Goal, error) {
	var goals []model.Goal
	err := c.do(ctx, http.MethodPatch, ownerPath(ownerID, "goals", goalID), patch, &goals)
	return goals, err
}

func (c *Client) DeleteGoal(ctx context.Context, ownerID, goalID string) ([]model.Goal, error) {
	var goals []model.Goal
	err := c.do(ctx, http.MethodDelete, ownerPath(ownerID, "goals", goalID), nil, &goals)
	return goals, err
}

func (c *Client) Participate(ctx context.Context, ownerID, goalID string) ([]model.Goal, error) {
	var goals []model.Goal
	err := c.do(ctx, http.MethodPost, ownerPath(ownerID, "goals", goalID, "participate"), nil, &goals)
	return goals, err
}

func (c *Client) PersistPinBatch(ctx context.Context, ownerID string, batch []model.Goal) ([]model.Goal, error) {
	var goals []model.Goal
	err := c.do(ctx, http.MethodPut, ownerPath(ownerID, "goals", "pins"), batch, &goals)
	return goals, err
}

func (c *Client) FetchFriendsGoals(ctx context.Context, ownerID string) ([]model.PublicGoal, error) {
	var feed []model.PublicGoal
	err := c.do(ctx, http.MethodGet, ownerPath(ownerID, "friends", "goals"), nil, &feed)
	return feed, err
}

// Archive asks the API to store an export and returns its download link.
func (c *Client) Archive(ctx context.Context, ownerID string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	err := c.do(ctx, http.MethodPost, ownerPath(ownerID, "goals", "export", "archive"), nil, &resp)
	return resp.URL, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call goal api: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var errBody struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if json.Unmarshal(data, &errBody) == nil {
			statusErr.Message = errBody.Error
			statusErr.Fields = errBody.Fields
		} else {
			statusErr.Message = strings.TrimSpace(string(data))
		}
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func ownerPath(ownerID string, segments ...string) string {
	var b strings.Builder
	b.WriteString("/api/owners/")
	b.WriteString(url.PathEscape(ownerID))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// Package client is the HTTP client for the applications API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobboard/internal/auth"
	"github.com/amishk599/jobboard/internal/model"
)

// Client calls the applications API on behalf of one bearer token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a client. baseURL is the server root, e.g. http://localhost:8080.
func New(baseURL, token string, client *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/applications",
		token:   token,
		client:  client,
	}
}

// Identity returns the user id and role carried by the client's token.
func (c *Client) Identity() (string, model.Role, error) {
	claims, err := auth.Inspect(c.token)
	if err != nil {
		return "", "", err
	}
	return claims.UserID, claims.Role, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
}

// Apply submits an application to jobID.
func (c *Client) Apply(ctx context.Context, jobID, coverLetter string) (*model.Application, error) {
	var app model.Application
	if _, err := c.do(ctx, http.MethodPost, "/"+jobID, map[string]string{"coverLetter": coverLetter}, &app); err != nil {
		return nil, fmt.Errorf("apply to %s: %w", jobID, err)
	}
	return &app, nil
}

// UpdateStatus records a decision on an application.
func (c *Client) UpdateStatus(ctx context.Context, applicationID string, status model.Status) (*model.Application, error) {
	var app model.Application
	if _, err := c.do(ctx, http.MethodPut, "/"+applicationID+"/status", map[string]string{"status": string(status)}, &app); err != nil {
		return nil, fmt.Errorf("update status of %s: %w", applicationID, err)
	}
	return &app, nil
}

// MyApplications lists the caller's applications. The server treats this
// read as acknowledging every decision it returns.
func (c *Client) MyApplications(ctx context.Context) ([]model.Application, error) {
	var apps []model.Application
	if _, err := c.do(ctx, http.MethodGet, "/my", nil, &apps); err != nil {
		return nil, fmt.Errorf("list my applications: %w", err)
	}
	return apps, nil
}

// JobApplications lists applications to one of the caller's jobs.
func (c *Client) JobApplications(ctx context.Context, jobID string) ([]model.Application, error) {
	var apps []model.Application
	if _, err := c.do(ctx, http.MethodGet, "/job/"+jobID, nil, &apps); err != nil {
		return nil, fmt.Errorf("list applications for job %s: %w", jobID, err)
	}
	return apps, nil
}

// UnseenCount returns the applicant badge count.
func (c *Client) UnseenCount(ctx context.Context) (int, error) {
	env, err := c.do(ctx, http.MethodGet, "/unseen-count", nil, nil)
	if err != nil {
		return 0, fmt.Errorf("unseen count: %w", err)
	}
	return env.Count, nil
}

// ApplicantFeed returns unseen decisions, newest first.
func (c *Client) ApplicantFeed(ctx context.Context) ([]model.StatusChange, error) {
	var items []model.StatusChange
	if _, err := c.do(ctx, http.MethodGet, "/unseen", nil, &items); err != nil {
		return nil, fmt.Errorf("applicant feed: %w", err)
	}
	return items, nil
}

// EmployerFeed returns unseen applications to the caller's jobs, newest first.
func (c *Client) EmployerFeed(ctx context.Context) ([]model.NewApplicant, error) {
	var items []model.NewApplicant
	if _, err := c.do(ctx, http.MethodGet, "/employer/unseen", nil, &items); err != nil {
		return nil, fmt.Errorf("employer feed: %w", err)
	}
	return items, nil
}

// MarkSeen acknowledges a decision as the applicant.
func (c *Client) MarkSeen(ctx context.Context, applicationID string) error {
	if _, err := c.do(ctx, http.MethodPatch, "/"+applicationID+"/seen", nil, nil); err != nil {
		return fmt.Errorf("mark %s seen: %w", applicationID, err)
	}
	return nil
}

// MarkEmployerSeen acknowledges a new applicant as the employer.
func (c *Client) MarkEmployerSeen(ctx context.Context, applicationID string) error {
	if _, err := c.do(ctx, http.MethodPatch, "/"+applicationID+"/employer-seen", nil, nil); err != nil {
		return fmt.Errorf("mark %s seen by employer: %w", applicationID, err)
	}
	return nil
}

// do sends one request and decodes the envelope. When out is non-nil the
// envelope's data field is decoded into it.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) (*envelope, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    env.Message,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response: %w", decodeErr)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decoding data: %w", err)
		}
	}
	return &env, nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

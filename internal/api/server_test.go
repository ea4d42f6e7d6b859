package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobboard/internal/auth"
	"github.com/amishk599/jobboard/internal/events"
	"github.com/amishk599/jobboard/internal/feed"
	"github.com/amishk599/jobboard/internal/lifecycle"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/ratelimit"
	"github.com/amishk599/jobboard/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	srv    *httptest.Server
	store  *store.Store
	tokens *auth.Tokens
}

func newTestEnv(t *testing.T, limiter *ratelimit.Limiter) *testEnv {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	tokens, err := auth.NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}

	logger := discardLogger()
	engine := lifecycle.NewEngine(s, s, events.NewNopPublisher(), logger)
	feeds := feed.NewService(s, s, feed.DefaultLimit, logger)
	srv := httptest.NewServer(NewServer(engine, feeds, tokens, limiter, s, logger).Router())
	t.Cleanup(srv.Close)

	now := time.Now().UTC()
	_, err = s.CreateJob(context.Background(), model.Job{
		ID: "job-1", Title: "Go Developer", Company: "Acme", OwnerID: "emp-1",
		ApplicationStartDate: now.Add(-time.Hour).Format(time.RFC3339),
		ApplicationEndDate:   now.Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return &testEnv{srv: srv, store: s, tokens: tokens}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, user string, role model.Role, body any) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := e.tokens.Issue(user, role)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func TestApplyDecideAndFeeds(t *testing.T) {
	e := newTestEnv(t, nil)

	status, env := e.do(t, http.MethodPost, "/api/applications/job-1", "cand-1", model.RoleApplicant,
		map[string]string{"coverLetter": "hire me"})
	if status != http.StatusCreated {
		t.Fatalf("apply status = %d (%s), want 201", status, env.Message)
	}
	var app model.Application
	if err := json.Unmarshal(env.Data, &app); err != nil {
		t.Fatalf("decode application: %v", err)
	}

	// Employer sees the new applicant.
	status, env = e.do(t, http.MethodGet, "/api/applications/employer/unseen", "emp-1", model.RoleEmployer, nil)
	if status != http.StatusOK {
		t.Fatalf("employer unseen status = %d", status)
	}
	var newApplicants []model.NewApplicant
	if err := json.Unmarshal(env.Data, &newApplicants); err != nil {
		t.Fatalf("decode employer feed: %v", err)
	}
	if len(newApplicants) != 1 || newApplicants[0].ApplicationID != app.ID {
		t.Fatalf("employer feed = %+v", newApplicants)
	}

	status, _ = e.do(t, http.MethodPatch, "/api/applications/"+app.ID+"/employer-seen", "emp-1", model.RoleEmployer, nil)
	if status != http.StatusOK {
		t.Fatalf("employer-seen status = %d", status)
	}

	status, env = e.do(t, http.MethodPut, "/api/applications/"+app.ID+"/status", "emp-1", model.RoleEmployer,
		map[string]string{"status": "accepted"})
	if status != http.StatusOK {
		t.Fatalf("decide status = %d (%s)", status, env.Message)
	}

	status, env = e.do(t, http.MethodGet, "/api/applications/unseen-count", "cand-1", model.RoleApplicant, nil)
	if status != http.StatusOK || env.Count != 1 {
		t.Fatalf("unseen-count = %d / %d, want 200 / 1", status, env.Count)
	}

	status, env = e.do(t, http.MethodGet, "/api/applications/unseen", "cand-1", model.RoleApplicant, nil)
	var changes []model.StatusChange
	if err := json.Unmarshal(env.Data, &changes); err != nil {
		t.Fatalf("decode applicant feed: %v", err)
	}
	if status != http.StatusOK || len(changes) != 1 || changes[0].Status != model.StatusAccepted {
		t.Fatalf("applicant feed = %d %+v", status, changes)
	}
	if changes[0].Job == nil || changes[0].Job.Title != "Go Developer" {
		t.Errorf("job summary = %+v", changes[0].Job)
	}

	// Listing marks the decision seen.
	status, env = e.do(t, http.MethodGet, "/api/applications/my", "cand-1", model.RoleApplicant, nil)
	if status != http.StatusOK || env.Count != 1 {
		t.Fatalf("my = %d count %d", status, env.Count)
	}
	_, env = e.do(t, http.MethodGet, "/api/applications/unseen-count", "cand-1", model.RoleApplicant, nil)
	if env.Count != 0 {
		t.Errorf("unseen-count after /my = %d, want 0", env.Count)
	}
}

func TestErrorMapping(t *testing.T) {
	e := newTestEnv(t, nil)

	_, env := e.do(t, http.MethodPost, "/api/applications/job-1", "cand-1", model.RoleApplicant,
		map[string]string{"coverLetter": "hi"})
	var app model.Application
	if err := json.Unmarshal(env.Data, &app); err != nil {
		t.Fatalf("decode application: %v", err)
	}

	tests := []struct {
		name    string
		method  string
		path    string
		user    string
		role    model.Role
		body    any
		status  int
		message string
	}{
		{"missing cover letter", http.MethodPost, "/api/applications/job-1", "cand-2", model.RoleApplicant,
			map[string]string{}, http.StatusBadRequest, "please provide a cover letter"},
		{"unknown job", http.MethodPost, "/api/applications/nope", "cand-2", model.RoleApplicant,
			map[string]string{"coverLetter": "hi"}, http.StatusNotFound, "job not found"},
		{"duplicate pending", http.MethodPost, "/api/applications/job-1", "cand-1", model.RoleApplicant,
			map[string]string{"coverLetter": "hi"}, http.StatusBadRequest, "your application is still pending for this job"},
		{"bad status", http.MethodPut, "/api/applications/" + app.ID + "/status", "emp-1", model.RoleEmployer,
			map[string]string{"status": "maybe"}, http.StatusBadRequest, "status must be either 'accepted' or 'rejected'"},
		{"not owner", http.MethodPut, "/api/applications/" + app.ID + "/status", "emp-2", model.RoleEmployer,
			map[string]string{"status": "accepted"}, http.StatusForbidden, "not authorized to update this application"},
		{"unknown application", http.MethodPut, "/api/applications/nope/status", "emp-1", model.RoleEmployer,
			map[string]string{"status": "accepted"}, http.StatusNotFound, "application not found"},
		{"job list not owner", http.MethodGet, "/api/applications/job/job-1", "emp-2", model.RoleEmployer,
			nil, http.StatusForbidden, "not authorized to view applications for this job"},
		{"mark seen not owner", http.MethodPatch, "/api/applications/" + app.ID + "/seen", "cand-2", model.RoleApplicant,
			nil, http.StatusForbidden, "not authorized"},
		{"wrong role", http.MethodGet, "/api/applications/unseen", "emp-1", model.RoleEmployer,
			nil, http.StatusForbidden, "user role employer is not authorized to access this route"},
		{"no token", http.MethodGet, "/api/applications/unseen", "", "",
			nil, http.StatusUnauthorized, "authorization header is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := e.do(t, tt.method, tt.path, tt.user, tt.role, tt.body)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if env.Success {
				t.Error("expected success = false")
			}
			if env.Message != tt.message {
				t.Errorf("message = %q, want %q", env.Message, tt.message)
			}
		})
	}
}

func TestDecisionIsWriteOnceOverHTTP(t *testing.T) {
	e := newTestEnv(t, nil)
	_, env := e.do(t, http.MethodPost, "/api/applications/job-1", "cand-1", model.RoleApplicant,
		map[string]string{"coverLetter": "hi"})
	var app model.Application
	if err := json.Unmarshal(env.Data, &app); err != nil {
		t.Fatalf("decode application: %v", err)
	}

	path := "/api/applications/" + app.ID + "/status"
	if status, _ := e.do(t, http.MethodPut, path, "emp-1", model.RoleEmployer, map[string]string{"status": "rejected"}); status != http.StatusOK {
		t.Fatalf("first decision status = %d", status)
	}
	status, env := e.do(t, http.MethodPut, path, "emp-1", model.RoleEmployer, map[string]string{"status": "accepted"})
	if status != http.StatusBadRequest {
		t.Errorf("second decision status = %d, want 400", status)
	}
	if env.Message != "application status has already been set and cannot be changed" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestApplyRateLimit(t *testing.T) {
	e := newTestEnv(t, ratelimit.NewLimiter(time.Minute))
	apply := func(user, letter string) (int, envelope) {
		return e.do(t, http.MethodPost, "/api/applications/job-1", user, model.RoleApplicant,
			map[string]string{"coverLetter": letter})
	}

	if status, _ := apply("cand-1", ""); status != http.StatusBadRequest {
		t.Fatalf("empty letter status = %d, want 400", status)
	}
	status, env := apply("cand-1", "hi")
	if status != http.StatusCreated {
		t.Fatalf("corrected attempt status = %d, want 201 (refused attempts must not hold the slot)", status)
	}
	var app model.Application
	if err := json.Unmarshal(env.Data, &app); err != nil {
		t.Fatalf("decode application: %v", err)
	}

	// Inside the delay the engine's own refusal still comes first.
	status, env = apply("cand-1", "again")
	if status != http.StatusBadRequest || env.Message != "your application is still pending for this job" {
		t.Errorf("repeat while pending = %d %q, want 400 still pending", status, env.Message)
	}

	if status, _ := e.do(t, http.MethodPut, "/api/applications/"+app.ID+"/status", "emp-1", model.RoleEmployer,
		map[string]string{"status": "rejected"}); status != http.StatusOK {
		t.Fatalf("reject status = %d", status)
	}
	// Re-applying after a rejection is allowed, but not within the delay.
	if status, _ := apply("cand-1", "third time"); status != http.StatusTooManyRequests {
		t.Errorf("re-apply inside the delay status = %d, want 429", status)
	}

	if status, _ := apply("cand-2", "hi"); status != http.StatusCreated {
		t.Errorf("other applicant status = %d, want 201", status)
	}
}

type applyResult struct {
	status  int
	message string
	err     error
}

// apply posts without touching t so it can run on its own goroutine.
func (e *testEnv) apply(token, jobID, letter string) applyResult {
	body, _ := json.Marshal(map[string]string{"coverLetter": letter})
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/api/applications/"+jobID, bytes.NewReader(body))
	if err != nil {
		return applyResult{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return applyResult{err: err}
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return applyResult{err: err}
	}
	return applyResult{status: resp.StatusCode, message: env.Message}
}

func TestConcurrentApplyOneWinsWithDefaultLimiter(t *testing.T) {
	e := newTestEnv(t, ratelimit.NewLimiter(2*time.Second))
	token, err := e.tokens.Issue("cand-1", model.RoleApplicant)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	results := make(chan applyResult, 2)
	for i := 0; i < 2; i++ {
		go func() { results <- e.apply(token, "job-1", "hi") }()
	}

	var created, conflicts int
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			t.Fatalf("apply: %v", r.err)
		}
		switch r.status {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			conflicts++
			if r.message != "an active application already exists for this job" &&
				r.message != "your application is still pending for this job" {
				t.Errorf("conflict message = %q", r.message)
			}
		default:
			t.Errorf("unexpected status %d (%q)", r.status, r.message)
		}
	}
	if created != 1 || conflicts != 1 {
		t.Errorf("created=%d conflicts=%d, want exactly one of each", created, conflicts)
	}

	apps, err := e.store.ListByApplicant(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("ListByApplicant: %v", err)
	}
	if len(apps) != 1 {
		t.Errorf("stored applications = %d, want 1", len(apps))
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, nil)
	resp, err := http.Get(e.srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewService(s, s, 0, discardLogger()), s
}

func seedJob(t *testing.T, s *store.Store, id, owner string) {
	t.Helper()
	_, err := s.CreateJob(context.Background(), model.Job{
		ID: id, Title: "Title " + id, Company: "Acme", OwnerID: owner,
		ApplicationStartDate: base.Add(-time.Hour).Format(time.RFC3339),
		ApplicationEndDate:   base.Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
}

func seedApp(t *testing.T, s *store.Store, jobID, applicantID string, at time.Time) *model.Application {
	t.Helper()
	app, err := s.CreateApplication(context.Background(), model.Application{
		JobID: jobID, ApplicantID: applicantID, CoverLetter: "hi",
		Status: model.StatusPending, IsSeenByApplicant: true,
		AppliedAt: at, CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	return app
}

func decide(t *testing.T, s *store.Store, id string, st model.Status, at time.Time) {
	t.Helper()
	if _, err := s.DecideApplication(context.Background(), id, st, at); err != nil {
		t.Fatalf("DecideApplication: %v", err)
	}
}

func TestApplicantFeedCapAndCount(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		jobID := fmt.Sprintf("job-%02d", i)
		seedJob(t, s, jobID, "emp-1")
		app := seedApp(t, s, jobID, "cand-1", base)
		decide(t, s, app.ID, model.StatusAccepted, base.Add(time.Duration(i)*time.Minute))
	}

	items, err := svc.ApplicantFeed(ctx, "cand-1")
	if err != nil {
		t.Fatalf("ApplicantFeed: %v", err)
	}
	if len(items) != DefaultLimit {
		t.Fatalf("got %d items, want %d", len(items), DefaultLimit)
	}
	if items[0].Job == nil || items[0].Job.ID != "job-10" {
		t.Errorf("first item = %+v, want job-10", items[0])
	}
	for i := 1; i < len(items); i++ {
		if items[i].StatusUpdatedAt.After(*items[i-1].StatusUpdatedAt) {
			t.Errorf("items not ordered by statusUpdatedAt desc at %d", i)
		}
	}

	count, err := svc.UnseenCount(ctx, "cand-1")
	if err != nil {
		t.Fatalf("UnseenCount: %v", err)
	}
	if count != 11 {
		t.Errorf("count = %d, want 11", count)
	}
}

func TestEmployerFeedOnlyOwnedJobs(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	seedJob(t, s, "mine", "emp-1")
	seedJob(t, s, "theirs", "emp-2")

	seedApp(t, s, "mine", "cand-1", base)
	for i := 0; i < 12; i++ {
		seedApp(t, s, "theirs", fmt.Sprintf("cand-x%d", i), base.Add(time.Duration(i+1)*time.Second))
	}

	items, err := svc.EmployerFeed(ctx, "emp-1")
	if err != nil {
		t.Fatalf("EmployerFeed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].ApplicantID != "cand-1" || items[0].Job.Title != "Title mine" {
		t.Errorf("item = %+v", items[0])
	}

	theirs, err := svc.EmployerFeed(ctx, "emp-2")
	if err != nil {
		t.Fatalf("EmployerFeed: %v", err)
	}
	if len(theirs) != DefaultLimit {
		t.Errorf("got %d items for emp-2, want %d", len(theirs), DefaultLimit)
	}
}

// Decided while away, acknowledged once, not re-delivered.
func TestMarkSeenRemovesFromFeed(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	seedJob(t, s, "job-1", "emp-1")
	app := seedApp(t, s, "job-1", "cand-1", base)
	decide(t, s, app.ID, model.StatusAccepted, base.Add(time.Minute))

	if err := svc.MarkSeen(ctx, app.ID, "cand-2", model.RoleApplicant); !model.IsCode(err, model.CodeForbidden) {
		t.Errorf("foreign applicant mark error = %v, want forbidden", err)
	}
	if err := svc.MarkSeen(ctx, app.ID, "emp-2", model.RoleEmployer); !model.IsCode(err, model.CodeForbidden) {
		t.Errorf("foreign employer mark error = %v, want forbidden", err)
	}
	if err := svc.MarkSeen(ctx, "missing", "cand-1", model.RoleApplicant); !model.IsCode(err, model.CodeNotFound) {
		t.Errorf("missing application mark error = %v, want not_found", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.MarkSeen(ctx, app.ID, "cand-1", model.RoleApplicant); err != nil {
			t.Fatalf("MarkSeen #%d: %v", i+1, err)
		}
	}
	items, _ := svc.ApplicantFeed(ctx, "cand-1")
	if len(items) != 0 {
		t.Errorf("applicant feed has %d items after mark seen, want 0", len(items))
	}

	if err := svc.MarkSeen(ctx, app.ID, "emp-1", model.RoleEmployer); err != nil {
		t.Fatalf("employer MarkSeen: %v", err)
	}
	if err := svc.MarkSeen(ctx, app.ID, "emp-1", model.RoleEmployer); err != nil {
		t.Fatalf("employer MarkSeen repeat: %v", err)
	}
	got, _ := s.GetApplication(ctx, app.ID)
	if !got.IsSeenByApplicant || !got.IsSeenByEmployer {
		t.Errorf("seen flags = (%v, %v), want both true", got.IsSeenByApplicant, got.IsSeenByEmployer)
	}
}

func TestListMineMarksDecidedSeen(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	seedJob(t, s, "job-1", "emp-1")
	seedJob(t, s, "job-2", "emp-1")
	decided := seedApp(t, s, "job-1", "cand-1", base)
	decide(t, s, decided.ID, model.StatusRejected, base.Add(time.Minute))
	pending := seedApp(t, s, "job-2", "cand-1", base.Add(time.Second))

	apps, err := svc.ListMine(ctx, "cand-1")
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("got %d applications, want 2", len(apps))
	}
	if apps[0].ID != pending.ID {
		t.Errorf("first = %s, want newest %s", apps[0].ID, pending.ID)
	}
	if apps[1].IsSeenByApplicant {
		t.Error("returned record should reflect the state before acknowledgment")
	}
	if apps[0].Job == nil || apps[0].Job.Company != "Acme" {
		t.Errorf("job not populated: %+v", apps[0].Job)
	}

	count, _ := svc.UnseenCount(ctx, "cand-1")
	if count != 0 {
		t.Errorf("unseen count after ListMine = %d, want 0", count)
	}
}

func TestJobApplicationsRequiresOwnership(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	seedJob(t, s, "job-1", "emp-1")
	seedApp(t, s, "job-1", "cand-1", base)

	if _, err := svc.JobApplications(ctx, "job-1", "emp-2"); !model.IsCode(err, model.CodeForbidden) {
		t.Errorf("error = %v, want forbidden", err)
	}
	if _, err := svc.JobApplications(ctx, "nope", "emp-1"); !model.IsCode(err, model.CodeNotFound) {
		t.Errorf("error = %v, want not_found", err)
	}
	apps, err := svc.JobApplications(ctx, "job-1", "emp-1")
	if err != nil {
		t.Fatalf("JobApplications: %v", err)
	}
	if len(apps) != 1 {
		t.Errorf("got %d, want 1", len(apps))
	}
}

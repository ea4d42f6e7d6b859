// Package lifecycle owns application status transitions and re-apply eligibility.
package lifecycle

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/amishk599/jobboard/internal/model"
)

// Engine validates and applies lifecycle changes. It holds no locks; the
// store's unique index and conditional update settle concurrent writers.
type Engine struct {
	apps   model.ApplicationStore
	jobs   model.JobDirectory
	events model.EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an engine wired with its collaborators.
func NewEngine(apps model.ApplicationStore, jobs model.JobDirectory, events model.EventPublisher, logger *slog.Logger) *Engine {
	return &Engine{
		apps:   apps,
		jobs:   jobs,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// CreateApplication submits a new application to jobID on behalf of applicantID.
func (e *Engine) CreateApplication(ctx context.Context, jobID, applicantID, coverLetter string) (*model.Application, error) {
	now := e.now().UTC()
	job, err := e.checkCreate(ctx, jobID, applicantID, coverLetter, now)
	if err != nil {
		return nil, err
	}

	app, err := e.apps.CreateApplication(ctx, model.Application{
		JobID:             jobID,
		ApplicantID:       applicantID,
		CoverLetter:       coverLetter,
		Status:            model.StatusPending,
		IsSeenByApplicant: true,
		IsSeenByEmployer:  false,
		AppliedAt:         now,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return nil, err
	}
	if app.Job == nil {
		summary := job.Summary()
		app.Job = &summary
	}

	e.logger.Info("application created",
		"application_id", app.ID,
		"job_id", jobID,
		"applicant_id", applicantID,
	)
	e.publish(ctx, model.EventApplicationCreated, app, now)
	return app, nil
}

// CheckApplication runs the CreateApplication preconditions without writing
// anything. It returns the error CreateApplication would return before the insert.
func (e *Engine) CheckApplication(ctx context.Context, jobID, applicantID, coverLetter string) error {
	_, err := e.checkCreate(ctx, jobID, applicantID, coverLetter, e.now().UTC())
	return err
}

func (e *Engine) checkCreate(ctx context.Context, jobID, applicantID, coverLetter string, now time.Time) (*model.Job, error) {
	if strings.TrimSpace(coverLetter) == "" {
		return nil, model.NewError(model.CodeValidation, "please provide a cover letter", nil)
	}

	job, err := e.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := checkWindow(job, now); err != nil {
		return nil, err
	}
	if err := e.checkEligible(ctx, jobID, applicantID); err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateStatus records an employer's decision on a pending application.
func (e *Engine) UpdateStatus(ctx context.Context, applicationID, employerID, status string) (*model.Application, error) {
	decision, err := model.ParseDecision(status)
	if err != nil {
		return nil, err
	}

	app, err := e.apps.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	job, err := e.jobs.GetJob(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if job.OwnerID != employerID {
		return nil, model.NewError(model.CodeForbidden, "not authorized to update this application", nil)
	}

	if app.Status.IsDecided() {
		return nil, model.NewError(model.CodeConflict, "application status has already been set and cannot be changed", nil)
	}

	now := e.now().UTC()
	updated, err := e.apps.DecideApplication(ctx, applicationID, decision, now)
	if err != nil {
		return nil, err
	}

	e.logger.Info("application status updated",
		"application_id", applicationID,
		"job_id", app.JobID,
		"status", string(decision),
	)
	e.publish(ctx, model.EventApplicationStatusChanged, updated, now)
	return updated, nil
}

func checkWindow(job *model.Job, now time.Time) error {
	start, end, err := job.Window()
	if err != nil {
		return model.NewError(model.CodeConflict, "this job has invalid application dates", err)
	}
	if now.Before(start) || now.After(end) {
		return model.NewError(model.CodeConflict, "this job is no longer accepting applications", nil)
	}
	return nil
}

// checkEligible applies the re-apply policy to the most recent application
// for the pair. Only a rejection reopens the job to the applicant.
func (e *Engine) checkEligible(ctx context.Context, jobID, applicantID string) error {
	latest, err := e.apps.LatestApplication(ctx, jobID, applicantID)
	if model.IsCode(err, model.CodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !latest.Status.IsActive() {
		return nil
	}

	switch latest.Status {
	case model.StatusPending:
		return model.NewError(model.CodeConflict, "your application is still pending for this job", nil)
	case model.StatusAccepted:
		return model.NewError(model.CodeConflict, "you have already been accepted for this job", nil)
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, eventType string, app *model.Application, at time.Time) {
	err := e.events.Publish(ctx, model.Event{
		Type:          eventType,
		ApplicationID: app.ID,
		JobID:         app.JobID,
		ApplicantID:   app.ApplicantID,
		Status:        app.Status,
		At:            at,
	})
	if err != nil {
		e.logger.Warn("failed to publish lifecycle event",
			"event", eventType,
			"application_id", app.ID,
			"error", err,
		)
	}
}

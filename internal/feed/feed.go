// Package feed is the notification query layer: per-role unseen sets, the
// applicant badge count, mark-seen, and the list reads behind them.
package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobboard/internal/model"
)

// DefaultLimit caps both feeds.
const DefaultLimit = 10

// Service answers feed queries for both roles.
type Service struct {
	apps   model.ApplicationStore
	jobs   model.JobDirectory
	limit  int
	logger *slog.Logger
}

// NewService creates a feed service. A non-positive limit selects DefaultLimit.
func NewService(apps model.ApplicationStore, jobs model.JobDirectory, limit int, logger *slog.Logger) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{apps: apps, jobs: jobs, limit: limit, logger: logger}
}

// ApplicantFeed returns the applicant's unseen decisions, most recent first.
func (s *Service) ApplicantFeed(ctx context.Context, applicantID string) ([]model.StatusChange, error) {
	apps, err := s.apps.UnseenByApplicant(ctx, applicantID, s.limit)
	if err != nil {
		return nil, err
	}
	items := make([]model.StatusChange, 0, len(apps))
	for _, a := range apps {
		items = append(items, model.StatusChange{
			ApplicationID:   a.ID,
			Status:          a.Status,
			StatusUpdatedAt: a.StatusUpdatedAt,
			Job:             a.Job,
		})
	}
	return items, nil
}

// UnseenCount is the uncapped size of the applicant feed.
func (s *Service) UnseenCount(ctx context.Context, applicantID string) (int, error) {
	return s.apps.CountUnseenByApplicant(ctx, applicantID)
}

// EmployerFeed returns unseen applications to the employer's jobs, most
// recently applied first.
func (s *Service) EmployerFeed(ctx context.Context, employerID string) ([]model.NewApplicant, error) {
	apps, err := s.apps.UnseenByEmployer(ctx, employerID, s.limit)
	if err != nil {
		return nil, err
	}
	items := make([]model.NewApplicant, 0, len(apps))
	for _, a := range apps {
		var job *model.JobSummary
		if a.Job != nil {
			job = &model.JobSummary{ID: a.Job.ID, Title: a.Job.Title}
		}
		items = append(items, model.NewApplicant{
			ApplicationID: a.ID,
			ApplicantID:   a.ApplicantID,
			Job:           job,
			AppliedAt:     a.AppliedAt,
			CreatedAt:     a.CreatedAt,
		})
	}
	return items, nil
}

// MarkSeen acknowledges an application on behalf of userID acting as role.
// Marking an already-seen application succeeds and changes nothing.
func (s *Service) MarkSeen(ctx context.Context, applicationID, userID string, role model.Role) error {
	app, err := s.apps.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}

	switch role {
	case model.RoleApplicant:
		if app.ApplicantID != userID {
			return model.NewError(model.CodeForbidden, "not authorized", nil)
		}
		if app.IsSeenByApplicant {
			return nil
		}
		return s.apps.MarkSeenByApplicant(ctx, applicationID)
	case model.RoleEmployer:
		job, err := s.jobs.GetJob(ctx, app.JobID)
		if err != nil {
			if model.IsCode(err, model.CodeNotFound) {
				return model.NewError(model.CodeForbidden, "not authorized", nil)
			}
			return err
		}
		if job.OwnerID != userID {
			return model.NewError(model.CodeForbidden, "not authorized", nil)
		}
		if app.IsSeenByEmployer {
			return nil
		}
		return s.apps.MarkSeenByEmployer(ctx, applicationID)
	}
	return model.NewError(model.CodeValidation, fmt.Sprintf("unknown role %q", role), nil)
}

// ListMine returns every application by applicantID, newest first, with job
// summaries populated. Reading the list counts as acknowledging every
// decision in it; see markListedSeen. The returned records reflect the state
// before that acknowledgment.
func (s *Service) ListMine(ctx context.Context, applicantID string) ([]model.Application, error) {
	apps, err := s.apps.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	if err := s.markListedSeen(ctx, applicantID, apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// markListedSeen is the only place a read marks applications seen.
func (s *Service) markListedSeen(ctx context.Context, applicantID string, apps []model.Application) error {
	var ids []string
	for _, a := range apps {
		if a.UnseenByApplicant() {
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	n, err := s.apps.MarkDecidedSeenByApplicant(ctx, applicantID, ids)
	if err != nil {
		return err
	}
	s.logger.Debug("auto-marked listed applications seen",
		"applicant_id", applicantID,
		"marked", n,
	)
	return nil
}

// JobApplications lists applications to jobID for its owner.
func (s *Service) JobApplications(ctx context.Context, jobID, employerID string) ([]model.Application, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OwnerID != employerID {
		return nil, model.NewError(model.CodeForbidden, "not authorized to view applications for this job", nil)
	}
	return s.apps.ListByJob(ctx, jobID)
}

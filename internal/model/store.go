package model

import (
	"context"
	"time"
)

// ApplicationStore persists applications. Implementations enforce the
// one-active-application-per-(job, applicant) rule and the write-once
// status rule at the storage layer.
type ApplicationStore interface {
	// CreateApplication inserts app. A concurrent duplicate active
	// application surfaces as a CodeConflict error.
	CreateApplication(ctx context.Context, app Application) (*Application, error)
	GetApplication(ctx context.Context, id string) (*Application, error)
	// LatestApplication returns the most recently created application for
	// the pair, or a CodeNotFound error when there is none.
	LatestApplication(ctx context.Context, jobID, applicantID string) (*Application, error)
	// DecideApplication moves a pending application to status. It fails with
	// CodeConflict when the application is no longer pending.
	DecideApplication(ctx context.Context, id string, status Status, at time.Time) (*Application, error)

	ListByApplicant(ctx context.Context, applicantID string) ([]Application, error)
	ListByJob(ctx context.Context, jobID string) ([]Application, error)

	MarkSeenByApplicant(ctx context.Context, id string) error
	MarkSeenByEmployer(ctx context.Context, id string) error
	// MarkDecidedSeenByApplicant flips isSeenByApplicant for those of ids that
	// belong to applicantID, are decided and unseen, in one statement.
	MarkDecidedSeenByApplicant(ctx context.Context, applicantID string, ids []string) (int64, error)

	UnseenByApplicant(ctx context.Context, applicantID string, limit int) ([]Application, error)
	CountUnseenByApplicant(ctx context.Context, applicantID string) (int, error)
	UnseenByEmployer(ctx context.Context, ownerID string, limit int) ([]Application, error)
}

// Event is a lifecycle change published for other services.
type Event struct {
	Type          string    `json:"type"`
	ApplicationID string    `json:"applicationId"`
	JobID         string    `json:"jobId"`
	ApplicantID   string    `json:"applicantId"`
	Status        Status    `json:"status"`
	At            time.Time `json:"at"`
}

const (
	EventApplicationCreated       = "application.created"
	EventApplicationStatusChanged = "application.status_changed"
)

// EventPublisher fans lifecycle events out. Failures are never fatal to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// Notifier presents a notification outside the interactive client.
type Notifier interface {
	Notify(n Notification) error
}

package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values. Matching is exact.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusAccepted, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// ParseDecision accepts only the statuses an employer may set.
func ParseDecision(s string) (Status, error) {
	st := Status(s)
	if st == StatusAccepted || st == StatusRejected {
		return st, nil
	}
	return "", NewError(CodeValidation, "status must be either 'accepted' or 'rejected'", nil)
}

// IsActive reports whether an application in this status blocks a new
// application to the same job by the same applicant.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusAccepted
}

// IsDecided reports whether the status has left pending. Decided statuses are terminal.
func (s Status) IsDecided() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Application is one applicant's attempt to apply to one job.
type Application struct {
	ID                string      `json:"id"`
	JobID             string      `json:"jobId"`
	ApplicantID       string      `json:"applicantId"`
	CoverLetter       string      `json:"coverLetter"`
	Status            Status      `json:"status"`
	IsSeenByApplicant bool        `json:"isSeenByApplicant"`
	IsSeenByEmployer  bool        `json:"isSeenByEmployer"`
	StatusUpdatedAt   *time.Time  `json:"statusUpdatedAt"`
	AppliedAt         time.Time   `json:"appliedAt"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
	Job               *JobSummary `json:"job,omitempty"` // populated on list reads
}

// UnseenByApplicant reports whether the applicant still has a decision to acknowledge.
func (a Application) UnseenByApplicant() bool {
	return a.Status.IsDecided() && !a.IsSeenByApplicant
}

// Clone returns a deep copy, including pointer fields.
func (a Application) Clone() Application {
	c := a
	if a.StatusUpdatedAt != nil {
		t := *a.StatusUpdatedAt
		c.StatusUpdatedAt = &t
	}
	if a.Job != nil {
		j := *a.Job
		c.Job = &j
	}
	return c
}

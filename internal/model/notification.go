package model

import (
	"fmt"
	"time"
)

// Kind discriminates the notification variants.
type Kind string

const (
	KindApplicantStatus Kind = "applicant_status"
	KindEmployerApply   Kind = "employer_apply"
)

// Variant is the presentation tone of a toast.
type Variant string

const (
	VariantInfo    Variant = "info"
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
)

// StatusChange is an applicant feed item: a decision on one of their applications.
type StatusChange struct {
	ApplicationID   string      `json:"id"`
	Status          Status      `json:"status"`
	StatusUpdatedAt *time.Time  `json:"statusUpdatedAt"`
	Job             *JobSummary `json:"job"`
}

// NewApplicant is an employer feed item: someone applied to one of their jobs.
type NewApplicant struct {
	ApplicationID string      `json:"id"`
	ApplicantID   string      `json:"applicantId"`
	Job           *JobSummary `json:"job"`
	AppliedAt     time.Time   `json:"appliedAt"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Notification is a tagged variant. Exactly one payload is set, matching Kind.
type Notification struct {
	Kind         Kind
	StatusChange *StatusChange
	NewApplicant *NewApplicant
}

// StatusChangeNotification wraps an applicant feed item.
func StatusChangeNotification(item StatusChange) Notification {
	return Notification{Kind: KindApplicantStatus, StatusChange: &item}
}

// NewApplicantNotification wraps an employer feed item.
func NewApplicantNotification(item NewApplicant) Notification {
	return Notification{Kind: KindEmployerApply, NewApplicant: &item}
}

// ApplicationID returns the id of the application the notification is about.
func (n Notification) ApplicationID() string {
	switch n.Kind {
	case KindApplicantStatus:
		if n.StatusChange != nil {
			return n.StatusChange.ApplicationID
		}
	case KindEmployerApply:
		if n.NewApplicant != nil {
			return n.NewApplicant.ApplicationID
		}
	}
	return ""
}

// Key identifies a notification for in-session dedup.
func (n Notification) Key() string {
	return string(n.Kind) + ":" + n.ApplicationID()
}

// JobID returns the referenced job id, or "" when the job is unknown.
func (n Notification) JobID() string {
	var job *JobSummary
	switch n.Kind {
	case KindApplicantStatus:
		if n.StatusChange != nil {
			job = n.StatusChange.Job
		}
	case KindEmployerApply:
		if n.NewApplicant != nil {
			job = n.NewApplicant.Job
		}
	}
	if job == nil {
		return ""
	}
	return job.ID
}

// Message renders the toast text.
func (n Notification) Message() string {
	switch n.Kind {
	case KindEmployerApply:
		who := "Someone"
		title := "your job"
		if a := n.NewApplicant; a != nil {
			if a.ApplicantID != "" {
				who = "Applicant " + a.ApplicantID
			}
			if a.Job != nil && a.Job.Title != "" {
				title = fmt.Sprintf("%q", a.Job.Title)
			}
		}
		return fmt.Sprintf("%s applied for %s", who, title)
	case KindApplicantStatus:
		title := "your job"
		var status Status
		if c := n.StatusChange; c != nil {
			status = c.Status
			if c.Job != nil && c.Job.Title != "" {
				title = fmt.Sprintf("%q", c.Job.Title)
			}
		}
		switch status {
		case StatusAccepted:
			return fmt.Sprintf("Your application for %s was ACCEPTED", title)
		case StatusRejected:
			return fmt.Sprintf("Your application for %s was REJECTED", title)
		}
		return fmt.Sprintf("Update on %s", title)
	}
	return ""
}

// Variant picks the toast tone.
func (n Notification) Variant() Variant {
	if n.Kind == KindApplicantStatus && n.StatusChange != nil {
		switch n.StatusChange.Status {
		case StatusAccepted:
			return VariantSuccess
		case StatusRejected:
			return VariantError
		}
	}
	return VariantInfo
}

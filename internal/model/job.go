package model

import (
	"context"
	"time"
)

// Job is the slice of a job posting the application lifecycle depends on.
// Job CRUD lives elsewhere; these rows are read for existence, ownership and
// the application window.
type Job struct {
	ID       string
	Title    string
	Company  string
	Location string
	OwnerID  string // employer who created the posting

	// Window bounds as stored. Kept raw so that an unparseable bound can be
	// reported instead of silently treated as open.
	ApplicationStartDate string
	ApplicationEndDate   string

	CreatedAt time.Time
}

// JobSummary is the job reference embedded in list results and feed items.
type JobSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Company string `json:"company,omitempty"`
}

// Summary returns the embeddable reference for j.
func (j Job) Summary() JobSummary {
	return JobSummary{ID: j.ID, Title: j.Title, Company: j.Company}
}

// Window parses the application window bounds.
func (j Job) Window() (start, end time.Time, err error) {
	start, err = time.Parse(time.RFC3339, j.ApplicationStartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = time.Parse(time.RFC3339, j.ApplicationEndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// JobDirectory resolves job postings by id.
type JobDirectory interface {
	GetJob(ctx context.Context, id string) (*Job, error)
}

package store

// Timestamps are stored as fixed-width UTC text so that lexical order equals
// chronological order on both drivers.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id                     TEXT PRIMARY KEY,
		title                  TEXT NOT NULL,
		company                TEXT NOT NULL DEFAULT '',
		location               TEXT NOT NULL DEFAULT '',
		owner_id               TEXT NOT NULL,
		application_start_date TEXT NOT NULL,
		application_end_date   TEXT NOT NULL,
		created_at             TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS jobs_owner_idx ON jobs (owner_id)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id                   TEXT PRIMARY KEY,
		job_id               TEXT NOT NULL REFERENCES jobs (id),
		applicant_id         TEXT NOT NULL,
		cover_letter         TEXT NOT NULL,
		status               TEXT NOT NULL DEFAULT 'pending',
		is_seen_by_applicant BOOLEAN NOT NULL DEFAULT FALSE,
		is_seen_by_employer  BOOLEAN NOT NULL DEFAULT FALSE,
		status_updated_at    TEXT NULL,
		applied_at           TEXT NOT NULL,
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL,
		CHECK (status IN ('pending', 'accepted', 'rejected'))
	)`,
	// At most one active application per (job, applicant). Rejected rows are history.
	`CREATE UNIQUE INDEX IF NOT EXISTS applications_active_uniq
		ON applications (job_id, applicant_id)
		WHERE status IN ('pending', 'accepted')`,
	`CREATE INDEX IF NOT EXISTS applications_applicant_idx ON applications (applicant_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS applications_job_idx ON applications (job_id, created_at)`,
}

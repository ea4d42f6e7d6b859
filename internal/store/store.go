package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/amishk599/jobboard/internal/model"
)

// Supported database/sql driver names.
const (
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"
)

// Store is the Application Record Store. It also serves read-only job lookups
// for the lifecycle engine. Queries are written with ? placeholders and
// rebound for Postgres.
type Store struct {
	db     *sql.DB
	driver string
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*Store, error) {
	return Open(context.Background(), DriverSQLite, dbPath)
}

// Open connects with the given driver, verifies the connection and ensures
// the schema exists.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPgx {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer at a time; a concurrent duplicate insert then fails on
		// the unique index instead of on a busy lock.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s db: %w", driver, err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPgx {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// --- jobs ---

// CreateJob inserts a job posting. Job CRUD is owned by another service; this
// exists for seeding and tests.
func (s *Store) CreateJob(ctx context.Context, job model.Job) (*model.Job, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO jobs
		(id, title, company, location, owner_id, application_start_date, application_end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		job.ID, job.Title, job.Company, job.Location, job.OwnerID,
		job.ApplicationStartDate, job.ApplicationEndDate, formatTime(job.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	return &job, nil
}

// GetJob returns the job with id, or a not-found error.
func (s *Store) GetJob(ctx context.Context, id string) (*model.Job, error) {
	var (
		job     model.Job
		created string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT
		id, title, company, location, owner_id, application_start_date, application_end_date, created_at
		FROM jobs WHERE id = ?`), id).Scan(
		&job.ID, &job.Title, &job.Company, &job.Location, &job.OwnerID,
		&job.ApplicationStartDate, &job.ApplicationEndDate, &created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewError(model.CodeNotFound, "job not found", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("loading job %s: %w", id, err)
	}
	if job.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("loading job %s: created_at: %w", id, err)
	}
	return &job, nil
}

// --- applications ---

const selectApplication = `SELECT
	a.id, a.job_id, a.applicant_id, a.cover_letter, a.status,
	a.is_seen_by_applicant, a.is_seen_by_employer,
	a.status_updated_at, a.applied_at, a.created_at, a.updated_at,
	j.id, j.title, j.company
	FROM applications a
	LEFT JOIN jobs j ON j.id = a.job_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*model.Application, error) {
	var (
		a             model.Application
		status        string
		statusUpdated sql.NullString
	)
	var applied, created, updated string
	var jobID, jobTitle, jobCompany sql.NullString
	err := row.Scan(
		&a.ID, &a.JobID, &a.ApplicantID, &a.CoverLetter, &status,
		&a.IsSeenByApplicant, &a.IsSeenByEmployer,
		&statusUpdated, &applied, &created, &updated,
		&jobID, &jobTitle, &jobCompany,
	)
	if err != nil {
		return nil, err
	}

	if a.Status, err = model.ParseStatus(status); err != nil {
		return nil, err
	}
	if statusUpdated.Valid {
		t, err := parseTime(statusUpdated.String)
		if err != nil {
			return nil, fmt.Errorf("status_updated_at: %w", err)
		}
		a.StatusUpdatedAt = &t
	}
	if a.AppliedAt, err = parseTime(applied); err != nil {
		return nil, fmt.Errorf("applied_at: %w", err)
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	if jobID.Valid {
		a.Job = &model.JobSummary{ID: jobID.String, Title: jobTitle.String, Company: jobCompany.String}
	}
	return &a, nil
}

func (s *Store) queryApplications(ctx context.Context, query string, args ...any) ([]model.Application, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []model.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// CreateApplication inserts app as given. A second active application for the
// same (job, applicant) is rejected by the unique index and reported as a
// conflict.
func (s *Store) CreateApplication(ctx context.Context, app model.Application) (*model.Application, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.UpdatedAt.IsZero() {
		app.UpdatedAt = app.CreatedAt
	}
	var statusUpdated any
	if app.StatusUpdatedAt != nil {
		statusUpdated = formatTime(*app.StatusUpdatedAt)
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO applications
		(id, job_id, applicant_id, cover_letter, status, is_seen_by_applicant, is_seen_by_employer,
		 status_updated_at, applied_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		app.ID, app.JobID, app.ApplicantID, app.CoverLetter, string(app.Status),
		app.IsSeenByApplicant, app.IsSeenByEmployer, statusUpdated,
		formatTime(app.AppliedAt), formatTime(app.CreatedAt), formatTime(app.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.NewError(model.CodeConflict, "an active application already exists for this job", err)
		}
		return nil, fmt.Errorf("inserting application for job %s: %w", app.JobID, err)
	}
	return s.GetApplication(ctx, app.ID)
}

// GetApplication returns the application with id, or a not-found error.
func (s *Store) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectApplication+` WHERE a.id = ?`), id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewError(model.CodeNotFound, "application not found", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("loading application %s: %w", id, err)
	}
	return a, nil
}

// LatestApplication returns the most recently created application for the
// pair, or a not-found error.
func (s *Store) LatestApplication(ctx context.Context, jobID, applicantID string) (*model.Application, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectApplication+`
		WHERE a.job_id = ? AND a.applicant_id = ?
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT 1`), jobID, applicantID)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewError(model.CodeNotFound, "no previous application", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest application for job %s: %w", jobID, err)
	}
	return a, nil
}

// DecideApplication sets a terminal status on a pending application. The
// update is conditional on status still being pending, so of two racing
// decisions only the first lands.
func (s *Store) DecideApplication(ctx context.Context, id string, status model.Status, at time.Time) (*model.Application, error) {
	if !status.IsDecided() {
		return nil, model.NewError(model.CodeValidation, "status must be either 'accepted' or 'rejected'", nil)
	}
	ts := formatTime(at)
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE applications
		SET status = ?, status_updated_at = ?, is_seen_by_applicant = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`),
		string(status), ts, false, ts, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating status of application %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating status of application %s: %w", id, err)
	}
	if n == 0 {
		if _, err := s.GetApplication(ctx, id); err != nil {
			return nil, err
		}
		return nil, model.NewError(model.CodeConflict, "application status has already been set and cannot be changed", nil)
	}
	return s.GetApplication(ctx, id)
}

// ListByApplicant returns all applications by applicantID, newest first.
func (s *Store) ListByApplicant(ctx context.Context, applicantID string) ([]model.Application, error) {
	apps, err := s.queryApplications(ctx, selectApplication+`
		WHERE a.applicant_id = ?
		ORDER BY a.created_at DESC, a.id DESC`, applicantID)
	if err != nil {
		return nil, fmt.Errorf("listing applications of %s: %w", applicantID, err)
	}
	return apps, nil
}

// ListByJob returns all applications to jobID, most recently applied first.
func (s *Store) ListByJob(ctx context.Context, jobID string) ([]model.Application, error) {
	apps, err := s.queryApplications(ctx, selectApplication+`
		WHERE a.job_id = ?
		ORDER BY a.applied_at DESC, a.created_at DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing applications for job %s: %w", jobID, err)
	}
	return apps, nil
}

// MarkSeenByApplicant sets isSeenByApplicant. Repeated calls are no-ops.
func (s *Store) MarkSeenByApplicant(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`UPDATE applications
		SET is_seen_by_applicant = ?, updated_at = ? WHERE id = ?`),
		true, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("marking application %s seen by applicant: %w", id, err)
	}
	return nil
}

// MarkSeenByEmployer sets isSeenByEmployer. Repeated calls are no-ops.
func (s *Store) MarkSeenByEmployer(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`UPDATE applications
		SET is_seen_by_employer = ?, updated_at = ? WHERE id = ?`),
		true, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("marking application %s seen by employer: %w", id, err)
	}
	return nil
}

// MarkDecidedSeenByApplicant marks the decided, unseen applications among ids
// as seen in a single statement. Pending ids and ids belonging to other
// applicants are left alone.
func (s *Store) MarkDecidedSeenByApplicant(ctx context.Context, applicantID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := []any{true, formatTime(time.Now()), applicantID, false}
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE applications
		SET is_seen_by_applicant = ?, updated_at = ?
		WHERE applicant_id = ? AND status <> 'pending' AND is_seen_by_applicant = ?
		AND id IN (`+placeholders(len(ids))+`)`), args...)
	if err != nil {
		return 0, fmt.Errorf("bulk marking applications of %s seen: %w", applicantID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk marking applications of %s seen: %w", applicantID, err)
	}
	return n, nil
}

// UnseenByApplicant returns up to limit decided applications the applicant
// has not seen, most recently decided first.
func (s *Store) UnseenByApplicant(ctx context.Context, applicantID string, limit int) ([]model.Application, error) {
	apps, err := s.queryApplications(ctx, selectApplication+`
		WHERE a.applicant_id = ? AND a.status <> 'pending' AND a.is_seen_by_applicant = ?
		ORDER BY a.status_updated_at DESC, a.created_at DESC
		LIMIT ?`, applicantID, false, limit)
	if err != nil {
		return nil, fmt.Errorf("listing unseen applications of %s: %w", applicantID, err)
	}
	return apps, nil
}

// CountUnseenByApplicant counts every decided application the applicant has not seen.
func (s *Store) CountUnseenByApplicant(ctx context.Context, applicantID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM applications
		WHERE applicant_id = ? AND status <> 'pending' AND is_seen_by_applicant = ?`),
		applicantID, false).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unseen applications of %s: %w", applicantID, err)
	}
	return n, nil
}

// UnseenByEmployer returns up to limit applications to jobs owned by ownerID
// that the employer has not seen, most recently applied first. Ownership is
// part of the query so the limit applies to owned rows only.
func (s *Store) UnseenByEmployer(ctx context.Context, ownerID string, limit int) ([]model.Application, error) {
	apps, err := s.queryApplications(ctx, selectApplication+`
		WHERE a.job_id IN (SELECT id FROM jobs WHERE owner_id = ?)
		AND a.is_seen_by_employer = ?
		ORDER BY a.applied_at DESC, a.created_at DESC
		LIMIT ?`, ownerID, false, limit)
	if err != nil {
		return nil, fmt.Errorf("listing unseen applications for employer %s: %w", ownerID, err)
	}
	return apps, nil
}

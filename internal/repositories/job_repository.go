package repositories

import (
	"context"
	"database/sql"

	"github.com/thekim123/sns-maker-hub/internal/models"
)

type JobRepository interface {
	Store(ctx context.Context, job *models.Job) error
	FindByID(ctx context.Context, jobID string) (*models.Job, error)
	ClaimNext(ctx context.Context) (*models.JobClaim, error)
	SetResult(ctx context.Context, jobID string, status models.JobStatus, result string) (bool, error)
	CountByStatus(ctx context.Context) (models.JobCounts, error)
	ListRecent(ctx context.Context, limit int) ([]models.JobSummary, error)
	RequeueStale(ctx context.Context, olderThanSeconds int) (int64, error)
}

type jobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Store(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (job_id, user_id, status, payload)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`
	// jsonb-параметр передаём строкой: []byte lib/pq кодирует как bytea.
	return r.db.QueryRowContext(ctx, query,
		job.JobID, job.UserID, job.Status, string(job.Payload),
	).Scan(&job.CreatedAt, &job.UpdatedAt)
}

func (r *jobRepository) FindByID(ctx context.Context, jobID string) (*models.Job, error) {
	query := `SELECT job_id, user_id, status, payload, result, created_at, updated_at
       FROM jobs WHERE job_id = $1`
	job := &models.Job{}
	var (
		payload []byte
		result  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, jobID).Scan(
		&job.JobID, &job.UserID, &job.Status, &payload, &result,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Payload = payload
	if result.Valid {
		job.Result = result.String
	}
	return job, nil
}

// ClaimNext moves the oldest queued job to processing and hands it out.
// Concurrent workers never receive the same job: the subselect locks the
// candidate row and SKIP LOCKED steers other claimers past it. An empty
// queue returns (nil, nil).
func (r *jobRepository) ClaimNext(ctx context.Context) (*models.JobClaim, error) {
	query := `
		UPDATE jobs
		SET status='processing', updated_at=NOW()
		WHERE job_id = (
			SELECT job_id FROM jobs
			WHERE status='queued'
			ORDER BY created_at, job_id
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING job_id, user_id, payload`
	claim := &models.JobClaim{}
	var payload []byte
	err := r.db.QueryRowContext(ctx, query).Scan(&claim.JobID, &claim.UserID, &payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	claim.Payload = payload
	return claim, nil
}

// SetResult records the outcome of a processing job. Returns false when the
// job is not in processing (finished already, requeued, or never claimed).
func (r *jobRepository) SetResult(ctx context.Context, jobID string, status models.JobStatus, result string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status=$2, result=$3, updated_at=NOW()
		WHERE job_id=$1 AND status='processing'
	`, jobID, status, result)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *jobRepository) CountByStatus(ctx context.Context) (models.JobCounts, error) {
	var counts models.JobCounts
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var status models.JobStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return counts, err
		}
		switch status {
		case models.JobQueued:
			counts.Queued = n
		case models.JobProcessing:
			counts.Processing = n
		case models.JobDone:
			counts.Done = n
		case models.JobFailed:
			counts.Failed = n
		}
	}
	return counts, rows.Err()
}

func (r *jobRepository) ListRecent(ctx context.Context, limit int) ([]models.JobSummary, error) {
	query := `SELECT job_id, user_id, status, updated_at
       FROM jobs ORDER BY updated_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.JobSummary
	for rows.Next() {
		var s models.JobSummary
		if err := rows.Scan(&s.JobID, &s.UserID, &s.Status, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RequeueStale returns processing jobs that have not been touched for
// olderThanSeconds back to the queue. Used by the janitor when workers die
// mid-job; the result keeps its original position by created_at.
func (r *jobRepository) RequeueStale(ctx context.Context, olderThanSeconds int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status='queued', updated_at=NOW()
		WHERE status='processing'
		  AND updated_at < NOW() - ($1 * INTERVAL '1 second')
	`, olderThanSeconds)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

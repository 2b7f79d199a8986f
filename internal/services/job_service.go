package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thekim123/sns-maker-hub/internal/models"
	"github.com/thekim123/sns-maker-hub/internal/repositories"
)

var (
	ErrNotRegistered    = errors.New("user not registered")
	ErrJobNotFound      = errors.New("job not found")
	ErrJobNotProcessing = errors.New("job not processing")
)

// JobService owns the job lifecycle: enqueue, exclusive claim, result
// submission, status lookup. Claim atomicity lives in the repository; the
// service never retries a claim on its own.
type JobService interface {
	Enqueue(ctx context.Context, userID string, payload json.RawMessage) (string, error)
	ClaimNext(ctx context.Context) (*models.JobClaim, error)
	SubmitResult(ctx context.Context, jobID, result string, failed bool) error
	GetStatus(ctx context.Context, jobID string) (*models.Job, error)
}

type jobService struct {
	repo  repositories.JobRepository
	users repositories.UserRepository
}

func NewJobService(repo repositories.JobRepository, users repositories.UserRepository) JobService {
	return &jobService{repo: repo, users: users}
}

func (s *jobService) Enqueue(ctx context.Context, userID string, payload json.RawMessage) (string, error) {
	known, err := s.users.Exists(userID)
	if err != nil {
		return "", err
	}
	if !known {
		return "", ErrNotRegistered
	}

	job := &models.Job{
		JobID:   uuid.NewString(),
		UserID:  userID,
		Status:  models.JobQueued,
		Payload: payload,
	}
	if err := s.repo.Store(ctx, job); err != nil {
		return "", err
	}
	zap.S().Infof("[jobs][enqueue] ok: job_id=%s user_id=%s", job.JobID, userID)
	return job.JobID, nil
}

func (s *jobService) ClaimNext(ctx context.Context) (*models.JobClaim, error) {
	claim, err := s.repo.ClaimNext(ctx)
	if err != nil {
		return nil, err
	}
	if claim != nil {
		zap.S().Infof("[jobs][claim] ok: job_id=%s user_id=%s", claim.JobID, claim.UserID)
	}
	return claim, nil
}

func (s *jobService) SubmitResult(ctx context.Context, jobID, result string, failed bool) error {
	status := models.JobDone
	if failed {
		status = models.JobFailed
	}

	ok, err := s.repo.SetResult(ctx, jobID, status, result)
	if err != nil {
		return err
	}
	if !ok {
		// Ноль затронутых строк: либо job нет, либо она не в processing.
		// Терминальный результат при этом не перезаписывается.
		if _, err := s.repo.FindByID(ctx, jobID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrJobNotFound
			}
			return err
		}
		return ErrJobNotProcessing
	}
	zap.S().Infof("[jobs][result] ok: job_id=%s status=%s", jobID, status)
	return nil
}

func (s *jobService) GetStatus(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

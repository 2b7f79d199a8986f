package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/thekim123/sns-maker-hub/internal/repositories"
)

const sweepTimeout = 30 * time.Second

// JanitorService runs the background sweeps: purging expired verification
// rows (an optimization only, lazy expiry stays authoritative) and, when
// configured, returning jobs stuck in processing back to the queue after a
// worker died mid-job.
type JanitorService struct {
	verifications repositories.VerificationRepository
	jobs          repositories.JobRepository
	requeueAfter  int // seconds; 0 — зависшие задачи не трогаем
	cron          *cron.Cron
}

func NewJanitorService(
	verifications repositories.VerificationRepository,
	jobs repositories.JobRepository,
	requeueAfterSeconds int,
) *JanitorService {
	return &JanitorService{
		verifications: verifications,
		jobs:          jobs,
		requeueAfter:  requeueAfterSeconds,
	}
}

func (s *JanitorService) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("@every 1m", s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	zap.S().Infof("[janitor][start] requeue_after=%ds", s.requeueAfter)
	return nil
}

func (s *JanitorService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *JanitorService) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if n, err := s.verifications.DeleteExpired(ctx); err != nil {
		zap.S().Warnf("[janitor][verify] purge failed: %v", err)
	} else if n > 0 {
		zap.S().Infof("[janitor][verify] purged %d expired nonce(s)", n)
	}

	if s.requeueAfter <= 0 {
		return
	}
	if n, err := s.jobs.RequeueStale(ctx, s.requeueAfter); err != nil {
		zap.S().Warnf("[janitor][jobs] requeue failed: %v", err)
	} else if n > 0 {
		zap.S().Infof("[janitor][jobs] requeued %d stale job(s)", n)
	}
}

package services

import (
	"context"
	"time"

	"github.com/thekim123/sns-maker-hub/internal/models"
	"github.com/thekim123/sns-maker-hub/internal/repositories"
)

const defaultRecentLimit = 5

// StatusService is the read-only projection behind the dashboard poller.
// It never mutates what it reads and tolerates empty tables: counts come
// back 0 and lists empty, not null.
type StatusService interface {
	Overview(ctx context.Context) (*models.StatusOverview, error)
}

type statusService struct {
	users       repositories.UserRepository
	jobs        repositories.JobRepository
	posts       repositories.PostRepository
	recentLimit int
	startedAt   time.Time
	now         func() time.Time
}

func NewStatusService(
	users repositories.UserRepository,
	jobs repositories.JobRepository,
	posts repositories.PostRepository,
	recentLimit int,
	startedAt time.Time,
) StatusService {
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &statusService{
		users:       users,
		jobs:        jobs,
		posts:       posts,
		recentLimit: recentLimit,
		startedAt:   startedAt,
		now:         time.Now,
	}
}

func (s *statusService) Overview(ctx context.Context) (*models.StatusOverview, error) {
	now := s.now()
	overview := &models.StatusOverview{
		ServerTime:    now.UTC().Format(time.RFC3339),
		UptimeSeconds: int64(now.Sub(s.startedAt).Seconds()),
		RecentJobs:    []models.JobSummary{},
		RecentPosts:   []models.PostSummary{},
	}

	users, err := s.users.GetCount()
	if err != nil {
		return nil, err
	}
	overview.Users = users

	linked, err := s.users.GetCountLinked()
	if err != nil {
		return nil, err
	}
	overview.LinkedAccounts = linked

	counts, err := s.jobs.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	overview.Jobs = counts

	recentJobs, err := s.jobs.ListRecent(ctx, s.recentLimit)
	if err != nil {
		return nil, err
	}
	if recentJobs != nil {
		overview.RecentJobs = recentJobs
	}

	recentPosts, err := s.posts.ListRecent(ctx, s.recentLimit)
	if err != nil {
		return nil, err
	}
	if recentPosts != nil {
		overview.RecentPosts = recentPosts
	}

	return overview, nil
}

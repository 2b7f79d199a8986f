package services_test

// In-memory стор с семантикой боевых репозиториев: FIFO-очередь,
// счётчик попыток, TTL по ручным часам. Сервисные тесты гоняют на нём
// полные сценарии без Postgres; SQL-реализации покрыты интеграционными
// тестами в internal/repositories.

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/thekim123/sns-maker-hub/internal/models"
	"github.com/thekim123/sns-maker-hub/internal/repositories"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memStore struct {
	mu    sync.Mutex
	clock *fakeClock

	users         map[string]*models.HubUser
	jobs          map[string]*models.Job
	jobSeq        []string // порядок вставки, tiebreaker для FIFO
	verifications map[string]*models.TelegramVerification
	posts         []*models.Post
}

func newMemStore() *memStore {
	return &memStore{
		clock:         newFakeClock(),
		users:         map[string]*models.HubUser{},
		jobs:          map[string]*models.Job{},
		verifications: map[string]*models.TelegramVerification{},
	}
}

var (
	_ repositories.UserRepository         = (*memUserRepo)(nil)
	_ repositories.JobRepository          = (*memJobRepo)(nil)
	_ repositories.VerificationRepository = (*memVerificationRepo)(nil)
	_ repositories.PostRepository         = (*memPostRepo)(nil)
)

// --- users ---

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(user *models.HubUser) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.UserID]; ok {
		return nil
	}
	u := *user
	u.CreatedAt = r.s.clock.Now()
	r.s.users[user.UserID] = &u
	return nil
}

func (r *memUserRepo) GetByID(userID string) (*models.HubUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) Exists(userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.users[userID]
	return ok, nil
}

func (r *memUserRepo) UpdateDisplayName(userID, displayName string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[userID]; ok {
		u.DisplayName = displayName
	}
	return nil
}

func (r *memUserRepo) GetCount() (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.users), nil
}

func (r *memUserRepo) GetCountLinked() (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, u := range r.s.users {
		if u.TelegramID != nil {
			n++
		}
	}
	return n, nil
}

// --- jobs ---

type memJobRepo struct{ s *memStore }

func (r *memJobRepo) Store(_ context.Context, job *models.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.clock.Now()
	cp := *job
	cp.CreatedAt, cp.UpdatedAt = now, now
	r.s.jobs[job.JobID] = &cp
	r.s.jobSeq = append(r.s.jobSeq, job.JobID)
	job.CreatedAt, job.UpdatedAt = now, now
	return nil
}

func (r *memJobRepo) FindByID(_ context.Context, jobID string) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[jobID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *j
	return &cp, nil
}

func (r *memJobRepo) ClaimNext(_ context.Context) (*models.JobClaim, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// jobSeq идёт в порядке вставки, часы не убывают — первый queued и
	// есть старейший.
	for _, id := range r.s.jobSeq {
		j := r.s.jobs[id]
		if j.Status != models.JobQueued {
			continue
		}
		j.Status = models.JobProcessing
		j.UpdatedAt = r.s.clock.Now()
		return &models.JobClaim{JobID: j.JobID, UserID: j.UserID, Payload: j.Payload}, nil
	}
	return nil, nil
}

func (r *memJobRepo) SetResult(_ context.Context, jobID string, status models.JobStatus, result string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[jobID]
	if !ok || j.Status != models.JobProcessing {
		return false, nil
	}
	j.Status = status
	j.Result = result
	j.UpdatedAt = r.s.clock.Now()
	return true, nil
}

func (r *memJobRepo) CountByStatus(_ context.Context) (models.JobCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var counts models.JobCounts
	for _, j := range r.s.jobs {
		switch j.Status {
		case models.JobQueued:
			counts.Queued++
		case models.JobProcessing:
			counts.Processing++
		case models.JobDone:
			counts.Done++
		case models.JobFailed:
			counts.Failed++
		}
	}
	return counts, nil
}

func (r *memJobRepo) ListRecent(_ context.Context, limit int) ([]models.JobSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	summaries := make([]models.JobSummary, 0, len(r.s.jobSeq))
	// Обходим с конца, чтобы при равных updated_at свежевставленные шли
	// первыми.
	for i := len(r.s.jobSeq) - 1; i >= 0; i-- {
		j := r.s.jobs[r.s.jobSeq[i]]
		summaries = append(summaries, models.JobSummary{
			JobID: j.JobID, UserID: j.UserID, Status: j.Status, UpdatedAt: j.UpdatedAt,
		})
	}
	sort.SliceStable(summaries, func(a, b int) bool {
		return summaries[a].UpdatedAt.After(summaries[b].UpdatedAt)
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (r *memJobRepo) RequeueStale(_ context.Context, olderThanSeconds int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.clock.Now()
	cutoff := now.Add(-time.Duration(olderThanSeconds) * time.Second)
	var n int64
	for _, j := range r.s.jobs {
		if j.Status == models.JobProcessing && j.UpdatedAt.Before(cutoff) {
			j.Status = models.JobQueued
			j.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// --- verifications ---

type memVerificationRepo struct{ s *memStore }

func (r *memVerificationRepo) Replace(_ context.Context, userID, nonce string, ttl time.Duration) (*models.TelegramVerification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for n, v := range r.s.verifications {
		if v.UserID == userID {
			delete(r.s.verifications, n)
		}
	}
	now := r.s.clock.Now()
	v := &models.TelegramVerification{
		Nonce:     nonce,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	r.s.verifications[nonce] = v
	cp := *v
	return &cp, nil
}

func (r *memVerificationRepo) CompleteByNonce(_ context.Context, nonce, telegramID, telegramUsername string, maxAttempts int, allowRelink bool) (*repositories.VerificationResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.verifications[nonce]
	if !ok {
		return &repositories.VerificationResult{Status: repositories.VerifyInvalid}, nil
	}
	now := r.s.clock.Now()
	if v.Expired(now) {
		delete(r.s.verifications, nonce)
		return &repositories.VerificationResult{Status: repositories.VerifyExpired, UserID: v.UserID}, nil
	}

	u, ok := r.s.users[v.UserID]
	if !ok {
		return &repositories.VerificationResult{Status: repositories.VerifyInvalid}, nil
	}
	if u.TelegramID != nil && !allowRelink {
		return r.fail(v, maxAttempts, repositories.VerifyRelinkDenied), nil
	}
	for id, other := range r.s.users {
		if id != v.UserID && other.TelegramID != nil && *other.TelegramID == telegramID {
			return r.fail(v, maxAttempts, repositories.VerifyConflict), nil
		}
	}

	tgID := telegramID
	u.TelegramID = &tgID
	u.TelegramUsername = telegramUsername
	t := now
	u.VerifiedAt = &t
	delete(r.s.verifications, nonce)
	return &repositories.VerificationResult{Status: repositories.VerifyOK, UserID: v.UserID, Attempts: v.Attempts}, nil
}

func (r *memVerificationRepo) FailByNonce(_ context.Context, nonce string, maxAttempts int) (*repositories.VerificationResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.verifications[nonce]
	if !ok {
		return &repositories.VerificationResult{Status: repositories.VerifyInvalid}, nil
	}
	if v.Expired(r.s.clock.Now()) {
		delete(r.s.verifications, nonce)
		return &repositories.VerificationResult{Status: repositories.VerifyExpired, UserID: v.UserID}, nil
	}
	return r.fail(v, maxAttempts, repositories.VerifyFailed), nil
}

func (r *memVerificationRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.clock.Now()
	var n int64
	for nonce, v := range r.s.verifications {
		if v.ExpiresAt.Before(now) {
			delete(r.s.verifications, nonce)
			n++
		}
	}
	return n, nil
}

// fail вызывается под уже взятым store.mu.
func (r *memVerificationRepo) fail(v *models.TelegramVerification, maxAttempts int, status string) *repositories.VerificationResult {
	v.Attempts++
	if v.Attempts >= maxAttempts {
		delete(r.s.verifications, v.Nonce)
		return &repositories.VerificationResult{Status: repositories.VerifyMaxAttempts, UserID: v.UserID, Attempts: v.Attempts}
	}
	return &repositories.VerificationResult{Status: status, UserID: v.UserID, Attempts: v.Attempts}
}

// --- posts ---

type memPostRepo struct{ s *memStore }

func (r *memPostRepo) Store(_ context.Context, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *post
	cp.CreatedAt = r.s.clock.Now()
	r.s.posts = append(r.s.posts, &cp)
	post.CreatedAt = cp.CreatedAt
	return nil
}

func (r *memPostRepo) FindByID(_ context.Context, postID string) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.posts {
		if p.PostID == postID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memPostRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Post
	for i := len(r.s.posts) - 1; i >= 0; i-- {
		if r.s.posts[i].UserID == userID {
			out = append(out, *r.s.posts[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPostRepo) ListRecent(_ context.Context, limit int) ([]models.PostSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	summaries := make([]models.PostSummary, 0, len(r.s.posts))
	for i := len(r.s.posts) - 1; i >= 0; i-- {
		p := r.s.posts[i]
		summaries = append(summaries, models.PostSummary{
			PostID: p.PostID, UserID: p.UserID, Title: p.Title, CreatedAt: p.CreatedAt,
		})
	}
	sort.SliceStable(summaries, func(a, b int) bool {
		return summaries[a].CreatedAt.After(summaries[b].CreatedAt)
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

package handlers_test

// Хендлеры тестируем через реальный роутер и middleware: собираем
// gin.Engine как в app.Run, но с сервисами-заглушками.

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/thekim123/sns-maker-hub/internal/config"
	"github.com/thekim123/sns-maker-hub/internal/handlers"
	"github.com/thekim123/sns-maker-hub/internal/models"
	"github.com/thekim123/sns-maker-hub/internal/routes"
	"github.com/thekim123/sns-maker-hub/internal/services"
)

const (
	testJWTSecret   = "test-secret"
	testAPIKey      = "test-api-key"
	testServiceTok  = "svc-token"
	testInternalKey = "internal-key"
)

type testServices struct {
	status        services.StatusService
	users         services.UserService
	jobs          services.JobService
	posts         services.PostService
	verifications services.VerificationService
	integrations  *handlers.IntegrationsHandler
}

func newTestRouter(svcs testServices) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Auth.APIKey = testAPIKey
	cfg.Auth.ServiceToken = testServiceTok
	cfg.Auth.InternalAPIKey = testInternalKey

	return routes.SetupRoutes(
		gin.New(),
		cfg,
		handlers.NewStatusHandler(svcs.status),
		handlers.NewUserHandler(svcs.users),
		handlers.NewJobHandler(svcs.jobs),
		handlers.NewPostHandler(svcs.posts),
		handlers.NewVerifyHandler(svcs.verifications),
		svcs.integrations,
	)
}

func doJSON(r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func apiKeyHeaders() map[string]string {
	return map[string]string{"X-API-Key": testAPIKey}
}

func authHeaders(t *testing.T, sub string) map[string]string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: sub}).
		SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// --- заглушки сервисов ---

var (
	_ services.JobService          = (*stubJobService)(nil)
	_ services.UserService         = (*stubUserService)(nil)
	_ services.PostService         = (*stubPostService)(nil)
	_ services.VerificationService = (*stubVerificationService)(nil)
	_ services.StatusService       = (*stubStatusService)(nil)
	_ handlers.TelegramSender      = (*stubSender)(nil)
)

type stubJobService struct {
	enqueue      func(userID string, payload json.RawMessage) (string, error)
	claimNext    func() (*models.JobClaim, error)
	submitResult func(jobID, result string, failed bool) error
	getStatus    func(jobID string) (*models.Job, error)
}

func (s *stubJobService) Enqueue(_ context.Context, userID string, payload json.RawMessage) (string, error) {
	return s.enqueue(userID, payload)
}
func (s *stubJobService) ClaimNext(_ context.Context) (*models.JobClaim, error) { return s.claimNext() }
func (s *stubJobService) SubmitResult(_ context.Context, jobID, result string, failed bool) error {
	return s.submitResult(jobID, result, failed)
}
func (s *stubJobService) GetStatus(_ context.Context, jobID string) (*models.Job, error) {
	return s.getStatus(jobID)
}

type stubUserService struct {
	register          func(userID string) error
	getProfile        func(userID string) (*models.HubUser, error)
	updateDisplayName func(userID, displayName string) error
}

func (s *stubUserService) Register(userID string) error { return s.register(userID) }
func (s *stubUserService) GetProfile(userID string) (*models.HubUser, error) {
	return s.getProfile(userID)
}
func (s *stubUserService) UpdateDisplayName(userID, displayName string) error {
	return s.updateDisplayName(userID, displayName)
}

type stubPostService struct {
	create  func(userID, title, content string) (*models.Post, error)
	getByID func(postID string) (*models.Post, error)
	latest  func(userID string) (*models.Post, error)
}

func (s *stubPostService) Create(_ context.Context, userID, title, content string) (*models.Post, error) {
	return s.create(userID, title, content)
}
func (s *stubPostService) GetByID(_ context.Context, postID string) (*models.Post, error) {
	return s.getByID(postID)
}
func (s *stubPostService) Latest(_ context.Context, userID string) (*models.Post, error) {
	return s.latest(userID)
}

type stubVerificationService struct {
	challenge func(userID, botUsername string) (*models.TelegramChallenge, error)
	complete  func(nonce, telegramID, telegramUsername string) error
}

func (s *stubVerificationService) Challenge(_ context.Context, userID, botUsername string) (*models.TelegramChallenge, error) {
	return s.challenge(userID, botUsername)
}
func (s *stubVerificationService) Complete(_ context.Context, nonce, telegramID, telegramUsername string) error {
	return s.complete(nonce, telegramID, telegramUsername)
}
func (s *stubVerificationService) PurgeExpired(_ context.Context) (int64, error) { return 0, nil }

type stubStatusService struct {
	overview func() (*models.StatusOverview, error)
}

func (s *stubStatusService) Overview(_ context.Context) (*models.StatusOverview, error) {
	return s.overview()
}

// stubSender записывает ответы бота.
type stubSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

type sentMessage struct {
	ChatID int64
	Text   string
}

func (s *stubSender) SendMessage(chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (s *stubSender) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sentMessage, len(s.sent))
	copy(out, s.sent)
	return out
}

package service

import (
	"context"
	"io"
	"time"

	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/bindisa/agritech-api/internal/llm"
	"github.com/bindisa/agritech-api/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSessionRepository mocks the SessionRepository interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.ChatSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatSession), args.Error(1)
}

func (m *MockSessionRepository) FindActive(ctx context.Context, userID string, topic domain.Topic) (*domain.ChatSession, error) {
	args := m.Called(ctx, userID, topic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatSession), args.Error(1)
}

func (m *MockSessionRepository) ListByUser(ctx context.Context, userID string, status domain.SessionStatus, limit, offset int) (*domain.SessionPage, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionPage), args.Error(1)
}

func (m *MockSessionRepository) AppendMessages(ctx context.Context, sessionID string, tokens int, messages ...domain.Message) (*domain.ChatSession, error) {
	callArgs := []interface{}{ctx, sessionID, tokens}
	for _, msg := range messages {
		callArgs = append(callArgs, msg)
	}
	args := m.Called(callArgs...)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatSession), args.Error(1)
}

func (m *MockSessionRepository) MarkRead(ctx context.Context, sessionID string, messageIDs []string) error {
	args := m.Called(ctx, sessionID, messageIDs)
	return args.Error(0)
}

func (m *MockSessionRepository) AddRating(ctx context.Context, sessionID string, rating domain.Rating) (*domain.Satisfaction, error) {
	args := m.Called(ctx, sessionID, rating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Satisfaction), args.Error(1)
}

func (m *MockSessionRepository) UpdateStatus(ctx context.Context, session *domain.ChatSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Analytics(ctx context.Context, filter domain.AnalyticsFilter) (*domain.ChatAnalytics, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatAnalytics), args.Error(1)
}

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockAgentFinder mocks the AgentFinder interface
type MockAgentFinder struct {
	mock.Mock
}

func (m *MockAgentFinder) FindAvailableAgent(ctx context.Context, roles ...domain.Role) (*domain.User, error) {
	callArgs := []interface{}{ctx}
	for _, role := range roles {
		callArgs = append(callArgs, role)
	}
	args := m.Called(callArgs...)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockSoilRepository mocks the SoilRepository interface
type MockSoilRepository struct {
	mock.Mock
}

func (m *MockSoilRepository) Create(ctx context.Context, analysis *domain.SoilAnalysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

func (m *MockSoilRepository) Get(ctx context.Context, id uuid.UUID) (*domain.SoilAnalysis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SoilAnalysis), args.Error(1)
}

func (m *MockSoilRepository) ListByUser(ctx context.Context, userID uuid.UUID, status domain.AnalysisStatus, limit, offset int) (*domain.SoilPage, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SoilPage), args.Error(1)
}

func (m *MockSoilRepository) Update(ctx context.Context, analysis *domain.SoilAnalysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

func (m *MockSoilRepository) Statistics(ctx context.Context, userID uuid.UUID) (*domain.SoilStatistics, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SoilStatistics), args.Error(1)
}

// MockLLMProvider mocks the llm.Provider interface
type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockLLMProvider) AvailableModels() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockLLMProvider) DefaultModel() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockLLMProvider) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockLLMProvider) Chat(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	args := m.Called(ctx, req, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockGoogleVerifier mocks the GoogleVerifier interface
type MockGoogleVerifier struct {
	mock.Mock
}

func (m *MockGoogleVerifier) Verify(ctx context.Context, rawToken string) (*GoogleProfile, error) {
	args := m.Called(ctx, rawToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GoogleProfile), args.Error(1)
}

// MockEmailSender mocks the notify.Sender interface
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(to, subject, htmlBody string) error {
	args := m.Called(to, subject, htmlBody)
	return args.Error(0)
}

// MockUploader mocks the storage.Uploader interface
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, file io.Reader, filename string) (*storage.UploadResult, error) {
	args := m.Called(ctx, file, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}

func (m *MockUploader) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bindisa/agritech-api/internal/config"
	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func chatTestConfig() config.ChatConfig {
	return config.ChatConfig{
		HistoryWindow:     10,
		MaxMessageLength:  2000,
		MaxTokens:         600,
		Temperature:       0.7,
		CompletionTimeout: 20 * time.Second,
	}
}

func activeSession(userID string) *domain.ChatSession {
	now := time.Now()
	return &domain.ChatSession{
		SessionID:    "chat_" + userID + "_1",
		UserID:       userID,
		Type:         domain.TypeHumanSupport,
		Status:       domain.StatusActive,
		Language:     domain.LangEnglish,
		Topic:        domain.TopicGeneralAgriculture,
		Priority:     domain.PriorityMedium,
		Messages:     []domain.Message{},
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestChatService_GetOrCreateSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.NewString()

	t.Run("returns existing active session", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewChatService(sessions, nil, nil, chatTestConfig())

		existing := activeSession(userID)
		sessions.On("FindActive", ctx, userID, domain.TopicPestControl).Return(existing, nil)

		session, err := svc.GetOrCreateSession(ctx, userID, domain.TopicPestControl, domain.LangEnglish, domain.SessionMetadata{})
		assert.NoError(t, err)
		assert.Equal(t, existing.SessionID, session.SessionID)

		sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("creates when none active", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewChatService(sessions, nil, nil, chatTestConfig())

		sessions.On("FindActive", ctx, userID, domain.TopicSoilAnalysis).Return(nil, domain.ErrSessionNotFound)
		sessions.On("Create", ctx, mock.AnythingOfType("*domain.ChatSession")).Return(nil)

		session, err := svc.GetOrCreateSession(ctx, userID, domain.TopicSoilAnalysis, domain.LangHindi, domain.SessionMetadata{Platform: "web"})
		assert.NoError(t, err)
		assert.Equal(t, userID, session.UserID)
		assert.Equal(t, domain.TypeHumanSupport, session.Type)
		assert.Equal(t, domain.StatusActive, session.Status)
		assert.Equal(t, domain.LangHindi, session.Language)
		assert.True(t, strings.HasPrefix(session.SessionID, "chat_"+userID+"_"))

		sessions.AssertExpectations(t)
	})
}

func TestChatService_SendMessage(t *testing.T) {
	ctx := context.Background()
	userID := uuid.NewString()

	t.Run("appends user and assistant messages", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewChatService(sessions, nil, nil, chatTestConfig())

		session := activeSession(userID)
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)
		sessions.On("AppendMessages", ctx, session.SessionID, 0,
			mock.AnythingOfType("domain.Message"), mock.AnythingOfType("domain.Message")).Return(session, nil)

		userMsg, botMsg, err := svc.SendMessage(ctx, userID, session.SessionID, "hello", domain.MessageText)
		assert.NoError(t, err)
		assert.Equal(t, domain.SenderUser, userMsg.Sender)
		assert.Equal(t, "hello", userMsg.Content)
		assert.Equal(t, domain.SenderAssistant, botMsg.Sender)
		assert.Equal(t, string(IntentGreeting), botMsg.Metadata.Intent)
		assert.Len(t, botMsg.QuickReplies, 3)

		sessions.AssertExpectations(t)
	})

	t.Run("rejects empty message", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewChatService(sessions, nil, nil, chatTestConfig())

		_, _, err := svc.SendMessage(ctx, userID, "chat_x_1", "", domain.MessageText)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("accepts message at the length limit", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewChatService(sessions, nil, nil, chatTestConfig())

		session := activeSession(userID)
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)
		sessions.On("AppendMessages", ctx, session.SessionID, 0,
			mock.AnythingOfType("domain.Message"), mock.AnythingOfType("domain.Message")).Return(session, nil)

		userMsg, _, err := svc.SendMessage(ctx, userID, session.SessionID, strings.Repeat("a", 2000), domain.MessageText)
		assert.NoError(t, err)
		assert.Len(t, userMsg.Content, 2000)
	})

	t.Run("rejects oversized message", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewChatService(sessions, nil, nil, chatTestConfig())

		_, _, err := svc.SendMessage(ctx, userID, "chat_x_1", strings.Repeat("a", 2001), domain.MessageText)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("rejects other user's session", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewChatService(sessions, nil, nil, chatTestConfig())

		session := activeSession(uuid.NewString())
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)

		_, _, err := svc.SendMessage(ctx, userID, session.SessionID, "hello", domain.MessageText)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("rejects closed session", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewChatService(sessions, nil, nil, chatTestConfig())

		session := activeSession(userID)
		session.Status = domain.StatusClosed
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)

		_, _, err := svc.SendMessage(ctx, userID, session.SessionID, "hello", domain.MessageText)
		assert.ErrorIs(t, err, domain.ErrSessionClosed)
	})
}

func TestChatService_Rate(t *testing.T) {
	ctx := context.Background()
	userID := uuid.NewString()

	t.Run("rejects out-of-range rating", func(t *testing.T) {
		svc := NewChatService(new(MockSessionRepository), nil, nil, chatTestConfig())

		for _, score := range []int{0, 6, -1} {
			_, err := svc.Rate(ctx, userID, "chat_x_1", score, "", "")
			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
		}
	})

	t.Run("records rating and returns summary", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewChatService(sessions, nil, nil, chatTestConfig())

		session := activeSession(userID)
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)
		sessions.On("AddRating", ctx, session.SessionID, mock.AnythingOfType("domain.Rating")).
			Return(&domain.Satisfaction{Rating: 4.5, TotalRatings: 2}, nil)

		satisfaction, err := svc.Rate(ctx, userID, session.SessionID, 5, "very helpful", "")
		assert.NoError(t, err)
		assert.Equal(t, 4.5, satisfaction.Rating)
		assert.Equal(t, 2, satisfaction.TotalRatings)

		sessions.AssertExpectations(t)
	})
}

func TestChatService_Escalate(t *testing.T) {
	ctx := context.Background()
	userID := uuid.NewString()

	t.Run("assigns most recently active expert", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		agents := new(MockAgentFinder)
		svc := NewChatService(sessions, agents, nil, chatTestConfig())

		expert := &domain.User{ID: uuid.New(), Name: "Dr. Patil", Role: domain.RoleExpert}
		agents.On("FindAvailableAgent", ctx, domain.RoleExpert, domain.RoleAgent).Return(expert, nil)

		session := activeSession(userID)
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)
		sessions.On("UpdateStatus", ctx, mock.MatchedBy(func(s *domain.ChatSession) bool {
			return s.Status == domain.StatusEscalated &&
				s.Priority == domain.PriorityHigh &&
				s.AssignedTo == expert.ID.String() &&
				s.EscalationReason == "need human help"
		})).Return(nil)

		assigned, err := svc.Escalate(ctx, userID, session.SessionID, "need human help")
		assert.NoError(t, err)
		assert.Equal(t, "Dr. Patil", assigned)

		sessions.AssertExpectations(t)
		agents.AssertExpectations(t)
	})

	t.Run("escalates even when nobody is available", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		agents := new(MockAgentFinder)
		svc := NewChatService(sessions, agents, nil, chatTestConfig())

		agents.On("FindAvailableAgent", ctx, domain.RoleExpert, domain.RoleAgent).Return(nil, nil)

		session := activeSession(userID)
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)
		sessions.On("UpdateStatus", ctx, mock.MatchedBy(func(s *domain.ChatSession) bool {
			return s.Status == domain.StatusEscalated && s.AssignedTo == ""
		})).Return(nil)

		assigned, err := svc.Escalate(ctx, userID, session.SessionID, "urgent")
		assert.NoError(t, err)
		assert.Empty(t, assigned)
	})

	t.Run("retries on version conflict", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		agents := new(MockAgentFinder)
		svc := NewChatService(sessions, agents, nil, chatTestConfig())

		agents.On("FindAvailableAgent", ctx, domain.RoleExpert, domain.RoleAgent).Return(nil, nil)

		session := activeSession(userID)
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)
		sessions.On("UpdateStatus", ctx, mock.AnythingOfType("*domain.ChatSession")).
			Return(domain.ErrVersionConflict).Once()
		sessions.On("UpdateStatus", ctx, mock.AnythingOfType("*domain.ChatSession")).
			Return(nil).Once()

		_, err := svc.Escalate(ctx, userID, session.SessionID, "retry me")
		assert.NoError(t, err)

		sessions.AssertExpectations(t)
	})
}

func TestChatService_Close(t *testing.T) {
	ctx := context.Background()
	userID := uuid.NewString()

	sessions := new(MockSessionRepository)
	svc := NewChatService(sessions, nil, nil, chatTestConfig())

	session := activeSession(userID)
	sessions.On("Get", ctx, session.SessionID).Return(session, nil)
	sessions.On("UpdateStatus", ctx, mock.MatchedBy(func(s *domain.ChatSession) bool {
		return s.Status == domain.StatusClosed
	})).Return(nil)

	assert.NoError(t, svc.Close(ctx, userID, session.SessionID, "resolved over chat"))
	sessions.AssertExpectations(t)
}

func TestChatService_History(t *testing.T) {
	ctx := context.Background()
	userID := uuid.NewString()

	sessions := new(MockSessionRepository)
	svc := NewChatService(sessions, nil, nil, chatTestConfig())

	session := activeSession(userID)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		session.Messages = append(session.Messages, domain.Message{
			ID:        uuid.NewString(),
			Sender:    domain.SenderUser,
			Content:   "msg",
			Type:      domain.MessageText,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	session.MessageCount = 5
	sessions.On("Get", ctx, session.SessionID).Return(session, nil)

	t.Run("limits to newest messages", func(t *testing.T) {
		messages, total, hasMore, err := svc.History(ctx, userID, session.SessionID, nil, 2)
		assert.NoError(t, err)
		assert.Len(t, messages, 2)
		assert.Equal(t, 5, total)
		assert.True(t, hasMore)
	})

	t.Run("filters by before timestamp", func(t *testing.T) {
		cutoff := base.Add(2 * time.Minute)
		messages, _, _, err := svc.History(ctx, userID, session.SessionID, &cutoff, 50)
		assert.NoError(t, err)
		assert.Len(t, messages, 2)
	})
}

func TestChatService_Analytics(t *testing.T) {
	ctx := context.Background()

	sessions := new(MockSessionRepository)
	svc := NewChatService(sessions, nil, nil, chatTestConfig())

	filter := domain.AnalyticsFilter{Topic: domain.TopicPestControl}
	expected := &domain.ChatAnalytics{Overview: domain.AnalyticsOverview{TotalSessions: 7}}
	sessions.On("Analytics", ctx, filter).Return(expected, nil)

	analytics, err := svc.Analytics(ctx, filter)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), analytics.Overview.TotalSessions)
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bindisa/agritech-api/internal/config"
	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/bindisa/agritech-api/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func assistantLLMConfig() config.LLMConfig {
	return config.LLMConfig{DefaultProvider: "mock-provider"}
}

func newMockProvider() *MockLLMProvider {
	provider := new(MockLLMProvider)
	provider.On("Name").Return("mock-provider")
	provider.On("IsConfigured").Return(true)
	provider.On("DefaultModel").Return("mock-model")
	return provider
}

func TestAssistantService_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous session with localized welcome", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewAssistantService(sessions, llm.NewRouter("mock-provider"), chatTestConfig(), assistantLLMConfig())

		sessions.On("Create", ctx, mock.AnythingOfType("*domain.ChatSession")).Return(nil)

		session, welcome, err := svc.CreateSession(ctx, "", domain.LangHindi, domain.TopicGeneralAgriculture, domain.SessionMetadata{Platform: "web"})
		assert.NoError(t, err)
		assert.True(t, session.IsAnonymous)
		assert.Equal(t, domain.TypeAIAssistant, session.Type)
		assert.True(t, strings.HasPrefix(session.SessionID, "session_"))
		assert.Equal(t, welcomeMessages[domain.LangHindi], welcome)

		sessions.AssertExpectations(t)
	})

	t.Run("unknown language falls back to english welcome", func(t *testing.T) {
		assert.Equal(t, welcomeMessages[domain.LangEnglish], WelcomeMessage(domain.Language("xx")))
	})
}

func TestAssistantService_SendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("appends model reply with usage metadata", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		provider := newMockProvider()
		router := llm.NewRouter("mock-provider")
		router.RegisterProvider(provider)
		svc := NewAssistantService(sessions, router, chatTestConfig(), assistantLLMConfig())

		session := activeSession("")
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)

		provider.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
			return len(req.Messages) >= 2 &&
				req.Messages[0].Role == llm.RoleSystem &&
				req.Messages[len(req.Messages)-1].Content == "how much water does rice need?"
		}), "mock-model").Return(&llm.Response{
			Content:    "Rice needs standing water during tillering.",
			Model:      "mock-model",
			TokensUsed: 42,
		}, nil)

		sessions.On("AppendMessages", ctx, session.SessionID, 42,
			mock.AnythingOfType("domain.Message"), mock.AnythingOfType("domain.Message")).Return(session, nil)

		reply, err := svc.SendMessage(ctx, session.SessionID, "how much water does rice need?", "", "")
		assert.NoError(t, err)
		assert.False(t, reply.Fallback)
		assert.Equal(t, "Rice needs standing water during tillering.", reply.Message.Content)
		assert.Equal(t, "mock-model", reply.Message.Metadata.Model)
		assert.Equal(t, 42, reply.Message.Metadata.Tokens)

		sessions.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("model failure degrades to localized fallback", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		provider := newMockProvider()
		router := llm.NewRouter("mock-provider")
		router.RegisterProvider(provider)
		svc := NewAssistantService(sessions, router, chatTestConfig(), assistantLLMConfig())

		session := activeSession("")
		session.Language = domain.LangMarathi
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)
		provider.On("Chat", mock.Anything, mock.Anything, "mock-model").
			Return(nil, errors.New("upstream 500"))
		sessions.On("AppendMessages", ctx, session.SessionID, 0,
			mock.AnythingOfType("domain.Message"), mock.AnythingOfType("domain.Message")).Return(session, nil)

		reply, err := svc.SendMessage(ctx, session.SessionID, "माझ्या पिकाला काय झाले?", "", "")
		assert.NoError(t, err)
		assert.True(t, reply.Fallback)
		assert.Equal(t, fallbackResponses[domain.LangMarathi], reply.Message.Content)
		assert.True(t, reply.Message.Metadata.Fallback)
		assert.Equal(t, "ai_service_unavailable", reply.Message.Metadata.Error)

		sessions.AssertExpectations(t)
	})

	t.Run("missing provider also degrades to fallback", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewAssistantService(sessions, llm.NewRouter("mock-provider"), chatTestConfig(), assistantLLMConfig())

		session := activeSession("")
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)
		sessions.On("AppendMessages", ctx, session.SessionID, 0,
			mock.AnythingOfType("domain.Message"), mock.AnythingOfType("domain.Message")).Return(session, nil)

		reply, err := svc.SendMessage(ctx, session.SessionID, "hello", "", "")
		assert.NoError(t, err)
		assert.True(t, reply.Fallback)
	})

	t.Run("rejects closed session", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewAssistantService(sessions, llm.NewRouter("mock-provider"), chatTestConfig(), assistantLLMConfig())

		session := activeSession("")
		session.Status = domain.StatusClosed
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)

		_, err := svc.SendMessage(ctx, session.SessionID, "hello", "", "")
		assert.ErrorIs(t, err, domain.ErrSessionClosed)
	})

	t.Run("accepts message at the length limit", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewAssistantService(sessions, llm.NewRouter("mock-provider"), chatTestConfig(), assistantLLMConfig())

		session := activeSession("")
		sessions.On("Get", ctx, session.SessionID).Return(session, nil)
		sessions.On("AppendMessages", ctx, session.SessionID, 0,
			mock.AnythingOfType("domain.Message"), mock.AnythingOfType("domain.Message")).Return(session, nil)

		_, err := svc.SendMessage(ctx, session.SessionID, strings.Repeat("x", 2000), "", "")
		assert.NoError(t, err)
	})

	t.Run("rejects oversized message before touching storage", func(t *testing.T) {
		sessions := new(MockSessionRepository)
		svc := NewAssistantService(sessions, llm.NewRouter("mock-provider"), chatTestConfig(), assistantLLMConfig())

		_, err := svc.SendMessage(ctx, "session_1_abc", strings.Repeat("x", 2001), "", "")
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
		sessions.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestAssistantService_HistoryWindow(t *testing.T) {
	ctx := context.Background()

	sessions := new(MockSessionRepository)
	provider := newMockProvider()
	router := llm.NewRouter("mock-provider")
	router.RegisterProvider(provider)
	svc := NewAssistantService(sessions, router, chatTestConfig(), assistantLLMConfig())

	session := activeSession("")
	for i := 0; i < 25; i++ {
		session.Messages = append(session.Messages, domain.Message{
			Sender:    domain.SenderUser,
			Content:   "old",
			Timestamp: time.Now(),
		})
	}
	sessions.On("Get", ctx, session.SessionID).Return(session, nil)

	// system prompt + 9 stored messages + the new user message; the
	// window of 10 counts the current turn
	provider.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return len(req.Messages) == 11
	}), "mock-model").Return(&llm.Response{Content: "ok", Model: "mock-model"}, nil)

	sessions.On("AppendMessages", ctx, session.SessionID, 0,
		mock.AnythingOfType("domain.Message"), mock.AnythingOfType("domain.Message")).Return(session, nil)

	_, err := svc.SendMessage(ctx, session.SessionID, "new question", "", "")
	assert.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestAssistantService_ContextWindowCountsCurrentTurn(t *testing.T) {
	ctx := context.Background()

	sessions := new(MockSessionRepository)
	provider := newMockProvider()
	router := llm.NewRouter("mock-provider")
	router.RegisterProvider(provider)
	svc := NewAssistantService(sessions, router, chatTestConfig(), assistantLLMConfig())

	session := activeSession("")
	for i := 0; i < 21; i++ {
		session.Messages = append(session.Messages, domain.Message{
			Sender:    domain.SenderUser,
			Content:   "old",
			Timestamp: time.Now(),
		})
	}
	sessions.On("Get", ctx, session.SessionID).Return(session, nil)

	provider.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		nonSystem := 0
		for _, m := range req.Messages {
			if m.Role != llm.RoleSystem {
				nonSystem++
			}
		}
		return nonSystem == 10
	}), "mock-model").Return(&llm.Response{Content: "ok", Model: "mock-model"}, nil)

	sessions.On("AppendMessages", ctx, session.SessionID, 0,
		mock.AnythingOfType("domain.Message"), mock.AnythingOfType("domain.Message")).Return(session, nil)

	_, err := svc.SendMessage(ctx, session.SessionID, "new question", "", "")
	assert.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestAssistantService_AgentTurnsExcludedFromContext(t *testing.T) {
	ctx := context.Background()

	sessions := new(MockSessionRepository)
	provider := newMockProvider()
	router := llm.NewRouter("mock-provider")
	router.RegisterProvider(provider)
	svc := NewAssistantService(sessions, router, chatTestConfig(), assistantLLMConfig())

	session := activeSession("")
	session.Messages = append(session.Messages,
		domain.Message{Sender: domain.SenderUser, Content: "question", Timestamp: time.Now()},
		domain.Message{Sender: domain.SenderAgent, Content: "agent aside", Timestamp: time.Now()},
		domain.Message{Sender: domain.SenderAssistant, Content: "answer", Timestamp: time.Now()},
	)
	sessions.On("Get", ctx, session.SessionID).Return(session, nil)

	provider.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		for _, m := range req.Messages {
			if m.Content == "agent aside" {
				return false
			}
		}
		return len(req.Messages) == 4
	}), "mock-model").Return(&llm.Response{Content: "ok", Model: "mock-model"}, nil)

	sessions.On("AppendMessages", ctx, session.SessionID, 0,
		mock.AnythingOfType("domain.Message"), mock.AnythingOfType("domain.Message")).Return(session, nil)

	_, err := svc.SendMessage(ctx, session.SessionID, "followup", "", "")
	assert.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestAssistantService_History(t *testing.T) {
	ctx := context.Background()

	sessions := new(MockSessionRepository)
	svc := NewAssistantService(sessions, llm.NewRouter("mock-provider"), chatTestConfig(), assistantLLMConfig())

	session := activeSession("")
	for i := 0; i < 7; i++ {
		session.Messages = append(session.Messages, domain.Message{Content: "m", Timestamp: time.Now()})
	}
	sessions.On("Get", ctx, session.SessionID).Return(session, nil)

	t.Run("first page", func(t *testing.T) {
		messages, _, err := svc.History(ctx, session.SessionID, 1, 5)
		assert.NoError(t, err)
		assert.Len(t, messages, 5)
	})

	t.Run("last partial page", func(t *testing.T) {
		messages, _, err := svc.History(ctx, session.SessionID, 2, 5)
		assert.NoError(t, err)
		assert.Len(t, messages, 2)
	})

	t.Run("page past the end", func(t *testing.T) {
		messages, _, err := svc.History(ctx, session.SessionID, 5, 5)
		assert.NoError(t, err)
		assert.Empty(t, messages)
	})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bindisa/agritech-api/internal/config"
	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// statusUpdateRetries bounds compare-and-swap retries on concurrent
// status transitions
const statusUpdateRetries = 3

// AnalyticsCache stores aggregated analytics keyed by filter
type AnalyticsCache interface {
	Get(ctx context.Context, filter domain.AnalyticsFilter) (*domain.ChatAnalytics, error)
	Set(ctx context.Context, filter domain.AnalyticsFilter, analytics *domain.ChatAnalytics) error
}

// ChatService drives authenticated support conversations answered by the
// keyword assistant, including escalation and session lifecycle.
type ChatService struct {
	sessions domain.SessionRepository
	agents   domain.AgentFinder
	cache    AnalyticsCache
	cfg      config.ChatConfig
}

// NewChatService creates a new chat service. cache may be nil.
func NewChatService(
	sessions domain.SessionRepository,
	agents domain.AgentFinder,
	cache AnalyticsCache,
	cfg config.ChatConfig,
) *ChatService {
	return &ChatService{
		sessions: sessions,
		agents:   agents,
		cache:    cache,
		cfg:      cfg,
	}
}

// GetOrCreateSession returns the user's most recent active session on the
// topic, creating one when none exists.
func (s *ChatService) GetOrCreateSession(ctx context.Context, userID string, topic domain.Topic, language domain.Language, meta domain.SessionMetadata) (*domain.ChatSession, error) {
	session, err := s.sessions.FindActive(ctx, userID, topic)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}

	now := time.Now()
	session = &domain.ChatSession{
		SessionID:    fmt.Sprintf("chat_%s_%d", userID, now.UnixMilli()),
		UserID:       userID,
		Type:         domain.TypeHumanSupport,
		Status:       domain.StatusActive,
		Language:     language,
		Topic:        topic,
		Priority:     domain.PriorityMedium,
		Messages:     []domain.Message{},
		LastActivity: now,
		Metadata:     meta,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SendMessage appends the user's message and the assistant's canned reply
// in one atomic update, returning both.
func (s *ChatService) SendMessage(ctx context.Context, userID, sessionID, content string, msgType domain.MessageType) (*domain.Message, *domain.Message, error) {
	if content == "" {
		return nil, nil, &domain.ValidationError{Field: "message", Message: "message is required"}
	}
	if len(content) > s.maxMessageLength() {
		return nil, nil, &domain.ValidationError{Field: "message", Message: fmt.Sprintf("message exceeds %d characters", s.maxMessageLength())}
	}
	if msgType == "" {
		msgType = domain.MessageText
	}

	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status == domain.StatusClosed || session.Status == domain.StatusResolved {
		return nil, nil, domain.ErrSessionClosed
	}

	now := time.Now()
	userMsg := domain.Message{
		ID:        uuid.NewString(),
		Sender:    domain.SenderUser,
		Content:   content,
		Type:      msgType,
		IsRead:    true,
		Timestamp: now,
	}

	reply := AssistResponse(content)
	botMsg := domain.Message{
		ID:           uuid.NewString(),
		Sender:       domain.SenderAssistant,
		Content:      reply.Text,
		Type:         domain.MessageText,
		QuickReplies: reply.QuickReplies,
		Metadata: &domain.MessageMetadata{
			Intent:     string(reply.Intent),
			Confidence: reply.Confidence,
		},
		Timestamp: now,
	}

	if _, err := s.sessions.AppendMessages(ctx, sessionID, 0, userMsg, botMsg); err != nil {
		return nil, nil, err
	}
	return &userMsg, &botMsg, nil
}

// History returns up to limit messages, optionally only those before a
// given timestamp, plus whether older messages remain.
func (s *ChatService) History(ctx context.Context, userID, sessionID string, before *time.Time, limit int) ([]domain.Message, int, bool, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, 0, false, err
	}

	if limit <= 0 {
		limit = 50
	}

	var messages []domain.Message
	if before != nil {
		messages = session.MessagesBefore(*before, limit)
	} else {
		messages = session.RecentMessages(limit)
	}

	hasMore := session.MessageCount > limit
	return messages, session.MessageCount, hasMore, nil
}

// ListSessions pages through the user's sessions, newest activity first
func (s *ChatService) ListSessions(ctx context.Context, userID string, status domain.SessionStatus, limit, offset int) (*domain.SessionPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.sessions.ListByUser(ctx, userID, status, limit, offset)
}

// MarkRead flags messages as read; an empty ID list marks everything
// the assistant or an agent sent.
func (s *ChatService) MarkRead(ctx context.Context, userID, sessionID string, messageIDs []string) error {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.sessions.MarkRead(ctx, sessionID, messageIDs)
}

// Rate records a satisfaction score between 1 and 5
func (s *ChatService) Rate(ctx context.Context, userID, sessionID string, score int, feedback, messageID string) (*domain.Satisfaction, error) {
	if score < 1 || score > 5 {
		return nil, &domain.ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}
	if len(feedback) > 500 {
		return nil, &domain.ValidationError{Field: "feedback", Message: "feedback exceeds 500 characters"}
	}

	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	rating := domain.Rating{
		Score:     score,
		Feedback:  feedback,
		MessageID: messageID,
		Timestamp: time.Now(),
	}
	return s.sessions.AddRating(ctx, sessionID, rating)
}

// Escalate hands the session to a human expert, assigning the most
// recently active one when available. Returns the assigned expert's name,
// empty when nobody is on hand.
func (s *ChatService) Escalate(ctx context.Context, userID, sessionID, reason string) (string, error) {
	expert, err := s.agents.FindAvailableAgent(ctx, domain.RoleExpert, domain.RoleAgent)
	if err != nil {
		return "", fmt.Errorf("failed to find expert: %w", err)
	}

	assignedName := ""
	err = s.transition(ctx, userID, sessionID, func(session *domain.ChatSession) error {
		if session.Status == domain.StatusClosed {
			return domain.ErrSessionClosed
		}
		session.Status = domain.StatusEscalated
		session.Priority = domain.PriorityHigh
		session.EscalationReason = reason
		if expert != nil {
			session.AssignedTo = expert.ID.String()
			assignedName = expert.Name
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if expert == nil {
		log.Warn().Str("session_id", sessionID).Msg("No expert available for escalated session")
	}
	return assignedName, nil
}

// Resolve marks the session resolved. Used by the operator side, so no
// ownership check.
func (s *ChatService) Resolve(ctx context.Context, sessionID string) error {
	return s.transitionAny(ctx, sessionID, func(session *domain.ChatSession) error {
		if session.Status == domain.StatusClosed {
			return domain.ErrSessionClosed
		}
		session.Status = domain.StatusResolved
		return nil
	})
}

// Close ends the session, recording a closing note when one is given
func (s *ChatService) Close(ctx context.Context, userID, sessionID, note string) error {
	return s.transition(ctx, userID, sessionID, func(session *domain.ChatSession) error {
		session.Status = domain.StatusClosed
		if note != "" {
			session.Notes = append(session.Notes, domain.Note{
				Content:   note,
				AuthorID:  userID,
				Timestamp: time.Now(),
			})
		}
		return nil
	})
}

// AddNote attaches an operator annotation to the session
func (s *ChatService) AddNote(ctx context.Context, authorID, sessionID, content string) error {
	if content == "" {
		return &domain.ValidationError{Field: "content", Message: "note content is required"}
	}
	return s.transitionAny(ctx, sessionID, func(session *domain.ChatSession) error {
		session.Notes = append(session.Notes, domain.Note{
			Content:   content,
			AuthorID:  authorID,
			Timestamp: time.Now(),
		})
		return nil
	})
}

// Analytics aggregates session metrics, serving cached results when fresh
func (s *ChatService) Analytics(ctx context.Context, filter domain.AnalyticsFilter) (*domain.ChatAnalytics, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, filter)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read analytics cache")
		} else if cached != nil {
			return cached, nil
		}
	}

	analytics, err := s.sessions.Analytics(ctx, filter)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, filter, analytics); err != nil {
			log.Warn().Err(err).Msg("Failed to write analytics cache")
		}
	}
	return analytics, nil
}

func (s *ChatService) maxMessageLength() int {
	if s.cfg.MaxMessageLength > 0 {
		return s.cfg.MaxMessageLength
	}
	return domain.MaxMessageLength
}

// GetSession returns one session. An empty userID skips the ownership
// check, for admin access.
func (s *ChatService) GetSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	return s.ownedSession(ctx, userID, sessionID)
}

// ownedSession loads a session and enforces ownership. An empty userID
// means operator access and bypasses the check.
func (s *ChatService) ownedSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if userID != "" && session.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return session, nil
}

// transition applies mutate and persists via compare-and-swap, retrying
// a bounded number of times when a concurrent writer wins.
func (s *ChatService) transition(ctx context.Context, userID, sessionID string, mutate func(*domain.ChatSession) error) error {
	for attempt := 0; attempt < statusUpdateRetries; attempt++ {
		session, err := s.ownedSession(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if err := mutate(session); err != nil {
			return err
		}
		err = s.sessions.UpdateStatus(ctx, session)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
	}
	return domain.ErrVersionConflict
}

// transitionAny is transition without the ownership check, for
// agent and admin side updates
func (s *ChatService) transitionAny(ctx context.Context, sessionID string, mutate func(*domain.ChatSession) error) error {
	for attempt := 0; attempt < statusUpdateRetries; attempt++ {
		session, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := mutate(session); err != nil {
			return err
		}
		err = s.sessions.UpdateStatus(ctx, session)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
	}
	return domain.ErrVersionConflict
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bindisa/agritech-api/internal/api/middleware"
	"github.com/bindisa/agritech-api/internal/api/response"
	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/bindisa/agritech-api/internal/service"
	"github.com/go-chi/chi/v5"
)

// ChatHandler handles the authenticated support chat endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// writeChatError maps domain errors to HTTP statuses
func writeChatError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		response.BadRequest(w, map[string]string{verr.Field: verr.Message})
	case errors.Is(err, domain.ErrSessionNotFound):
		response.NotFound(w, "chat session not found")
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(w, "access denied")
	case errors.Is(err, domain.ErrSessionClosed):
		response.Error(w, http.StatusConflict, "chat session is closed")
	case errors.Is(err, domain.ErrVersionConflict):
		response.Error(w, http.StatusConflict, "session was updated concurrently, please retry")
	default:
		response.InternalError(w, err.Error())
	}
}

func requestMetadata(r *http.Request) domain.SessionMetadata {
	return domain.SessionMetadata{
		Platform:  "web",
		UserAgent: r.UserAgent(),
		IPAddress: r.Header.Get("X-Forwarded-For"),
	}
}

// GetOrCreateSession returns the caller's active session on a topic,
// creating one when needed
func (h *ChatHandler) GetOrCreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input struct {
		Topic    string `json:"topic"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	session, err := h.chatService.GetOrCreateSession(
		r.Context(),
		userID.String(),
		domain.ParseTopic(input.Topic),
		domain.ParseLanguage(input.Language),
		requestMetadata(r),
	)
	if err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, map[string]any{"session": session})
}

// SendMessage finds or creates the caller's active session on the topic,
// appends the message, and returns it with the assistant's reply
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input struct {
		Message  string `json:"message"`
		Type     string `json:"type"`
		Topic    string `json:"topic"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	session, err := h.chatService.GetOrCreateSession(
		r.Context(),
		userID.String(),
		domain.ParseTopic(input.Topic),
		domain.ParseLanguage(input.Language),
		requestMetadata(r),
	)
	if err != nil {
		writeChatError(w, err)
		return
	}

	userMsg, botMsg, err := h.chatService.SendMessage(r.Context(), userID.String(), session.SessionID, input.Message, domain.MessageType(input.Type))
	if err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"session_id":   session.SessionID,
		"user_message": userMsg,
		"bot_message":  botMsg,
		"intent":       botMsg.Metadata.Intent,
	})
}

// ownerID resolves the ownership scope for session reads: admins see any
// session, everyone else only their own
func ownerID(r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		return "", false
	}
	if role, _ := middleware.GetUserRole(r.Context()); role == domain.RoleAdmin {
		return "", true
	}
	return userID.String(), true
}

// GetSession returns one session with its embedded log
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	session, err := h.chatService.GetSession(r.Context(), owner, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, map[string]any{"session": session})
}

// History returns a session's recent messages
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(r)
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(w, "before must be an RFC3339 timestamp")
			return
		}
		before = &t
	}

	messages, total, hasMore, err := h.chatService.History(r.Context(), userID, sessionID, before, limit)
	if err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"session_id":     sessionID,
		"messages":       messages,
		"total_messages": total,
		"has_more":       hasMore,
	})
}

// ListSessions pages through the caller's sessions
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := domain.SessionStatus(r.URL.Query().Get("status"))

	page, err := h.chatService.ListSessions(r.Context(), userID.String(), status, limit, offset)
	if err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, page)
}

// MarkRead flags messages as read
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var input struct {
		MessageIDs []string `json:"message_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.chatService.MarkRead(r.Context(), userID.String(), sessionID, input.MessageIDs); err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "messages marked as read"})
}

// Rate records a satisfaction score for the session
func (h *ChatHandler) Rate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var input struct {
		Rating    int    `json:"rating"`
		Feedback  string `json:"feedback"`
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	satisfaction, err := h.chatService.Rate(r.Context(), userID.String(), sessionID, input.Rating, input.Feedback, input.MessageID)
	if err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, map[string]any{"satisfaction": satisfaction})
}

// Escalate hands the session over to a human expert
func (h *ChatHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var input struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	assigned, err := h.chatService.Escalate(r.Context(), userID.String(), sessionID, input.Reason)
	if err != nil {
		writeChatError(w, err)
		return
	}

	result := map[string]any{"escalation_reason": input.Reason}
	if assigned != "" {
		result["assigned_expert"] = assigned
	}
	response.OK(w, result)
}

// Resolve marks the session resolved; expert, agent and admin only
func (h *ChatHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.chatService.Resolve(r.Context(), sessionID); err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "chat session resolved"})
}

// Close ends the session, with an optional closing note
func (h *ChatHandler) Close(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var input struct {
		Note string `json:"note"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&input)
	}

	if err := h.chatService.Close(r.Context(), userID.String(), sessionID, input.Note); err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "chat session closed"})
}

// AddNote attaches an operator note; expert, agent and admin only
func (h *ChatHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.chatService.AddNote(r.Context(), userID.String(), sessionID, input.Content); err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "note added"})
}

// Analytics returns aggregated session metrics; admin only
func (h *ChatHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AnalyticsFilter{
		Language: domain.Language(q.Get("language")),
		Topic:    domain.Topic(q.Get("topic")),
		Status:   domain.SessionStatus(q.Get("status")),
	}

	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(w, "from must be an RFC3339 timestamp")
			return
		}
		filter.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(w, "to must be an RFC3339 timestamp")
			return
		}
		filter.To = &t
	}

	analytics, err := h.chatService.Analytics(r.Context(), filter)
	if err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, analytics)
}

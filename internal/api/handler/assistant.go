package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bindisa/agritech-api/internal/api/middleware"
	"github.com/bindisa/agritech-api/internal/api/response"
	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/bindisa/agritech-api/internal/service"
	"github.com/go-chi/chi/v5"
)

// AssistantHandler handles the public AI assistant endpoints. Sessions
// are open to anonymous visitors; a signed-in caller's ID is attached
// when the request carries a valid token.
type AssistantHandler struct {
	assistantService *service.AssistantService
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistantService *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// CreateSession opens a new assistant session
func (h *AssistantHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Language string `json:"language"`
		Topic    string `json:"topic"`
		Platform string `json:"platform"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	var userID string
	if id, ok := middleware.GetUserID(r.Context()); ok {
		userID = id.String()
	}

	meta := requestMetadata(r)
	if input.Platform != "" {
		meta.Platform = input.Platform
	}

	session, welcome, err := h.assistantService.CreateSession(
		r.Context(),
		userID,
		domain.ParseLanguage(input.Language),
		domain.ParseTopic(input.Topic),
		meta,
	)
	if err != nil {
		writeChatError(w, err)
		return
	}

	response.Created(w, map[string]any{
		"session_id":      session.SessionID,
		"welcome_message": welcome,
		"language":        session.Language,
		"status":          session.Status,
	})
}

// SendMessage runs one assistant turn, creating a session on the fly when
// none is given. Model outages still answer 200 with the fallback flag set
// so clients render the apology inline.
func (h *AssistantHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
		Language  string `json:"language"`
		Provider  string `json:"provider"`
		Model     string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	sessionID := input.SessionID
	if sessionID == "" {
		var userID string
		if id, ok := middleware.GetUserID(r.Context()); ok {
			userID = id.String()
		}
		session, _, err := h.assistantService.CreateSession(
			r.Context(),
			userID,
			domain.ParseLanguage(input.Language),
			domain.ParseTopic(""),
			requestMetadata(r),
		)
		if err != nil {
			writeChatError(w, err)
			return
		}
		sessionID = session.SessionID
	}

	reply, err := h.assistantService.SendMessage(r.Context(), sessionID, input.Message, input.Provider, input.Model)
	if err != nil {
		writeChatError(w, err)
		return
	}

	var tokens int
	if reply.Message.Metadata != nil {
		tokens = reply.Message.Metadata.Tokens
	}
	response.OK(w, map[string]any{
		"message":     reply.Message.Content,
		"session_id":  sessionID,
		"message_id":  reply.Message.ID,
		"tokens_used": tokens,
		"fallback":    reply.Fallback,
	})
}

// Rate records a satisfaction score for an assistant session
func (h *AssistantHandler) Rate(w http.ResponseWriter, r *http.Request) {
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

	satisfaction, err := h.assistantService.Rate(r.Context(), sessionID, input.Rating, input.Feedback, input.MessageID)
	if err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, map[string]any{"satisfaction": satisfaction})
}

// History pages through an assistant session's transcript
func (h *AssistantHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, session, err := h.assistantService.History(r.Context(), sessionID, page, limit)
	if err != nil {
		writeChatError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"session_id":     sessionID,
		"language":       session.Language,
		"status":         session.Status,
		"messages":       messages,
		"total_messages": len(session.Messages),
	})
}

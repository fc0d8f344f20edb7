package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bindisa/agritech-api/internal/config"
	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/bindisa/agritech-api/internal/llm"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var welcomeMessages = map[domain.Language]string{
	domain.LangEnglish: "Hello! I'm your AI agricultural assistant from Bindisa Agritech. I'm here to help you with all your farming questions including crops, soil, pests, fertilizers, and modern farming techniques. What would you like to know?",
	domain.LangHindi:   "नमस्ते! मैं बिंदिसा एग्रीटेक का AI कृषि सहायक हूं। मैं फसल, मिट्टी, कीट, उर्वरक, और आधुनिक कृषि तकनीकों से जुड़े आपके सभी प्रश्नों में मदद करने के लिए यहां हूं। आप क्या जानना चाहते हैं?",
	domain.LangMarathi: "नमस्कार! मी बिंदिसा एग्रीटेकचा AI कृषी सहाय्यक आहे. मी पीक, माती, कीड, खत, आणि आधुनिक शेती तंत्रांशी संबंधित तुमच्या सर्व प्रश्नांमध्ये मदत करण्यासाठी इथे आहे. तुम्हाला काय जाणून घ्यायचे आहे?",
}

var fallbackResponses = map[domain.Language]string{
	domain.LangEnglish: "I apologize, but I'm experiencing technical difficulties right now. Please try again in a moment, or contact our agricultural experts directly at +91-XXXXXXXXXX for immediate assistance with your farming questions.",
	domain.LangHindi:   "मुझे खुशी है, लेकिन मुझे अभी तकनीकी समस्या हो रही है। कृपया थोड़ी देर बाद फिर कोशिश करें, या अपने कृषि प्रश्नों के लिए तत्काल सहायता हेतु हमारे कृषि विशेषज्ञों से +91-XXXXXXXXXX पर सीधे संपर्क करें।",
	domain.LangMarathi: "मला खुशी आहे, पण मला सध्या तांत्रिक अडचण येत आहे. कृपया थोड्या वेळाने पुन्हा प्रयत्न करा, किंवा तुमच्या शेतीच्या प्रश्नांसाठी त्वरित मदतीसाठी आमच्या कृषी तज्ञांशी +91-XXXXXXXXXX वर थेट संपर्क साधा.",
}

// WelcomeMessage returns the greeting for a new assistant session
func WelcomeMessage(language domain.Language) string {
	if msg, ok := welcomeMessages[language]; ok {
		return msg
	}
	return welcomeMessages[domain.LangEnglish]
}

func fallbackMessage(language domain.Language) string {
	if msg, ok := fallbackResponses[language]; ok {
		return msg
	}
	return fallbackResponses[domain.LangEnglish]
}

// AssistantReply is the outcome of one assistant turn
type AssistantReply struct {
	Message  domain.Message
	Fallback bool
}

// AssistantService drives LLM-backed conversations. Sessions are open to
// anonymous visitors; a model outage degrades to a canned apology rather
// than an error.
type AssistantService struct {
	sessions domain.SessionRepository
	router   *llm.Router
	cfg      config.ChatConfig
	llmCfg   config.LLMConfig
}

// NewAssistantService creates a new assistant service
func NewAssistantService(
	sessions domain.SessionRepository,
	router *llm.Router,
	cfg config.ChatConfig,
	llmCfg config.LLMConfig,
) *AssistantService {
	return &AssistantService{
		sessions: sessions,
		router:   router,
		cfg:      cfg,
		llmCfg:   llmCfg,
	}
}

// CreateSession opens a new assistant session with the localized welcome
// recorded as the first assistant message, and returns both.
func (s *AssistantService) CreateSession(ctx context.Context, userID string, language domain.Language, topic domain.Topic, meta domain.SessionMetadata) (*domain.ChatSession, string, error) {
	now := time.Now()
	welcome := domain.Message{
		ID:        uuid.NewString(),
		Sender:    domain.SenderAssistant,
		Content:   WelcomeMessage(language),
		Type:      domain.MessageText,
		Timestamp: now,
	}
	session := &domain.ChatSession{
		SessionID:    newSessionID(now),
		UserID:       userID,
		Type:         domain.TypeAIAssistant,
		Status:       domain.StatusActive,
		Language:     language,
		Topic:        topic,
		Priority:     domain.PriorityMedium,
		Messages:     []domain.Message{welcome},
		MessageCount: 1,
		LastActivity: now,
		Metadata:     meta,
		IsAnonymous:  userID == "",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", err
	}
	return session, welcome.Content, nil
}

// Rate records a satisfaction score between 1 and 5. The session token is
// the capability here, so no ownership check.
func (s *AssistantService) Rate(ctx context.Context, sessionID string, score int, feedback, messageID string) (*domain.Satisfaction, error) {
	if score < 1 || score > 5 {
		return nil, &domain.ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}
	if len(feedback) > 500 {
		return nil, &domain.ValidationError{Field: "feedback", Message: "feedback exceeds 500 characters"}
	}
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.sessions.AddRating(ctx, sessionID, domain.Rating{
		Score:     score,
		Feedback:  feedback,
		MessageID: messageID,
		Timestamp: time.Now(),
	})
}

// SendMessage records the user's message, asks the configured model for a
// reply using the recent conversation window, and records the answer. A
// model failure yields the localized apology flagged as a fallback.
func (s *AssistantService) SendMessage(ctx context.Context, sessionID, content, providerName, model string) (*AssistantReply, error) {
	if content == "" {
		return nil, &domain.ValidationError{Field: "message", Message: "message is required"}
	}
	if len(content) > s.maxMessageLength() {
		return nil, &domain.ValidationError{Field: "message", Message: fmt.Sprintf("message exceeds %d characters", s.maxMessageLength())}
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.StatusClosed {
		return nil, domain.ErrSessionClosed
	}

	userMsg := domain.Message{
		ID:        uuid.NewString(),
		Sender:    domain.SenderUser,
		Content:   content,
		Type:      domain.MessageText,
		IsRead:    true,
		Timestamp: time.Now(),
	}

	response, err := s.complete(ctx, session, content, providerName, model)
	if err != nil {
		log.Warn().
			Err(err).
			Str("session_id", sessionID).
			Msg("Model completion failed, sending fallback response")

		fallbackMsg := domain.Message{
			ID:      uuid.NewString(),
			Sender:  domain.SenderAssistant,
			Content: fallbackMessage(session.Language),
			Type:    domain.MessageText,
			Metadata: &domain.MessageMetadata{
				Fallback: true,
				Error:    "ai_service_unavailable",
			},
			Timestamp: time.Now(),
		}
		if _, err := s.sessions.AppendMessages(ctx, sessionID, 0, userMsg, fallbackMsg); err != nil {
			return nil, err
		}
		return &AssistantReply{Message: fallbackMsg, Fallback: true}, nil
	}

	assistantMsg := domain.Message{
		ID:      uuid.NewString(),
		Sender:  domain.SenderAssistant,
		Content: response.Content,
		Type:    domain.MessageText,
		Metadata: &domain.MessageMetadata{
			Model:  response.Model,
			Tokens: response.TokensUsed,
		},
		Timestamp: time.Now(),
	}
	if _, err := s.sessions.AppendMessages(ctx, sessionID, response.TokensUsed, userMsg, assistantMsg); err != nil {
		return nil, err
	}
	return &AssistantReply{Message: assistantMsg}, nil
}

// History pages through a session's messages from the start
func (s *AssistantService) History(ctx context.Context, sessionID string, page, limit int) ([]domain.Message, *domain.ChatSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	skip := (page - 1) * limit
	if skip >= len(session.Messages) {
		return []domain.Message{}, session, nil
	}
	end := skip + limit
	if end > len(session.Messages) {
		end = len(session.Messages)
	}
	return session.Messages[skip:end], session, nil
}

func (s *AssistantService) complete(ctx context.Context, session *domain.ChatSession, content, providerName, model string) (*llm.Response, error) {
	if providerName == "" {
		providerName = s.llmCfg.DefaultProvider
	}
	provider, err := s.router.GetProvider(providerName)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = provider.DefaultModel()
	}

	// The window counts the inbound message, so the stored log contributes
	// one less. Agent turns never replay as the model's own words.
	messages := []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: llm.SystemPrompt(string(session.Language))},
	}
	for _, m := range session.RecentMessages(s.historyWindow() - 1) {
		switch m.Sender {
		case domain.SenderUser:
			messages = append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: m.Content})
		case domain.SenderAssistant:
			messages = append(messages, llm.ChatMessage{Role: llm.RoleAssistant, Content: m.Content})
		}
	}
	messages = append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: content})

	timeout := s.cfg.CompletionTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return provider.Chat(ctx, llm.Request{
		Messages:    messages,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}, model)
}

func (s *AssistantService) historyWindow() int {
	if s.cfg.HistoryWindow > 0 {
		return s.cfg.HistoryWindow
	}
	return 10
}

func (s *AssistantService) maxMessageLength() int {
	if s.cfg.MaxMessageLength > 0 {
		return s.cfg.MaxMessageLength
	}
	return domain.MaxMessageLength
}

// newSessionID builds tokens shaped like session_<millis>_<9 chars>
func newSessionID(now time.Time) string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("session_%d_%s", now.UnixMilli(), uuid.NewString()[:9])
	}
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), hex.EncodeToString(buf)[:9])
}

package domain

import (
	"context"
	"math"
	"time"
)

// SessionType distinguishes assistant-driven and human-driven conversations
type SessionType string

const (
	TypeAIAssistant        SessionType = "ai_assistant"
	TypeHumanSupport       SessionType = "human_support"
	TypeExpertConsultation SessionType = "expert_consultation"
)

// SessionStatus represents the lifecycle state of a chat session
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusResolved  SessionStatus = "resolved"
	StatusEscalated SessionStatus = "escalated"
	StatusClosed    SessionStatus = "closed"
)

// Language is a supported conversation language
type Language string

const (
	LangEnglish Language = "en"
	LangHindi   Language = "hi"
	LangMarathi Language = "mr"
)

// ParseLanguage normalizes a language code, falling back to English
func ParseLanguage(s string) Language {
	switch Language(s) {
	case LangHindi:
		return LangHindi
	case LangMarathi:
		return LangMarathi
	default:
		return LangEnglish
	}
}

// Topic categorizes what a session is about
type Topic string

const (
	TopicGeneralAgriculture Topic = "general_agriculture"
	TopicCropManagement     Topic = "crop_management"
	TopicSoilAnalysis       Topic = "soil_analysis"
	TopicPestControl        Topic = "pest_control"
	TopicFertilizerAdvice   Topic = "fertilizer_advice"
	TopicWeatherGuidance    Topic = "weather_guidance"
	TopicIrrigation         Topic = "irrigation"
	TopicMachinery          Topic = "machinery"
	TopicMarketPrices       Topic = "market_prices"
	TopicGovernmentSchemes  Topic = "government_schemes"
	TopicOrganicFarming     Topic = "organic_farming"
	TopicTechnicalSupport   Topic = "technical_support"
)

// ValidTopics lists all accepted session topics
var ValidTopics = []Topic{
	TopicGeneralAgriculture,
	TopicCropManagement,
	TopicSoilAnalysis,
	TopicPestControl,
	TopicFertilizerAdvice,
	TopicWeatherGuidance,
	TopicIrrigation,
	TopicMachinery,
	TopicMarketPrices,
	TopicGovernmentSchemes,
	TopicOrganicFarming,
	TopicTechnicalSupport,
}

// ParseTopic normalizes a topic, falling back to general agriculture
func ParseTopic(s string) Topic {
	for _, t := range ValidTopics {
		if Topic(s) == t {
			return t
		}
	}
	return TopicGeneralAgriculture
}

// Priority represents session urgency
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Sender identifies who authored a message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderAgent     Sender = "agent"
)

// MessageType classifies message content
type MessageType string

const (
	MessageText       MessageType = "text"
	MessageImage      MessageType = "image"
	MessageFile       MessageType = "file"
	MessageLocation   MessageType = "location"
	MessageQuickReply MessageType = "quick_reply"
)

// MaxMessageLength caps user message content
const MaxMessageLength = 2000

// QuickReply is a suggested follow-up action attached to an assistant message
type QuickReply struct {
	Title   string `bson:"title" json:"title"`
	Payload string `bson:"payload" json:"payload"`
}

// MessageMetadata carries per-message generation details
type MessageMetadata struct {
	Model      string  `bson:"model,omitempty" json:"model,omitempty"`
	Tokens     int     `bson:"tokens,omitempty" json:"tokens,omitempty"`
	Confidence float64 `bson:"confidence,omitempty" json:"confidence,omitempty"`
	Intent     string  `bson:"intent,omitempty" json:"intent,omitempty"`
	Fallback   bool    `bson:"fallback,omitempty" json:"fallback,omitempty"`
	Error      string  `bson:"error,omitempty" json:"error,omitempty"`
	FileURL    string  `bson:"file_url,omitempty" json:"file_url,omitempty"`
}

// Message is a single entry in a session's embedded log
type Message struct {
	ID           string           `bson:"id" json:"id"`
	Sender       Sender           `bson:"sender" json:"sender"`
	Content      string           `bson:"content" json:"content"`
	Type         MessageType      `bson:"type" json:"type"`
	QuickReplies []QuickReply     `bson:"quick_replies,omitempty" json:"quick_replies,omitempty"`
	IsRead       bool             `bson:"is_read" json:"is_read"`
	Metadata     *MessageMetadata `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Timestamp    time.Time        `bson:"timestamp" json:"timestamp"`
}

// Rating is a single satisfaction score submitted for a session
type Rating struct {
	Score     int       `bson:"score" json:"score"`
	Feedback  string    `bson:"feedback,omitempty" json:"feedback,omitempty"`
	MessageID string    `bson:"message_id,omitempty" json:"message_id,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Satisfaction summarizes all ratings on a session
type Satisfaction struct {
	Rating       float64   `bson:"rating" json:"rating"`
	TotalRatings int       `bson:"total_ratings" json:"total_ratings"`
	LastUpdated  time.Time `bson:"last_updated" json:"last_updated"`
}

// Note is an operator annotation on a session
type Note struct {
	Content   string    `bson:"content" json:"content"`
	AuthorID  string    `bson:"author_id,omitempty" json:"author_id,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// SessionMetadata records client details captured at session creation
type SessionMetadata struct {
	Platform        string `bson:"platform,omitempty" json:"platform,omitempty"`
	UserAgent       string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	IPAddress       string `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	TotalTokensUsed int    `bson:"total_tokens_used" json:"total_tokens_used"`
}

// ChatSession is one conversation document with its embedded message log.
// Appends are single atomic updates and status transitions compare-and-swap
// on Version, so message_count always matches len(Messages).
type ChatSession struct {
	SessionID        string          `bson:"session_id" json:"session_id"`
	UserID           string          `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Type             SessionType     `bson:"type" json:"type"`
	Status           SessionStatus   `bson:"status" json:"status"`
	Language         Language        `bson:"language" json:"language"`
	Topic            Topic           `bson:"topic" json:"topic"`
	Priority         Priority        `bson:"priority" json:"priority"`
	Messages         []Message       `bson:"messages" json:"messages"`
	MessageCount     int             `bson:"message_count" json:"message_count"`
	LastActivity     time.Time       `bson:"last_activity" json:"last_activity"`
	AssignedTo       string          `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	EscalationReason string          `bson:"escalation_reason,omitempty" json:"escalation_reason,omitempty"`
	Satisfaction     *Satisfaction   `bson:"satisfaction,omitempty" json:"satisfaction,omitempty"`
	Ratings          []Rating        `bson:"ratings,omitempty" json:"ratings,omitempty"`
	Notes            []Note          `bson:"notes,omitempty" json:"notes,omitempty"`
	Metadata         SessionMetadata `bson:"metadata" json:"metadata"`
	IsAnonymous      bool            `bson:"is_anonymous" json:"is_anonymous"`
	Version          int64           `bson:"version" json:"-"`
	CreatedAt        time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `bson:"updated_at" json:"updated_at"`
}

// RecentMessages returns the last n messages in chronological order
func (s *ChatSession) RecentMessages(n int) []Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// MessagesBefore returns up to limit messages with timestamps strictly before t
func (s *ChatSession) MessagesBefore(t time.Time, limit int) []Message {
	var out []Message
	for _, m := range s.Messages {
		if m.Timestamp.Before(t) {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// UnreadCount counts incoming messages not yet marked read
func (s *ChatSession) UnreadCount() int {
	count := 0
	for _, m := range s.Messages {
		if !m.IsRead && m.Sender != SenderUser {
			count++
		}
	}
	return count
}

// LastMessage returns the newest message, or nil for an empty log
func (s *ChatSession) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// AverageRating computes the mean of all ratings, rounded to two decimals
func (s *ChatSession) AverageRating() float64 {
	if len(s.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range s.Ratings {
		sum += r.Score
	}
	avg := float64(sum) / float64(len(s.Ratings))
	return math.Round(avg*100) / 100
}

// DurationMinutes is the span between the first and last message, in minutes
func (s *ChatSession) DurationMinutes() float64 {
	if len(s.Messages) < 2 {
		return 0
	}
	first := s.Messages[0].Timestamp
	last := s.Messages[len(s.Messages)-1].Timestamp
	return last.Sub(first).Minutes()
}

// SessionPage is one page of a user's session listing
type SessionPage struct {
	Sessions []ChatSession `json:"sessions"`
	Total    int64         `json:"total"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}

// AnalyticsFilter narrows the analytics aggregation window
type AnalyticsFilter struct {
	From     *time.Time
	To       *time.Time
	Language Language
	Topic    Topic
	Status   SessionStatus
}

// AnalyticsOverview holds top-level session counters
type AnalyticsOverview struct {
	TotalSessions      int64   `json:"total_sessions"`
	ActiveSessions     int64   `json:"active_sessions"`
	ResolvedSessions   int64   `json:"resolved_sessions"`
	EscalatedSessions  int64   `json:"escalated_sessions"`
	ClosedSessions     int64   `json:"closed_sessions"`
	TotalMessages      int64   `json:"total_messages"`
	AvgSatisfaction    float64 `json:"avg_satisfaction"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
}

// TopicStat is per-topic session volume and satisfaction
type TopicStat struct {
	Topic           Topic   `bson:"_id" json:"topic"`
	Count           int64   `bson:"count" json:"count"`
	AvgSatisfaction float64 `bson:"avg_satisfaction" json:"avg_satisfaction"`
}

// LanguageStat is per-language session volume
type LanguageStat struct {
	Language Language `bson:"_id" json:"language"`
	Count    int64    `bson:"count" json:"count"`
}

// DailyStat is one day of session and message volume
type DailyStat struct {
	Date     string `bson:"_id" json:"date"`
	Sessions int64  `bson:"sessions" json:"sessions"`
	Messages int64  `bson:"messages" json:"messages"`
}

// ChatAnalytics is the full analytics report
type ChatAnalytics struct {
	Overview   AnalyticsOverview `json:"overview"`
	Topics     []TopicStat       `json:"topics"`
	Languages  []LanguageStat    `json:"languages"`
	DailyTrend []DailyStat       `json:"daily_trend"`
	From       *time.Time        `json:"from,omitempty"`
	To         *time.Time        `json:"to,omitempty"`
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	Create(ctx context.Context, session *ChatSession) error
	Get(ctx context.Context, sessionID string) (*ChatSession, error)
	// FindActive returns the most recently active session matching
	// (userID, status=active, topic), or ErrSessionNotFound.
	FindActive(ctx context.Context, userID string, topic Topic) (*ChatSession, error)
	ListByUser(ctx context.Context, userID string, status SessionStatus, limit, offset int) (*SessionPage, error)
	// AppendMessages atomically pushes messages onto the log, bumps
	// message_count and token usage, and returns the updated session.
	AppendMessages(ctx context.Context, sessionID string, tokens int, messages ...Message) (*ChatSession, error)
	// MarkRead flags the listed message IDs as read; an empty list marks
	// every incoming message.
	MarkRead(ctx context.Context, sessionID string, messageIDs []string) error
	// AddRating pushes the rating and refreshes the satisfaction summary.
	AddRating(ctx context.Context, sessionID string, rating Rating) (*Satisfaction, error)
	// UpdateStatus persists status, priority, assignment and notes,
	// compare-and-swapping on session.Version. Returns ErrVersionConflict
	// when another writer got there first.
	UpdateStatus(ctx context.Context, session *ChatSession) error
	Analytics(ctx context.Context, filter AnalyticsFilter) (*ChatAnalytics, error)
}

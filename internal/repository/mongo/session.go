package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bindisa/agritech-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollection = "chats"

// SessionRepository implements domain.SessionRepository on MongoDB.
// Each session is a single document, so message appends and counter
// bumps happen in one atomic update.
type SessionRepository struct {
	coll *mongo.Collection
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(client *Client) *SessionRepository {
	return &SessionRepository{coll: client.Database().Collection(sessionCollection)}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.ChatSession) error {
	if _, err := r.coll.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	err := r.coll.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) FindActive(ctx context.Context, userID string, topic domain.Topic) (*domain.ChatSession, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  domain.StatusActive,
		"topic":   topic,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "last_activity", Value: -1}})

	var s domain.ChatSession
	err := r.coll.FindOne(ctx, filter, opts).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string, status domain.SessionStatus, limit, offset int) (*domain.SessionPage, error) {
	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "last_activity", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []domain.ChatSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	return &domain.SessionPage{
		Sessions: sessions,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func (r *SessionRepository) AppendMessages(ctx context.Context, sessionID string, tokens int, messages ...domain.Message) (*domain.ChatSession, error) {
	if len(messages) == 0 {
		return r.Get(ctx, sessionID)
	}

	now := time.Now()
	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": messages}},
		"$inc": bson.M{
			"message_count":              len(messages),
			"metadata.total_tokens_used": tokens,
			"version":                    1,
		},
		"$set": bson.M{
			"last_activity": now,
			"updated_at":    now,
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s domain.ChatSession
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"session_id": sessionID}, update, opts).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to append messages: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) MarkRead(ctx context.Context, sessionID string, messageIDs []string) error {
	var arrayFilter bson.M
	if len(messageIDs) > 0 {
		arrayFilter = bson.M{"m.id": bson.M{"$in": messageIDs}}
	} else {
		// No IDs given: mark every incoming message as read
		arrayFilter = bson.M{"m.sender": bson.M{"$ne": domain.SenderUser}}
	}

	update := bson.M{
		"$set": bson.M{
			"messages.$[m].is_read": true,
			"updated_at":            time.Now(),
		},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{arrayFilter},
	})

	res, err := r.coll.UpdateOne(ctx, bson.M{"session_id": sessionID}, update, opts)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) AddRating(ctx context.Context, sessionID string, rating domain.Rating) (*domain.Satisfaction, error) {
	update := bson.M{
		"$push": bson.M{"ratings": rating},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s domain.ChatSession
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"session_id": sessionID}, update, opts).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to add rating: %w", err)
	}

	// Recompute the summary from the document we just read back. Under a
	// concurrent rating the last writer's summary wins; both converge on
	// the full ratings array.
	satisfaction := &domain.Satisfaction{
		Rating:       s.AverageRating(),
		TotalRatings: len(s.Ratings),
		LastUpdated:  time.Now(),
	}

	_, err = r.coll.UpdateOne(ctx, bson.M{"session_id": sessionID}, bson.M{
		"$set": bson.M{"satisfaction": satisfaction},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update satisfaction: %w", err)
	}

	return satisfaction, nil
}

func (r *SessionRepository) UpdateStatus(ctx context.Context, session *domain.ChatSession) error {
	now := time.Now()
	filter := bson.M{
		"session_id": session.SessionID,
		"version":    session.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"status":            session.Status,
			"priority":          session.Priority,
			"assigned_to":       session.AssignedTo,
			"escalation_reason": session.EscalationReason,
			"notes":             session.Notes,
			"updated_at":        now,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	if res.MatchedCount == 0 {
		// Either the session is gone or someone else advanced the version
		if _, getErr := r.Get(ctx, session.SessionID); getErr != nil {
			return getErr
		}
		return domain.ErrVersionConflict
	}

	session.Version++
	session.UpdatedAt = now
	return nil
}

package mongo

import (
	"context"
	"fmt"
	"math"

	"github.com/bindisa/agritech-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func analyticsMatch(filter domain.AnalyticsFilter) bson.M {
	match := bson.M{}
	if filter.From != nil || filter.To != nil {
		created := bson.M{}
		if filter.From != nil {
			created["$gte"] = *filter.From
		}
		if filter.To != nil {
			created["$lte"] = *filter.To
		}
		match["created_at"] = created
	}
	if filter.Language != "" {
		match["language"] = filter.Language
	}
	if filter.Topic != "" {
		match["topic"] = filter.Topic
	}
	if filter.Status != "" {
		match["status"] = filter.Status
	}
	return match
}

// Analytics aggregates session volume, satisfaction, duration, topic and
// language breakdowns, and a daily trend over the filtered window.
func (r *SessionRepository) Analytics(ctx context.Context, filter domain.AnalyticsFilter) (*domain.ChatAnalytics, error) {
	match := analyticsMatch(filter)

	overview, err := r.aggregateOverview(ctx, match)
	if err != nil {
		return nil, err
	}

	topics, err := r.aggregateTopics(ctx, match)
	if err != nil {
		return nil, err
	}

	languages, err := r.aggregateLanguages(ctx, match)
	if err != nil {
		return nil, err
	}

	daily, err := r.aggregateDailyTrend(ctx, match)
	if err != nil {
		return nil, err
	}

	return &domain.ChatAnalytics{
		Overview:   *overview,
		Topics:     topics,
		Languages:  languages,
		DailyTrend: daily,
		From:       filter.From,
		To:         filter.To,
	}, nil
}

func (r *SessionRepository) aggregateOverview(ctx context.Context, match bson.M) (*domain.AnalyticsOverview, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		// Session duration in minutes: span between the first and last
		// message timestamps; zero for sessions with fewer than 2 messages.
		bson.D{{Key: "$addFields", Value: bson.M{
			"duration_minutes": bson.M{
				"$cond": bson.A{
					bson.M{"$gte": bson.A{"$message_count", 2}},
					bson.M{"$divide": bson.A{
						bson.M{"$subtract": bson.A{
							bson.M{"$arrayElemAt": bson.A{"$messages.timestamp", -1}},
							bson.M{"$arrayElemAt": bson.A{"$messages.timestamp", 0}},
						}},
						60000,
					}},
					0,
				},
			},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"total_sessions": bson.M{"$sum": 1},
			"active_sessions": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", domain.StatusActive}}, 1, 0},
			}},
			"resolved_sessions": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", domain.StatusResolved}}, 1, 0},
			}},
			"escalated_sessions": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", domain.StatusEscalated}}, 1, 0},
			}},
			"closed_sessions": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", domain.StatusClosed}}, 1, 0},
			}},
			"total_messages":       bson.M{"$sum": "$message_count"},
			"avg_satisfaction":     bson.M{"$avg": "$satisfaction.rating"},
			"avg_duration_minutes": bson.M{"$avg": "$duration_minutes"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate overview: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		TotalSessions      int64    `bson:"total_sessions"`
		ActiveSessions     int64    `bson:"active_sessions"`
		ResolvedSessions   int64    `bson:"resolved_sessions"`
		EscalatedSessions  int64    `bson:"escalated_sessions"`
		ClosedSessions     int64    `bson:"closed_sessions"`
		TotalMessages      int64    `bson:"total_messages"`
		AvgSatisfaction    *float64 `bson:"avg_satisfaction"`
		AvgDurationMinutes *float64 `bson:"avg_duration_minutes"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode overview: %w", err)
	}

	overview := &domain.AnalyticsOverview{}
	if len(results) > 0 {
		res := results[0]
		overview.TotalSessions = res.TotalSessions
		overview.ActiveSessions = res.ActiveSessions
		overview.ResolvedSessions = res.ResolvedSessions
		overview.EscalatedSessions = res.EscalatedSessions
		overview.ClosedSessions = res.ClosedSessions
		overview.TotalMessages = res.TotalMessages
		if res.AvgSatisfaction != nil {
			overview.AvgSatisfaction = math.Round(*res.AvgSatisfaction*100) / 100
		}
		if res.AvgDurationMinutes != nil {
			overview.AvgDurationMinutes = math.Round(*res.AvgDurationMinutes*100) / 100
		}
	}
	return overview, nil
}

func (r *SessionRepository) aggregateTopics(ctx context.Context, match bson.M) ([]domain.TopicStat, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":              "$topic",
			"count":            bson.M{"$sum": 1},
			"avg_satisfaction": bson.M{"$avg": "$satisfaction.rating"},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate topics: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []domain.TopicStat
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode topic stats: %w", err)
	}
	return stats, nil
}

func (r *SessionRepository) aggregateLanguages(ctx context.Context, match bson.M) ([]domain.LanguageStat, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$language",
			"count": bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate languages: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []domain.LanguageStat
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode language stats: %w", err)
	}
	return stats, nil
}

func (r *SessionRepository) aggregateDailyTrend(ctx context.Context, match bson.M) ([]domain.DailyStat, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$created_at",
			}},
			"sessions": bson.M{"$sum": 1},
			"messages": bson.M{"$sum": "$message_count"},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily trend: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []domain.DailyStat
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode daily trend: %w", err)
	}
	return stats, nil
}

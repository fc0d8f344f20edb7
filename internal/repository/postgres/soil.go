package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SoilRepository implements domain.SoilRepository. Location, soil data,
// recommendations and images are stored as jsonb columns.
type SoilRepository struct {
	pool *pgxpool.Pool
}

// NewSoilRepository creates a new soil analysis repository
func NewSoilRepository(db *DB) *SoilRepository {
	return &SoilRepository{pool: db.Pool}
}

const soilColumns = `id, sample_id, user_id, location, soil_data, crop_type, season_type,
	status, priority, health_score, recommendations, images, created_at, updated_at, completed_at`

func scanSoilAnalysis(row pgx.Row) (*domain.SoilAnalysis, error) {
	var (
		a             domain.SoilAnalysis
		locationJSON  []byte
		soilDataJSON  []byte
		recsJSON      []byte
		imagesJSON    []byte
	)
	err := row.Scan(
		&a.ID,
		&a.SampleID,
		&a.UserID,
		&locationJSON,
		&soilDataJSON,
		&a.CropType,
		&a.SeasonType,
		&a.Status,
		&a.Priority,
		&a.HealthScore,
		&recsJSON,
		&imagesJSON,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(locationJSON, &a.Location); err != nil {
		return nil, fmt.Errorf("failed to decode location: %w", err)
	}
	if err := json.Unmarshal(soilDataJSON, &a.SoilData); err != nil {
		return nil, fmt.Errorf("failed to decode soil data: %w", err)
	}
	if len(recsJSON) > 0 {
		if err := json.Unmarshal(recsJSON, &a.Recommendations); err != nil {
			return nil, fmt.Errorf("failed to decode recommendations: %w", err)
		}
	}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &a.Images); err != nil {
			return nil, fmt.Errorf("failed to decode images: %w", err)
		}
	}
	return &a, nil
}

func (r *SoilRepository) Create(ctx context.Context, analysis *domain.SoilAnalysis) error {
	locationJSON, err := json.Marshal(analysis.Location)
	if err != nil {
		return fmt.Errorf("failed to encode location: %w", err)
	}
	soilDataJSON, err := json.Marshal(analysis.SoilData)
	if err != nil {
		return fmt.Errorf("failed to encode soil data: %w", err)
	}
	recsJSON, err := json.Marshal(analysis.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}
	imagesJSON, err := json.Marshal(analysis.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}

	query := `
		INSERT INTO soil_analyses (id, sample_id, user_id, location, soil_data, crop_type,
			season_type, status, priority, health_score, recommendations, images,
			created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.pool.Exec(ctx, query,
		analysis.ID,
		analysis.SampleID,
		analysis.UserID,
		locationJSON,
		soilDataJSON,
		analysis.CropType,
		analysis.SeasonType,
		analysis.Status,
		analysis.Priority,
		analysis.HealthScore,
		recsJSON,
		imagesJSON,
		analysis.CreatedAt,
		analysis.UpdatedAt,
		analysis.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create soil analysis: %w", err)
	}
	return nil
}

func (r *SoilRepository) Get(ctx context.Context, id uuid.UUID) (*domain.SoilAnalysis, error) {
	query := `SELECT ` + soilColumns + ` FROM soil_analyses WHERE id = $1`
	analysis, err := scanSoilAnalysis(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get soil analysis: %w", err)
	}
	return analysis, nil
}

func (r *SoilRepository) ListByUser(ctx context.Context, userID uuid.UUID, status domain.AnalysisStatus, limit, offset int) (*domain.SoilPage, error) {
	where := `WHERE user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM soil_analyses ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count soil analyses: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM soil_analyses %s
		ORDER BY created_at DESC
		LIMIT %d OFFSET %d
	`, soilColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list soil analyses: %w", err)
	}
	defer rows.Close()

	analyses := make([]domain.SoilAnalysis, 0)
	for rows.Next() {
		analysis, err := scanSoilAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan soil analysis: %w", err)
		}
		analyses = append(analyses, *analysis)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate soil analyses: %w", err)
	}

	return &domain.SoilPage{
		Analyses: analyses,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func (r *SoilRepository) Update(ctx context.Context, analysis *domain.SoilAnalysis) error {
	soilDataJSON, err := json.Marshal(analysis.SoilData)
	if err != nil {
		return fmt.Errorf("failed to encode soil data: %w", err)
	}
	recsJSON, err := json.Marshal(analysis.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}
	imagesJSON, err := json.Marshal(analysis.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}

	now := time.Now()
	query := `
		UPDATE soil_analyses
		SET soil_data = $1, status = $2, priority = $3, health_score = $4,
			recommendations = $5, images = $6, updated_at = $7, completed_at = $8
		WHERE id = $9
	`
	tag, err := r.pool.Exec(ctx, query,
		soilDataJSON,
		analysis.Status,
		analysis.Priority,
		analysis.HealthScore,
		recsJSON,
		imagesJSON,
		now,
		analysis.CompletedAt,
		analysis.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update soil analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	analysis.UpdatedAt = now
	return nil
}

func (r *SoilRepository) Statistics(ctx context.Context, userID uuid.UUID) (*domain.SoilStatistics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			ROUND(AVG(health_score) FILTER (WHERE health_score IS NOT NULL), 2)
		FROM soil_analyses
		WHERE user_id = $1
	`
	var stats domain.SoilStatistics
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Processing,
		&stats.Completed,
		&stats.Failed,
		&stats.AvgHealthScore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get soil statistics: %w", err)
	}
	return &stats, nil
}

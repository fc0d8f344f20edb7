package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AnalysisStatus represents where a soil sample is in the lab pipeline
type AnalysisStatus string

const (
	AnalysisPending    AnalysisStatus = "pending"
	AnalysisProcessing AnalysisStatus = "processing"
	AnalysisCompleted  AnalysisStatus = "completed"
	AnalysisFailed     AnalysisStatus = "failed"
)

// Location pins a soil sample to a place
type Location struct {
	Address   string  `json:"address,omitempty" validate:"omitempty,max=200"`
	District  string  `json:"district,omitempty" validate:"omitempty,max=50"`
	State     string  `json:"state,omitempty" validate:"omitempty,max=50"`
	Pincode   string  `json:"pincode,omitempty" validate:"omitempty,len=6,numeric"`
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}

// SoilData holds the measured sample values
type SoilData struct {
	PH            float64  `json:"ph" validate:"min=0,max=14"`
	Nitrogen      float64  `json:"nitrogen" validate:"min=0,max=1000"`
	Phosphorus    float64  `json:"phosphorus" validate:"min=0,max=1000"`
	Potassium     float64  `json:"potassium" validate:"min=0,max=1000"`
	OrganicMatter *float64 `json:"organic_matter,omitempty" validate:"omitempty,min=0,max=100"`
	Moisture      *float64 `json:"moisture,omitempty" validate:"omitempty,min=0,max=100"`
	Temperature   *float64 `json:"temperature,omitempty" validate:"omitempty,min=-10,max=60"`
	Conductivity  *float64 `json:"conductivity,omitempty" validate:"omitempty,min=0"`
}

// SoilImage is an uploaded photo of a sample or field
type SoilImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Caption  string `json:"caption,omitempty"`
}

// SoilAnalysis is one submitted sample and its lab results
type SoilAnalysis struct {
	ID              uuid.UUID      `json:"id"`
	SampleID        string         `json:"sample_id"`
	UserID          uuid.UUID      `json:"user_id"`
	Location        Location       `json:"location"`
	SoilData        SoilData       `json:"soil_data"`
	CropType        string         `json:"crop_type,omitempty"`
	SeasonType      string         `json:"season_type,omitempty"`
	Status          AnalysisStatus `json:"status"`
	Priority        Priority       `json:"priority"`
	HealthScore     *int           `json:"health_score,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Images          []SoilImage    `json:"images,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// SoilAnalysisCreate is the submission payload for a new sample
type SoilAnalysisCreate struct {
	Location   Location `json:"location" validate:"required"`
	SoilData   SoilData `json:"soil_data" validate:"required"`
	CropType   string   `json:"crop_type" validate:"omitempty,oneof=rice wheat corn cotton sugarcane tomato potato onion soybean other"`
	SeasonType string   `json:"season_type" validate:"omitempty,oneof=kharif rabi zaid"`
}

// SoilAnalysisUpdate is the lab-side result payload
type SoilAnalysisUpdate struct {
	Status          AnalysisStatus `json:"status" validate:"required,oneof=pending processing completed failed"`
	HealthScore     *int           `json:"health_score" validate:"omitempty,min=0,max=100"`
	Recommendations []string       `json:"recommendations" validate:"omitempty,dive,max=500"`
}

// SoilStatistics summarizes a user's analysis history
type SoilStatistics struct {
	Total          int64    `json:"total"`
	Pending        int64    `json:"pending"`
	Processing     int64    `json:"processing"`
	Completed      int64    `json:"completed"`
	Failed         int64    `json:"failed"`
	AvgHealthScore *float64 `json:"avg_health_score,omitempty"`
}

// SoilPage is one page of a user's sample listing
type SoilPage struct {
	Analyses []SoilAnalysis `json:"analyses"`
	Total    int64          `json:"total"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
}

// SoilRepository defines the interface for soil analysis storage
type SoilRepository interface {
	Create(ctx context.Context, analysis *SoilAnalysis) error
	Get(ctx context.Context, id uuid.UUID) (*SoilAnalysis, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status AnalysisStatus, limit, offset int) (*SoilPage, error)
	Update(ctx context.Context, analysis *SoilAnalysis) error
	Statistics(ctx context.Context, userID uuid.UUID) (*SoilStatistics, error)
}

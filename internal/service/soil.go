package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/bindisa/agritech-api/internal/notify"
	"github.com/bindisa/agritech-api/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SoilService manages the soil sample workflow from submission to
// published results
type SoilService struct {
	soilRepo domain.SoilRepository
	userRepo domain.UserRepository
	mailer   *notify.Mailer
	uploader storage.Uploader
}

// NewSoilService creates a new soil service. uploader may be nil when
// image storage is not configured.
func NewSoilService(
	soilRepo domain.SoilRepository,
	userRepo domain.UserRepository,
	mailer *notify.Mailer,
	uploader storage.Uploader,
) *SoilService {
	return &SoilService{
		soilRepo: soilRepo,
		userRepo: userRepo,
		mailer:   mailer,
		uploader: uploader,
	}
}

// Submit records a new soil sample and emails the farmer a confirmation.
// Email failures are logged, never surfaced.
func (s *SoilService) Submit(ctx context.Context, userID uuid.UUID, input domain.SoilAnalysisCreate) (*domain.SoilAnalysis, error) {
	now := time.Now()
	analysis := &domain.SoilAnalysis{
		ID:         uuid.New(),
		SampleID:   newSampleID(now),
		UserID:     userID,
		Location:   input.Location,
		SoilData:   input.SoilData,
		CropType:   input.CropType,
		SeasonType: input.SeasonType,
		Status:     domain.AnalysisPending,
		Priority:   domain.PriorityMedium,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.soilRepo.Create(ctx, analysis); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil || user == nil {
			log.Warn().Err(err).Str("sample_id", analysis.SampleID).Msg("Could not load user for confirmation email")
		} else if err := s.mailer.SendSoilConfirmation(user.Email, user.Name, analysis.SampleID); err != nil {
			log.Warn().Err(err).Str("sample_id", analysis.SampleID).Msg("Failed to send confirmation email")
		}
	}

	return analysis, nil
}

// Get returns one analysis, restricted to its owner
func (s *SoilService) Get(ctx context.Context, userID, analysisID uuid.UUID) (*domain.SoilAnalysis, error) {
	analysis, err := s.soilRepo.Get(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if analysis.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return analysis, nil
}

// List pages through a user's analyses, newest first
func (s *SoilService) List(ctx context.Context, userID uuid.UUID, status domain.AnalysisStatus, limit, offset int) (*domain.SoilPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.soilRepo.ListByUser(ctx, userID, status, limit, offset)
}

// Recommendations returns the published advice for a completed analysis
func (s *SoilService) Recommendations(ctx context.Context, userID, analysisID uuid.UUID) (*domain.SoilAnalysis, error) {
	analysis, err := s.Get(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}
	if len(analysis.Recommendations) == 0 {
		return nil, domain.ErrNotFound
	}
	return analysis, nil
}

// Update applies lab results. A transition to completed stamps the
// completion time and emails the farmer.
func (s *SoilService) Update(ctx context.Context, analysisID uuid.UUID, input domain.SoilAnalysisUpdate) (*domain.SoilAnalysis, error) {
	analysis, err := s.soilRepo.Get(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	wasCompleted := analysis.Status == domain.AnalysisCompleted
	analysis.Status = input.Status
	if input.HealthScore != nil {
		analysis.HealthScore = input.HealthScore
	}
	if input.Recommendations != nil {
		analysis.Recommendations = input.Recommendations
	}
	if input.Status == domain.AnalysisCompleted && analysis.CompletedAt == nil {
		now := time.Now()
		analysis.CompletedAt = &now
	}

	if err := s.soilRepo.Update(ctx, analysis); err != nil {
		return nil, err
	}

	if s.mailer != nil && input.Status == domain.AnalysisCompleted && !wasCompleted {
		user, err := s.userRepo.GetByID(ctx, analysis.UserID)
		if err != nil || user == nil {
			log.Warn().Err(err).Str("sample_id", analysis.SampleID).Msg("Could not load user for completion email")
		} else if err := s.mailer.SendSoilCompleted(user.Email, user.Name, analysis.SampleID, analysis.HealthScore); err != nil {
			log.Warn().Err(err).Str("sample_id", analysis.SampleID).Msg("Failed to send completion email")
		}
	}

	return analysis, nil
}

// UploadImage stores a sample photo and attaches it to the analysis
func (s *SoilService) UploadImage(ctx context.Context, userID, analysisID uuid.UUID, file io.Reader, caption string) (*domain.SoilImage, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("image storage is not configured")
	}

	analysis, err := s.Get(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}

	result, err := s.uploader.Upload(ctx, file, fmt.Sprintf("%s_%d", analysis.SampleID, time.Now().UnixMilli()))
	if err != nil {
		return nil, err
	}

	image := domain.SoilImage{
		URL:      result.URL,
		PublicID: result.PublicID,
		Caption:  caption,
	}
	analysis.Images = append(analysis.Images, image)

	if err := s.soilRepo.Update(ctx, analysis); err != nil {
		// Roll back the orphaned upload
		if delErr := s.uploader.Delete(ctx, result.PublicID); delErr != nil {
			log.Warn().Err(delErr).Str("public_id", result.PublicID).Msg("Failed to delete orphaned upload")
		}
		return nil, err
	}
	return &image, nil
}

// DeleteImage removes a sample photo from storage and from the analysis
func (s *SoilService) DeleteImage(ctx context.Context, userID, analysisID uuid.UUID, publicID string) error {
	if s.uploader == nil {
		return fmt.Errorf("image storage is not configured")
	}

	analysis, err := s.Get(ctx, userID, analysisID)
	if err != nil {
		return err
	}

	idx := -1
	for i, img := range analysis.Images {
		if img.PublicID == publicID || path.Base(img.PublicID) == publicID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrNotFound
	}

	if err := s.uploader.Delete(ctx, analysis.Images[idx].PublicID); err != nil {
		return err
	}
	analysis.Images = append(analysis.Images[:idx], analysis.Images[idx+1:]...)
	return s.soilRepo.Update(ctx, analysis)
}

// Statistics summarizes a user's analysis history
func (s *SoilService) Statistics(ctx context.Context, userID uuid.UUID) (*domain.SoilStatistics, error) {
	return s.soilRepo.Statistics(ctx, userID)
}

const sampleIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newSampleID builds identifiers shaped like SOIL-<millis>-<6 chars>
func newSampleID(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("SOIL-%d-%s", now.UnixMilli(), strings.ToUpper(uuid.NewString()[:6]))
	}
	for i, b := range buf {
		buf[i] = sampleIDAlphabet[int(b)%len(sampleIDAlphabet)]
	}
	return fmt.Sprintf("SOIL-%d-%s", now.UnixMilli(), string(buf))
}

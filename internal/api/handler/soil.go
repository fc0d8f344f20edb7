package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bindisa/agritech-api/internal/api/middleware"
	"github.com/bindisa/agritech-api/internal/api/response"
	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/bindisa/agritech-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxUploadSize bounds soil image uploads to 5 MB
const maxUploadSize = 5 << 20

// SoilHandler handles the soil analysis endpoints
type SoilHandler struct {
	soilService *service.SoilService
}

// NewSoilHandler creates a new soil handler
func NewSoilHandler(soilService *service.SoilService) *SoilHandler {
	return &SoilHandler{soilService: soilService}
}

func writeSoilError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "soil analysis not found")
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(w, "access denied")
	default:
		response.InternalError(w, err.Error())
	}
}

func analysisID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "analysisID"))
}

// Submit records a new soil sample
func (h *SoilHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.SoilAnalysisCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		if errs, ok := fieldErrors(err); ok {
			response.BadRequest(w, errs)
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	analysis, err := h.soilService.Submit(r.Context(), userID, input)
	if err != nil {
		writeSoilError(w, err)
		return
	}

	response.Created(w, map[string]any{
		"id":        analysis.ID,
		"sample_id": analysis.SampleID,
		"status":    analysis.Status,
	})
}

// List pages through the caller's samples
func (h *SoilHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := domain.AnalysisStatus(r.URL.Query().Get("status"))

	page, err := h.soilService.List(r.Context(), userID, status, limit, offset)
	if err != nil {
		writeSoilError(w, err)
		return
	}

	response.OK(w, page)
}

// Get returns one of the caller's samples
func (h *SoilHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := analysisID(r)
	if err != nil {
		response.BadRequest(w, "invalid analysis id")
		return
	}

	analysis, err := h.soilService.Get(r.Context(), userID, id)
	if err != nil {
		writeSoilError(w, err)
		return
	}

	response.OK(w, analysis)
}

// Recommendations returns the published advice for a completed sample
func (h *SoilHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := analysisID(r)
	if err != nil {
		response.BadRequest(w, "invalid analysis id")
		return
	}

	analysis, err := h.soilService.Recommendations(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "recommendations are not available yet")
			return
		}
		writeSoilError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"sample_id":       analysis.SampleID,
		"health_score":    analysis.HealthScore,
		"recommendations": analysis.Recommendations,
		"completed_at":    analysis.CompletedAt,
	})
}

// Update applies lab results; expert and admin only
func (h *SoilHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := analysisID(r)
	if err != nil {
		response.BadRequest(w, "invalid analysis id")
		return
	}

	var input domain.SoilAnalysisUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		if errs, ok := fieldErrors(err); ok {
			response.BadRequest(w, errs)
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	analysis, err := h.soilService.Update(r.Context(), id, input)
	if err != nil {
		writeSoilError(w, err)
		return
	}

	response.OK(w, analysis)
}

// UploadImage attaches a sample photo, sent as multipart form data
// under the "image" field
func (h *SoilHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := analysisID(r)
	if err != nil {
		response.BadRequest(w, "invalid analysis id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "image exceeds the 5MB upload limit")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "image file is required")
		return
	}
	defer file.Close()

	image, err := h.soilService.UploadImage(r.Context(), userID, id, file, r.FormValue("caption"))
	if err != nil {
		writeSoilError(w, err)
		return
	}

	response.Created(w, image)
}

// DeleteImage removes a sample photo
func (h *SoilHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := analysisID(r)
	if err != nil {
		response.BadRequest(w, "invalid analysis id")
		return
	}

	publicID := chi.URLParam(r, "publicID")
	if publicID == "" {
		response.BadRequest(w, "image id is required")
		return
	}

	if err := h.soilService.DeleteImage(r.Context(), userID, id, publicID); err != nil {
		writeSoilError(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "image deleted"})
}

// Statistics summarizes the caller's analysis history
func (h *SoilHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	stats, err := h.soilService.Statistics(r.Context(), userID)
	if err != nil {
		writeSoilError(w, err)
		return
	}

	response.OK(w, stats)
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"skillbeam-backend/internal/middleware"
	"skillbeam-backend/internal/models"
	"skillbeam-backend/internal/repository"
)

type ExportHandler struct {
	projectRepo *repository.ProjectRepo
	contentRepo *repository.ContentRepo
	exportRepo  *repository.ExportRepo
	jobRepo     *repository.JobRepo
	redis       *redis.Client
}

func NewExportHandler(
	projectRepo *repository.ProjectRepo,
	contentRepo *repository.ContentRepo,
	exportRepo *repository.ExportRepo,
	jobRepo *repository.JobRepo,
	redisClient *redis.Client,
) *ExportHandler {
	return &ExportHandler{
		projectRepo: projectRepo,
		contentRepo: contentRepo,
		exportRepo:  exportRepo,
		jobRepo:     jobRepo,
		redis:       redisClient,
	}
}

// Create enqueues an export job for the project's latest content set.
func (h *ExportHandler) Create(w http.ResponseWriter, r *http.Request) {
	project, ok := loadOwnedProject(w, r, h.projectRepo)
	if !ok {
		return
	}

	var req models.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if !models.ExportFormats[req.Format] {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"format": fmt.Sprintf("Unsupported export format: %q", req.Format)}, r))
		return
	}

	set, err := h.contentRepo.LatestSet(r.Context(), project.ID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No content set for this project", r))
		return
	}

	exportJob := &models.ExportJob{
		ProjectID:    project.ID,
		ContentSetID: &set.ID,
		Format:       req.Format,
	}
	if err := h.exportRepo.Create(r.Context(), exportJob, req.Options); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create export", r))
		return
	}

	configBytes, _ := json.Marshal(req)
	job := &models.Job{
		ProjectID:   project.ID,
		UserID:      middleware.GetUserID(r.Context()),
		Type:        models.JobTypeExport,
		ReferenceID: exportJob.ID,
		ConfigJSON:  configBytes,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	h.redis.LPush(r.Context(), "queue:export", string(jobBytes))

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":    job.ID,
		"export_id": exportJob.ID,
	})
}

// Get returns one export job's status and artifact location.
func (h *ExportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "exportID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid export ID", r))
		return
	}

	exportJob, err := h.exportRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Export not found", r))
		return
	}

	project, err := h.projectRepo.GetByID(r.Context(), exportJob.ProjectID)
	if err != nil || project.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	writeJSON(w, http.StatusOK, exportJob)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/redis/go-redis/v9"

	"skillbeam-backend/internal/middleware"
	"skillbeam-backend/internal/models"
	"skillbeam-backend/internal/repository"
)

type GenerateHandler struct {
	projectRepo *repository.ProjectRepo
	jobRepo     *repository.JobRepo
	redis       *redis.Client
}

func NewGenerateHandler(projectRepo *repository.ProjectRepo, jobRepo *repository.JobRepo, redisClient *redis.Client) *GenerateHandler {
	return &GenerateHandler{projectRepo: projectRepo, jobRepo: jobRepo, redis: redisClient}
}

// Generate enqueues a content generation job for the project's latest
// source asset.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	project, ok := loadOwnedProject(w, r, h.projectRepo)
	if !ok {
		return
	}

	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.MaxItems <= 0 {
		req.MaxItems = 10
	}
	if req.MaxItems > 50 {
		req.MaxItems = 50
	}

	asset, err := h.projectRepo.LatestSourceAsset(r.Context(), project.ID)
	if err != nil || asset.RawText == nil || *asset.RawText == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"source": "Project has no usable source; call source init first"}, r))
		return
	}

	configBytes, _ := json.Marshal(req)
	job := &models.Job{
		ProjectID:   project.ID,
		UserID:      middleware.GetUserID(r.Context()),
		Type:        models.JobTypeGenerate,
		ReferenceID: asset.ID,
		ConfigJSON:  configBytes,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	h.redis.LPush(r.Context(), "queue:generate", string(jobBytes))

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":     job.ID,
		"project_id": project.ID,
	})
}

package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"skillbeam-backend/internal/middleware"
	"skillbeam-backend/internal/models"
	"skillbeam-backend/internal/repository"
)

type ProjectHandler struct {
	projectRepo *repository.ProjectRepo
	contentRepo *repository.ContentRepo
	jobRepo     *repository.JobRepo
	exportRepo  *repository.ExportRepo
	versionRepo *repository.VersionRepo
}

func NewProjectHandler(
	projectRepo *repository.ProjectRepo,
	contentRepo *repository.ContentRepo,
	jobRepo *repository.JobRepo,
	exportRepo *repository.ExportRepo,
	versionRepo *repository.VersionRepo,
) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		contentRepo: contentRepo,
		jobRepo:     jobRepo,
		exportRepo:  exportRepo,
		versionRepo: versionRepo,
	}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"title": "Title is required"}, r))
		return
	}

	project := &models.Project{
		UserID: middleware.GetUserID(r.Context()),
		Title:  strings.TrimSpace(req.Title),
	}
	if err := h.projectRepo.Create(r.Context(), project); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create project", r))
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	projects, err := h.projectRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch projects", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwnedProject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwnedProject(w, r)
	if !ok {
		return
	}

	if err := h.projectRepo.Delete(r.Context(), project.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete project", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted"})
}

// InitSource registers the project's raw source. Text sources carry the
// material itself, theme sources just name the subject the generator
// should expand on.
func (h *ProjectHandler) InitSource(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwnedProject(w, r)
	if !ok {
		return
	}

	var req models.SourceInitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	var rawText string
	switch req.SourceType {
	case "text":
		rawText = strings.TrimSpace(req.RawText)
		if rawText == "" {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"raw_text": "Text sources require raw_text"}, r))
			return
		}
	case "theme":
		rawText = strings.TrimSpace(req.RawText)
		if rawText == "" {
			rawText = strings.TrimSpace(req.Topic)
		}
		if rawText == "" {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"topic": "Theme sources require a topic"}, r))
			return
		}
	default:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"source_type": "Must be \"text\" or \"theme\""}, r))
		return
	}

	hash := sha256.Sum256([]byte(rawText))
	sourceHash := hex.EncodeToString(hash[:])

	asset := &models.SourceAsset{
		ProjectID:  project.ID,
		SourceType: req.SourceType,
		RawText:    &rawText,
		SourceHash: &sourceHash,
		Status:     "ready",
	}
	if err := h.projectRepo.CreateSourceAsset(r.Context(), asset); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save source", r))
		return
	}
	if project.State == models.ProjectStateDraft {
		h.projectRepo.UpdateState(r.Context(), project.ID, models.ProjectStateIngested)
	}

	writeJSON(w, http.StatusCreated, asset)
}

func (h *ProjectHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwnedProject(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	resp := models.AnalyticsResponse{ProjectID: project.ID}

	if set, err := h.contentRepo.LatestSet(ctx, project.ID); err == nil {
		resp.LatestContentSetID = &set.ID
	}
	resp.TotalItems, _ = h.contentRepo.CountItemsByProject(ctx, project.ID)
	resp.ByItemType, _ = h.contentRepo.ItemCountsByProject(ctx, project.ID, "item_type")
	resp.ByDifficulty, _ = h.contentRepo.ItemCountsByProject(ctx, project.ID, "difficulty")
	resp.JobsByStatus, _ = h.jobRepo.CountByStatusForProject(ctx, project.ID)
	resp.ExportByFormat, _ = h.exportRepo.CountByFormatForProject(ctx, project.ID)
	resp.QuestionBankVersions, _ = h.versionRepo.CountByProject(ctx, project.ID)
	resp.PronoteImportRuns, _ = h.versionRepo.CountImportRunsByProject(ctx, project.ID)

	writeJSON(w, http.StatusOK, resp)
}

func (h *ProjectHandler) loadOwnedProject(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	return loadOwnedProject(w, r, h.projectRepo)
}

// loadOwnedProject resolves {id} and enforces ownership, writing the
// error response itself on failure.
func loadOwnedProject(w http.ResponseWriter, r *http.Request, projectRepo *repository.ProjectRepo) (*models.Project, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid project ID", r))
		return nil, false
	}

	project, err := projectRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Project not found", r))
		return nil, false
	}
	if project.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return project, true
}

package handlers

import (
	"encoding/json"
	"net/http"

	"skillbeam-backend/internal/models"
	"skillbeam-backend/internal/repository"
	"skillbeam-backend/internal/services"
)

type ContentHandler struct {
	projectRepo *repository.ProjectRepo
	contentRepo *repository.ContentRepo
	versionRepo *repository.VersionRepo
}

func NewContentHandler(projectRepo *repository.ProjectRepo, contentRepo *repository.ContentRepo, versionRepo *repository.VersionRepo) *ContentHandler {
	return &ContentHandler{projectRepo: projectRepo, contentRepo: contentRepo, versionRepo: versionRepo}
}

// Get returns the project's latest content set with its items.
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, ok := loadOwnedProject(w, r, h.projectRepo)
	if !ok {
		return
	}

	set, err := h.contentRepo.LatestSet(r.Context(), project.ID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No content set for this project", r))
		return
	}
	items, err := h.contentRepo.ListItems(r.Context(), set.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch items", r))
		return
	}

	writeJSON(w, http.StatusOK, models.ContentSetResponse{
		ContentSetID: set.ID,
		ProjectID:    set.ProjectID,
		Status:       set.Status,
		Language:     set.Language,
		Level:        set.Level,
		Items:        items,
	})
}

// Save replaces the content set's items with the edited ones. Items are
// re-normalized and reconciled server side, and the saved state is
// recorded as an automatic question bank version.
func (h *ContentHandler) Save(w http.ResponseWriter, r *http.Request) {
	project, ok := loadOwnedProject(w, r, h.projectRepo)
	if !ok {
		return
	}

	var req models.ContentSetUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	set, err := h.contentRepo.LatestSet(r.Context(), project.ID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No content set for this project", r))
		return
	}
	if req.ContentSetID != nil && *req.ContentSetID != set.ID {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Content set is no longer current", r))
		return
	}

	items := services.SanitizeItems(req.Items, len(req.Items))
	if len(items) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"items": "At least one item with a prompt is required"}, r))
		return
	}

	if err := h.contentRepo.ReplaceItems(r.Context(), set.ID, items); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save items", r))
		return
	}
	h.versionRepo.Snapshot(r.Context(), set.ID, versionLabelAutoSave, items)
	h.contentRepo.UpdateSetStatus(r.Context(), set.ID, "reviewed")
	if project.State == models.ProjectStateGenerated {
		h.projectRepo.UpdateState(r.Context(), project.ID, models.ProjectStateReviewed)
	}

	writeJSON(w, http.StatusOK, models.ContentSetResponse{
		ContentSetID: set.ID,
		ProjectID:    set.ProjectID,
		Status:       "reviewed",
		Language:     set.Language,
		Level:        set.Level,
		Items:        items,
	})
}

// QualityPreview scores the latest content set without persisting anything.
func (h *ContentHandler) QualityPreview(w http.ResponseWriter, r *http.Request) {
	project, ok := loadOwnedProject(w, r, h.projectRepo)
	if !ok {
		return
	}

	set, err := h.contentRepo.LatestSet(r.Context(), project.ID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No content set for this project", r))
		return
	}
	items, err := h.contentRepo.ListItems(r.Context(), set.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch items", r))
		return
	}

	writeJSON(w, http.StatusOK, services.ComputeQualityPreview(project.ID, set.ID, items))
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"skillbeam-backend/internal/models"
	"skillbeam-backend/internal/reconcile"
	"skillbeam-backend/internal/repository"
)

// Labels for snapshots the backend creates on its own.
const (
	versionLabelAutoSave   = "Version auto (edition)"
	versionLabelPreImport  = "Version auto (import)"
	versionLabelPreRestore = "Version auto (restauration)"
	versionLabelManual     = "Version enseignant"
)

type VersionHandler struct {
	projectRepo *repository.ProjectRepo
	contentRepo *repository.ContentRepo
	versionRepo *repository.VersionRepo
}

func NewVersionHandler(projectRepo *repository.ProjectRepo, contentRepo *repository.ContentRepo, versionRepo *repository.VersionRepo) *VersionHandler {
	return &VersionHandler{projectRepo: projectRepo, contentRepo: contentRepo, versionRepo: versionRepo}
}

// versionLabel trims a caller-supplied label and falls back to the
// manual default when nothing usable remains.
func versionLabel(raw string) string {
	if label := strings.TrimSpace(raw); label != "" {
		return label
	}
	return versionLabelManual
}

// List returns the question bank versions of the project's latest
// content set, newest first, without snapshot payloads.
func (h *VersionHandler) List(w http.ResponseWriter, r *http.Request) {
	project, ok := loadOwnedProject(w, r, h.projectRepo)
	if !ok {
		return
	}

	set, err := h.contentRepo.LatestSet(r.Context(), project.ID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"versions": []models.QuestionBankVersion{}})
		return
	}
	versions, err := h.versionRepo.ListByContentSet(r.Context(), set.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch versions", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content_set_id": set.ID,
		"versions":       versions,
	})
}

// Create snapshots the current items of a content set on demand, so a
// teacher can pin a known-good state before a risky batch of edits.
func (h *VersionHandler) Create(w http.ResponseWriter, r *http.Request) {
	project, ok := loadOwnedProject(w, r, h.projectRepo)
	if !ok {
		return
	}

	var req models.VersionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	var set *models.ContentSet
	var err error
	if req.ContentSetID != nil {
		set, err = h.contentRepo.GetSet(r.Context(), *req.ContentSetID)
		if err != nil || set.ProjectID != project.ID {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Content set not found", r))
			return
		}
	} else {
		set, err = h.contentRepo.LatestSet(r.Context(), project.ID)
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No content set to version", r))
			return
		}
	}

	items, err := h.contentRepo.ListItems(r.Context(), set.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch items", r))
		return
	}

	version, err := h.versionRepo.Snapshot(r.Context(), set.ID, versionLabel(req.Label), items)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create version", r))
		return
	}

	writeJSON(w, http.StatusCreated, version)
}

// Restore replaces the content set's items with a stored snapshot. The
// current items are snapshotted first so a restore is itself undoable.
func (h *VersionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	project, ok := loadOwnedProject(w, r, h.projectRepo)
	if !ok {
		return
	}

	var req models.VersionRestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	version, err := h.versionRepo.GetByID(r.Context(), req.VersionID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Version not found", r))
		return
	}
	set, err := h.contentRepo.GetSet(r.Context(), version.ContentSetID)
	if err != nil || set.ProjectID != project.ID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	items := decodeSnapshotItems(version.SnapshotJSON)
	if len(items) == 0 {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Snapshot is unreadable", r))
		return
	}

	current, _ := h.contentRepo.ListItems(r.Context(), set.ID)
	if len(current) > 0 {
		h.versionRepo.Snapshot(r.Context(), set.ID, versionLabelPreRestore, current)
	}

	if err := h.contentRepo.ReplaceItems(r.Context(), set.ID, items); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to restore items", r))
		return
	}
	h.projectRepo.UpdateState(r.Context(), project.ID, models.ProjectStateReviewed)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content_set_id":   set.ID,
		"restored_version": version.VersionNum,
		"items":            items,
	})
}

// decodeSnapshotItems rebuilds items from a stored snapshot, row by
// row. Old snapshots may carry partial rows: unreadable rows and rows
// without a prompt are skipped, an unknown type falls back to mcq, list
// fields tolerate non-string entries, and positions are reassigned.
func decodeSnapshotItems(snapshot json.RawMessage) []models.ContentItem {
	var rows []json.RawMessage
	if err := json.Unmarshal(snapshot, &rows); err != nil {
		return nil
	}

	items := make([]models.ContentItem, 0, len(rows))
	for _, row := range rows {
		var raw struct {
			ItemType        string          `json:"item_type"`
			Prompt          string          `json:"prompt"`
			CorrectAnswer   string          `json:"correct_answer"`
			Distractors     json.RawMessage `json:"distractors"`
			AnswerOptions   json.RawMessage `json:"answer_options"`
			Tags            json.RawMessage `json:"tags"`
			Difficulty      string          `json:"difficulty"`
			Feedback        string          `json:"feedback"`
			SourceReference string          `json:"source_reference"`
		}
		if err := json.Unmarshal(row, &raw); err != nil {
			continue
		}
		prompt := strings.TrimSpace(raw.Prompt)
		if prompt == "" {
			continue
		}
		itemType := strings.TrimSpace(raw.ItemType)
		if itemType == "" {
			itemType = models.ItemTypeMCQ
		}
		items = append(items, models.ContentItem{
			ItemType:        itemType,
			Prompt:          prompt,
			CorrectAnswer:   raw.CorrectAnswer,
			Distractors:     coerceStringList(raw.Distractors),
			AnswerOptions:   coerceStringList(raw.AnswerOptions),
			Tags:            coerceStringList(raw.Tags),
			Difficulty:      reconcile.NormalizeDifficulty(raw.Difficulty),
			Feedback:        raw.Feedback,
			SourceReference: raw.SourceReference,
			Position:        len(items),
		})
	}
	return items
}

// coerceStringList reads a snapshot list field that may hold non-string
// entries, stringifying each and dropping blanks. Anything that is not
// a list yields an empty slice.
func coerceStringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var entries []interface{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []string{}
	}
	values := make([]string, 0, len(entries))
	for _, entry := range entries {
		value := strings.TrimSpace(fmt.Sprint(entry))
		if value == "" || value == "<nil>" {
			continue
		}
		values = append(values, value)
	}
	return values
}

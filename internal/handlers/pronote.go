package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"skillbeam-backend/internal/models"
	"skillbeam-backend/internal/pronote"
	"skillbeam-backend/internal/reconcile"
	"skillbeam-backend/internal/repository"
)

const maxImportSize = 10 << 20 // 10 MB

type PronoteHandler struct {
	projectRepo *repository.ProjectRepo
	contentRepo *repository.ContentRepo
	versionRepo *repository.VersionRepo
}

func NewPronoteHandler(projectRepo *repository.ProjectRepo, contentRepo *repository.ContentRepo, versionRepo *repository.VersionRepo) *PronoteHandler {
	return &PronoteHandler{projectRepo: projectRepo, contentRepo: contentRepo, versionRepo: versionRepo}
}

// Import parses a PRONOTE quiz XML upload and merges the resulting items
// into the project's content set. ?mode=replace discards existing items,
// the default appends after them.
func (h *PronoteHandler) Import(w http.ResponseWriter, r *http.Request) {
	project, ok := loadOwnedProject(w, r, h.projectRepo)
	if !ok {
		return
	}

	xmlContent, filename, ok := readImportPayload(w, r)
	if !ok {
		return
	}

	result, err := pronote.Parse(xmlContent)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"file": err.Error()}, r))
		return
	}
	if len(result.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"file": "No importable questions found"}, r))
		return
	}
	imported := reconcile.NormalizeItems(result.Items)

	ctx := r.Context()
	set, err := h.contentRepo.LatestSet(ctx, project.ID)
	if err != nil {
		set = &models.ContentSet{ProjectID: project.ID}
		if err := h.contentRepo.CreateSet(ctx, set); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create content set", r))
			return
		}
	}

	previous, _ := h.contentRepo.ListItems(ctx, set.ID)
	if len(previous) > 0 {
		h.versionRepo.Snapshot(ctx, set.ID, versionLabelPreImport, previous)
	}

	items := imported
	if r.URL.Query().Get("mode") != "replace" && len(previous) > 0 {
		items = append(previous, imported...)
		for i := range items {
			items[i].Position = i
		}
	}
	if err := h.contentRepo.ReplaceItems(ctx, set.ID, items); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save items", r))
		return
	}
	if project.State == models.ProjectStateDraft || project.State == models.ProjectStateIngested {
		h.projectRepo.UpdateState(ctx, project.ID, models.ProjectStateGenerated)
	}

	stats := models.PronoteImportStats{
		TotalQuestions: result.Total,
		Imported:       len(result.Items),
		Skipped:        result.Skipped(),
		ByType:         result.ByType,
	}
	statsBytes, _ := json.Marshal(stats)
	run := &models.PronoteImportRun{
		ProjectID:    project.ID,
		ContentSetID: set.ID,
		Filename:     filename,
		StatsJSON:    statsBytes,
	}
	h.versionRepo.CreateImportRun(ctx, run)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"import_run_id":  run.ID,
		"content_set_id": set.ID,
		"stats":          stats,
		"total_items":    len(items),
	})
}

// readImportPayload accepts either a multipart upload (field "file") or a
// raw XML body.
func readImportPayload(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	if err := r.ParseMultipartForm(maxImportSize); err == nil {
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Failed to read uploaded file", r))
				return "", "", false
			}
			return string(data), header.Filename, true
		}
	}

	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Request body must contain quiz XML", r))
		return "", "", false
	}
	return string(data), "upload.xml", true
}

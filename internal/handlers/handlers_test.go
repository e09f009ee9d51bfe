package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"skillbeam-backend/internal/models"
	"skillbeam-backend/internal/services"
)

// ─── Response Helper Tests ───

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"message": "ok"})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["message"] != "ok" {
		t.Errorf("Unexpected body: %+v", body)
	}
}

func TestErrorResp_CarriesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("X-Request-ID", "req-42")

	resp := errorResp("NOT_FOUND", "Project not found", req)

	if resp.Error.Code != "NOT_FOUND" || resp.Error.Message != "Project not found" {
		t.Errorf("Unexpected error payload: %+v", resp.Error)
	}
	if resp.Error.RequestID != "req-42" {
		t.Errorf("Expected request ID req-42, got %q", resp.Error.RequestID)
	}
}

func TestHandleServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"title": "required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "dup"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "gone"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "nope"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "no"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "slow down"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unknown", bytes.ErrTooLarge, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, rr.Code)
			}
			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error.Code != tc.code {
				t.Errorf("Expected code %q, got %q", tc.code, resp.Error.Code)
			}
		})
	}
}

// ─── Import Payload Tests ───

func TestReadImportPayload_RawBody(t *testing.T) {
	xml := `<?xml version="1.0"?><quiz></quiz>`
	req := httptest.NewRequest(http.MethodPost, "/import", bytes.NewBufferString(xml))
	rr := httptest.NewRecorder()

	content, filename, ok := readImportPayload(rr, req)

	if !ok {
		t.Fatalf("Expected payload to be accepted: %s", rr.Body.String())
	}
	if content != xml {
		t.Errorf("Payload mismatch: %q", content)
	}
	if filename != "upload.xml" {
		t.Errorf("Expected default filename, got %q", filename)
	}
}

func TestReadImportPayload_Multipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "quiz_export.xml")
	fw.Write([]byte("<quiz></quiz>"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()

	content, filename, ok := readImportPayload(rr, req)

	if !ok {
		t.Fatalf("Expected payload to be accepted: %s", rr.Body.String())
	}
	if content != "<quiz></quiz>" {
		t.Errorf("Payload mismatch: %q", content)
	}
	if filename != "quiz_export.xml" {
		t.Errorf("Expected uploaded filename, got %q", filename)
	}
}

func TestReadImportPayload_EmptyBodyRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/import", nil)
	rr := httptest.NewRecorder()

	_, _, ok := readImportPayload(rr, req)

	if ok {
		t.Fatal("Expected empty body to be rejected")
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

// ─── Version Snapshot Tests ───

func TestVersionLabel_DefaultsWhenBlank(t *testing.T) {
	if got := versionLabel("  Avant controle  "); got != "Avant controle" {
		t.Errorf("Expected trimmed label, got %q", got)
	}
	if got := versionLabel("   "); got != "Version enseignant" {
		t.Errorf("Expected default label, got %q", got)
	}
}

func TestDecodeSnapshotItems_ToleratesPartialRows(t *testing.T) {
	snapshot := json.RawMessage(`[
		{"prompt": "Quelle est la capitale?", "correct_answer": "Paris", "distractors": ["Lyon", 42, ""]},
		{"item_type": "cloze", "prompt": "   "},
		"not an object",
		{"item_type": "open_question", "prompt": "Pourquoi?", "difficulty": "tres dur"}
	]`)

	items := decodeSnapshotItems(snapshot)

	if len(items) != 2 {
		t.Fatalf("Expected 2 restorable items, got %d", len(items))
	}
	if items[0].ItemType != models.ItemTypeMCQ {
		t.Errorf("Expected missing type to default to mcq, got %q", items[0].ItemType)
	}
	if len(items[0].Distractors) != 2 || items[0].Distractors[1] != "42" {
		t.Errorf("Expected coerced distractors, got %v", items[0].Distractors)
	}
	if items[0].Difficulty != "medium" {
		t.Errorf("Expected default difficulty, got %q", items[0].Difficulty)
	}
	if items[1].Position != 1 {
		t.Errorf("Expected positions reassigned in order, got %d", items[1].Position)
	}
}

func TestDecodeSnapshotItems_UnreadableSnapshot(t *testing.T) {
	if items := decodeSnapshotItems(json.RawMessage(`{"oops": true}`)); items != nil {
		t.Errorf("Expected nil for a non-array snapshot, got %v", items)
	}
}

func TestCoerceStringList_NonListYieldsEmpty(t *testing.T) {
	if got := coerceStringList(json.RawMessage(`"a;b"`)); len(got) != 0 {
		t.Errorf("Expected empty slice for a string value, got %v", got)
	}
	if got := coerceStringList(nil); len(got) != 0 {
		t.Errorf("Expected empty slice for absent value, got %v", got)
	}
}

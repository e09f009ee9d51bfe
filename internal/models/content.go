package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item types produced by generation and handled by the editor.
const (
	ItemTypeMCQ             = "mcq"
	ItemTypePoll            = "poll"
	ItemTypeOpenQuestion    = "open_question"
	ItemTypeCloze           = "cloze"
	ItemTypeMatching        = "matching"
	ItemTypeBrainstorming   = "brainstorming"
	ItemTypeFlashcard       = "flashcard"
	ItemTypeCourseStructure = "course_structure"
)

// ContentItem is one pedagogical item of a content set.
//
// CorrectAnswer is overloaded per item type: a single value for open
// questions, a " || "-joined ordered list for cloze blanks, a " || "-joined
// set for multi-correct choices, and a " ; "-joined list of "left -> right"
// pairs for matching items. Exporters depend on these encodings verbatim.
type ContentItem struct {
	ID              uuid.UUID `json:"id"`
	ItemType        string    `json:"item_type"`
	Prompt          string    `json:"prompt"`
	CorrectAnswer   string    `json:"correct_answer"`
	Distractors     []string  `json:"distractors"`
	AnswerOptions   []string  `json:"answer_options"`
	Tags            []string  `json:"tags"`
	Difficulty      string    `json:"difficulty"`
	Feedback        string    `json:"feedback"`
	SourceReference string    `json:"source_reference"`
	Position        int       `json:"position"`
}

// HasTag reports whether the item carries the given tag (case-insensitive).
func (c ContentItem) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

type ContentSet struct {
	ID               uuid.UUID  `json:"id"`
	ProjectID        uuid.UUID  `json:"project_id"`
	SourceDocumentID *uuid.UUID `json:"source_document_id"`
	Status           string     `json:"status"` // "generated" | "reviewed"
	Language         string     `json:"language"`
	Level            string     `json:"level"`
	CreatedAt        time.Time  `json:"created_at"`
}

type ContentSetResponse struct {
	ContentSetID uuid.UUID     `json:"content_set_id"`
	ProjectID    uuid.UUID     `json:"project_id"`
	Status       string        `json:"status"`
	Language     string        `json:"language"`
	Level        string        `json:"level"`
	Items        []ContentItem `json:"items"`
}

type ContentSetUpdateRequest struct {
	ContentSetID *uuid.UUID    `json:"content_set_id"`
	Items        []ContentItem `json:"items"`
}

type GenerateRequest struct {
	ContentTypes     []string `json:"content_types"`
	Instructions     string   `json:"instructions"`
	MaxItems         int      `json:"max_items"`
	Language         string   `json:"language"`
	Level            string   `json:"level"`
	Subject          string   `json:"subject"`
	ClassLevel       string   `json:"class_level"`
	DifficultyTarget string   `json:"difficulty_target"`
}

type ExportRequest struct {
	Format  string            `json:"format"`
	Options map[string]string `json:"options"`
}

// Export formats accepted by the export pipeline.
var ExportFormats = map[string]bool{
	"docx":        true,
	"pdf":         true,
	"xlsx":        true,
	"moodle_xml":  true,
	"pronote_xml": true,
	"qti":         true,
	"h5p":         true,
	"anki":        true,
}

type ExportJob struct {
	ID           uuid.UUID  `json:"id"`
	ProjectID    uuid.UUID  `json:"project_id"`
	ContentSetID *uuid.UUID `json:"content_set_id"`
	Format       string     `json:"format"`
	ObjectKey    *string    `json:"object_key"`
	MimeType     *string    `json:"mime_type"`
	Filename     *string    `json:"filename"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"skillbeam-backend/internal/models"
	"skillbeam-backend/internal/reconcile"
	"skillbeam-backend/internal/repository"
)

type GeminiService struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	contentRepo *repository.ContentRepo
	projectRepo *repository.ProjectRepo
	jobRepo     *repository.JobRepo
	redis       *redis.Client
	rateChan    chan struct{} // Token bucket
}

func NewGeminiService(
	apiKey string,
	modelName string,
	concurrentReqs int,
	contentRepo *repository.ContentRepo,
	projectRepo *repository.ProjectRepo,
	jobRepo *repository.JobRepo,
	redisClient *redis.Client,
) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:      client,
		model:       model,
		contentRepo: contentRepo,
		projectRepo: projectRepo,
		jobRepo:     jobRepo,
		redis:       redisClient,
		rateChan:    rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (s *GeminiService) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	s.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data))
}

// GenerateContentSet runs one generation job: prompt the model with the
// project's source text, parse the returned item array, reconcile every
// item and persist a fresh content set.
func (s *GeminiService) GenerateContentSet(ctx context.Context, job *models.Job, sourceText string) error {
	if err := s.acquireRate(ctx); err != nil {
		return err
	}
	defer s.releaseRate()

	var config models.GenerateRequest
	json.Unmarshal(job.ConfigJSON, &config)
	if config.MaxItems <= 0 {
		config.MaxItems = 10
	}

	prompt := buildGenerationPrompt(config, sourceText)

	s.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID: job.ID, Progress: 30, StepName: "Generating Items",
		},
	})
	s.jobRepo.UpdateProgress(ctx, job.ID, 30)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("Gemini API error: %w", err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("WARNING: Gemini candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	rawText := stripJSONFences(extractText(resp))

	var rawItems []models.ContentItem
	if err := json.Unmarshal([]byte(rawText), &rawItems); err != nil {
		// Try to extract the JSON array
		start := strings.Index(rawText, "[")
		end := strings.LastIndex(rawText, "]")
		if start >= 0 && end > start {
			json.Unmarshal([]byte(rawText[start:end+1]), &rawItems)
		}
	}

	items := SanitizeItems(rawItems, config.MaxItems)
	if len(items) == 0 {
		return fmt.Errorf("Gemini returned no usable items")
	}

	s.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID: job.ID, Progress: 70, StepName: "Saving Content Set",
		},
	})
	s.jobRepo.UpdateProgress(ctx, job.ID, 70)

	set := &models.ContentSet{
		ProjectID: job.ProjectID,
		Language:  config.Language,
		Level:     config.Level,
	}
	if err := s.contentRepo.CreateSet(ctx, set); err != nil {
		return err
	}
	if err := s.contentRepo.ReplaceItems(ctx, set.ID, items); err != nil {
		return err
	}
	if err := s.jobRepo.UpdateResult(ctx, job.ID, set.ID); err != nil {
		return err
	}
	return s.projectRepo.UpdateState(ctx, job.ProjectID, models.ProjectStateGenerated)
}

// SanitizeItems drops unusable entries and runs every surviving item
// through the type-specific reconcilers so the saved set already
// satisfies the editor invariants.
func SanitizeItems(rawItems []models.ContentItem, maxItems int) []models.ContentItem {
	items := make([]models.ContentItem, 0, len(rawItems))
	for _, item := range rawItems {
		item.Prompt = reconcile.StripQuestionPrefix(item.Prompt)
		if strings.TrimSpace(item.Prompt) == "" {
			continue
		}
		if !isKnownItemType(item.ItemType) {
			item.ItemType = models.ItemTypeMCQ
		}
		item.Difficulty = reconcile.NormalizeDifficulty(item.Difficulty)

		switch item.ItemType {
		case models.ItemTypeMCQ, models.ItemTypePoll:
			state := reconcile.BuildChoiceEditorState(item)
			item = reconcile.BuildChoicePatch(item, state.Choices, state.CorrectKeys,
				reconcile.AllowsMultipleCorrectAnswers(item))
		case models.ItemTypeCloze:
			item = reconcile.BuildClozePatch(item, reconcile.BuildClozeExpectedAnswers(item))
		case models.ItemTypeMatching:
			item = reconcile.BuildMatchingPatch(item, reconcile.ParseMatchingPairs(item))
		}

		items = append(items, item)
		if len(items) >= maxItems {
			break
		}
	}
	for i := range items {
		items[i].Position = i
	}
	return items
}

func isKnownItemType(itemType string) bool {
	switch itemType {
	case models.ItemTypeMCQ, models.ItemTypePoll, models.ItemTypeOpenQuestion,
		models.ItemTypeCloze, models.ItemTypeMatching, models.ItemTypeBrainstorming,
		models.ItemTypeFlashcard, models.ItemTypeCourseStructure:
		return true
	}
	return false
}

// Helper functions

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func stripJSONFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

func buildGenerationPrompt(config models.GenerateRequest, sourceText string) string {
	var b strings.Builder

	b.WriteString("Tu es un expert pedagogique francais. Genere des items d'evaluation a partir de la source fournie.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.\n\n")

	b.WriteString(fmt.Sprintf("Genere exactement %d items.\n", config.MaxItems))
	if len(config.ContentTypes) > 0 {
		b.WriteString(fmt.Sprintf("Types demandes: %s.\n", strings.Join(config.ContentTypes, ", ")))
	} else {
		b.WriteString("Types demandes: mcq, cloze, matching, open_question.\n")
	}
	if config.Subject != "" {
		b.WriteString(fmt.Sprintf("Matiere: %s.\n", config.Subject))
	}
	if config.ClassLevel != "" {
		b.WriteString(fmt.Sprintf("Classe: %s.\n", config.ClassLevel))
	}
	if config.DifficultyTarget != "" {
		b.WriteString(fmt.Sprintf("Difficulte cible: %s.\n", config.DifficultyTarget))
	}
	if config.Instructions != "" {
		b.WriteString(fmt.Sprintf("Instructions supplementaires: %s\n", config.Instructions))
	}

	b.WriteString(`
JSON schema per item:
{"item_type": "mcq"|"poll"|"open_question"|"cloze"|"matching", "prompt": "string", "correct_answer": "string", "distractors": ["string"], "answer_options": ["string"], "tags": ["string"], "difficulty": "easy"|"medium"|"hard", "feedback": "string", "source_reference": "section:N"}

Regles par type:
- mcq: exactement 1 bonne reponse dans correct_answer et au moins 3 distracteurs plausibles.
- cloze: le prompt contient un trou "____" par reponse attendue; correct_answer joint les reponses avec " || " dans l'ordre des trous.
- matching: correct_answer liste des paires "notion -> definition" separees par " ; "; au moins 3 paires sur des notions distinctes.
- open_question: correct_answer contient la reponse modele attendue.
- Chaque item reference sa section source dans source_reference.
`)

	b.WriteString("\n---SOURCE---\n")
	b.WriteString(sourceText)
	b.WriteString("\n---END---\n")

	return b.String()
}

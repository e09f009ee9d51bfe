package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"skillbeam-backend/internal/models"
	"skillbeam-backend/internal/repository"
	"skillbeam-backend/internal/services"
)

type Pool struct {
	redis       *redis.Client
	gemini      *services.GeminiService
	export      *services.ExportService
	projectRepo *repository.ProjectRepo
	jobRepo     *repository.JobRepo
	exportRepo  *repository.ExportRepo
	maxRetries  int
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	gemini *services.GeminiService,
	export *services.ExportService,
	projectRepo *repository.ProjectRepo,
	jobRepo *repository.JobRepo,
	exportRepo *repository.ExportRepo,
	maxRetries int,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		gemini:      gemini,
		export:      export,
		projectRepo: projectRepo,
		jobRepo:     jobRepo,
		exportRepo:  exportRepo,
		maxRetries:  maxRetries,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{
		"queue:generate",
		"queue:export",
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, models.JobStatusRunning)

		p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
			Type: "status_update",
			Payload: models.StatusUpdate{
				JobID:    job.ID,
				Progress: 10,
				StepName: "Job started",
			},
		})

		var processErr error
		switch job.Type {
		case models.JobTypeGenerate:
			processErr = p.processGenerate(ctx, &job)
		case models.JobTypeExport:
			processErr = p.processExport(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		p.redis.Del(ctx, lockKey)
	}
}

// processGenerate resolves the job's source asset and hands off to the
// generation service.
func (p *Pool) processGenerate(ctx context.Context, job *models.Job) error {
	asset, err := p.projectRepo.LatestSourceAsset(ctx, job.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to get source asset: %w", err)
	}
	if asset.RawText == nil || *asset.RawText == "" {
		return fmt.Errorf("source asset %s has no text", asset.ID)
	}

	return p.gemini.GenerateContentSet(ctx, job, *asset.RawText)
}

func (p *Pool) processExport(ctx context.Context, job *models.Job) error {
	exportJob, err := p.exportRepo.GetByID(ctx, job.ReferenceID)
	if err != nil {
		return fmt.Errorf("failed to get export job: %w", err)
	}

	if err := p.export.RunExport(ctx, exportJob); err != nil {
		p.exportRepo.MarkFailed(ctx, exportJob.ID)
		return err
	}

	if err := p.jobRepo.UpdateResult(ctx, job.ID, exportJob.ID); err != nil {
		return err
	}
	return p.projectRepo.UpdateState(ctx, job.ProjectID, models.ProjectStateExported)
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, models.JobStatusSucceeded)

	refreshed, err := p.jobRepo.GetByID(ctx, job.ID)
	resultID := job.ReferenceID
	if err == nil && refreshed.ResultID != nil {
		resultID = *refreshed.ResultID
	}

	p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "job_completed",
		Payload: models.CompletedEvent{
			JobID:      job.ID,
			ResultID:   resultID,
			ResultType: getResultType(job.Type),
		},
	})

	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < p.maxRetries {
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, models.JobStatusQueued)
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		// Re-queue after exponential backoff
		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), jobQueueName(job.Type), string(jobBytes))
		})
	} else {
		log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, models.JobStatusFailed)
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)
		if job.Type == models.JobTypeExport {
			p.exportRepo.MarkFailed(ctx, job.ReferenceID)
		}

		p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
			Type: "job_failed",
			Payload: models.ErrorEvent{
				JobID:        job.ID,
				ErrorCode:    "JOB_FAILED",
				ErrorMessage: errMsg,
			},
		})
	}
}

func jobQueueName(jobType string) string {
	switch jobType {
	case models.JobTypeGenerate:
		return "queue:generate"
	case models.JobTypeExport:
		return "queue:export"
	default:
		return "queue:" + jobType
	}
}

func getResultType(jobType string) string {
	switch jobType {
	case models.JobTypeGenerate:
		return "content_set"
	case models.JobTypeExport:
		return "export"
	default:
		return "job"
	}
}

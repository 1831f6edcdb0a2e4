package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/clipscout/clipscout/internal/queue"
	"github.com/clipscout/clipscout/internal/storage"
	"github.com/clipscout/clipscout/internal/types"
)

// AnalyzeHandler accepts analysis submissions.
type AnalyzeHandler struct {
	workerPool *queue.WorkerPool
	store      *storage.Store
}

// NewAnalyzeHandler creates an analyze handler.
func NewAnalyzeHandler(workerPool *queue.WorkerPool, store *storage.Store) *AnalyzeHandler {
	return &AnalyzeHandler{
		workerPool: workerPool,
		store:      store,
	}
}

type analyzeRequest struct {
	AudioURL    string `json:"audio_url"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	ContentType string `json:"content_type"`
}

// Handle enqueues the full transcription-and-analysis pipeline for an
// audio URL and returns immediately with a job id.
func (h *AnalyzeHandler) Handle(c *fiber.Ctx) error {
	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_BAD_REQUEST",
		})
	}

	if !strings.HasPrefix(req.AudioURL, "http://") && !strings.HasPrefix(req.AudioURL, "https://") {
		return c.Status(400).JSON(fiber.Map{
			"error": "audio_url must be an http(s) URL",
			"code":  "ERR_INVALID_URL",
		})
	}

	if req.Name == "" {
		req.Name = "untitled"
	}
	if req.ContentType != types.ContentVideo {
		req.ContentType = types.ContentAudio
	}

	jobID := uuid.New().String()
	if err := h.store.CreateJob(&storage.JobRecord{
		ID:          jobID,
		Name:        req.Name,
		AudioURL:    req.AudioURL,
		ContentType: req.ContentType,
	}); err != nil {
		log.Printf("Failed to create job record: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to create job",
			"code":  "ERR_CREATE_FAILED",
		})
	}

	h.workerPool.EnqueueJob(queue.NewJob(jobID, req.Name, req.AudioURL, req.Language, req.ContentType))

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  types.StatusQueued,
		"message": "Analysis started",
	})
}

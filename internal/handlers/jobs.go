package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clipscout/clipscout/internal/storage"
)

// JobsHandler serves persisted jobs and their clips.
type JobsHandler struct {
	store *storage.Store
}

// NewJobsHandler creates a jobs handler.
func NewJobsHandler(store *storage.Store) *JobsHandler {
	return &JobsHandler{store: store}
}

// List returns recent jobs, newest first.
func (h *JobsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	jobs, err := h.store.ListJobs(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if jobs == nil {
		jobs = []storage.JobRecord{}
	}
	return c.JSON(jobs)
}

// Get returns one job by id.
func (h *JobsHandler) Get(c *fiber.Ctx) error {
	job, err := h.store.GetJob(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Job not found"})
	}
	return c.JSON(job)
}

// GetClips returns a job's ranked clip candidates.
func (h *JobsHandler) GetClips(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if _, err := h.store.GetJob(jobID); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Job not found"})
	}
	clips, err := h.store.GetClips(jobID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"job_id": jobID,
		"clips":  clips,
	})
}

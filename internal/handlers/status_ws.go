package handlers

import (
	"log"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/clipscout/clipscout/internal/storage"
	"github.com/clipscout/clipscout/internal/types"
)

// StatusHandler streams job status over a WebSocket so dashboards get
// progress without polling the REST API.
type StatusHandler struct {
	store    *storage.Store
	interval time.Duration
}

// NewStatusHandler creates a status stream handler.
func NewStatusHandler(store *storage.Store) *StatusHandler {
	return &StatusHandler{
		store:    store,
		interval: time.Second,
	}
}

type statusUpdate struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	ClipCount int    `json:"clip_count,omitempty"`
}

// Handle pushes status updates until the job reaches a terminal state.
func (h *StatusHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	jobID := c.Params("id")
	log.Printf("Status stream opened for job %s", jobID)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var lastStatus string
	for {
		job, err := h.store.GetJob(jobID)
		if err != nil {
			c.WriteJSON(statusUpdate{JobID: jobID, Status: "unknown", Error: "job not found"})
			return
		}

		if job.Status != lastStatus {
			update := statusUpdate{JobID: jobID, Status: job.Status, Error: job.Error}
			if job.Status == types.StatusCompleted {
				if clips, err := h.store.GetClips(jobID); err == nil {
					update.ClipCount = len(clips)
				}
			}
			if err := c.WriteJSON(update); err != nil {
				log.Printf("Status stream write failed for job %s: %v", jobID, err)
				return
			}
			lastStatus = job.Status
		}

		if job.Status == types.StatusCompleted || job.Status == types.StatusError {
			log.Printf("Status stream for job %s closed (%s)", jobID, job.Status)
			return
		}

		<-ticker.C
	}
}

package queue

import (
	"time"

	"github.com/clipscout/clipscout/internal/types"
)

// Job is one analysis request moving through the pipeline.
type Job struct {
	ID          string
	Name        string
	AudioURL    string
	Language    string
	ContentType string
	Status      string
	Error       error
	CreatedAt   time.Time
}

// NewJob creates a queued job for an audio URL.
func NewJob(id, name, audioURL, language, contentType string) *Job {
	if contentType == "" {
		contentType = types.ContentAudio
	}
	return &Job{
		ID:          id,
		Name:        name,
		AudioURL:    audioURL,
		Language:    language,
		ContentType: contentType,
		Status:      types.StatusQueued,
		CreatedAt:   time.Now(),
	}
}

package queue

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"github.com/clipscout/clipscout/internal/storage"
	"github.com/clipscout/clipscout/internal/transcription"
	"github.com/clipscout/clipscout/internal/types"
)

// Transcriber is the slice of the transcription client the pipeline needs.
type Transcriber interface {
	Submit(ctx context.Context, req transcription.Request) (string, error)
	PollUntilComplete(ctx context.Context, jobID string) (*types.TranscriptionJob, error)
}

// Analyzer turns a finished transcript into ranked clip candidates.
type Analyzer interface {
	AnalyzeTranscript(ctx context.Context, req types.AnalysisRequest) ([]types.ViralMoment, error)
}

// WorkerPool runs analysis jobs off the request path. The transcription
// poll alone can take minutes, so this is the only place the pipeline is
// allowed to block.
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int
	transcriber Transcriber
	analyzer    Analyzer
	store       *storage.Store
}

// NewWorkerPool creates a pool of workerCount pipeline workers.
func NewWorkerPool(workerCount int, transcriber Transcriber, analyzer Analyzer, store *storage.Store) *WorkerPool {
	return &WorkerPool{
		jobQueue:    make(chan *Job, 100), // Buffer of 100 jobs
		workerCount: workerCount,
		transcriber: transcriber,
		analyzer:    analyzer,
		store:       store,
	}
}

// Start launches the workers. They stop when ctx is cancelled or the
// queue is closed.
func (wp *WorkerPool) Start(ctx context.Context) {
	log.Printf("Starting worker pool with %d workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		go wp.worker(ctx, i)
	}
}

// Stop closes the queue; running jobs finish, idle workers exit.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
}

// EnqueueJob adds a job to the queue.
func (wp *WorkerPool) EnqueueJob(job *Job) {
	job.Status = types.StatusQueued
	job.CreatedAt = time.Now()
	wp.jobQueue <- job
	log.Printf("Job %s enqueued (url: %s, name: %s)", job.ID, job.AudioURL, job.Name)
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %d stopping: %v", id, ctx.Err())
			return
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			// Panic recovery
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("Worker %d: PANIC processing job %s: %v\n%s",
							id, job.ID, r, string(debug.Stack()))
						wp.failJob(job, fmt.Errorf("worker panic: %v", r))
					}
				}()
				wp.processJob(ctx, id, job)
			}()
		}
	}
}

// processJob runs the complete analysis pipeline for one job.
func (wp *WorkerPool) processJob(ctx context.Context, workerID int, job *Job) {
	log.Printf("Worker %d: Processing job %s", workerID, job.ID)
	job.Status = types.StatusProcessing
	if err := wp.store.UpdateStatus(job.ID, types.StatusProcessing, ""); err != nil {
		log.Printf("Worker %d: Status update failed for job %s: %v", workerID, job.ID, err)
	}

	// Step 1: Submit the audio for transcription
	externalID, err := wp.transcriber.Submit(ctx, transcription.Request{
		AudioURL:  job.AudioURL,
		Language:  job.Language,
		Punctuate: true,
	})
	if err != nil {
		log.Printf("Worker %d: Submission failed for job %s: %v", workerID, job.ID, err)
		wp.failJob(job, fmt.Errorf("transcription submission failed: %v", err))
		return
	}
	if err := wp.store.SetExternalID(job.ID, externalID); err != nil {
		log.Printf("Worker %d: Failed to record external id for job %s: %v", workerID, job.ID, err)
	}

	// Step 2: Poll until the provider finishes
	transcript, err := wp.transcriber.PollUntilComplete(ctx, externalID)
	if err != nil {
		log.Printf("Worker %d: Transcription failed for job %s: %v", workerID, job.ID, err)
		wp.failJob(job, fmt.Errorf("transcription failed: %v", err))
		return
	}

	// Step 3: Extract ranked clip candidates
	clips, err := wp.analyzer.AnalyzeTranscript(ctx, types.AnalysisRequest{
		Transcript:  transcript.Text,
		Segments:    transcript.Segments,
		Duration:    transcript.Duration,
		ContentType: job.ContentType,
	})
	if err != nil {
		log.Printf("Worker %d: Analysis failed for job %s: %v", workerID, job.ID, err)
		wp.failJob(job, fmt.Errorf("analysis failed: %v", err))
		return
	}

	// Step 4: Persist transcript and clips
	if err := wp.store.SaveResult(job.ID, transcript, clips); err != nil {
		log.Printf("Worker %d: Save failed for job %s: %v", workerID, job.ID, err)
		wp.failJob(job, fmt.Errorf("failed to save result: %v", err))
		return
	}

	job.Status = types.StatusCompleted
	log.Printf("Worker %d: Job %s completed with %d clips (%.2fs of audio)",
		workerID, job.ID, len(clips), transcript.Duration)
}

func (wp *WorkerPool) failJob(job *Job, err error) {
	job.Status = types.StatusError
	job.Error = err
	if dbErr := wp.store.UpdateStatus(job.ID, types.StatusError, err.Error()); dbErr != nil {
		log.Printf("Failed to record failure for job %s: %v", job.ID, dbErr)
	}
}

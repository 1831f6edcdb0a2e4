package queue

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/clipscout/clipscout/internal/storage"
	"github.com/clipscout/clipscout/internal/transcription"
	"github.com/clipscout/clipscout/internal/types"
)

type fakeTranscriber struct {
	submitErr error
	pollErr   error
	job       *types.TranscriptionJob
}

func (f *fakeTranscriber) Submit(ctx context.Context, req transcription.Request) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "ext-1", nil
}

func (f *fakeTranscriber) PollUntilComplete(ctx context.Context, jobID string) (*types.TranscriptionJob, error) {
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	return f.job, nil
}

type fakeAnalyzer struct {
	clips []types.ViralMoment
	err   error
	got   types.AnalysisRequest
}

func (f *fakeAnalyzer) AnalyzeTranscript(ctx context.Context, req types.AnalysisRequest) ([]types.ViralMoment, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.clips, nil
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func enqueueAndWait(t *testing.T, store *storage.Store, pool *WorkerPool, job *Job) *storage.JobRecord {
	t.Helper()
	if err := store.CreateJob(&storage.JobRecord{
		ID: job.ID, Name: job.Name, AudioURL: job.AudioURL, ContentType: job.ContentType,
	}); err != nil {
		t.Fatalf("create job failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	pool.EnqueueJob(job)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := store.GetJob(job.ID)
		if err != nil {
			t.Fatalf("get job failed: %v", err)
		}
		if rec.Status == types.StatusCompleted || rec.Status == types.StatusError {
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

func TestWorkerPoolRunsFullPipeline(t *testing.T) {
	store := newTestStore(t)
	transcriber := &fakeTranscriber{job: &types.TranscriptionJob{
		ID:       "ext-1",
		Status:   types.StatusCompleted,
		Text:     "an amazing secret revealed",
		Duration: 300,
		Language: "en",
		Segments: []types.TranscriptSegment{{Text: "an amazing secret revealed", Start: 0, End: 4}},
	}}
	analyzer := &fakeAnalyzer{clips: []types.ViralMoment{
		{StartTime: 10, EndTime: 50, Title: "Hook", Transcript: "x", Hashtags: []string{"a"}, Score: 0.8},
	}}
	pool := NewWorkerPool(1, transcriber, analyzer, store)

	rec := enqueueAndWait(t, store, pool, NewJob("job-1", "ep1", "https://x.test/a.mp3", "", ""))

	if rec.Status != types.StatusCompleted {
		t.Fatalf("expected completed, got %q (%s)", rec.Status, rec.Error)
	}
	if rec.ExternalID != "ext-1" {
		t.Fatalf("external id not recorded: %+v", rec)
	}
	if rec.Transcript != "an amazing secret revealed" || rec.Duration != 300 {
		t.Fatalf("transcript not persisted: %+v", rec)
	}
	if analyzer.got.Duration != 300 || analyzer.got.ContentType != types.ContentAudio {
		t.Fatalf("analyzer got wrong request: %+v", analyzer.got)
	}

	clips, err := store.GetClips("job-1")
	if err != nil {
		t.Fatalf("get clips failed: %v", err)
	}
	if len(clips) != 1 || clips[0].Title != "Hook" {
		t.Fatalf("clips not persisted: %v", clips)
	}
}

func TestWorkerPoolRecordsSubmissionFailure(t *testing.T) {
	store := newTestStore(t)
	pool := NewWorkerPool(1,
		&fakeTranscriber{submitErr: transcription.ErrSubmissionFailed},
		&fakeAnalyzer{}, store)

	rec := enqueueAndWait(t, store, pool, NewJob("job-1", "ep1", "https://x.test/a.mp3", "", ""))

	if rec.Status != types.StatusError {
		t.Fatalf("expected error status, got %q", rec.Status)
	}
	if rec.Error == "" {
		t.Fatal("failure reason not recorded")
	}
}

func TestWorkerPoolRecordsPollFailure(t *testing.T) {
	store := newTestStore(t)
	pool := NewWorkerPool(1,
		&fakeTranscriber{pollErr: &transcription.JobFailedError{Reason: "corrupt audio"}},
		&fakeAnalyzer{}, store)

	rec := enqueueAndWait(t, store, pool, NewJob("job-1", "ep1", "https://x.test/a.mp3", "", ""))

	if rec.Status != types.StatusError {
		t.Fatalf("expected error status, got %q", rec.Status)
	}
}

func TestWorkerPoolRecordsAnalysisFailure(t *testing.T) {
	store := newTestStore(t)
	pool := NewWorkerPool(1,
		&fakeTranscriber{job: &types.TranscriptionJob{Status: types.StatusCompleted, Text: "words", Duration: 60}},
		&fakeAnalyzer{err: errors.New("model meltdown")}, store)

	rec := enqueueAndWait(t, store, pool, NewJob("job-1", "ep1", "https://x.test/a.mp3", "", ""))

	if rec.Status != types.StatusError {
		t.Fatalf("expected error status, got %q", rec.Status)
	}
}

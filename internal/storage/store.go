package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/clipscout/clipscout/internal/types"
)

// Store persists analysis jobs and their clip candidates in SQLite.
type Store struct {
	db *sql.DB
}

// JobRecord is the persisted state of one analysis job.
type JobRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AudioURL    string    `json:"audio_url"`
	ContentType string    `json:"content_type"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	ExternalID  string    `json:"external_id,omitempty"`
	Transcript  string    `json:"transcript,omitempty"`
	Duration    float64   `json:"duration"`
	Language    string    `json:"language,omitempty"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewStore opens (and if needed initializes) the database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		audio_url TEXT NOT NULL,
		content_type TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		external_id TEXT NOT NULL DEFAULT '',
		transcript TEXT NOT NULL DEFAULT '',
		duration REAL NOT NULL DEFAULT 0,
		language TEXT NOT NULL DEFAULT '',
		confidence REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		start_time REAL NOT NULL,
		end_time REAL NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		transcript TEXT NOT NULL,
		hashtags TEXT NOT NULL,
		score REAL NOT NULL,
		reasoning TEXT NOT NULL,
		FOREIGN KEY (job_id) REFERENCES jobs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	CREATE INDEX IF NOT EXISTS idx_clips_job_id ON clips(job_id);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &Store{db: db}, nil
}

// CreateJob inserts a freshly queued job.
func (s *Store) CreateJob(job *JobRecord) error {
	now := time.Now()
	query := `
	INSERT INTO jobs (id, name, audio_url, content_type, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, job.ID, job.Name, job.AudioURL, job.ContentType,
		types.StatusQueued, now, now)
	if err != nil {
		return fmt.Errorf("failed to create job: %v", err)
	}
	return nil
}

// UpdateStatus moves a job to a new status, recording an error message for
// terminal failures.
func (s *Store) UpdateStatus(jobID, status, errMsg string) error {
	query := `UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`
	if _, err := s.db.Exec(query, status, errMsg, time.Now(), jobID); err != nil {
		return fmt.Errorf("failed to update job status: %v", err)
	}
	return nil
}

// SetExternalID records the provider's transcription id so polling can be
// resumed for a job.
func (s *Store) SetExternalID(jobID, externalID string) error {
	query := `UPDATE jobs SET external_id = ?, updated_at = ? WHERE id = ?`
	if _, err := s.db.Exec(query, externalID, time.Now(), jobID); err != nil {
		return fmt.Errorf("failed to set external id: %v", err)
	}
	return nil
}

// SaveResult marks a job completed and stores its transcript and ranked
// clips in one transaction.
func (s *Store) SaveResult(jobID string, transcript *types.TranscriptionJob, clips []types.ViralMoment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	UPDATE jobs SET status = ?, transcript = ?, duration = ?, language = ?,
		confidence = ?, updated_at = ? WHERE id = ?`,
		types.StatusCompleted, transcript.Text, transcript.Duration,
		transcript.Language, transcript.Confidence, time.Now(), jobID)
	if err != nil {
		return fmt.Errorf("failed to update job result: %v", err)
	}

	for rank, clip := range clips {
		hashtags, err := json.Marshal(clip.Hashtags)
		if err != nil {
			return fmt.Errorf("failed to marshal hashtags: %v", err)
		}
		_, err = tx.Exec(`
		INSERT INTO clips (job_id, position, start_time, end_time, title, description, transcript, hashtags, score, reasoning)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			jobID, rank+1, clip.StartTime, clip.EndTime, clip.Title,
			clip.Description, clip.Transcript, string(hashtags), clip.Score, clip.Reasoning)
		if err != nil {
			return fmt.Errorf("failed to save clip: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit result: %v", err)
	}
	return nil
}

// GetJob retrieves one job by id.
func (s *Store) GetJob(jobID string) (*JobRecord, error) {
	row := s.db.QueryRow(`
	SELECT id, name, audio_url, content_type, status, error, external_id,
		transcript, duration, language, confidence, created_at, updated_at
	FROM jobs WHERE id = ?`, jobID)

	var job JobRecord
	err := row.Scan(&job.ID, &job.Name, &job.AudioURL, &job.ContentType,
		&job.Status, &job.Error, &job.ExternalID, &job.Transcript,
		&job.Duration, &job.Language, &job.Confidence, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %v", err)
	}
	return &job, nil
}

// ListJobs returns the most recent jobs, newest first.
func (s *Store) ListJobs(limit int) ([]JobRecord, error) {
	rows, err := s.db.Query(`
	SELECT id, name, audio_url, content_type, status, error, external_id,
		transcript, duration, language, confidence, created_at, updated_at
	FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %v", err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		var job JobRecord
		if err := rows.Scan(&job.ID, &job.Name, &job.AudioURL, &job.ContentType,
			&job.Status, &job.Error, &job.ExternalID, &job.Transcript,
			&job.Duration, &job.Language, &job.Confidence, &job.CreatedAt, &job.UpdatedAt); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// GetClips returns a job's clips in rank order.
func (s *Store) GetClips(jobID string) ([]types.ViralMoment, error) {
	rows, err := s.db.Query(`
	SELECT start_time, end_time, title, description, transcript, hashtags, score, reasoning
	FROM clips WHERE job_id = ? ORDER BY position ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get clips: %v", err)
	}
	defer rows.Close()

	var clips []types.ViralMoment
	for rows.Next() {
		var clip types.ViralMoment
		var hashtags string
		if err := rows.Scan(&clip.StartTime, &clip.EndTime, &clip.Title,
			&clip.Description, &clip.Transcript, &hashtags, &clip.Score, &clip.Reasoning); err != nil {
			continue
		}
		if err := json.Unmarshal([]byte(hashtags), &clip.Hashtags); err != nil {
			clip.Hashtags = nil
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

// DeleteOlderThan removes terminal jobs (and their clips) last updated
// before the cutoff. Returns the number of jobs removed.
func (s *Store) DeleteOlderThan(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	DELETE FROM clips WHERE job_id IN (
		SELECT id FROM jobs WHERE status IN (?, ?) AND updated_at < ?
	)`, types.StatusCompleted, types.StatusError, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old clips: %v", err)
	}

	res, err := tx.Exec(`DELETE FROM jobs WHERE status IN (?, ?) AND updated_at < ?`,
		types.StatusCompleted, types.StatusError, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %v", err)
	}

	deleted, _ := res.RowsAffected()
	return int(deleted), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

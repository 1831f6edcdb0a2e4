package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/clipscout/clipscout/internal/types"
)

const (
	DefaultBaseURL = "https://api.assemblyai.com"

	// Polling defaults: 60 checks at 5s apart, five minutes total.
	DefaultMaxAttempts  = 60
	DefaultPollInterval = 5 * time.Second

	defaultTimeout = 30 * time.Second
)

// ErrSubmissionFailed is returned when the provider rejects a submission
// with a non-2xx status.
var ErrSubmissionFailed = errors.New("failed to submit transcription job")

// ErrStatusCheckFailed is returned when a status fetch gets a non-2xx status.
var ErrStatusCheckFailed = errors.New("failed to get transcription status")

// ErrTimeout is returned when polling exhausts its attempt budget without
// the job reaching a terminal state.
var ErrTimeout = errors.New("transcription timeout")

// APIError is a business-level error reported inside a provider response body.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transcription API error: %s", e.Message)
}

// NetworkError means the provider could not be reached at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("transcription network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// JobFailedError is a terminal job failure, carrying the provider's reason.
type JobFailedError struct {
	Reason string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("transcription failed: %s", e.Reason)
}

// Request describes one audio asset to transcribe.
type Request struct {
	AudioURL      string
	Language      string // defaults to "en"
	SpeakerLabels bool
	Punctuate     bool
}

// Client drives the provider's submit-then-poll transcription lifecycle.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	maxAttempts  int
	pollInterval time.Duration
}

// Config configures a Client.
type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	MaxAttempts  int
	PollInterval time.Duration
}

// NewClient creates a transcription client. Every call carries a hard HTTP
// timeout so a stalled upstream cannot hang a worker indefinitely.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		maxAttempts:  cfg.MaxAttempts,
		pollInterval: cfg.PollInterval,
	}
}

type submitPayload struct {
	AudioURL      string `json:"audio_url"`
	LanguageCode  string `json:"language_code"`
	SpeakerLabels bool   `json:"speaker_labels"`
	Punctuate     bool   `json:"punctuate"`
	FormatText    bool   `json:"format_text"`
}

type providerResponse struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Text          string         `json:"text"`
	Words         []providerWord `json:"words"`
	AudioDuration float64        `json:"audio_duration"`
	LanguageCode  string         `json:"language_code"`
	Confidence    float64        `json:"confidence"`
	Error         string         `json:"error"`
}

type providerWord struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Submit sends one transcription request and returns the provider's job id.
func (c *Client) Submit(ctx context.Context, req Request) (string, error) {
	lang := req.Language
	if lang == "" {
		lang = "en"
	}
	payload := submitPayload{
		AudioURL:      req.AudioURL,
		LanguageCode:  lang,
		SpeakerLabels: req.SpeakerLabels,
		Punctuate:     req.Punctuate,
		FormatText:    true,
	}

	body, err := c.do(ctx, http.MethodPost, "/v2/transcript", payload, ErrSubmissionFailed)
	if err != nil {
		return "", err
	}

	var resp providerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &NetworkError{Err: err}
	}
	if resp.Error != "" {
		return "", &APIError{Message: resp.Error}
	}
	if resp.ID == "" {
		return "", &APIError{Message: "provider returned no job id"}
	}
	return resp.ID, nil
}

// PollOnce fetches the current job state and normalizes the provider's
// status vocabulary to the canonical four states.
func (c *Client) PollOnce(ctx context.Context, jobID string) (*types.TranscriptionJob, error) {
	body, err := c.do(ctx, http.MethodGet, "/v2/transcript/"+jobID, nil, ErrStatusCheckFailed)
	if err != nil {
		return nil, err
	}

	var resp providerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &NetworkError{Err: err}
	}

	status := mapStatus(resp.Status)
	if resp.Error != "" && status != types.StatusError {
		return nil, &APIError{Message: resp.Error}
	}

	id := resp.ID
	if id == "" {
		id = jobID
	}
	lang := resp.LanguageCode
	if lang == "" {
		lang = "en"
	}

	return &types.TranscriptionJob{
		ID:         id,
		Status:     status,
		Text:       resp.Text,
		Segments:   toSegments(resp.Words),
		Duration:   resp.AudioDuration,
		Language:   lang,
		Confidence: resp.Confidence,
		Error:      resp.Error,
	}, nil
}

// PollUntilComplete polls at a fixed interval until the job reaches a
// terminal state or the attempt budget runs out. It can block for minutes,
// so it belongs on a worker, never on a request path. The context cancels
// both in-flight fetches and the between-poll wait.
func (c *Client) PollUntilComplete(ctx context.Context, jobID string) (*types.TranscriptionJob, error) {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		job, err := c.PollOnce(ctx, jobID)
		if err != nil {
			return nil, err
		}

		switch job.Status {
		case types.StatusCompleted:
			return job, nil
		case types.StatusError:
			reason := job.Error
			if reason == "" {
				reason = "transcription failed"
			}
			return nil, &JobFailedError{Reason: reason}
		}

		log.Printf("Transcription %s still %s (attempt %d/%d)", jobID, job.Status, attempt+1, c.maxAttempts)

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
	return nil, ErrTimeout
}

// do runs one request and returns the raw body. A non-2xx status maps to
// notOK, an unreachable provider to NetworkError.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}, notOK error) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", notOK, resp.StatusCode)
	}
	return body, nil
}

// statusMap normalizes the provider's status vocabulary. Unrecognized
// values map to queued: treating drift as "not yet terminal" beats failing
// a job that is still making progress.
var statusMap = map[string]string{
	"queued":     types.StatusQueued,
	"submitted":  types.StatusQueued,
	"processing": types.StatusProcessing,
	"running":    types.StatusProcessing,
	"completed":  types.StatusCompleted,
	"success":    types.StatusCompleted,
	"error":      types.StatusError,
	"failed":     types.StatusError,
}

func mapStatus(raw string) string {
	if s, ok := statusMap[strings.ToLower(raw)]; ok {
		return s
	}
	return types.StatusQueued
}

func toSegments(words []providerWord) []types.TranscriptSegment {
	segments := make([]types.TranscriptSegment, 0, len(words))
	for _, w := range words {
		segments = append(segments, types.TranscriptSegment{
			Text:  w.Text,
			Start: w.Start,
			End:   w.End,
		})
	}
	return segments
}

package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/clipscout/clipscout/internal/ratelimit"
)

// Message roles, matching the chat-completions wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	DefaultBaseURL = "https://api.perplexity.ai"
	DefaultModel   = "llama-3.1-sonar-large-128k-online"
	defaultTimeout = 30 * time.Second
)

// ErrNoMessages is returned when Complete is called with an empty prompt.
var ErrNoMessages = errors.New("completion requires at least one message")

// ErrEmptyResponse is returned when the provider answered 2xx but the
// response carried no message content.
var ErrEmptyResponse = errors.New("empty response from completion API")

// UpstreamError is a provider-side failure, surfaced with the HTTP status.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion API error: status %d: %s", e.Status, e.Body)
}

// TransportError means no response was obtained at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message is one role-tagged entry of a chat prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are the per-call tuning knobs.
type Options struct {
	Temperature float32
	MaxTokens   int
}

// Usage is the provider's token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is a successful completion.
type Result struct {
	Text  string
	Usage Usage
}

// Config configures a Client.
type Config struct {
	APIKey      string
	BaseURL     string        // defaults to the Perplexity endpoint
	Model       string        // defaults to DefaultModel
	MaxRequests int           // rate limit quota per window
	Window      time.Duration // rate limit window
	Timeout     time.Duration // per-call HTTP timeout
}

// Client calls the chat-completions endpoint, governed by a shared
// fixed-window rate limiter. The provider speaks the OpenAI wire format,
// so the transport is go-openai with a swapped base URL.
type Client struct {
	api     *openai.Client
	limiter *ratelimit.Limiter
	model   string
}

// NewClient creates a completion client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		limiter: ratelimit.New(cfg.MaxRequests, cfg.Window),
		model:   cfg.Model,
	}
}

// Complete issues one chat-completion call. The rate limiter is consulted
// before any network traffic, so an exhausted window fails fast. There is
// no automatic retry: under a strict per-window quota a silent retry just
// burns budget, so retry policy belongs to the caller.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (*Result, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	if err := c.limiter.Allow(); err != nil {
		return nil, err
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	return &Result{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// RateLimitState reports the current quota window.
func (c *Client) RateLimitState() ratelimit.State {
	return c.limiter.Snapshot()
}

// classify maps library errors onto the client's taxonomy: anything that
// carries an upstream status becomes an UpstreamError, anything without a
// response becomes a TransportError.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{Status: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return &TransportError{Err: err}
}

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/clipscout/clipscout/internal/completion"
	"github.com/clipscout/clipscout/internal/types"
)

const (
	// Clip length bounds in seconds.
	MinClipSeconds = 15
	MaxClipSeconds = 90

	// MaxClips is the ranked batch size returned per analysis.
	MaxClips = 10

	analysisTemperature = 0.3
	analysisMaxTokens   = 4000
)

// Text field limits applied during normalization.
const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
	maxReasoningLen   = 200
	maxHashtags       = 8
	maxHashtagLen     = 30
)

// defaultScore stands in for a missing or non-numeric model score.
const defaultScore = 0.5

// Cosmetic-helper fallbacks. These helpers never fail visibly.
var (
	defaultTitle    = "Viral Moment"
	defaultHashtags = []string{"viral", "content"}
)

// ErrEmptyTranscript rejects analysis of an empty or whitespace-only input.
var ErrEmptyTranscript = errors.New("empty transcript provided")

// MalformedResponseError means the model output carried no usable clips
// payload. The whole analysis fails; a payload this broken is not to be
// partially trusted.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed analysis response: %s", e.Reason)
}

// Completer is the slice of the completion client the engine needs.
type Completer interface {
	Complete(ctx context.Context, messages []completion.Message, opts completion.Options) (*completion.Result, error)
}

// Engine turns a transcript into a ranked set of clip candidates via one
// completion call plus local validation.
type Engine struct {
	llm Completer
}

// NewEngine creates an extraction engine on top of a completion client.
func NewEngine(llm Completer) *Engine {
	return &Engine{llm: llm}
}

const analysisPrompt = `You are an expert viral video producer and social media strategist. Your task is to analyze a transcript and identify the most compelling 15-90 second segments that have the highest potential to go viral on social media platforms like TikTok, Instagram Reels, and YouTube Shorts.

For each segment you identify, provide:
1. Start and end timestamps (in seconds)
2. A catchy, attention-grabbing title (max 60 characters)
3. A brief description of why this moment is compelling
4. The exact transcript text for that segment
5. 3-5 relevant hashtags (without the # symbol)
6. A viral potential score from 0.0 to 1.0 (1.0 being most viral)
7. Brief reasoning for the viral potential

Focus on moments that contain:
- Surprising revelations or plot twists
- Emotional peaks (funny, shocking, inspiring)
- Actionable advice or tips
- Controversial or debate-worthy statements
- Memorable quotes or one-liners
- Before/after transformations
- Expert insights or "secrets"
- Relatable struggles or victories

Return your response as a valid JSON object with this exact structure:
{
  "clips": [
    {
      "startTime": 120.5,
      "endTime": 175.2,
      "title": "The Secret That Changed Everything",
      "description": "Reveals the surprising strategy that led to breakthrough",
      "transcript": "The exact words spoken during this segment...",
      "hashtags": ["secret", "breakthrough", "strategy", "mindset", "success"],
      "score": 0.85,
      "reasoning": "High emotional impact with actionable insight"
    }
  ]
}

Identify exactly 10 segments, ranked by viral potential (highest first).`

// AnalyzeTranscript runs the full extraction contract: guard, prompt,
// one completion call, JSON extraction, per-candidate normalization,
// rank, top 10. A single bad candidate is dropped with a warning; only a
// payload with no usable clips structure fails the call.
func (e *Engine) AnalyzeTranscript(ctx context.Context, req types.AnalysisRequest) ([]types.ViralMoment, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return nil, ErrEmptyTranscript
	}

	res, err := e.llm.Complete(ctx, []completion.Message{
		{Role: completion.RoleSystem, Content: analysisPrompt},
		{Role: completion.RoleUser, Content: buildContext(req)},
	}, completion.Options{
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	clips, err := parseClips(res.Text)
	if err != nil {
		return nil, err
	}

	validated := validateClips(clips, req.Duration)

	sort.SliceStable(validated, func(i, j int) bool {
		return validated[i].Score > validated[j].Score
	})
	if len(validated) > MaxClips {
		validated = validated[:MaxClips]
	}
	return validated, nil
}

// buildContext renders the transcript and its timing segments into the
// user half of the prompt.
func buildContext(req types.AnalysisRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Please analyze this content and identify the %d most viral moments:\n\n", MaxClips)
	fmt.Fprintf(&sb, "Content Type: %s\n", req.ContentType)
	fmt.Fprintf(&sb, "Total Duration: %d seconds (%d minutes)\n",
		int(math.Round(req.Duration)), int(math.Round(req.Duration/60)))
	fmt.Fprintf(&sb, "Transcript Length: %d characters\n\n", len(req.Transcript))
	fmt.Fprintf(&sb, "Full Transcript:\n%s\n\n", req.Transcript)
	sb.WriteString("Timestamp Segments Available:\n")
	for _, seg := range req.Segments {
		fmt.Fprintf(&sb, "%gs-%gs: %s...\n", seg.Start, seg.End, truncate(seg.Text, 100))
	}
	return sb.String()
}

// parseClips digs the clips array out of free-form model text.
func parseClips(text string) ([]json.RawMessage, error) {
	obj, ok := ExtractJSONObject(text)
	if !ok {
		return nil, &MalformedResponseError{Reason: "no valid JSON found in response"}
	}

	var envelope struct {
		Clips json.RawMessage `json:"clips"`
	}
	if err := json.Unmarshal(obj, &envelope); err != nil {
		return nil, &MalformedResponseError{Reason: "response is not a JSON object"}
	}
	if envelope.Clips == nil {
		return nil, &MalformedResponseError{Reason: "missing clips array"}
	}

	var clips []json.RawMessage
	if err := json.Unmarshal(envelope.Clips, &clips); err != nil {
		return nil, &MalformedResponseError{Reason: "clips is not an array"}
	}
	return clips, nil
}

// validateClips applies the per-candidate rules independently: a candidate
// either normalizes cleanly or is dropped with a logged warning. The batch
// never fails here.
func validateClips(clips []json.RawMessage, duration float64) []types.ViralMoment {
	validated := make([]types.ViralMoment, 0, len(clips))
	for i, raw := range clips {
		moment, ok := validateClip(raw, duration)
		if !ok {
			log.Printf("Skipping invalid clip candidate %d: %s", i, truncate(string(raw), 200))
			continue
		}
		validated = append(validated, moment)
	}
	return validated
}

func validateClip(raw json.RawMessage, duration float64) (types.ViralMoment, bool) {
	var clip map[string]interface{}
	if err := json.Unmarshal(raw, &clip); err != nil {
		return types.ViralMoment{}, false
	}

	// Required fields with required primitive types.
	start, ok := clip["startTime"].(float64)
	if !ok {
		return types.ViralMoment{}, false
	}
	end, ok := clip["endTime"].(float64)
	if !ok {
		return types.ViralMoment{}, false
	}
	title, ok := clip["title"].(string)
	if !ok {
		return types.ViralMoment{}, false
	}
	transcript, ok := clip["transcript"].(string)
	if !ok {
		return types.ViralMoment{}, false
	}
	rawTags, ok := clip["hashtags"].([]interface{})
	if !ok {
		return types.ViralMoment{}, false
	}

	// Time bounds: inside the source media and within clip length limits.
	length := end - start
	if start < 0 || end <= start || end > duration ||
		length < MinClipSeconds || length > MaxClipSeconds {
		return types.ViralMoment{}, false
	}

	score := defaultScore
	if s, ok := clip["score"].(float64); ok {
		score = s
	}

	description, _ := clip["description"].(string)
	reasoning, _ := clip["reasoning"].(string)

	return types.ViralMoment{
		StartTime:   math.Max(0, round1(start)),
		EndTime:     math.Min(duration, round1(end)),
		Title:       truncate(strings.TrimSpace(title), maxTitleLen),
		Description: truncate(strings.TrimSpace(description), maxDescriptionLen),
		Transcript:  strings.TrimSpace(transcript),
		Hashtags:    normalizeHashtags(rawTags),
		Score:       clamp(score, 0, 1),
		Reasoning:   truncate(strings.TrimSpace(reasoning), maxReasoningLen),
	}, true
}

// normalizeHashtags lower-cases, strips a leading #, drops empties and
// caps the list. Duplicates are deliberately kept; the consumer renders
// the list as-is.
func normalizeHashtags(raw []interface{}) []string {
	tags := make([]string, 0, maxHashtags)
	for _, r := range raw {
		s, ok := r.(string)
		if !ok {
			continue
		}
		s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "#")
		if s == "" {
			continue
		}
		tags = append(tags, s)
		if len(tags) == maxHashtags {
			break
		}
	}
	return tags
}

// GenerateClipTitle asks the model for a catchy title. Best effort: any
// failure degrades to the fixed default, never to an error.
func (e *Engine) GenerateClipTitle(ctx context.Context, transcript, extra string) string {
	var sb strings.Builder
	sb.WriteString("Generate a catchy, viral-worthy title for this video clip. The title should be attention-grabbing, under 60 characters, and optimized for social media engagement.\n\n")
	if extra != "" {
		fmt.Fprintf(&sb, "Context: %s\n", extra)
	}
	fmt.Fprintf(&sb, "Transcript: %q...\n\nReturn only the title, nothing else.", truncate(transcript, 500))

	res, err := e.llm.Complete(ctx, []completion.Message{
		{Role: completion.RoleSystem, Content: "You are an expert at creating viral social media titles. Create compelling, clickable titles that drive engagement."},
		{Role: completion.RoleUser, Content: sb.String()},
	}, completion.Options{Temperature: 0.7, MaxTokens: 100})
	if err != nil {
		log.Printf("Title generation failed, using default: %v", err)
		return defaultTitle
	}

	title := strings.TrimSpace(res.Text)
	if title == "" {
		return defaultTitle
	}
	return truncate(title, maxTitleLen)
}

// GenerateHashtags asks the model for discoverability hashtags, same best
// effort contract as GenerateClipTitle.
func (e *Engine) GenerateHashtags(ctx context.Context, transcript, title string) []string {
	prompt := fmt.Sprintf(`Generate 5-8 relevant hashtags for this video clip. Focus on trending, discoverable hashtags that will help the content reach the right audience.

Title: %q
Content: %q...

Return hashtags as a comma-separated list without the # symbol.`, title, truncate(transcript, 300))

	res, err := e.llm.Complete(ctx, []completion.Message{
		{Role: completion.RoleSystem, Content: "You are a social media hashtag expert. Generate relevant, trending hashtags that maximize discoverability."},
		{Role: completion.RoleUser, Content: prompt},
	}, completion.Options{Temperature: 0.5, MaxTokens: 200})
	if err != nil {
		log.Printf("Hashtag generation failed, using defaults: %v", err)
		return defaultHashtags
	}

	var tags []string
	for _, part := range strings.Split(res.Text, ",") {
		tag := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(part)), "#")
		if tag == "" || len(tag) > maxHashtagLen {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxHashtags {
			break
		}
	}
	if len(tags) == 0 {
		return defaultHashtags
	}
	return tags
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

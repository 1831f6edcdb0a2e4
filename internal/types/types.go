package types

// Canonical transcription job states
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Content type constants
const (
	ContentVideo = "video"
	ContentAudio = "audio"
)

// TranscriptSegment is a timestamped span of spoken text.
// Times are seconds; segments are ordered by Start.
type TranscriptSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"startTime"`
	End   float64 `json:"endTime"`
}

// TranscriptionJob is the state of a transcription as reported by the
// provider, normalized to the canonical status vocabulary.
type TranscriptionJob struct {
	ID         string              `json:"id"`
	Status     string              `json:"status"`
	Text       string              `json:"text"`
	Segments   []TranscriptSegment `json:"segments"`
	Duration   float64             `json:"duration"`
	Language   string              `json:"language"`
	Confidence float64             `json:"confidence"`
	Error      string              `json:"error,omitempty"`
}

// ViralMoment is a validated clip candidate. Construction goes through
// analysis validation; instances are not mutated afterwards.
type ViralMoment struct {
	StartTime   float64  `json:"startTime"`
	EndTime     float64  `json:"endTime"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Transcript  string   `json:"transcript"`
	Hashtags    []string `json:"hashtags"`
	Score       float64  `json:"score"`
	Reasoning   string   `json:"reasoning"`
}

// AnalysisRequest is what the pipeline hands to the extraction engine.
type AnalysisRequest struct {
	Transcript  string              `json:"transcript"`
	Segments    []TranscriptSegment `json:"segments"`
	Duration    float64             `json:"duration"`
	ContentType string              `json:"contentType"`
}

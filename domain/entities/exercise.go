package entities

import "time"

// ExerciseMetrics is the live workout telemetry a client attaches to an utterance.
// Field names follow the JSON the web client sends.
type ExerciseMetrics struct {
	ExerciseName string   `json:"exerciseName"`
	RepCount     int      `json:"repCount"`
	Form         string   `json:"form"`
	Feedback     []string `json:"feedback,omitempty"`
	LastFeedback []string `json:"lastFeedback,omitempty"`
	// Duration is the session length in seconds.
	Duration   float64  `json:"duration"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// IsEmpty reports whether no field was supplied, as for {} or null.
func (m *ExerciseMetrics) IsEmpty() bool {
	return m == nil || (m.ExerciseName == "" && m.RepCount == 0 && m.Form == "" &&
		len(m.Feedback) == 0 && len(m.LastFeedback) == 0 &&
		m.Duration == 0 && m.Confidence == nil)
}

// Name returns the exercise name or "Unknown".
func (m *ExerciseMetrics) Name() string {
	if m.ExerciseName == "" {
		return "Unknown"
	}
	return m.ExerciseName
}

// FormQuality returns the form label or "unknown".
func (m *ExerciseMetrics) FormQuality() string {
	if m.Form == "" {
		return "unknown"
	}
	return m.Form
}

// ConfidenceScore returns the detector confidence, defaulting to 1.
func (m *ExerciseMetrics) ConfidenceScore() float64 {
	if m.Confidence == nil {
		return 1
	}
	return *m.Confidence
}

// RecentFeedback returns the feedback list used for the coaching prompt.
func (m *ExerciseMetrics) RecentFeedback() []string {
	if len(m.Feedback) > 0 {
		return m.Feedback
	}
	return m.LastFeedback
}

// Validate checks the metric ranges
func (m *ExerciseMetrics) Validate() error {
	if m.RepCount < 0 {
		return errInvalidMetrics("repCount must be non-negative")
	}
	if m.Duration < 0 {
		return errInvalidMetrics("duration must be non-negative")
	}
	if m.Confidence != nil && (*m.Confidence < 0 || *m.Confidence > 1) {
		return errInvalidMetrics("confidence must be between 0 and 1")
	}
	return nil
}

// AudioSubmission is the raw audio a client uploaded for one request.
type AudioSubmission struct {
	Data        []byte
	Size        int64
	Filename    string
	ContentType string
}

// ConversationContext is the read-only input to the response generator.
type ConversationContext struct {
	Transcription string
	Metrics       *ExerciseMetrics
	// Block is the rendered exercise description, empty without metrics.
	Block string
}

// ResponseEnvelope is the body returned for a transcription request.
type ResponseEnvelope struct {
	Success       bool    `json:"success"`
	Transcription string  `json:"transcription"`
	LLMResponse   string  `json:"llm_response"`
	AudioResponse *string `json:"audio_response"`
	AudioURL      string  `json:"audio_url,omitempty"`
	Timestamp     string  `json:"timestamp"`
}

// Timestamp formats t the way every response body carries it.
func Timestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000")
}

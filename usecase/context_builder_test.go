package usecase

import (
	"strings"
	"testing"

	"github.com/satriahrh/gymbuddy/domain/entities"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0 seconds"},
		{45, "45 seconds"},
		{59.9, "59 seconds"},
		{60, "1 minutes and 0 seconds"},
		{125, "2 minutes and 5 seconds"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatConfidence(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{1, "100.0%"},
		{0, "0.0%"},
		{0.876, "87.6%"},
		{0.8769, "87.6%"},
		{0.5, "50.0%"},
	}
	for _, tt := range tests {
		if got := FormatConfidence(tt.score); got != tt.want {
			t.Errorf("FormatConfidence(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestContextBuilder_NoMetrics(t *testing.T) {
	cc := NewContextBuilder().Build("how am I doing", nil)
	if cc.Block != "" {
		t.Errorf("expected empty block, got %q", cc.Block)
	}
	if cc.Transcription != "how am I doing" {
		t.Errorf("unexpected transcription %q", cc.Transcription)
	}
}

func TestContextBuilder_EmptyMetrics(t *testing.T) {
	cc := NewContextBuilder().Build("how am I doing", &entities.ExerciseMetrics{})
	if cc.Block != "" {
		t.Errorf("expected empty block for empty metrics, got %q", cc.Block)
	}
	if cc.Metrics != nil {
		t.Errorf("expected no metrics, got %+v", cc.Metrics)
	}
}

func TestContextBuilder_FullMetrics(t *testing.T) {
	confidence := 0.92
	metrics := &entities.ExerciseMetrics{
		ExerciseName: "squat",
		RepCount:     8,
		Form:         "needs_improvement",
		Feedback:     []string{"Keep your back straight", "Go lower"},
		Duration:     75,
		Confidence:   &confidence,
	}

	block := NewContextBuilder().Build("how many reps", metrics).Block

	wants := []string{
		"Current Exercise Information:",
		"- Exercise: squat",
		"- Duration: 1 minutes and 15 seconds",
		"- Repetitions completed: 8",
		"- Form quality: needs improvement",
		"Current form feedback:",
		"- Keep your back straight",
		"- Go lower",
		"Exercise confidence: 92.0%",
	}
	for _, want := range wants {
		if !strings.Contains(block, want) {
			t.Errorf("block missing %q:\n%s", want, block)
		}
	}
}

func TestContextBuilder_Defaults(t *testing.T) {
	block := NewContextBuilder().Build("hello coach", &entities.ExerciseMetrics{RepCount: 3}).Block

	for _, want := range []string{"- Exercise: Unknown", "- Form quality: unknown", "- Duration: 0 seconds", "Exercise confidence: 100.0%"} {
		if !strings.Contains(block, want) {
			t.Errorf("block missing %q:\n%s", want, block)
		}
	}
	if strings.Contains(block, "Current form feedback:") {
		t.Errorf("feedback section should be omitted without feedback:\n%s", block)
	}
}

func TestContextBuilder_LastFeedbackFallback(t *testing.T) {
	metrics := &entities.ExerciseMetrics{LastFeedback: []string{"Knees out"}}
	block := NewContextBuilder().Build("hello coach", metrics).Block
	if !strings.Contains(block, "- Knees out") {
		t.Errorf("expected lastFeedback in block:\n%s", block)
	}
}

package usecase

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/satriahrh/gymbuddy/domain/entities"
)

const exerciseContextTemplate = `Current Exercise Information:
- Exercise: {{.Exercise}}
- Duration: {{.Duration}}
- Repetitions completed: {{.Reps}}
- Form quality: {{.Form}}
{{if .Feedback}}
Current form feedback:
{{range .Feedback}}- {{.}}
{{end}}{{end}}
Exercise confidence: {{.Confidence}}`

var exerciseContext = template.Must(template.New("exerciseContext").Parse(exerciseContextTemplate))

type exerciseContextData struct {
	Exercise   string
	Duration   string
	Reps       int
	Form       string
	Feedback   []string
	Confidence string
}

// ContextBuilder merges the cleaned transcription with exercise telemetry.
type ContextBuilder struct{}

// NewContextBuilder creates a context builder
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{}
}

// Build never fails; without metrics the context block is empty.
func (b *ContextBuilder) Build(transcription string, metrics *entities.ExerciseMetrics) entities.ConversationContext {
	cc := entities.ConversationContext{Transcription: transcription}
	if metrics.IsEmpty() {
		return cc
	}
	cc.Metrics = metrics

	data := exerciseContextData{
		Exercise:   metrics.Name(),
		Duration:   FormatDuration(metrics.Duration),
		Reps:       metrics.RepCount,
		Form:       strings.ReplaceAll(metrics.FormQuality(), "_", " "),
		Feedback:   metrics.RecentFeedback(),
		Confidence: FormatConfidence(metrics.ConfidenceScore()),
	}

	var buf bytes.Buffer
	if err := exerciseContext.Execute(&buf, data); err != nil {
		// the template only reads plain fields
		return cc
	}
	cc.Block = buf.String()
	return cc
}

// FormatDuration renders whole seconds as "M minutes and S seconds", or
// "S seconds" under a minute.
func FormatDuration(seconds float64) string {
	total := int(math.Max(0, math.Floor(seconds)))
	minutes, secs := total/60, total%60
	if minutes > 0 {
		return fmt.Sprintf("%d minutes and %d seconds", minutes, secs)
	}
	return fmt.Sprintf("%d seconds", secs)
}

// FormatConfidence renders a [0,1] score as a percentage truncated to one decimal.
func FormatConfidence(score float64) string {
	pct := math.Trunc(score*1000+1e-9) / 10
	return fmt.Sprintf("%.1f%%", pct)
}

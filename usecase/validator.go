package usecase

import (
	"encoding/json"
	"strings"

	"github.com/satriahrh/gymbuddy/domain"
	"github.com/satriahrh/gymbuddy/domain/entities"
)

const (
	DefaultMinAudioBytes int64 = 1024
	DefaultMaxAudioBytes int64 = 16 * 1024 * 1024
)

// Validator checks that a submission is worth converting. It looks at byte
// size only; the container and codec are left to the normalizer.
type Validator struct {
	minBytes int64
	maxBytes int64
}

// NewValidator creates a validator for the inclusive range [minBytes, maxBytes].
// Zero values fall back to the defaults.
func NewValidator(minBytes, maxBytes int64) *Validator {
	if minBytes <= 0 {
		minBytes = DefaultMinAudioBytes
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAudioBytes
	}
	return &Validator{minBytes: minBytes, maxBytes: maxBytes}
}

// MaxBytes is the largest accepted submission.
func (v *Validator) MaxBytes() int64 {
	return v.maxBytes
}

// Validate returns a *domain.ValidationError when the submission is missing or
// outside the size range.
func (v *Validator) Validate(sub *entities.AudioSubmission) error {
	if sub == nil {
		return domain.NewValidationError("No audio file provided")
	}

	size := sub.Size
	if size == 0 {
		size = int64(len(sub.Data))
	}
	if size > v.maxBytes {
		return domain.NewValidationError("File size too large")
	}
	if size < v.minBytes {
		return domain.NewValidationError("File too small - likely empty or corrupted")
	}
	return nil
}

// ParseExerciseMetrics decodes the optional exercise_metrics form value.
// An empty value, null or an empty object yields nil metrics.
func ParseExerciseMetrics(raw string) (*entities.ExerciseMetrics, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var metrics entities.ExerciseMetrics
	if err := json.Unmarshal([]byte(raw), &metrics); err != nil {
		return nil, &domain.ValidationError{Message: "Invalid exercise_metrics JSON", Err: err}
	}
	if metrics.IsEmpty() {
		return nil, nil
	}
	if err := metrics.Validate(); err != nil {
		return nil, &domain.ValidationError{Message: err.Error(), Err: err}
	}
	return &metrics, nil
}

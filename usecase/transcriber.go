package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain"
	"github.com/satriahrh/gymbuddy/domain/repositories"
)

// Transcriber sends canonical audio to the speech-to-text provider.
type Transcriber struct {
	stt     repositories.SpeechToText
	timeout time.Duration
	logger  *zap.Logger
}

// NewTranscriber creates a transcriber around the given provider
func NewTranscriber(stt repositories.SpeechToText, timeout time.Duration, logger *zap.Logger) *Transcriber {
	return &Transcriber{stt: stt, timeout: timeout, logger: logger}
}

// Transcribe returns the raw transcription. Failures are *domain.TranscriptionError.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	ctx, cancel := withTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	text, err := t.stt.TranscribeAudio(ctx, audio, config)
	if err != nil {
		return "", &domain.TranscriptionError{Provider: t.stt.Name(), Err: err}
	}

	t.logger.Debug("Transcription received",
		zap.String("provider", t.stt.Name()),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)))
	return text, nil
}

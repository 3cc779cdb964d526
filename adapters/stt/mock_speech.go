package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/repositories"
)

const defaultMockTranscription = "How is my form looking?"

// MockSpeechToText returns a fixed transcription for local development
type MockSpeechToText struct {
	transcription string
	logger        *zap.Logger
}

// NewMockSpeechToText creates a mock speech-to-text service. An empty
// transcription uses a canned question.
func NewMockSpeechToText(transcription string, logger *zap.Logger) *MockSpeechToText {
	if transcription == "" {
		transcription = defaultMockTranscription
	}
	return &MockSpeechToText{transcription: transcription, logger: logger}
}

func (s *MockSpeechToText) Name() string { return "mock" }

// TranscribeAudio implements SpeechToText
func (s *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	s.logger.Info("Mock transcription",
		zap.Int("size", len(audioData)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))
	return s.transcription, nil
}

package tts

import (
	"context"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/repositories"
)

// MockTextToSpeech writes a short silent WAV for every request
type MockTextToSpeech struct {
	logger *zap.Logger
}

var _ repositories.TextToSpeech = (*MockTextToSpeech)(nil)

// NewMockTextToSpeech creates a new mock text-to-speech service
func NewMockTextToSpeech(logger *zap.Logger) *MockTextToSpeech {
	return &MockTextToSpeech{logger: logger}
}

func (m *MockTextToSpeech) Name() string { return "mock" }

func (m *MockTextToSpeech) OutputExtension() string { return ".wav" }

// SynthesizeToFile implements TextToSpeech
func (m *MockTextToSpeech) SynthesizeToFile(ctx context.Context, text, voice, outputPath string) error {
	m.logger.Info("Mock synthesis", zap.String("voice", voice), zap.Int("chars", len(text)))

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer f.Close()

	// 100ms of silence
	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           make([]int, 1600),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return enc.Close()
}

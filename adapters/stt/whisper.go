package stt

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/repositories"
)

const (
	defaultWhisperModel   = "whisper-large-v3-turbo"
	defaultWhisperBaseURL = "https://api.groq.com/openai/v1"
)

// WhisperConfig configures any OpenAI compatible transcription endpoint.
// Groq is the default.
type WhisperConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Language   string
	HTTPClient *http.Client
}

// WhisperSpeechToText implements SpeechToText over the audio transcription API
type WhisperSpeechToText struct {
	client   *openai.Client
	model    string
	language string
	logger   *zap.Logger
}

var _ repositories.SpeechToText = (*WhisperSpeechToText)(nil)

// ValidateWhisperConfig validates the WhisperConfig
func ValidateWhisperConfig(config WhisperConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("transcription API key is required")
	}
	return nil
}

// NewWhisperSpeechToText creates a Whisper transcription client
func NewWhisperSpeechToText(config WhisperConfig, logger *zap.Logger) (*WhisperSpeechToText, error) {
	if err := ValidateWhisperConfig(config); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.BaseURL
	if clientConfig.BaseURL == "" {
		clientConfig.BaseURL = defaultWhisperBaseURL
		logger.Info("Using default transcription base URL", zap.String("baseURL", clientConfig.BaseURL))
	}
	if config.HTTPClient != nil {
		clientConfig.HTTPClient = config.HTTPClient
	}

	model := config.Model
	if model == "" {
		model = defaultWhisperModel
		logger.Info("Using default transcription model", zap.String("model", model))
	}

	return &WhisperSpeechToText{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		language: config.Language,
		logger:   logger,
	}, nil
}

func (w *WhisperSpeechToText) Name() string { return "whisper" }

// TranscribeAudio uploads the clip as a file named after config.Filename.
func (w *WhisperSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	filename := config.Filename
	if filename == "" {
		filename = "audio.wav"
	}

	language := w.language
	if language == "" {
		// the API wants ISO-639-1
		language, _, _ = strings.Cut(config.Language, "-")
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filename,
		Reader:   bytes.NewReader(audioData),
		Language: language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", err
	}

	w.logger.Debug("Whisper transcription complete",
		zap.String("model", w.model),
		zap.Int("chars", len(resp.Text)))
	return strings.TrimSpace(resp.Text), nil
}

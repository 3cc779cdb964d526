package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/repositories"
)

const defaultGoogleLanguage = "en-US"

// GoogleConfig configures the Google Cloud Speech adapter. Credentials come
// from the environment the way the Google client libraries expect.
type GoogleConfig struct {
	LanguageCode string
	Model        string
}

// GoogleSpeechToText implements SpeechToText with Google Cloud Speech
type GoogleSpeechToText struct {
	client       *speech.Client
	languageCode string
	model        string
	logger       *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText opens a Speech client. Close releases it.
func NewGoogleSpeechToText(ctx context.Context, config GoogleConfig, logger *zap.Logger) (*GoogleSpeechToText, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	languageCode := config.LanguageCode
	if languageCode == "" {
		languageCode = defaultGoogleLanguage
		logger.Info("Using default language code", zap.String("languageCode", languageCode))
	}

	return &GoogleSpeechToText{
		client:       client,
		languageCode: languageCode,
		model:        config.Model,
		logger:       logger,
	}, nil
}

func (g *GoogleSpeechToText) Name() string { return "google" }

// TranscribeAudio runs a synchronous recognition over the whole clip.
func (g *GoogleSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if len(audioData) == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: int32(config.SampleRate),
			LanguageCode:    g.languageFor(config.Language),
			Model:           g.model,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to recognize audio: %w", err)
	}

	// Results are consecutive portions of the clip.
	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}

	transcription := strings.TrimSpace(strings.Join(parts, " "))
	g.logger.Debug("Google transcription complete",
		zap.Int("results", len(resp.Results)),
		zap.Int("chars", len(transcription)))
	return transcription, nil
}

// Close releases the underlying client
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}

// languageFor prefers a full BCP-47 tag from the request over the configured one.
func (g *GoogleSpeechToText) languageFor(language string) string {
	if strings.Contains(language, "-") {
		return language
	}
	return g.languageCode
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "MP3":
		return speechpb.RecognitionConfig_MP3, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

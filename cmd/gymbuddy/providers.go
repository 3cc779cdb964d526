package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/adapters/cache"
	"github.com/satriahrh/gymbuddy/adapters/llm"
	"github.com/satriahrh/gymbuddy/adapters/pose"
	"github.com/satriahrh/gymbuddy/adapters/stt"
	"github.com/satriahrh/gymbuddy/adapters/tts"
	"github.com/satriahrh/gymbuddy/domain/repositories"
	"github.com/satriahrh/gymbuddy/internal/config"
	"github.com/satriahrh/gymbuddy/internal/scratch"
)

const (
	openAIBaseURL      = "https://api.openai.com/v1"
	openAIWhisperModel = "whisper-1"
)

// closers collects shutdown hooks for clients that hold connections.
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) closeAll(logger *zap.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			logger.Warn("Close failed", zap.Error(err))
		}
	}
}

func newSpeechToText(ctx context.Context, cfg *config.Config, client *http.Client, cl *closers, logger *zap.Logger) (repositories.SpeechToText, error) {
	switch cfg.STTProvider {
	case config.ProviderGroq:
		return stt.NewWhisperSpeechToText(stt.WhisperConfig{
			APIKey:     cfg.GroqAPIKey,
			BaseURL:    cfg.GroqBaseURL,
			Model:      cfg.STTModel,
			Language:   cfg.GoogleSTTLanguage,
			HTTPClient: client,
		}, logger)

	case config.ProviderOpenAI:
		baseURL := cfg.OpenAIBaseURL
		if baseURL == "" {
			baseURL = openAIBaseURL
		}
		model := cfg.STTModel
		if model == config.DefaultSTTModel {
			model = openAIWhisperModel
		}
		return stt.NewWhisperSpeechToText(stt.WhisperConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    baseURL,
			Model:      model,
			Language:   cfg.GoogleSTTLanguage,
			HTTPClient: client,
		}, logger)

	case config.ProviderGoogle:
		g, err := stt.NewGoogleSpeechToText(ctx, stt.GoogleConfig{LanguageCode: cfg.GoogleSTTLanguage}, logger)
		if err != nil {
			return nil, err
		}
		cl.add(g.Close)
		return g, nil

	case config.ProviderMock:
		return stt.NewMockSpeechToText("", logger), nil
	}
	return nil, fmt.Errorf("unknown speech-to-text provider %q", cfg.STTProvider)
}

func newLanguageModel(ctx context.Context, cfg *config.Config, client *http.Client, logger *zap.Logger) (repositories.LargeLanguageModel, error) {
	switch cfg.LLMProvider {
	case config.ProviderGroq:
		return llm.NewChatLLM("groq", llm.ChatConfig{
			APIKey:     cfg.GroqAPIKey,
			BaseURL:    cfg.GroqBaseURL,
			Model:      cfg.LLMModel,
			HTTPClient: client,
		}, logger)

	case config.ProviderOpenAI:
		return llm.NewChatLLM("openai", llm.ChatConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.LLMModel,
			HTTPClient: client,
		}, logger)

	case config.ProviderGemini:
		return llm.NewGeminiLLM(ctx, llm.NewGeminiConfigFromEnv(), logger)

	case config.ProviderMock:
		return llm.NewMockLLM("", logger), nil
	}
	return nil, fmt.Errorf("unknown language model provider %q", cfg.LLMProvider)
}

func newTextToSpeech(cfg *config.Config, client *http.Client, logger *zap.Logger) (repositories.TextToSpeech, error) {
	switch cfg.TTSProvider {
	case config.ProviderEspeak:
		return tts.NewEspeakTTS(tts.EspeakConfig{
			Path:      cfg.EspeakPath,
			Rate:      cfg.EspeakRate,
			Amplitude: cfg.EspeakAmplitude,
		}, logger)

	case config.ProviderElevenLabs:
		elevenLabsConfig := tts.NewElevenLabsConfigFromEnv()
		elevenLabsConfig.HTTPClient = client
		return tts.NewElevenLabsTTS(elevenLabsConfig, logger)

	case config.ProviderMock:
		return tts.NewMockTextToSpeech(logger), nil
	}
	return nil, fmt.Errorf("unknown text-to-speech provider %q", cfg.TTSProvider)
}

// newAudioArchive returns nil when archiving is off. A directory archive
// comes with a sweeper that expires artifacts after AUDIO_TTL.
func newAudioArchive(ctx context.Context, cfg *config.Config, cl *closers, logger *zap.Logger) (repositories.AudioArchive, error) {
	switch cfg.AudioArchive {
	case config.ArchiveNone:
		return nil, nil

	case config.ArchiveDir:
		dir := cfg.AudioDir
		if dir == "" {
			dir = filepath.Join(cfg.ScratchDir, "archive")
		}
		archive, err := scratch.NewDirArchive(dir, logger)
		if err != nil {
			return nil, err
		}
		sweeper := scratch.NewSweeper(archive.Dir(), cfg.AudioTTL, sweepInterval(cfg.AudioTTL), logger)
		sweeper.Start()
		cl.add(func() error { sweeper.Stop(); return nil })
		return archive, nil

	case config.ArchiveRedis:
		archive, err := cache.NewRedisAudioArchive(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.AudioTTL,
		}, logger)
		if err != nil {
			return nil, err
		}
		cl.add(archive.Close)
		return archive, nil
	}
	return nil, fmt.Errorf("unknown audio archive %q", cfg.AudioArchive)
}

func newPoseEstimator(cfg *config.Config, client *http.Client, logger *zap.Logger) (repositories.PoseEstimator, error) {
	if cfg.PoseServiceURL == "" {
		return nil, nil
	}
	return pose.NewSidecarEstimator(pose.SidecarConfig{
		BaseURL:    cfg.PoseServiceURL,
		HTTPClient: client,
	}, logger)
}

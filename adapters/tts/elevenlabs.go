package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/entities"
	"github.com/satriahrh/gymbuddy/domain/repositories"
)

const (
	defaultAPIBaseURL   = "https://api.elevenlabs.io/v1"
	defaultVoiceID      = "21m00Tcm4TlvDq8ikWAM" // Rachel
	defaultOutputFormat = "mp3_44100_128"
	defaultModelID      = "eleven_multilingual_v2"
	defaultStability    = 0.5
	defaultClarity      = 0.75
	defaultChunkSize    = 4096
)

// ElevenLabsConfig configures the ElevenLabs adapter. Only APIKey is required.
//
// Voices maps a coaching voice code (en-us, en-uk, ...) to an ElevenLabs voice
// ID. Codes without an entry use VoiceID.
type ElevenLabsConfig struct {
	APIKey       string
	APIBaseURL   string
	VoiceID      string
	Voices       map[string]string
	ModelID      string
	OutputFormat string
	ChunkSize    int
	Stability    float64
	Clarity      float64
	HTTPClient   *http.Client
}

func (c ElevenLabsConfig) withDefaults() ElevenLabsConfig {
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.VoiceID == "" {
		c.VoiceID = defaultVoiceID
	}
	if c.ModelID == "" {
		c.ModelID = defaultModelID
	}
	if c.OutputFormat == "" {
		c.OutputFormat = defaultOutputFormat
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.Stability == 0 {
		c.Stability = defaultStability
	}
	if c.Clarity == 0 {
		c.Clarity = defaultClarity
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return c
}

// ElevenLabsTTS renders replies through the ElevenLabs streaming endpoint
type ElevenLabsTTS struct {
	config ElevenLabsConfig
	logger *zap.Logger
}

var _ repositories.TextToSpeech = (*ElevenLabsTTS)(nil)

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

type elevenLabsRequest struct {
	Text                   string                  `json:"text"`
	ModelID                string                  `json:"model_id"`
	VoiceSettings          elevenLabsVoiceSettings `json:"voice_settings"`
	ApplyTextNormalization string                  `json:"apply_text_normalization,omitempty"`
}

// ValidateElevenLabsConfig validates the ElevenLabsConfig
func ValidateElevenLabsConfig(config ElevenLabsConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("eleven labs API key is required")
	}
	if config.Stability < 0 || config.Stability > 1 {
		return fmt.Errorf("stability must be between 0 and 1, got %f", config.Stability)
	}
	if config.Clarity < 0 || config.Clarity > 1 {
		return fmt.Errorf("clarity must be between 0 and 1, got %f", config.Clarity)
	}
	if config.ChunkSize < 0 {
		return fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}
	return nil
}

// NewElevenLabsTTS creates a new ElevenLabs TTS instance
func NewElevenLabsTTS(config ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsTTS, error) {
	if err := ValidateElevenLabsConfig(config); err != nil {
		return nil, err
	}
	config = config.withDefaults()

	logger.Info("ElevenLabs TTS configured",
		zap.String("apiBaseURL", config.APIBaseURL),
		zap.String("voiceID", config.VoiceID),
		zap.Int("mappedVoices", len(config.Voices)),
		zap.String("modelID", config.ModelID),
		zap.String("outputFormat", config.OutputFormat))

	return &ElevenLabsTTS{config: config, logger: logger}, nil
}

func (e *ElevenLabsTTS) Name() string { return "elevenlabs" }

// OutputExtension follows the configured output format, e.g. ".mp3" for "mp3_44100_128".
func (e *ElevenLabsTTS) OutputExtension() string {
	codec, _, _ := strings.Cut(e.config.OutputFormat, "_")
	return "." + codec
}

// SynthesizeToFile streams the rendered speech into outputPath. A partial file
// is removed when the stream breaks.
func (e *ElevenLabsTTS) SynthesizeToFile(ctx context.Context, text, voice, outputPath string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}

	voiceID := e.resolveVoiceID(voice)
	body, err := e.stream(ctx, text, voiceID)
	if err != nil {
		return err
	}
	defer body.Close()

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	written, err := io.CopyBuffer(f, body, make([]byte, e.config.ChunkSize))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("failed to stream audio: %w", err)
	}

	e.logger.Debug("ElevenLabs synthesis finished",
		zap.String("voice", voice),
		zap.String("voiceID", voiceID),
		zap.Int64("bytes", written))
	return nil
}

// resolveVoiceID maps coaching voice codes through the configured table and
// treats any other value as an ElevenLabs voice ID.
func (e *ElevenLabsTTS) resolveVoiceID(voice string) string {
	if id, ok := e.config.Voices[voice]; ok {
		return id
	}
	if voice == "" || entities.IsKnownVoice(voice) {
		return e.config.VoiceID
	}
	return voice
}

func (e *ElevenLabsTTS) stream(ctx context.Context, text, voiceID string) (io.ReadCloser, error) {
	payload, err := json.Marshal(elevenLabsRequest{
		Text:                   text,
		ModelID:                e.config.ModelID,
		ApplyTextNormalization: "auto",
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       e.config.Stability,
			SimilarityBoost: e.config.Clarity,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	query := url.Values{}
	query.Set("output_format", e.config.OutputFormat)
	query.Set("enable_logging", "false")
	endpoint := e.config.APIBaseURL + "/text-to-speech/" + url.PathEscape(voiceID) + "/stream?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	accept := "audio/mpeg"
	if strings.HasPrefix(e.config.OutputFormat, "pcm") {
		accept = "audio/pcm"
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.config.APIKey)

	resp, err := e.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("elevenlabs returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return resp.Body, nil
}

// NewElevenLabsConfigFromEnv reads ELEVEN_LABS_* variables. Malformed numeric
// values are ignored and fall back to defaults. ELEVEN_LABS_VOICES takes
// comma separated code=voiceID pairs.
func NewElevenLabsConfigFromEnv() ElevenLabsConfig {
	config := ElevenLabsConfig{
		APIKey:       os.Getenv("ELEVEN_LABS_API_KEY"),
		APIBaseURL:   os.Getenv("ELEVEN_LABS_API_BASE_URL"),
		VoiceID:      os.Getenv("ELEVEN_LABS_VOICE_ID"),
		Voices:       parseVoiceMap(os.Getenv("ELEVEN_LABS_VOICES")),
		ModelID:      os.Getenv("ELEVEN_LABS_MODEL_ID"),
		OutputFormat: os.Getenv("ELEVEN_LABS_OUTPUT_FORMAT"),
	}
	if n, err := strconv.Atoi(os.Getenv("ELEVEN_LABS_CHUNK_SIZE")); err == nil && n > 0 {
		config.ChunkSize = n
	}
	config.Stability = unitFloatEnv("ELEVEN_LABS_STABILITY")
	config.Clarity = unitFloatEnv("ELEVEN_LABS_CLARITY")
	return config
}

func unitFloatEnv(key string) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v < 0 || v > 1 {
		return 0
	}
	return v
}

func parseVoiceMap(raw string) map[string]string {
	voices := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		code, id, ok := strings.Cut(pair, "=")
		code, id = strings.TrimSpace(code), strings.TrimSpace(id)
		if ok && code != "" && id != "" {
			voices[code] = id
		}
	}
	return voices
}

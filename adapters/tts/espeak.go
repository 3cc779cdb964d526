package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/repositories"
)

const (
	defaultEspeakPath      = "espeak-ng"
	defaultEspeakRate      = 150
	defaultEspeakAmplitude = 90
)

// espeakVoices maps the public voice codes to espeak-ng voice names.
// espeak-ng ships no Australian or Indian English voice; the closest
// British variants stand in for them.
var espeakVoices = map[string]string{
	"en-us": "en-us",
	"en-uk": "en-gb",
	"en-au": "en-gb-x-rp",
	"en-in": "en-gb",
}

// EspeakConfig holds configuration for the espeak-ng adapter
type EspeakConfig struct {
	// Path is the espeak-ng (or espeak) binary
	Path string
	// Rate is the speaking rate in words per minute
	Rate int
	// Amplitude is 0-200, 100 being espeak's normal volume
	Amplitude int
}

// EspeakTTS renders speech to WAV with the espeak-ng command line tool
type EspeakTTS struct {
	path      string
	rate      int
	amplitude int
	logger    *zap.Logger
}

var _ repositories.TextToSpeech = (*EspeakTTS)(nil)

// ValidateEspeakConfig validates the EspeakConfig
func ValidateEspeakConfig(config EspeakConfig) error {
	if config.Rate < 0 {
		return fmt.Errorf("rate must be positive, got %d", config.Rate)
	}
	if config.Amplitude < 0 || config.Amplitude > 200 {
		return fmt.Errorf("amplitude must be between 0 and 200, got %d", config.Amplitude)
	}
	return nil
}

// NewEspeakTTS creates the espeak-ng adapter. The binary is looked up lazily
// so a missing engine degrades to text-only replies instead of failing startup.
func NewEspeakTTS(config EspeakConfig, logger *zap.Logger) (*EspeakTTS, error) {
	if err := ValidateEspeakConfig(config); err != nil {
		return nil, err
	}

	path := config.Path
	if path == "" {
		path = defaultEspeakPath
		logger.Info("Using default espeak binary", zap.String("path", path))
	}
	if _, err := exec.LookPath(path); err != nil {
		logger.Warn("espeak binary not found, replies will have no audio",
			zap.String("path", path),
			zap.Error(err))
	}

	rate := config.Rate
	if rate == 0 {
		rate = defaultEspeakRate
		logger.Info("Using default speaking rate", zap.Int("rate", rate))
	}

	amplitude := config.Amplitude
	if amplitude == 0 {
		amplitude = defaultEspeakAmplitude
		logger.Info("Using default amplitude", zap.Int("amplitude", amplitude))
	}

	return &EspeakTTS{
		path:      path,
		rate:      rate,
		amplitude: amplitude,
		logger:    logger,
	}, nil
}

func (e *EspeakTTS) Name() string { return "espeak" }

func (e *EspeakTTS) OutputExtension() string { return ".wav" }

// SynthesizeToFile implements TextToSpeech
func (e *EspeakTTS) SynthesizeToFile(ctx context.Context, text, voice, outputPath string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}

	args := []string{
		"-v", EspeakVoice(voice),
		"-s", strconv.Itoa(e.rate),
		"-a", strconv.Itoa(e.amplitude),
		"-w", outputPath,
		// end of options, text may start with a dash
		"--",
		text,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path, args...)
	cmd.Stderr = &stderr

	e.logger.Debug("Running espeak", zap.String("voice", voice), zap.Int("chars", len(text)))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("espeak failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// EspeakVoice maps a public voice code to an espeak voice. Unknown codes are
// handed to espeak unchanged.
func EspeakVoice(voice string) string {
	if mapped, ok := espeakVoices[strings.ToLower(voice)]; ok {
		return mapped
	}
	return voice
}

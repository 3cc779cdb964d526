// Package audioconv turns uploaded clips into 16 kHz mono 16-bit WAV.
// WAV, MP3 and Ogg Vorbis are decoded in process; anything else (WebM from
// browsers, M4A) goes through ffmpeg when it is configured.
package audioconv

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/repositories"
)

const (
	CanonicalSampleRate = 16000
	CanonicalBitDepth   = 16
	CanonicalEncoding   = "LINEAR16"
	defaultLanguage     = "en"
)

// ErrUnsupportedFormat is returned when a clip cannot be decoded natively
// and no ffmpeg is configured.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format is the container detected from the leading bytes of a file.
type Format string

const (
	FormatUnknown Format = "unknown"
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatOgg     Format = "ogg"
	FormatWebM    Format = "webm"
)

// Config holds configuration for the Normalizer
type Config struct {
	// FFmpegPath enables the ffmpeg fallback when set
	FFmpegPath string
	// Language is reported with the canonical audio for the recogniser
	Language string
}

// Normalizer implements repositories.AudioNormalizer
type Normalizer struct {
	ffmpegPath string
	language   string
	logger     *zap.Logger
}

var _ repositories.AudioNormalizer = (*Normalizer)(nil)

// NewNormalizer creates an audio normalizer
func NewNormalizer(config Config, logger *zap.Logger) *Normalizer {
	language := config.Language
	if language == "" {
		language = defaultLanguage
	}
	if config.FFmpegPath != "" {
		if _, err := exec.LookPath(config.FFmpegPath); err != nil {
			logger.Warn("ffmpeg not found, only wav/mp3/ogg uploads will convert",
				zap.String("path", config.FFmpegPath),
				zap.Error(err))
		}
	}
	return &Normalizer{ffmpegPath: config.FFmpegPath, language: language, logger: logger}
}

// Normalize implements repositories.AudioNormalizer
func (n *Normalizer) Normalize(ctx context.Context, inputPath, outputPath string) (repositories.AudioConfig, error) {
	result := repositories.AudioConfig{
		SampleRate: CanonicalSampleRate,
		Encoding:   CanonicalEncoding,
		Language:   n.language,
		Filename:   filepath.Base(outputPath),
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return result, err
	}
	defer f.Close()

	format, err := Sniff(f)
	if err != nil {
		return result, err
	}

	p, decodeErr := decode(f, format)
	if decodeErr == nil {
		if err := writeCanonicalWAV(outputPath, resampleLinear(p.samples, p.sampleRate, CanonicalSampleRate)); err != nil {
			return result, err
		}
		n.logger.Debug("Audio normalized natively",
			zap.String("format", string(format)),
			zap.Int("sourceRate", p.sampleRate))
		return result, nil
	}

	if n.ffmpegPath == "" {
		return result, decodeErr
	}

	n.logger.Debug("Native decode failed, using ffmpeg",
		zap.String("format", string(format)),
		zap.Error(decodeErr))
	if err := n.runFFmpeg(ctx, inputPath, outputPath); err != nil {
		return result, err
	}
	return result, nil
}

// Sniff detects the container from magic bytes and rewinds r.
func Sniff(r io.ReadSeeker) (Format, error) {
	head := make([]byte, 12)
	n, err := io.ReadFull(bufio.NewReader(r), head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, err
	}
	head = head[:n]
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return FormatUnknown, err
	}

	switch {
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return FormatWAV, nil
	case bytes.HasPrefix(head, []byte("ID3")):
		return FormatMP3, nil
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return FormatMP3, nil
	case bytes.HasPrefix(head, []byte("OggS")):
		return FormatOgg, nil
	case bytes.HasPrefix(head, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return FormatWebM, nil
	}
	return FormatUnknown, nil
}

func decode(r io.ReadSeeker, format Format) (*pcm, error) {
	switch format {
	case FormatWAV:
		return decodeWAV(r)
	case FormatMP3:
		return decodeMP3(r)
	case FormatOgg:
		return decodeOgg(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func writeCanonicalWAV(path string, samples []float32) error {
	if len(samples) == 0 {
		return errors.New("no audio samples decoded")
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(clamp(float64(s), -1, 1) * 32767)
	}

	enc := wav.NewEncoder(f, CanonicalSampleRate, CanonicalBitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: CanonicalSampleRate},
		Data:           data,
		SourceBitDepth: CanonicalBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoder write buffer: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoder close: %w", err)
	}
	return nil
}

const ffmpegWaitDelay = time.Second

func (n *Normalizer) runFFmpeg(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-ac", "1",
		"-ar", strconv.Itoa(CanonicalSampleRate),
		"-sample_fmt", "s16",
		"-f", "wav",
		outputPath,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, n.ffmpegPath, args...)
	cmd.Stderr = &stderr
	// children of a killed ffmpeg wrapper can hold stderr open
	cmd.WaitDelay = ffmpegWaitDelay
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("ffmpeg produced no output: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("ffmpeg produced an empty file")
	}
	return nil
}

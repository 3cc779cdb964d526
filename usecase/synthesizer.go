package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain"
	"github.com/satriahrh/gymbuddy/domain/entities"
	"github.com/satriahrh/gymbuddy/domain/repositories"
	"github.com/satriahrh/gymbuddy/internal/scratch"
)

// SynthesizedAudio is the spoken reply ready for the envelope.
type SynthesizedAudio struct {
	Base64   string
	Filename string
	// URL is set when the audio was archived and can be fetched later.
	URL string
}

// Synthesizer turns the reply into speech. It never fails a request: any
// error is logged and the reply is returned without audio.
type Synthesizer struct {
	tts     repositories.TextToSpeech
	archive repositories.AudioArchive
	timeout time.Duration
	logger  *zap.Logger
}

// NewSynthesizer creates a synthesizer. archive may be nil.
func NewSynthesizer(tts repositories.TextToSpeech, archive repositories.AudioArchive, timeout time.Duration, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{tts: tts, archive: archive, timeout: timeout, logger: logger}
}

// Synthesize renders text with voice into a scratch file of scope. It returns
// nil when no audio could be produced.
func (s *Synthesizer) Synthesize(ctx context.Context, scope *scratch.Scope, text, voice string) *SynthesizedAudio {
	if voice == "" {
		voice = entities.DefaultVoice
	}
	if !entities.IsKnownVoice(voice) {
		s.logger.Debug("Unknown voice requested, passing through to engine", zap.String("voice", voice))
	}

	audio, err := s.synthesize(ctx, scope, text, voice)
	if err != nil {
		failure := &domain.SynthesisFailure{Engine: s.tts.Name(), Err: err}
		s.logger.Warn("Speech synthesis failed, replying without audio",
			zap.String("voice", voice),
			zap.Error(failure))
		return nil
	}
	return audio
}

func (s *Synthesizer) synthesize(ctx context.Context, scope *scratch.Scope, text, voice string) (*SynthesizedAudio, error) {
	path, err := scope.Acquire("tts_output", s.tts.OutputExtension())
	if err != nil {
		return nil, err
	}

	tctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.tts.SynthesizeToFile(tctx, text, voice, path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("synthesized file missing: %w", err)
	}
	if info.Size() == 0 {
		return nil, errors.New("synthesized file is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized file: %w", err)
	}

	audio := &SynthesizedAudio{
		Base64:   base64.StdEncoding.EncodeToString(data),
		Filename: filepath.Base(path),
	}

	if s.archive != nil {
		if err := s.archive.Save(ctx, audio.Filename, data); err != nil {
			s.logger.Warn("Failed to archive synthesized audio",
				zap.String("filename", audio.Filename),
				zap.Error(err))
		} else {
			audio.URL = "/audio/" + audio.Filename
		}
	}
	return audio, nil
}

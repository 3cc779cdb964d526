package usecase

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain"
	"github.com/satriahrh/gymbuddy/domain/entities"
	"github.com/satriahrh/gymbuddy/domain/repositories"
	"github.com/satriahrh/gymbuddy/internal/scratch"
)

// CoachingRequest is one spoken utterance with its workout telemetry.
type CoachingRequest struct {
	Audio   *entities.AudioSubmission
	Metrics *entities.ExerciseMetrics
	Voice   string
}

// CoachingService runs the full utterance pipeline: validate, normalize,
// transcribe, filter, generate, synthesize.
type CoachingService struct {
	validator   *Validator
	store       *scratch.Store
	normalizer  repositories.AudioNormalizer
	convTimeout time.Duration
	transcriber *Transcriber
	filter      *NoiseFilter
	contexts    *ContextBuilder
	generator   *ResponseGenerator
	synthesizer *Synthesizer
	assembler   *ResponseAssembler
	logger      *zap.Logger
}

// NewCoachingService wires the pipeline components. conversionTimeout bounds
// each Normalize call; zero leaves it unbounded.
func NewCoachingService(
	validator *Validator,
	store *scratch.Store,
	normalizer repositories.AudioNormalizer,
	conversionTimeout time.Duration,
	transcriber *Transcriber,
	generator *ResponseGenerator,
	synthesizer *Synthesizer,
	logger *zap.Logger,
) *CoachingService {
	return &CoachingService{
		validator:   validator,
		store:       store,
		normalizer:  normalizer,
		convTimeout: conversionTimeout,
		transcriber: transcriber,
		filter:      NewNoiseFilter(),
		contexts:    NewContextBuilder(),
		generator:   generator,
		synthesizer: synthesizer,
		assembler:   NewResponseAssembler(),
		logger:      logger,
	}
}

// Process handles one request. Every scratch file it creates is removed
// before it returns, on success and on failure.
func (s *CoachingService) Process(ctx context.Context, req CoachingRequest) (*entities.ResponseEnvelope, error) {
	start := time.Now()
	logger := s.logger
	if req.Audio != nil {
		logger = logger.With(zap.String("upload", req.Audio.Filename))
	}
	logger.Debug("Coaching request", zap.String("state", string(StateReceived)))

	if err := s.validator.Validate(req.Audio); err != nil {
		logger.Info("Coaching request rejected",
			zap.String("state", string(StateRejected)),
			zap.Error(err))
		return nil, err
	}
	logger.Debug("Coaching request", zap.String("state", string(StateValidated)))

	scope := s.store.NewScope()
	defer scope.Close()
	logger = logger.With(zap.String("scope", scope.ID()))

	env, err := s.process(ctx, scope, req, logger)
	if err != nil {
		logger.Error("Coaching request failed",
			zap.String("state", string(StateFailed)),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	logger.Info("Coaching request completed",
		zap.String("state", string(StateAssembled)),
		zap.Bool("has_audio", env.AudioResponse != nil),
		zap.Duration("took", time.Since(start)))
	return env, nil
}

func (s *CoachingService) process(ctx context.Context, scope *scratch.Scope, req CoachingRequest, logger *zap.Logger) (*entities.ResponseEnvelope, error) {
	originalPath, err := scope.Acquire("original", uploadExtension(req.Audio.Filename))
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(originalPath, req.Audio.Data, 0o644); err != nil {
		return nil, &domain.ConversionError{Err: err}
	}

	convertedPath, err := scope.Acquire("converted", ".wav")
	if err != nil {
		return nil, err
	}
	convCtx, cancel := withTimeout(ctx, s.convTimeout)
	audioConfig, err := s.normalizer.Normalize(convCtx, originalPath, convertedPath)
	cancel()
	if err != nil {
		return nil, &domain.ConversionError{Err: err}
	}
	if audioConfig.Filename == "" {
		audioConfig.Filename = filepath.Base(convertedPath)
	}
	logger.Debug("Coaching request", zap.String("state", string(StateNormalized)))

	canonical, err := os.ReadFile(convertedPath)
	if err != nil {
		return nil, &domain.ConversionError{Err: err}
	}

	raw, err := s.transcriber.Transcribe(ctx, canonical, audioConfig)
	if err != nil {
		return nil, err
	}
	logger.Debug("Coaching request",
		zap.String("state", string(StateTranscribed)),
		zap.String("transcription", raw))

	cleaned := s.filter.Clean(raw)
	if cleaned == "" {
		logger.Info("No meaningful speech detected", zap.String("raw", raw))
		return s.assembler.Empty(), nil
	}

	cc := s.contexts.Build(cleaned, req.Metrics)
	logger.Debug("Coaching request", zap.String("state", string(StateContextBuilt)))

	reply, err := s.generator.Generate(ctx, cc)
	if err != nil {
		return nil, err
	}
	if reply == "" {
		logger.Info("Utterance not related to the workout, no reply",
			zap.String("state", string(StateAgentCleaned)),
			zap.String("transcription", cleaned))
		return s.assembler.Assemble(cleaned, "", nil), nil
	}
	logger.Debug("Coaching request",
		zap.String("state", string(StatePersonaGenerated)),
		zap.String("reply", reply))

	audio := s.synthesizer.Synthesize(ctx, scope, reply, req.Voice)
	logger.Debug("Coaching request",
		zap.String("state", string(StateSynthesized)),
		zap.Bool("has_audio", audio != nil))

	return s.assembler.Assemble(cleaned, reply, audio), nil
}

var extensionPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// uploadExtension keeps a plain extension of the uploaded name for the
// original scratch file. The normalizer sniffs the content, not the name.
func uploadExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if extensionPattern.MatchString(ext) {
		return ext
	}
	return ".bin"
}

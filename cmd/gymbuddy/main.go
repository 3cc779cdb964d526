package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	cli "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/adapters/audioconv"
	"github.com/satriahrh/gymbuddy/adapters/proxy"
	"github.com/satriahrh/gymbuddy/internal/api"
	"github.com/satriahrh/gymbuddy/internal/auth"
	"github.com/satriahrh/gymbuddy/internal/config"
	"github.com/satriahrh/gymbuddy/internal/scratch"
	"github.com/satriahrh/gymbuddy/internal/websocket"
	"github.com/satriahrh/gymbuddy/usecase"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	port := cli.StringP("port", "p", "", "Listen port (overrides PORT)")
	dev := cli.Bool("dev", false, "Human-readable debug logging")
	cli.Parse()

	// Initialize logger
	logger := newLogger(*dev)
	defer logger.Sync()

	if err := config.LoadEnvFile(*envFile); err != nil {
		logger.Fatal("Failed to load env file", zap.String("path", *envFile), zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	if *port != "" {
		cfg.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cl closers
	defer cl.closeAll(logger)

	httpClient, err := proxy.NewHTTPClient(cfg.OutboundProxy, cfg.ExternalCallTimeout)
	if err != nil {
		logger.Fatal("Failed to create outbound HTTP client", zap.String("proxy", cfg.OutboundProxy), zap.Error(err))
	}

	// Initialize adapters
	speechToText, err := newSpeechToText(ctx, cfg, httpClient, &cl, logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech-to-text", zap.String("provider", cfg.STTProvider), zap.Error(err))
	}
	languageModel, err := newLanguageModel(ctx, cfg, httpClient, logger)
	if err != nil {
		logger.Fatal("Failed to initialize language model", zap.String("provider", cfg.LLMProvider), zap.Error(err))
	}
	textToSpeech, err := newTextToSpeech(cfg, httpClient, logger)
	if err != nil {
		logger.Fatal("Failed to initialize text-to-speech", zap.String("provider", cfg.TTSProvider), zap.Error(err))
	}
	archive, err := newAudioArchive(ctx, cfg, &cl, logger)
	if err != nil {
		logger.Fatal("Failed to initialize audio archive", zap.String("archive", cfg.AudioArchive), zap.Error(err))
	}
	poseEstimator, err := newPoseEstimator(cfg, httpClient, logger)
	if err != nil {
		logger.Fatal("Failed to initialize pose estimator", zap.Error(err))
	}

	store, err := scratch.NewStore(cfg.ScratchDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize scratch directory", zap.String("dir", cfg.ScratchDir), zap.Error(err))
	}
	sweeper := scratch.NewSweeper(store.Dir(), cfg.ScratchMaxAge, sweepInterval(cfg.ScratchMaxAge), logger)
	sweeper.Start()
	defer sweeper.Stop()

	normalizer := audioconv.NewNormalizer(audioconv.Config{
		FFmpegPath: cfg.FFmpegPath,
		Language:   cfg.GoogleSTTLanguage,
	}, logger)

	// Initialize usecase services
	validator := usecase.NewValidator(cfg.MinAudioBytes, cfg.MaxAudioBytes)
	generator := usecase.NewResponseGenerator(
		usecase.NewIntentAgent(languageModel, cfg.ExternalCallTimeout),
		usecase.NewPersonaAgent(languageModel, cfg.Persona, cfg.ExternalCallTimeout),
		logger,
	)
	coach := usecase.NewCoachingService(
		validator,
		store,
		normalizer,
		cfg.ExternalCallTimeout,
		usecase.NewTranscriber(speechToText, cfg.ExternalCallTimeout, logger),
		generator,
		usecase.NewSynthesizer(textToSpeech, archive, cfg.ExternalCallTimeout, logger),
		logger,
	)

	// Initialize WebSocket hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub(coach, cfg.MaxAudioBytes, logger)
	go hub.Run(hubCtx)

	var issuer *auth.Issuer
	if cfg.AuthEnabled() {
		issuer = auth.NewIssuer([]byte(cfg.JWTSecret), cfg.JWTTTL)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(bodyLimit(cfg.MaxAudioBytes)))

	handler := api.NewHandler(api.Dependencies{
		Coach:     coach,
		Validator: validator,
		Store:     store,
		Archive:   archive,
		Pose:      poseEstimator,
		Hub:       hub,
		Providers: api.Providers{
			STT:     speechToText.Name(),
			LLM:     languageModel.Name(),
			TTS:     textToSpeech.Name(),
			Archive: cfg.AudioArchive,
			Pose:    poseEstimator != nil,
		},
		Logger: logger,
	})
	api.InitRoutes(e, handler, issuer, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("stt", speechToText.Name()),
		zap.String("llm", languageModel.Name()),
		zap.String("tts", textToSpeech.Name()),
		zap.String("archive", cfg.AudioArchive),
		zap.Bool("auth", cfg.AuthEnabled()))

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := hub.Drain(shutdownCtx); err != nil {
		logger.Warn("Abandoned in-flight coaching sessions", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(dev bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

// bodyLimit is twice the largest accepted upload, so moderately oversized
// files still reach the handler and get the 400 validation message.
func bodyLimit(maxAudioBytes int64) string {
	return fmt.Sprintf("%dK", (2*maxAudioBytes+1024*1024)/1024)
}

func sweepInterval(maxAge time.Duration) time.Duration {
	interval := maxAge / 3
	if interval < 10*time.Second {
		interval = 10 * time.Second
	}
	return interval
}

package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/adapters/pose"
	"github.com/satriahrh/gymbuddy/domain"
	"github.com/satriahrh/gymbuddy/domain/entities"
	"github.com/satriahrh/gymbuddy/domain/repositories"
	"github.com/satriahrh/gymbuddy/internal/scratch"
	"github.com/satriahrh/gymbuddy/internal/system"
	"github.com/satriahrh/gymbuddy/internal/websocket"
	"github.com/satriahrh/gymbuddy/usecase"
)

// Dependencies groups what the handlers need. Archive, Pose and Hub may be nil.
type Dependencies struct {
	Coach     websocket.Coach
	Validator *usecase.Validator
	Store     *scratch.Store
	Archive   repositories.AudioArchive
	Pose      repositories.PoseEstimator
	Hub       *websocket.Hub
	Providers Providers
	Logger    *zap.Logger
}

// Handler serves the HTTP API
type Handler struct {
	deps      Dependencies
	logger    *zap.Logger
	startedAt time.Time
	now       func() time.Time
}

// NewHandler creates the API handler set
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		deps:      deps,
		logger:    deps.Logger,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// Health reports liveness
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: entities.Timestamp(h.now()),
	})
}

// Voices lists the selectable voices
func (h *Handler) Voices(c echo.Context) error {
	return c.JSON(http.StatusOK, entities.VoiceOptions)
}

// Transcribe runs one uploaded utterance through the coaching pipeline. The
// pipeline keeps running if the client goes away.
func (h *Handler) Transcribe(c echo.Context) error {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return domain.NewValidationError("No audio file provided")
		}
		return &domain.ValidationError{Message: "Invalid multipart form", Err: err}
	}

	// Reject on the declared size before reading anything.
	if err := h.deps.Validator.Validate(&entities.AudioSubmission{Size: fileHeader.Size}); err != nil {
		return err
	}

	metrics, err := usecase.ParseExerciseMetrics(c.FormValue("exercise_metrics"))
	if err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.deps.Validator.MaxBytes()+1))
	if err != nil {
		return err
	}

	req := usecase.CoachingRequest{
		Audio: &entities.AudioSubmission{
			Data:        data,
			Size:        int64(len(data)),
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get(echo.HeaderContentType),
		},
		Metrics: metrics,
		Voice:   c.FormValue("voice"),
	}

	ctx := context.WithoutCancel(c.Request().Context())
	env, err := h.deps.Coach.Process(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, env)
}

// Audio serves a synthesized artifact by name, from the archive first and
// then from the scratch directory.
func (h *Handler) Audio(c echo.Context) error {
	name := c.Param("filename")
	path, err := h.deps.Store.Resolve(name)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "File not found"})
	}
	contentType := audioContentType(name)

	if h.deps.Archive != nil {
		data, err := h.deps.Archive.Load(c.Request().Context(), name)
		if err == nil {
			return c.Blob(http.StatusOK, contentType, data)
		}
		if !errors.Is(err, repositories.ErrAudioNotFound) {
			h.logger.Warn("Audio archive lookup failed", zap.String("filename", name), zap.Error(err))
		}
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "File not found"})
	}
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	return c.File(path)
}

func audioContentType(name string) string {
	switch ext := filepath.Ext(name); ext {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return echo.MIMEOctetStream
	}
}

// Pose3D forwards one camera frame to the pose estimator
func (h *Handler) Pose3D(c echo.Context) error {
	if h.deps.Pose == nil {
		return c.JSON(http.StatusServiceUnavailable, PoseResponse{Error: "Pose estimation is not configured"})
	}

	var req PoseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, PoseResponse{Error: "Invalid request format"})
	}
	image, err := pose.DecodeDataURL(req.Image)
	if err != nil {
		return c.JSON(http.StatusBadRequest, PoseResponse{Error: "Invalid image data"})
	}

	landmarks, err := h.deps.Pose.EstimatePose(c.Request().Context(), image)
	switch {
	case errors.Is(err, repositories.ErrNoPoseDetected):
		return c.JSON(http.StatusUnprocessableEntity, PoseResponse{Error: "No pose detected"})
	case err != nil:
		h.logger.Warn("Pose estimation failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, PoseResponse{Error: "Pose estimation failed"})
	}

	return c.JSON(http.StatusOK, PoseResponse{Success: true, Landmarks: landmarks})
}

// Status reports configured providers and host load
func (h *Handler) Status(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	snap, err := system.Collect(ctx)
	if err != nil {
		h.logger.Debug("Host metrics unavailable", zap.Error(err))
	}

	resp := StatusResponse{
		Status:    "ok",
		Providers: h.deps.Providers,
		System:    snap,
		StartedAt: h.startedAt,
		Timestamp: entities.Timestamp(h.now()),
	}
	if h.deps.Hub != nil {
		resp.WebSocketClients = h.deps.Hub.ClientCount()
	}
	return c.JSON(http.StatusOK, resp)
}

// Coach upgrades to a WebSocket coaching session
func (h *Handler) Coach(c echo.Context) error {
	if h.deps.Hub == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "WebSocket sessions are disabled")
	}
	return websocket.HandleWebSocket(h.deps.Hub, c, clientID(c))
}

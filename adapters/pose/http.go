package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/entities"
	"github.com/satriahrh/gymbuddy/domain/repositories"
)

// SidecarConfig points at an HTTP pose estimation service
type SidecarConfig struct {
	BaseURL    string
	HTTPClient *http.Client
}

// sidecarRequest mirrors what the browser sends: a base64 data URL.
type sidecarRequest struct {
	Image string `json:"image"`
}

type sidecarResponse struct {
	Landmarks []entities.PoseLandmark `json:"landmarks"`
	Error     string                  `json:"error,omitempty"`
}

// SidecarEstimator implements PoseEstimator by delegating to a model server.
// The server answers 200 with landmarks, or 422 when no body is in frame.
type SidecarEstimator struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

var _ repositories.PoseEstimator = (*SidecarEstimator)(nil)

// NewSidecarEstimator creates the pose client
func NewSidecarEstimator(config SidecarConfig, logger *zap.Logger) (*SidecarEstimator, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("pose service URL is required")
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SidecarEstimator{
		endpoint: strings.TrimRight(config.BaseURL, "/") + "/estimate",
		client:   client,
		logger:   logger,
	}, nil
}

// EstimatePose implements PoseEstimator. image is the raw encoded frame.
func (s *SidecarEstimator) EstimatePose(ctx context.Context, image []byte) ([]entities.PoseLandmark, error) {
	body, err := json.Marshal(sidecarRequest{Image: EncodeDataURL(image)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, repositories.ErrNoPoseDetected
	}
	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("pose service returned error %d: %s", resp.StatusCode, string(errorBody))
	}

	var decoded sidecarResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Landmarks) == 0 {
		return nil, repositories.ErrNoPoseDetected
	}

	s.logger.Debug("Pose estimated", zap.Int("landmarks", len(decoded.Landmarks)))
	return decoded.Landmarks, nil
}

package api

import (
	"time"

	"github.com/satriahrh/gymbuddy/domain/entities"
	"github.com/satriahrh/gymbuddy/internal/system"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// PoseRequest carries one camera frame as a data URL
type PoseRequest struct {
	Image string `json:"image"`
}

// PoseResponse is returned by POST /api/get-pose-3d
type PoseResponse struct {
	Success   bool                    `json:"success"`
	Landmarks []entities.PoseLandmark `json:"landmarks,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// Providers names the backends the server was started with
type Providers struct {
	STT     string `json:"stt"`
	LLM     string `json:"llm"`
	TTS     string `json:"tts"`
	Archive string `json:"archive"`
	Pose    bool   `json:"pose"`
}

// StatusResponse is returned by GET /api/status
type StatusResponse struct {
	Status           string          `json:"status"`
	Providers        Providers       `json:"providers"`
	WebSocketClients int             `json:"websocket_clients"`
	System           system.Snapshot `json:"system"`
	StartedAt        time.Time       `json:"started_at"`
	Timestamp        string          `json:"timestamp"`
}

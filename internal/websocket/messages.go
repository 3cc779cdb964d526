package websocket

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/satriahrh/gymbuddy/domain/entities"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Client to server
	MessageTypeUtteranceStart MessageType = "utterance_start"
	MessageTypeUtteranceEnd   MessageType = "utterance_end"
	MessageTypeCancel         MessageType = "utterance_cancel"
	MessageTypePing           MessageType = "ping"

	// Server to client
	MessageTypeSessionReady     MessageType = "session_ready"
	MessageTypeUtteranceStarted MessageType = "utterance_started"
	MessageTypeCoachResponse    MessageType = "coach_response"
	MessageTypePong             MessageType = "pong"
	MessageTypeError            MessageType = "error"
)

// BaseMessage represents the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// UtteranceStartMessage opens an utterance. Binary frames that follow are
// appended to it until utterance_end.
type UtteranceStartMessage struct {
	BaseMessage
	// ExerciseMetrics is either a JSON object or a string holding one.
	ExerciseMetrics json.RawMessage `json:"exercise_metrics,omitempty"`
	Voice           string          `json:"voice,omitempty"`
	// Filename hints the container, e.g. "clip.webm".
	Filename string `json:"filename,omitempty"`
}

// MetricsString returns the exercise metrics in the form the HTTP form field uses.
func (m *UtteranceStartMessage) MetricsString() (string, error) {
	raw := strings.TrimSpace(string(m.ExerciseMetrics))
	if raw == "" || raw == "null" {
		return "", nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(m.ExerciseMetrics, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return raw, nil
}

// UtteranceEndMessage closes the open utterance and triggers coaching.
type UtteranceEndMessage struct {
	BaseMessage
}

// CancelMessage drops the open utterance without processing it.
type CancelMessage struct {
	BaseMessage
}

// PingMessage represents ping message for connection health
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// SessionReadyMessage is sent once after the upgrade.
type SessionReadyMessage struct {
	BaseMessage
	ClientID      string `json:"client_id"`
	MaxAudioBytes int64  `json:"max_audio_bytes"`
}

// UtteranceStartedMessage acknowledges utterance_start.
type UtteranceStartedMessage struct {
	BaseMessage
	UtteranceID string `json:"utterance_id"`
}

// CoachResponseMessage carries the same envelope POST /api/transcribe returns.
type CoachResponseMessage struct {
	BaseMessage
	UtteranceID string                     `json:"utterance_id"`
	Response    *entities.ResponseEnvelope `json:"response"`
}

// ErrorMessage reports a failure with the HTTP status the same failure
// would produce on the HTTP endpoint.
type ErrorMessage struct {
	BaseMessage
	Status      int    `json:"status"`
	Error       string `json:"error"`
	UtteranceID string `json:"utterance_id,omitempty"`
}

// MessageValidator validates incoming WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates a text frame and returns the typed message
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeUtteranceStart:
		var msg UtteranceStartMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid utterance_start message: %w", err)
		}
		if err := v.validateUtteranceStart(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypeUtteranceEnd:
		var msg UtteranceEndMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid utterance_end message: %w", err)
		}
		return &msg, nil

	case MessageTypeCancel:
		var msg CancelMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid utterance_cancel message: %w", err)
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	case "":
		return nil, fmt.Errorf("message type is required")

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

func (v *MessageValidator) validateUtteranceStart(msg *UtteranceStartMessage) error {
	if msg.Filename != "" && filepath.Base(msg.Filename) != msg.Filename {
		return fmt.Errorf("filename must not contain a path")
	}
	if _, err := msg.MetricsString(); err != nil {
		return fmt.Errorf("exercise_metrics must be an object or a JSON string")
	}
	return nil
}

func now() string {
	return entities.Timestamp(time.Now())
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(status int, message, utteranceID string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{Type: MessageTypeError, Timestamp: now()},
		Status:      status,
		Error:       message,
		UtteranceID: utteranceID,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: BaseMessage{Type: MessageTypePong, Timestamp: now()},
		Data:        data,
	}
}

// CreateCoachResponseMessage wraps a pipeline envelope.
func CreateCoachResponseMessage(utteranceID string, env *entities.ResponseEnvelope) *CoachResponseMessage {
	return &CoachResponseMessage{
		BaseMessage: BaseMessage{Type: MessageTypeCoachResponse, Timestamp: now()},
		UtteranceID: utteranceID,
		Response:    env,
	}
}

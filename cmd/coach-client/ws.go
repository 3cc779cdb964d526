package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/entities"
)

type serverMessage struct {
	Type        string                     `json:"type"`
	UtteranceID string                     `json:"utterance_id"`
	Status      int                        `json:"status"`
	Error       string                     `json:"error"`
	Response    *entities.ResponseEnvelope `json:"response"`
}

// wsURL turns the server base URL into the /ws/coach endpoint.
func wsURL(server, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws/coach"
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// sendWebSocket streams the audio as binary frames inside one utterance and
// waits for the coach_response.
func sendWebSocket(ctx context.Context, opts options, filename string, audio []byte, logger *zap.Logger) (*entities.ResponseEnvelope, error) {
	endpoint, err := wsURL(opts.server, opts.token)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	if opts.token != "" {
		headers.Add("Authorization", "Bearer "+opts.token)
	}
	c, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer c.Close()

	go func() {
		<-ctx.Done()
		c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.Close()
	}()

	start := map[string]interface{}{
		"type":     "utterance_start",
		"voice":    opts.voice,
		"filename": filename,
	}
	if opts.metrics != "" {
		start["exercise_metrics"] = json.RawMessage(opts.metrics)
	}
	if err := c.WriteJSON(start); err != nil {
		return nil, err
	}

	chunk := opts.chunkSize
	if chunk <= 0 {
		chunk = len(audio)
	}
	frames := 0
	for offset := 0; offset < len(audio); offset += chunk {
		end := offset + chunk
		if end > len(audio) {
			end = len(audio)
		}
		if err := c.WriteMessage(websocket.BinaryMessage, audio[offset:end]); err != nil {
			return nil, fmt.Errorf("send frame %d: %w", frames, err)
		}
		frames++
	}
	logger.Debug("Audio sent", zap.Int("frames", frames), zap.Int("bytes", len(audio)))

	if err := c.WriteJSON(map[string]string{"type": "utterance_end"}); err != nil {
		return nil, err
	}

	for {
		var msg serverMessage
		if err := c.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read: %w", err)
		}

		switch msg.Type {
		case "coach_response":
			return msg.Response, nil
		case "error":
			return nil, fmt.Errorf("server returned %d: %s", msg.Status, msg.Error)
		default:
			logger.Debug("Server message", zap.String("type", msg.Type), zap.String("utteranceID", msg.UtteranceID))
		}
	}
}

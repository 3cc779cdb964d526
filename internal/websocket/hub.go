package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain"
	"github.com/satriahrh/gymbuddy/domain/entities"
	"github.com/satriahrh/gymbuddy/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB per audio frame

	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	// Browsers on any origin may connect; auth happens on the token.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Coach processes one complete utterance.
type Coach interface {
	Process(ctx context.Context, req usecase.CoachingRequest) (*entities.ResponseEnvelope, error)
}

// Hub maintains the set of active coaching sessions.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	// In-flight utterances, drained on shutdown. Add only happens under
	// drainMu while draining is false.
	inflight sync.WaitGroup
	drainMu  sync.Mutex
	draining bool

	coach         Coach
	maxAudioBytes int64
	validator     *MessageValidator

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub. maxAudioBytes bounds how much audio
// one utterance may buffer.
func NewHub(coach Coach, maxAudioBytes int64, logger *zap.Logger) *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		done:          make(chan struct{}),
		coach:         coach,
		maxAudioBytes: maxAudioBytes,
		validator:     NewMessageValidator(),
		logger:        logger,
	}
}

// Run starts the hub's main loop. It returns when ctx is done, closing every
// remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("clientID", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.clients[client.id]; ok && existing == client {
				delete(h.clients, client.id)
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				client.closeSend()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// ClientCount returns the number of connected sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Drain refuses new utterances, then waits for in-flight ones to finish or
// for ctx to expire.
func (h *Hub) Drain(ctx context.Context) error {
	h.drainMu.Lock()
	h.draining = true
	h.drainMu.Unlock()

	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// beginUtterance reserves an in-flight slot, or reports false once draining.
func (h *Hub) beginUtterance() bool {
	h.drainMu.Lock()
	defer h.drainMu.Unlock()
	if h.draining {
		return false
	}
	h.inflight.Add(1)
	return true
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// utterance is the audio buffered between utterance_start and utterance_end.
type utterance struct {
	id       string
	metrics  *entities.ExerciseMetrics
	voice    string
	filename string
	audio    bytes.Buffer
	// received counts every byte, including those dropped past the limit.
	received int64
	started  time.Time
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	id     string
	logger *zap.Logger

	mutex   sync.Mutex
	closed  bool
	current *utterance
}

// HandleWebSocket upgrades the request into a coaching session. An empty
// clientID gets a generated one.
func HandleWebSocket(hub *Hub, c echo.Context, clientID string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	if clientID == "" {
		clientID = uuid.NewString()
	}
	// Several tabs may share one token; keep sessions apart.
	id := clientID + "/" + uuid.NewString()[:8]

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan WriteData, sendBufferSize),
		id:     id,
		logger: hub.logger.With(zap.String("clientID", id)),
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return nil
	}

	client.sendJSON(&SessionReadyMessage{
		BaseMessage:   BaseMessage{Type: MessageTypeSessionReady, Timestamp: now()},
		ClientID:      clientID,
		MaxAudioBytes: hub.maxAudioBytes,
	})

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processAudioFrame(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendJSON queues a message. Messages for a closed client are dropped.
func (c *Client) sendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to encode message", zap.Error(err))
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send buffer full, dropping message")
	}
}

func (c *Client) sendError(status int, message, utteranceID string) {
	c.sendJSON(CreateErrorMessage(status, message, utteranceID))
}

func (c *Client) closeSend() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// processMessage handles a control frame from the client
func (c *Client) processMessage(message []byte) {
	msg, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Debug("Rejected message", zap.Error(err))
		c.sendError(http.StatusBadRequest, err.Error(), "")
		return
	}

	switch m := msg.(type) {
	case *UtteranceStartMessage:
		c.handleUtteranceStart(m)
	case *UtteranceEndMessage:
		c.handleUtteranceEnd()
	case *CancelMessage:
		c.handleCancel()
	case *PingMessage:
		c.sendJSON(CreatePongMessage(m.Data))
	}
}

func (c *Client) handleUtteranceStart(msg *UtteranceStartMessage) {
	raw, _ := msg.MetricsString()
	metrics, err := usecase.ParseExerciseMetrics(raw)
	if err != nil {
		status, text := domain.ClientError(err)
		c.sendError(status, text, "")
		return
	}

	u := &utterance{
		id:       uuid.NewString(),
		metrics:  metrics,
		voice:    msg.Voice,
		filename: msg.Filename,
		started:  time.Now(),
	}

	c.mutex.Lock()
	if c.current != nil {
		c.logger.Info("Utterance replaced before it ended", zap.String("utteranceID", c.current.id))
	}
	c.current = u
	c.mutex.Unlock()

	c.logger.Debug("Utterance started", zap.String("utteranceID", u.id))
	c.sendJSON(&UtteranceStartedMessage{
		BaseMessage: BaseMessage{Type: MessageTypeUtteranceStarted, Timestamp: now()},
		UtteranceID: u.id,
	})
}

// processAudioFrame appends a binary frame to the open utterance. Bytes past
// the size limit are counted but not kept, so validation can reject the
// utterance with the usual message.
func (c *Client) processAudioFrame(data []byte) {
	c.mutex.Lock()
	u := c.current
	if u == nil {
		c.mutex.Unlock()
		c.sendError(http.StatusBadRequest, "No utterance in progress", "")
		return
	}
	u.received += int64(len(data))
	if u.received <= c.hub.maxAudioBytes {
		u.audio.Write(data)
	}
	c.mutex.Unlock()
}

func (c *Client) handleCancel() {
	c.mutex.Lock()
	c.current = nil
	c.mutex.Unlock()
}

func (c *Client) handleUtteranceEnd() {
	c.mutex.Lock()
	u := c.current
	c.current = nil
	c.mutex.Unlock()

	if u == nil {
		c.sendError(http.StatusBadRequest, "No utterance in progress", "")
		return
	}

	filename := u.filename
	if filename == "" {
		filename = "utterance"
	}
	req := usecase.CoachingRequest{
		Metrics: u.metrics,
		Voice:   u.voice,
	}
	if u.received > 0 {
		req.Audio = &entities.AudioSubmission{
			Data:     u.audio.Bytes(),
			Size:     u.received,
			Filename: filename,
		}
	}

	if !c.hub.beginUtterance() {
		c.sendError(http.StatusServiceUnavailable, "Server is shutting down", u.id)
		return
	}
	go c.respond(u, req)
}

// respond runs the pipeline. The client may disconnect meanwhile; the work
// is finished regardless and the reply dropped.
func (c *Client) respond(u *utterance, req usecase.CoachingRequest) {
	defer c.hub.inflight.Done()

	logger := c.logger.With(zap.String("utteranceID", u.id))
	env, err := c.hub.coach.Process(context.Background(), req)
	if err != nil {
		status, text := domain.ClientError(err)
		logger.Info("Utterance failed", zap.Int("status", status), zap.Error(err))
		c.sendError(status, text, u.id)
		return
	}

	logger.Debug("Utterance answered", zap.Duration("took", time.Since(u.started)))
	c.sendJSON(CreateCoachResponseMessage(u.id, env))
}

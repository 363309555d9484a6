// Package websocket is the host gateway: a browser or desktop UI connects
// here, streams raw microphone frames in, and receives agent audio and live
// transcript updates back. Each client drives its own journal session; the
// client's socket doubles as the session's capture device and playback sink.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/echodiary/echodiary/domain/entities"
	"github.com/echodiary/echodiary/domain/repositories"
	"github.com/echodiary/echodiary/internal/audio"
	"github.com/echodiary/echodiary/internal/playback"
	"github.com/echodiary/echodiary/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio frames

	startTimeout = 15 * time.Second
	stopTimeout  = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the host UI's origin once it is deployed
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients and the shared engine dependencies.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	transport repositories.LiveTransport
	greeter   repositories.Greeter
	journal   *usecase.JournalService
	validator *MessageValidator

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub. greeter may be nil to skip greeting
// synthesis.
func NewHub(
	transport repositories.LiveTransport,
	greeter repositories.Greeter,
	journal *usecase.JournalService,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		transport:  transport,
		greeter:    greeter,
		journal:    journal,
		validator:  NewMessageValidator(),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.clientID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("clientID", client.clientID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.clientID]; ok {
				delete(h.clients, client.clientID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("clientID", client.clientID))
		}
	}
}

type WriteData struct {
	// Type is the websocket frame type.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the engine.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Client ID from the authenticated token
	clientID string

	logger *zap.Logger

	mutex        sync.Mutex
	session      *usecase.JournalSession
	capture      *streamCapture
	persona      entities.Persona
	sessionStart time.Time
}

// sessionRunningSince reports whether a session is running and when it began.
func (c *Client) sessionRunningSince() (time.Time, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.session == nil || !c.session.Recording() {
		return time.Time{}, false
	}
	return c.sessionStart, true
}

// HandleWebSocket handles websocket requests from a pre-authenticated client.
func HandleWebSocket(hub *Hub, c echo.Context, clientID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan WriteData, 256),
		clientID: clientID,
		logger:   logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection into the engine.
func (c *Client) readPump() {
	defer func() {
		c.teardownSession()
		c.hub.unregister <- c
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryFrame(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the engine to the websocket connection.
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

// processMessage dispatches inbound control messages.
func (c *Client) processMessage(message []byte) {
	msg, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Rejected control message", zap.Error(err))
		c.sendJSON(NewErrorMessage("invalid_message", err.Error()))
		return
	}

	switch msg := msg.(type) {
	case *SessionStartMessage:
		c.handleSessionStart(msg)
	case *SessionStopMessage:
		c.handleSessionStop()
	}
}

// processBinaryFrame feeds a raw float32 capture frame into the session.
func (c *Client) processBinaryFrame(data []byte) {
	c.mutex.Lock()
	capture := c.capture
	c.mutex.Unlock()

	if capture == nil {
		c.logger.Debug("Dropping binary frame, no active session",
			zap.String("clientID", c.clientID))
		return
	}
	capture.Deliver(data)
}

// handleSessionStart opens a live session for this client. The client's own
// socket serves as the capture device and the playback sink.
func (c *Client) handleSessionStart(msg *SessionStartMessage) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.session != nil && c.session.Recording() {
		c.sendJSON(NewErrorMessage("session_active", "a session is already running"))
		return
	}

	persona := entities.Persona(msg.Persona)
	capture := newStreamCapture(0)
	clock := playback.NewWallClock()
	sink := newStreamSink(c, clock)
	scheduler := playback.NewScheduler(clock, sink, c.logger)

	session := usecase.NewJournalSession(
		c.hub.transport,
		capture,
		scheduler,
		c.hub.journal.Entries,
		usecase.SessionConfig{Persona: persona, InputSampleRate: msg.SampleRate},
		c.logger,
	)
	session.OnTranscript(func(lines []entities.TranscriptLine) {
		c.sendJSON(NewTranscriptMessage(lines))
	})
	session.OnError(func(err error) {
		c.logger.Error("Live session failed",
			zap.String("clientID", c.clientID),
			zap.Error(err))
		c.sendJSON(NewErrorMessage("session_error", "live session failed"))
	})

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	c.sendGreeting(ctx, persona)

	if err := session.Start(ctx); err != nil {
		c.logger.Error("Failed to start session",
			zap.String("clientID", c.clientID),
			zap.Error(err))
		c.sendJSON(NewErrorMessage("session_start_failed", err.Error()))
		return
	}

	c.session = session
	c.capture = capture
	c.persona = persona
	c.sessionStart = time.Now()

	c.logger.Info("Session started",
		zap.String("clientID", c.clientID),
		zap.String("persona", msg.Persona))
}

// sendGreeting synthesizes and streams the opening line. Failures are logged
// and skipped; the session still starts.
func (c *Client) sendGreeting(ctx context.Context, persona entities.Persona) {
	if c.hub.greeter == nil {
		return
	}

	payload, sampleRate, err := c.hub.greeter.GreetingAudio(ctx, persona, c.hub.journal.Entries())
	if err != nil {
		c.logger.Warn("Greeting synthesis failed", zap.Error(err))
		return
	}
	raw, err := audio.DecodeBase64(payload)
	if err != nil {
		c.logger.Warn("Greeting payload is malformed", zap.Error(err))
		return
	}

	c.sendJSON(NewGreetingMessage(sampleRate))
	c.trySend(WriteData{Type: websocket.BinaryMessage, Payload: raw})
}

// handleSessionStop ends the session, records the journal entry, and reports
// the result.
func (c *Client) handleSessionStop() {
	c.mutex.Lock()
	session := c.session
	persona := c.persona
	c.session = nil
	c.capture = nil
	c.mutex.Unlock()

	if session == nil {
		c.sendJSON(NewErrorMessage("no_session", "no session is running"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	log, err := session.Stop(ctx)
	if err != nil {
		c.sendJSON(NewErrorMessage("session_stop_failed", err.Error()))
		return
	}

	entry, err := c.hub.journal.Record(ctx, log, persona)
	if err != nil {
		c.logger.Error("Failed to record journal entry",
			zap.String("clientID", c.clientID),
			zap.Error(err))
		c.sendJSON(NewErrorMessage("summarize_failed", err.Error()))
		return
	}

	c.sendJSON(NewSessionEndedMessage(entry))
}

// teardownSession stops a session left running when the socket drops. The
// transcript is still recorded so the entry is not lost.
func (c *Client) teardownSession() {
	c.mutex.Lock()
	session := c.session
	persona := c.persona
	c.session = nil
	c.capture = nil
	c.mutex.Unlock()

	if session == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	log, err := session.Stop(ctx)
	if err != nil || log == "" {
		return
	}
	if _, err := c.hub.journal.Record(ctx, log, persona); err != nil {
		c.logger.Error("Failed to record journal entry on disconnect",
			zap.String("clientID", c.clientID),
			zap.Error(err))
	}
}

func (c *Client) sendJSON(msg interface{}) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}
	c.trySend(WriteData{Type: websocket.TextMessage, Payload: payload})
}

// trySend drops the message when the outbound buffer is full rather than
// blocking the engine.
func (c *Client) trySend(data WriteData) {
	select {
	case c.send <- data:
	default:
		c.logger.Warn("Outbound buffer full, dropping message",
			zap.String("clientID", c.clientID))
	}
}

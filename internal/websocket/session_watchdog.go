package websocket

import (
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxSessionDuration = 30 * time.Minute
	defaultSweepInterval      = time.Minute
)

// SessionWatchdog ends sessions that run past the maximum duration, so an
// abandoned browser tab cannot hold a live model connection open forever.
// The transcript collected so far is still summarized and recorded.
type SessionWatchdog struct {
	hub         *Hub
	maxDuration time.Duration
	interval    time.Duration
	logger      *zap.Logger
	stopChan    chan struct{}
}

// NewSessionWatchdog creates a watchdog over the hub's clients. Zero
// durations take the defaults.
func NewSessionWatchdog(hub *Hub, maxDuration time.Duration, logger *zap.Logger) *SessionWatchdog {
	if maxDuration <= 0 {
		maxDuration = defaultMaxSessionDuration
	}
	return &SessionWatchdog{
		hub:         hub,
		maxDuration: maxDuration,
		interval:    defaultSweepInterval,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the background sweep.
func (w *SessionWatchdog) Start() {
	go w.sweepLoop()
	w.logger.Info("Session watchdog started",
		zap.Duration("max_duration", w.maxDuration))
}

// Stop halts the sweep loop.
func (w *SessionWatchdog) Stop() {
	close(w.stopChan)
	w.logger.Info("Session watchdog stopped")
}

func (w *SessionWatchdog) sweepLoop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopChan:
			return
		}
	}
}

func (w *SessionWatchdog) sweep() {
	w.hub.mu.RLock()
	clients := make([]*Client, 0, len(w.hub.clients))
	for _, client := range w.hub.clients {
		clients = append(clients, client)
	}
	w.hub.mu.RUnlock()

	for _, client := range clients {
		since, running := client.sessionRunningSince()
		if !running || time.Since(since) < w.maxDuration {
			continue
		}
		w.logger.Warn("Ending overlong session",
			zap.String("clientID", client.clientID),
			zap.Duration("age", time.Since(since)))
		client.handleSessionStop()
	}
}

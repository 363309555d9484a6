package gemini

import (
	"context"
	"fmt"
	"sync"

	"github.com/echodiary/echodiary/domain/entities"
	"github.com/echodiary/echodiary/domain/repositories"
)

// MockLiveTransport is a scripted in-memory transport for tests and local
// development without an API key. Each Connect replays the configured script
// as inbound events.
type MockLiveTransport struct {
	// Script is replayed, in order, on every session. A ClosedEvent is
	// appended automatically.
	Script []repositories.LiveEvent
	// ConnectErr, when set, fails Connect.
	ConnectErr error

	mu       sync.Mutex
	sessions []*MockLiveSession
}

// NewMockLiveTransport creates a transport that echoes a short scripted turn.
func NewMockLiveTransport() *MockLiveTransport {
	return &MockLiveTransport{
		Script: []repositories.LiveEvent{
			repositories.TranscriptDeltaEvent{Speaker: entities.SpeakerUser, Text: "今天"},
			repositories.TranscriptDeltaEvent{Speaker: entities.SpeakerUser, Text: "今天過得不錯"},
			repositories.TranscriptDeltaEvent{Speaker: entities.SpeakerAgent, Text: "聽起來很棒！"},
			repositories.TurnCompleteEvent{},
		},
	}
}

// Connect implements repositories.LiveTransport.
func (m *MockLiveTransport) Connect(ctx context.Context, cfg repositories.LiveConfig) (repositories.LiveSession, error) {
	if m.ConnectErr != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrTransport, m.ConnectErr)
	}

	s := &MockLiveSession{
		Config: cfg,
		events: make(chan repositories.LiveEvent, defaultEventCapacity),
	}
	m.mu.Lock()
	m.sessions = append(m.sessions, s)
	m.mu.Unlock()

	go func() {
		for _, ev := range m.Script {
			s.events <- ev
		}
		s.events <- repositories.ClosedEvent{}
		close(s.events)
	}()

	return s, nil
}

// Sessions returns every session opened so far.
func (m *MockLiveTransport) Sessions() []*MockLiveSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockLiveSession(nil), m.sessions...)
}

// MockLiveSession records outbound frames and replays the scripted events.
type MockLiveSession struct {
	Config repositories.LiveConfig

	mu     sync.Mutex
	sent   []repositories.AudioFrame
	closed bool

	events chan repositories.LiveEvent
}

// SendAudio implements repositories.LiveSession.
func (s *MockLiveSession) SendAudio(frame repositories.AudioFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: session closed", entities.ErrTransport)
	}
	s.sent = append(s.sent, frame)
	return nil
}

// Events implements repositories.LiveSession.
func (s *MockLiveSession) Events() <-chan repositories.LiveEvent {
	return s.events
}

// Close implements repositories.LiveSession.
func (s *MockLiveSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SentFrames returns the outbound frames recorded so far.
func (s *MockLiveSession) SentFrames() []repositories.AudioFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repositories.AudioFrame(nil), s.sent...)
}

// Closed reports whether Close was called.
func (s *MockLiveSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// MockSummarizer is a canned repositories.Summarizer for running without an
// API key.
type MockSummarizer struct{}

// NewMockSummarizer creates a summarizer that echoes the transcript.
func NewMockSummarizer() repositories.Summarizer {
	return &MockSummarizer{}
}

// Summarize implements repositories.Summarizer.
func (MockSummarizer) Summarize(ctx context.Context, transcript string, persona entities.Persona, history []entities.JournalEntry) (*entities.JournalDraft, error) {
	return &entities.JournalDraft{
		Title:   "測試日記",
		Summary: transcript,
		Mood:    entities.MoodNeutral,
		Tags:    []string{"測試"},
	}, nil
}

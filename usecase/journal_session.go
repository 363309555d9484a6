package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/echodiary/echodiary/domain/entities"
	"github.com/echodiary/echodiary/domain/repositories"
	"github.com/echodiary/echodiary/internal/audio"
	"github.com/echodiary/echodiary/internal/playback"
	"github.com/echodiary/echodiary/internal/transcript"
)

const (
	defaultInputRate  = 16000
	defaultOutputRate = 24000

	stopDrainTimeout = 3 * time.Second
)

// SessionConfig carries the per-session choices.
type SessionConfig struct {
	Persona entities.Persona
	// InputSampleRate is the capture rate; zero means 16 kHz.
	InputSampleRate int
	// OutputSampleRate is the playback device rate; zero means 24 kHz.
	OutputSampleRate int
}

// JournalSession drives one live voice-journaling conversation: capture
// frames out, agent audio and transcription in. All inbound events flow
// through a single dispatch goroutine so transcript assembly stays ordered.
type JournalSession struct {
	transport repositories.LiveTransport
	capture   repositories.AudioCapture
	scheduler *playback.Scheduler
	history   func() []entities.JournalEntry
	logger    *zap.Logger
	cfg       SessionConfig

	mu             sync.Mutex
	session        repositories.LiveSession
	assembler      *transcript.Assembler
	dispatchDone   chan struct{}
	captureStopped bool
	onTranscript   func(lines []entities.TranscriptLine)
	onError        func(err error)
}

// NewJournalSession wires a session controller. history may be nil when no
// past entries should inform the conversation.
func NewJournalSession(
	transport repositories.LiveTransport,
	capture repositories.AudioCapture,
	scheduler *playback.Scheduler,
	history func() []entities.JournalEntry,
	cfg SessionConfig,
	logger *zap.Logger,
) *JournalSession {
	if cfg.InputSampleRate <= 0 {
		cfg.InputSampleRate = defaultInputRate
	}
	if cfg.OutputSampleRate <= 0 {
		cfg.OutputSampleRate = defaultOutputRate
	}
	return &JournalSession{
		transport: transport,
		capture:   capture,
		scheduler: scheduler,
		history:   history,
		logger:    logger,
		cfg:       cfg,
		assembler: transcript.New(),
	}
}

// OnTranscript registers a callback invoked from the dispatch goroutine after
// every transcript change, with a snapshot of the current lines.
func (s *JournalSession) OnTranscript(fn func(lines []entities.TranscriptLine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTranscript = fn
}

// OnError registers a callback invoked from the dispatch goroutine when the
// transport fails mid-session, after capture and playback have been torn
// down.
func (s *JournalSession) OnError(fn func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// Start opens the live session. Configuration errors surface before any
// device or network activity; the capture callback is attached only once the
// transport is open, so earlier audio is never delivered.
func (s *JournalSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transport == nil {
		return fmt.Errorf("%w: no live transport configured", entities.ErrConfig)
	}
	if s.session != nil {
		return fmt.Errorf("%w: session already running", entities.ErrConfig)
	}

	var history []entities.JournalEntry
	if s.history != nil {
		history = s.history()
	}

	s.assembler.Reset()
	s.scheduler.Reset()

	profile := entities.PersonaProfileFor(s.cfg.Persona)
	session, err := s.transport.Connect(ctx, repositories.LiveConfig{
		SystemInstruction: entities.ConversationInstruction(s.cfg.Persona, history),
		Voice:             profile.Voice,
		InputSampleRate:   s.cfg.InputSampleRate,
	})
	if err != nil {
		return err
	}

	if s.capture != nil {
		if err := s.capture.Start(ctx, s.sendFrame(session)); err != nil {
			session.Close()
			return err
		}
	}

	s.session = session
	s.dispatchDone = make(chan struct{})
	s.captureStopped = false
	go s.dispatch(session, s.dispatchDone)

	s.logger.Info("Journal session started",
		zap.String("persona", string(s.cfg.Persona)))

	return nil
}

// sendFrame returns the capture callback: encode the block and stream it,
// fire and forget. Send failures are logged and otherwise ignored; the
// transport's own event stream reports fatal conditions.
func (s *JournalSession) sendFrame(session repositories.LiveSession) repositories.FrameFunc {
	mimeType := fmt.Sprintf("audio/pcm;rate=%d", s.cfg.InputSampleRate)
	return func(samples []float32) {
		frame := repositories.AudioFrame{
			Data:     audio.EncodeFrame(samples),
			MIMEType: mimeType,
		}
		if err := session.SendAudio(frame); err != nil {
			s.logger.Warn("Dropping outbound audio frame", zap.Error(err))
		}
	}
}

// dispatch drains the inbound event stream in order. It owns all transcript
// and playback mutation during the session.
func (s *JournalSession) dispatch(session repositories.LiveSession, done chan struct{}) {
	defer close(done)

	for ev := range session.Events() {
		switch ev := ev.(type) {
		case repositories.AudioChunkEvent:
			buf, err := audio.DecodePCM(ev.Data, ev.SampleRate, s.cfg.OutputSampleRate, ev.Channels)
			if err != nil {
				s.logger.Warn("Dropping malformed audio chunk", zap.Error(err))
				continue
			}
			s.scheduler.Schedule(buf)

		case repositories.InterruptedEvent:
			s.scheduler.Interrupt()

		case repositories.TranscriptDeltaEvent:
			s.mu.Lock()
			s.assembler.Apply(ev.Speaker, ev.Text)
			s.mu.Unlock()
			s.notifyTranscript()

		case repositories.TurnCompleteEvent:
			s.mu.Lock()
			s.assembler.CompleteTurn()
			s.mu.Unlock()
			s.notifyTranscript()

		case repositories.ErrorEvent:
			s.logger.Error("Live session failed", zap.Error(ev.Err))
			s.stopCapture()
			if err := session.Close(); err != nil {
				s.logger.Warn("Closing failed live session reported error", zap.Error(err))
			}
			s.scheduler.Interrupt()
			s.notifyError(ev.Err)

		case repositories.ClosedEvent:
			// Channel closes right after; the loop ends on its own.
		}
	}

	// The stream ended, whether by Stop or by the transport dying on its
	// own. Either way the mic must not keep feeding a dead session.
	s.stopCapture()
	s.scheduler.Interrupt()
}

// stopCapture stops the capture device at most once per session run. Both
// Stop and the dispatch teardown funnel through here.
func (s *JournalSession) stopCapture() {
	s.mu.Lock()
	stopped := s.captureStopped
	s.captureStopped = true
	s.mu.Unlock()
	if stopped || s.capture == nil {
		return
	}
	s.capture.Stop()
}

func (s *JournalSession) notifyError(err error) {
	s.mu.Lock()
	fn := s.onError
	s.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (s *JournalSession) notifyTranscript() {
	s.mu.Lock()
	fn := s.onTranscript
	lines := s.assembler.Lines()
	s.mu.Unlock()
	if fn != nil {
		fn(lines)
	}
}

// Stop ends the session and returns the durable transcript log. Idempotent:
// stopping an idle controller returns an empty log and no error.
func (s *JournalSession) Stop(ctx context.Context) (string, error) {
	s.mu.Lock()
	session := s.session
	done := s.dispatchDone
	s.session = nil
	s.dispatchDone = nil
	s.mu.Unlock()

	if session == nil {
		return "", nil
	}

	s.stopCapture()
	err := session.Close()

	if done != nil {
		select {
		case <-done:
		case <-time.After(stopDrainTimeout):
			s.logger.Warn("Timed out waiting for event stream to drain")
		case <-ctx.Done():
		}
	}

	s.scheduler.Interrupt()

	s.mu.Lock()
	log := s.assembler.DurableLog()
	s.assembler.Reset()
	s.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Live session close reported error", zap.Error(err))
	}

	s.logger.Info("Journal session stopped", zap.Int("log_bytes", len(log)))
	return log, nil
}

// Recording reports whether a live session is open. It goes false when the
// transport's event stream ends, even before Stop is called.
func (s *JournalSession) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return false
	}
	select {
	case <-s.dispatchDone:
		return false
	default:
		return true
	}
}

// Lines returns a snapshot of the in-progress transcript.
func (s *JournalSession) Lines() []entities.TranscriptLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assembler.Lines()
}

// Package speaker plays scheduled audio buffers through the system output
// device using oto.
package speaker

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/echodiary/echodiary/domain/entities"
	"github.com/echodiary/echodiary/internal/audio"
	"github.com/echodiary/echodiary/internal/playback"
)

const (
	// DefaultSampleRate matches the live model's synthesized speech.
	DefaultSampleRate = 24000

	outputChannels = 1
	// ~100ms of 16-bit mono at 24kHz. Small enough to interrupt quickly.
	bufferSizeBytes = 4800
)

// Speaker is an oto-backed playback.Sink. Each scheduled buffer gets its own
// player, armed by a timer so it begins at the requested clock time.
type Speaker struct {
	ctx    *oto.Context
	clock  *playback.WallClock
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

var _ playback.Sink = (*Speaker)(nil)

// NewSpeaker opens the output device at the given rate. Zero means
// DefaultSampleRate. The returned clock is the one playback must be
// scheduled against.
func NewSpeaker(sampleRate int, logger *zap.Logger) (*Speaker, *playback.WallClock, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: outputChannels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   bufferSizeBytes,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open output device: %v", entities.ErrDevice, err)
	}
	<-ready

	clock := playback.NewWallClock()
	logger.Info("Speaker output opened", zap.Int("sample_rate", sampleRate))

	return &Speaker{ctx: ctx, clock: clock, logger: logger}, clock, nil
}

// Play implements playback.Sink. startAt is in the speaker clock's seconds;
// times already in the past start immediately.
func (s *Speaker) Play(buf *audio.Buffer, startAt float64, done func()) (playback.Handle, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: speaker closed", entities.ErrDevice)
	}
	s.mu.Unlock()

	raw := audio.EncodePCM(buf.Samples)
	h := &playHandle{done: done}

	delay := time.Duration((startAt - s.clock.Now()) * float64(time.Second))
	if delay < 0 {
		delay = 0
	}

	h.timer = time.AfterFunc(delay, func() {
		h.mu.Lock()
		if h.stopped {
			h.mu.Unlock()
			return
		}
		player := s.ctx.NewPlayer(bytes.NewReader(raw))
		h.player = player
		h.mu.Unlock()

		player.Play()
		go h.watch(buf.Duration())
	})

	return h, nil
}

// Close implements playback.Sink. Players still running are left to their
// handles; oto contexts have no teardown.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type playHandle struct {
	mu      sync.Mutex
	timer   *time.Timer
	player  *oto.Player
	stopped bool
	doneRun bool
	done    func()
}

// Stop cancels a pending start or cuts active playback. The done callback
// still fires exactly once.
func (h *playHandle) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	timer := h.timer
	player := h.player
	h.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if player != nil {
		player.Pause()
		player.Close()
	}
	h.finish()
}

// watch waits out the buffer's duration plus drain time, then reports
// completion.
func (h *playHandle) watch(duration float64) {
	deadline := time.Now().Add(time.Duration(duration*float64(time.Second)) + 250*time.Millisecond)
	for {
		h.mu.Lock()
		player, stopped := h.player, h.stopped
		h.mu.Unlock()
		if stopped {
			return
		}
		if player != nil && !player.IsPlaying() {
			break
		}
		if time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	player := h.player
	h.mu.Unlock()

	if player != nil {
		player.Close()
	}
	h.finish()
}

func (h *playHandle) finish() {
	h.mu.Lock()
	if h.doneRun {
		h.mu.Unlock()
		return
	}
	h.doneRun = true
	done := h.done
	h.mu.Unlock()
	if done != nil {
		done()
	}
}

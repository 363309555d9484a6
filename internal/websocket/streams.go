package websocket

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/echodiary/echodiary/domain/repositories"
	"github.com/echodiary/echodiary/internal/audio"
	"github.com/echodiary/echodiary/internal/playback"
)

const (
	defaultBlockSize = 4096

	// interruptDebounce collapses a burst of stopped buffers into one
	// interrupted notice to the client.
	interruptDebounce = 200 * time.Millisecond
)

// streamCapture adapts inbound binary socket frames to the capture port.
// Frames are float32 little-endian sample blocks; they are re-chunked to a
// fixed block size before delivery. Frames arriving while no session is
// running are dropped.
type streamCapture struct {
	blockSize int

	mu      sync.Mutex
	onFrame repositories.FrameFunc
	pending []float32
	started bool
}

var _ repositories.AudioCapture = (*streamCapture)(nil)

func newStreamCapture(blockSize int) *streamCapture {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	return &streamCapture{blockSize: blockSize}
}

// Start implements repositories.AudioCapture. There is no device to open;
// delivery simply begins.
func (s *streamCapture) Start(ctx context.Context, onFrame repositories.FrameFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFrame = onFrame
	s.pending = s.pending[:0]
	s.started = true
	return nil
}

// Stop implements repositories.AudioCapture. Idempotent.
func (s *streamCapture) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.onFrame = nil
	s.pending = nil
}

// Deliver decodes one binary frame and emits every completed block.
func (s *streamCapture) Deliver(data []byte) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	for i := 0; i+4 <= len(data); i += 4 {
		bits := binary.LittleEndian.Uint32(data[i : i+4])
		s.pending = append(s.pending, math.Float32frombits(bits))
	}

	var blocks [][]float32
	for len(s.pending) >= s.blockSize {
		block := make([]float32, s.blockSize)
		copy(block, s.pending[:s.blockSize])
		s.pending = s.pending[s.blockSize:]
		blocks = append(blocks, block)
	}
	onFrame := s.onFrame
	s.mu.Unlock()

	for _, block := range blocks {
		onFrame(block)
	}
}

// streamSink adapts the playback sink port to the client socket: buffers go
// out as binary PCM in schedule order, and the peer plays them back to back.
// Interruption is signalled with a control message so the peer flushes its
// queue.
type streamSink struct {
	client *Client
	clock  playback.Clock

	mu            sync.Mutex
	lastInterrupt time.Time
	closed        bool
}

var _ playback.Sink = (*streamSink)(nil)

func newStreamSink(client *Client, clock playback.Clock) *streamSink {
	return &streamSink{client: client, clock: clock}
}

// Play implements playback.Sink. The buffer is sent immediately; the handle
// stays live until the buffer would have finished playing, so an interrupt
// inside that window still reaches the peer.
func (s *streamSink) Play(buf *audio.Buffer, startAt float64, done func()) (playback.Handle, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, context.Canceled
	}
	s.mu.Unlock()

	s.client.trySend(WriteData{
		Type:    gorilla.BinaryMessage,
		Payload: audio.EncodePCM(buf.Samples),
	})

	h := &streamHandle{sink: s, done: done}
	h.timer = time.AfterFunc(s.untilEndOf(startAt, buf.Duration()), h.finish)
	return h, nil
}

// untilEndOf is the wall time left until a buffer scheduled at startAt would
// finish playing on the peer.
func (s *streamSink) untilEndOf(startAt, duration float64) time.Duration {
	d := time.Duration((startAt + duration - s.clock.Now()) * float64(time.Second))
	if d < 0 {
		d = 0
	}
	return d
}

// Close implements playback.Sink.
func (s *streamSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// notifyInterrupt tells the peer to flush queued audio, debounced because an
// interrupt stops every active handle at once.
func (s *streamSink) notifyInterrupt() {
	s.mu.Lock()
	if time.Since(s.lastInterrupt) < interruptDebounce {
		s.mu.Unlock()
		return
	}
	s.lastInterrupt = time.Now()
	s.mu.Unlock()

	s.client.sendJSON(NewInterruptedMessage())
}

type streamHandle struct {
	sink  *streamSink
	timer *time.Timer

	mu      sync.Mutex
	stopped bool
	doneRun bool
	done    func()
}

// Stop implements playback.Handle.
func (h *streamHandle) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	h.timer.Stop()
	h.sink.notifyInterrupt()
	h.finish()
}

func (h *streamHandle) finish() {
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

// Package mic captures microphone audio through miniaudio (malgo) and hands
// it to the session as fixed-size float32 blocks.
package mic

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/echodiary/echodiary/domain/entities"
	"github.com/echodiary/echodiary/domain/repositories"
)

const (
	// DefaultSampleRate is the capture rate the live model expects.
	DefaultSampleRate = 16000
	// DefaultBlockSize is the number of samples per emitted block.
	DefaultBlockSize = 4096

	captureChannels = 1
	periodMillis    = 20
)

// Config configures a capture device.
type Config struct {
	SampleRate int
	BlockSize  int
}

// Capture is a malgo-backed repositories.AudioCapture. The driver delivers
// audio in driver-sized periods; Capture re-chunks them into fixed blocks so
// downstream framing is deterministic.
type Capture struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	audioCtx *malgo.AllocatedContext
	device   *malgo.Device
	pending  []float32
	started  bool
}

var _ repositories.AudioCapture = (*Capture)(nil)

// NewCapture creates an idle capture device. Zero config fields take the
// defaults.
func NewCapture(cfg Config, logger *zap.Logger) *Capture {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	return &Capture{cfg: cfg, logger: logger}
}

// Start opens the default capture device and begins delivering blocks to
// onFrame. Audio produced before the device is fully open is never delivered.
func (c *Capture) Start(ctx context.Context, onFrame repositories.FrameFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("%w: capture already started", entities.ErrDevice)
	}

	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime

	audioCtx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return fmt.Errorf("%w: init audio context: %v", entities.ErrDevice, err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = captureChannels
	deviceConfig.SampleRate = uint32(c.cfg.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = periodMillis

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			c.onData(input, onFrame)
		},
	}

	device, err := malgo.InitDevice(audioCtx.Context, deviceConfig, callbacks)
	if err != nil {
		audioCtx.Uninit()
		audioCtx.Free()
		return fmt.Errorf("%w: init capture device: %v", entities.ErrDevice, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		audioCtx.Uninit()
		audioCtx.Free()
		return fmt.Errorf("%w: start capture device: %v", entities.ErrDevice, err)
	}

	c.audioCtx = audioCtx
	c.device = device
	c.pending = c.pending[:0]
	c.started = true

	c.logger.Info("Microphone capture started",
		zap.Int("sample_rate", c.cfg.SampleRate),
		zap.Int("block_size", c.cfg.BlockSize))

	return nil
}

// onData runs on the driver's audio thread. It decodes the period into
// float32 samples and emits every completed block.
func (c *Capture) onData(input []byte, onFrame repositories.FrameFunc) {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	for i := 0; i+4 <= len(input); i += 4 {
		bits := binary.LittleEndian.Uint32(input[i : i+4])
		c.pending = append(c.pending, math.Float32frombits(bits))
	}

	var blocks [][]float32
	for len(c.pending) >= c.cfg.BlockSize {
		block := make([]float32, c.cfg.BlockSize)
		copy(block, c.pending[:c.cfg.BlockSize])
		c.pending = c.pending[c.cfg.BlockSize:]
		blocks = append(blocks, block)
	}
	c.mu.Unlock()

	for _, block := range blocks {
		onFrame(block)
	}
}

// Stop halts capture and releases the device. Safe to call multiple times
// and before Start.
func (c *Capture) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	device := c.device
	audioCtx := c.audioCtx
	c.device = nil
	c.audioCtx = nil
	c.pending = nil
	// Release before stopping the device: the driver waits for in-flight
	// data callbacks, and those take the same lock.
	c.mu.Unlock()

	if device != nil {
		device.Stop()
		device.Uninit()
	}
	if audioCtx != nil {
		audioCtx.Uninit()
		audioCtx.Free()
	}

	c.logger.Info("Microphone capture stopped")
}

package repositories

import "context"

// FrameFunc receives one captured block of mono float32 samples in [-1, 1].
type FrameFunc func(samples []float32)

// AudioCapture abstracts a microphone-like input source producing fixed-size
// sample blocks at a fixed rate.
type AudioCapture interface {
	// Start acquires the input source and begins delivering blocks to
	// onFrame. Blocks are delivered one at a time from a single goroutine.
	Start(ctx context.Context, onFrame FrameFunc) error
	// Stop releases the source. Idempotent; safe when never started.
	Stop()
}

package entities

import "errors"

// Error categories used across the session engine. Adapters wrap these with
// context via fmt.Errorf("...: %w", ...) so callers can branch with errors.Is.
var (
	// ErrConfig indicates a missing or invalid credential or configuration
	// value. Fatal to session start, never retried.
	ErrConfig = errors.New("configuration error")

	// ErrDevice indicates the audio input device could not be acquired or
	// failed mid-capture.
	ErrDevice = errors.New("audio device error")

	// ErrCodec indicates a malformed audio payload. Non-fatal: the chunk is
	// dropped and the session continues.
	ErrCodec = errors.New("audio codec error")

	// ErrTransport indicates a network or protocol failure on the live
	// session. The session is closed; the caller may start a new one.
	ErrTransport = errors.New("transport error")
)

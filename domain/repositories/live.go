package repositories

import (
	"context"

	"github.com/echodiary/echodiary/domain/entities"
)

// AudioFrame is one outbound block of microphone audio in wire form: base64
// PCM plus its MIME type, e.g. "audio/pcm;rate=16000".
type AudioFrame struct {
	Data     string
	MIMEType string
}

// LiveConfig configures a duplex session with the conversational model.
type LiveConfig struct {
	// SystemInstruction is the persona- and history-derived instruction text.
	SystemInstruction string
	// Voice is the prebuilt voice identifier for synthesized replies.
	Voice string
	// InputSampleRate is the fixed capture rate for outbound audio frames.
	InputSampleRate int
}

// LiveEvent is one inbound event from the live session. Implementations
// deliver events on a single channel in arrival order; consumers must drain
// them one at a time because transcript assembly is order dependent.
type LiveEvent interface {
	liveEvent()
}

// AudioChunkEvent carries one block of synthesized agent speech.
type AudioChunkEvent struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// InterruptedEvent signals the model detected the user speaking over the
// agent; scheduled playback must be cut immediately.
type InterruptedEvent struct{}

// TranscriptDeltaEvent carries an incremental piece of recognized or
// generated text for one speaker's open turn.
type TranscriptDeltaEvent struct {
	Speaker entities.Speaker
	Text    string
}

// TurnCompleteEvent signals the current turn finished; open turn buffers are
// flushed to the durable transcript log.
type TurnCompleteEvent struct{}

// ErrorEvent carries a transport-level failure. The session is closed
// afterwards; no automatic reconnect is attempted.
type ErrorEvent struct {
	Err error
}

// ClosedEvent is the final event on the channel; the channel is closed after
// it is delivered.
type ClosedEvent struct{}

func (AudioChunkEvent) liveEvent()      {}
func (InterruptedEvent) liveEvent()     {}
func (TranscriptDeltaEvent) liveEvent() {}
func (TurnCompleteEvent) liveEvent()    {}
func (ErrorEvent) liveEvent()           {}
func (ClosedEvent) liveEvent()          {}

// LiveSession is an open duplex connection to the conversational model.
type LiveSession interface {
	// SendAudio streams one captured frame. Best effort: frames are sent in
	// capture order but delivery is not acknowledged.
	SendAudio(frame AudioFrame) error
	// Events returns the ordered inbound event stream.
	Events() <-chan LiveEvent
	// Close tears the session down. Idempotent.
	Close() error
}

// LiveTransport opens duplex sessions with the remote speech model.
type LiveTransport interface {
	Connect(ctx context.Context, cfg LiveConfig) (LiveSession, error)
}

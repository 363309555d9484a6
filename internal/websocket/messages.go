package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/echodiary/echodiary/domain/entities"
)

// MessageType defines the type of a text WebSocket message. Binary messages
// carry audio and need no envelope: inbound frames are float32 LE capture
// blocks, outbound frames are 16-bit LE PCM agent speech.
type MessageType string

// Supported message types
const (
	// Client to server
	MessageTypeSessionStart MessageType = "session_start"
	MessageTypeSessionStop  MessageType = "session_stop"

	// Server to client
	MessageTypeTranscript   MessageType = "transcript"
	MessageTypeInterrupted  MessageType = "interrupted"
	MessageTypeGreeting     MessageType = "greeting"
	MessageTypeSessionEnded MessageType = "session_ended"
	MessageTypeError        MessageType = "error"
)

// BaseMessage defines the common structure for all text messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// SessionStartMessage asks the gateway to open a live journaling session
type SessionStartMessage struct {
	BaseMessage
	Persona string `json:"persona"`
	// SampleRate is the rate of the client's binary capture frames.
	SampleRate int `json:"sample_rate,omitempty"`
}

// SessionStopMessage asks the gateway to end the running session
type SessionStopMessage struct {
	BaseMessage
}

// TranscriptMessage pushes the current live transcript lines
type TranscriptMessage struct {
	BaseMessage
	Lines []TranscriptLine `json:"lines"`
}

// TranscriptLine is one rendered line of the live transcript
type TranscriptLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// InterruptedMessage tells the client to flush any queued agent audio
type InterruptedMessage struct {
	BaseMessage
}

// GreetingMessage announces that the next binary frame is greeting audio
type GreetingMessage struct {
	BaseMessage
	SampleRate int `json:"sample_rate"`
}

// SessionEndedMessage closes the loop on a stopped session. Entry is nil when
// the transcript was empty and nothing was recorded.
type SessionEndedMessage struct {
	BaseMessage
	Entry *entities.JournalEntry `json:"entry,omitempty"`
}

// ErrorMessage reports a gateway-side failure
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// MessageValidator provides validation for inbound text messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an inbound message and returns its typed form
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeSessionStart:
		var msg SessionStartMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid session_start message: %w", err)
		}
		if err := v.validateSessionStart(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypeSessionStop:
		var msg SessionStopMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid session_stop message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

func (v *MessageValidator) validateSessionStart(msg *SessionStartMessage) error {
	if msg.Persona == "" {
		return fmt.Errorf("persona is required")
	}
	if !entities.Persona(msg.Persona).Valid() {
		return fmt.Errorf("persona must be one of: %v", entities.Personas())
	}
	if msg.SampleRate != 0 && (msg.SampleRate < 8000 || msg.SampleRate > 48000) {
		return fmt.Errorf("sample_rate must be between 8000 and 48000")
	}
	return nil
}

// NewErrorMessage creates a standardized error message
func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Code:    code,
		Message: message,
	}
}

// NewTranscriptMessage renders the current transcript lines for the client
func NewTranscriptMessage(lines []entities.TranscriptLine) *TranscriptMessage {
	out := make([]TranscriptLine, len(lines))
	for i, line := range lines {
		out[i] = TranscriptLine{Speaker: line.Speaker.Label(), Text: line.Text}
	}
	return &TranscriptMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeTranscript,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Lines: out,
	}
}

// NewInterruptedMessage creates an interruption notice
func NewInterruptedMessage() *InterruptedMessage {
	return &InterruptedMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeInterrupted,
			Timestamp: time.Now().Format(time.RFC3339),
		},
	}
}

// NewGreetingMessage announces greeting audio at the given sample rate
func NewGreetingMessage(sampleRate int) *GreetingMessage {
	return &GreetingMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeGreeting,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		SampleRate: sampleRate,
	}
}

// NewSessionEndedMessage closes a session, with the recorded entry if any
func NewSessionEndedMessage(entry *entities.JournalEntry) *SessionEndedMessage {
	return &SessionEndedMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeSessionEnded,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Entry: entry,
	}
}

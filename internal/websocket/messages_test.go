package websocket

import (
	"encoding/json"
	"testing"

	"github.com/echodiary/echodiary/domain/entities"
)

func TestMessageValidator_ValidateSessionStart(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{
			name: "valid session start",
			message: `{
				"type": "session_start",
				"persona": "warm_healer",
				"sample_rate": 16000
			}`,
			wantErr: false,
		},
		{
			name: "valid without sample rate",
			message: `{
				"type": "session_start",
				"persona": "cute_character"
			}`,
			wantErr: false,
		},
		{
			name: "missing persona",
			message: `{
				"type": "session_start"
			}`,
			wantErr: true,
		},
		{
			name: "unknown persona",
			message: `{
				"type": "session_start",
				"persona": "grumpy_cat"
			}`,
			wantErr: true,
		},
		{
			name: "sample rate out of range",
			message: `{
				"type": "session_start",
				"persona": "warm_healer",
				"sample_rate": 96000
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := validator.ValidateMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil {
				if _, ok := msg.(*SessionStartMessage); !ok {
					t.Errorf("ValidateMessage() returned %T, want *SessionStartMessage", msg)
				}
			}
		})
	}
}

func TestMessageValidator_ValidateSessionStop(t *testing.T) {
	validator := NewMessageValidator()

	msg, err := validator.ValidateMessage([]byte(`{"type": "session_stop"}`))
	if err != nil {
		t.Fatalf("ValidateMessage() error = %v", err)
	}
	if _, ok := msg.(*SessionStopMessage); !ok {
		t.Errorf("ValidateMessage() returned %T, want *SessionStopMessage", msg)
	}
}

func TestMessageValidator_RejectsUnknownAndMalformed(t *testing.T) {
	validator := NewMessageValidator()

	if _, err := validator.ValidateMessage([]byte(`{"type": "reboot"}`)); err == nil {
		t.Error("ValidateMessage() accepted unknown message type")
	}
	if _, err := validator.ValidateMessage([]byte(`not json`)); err == nil {
		t.Error("ValidateMessage() accepted malformed JSON")
	}
}

func TestNewTranscriptMessage(t *testing.T) {
	msg := NewTranscriptMessage([]entities.TranscriptLine{
		{Speaker: entities.SpeakerUser, Text: "今天很累"},
		{Speaker: entities.SpeakerAgent, Text: "辛苦了"},
	})

	if msg.Type != MessageTypeTranscript {
		t.Errorf("Type = %q", msg.Type)
	}
	if len(msg.Lines) != 2 {
		t.Fatalf("Lines has %d items, want 2", len(msg.Lines))
	}
	if msg.Lines[0].Speaker != "使用者" || msg.Lines[1].Speaker != "AI" {
		t.Errorf("speaker labels = %q, %q", msg.Lines[0].Speaker, msg.Lines[1].Speaker)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var round TranscriptMessage
	if err := json.Unmarshal(payload, &round); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if round.Lines[1].Text != "辛苦了" {
		t.Errorf("round-tripped text = %q", round.Lines[1].Text)
	}
}

func TestNewSessionEndedMessageOmitsNilEntry(t *testing.T) {
	payload, err := json.Marshal(NewSessionEndedMessage(nil))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, present := raw["entry"]; present {
		t.Error("nil entry must be omitted from the payload")
	}
}

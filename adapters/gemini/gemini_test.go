package gemini

import (
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/echodiary/echodiary/domain/entities"
)

func TestIsClosedErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"wrapped eof", fmt.Errorf("receive: %w", io.EOF), true},
		{"net closed", fmt.Errorf("read: %w", net.ErrClosed), true},
		{"normal closure", &websocket.CloseError{Code: websocket.CloseNormalClosure}, true},
		{"going away", &websocket.CloseError{Code: websocket.CloseGoingAway}, true},
		{"abnormal closure", &websocket.CloseError{Code: websocket.CloseAbnormalClosure}, false},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"genuine error mentioning close", errors.New("connection closed by policy violation"), false},
		{"genuine error", errors.New("deadline exceeded"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isClosedErr(tt.err); got != tt.want {
				t.Errorf("isClosedErr(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRateFromMIMEType(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		want     int
	}{
		{"explicit rate", "audio/pcm;rate=24000", 24000},
		{"rate with spaces", "audio/pcm; rate=48000", 48000},
		{"no rate parameter", "audio/pcm", 24000},
		{"empty", "", 24000},
		{"malformed rate", "audio/pcm;rate=abc", 24000},
		{"zero rate", "audio/pcm;rate=0", 24000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rateFromMIMEType(tt.mimeType); got != tt.want {
				t.Errorf("rateFromMIMEType(%q) = %d, want %d", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestStripWrappingQuotes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "你好！今天想聊些什麼？", "你好！今天想聊些什麼？"},
		{"double quotes", `"你好！"`, "你好！"},
		{"cjk corner brackets", "「你好！」", "你好！"},
		{"cjk white corner brackets", "『你好！』", "你好！"},
		{"curly quotes", "“你好！”", "你好！"},
		{"leading whitespace", "  「你好」  ", "你好"},
		{"unmatched quote kept", `"你好`, `"你好`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripWrappingQuotes(tt.in); got != tt.want {
				t.Errorf("stripWrappingQuotes(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseJournalDraft(t *testing.T) {
	raw := `{"title":"忙碌的一天","summary":"今天工作很多。","mood":"Stressed","events":["開會"],"tags":["工作"]}`
	draft, err := parseJournalDraft(raw)
	if err != nil {
		t.Fatalf("parseJournalDraft() error = %v", err)
	}
	if draft.Title != "忙碌的一天" {
		t.Errorf("Title = %q", draft.Title)
	}
	if draft.Mood != entities.MoodStressed {
		t.Errorf("Mood = %q, want Stressed", draft.Mood)
	}
	if len(draft.Events) != 1 || draft.Events[0] != "開會" {
		t.Errorf("Events = %v", draft.Events)
	}
}

func TestParseJournalDraftErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "not json at all"},
		{"missing title", `{"summary":"x","mood":"Neutral"}`},
		{"missing summary", `{"title":"x","mood":"Neutral"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseJournalDraft(tt.raw)
			if err == nil {
				t.Fatal("parseJournalDraft() expected error")
			}
			if !errors.Is(err, entities.ErrCodec) {
				t.Errorf("error = %v, want ErrCodec", err)
			}
		})
	}
}

func TestJournalDraftSchemaMoodEnum(t *testing.T) {
	schema := journalDraftSchema()
	mood, ok := schema.Properties["mood"]
	if !ok {
		t.Fatal("schema missing mood property")
	}
	if len(mood.Enum) != len(entities.Moods()) {
		t.Fatalf("mood enum has %d values, want %d", len(mood.Enum), len(entities.Moods()))
	}
	for i, m := range entities.Moods() {
		if mood.Enum[i] != string(m) {
			t.Errorf("mood enum[%d] = %q, want %q", i, mood.Enum[i], m)
		}
	}
}

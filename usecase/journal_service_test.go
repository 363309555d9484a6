package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/echodiary/echodiary/domain/entities"
)

type fakeSummarizer struct {
	draft       *entities.JournalDraft
	err         error
	lastHistory []entities.JournalEntry
	calls       int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, transcript string, persona entities.Persona, history []entities.JournalEntry) (*entities.JournalDraft, error) {
	f.calls++
	f.lastHistory = history
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

func TestRecordSkipsEmptyTranscript(t *testing.T) {
	summarizer := &fakeSummarizer{}
	svc := NewJournalService(summarizer, zap.NewNop())

	entry, err := svc.Record(context.Background(), "   \n  ", entities.PersonaWarmHealer)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if entry != nil {
		t.Errorf("Record() = %+v, want nil for empty transcript", entry)
	}
	if summarizer.calls != 0 {
		t.Error("summarizer must not be called for an empty transcript")
	}
}

func TestRecordBuildsEntryAndPrepends(t *testing.T) {
	summarizer := &fakeSummarizer{draft: &entities.JournalDraft{
		Title:   "第一天",
		Summary: "今天很平靜。",
		Mood:    entities.MoodContent,
		Events:  []string{"散步"},
		Tags:    []string{"日常"},
	}}
	svc := NewJournalService(summarizer, zap.NewNop())

	first, err := svc.Record(context.Background(), "使用者: 今天散步了\n", entities.PersonaWarmHealer)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if first.ID == "" {
		t.Error("entry is missing an ID")
	}
	if first.Title != "第一天" || first.Mood != entities.MoodContent {
		t.Errorf("entry = %+v", first)
	}
	if first.Transcription != "使用者: 今天散步了\n" {
		t.Errorf("Transcription = %q", first.Transcription)
	}
	if len(summarizer.lastHistory) != 0 {
		t.Errorf("first Record saw %d history entries, want 0", len(summarizer.lastHistory))
	}

	summarizer.draft = &entities.JournalDraft{Title: "第二天", Summary: "x", Mood: entities.MoodJoyful}
	second, err := svc.Record(context.Background(), "使用者: 又散步了\n", entities.PersonaWarmHealer)
	if err != nil {
		t.Fatalf("second Record() error = %v", err)
	}
	if len(summarizer.lastHistory) != 1 || summarizer.lastHistory[0].ID != first.ID {
		t.Error("second Record must see the first entry as history")
	}

	entries := svc.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries() has %d items, want 2", len(entries))
	}
	if entries[0].ID != second.ID {
		t.Error("newest entry must come first")
	}
}

func TestRecordPropagatesSummarizerError(t *testing.T) {
	wantErr := errors.New("model unavailable")
	svc := NewJournalService(&fakeSummarizer{err: wantErr}, zap.NewNop())

	_, err := svc.Record(context.Background(), "使用者: 你好\n", entities.PersonaCuteCharacter)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Record() error = %v, want %v", err, wantErr)
	}
	if len(svc.Entries()) != 0 {
		t.Error("failed Record must not add history")
	}
}

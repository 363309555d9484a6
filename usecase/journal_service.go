package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/echodiary/echodiary/domain/entities"
	"github.com/echodiary/echodiary/domain/repositories"
)

// JournalService keeps the in-memory journal history (newest first) and turns
// finished transcripts into entries. History lives only for the process
// lifetime; nothing is persisted.
type JournalService struct {
	summarizer repositories.Summarizer
	logger     *zap.Logger

	mu      sync.Mutex
	entries []entities.JournalEntry
}

// NewJournalService creates an empty journal.
func NewJournalService(summarizer repositories.Summarizer, logger *zap.Logger) *JournalService {
	return &JournalService{summarizer: summarizer, logger: logger}
}

// Record summarizes a finished session transcript into a journal entry and
// prepends it to history. A blank transcript records nothing and returns nil.
func (s *JournalService) Record(ctx context.Context, transcript string, persona entities.Persona) (*entities.JournalEntry, error) {
	if strings.TrimSpace(transcript) == "" {
		s.logger.Info("Skipping journal entry, transcript is empty")
		return nil, nil
	}

	draft, err := s.summarizer.Summarize(ctx, transcript, persona, s.Entries())
	if err != nil {
		return nil, err
	}

	entry := entities.JournalEntry{
		ID:            uuid.NewString(),
		Date:          time.Now(),
		Title:         draft.Title,
		Summary:       draft.Summary,
		Mood:          draft.Mood,
		Events:        draft.Events,
		Tags:          draft.Tags,
		Transcription: transcript,
	}

	s.mu.Lock()
	s.entries = append([]entities.JournalEntry{entry}, s.entries...)
	s.mu.Unlock()

	s.logger.Info("Journal entry recorded",
		zap.String("id", entry.ID),
		zap.String("title", entry.Title),
		zap.String("mood", string(entry.Mood)))

	return &entry, nil
}

// Entries returns the full history, newest first.
func (s *JournalService) Entries() []entities.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.JournalEntry(nil), s.entries...)
}

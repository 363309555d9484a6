package repositories

import (
	"context"

	"github.com/echodiary/echodiary/domain/entities"
)

// Summarizer condenses a finished session transcript into a structured
// journal draft.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, persona entities.Persona, history []entities.JournalEntry) (*entities.JournalDraft, error)
}

// Greeter produces the spoken opening line played before a live session
// opens. The returned payload is base64 PCM, decoded through the same codec
// path as inbound session audio.
type Greeter interface {
	GreetingAudio(ctx context.Context, persona entities.Persona, history []entities.JournalEntry) (payload string, sampleRate int, err error)
}

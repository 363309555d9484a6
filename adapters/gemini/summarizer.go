package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/echodiary/echodiary/domain/entities"
	"github.com/echodiary/echodiary/domain/repositories"
)

var _ repositories.Summarizer = (*Client)(nil)

// journalDraftSchema constrains the summarizer output to the journal draft
// shape, with mood limited to the closed mood set.
func journalDraftSchema() *genai.Schema {
	moods := entities.Moods()
	moodValues := make([]string, len(moods))
	for i, m := range moods {
		moodValues[i] = string(m)
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {
				Type:        genai.TypeString,
				Description: "日記的簡短標題",
			},
			"summary": {
				Type:        genai.TypeString,
				Description: "對話的第一人稱摘要",
			},
			"mood": {
				Type: genai.TypeString,
				Enum: moodValues,
			},
			"events": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"tags": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"title", "summary", "mood", "events", "tags"},
	}
}

// Summarize turns a finished session transcript into a structured journal
// draft. Out-of-set moods from the model are coerced to Neutral.
func (c *Client) Summarize(ctx context.Context, transcript string, persona entities.Persona, history []entities.JournalEntry) (*entities.JournalDraft, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("%w: empty transcript", entities.ErrConfig)
	}

	prompt := fmt.Sprintf("這是本次語音日記的逐字稿：\n\n%s\n\n請根據逐字稿產生日記條目。", transcript)

	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(entities.SummaryInstruction(persona, history), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    journalDraftSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: summarize transcript: %v", entities.ErrTransport, err)
	}

	draft, err := parseJournalDraft(resp.Text())
	if err != nil {
		return nil, err
	}
	if !draft.Mood.Valid() {
		c.logger.Warn("Summarizer returned unknown mood, coercing to Neutral",
			zap.String("mood", string(draft.Mood)))
		draft.Mood = entities.MoodNeutral
	}

	c.logger.Info("Transcript summarized",
		zap.String("title", draft.Title),
		zap.String("mood", string(draft.Mood)))

	return draft, nil
}

func parseJournalDraft(raw string) (*entities.JournalDraft, error) {
	var draft entities.JournalDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("%w: malformed summary payload: %v", entities.ErrCodec, err)
	}
	if draft.Title == "" || draft.Summary == "" {
		return nil, fmt.Errorf("%w: summary payload missing title or summary", entities.ErrCodec)
	}
	return &draft, nil
}

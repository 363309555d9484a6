package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/echodiary/echodiary/domain/entities"
	"github.com/echodiary/echodiary/domain/repositories"
)

var _ repositories.Greeter = (*Client)(nil)

// GreetingAudio produces a spoken one-line greeting for the persona: the text
// model writes the line, then the speech model synthesizes it. The returned
// payload is base64 16-bit PCM at the returned sample rate.
func (c *Client) GreetingAudio(ctx context.Context, persona entities.Persona, history []entities.JournalEntry) (string, int, error) {
	line, err := c.greetingLine(ctx, persona, history)
	if err != nil {
		return "", 0, err
	}

	profile := entities.PersonaProfileFor(persona)
	resp, err := c.client.Models.GenerateContent(ctx, c.speechModel, genai.Text(line), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: profile.GreetingVoice},
			},
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("%w: synthesize greeting: %v", entities.ErrTransport, err)
	}

	data := inlineAudioData(resp)
	if len(data) == 0 {
		return "", 0, fmt.Errorf("%w: greeting synthesis returned no audio", entities.ErrTransport)
	}

	c.logger.Info("Greeting synthesized",
		zap.String("persona", string(persona)),
		zap.Int("bytes", len(data)))

	return base64.StdEncoding.EncodeToString(data), defaultOutputRate, nil
}

func (c *Client) greetingLine(ctx context.Context, persona entities.Persona, history []entities.JournalEntry) (string, error) {
	profile := entities.PersonaProfileFor(persona)
	instruction := fmt.Sprintf("%s\n\n%s", profile.GreetingInstruction,
		entities.ConversationHistoryContext(history))

	resp, err := c.client.Models.GenerateContent(ctx, c.textModel,
		genai.Text("請產生開場問候語。"), &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		})
	if err != nil {
		return "", fmt.Errorf("%w: generate greeting line: %v", entities.ErrTransport, err)
	}

	line := stripWrappingQuotes(resp.Text())
	if line == "" {
		return "", fmt.Errorf("%w: greeting generation returned no text", entities.ErrTransport)
	}
	return line, nil
}

// stripWrappingQuotes removes one layer of wrapping quotation marks, Western
// or CJK, that models sometimes add despite instructions.
func stripWrappingQuotes(s string) string {
	s = strings.TrimSpace(s)
	pairs := [][2]string{
		{`"`, `"`},
		{"'", "'"},
		{"「", "」"},
		{"『", "』"},
		{"“", "”"},
	}
	for _, pair := range pairs {
		if strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) && len(s) > len(pair[0])+len(pair[1]) {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, pair[0]), pair[1]))
		}
	}
	return s
}

func inlineAudioData(resp *genai.GenerateContentResponse) []byte {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

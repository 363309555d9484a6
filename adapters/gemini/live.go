package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/echodiary/echodiary/domain/entities"
	"github.com/echodiary/echodiary/domain/repositories"
	"github.com/echodiary/echodiary/internal/audio"
)

// Ensure the adapter satisfies the transport port.
var _ repositories.LiveTransport = (*Client)(nil)

// Connect opens a duplex live session: audio both ways plus input/output
// transcription streams. Inbound server messages are converted to LiveEvents
// on a single buffered channel in arrival order.
func (c *Client) Connect(ctx context.Context, cfg repositories.LiveConfig) (repositories.LiveSession, error) {
	voice := cfg.Voice
	if voice == "" {
		voice = entities.PersonaProfileFor("").Voice
	}

	connectCfg := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
		SystemInstruction:        genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser),
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}

	raw, err := c.client.Live.Connect(ctx, c.liveModel, connectCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: live connect failed: %v", entities.ErrTransport, err)
	}

	s := &liveSession{
		raw:    raw,
		events: make(chan repositories.LiveEvent, defaultEventCapacity),
		logger: c.logger,
	}
	go s.receive()

	c.logger.Info("Live session opened",
		zap.String("model", c.liveModel),
		zap.String("voice", voice))

	return s, nil
}

type liveSession struct {
	raw    *genai.Session
	events chan repositories.LiveEvent
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *liveSession) SendAudio(frame repositories.AudioFrame) error {
	raw, err := audio.DecodeBase64(frame.Data)
	if err != nil {
		return err
	}
	if err := s.raw.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{Data: raw, MIMEType: frame.MIMEType},
	}); err != nil {
		return fmt.Errorf("%w: send audio frame: %v", entities.ErrTransport, err)
	}
	return nil
}

func (s *liveSession) Events() <-chan repositories.LiveEvent {
	return s.events
}

func (s *liveSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.raw.Close()
	})
	return s.closeErr
}

// receive drains the server stream, translating each message into zero or
// more events. Within one message the order is fixed: audio, interruption,
// input transcription, output transcription, turn completion.
func (s *liveSession) receive() {
	defer close(s.events)

	for {
		msg, err := s.raw.Receive()
		if err != nil {
			if !isClosedErr(err) {
				s.logger.Error("Live session receive failed", zap.Error(err))
				s.events <- repositories.ErrorEvent{
					Err: fmt.Errorf("%w: %v", entities.ErrTransport, err),
				}
			}
			s.events <- repositories.ClosedEvent{}
			return
		}

		content := msg.ServerContent
		if content == nil {
			continue
		}

		if content.ModelTurn != nil {
			for _, part := range content.ModelTurn.Parts {
				if part.InlineData == nil || len(part.InlineData.Data) == 0 {
					continue
				}
				s.events <- repositories.AudioChunkEvent{
					Data:       part.InlineData.Data,
					SampleRate: rateFromMIMEType(part.InlineData.MIMEType),
					Channels:   1,
				}
			}
		}

		if content.Interrupted {
			s.events <- repositories.InterruptedEvent{}
		}

		if content.InputTranscription != nil && content.InputTranscription.Text != "" {
			s.events <- repositories.TranscriptDeltaEvent{
				Speaker: entities.SpeakerUser,
				Text:    content.InputTranscription.Text,
			}
		}

		if content.OutputTranscription != nil && content.OutputTranscription.Text != "" {
			s.events <- repositories.TranscriptDeltaEvent{
				Speaker: entities.SpeakerAgent,
				Text:    content.OutputTranscription.Text,
			}
		}

		if content.TurnComplete {
			s.events <- repositories.TurnCompleteEvent{}
		}
	}
}

// isClosedErr reports whether a receive failure is the expected end of the
// stream rather than a genuine transport fault. Typed checks first; the
// string match is a last resort for errors the SDK rewraps without a cause
// chain.
func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return true
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}

// rateFromMIMEType parses "audio/pcm;rate=24000"; the live API always speaks
// 24 kHz mono, so that is the fallback.
func rateFromMIMEType(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		param = strings.TrimSpace(param)
		if rest, ok := strings.CutPrefix(param, "rate="); ok {
			if rate, err := strconv.Atoi(rest); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return defaultOutputRate
}

// Package gemini adapts the Google Gemini API to the engine's ports: the
// live duplex transport, the transcript summarizer, and the greeting
// synthesizer.
package gemini

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/echodiary/echodiary/domain/entities"
)

const (
	defaultLiveModel     = "gemini-2.5-flash-native-audio-preview-09-2025"
	defaultTextModel     = "gemini-2.5-flash"
	defaultSpeechModel   = "gemini-2.5-flash-preview-tts"
	defaultInputRate     = 16000
	defaultOutputRate    = 24000
	defaultEventCapacity = 64
)

// Config holds Gemini client configuration. APIKey is required; models
// default to the current preview identifiers.
type Config struct {
	APIKey      string
	LiveModel   string
	TextModel   string
	SpeechModel string
}

// NewConfigFromEnv reads configuration from the environment.
func NewConfigFromEnv() Config {
	return Config{
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		LiveModel:   os.Getenv("GEMINI_LIVE_MODEL"),
		TextModel:   os.Getenv("GEMINI_TEXT_MODEL"),
		SpeechModel: os.Getenv("GEMINI_SPEECH_MODEL"),
	}
}

// Client wraps the genai client shared by all Gemini-backed adapters.
type Client struct {
	client      *genai.Client
	logger      *zap.Logger
	liveModel   string
	textModel   string
	speechModel string
}

// NewClient creates a client for the given credential. Fails with ErrConfig
// when the credential is missing.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required", entities.ErrConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	liveModel := cfg.LiveModel
	if liveModel == "" {
		liveModel = defaultLiveModel
	}
	textModel := cfg.TextModel
	if textModel == "" {
		textModel = defaultTextModel
	}
	speechModel := cfg.SpeechModel
	if speechModel == "" {
		speechModel = defaultSpeechModel
	}

	return &Client{
		client:      client,
		logger:      logger,
		liveModel:   liveModel,
		textModel:   textModel,
		speechModel: speechModel,
	}, nil
}

// Package openai implements the chat and speech providers on the OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/narration"
	"github.com/ethanbaker/learnwithai/pkg/transform"
	"github.com/ethanbaker/learnwithai/pkg/utils"
	"github.com/go-audio/audio"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	DefaultChatModel = "gpt-4o-mini"
	DefaultTTSModel  = "gpt-4o-mini-tts"
	DefaultVoice     = "alloy"
)

// Settings are the credential-independent parts of a client
type Settings struct {
	BaseURL    string
	ChatModel  string
	TTSModel   string
	Voice      string
	Timeout    time.Duration
	MaxRetries int
}

// SettingsFromConfig reads OPENAI_* and HTTP_TIMEOUT settings
func SettingsFromConfig(cfg *utils.Config) Settings {
	return Settings{
		BaseURL:    cfg.Get("OPENAI_BASE_URL"),
		ChatModel:  cfg.GetWithDefault("OPENAI_CHAT_MODEL", DefaultChatModel),
		TTSModel:   cfg.GetWithDefault("OPENAI_TTS_MODEL", DefaultTTSModel),
		Voice:      cfg.GetWithDefault("OPENAI_TTS_VOICE", DefaultVoice),
		Timeout:    cfg.GetDurationWithDefault("HTTP_TIMEOUT", 60*time.Second),
		MaxRetries: cfg.GetIntWithDefault("OPENAI_MAX_RETRIES", 2),
	}
}

// Client is an OpenAI client bound to one API key
type Client struct {
	client   openai.Client
	settings Settings
}

// New creates a client for apiKey
func New(apiKey string, settings Settings) *Client {
	if settings.ChatModel == "" {
		settings.ChatModel = DefaultChatModel
	}
	if settings.TTSModel == "" {
		settings.TTSModel = DefaultTTSModel
	}
	if settings.Voice == "" {
		settings.Voice = DefaultVoice
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: settings.Timeout}),
		option.WithMaxRetries(settings.MaxRetries),
	}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}

	return &Client{
		client:   openai.NewClient(opts...),
		settings: settings,
	}
}

// Validate lists models to confirm the key is accepted
func (c *Client) Validate(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx); err != nil {
		return classify("could not validate the API key", err)
	}
	return nil
}

// Complete implements transform.ChatCompleter
func (c *Client) Complete(ctx context.Context, req transform.ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		messages = append(messages, openai.UserMessage(msg))
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.settings.ChatModel),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify("chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Synthesize implements narration.Synthesizer using the speech endpoint
func (c *Client) Synthesize(ctx context.Context, text string) (*audio.IntBuffer, error) {
	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.settings.TTSModel),
		Voice:          openai.AudioSpeechNewParamsVoice(c.settings.Voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	})
	if err != nil {
		return nil, classify("speech generation failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech audio: %w", err)
	}
	return narration.DecodeWAV(data)
}

// classify turns authentication failures into CREDENTIAL errors
func classify(msg string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		return apperrors.NewCredential("the API key was rejected", err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

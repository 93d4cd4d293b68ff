// Package gemini implements the chat provider on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/transform"
	"github.com/ethanbaker/learnwithai/pkg/utils"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// Settings are the credential-independent parts of a client
type Settings struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// SettingsFromConfig reads GEMINI_* and HTTP_TIMEOUT settings
func SettingsFromConfig(cfg *utils.Config) Settings {
	return Settings{
		BaseURL: cfg.Get("GEMINI_BASE_URL"),
		Model:   cfg.GetWithDefault("GEMINI_MODEL", DefaultModel),
		Timeout: cfg.GetDurationWithDefault("HTTP_TIMEOUT", 60*time.Second),
	}
}

// Client is a Gemini client bound to one API key
type Client struct {
	client *genai.Client
	model  string
}

// New creates a client for apiKey
func New(ctx context.Context, apiKey string, settings Settings) (*Client, error) {
	if settings.Model == "" {
		settings.Model = DefaultModel
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: settings.BaseURL,
			Timeout: &settings.Timeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{client: client, model: settings.Model}, nil
}

// Validate fetches the configured model to confirm the key is accepted
func (c *Client) Validate(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.model, nil); err != nil {
		return classify("could not validate the API key", err)
	}
	return nil
}

// Complete implements transform.ChatCompleter
func (c *Client) Complete(ctx context.Context, req transform.ChatRequest) (string, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		contents = append(contents, genai.NewContentFromText(msg, genai.RoleUser))
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", classify("generate content", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}

// classify turns key rejections into CREDENTIAL errors. Gemini reports an
// invalid key as 400 INVALID_ARGUMENT rather than 401.
func classify(msg string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		rejected := apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden ||
			(apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "API key"))
		if rejected {
			return apperrors.NewCredential("the API key was rejected", err)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Package huggingface runs translation, summarization and text-to-speech
// models through the Hugging Face inference API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethanbaker/learnwithai/pkg/utils"
)

const (
	DefaultBaseURL = "https://api-inference.huggingface.co"
	maxBodyBytes   = 64 * 1024 * 1024
)

// Client talks to the inference API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Options configures a Client
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// New creates an inference API client
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// NewFromConfig creates a client from HF_* and HTTP_TIMEOUT settings
func NewFromConfig(cfg *utils.Config) *Client {
	return New(Options{
		BaseURL: cfg.GetWithDefault("HF_BASE_URL", DefaultBaseURL),
		Token:   cfg.Get("HF_API_TOKEN"),
		Timeout: cfg.GetDurationWithDefault("HTTP_TIMEOUT", 120*time.Second),
	})
}

type inferenceRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

type inferenceError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// infer posts one request to a model and returns the raw response body
func (c *Client) infer(ctx context.Context, model string, in inferenceRequest, accept string) ([]byte, error) {
	if in.Options == nil {
		in.Options = map[string]any{"wait_for_model": true}
	}

	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/models/"+model, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request for %s failed: %w", model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read inference response for %s: %w", model, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr inferenceError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("model %s returned %d: %s", model, resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("model %s returned %d", model, resp.StatusCode)
	}
	return body, nil
}

package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps calls to the learning workflow backend
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Minute}, // chunked tasks are slow
	}
}

// ResponseError is returned when the backend answers with a non-2xx status
type ResponseError struct {
	Method  string
	Path    string
	Code    int
	Message string
	Detail  *ActionError
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("[BACKEND]: backend '%s %s' failed: %d: %s", e.Method, e.Path, e.Code, e.Message)
}

// do performs a request and returns the raw response for 2xx statuses
func (c *Client) do(ctx context.Context, method, path string, in any) (*http.Response, error) {
	// Create request body if input is provided
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(b)
	}

	// Create the request
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	// Perform the request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()

		// On error, surface the envelope message when there is one
		b, _ := io.ReadAll(resp.Body)
		respErr := &ResponseError{Method: method, Path: path, Code: resp.StatusCode, Message: string(b)}

		var env ApiResponse[any]
		if json.Unmarshal(b, &env) == nil && env.Message != "" {
			respErr.Message = env.Message
			if env.Error != nil {
				if raw, err := json.Marshal(env.Error); err == nil {
					var detail ActionError
					if json.Unmarshal(raw, &detail) == nil && detail.Code != "" {
						respErr.Detail = &detail
					}
				}
			}
		}
		return nil, respErr
	}

	return resp, nil
}

// doJSON is a helper to perform JSON requests to the backend
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	resp, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// If no output expected, return early
	if out == nil {
		return nil
	}

	// Decode the response body into the output struct
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}

package sdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const workflowBase = "/api/workflow"

func sessionPath(uuid, suffix string) string {
	return fmt.Sprintf("%s/sessions/%s%s", workflowBase, uuid, suffix)
}

// Create a new empty session
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	var out ApiResponse[Session]
	if err := c.doJSON(ctx, http.MethodPost, workflowBase+"/sessions", nil, &out); err != nil {
		return nil, err
	}

	if out.Data.ID == "" {
		return nil, fmt.Errorf("no id returned")
	}

	return &out.Data, nil
}

// Get a session by UUID
func (c *Client) GetSession(ctx context.Context, uuid string) (*Session, error) {
	var out ApiResponse[Session]
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(uuid, ""), nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// Delete an existing session by UUID
func (c *Client) DeleteSession(ctx context.Context, uuid string) error {
	return c.doJSON(ctx, http.MethodDelete, sessionPath(uuid, ""), nil, nil)
}

// ResetSession clears every field of a session
func (c *Client) ResetSession(ctx context.Context, uuid string) (*ActionResponse, error) {
	return c.action(ctx, sessionPath(uuid, "/reset"), nil)
}

// LoadTranscriptOptions lists the caption languages of a YouTube video
func (c *Client) LoadTranscriptOptions(ctx context.Context, uuid, url string) (*ActionResponse, error) {
	return c.action(ctx, sessionPath(uuid, "/transcript/options"), &LoadTranscriptOptionsRequest{URL: url})
}

// FetchTranscript retrieves the transcript in one of the listed languages
func (c *Client) FetchTranscript(ctx context.Context, uuid, language string) (*ActionResponse, error) {
	return c.action(ctx, sessionPath(uuid, "/transcript/fetch"), &FetchTranscriptRequest{Language: language})
}

// SubmitManualTranscript provides the transcript text after automatic retrieval failed
func (c *Client) SubmitManualTranscript(ctx context.Context, uuid, text string) (*ActionResponse, error) {
	return c.action(ctx, sessionPath(uuid, "/transcript/manual"), &ManualTranscriptRequest{Text: text})
}

// SetCredential validates and stores the chat provider API key
func (c *Client) SetCredential(ctx context.Context, uuid, apiKey string) (*ActionResponse, error) {
	return c.action(ctx, sessionPath(uuid, "/credential"), &CredentialRequest{ApiKey: apiKey})
}

// RunPrimaryTask applies a task to the transcript
func (c *Client) RunPrimaryTask(ctx context.Context, uuid string, req *TaskRequest) (*ActionResponse, error) {
	return c.action(ctx, sessionPath(uuid, "/tasks/primary"), req)
}

// RunFollowupTask applies a task to the current summary
func (c *Client) RunFollowupTask(ctx context.Context, uuid string, req *TaskRequest) (*ActionResponse, error) {
	return c.action(ctx, sessionPath(uuid, "/tasks/followup"), req)
}

// DownloadSummary returns the current summary as plain text
func (c *Client) DownloadSummary(ctx context.Context, uuid string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, sessionPath(uuid, "/summary.txt"), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ListLanguages returns the translation target languages
func (c *Client) ListLanguages(ctx context.Context) (*LanguagesResponse, error) {
	var out ApiResponse[LanguagesResponse]
	if err := c.doJSON(ctx, http.MethodGet, workflowBase+"/languages", nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

func (c *Client) action(ctx context.Context, path string, in any) (*ActionResponse, error) {
	var out ApiResponse[ActionResponse]
	if err := c.doJSON(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}

	// Check for success
	switch out.Status {
	case StatusFail:
		return nil, fmt.Errorf("request failed: %s", out.Message)
	case StatusError:
		return nil, fmt.Errorf("request error (%s): %v", out.Message, out.Error)
	}

	return &out.Data, nil
}

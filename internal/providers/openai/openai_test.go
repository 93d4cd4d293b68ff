package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/narration"
	"github.com/ethanbaker/learnwithai/pkg/transform"
	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatResponse = `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  A short summary. "}}]}`

const unauthorized = `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`

func newFakeOpenAI(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New("sk-test", Settings{BaseURL: srv.URL + "/v1/", MaxRetries: 0})
}

func TestCompleteSendsPrompt(t *testing.T) {
	var body map[string]any
	var auth string
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatResponse))
	})

	temp := 0.5
	out, err := client.Complete(context.Background(), transform.ChatRequest{
		System:      "You are a helpful assistant.",
		Messages:    []string{"chunk\n\nCreate a short concise summary."},
		MaxTokens:   250,
		Temperature: &temp,
	})

	require.NoError(t, err)
	assert.Equal(t, "A short summary.", out)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Equal(t, float64(250), body["max_tokens"])
	assert.Equal(t, 0.5, body["temperature"])

	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestCompleteOmitsUnsetBounds(t *testing.T) {
	var body map[string]any
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatResponse))
	})

	_, err := client.Complete(context.Background(), transform.ChatRequest{
		System:   "You are a technical instructor.",
		Messages: []string{"text", "Generate steps to follow from the text."},
	})

	require.NoError(t, err)
	assert.NotContains(t, body, "max_tokens")
	assert.NotContains(t, body, "temperature")
	assert.Len(t, body["messages"], 3)
}

func TestRejectedKeyIsCredentialError(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(unauthorized))
	})

	err := client.Validate(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrCredential))

	_, err = client.Complete(context.Background(), transform.ChatRequest{Messages: []string{"x"}})
	assert.True(t, apperrors.Is(err, apperrors.ErrCredential))
}

func TestServerErrorIsNotCredentialError(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	_, err := client.Complete(context.Background(), transform.ChatRequest{Messages: []string{"x"}})
	require.Error(t, err)
	assert.False(t, apperrors.Is(err, apperrors.ErrCredential))
}

func TestValidateListsModels(t *testing.T) {
	var path string
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o-mini","object":"model","created":1,"owned_by":"openai"}]}`))
	})

	require.NoError(t, client.Validate(context.Background()))
	assert.True(t, strings.HasSuffix(path, "/models"))
}

func TestSynthesizeRequestsWAV(t *testing.T) {
	wavData, err := narration.EncodeWAV(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 24000},
		SourceBitDepth: 16,
		Data:           []int{1, 2, 3},
	})
	require.NoError(t, err)

	var body map[string]any
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audio/speech"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(wavData)
	})

	buf, err := client.Synthesize(context.Background(), "read me")

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, buf.Data)
	assert.Equal(t, "gpt-4o-mini-tts", body["model"])
	assert.Equal(t, "alloy", body["voice"])
	assert.Equal(t, "wav", body["response_format"])
	assert.Equal(t, "read me", body["input"])
}

package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethanbaker/learnwithai/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/workflow/sessions/abc/transcript/fetch", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))

		var req FetchTranscriptRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "es", req.Language)

		resp := NewSuccessResponse("Transcript fetched successfully.", ActionResponse{
			Session: Session{ID: "abc", State: workflow.StateTranscriptReady},
			Message: "Transcript fetched successfully.",
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	out, err := client.FetchTranscript(context.Background(), "abc", "es")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateTranscriptReady, out.Session.State)
}

func TestClientErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code, body := NewErrorResponse(http.StatusBadGateway, "Automatic transcript retrieval failed.", ActionError{
			Code:    "RETRIEVAL",
			Session: &Session{ID: "abc", State: workflow.StateTranscriptLoading, Record: workflow.Record{ManualFallbackActive: true}},
		}).AsGinResponse()
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.LoadTranscriptOptions(context.Background(), "abc", "https://www.youtube.com/watch?v=x")
	require.Error(t, err)

	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusBadGateway, respErr.Code)
	assert.Equal(t, "Automatic transcript retrieval failed.", respErr.Message)
	require.NotNil(t, respErr.Detail)
	assert.Equal(t, "RETRIEVAL", respErr.Detail.Code)
	assert.True(t, respErr.Detail.Session.Record.ManualFallbackActive)
}

func TestDownloadSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/workflow/sessions/abc/summary.txt", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("a short summary"))
	}))
	defer srv.Close()

	text, err := NewClient(srv.URL, "").DownloadSummary(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "a short summary", text)
}

func TestNewErrorResponseStatus(t *testing.T) {
	assert.Equal(t, StatusFail, NewErrorResponse(http.StatusNotFound, "missing", nil).Status)
	assert.Equal(t, StatusError, NewErrorResponse(http.StatusInternalServerError, "boom", nil).Status)
}

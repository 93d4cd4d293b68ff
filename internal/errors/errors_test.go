package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("boom")

	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"retrieval", NewRetrieval("no transcript", cause), ErrRetrieval, http.StatusBadGateway},
		{"unsupported pair", NewUnsupportedLanguagePair("es", "fr"), ErrUnsupportedLanguagePair, http.StatusUnprocessableEntity},
		{"chunk", NewChunkProcessing(2, cause), ErrChunkProcessing, http.StatusBadGateway},
		{"empty result", NewEmptyResult("Summarization", 4), ErrEmptyResult, http.StatusUnprocessableEntity},
		{"credential", NewCredential("invalid key", cause), ErrCredential, http.StatusUnauthorized},
		{"invalid input", NewInvalidInput("bad"), ErrInvalidInput, http.StatusBadRequest},
		{"not found", NewNotFound("abc"), ErrNotFound, http.StatusNotFound},
		{"invariant", NewInvariant("no summary"), ErrInvariant, http.StatusConflict},
		{"internal", NewInternal(cause), ErrInternal, http.StatusInternalServerError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.code, test.err.Code)
			assert.Equal(t, test.status, test.err.Status)
			assert.Contains(t, test.err.Error(), string(test.code))
		})
	}
}

func TestChunkProcessingIsOneBased(t *testing.T) {
	err := NewChunkProcessing(0, fmt.Errorf("timeout"))
	assert.Equal(t, "skipping chunk 1 due to error", err.Message)
	assert.Equal(t, 1, err.Details["chunk"])
}

func TestUnsupportedPairDetails(t *testing.T) {
	err := NewUnsupportedLanguagePair("es", "fr")
	assert.Equal(t, "es", err.Details["source"])
	assert.Equal(t, "fr", err.Details["target"])
}

func TestIsThroughWrapping(t *testing.T) {
	base := NewCredential("invalid key", nil)
	wrapped := fmt.Errorf("chat summary: %w", NewChunkProcessing(1, base))

	assert.True(t, Is(wrapped, ErrChunkProcessing))
	assert.True(t, Is(wrapped, ErrCredential))
	assert.False(t, Is(wrapped, ErrRetrieval))
	assert.False(t, Is(fmt.Errorf("plain"), ErrRetrieval))
	assert.False(t, Is(nil, ErrRetrieval))
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: timeout")
	err := NewRetrieval("could not fetch", cause)
	assert.True(t, stderrors.Is(err, cause))
}

func TestStatusAndMessageOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewInvariant("transcript required"))
	assert.Equal(t, http.StatusConflict, StatusOf(err))
	assert.Equal(t, "transcript required", MessageOf(err))

	plain := fmt.Errorf("plain")
	assert.Equal(t, http.StatusInternalServerError, StatusOf(plain))
	assert.Equal(t, "plain", MessageOf(plain))
	assert.Empty(t, MessageOf(nil))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, ErrInvariant, appErr.Code)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("ignored", nil))

	typed := NewCredential("Invalid API key", nil)
	assert.Same(t, typed, Wrap("Error validating API key", typed))

	cause := fmt.Errorf("connection refused")
	err := Wrap("Error validating API key", cause)
	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, ErrInternal, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "Error validating API key: connection refused", appErr.Message)
	assert.True(t, stderrors.Is(err, cause))
}

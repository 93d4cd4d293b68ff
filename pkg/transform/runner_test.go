package transform

import (
	"context"
	"fmt"
	"testing"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper(_ context.Context, _ int, chunk string) (string, error) {
	return "<" + chunk + ">", nil
}

func TestRunAllSucceed(t *testing.T) {
	var calls [][2]int
	out, report, err := Run(context.Background(), "Test", []string{"a", "b", "c"}, upper, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"<a>", "<b>", "<c>"}, out)
	assert.Equal(t, Report{Total: 3, Succeeded: 3}, report)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}

func TestRunSkipsFailedChunks(t *testing.T) {
	fn := func(ctx context.Context, i int, chunk string) (string, error) {
		if i == 1 {
			return "", fmt.Errorf("model timeout")
		}
		return upper(ctx, i, chunk)
	}

	out, report, err := Run(context.Background(), "Test", []string{"a", "b", "c"}, fn, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"<a>", "<c>"}, out)
	assert.Equal(t, 2, report.Succeeded)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "skipping chunk 2")
	assert.Contains(t, report.Warnings[0], "model timeout")
}

func TestRunAllFail(t *testing.T) {
	fn := func(context.Context, int, string) (string, error) {
		return "", fmt.Errorf("down")
	}

	out, report, err := Run(context.Background(), "Summarization", []string{"a", "b"}, fn, nil)

	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, apperrors.Is(err, apperrors.ErrEmptyResult))
	assert.Equal(t, "Summarization failed for all text chunks", apperrors.MessageOf(err))
	assert.Len(t, report.Warnings, 2)
}

func TestRunNoChunks(t *testing.T) {
	_, _, err := Run(context.Background(), "Translation", nil, upper, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrEmptyResult))
}

func TestRunAbortsOnCredential(t *testing.T) {
	calls := 0
	fn := func(context.Context, int, string) (string, error) {
		calls++
		return "", fmt.Errorf("chat: %w", apperrors.NewCredential("invalid key", nil))
	}

	_, _, err := Run(context.Background(), "Quiz generation", []string{"a", "b", "c"}, fn, nil)

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCredential))
	assert.Equal(t, 1, calls)
}

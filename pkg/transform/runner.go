package transform

import (
	"context"
	"log"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
)

// Progress is called after every chunk with the number of chunks handled so far
type Progress func(done, total int)

// Report describes how a chunked run went
type Report struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ChunkFunc processes a single chunk
type ChunkFunc[T any] func(ctx context.Context, index int, chunk string) (T, error)

// Run applies fn to every chunk in order. A failing chunk is skipped and
// recorded as a warning; the run only fails with EMPTY_RESULT when no chunk
// succeeded. A CREDENTIAL error aborts the run at once since every later
// chunk would be rejected the same way.
func Run[T any](ctx context.Context, task string, chunks []string, fn ChunkFunc[T], progress Progress) ([]T, Report, error) {
	report := Report{Total: len(chunks)}
	results := make([]T, 0, len(chunks))

	for i, chunk := range chunks {
		out, err := fn(ctx, i, chunk)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrCredential) {
				return nil, report, err
			}

			chunkErr := apperrors.NewChunkProcessing(i, err)
			log.Printf("[TRANSFORM]: %s: %v", task, chunkErr)
			report.Warnings = append(report.Warnings, chunkErr.Error())
		} else {
			results = append(results, out)
			report.Succeeded++
		}

		if progress != nil {
			progress(i+1, len(chunks))
		}
	}

	if report.Succeeded == 0 {
		return nil, report, apperrors.NewEmptyResult(task, len(chunks))
	}
	return results, report, nil
}

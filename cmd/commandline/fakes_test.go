package main

import (
	"context"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/narration"
	"github.com/ethanbaker/learnwithai/pkg/transcript"
	"github.com/ethanbaker/learnwithai/pkg/transform"
	"github.com/ethanbaker/learnwithai/pkg/workflow"
	"github.com/go-audio/audio"
)

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

type fakeSource struct {
	failList bool
}

func (f *fakeSource) ListLanguages(context.Context, string) ([]transcript.Language, error) {
	if f.failList {
		return nil, apperrors.NewRetrieval("No transcripts available for this video.", nil)
	}
	return []transcript.Language{{Code: "en", Name: "English"}}, nil
}

func (f *fakeSource) Fetch(context.Context, string, string) (string, error) {
	return "hello world", nil
}

type fakeModel struct{}

func (fakeModel) Translate(_ context.Context, text string) (string, error) {
	return "hola " + text, nil
}

func (fakeModel) Summarize(_ context.Context, text string, _ transform.SummaryOptions) (string, error) {
	return "summary of " + text, nil
}

func (fakeModel) Complete(context.Context, transform.ChatRequest) (string, error) {
	return "1. step", nil
}

func (fakeModel) Synthesize(context.Context, string) (*audio.IntBuffer, error) {
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           []int{0, 100, -100, 0},
		SourceBitDepth: 16,
	}, nil
}

// fakePipelines serves every model and accepts the key "sk-good"
type fakePipelines struct{}

func noop() {}

func (fakePipelines) Translator(context.Context, string) (transform.Translator, func(), error) {
	return fakeModel{}, noop, nil
}

func (fakePipelines) Summarizer(context.Context) (transform.Summarizer, func(), error) {
	return fakeModel{}, noop, nil
}

func (fakePipelines) Chat(context.Context, string) (transform.ChatCompleter, func(), error) {
	return fakeModel{}, noop, nil
}

func (fakePipelines) LocalSpeech(context.Context) (narration.Synthesizer, func(), error) {
	return fakeModel{}, noop, nil
}

func (fakePipelines) RemoteSpeech(context.Context, string) (narration.Synthesizer, func(), error) {
	return fakeModel{}, noop, nil
}

func (fakePipelines) ValidateCredential(_ context.Context, key string) error {
	if key != "sk-good" {
		return apperrors.NewCredential("Invalid API key", nil)
	}
	return nil
}

func (fakePipelines) InvalidateCredential(string) {}

func newTestOrchestrator(source *fakeSource) (*workflow.Orchestrator, *transform.Matrix) {
	pipes := fakePipelines{}
	matrix := transform.DefaultMatrix()
	return workflow.NewOrchestrator(workflow.Dependencies{
		Source:      source,
		Transforms:  transform.NewService(matrix, pipes, transform.DefaultOptions()),
		Voices:      pipes,
		Credentials: pipes,
	}), matrix
}

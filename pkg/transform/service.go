// Package transform turns transcript text into derived learning text:
// translations, summaries, step guides and quizzes. Every transform works
// on chunks and is best effort (see Run).
package transform

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/utils"
)

// Translator translates one chunk for a fixed language pair
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// SummaryOptions are the generation bounds passed to the summarization model
type SummaryOptions struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

// Summarizer summarizes one chunk
type Summarizer interface {
	Summarize(ctx context.Context, text string, opts SummaryOptions) (string, error)
}

// ChatRequest is a single chat completion call. Messages are user turns.
type ChatRequest struct {
	System      string
	Messages    []string
	MaxTokens   int
	Temperature *float64
}

// ChatCompleter runs chat completions with a validated credential
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Pipelines hands out shared model handles. The returned release func must
// be called once the caller is done with the handle.
type Pipelines interface {
	Translator(ctx context.Context, model string) (Translator, func(), error)
	Summarizer(ctx context.Context) (Summarizer, func(), error)
	Chat(ctx context.Context, credential string) (ChatCompleter, func(), error)
}

// Options tunes chunk sizes and prompt overrides
type Options struct {
	TranslateChars int
	SummaryWords   int
	ChatChars      int
	Summary        SummaryOptions
	PromptsDir     string
}

// DefaultOptions matches the sizes the models were tuned with
func DefaultOptions() Options {
	return Options{
		TranslateChars: 512,
		SummaryWords:   200,
		ChatChars:      4000,
		Summary:        SummaryOptions{MaxLength: 100, MinLength: 30, DoSample: false},
		PromptsDir:     "prompts",
	}
}

// Output is the joined text of a transform plus its chunk report
type Output struct {
	Text   string `json:"text"`
	Report Report `json:"report"`
}

type chatTask struct {
	name        string
	label       string
	system      string
	instruction string
	inline      bool
	maxTokens   int
	temperature *float64
}

var (
	summaryTemperature = 0.5

	chatSummaryTask = chatTask{
		name:        "summary",
		label:       "Summarization",
		system:      "You are a helpful assistant.",
		instruction: "Create a short concise summary.",
		inline:      true,
		maxTokens:   250,
		temperature: &summaryTemperature,
	}
	stepsTask = chatTask{
		name:        "steps",
		label:       "Step generation",
		system:      "You are a technical instructor.",
		instruction: "Generate steps to follow from the text.",
	}
	quizTask = chatTask{
		name:        "quiz",
		label:       "Quiz generation",
		system:      "You generate quiz questions.",
		instruction: "Generate 10 quiz questions with multiple choices.",
	}
)

// Service implements the text transforms on top of shared pipelines
type Service struct {
	matrix    *Matrix
	pipelines Pipelines
	opts      Options
}

// NewService creates a transform service. Zero option values fall back to DefaultOptions.
func NewService(matrix *Matrix, pipelines Pipelines, opts Options) *Service {
	def := DefaultOptions()
	if opts.TranslateChars <= 0 {
		opts.TranslateChars = def.TranslateChars
	}
	if opts.SummaryWords <= 0 {
		opts.SummaryWords = def.SummaryWords
	}
	if opts.ChatChars <= 0 {
		opts.ChatChars = def.ChatChars
	}
	if opts.Summary.MaxLength <= 0 {
		opts.Summary = def.Summary
	}
	if matrix == nil {
		matrix = DefaultMatrix()
	}

	return &Service{matrix: matrix, pipelines: pipelines, opts: opts}
}

// Matrix returns the supported translation directions
func (s *Service) Matrix() *Matrix {
	return s.matrix
}

// Translate translates text from source to target. Unsupported pairs are
// rejected before any chunking or model loading.
func (s *Service) Translate(ctx context.Context, text, source, target string, progress Progress) (*Output, error) {
	model, ok := s.matrix.Model(source, target)
	if !ok {
		return nil, apperrors.NewUnsupportedLanguagePair(source, target)
	}

	translator, release, err := s.pipelines.Translator(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("failed to load translation pipeline %s: %w", model, err)
	}
	defer release()

	chunks := SplitChars(text, s.opts.TranslateChars)
	return joinRun(ctx, "Translation", chunks, func(ctx context.Context, _ int, chunk string) (string, error) {
		return translator.Translate(ctx, chunk)
	}, progress)
}

// Summarize summarizes text with the local summarization model
func (s *Service) Summarize(ctx context.Context, text string, progress Progress) (*Output, error) {
	summarizer, release, err := s.pipelines.Summarizer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load summarization pipeline: %w", err)
	}
	defer release()

	chunks := SplitWords(text, s.opts.SummaryWords)
	return joinRun(ctx, "Summarization", chunks, func(ctx context.Context, _ int, chunk string) (string, error) {
		return summarizer.Summarize(ctx, chunk, s.opts.Summary)
	}, progress)
}

// ChatSummary summarizes text with the chat provider
func (s *Service) ChatSummary(ctx context.Context, text, credential string, progress Progress) (*Output, error) {
	return s.runChat(ctx, chatSummaryTask, text, credential, progress)
}

// Steps extracts a step guide from text with the chat provider
func (s *Service) Steps(ctx context.Context, text, credential string, progress Progress) (*Output, error) {
	return s.runChat(ctx, stepsTask, text, credential, progress)
}

// Quiz generates multiple choice questions from text with the chat provider
func (s *Service) Quiz(ctx context.Context, text, credential string, progress Progress) (*Output, error) {
	return s.runChat(ctx, quizTask, text, credential, progress)
}

func (s *Service) runChat(ctx context.Context, task chatTask, text, credential string, progress Progress) (*Output, error) {
	if credential == "" {
		return nil, apperrors.NewCredential("no API key has been provided", nil)
	}

	chat, release, err := s.pipelines.Chat(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}
	defer release()

	system := utils.LoadPromptWithFallback(utils.PromptPath(s.opts.PromptsDir, task.name, "system"), task.system)
	instruction := utils.LoadPromptWithFallback(utils.PromptPath(s.opts.PromptsDir, task.name, "user"), task.instruction)

	chunks := SplitChars(text, s.opts.ChatChars)
	return joinRun(ctx, task.label, chunks, func(ctx context.Context, _ int, chunk string) (string, error) {
		req := ChatRequest{
			System:      system,
			MaxTokens:   task.maxTokens,
			Temperature: task.temperature,
		}
		if task.inline {
			req.Messages = []string{chunk + "\n\n" + instruction}
		} else {
			req.Messages = []string{chunk, instruction}
		}
		return chat.Complete(ctx, req)
	}, progress)
}

// joinRun runs fn over chunks and joins the trimmed outputs with single spaces.
// A chunk whose output is blank counts as failed.
func joinRun(ctx context.Context, task string, chunks []string, fn ChunkFunc[string], progress Progress) (*Output, error) {
	parts, report, err := Run(ctx, task, chunks, func(ctx context.Context, i int, chunk string) (string, error) {
		out, err := fn(ctx, i, chunk)
		if err != nil {
			return "", err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return "", fmt.Errorf("model returned no text")
		}
		return out, nil
	}, progress)
	if err != nil {
		return nil, err
	}

	return &Output{Text: strings.Join(parts, " "), Report: report}, nil
}

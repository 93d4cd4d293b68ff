package transform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranslator struct {
	fail map[int]bool
	seen []string
}

func (f *fakeTranslator) Translate(_ context.Context, text string) (string, error) {
	idx := len(f.seen)
	f.seen = append(f.seen, text)
	if f.fail[idx] {
		return "", fmt.Errorf("segment %d exploded", idx)
	}
	return strings.ToUpper(text), nil
}

type fakeSummarizer struct {
	opts  []SummaryOptions
	fails bool
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string, opts SummaryOptions) (string, error) {
	f.opts = append(f.opts, opts)
	if f.fails {
		return "", fmt.Errorf("model unavailable")
	}
	return fmt.Sprintf("sum(%d)", len(strings.Fields(text))), nil
}

type fakeChat struct {
	reqs []ChatRequest
	err  error
}

func (f *fakeChat) Complete(_ context.Context, req ChatRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf(" reply %d ", len(f.reqs)), nil
}

type fakePipelines struct {
	mu         sync.Mutex
	translator *fakeTranslator
	summarizer *fakeSummarizer
	chat       *fakeChat
	models     []string
	creds      []string
	released   int
}

func (p *fakePipelines) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}

func (p *fakePipelines) Translator(_ context.Context, model string) (Translator, func(), error) {
	p.models = append(p.models, model)
	return p.translator, p.release, nil
}

func (p *fakePipelines) Summarizer(context.Context) (Summarizer, func(), error) {
	return p.summarizer, p.release, nil
}

func (p *fakePipelines) Chat(_ context.Context, credential string) (ChatCompleter, func(), error) {
	p.creds = append(p.creds, credential)
	return p.chat, p.release, nil
}

func newTestService(p *fakePipelines, opts Options) *Service {
	return NewService(DefaultMatrix(), p, opts)
}

func TestTranslate(t *testing.T) {
	t.Run("joins chunks with single space", func(t *testing.T) {
		p := &fakePipelines{translator: &fakeTranslator{}}
		svc := newTestService(p, Options{TranslateChars: 4})

		out, err := svc.Translate(context.Background(), "abcdefghij", "en", "es", nil)

		require.NoError(t, err)
		assert.Equal(t, "ABCD EFGH IJ", out.Text)
		assert.Equal(t, []string{"Helsinki-NLP/opus-mt-en-es"}, p.models)
		assert.Equal(t, 1, p.released)
	})

	t.Run("skips failing segment", func(t *testing.T) {
		p := &fakePipelines{translator: &fakeTranslator{fail: map[int]bool{1: true}}}
		svc := newTestService(p, Options{TranslateChars: 2})

		out, err := svc.Translate(context.Background(), "aabbcc", "en", "fr", nil)

		require.NoError(t, err)
		assert.Equal(t, "AA CC", out.Text)
		assert.Len(t, out.Report.Warnings, 1)
	})

	t.Run("unsupported pair fails before chunking", func(t *testing.T) {
		p := &fakePipelines{translator: &fakeTranslator{}}
		svc := newTestService(p, Options{})

		_, err := svc.Translate(context.Background(), "hola", "es", "fr", nil)

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnsupportedLanguagePair))
		assert.Empty(t, p.models)
		assert.Empty(t, p.translator.seen)
	})

	t.Run("all segments fail", func(t *testing.T) {
		p := &fakePipelines{translator: &fakeTranslator{fail: map[int]bool{0: true, 1: true}}}
		svc := newTestService(p, Options{TranslateChars: 2})

		_, err := svc.Translate(context.Background(), "aabb", "de", "en", nil)

		assert.True(t, apperrors.Is(err, apperrors.ErrEmptyResult))
		assert.Equal(t, 1, p.released)
	})
}

func TestTranslateEveryPair(t *testing.T) {
	matrix := DefaultMatrix()
	require.NotEmpty(t, matrix.Pairs)

	for _, pair := range matrix.Pairs {
		t.Run(pair.Source+"->"+pair.Target, func(t *testing.T) {
			p := &fakePipelines{translator: &fakeTranslator{}}
			svc := NewService(matrix, p, DefaultOptions())

			out, err := svc.Translate(context.Background(), "a short sentence to translate", pair.Source, pair.Target, nil)

			require.NoError(t, err)
			assert.NotEmpty(t, out.Text)
			assert.Equal(t, []string{pair.Model}, p.models)
		})
	}
}

func TestTranslateUnsupportedPairs(t *testing.T) {
	unsupported := [][2]string{
		{"es", "fr"},
		{"fr", "de"},
		{"de", "es"},
		{"en", "en"},
		{"en", "ja"},
		{"ja", "en"},
		{"", "es"},
		{"en", ""},
	}

	for _, pair := range unsupported {
		t.Run(pair[0]+"->"+pair[1], func(t *testing.T) {
			p := &fakePipelines{translator: &fakeTranslator{}}
			svc := NewService(DefaultMatrix(), p, DefaultOptions())

			_, err := svc.Translate(context.Background(), "some text", pair[0], pair[1], nil)

			assert.True(t, apperrors.Is(err, apperrors.ErrUnsupportedLanguagePair))
			assert.Empty(t, p.models)
			assert.Zero(t, p.released)
			assert.Empty(t, p.translator.seen)
		})
	}
}

func TestSummarize(t *testing.T) {
	p := &fakePipelines{summarizer: &fakeSummarizer{}}
	svc := newTestService(p, Options{})
	text := strings.TrimSpace(strings.Repeat("word ", 450))

	var progress []int
	out, err := svc.Summarize(context.Background(), text, func(done, total int) {
		progress = append(progress, done)
		assert.Equal(t, 3, total)
	})

	require.NoError(t, err)
	assert.Equal(t, "sum(200) sum(200) sum(50)", out.Text)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Equal(t, SummaryOptions{MaxLength: 100, MinLength: 30, DoSample: false}, p.summarizer.opts[0])
}

func TestSummarizeAllFail(t *testing.T) {
	p := &fakePipelines{summarizer: &fakeSummarizer{fails: true}}
	svc := newTestService(p, Options{})

	_, err := svc.Summarize(context.Background(), "a few words", nil)

	require.Error(t, err)
	assert.Equal(t, "Summarization failed for all text chunks", apperrors.MessageOf(err))
}

func TestChatSummaryPrompt(t *testing.T) {
	chat := &fakeChat{}
	p := &fakePipelines{chat: chat}
	svc := newTestService(p, Options{ChatChars: 5, PromptsDir: t.TempDir()})

	out, err := svc.ChatSummary(context.Background(), "helloworld", "sk-test", nil)

	require.NoError(t, err)
	assert.Equal(t, "reply 1 reply 2", out.Text)
	assert.Equal(t, []string{"sk-test"}, p.creds)

	require.Len(t, chat.reqs, 2)
	req := chat.reqs[0]
	assert.Equal(t, "You are a helpful assistant.", req.System)
	assert.Equal(t, []string{"hello\n\nCreate a short concise summary."}, req.Messages)
	assert.Equal(t, 250, req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.5, *req.Temperature)
}

func TestStepsAndQuizPrompts(t *testing.T) {
	chat := &fakeChat{}
	svc := newTestService(&fakePipelines{chat: chat}, Options{PromptsDir: t.TempDir()})

	_, err := svc.Steps(context.Background(), "install go", "sk", nil)
	require.NoError(t, err)
	_, err = svc.Quiz(context.Background(), "install go", "sk", nil)
	require.NoError(t, err)

	require.Len(t, chat.reqs, 2)
	assert.Equal(t, "You are a technical instructor.", chat.reqs[0].System)
	assert.Equal(t, []string{"install go", "Generate steps to follow from the text."}, chat.reqs[0].Messages)
	assert.Zero(t, chat.reqs[0].MaxTokens)
	assert.Nil(t, chat.reqs[0].Temperature)

	assert.Equal(t, "You generate quiz questions.", chat.reqs[1].System)
	assert.Equal(t, []string{"install go", "Generate 10 quiz questions with multiple choices."}, chat.reqs[1].Messages)
}

func TestChatPromptOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quiz.user.txt"), []byte("Write 3 questions."), 0644))

	chat := &fakeChat{}
	svc := newTestService(&fakePipelines{chat: chat}, Options{PromptsDir: dir})

	_, err := svc.Quiz(context.Background(), "text", "sk", nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"text", "Write 3 questions."}, chat.reqs[0].Messages)
}

func TestChatRequiresCredential(t *testing.T) {
	p := &fakePipelines{chat: &fakeChat{}}
	svc := newTestService(p, Options{})

	_, err := svc.Steps(context.Background(), "text", "", nil)

	assert.True(t, apperrors.Is(err, apperrors.ErrCredential))
	assert.Empty(t, p.creds)
}

func TestChatCredentialRejectedMidRun(t *testing.T) {
	chat := &fakeChat{err: apperrors.NewCredential("invalid key", nil)}
	svc := newTestService(&fakePipelines{chat: chat}, Options{ChatChars: 2, PromptsDir: t.TempDir()})

	_, err := svc.ChatSummary(context.Background(), "aabbcc", "sk-bad", nil)

	assert.True(t, apperrors.Is(err, apperrors.ErrCredential))
	assert.Len(t, chat.reqs, 1)
}

func TestBlankOutputCountsAsFailure(t *testing.T) {
	p := &fakePipelines{translator: &fakeTranslator{}}
	svc := newTestService(p, Options{TranslateChars: 3})

	_, err := svc.Translate(context.Background(), "   ", "en", "es", nil)

	assert.True(t, apperrors.Is(err, apperrors.ErrEmptyResult))
}

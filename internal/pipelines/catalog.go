package pipelines

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/narration"
	"github.com/ethanbaker/learnwithai/pkg/transform"
)

// ChatClient is a chat provider bound to one credential
type ChatClient interface {
	transform.ChatCompleter

	// Validate checks the credential with a cheap provider call
	Validate(ctx context.Context) error
}

// Factories build the concrete model handles held by a Catalog
type Factories struct {
	Translator  func(ctx context.Context, model string) (transform.Translator, error)
	Summarizer  func(ctx context.Context, model string) (transform.Summarizer, error)
	LocalSpeech func(ctx context.Context, model string) (narration.Synthesizer, error)
	Chat        func(ctx context.Context, credential string) (ChatClient, error)
}

// fingerprint keys the chat registry. The secret itself is only passed to
// the loader of the call that builds the client.
type fingerprint string

func fingerprintOf(secret string) fingerprint {
	sum := sha256.Sum256([]byte(secret))
	return fingerprint(hex.EncodeToString(sum[:]))
}

func (f fingerprint) String() string {
	return "key:" + string(f)[:12]
}

// Catalog owns every shared model handle the workflow uses
type Catalog struct {
	SummaryModel string
	SpeechModel  string

	translators *Registry[string, transform.Translator]
	summarizers *Registry[string, transform.Summarizer]
	speech      *Registry[string, narration.Synthesizer]
	chat        *Registry[fingerprint, ChatClient]
	newChat     func(ctx context.Context, credential string) (ChatClient, error)
}

// NewCatalog wires registries around the given factories
func NewCatalog(f Factories, summaryModel, speechModel string) *Catalog {
	return &Catalog{
		SummaryModel: summaryModel,
		SpeechModel:  speechModel,
		translators:  NewRegistry("translator", f.Translator),
		summarizers:  NewRegistry("summarizer", f.Summarizer),
		speech:       NewRegistry("speech", f.LocalSpeech),
		chat: NewRegistry("chat", func(context.Context, fingerprint) (ChatClient, error) {
			return nil, fmt.Errorf("chat clients need a credential to load")
		}),
		newChat: f.Chat,
	}
}

// acquireChat returns the shared chat client for a secret
func (c *Catalog) acquireChat(ctx context.Context, secret string) (ChatClient, func(), error) {
	return c.chat.AcquireWith(ctx, fingerprintOf(secret), func(ctx context.Context, _ fingerprint) (ChatClient, error) {
		return c.newChat(ctx, secret)
	})
}

// Translator returns the shared translation pipeline for a model
func (c *Catalog) Translator(ctx context.Context, model string) (transform.Translator, func(), error) {
	return c.translators.Acquire(ctx, model)
}

// Summarizer returns the shared summarization pipeline
func (c *Catalog) Summarizer(ctx context.Context) (transform.Summarizer, func(), error) {
	return c.summarizers.Acquire(ctx, c.SummaryModel)
}

// Chat returns the shared chat client for a credential
func (c *Catalog) Chat(ctx context.Context, secret string) (transform.ChatCompleter, func(), error) {
	return c.acquireChat(ctx, secret)
}

// LocalSpeech returns the shared local text-to-speech pipeline
func (c *Catalog) LocalSpeech(ctx context.Context) (narration.Synthesizer, func(), error) {
	return c.speech.Acquire(ctx, c.SpeechModel)
}

// RemoteSpeech returns the chat provider's speech endpoint for a credential
func (c *Catalog) RemoteSpeech(ctx context.Context, secret string) (narration.Synthesizer, func(), error) {
	if secret == "" {
		return nil, nil, apperrors.NewCredential("no API key has been provided", nil)
	}

	client, release, err := c.acquireChat(ctx, secret)
	if err != nil {
		return nil, nil, err
	}

	synth, ok := client.(narration.Synthesizer)
	if !ok {
		release()
		return nil, nil, apperrors.NewInvalidInput("the configured chat provider cannot generate audio")
	}
	return synth, release, nil
}

// ValidateCredential checks a key against the chat provider. A rejected key
// is dropped from the registry.
func (c *Catalog) ValidateCredential(ctx context.Context, secret string) error {
	if secret == "" {
		return apperrors.NewCredential("no API key has been provided", nil)
	}

	client, release, err := c.acquireChat(ctx, secret)
	if err != nil {
		return fmt.Errorf("failed to create chat client: %w", err)
	}
	defer release()

	if err := client.Validate(ctx); err != nil {
		if apperrors.Is(err, apperrors.ErrCredential) {
			c.chat.Invalidate(fingerprintOf(secret))
		}
		return err
	}
	return nil
}

// InvalidateCredential drops the chat client built for a key
func (c *Catalog) InvalidateCredential(secret string) {
	c.chat.Invalidate(fingerprintOf(secret))
}

// Reset drops every cached handle
func (c *Catalog) Reset() {
	c.translators.Reset()
	c.summarizers.Reset()
	c.speech.Reset()
	c.chat.Reset()
}

package huggingface

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethanbaker/learnwithai/pkg/narration"
	"github.com/ethanbaker/learnwithai/pkg/transform"
	"github.com/go-audio/audio"
)

// Translator is a translation pipeline bound to one model
type Translator struct {
	client *Client
	Model  string
}

// Summarizer is a summarization pipeline bound to one model
type Summarizer struct {
	client *Client
	Model  string
}

// Speech is a text-to-speech pipeline bound to one model
type Speech struct {
	client *Client
	Model  string
}

func (c *Client) Translator(model string) *Translator { return &Translator{client: c, Model: model} }
func (c *Client) Summarizer(model string) *Summarizer { return &Summarizer{client: c, Model: model} }
func (c *Client) Speech(model string) *Speech         { return &Speech{client: c, Model: model} }

// Translate implements transform.Translator
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	body, err := t.client.infer(ctx, t.Model, inferenceRequest{Inputs: text}, "")
	if err != nil {
		return "", err
	}

	var out []struct {
		TranslationText string `json:"translation_text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unexpected translation response: %w", err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("translation response is empty")
	}
	return out[0].TranslationText, nil
}

// Summarize implements transform.Summarizer
func (s *Summarizer) Summarize(ctx context.Context, text string, opts transform.SummaryOptions) (string, error) {
	in := inferenceRequest{
		Inputs: text,
		Parameters: map[string]any{
			"max_length": opts.MaxLength,
			"min_length": opts.MinLength,
			"do_sample":  opts.DoSample,
		},
	}

	body, err := s.client.infer(ctx, s.Model, in, "")
	if err != nil {
		return "", err
	}

	var out []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unexpected summarization response: %w", err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("summarization response is empty")
	}
	return out[0].SummaryText, nil
}

// Synthesize implements narration.Synthesizer
func (s *Speech) Synthesize(ctx context.Context, text string) (*audio.IntBuffer, error) {
	body, err := s.client.infer(ctx, s.Model, inferenceRequest{Inputs: text}, narration.ContentType)
	if err != nil {
		return nil, err
	}
	return narration.DecodeWAV(body)
}

// Package narration renders text as one continuous WAV recording by
// synthesizing it in word chunks and concatenating the samples.
package narration

import (
	"context"
	"fmt"

	"github.com/ethanbaker/learnwithai/pkg/transform"
	"github.com/go-audio/audio"
)

const (
	DefaultChunkWords = 50
	ContentType       = "audio/wav"
)

// Synthesizer renders one chunk of text to PCM samples
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*audio.IntBuffer, error)
}

// Recording is an encoded narration
type Recording struct {
	Data       []byte           `json:"-"`
	SampleRate int              `json:"sample_rate"`
	Channels   int              `json:"channels"`
	BitDepth   int              `json:"bit_depth"`
	Samples    int              `json:"samples"`
	Report     transform.Report `json:"report"`
}

// Narrator splits text into word chunks and synthesizes them in order
type Narrator struct {
	ChunkWords int
}

// NewNarrator creates a narrator, defaulting to 50 words per chunk
func NewNarrator(chunkWords int) *Narrator {
	if chunkWords <= 0 {
		chunkWords = DefaultChunkWords
	}
	return &Narrator{ChunkWords: chunkWords}
}

// Narrate synthesizes text best effort. The first successful chunk fixes the
// sample format; a later chunk in a different format is treated as failed.
func (n *Narrator) Narrate(ctx context.Context, synth Synthesizer, text string, progress transform.Progress) (*Recording, error) {
	var format *audio.IntBuffer

	chunks := transform.SplitWords(text, n.ChunkWords)
	parts, report, err := transform.Run(ctx, "Audio generation", chunks, func(ctx context.Context, _ int, chunk string) (*audio.IntBuffer, error) {
		buf, err := synth.Synthesize(ctx, chunk)
		if err != nil {
			return nil, err
		}
		if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
			return nil, fmt.Errorf("synthesizer returned no samples")
		}

		if format == nil {
			format = buf
		} else if !sameFormat(format, buf) {
			return nil, fmt.Errorf("sample format %dHz/%dch/%dbit does not match %dHz/%dch/%dbit",
				buf.Format.SampleRate, buf.Format.NumChannels, buf.SourceBitDepth,
				format.Format.SampleRate, format.Format.NumChannels, format.SourceBitDepth)
		}
		return buf, nil
	}, progress)
	if err != nil {
		return nil, err
	}

	merged := concat(parts)
	data, err := EncodeWAV(merged)
	if err != nil {
		return nil, err
	}

	return &Recording{
		Data:       data,
		SampleRate: merged.Format.SampleRate,
		Channels:   merged.Format.NumChannels,
		BitDepth:   merged.SourceBitDepth,
		Samples:    len(merged.Data),
		Report:     report,
	}, nil
}

func sameFormat(a, b *audio.IntBuffer) bool {
	return a.Format.SampleRate == b.Format.SampleRate &&
		a.Format.NumChannels == b.Format.NumChannels &&
		a.SourceBitDepth == b.SourceBitDepth
}

// concat joins sample buffers that share a format, in order
func concat(parts []*audio.IntBuffer) *audio.IntBuffer {
	total := 0
	for _, part := range parts {
		total += len(part.Data)
	}

	first := parts[0]
	merged := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: first.Format.NumChannels, SampleRate: first.Format.SampleRate},
		SourceBitDepth: first.SourceBitDepth,
		Data:           make([]int, 0, total),
	}
	for _, part := range parts {
		merged.Data = append(merged.Data, part.Data...)
	}
	return merged
}

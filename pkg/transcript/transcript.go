// Package transcript resolves YouTube video ids and defines the contract
// for transcript sources.
package transcript

import (
	"context"
	"regexp"
	"strings"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
)

// ManualLanguage is the language assumed for pasted transcripts
const ManualLanguage = "en"

var videoIDPattern = regexp.MustCompile(`v=([A-Za-z0-9_-]+)`)

// Language is a caption track language offered for a video
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Source lists and fetches transcripts for a video. Implementations return
// RETRIEVAL errors for every failure, including "no transcripts".
type Source interface {
	ListLanguages(ctx context.Context, videoID string) ([]Language, error)
	Fetch(ctx context.Context, videoID, languageCode string) (string, error)
}

// ResolveVideoID extracts the value of the v= parameter from a watch URL.
// It reports false when the URL carries no video id.
func ResolveVideoID(url string) (string, bool) {
	match := videoIDPattern.FindStringSubmatch(url)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// AcceptManual validates user-provided transcript text
func AcceptManual(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", apperrors.NewInvalidInput("transcript text is empty")
	}
	return trimmed, nil
}

// HasLanguage reports whether code is among langs
func HasLanguage(langs []Language, code string) bool {
	for _, lang := range langs {
		if lang.Code == code {
			return true
		}
	}
	return false
}

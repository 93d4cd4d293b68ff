package transform

import "strings"

// SplitWords groups the whitespace-separated words of text into chunks of
// at most n words, each joined by single spaces.
func SplitWords(text string, n int) []string {
	words := strings.Fields(text)
	if n <= 0 || len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+n-1)/n)
	for start := 0; start < len(words); start += n {
		end := min(start+n, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// SplitChars cuts text into consecutive slices of at most n characters.
// Boundaries fall on runes, never inside a multi-byte sequence.
func SplitChars(text string, n int) []string {
	runes := []rune(text)
	if n <= 0 || len(runes) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(runes)+n-1)/n)
	for start := 0; start < len(runes); start += n {
		end := min(start+n, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

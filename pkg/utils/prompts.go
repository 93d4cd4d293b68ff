package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadPrompt loads prompt text from a specific file path
func LoadPrompt(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt %s: %w", filePath, err)
	}

	prompt := strings.TrimSpace(string(content))
	if prompt == "" {
		return "", fmt.Errorf("prompt %s is empty", filePath)
	}
	return prompt, nil
}

// LoadPromptWithFallback loads a prompt and returns fallback when the file is missing or empty
func LoadPromptWithFallback(filePath, fallback string) string {
	if content, err := LoadPrompt(filePath); err == nil {
		return content
	}
	return fallback
}

// PromptPath builds "<dir>/<task>.<role>.txt"
func PromptPath(dir, task, role string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.txt", task, role))
}

package transform

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/ethanbaker/learnwithai/pkg/transcript"
	"gopkg.in/yaml.v3"
)

//go:embed translation_models.yaml
var defaultMatrix []byte

// Pair is a supported translation direction and the model serving it
type Pair struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Model  string `yaml:"model"`
}

// Matrix is the fixed set of translation directions the service supports
type Matrix struct {
	Languages []transcript.Language `yaml:"languages"`
	Pairs     []Pair                `yaml:"pairs"`

	models map[[2]string]string
}

// DefaultMatrix returns the built-in matrix (en to and from es, fr, de)
func DefaultMatrix() *Matrix {
	m, err := parseMatrix(defaultMatrix)
	if err != nil {
		panic(fmt.Sprintf("embedded translation matrix is invalid: %v", err))
	}
	return m
}

// LoadMatrix reads a matrix from a YAML file, or the default when path is empty
func LoadMatrix(path string) (*Matrix, error) {
	if path == "" {
		return DefaultMatrix(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation matrix: %w", err)
	}
	return parseMatrix(data)
}

func parseMatrix(data []byte) (*Matrix, error) {
	var m Matrix
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse translation matrix: %w", err)
	}

	m.models = make(map[[2]string]string, len(m.Pairs))
	for _, pair := range m.Pairs {
		if pair.Source == "" || pair.Target == "" || pair.Model == "" {
			return nil, fmt.Errorf("translation pair %+v is incomplete", pair)
		}
		m.models[[2]string{pair.Source, pair.Target}] = pair.Model
	}
	return &m, nil
}

// Model returns the model for a direction
func (m *Matrix) Model(source, target string) (string, bool) {
	model, ok := m.models[[2]string{source, target}]
	return model, ok
}

// Supports reports whether source to target can be translated
func (m *Matrix) Supports(source, target string) bool {
	_, ok := m.Model(source, target)
	return ok
}

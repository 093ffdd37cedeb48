// Package llm wraps the text generation service behind a prompt-in,
// text-out interface.
package llm

import (
	"context"
	"errors"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.5-flash"

// Sampling temperatures used by callers.
const (
	ExtractionTemperature float32 = 0.1
	ChatTemperature       float32 = 0.5
)

// ErrNotConfigured is returned when no generation backend is available.
var ErrNotConfigured = errors.New("llm: generation service not configured")

// Generator produces a completion for a prompt.
// This interface enables mocking of the generation service in tests.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
	// Model identifies the backing model for audit records.
	Model() string
}

// Disabled is a Generator that is never configured.
type Disabled struct{}

// Generate always returns ErrNotConfigured.
func (Disabled) Generate(context.Context, string, float32) (string, error) {
	return "", ErrNotConfigured
}

// Model returns an empty identifier.
func (Disabled) Model() string { return "" }

// IsConfigured reports whether g can issue calls.
func IsConfigured(g Generator) bool {
	if g == nil {
		return false
	}
	_, disabled := g.(Disabled)
	return !disabled
}

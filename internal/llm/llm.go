// Package llm wraps the hosted generative models that write the report.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GoPolymarket/polymarket-regime/internal/config"
)

var (
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrMissingAPIKey   = errors.New("llm api key is not set")
	ErrEmptyResponse   = errors.New("empty model response")
)

// Generator produces free-form text for a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// New builds the generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "claude", "anthropic":
		return NewClaude(cfg), nil
	case "gemini", "google":
		return NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// Package ai provides optional LLM-assisted categorization for work names
// that the keyword rules cannot place. The rule engine stays authoritative:
// AI results are suggestions, and every provider failure degrades to the
// rule-based fallback.
package ai

import (
	"context"
	"errors"
)

// CategorizationResult is one model answer for one work name.
type CategorizationResult struct {
	WorkName   string  `json:"work_name"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
	Fallback   bool    `json:"fallback"`
}

// Provider is implemented by LLM backends.
type Provider interface {
	// Categorize assigns each work name one of the given categories.
	Categorize(ctx context.Context, workNames, categories []string) ([]CategorizationResult, error)
	// Name identifies the backend for logging and status endpoints.
	Name() string
}

var (
	ErrNotConfigured = errors.New("ai provider not configured")
	ErrAuth          = errors.New("ai provider rejected credentials")
	ErrRateLimited   = errors.New("ai provider rate limited")
)

package ai

import (
	"context"
	"log/slog"

	applog "worklens/internal/log"
	"worklens/internal/rules"
)

// fallbackConfidence marks rule-derived answers so the UI can distinguish
// them from real model output.
const fallbackConfidence = 0.5

// FallbackCategorizer wraps a Provider and degrades to the keyword rules
// when the provider is missing or fails. It never returns a provider error
// to the caller; rule-based answers carry the fallback flag instead.
type FallbackCategorizer struct {
	provider Provider // nil when no API key is configured
	resolver *rules.Resolver
}

func NewFallbackCategorizer(provider Provider, resolver *rules.Resolver) *FallbackCategorizer {
	return &FallbackCategorizer{provider: provider, resolver: resolver}
}

// Enabled reports whether a real provider is configured.
func (f *FallbackCategorizer) Enabled() bool {
	return f.provider != nil
}

// ProviderName returns the backend identifier, or "rules" when degraded.
func (f *FallbackCategorizer) ProviderName() string {
	if f.provider == nil {
		return "rules"
	}
	return f.provider.Name()
}

func (f *FallbackCategorizer) Categorize(ctx context.Context, workNames, categories []string) ([]CategorizationResult, error) {
	if f.provider != nil {
		results, err := f.provider.Categorize(ctx, workNames, categories)
		if err == nil {
			return results, nil
		}
		slog.WarnContext(ctx, "AI provider failed, falling back to rules",
			applog.FieldComponent, applog.ComponentAI,
			"provider", f.provider.Name(), applog.FieldError, err.Error())
	}
	return f.byRules(ctx, workNames)
}

func (f *FallbackCategorizer) byRules(ctx context.Context, workNames []string) ([]CategorizationResult, error) {
	results := make([]CategorizationResult, 0, len(workNames))
	for _, name := range workNames {
		category, err := f.resolver.Category(ctx, "", name)
		if err != nil {
			return nil, err
		}
		results = append(results, CategorizationResult{
			WorkName:   name,
			Category:   category,
			Confidence: fallbackConfidence,
			Reasoning:  "keyword rules",
			Fallback:   true,
		})
	}
	return results, nil
}

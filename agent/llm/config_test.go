package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
)

func TestOpenRouterForQualifierOverrides(t *testing.T) {
	t.Parallel()

	c := Config{
		APIKey:               " key ",
		Model:                "openai/gpt-4o-mini",
		MaxCompletionToken:   512,
		Temperature:          0.5,
		QualifierModel:       "anthropic/claude-haiku",
		QualifierTemperature: 0,
	}

	got := c.OpenRouterFor(contractx.AgentTypeQualifier)
	if got.Model != "anthropic/claude-haiku" {
		t.Fatalf("unexpected model: %s", got.Model)
	}
	if got.Temperature != 0 {
		t.Fatalf("unexpected temperature: %v", got.Temperature)
	}
	if got.APIKey != "key" {
		t.Fatalf("api key not trimmed: %q", got.APIKey)
	}
	if got.MaxCompletionToken == nil || *got.MaxCompletionToken != 512 {
		t.Fatalf("unexpected max tokens: %v", got.MaxCompletionToken)
	}
}

func TestOpenRouterForFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	c := Config{APIKey: "k", Model: "base", Temperature: 0.7, QualifierTemperature: -1}
	got := c.OpenRouterFor(contractx.AgentTypeQualifier)
	if got.Model != "base" || got.Temperature != 0.7 {
		t.Fatalf("unexpected fallback: model=%s temp=%v", got.Model, got.Temperature)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Model: "m"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := (Config{APIKey: "k"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := (Config{APIKey: "k", Model: "m"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

package prompt

import (
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	p := LoadPromptSet()
	got, err := p.For(contractx.AgentTypeQualifier)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "You are a sales assistant.") {
		t.Fatalf("unexpected prompt: %q", got)
	}
	if !strings.Contains(got, "get_leads") {
		t.Fatal("prompt must mention get_leads")
	}
}

func TestForUnknownAgent(t *testing.T) {
	t.Parallel()

	_, err := LoadPromptSet().For(contractx.AgentType("planner"))
	if !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}

package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
)

// AgentName is the display name of the qualifier agent.
const AgentName = "Mini CRM Lead Qualifier"

//go:embed template/qualifier.txt
var qualifierRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Qualifier string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Qualifier: strings.TrimSpace(qualifierRaw),
	}
}

// For returns the system prompt of agentType.
func (p PromptSet) For(agentType contractx.AgentType) (string, error) {
	var out string
	switch agentType {
	case contractx.AgentTypeQualifier:
		out = p.Qualifier
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, agentType)
	}
	return out, nil
}

package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
)

func AppendUserMessage(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil || in.RunContext == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	if in.ResetCalls {
		in.RunContext.ResetCalls()
	}
	in.Session.AppendUserMessage(in.Text)
	return in, nil
}

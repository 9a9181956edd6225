package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.RunContext == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	return GraphOutput{Reply: contractx.ChatReply{
		Reply:     in.Result.FinalText(),
		ToolCalls: in.RunContext.ToolCalls(),
		Data:      in.RunContext.Data(),
	}}, nil
}

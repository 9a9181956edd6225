package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
)

// RunAgent hands the full transcript and the shared run context to the runtime.
func RunAgent(
	ctx context.Context,
	in *GraphState,
	runtime contractx.Runtime,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	result, err := runtime.Run(ctx, contractx.RunRequest{
		Input:   in.Session.History(),
		Context: in.RunContext,
		Config:  in.RunConfig,
	})
	if err != nil {
		return nil, err
	}
	in.Result = result
	return in, nil
}

package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
)

// ApplyTranscript replaces the session history with the runtime's canonical transcript.
func ApplyTranscript(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	in.Session.ReplaceTranscript(in.Result.Transcript)
	in.Session.Touch(in.Now)

	zerolog.Ctx(ctx).Debug().
		Str("session_id", in.SessionID).
		Int("turns", in.Session.Turns).
		Interface("transcript", in.Session.Transcript).
		Msg("session transcript")
	return in, nil
}

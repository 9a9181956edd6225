package orchestratornode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
	statex "github.com/tanpawarit/crm-lead-qualifier/agent/state"
)

// LoadOrCreateState restores a persisted transcript into the live session
// on its first turn. Missing or unreadable state leaves the session empty.
func LoadOrCreateState(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if !in.Hydrate || store == nil || strings.TrimSpace(in.SessionID) == "" {
		return in, nil
	}

	st, err := store.Load(ctx, in.SessionID)
	switch {
	case err == nil:
		in.Session.Transcript = st.History()
		in.Session.Turns = st.Turns
		in.Session.UpdatedAt = st.UpdatedAt
		zerolog.Ctx(ctx).Debug().
			Str("session_id", in.SessionID).
			Int("messages", len(st.Transcript)).
			Msg("restored session transcript")
	case errors.Is(err, statex.ErrStateNotFound):
	default:
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", in.SessionID).Msg("load session state failed, starting fresh")
	}
	return in, nil
}

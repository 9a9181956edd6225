package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
	statex "github.com/tanpawarit/crm-lead-qualifier/agent/state"
)

// ValidateAndSaveState persists the transcript when a store is configured.
// Store failures are logged; the reply is still returned.
func ValidateAndSaveState(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if store == nil || strings.TrimSpace(in.SessionID) == "" {
		return in, nil
	}

	if err := in.Session.Validate(); err != nil {
		return nil, fmt.Errorf("state validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Session); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", in.SessionID).Msg("save session state failed")
	}
	return in, nil
}

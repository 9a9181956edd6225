package orchestratornode

import (
	"errors"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
	statex "github.com/tanpawarit/crm-lead-qualifier/agent/state"
)

var (
	ErrNilSession    = errors.New("session state is nil")
	ErrNilRunContext = errors.New("run context is nil")
)

// GraphInput is one chat turn for a live session. Session and RunContext are
// owned by the caller and mutated in place.
type GraphInput struct {
	SessionID  string
	Text       string
	Session    *statex.SessionState
	RunContext *statex.RunContext

	// Hydrate asks the turn to restore the transcript from the state store
	// before the user message is appended.
	Hydrate bool
	// ResetCalls clears the call log before the turn runs.
	ResetCalls bool
	RunConfig  contractx.RunConfig
}

type GraphOutput struct {
	Reply contractx.ChatReply
}

type GraphState struct {
	SessionID  string
	Text       string
	Now        time.Time
	Hydrate    bool
	ResetCalls bool
	RunConfig  contractx.RunConfig

	Session    *statex.SessionState
	RunContext *statex.RunContext
	Result     contractx.RunResult
}

// ValidateRequest checks the turn's collaborators. Empty text and session
// ids are valid input.
func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	if in.Session == nil {
		return nil, fmt.Errorf("%w: %w", contractx.ErrValidation, ErrNilSession)
	}
	if in.RunContext == nil {
		return nil, fmt.Errorf("%w: %w", contractx.ErrValidation, ErrNilRunContext)
	}

	return &GraphState{
		SessionID:  in.SessionID,
		Text:       in.Text,
		Now:        nowFn().UTC(),
		Hydrate:    in.Hydrate,
		ResetCalls: in.ResetCalls,
		RunConfig:  in.RunConfig,
		Session:    in.Session,
		RunContext: in.RunContext,
	}, nil
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
	nodex "github.com/tanpawarit/crm-lead-qualifier/agent/nodes"
	statex "github.com/tanpawarit/crm-lead-qualifier/agent/state"
	toolx "github.com/tanpawarit/crm-lead-qualifier/agent/tool"
)

type Config struct {
	// MaxSessions bounds live sessions with LRU eviction. 0 means unbounded.
	MaxSessions int `split_words:"true" default:"0"`
	// MaxTurns bounds model calls per chat turn.
	MaxTurns              int  `split_words:"true" default:"10"`
	ResetToolCallsPerTurn bool `split_words:"true" default:"false"`
}

func (c Config) Validate() error {
	if c.MaxSessions < 0 {
		return fmt.Errorf("%w: max sessions must be >= 0", contractx.ErrValidation)
	}
	if c.MaxTurns < 1 {
		return fmt.Errorf("%w: max turns must be >= 1", contractx.ErrValidation)
	}
	return nil
}

// Orchestrator is the chat session service shared by every session: the
// agent runtime, the optional transcript store and the compiled turn graph.
type Orchestrator struct {
	runtime contractx.Runtime
	store   statex.Store

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
	runConfig   contractx.RunConfig
	resetCalls  bool
	sessions    *Registry

	now func() time.Time
}

// New wires the service. store may be nil, in which case transcripts live
// only in process memory.
func New(runtime contractx.Runtime, store statex.Store, cfg Config) (*Orchestrator, error) {
	if runtime == nil {
		return nil, errors.New("agent runtime is required")
	}
	if cfg.MaxSessions < 0 {
		return nil, fmt.Errorf("%w: max sessions must be >= 0", contractx.ErrValidation)
	}

	o := &Orchestrator{
		runtime:    runtime,
		store:      store,
		runConfig:  silentToolConfig(),
		resetCalls: cfg.ResetToolCallsPerTurn,
		now:        time.Now,
	}
	sessions, err := newRegistry(o, cfg.MaxSessions)
	if err != nil {
		return nil, err
	}
	o.sessions = sessions

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage runs one chat turn on the session named sessionID, creating it on first use.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (contractx.ChatReply, error) {
	s := o.sessions.acquire(sessionID)
	defer o.sessions.release(s)
	return s.ProcessMessage(ctx, text)
}

func (o *Orchestrator) Sessions() *Registry {
	return o.sessions
}

// silentToolConfig suppresses per-call acknowledgment turns for every lead tool.
func silentToolConfig() contractx.RunConfig {
	opts := make(map[string]contractx.ToolCallOptions, len(toolx.Names))
	for _, name := range toolx.Names {
		opts[name] = contractx.ToolCallOptions{ResponseExpectation: contractx.ResponseExpectationNone}
	}
	return contractx.RunConfig{ToolOptions: opts}
}

// Session is one conversation: its transcript and the run context shared by
// all of its turns. Turns on the same session run one at a time.
type Session struct {
	id   string
	orch *Orchestrator

	mu       sync.Mutex
	state    *statex.SessionState
	runCtx   *statex.RunContext
	hydrated bool

	// refs counts turns in flight; guarded by the registry mutex.
	refs int
}

func newSession(id string, orch *Orchestrator) *Session {
	return &Session{
		id:     id,
		orch:   orch,
		state:  statex.NewSessionState(id, orch.now()),
		runCtx: statex.NewRunContext(),
	}
}

func (s *Session) ID() string { return s.id }

// ProcessMessage appends text, runs the agent over the whole transcript and
// returns the final text with snapshots of the call log and data map. The
// user message stays in the transcript even when the turn fails.
func (s *Session) ProcessMessage(ctx context.Context, text string) (contractx.ChatReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hydrate := !s.hydrated
	s.hydrated = true

	out, err := s.orch.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID:  s.id,
		Text:       text,
		Session:    s.state,
		RunContext: s.runCtx,
		Hydrate:    hydrate,
		ResetCalls: s.orch.resetCalls,
		RunConfig:  s.orch.runConfig,
	})
	if err != nil {
		return contractx.ChatReply{}, unwrapGraphError(err)
	}
	return out.Reply, nil
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() statex.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.state
	cp.Transcript = s.state.History()
	return cp
}

// CallLog returns a snapshot of the session's tool call log.
func (s *Session) CallLog() []statex.ToolCall {
	return s.runCtx.ToolCalls()
}

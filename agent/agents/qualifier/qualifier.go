package qualifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
	llmx "github.com/tanpawarit/crm-lead-qualifier/agent/llm"
	promptx "github.com/tanpawarit/crm-lead-qualifier/agent/prompt"
)

const DefaultMaxTurns = 10

const toolErrorPrefix = "An error occurred while running the tool. Please try again. Error: "

type Option func(*Runtime)

// WithMaxTurns bounds the number of model calls per run. Values below 1 are ignored.
func WithMaxTurns(n int) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.maxTurns = n
		}
	}
}

// WithCallIDGenerator overrides the id given to tool calls that arrive without one.
func WithCallIDGenerator(fn func() string) Option {
	return func(r *Runtime) {
		if fn != nil {
			r.newCallID = fn
		}
	}
}

// Runtime runs the lead qualifier: call the model with the transcript and
// tool declarations, dispatch requested tools, repeat until a text answer.
type Runtime struct {
	name        string
	tools       contractx.ToolExecutor
	modelRunner compose.Runnable[map[string]any, *schema.Message]
	maxTurns    int
	newCallID   func() string
}

var _ contractx.Runtime = (*Runtime)(nil)

func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	instructions string,
	tools contractx.ToolExecutor,
	opts ...Option,
) (*Runtime, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if tools == nil {
		return nil, fmt.Errorf("%w: tool executor is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(instructions) == "" {
		return nil, fmt.Errorf("%w: qualifier instructions", contractx.ErrPromptMissing)
	}

	toolModel, err := chatModel.WithTools(tools.Infos())
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, contractx.AgentTypeQualifier, err)
	}
	runner, err := compileModelGraph(ctx, toolModel, instructions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	r := &Runtime{
		name:        promptx.AgentName,
		tools:       tools,
		modelRunner: runner,
		maxTurns:    DefaultMaxTurns,
		newCallID: func() string {
			return "call_" + uuid.NewString()
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// NewFromConfig builds the OpenRouter chat model and embedded prompt for the qualifier.
func NewFromConfig(ctx context.Context, cfg llmx.Config, tools contractx.ToolExecutor, opts ...Option) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	modelCfg := cfg.OpenRouterFor(contractx.AgentTypeQualifier)
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create qualifier model: %v", contractx.ErrModelInvoke, err)
	}

	instructions, err := promptx.LoadPromptSet().For(contractx.AgentTypeQualifier)
	if err != nil {
		return nil, err
	}
	return New(ctx, chatModel, instructions, tools, opts...)
}

func (r *Runtime) Name() string { return r.name }

func (r *Runtime) Run(ctx context.Context, req contractx.RunRequest) (contractx.RunResult, error) {
	if req.Context == nil {
		return contractx.RunResult{}, fmt.Errorf("%w: run context is nil", contractx.ErrValidation)
	}

	logger := zerolog.Ctx(ctx).With().Str("agent", r.name).Logger()
	transcript := append(make([]*schema.Message, 0, len(req.Input)+4), req.Input...)

	for turn := 1; turn <= r.maxTurns; turn++ {
		msg, err := r.modelRunner.Invoke(ctx, map[string]any{historyKey: transcript})
		if err != nil {
			return contractx.RunResult{}, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
		}
		if msg == nil {
			return contractx.RunResult{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
		}

		if len(msg.ToolCalls) == 0 {
			final := msg.Content
			transcript = append(transcript, schema.AssistantMessage(final, nil))
			logger.Debug().Int("turn", turn).Msg("final output")
			return contractx.RunResult{Transcript: transcript, FinalOutput: &final}, nil
		}

		calls := r.normalizeCalls(msg.ToolCalls)
		content := msg.Content
		if silenced(calls, req.Config) {
			content = ""
		}
		transcript = append(transcript, schema.AssistantMessage(content, calls))

		for _, call := range calls {
			logger.Debug().
				Int("turn", turn).
				Str("tool", call.Function.Name).
				Str("call_id", call.ID).
				Msg("dispatch tool call")

			out, err := r.tools.Execute(ctx, req.Context, call)
			if err != nil {
				if !errors.Is(err, contractx.ErrSchemaViolation) {
					return contractx.RunResult{}, err
				}
				logger.Warn().Err(err).Str("tool", call.Function.Name).Msg("tool call rejected")
				out = toolErrorPrefix + err.Error()
			}
			transcript = append(transcript, schema.ToolMessage(out, call.ID))
		}
	}

	return contractx.RunResult{}, fmt.Errorf("%w: limit=%d", contractx.ErrMaxTurnsExceeded, r.maxTurns)
}

func (r *Runtime) normalizeCalls(in []schema.ToolCall) []schema.ToolCall {
	out := make([]schema.ToolCall, 0, len(in))
	for _, c := range in {
		if strings.TrimSpace(c.ID) == "" {
			c.ID = r.newCallID()
		}
		if c.Type == "" {
			c.Type = "function"
		}
		out = append(out, c)
	}
	return out
}

// silenced reports whether any requested tool expects no acknowledgment turn.
func silenced(calls []schema.ToolCall, cfg contractx.RunConfig) bool {
	for _, c := range calls {
		if cfg.Expectation(c.Function.Name) == contractx.ResponseExpectationNone {
			return true
		}
	}
	return false
}

package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"

	statex "github.com/tanpawarit/crm-lead-qualifier/agent/state"
)

// Runtime drives one conversation turn: model calls, tool dispatch, repeat.
type Runtime interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// ToolExecutor runs a single tool call requested by the model and returns
// the content of the tool message to feed back.
type ToolExecutor interface {
	Infos() []*schema.ToolInfo
	Execute(ctx context.Context, rc *statex.RunContext, call schema.ToolCall) (string, error)
}

// EventPublisher receives domain events that leave the process.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

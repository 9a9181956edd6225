package contract

import (
	"github.com/cloudwego/eino/schema"

	statex "github.com/tanpawarit/crm-lead-qualifier/agent/state"
)

type AgentType string

const (
	AgentTypeQualifier AgentType = "qualifier"
)

// ResponseExpectation tells the runtime whether a tool call should produce
// an acknowledgment turn addressed to the user.
type ResponseExpectation string

const (
	ResponseExpectationAuto     ResponseExpectation = "auto"
	ResponseExpectationRequired ResponseExpectation = "required"
	ResponseExpectationNone     ResponseExpectation = "none"
)

type ToolCallOptions struct {
	ResponseExpectation ResponseExpectation `json:"response_expectation"`
}

// RunConfig carries per-run runtime settings keyed by tool name.
type RunConfig struct {
	ToolOptions map[string]ToolCallOptions `json:"tool_options,omitempty"`
}

// Expectation returns the configured expectation for tool, defaulting to auto.
func (c RunConfig) Expectation(tool string) ResponseExpectation {
	if opt, ok := c.ToolOptions[tool]; ok && opt.ResponseExpectation != "" {
		return opt.ResponseExpectation
	}
	return ResponseExpectationAuto
}

type RunRequest struct {
	Input   []*schema.Message
	Context *statex.RunContext
	Config  RunConfig
}

type RunResult struct {
	// Transcript is the canonical history after the run: the input followed
	// by every assistant and tool message the run produced.
	Transcript  []*schema.Message
	FinalOutput *string
}

// FinalText returns the final output or "" when the run produced none.
func (r RunResult) FinalText() string {
	if r.FinalOutput == nil {
		return ""
	}
	return *r.FinalOutput
}

// ChatReply is what one chat turn hands back to the caller.
type ChatReply struct {
	Reply     string            `json:"reply"`
	ToolCalls []statex.ToolCall `json:"tool_calls"`
	Data      map[string]any    `json:"data"`
}

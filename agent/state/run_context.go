package state

import (
	"encoding/json"
	"sync"
)

// ToolCall is one entry of the call log. Exactly one of the outcome fields is
// emitted: result (possibly null), error, or result_count.
type ToolCall struct {
	Name        string
	Args        any
	Result      any
	HasResult   bool
	Error       string
	ResultCount *int
}

func ResultCall(name string, args any, result any) ToolCall {
	return ToolCall{Name: name, Args: args, Result: result, HasResult: true}
}

func ErrorCall(name string, args any, msg string) ToolCall {
	return ToolCall{Name: name, Args: args, Error: msg}
}

func CountCall(name string, args any, n int) ToolCall {
	return ToolCall{Name: name, Args: args, ResultCount: &n}
}

func (c ToolCall) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"name": c.Name,
		"args": c.Args,
	}
	switch {
	case c.Error != "":
		out["error"] = c.Error
	case c.ResultCount != nil:
		out["result_count"] = *c.ResultCount
	default:
		out["result"] = c.Result
	}
	return json.Marshal(out)
}

// RunContext is the mutable bag tools write into during a run: an ordered
// call log and a free-form data map.
type RunContext struct {
	mu    sync.Mutex
	calls []ToolCall
	data  map[string]any
}

func NewRunContext() *RunContext {
	return &RunContext{
		data: make(map[string]any, 4),
	}
}

func (c *RunContext) Record(call ToolCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *RunContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

func (c *RunContext) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

// ToolCalls returns a snapshot of the call log.
func (c *RunContext) ToolCalls() []ToolCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(make([]ToolCall, 0, len(c.calls)), c.calls...)
}

// Data returns a shallow copy of the data map.
func (c *RunContext) Data() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}

// ResetCalls drops the call log and keeps the data map.
func (c *RunContext) ResetCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

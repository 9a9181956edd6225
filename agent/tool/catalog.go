package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
	"github.com/tanpawarit/crm-lead-qualifier/agent/lead"
	statex "github.com/tanpawarit/crm-lead-qualifier/agent/state"
)

const (
	ToolLookupLead        = "lookup_lead"
	ToolGetLeads          = "get_leads"
	ToolWriteLeadUpdate   = "write_lead_update"
	ToolScoreLeadIndustry = "score_lead_industry"
)

const (
	DataUpdatedLead = "updated_lead"
	DataMatches     = "matches"

	EventLeadUpdated = "lead.updated"
)

// Names lists every tool the executor dispatches, in declaration order.
var Names = []string{ToolLookupLead, ToolWriteLeadUpdate, ToolGetLeads, ToolScoreLeadIndustry}

type Option func(*Executor)

// WithEventPublisher publishes a lead.updated event after each successful
// write_lead_update. Publish failures are logged and otherwise ignored.
func WithEventPublisher(p contractx.EventPublisher) Option {
	return func(e *Executor) {
		e.events = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// Executor dispatches model tool calls to the lead tools over a closed set of names.
type Executor struct {
	store  lead.Store
	events contractx.EventPublisher
	now    func() time.Time
}

var _ contractx.ToolExecutor = (*Executor)(nil)

func NewExecutor(store lead.Store, opts ...Option) (*Executor, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: lead store is required", contractx.ErrValidation)
	}
	e := &Executor{store: store, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

func (e *Executor) Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolLookupLead,
			Desc: "Find best single lead whose name or contact contains the query (case-insensitive).",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Name or contact fragment", Required: true},
			}),
		},
		{
			Name: ToolWriteLeadUpdate,
			Desc: "Append a note and set the status for the given lead, returning the updated record.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"lead_id": {Type: schema.Integer, Desc: "Lead id", Required: true},
				"note":    {Type: schema.String, Desc: "Note to append", Required: true},
				"status":  {Type: schema.String, Desc: "New lead status", Enum: lead.StatusStrings(), Required: true},
			}),
		},
		{
			Name: ToolGetLeads,
			Desc: "Return all leads where name|contact|industry|status contains keyword (case-insensitive).",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"keyword": {Type: schema.String, Desc: "Keyword to match", Required: true},
			}),
		},
		{
			Name: ToolScoreLeadIndustry,
			Desc: "Return a simple heuristic score for an industry.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"industry": {Type: schema.String, Desc: "Industry name, may be empty"},
			}),
		},
	}
}

// Execute runs one tool call. Argument problems and unknown tools are
// returned wrapped in contract.ErrSchemaViolation and leave the call log
// untouched. Any other error is a tool failure.
func (e *Executor) Execute(ctx context.Context, rc *statex.RunContext, call schema.ToolCall) (string, error) {
	if rc == nil {
		return "", fmt.Errorf("%w: run context is nil", contractx.ErrValidation)
	}

	name := strings.TrimSpace(call.Function.Name)
	raw := strings.TrimSpace(call.Function.Arguments)
	if raw == "" {
		raw = "{}"
	}

	switch name {
	case ToolLookupLead:
		var args LookupLeadArgs
		if err := decodeArgs(name, raw, &args, "query"); err != nil {
			return "", err
		}
		return e.lookupLead(ctx, rc, args)
	case ToolGetLeads:
		var args GetLeadsArgs
		if err := decodeArgs(name, raw, &args, "keyword"); err != nil {
			return "", err
		}
		return e.getLeads(ctx, rc, args)
	case ToolWriteLeadUpdate:
		var args WriteLeadUpdateArgs
		if err := decodeArgs(name, raw, &args, "lead_id", "note", "status"); err != nil {
			return "", err
		}
		if _, err := lead.ParseStatus(string(args.Status)); err != nil {
			return "", fmt.Errorf("%w: tool=%s: %v", contractx.ErrSchemaViolation, name, err)
		}
		return e.writeLeadUpdate(ctx, rc, args)
	case ToolScoreLeadIndustry:
		var args ScoreLeadIndustryArgs
		if err := decodeArgs(name, raw, &args); err != nil {
			return "", err
		}
		return e.scoreLeadIndustry(rc, args)
	default:
		return "", fmt.Errorf("%w: tool=%s is not available", contractx.ErrSchemaViolation, name)
	}
}

func decodeArgs(tool, raw string, dst any, required ...string) error {
	if !gjson.Valid(raw) {
		return fmt.Errorf("%w: tool=%s: arguments are not valid json", contractx.ErrSchemaViolation, tool)
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return fmt.Errorf("%w: tool=%s: arguments must be an object", contractx.ErrSchemaViolation, tool)
	}
	for _, field := range required {
		if !parsed.Get(field).Exists() {
			return fmt.Errorf("%w: tool=%s: %s is required", contractx.ErrSchemaViolation, tool, field)
		}
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
	}
	return nil
}

func encodeOutput(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: encode tool output: %v", contractx.ErrToolFailed, err)
	}
	return string(raw), nil
}

func (e *Executor) publish(ctx context.Context, evt contractx.Event) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, evt); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", evt.Type).Msg("publish event failed")
	}
}

package tool

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
	"github.com/tanpawarit/crm-lead-qualifier/agent/lead"
	statex "github.com/tanpawarit/crm-lead-qualifier/agent/state"
)

type LookupLeadArgs struct {
	Query string `json:"query"`
}

type GetLeadsArgs struct {
	Keyword string `json:"keyword"`
}

type WriteLeadUpdateArgs struct {
	LeadID int         `json:"lead_id"`
	Note   string      `json:"note"`
	Status lead.Status `json:"status"`
}

type ScoreLeadIndustryArgs struct {
	Industry *string `json:"industry"`
}

// LeadUpdatedEvent is the payload of a lead.updated event.
type LeadUpdatedEvent struct {
	Lead      lead.Lead   `json:"lead"`
	Note      string      `json:"note"`
	Status    lead.Status `json:"status"`
	UpdatedAt time.Time   `json:"updated_at"`
}

var industryScores = map[string]int{
	"finance":  8,
	"retail":   5,
	"software": 6,
	"other":    4,
}

const defaultIndustryScore = 3

// ScoreIndustry maps an industry to its heuristic score.
func ScoreIndustry(industry string) int {
	if score, ok := industryScores[strings.ToLower(industry)]; ok {
		return score
	}
	return defaultIndustryScore
}

func (e *Executor) lookupLead(ctx context.Context, rc *statex.RunContext, args LookupLeadArgs) (string, error) {
	matches, err := e.store.Search(ctx, lead.ContainsFold(args.Query, lead.FieldName, lead.FieldContact))
	if err != nil {
		rc.Record(statex.ErrorCall(ToolLookupLead, args, err.Error()))
		return "", err
	}

	var best *lead.Lead
	exact := lead.NameEquals(args.Query)
	for i := range matches {
		if exact(matches[i]) {
			best = &matches[i]
			break
		}
	}
	if best == nil && len(matches) > 0 {
		best = &matches[0]
	}

	if best == nil {
		rc.Record(statex.ResultCall(ToolLookupLead, args, nil))
		return "null", nil
	}
	rc.Record(statex.ResultCall(ToolLookupLead, args, *best))
	return encodeOutput(best)
}

func (e *Executor) getLeads(ctx context.Context, rc *statex.RunContext, args GetLeadsArgs) (string, error) {
	matches, err := e.store.Search(ctx, lead.ContainsFold(args.Keyword,
		lead.FieldName, lead.FieldContact, lead.FieldIndustry, lead.FieldStatus))
	if err != nil {
		rc.Record(statex.ErrorCall(ToolGetLeads, args, err.Error()))
		return "", err
	}

	rc.Record(statex.CountCall(ToolGetLeads, args, len(matches)))
	rc.Set(DataMatches, matches)
	return encodeOutput(matches)
}

func (e *Executor) writeLeadUpdate(ctx context.Context, rc *statex.RunContext, args WriteLeadUpdateArgs) (string, error) {
	updated, err := e.store.Update(ctx, args.LeadID, func(l *lead.Lead) error {
		l.AppendNote(args.Note, args.Status)
		return nil
	})
	if err != nil {
		rc.Record(statex.ErrorCall(ToolWriteLeadUpdate, args, err.Error()))
		return "", err
	}

	rc.Record(statex.ResultCall(ToolWriteLeadUpdate, args, updated))
	rc.Set(DataUpdatedLead, updated)

	zerolog.Ctx(ctx).Info().
		Int("lead_id", updated.ID).
		Str("status", string(updated.Status)).
		Msg("lead updated")

	e.publish(ctx, contractx.Event{
		Type: EventLeadUpdated,
		Payload: LeadUpdatedEvent{
			Lead:      updated,
			Note:      args.Note,
			Status:    args.Status,
			UpdatedAt: e.now().UTC(),
		},
	})
	return encodeOutput(updated)
}

func (e *Executor) scoreLeadIndustry(rc *statex.RunContext, args ScoreLeadIndustryArgs) (string, error) {
	industry := ""
	if args.Industry != nil {
		industry = *args.Industry
	}
	score := ScoreIndustry(industry)
	rc.Record(statex.ResultCall(ToolScoreLeadIndustry, args, score))
	return encodeOutput(score)
}

package tool

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
	"github.com/tanpawarit/crm-lead-qualifier/agent/lead"
	statex "github.com/tanpawarit/crm-lead-qualifier/agent/state"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []contractx.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, evt contractx.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func newTestStore(t *testing.T) lead.Store {
	t.Helper()
	s, _, err := lead.OpenFileStore(filepath.Join(t.TempDir(), "leads.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	err = s.Insert(context.Background(),
		lead.Lead{ID: 1, Name: "Acme Corp", Contact: "jane@acme.io", Industry: "Software", Status: lead.StatusNew},
		lead.Lead{ID: 2, Name: "Acme", Contact: "ops@acme-holdings.com", Industry: "Finance", Status: lead.StatusWorking},
		lead.Lead{ID: 3, Name: "Globex", Contact: "hank@globex.com", Industry: "Retail", Status: lead.StatusNew},
	)
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return s
}

func call(name, args string) schema.ToolCall {
	return schema.ToolCall{
		ID:       "call_1",
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}
}

func newTestExecutor(t *testing.T, opts ...Option) (*Executor, lead.Store) {
	t.Helper()
	store := newTestStore(t)
	e, err := NewExecutor(store, opts...)
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	return e, store
}

func marshalCalls(t *testing.T, rc *statex.RunContext) string {
	t.Helper()
	raw, err := json.Marshal(rc.ToolCalls())
	if err != nil {
		t.Fatalf("marshal calls: %v", err)
	}
	return string(raw)
}

func TestInfosDeclareAllTools(t *testing.T) {
	t.Parallel()

	e, _ := newTestExecutor(t)
	infos := e.Infos()
	if len(infos) != len(Names) {
		t.Fatalf("expected %d tool infos, got %d", len(Names), len(infos))
	}
	for i, info := range infos {
		if info.Name != Names[i] {
			t.Fatalf("tool %d: expected %s, got %s", i, Names[i], info.Name)
		}
		if info.Desc == "" {
			t.Fatalf("tool %s has no description", info.Name)
		}
	}
}

func TestNewExecutorRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := NewExecutor(nil); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLookupLeadPrefersExactName(t *testing.T) {
	t.Parallel()

	e, _ := newTestExecutor(t)
	rc := statex.NewRunContext()

	out, err := e.Execute(context.Background(), rc, call(ToolLookupLead, `{"query":"ACME"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got lead.Lead
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got.ID != 2 {
		t.Fatalf("expected exact name match id=2, got %d", got.ID)
	}
}

func TestLookupLeadFallsBackToFirstMatch(t *testing.T) {
	t.Parallel()

	e, _ := newTestExecutor(t)
	rc := statex.NewRunContext()

	out, err := e.Execute(context.Background(), rc, call(ToolLookupLead, `{"query":"ac"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got lead.Lead
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("expected first match id=1, got %d", got.ID)
	}

	out, err = e.Execute(context.Background(), rc, call(ToolLookupLead, `{"query":"hank@"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got.ID != 3 {
		t.Fatalf("expected contact match id=3, got %d", got.ID)
	}
}

func TestLookupLeadNoMatchRecordsNull(t *testing.T) {
	t.Parallel()

	e, _ := newTestExecutor(t)
	rc := statex.NewRunContext()

	out, err := e.Execute(context.Background(), rc, call(ToolLookupLead, `{"query":"Initech"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "null" {
		t.Fatalf("expected null output, got %s", out)
	}

	want := `[{"args":{"query":"Initech"},"name":"lookup_lead","result":null}]`
	if got := marshalCalls(t, rc); got != want {
		t.Fatalf("unexpected call log:\n got %s\nwant %s", got, want)
	}
}

func TestGetLeadsMatchesAnyField(t *testing.T) {
	t.Parallel()

	e, _ := newTestExecutor(t)
	rc := statex.NewRunContext()

	if _, err := e.Execute(context.Background(), rc, call(ToolGetLeads, `{"keyword":"NEW"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `[{"args":{"keyword":"NEW"},"name":"get_leads","result_count":2}]`
	if got := marshalCalls(t, rc); got != want {
		t.Fatalf("unexpected call log:\n got %s\nwant %s", got, want)
	}

	raw, ok := rc.Get(DataMatches)
	if !ok {
		t.Fatal("matches not set")
	}
	matches := raw.([]lead.Lead)
	if len(matches) != 2 || matches[0].ID != 1 || matches[1].ID != 3 {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestGetLeadsEmptyKeywordMatchesAll(t *testing.T) {
	t.Parallel()

	e, _ := newTestExecutor(t)
	rc := statex.NewRunContext()

	if _, err := e.Execute(context.Background(), rc, call(ToolGetLeads, `{"keyword":""}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, _ := rc.Get(DataMatches)
	if n := len(raw.([]lead.Lead)); n != 3 {
		t.Fatalf("expected all 3 leads, got %d", n)
	}
}

func TestWriteLeadUpdateAppendsAndPublishes(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("queue down")}
	e, store := newTestExecutor(t, WithEventPublisher(pub))
	rc := statex.NewRunContext()
	args := `{"lead_id":3,"note":"budget confirmed","status":"qualified"}`

	for i := 0; i < 2; i++ {
		if _, err := e.Execute(context.Background(), rc, call(ToolWriteLeadUpdate, args)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := store.Get(context.Background(), 3)
	if err != nil {
		t.Fatalf("get lead: %v", err)
	}
	if got.Status != lead.StatusQualified {
		t.Fatalf("unexpected status: %s", got.Status)
	}
	if len(got.Notes) != 2 || got.Notes[0] != "budget confirmed" || got.Notes[1] != "budget confirmed" {
		t.Fatalf("unexpected notes: %v", got.Notes)
	}

	updated, ok := rc.Get(DataUpdatedLead)
	if !ok || updated.(lead.Lead).ID != 3 {
		t.Fatalf("updated_lead not set: %v", updated)
	}
	if len(pub.events) != 2 || pub.events[0].Type != EventLeadUpdated {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestWriteLeadUpdateMissingLead(t *testing.T) {
	t.Parallel()

	e, store := newTestExecutor(t)
	rc := statex.NewRunContext()

	before, _ := store.Search(context.Background(), lead.All())
	_, err := e.Execute(context.Background(), rc, call(ToolWriteLeadUpdate, `{"lead_id":99,"note":"x","status":"working"}`))
	if !errors.Is(err, lead.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "Lead with id 99 not found" {
		t.Fatalf("unexpected error text: %s", err.Error())
	}

	want := `[{"args":{"lead_id":99,"note":"x","status":"working"},"error":"Lead with id 99 not found","name":"write_lead_update"}]`
	if got := marshalCalls(t, rc); got != want {
		t.Fatalf("unexpected call log:\n got %s\nwant %s", got, want)
	}
	if _, ok := rc.Get(DataUpdatedLead); ok {
		t.Fatal("updated_lead must not be set on failure")
	}

	after, _ := store.Search(context.Background(), lead.All())
	if len(before) != len(after) {
		t.Fatalf("store changed: before=%d after=%d", len(before), len(after))
	}
	for i := range before {
		if before[i].Status != after[i].Status || len(before[i].Notes) != len(after[i].Notes) {
			t.Fatalf("lead %d changed", before[i].ID)
		}
	}
}

func TestScoreLeadIndustry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args string
		want string
	}{
		{`{"industry":"Finance"}`, "8"},
		{`{"industry":"RETAIL"}`, "5"},
		{`{"industry":"software"}`, "6"},
		{`{"industry":"Other"}`, "4"},
		{`{"industry":"Healthcare"}`, "3"},
		{`{"industry":""}`, "3"},
		{`{"industry":null}`, "3"},
		{`{}`, "3"},
	}

	e, _ := newTestExecutor(t)
	for _, tt := range tests {
		rc := statex.NewRunContext()
		out, err := e.Execute(context.Background(), rc, call(ToolScoreLeadIndustry, tt.args))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.args, err)
		}
		if out != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.args, tt.want, out)
		}
	}
}

func TestScoreLeadIndustryCallLog(t *testing.T) {
	t.Parallel()

	e, _ := newTestExecutor(t)
	rc := statex.NewRunContext()
	if _, err := e.Execute(context.Background(), rc, call(ToolScoreLeadIndustry, `{"industry":"Finance"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `[{"args":{"industry":"Finance"},"name":"score_lead_industry","result":8}]`
	if got := marshalCalls(t, rc); got != want {
		t.Fatalf("unexpected call log:\n got %s\nwant %s", got, want)
	}
}

func TestExecuteRejectsBadArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tool string
		args string
	}{
		{"unknown tool", "math.evaluate", `{}`},
		{"invalid json", ToolLookupLead, `{"query":`},
		{"not an object", ToolGetLeads, `["x"]`},
		{"missing query", ToolLookupLead, `{}`},
		{"wrong type", ToolGetLeads, `{"keyword":5}`},
		{"bad status", ToolWriteLeadUpdate, `{"lead_id":1,"note":"n","status":"won"}`},
		{"missing note", ToolWriteLeadUpdate, `{"lead_id":1,"status":"new"}`},
	}

	e, _ := newTestExecutor(t)
	for _, tt := range tests {
		rc := statex.NewRunContext()
		_, err := e.Execute(context.Background(), rc, call(tt.tool, tt.args))
		if !errors.Is(err, contractx.ErrSchemaViolation) {
			t.Fatalf("%s: expected schema violation, got %v", tt.name, err)
		}
		if n := len(rc.ToolCalls()); n != 0 {
			t.Fatalf("%s: expected empty call log, got %d entries", tt.name, n)
		}
	}
}

func TestScoreIndustryTable(t *testing.T) {
	t.Parallel()

	if ScoreIndustry("FINANCE") != 8 || ScoreIndustry("Retail") != 5 || ScoreIndustry("") != 3 {
		t.Fatal("unexpected industry score")
	}
}

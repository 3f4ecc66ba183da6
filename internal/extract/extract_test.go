package extract

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Choi-Sungyun0716/deskmate/internal/catalog"
	"github.com/Choi-Sungyun0716/deskmate/internal/llm"
	"github.com/Choi-Sungyun0716/deskmate/internal/oracle"
	"github.com/Choi-Sungyun0716/deskmate/internal/types"
)

// stubChat is called from the extractor's concurrent fan-out, so the call
// counter is atomic.
type stubChat struct {
	calls    atomic.Int64
	response string
	err      error
}

func (s *stubChat) Chat(_ context.Context, _, _ string) (string, llm.Usage, error) {
	s.calls.Add(1)
	return s.response, llm.Usage{}, s.err
}

func newExtractor(chat *stubChat) *Extractor {
	return New(catalog.Default(), oracle.New(chat, "EXTRACT", nil), nil)
}

func TestFillInputs_EmptyFieldSetMakesNoCall(t *testing.T) {
	// A step with no catalog inputs and no inputs_to_collect gets {} and
	// never reaches the oracle
	chat := &stubChat{}
	e := newExtractor(chat)

	plan := types.DomainPlan{Steps: []types.CapabilityStep{
		{Capability: "uncataloged_capability"},
	}}
	e.FillInputs(context.Background(), "q", &plan)

	if n := chat.calls.Load(); n != 0 {
		t.Errorf("expected 0 oracle calls, got %d", n)
	}
	if plan.Steps[0].ExtractedInputs == nil || len(plan.Steps[0].ExtractedInputs) != 0 {
		t.Errorf("expected empty map, got %#v", plan.Steps[0].ExtractedInputs)
	}
}

func TestFillInputs_ResolvesCatalogFields(t *testing.T) {
	// Catalog inputs of the referenced capability are resolved from the query
	chat := &stubChat{response: `{"email_domain.search_query": "김철수 미팅", "email_domain.email_importance": null}`}
	e := newExtractor(chat)

	plan := types.DomainPlan{Steps: []types.CapabilityStep{
		{Capability: "email_search"},
	}}
	e.FillInputs(context.Background(), "김철수 관련 메일 찾아줘", &plan)

	got := plan.Steps[0].ExtractedInputs
	if got["email_domain.search_query"] != "김철수 미팅" {
		t.Errorf("got %#v", got)
	}
	if v, ok := got["email_domain.email_importance"]; !ok || v != nil {
		t.Errorf("unresolved field must be present and nil, got %#v", got)
	}
	if n := chat.calls.Load(); n != 1 {
		t.Errorf("expected 1 oracle call, got %d", n)
	}
}

func TestFillInputs_UnionDeduplicatesPreservingOrder(t *testing.T) {
	// inputs_to_collect is unioned with catalog inputs, first-seen order kept
	e := newExtractor(&stubChat{response: `{}`})

	step := types.CapabilityStep{
		Capability:      "email_search",
		InputsToCollect: []string{"email_domain.search_query", "extra.field"},
	}
	got := e.requiredFields(&step)
	want := []string{"email_domain.search_query", "email_domain.email_importance", "extra.field"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFillInputs_TransportErrorDegradesStep(t *testing.T) {
	// A failing extraction call sets every required field to the absent
	// marker for that step only
	chat := &stubChat{err: errors.New("timeout")}
	e := newExtractor(chat)

	plan := types.DomainPlan{Steps: []types.CapabilityStep{
		{Capability: "email_search"},
	}}
	e.FillInputs(context.Background(), "q", &plan)

	got := plan.Steps[0].ExtractedInputs
	if len(got) != 2 {
		t.Fatalf("expected both required fields present, got %#v", got)
	}
	for field, v := range got {
		if v != nil {
			t.Errorf("field %s: expected absent marker, got %#v", field, v)
		}
	}
}

func TestFillInputs_UnparsableResponseDegradesStep(t *testing.T) {
	// Prose instead of a mapping degrades the step the same way as an error
	chat := &stubChat{response: "I could not extract anything."}
	e := newExtractor(chat)

	plan := types.DomainPlan{Steps: []types.CapabilityStep{
		{Capability: "menu_inquiry"},
	}}
	e.FillInputs(context.Background(), "q", &plan)

	got := plan.Steps[0].ExtractedInputs
	if len(got) != 2 {
		t.Fatalf("expected qa_domain.menu_date and qa_domain.menu_corner, got %#v", got)
	}
	for field, v := range got {
		if v != nil {
			t.Errorf("field %s: expected absent marker, got %#v", field, v)
		}
	}
}

func TestFillInputs_OmittedFieldBecomesAbsent_InventedFieldDropped(t *testing.T) {
	// Fields the oracle omits are filled absent; fields it invents are not
	// carried into the step
	chat := &stubChat{response: `{"qa_domain.menu_date": "2026-09-02", "made.up.field": 1}`}
	e := newExtractor(chat)

	plan := types.DomainPlan{Steps: []types.CapabilityStep{
		{Capability: "menu_inquiry"},
	}}
	e.FillInputs(context.Background(), "내일 식단 알려줘", &plan)

	got := plan.Steps[0].ExtractedInputs
	if got["qa_domain.menu_date"] != "2026-09-02" {
		t.Errorf("got %#v", got)
	}
	if v, ok := got["qa_domain.menu_corner"]; !ok || v != nil {
		t.Errorf("omitted field not filled absent: %#v", got)
	}
	if _, ok := got["made.up.field"]; ok {
		t.Errorf("invented field kept: %#v", got)
	}
}

func TestFillInputs_MultipleStepsKeepOrder(t *testing.T) {
	// Fan-out writes results back to the right steps regardless of
	// completion order
	chat := &stubChat{response: `{}`}
	e := newExtractor(chat)

	plan := types.DomainPlan{Steps: []types.CapabilityStep{
		{Capability: "email_search"},
		{Capability: "uncataloged"},
		{Capability: "menu_inquiry"},
	}}
	e.FillInputs(context.Background(), "q", &plan)

	if _, ok := plan.Steps[0].ExtractedInputs["email_domain.search_query"]; !ok {
		t.Errorf("step 0 missing its own fields: %#v", plan.Steps[0].ExtractedInputs)
	}
	if len(plan.Steps[1].ExtractedInputs) != 0 {
		t.Errorf("step 1 should be empty: %#v", plan.Steps[1].ExtractedInputs)
	}
	if _, ok := plan.Steps[2].ExtractedInputs["qa_domain.menu_date"]; !ok {
		t.Errorf("step 2 missing its own fields: %#v", plan.Steps[2].ExtractedInputs)
	}
}

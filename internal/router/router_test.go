package router

import (
	"context"
	"errors"
	"testing"

	"github.com/Choi-Sungyun0716/deskmate/internal/catalog"
	"github.com/Choi-Sungyun0716/deskmate/internal/llm"
	"github.com/Choi-Sungyun0716/deskmate/internal/oracle"
	"github.com/Choi-Sungyun0716/deskmate/internal/state"
)

type stubChat struct {
	calls    int
	response string
	err      error
}

func (s *stubChat) Chat(_ context.Context, _, _ string) (string, llm.Usage, error) {
	s.calls++
	return s.response, llm.Usage{}, s.err
}

func newRouter(response string) (*Router, *stubChat) {
	chat := &stubChat{response: response}
	return New(catalog.Default(), oracle.New(chat, "ROUTER", nil), nil), chat
}

func TestPlan_SubstitutesQueryForEmptySubInstruction(t *testing.T) {
	// Every task ends up with a non-empty sub_instruction even when the
	// oracle returns an empty one
	r, _ := newRouter(`{
		"domain": "email",
		"intent": "compose",
		"tasks": [
			{"domain": "email_master", "intent": "compose", "reason": "send mail", "sub_instruction": "", "priority": 0},
			{"domain": "schedule_master", "intent": "meeting_room", "reason": "book room", "sub_instruction": "회의실 예약", "priority": 1}
		]
	}`)

	plan, err := r.Plan(context.Background(), "원래 요청 전체", state.Empty(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Tasks[0].SubInstruction != "원래 요청 전체" {
		t.Errorf("empty sub_instruction not substituted: %q", plan.Tasks[0].SubInstruction)
	}
	if plan.Tasks[1].SubInstruction != "회의실 예약" {
		t.Errorf("non-empty sub_instruction overwritten: %q", plan.Tasks[1].SubInstruction)
	}
}

func TestPlan_DomainHintOverrides(t *testing.T) {
	// A caller-supplied hint wins over the oracle's classification
	r, _ := newRouter(`{"domain": "email", "intent": "compose", "tasks": []}`)

	plan, err := r.Plan(context.Background(), "q", state.Empty(), "schedule")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Domain != "schedule" {
		t.Errorf("hint ignored: got %q", plan.Domain)
	}
}

func TestPlan_InfersDomainFromFirstCatalogedTask(t *testing.T) {
	// With no top-level domain, the first task whose handler is cataloged
	// supplies the display domain
	r, _ := newRouter(`{
		"intent": "compose",
		"tasks": [
			{"domain": "made_up_master", "intent": "x", "reason": "r", "sub_instruction": "s", "priority": 0},
			{"domain": "email_master", "intent": "compose", "reason": "r", "sub_instruction": "s", "priority": 1}
		]
	}`)

	plan, err := r.Plan(context.Background(), "q", state.Empty(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Domain != "email" {
		t.Errorf("got %q, want email", plan.Domain)
	}
}

func TestPlan_FallsBackToGeneralDomain(t *testing.T) {
	// No cataloged task at all → "general"
	r, _ := newRouter(`{"tasks": [{"domain": "nope", "intent": "x", "reason": "r", "sub_instruction": "s", "priority": 0}]}`)

	plan, err := r.Plan(context.Background(), "q", state.Empty(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Domain != "general" {
		t.Errorf("got %q, want general", plan.Domain)
	}
}

func TestPlan_DefaultsIntentFromFirstTask(t *testing.T) {
	// With no top-level intent, the first task's intent is used
	r, _ := newRouter(`{
		"domain": "email",
		"tasks": [{"domain": "email_master", "intent": "search", "reason": "r", "sub_instruction": "s", "priority": 0}]
	}`)

	plan, err := r.Plan(context.Background(), "q", state.Empty(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Intent != "search" {
		t.Errorf("got %q, want search", plan.Intent)
	}
}

func TestPlan_SurfacesContractViolation(t *testing.T) {
	// An unparsable response is an unrecoverable error for the request
	r, _ := newRouter("that is not a routing plan")

	_, err := r.Plan(context.Background(), "q", state.Empty(), "")
	var cv *oracle.ContractViolation
	if !errors.As(err, &cv) {
		t.Fatalf("expected ContractViolation, got %v", err)
	}
}

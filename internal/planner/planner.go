// Package planner implements the per-domain tier: one Planner is bound to
// exactly one cataloged domain and turns its slice of the request into an
// ordered capability plan.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Choi-Sungyun0716/deskmate/internal/bus"
	"github.com/Choi-Sungyun0716/deskmate/internal/catalog"
	"github.com/Choi-Sungyun0716/deskmate/internal/extract"
	"github.com/Choi-Sungyun0716/deskmate/internal/oracle"
	"github.com/Choi-Sungyun0716/deskmate/internal/state"
	"github.com/Choi-Sungyun0716/deskmate/internal/types"
)

const systemPrompt = `You are a domain capability planner.
Select the minimal ordered set of capabilities to satisfy the user's request.
Only use capabilities listed in the catalog below.
If required information is missing or an escalation trigger applies, set hitl_required=true and explain why in hitl_reason.`

const outputSchema = `{
  "domain": "<domain name>",
  "intent": "<one of the supported intents>",
  "steps": [
    {
      "capability": "<capability name>",
      "action": "<short description of this invocation>",
      "rationale": "<why this capability>",
      "inputs_to_collect": ["<field paths that must exist before running>"],
      "expected_outputs": ["<field paths this step will produce>"],
      "fallback": null,
      "extracted_inputs": {}
    }
  ],
  "hitl_required": false,
  "hitl_reason": null,
  "goal_summary": "<one sentence describing success>"
}`

// hitlReasonFallback fills the DomainPlan invariant when the oracle flags
// escalation without saying why.
const hitlReasonFallback = "escalation flagged without a stated reason"

// Planner is bound to one domain at construction.
type Planner struct {
	domain    types.Domain
	cat       *catalog.Catalog
	orc       *oracle.Oracle
	extractor *extract.Extractor
	b         *bus.Bus
}

// New binds a Planner to domainName. An uncataloged name fails with the
// catalog's unknown-domain error.
func New(cat *catalog.Catalog, orc *oracle.Oracle, ext *extract.Extractor, b *bus.Bus, domainName string) (*Planner, error) {
	d, err := cat.Domain(domainName)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	return &Planner{domain: d, cat: cat, orc: orc, extractor: ext, b: b}, nil
}

// Domain returns the bound domain name.
func (p *Planner) Domain() string { return p.domain.Name }

// PlanCapabilities produces the DomainPlan for query. taskCtx, when non-nil,
// is the routing task that assigned this query slice; intentOverride, when
// non-empty, wins over the oracle-provided intent.
//
// The returned plan always carries the bound domain name regardless of what
// the oracle claimed, and its steps have extracted inputs filled in.
func (p *Planner) PlanCapabilities(ctx context.Context, query string, snap state.Snapshot, taskCtx *types.DomainTask, intentOverride string) (types.DomainPlan, error) {
	userQuery := "User query: " + query
	if taskCtx != nil {
		taskJSON, _ := json.Marshal(taskCtx)
		userQuery += "\nActive routing task: " + string(taskJSON)
	}

	payload := oracle.Payload{
		SystemInstructions: systemPrompt,
		ContextBlocks: []oracle.Block{
			{Label: "Domain", Text: p.domainText()},
			{Label: "Capability catalog", Text: p.capabilityText()},
			{Label: "Escalation triggers", Text: strings.Join(p.domain.EscalationTriggers, "\n")},
		},
		UserQuery:     userQuery,
		StateSnapshot: snap.JSON(),
		OutputSchema:  outputSchema,
	}

	var plan types.DomainPlan
	if err := p.orc.Invoke(ctx, payload, &plan); err != nil {
		return types.DomainPlan{}, fmt.Errorf("planner [%s]: %w", p.domain.Name, err)
	}

	// Intent precedence: caller override, then oracle, then first supported.
	switch {
	case intentOverride != "":
		plan.Intent = intentOverride
	case plan.Intent == "" && len(p.domain.SupportedIntents) > 0:
		plan.Intent = p.domain.SupportedIntents[0]
	}

	// The oracle does not get to claim another domain.
	plan.Domain = p.domain.Name

	if plan.HITLRequired && (plan.HITLReason == nil || strings.TrimSpace(*plan.HITLReason) == "") {
		reason := hitlReasonFallback
		plan.HITLReason = &reason
	}

	p.extractor.FillInputs(ctx, query, &plan)

	log.Printf("[PLANNER:%s] intent=%s steps=%d hitl=%v", p.domain.Name, plan.Intent, len(plan.Steps), plan.HITLRequired)
	p.publish(plan)
	return plan, nil
}

func (p *Planner) domainText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", p.domain.Name)
	fmt.Fprintf(&sb, "Domain: %s\n", p.domain.DisplayDomain)
	fmt.Fprintf(&sb, "Description: %s\n", p.domain.Description)
	fmt.Fprintf(&sb, "Supported intents: %s", strings.Join(p.domain.SupportedIntents, ", "))
	return sb.String()
}

// capabilityText renders the catalog restricted to the bound domain's chain.
func (p *Planner) capabilityText() string {
	var lines []string
	for _, name := range p.domain.CapabilityChain {
		cp, err := p.cat.Capability(name)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s\n  Inputs: %s\n  Outputs: %s",
			cp.Name, cp.Description, orNA(cp.Inputs), orNA(cp.Outputs)))
	}
	if len(lines) == 0 {
		return "No capabilities registered."
	}
	return strings.Join(lines, "\n")
}

func orNA(fields []string) string {
	if len(fields) == 0 {
		return "n/a"
	}
	return strings.Join(fields, ", ")
}

func (p *Planner) publish(plan types.DomainPlan) {
	if p.b == nil {
		return
	}
	p.b.Publish(types.Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		From:      types.ComponentPlanner,
		Type:      types.EvtPlanReady,
		Payload:   plan,
	})
}

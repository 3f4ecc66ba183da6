// Package router implements the top tier of the pipeline: it splits one
// free-form request into ordered per-domain tasks, each carrying a
// self-contained sub-instruction.
package router

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Choi-Sungyun0716/deskmate/internal/bus"
	"github.com/Choi-Sungyun0716/deskmate/internal/catalog"
	"github.com/Choi-Sungyun0716/deskmate/internal/oracle"
	"github.com/Choi-Sungyun0716/deskmate/internal/state"
	"github.com/Choi-Sungyun0716/deskmate/internal/types"
)

const systemPrompt = `You are the supervisor for an enterprise assistant.
Determine which domain handlers must run (one or multiple) and in what order.
If any mandatory information is missing, set hitl_required=true and explain why in hitl_reason.

Task splitting rules (critical):
- Each task's sub_instruction must be a complete, standalone instruction for that domain alone.
- Restate every entity the task needs (people, times, quantities) even if the user mentioned it once for several tasks.
- Never let a sub_instruction mention actions that belong to a sibling task.
- Lower priority runs earlier. Use distinct priorities when one task's result feeds another.`

const outputSchema = `{
  "domain": "<top-level domain label>",
  "intent": "<top-level intent>",
  "tasks": [
    {
      "domain": "<domain handler name from the catalog>",
      "intent": "<one of the handler's supported intents>",
      "reason": "<why this handler must run>",
      "sub_instruction": "<standalone instruction for this handler>",
      "priority": 0,
      "expected_capabilities": ["<optional capability name hints>"]
    }
  ],
  "hitl_required": false,
  "hitl_reason": null
}`

// Router plans the overall scenario for a request against the domain catalog.
type Router struct {
	cat *catalog.Catalog
	orc *oracle.Oracle
	b   *bus.Bus
}

// New creates a Router. The bus is optional.
func New(cat *catalog.Catalog, orc *oracle.Oracle, b *bus.Bus) *Router {
	return &Router{cat: cat, orc: orc, b: b}
}

// Plan produces the RoutingPlan for query. domainHint, when non-empty,
// overrides the oracle's top-level domain classification.
//
// The single invariant enforced before returning: every task has a non-empty
// sub_instruction. An empty one is replaced by the full original query —
// conservative, never an error. A response that does not decode as a
// RoutingPlan is surfaced as the adapter's *ContractViolation.
func (r *Router) Plan(ctx context.Context, query string, snap state.Snapshot, domainHint string) (types.RoutingPlan, error) {
	payload := oracle.Payload{
		SystemInstructions: systemPrompt,
		ContextBlocks: []oracle.Block{
			{Label: "Known domain handlers", Text: r.catalogText()},
		},
		UserQuery:     "User query: " + query,
		StateSnapshot: snap.JSON(),
		OutputSchema:  outputSchema,
	}

	var plan types.RoutingPlan
	if err := r.orc.Invoke(ctx, payload, &plan); err != nil {
		return types.RoutingPlan{}, fmt.Errorf("router: %w", err)
	}

	if domainHint != "" {
		plan.Domain = domainHint
	} else if plan.Domain == "" {
		plan.Domain = r.inferDomain(plan.Tasks)
	}

	if plan.Intent == "" && len(plan.Tasks) > 0 {
		plan.Intent = plan.Tasks[0].Intent
	}

	// Sub-instruction guarantee: never dispatch an empty slice of the request.
	for i := range plan.Tasks {
		if strings.TrimSpace(plan.Tasks[i].SubInstruction) == "" {
			log.Printf("[ROUTER] task %d (%s): empty sub_instruction — substituting full query", i, plan.Tasks[i].Domain)
			plan.Tasks[i].SubInstruction = query
		}
	}

	log.Printf("[ROUTER] planned domain=%s intent=%s tasks=%d hitl=%v", plan.Domain, plan.Intent, len(plan.Tasks), plan.HITLRequired)
	r.publish(plan)
	return plan, nil
}

// catalogText renders every domain handler summary for the routing prompt.
func (r *Router) catalogText() string {
	var sb strings.Builder
	for _, d := range r.cat.Domains() {
		fmt.Fprintf(&sb, "- %s (domain: %s)\n", d.Name, d.DisplayDomain)
		fmt.Fprintf(&sb, "  Description: %s\n", d.Description)
		fmt.Fprintf(&sb, "  Intents: %s\n", strings.Join(d.SupportedIntents, ", "))
		fmt.Fprintf(&sb, "  Capabilities: %s\n", strings.Join(d.CapabilityChain, ", "))
		fmt.Fprintf(&sb, "  Escalation triggers: %s\n", strings.Join(d.EscalationTriggers, ", "))
	}
	return sb.String()
}

// inferDomain returns the display domain of the first task whose handler is
// cataloged, falling back to "general".
func (r *Router) inferDomain(tasks []types.DomainTask) string {
	for _, t := range tasks {
		if d, err := r.cat.Domain(t.Domain); err == nil {
			return d.DisplayDomain
		}
	}
	return "general"
}

func (r *Router) publish(plan types.RoutingPlan) {
	if r.b == nil {
		return
	}
	r.b.Publish(types.Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		From:      types.ComponentRouter,
		Type:      types.EvtRoutingPlanned,
		Payload:   plan,
	})
}

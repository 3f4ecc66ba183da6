// Package extract post-processes a DomainPlan: for each planned step it asks
// the oracle to resolve concrete argument values for the step's required
// field paths from the original request text.
//
// Failure isolation is per step. A call that errors or returns an unparsable
// mapping degrades that one step — every required field is set to the
// explicit absent marker (nil) — and never aborts the plan.
package extract

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Choi-Sungyun0716/deskmate/internal/bus"
	"github.com/Choi-Sungyun0716/deskmate/internal/catalog"
	"github.com/Choi-Sungyun0716/deskmate/internal/oracle"
	"github.com/Choi-Sungyun0716/deskmate/internal/types"
)

const (
	defaultConcurrency = 4
	defaultCallTimeout = 30 * time.Second
)

const systemPrompt = `Extract structured values for the listed capability input fields from the user query.
Return a JSON object with each field path as a key.
If a value cannot be determined from the query, set it to null. Never omit a field.`

// Extractor fills CapabilityStep.ExtractedInputs for every step of a plan.
type Extractor struct {
	cat         *catalog.Catalog
	orc         *oracle.Oracle
	b           *bus.Bus
	concurrency int
	callTimeout time.Duration
}

// New creates an Extractor with default concurrency and per-call timeout.
// The bus is optional.
func New(cat *catalog.Catalog, orc *oracle.Oracle, b *bus.Bus) *Extractor {
	return &Extractor{
		cat:         cat,
		orc:         orc,
		b:           b,
		concurrency: defaultConcurrency,
		callTimeout: defaultCallTimeout,
	}
}

// FillInputs resolves argument values for every step of plan in place.
// Steps run as a bounded concurrent fan-out; results land back in step
// order because each goroutine owns exactly one step index. Pure with
// respect to everything except plan.Steps[*].ExtractedInputs.
func (e *Extractor) FillInputs(ctx context.Context, query string, plan *types.DomainPlan) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range plan.Steps {
		step := &plan.Steps[i]
		fields := e.requiredFields(step)
		if len(fields) == 0 {
			// Nothing to resolve: no oracle call for this step.
			step.ExtractedInputs = map[string]any{}
			continue
		}
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, e.callTimeout)
			defer cancel()
			step.ExtractedInputs = e.extractStep(callCtx, query, step, fields)
			return nil
		})
	}
	// Per-step failures degrade in place; the group never carries an error.
	_ = g.Wait()
}

// requiredFields is the union of the capability's cataloged inputs and the
// step's own inputs_to_collect, deduplicated preserving first-seen order.
// A step referencing an uncataloged capability contributes only its own list.
func (e *Extractor) requiredFields(step *types.CapabilityStep) []string {
	var fields []string
	if cp, err := e.cat.Capability(step.Capability); err == nil {
		fields = append(fields, cp.Inputs...)
	}
	fields = append(fields, step.InputsToCollect...)

	seen := make(map[string]bool, len(fields))
	unique := fields[:0]
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		unique = append(unique, f)
	}
	return unique
}

// extractStep issues one oracle call for a step and returns the resolved
// mapping. On any failure it returns the fully-absent mapping for fields.
func (e *Extractor) extractStep(ctx context.Context, query string, step *types.CapabilityStep, fields []string) map[string]any {
	payload := oracle.Payload{
		SystemInstructions: systemPrompt,
		ContextBlocks: []oracle.Block{
			{Label: "Capability", Text: step.Capability},
			{Label: "Action", Text: step.Action},
			{Label: "Fields", Text: strings.Join(fields, "\n")},
		},
		UserQuery:    "User query: " + query,
		OutputSchema: `{"<field path>": <value or null>, ...}`,
	}

	var values map[string]any
	if err := e.orc.Invoke(ctx, payload, &values); err != nil {
		log.Printf("[EXTRACT] step %s: degraded: %v", step.Capability, err)
		e.publishDegraded(step.Capability, fields, err)
		return allAbsent(fields)
	}

	// Every required field must be present; fields the oracle omitted are
	// absent, fields it invented are dropped.
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := values[f]; ok {
			out[f] = v
		} else {
			out[f] = nil
		}
	}
	return out
}

func allAbsent(fields []string) map[string]any {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f] = nil
	}
	return m
}

func (e *Extractor) publishDegraded(capability string, fields []string, cause error) {
	if e.b == nil {
		return
	}
	e.b.Publish(types.Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		From:      types.ComponentExtractor,
		Type:      types.EvtExtractionDegraded,
		Payload: types.StepDegraded{
			Capability: capability,
			Fields:     fields,
			Cause:      fmt.Sprintf("%v", cause),
		},
	})
}

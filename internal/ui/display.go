// Package ui renders pipeline progress and finished plans on the terminal.
// Catalog text is Korean, so all column alignment goes through runewidth
// rather than len().
package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Choi-Sungyun0716/deskmate/internal/bus"
	"github.com/Choi-Sungyun0716/deskmate/internal/types"
)

// ANSI codes
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiCyan   = "\033[36m"
	ansiYellow = "\033[33m"
	ansiGreen  = "\033[32m"
	ansiRed    = "\033[31m"
)

var evtStatus = map[types.EventType]string{
	types.EvtRoutingPlanned:     "routing request...",
	types.EvtTaskDispatched:     "planning domain task...",
	types.EvtTaskSkipped:        "skipping unknown domain...",
	types.EvtPlanReady:          "plan ready",
	types.EvtExtractionDegraded: "extraction degraded",
}

// Display prints one dim status line per pipeline event.
type Display struct {
	b *bus.Bus
}

// NewDisplay creates a Display over the bus.
func NewDisplay(b *bus.Bus) *Display {
	return &Display{b: b}
}

// Run subscribes to progress events and prints status lines until ctx ends.
func (d *Display) Run(ctx context.Context) {
	chans := []<-chan types.Event{
		d.b.Subscribe(types.EvtRoutingPlanned),
		d.b.Subscribe(types.EvtTaskDispatched),
		d.b.Subscribe(types.EvtTaskSkipped),
		d.b.Subscribe(types.EvtExtractionDegraded),
	}
	merged := make(chan types.Event, 64)
	for _, ch := range chans {
		ch := ch
		go func() {
			for evt := range ch {
				select {
				case merged <- evt:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-merged:
			status, ok := evtStatus[evt.Type]
			if !ok {
				continue
			}
			fmt.Printf("%s· %s%s\n", ansiDim, status, ansiReset)
		}
	}
}

// RenderResults formats the aggregated dispatch results the way the operator
// reads them: one block per task, a step table per plan.
func RenderResults(results []types.TaskResult) string {
	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "\n%s[%s]%s intent=%s priority=%d\n",
			ansiBold+ansiCyan, r.Task.Domain, ansiReset, r.Task.Intent, r.Task.Priority)
		fmt.Fprintf(&sb, "%s%s%s\n", ansiDim, r.Task.SubInstruction, ansiReset)

		switch {
		case r.Skipped:
			fmt.Fprintf(&sb, "  %sSKIPPED%s — %s\n", ansiYellow, ansiReset, r.SkipReason)
		case r.Failure != nil:
			fmt.Fprintf(&sb, "  %sFAILED%s — %s\n", ansiRed, ansiReset, *r.Failure)
		case r.Plan != nil:
			renderPlan(&sb, r.Plan)
		}
	}
	return sb.String()
}

func renderPlan(sb *strings.Builder, plan *types.DomainPlan) {
	if plan.HITLRequired {
		reason := ""
		if plan.HITLReason != nil {
			reason = *plan.HITLReason
		}
		fmt.Fprintf(sb, "  %s⚠ 담당자 확인 필요:%s %s\n", ansiYellow, ansiReset, reason)
	}
	if plan.GoalSummary != nil && *plan.GoalSummary != "" {
		fmt.Fprintf(sb, "  %s목표: %s%s\n", ansiDim, *plan.GoalSummary, ansiReset)
	}
	for _, step := range plan.Steps {
		fmt.Fprintf(sb, "  - %s%s%s  %s\n", ansiGreen, step.Capability, ansiReset, step.Action)
		fmt.Fprintf(sb, "    %s %s\n", padLabel("필요한 입력값:"), joinOrDash(inputKeys(step)))
		fmt.Fprintf(sb, "    %s %s\n", padLabel("예상 반환값:"), joinOrDash(step.ExpectedOutputs))
		for _, field := range sortedKeys(step.ExtractedInputs) {
			value := step.ExtractedInputs[field]
			if value == nil {
				fmt.Fprintf(sb, "    %s· %s = (미확정)%s\n", ansiDim, field, ansiReset)
			} else {
				fmt.Fprintf(sb, "    · %s = %v\n", field, value)
			}
		}
	}
}

// labelWidth aligns the Korean label column; widths come from runewidth
// because the labels are double-width hangul.
const labelWidth = 16

func padLabel(label string) string {
	pad := labelWidth - runewidth.StringWidth(label)
	if pad < 0 {
		pad = 0
	}
	return label + strings.Repeat(" ", pad)
}

func joinOrDash(fields []string) string {
	if len(fields) == 0 {
		return "-"
	}
	return strings.Join(fields, ", ")
}

func inputKeys(step types.CapabilityStep) []string {
	keys := sortedKeys(step.ExtractedInputs)
	if len(keys) == 0 {
		return step.InputsToCollect
	}
	return keys
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

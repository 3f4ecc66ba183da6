// Package dispatch runs a RoutingPlan: tasks execute strictly sequentially in
// ascending priority order because later tasks may depend on state the
// executor layer writes between them. A task with no registered planner is
// skipped and recorded, never fatal to its siblings.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Choi-Sungyun0716/deskmate/internal/bus"
	"github.com/Choi-Sungyun0716/deskmate/internal/planner"
	"github.com/Choi-Sungyun0716/deskmate/internal/state"
	"github.com/Choi-Sungyun0716/deskmate/internal/types"
)

// Loop dispatches routed tasks to their registered domain planners.
type Loop struct {
	b        *bus.Bus
	planners map[string]*planner.Planner
}

// New creates an empty Loop. The bus is optional.
func New(b *bus.Bus) *Loop {
	return &Loop{b: b, planners: make(map[string]*planner.Planner)}
}

// Register installs a planner under its bound domain name. Registering the
// same domain twice replaces the previous planner.
func (l *Loop) Register(p *planner.Planner) {
	l.planners[p.Domain()] = p
}

// Execute runs every task of plan in ascending priority order (stable on
// ties) and aggregates one TaskResult per task in dispatch order.
//
// A task whose domain has no registered planner yields a skip result; a task
// whose planning call fails yields a failure result. Neither aborts the
// remaining tasks, and an hitl_required plan is a normal result.
func (l *Loop) Execute(ctx context.Context, plan types.RoutingPlan, snap state.Snapshot) []types.TaskResult {
	tasks := make([]types.DomainTask, len(plan.Tasks))
	copy(tasks, plan.Tasks)
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority < tasks[j].Priority
	})

	results := make([]types.TaskResult, 0, len(tasks))
	for i := range tasks {
		task := tasks[i]

		p, ok := l.planners[task.Domain]
		if !ok {
			log.Printf("[DISPATCH] unknown domain %q — task skipped", task.Domain)
			l.publish(types.EvtTaskSkipped, types.TaskSkip{
				Domain: task.Domain,
				Reason: fmt.Sprintf("no planner registered for domain %q", task.Domain),
			})
			results = append(results, types.TaskResult{
				Task:       task,
				Skipped:    true,
				SkipReason: fmt.Sprintf("no planner registered for domain %q", task.Domain),
			})
			continue
		}

		log.Printf("[DISPATCH] task %d/%d → %s (priority=%d): %s", i+1, len(tasks), task.Domain, task.Priority, task.SubInstruction)
		l.publish(types.EvtTaskDispatched, task)

		domainPlan, err := p.PlanCapabilities(ctx, task.SubInstruction, snap, &task, task.Intent)
		if err != nil {
			log.Printf("[DISPATCH] task %s failed: %v", task.Domain, err)
			failure := err.Error()
			results = append(results, types.TaskResult{Task: task, Failure: &failure})
			continue
		}

		results = append(results, types.TaskResult{Task: task, Plan: &domainPlan})
	}
	return results
}

func (l *Loop) publish(t types.EventType, payload any) {
	if l.b == nil {
		return
	}
	l.b.Publish(types.Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		From:      types.ComponentDispatch,
		Type:      t,
		Payload:   payload,
	})
}

package types

import "time"

// Component identifiers used in bus events and log tags.
type Component string

const (
	ComponentUser      Component = "User"
	ComponentRouter    Component = "Router"
	ComponentPlanner   Component = "Planner"
	ComponentExtractor Component = "Extractor"
	ComponentDispatch  Component = "Dispatch"
	ComponentOracle    Component = "Oracle"
	ComponentSession   Component = "Session"
)

// EventType identifies the payload type of a bus event.
type EventType string

const (
	EvtRoutingPlanned     EventType = "RoutingPlanned"
	EvtTaskDispatched     EventType = "TaskDispatched"
	EvtTaskSkipped        EventType = "TaskSkipped"
	EvtPlanReady          EventType = "PlanReady"
	EvtExtractionDegraded EventType = "ExtractionDegraded"
	EvtOracleCall         EventType = "OracleCall"
)

// Event is the envelope for all pipeline notifications on the bus.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	From      Component `json:"from"`
	Type      EventType `json:"type"`
	Payload   any       `json:"payload"`
}

// Capability describes one catalog-registered action: what it does and which
// shared-vocabulary field paths it consumes and produces. Field paths are
// dotted identifiers ("schedule_domain.meeting_room.start_time") shared by
// every domain and the state snapshot.
type Capability struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Inputs      []string `json:"inputs" yaml:"inputs"`
	Outputs     []string `json:"outputs" yaml:"outputs"`
}

// Domain groups capabilities sharing an intent vocabulary and escalation
// rules. CapabilityChain declares default affinity, not a strict execution
// order.
type Domain struct {
	Name               string   `json:"name" yaml:"name"`
	DisplayDomain      string   `json:"display_domain" yaml:"display_domain"`
	Description        string   `json:"description" yaml:"description"`
	SupportedIntents   []string `json:"supported_intents" yaml:"supported_intents"`
	CapabilityChain    []string `json:"capability_chain" yaml:"capability_chain"`
	EscalationTriggers []string `json:"escalation_triggers" yaml:"escalation_triggers"`
}

// CapabilityStep is one planned capability invocation inside a DomainPlan.
// ExtractedInputs maps every required field path to its resolved value; a key
// present with a nil value is the explicit absent marker — fields are never
// silently dropped.
type CapabilityStep struct {
	Capability      string         `json:"capability"`
	Action          string         `json:"action"`
	Rationale       string         `json:"rationale"`
	InputsToCollect []string       `json:"inputs_to_collect"`
	ExpectedOutputs []string       `json:"expected_outputs"`
	Fallback        *string        `json:"fallback,omitempty"`
	ExtractedInputs map[string]any `json:"extracted_inputs"`
}

// DomainPlan is the output of one Domain Planner invocation.
// Domain is always the planner's bound domain regardless of oracle output.
type DomainPlan struct {
	Domain       string           `json:"domain"`
	Intent       string           `json:"intent"`
	Steps        []CapabilityStep `json:"steps"`
	HITLRequired bool             `json:"hitl_required"`
	HITLReason   *string          `json:"hitl_reason,omitempty"`
	GoalSummary  *string          `json:"goal_summary,omitempty"`
}

// DomainTask is one routed slice of the original request.
// SubInstruction is guaranteed non-empty after Router post-processing.
// Lower Priority runs earlier.
type DomainTask struct {
	Domain               string   `json:"domain"`
	Intent               string   `json:"intent"`
	Reason               string   `json:"reason"`
	SubInstruction       string   `json:"sub_instruction"`
	Priority             int      `json:"priority"`
	ExpectedCapabilities []string `json:"expected_capabilities,omitempty"`
}

// RoutingPlan is the Router's output: the full scenario for one request.
// Tasks run in ascending Priority order, ties in emission order.
type RoutingPlan struct {
	Domain       string       `json:"domain"`
	Intent       string       `json:"intent"`
	Tasks        []DomainTask `json:"tasks"`
	HITLRequired bool         `json:"hitl_required"`
	HITLReason   *string      `json:"hitl_reason,omitempty"`
}

// TaskResult pairs a dispatched task with its outcome. Exactly one of
// Plan / Skipped / Failure describes what happened; HITL plans are normal
// results, not failures.
type TaskResult struct {
	Task       DomainTask  `json:"task"`
	Plan       *DomainPlan `json:"plan,omitempty"`
	Skipped    bool        `json:"skipped,omitempty"`
	SkipReason string      `json:"skip_reason,omitempty"`
	Failure    *string     `json:"failure,omitempty"`
}

// TaskSkip is the payload of an EvtTaskSkipped event.
type TaskSkip struct {
	Domain string `json:"domain"`
	Reason string `json:"reason"`
}

// StepDegraded is the payload of an EvtExtractionDegraded event: the named
// step's extraction call failed and every required field was set absent.
type StepDegraded struct {
	Capability string   `json:"capability"`
	Fields     []string `json:"fields"`
	Cause      string   `json:"cause"`
}

// OracleCall is the payload of an EvtOracleCall event, published after each
// round-trip so the trace log can account for token spend.
type OracleCall struct {
	Tier             string `json:"tier"`
	PromptChars      int    `json:"prompt_chars"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

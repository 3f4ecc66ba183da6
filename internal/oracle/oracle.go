// Package oracle adapts the raw chat transport into the narrow contract the
// planning pipeline consumes: one structured prompt payload in, one
// strict-decoded response shape out. The adapter performs no retries; a
// response that does not decode into the declared shape is a
// *ContractViolation carrying the raw payload, never a best-effort struct.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Choi-Sungyun0716/deskmate/internal/bus"
	"github.com/Choi-Sungyun0716/deskmate/internal/llm"
	"github.com/Choi-Sungyun0716/deskmate/internal/types"
)

// Chatter is the transport the adapter speaks to. *llm.Client satisfies it;
// tests substitute stubs with call counters.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, llm.Usage, error)
}

// ContractViolation reports an oracle response that could not be decoded into
// the declared shape. Raw preserves the full (fence-stripped) response text
// for the trace log and the caller's error report.
type ContractViolation struct {
	Tier string
	Raw  string
	Err  error
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("oracle [%s]: response violates declared shape: %v (raw: %s)", e.Tier, e.Err, e.Raw)
}

func (e *ContractViolation) Unwrap() error { return e.Err }

// Block is one labeled context block inside a structured prompt.
type Block struct {
	Label string
	Text  string
}

// Payload is the structured call shape: system instructions, ordered context
// blocks, the user query, a serialized state snapshot, and a description of
// the output schema the response must follow.
type Payload struct {
	SystemInstructions string
	ContextBlocks      []Block
	UserQuery          string
	StateSnapshot      string
	OutputSchema       string
}

// Oracle is the adapter bound to one transport tier. The bus is optional;
// when present, every round-trip publishes an EvtOracleCall event.
type Oracle struct {
	chat Chatter
	tier string
	b    *bus.Bus
}

// New creates an Oracle over the given transport. tier names the adapter in
// errors, logs, and bus events ("ROUTER", "PLANNER", "EXTRACT").
func New(chat Chatter, tier string, b *bus.Bus) *Oracle {
	return &Oracle{chat: chat, tier: tier, b: b}
}

// Invoke sends the structured payload and decodes the response into out.
// out must be a pointer to the expected shape. Decode failures return a
// *ContractViolation; out is left untouched in that case.
func (o *Oracle) Invoke(ctx context.Context, p Payload, out any) error {
	system, user := p.render()

	raw, usage, err := o.chat.Chat(ctx, system, user)
	o.publishCall(len(system)+len(user), usage)
	if err != nil {
		return fmt.Errorf("oracle [%s]: %w", o.tier, err)
	}

	// Decode into a fresh value first so out is never partially populated
	// when the response violates the shape.
	cleaned := llm.StripFences(raw)
	tmp := reflect.New(reflect.TypeOf(out).Elem())
	if err := json.Unmarshal([]byte(cleaned), tmp.Interface()); err != nil {
		return &ContractViolation{Tier: o.tier, Raw: cleaned, Err: err}
	}
	reflect.ValueOf(out).Elem().Set(tmp.Elem())
	return nil
}

// InvokeFreeform sends a plain prompt and returns the assistant text as-is.
func (o *Oracle) InvokeFreeform(ctx context.Context, prompt string) (string, error) {
	raw, usage, err := o.chat.Chat(ctx, "", prompt)
	o.publishCall(len(prompt), usage)
	if err != nil {
		return "", fmt.Errorf("oracle [%s]: %w", o.tier, err)
	}
	return raw, nil
}

// render flattens the payload into the system/user prompt pair the chat
// transport expects. Context blocks keep their declared order.
func (p Payload) render() (system, user string) {
	var sys strings.Builder
	sys.WriteString(p.SystemInstructions)
	for _, blk := range p.ContextBlocks {
		sys.WriteString("\n\n## ")
		sys.WriteString(blk.Label)
		sys.WriteString("\n")
		sys.WriteString(blk.Text)
	}
	if p.OutputSchema != "" {
		sys.WriteString("\n\n## Output schema\n")
		sys.WriteString(p.OutputSchema)
		sys.WriteString("\nOutput ONLY a valid JSON value matching this schema. No markdown, no prose, no code fences.")
	}

	var usr strings.Builder
	usr.WriteString(p.UserQuery)
	if p.StateSnapshot != "" {
		usr.WriteString("\n\nCurrent state snapshot:\n")
		usr.WriteString(p.StateSnapshot)
	}
	return sys.String(), usr.String()
}

func (o *Oracle) publishCall(promptChars int, usage llm.Usage) {
	if o.b == nil {
		return
	}
	o.b.Publish(types.Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		From:      types.ComponentOracle,
		Type:      types.EvtOracleCall,
		Payload: types.OracleCall{
			Tier:             o.tier,
			PromptChars:      promptChars,
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
		},
	})
}

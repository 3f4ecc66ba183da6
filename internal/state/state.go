// Package state provides the read-only shared-state snapshot handed through
// the pipeline. No planning component writes to it; proposed mutations only
// appear as expected_outputs / extracted_inputs entries in returned plans,
// to be applied by the external executor layer.
package state

import "encoding/json"

// Snapshot is an immutable view over field-path → value pairs.
type Snapshot struct {
	values map[string]any
}

// New copies values into a fresh Snapshot. The caller's map is not retained,
// so later writes to it cannot leak into an in-flight plan.
func New(values map[string]any) Snapshot {
	copied := make(map[string]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Snapshot{values: copied}
}

// Empty returns a Snapshot with no fields.
func Empty() Snapshot {
	return Snapshot{values: map[string]any{}}
}

// Get returns the value stored under the given field path.
func (s Snapshot) Get(fieldPath string) (any, bool) {
	v, ok := s.values[fieldPath]
	return v, ok
}

// Len reports the number of stored fields.
func (s Snapshot) Len() int { return len(s.values) }

// JSON serializes the snapshot for prompt embedding. encoding/json sorts map
// keys, so the output is stable for identical snapshots.
func (s Snapshot) JSON() string {
	b, err := json.Marshal(s.values)
	if err != nil {
		return "{}"
	}
	return string(b)
}

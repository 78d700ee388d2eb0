package audit

import (
	"github.com/3r453r/math-courses-sub001/llm"
	"github.com/3r453r/math-courses-sub001/types"
)

// AttemptRecord is the per-layer state accumulated over one generation
// attempt. Outcome resolution is a pure function of this state.
type AttemptRecord struct {
	Layer0Invoked bool           `json:"layer0_invoked"`
	Layer0Result  llm.HookResult `json:"layer0_result,omitempty"`

	// InvocationSucceeded is the explicit signal that the underlying
	// invocation accepted a value (possibly after internal repair).
	// repaired_layer0 is never inferred from the absence of later layers
	// alone.
	InvocationSucceeded bool `json:"invocation_succeeded"`

	Layer1Invoked bool `json:"layer1_invoked"`
	Layer1Success bool `json:"layer1_success"`

	Layer2Invoked bool `json:"layer2_invoked"`
	Layer2Success bool `json:"layer2_success"`

	FailureRecorded bool `json:"failure_recorded"`
}

// ResolveOutcome derives the terminal outcome from recorded layer state.
// Exported as a pure query for testing and inspection; it touches no
// persistence.
func ResolveOutcome(rec AttemptRecord) types.Outcome {
	if rec.Layer2Success {
		return types.OutcomeRepairedLayer2
	}
	if rec.Layer1Success {
		return types.OutcomeRepairedLayer1
	}
	if rec.Layer0Invoked && !rec.Layer1Invoked && !rec.Layer2Invoked {
		accepted := rec.Layer0Result == llm.HookCoercionSuccess || rec.Layer0Result == llm.HookUnwrappedOnly
		if accepted && rec.InvocationSucceeded {
			return types.OutcomeRepairedLayer0
		}
		return types.OutcomeFailed
	}
	if rec.Layer1Invoked || rec.Layer2Invoked {
		return types.OutcomeFailed
	}
	if rec.FailureRecorded {
		return types.OutcomeFailed
	}
	return types.OutcomeSuccess
}

package llm

import (
	"context"

	"github.com/3r453r/math-courses-sub001/schema"
	"github.com/3r453r/math-courses-sub001/textrepair"
)

// HookResult is the categorical result an in-flight repair hook reports.
type HookResult string

const (
	HookCoercionSuccess HookResult = "coercion-success"
	HookUnwrappedOnly   HookResult = "unwrapped-only"
	HookParseFailed     HookResult = "json-parse-failed"
	HookReturnedNull    HookResult = "returned-null"
)

// HookReport captures what the layer-0 repair hook did when the invoker's
// internal JSON parse of the raw response failed.
type HookReport struct {
	Result        HookResult `json:"result"`
	EnvelopeKind  string     `json:"envelope_kind,omitempty"`
	OriginalError string     `json:"original_error,omitempty"`
}

// Accepted reports whether the hook produced a value the invocation
// accepted.
func (r *HookReport) Accepted() bool {
	return r != nil && (r.Result == HookCoercionSuccess || r.Result == HookUnwrappedOnly)
}

// RepairHook is invoked by the model-invocation collaborator when its own
// parse of the raw response fails. It returns a replacement value (nil on
// failure) together with a report of what happened.
type RepairHook func(raw string, parseErr error) (any, *HookReport)

// InvokeRequest describes one model invocation.
type InvokeRequest struct {
	Prompt      string
	Schema      *schema.Schema
	Provider    Provider
	Model       string
	MaxTokens   int
	Temperature float32

	// RepairHook, when set, fires inside the invocation on internal
	// parse failure (layer 0 of the recovery strategy).
	RepairHook RepairHook
}

// InvokeResult is the successful outcome of an invocation. HookReport is
// non-nil only when the invocation succeeded because the repair hook
// fired, which is the explicit "succeeded after internal repair" signal
// the outcome resolver requires.
type InvokeResult struct {
	Value      any
	Raw        string
	HookReport *HookReport
}

// Invoker is the opaque model-invocation capability. Failures should be
// returned as *types.Error with the raw response text attached whenever
// output existed, so the repair layers can run on it.
type Invoker interface {
	Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResult, error)
}

// NewRepairHook builds the standard layer-0 hook: apply quote repair,
// reparse, and strip a known wrapper envelope if present.
func NewRepairHook(s *schema.Schema) RepairHook {
	return func(raw string, parseErr error) (any, *HookReport) {
		report := &HookReport{}
		if parseErr != nil {
			report.OriginalError = parseErr.Error()
		}

		parsed, err := textrepair.LenientParse(raw)
		if err != nil {
			report.Result = HookParseFailed
			return nil, report
		}
		if parsed == nil {
			report.Result = HookReturnedNull
			return nil, report
		}

		if inner, kind, ok := textrepair.UnwrapEnvelope(parsed); ok {
			report.Result = HookUnwrappedOnly
			report.EnvelopeKind = kind
			return inner, report
		}

		report.Result = HookCoercionSuccess
		return parsed, report
	}
}

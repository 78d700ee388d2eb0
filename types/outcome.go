package types

// Outcome is the terminal classification of one generation attempt after
// all applicable repair layers have run. It is derived from the recorded
// layer state by audit.ResolveOutcome, never set directly by calling code.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeRepairedLayer0 Outcome = "repaired_layer0"
	OutcomeRepairedLayer1 Outcome = "repaired_layer1"
	OutcomeRepairedLayer2 Outcome = "repaired_layer2"
	OutcomeFailed         Outcome = "failed"
)

// Repaired reports whether the outcome required any repair layer.
func (o Outcome) Repaired() bool {
	switch o {
	case OutcomeRepairedLayer0, OutcomeRepairedLayer1, OutcomeRepairedLayer2:
		return true
	}
	return false
}

// Valid reports whether o is one of the five defined outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeRepairedLayer0, OutcomeRepairedLayer1,
		OutcomeRepairedLayer2, OutcomeFailed:
		return true
	}
	return false
}

package enum

import (
	"encoding/json"
)

// CheckoutState is the state of a cashier's checkout orchestrator
type CheckoutState int

const (
	CheckoutStateIdle       CheckoutState = 0
	CheckoutStateSubmitting CheckoutState = 1
	CheckoutStateSucceeded  CheckoutState = 2
	CheckoutStateFailed     CheckoutState = 3
)

func (s CheckoutState) String() string {
	names := [...]string{"Idle", "Submitting", "Succeeded", "Failed"}
	if int(s) < 0 || int(s) >= len(names) {
		return "Idle"
	}
	return names[s]
}

// CanTransitionTo reports whether the orchestrator may move from s to next.
func (s CheckoutState) CanTransitionTo(next CheckoutState) bool {
	switch s {
	case CheckoutStateIdle, CheckoutStateFailed:
		return next == CheckoutStateSubmitting || next == CheckoutStateIdle
	case CheckoutStateSubmitting:
		return next == CheckoutStateSucceeded || next == CheckoutStateFailed
	case CheckoutStateSucceeded:
		return next == CheckoutStateIdle
	}
	return false
}

func (s CheckoutState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *CheckoutState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = CheckoutState(i)
		return nil
	}
	switch str {
	case "Idle":
		*s = CheckoutStateIdle
	case "Submitting":
		*s = CheckoutStateSubmitting
	case "Succeeded":
		*s = CheckoutStateSucceeded
	case "Failed":
		*s = CheckoutStateFailed
	}
	return nil
}

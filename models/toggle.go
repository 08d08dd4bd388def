// campusvoice/models/toggle.go
package models

// Transition is the change a toggle request makes to a stored per-device choice.
type Transition int

const (
	TransitionInsert Transition = iota // no prior choice
	TransitionDelete                   // same choice again cancels it
	TransitionUpdate                   // switched to the other choice
)

func (t Transition) String() string {
	switch t {
	case TransitionInsert:
		return "insert"
	case TransitionDelete:
		return "delete"
	case TransitionUpdate:
		return "update"
	}
	return "unknown"
}

// Toggle decides what happens when a device requests choice next while
// holding existing. A nil existing means the device has no stored choice.
func Toggle[T comparable](existing *T, next T) Transition {
	switch {
	case existing == nil:
		return TransitionInsert
	case *existing == next:
		return TransitionDelete
	default:
		return TransitionUpdate
	}
}

// ScoreDelta is the amount a vote transition adds to a problem's score.
func ScoreDelta(t Transition, requested VoteType) int {
	sign := 1
	if requested == VoteDown {
		sign = -1
	}
	switch t {
	case TransitionInsert:
		return sign
	case TransitionDelete:
		return -sign
	case TransitionUpdate:
		return 2 * sign
	}
	return 0
}

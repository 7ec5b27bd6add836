package scaling

// Action represents a scaling decision action.
type Action string

const (
	// ActionScaleUp indicates the slot ceiling should be raised.
	ActionScaleUp Action = "scale_up"

	// ActionScaleDown indicates the slot ceiling should be lowered.
	ActionScaleDown Action = "scale_down"

	// ActionNone indicates no change is needed.
	ActionNone Action = "none"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Load is the queue/slot occupancy snapshot a policy evaluates.
type Load struct {
	// Queued is the number of attempts waiting for dispatch.
	Queued int

	// Dispatched is the number of attempts running on the backend.
	Dispatched int

	// Capacity is the current slot ceiling.
	Capacity int
}

// Decision is the result of evaluating the scaling policy against the
// current load.
type Decision struct {
	// Action is the recommended scaling action.
	Action Action

	// Delta is the number of slots to add (positive) or remove
	// (negative). Zero when Action is ActionNone.
	Delta int

	// Reason is a human-readable explanation of the decision.
	Reason string
}

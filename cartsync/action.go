package cartsync

// ActionKind identifies one of the cart operations. The set is closed; the
// reducer switches over it exhaustively.
type ActionKind int

const (
	ActionFetch ActionKind = iota
	ActionAdd
	ActionUpdateQuantity
	ActionRemove
	ActionClear
	ActionMerge
)

// String returns the metric/log label for the action.
func (k ActionKind) String() string {
	switch k {
	case ActionFetch:
		return "fetch"
	case ActionAdd:
		return "add"
	case ActionUpdateQuantity:
		return "update_quantity"
	case ActionRemove:
		return "remove"
	case ActionClear:
		return "clear"
	case ActionMerge:
		return "merge"
	default:
		return "unknown"
	}
}

// phase is the settlement state of a dispatched action.
type phase int

const (
	phasePending phase = iota
	phaseFulfilled
	phaseRejected
)

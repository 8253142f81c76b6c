package cartsync

import "github.com/utafrali/storefront-go/api"

// transition is the result of a dispatched action funneled into the reducer.
type transition struct {
	kind     ActionKind
	phase    phase
	envelope *api.CartEnvelope
	errMsg   string
}

// reduce applies a transition to the state. It is the single mutation entry
// point for the cart; callers hold the state lock.
//
// Every fulfilled mutation replaces items and total wholesale from the server
// envelope. Initialized flips to true when the first fetch settles, success
// or failure, and never reverts here.
func reduce(s *State, t transition) {
	switch t.phase {
	case phasePending:
		s.Loading = true
		s.Error = ""

	case phaseFulfilled:
		s.Loading = false
		// The envelope is handed back to the caller, so keep our own copy of
		// the item slice rather than aliasing it.
		items := make([]api.CartItem, len(t.envelope.Data))
		copy(items, t.envelope.Data)
		s.Items = items
		s.Total = t.envelope.Total

		switch t.kind {
		case ActionFetch:
			s.Initialized = true
			if t.envelope.GuestCartToken != "" {
				s.GuestCartToken = t.envelope.GuestCartToken
			}
		case ActionAdd:
			if t.envelope.GuestCartToken != "" {
				s.GuestCartToken = t.envelope.GuestCartToken
			}
		case ActionMerge:
			// The guest cart now belongs to the authenticated customer.
			s.GuestCartToken = ""
		case ActionUpdateQuantity, ActionRemove, ActionClear:
			// Items/total replacement above is the whole effect.
		}

	case phaseRejected:
		s.Loading = false
		s.Error = t.errMsg
		if t.kind == ActionFetch {
			// Settle initialization even on failure so consumers stop blocking.
			s.Initialized = true
		}
	}
}

package cartsync

import (
	"encoding/json"

	"github.com/utafrali/storefront-go/api"
)

// State is the local view of the session's cart. It is owned exclusively by
// the reducer; nothing outside this package mutates it directly. Items and
// Total are always server-supplied, never recomputed locally, so client
// pricing can never drift from backend pricing.
type State struct {
	Items          []api.CartItem `json:"items"`
	Total          int64          `json:"total"`
	GuestCartToken string         `json:"guest_cart_token,omitempty"`
	Loading        bool           `json:"-"`
	Error          string         `json:"-"`
	Initialized    bool           `json:"-"`
}

// ItemCount returns the sum of line quantities, not the number of lines.
func (s *State) ItemCount() int {
	var count int
	for _, item := range s.Items {
		count += item.Quantity
	}
	return count
}

// findItem returns the index of the line item with the given server ID, or -1.
func (s *State) findItem(itemID int64) int {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// findByProduct returns the index of the line item for the product, or -1.
func (s *State) findByProduct(productID int64) int {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// snapshot is the persisted subset of State. Transient flags (loading, error,
// initialized) are deliberately excluded: a fresh process must refetch before
// trusting the cart.
type snapshot struct {
	Items          []api.CartItem `json:"items"`
	Total          int64          `json:"total"`
	GuestCartToken string         `json:"guest_cart_token,omitempty"`
}

// marshalSnapshot serializes the persistable subset of the state.
func (s *State) marshalSnapshot() (string, error) {
	data, err := json.Marshal(snapshot{
		Items:          s.Items,
		Total:          s.Total,
		GuestCartToken: s.GuestCartToken,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// restoreSnapshot loads a persisted snapshot into the state. Initialized is
// left false so the first fetch still runs.
func (s *State) restoreSnapshot(raw string) error {
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return err
	}
	s.Items = snap.Items
	s.Total = snap.Total
	s.GuestCartToken = snap.GuestCartToken
	return nil
}

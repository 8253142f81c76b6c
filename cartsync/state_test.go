package cartsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-go/api"
)

func TestItemCount_SumsQuantities(t *testing.T) {
	s := State{Items: []api.CartItem{
		{ID: 1, ProductID: 42, Quantity: 2},
		{ID: 2, ProductID: 7, Quantity: 3},
	}}
	assert.Equal(t, 5, s.ItemCount())
}

func TestItemCount_Empty(t *testing.T) {
	s := State{}
	assert.Equal(t, 0, s.ItemCount())
}

func TestFindItem(t *testing.T) {
	s := State{Items: []api.CartItem{
		{ID: 1, ProductID: 42},
		{ID: 2, ProductID: 7},
	}}
	assert.Equal(t, 1, s.findItem(2))
	assert.Equal(t, -1, s.findItem(99))
}

func TestFindByProduct(t *testing.T) {
	s := State{Items: []api.CartItem{
		{ID: 1, ProductID: 42},
	}}
	assert.Equal(t, 0, s.findByProduct(42))
	assert.Equal(t, -1, s.findByProduct(7))
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s := State{
		Items:          []api.CartItem{{ID: 1, ProductID: 42, Quantity: 2}},
		Total:          10000,
		GuestCartToken: "tok-abc",
		Loading:        true,
		Error:          "transient",
		Initialized:    true,
	}

	raw, err := s.marshalSnapshot()
	require.NoError(t, err)

	var restored State
	require.NoError(t, restored.restoreSnapshot(raw))

	assert.Equal(t, s.Items, restored.Items)
	assert.Equal(t, int64(10000), restored.Total)
	assert.Equal(t, "tok-abc", restored.GuestCartToken)

	// Transient flags never survive a restore; a fresh process refetches.
	assert.False(t, restored.Loading)
	assert.Empty(t, restored.Error)
	assert.False(t, restored.Initialized)
}

func TestRestoreSnapshot_InvalidJSON(t *testing.T) {
	var s State
	assert.Error(t, s.restoreSnapshot("{not json"))
}

package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olprint/storefront/core"
)

func TestSeedOrders(t *testing.T) {
	s := NewStore(nil, SeedOrders()...)

	list := s.List()
	require.Len(t, list, 5)
	assert.Equal(t, "OL-1002-Z", list[0].ID)
	assert.Equal(t, StatusProcessing, list[0].Status)
	assert.Equal(t, ActionCancel, list[0].Action)
}

func TestGet(t *testing.T) {
	s := NewStore(nil, SeedOrders()...)

	o, err := s.Get("OL-9942-Y")
	require.NoError(t, err)
	assert.Equal(t, StatusOutForDelivery, o.Status)

	_, err = s.Get("OL-0000-Q")
	assert.ErrorIs(t, err, core.ErrOrderNotFound)
}

func TestStatusProgression(t *testing.T) {
	s := NewStore(nil, SeedOrders()...)

	require.NoError(t, s.UpdateStatus("OL-1002-Z", StatusShipped))
	o, err := s.Get("OL-1002-Z")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, o.Status)
	assert.Equal(t, ActionTrack, o.Action)

	require.NoError(t, s.UpdateStatus("OL-1002-Z", StatusOutForDelivery))
	require.NoError(t, s.UpdateStatus("OL-1002-Z", StatusDelivered))

	o, err = s.Get("OL-1002-Z")
	require.NoError(t, err)
	assert.Equal(t, ActionInvoice, o.Action)
}

func TestInvalidTransitions(t *testing.T) {
	s := NewStore(nil, SeedOrders()...)

	// Skipping ahead is not allowed
	err := s.UpdateStatus("OL-1002-Z", StatusDelivered)
	assert.ErrorIs(t, err, core.ErrInvalidStatusChange)

	// Delivered is terminal
	err = s.UpdateStatus("OL-8821-X", StatusShipped)
	assert.ErrorIs(t, err, core.ErrInvalidStatusChange)

	err = s.UpdateStatus("OL-0000-Q", StatusShipped)
	assert.ErrorIs(t, err, core.ErrOrderNotFound)
}

func TestCancel(t *testing.T) {
	s := NewStore(nil, SeedOrders()...)

	require.NoError(t, s.Cancel("OL-1002-Z"))
	o, err := s.Get("OL-1002-Z")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, ActionNone, o.Action)

	// Cancellation is only possible while processing
	assert.ErrorIs(t, s.Cancel("OL-9942-Y"), core.ErrInvalidStatusChange)
	assert.ErrorIs(t, s.Cancel("OL-1002-Z"), core.ErrInvalidStatusChange)
}

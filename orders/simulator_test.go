package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olprint/storefront/core"
)

func simConfig(delay time.Duration) core.SimulationConfig {
	return core.SimulationConfig{
		TargetOrderID:    "OL-1002-Z",
		StatusDelay:      delay,
		ToastAutoDismiss: time.Minute,
	}
}

func TestSimulatorShipsTargetOrder(t *testing.T) {
	store := NewStore(nil, SeedOrders()...)
	center := NewCenter(time.Minute, nil)
	defer center.Close()

	sim := NewSimulator(store, center, simConfig(10*time.Millisecond), nil)
	require.NoError(t, sim.Start())
	defer sim.Close()

	require.Eventually(t, func() bool {
		o, err := store.Get("OL-1002-Z")
		return err == nil && o.Status == StatusShipped
	}, time.Second, 5*time.Millisecond)

	o, err := store.Get("OL-1002-Z")
	require.NoError(t, err)
	assert.Equal(t, ActionTrack, o.Action)

	// Exactly one notification and one toast
	list := center.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Encomenda Enviada!", list[0].Title)
	assert.Contains(t, list[0].Message, "OL-1002-Z")
	assert.Equal(t, TypeInfo, list[0].Type)

	toast := center.Toast()
	require.NotNil(t, toast)
	assert.Equal(t, list[0].ID, toast.ID)
}

func TestSimulatorStartTwice(t *testing.T) {
	store := NewStore(nil, SeedOrders()...)
	center := NewCenter(0, nil)
	defer center.Close()

	sim := NewSimulator(store, center, simConfig(time.Minute), nil)
	require.NoError(t, sim.Start())
	defer sim.Close()

	assert.ErrorIs(t, sim.Start(), core.ErrSimulationAlreadyRan)
}

func TestSimulatorSkipsCancelledOrder(t *testing.T) {
	store := NewStore(nil, SeedOrders()...)
	center := NewCenter(0, nil)
	defer center.Close()

	require.NoError(t, store.Cancel("OL-1002-Z"))

	sim := NewSimulator(store, center, simConfig(5*time.Millisecond), nil)
	require.NoError(t, sim.Start())
	defer sim.Close()

	time.Sleep(30 * time.Millisecond)

	o, err := store.Get("OL-1002-Z")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Empty(t, center.List())
}

func TestSimulatorClosePreventsFiring(t *testing.T) {
	store := NewStore(nil, SeedOrders()...)
	center := NewCenter(0, nil)
	defer center.Close()

	sim := NewSimulator(store, center, simConfig(20*time.Millisecond), nil)
	require.NoError(t, sim.Start())
	sim.Close()

	time.Sleep(50 * time.Millisecond)

	o, err := store.Get("OL-1002-Z")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, o.Status)
	assert.Empty(t, center.List())
}

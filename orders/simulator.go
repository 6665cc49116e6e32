package orders

import (
	"fmt"
	"sync"
	"time"

	"github.com/olprint/storefront/core"
)

// Simulator flips the target order from processing to shipped after a
// configured delay, producing exactly one notification and one toast. It
// fires at most once per Start and is stoppable through Close.
type Simulator struct {
	store  *Store
	center *Center
	cfg    core.SimulationConfig
	logger core.Logger

	mu      sync.Mutex
	timer   *time.Timer
	started bool
	fired   bool
}

// NewSimulator wires the scripted status update to the order store and
// notification center.
func NewSimulator(store *Store, center *Center, cfg core.SimulationConfig, logger core.Logger) *Simulator {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &Simulator{
		store:  store,
		center: center,
		cfg:    cfg,
		logger: logger,
	}
}

// Start arms the one-shot timer. Starting twice is an error.
func (s *Simulator) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return core.ErrSimulationAlreadyRan
	}
	s.started = true
	s.timer = time.AfterFunc(s.cfg.StatusDelay, s.fire)

	s.logger.Info("Order status simulation armed", map[string]interface{}{
		"operation": "simulation_start",
		"order_id":  s.cfg.TargetOrderID,
		"delay_ms":  s.cfg.StatusDelay.Milliseconds(),
	})
	return nil
}

func (s *Simulator) fire() {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	s.mu.Unlock()

	target := s.cfg.TargetOrderID

	// Only a still-processing order is flipped; anything else means the
	// customer got there first (e.g. cancelled it)
	order, err := s.store.Get(target)
	if err != nil || order.Status != StatusProcessing {
		s.logger.Debug("Simulation skipped - order not in processing state", map[string]interface{}{
			"operation": "simulation_skip",
			"order_id":  target,
		})
		return
	}

	if err := s.store.UpdateStatus(target, StatusShipped); err != nil {
		s.logger.Warn("Simulation could not update order", map[string]interface{}{
			"operation": "simulation_error",
			"order_id":  target,
			"error":     err.Error(),
		})
		return
	}

	s.center.Push(
		"Encomenda Enviada!",
		fmt.Sprintf("A sua encomenda #%s saiu do nosso armazém e está a caminho.", target),
		TypeInfo,
	)
}

// Close disarms the timer if it has not fired yet
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

package chat

import (
	"context"
	"sync"
	"time"
)

const (
	StatusConnected    = "Connected"
	StatusDisconnected = "Disconnected"
)

// connectionSource is the part of the transport the monitor needs.
type connectionSource interface {
	IsConnected() bool
}

// Monitor polls the transport's connection flag on a fixed interval and
// notifies on transitions. The transport exposes no connect/disconnect
// event, so polling is the only way to observe state changes.
type Monitor struct {
	source   connectionSource
	interval time.Duration
	onChange func(connected bool)

	mu        sync.Mutex
	connected bool
}

// NewMonitor creates a monitor polling source every interval. onChange,
// when non-nil, fires only when the observed state differs from the
// previous tick.
func NewMonitor(source connectionSource, interval time.Duration, onChange func(bool)) *Monitor {
	return &Monitor{
		source:    source,
		interval:  interval,
		onChange:  onChange,
		connected: source.IsConnected(),
	}
}

// Run polls until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Monitor) tick() {
	now := m.source.IsConnected()

	m.mu.Lock()
	changed := now != m.connected
	m.connected = now
	m.mu.Unlock()

	if changed && m.onChange != nil {
		m.onChange(now)
	}
}

// Connected reports the state observed at the last tick.
func (m *Monitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Status returns a display label for the last observed state.
func (m *Monitor) Status() string {
	if m.Connected() {
		return StatusConnected
	}
	return StatusDisconnected
}

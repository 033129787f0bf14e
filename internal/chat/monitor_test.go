package chat

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	connected atomic.Bool
}

func (f *fakeSource) IsConnected() bool {
	return f.connected.Load()
}

func TestMonitor_NotifiesOnTransitionOnly(t *testing.T) {
	source := &fakeSource{}
	source.connected.Store(true)

	var mu sync.Mutex
	var transitions []bool
	m := NewMonitor(source, 5*time.Millisecond, func(connected bool) {
		mu.Lock()
		transitions = append(transitions, connected)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// Steady state: several ticks pass with no notification.
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.Empty(t, transitions)
	mu.Unlock()

	source.connected.Store(false)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) == 1 && transitions[0] == false
	}, time.Second, 5*time.Millisecond)

	source.connected.Store(true)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) == 2 && transitions[1] == true
	}, time.Second, 5*time.Millisecond)

	// No further flapping, no further notifications.
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.Len(t, transitions, 2)
	mu.Unlock()
}

func TestMonitor_ConnectedAndStatus(t *testing.T) {
	source := &fakeSource{}
	m := NewMonitor(source, 5*time.Millisecond, nil)

	assert.False(t, m.Connected())
	assert.Equal(t, StatusDisconnected, m.Status())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	source.connected.Store(true)
	require.Eventually(t, m.Connected, time.Second, 5*time.Millisecond)
	assert.Equal(t, StatusConnected, m.Status())
}

func TestMonitor_StopsOnContextDone(t *testing.T) {
	source := &fakeSource{}
	m := NewMonitor(source, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after context cancellation")
	}
}

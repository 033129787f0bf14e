package chat

import (
	"sync"

	"github.com/google/uuid"

	"mamafit-chat/internal/domain"
	"mamafit-chat/internal/observability"
)

// opKind identifies the class of transport operation a caller is
// waiting on.
type opKind string

const (
	opCreateRoom opKind = "create_room"
	opLoadRooms  opKind = "load_rooms"
)

// callResult is delivered to a waiter when its operation completes.
type callResult struct {
	Room  domain.Room
	Rooms []domain.Room
	Err   error
}

// pendingCall is one caller blocked on a future transport event.
// The done channel is buffered so resolution never blocks the event
// handler that delivers it.
type pendingCall struct {
	id   string
	kind opKind
	done chan callResult
}

// pendingCalls tracks in-flight operations awaiting transport events.
// Each call gets a correlation id, and calls of the same kind resolve in
// FIFO order, so a second concurrent operation queues behind the first
// instead of silently replacing it.
type pendingCalls struct {
	mu    sync.Mutex
	calls map[string]*pendingCall
	order map[opKind][]string
}

func newPendingCalls() *pendingCalls {
	return &pendingCalls{
		calls: make(map[string]*pendingCall),
		order: make(map[opKind][]string),
	}
}

// add registers a new waiter and returns it.
func (p *pendingCalls) add(kind opKind) *pendingCall {
	call := &pendingCall{
		id:   uuid.NewString(),
		kind: kind,
		done: make(chan callResult, 1),
	}

	p.mu.Lock()
	p.calls[call.id] = call
	p.order[kind] = append(p.order[kind], call.id)
	p.mu.Unlock()

	observability.PendingOperations.WithLabelValues(string(kind)).Inc()
	return call
}

// resolveNext completes the oldest waiter of the given kind. It reports
// whether a waiter was found.
func (p *pendingCalls) resolveNext(kind opKind, res callResult) bool {
	p.mu.Lock()
	var call *pendingCall
	for len(p.order[kind]) > 0 {
		id := p.order[kind][0]
		p.order[kind] = p.order[kind][1:]
		if c, ok := p.calls[id]; ok {
			delete(p.calls, id)
			call = c
			break
		}
	}
	p.mu.Unlock()

	if call == nil {
		return false
	}
	observability.PendingOperations.WithLabelValues(string(kind)).Dec()
	call.done <- res
	return true
}

// failAll rejects every waiter with err. Transport errors carry no
// correlation, so an error event terminates everything in flight.
func (p *pendingCalls) failAll(err error) int {
	p.mu.Lock()
	calls := make([]*pendingCall, 0, len(p.calls))
	for _, c := range p.calls {
		calls = append(calls, c)
	}
	p.calls = make(map[string]*pendingCall)
	p.order = make(map[opKind][]string)
	p.mu.Unlock()

	for _, c := range calls {
		observability.PendingOperations.WithLabelValues(string(c.kind)).Dec()
		c.done <- callResult{Err: err}
	}
	return len(calls)
}

// remove drops a waiter that gave up (e.g. context cancellation).
func (p *pendingCalls) remove(id string) {
	p.mu.Lock()
	call, ok := p.calls[id]
	if ok {
		delete(p.calls, id)
	}
	p.mu.Unlock()

	if ok {
		observability.PendingOperations.WithLabelValues(string(call.kind)).Dec()
	}
}

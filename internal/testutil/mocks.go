// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the chat client.
package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"mamafit-chat/internal/transport"
)

// MockTransport implements transport.Transport for testing. Commands are
// recorded; pushed events are driven by calling Emit.
type MockTransport struct {
	mu       sync.Mutex
	handlers map[string]map[int]transport.Handler
	nextID   int

	connected bool
	calls     []Call

	// Function overrides - set these to customize behavior
	JoinRoomFunc     func(ctx context.Context, roomID string) error
	SendMessageFunc  func(ctx context.Context, roomID, text string) error
	LoadMessagesFunc func(ctx context.Context, roomID string) error
	LoadRoomFunc     func(ctx context.Context) error
	CreateRoomFunc   func(ctx context.Context, userIDA, userIDB string) error
}

// Call records one command issued against the mock.
type Call struct {
	Method string
	Args   []string
}

// NewMockTransport creates a connected mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		handlers:  make(map[string]map[int]transport.Handler),
		connected: true,
	}
}

func (m *MockTransport) On(event string, fn transport.Handler) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers[event] == nil {
		m.handlers[event] = make(map[int]transport.Handler)
	}
	m.nextID++
	m.handlers[event][m.nextID] = fn
	return m.nextID
}

func (m *MockTransport) Off(event string, id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers[event], id)
}

func (m *MockTransport) JoinRoom(ctx context.Context, roomID string) error {
	m.record("JoinRoom", roomID)
	if m.JoinRoomFunc != nil {
		return m.JoinRoomFunc(ctx, roomID)
	}
	return nil
}

func (m *MockTransport) SendMessage(ctx context.Context, roomID, text string) error {
	m.record("SendMessage", roomID, text)
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, roomID, text)
	}
	return nil
}

func (m *MockTransport) LoadMessages(ctx context.Context, roomID string) error {
	m.record("LoadMessages", roomID)
	if m.LoadMessagesFunc != nil {
		return m.LoadMessagesFunc(ctx, roomID)
	}
	return nil
}

func (m *MockTransport) LoadRoom(ctx context.Context) error {
	m.record("LoadRoom")
	if m.LoadRoomFunc != nil {
		return m.LoadRoomFunc(ctx)
	}
	return nil
}

func (m *MockTransport) CreateRoom(ctx context.Context, userIDA, userIDB string) error {
	m.record("CreateRoom", userIDA, userIDB)
	if m.CreateRoomFunc != nil {
		return m.CreateRoomFunc(ctx, userIDA, userIDB)
	}
	return nil
}

func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// SetConnected flips the connection flag seen by IsConnected.
func (m *MockTransport) SetConnected(connected bool) {
	m.mu.Lock()
	m.connected = connected
	m.mu.Unlock()
}

// Emit marshals payload and dispatches it synchronously to all handlers
// subscribed to event.
func (m *MockTransport) Emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		panic("testutil: unmarshalable payload: " + err.Error())
	}

	m.mu.Lock()
	fns := make([]transport.Handler, 0, len(m.handlers[event]))
	for _, fn := range m.handlers[event] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
}

// CallCount returns how many times a command was issued.
func (m *MockTransport) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Calls returns a copy of all recorded commands in order.
func (m *MockTransport) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Call, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// HandlerCount returns the number of handlers subscribed to event.
func (m *MockTransport) HandlerCount(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers[event])
}

func (m *MockTransport) record(method string, args ...string) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Method: method, Args: args})
	m.mu.Unlock()
}

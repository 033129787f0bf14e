// Package transport defines the realtime connection the chat session is
// built on: a push event stream plus fire-and-forget command methods.
package transport

import (
	"context"
	"encoding/json"
)

// Event names pushed by the server.
const (
	EventReceiveMessage = "ReceiveMessage"
	EventMessageHistory = "MessageHistory"
	EventRoomCreated    = "RoomCreated"
	EventError          = "Error"
	EventLoadRoom       = "LoadRoom"
	EventNoRooms        = "NoRooms"
)

// Handler receives the raw payload of a pushed event.
type Handler func(payload json.RawMessage)

// Transport is the realtime connection used by the chat session.
// Command methods only confirm that the request was dispatched; results
// arrive later as events. On returns a subscription id for use with Off.
type Transport interface {
	On(event string, fn Handler) int
	Off(event string, id int)

	JoinRoom(ctx context.Context, roomID string) error
	SendMessage(ctx context.Context, roomID, text string) error
	LoadMessages(ctx context.Context, roomID string) error
	LoadRoom(ctx context.Context) error
	CreateRoom(ctx context.Context, userIDA, userIDB string) error

	IsConnected() bool
}

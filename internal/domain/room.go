package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrInvalidRoom  = errors.New("invalid room record")
)

// Participant is a member of a chat room.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room represents a conversation the current user belongs to.
// Rooms are owned by the chat session and mutated only by its
// transport event handlers.
type Room struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Members        []Participant `json:"members"`
	LastMessage    string        `json:"last_message"`
	LastTimestamp  time.Time     `json:"last_timestamp"`
	LastSenderID   string        `json:"last_sender_id"`
	LastSenderName string        `json:"last_sender_name"`
}

// RoomRecord is the raw room payload as delivered by the transport.
// It is not trusted until it passes ParseRoom.
type RoomRecord struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Members        []Participant `json:"members"`
	LastMessage    string        `json:"lastMessage"`
	LastTimestamp  time.Time     `json:"lastTimestamp"`
	LastSenderID   string        `json:"lastSenderId"`
	LastSenderName string        `json:"lastSenderName"`
}

// ParseRoom validates a raw room record at the transport boundary.
// Records without a usable id are rejected rather than silently filtered,
// so callers can log exactly what was dropped and why.
func ParseRoom(rec RoomRecord) (Room, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return Room{}, fmt.Errorf("%w: missing id", ErrInvalidRoom)
	}

	return Room{
		ID:             rec.ID,
		Name:           rec.Name,
		Members:        rec.Members,
		LastMessage:    rec.LastMessage,
		LastTimestamp:  rec.LastTimestamp,
		LastSenderID:   rec.LastSenderID,
		LastSenderName: rec.LastSenderName,
	}, nil
}

// DisplayName returns the room's name, falling back to a member-derived
// name and finally to the id when nothing better is available.
func (r Room) DisplayName(currentUserID string) string {
	if r.Name != "" {
		return r.Name
	}

	names := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		if m.ID == currentUserID || m.Name == "" {
			continue
		}
		names = append(names, m.Name)
	}
	if len(names) > 0 {
		return strings.Join(names, ", ")
	}

	return "Room " + r.ID
}

package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"mamafit-chat/internal/domain"
)

var fixtureCounter atomic.Int64

// RoomRecord builds a valid raw room record with a unique id.
func RoomRecord(name string) domain.RoomRecord {
	n := fixtureCounter.Add(1)
	return domain.RoomRecord{
		ID:   fmt.Sprintf("room-%d", n),
		Name: name,
		Members: []domain.Participant{
			{ID: "u1", Name: "An"},
			{ID: "u2", Name: "Binh"},
		},
		LastMessage:    "hello",
		LastTimestamp:  time.Now().Add(-time.Duration(n) * time.Minute),
		LastSenderID:   "u2",
		LastSenderName: "Binh",
	}
}

// MessageRecord builds a raw message record for a room.
func MessageRecord(roomID, text, senderID, senderName string, ts time.Time) domain.MessageRecord {
	return domain.MessageRecord{
		RoomID:     roomID,
		Message:    text,
		SenderID:   senderID,
		SenderName: senderName,
		Timestamp:  ts,
	}
}

// MessageAt builds a mapped message with the given timestamp, for
// reconciliation tests.
func MessageAt(roomID, text, sender string, ts time.Time) domain.Message {
	return domain.Message{
		RoomID:    roomID,
		Text:      text,
		Timestamp: ts,
		Sender:    sender,
	}
}

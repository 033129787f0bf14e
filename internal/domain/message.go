package domain

import (
	"fmt"
	"time"
)

// SelfSenderLabel replaces the sender name on messages authored by the
// current user.
const SelfSenderLabel = "You"

// Message is a single chat message as shown in a room's feed.
// Messages are immutable after creation: they are either added by a live
// push or replaced wholesale when a history load arrives.
type Message struct {
	RoomID    string    `json:"room_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	SenderID  string    `json:"sender_id"`
	Sender    string    `json:"sender"`
}

// MessageRecord is the raw message payload as delivered by the transport
// or the history API.
type MessageRecord struct {
	RoomID     string    `json:"roomId"`
	Message    string    `json:"message"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Timestamp  time.Time `json:"messageTimestamp"`
}

// NewMessage maps a raw record into a Message, substituting the "self"
// label when the sender is the current user.
func NewMessage(rec MessageRecord, currentUserID string) Message {
	sender := rec.SenderName
	if rec.SenderID != "" && rec.SenderID == currentUserID {
		sender = SelfSenderLabel
	}

	return Message{
		RoomID:    rec.RoomID,
		Text:      rec.Message,
		Timestamp: rec.Timestamp,
		SenderID:  rec.SenderID,
		Sender:    sender,
	}
}

// DedupKey identifies a message for de-duplication between the history
// feed and the live stream. Two messages with the same text, timestamp
// and sender are considered the same message.
func (m Message) DedupKey() string {
	return fmt.Sprintf("%s\x00%d\x00%s", m.Text, m.Timestamp.UnixNano(), m.Sender)
}

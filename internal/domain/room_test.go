package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseRoom(t *testing.T) {
	tests := []struct {
		name    string
		record  RoomRecord
		wantErr bool
	}{
		{"valid", RoomRecord{ID: "r1", Name: "General"}, false},
		{"missing id", RoomRecord{Name: "General"}, true},
		{"blank id", RoomRecord{ID: "   "}, true},
		{"id only", RoomRecord{ID: "r2"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room, err := ParseRoom(tt.record)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRoom) {
					t.Errorf("ParseRoom() error = %v, want ErrInvalidRoom", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRoom() unexpected error: %v", err)
			}
			if room.ID != tt.record.ID {
				t.Errorf("ParseRoom() id = %q, want %q", room.ID, tt.record.ID)
			}
		})
	}
}

func TestParseRoom_PreservesAttributes(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rec := RoomRecord{
		ID:             "r1",
		Name:           "Order support",
		Members:        []Participant{{ID: "u1", Name: "An"}, {ID: "u2", Name: "Binh"}},
		LastMessage:    "see you",
		LastTimestamp:  ts,
		LastSenderID:   "u2",
		LastSenderName: "Binh",
	}

	room, err := ParseRoom(rec)
	if err != nil {
		t.Fatalf("ParseRoom() unexpected error: %v", err)
	}
	if room.LastMessage != "see you" || !room.LastTimestamp.Equal(ts) {
		t.Errorf("ParseRoom() lost last-message fields: %+v", room)
	}
	if len(room.Members) != 2 {
		t.Errorf("ParseRoom() members = %d, want 2", len(room.Members))
	}
}

func TestRoom_DisplayName(t *testing.T) {
	tests := []struct {
		name   string
		room   Room
		userID string
		want   string
	}{
		{
			name:   "explicit name wins",
			room:   Room{ID: "r1", Name: "General", Members: []Participant{{ID: "u2", Name: "Binh"}}},
			userID: "u1",
			want:   "General",
		},
		{
			name:   "member derived excludes self",
			room:   Room{ID: "r1", Members: []Participant{{ID: "u1", Name: "An"}, {ID: "u2", Name: "Binh"}}},
			userID: "u1",
			want:   "Binh",
		},
		{
			name:   "multiple members joined",
			room:   Room{ID: "r1", Members: []Participant{{ID: "u2", Name: "Binh"}, {ID: "u3", Name: "Chi"}}},
			userID: "u1",
			want:   "Binh, Chi",
		},
		{
			name:   "falls back to id",
			room:   Room{ID: "r9"},
			userID: "u1",
			want:   "Room r9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.room.DisplayName(tt.userID); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewMessage_SelfLabel(t *testing.T) {
	rec := MessageRecord{RoomID: "r1", Message: "hi", SenderID: "u1", SenderName: "An"}

	if got := NewMessage(rec, "u1").Sender; got != SelfSenderLabel {
		t.Errorf("sender = %q, want %q", got, SelfSenderLabel)
	}
	if got := NewMessage(rec, "u2").Sender; got != "An" {
		t.Errorf("sender = %q, want %q", got, "An")
	}
}

func TestMessage_DedupKey(t *testing.T) {
	ts := time.Now()
	a := Message{Text: "hi", Timestamp: ts, Sender: "An"}
	b := Message{Text: "hi", Timestamp: ts, Sender: "An"}
	c := Message{Text: "hi", Timestamp: ts.Add(time.Millisecond), Sender: "An"}

	if a.DedupKey() != b.DedupKey() {
		t.Error("identical messages must share a dedup key")
	}
	if a.DedupKey() == c.DedupKey() {
		t.Error("messages with different timestamps must not collide")
	}
}

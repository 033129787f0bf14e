// Package chat keeps a local view of the user's rooms and messages in
// sync with the realtime transport and the message-history API.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"mamafit-chat/internal/domain"
	"mamafit-chat/internal/history"
	"mamafit-chat/internal/observability"
	"mamafit-chat/internal/transport"
)

// placeholderRoomName names a room created mid-session until the
// authoritative room-list reload overwrites it.
const placeholderRoomName = "New conversation"

const defaultHistoryLimit = 50

// Session is the single source of truth for rooms, messages and
// per-room flags. All mutation happens through its operation methods
// and transport event handlers.
type Session struct {
	transport transport.Transport
	history   *history.Client
	userID    string
	userName  string

	historyLimit int
	now          func() time.Time

	pending *pendingCalls

	mu           sync.Mutex
	rooms        []domain.Room
	messages     map[string][]domain.Message
	loaded       map[string]struct{}
	joined       map[string]struct{}
	lastErr      string
	loadingRooms bool
	roomsLoaded  bool

	subs []subscription
}

type subscription struct {
	event string
	id    int
}

// NewSession creates a session for the given user. hist may be nil when
// no history API is available; SyncHistory then returns an error.
func NewSession(t transport.Transport, hist *history.Client, userID, userName string) *Session {
	return &Session{
		transport:    t,
		history:      hist,
		userID:       userID,
		userName:     userName,
		historyLimit: defaultHistoryLimit,
		now:          time.Now,
		pending:      newPendingCalls(),
		messages:     make(map[string][]domain.Message),
		loaded:       make(map[string]struct{}),
		joined:       make(map[string]struct{}),
	}
}

// SetHistoryLimit overrides the page size used by SyncHistory.
func (s *Session) SetHistoryLimit(limit int) {
	if limit > 0 && limit <= 100 {
		s.historyLimit = limit
	}
}

// Start subscribes the session's event handlers to the transport.
func (s *Session) Start() {
	s.subscribe(transport.EventReceiveMessage, s.handleReceiveMessage)
	s.subscribe(transport.EventMessageHistory, s.handleMessageHistory)
	s.subscribe(transport.EventRoomCreated, s.handleRoomCreated)
	s.subscribe(transport.EventLoadRoom, s.handleLoadRoom)
	s.subscribe(transport.EventNoRooms, s.handleNoRooms)
	s.subscribe(transport.EventError, s.handleError)
}

// Close unsubscribes from the transport and fails any in-flight
// operations.
func (s *Session) Close() {
	for _, sub := range s.subs {
		s.transport.Off(sub.event, sub.id)
	}
	s.subs = nil
	s.pending.failAll(errors.New("session closed"))
}

func (s *Session) subscribe(event string, fn transport.Handler) {
	id := s.transport.On(event, fn)
	s.subs = append(s.subs, subscription{event: event, id: id})
}

// LoadRooms requests the user's room list. Repeated calls while a load
// is in flight, or after one has completed, return the current snapshot
// without touching the transport.
func (s *Session) LoadRooms(ctx context.Context) ([]domain.Room, error) {
	s.mu.Lock()
	if s.loadingRooms || s.roomsLoaded {
		rooms := s.roomsCopyLocked()
		s.mu.Unlock()
		return rooms, nil
	}
	s.loadingRooms = true
	s.mu.Unlock()

	call := s.pending.add(opLoadRooms)
	if err := s.transport.LoadRoom(ctx); err != nil {
		s.pending.remove(call.id)
		s.mu.Lock()
		s.loadingRooms = false
		s.mu.Unlock()
		return nil, err
	}

	select {
	case res := <-call.done:
		return res.Rooms, res.Err
	case <-ctx.Done():
		s.pending.remove(call.id)
		return nil, ctx.Err()
	}
}

// refreshRooms re-requests the room list for authoritative data without
// waiting for the result. Unlike LoadRooms it ignores the has-ever-loaded
// guard, since it exists to overwrite stale state.
func (s *Session) refreshRooms(ctx context.Context) {
	s.mu.Lock()
	if s.loadingRooms {
		s.mu.Unlock()
		return
	}
	s.loadingRooms = true
	s.mu.Unlock()

	if err := s.transport.LoadRoom(ctx); err != nil {
		s.mu.Lock()
		s.loadingRooms = false
		s.lastErr = err.Error()
		s.mu.Unlock()
	}
}

// CreateRoom creates a direct room between two users and waits for the
// RoomCreated event. It resolves with a locally synthesized placeholder
// room; the authoritative room data arrives with the automatic refresh.
func (s *Session) CreateRoom(ctx context.Context, userIDA, userIDB string) (domain.Room, error) {
	call := s.pending.add(opCreateRoom)
	if err := s.transport.CreateRoom(ctx, userIDA, userIDB); err != nil {
		s.pending.remove(call.id)
		return domain.Room{}, err
	}

	select {
	case res := <-call.done:
		return res.Room, res.Err
	case <-ctx.Done():
		s.pending.remove(call.id)
		return domain.Room{}, ctx.Err()
	}
}

// JoinRoom performs the join handshake once per room. Rooms already
// joined are skipped without a transport call.
func (s *Session) JoinRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	_, already := s.joined[roomID]
	s.mu.Unlock()
	if already {
		return nil
	}

	if err := s.transport.JoinRoom(ctx, roomID); err != nil {
		return err
	}

	s.mu.Lock()
	s.joined[roomID] = struct{}{}
	s.mu.Unlock()
	return nil
}

// LoadMessages requests a room's history from the transport once per
// room. Failures are recorded in the session's error slot rather than
// returned; an empty room still counts as loaded.
func (s *Session) LoadMessages(ctx context.Context, roomID string) {
	s.mu.Lock()
	_, already := s.loaded[roomID]
	s.mu.Unlock()
	if already {
		return
	}

	if err := s.transport.LoadMessages(ctx, roomID); err != nil {
		s.setErr(err.Error())
		return
	}

	s.mu.Lock()
	s.loaded[roomID] = struct{}{}
	s.mu.Unlock()
}

// SendMessage sends text to a room and optimistically updates the
// room's last-message fields without waiting for the server echo.
// A transport failure is recorded in the error slot; the optimistic
// update stands either way.
func (s *Session) SendMessage(ctx context.Context, roomID, text string) {
	err := s.transport.SendMessage(ctx, roomID, text)

	now := s.now()
	s.mu.Lock()
	for i := range s.rooms {
		if s.rooms[i].ID == roomID {
			s.rooms[i].LastMessage = text
			s.rooms[i].LastTimestamp = now
			s.rooms[i].LastSenderID = s.userID
			s.rooms[i].LastSenderName = s.userName
			break
		}
	}
	s.sortRoomsLocked()
	if err != nil {
		s.lastErr = err.Error()
	}
	s.mu.Unlock()
}

// SyncHistory fetches a history page over REST and merges it with the
// live-pushed messages for the room, replacing the room's feed with the
// deduplicated result.
func (s *Session) SyncHistory(ctx context.Context, roomID string) error {
	if s.history == nil {
		return errors.New("no history client configured")
	}

	ctx = observability.WithUserID(observability.WithRoomID(ctx, roomID), s.userID)
	log := observability.FromContext(ctx)

	page, err := s.history.GetMessages(ctx, roomID, s.historyLimit, nil)
	if err != nil {
		log.Warn("history sync failed", slog.String("error", err.Error()))
		s.setErr(err.Error())
		return fmt.Errorf("sync history for room %s: %w", roomID, err)
	}

	pulled := make([]domain.Message, 0, len(page.Messages))
	for _, rec := range page.Messages {
		pulled = append(pulled, domain.NewMessage(rec, s.userID))
	}

	s.mu.Lock()
	s.messages[roomID] = MergeMessages(pulled, s.messages[roomID])
	merged := len(s.messages[roomID])
	s.loaded[roomID] = struct{}{}
	s.mu.Unlock()

	log.Debug("history page merged",
		slog.Int("pulled", len(pulled)),
		slog.Int("merged", merged))
	return nil
}

// Rooms returns the current room list, most recently active first.
func (s *Session) Rooms() []domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomsCopyLocked()
}

// Messages returns a room's feed, newest first.
func (s *Session) Messages(roomID string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]domain.Message, len(s.messages[roomID]))
	copy(msgs, s.messages[roomID])
	return msgs
}

// HasLoadedHistory reports whether a room's history load has completed
// at least once.
func (s *Session) HasLoadedHistory(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loaded[roomID]
	return ok
}

// HasJoined reports whether the join handshake completed for a room.
func (s *Session) HasJoined(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.joined[roomID]
	return ok
}

// Err returns the last recorded error message, or "" when none.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearErr resets the error slot.
func (s *Session) ClearErr() {
	s.setErr("")
}

func (s *Session) setErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// Event handlers. Invoked by the transport's read loop, never directly.

func (s *Session) handleReceiveMessage(payload json.RawMessage) {
	var rec domain.MessageRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		observability.Warn("dropping malformed message event", slog.String("error", err.Error()))
		return
	}
	if rec.RoomID == "" {
		observability.Warn("dropping message event without room id")
		return
	}

	msg := domain.NewMessage(rec, s.userID)

	s.mu.Lock()
	s.messages[rec.RoomID] = append([]domain.Message{msg}, s.messages[rec.RoomID]...)
	for i := range s.rooms {
		if s.rooms[i].ID == rec.RoomID {
			s.rooms[i].LastMessage = msg.Text
			s.rooms[i].LastTimestamp = msg.Timestamp
			s.rooms[i].LastSenderID = rec.SenderID
			s.rooms[i].LastSenderName = rec.SenderName
			break
		}
	}
	s.sortRoomsLocked()
	s.mu.Unlock()
}

func (s *Session) handleMessageHistory(payload json.RawMessage) {
	var recs []domain.MessageRecord
	if err := json.Unmarshal(payload, &recs); err != nil {
		observability.Warn("dropping malformed history event", slog.String("error", err.Error()))
		return
	}
	if len(recs) == 0 {
		return
	}

	// The whole batch belongs to one room, identified by the first entry.
	roomID := recs[0].RoomID
	msgs := make([]domain.Message, 0, len(recs))
	for _, rec := range recs {
		msgs = append(msgs, domain.NewMessage(rec, s.userID))
	}
	sortNewestFirst(msgs)

	s.mu.Lock()
	s.messages[roomID] = msgs
	s.mu.Unlock()
}

func (s *Session) handleRoomCreated(payload json.RawMessage) {
	var roomID string
	if err := json.Unmarshal(payload, &roomID); err != nil || roomID == "" {
		observability.Warn("dropping room-created event without id")
		return
	}

	// The join and the follow-up refresh write to the transport; they
	// must not run on the event dispatch path.
	go s.completeRoomCreation(roomID)
}

func (s *Session) completeRoomCreation(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ctx = observability.WithUserID(observability.WithRoomID(ctx, roomID), s.userID)

	// Auto-join only covers rooms that existed at connect time, so a
	// room created mid-session needs an explicit join.
	if err := s.JoinRoom(ctx, roomID); err != nil {
		observability.FromContext(ctx).Warn("failed to join created room",
			slog.String("error", err.Error()))
	}

	placeholder := domain.Room{
		ID:            roomID,
		Name:          placeholderRoomName,
		LastTimestamp: s.now(),
	}

	s.mu.Lock()
	found := false
	for i := range s.rooms {
		if s.rooms[i].ID == roomID {
			found = true
			break
		}
	}
	if !found {
		s.rooms = append(s.rooms, placeholder)
		s.sortRoomsLocked()
	}
	s.mu.Unlock()

	// Authoritative data arrives with the refresh; the caller gets the
	// placeholder immediately.
	s.refreshRooms(ctx)
	s.pending.resolveNext(opCreateRoom, callResult{Room: placeholder})
}

func (s *Session) handleLoadRoom(payload json.RawMessage) {
	var recs []domain.RoomRecord
	if err := json.Unmarshal(payload, &recs); err != nil {
		msg := fmt.Sprintf("malformed room list: %s", err.Error())
		observability.Warn("rejecting room-list event", slog.String("error", err.Error()))
		s.setErr(msg)
		s.mu.Lock()
		s.loadingRooms = false
		s.mu.Unlock()
		s.pending.resolveNext(opLoadRooms, callResult{Err: errors.New(msg)})
		return
	}

	rooms := make([]domain.Room, 0, len(recs))
	for _, rec := range recs {
		room, err := domain.ParseRoom(rec)
		if err != nil {
			observability.InvalidRoomsDropped.Inc()
			observability.Warn("dropping invalid room record",
				slog.String("name", rec.Name),
				slog.String("error", err.Error()))
			continue
		}
		rooms = append(rooms, room)
	}
	observability.RoomsLoaded.Add(float64(len(rooms)))

	s.mu.Lock()
	s.rooms = rooms
	s.sortRoomsLocked()
	// The server auto-joins the caller to all owned rooms on
	// connection; no explicit join handshake is needed for them.
	for _, room := range rooms {
		s.joined[room.ID] = struct{}{}
	}
	s.roomsLoaded = true
	s.loadingRooms = false
	snapshot := s.roomsCopyLocked()
	s.mu.Unlock()

	s.pending.resolveNext(opLoadRooms, callResult{Rooms: snapshot})
}

func (s *Session) handleNoRooms(payload json.RawMessage) {
	s.mu.Lock()
	s.rooms = nil
	s.roomsLoaded = true
	s.loadingRooms = false
	s.mu.Unlock()

	s.pending.resolveNext(opLoadRooms, callResult{Rooms: []domain.Room{}})
}

func (s *Session) handleError(payload json.RawMessage) {
	var msg string
	if err := json.Unmarshal(payload, &msg); err != nil {
		msg = string(payload)
	}

	s.mu.Lock()
	s.lastErr = msg
	s.loadingRooms = false
	s.mu.Unlock()

	if n := s.pending.failAll(errors.New(msg)); n > 0 {
		observability.Warn("transport error failed pending operations",
			slog.String("error", msg),
			slog.Int("count", n))
	}
}

// sortRoomsLocked orders rooms by last activity, most recent first.
// Callers must hold s.mu.
func (s *Session) sortRoomsLocked() {
	sort.SliceStable(s.rooms, func(i, j int) bool {
		return s.rooms[i].LastTimestamp.After(s.rooms[j].LastTimestamp)
	})
}

func (s *Session) roomsCopyLocked() []domain.Room {
	rooms := make([]domain.Room, len(s.rooms))
	copy(rooms, s.rooms)
	return rooms
}

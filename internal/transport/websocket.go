package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mamafit-chat/internal/observability"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // Must be less than pongWait
	maxMessageSize = 64 * 1024

	// Outbound command rate. Bursty sends are fine, sustained flooding
	// is not.
	sendRate  = 20
	sendBurst = 40
)

var ErrNotConnected = errors.New("transport not connected")

// envelope is the wire frame: a target event or command name plus its
// JSON payload.
type envelope struct {
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type joinRoomArgs struct {
	RoomID string `json:"roomId"`
}

type sendMessageArgs struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type loadMessagesArgs struct {
	RoomID string `json:"roomId"`
}

type createRoomArgs struct {
	UserIDA string `json:"userIdA"`
	UserIDB string `json:"userIdB"`
}

// WSClient implements Transport over a gorilla/websocket connection.
type WSClient struct {
	url     string
	header  map[string][]string
	conn    *websocket.Conn
	limiter *rate.Limiter

	writeMu   sync.Mutex
	connected atomic.Bool
	cancel    context.CancelFunc

	handlerMu sync.Mutex
	handlers  map[string]map[int]Handler
	nextID    int
}

// NewWSClient creates a client for the given websocket URL. Call Connect
// before issuing commands.
func NewWSClient(url string) *WSClient {
	return &WSClient{
		url:      url,
		limiter:  rate.NewLimiter(rate.Limit(sendRate), sendBurst),
		handlers: make(map[string]map[int]Handler),
	}
}

// SetHeader sets an HTTP header sent with the websocket handshake,
// typically Authorization.
func (c *WSClient) SetHeader(key, value string) {
	if c.header == nil {
		c.header = make(map[string][]string)
	}
	c.header[key] = []string{value}
}

// Connect dials the server and starts the read and keepalive loops.
func (c *WSClient) Connect(ctx context.Context) error {
	if c.connected.Load() {
		return errors.New("already connected")
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: status %d: %w", c.url, resp.StatusCode, err)
		}
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c.conn = conn
	c.connected.Store(true)
	observability.ConnectionUp.Set(1)

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go c.readPump(runCtx)
	go c.pingLoop(runCtx)
	return nil
}

// Close tears down the connection. Safe to call more than once.
func (c *WSClient) Close() error {
	if !c.connected.CompareAndSwap(true, false) {
		return nil
	}
	observability.ConnectionUp.Set(0)
	if c.cancel != nil {
		c.cancel()
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return c.conn.Close()
}

// IsConnected reports whether the connection is up. Polled by the
// connection monitor.
func (c *WSClient) IsConnected() bool {
	return c.connected.Load()
}

// On subscribes a handler to an event and returns its subscription id.
func (c *WSClient) On(event string, fn Handler) int {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()

	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]Handler)
	}
	c.nextID++
	c.handlers[event][c.nextID] = fn
	return c.nextID
}

// Off removes a subscription created by On.
func (c *WSClient) Off(event string, id int) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	delete(c.handlers[event], id)
}

func (c *WSClient) JoinRoom(ctx context.Context, roomID string) error {
	return c.invoke(ctx, "JoinRoom", joinRoomArgs{RoomID: roomID})
}

func (c *WSClient) SendMessage(ctx context.Context, roomID, text string) error {
	if err := c.invoke(ctx, "SendMessage", sendMessageArgs{RoomID: roomID, Message: text}); err != nil {
		return err
	}
	observability.MessagesSent.Inc()
	return nil
}

func (c *WSClient) LoadMessages(ctx context.Context, roomID string) error {
	return c.invoke(ctx, "LoadMessages", loadMessagesArgs{RoomID: roomID})
}

func (c *WSClient) LoadRoom(ctx context.Context) error {
	return c.invoke(ctx, "LoadRoom", nil)
}

func (c *WSClient) CreateRoom(ctx context.Context, userIDA, userIDB string) error {
	return c.invoke(ctx, "CreateRoom", createRoomArgs{UserIDA: userIDA, UserIDB: userIDB})
}

// invoke marshals and writes a command frame. It only confirms dispatch;
// results arrive later as pushed events.
func (c *WSClient) invoke(ctx context.Context, target string, args any) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}

	env := envelope{Target: target}
	if args != nil {
		payload, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("marshal %s args: %w", target, err)
		}
		env.Payload = payload
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", target, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.writeMessage(websocket.TextMessage, data)
}

func (c *WSClient) writeMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if !c.connected.Load() {
		return ErrNotConnected
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func (c *WSClient) readPump(ctx context.Context) {
	defer c.markDisconnected()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		observability.Warn("failed to set read deadline", slog.String("error", err.Error()))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil &&
				websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				observability.Warn("websocket read error", slog.String("error", err.Error()))
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			observability.Warn("invalid frame from server", slog.String("error", err.Error()))
			continue
		}
		c.dispatch(env)
	}
}

func (c *WSClient) dispatch(env envelope) {
	c.handlerMu.Lock()
	fns := make([]Handler, 0, len(c.handlers[env.Target]))
	for _, fn := range c.handlers[env.Target] {
		fns = append(fns, fn)
	}
	c.handlerMu.Unlock()

	if len(fns) == 0 {
		observability.Debug("unhandled event", slog.String("event", env.Target))
		return
	}

	observability.EventsReceived.WithLabelValues(env.Target).Inc()
	for _, fn := range fns {
		fn(env.Payload)
	}
}

func (c *WSClient) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) markDisconnected() {
	if c.connected.CompareAndSwap(true, false) {
		observability.ConnectionUp.Set(0)
		c.writeMu.Lock()
		c.conn.Close()
		c.writeMu.Unlock()
	}
}

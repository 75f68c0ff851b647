package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/dotside-studios/nfc-reader-bridge/protocol"
)

// Client is one connected WebSocket client. Writes are serialized so replies
// from concurrent calls and event pushes never interleave on the wire.
type Client struct {
	ID         string
	RemoteAddr string

	conn    *websocket.Conn
	writeMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	calls  sync.WaitGroup

	listenMu sync.Mutex
	unlisten func()

	log *log.Entry
}

func newClient(conn *websocket.Conn, id, remoteAddr string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:         id,
		RemoteAddr: remoteAddr,
		conn:       conn,
		ctx:        ctx,
		cancel:     cancel,
		log:        log.WithFields(log.Fields{"component": "ws", "client": id[:8]}),
	}
}

// Context is cancelled when the client disconnects.
func (c *Client) Context() context.Context {
	return c.ctx
}

// WriteJSON sends v as one text frame.
func (c *Client) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// SendResult answers request id successfully.
func (c *Client) SendResult(id string, payload any) error {
	return c.WriteJSON(protocol.Response{
		ID:      id,
		Type:    protocol.TypeResult,
		Success: true,
		Payload: payload,
	})
}

// SendError answers request id with an error code and message.
func (c *Client) SendError(id, code, message string) error {
	return c.WriteJSON(protocol.Response{
		ID:      id,
		Type:    protocol.TypeError,
		Success: false,
		Error:   message,
		Payload: protocol.ErrorPayload{Code: code},
	})
}

// Push sends an unsolicited message.
func (c *Client) Push(messageType string, payload any) error {
	return c.WriteJSON(protocol.Message{Type: messageType, Payload: payload})
}

// Go runs fn on its own goroutine with the client context. close waits for it.
func (c *Client) Go(fn func(ctx context.Context)) {
	c.calls.Add(1)
	go func() {
		defer c.calls.Done()
		fn(c.ctx)
	}()
}

// setUnlisten records how to drop this client's event subscription.
func (c *Client) setUnlisten(fn func()) {
	c.listenMu.Lock()
	defer c.listenMu.Unlock()
	c.unlisten = fn
}

// stopListening drops the client's event subscription, if any.
func (c *Client) stopListening() {
	c.listenMu.Lock()
	fn := c.unlisten
	c.unlisten = nil
	c.listenMu.Unlock()

	if fn != nil {
		fn()
	}
}

// close cancels in-flight calls, drops the subscription and waits for the
// call goroutines to return.
func (c *Client) close() {
	c.cancel()
	c.stopListening()
	c.conn.Close()
	c.calls.Wait()
}

// Package transport implements the WebSocket framing layer: per-connection
// read/write pump goroutines generalizing the teacher's server/client.go
// from a single-document, plain-string-op protocol to the multi-topic
// delta-JSON wire protocol of §6.1/§6.2.
package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/quilldoc/collabcore/hub"
	"github.com/quilldoc/collabcore/wire"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Conn wraps one WebSocket connection as a hub.Subscriber. It owns the
// read and write pump goroutines and the set of documents it has joined.
type Conn struct {
	id   string
	hub  *hub.Hub
	conn *websocket.Conn
	send chan []byte
	log  *zap.Logger

	mu     sync.Mutex
	joined map[string]bool
	closed bool
}

// New wraps conn, generating a fresh client id.
func New(h *hub.Hub, conn *websocket.Conn, log *zap.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:     id,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		log:    log.With(zap.String("client_id", id)),
		joined: make(map[string]bool),
	}
}

// ID implements hub.Subscriber.
func (c *Conn) ID() string { return c.id }

// Send implements hub.Subscriber. A slow reader has its frame dropped
// rather than blocking the fan-out goroutine for every other subscriber. A
// send that arrives after ReadPump has already closed the connection is a
// safe no-op: the hub's fan-out goroutine is shared by every subscriber of
// a document, so a panic here (send on closed channel) would take down
// broadcasting for all of them, not just this connection.
func (c *Conn) Send(frame wire.ServerFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- frame.Encode():
	default:
		c.log.Warn("dropping frame for slow client", zap.String("type", frame.Type))
	}
}

// ReadPump reads frames from the connection and routes them to the hub
// until the connection errors or closes, then leaves every document this
// connection had joined.
func (c *Conn) ReadPump() {
	defer func() {
		c.mu.Lock()
		docs := make([]string, 0, len(c.joined))
		for id := range c.joined {
			docs = append(docs, id)
		}
		c.mu.Unlock()
		for _, id := range docs {
			c.hub.Leave(id, c)
		}
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Info("read error", zap.Error(err))
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *Conn) handleFrame(data []byte) {
	var frame wire.ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.Send(wire.ServerFrame{Type: wire.TypeReply, Status: wire.StatusError, Response: &wire.ErrorResponse{Reason: "invalid message format"}})
		return
	}

	docID, err := wire.DocID(frame.Topic)
	if err != nil {
		c.Send(wire.ServerFrame{Type: wire.TypeReply, Status: wire.StatusError, Response: &wire.ErrorResponse{Reason: err.Error()}})
		return
	}

	ctx := context.Background()
	switch frame.Type {
	case wire.TypeJoin:
		if err := c.hub.Join(ctx, docID, c, frame.UserID); err == nil {
			c.mu.Lock()
			c.joined[docID] = true
			c.mu.Unlock()
		}
	case wire.TypeUpdate:
		c.mu.Lock()
		joined := c.joined[docID]
		c.mu.Unlock()
		if !joined {
			c.Send(wire.ReplyError(docID, "not joined to this document"))
			return
		}
		c.hub.Update(ctx, docID, c, frame.Version, frame.Change)
	case wire.TypeLeave:
		c.hub.Leave(docID, c)
		c.mu.Lock()
		delete(c.joined, docID)
		c.mu.Unlock()
	default:
		c.Send(wire.ServerFrame{Type: wire.TypeReply, Status: wire.StatusError, Response: &wire.ErrorResponse{Reason: "unknown frame type: " + frame.Type}})
	}
}

// WritePump writes frames from the send channel to the connection and
// keeps it alive with periodic pings.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package server

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/doudizhu/protocol"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this cadence; must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds a single inbound text frame.
	maxMessageSize = 8192

	// sendBuffer is the outbound channel's capacity; pushes must never block,
	// so a full buffer drops the connection rather than stall.
	sendBuffer = 256
)

// Connection wraps one gorilla/websocket.Conn, running its own read and
// write pumps.
// The send channel is the capability a room stores for this player; pushing
// to it is non-blocking, and a push into a full buffer closes the connection.
type Connection struct {
	ws     *websocket.Conn
	send   chan *protocol.Message
	logger zerolog.Logger
	clock  quartz.Clock

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	onMessage func(*protocol.Message)
}

// NewConnection wraps ws. onMessage is invoked from the read pump's
// goroutine for every decoded inbound frame.
func NewConnection(ws *websocket.Conn, logger zerolog.Logger, clock quartz.Clock, onMessage func(*protocol.Message)) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		ws:        ws,
		send:      make(chan *protocol.Message, sendBuffer),
		logger:    logger,
		clock:     clock,
		ctx:       ctx,
		cancel:    cancel,
		onMessage: onMessage,
	}
}

// Start launches the read and write pumps. It returns immediately.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Send implements room.Conn: fire-and-forget delivery, dropping the
// connection if its outbound buffer is full.
func (c *Connection) Send(msg *protocol.Message) {
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	default:
		c.logger.Warn().Msg("outbound buffer full, closing connection")
		_ = c.Close()
	}
}

// Done returns a channel closed when the connection has torn down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close tears the connection down exactly once. The send channel is left
// open: broadcasts racing a close may still push into it, and the write
// pump's context case drains the shutdown instead.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.ws.Close()
	})
	return err
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(c.clock.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(c.clock.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		c.onMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := c.clock.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(c.clock.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				c.logger.Debug().Err(err).Msg("websocket write error")
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(c.clock.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.ws.SetWriteDeadline(c.clock.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

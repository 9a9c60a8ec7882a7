// Package client implements a websocket client for the Dou Dizhu room
// server: connect, send client intents, and receive server events on a
// channel, for use by a terminal UI or any other front end.
package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/doudizhu/protocol"
)

// Client owns one websocket connection to the room server.
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *protocol.Message
	Receive   chan *protocol.Message
	logger    zerolog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New constructs a Client targeting serverURL (an http(s):// base address;
// the /ws path and scheme translation are applied by Connect).
func New(serverURL string, logger zerolog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		serverURL: serverURL,
		send:      make(chan *protocol.Message, 256),
		Receive:   make(chan *protocol.Message, 256),
		logger:    logger.With().Str("component", "client").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect dials the server and starts the read/write pumps.
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("client: invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("client: dial: %w", err)
	}
	c.conn = conn

	go c.readLoop()
	go c.writeLoop()
	return nil
}

// Send enqueues a message for delivery, blocking only while the outbound
// buffer is full.
func (c *Client) Send(msgType protocol.MessageType, data interface{}) error {
	msg, err := protocol.New(msgType, data)
	if err != nil {
		return err
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// Close tears the connection down exactly once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) readLoop() {
	defer close(c.Receive)
	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.logger.Debug().Err(err).Msg("read loop ending")
			c.Close()
			return
		}
		select {
		case c.Receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug().Err(err).Msg("write loop ending")
				c.Close()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

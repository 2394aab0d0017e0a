package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readLimit   = 4096
	pongWait    = 60 * time.Second
	sendBuffer  = 64
	pingPayload = "ping"
)

// Connection is one supervisor subscribed to live session events.
type Connection struct {
	id           string
	elevatorID   string
	ws           *websocket.Conn
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	onClose      func(id string)

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// NewConnection wraps an upgraded socket. An empty elevatorID subscribes to all elevators.
func NewConnection(id, elevatorID string, conn *websocket.Conn, writeTimeout, pingInterval time.Duration, logger *zap.Logger, onClose func(string)) *Connection {
	return &Connection{
		id:           id,
		elevatorID:   elevatorID,
		ws:           conn,
		logger:       logger,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		onClose:      onClose,
		send:         make(chan []byte, sendBuffer),
	}
}

// ID returns identifier.
func (c *Connection) ID() string {
	return c.id
}

// Wants reports whether events for elevatorID should reach this subscriber.
func (c *Connection) Wants(elevatorID string) bool {
	return c.elevatorID == "" || c.elevatorID == elevatorID
}

// Start launches read/write pumps and blocks until the peer goes away.
func (c *Connection) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump only services control frames; subscribers do not send data.
func (c *Connection) readPump(ctx context.Context) {
	defer c.cleanup()
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.logger.Debug("live feed read closed", zap.String("connection_id", c.id), zap.Error(err))
			return
		}
	}
}

func (c *Connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			_ = c.ws.Close()
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte(pingPayload)); err != nil {
				return
			}
		}
	}
}

// Send enqueues a message without blocking; slow subscribers lose messages.
func (c *Connection) Send(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Warn("dropping live event, buffer full", zap.String("connection_id", c.id))
		return false
	}
}

func (c *Connection) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Connection) cleanup() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()

	_ = c.ws.Close()
	if c.onClose != nil {
		c.onClose(c.id)
	}
}

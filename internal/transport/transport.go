// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// =============================================================================
// INTERFACES
// =============================================================================

// Sink receives connection events from the read goroutine.
type Sink interface {
	// OnMessage is called for every inbound text or binary frame.
	OnMessage(data []byte)
	// OnClose is called once when the connection ends. clean is true only
	// when the client closed it; any close the server starts is unclean.
	OnClose(clean bool, err error)
}

// Conn is an open connection.
type Conn interface {
	// Send writes one text frame.
	Send(data []byte) error
	// Close performs a clean close. It is safe to call more than once.
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, url string, sink Sink) (Conn, error)
}

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("connection closed")

// =============================================================================
// WEBSOCKET DIALER
// =============================================================================

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 8 << 20
)

// WebSocketDialer dials with gorilla/websocket.
type WebSocketDialer struct {
	// HandshakeTimeout bounds the opening handshake. Default: 10s
	HandshakeTimeout time.Duration
	// Header is sent with the upgrade request.
	Header http.Header
	// Logger receives transport diagnostics. Default: no-op
	Logger *zap.Logger
}

// Dial opens a WebSocket and starts its read goroutine.
func (d *WebSocketDialer) Dial(ctx context.Context, url string, sink Sink) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}
	ws, resp, err := dialer.DialContext(ctx, url, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (HTTP %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	ws.SetReadLimit(maxMessageSize)

	c := &wsConn{
		ws:     ws,
		sink:   sink,
		logger: logger.With(zap.String("url", url)),
		done:   make(chan struct{}),
	}
	go c.readPump()
	return c, nil
}

// =============================================================================
// CONNECTION
// =============================================================================

type wsConn struct {
	ws     *websocket.Conn
	sink   Sink
	logger *zap.Logger

	writeMu sync.Mutex
	closing bool
	done    chan struct{}
}

func (c *wsConn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closing {
		return ErrClosed
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func (c *wsConn) Close() error {
	c.writeMu.Lock()
	if c.closing {
		c.writeMu.Unlock()
		return nil
	}
	c.closing = true
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	// Give the server a moment to echo the close frame, then drop the socket.
	select {
	case <-c.done:
	case <-time.After(time.Second):
	}
	if cerr := c.ws.Close(); err == nil {
		err = cerr
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		err = nil
	}
	return err
}

func (c *wsConn) isClosing() bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.closing
}

func (c *wsConn) readPump() {
	var closeErr error
	defer func() {
		close(c.done)
		clean := c.isClosing()
		if clean {
			closeErr = nil
		}
		c.logger.Debug("connection closed", zap.Bool("clean", clean), zap.Error(closeErr))
		c.sink.OnClose(clean, closeErr)
	}()

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			closeErr = err
			return
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			c.sink.OnMessage(data)
		}
	}
}

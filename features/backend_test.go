// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package features

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jeranaias/stockdesk-tui/internal/protocol"
)

// backend is a scriptable analysis server. Each execute command is answered
// with the scripted events followed, unless suppressed, by a completion.
type backend struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu         sync.Mutex
	refuse     bool
	accepted   int
	refused    int
	conns      []*websocket.Conn
	commands   []protocol.Command
	script     []protocol.Event
	noComplete bool
}

func newBackend() *backend {
	b := &backend{}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	return b
}

// url returns the WebSocket endpoint.
func (b *backend) url() string {
	return "ws" + strings.TrimPrefix(b.srv.URL, "http") + "/ws/multi"
}

func (b *backend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	if b.refuse {
		b.refused++
		b.mu.Unlock()
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	b.mu.Unlock()

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.mu.Lock()
	b.accepted++
	b.conns = append(b.conns, conn)
	b.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd protocol.Command
		if json.Unmarshal(data, &cmd) != nil || cmd.Type != protocol.TypeExecuteMultiAgent {
			continue
		}

		b.mu.Lock()
		b.commands = append(b.commands, cmd)
		events := append([]protocol.Event(nil), b.script...)
		if !b.noComplete {
			events = append(events, protocol.Event{Type: protocol.TypeExecutionComplete})
		}
		b.mu.Unlock()

		for _, ev := range events {
			if ev.Timestamp == "" {
				ev.Timestamp = time.Now().Format("15:04:05")
			}
			frame, _ := json.Marshal(ev)
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}
}

func (b *backend) setScript(events []protocol.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.script = events
}

func (b *backend) setNoComplete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.noComplete = true
}

func (b *backend) setRefuse(refuse bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refuse = refuse
}

// drop closes every open connection without a close handshake.
func (b *backend) drop() {
	b.mu.Lock()
	conns := b.conns
	b.conns = nil
	b.mu.Unlock()
	for _, c := range conns {
		_ = c.UnderlyingConn().Close()
	}
}

// closeNormally sends a 1000 close frame on every open connection.
func (b *backend) closeNormally() {
	b.mu.Lock()
	conns := b.conns
	b.conns = nil
	b.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = c.Close()
	}
}

func (b *backend) counts() (accepted, refused int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accepted, b.refused
}

func (b *backend) received() []protocol.Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]protocol.Command(nil), b.commands...)
}

func (b *backend) close() {
	b.drop()
	b.srv.Close()
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/stockdesk-tui/internal/console"
	"github.com/jeranaias/stockdesk-tui/internal/export"
	"github.com/jeranaias/stockdesk-tui/internal/templates"
	"github.com/jeranaias/stockdesk-tui/internal/transport"
)

// DefaultQueueSize is the event queue capacity.
const DefaultQueueSize = 256

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Controller.
type Options struct {
	// URL is the backend WebSocket endpoint.
	URL string

	// Dialer opens connections. Default: transport.WebSocketDialer
	Dialer transport.Dialer

	// Policy controls automatic reconnects. Zero fields take the values of
	// DefaultReconnectPolicy; set Disabled to turn them off.
	Policy ReconnectPolicy

	// Logbook is the console the controller writes to. Default: a new logbook.
	Logbook *console.Logbook

	// Writer saves reports and log exports. Default: current directory.
	Writer *export.Writer

	// Templates resolves quick-fill keys. Default: built-ins only.
	Templates *templates.Loader

	// Scheduler arms reconnect timers. Default: time.AfterFunc
	Scheduler Scheduler

	// Logger receives diagnostics. Default: no-op
	Logger *zap.Logger

	// Now supplies run start times. Default: time.Now
	Now func() time.Time

	// QueueSize is the event queue capacity. Default: DefaultQueueSize
	QueueSize int
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the session state machine. Fields in the "owner" group are
// only touched by the event loop goroutine.
type Controller struct {
	opts   Options
	logger *zap.Logger

	events  chan event
	stop    chan struct{}
	done    chan struct{} // closed when the loop stops accepting events
	exited  chan struct{} // closed after every worker goroutine returned
	workers sync.WaitGroup

	lifeMu   sync.Mutex
	started  bool
	stopping bool

	// owner
	state      State
	gen        uint64
	conn       transport.Conn
	dialCancel context.CancelFunc
	attempts   int
	exhausted  bool
	retry      Timer
	retrySeq   uint64
	run        Run

	snapMu sync.RWMutex
	snap   Snapshot
	notify chan struct{}
}

// NewController creates a controller. Call Start before any action.
func NewController(opts Options) *Controller {
	if opts.Dialer == nil {
		opts.Dialer = &transport.WebSocketDialer{Logger: opts.Logger}
	}
	if opts.Policy.Delay <= 0 {
		opts.Policy.Delay = DefaultReconnectPolicy().Delay
	}
	switch {
	case opts.Policy.Disabled:
		opts.Policy.MaxAttempts = 0
	case opts.Policy.MaxAttempts <= 0:
		opts.Policy.MaxAttempts = DefaultReconnectPolicy().MaxAttempts
	}
	if opts.Logbook == nil {
		opts.Logbook = console.NewLogbook(console.Options{})
	}
	if opts.Writer == nil {
		opts.Writer = export.NewWriter(export.WriterOptions{})
	}
	if opts.Templates == nil {
		opts.Templates = templates.NewLoader()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = clockScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	c := &Controller{
		opts:   opts,
		logger: opts.Logger.Named("session"),
		events: make(chan event, opts.QueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		notify: make(chan struct{}, 1),
	}
	c.snap = c.buildSnapshot()
	return c
}

// Start runs the event loop until ctx is cancelled or Close is called.
// Calling Start more than once has no effect.
func (c *Controller) Start(ctx context.Context) {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.started || c.stopping {
		return
	}
	c.started = true
	go c.loop(ctx)
}

// Close tears the session down: the retry timer is cancelled, pending
// transport events are discarded, the socket is closed cleanly and the loop
// stops. It blocks until every goroutine the controller started has exited.
func (c *Controller) Close() error {
	c.lifeMu.Lock()
	if c.stopping {
		c.lifeMu.Unlock()
		<-c.exited
		return nil
	}
	c.stopping = true
	started := c.started
	close(c.stop)
	c.lifeMu.Unlock()

	if !started {
		close(c.done)
		close(c.exited)
		return nil
	}
	<-c.exited
	return nil
}

// Done is closed once the controller has stopped.
func (c *Controller) Done() <-chan struct{} {
	return c.exited
}

// Logbook returns the console the controller writes to.
func (c *Controller) Logbook() *console.Logbook {
	return c.opts.Logbook
}

// Templates returns the template loader.
func (c *Controller) Templates() *templates.Loader {
	return c.opts.Templates
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

// Updates is signalled after state or the console changed. Signals coalesce,
// so an observer reads Snapshot and the logbook after each receive. It is
// meant for a single observer.
func (c *Controller) Updates() <-chan struct{} {
	return c.notify
}

// =============================================================================
// EVENT LOOP
// =============================================================================

func (c *Controller) loop(ctx context.Context) {
	defer func() {
		c.teardown()
		close(c.done)
		c.workers.Wait()
		c.logger.Debug("session stopped")
		close(c.exited)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case ev := <-c.events:
			c.handle(ev)
			c.publish()
		}
	}
}

// post enqueues an event. It returns false once the loop has stopped.
func (c *Controller) post(ev event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

// call enqueues a request and waits for its reply.
func (c *Controller) call(ev event, r reply) (any, error) {
	select {
	case c.events <- ev:
	case <-c.done:
		return nil, ErrClosed
	}
	select {
	case res := <-r:
		return res.value, res.err
	case <-c.done:
		// The loop may have answered just before stopping.
		select {
		case res := <-r:
			return res.value, res.err
		default:
			return nil, ErrClosed
		}
	}
}

func (c *Controller) publish() {
	snap := c.buildSnapshot()
	c.snapMu.Lock()
	c.snap = snap
	c.snapMu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Controller) buildSnapshot() Snapshot {
	return Snapshot{
		State:          c.state,
		URL:            c.opts.URL,
		Attempts:       c.attempts,
		MaxAttempts:    c.opts.Policy.MaxAttempts,
		RetryPending:   c.retry != nil,
		RetryExhausted: c.exhausted,
		Run:            c.run,
		HasReport:      c.opts.Logbook.HasReport(),
		LogCount:       c.opts.Logbook.Len(),
	}
}

func (c *Controller) teardown() {
	c.cancelRetry()
	c.gen++
	if c.dialCancel != nil {
		c.dialCancel()
		c.dialCancel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("close on teardown", zap.Error(err))
		}
		c.conn = nil
	}
	c.setState(Disconnected)
	c.publish()
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.logger.Debug("state change",
		zap.Stringer("from", c.state),
		zap.Stringer("state", s),
		zap.Int("attempt", c.attempts),
		zap.String("run_id", c.run.ID))
	c.state = s
}

// =============================================================================
// CONNECTION SINK
// =============================================================================

// connSink forwards transport callbacks for one connection generation. It
// holds events back until the dial result is queued so they arrive in order.
type connSink struct {
	c     *Controller
	gen   uint64
	ready chan struct{}
}

func (s *connSink) OnMessage(data []byte) {
	if s.wait() {
		s.c.post(frameEvent{gen: s.gen, data: data})
	}
}

func (s *connSink) OnClose(clean bool, err error) {
	defer s.c.workers.Done()
	if s.wait() {
		s.c.post(closeEvent{gen: s.gen, clean: clean, err: err})
	}
}

func (s *connSink) wait() bool {
	select {
	case <-s.ready:
		return true
	case <-s.c.done:
		return false
	}
}

// dial opens a connection for generation gen without blocking the loop.
func (c *Controller) dial(gen uint64) {
	ctx, cancel := context.WithCancel(context.Background())
	c.dialCancel = cancel
	sink := &connSink{c: c, gen: gen, ready: make(chan struct{})}
	url := c.opts.URL

	// One for this goroutine, one for the connection's read side which ends
	// with OnClose.
	c.workers.Add(2)
	go func() {
		defer c.workers.Done()
		defer close(sink.ready)

		conn, err := c.opts.Dialer.Dial(ctx, url, sink)
		if err != nil {
			c.workers.Done()
			conn = nil
		}
		if !c.post(dialResult{gen: gen, conn: conn, err: err}) && conn != nil {
			_ = conn.Close()
		}
	}()
}

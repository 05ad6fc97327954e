// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/pubsub/v2"
	"github.com/juju/retry"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

var logger = loggo.GetLogger("gomaasws")

// State describes the lifecycle of a Connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Closing
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closing:
		return "closing"
	}
	return "unknown"
}

// Topics published on the connection's hub.
const (
	// ConnectedTopic fires after every successful connect or reconnect
	// handshake. Managers use it to resynchronize.
	ConnectedTopic = "connection.connected"
	// DisconnectedTopic fires when an established connection is lost or
	// closed.
	DisconnectedTopic = "connection.disconnected"
)

// versionMethod is called on every (re)connect to negotiate the API version
// and capability set.
const versionMethod = "general.version"

// Only 2.x regions speak this protocol.
const supportedVersionMajor = 2

const (
	defaultRetryDelay    = 1 * time.Second
	defaultMaxRetryDelay = 30 * time.Second
)

// ConnectionArgs is an argument struct for passing options to NewConnection.
type ConnectionArgs struct {
	// Endpoint is the websocket URL of the region controller, for example
	// "ws://maas.example.com:5240/MAAS/ws".
	Endpoint string
	// Signer adds session credentials to the dial handshake. Defaults to
	// an anonymous signer.
	Signer Signer
	// Dialer opens the transport. Defaults to a WebsocketDialer.
	Dialer Dialer
	// Clock drives the reconnect backoff. Defaults to clock.WallClock.
	Clock clock.Clock
	// RetryDelay and MaxRetryDelay bound the reconnect backoff, which
	// doubles from RetryDelay up to MaxRetryDelay. Zero values mean one
	// second and thirty seconds.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// Validate ensures the required fields are set.
func (a *ConnectionArgs) Validate() error {
	if a.Endpoint == "" {
		return errors.NotValidf("missing Endpoint")
	}
	return nil
}

// pendingCall tracks one in-flight request.
type pendingCall struct {
	done   chan struct{}
	result interface{}
	err    error
}

// Connection is a persistent, reconnecting channel to a region controller,
// carrying RPC request/response frames and unsolicited create, update and
// delete notifications.
//
// Notification subscriptions are client-local bookkeeping: they survive a
// reconnect without re-registration. In-flight calls do not: when the
// transport drops, every pending call fails with a TransportError, and
// notifications missed during the outage are not replayed — each manager
// re-loads instead.
type Connection struct {
	endpoint      string
	signer        Signer
	dialer        Dialer
	clock         clock.Clock
	retryDelay    time.Duration
	maxRetryDelay time.Duration

	hub    *pubsub.SimpleHub
	router *notificationRouter

	mu           sync.Mutex
	state        State
	transport    Transport
	sessionID    uint64
	ready        bool
	reqID        uint64
	pending      map[uint64]*pendingCall
	apiVersion   version.Number
	capabilities set.Strings

	closed    chan struct{}
	closeOnce sync.Once
}

// NewConnection returns an unconnected Connection; call Connect to
// establish the channel.
func NewConnection(args ConnectionArgs) (*Connection, error) {
	if err := args.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if args.Signer == nil {
		args.Signer = NewAnonymousSigner()
	}
	if args.Dialer == nil {
		args.Dialer = WebsocketDialer{}
	}
	if args.Clock == nil {
		args.Clock = clock.WallClock
	}
	if args.RetryDelay <= 0 {
		args.RetryDelay = defaultRetryDelay
	}
	if args.MaxRetryDelay <= 0 {
		args.MaxRetryDelay = defaultMaxRetryDelay
	}
	return &Connection{
		endpoint:      args.Endpoint,
		signer:        args.Signer,
		dialer:        args.Dialer,
		clock:         args.Clock,
		retryDelay:    args.RetryDelay,
		maxRetryDelay: args.MaxRetryDelay,
		hub: pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{
			Logger: loggo.GetLogger("gomaasws.hub"),
		}),
		router:       newNotificationRouter(),
		state:        Disconnected,
		pending:      make(map[uint64]*pendingCall),
		capabilities: set.NewStrings(),
		closed:       make(chan struct{}),
	}, nil
}

// Hub exposes the connection's event hub. ConnectedTopic and
// DisconnectedTopic are published on it.
func (c *Connection) Hub() *pubsub.SimpleHub {
	return c.hub
}

// State reports the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// APIVersion returns the region API version negotiated by the most recent
// handshake.
func (c *Connection) APIVersion() version.Number {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiVersion
}

// Capabilities returns the capability set reported by the most recent
// handshake.
func (c *Connection) Capabilities() set.Strings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return set.NewStrings(c.capabilities.Values()...)
}

// RegisterNotifier subscribes fn to notifications for typeKey and returns
// its unsubscribe func. Registrations survive reconnects.
func (c *Connection) RegisterNotifier(typeKey string, fn NotifyFunc) func() {
	return c.router.register(typeKey, fn)
}

// Connect establishes the channel and performs the version handshake. It
// fails with a TransportError if the transport cannot be opened, or an
// UnsupportedVersionError if the region speaks an incompatible API. Once
// established, the connection reconnects by itself after transport loss.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	select {
	case <-c.closed:
		c.mu.Unlock()
		return errors.New("connection closed")
	default:
	}
	switch c.state {
	case Connected, Connecting:
		c.mu.Unlock()
		return errors.Errorf("connection already %s", c.state)
	}
	c.state = Connecting
	c.mu.Unlock()

	if err := c.connectOnce(ctx); err != nil {
		c.mu.Lock()
		if c.state != Connected {
			c.state = Disconnected
		}
		c.mu.Unlock()
		return errors.Trace(err)
	}
	return nil
}

// connectOnce dials, installs a new session, starts its read loop and
// performs the version handshake. Used by Connect and the reconnect loop.
func (c *Connection) connectOnce(ctx context.Context) error {
	header := http.Header{}
	if err := c.signer.Sign(header); err != nil {
		return errors.Trace(err)
	}
	transport, err := c.dialer.Dial(ctx, c.endpoint, header)
	if err != nil {
		if IsTransportError(err) {
			return errors.Trace(err)
		}
		return WrapWithTransportError(err, "dialing region")
	}

	c.mu.Lock()
	closing := c.state == Closing
	select {
	case <-c.closed:
		closing = true
	default:
	}
	if closing {
		c.mu.Unlock()
		_ = transport.Close()
		return errors.New("connection closed")
	}
	c.sessionID++
	sid := c.sessionID
	c.transport = transport
	c.state = Connected
	c.mu.Unlock()

	go c.readLoop(transport, sid)

	if err := c.handshake(ctx); err != nil {
		c.abortSession(sid, transport)
		return errors.Trace(err)
	}

	c.mu.Lock()
	if c.sessionID != sid || c.state != Connected {
		c.mu.Unlock()
		return errors.New("connection closed")
	}
	c.ready = true
	apiVersion := c.apiVersion
	c.mu.Unlock()

	logger.Debugf("connected to %s, API version %v", c.endpoint, apiVersion)
	c.hub.Publish(ConnectedTopic, nil)
	return nil
}

// handshake negotiates the API version and capabilities.
func (c *Connection) handshake(ctx context.Context) error {
	result, err := c.Call(ctx, versionMethod, nil)
	if err != nil {
		if IsRemoteError(err) {
			// The region answered but cannot service general.version;
			// retrying will not help.
			return errors.Wrap(err, NewUnsupportedVersionError("incompatible region: %v", err))
		}
		return errors.Trace(err)
	}
	apiVersion, capabilities, err := parseVersionResult(result)
	if err != nil {
		return errors.Trace(err)
	}
	if apiVersion.Major != supportedVersionMajor {
		return NewUnsupportedVersionError("unsupported API version %v", apiVersion)
	}
	c.mu.Lock()
	c.apiVersion = apiVersion
	c.capabilities = capabilities
	c.mu.Unlock()
	return nil
}

func parseVersionResult(source interface{}) (version.Number, set.Strings, error) {
	fields := schema.Fields{
		"version":      schema.String(),
		"subversion":   schema.String(),
		"capabilities": schema.List(schema.String()),
	}
	defaults := schema.Defaults{
		"subversion":   "",
		"capabilities": schema.Omit,
	}
	checker := schema.FieldMap(fields, defaults)
	coerced, err := checker.Coerce(source, nil)
	if err != nil {
		return version.Number{}, nil, WrapWithDeserializationError(err, "version response schema check failed")
	}
	valid := coerced.(map[string]interface{})

	versionString := valid["version"].(string)
	major, minor, err := version.ParseMajorMinor(versionString)
	if err != nil {
		// Some regions report a full "major.minor.patch" version.
		full, fullErr := version.Parse(versionString)
		if fullErr != nil {
			return version.Number{}, nil, WrapWithDeserializationError(err, "unexpected version string %q", versionString)
		}
		major, minor = full.Major, full.Minor
	}
	capabilities := set.NewStrings()
	if raw, ok := valid["capabilities"]; ok {
		capabilities = set.NewStrings(convertToStringSlice(raw)...)
	}
	return version.Number{Major: major, Minor: minor}, capabilities, nil
}

// Call sends one request and blocks until its response arrives, ctx is
// done, or the connection drops. Server error frames surface as a
// RemoteError carrying the frame's code and validation fields; a dropped
// connection surfaces as a TransportError. There is no timeout at this
// layer.
func (c *Connection) Call(ctx context.Context, method string, params interface{}) (interface{}, error) {
	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return nil, NewTransportError("not connected")
	}
	c.reqID++
	id := c.reqID
	call := &pendingCall{done: make(chan struct{})}
	c.pending[id] = call
	transport := c.transport
	c.mu.Unlock()

	data, err := encodeRequest(id, method, params)
	if err != nil {
		c.forget(id)
		return nil, errors.Trace(err)
	}
	logger.Tracef("-> %s", data)
	if err := transport.WriteMessage(data); err != nil {
		c.forget(id)
		return nil, WrapWithTransportError(err, "sending request")
	}

	select {
	case <-ctx.Done():
		c.forget(id)
		return nil, errors.Trace(ctx.Err())
	case <-call.done:
		return call.result, call.err
	}
}

// forget drops a pending call that will never be resolved. A response
// arriving for it later is dropped with a debug log.
func (c *Connection) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Connection) readLoop(transport Transport, sid uint64) {
	for {
		data, err := transport.ReadMessage()
		if err != nil {
			c.connectionLost(sid, err)
			return
		}
		logger.Tracef("<- %s", data)
		frame, err := decodeFrame(data)
		if err != nil {
			logger.Warningf("dropping undecodable frame: %v", err)
			continue
		}
		c.handleFrame(frame)
	}
}

// handleFrame routes one inbound frame: notifications go to the router in
// receipt order, responses resolve their pending call, anything else is
// dropped with a warning.
func (c *Connection) handleFrame(frame *serverFrame) {
	switch {
	case frame.isNotification():
		action := parseAction(frame.Action)
		if action == ActionUnknown {
			logger.Warningf("dropping %q notification with unknown action %q", frame.Name, frame.Action)
			return
		}
		data, err := decodePayload(frame.Data)
		if err != nil {
			logger.Warningf("dropping %q %s notification: %v", frame.Name, action, err)
			return
		}
		c.router.dispatch(frame.Name, action, data)
	case frame.RequestID != 0:
		c.resolve(frame)
	default:
		logger.Warningf("dropping unrecognized frame")
	}
}

func (c *Connection) resolve(frame *serverFrame) {
	c.mu.Lock()
	call, ok := c.pending[frame.RequestID]
	if ok {
		delete(c.pending, frame.RequestID)
	}
	c.mu.Unlock()
	if !ok {
		logger.Debugf("dropping response for unknown request %d", frame.RequestID)
		return
	}
	if frame.Error != nil {
		call.err = frame.Error.asError()
	} else {
		call.result, call.err = decodePayload(frame.Result)
	}
	close(call.done)
}

// takePendingLocked empties the pending table. Callers fail the returned
// calls outside the lock.
func (c *Connection) takePendingLocked() []*pendingCall {
	failed := make([]*pendingCall, 0, len(c.pending))
	for id, call := range c.pending {
		delete(c.pending, id)
		failed = append(failed, call)
	}
	return failed
}

// connectionLost runs when a session's read loop exits. A stale session
// (already torn down elsewhere) is ignored.
func (c *Connection) connectionLost(sid uint64, cause error) {
	c.mu.Lock()
	if c.sessionID != sid {
		c.mu.Unlock()
		return
	}
	c.sessionID++
	transport := c.transport
	c.transport = nil
	wasReady := c.ready
	c.ready = false
	closing := c.state == Closing
	if closing {
		c.state = Disconnected
	} else {
		c.state = Connecting
	}
	failed := c.takePendingLocked()
	c.mu.Unlock()

	if transport != nil {
		_ = transport.Close()
	}
	logger.Debugf("connection lost: %v", cause)
	for _, call := range failed {
		call.err = NewTransportError("connection lost")
		close(call.done)
	}
	if wasReady {
		c.hub.Publish(DisconnectedTopic, nil)
	}
	if wasReady && !closing {
		go c.reconnect()
	}
}

// abortSession tears down a session whose handshake failed. The read loop
// may have beaten us to it; in that case there is nothing left to do.
func (c *Connection) abortSession(sid uint64, transport Transport) {
	c.mu.Lock()
	if c.sessionID != sid {
		c.mu.Unlock()
		return
	}
	c.sessionID++
	c.transport = nil
	if c.state == Connected {
		c.state = Connecting
	}
	failed := c.takePendingLocked()
	c.mu.Unlock()

	_ = transport.Close()
	for _, call := range failed {
		call.err = NewTransportError("connection lost")
		close(call.done)
	}
}

// reconnect re-dials with doubling backoff until it succeeds, Close stops
// it, or a fatal error (anything other than a TransportError, for example a
// version rejection after a region upgrade) abandons it.
func (c *Connection) reconnect() {
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			return c.connectOnce(context.Background())
		},
		IsFatalError: func(err error) bool {
			return !IsTransportError(err)
		},
		NotifyFunc: func(lastError error, attempt int) {
			logger.Debugf("reconnect attempt %d: %v", attempt, lastError)
		},
		Attempts:    -1, // keep trying until stopped
		Delay:       c.retryDelay,
		MaxDelay:    c.maxRetryDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       c.clock,
		Stop:        c.closed,
	})
	if err == nil {
		return
	}
	if !retry.IsRetryStopped(err) {
		logger.Errorf("reconnect abandoned: %v", err)
	}
	c.mu.Lock()
	if c.state != Connected {
		c.state = Disconnected
	}
	c.mu.Unlock()
}

// Close shuts the connection down. Pending calls fail with a
// TransportError. Close is safe to call more than once.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.state == Closing {
		c.mu.Unlock()
		return nil
	}
	prev := c.state
	c.state = Closing
	transport := c.transport
	c.mu.Unlock()

	c.closeOnce.Do(func() {
		close(c.closed)
	})

	if transport != nil {
		// The read loop finishes the teardown.
		_ = transport.Close()
	} else if prev == Disconnected {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
	}
	return nil
}

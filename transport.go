// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
)

// Keepalive tuning for the websocket transport. A region that stops
// answering pings is detected within pongDelay.
const (
	// writeWait is the time allowed to write a message to the region.
	writeWait = 10 * time.Second
	// pongDelay is how long to wait for a pong before the connection is
	// considered dead.
	pongDelay = 90 * time.Second
	// pingPeriod is how often pings are sent. Must be less than pongDelay.
	pingPeriod = 30 * time.Second
)

// Transport is the underlying persistent message channel the connection
// runs over. Implementations must allow WriteMessage and Close to be called
// concurrently with a blocked ReadMessage.
type Transport interface {
	// ReadMessage blocks until the next complete message arrives, or the
	// channel fails.
	ReadMessage() ([]byte, error)
	// WriteMessage sends one complete message. Safe for concurrent use.
	WriteMessage(data []byte) error
	// Close tears the channel down; a blocked ReadMessage returns an error.
	Close() error
}

// Dialer opens a Transport to an endpoint.
type Dialer interface {
	Dial(ctx context.Context, endpoint string, header http.Header) (Transport, error)
}

// Signer adds session credentials to the dial handshake. Obtaining the
// credentials themselves is the caller's concern.
type Signer interface {
	Sign(header http.Header) error
}

// anonSigner adds no credentials. Trivially conforms to Signer.
type anonSigner struct{}

func (anonSigner) Sign(header http.Header) error {
	return nil
}

// NewAnonymousSigner returns a Signer for unauthenticated connections.
func NewAnonymousSigner() Signer {
	return anonSigner{}
}

// sessionSigner presents a browser-style session cookie.
type sessionSigner struct {
	sessionID string
	csrfToken string
}

// NewSessionSigner returns a Signer that presents the given session id and
// CSRF token as cookies, the way the region identifies a logged-in session.
func NewSessionSigner(sessionID, csrfToken string) (Signer, error) {
	if sessionID == "" {
		return nil, errors.NotValidf("empty sessionID")
	}
	return &sessionSigner{sessionID: sessionID, csrfToken: csrfToken}, nil
}

func (s *sessionSigner) Sign(header http.Header) error {
	cookie := fmt.Sprintf("sessionid=%s", s.sessionID)
	if s.csrfToken != "" {
		cookie += fmt.Sprintf("; csrftoken=%s", s.csrfToken)
	}
	header.Set("Cookie", cookie)
	return nil
}

// WebsocketDialer is the production Dialer. The zero value is usable.
type WebsocketDialer struct {
	// TLSConfig applies to wss endpoints; nil means library defaults.
	TLSConfig *tls.Config
	// HandshakeTimeout bounds the websocket handshake; zero means the
	// gorilla default.
	HandshakeTimeout time.Duration
}

// Dial implements Dialer.
func (d WebsocketDialer) Dial(ctx context.Context, endpoint string, header http.Header) (Transport, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
		TLSClientConfig:  d.TLSConfig,
	}
	conn, _, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, WrapWithTransportError(err, "dialing %s", endpoint)
	}
	return newWSTransport(conn), nil
}

// wsTransport wraps a gorilla websocket connection with client-side
// ping/pong keepalive: we ping, the region pongs, and a missed pong fails
// the read side within pongDelay.
type wsTransport struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	t := &wsTransport{
		conn: conn,
		done: make(chan struct{}),
	}
	_ = conn.SetReadDeadline(time.Now().Add(pongDelay))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongDelay))
	})
	go t.pinger()
	return t
}

func (t *wsTransport) pinger() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := t.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				// The read side will notice the dead connection.
				logger.Tracef("ping failed: %v", err)
			}
		case <-t.done:
			return
		}
	}
}

// ReadMessage implements Transport.
func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

// WriteMessage implements Transport.
func (t *wsTransport) WriteMessage(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Close implements Transport.
func (t *wsTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
	})
	return t.conn.Close()
}

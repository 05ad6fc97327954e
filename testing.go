// Copyright 2012-2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	// Test dialers connect from whatever host httptest picked.
	CheckOrigin: func(*http.Request) bool { return true },
}

// RegionNotification is a notification the FakeRegion pushes to its
// clients.
type RegionNotification struct {
	Name   string
	Action string
	Data   interface{}
}

type regionResponse struct {
	result interface{}
	err    *frameError
	// silent responses are recorded but never answered.
	silent bool
	// notifications are pushed before the response is sent.
	notifications []RegionNotification
}

// FakeRegion is a canned-response websocket region controller for tests.
// Point a Connection or Controller at Endpoint(), queue responses per
// method, and push notifications. Unqueued general.version requests are
// answered from SetVersion, so the handshake works out of the box.
type FakeRegion struct {
	server *httptest.Server

	mu           sync.Mutex
	version      string
	capabilities []string
	responses    map[string][]regionResponse
	requests     map[string][]map[string]interface{}
	conns        map[*regionConn]bool
}

// NewFakeRegion starts a fake region speaking API version 2.0 with no
// capabilities.
func NewFakeRegion() *FakeRegion {
	region := &FakeRegion{
		version:      "2.0",
		capabilities: []string{},
		responses:    make(map[string][]regionResponse),
		requests:     make(map[string][]map[string]interface{}),
		conns:        make(map[*regionConn]bool),
	}
	region.server = httptest.NewServer(http.HandlerFunc(region.handler))
	return region
}

// Endpoint returns the websocket URL clients should dial.
func (r *FakeRegion) Endpoint() string {
	return "ws" + strings.TrimPrefix(r.server.URL, "http")
}

// SetVersion changes the version the handshake reports.
func (r *FakeRegion) SetVersion(version string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.version = version
}

// SetCapabilities changes the capability list the handshake reports.
func (r *FakeRegion) SetCapabilities(capabilities ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities = capabilities
}

// AddResponse queues one successful result for method.
func (r *FakeRegion) AddResponse(method string, result interface{}) {
	r.addResponse(method, regionResponse{result: result})
}

// AddErrorResponse queues one error frame for method.
func (r *FakeRegion) AddErrorResponse(method, message, code string) {
	r.addResponse(method, regionResponse{err: &frameError{Message: message, Code: code}})
}

// AddValidationErrorResponse queues one validation error frame for method,
// carrying per-field messages.
func (r *FakeRegion) AddValidationErrorResponse(method, message string, fields map[string][]string) {
	r.addResponse(method, regionResponse{err: &frameError{
		Message: message,
		Code:    "validation",
		Fields:  fields,
	}})
}

// AddSilentResponse queues one request for method that is recorded but
// never answered, leaving the caller blocked until the connection drops.
func (r *FakeRegion) AddSilentResponse(method string) {
	r.addResponse(method, regionResponse{silent: true})
}

// AddNotifyingResponse queues one successful result for method that is
// preceded on the wire by the given notifications.
func (r *FakeRegion) AddNotifyingResponse(method string, result interface{}, notifications ...RegionNotification) {
	r.addResponse(method, regionResponse{result: result, notifications: notifications})
}

func (r *FakeRegion) addResponse(method string, response regionResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[method] = append(r.responses[method], response)
}

// Requests returns the recorded params of every request made for method.
func (r *FakeRegion) Requests(method string) []map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]interface{}(nil), r.requests[method]...)
}

// Notify pushes one notification to every connected client.
func (r *FakeRegion) Notify(name, action string, data interface{}) {
	frame := notificationFrame(RegionNotification{Name: name, Action: action, Data: data})
	for _, conn := range r.connections() {
		_ = conn.send(frame)
	}
}

// CloseConnections drops every live websocket, as a region restart would.
func (r *FakeRegion) CloseConnections() {
	for _, conn := range r.connections() {
		_ = conn.ws.Close()
	}
}

// Close shuts the fake region down.
func (r *FakeRegion) Close() {
	r.CloseConnections()
	r.server.Close()
}

func (r *FakeRegion) connections() []*regionConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*regionConn, 0, len(r.conns))
	for conn := range r.conns {
		result = append(result, conn)
	}
	return result
}

// regionConn serializes writes: notification pushes race request replies.
type regionConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *regionConn) send(value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(value)
}

func (r *FakeRegion) handler(writer http.ResponseWriter, request *http.Request) {
	ws, err := testUpgrader.Upgrade(writer, request, nil)
	if err != nil {
		return
	}
	conn := &regionConn{ws: ws}
	r.mu.Lock()
	r.conns[conn] = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.conns, conn)
		r.mu.Unlock()
		_ = ws.Close()
	}()

	for {
		var frame map[string]interface{}
		if err := ws.ReadJSON(&frame); err != nil {
			return
		}
		r.handleRequest(conn, frame)
	}
}

func (r *FakeRegion) handleRequest(conn *regionConn, frame map[string]interface{}) {
	requestID, _ := frame["request_id"].(float64)
	method, _ := frame["method"].(string)
	params, _ := frame["params"].(map[string]interface{})

	r.mu.Lock()
	r.requests[method] = append(r.requests[method], params)
	var response *regionResponse
	if queue := r.responses[method]; len(queue) > 0 {
		response = &queue[0]
		r.responses[method] = queue[1:]
	}
	version := r.version
	capabilities := append([]string{}, r.capabilities...)
	r.mu.Unlock()

	if response == nil {
		if method == versionMethod {
			_ = conn.send(map[string]interface{}{
				"request_id": requestID,
				"result": map[string]interface{}{
					"version":      version,
					"subversion":   "",
					"capabilities": capabilities,
				},
			})
			return
		}
		_ = conn.send(map[string]interface{}{
			"request_id": requestID,
			"error": map[string]interface{}{
				"message": "no handler for " + method,
				"code":    "bad-request",
			},
		})
		return
	}
	if response.silent {
		return
	}
	for _, notification := range response.notifications {
		_ = conn.send(notificationFrame(notification))
	}
	if response.err != nil {
		errorBody := map[string]interface{}{
			"message": response.err.Message,
		}
		if response.err.Code != "" {
			errorBody["code"] = response.err.Code
		}
		if len(response.err.Fields) > 0 {
			errorBody["fields"] = response.err.Fields
		}
		_ = conn.send(map[string]interface{}{
			"request_id": requestID,
			"error":      errorBody,
		})
		return
	}
	_ = conn.send(map[string]interface{}{
		"request_id": requestID,
		"result":     response.result,
	})
}

func notificationFrame(notification RegionNotification) map[string]interface{} {
	return map[string]interface{}{
		"type":   notifyFrameType,
		"name":   notification.Name,
		"action": notification.Action,
		"data":   notification.Data,
	}
}

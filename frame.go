// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"encoding/json"

	"github.com/juju/errors"
)

// notifyFrameType tags the unsolicited frames the region pushes when an
// object is created, updated or deleted.
const notifyFrameType = "notify"

// requestFrame is the outbound RPC frame. Request ids are generated by the
// connection, starting at 1, and never reused within a session.
type requestFrame struct {
	RequestID uint64      `json:"request_id"`
	Method    string      `json:"method"`
	Params    interface{} `json:"params"`
}

// serverFrame is the shape of every inbound frame. A frame with Type
// "notify" is a notification; anything else correlates to a pending request
// by RequestID and carries either Result or Error.
type serverFrame struct {
	Type      string          `json:"type,omitempty"`
	RequestID uint64          `json:"request_id,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *frameError     `json:"error,omitempty"`
	Name      string          `json:"name,omitempty"`
	Action    string          `json:"action,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// frameError is the error half of a response frame. Code and Fields are
// optional; Fields is only populated for validation failures.
type frameError struct {
	Message string              `json:"message"`
	Code    string              `json:"code,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func (f *serverFrame) isNotification() bool {
	return f.Type == notifyFrameType
}

// asError converts the frame's error payload into a RemoteError carrying
// the code and any validation fields.
func (f *frameError) asError() error {
	return NewRemoteError(f.Message, f.Code, f.Fields)
}

// decodeFrame unpacks one websocket text message.
func decodeFrame(data []byte) (*serverFrame, error) {
	var frame serverFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, WrapWithDeserializationError(err, "decoding frame")
	}
	return &frame, nil
}

// decodePayload unpacks raw JSON into the generic values the schema readers
// consume. A missing or null payload decodes to nil.
func decodePayload(raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, WrapWithDeserializationError(err, "decoding payload")
	}
	return value, nil
}

// encodeRequest builds the outbound frame bytes. Nil params are sent as an
// empty mapping, which is what the region expects.
func encodeRequest(id uint64, method string, params interface{}) ([]byte, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	data, err := json.Marshal(requestFrame{
		RequestID: id,
		Method:    method,
		Params:    params,
	})
	if err != nil {
		return nil, errors.Annotatef(err, "encoding request %d %s", id, method)
	}
	return data, nil
}

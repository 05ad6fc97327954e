// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"fmt"

	"github.com/juju/errors"
)

// NoMatchError is returned when the requested object does not exist on the
// region controller, for example setting the active item to a primary key
// the region has never heard of.
type NoMatchError struct {
	errors.Err
}

// NewNoMatchError constructs a NoMatchError and sets the location.
func NewNoMatchError(message string) error {
	err := &NoMatchError{Err: errors.NewErr(message)}
	err.SetLocation(1)
	return err
}

// IsNoMatchError returns true if err is a NoMatchError.
func IsNoMatchError(err error) bool {
	_, ok := errors.Cause(err).(*NoMatchError)
	return ok
}

// UnexpectedError is an error for a condition that hasn't been determined.
type UnexpectedError struct {
	errors.Err
}

// NewUnexpectedError constructs an UnexpectedError and sets the location.
func NewUnexpectedError(err error) error {
	uerr := &UnexpectedError{
		Err: errors.NewErr("unexpected: %v", err),
	}
	uerr.SetLocation(1)
	return errors.Wrap(err, uerr)
}

// IsUnexpectedError returns true if err is an UnexpectedError.
func IsUnexpectedError(err error) bool {
	_, ok := errors.Cause(err).(*UnexpectedError)
	return ok
}

// UnsupportedVersionError refers to connections made to an unsupported
// version of the region API.
type UnsupportedVersionError struct {
	errors.Err
}

// NewUnsupportedVersionError constructs an UnsupportedVersionError and sets
// the location.
func NewUnsupportedVersionError(format string, args ...interface{}) error {
	err := &UnsupportedVersionError{Err: errors.NewErr(format, args...)}
	err.SetLocation(1)
	return err
}

// IsUnsupportedVersionError returns true if err is an
// UnsupportedVersionError.
func IsUnsupportedVersionError(err error) bool {
	_, ok := errors.Cause(err).(*UnsupportedVersionError)
	return ok
}

// DeserializationError types are returned when the returned JSON data from
// the region controller doesn't match the code's expectations.
type DeserializationError struct {
	errors.Err
}

// NewDeserializationError constructs a DeserializationError and sets the
// location.
func NewDeserializationError(format string, args ...interface{}) error {
	err := &DeserializationError{Err: errors.NewErr(format, args...)}
	err.SetLocation(1)
	return err
}

// WrapWithDeserializationError constructs a DeserializationError with the
// specified message, and sets the location and returns a new error with the
// full error stack set including the error passed in.
func WrapWithDeserializationError(err error, format string, args ...interface{}) error {
	message := fmt.Sprintf(format, args...)
	// We want the deserialization error message to include the error text of
	// the previous error, but wrap it in the new type.
	derr := &DeserializationError{Err: errors.NewErr(message + ": " + err.Error())}
	derr.SetLocation(1)
	return errors.Wrap(err, derr)
}

// IsDeserializationError returns true if err is a DeserializationError.
func IsDeserializationError(err error) bool {
	_, ok := errors.Cause(err).(*DeserializationError)
	return ok
}

// BadRequestError is returned when the requested action cannot be performed
// due to bad or incorrect parameters passed to the region controller.
type BadRequestError struct {
	errors.Err
}

// NewBadRequestError constructs a BadRequestError and sets the location.
func NewBadRequestError(message string) error {
	err := &BadRequestError{Err: errors.NewErr(message)}
	err.SetLocation(1)
	return err
}

// IsBadRequestError returns true if err is a BadRequestError.
func IsBadRequestError(err error) bool {
	_, ok := errors.Cause(err).(*BadRequestError)
	return ok
}

// PermissionError is returned when the user does not have permission to do
// the requested action.
type PermissionError struct {
	errors.Err
}

// NewPermissionError constructs a PermissionError and sets the location.
func NewPermissionError(message string) error {
	err := &PermissionError{Err: errors.NewErr(message)}
	err.SetLocation(1)
	return err
}

// IsPermissionError returns true if err is a PermissionError.
func IsPermissionError(err error) bool {
	_, ok := errors.Cause(err).(*PermissionError)
	return ok
}

// TransportError is returned when the websocket connection cannot be
// established, or drops before a response arrives. Every call pending at
// the moment the connection is lost fails with a TransportError.
type TransportError struct {
	errors.Err
}

// NewTransportError constructs a TransportError and sets the location.
func NewTransportError(format string, args ...interface{}) error {
	err := &TransportError{Err: errors.NewErr(format, args...)}
	err.SetLocation(1)
	return err
}

// WrapWithTransportError constructs a TransportError with the specified
// message, and sets the location and returns a new error with the full
// error stack set including the error passed in.
func WrapWithTransportError(err error, format string, args ...interface{}) error {
	message := fmt.Sprintf(format, args...)
	terr := &TransportError{Err: errors.NewErr(message + ": " + err.Error())}
	terr.SetLocation(1)
	return errors.Wrap(err, terr)
}

// IsTransportError returns true if err is a TransportError.
func IsTransportError(err error) bool {
	_, ok := errors.Cause(err).(*TransportError)
	return ok
}

// RemoteError is returned when the region controller answers a call with an
// error frame. It is surfaced only to that call; other pending calls are
// unaffected.
type RemoteError struct {
	errors.Err
	// Code is the optional machine-readable error code from the frame.
	Code string
	// Fields holds field validation messages when the region rejected the
	// parameters of a create or update call.
	Fields map[string][]string
}

// NewRemoteError constructs a RemoteError and sets the location.
func NewRemoteError(message, code string, fields map[string][]string) error {
	err := &RemoteError{
		Err:    errors.NewErr(message),
		Code:   code,
		Fields: fields,
	}
	err.SetLocation(1)
	return err
}

// IsRemoteError returns true if err is a RemoteError.
func IsRemoteError(err error) bool {
	_, ok := errors.Cause(err).(*RemoteError)
	return ok
}

// ValidationError is returned when the region controller rejected a create
// or update call because one or more fields failed server-side validation.
// Fields maps each rejected field name to its messages.
type ValidationError struct {
	errors.Err
	Fields map[string][]string
}

// NewValidationError constructs a ValidationError and sets the location.
func NewValidationError(message string, fields map[string][]string) error {
	err := &ValidationError{
		Err:    errors.NewErr(message),
		Fields: fields,
	}
	err.SetLocation(1)
	return err
}

// IsValidationError returns true if err is a ValidationError.
func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

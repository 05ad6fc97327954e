// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"strings"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
)

type errorTypesSuite struct{}

var _ = gc.Suite(&errorTypesSuite{})

func (*errorTypesSuite) TestNoMatchError(c *gc.C) {
	err := NewNoMatchError("foo")
	c.Assert(err, gc.NotNil)
	c.Assert(err, jc.Satisfies, IsNoMatchError)
}

func (*errorTypesSuite) TestUnexpectedError(c *gc.C) {
	err := errors.New("wat")
	err = NewUnexpectedError(err)
	c.Assert(err, gc.NotNil)
	c.Assert(err, jc.Satisfies, IsUnexpectedError)
	c.Assert(err.Error(), gc.Equals, "unexpected: wat")
}

func (*errorTypesSuite) TestUnsupportedVersionError(c *gc.C) {
	err := NewUnsupportedVersionError("foo %d", 42)
	c.Assert(err, gc.NotNil)
	c.Assert(err, jc.Satisfies, IsUnsupportedVersionError)
	c.Assert(err.Error(), gc.Equals, "foo 42")
}

func (*errorTypesSuite) TestDeserializationError(c *gc.C) {
	err := NewDeserializationError("foo %d", 42)
	c.Assert(err, gc.NotNil)
	c.Assert(err, jc.Satisfies, IsDeserializationError)
	c.Assert(err.Error(), gc.Equals, "foo 42")
}

func (*errorTypesSuite) TestWrapWithDeserializationError(c *gc.C) {
	err := errors.New("base error")
	err = WrapWithDeserializationError(err, "foo %d", 42)
	c.Assert(err, gc.NotNil)
	c.Assert(err, jc.Satisfies, IsDeserializationError)
	c.Assert(err.Error(), gc.Equals, "foo 42: base error")
	stack := errors.ErrorStack(err)
	c.Assert(strings.Split(stack, "\n"), gc.HasLen, 2)
}

func (*errorTypesSuite) TestBadRequestError(c *gc.C) {
	err := NewBadRequestError("omg")
	c.Assert(err, gc.NotNil)
	c.Assert(err, jc.Satisfies, IsBadRequestError)
	c.Assert(err.Error(), gc.Equals, "omg")
}

func (*errorTypesSuite) TestPermissionError(c *gc.C) {
	err := NewPermissionError("naughty")
	c.Assert(err, gc.NotNil)
	c.Assert(err, jc.Satisfies, IsPermissionError)
	c.Assert(err.Error(), gc.Equals, "naughty")
}

func (*errorTypesSuite) TestTransportError(c *gc.C) {
	err := NewTransportError("socket went %s", "away")
	c.Assert(err, gc.NotNil)
	c.Assert(err, jc.Satisfies, IsTransportError)
	c.Assert(err.Error(), gc.Equals, "socket went away")
}

func (*errorTypesSuite) TestWrapWithTransportError(c *gc.C) {
	err := errors.New("broken pipe")
	err = WrapWithTransportError(err, "sending request")
	c.Assert(err, gc.NotNil)
	c.Assert(err, jc.Satisfies, IsTransportError)
	c.Assert(err.Error(), gc.Equals, "sending request: broken pipe")
	stack := errors.ErrorStack(err)
	c.Assert(strings.Split(stack, "\n"), gc.HasLen, 2)
}

func (*errorTypesSuite) TestRemoteError(c *gc.C) {
	err := NewRemoteError("no such method", "bad-request", nil)
	c.Assert(err, gc.NotNil)
	c.Assert(err, jc.Satisfies, IsRemoteError)
	c.Assert(err.Error(), gc.Equals, "no such method")
	remote := errors.Cause(err).(*RemoteError)
	c.Assert(remote.Code, gc.Equals, "bad-request")
	c.Assert(remote.Fields, gc.IsNil)
}

func (*errorTypesSuite) TestValidationError(c *gc.C) {
	fields := map[string][]string{
		"cidr": {"this field is required"},
	}
	err := NewValidationError("invalid subnet", fields)
	c.Assert(err, gc.NotNil)
	c.Assert(err, jc.Satisfies, IsValidationError)
	c.Assert(err.Error(), gc.Equals, "invalid subnet")
	verr := errors.Cause(err).(*ValidationError)
	c.Assert(verr.Fields, jc.DeepEquals, fields)
}

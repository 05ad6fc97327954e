// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
)

type utilSuite struct{}

var _ = gc.Suite(&utilSuite{})

func (*utilSuite) TestNormalizeKey(c *gc.C) {
	for _, test := range []struct {
		value interface{}
		key   string
		ok    bool
	}{
		{value: 47, key: "47", ok: true},
		{value: int64(47), key: "47", ok: true},
		{value: float64(47), key: "47", ok: true},
		{value: "47", key: "47", ok: true},
		{value: "4y3h8a", key: "4y3h8a", ok: true},
		{value: "", key: "", ok: false},
		{value: 47.5, key: "", ok: false},
		{value: nil, key: "", ok: false},
		{value: true, key: "", ok: false},
	} {
		key, ok := normalizeKey(test.value)
		c.Check(key, gc.Equals, test.key)
		c.Check(ok, gc.Equals, test.ok)
	}
}

func (*utilSuite) TestConvertToStringSlice(c *gc.C) {
	c.Check(convertToStringSlice(nil), gc.IsNil)
	c.Check(
		convertToStringSlice([]interface{}{"a", "b"}),
		jc.DeepEquals, []string{"a", "b"})
}

func (*utilSuite) TestConvertToStringMap(c *gc.C) {
	c.Check(convertToStringMap(nil), gc.IsNil)
	c.Check(
		convertToStringMap(map[string]interface{}{"name": "wedge"}),
		jc.DeepEquals, map[string]string{"name": "wedge"})
}

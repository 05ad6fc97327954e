// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
)

type paramsSuite struct{}

var _ = gc.Suite(&paramsSuite{})

func (*paramsSuite) TestAdd(c *gc.C) {
	params := NewParams()
	params.Add("zero", 0)
	params.Add("empty", "")
	c.Check(params.Values, jc.DeepEquals, map[string]interface{}{
		"zero":  0,
		"empty": "",
	})
}

func (*paramsSuite) TestMaybeAdd(c *gc.C) {
	params := NewParams()
	params.MaybeAdd("name", "fred")
	params.MaybeAdd("empty", "")
	c.Check(params.Values, jc.DeepEquals, map[string]interface{}{
		"name": "fred",
	})
}

func (*paramsSuite) TestMaybeAddInt(c *gc.C) {
	params := NewParams()
	params.MaybeAddInt("vid", 50)
	params.MaybeAddInt("zero", 0)
	c.Check(params.Values, jc.DeepEquals, map[string]interface{}{
		"vid": 50,
	})
}

func (*paramsSuite) TestMaybeAddBool(c *gc.C) {
	params := NewParams()
	params.MaybeAddBool("dhcp_on", true)
	params.MaybeAddBool("managed", false)
	c.Check(params.Values, jc.DeepEquals, map[string]interface{}{
		"dhcp_on": true,
	})
}

func (*paramsSuite) TestMaybeAddMany(c *gc.C) {
	params := NewParams()
	params.MaybeAddMany("tags", []string{"foo", "", "bar"})
	params.MaybeAddMany("none", nil)
	params.MaybeAddMany("empties", []string{"", ""})
	c.Check(params.Values, jc.DeepEquals, map[string]interface{}{
		"tags": []string{"foo", "bar"},
	})
}

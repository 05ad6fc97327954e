// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	jc "github.com/juju/testing/checkers"
	"github.com/juju/version/v2"
	gc "gopkg.in/check.v1"
)

type zoneSuite struct{}

var _ = gc.Suite(&zoneSuite{})

func (*zoneSuite) TestReadZoneBadSchema(c *gc.C) {
	_, err := readZone(twoDotOh, "wat?")
	c.Assert(err, jc.Satisfies, IsDeserializationError)
	c.Assert(err.Error(), gc.Matches, `zone 2.0 schema check failed: .*`)
}

func (*zoneSuite) TestReadZone(c *gc.C) {
	fields, err := readZone(twoDotOh, parseJSON(c, zoneResponse))
	c.Assert(err, jc.ErrorIsNil)
	view := zone{newManagedObject(fields)}
	c.Check(view.ID(), gc.Equals, 1)
	c.Check(view.Name(), gc.Equals, "default")
	c.Check(view.Description(), gc.Equals, "default zone")
}

func (*zoneSuite) TestLowVersion(c *gc.C) {
	_, err := readZone(version.MustParse("1.9.0"), parseJSON(c, zoneResponse))
	c.Assert(err, jc.Satisfies, IsUnsupportedVersionError)
	c.Assert(err.Error(), gc.Equals, `no zone read func for version 1.9.0`)
}

func (*zoneSuite) TestHighVersion(c *gc.C) {
	_, err := readZone(version.MustParse("2.1.9"), parseJSON(c, zoneResponse))
	c.Assert(err, jc.ErrorIsNil)
}

func (*zoneSuite) TestCreateZoneArgs(c *gc.C) {
	empty := CreateZoneArgs{}
	c.Check(empty.Validate(), gc.ErrorMatches, "missing Name not valid")

	args := CreateZoneArgs{Name: "dmz", Description: "perimeter machines"}
	c.Check(args.Validate(), jc.ErrorIsNil)
	c.Check(args.toParams().Values, jc.DeepEquals, map[string]interface{}{
		"name":        "dmz",
		"description": "perimeter machines",
	})
}

func (s *zoneSuite) TestTypedAccessors(c *gc.C) {
	conn := newFakeConn()
	conn.addResponse("zone.list", []interface{}{parseJSON(c, zoneResponse)})
	manager := newZoneManager(conn)
	_, err := manager.Load(context.Background())
	c.Assert(err, jc.ErrorIsNil)

	zones := manager.Zones()
	c.Assert(zones, gc.HasLen, 1)
	c.Check(zones[0].Name(), gc.Equals, "default")
	c.Check(manager.Zone(1), gc.Equals, zones[0])
	c.Check(manager.Zone(999), gc.IsNil)
}

func (s *zoneSuite) TestCreateZone(c *gc.C) {
	conn := newFakeConn()
	conn.addResponse("zone.list", []interface{}{})
	conn.addResponse("zone.create", parseJSON(c, zoneCreatedResponse))
	manager := newZoneManager(conn)
	_, err := manager.Load(context.Background())
	c.Assert(err, jc.ErrorIsNil)

	created, err := manager.CreateZone(context.Background(), CreateZoneArgs{Name: "dmz"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(created.ID(), gc.Equals, 2)
	c.Check(created.Name(), gc.Equals, "dmz")
	call := conn.lastCall(c, "zone.create")
	c.Check(call.params, jc.DeepEquals, map[string]interface{}{"name": "dmz"})
}

const zoneResponse = `
{
    "id": 1,
    "name": "default",
    "description": "default zone"
}
`

const zoneCreatedResponse = `
{
    "id": 2,
    "name": "dmz",
    "description": ""
}
`

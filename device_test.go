// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	jc "github.com/juju/testing/checkers"
	"github.com/juju/version/v2"
	gc "gopkg.in/check.v1"
)

type deviceSuite struct{}

var _ = gc.Suite(&deviceSuite{})

func (*deviceSuite) TestReadDeviceBadSchema(c *gc.C) {
	_, err := readDevice(twoDotOh, "wat?")
	c.Assert(err, jc.Satisfies, IsDeserializationError)
	c.Assert(err.Error(), gc.Matches, `device 2.0 schema check failed: .*`)
}

func (*deviceSuite) TestReadDevice(c *gc.C) {
	fields, err := readDevice(twoDotOh, parseJSON(c, deviceResponse))
	c.Assert(err, jc.ErrorIsNil)
	view := device{newManagedObject(fields)}
	c.Check(view.SystemID(), gc.Equals, "4y3ha8")
	c.Check(view.Hostname(), gc.Equals, "furnacelike-brittney")
	c.Check(view.FQDN(), gc.Equals, "furnacelike-brittney.maas")
	c.Check(view.Owner(), gc.Equals, "thumper")
	c.Check(view.Parent(), gc.Equals, "4y3ha3")
	c.Check(view.IPAddresses(), jc.DeepEquals, []string{"192.168.100.11"})
	c.Check(view.Zone(), gc.Equals, "default")
}

func (*deviceSuite) TestReadDeviceNulls(c *gc.C) {
	fields, err := readDevice(twoDotOh, parseJSON(c, deviceNullsResponse))
	c.Assert(err, jc.ErrorIsNil)
	view := device{newManagedObject(fields)}
	c.Check(view.Owner(), gc.Equals, "")
	c.Check(view.Parent(), gc.Equals, "")
	c.Check(view.IPAddresses(), gc.HasLen, 0)
	c.Check(view.Zone(), gc.Equals, "")
}

func (*deviceSuite) TestLowVersion(c *gc.C) {
	_, err := readDevice(version.MustParse("1.9.0"), parseJSON(c, deviceResponse))
	c.Assert(err, jc.Satisfies, IsUnsupportedVersionError)
	c.Assert(err.Error(), gc.Equals, `no device read func for version 1.9.0`)
}

func (*deviceSuite) TestHighVersion(c *gc.C) {
	_, err := readDevice(version.MustParse("2.1.9"), parseJSON(c, deviceResponse))
	c.Assert(err, jc.ErrorIsNil)
}

func (s *deviceSuite) newLoaded(c *gc.C) (*fakeConn, *DeviceManager) {
	conn := newFakeConn()
	conn.addResponse("device.list", []interface{}{parseJSON(c, deviceResponse)})
	manager := newDeviceManager(conn)
	_, err := manager.Load(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	return conn, manager
}

func (s *deviceSuite) TestTypedAccessors(c *gc.C) {
	_, manager := s.newLoaded(c)
	devices := manager.Devices()
	c.Assert(devices, gc.HasLen, 1)
	c.Check(devices[0].SystemID(), gc.Equals, "4y3ha8")
	c.Check(manager.Device("4y3ha8"), gc.Equals, devices[0])
	c.Check(manager.Device("nope"), gc.IsNil)
}

func (s *deviceSuite) TestCreatedNotification(c *gc.C) {
	conn, manager := s.newLoaded(c)

	conn.router.dispatch("device", ActionCreated, parseJSON(c, deviceNullsResponse))

	c.Assert(manager.Devices(), gc.HasLen, 2)
	added := manager.Device("4y3ha9")
	c.Assert(added, gc.NotNil)
	c.Check(added.Hostname(), gc.Equals, "lumpy-candice")
}

const deviceResponse = `
{
    "system_id": "4y3ha8",
    "hostname": "furnacelike-brittney",
    "fqdn": "furnacelike-brittney.maas",
    "owner": "thumper",
    "parent": "4y3ha3",
    "ip_addresses": ["192.168.100.11"],
    "zone": "default"
}
`

const deviceNullsResponse = `
{
    "system_id": "4y3ha9",
    "hostname": "lumpy-candice",
    "fqdn": "lumpy-candice.maas",
    "owner": null,
    "parent": null,
    "ip_addresses": null,
    "zone": null
}
`

// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	jc "github.com/juju/testing/checkers"
	"github.com/juju/version/v2"
	gc "gopkg.in/check.v1"
)

type fabricSuite struct{}

var _ = gc.Suite(&fabricSuite{})

func (*fabricSuite) TestReadFabricBadSchema(c *gc.C) {
	_, err := readFabric(twoDotOh, "wat?")
	c.Assert(err, jc.Satisfies, IsDeserializationError)
	c.Assert(err.Error(), gc.Matches, `fabric 2.0 schema check failed: .*`)
}

func (*fabricSuite) TestReadFabric(c *gc.C) {
	fields, err := readFabric(twoDotOh, parseJSON(c, fabricResponse))
	c.Assert(err, jc.ErrorIsNil)
	view := fabric{newManagedObject(fields)}
	c.Check(view.ID(), gc.Equals, 0)
	c.Check(view.Name(), gc.Equals, "fabric-0")
	c.Check(view.ClassType(), gc.Equals, "")
	c.Check(view.VLANIDs(), jc.DeepEquals, []int{5001, 5002})
}

func (*fabricSuite) TestLowVersion(c *gc.C) {
	_, err := readFabric(version.MustParse("1.9.0"), parseJSON(c, fabricResponse))
	c.Assert(err, jc.Satisfies, IsUnsupportedVersionError)
	c.Assert(err.Error(), gc.Equals, `no fabric read func for version 1.9.0`)
}

func (*fabricSuite) TestHighVersion(c *gc.C) {
	_, err := readFabric(version.MustParse("2.1.9"), parseJSON(c, fabricResponse))
	c.Assert(err, jc.ErrorIsNil)
}

func (*fabricSuite) TestCreateFabricArgs(c *gc.C) {
	args := CreateFabricArgs{Name: "storage", ClassType: "10g"}
	c.Check(args.toParams().Values, jc.DeepEquals, map[string]interface{}{
		"name":       "storage",
		"class_type": "10g",
	})
	// Everything is optional; the region names unnamed fabrics.
	empty := CreateFabricArgs{}
	c.Check(empty.toParams().Values, jc.DeepEquals, map[string]interface{}{})
}

func (s *fabricSuite) TestTypedAccessors(c *gc.C) {
	conn := newFakeConn()
	conn.addResponse("fabric.list", []interface{}{parseJSON(c, fabricResponse)})
	manager := newFabricManager(conn)
	_, err := manager.Load(context.Background())
	c.Assert(err, jc.ErrorIsNil)

	fabrics := manager.Fabrics()
	c.Assert(fabrics, gc.HasLen, 1)
	c.Check(fabrics[0].Name(), gc.Equals, "fabric-0")
	c.Check(manager.Fabric(0), gc.Equals, fabrics[0])
	c.Check(manager.Fabric(999), gc.IsNil)
}

func (s *fabricSuite) TestCreateFabric(c *gc.C) {
	conn := newFakeConn()
	conn.addResponse("fabric.list", []interface{}{})
	conn.addResponse("fabric.create", parseJSON(c, fabricCreatedResponse))
	manager := newFabricManager(conn)
	_, err := manager.Load(context.Background())
	c.Assert(err, jc.ErrorIsNil)

	created, err := manager.CreateFabric(context.Background(), CreateFabricArgs{Name: "storage"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(created.ID(), gc.Equals, 2)
	c.Check(created.Name(), gc.Equals, "storage")
	c.Check(created.VLANIDs(), gc.IsNil)
	call := conn.lastCall(c, "fabric.create")
	c.Check(call.params, jc.DeepEquals, map[string]interface{}{"name": "storage"})
}

const fabricResponse = `
{
    "id": 0,
    "name": "fabric-0",
    "class_type": null,
    "vlan_ids": [5001, 5002]
}
`

const fabricCreatedResponse = `
{
    "id": 2,
    "name": "storage",
    "class_type": null,
    "vlan_ids": null
}
`

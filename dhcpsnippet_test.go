// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	jc "github.com/juju/testing/checkers"
	"github.com/juju/version/v2"
	gc "gopkg.in/check.v1"
)

type dhcpSnippetSuite struct{}

var _ = gc.Suite(&dhcpSnippetSuite{})

func (*dhcpSnippetSuite) TestReadDHCPSnippetBadSchema(c *gc.C) {
	_, err := readDHCPSnippet(twoDotOh, "wat?")
	c.Assert(err, jc.Satisfies, IsDeserializationError)
	c.Assert(err.Error(), gc.Matches, `dhcpsnippet 2.0 schema check failed: .*`)
}

func (*dhcpSnippetSuite) TestReadDHCPSnippet(c *gc.C) {
	fields, err := readDHCPSnippet(twoDotOh, parseJSON(c, dhcpSnippetResponse))
	c.Assert(err, jc.ErrorIsNil)
	view := dhcpSnippet{newManagedObject(fields)}
	c.Check(view.ID(), gc.Equals, 1)
	c.Check(view.Name(), gc.Equals, "bootfile")
	c.Check(view.Description(), gc.Equals, "PXE boot options")
	c.Check(view.Value(), gc.Equals, `option bootfile-name "pxelinux.0";`)
	c.Check(view.Enabled(), jc.IsTrue)
	c.Check(view.SubnetID(), gc.Equals, 1)
	c.Check(view.NodeSystemID(), gc.Equals, "")
}

func (*dhcpSnippetSuite) TestReadDHCPSnippetGlobal(c *gc.C) {
	fields, err := readDHCPSnippet(twoDotOh, parseJSON(c, dhcpSnippetGlobalResponse))
	c.Assert(err, jc.ErrorIsNil)
	view := dhcpSnippet{newManagedObject(fields)}
	c.Check(view.SubnetID(), gc.Equals, 0)
	c.Check(view.Enabled(), jc.IsFalse)
}

func (*dhcpSnippetSuite) TestReadDHCPSnippetNodeScoped(c *gc.C) {
	fields, err := readDHCPSnippet(twoDotOh, parseJSON(c, dhcpSnippetNodeResponse))
	c.Assert(err, jc.ErrorIsNil)
	view := dhcpSnippet{newManagedObject(fields)}
	c.Check(view.SubnetID(), gc.Equals, 0)
	c.Check(view.NodeSystemID(), gc.Equals, "4y3ha3")
}

func (*dhcpSnippetSuite) TestLowVersion(c *gc.C) {
	_, err := readDHCPSnippet(version.MustParse("1.9.0"), parseJSON(c, dhcpSnippetResponse))
	c.Assert(err, jc.Satisfies, IsUnsupportedVersionError)
	c.Assert(err.Error(), gc.Equals, `no dhcpsnippet read func for version 1.9.0`)
}

func (*dhcpSnippetSuite) TestHighVersion(c *gc.C) {
	_, err := readDHCPSnippet(version.MustParse("2.1.9"), parseJSON(c, dhcpSnippetResponse))
	c.Assert(err, jc.ErrorIsNil)
}

func (*dhcpSnippetSuite) TestCreateDHCPSnippetArgs(c *gc.C) {
	empty := CreateDHCPSnippetArgs{}
	c.Check(empty.Validate(), gc.ErrorMatches, "missing Name not valid")
	noValue := CreateDHCPSnippetArgs{Name: "bootfile"}
	c.Check(noValue.Validate(), gc.ErrorMatches, "missing Value not valid")

	args := CreateDHCPSnippetArgs{
		Name:    "bootfile",
		Value:   "option bootfile-name;",
		Enabled: true,
		Subnet:  1,
	}
	c.Check(args.Validate(), jc.ErrorIsNil)
	c.Check(args.toParams().Values, jc.DeepEquals, map[string]interface{}{
		"name":    "bootfile",
		"value":   "option bootfile-name;",
		"enabled": true,
		"subnet":  1,
	})

	both := CreateDHCPSnippetArgs{Name: "x", Value: "y", Subnet: 1, Node: "4y3ha3"}
	c.Check(both.Validate(), gc.ErrorMatches, "both Subnet and Node not valid")

	// A disabled global snippet still sends enabled explicitly.
	global := CreateDHCPSnippetArgs{Name: "ntp", Value: "option ntp-servers 10.0.0.1;"}
	c.Check(global.toParams().Values, jc.DeepEquals, map[string]interface{}{
		"name":    "ntp",
		"value":   "option ntp-servers 10.0.0.1;",
		"enabled": false,
	})
}

func (s *dhcpSnippetSuite) TestTypedAccessors(c *gc.C) {
	conn := newFakeConn()
	conn.addResponse("dhcpsnippet.list", []interface{}{parseJSON(c, dhcpSnippetResponse)})
	manager := newDHCPSnippetManager(conn)
	_, err := manager.Load(context.Background())
	c.Assert(err, jc.ErrorIsNil)

	snippets := manager.DHCPSnippets()
	c.Assert(snippets, gc.HasLen, 1)
	c.Check(snippets[0].Name(), gc.Equals, "bootfile")
	c.Check(manager.DHCPSnippet(1), gc.Equals, snippets[0])
	c.Check(manager.DHCPSnippet(999), gc.IsNil)
}

func (s *dhcpSnippetSuite) TestCreateDHCPSnippet(c *gc.C) {
	conn := newFakeConn()
	conn.addResponse("dhcpsnippet.list", []interface{}{})
	conn.addResponse("dhcpsnippet.create", parseJSON(c, dhcpSnippetResponse))
	manager := newDHCPSnippetManager(conn)
	_, err := manager.Load(context.Background())
	c.Assert(err, jc.ErrorIsNil)

	created, err := manager.CreateDHCPSnippet(context.Background(), CreateDHCPSnippetArgs{
		Name:    "bootfile",
		Value:   `option bootfile-name "pxelinux.0";`,
		Enabled: true,
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(created.ID(), gc.Equals, 1)
	call := conn.lastCall(c, "dhcpsnippet.create")
	c.Check(call.params, jc.DeepEquals, map[string]interface{}{
		"name":    "bootfile",
		"value":   `option bootfile-name "pxelinux.0";`,
		"enabled": true,
	})
}

const dhcpSnippetResponse = `
{
    "id": 1,
    "name": "bootfile",
    "description": "PXE boot options",
    "value": "option bootfile-name \"pxelinux.0\";",
    "enabled": true,
    "subnet": 1,
    "node": null
}
`

const dhcpSnippetGlobalResponse = `
{
    "id": 2,
    "name": "ntp",
    "description": "",
    "value": "option ntp-servers 10.0.0.1;",
    "enabled": false,
    "subnet": null,
    "node": null
}
`

const dhcpSnippetNodeResponse = `
{
    "id": 3,
    "name": "hostfix",
    "description": "",
    "value": "fixed-address 192.168.100.14;",
    "enabled": true,
    "subnet": null,
    "node": "4y3ha3"
}
`

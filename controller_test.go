// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/version/v2"
	gc "gopkg.in/check.v1"
)

type controllerSuite struct {
	testing.LoggingCleanupSuite
	region *FakeRegion
}

var _ = gc.Suite(&controllerSuite{})

func (s *controllerSuite) SetUpTest(c *gc.C) {
	s.LoggingCleanupSuite.SetUpTest(c)
	loggo.GetLogger("").SetLogLevel(loggo.TRACE)

	s.region = NewFakeRegion()
	s.AddCleanup(func(*gc.C) { s.region.Close() })
}

func (s *controllerSuite) newController(c *gc.C) Controller {
	controller, err := NewController(context.Background(), ControllerArgs{
		Endpoint:   s.region.Endpoint(),
		RetryDelay: 10 * time.Millisecond,
	})
	c.Assert(err, jc.ErrorIsNil)
	s.AddCleanup(func(*gc.C) { controller.Close() })
	return controller
}

func (s *controllerSuite) waitFor(c *gc.C, what string, done func() bool) {
	for start := time.Now(); time.Since(start) < testing.LongWait; {
		if done() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	c.Fatalf("timed out waiting for %s", what)
}

func makeSubnetData(id int, cidr string) map[string]interface{} {
	return map[string]interface{}{
		"id":         id,
		"name":       cidr,
		"cidr":       cidr,
		"vlan":       5001,
		"space":      "alpha",
		"gateway_ip": nil,
	}
}

func makeFabricData(id int, name string) map[string]interface{} {
	return map[string]interface{}{
		"id":         id,
		"name":       name,
		"class_type": nil,
	}
}

func (s *controllerSuite) TestNewController(c *gc.C) {
	controller := s.newController(c)
	c.Check(controller.APIVersion(), gc.Equals, version.Number{Major: 2, Minor: 0})
	c.Check(controller.Capabilities().IsEmpty(), jc.IsTrue)
	c.Check(controller.Connection().State(), gc.Equals, Connected)
}

func (s *controllerSuite) TestNewControllerMinorVersion(c *gc.C) {
	s.region.SetVersion("2.3")
	controller := s.newController(c)
	c.Check(controller.APIVersion(), gc.Equals, version.Number{Major: 2, Minor: 3})
}

func (s *controllerSuite) TestNewControllerCapabilities(c *gc.C) {
	s.region.SetCapabilities(NetworksManagement, DevicesManagement)
	controller := s.newController(c)
	c.Check(controller.Capabilities().Contains(NetworksManagement), jc.IsTrue)
	c.Check(controller.Capabilities().Contains(DevicesManagement), jc.IsTrue)
}

func (s *controllerSuite) TestNewControllerUnsupportedVersion(c *gc.C) {
	s.region.SetVersion("3.1")
	_, err := NewController(context.Background(), ControllerArgs{
		Endpoint: s.region.Endpoint(),
	})
	c.Check(err, jc.Satisfies, IsUnsupportedVersionError)
}

func (s *controllerSuite) TestNewControllerRegionDown(c *gc.C) {
	region := NewFakeRegion()
	endpoint := region.Endpoint()
	region.Close()
	_, err := NewController(context.Background(), ControllerArgs{
		Endpoint: endpoint,
	})
	c.Check(err, jc.Satisfies, IsTransportError)
}

func (s *controllerSuite) TestNewControllerValidates(c *gc.C) {
	_, err := NewController(context.Background(), ControllerArgs{})
	c.Check(err, jc.Satisfies, errors.IsNotValid)
}

func (s *controllerSuite) TestManagersAreCached(c *gc.C) {
	controller := s.newController(c)
	c.Check(controller.Subnets(), gc.Equals, controller.Subnets())
	c.Check(controller.VLANs(), gc.Equals, controller.VLANs())
	c.Check(controller.Machines(), gc.Equals, controller.Machines())
}

func (s *controllerSuite) TestAllManagersAvailable(c *gc.C) {
	controller := s.newController(c)
	c.Check(controller.Fabrics(), gc.NotNil)
	c.Check(controller.VLANs(), gc.NotNil)
	c.Check(controller.Subnets(), gc.NotNil)
	c.Check(controller.Spaces(), gc.NotNil)
	c.Check(controller.IPRanges(), gc.NotNil)
	c.Check(controller.StaticRoutes(), gc.NotNil)
	c.Check(controller.Zones(), gc.NotNil)
	c.Check(controller.Domains(), gc.NotNil)
	c.Check(controller.Users(), gc.NotNil)
	c.Check(controller.DHCPSnippets(), gc.NotNil)
	c.Check(controller.Pods(), gc.NotNil)
	c.Check(controller.Machines(), gc.NotNil)
	c.Check(controller.Devices(), gc.NotNil)
	c.Check(controller.Tags(), gc.NotNil)
}

func (s *controllerSuite) TestLoadManagers(c *gc.C) {
	s.region.AddResponse("subnet.list", []interface{}{
		makeSubnetData(1, "10.0.0.0/24"),
		makeSubnetData(2, "10.10.0.0/24"),
	})
	s.region.AddResponse("fabric.list", []interface{}{
		makeFabricData(1, "fabric-0"),
	})
	controller := s.newController(c)

	err := controller.LoadManagers(context.Background(), controller.Subnets(), controller.Fabrics())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(controller.Subnets().Items(), gc.HasLen, 2)
	c.Check(controller.Fabrics().Items(), gc.HasLen, 1)
	c.Check(s.region.Requests("subnet.list"), gc.HasLen, 1)
	c.Check(s.region.Requests("fabric.list"), gc.HasLen, 1)
}

func (s *controllerSuite) TestLoadManagersNoLoaders(c *gc.C) {
	controller := s.newController(c)
	c.Check(controller.LoadManagers(context.Background()), jc.ErrorIsNil)
}

func (s *controllerSuite) TestLoadManagersFirstError(c *gc.C) {
	s.region.AddErrorResponse("subnet.list", "region exploded", "bad-request")
	s.region.AddResponse("fabric.list", []interface{}{
		makeFabricData(1, "fabric-0"),
	})
	controller := s.newController(c)

	err := controller.LoadManagers(context.Background(), controller.Subnets(), controller.Fabrics())
	c.Assert(err, gc.ErrorMatches, "loading subnet: region exploded")
	c.Check(err, jc.Satisfies, IsBadRequestError)
	// The failed load does not cancel the others.
	c.Check(controller.Fabrics().Loaded(), jc.IsTrue)
	c.Check(controller.Fabrics().Items(), gc.HasLen, 1)
	c.Check(controller.Subnets().Loaded(), jc.IsFalse)
}

func (s *controllerSuite) TestNotificationsPatchCaches(c *gc.C) {
	s.region.AddResponse("subnet.list", []interface{}{
		makeSubnetData(1, "10.0.0.0/24"),
	})
	controller := s.newController(c)
	subnets := controller.Subnets()
	_, err := subnets.Load(context.Background())
	c.Assert(err, jc.ErrorIsNil)

	changes := make(chan Change, 4)
	unsubscribe := subnets.Observe(func(change Change) {
		changes <- change
	})
	defer unsubscribe()

	s.region.Notify("subnet", "create", makeSubnetData(2, "10.10.0.0/24"))
	select {
	case change := <-changes:
		c.Check(change.Action, gc.Equals, ActionCreated)
		c.Check(change.Object.IntField("id"), gc.Equals, 2)
	case <-time.After(testing.LongWait):
		c.Fatalf("create notification not applied")
	}
	c.Check(subnets.Items(), gc.HasLen, 2)

	s.region.Notify("subnet", "delete", 1)
	select {
	case change := <-changes:
		c.Check(change.Action, gc.Equals, ActionDeleted)
	case <-time.After(testing.LongWait):
		c.Fatalf("delete notification not applied")
	}
	c.Check(subnets.Items(), gc.HasLen, 1)
	c.Check(subnets.Item(2), gc.NotNil)
}

func (s *controllerSuite) TestPendingCallFailsWhenRegionDrops(c *gc.C) {
	s.region.AddSilentResponse("subnet.scan")
	controller := s.newController(c)

	errs := make(chan error, 1)
	go func() {
		errs <- controller.Subnets().Scan(context.Background(), 4)
	}()
	s.waitFor(c, "scan request", func() bool {
		return len(s.region.Requests("subnet.scan")) == 1
	})

	s.region.CloseConnections()

	select {
	case err := <-errs:
		c.Assert(err, jc.Satisfies, IsTransportError)
		c.Check(err, gc.ErrorMatches, "connection lost")
	case <-time.After(testing.LongWait):
		c.Fatalf("pending call not failed")
	}
}

func (s *controllerSuite) TestCachesResyncAfterReconnect(c *gc.C) {
	s.region.AddResponse("subnet.list", []interface{}{
		makeSubnetData(1, "10.0.0.0/24"),
	})
	controller := s.newController(c)
	subnets := controller.Subnets()
	_, err := subnets.Load(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	before := subnets.Item(1)
	c.Assert(before, gc.NotNil)

	// The region restarts. A second subnet appeared while we were away.
	s.region.AddResponse("subnet.list", []interface{}{
		makeSubnetData(1, "10.0.0.0/24"),
		makeSubnetData(2, "10.10.0.0/24"),
	})
	s.region.CloseConnections()

	s.waitFor(c, "resync", func() bool {
		return len(s.region.Requests("subnet.list")) == 2 && subnets.Loaded()
	})
	c.Check(subnets.Items(), gc.HasLen, 2)
	// The surviving subnet kept its identity across the resync.
	c.Check(subnets.Item(1), gc.Equals, before)
}

func (s *controllerSuite) TestClose(c *gc.C) {
	controller := s.newController(c)
	subnets := controller.Subnets()
	c.Assert(subnets, gc.NotNil)

	c.Assert(controller.Close(), jc.ErrorIsNil)
	s.waitFor(c, "teardown", func() bool {
		return controller.Connection().State() == Disconnected
	})
	c.Check(controller.Close(), jc.ErrorIsNil)
}

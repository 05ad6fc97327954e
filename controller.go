// Copyright 2012-2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/version/v2"
	"golang.org/x/sync/errgroup"
)

// ControllerArgs is an argument struct for passing the required parameters
// to NewController.
type ControllerArgs struct {
	// Endpoint is the websocket URL of the region controller, for example
	// "ws://maas.example.com:5240/MAAS/ws".
	Endpoint string
	// Signer authenticates the websocket handshake. Defaults to anonymous.
	Signer Signer
	// Dialer, Clock, RetryDelay and MaxRetryDelay tune the underlying
	// connection; the zero values are the production defaults.
	Dialer        Dialer
	Clock         clock.Clock
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// controller implements Controller on one Connection. Managers are created
// lazily and cached, so every caller shares the one synchronized cache per
// type.
type controller struct {
	conn *Connection

	mu       sync.Mutex
	managers []*Manager

	fabrics      *FabricManager
	vlans        *VLANManager
	subnets      *SubnetManager
	spaces       *SpaceManager
	ipRanges     *IPRangeManager
	staticRoutes *StaticRouteManager
	zones        *ZoneManager
	domains      *DomainManager
	users        *UserManager
	dhcpSnippets *DHCPSnippetManager
	pods         *PodManager
	machines     *MachineManager
	devices      *DeviceManager
	tags         *TagManager
}

var _ Controller = (*controller)(nil)

// NewController opens an authenticated websocket connection to the region
// controller at args.Endpoint and performs the version handshake. Only 2.x
// regions are supported; anything else fails with an
// UnsupportedVersionError. Once established, the connection reconnects by
// itself and the managers resynchronize their caches.
func NewController(ctx context.Context, args ControllerArgs) (Controller, error) {
	conn, err := NewConnection(ConnectionArgs{
		Endpoint:      args.Endpoint,
		Signer:        args.Signer,
		Dialer:        args.Dialer,
		Clock:         args.Clock,
		RetryDelay:    args.RetryDelay,
		MaxRetryDelay: args.MaxRetryDelay,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := conn.Connect(ctx); err != nil {
		return nil, errors.Trace(err)
	}
	return &controller{conn: conn}, nil
}

// APIVersion implements Controller.
func (c *controller) APIVersion() version.Number {
	return c.conn.APIVersion()
}

// Capabilities implements Controller.
func (c *controller) Capabilities() set.Strings {
	return c.conn.Capabilities()
}

// Connection implements Controller.
func (c *controller) Connection() *Connection {
	return c.conn
}

// Fabrics implements Controller.
func (c *controller) Fabrics() *FabricManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fabrics == nil {
		c.fabrics = newFabricManager(c.conn)
		c.managers = append(c.managers, c.fabrics.Manager)
	}
	return c.fabrics
}

// VLANs implements Controller.
func (c *controller) VLANs() *VLANManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vlans == nil {
		c.vlans = newVLANManager(c.conn)
		c.managers = append(c.managers, c.vlans.Manager)
	}
	return c.vlans
}

// Subnets implements Controller.
func (c *controller) Subnets() *SubnetManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subnets == nil {
		c.subnets = newSubnetManager(c.conn)
		c.managers = append(c.managers, c.subnets.Manager)
	}
	return c.subnets
}

// Spaces implements Controller.
func (c *controller) Spaces() *SpaceManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.spaces == nil {
		c.spaces = newSpaceManager(c.conn)
		c.managers = append(c.managers, c.spaces.Manager)
	}
	return c.spaces
}

// IPRanges implements Controller.
func (c *controller) IPRanges() *IPRangeManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ipRanges == nil {
		c.ipRanges = newIPRangeManager(c.conn)
		c.managers = append(c.managers, c.ipRanges.Manager)
	}
	return c.ipRanges
}

// StaticRoutes implements Controller.
func (c *controller) StaticRoutes() *StaticRouteManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staticRoutes == nil {
		c.staticRoutes = newStaticRouteManager(c.conn)
		c.managers = append(c.managers, c.staticRoutes.Manager)
	}
	return c.staticRoutes
}

// Zones implements Controller.
func (c *controller) Zones() *ZoneManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.zones == nil {
		c.zones = newZoneManager(c.conn)
		c.managers = append(c.managers, c.zones.Manager)
	}
	return c.zones
}

// Domains implements Controller.
func (c *controller) Domains() *DomainManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.domains == nil {
		c.domains = newDomainManager(c.conn)
		c.managers = append(c.managers, c.domains.Manager)
	}
	return c.domains
}

// Users implements Controller.
func (c *controller) Users() *UserManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.users == nil {
		c.users = newUserManager(c.conn)
		c.managers = append(c.managers, c.users.Manager)
	}
	return c.users
}

// DHCPSnippets implements Controller.
func (c *controller) DHCPSnippets() *DHCPSnippetManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dhcpSnippets == nil {
		c.dhcpSnippets = newDHCPSnippetManager(c.conn)
		c.managers = append(c.managers, c.dhcpSnippets.Manager)
	}
	return c.dhcpSnippets
}

// Pods implements Controller.
func (c *controller) Pods() *PodManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pods == nil {
		c.pods = newPodManager(c.conn)
		c.managers = append(c.managers, c.pods.Manager)
	}
	return c.pods
}

// Machines implements Controller.
func (c *controller) Machines() *MachineManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machines == nil {
		c.machines = newMachineManager(c.conn)
		c.managers = append(c.managers, c.machines.Manager)
	}
	return c.machines
}

// Devices implements Controller.
func (c *controller) Devices() *DeviceManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.devices == nil {
		c.devices = newDeviceManager(c.conn)
		c.managers = append(c.managers, c.devices.Manager)
	}
	return c.devices
}

// Tags implements Controller.
func (c *controller) Tags() *TagManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tags == nil {
		c.tags = newTagManager(c.conn)
		c.managers = append(c.managers, c.tags.Manager)
	}
	return c.tags
}

// LoadManagers implements Controller. The managers load in parallel and the
// first error comes back; a failure does not cancel the other loads, whose
// managers stay usable once they finish.
func (c *controller) LoadManagers(ctx context.Context, loaders ...Loader) error {
	var group errgroup.Group
	for _, loader := range loaders {
		loader := loader
		group.Go(func() error {
			_, err := loader.Load(ctx)
			return errors.Annotatef(err, "loading %s", loader.TypeKey())
		})
	}
	return group.Wait()
}

// Close implements Controller.
func (c *controller) Close() error {
	c.mu.Lock()
	managers := c.managers
	c.managers = nil
	c.mu.Unlock()
	for _, manager := range managers {
		manager.stop()
	}
	return c.conn.Close()
}

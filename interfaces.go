// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/collections/set"
	"github.com/juju/version/v2"
)

const (
	// Capability constants.
	NetworksManagement      = "networks-management"
	StaticIPAddresses       = "static-ipaddresses"
	IPv6DeploymentUbuntu    = "ipv6-deployment-ubuntu"
	DevicesManagement       = "devices-management"
	StorageDeploymentUbuntu = "storage-deployment-ubuntu"
	NetworkDeploymentUbuntu = "network-deployment-ubuntu"
)

// Controller represents a long-lived websocket connection to a MAAS region
// controller. RPC calls travel over the one connection, and the region
// pushes create, update and delete notifications over it that keep every
// manager's cache synchronized without polling.
type Controller interface {

	// APIVersion returns the API version negotiated by the most recent
	// handshake.
	APIVersion() version.Number

	// Capabilities returns a set of capabilities as defined by the string
	// constants.
	Capabilities() set.Strings

	// Connection exposes the underlying connection for state inspection
	// and event subscription.
	Connection() *Connection

	// Fabrics manages the fabrics defined in the MAAS controller.
	Fabrics() *FabricManager

	// VLANs manages the VLANs defined in the MAAS controller.
	VLANs() *VLANManager

	// Subnets manages the subnets defined in the MAAS controller.
	Subnets() *SubnetManager

	// Spaces manages the spaces defined in the MAAS controller.
	Spaces() *SpaceManager

	// IPRanges manages the reserved and dynamic IP ranges.
	IPRanges() *IPRangeManager

	// StaticRoutes manages the static routes between subnets.
	StaticRoutes() *StaticRouteManager

	// Zones manages the physical zones known to the MAAS controller.
	Zones() *ZoneManager

	// Domains manages the DNS domains known to the MAAS controller.
	Domains() *DomainManager

	// Users manages the user accounts known to the MAAS controller.
	Users() *UserManager

	// DHCPSnippets manages the DHCP configuration snippets.
	DHCPSnippets() *DHCPSnippetManager

	// Pods manages the compute pods (KVM hosts and similar).
	Pods() *PodManager

	// Machines manages the machines known to the MAAS controller.
	Machines() *MachineManager

	// Devices manages the non-deployable devices.
	Devices() *DeviceManager

	// Tags manages the node tags.
	Tags() *TagManager

	// LoadManagers loads the given managers in parallel and returns the
	// first load error, if any. Loads already under way are not cancelled
	// when one fails.
	LoadManagers(ctx context.Context, loaders ...Loader) error

	// Close shuts the connection down and detaches the managers.
	Close() error
}

// Fabric represents a set of interconnected VLANs that are capable of mutual
// communication. A fabric can be thought of as a logical grouping in which
// VLANs can be considered unique.
//
// For example, a distributed network may have a fabric in London containing
// VLAN 100, while a separate fabric in San Francisco may contain a VLAN 100,
// whose attached subnets are completely different and unrelated.
type Fabric interface {
	ID() int
	Name() string
	ClassType() string

	// VLANIDs identifies the VLANs defined on the fabric.
	VLANIDs() []int
}

// VLAN represents an instance of a Virtual LAN. VLANs are a common way to
// create logically separate networks using the same physical infrastructure.
//
// Managed switches can assign VLANs to each port in either a “tagged” or an
// “untagged” manner. A VLAN is said to be “untagged” on a particular port when
// it is the default VLAN for that port, and requires no special configuration
// in order to access.
type VLAN interface {
	ID() int
	Name() string

	// FabricID identifies the fabric the VLAN belongs to.
	FabricID() int

	// VID is the VLAN ID. eth0.10 -> VID = 10.
	VID() int
	// MTU (maximum transmission unit) is the largest size packet or frame,
	// specified in octets (eight-bit bytes), that can be sent.
	MTU() int
	DHCP() bool

	PrimaryRack() string
	SecondaryRack() string

	// RelayVLAN identifies the VLAN relaying DHCP for this one, or zero.
	RelayVLAN() int
}

// Zone represents a physical zone that a Machine is in. The meaning of a
// physical zone is up to you: it could identify e.g. a server rack, a network,
// or a data centre. Users can then allocate nodes from specific physical zones,
// to suit their redundancy or performance requirements.
type Zone interface {
	ID() int
	Name() string
	Description() string
}

// Domain is a DNS zone the region serves or forwards for. Machines and
// devices get their FQDNs from the domain they sit in.
type Domain interface {
	ID() int
	Name() string

	// Authoritative reports whether the region itself answers DNS queries
	// for the domain.
	Authoritative() bool

	// TTL is the default record TTL in seconds, or zero for the region
	// default.
	TTL() int

	ResourceRecordCount() int
	IsDefault() bool
}

// Space is a name for a collection of Subnets.
type Space interface {
	ID() int
	Name() string
	Description() string

	// SubnetIDs identifies the subnets attached to the space.
	SubnetIDs() []int
}

// Subnet refers to an IP range on a VLAN.
type Subnet interface {
	ID() int
	Name() string
	Space() string

	// VLANID identifies the VLAN the subnet sits on.
	VLANID() int

	Gateway() string
	CIDR() string
	DNSServers() []string

	// Managed reports whether MAAS handles the subnet's address
	// allocation and DNS.
	Managed() bool
}

// IPRange is a reserved or dynamic range of addresses within a subnet.
type IPRange interface {
	ID() int

	// Type is "reserved" or "dynamic".
	Type() string

	StartIP() string
	EndIP() string
	Comment() string

	// SubnetID identifies the subnet the range carves up.
	SubnetID() int

	// User is the username that reserved the range, empty for none.
	User() string
}

// StaticRoute defines an explicit route between two subnets.
type StaticRoute interface {
	ID() int

	// SourceID and DestinationID are subnet ids.
	SourceID() int
	DestinationID() int

	GatewayIP() string
	Metric() int
}

// User represents a user account known to the MAAS controller.
type User interface {
	ID() int
	Username() string
	Email() string
	IsSuperuser() bool
}

// DHCPSnippet is a fragment of DHCP configuration applied globally, to one
// subnet, or to one node.
type DHCPSnippet interface {
	ID() int
	Name() string
	Description() string
	Value() string
	Enabled() bool

	// SubnetID identifies the subnet the snippet is scoped to, or zero
	// when global.
	SubnetID() int

	// NodeSystemID identifies the machine or device the snippet is scoped
	// to, empty when the snippet is subnet-scoped or global.
	NodeSystemID() string
}

// Pod is a compute resource that can compose machines on demand, such as a
// KVM host.
type Pod interface {
	ID() int
	Name() string
	Type() string
	Zone() string
	Architectures() []string
	Capabilities() []string

	// CPUSpeed is in MHz, zero when the driver does not report it.
	CPUSpeed() int

	TotalCores() int
	// TotalMemory is in MiB.
	TotalMemory() int
}

// Machine represents a physical machine.
type Machine interface {
	SystemID() string
	Hostname() string
	FQDN() string

	OperatingSystem() string
	DistroSeries() string
	Architecture() string
	Memory() int
	CPUCount() int

	IPAddresses() []string
	PowerState() string

	Status() MachineStatus
	StatusName() string
	StatusMessage() string

	Owner() string

	// OwnerData is the free-form key/value data the owner stored on the
	// machine.
	OwnerData() map[string]string

	Tags() []string
	Zone() string
}

// Device represents some form of device in MAAS.
type Device interface {
	SystemID() string
	Hostname() string
	FQDN() string
	Owner() string

	// Parent is the system id of the machine the device hangs off, if any.
	Parent() string

	IPAddresses() []string
	Zone() string
}

// Tag is a label that can be applied to nodes, either by hand or from a
// hardware definition expression.
type Tag interface {
	ID() int
	Name() string
	Comment() string
	Definition() string
	KernelOpts() string
}

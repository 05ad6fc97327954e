// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const subnetType = "subnet"

// SubnetManager caches the region's subnets and keeps them synchronized
// from notifications.
type SubnetManager struct {
	*Manager
}

func newSubnetManager(conn rpcConn) *SubnetManager {
	return &SubnetManager{Manager: newManager(conn, subnetType, "id", readSubnet)}
}

// Subnets returns the cached subnets in region order.
func (m *SubnetManager) Subnets() []Subnet {
	items := m.Items()
	result := make([]Subnet, len(items))
	for i, item := range items {
		result[i] = subnet{item}
	}
	return result
}

// Subnet returns the cached subnet with the given id, or nil.
func (m *SubnetManager) Subnet(id int) Subnet {
	if obj := m.Item(id); obj != nil {
		return subnet{obj}
	}
	return nil
}

// CreateSubnetArgs is an argument struct for passing parameters to
// SubnetManager.CreateSubnet.
type CreateSubnetArgs struct {
	CIDR       string // Required.
	Name       string
	VLAN       int
	Space      string
	GatewayIP  string
	DNSServers []string
}

// Validate ensures that all required values are non-empty.
func (a *CreateSubnetArgs) Validate() error {
	if a.CIDR == "" {
		return errors.NotValidf("missing CIDR")
	}
	return nil
}

func (a *CreateSubnetArgs) toParams() *Params {
	params := NewParams()
	params.MaybeAdd("cidr", a.CIDR)
	params.MaybeAdd("name", a.Name)
	params.MaybeAddInt("vlan", a.VLAN)
	params.MaybeAdd("space", a.Space)
	params.MaybeAdd("gateway_ip", a.GatewayIP)
	params.MaybeAddMany("dns_servers", a.DNSServers)
	return params
}

// CreateSubnet asks the region to create a new subnet. The result is
// detached from the cache; the created notification inserts it.
func (m *SubnetManager) CreateSubnet(ctx context.Context, args CreateSubnetArgs) (Subnet, error) {
	if err := args.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	obj, err := m.Create(ctx, args.toParams())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return subnet{obj}, nil
}

// UpdateSubnetArgs is an argument struct for passing parameters to
// SubnetManager.UpdateSubnet. Zero-valued fields are left unchanged.
type UpdateSubnetArgs struct {
	ID         int // Required.
	Name       string
	VLAN       int
	GatewayIP  string
	DNSServers []string
}

// Validate ensures that all required values are non-empty.
func (a *UpdateSubnetArgs) Validate() error {
	if a.ID == 0 {
		return errors.NotValidf("missing ID")
	}
	return nil
}

func (a *UpdateSubnetArgs) toParams() *Params {
	params := NewParams()
	params.Add("id", a.ID)
	params.MaybeAdd("name", a.Name)
	params.MaybeAddInt("vlan", a.VLAN)
	params.MaybeAdd("gateway_ip", a.GatewayIP)
	params.MaybeAddMany("dns_servers", a.DNSServers)
	return params
}

// UpdateSubnet pushes changed fields to the region and folds the response
// into the cache entry.
func (m *SubnetManager) UpdateSubnet(ctx context.Context, args UpdateSubnetArgs) (Subnet, error) {
	if err := args.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	obj, err := m.Update(ctx, args.toParams())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return subnet{obj}, nil
}

// Scan asks the racks on the subnet's VLAN to actively scan it for
// neighbouring addresses.
func (m *SubnetManager) Scan(ctx context.Context, id int) error {
	params := NewParams()
	params.Add("id", id)
	_, err := m.CallMethod(ctx, "scan", params)
	return errors.Trace(err)
}

type subnet struct {
	obj *ManagedObject
}

// ID implements Subnet.
func (s subnet) ID() int {
	return s.obj.IntField("id")
}

// Name implements Subnet.
func (s subnet) Name() string {
	return s.obj.StringField("name")
}

// Space implements Subnet.
func (s subnet) Space() string {
	return s.obj.StringField("space")
}

// VLANID implements Subnet.
func (s subnet) VLANID() int {
	return s.obj.IntField("vlan")
}

// Gateway implements Subnet.
func (s subnet) Gateway() string {
	return s.obj.StringField("gateway_ip")
}

// CIDR implements Subnet.
func (s subnet) CIDR() string {
	return s.obj.StringField("cidr")
}

// DNSServers implements Subnet.
func (s subnet) DNSServers() []string {
	return s.obj.StringSliceField("dns_servers")
}

// Managed implements Subnet.
func (s subnet) Managed() bool {
	return s.obj.BoolField("managed")
}

func readSubnet(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(subnetReadFuncs, apiVersion, subnetType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var subnetReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: subnet_2_0,
}

func subnet_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"id":          schema.ForceInt(),
		"name":        schema.String(),
		"cidr":        schema.String(),
		"vlan":        schema.ForceInt(),
		"space":       schema.OneOf(schema.Nil(""), schema.String()),
		"gateway_ip":  schema.OneOf(schema.Nil(""), schema.String()),
		"dns_servers": schema.OneOf(schema.Nil(""), schema.List(schema.String())),
		"managed":     schema.Bool(),
	}
	defaults := schema.Defaults{
		"name":        "",
		"space":       "",
		"gateway_ip":  "",
		"dns_servers": schema.Omit,
		"managed":     true,
	}
	return coerceFields(fields, defaults, source, "subnet 2.0")
}

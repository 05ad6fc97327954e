// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const vlanType = "vlan"

// VLANManager caches the region's VLANs and keeps them synchronized from
// notifications.
type VLANManager struct {
	*Manager
}

func newVLANManager(conn rpcConn) *VLANManager {
	return &VLANManager{Manager: newManager(conn, vlanType, "id", readVLAN)}
}

// VLANs returns the cached VLANs in region order.
func (m *VLANManager) VLANs() []VLAN {
	items := m.Items()
	result := make([]VLAN, len(items))
	for i, item := range items {
		result[i] = vlan{item}
	}
	return result
}

// VLAN returns the cached VLAN with the given id, or nil.
func (m *VLANManager) VLAN(id int) VLAN {
	if obj := m.Item(id); obj != nil {
		return vlan{obj}
	}
	return nil
}

// ConfigureDHCPArgs is an argument struct for passing parameters to
// VLANManager.ConfigureDHCP. Either rack controllers provide DHCP for the
// VLAN directly, or another VLAN relays it; asking for both is invalid.
type ConfigureDHCPArgs struct {
	ID int // Required.
	// Controllers are the system ids of the rack controllers to provide
	// DHCP, primary first.
	Controllers []string
	// RelayVLAN is the id of the VLAN to relay DHCP from.
	RelayVLAN int
	// Extra optionally carves a dynamic range out of a subnet on the VLAN
	// while enabling DHCP.
	Extra map[string]interface{}
}

// Validate ensures that all required values are non-empty.
func (a *ConfigureDHCPArgs) Validate() error {
	if a.ID == 0 {
		return errors.NotValidf("missing ID")
	}
	if len(a.Controllers) > 0 && a.RelayVLAN != 0 {
		return errors.NotValidf("both Controllers and RelayVLAN")
	}
	return nil
}

func (a *ConfigureDHCPArgs) toParams() *Params {
	params := NewParams()
	params.Add("id", a.ID)
	// An empty list, not null: that is how DHCP gets switched off.
	controllers := a.Controllers
	if controllers == nil {
		controllers = []string{}
	}
	params.Add("controllers", controllers)
	params.MaybeAddInt("relay_vlan", a.RelayVLAN)
	if len(a.Extra) > 0 {
		params.Add("extra", a.Extra)
	}
	return params
}

// ConfigureDHCP turns DHCP on the VLAN on or off. An empty Controllers
// list with no RelayVLAN disables DHCP. The region's updated VLAN is folded
// into the cache and returned.
func (m *VLANManager) ConfigureDHCP(ctx context.Context, args ConfigureDHCPArgs) (VLAN, error) {
	if err := args.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	result, err := m.CallMethod(ctx, "configure_dhcp", args.toParams())
	if err != nil {
		return nil, errors.Trace(err)
	}
	fields, err := m.readItem(m.conn.APIVersion(), result)
	if err != nil {
		return nil, errors.Trace(err)
	}
	key, ok := normalizeKey(fields["id"])
	if !ok {
		return nil, NewDeserializationError("vlan.configure_dhcp response has no usable id")
	}
	return vlan{m.upsert(key, fields)}, nil
}

type vlan struct {
	obj *ManagedObject
}

// ID implements VLAN.
func (v vlan) ID() int {
	return v.obj.IntField("id")
}

// Name implements VLAN.
func (v vlan) Name() string {
	return v.obj.StringField("name")
}

// FabricID implements VLAN.
func (v vlan) FabricID() int {
	return v.obj.IntField("fabric")
}

// VID implements VLAN.
func (v vlan) VID() int {
	return v.obj.IntField("vid")
}

// MTU implements VLAN.
func (v vlan) MTU() int {
	return v.obj.IntField("mtu")
}

// DHCP implements VLAN.
func (v vlan) DHCP() bool {
	return v.obj.BoolField("dhcp_on")
}

// PrimaryRack implements VLAN.
func (v vlan) PrimaryRack() string {
	return v.obj.StringField("primary_rack")
}

// SecondaryRack implements VLAN.
func (v vlan) SecondaryRack() string {
	return v.obj.StringField("secondary_rack")
}

// RelayVLAN implements VLAN.
func (v vlan) RelayVLAN() int {
	return v.obj.IntField("relay_vlan")
}

func readVLAN(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(vlanReadFuncs, apiVersion, vlanType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var vlanReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: vlan_2_0,
}

func vlan_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"id":             schema.ForceInt(),
		"name":           schema.OneOf(schema.Nil(""), schema.String()),
		"fabric":         schema.ForceInt(),
		"vid":            schema.ForceInt(),
		"mtu":            schema.ForceInt(),
		"dhcp_on":        schema.Bool(),
		"primary_rack":   schema.OneOf(schema.Nil(""), schema.String()),
		"secondary_rack": schema.OneOf(schema.Nil(""), schema.String()),
		"relay_vlan":     schema.OneOf(schema.Nil(""), schema.ForceInt()),
	}
	defaults := schema.Defaults{
		"name":           "",
		"mtu":            0,
		"dhcp_on":        false,
		"primary_rack":   "",
		"secondary_rack": "",
		"relay_vlan":     schema.Omit,
	}
	return coerceFields(fields, defaults, source, "vlan 2.0")
}

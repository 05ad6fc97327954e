// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const deviceType = "device"

// DeviceManager caches the non-deployable devices known to the region and
// keeps them synchronized from notifications. Devices are keyed by system
// id.
type DeviceManager struct {
	*Manager
}

func newDeviceManager(conn rpcConn) *DeviceManager {
	return &DeviceManager{Manager: newManager(conn, deviceType, "system_id", readDevice)}
}

// Devices returns the cached devices in region order.
func (m *DeviceManager) Devices() []Device {
	items := m.Items()
	result := make([]Device, len(items))
	for i, item := range items {
		result[i] = device{item}
	}
	return result
}

// Device returns the cached device with the given system id, or nil.
func (m *DeviceManager) Device(systemID string) Device {
	if obj := m.Item(systemID); obj != nil {
		return device{obj}
	}
	return nil
}

type device struct {
	obj *ManagedObject
}

// SystemID implements Device.
func (d device) SystemID() string {
	return d.obj.StringField("system_id")
}

// Hostname implements Device.
func (d device) Hostname() string {
	return d.obj.StringField("hostname")
}

// FQDN implements Device.
func (d device) FQDN() string {
	return d.obj.StringField("fqdn")
}

// Owner implements Device.
func (d device) Owner() string {
	return d.obj.StringField("owner")
}

// Parent implements Device.
func (d device) Parent() string {
	return d.obj.StringField("parent")
}

// IPAddresses implements Device.
func (d device) IPAddresses() []string {
	return d.obj.StringSliceField("ip_addresses")
}

// Zone implements Device.
func (d device) Zone() string {
	return d.obj.StringField("zone")
}

func readDevice(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(deviceReadFuncs, apiVersion, deviceType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var deviceReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: device_2_0,
}

func device_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"system_id":    schema.String(),
		"hostname":     schema.String(),
		"fqdn":         schema.String(),
		"owner":        schema.OneOf(schema.Nil(""), schema.String()),
		"parent":       schema.OneOf(schema.Nil(""), schema.String()),
		"ip_addresses": schema.OneOf(schema.Nil(""), schema.List(schema.String())),
		"zone":         schema.OneOf(schema.Nil(""), schema.String()),
	}
	defaults := schema.Defaults{
		"hostname":     "",
		"fqdn":         "",
		"owner":        "",
		"parent":       "",
		"ip_addresses": schema.Omit,
		"zone":         "",
	}
	return coerceFields(fields, defaults, source, "device 2.0")
}

// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const machineType = "machine"

// MachineManager caches the machines known to the region and keeps them
// synchronized from notifications. Machines are keyed by system id.
type MachineManager struct {
	*Manager
}

func newMachineManager(conn rpcConn) *MachineManager {
	return &MachineManager{Manager: newManager(conn, machineType, "system_id", readMachine)}
}

// Machines returns the cached machines in region order.
func (m *MachineManager) Machines() []Machine {
	items := m.Items()
	result := make([]Machine, len(items))
	for i, item := range items {
		result[i] = machine{item}
	}
	return result
}

// Machine returns the cached machine with the given system id, or nil.
func (m *MachineManager) Machine(systemID string) Machine {
	if obj := m.Item(systemID); obj != nil {
		return machine{obj}
	}
	return nil
}

// MachineActionArgs is an argument struct for passing parameters to
// MachineManager.PerformAction.
type MachineActionArgs struct {
	SystemID string // Required.
	Action   string // Required, for example "deploy" or "release".
	// Extra carries action-specific parameters, such as the distro series
	// to deploy.
	Extra map[string]interface{}
}

// Validate ensures that all required values are non-empty.
func (a *MachineActionArgs) Validate() error {
	if a.SystemID == "" {
		return errors.NotValidf("missing SystemID")
	}
	if a.Action == "" {
		return errors.NotValidf("missing Action")
	}
	return nil
}

func (a *MachineActionArgs) toParams() *Params {
	params := NewParams()
	params.Add("system_id", a.SystemID)
	params.Add("action", a.Action)
	if len(a.Extra) > 0 {
		params.Add("extra", a.Extra)
	}
	return params
}

// PerformAction runs a lifecycle action against one machine: deploy,
// release, commission, abort and friends. Status movement arrives through
// the machine's updated notifications.
func (m *MachineManager) PerformAction(ctx context.Context, args MachineActionArgs) error {
	if err := args.Validate(); err != nil {
		return errors.Trace(err)
	}
	_, err := m.CallMethod(ctx, "action", args.toParams())
	return errors.Trace(err)
}

type machine struct {
	obj *ManagedObject
}

// SystemID implements Machine.
func (m machine) SystemID() string {
	return m.obj.StringField("system_id")
}

// Hostname implements Machine.
func (m machine) Hostname() string {
	return m.obj.StringField("hostname")
}

// FQDN implements Machine.
func (m machine) FQDN() string {
	return m.obj.StringField("fqdn")
}

// OperatingSystem implements Machine.
func (m machine) OperatingSystem() string {
	return m.obj.StringField("osystem")
}

// DistroSeries implements Machine.
func (m machine) DistroSeries() string {
	return m.obj.StringField("distro_series")
}

// Architecture implements Machine.
func (m machine) Architecture() string {
	return m.obj.StringField("architecture")
}

// Memory implements Machine.
func (m machine) Memory() int {
	return m.obj.IntField("memory")
}

// CPUCount implements Machine.
func (m machine) CPUCount() int {
	return m.obj.IntField("cpu_count")
}

// IPAddresses implements Machine.
func (m machine) IPAddresses() []string {
	return m.obj.StringSliceField("ip_addresses")
}

// PowerState implements Machine.
func (m machine) PowerState() string {
	return m.obj.StringField("power_state")
}

// Status implements Machine.
func (m machine) Status() MachineStatus {
	return machineStatus(m.obj.IntField("status"))
}

// StatusName implements Machine.
func (m machine) StatusName() string {
	return m.obj.StringField("status_name")
}

// StatusMessage implements Machine.
func (m machine) StatusMessage() string {
	return m.obj.StringField("status_message")
}

// Owner implements Machine.
func (m machine) Owner() string {
	return m.obj.StringField("owner")
}

// OwnerData implements Machine.
func (m machine) OwnerData() map[string]string {
	return convertToStringMap(m.obj.Field("owner_data"))
}

// Tags implements Machine.
func (m machine) Tags() []string {
	return m.obj.StringSliceField("tags")
}

// Zone implements Machine.
func (m machine) Zone() string {
	return m.obj.StringField("zone")
}

func readMachine(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(machineReadFuncs, apiVersion, machineType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var machineReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: machine_2_0,
}

func machine_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"system_id":      schema.String(),
		"hostname":       schema.String(),
		"fqdn":           schema.String(),
		"osystem":        schema.String(),
		"distro_series":  schema.String(),
		"architecture":   schema.OneOf(schema.Nil(""), schema.String()),
		"memory":         schema.ForceInt(),
		"cpu_count":      schema.ForceInt(),
		"ip_addresses":   schema.OneOf(schema.Nil(""), schema.List(schema.String())),
		"power_state":    schema.String(),
		"status":         schema.ForceInt(),
		"status_name":    schema.String(),
		"status_message": schema.OneOf(schema.Nil(""), schema.String()),
		"owner":          schema.OneOf(schema.Nil(""), schema.String()),
		"owner_data":     schema.OneOf(schema.Nil(""), schema.StringMap(schema.String())),
		"tags":           schema.OneOf(schema.Nil(""), schema.List(schema.String())),
		"zone":           schema.OneOf(schema.Nil(""), schema.String()),
	}
	defaults := schema.Defaults{
		"hostname":       "",
		"fqdn":           "",
		"osystem":        "",
		"distro_series":  "",
		"architecture":   "",
		"memory":         0,
		"cpu_count":      0,
		"ip_addresses":   schema.Omit,
		"power_state":    "",
		"status_name":    "",
		"status_message": "",
		"owner":          "",
		"owner_data":     schema.Omit,
		"tags":           schema.Omit,
		"zone":           "",
	}
	return coerceFields(fields, defaults, source, "machine 2.0")
}

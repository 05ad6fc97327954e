// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const zoneType = "zone"

// ZoneManager caches the region's physical zones and keeps them
// synchronized from notifications.
type ZoneManager struct {
	*Manager
}

func newZoneManager(conn rpcConn) *ZoneManager {
	return &ZoneManager{Manager: newManager(conn, zoneType, "id", readZone)}
}

// Zones returns the cached zones in region order.
func (m *ZoneManager) Zones() []Zone {
	items := m.Items()
	result := make([]Zone, len(items))
	for i, item := range items {
		result[i] = zone{item}
	}
	return result
}

// Zone returns the cached zone with the given id, or nil.
func (m *ZoneManager) Zone(id int) Zone {
	if obj := m.Item(id); obj != nil {
		return zone{obj}
	}
	return nil
}

// CreateZoneArgs is an argument struct for passing parameters to
// ZoneManager.CreateZone.
type CreateZoneArgs struct {
	Name        string // Required.
	Description string
}

// Validate ensures that all required values are non-empty.
func (a *CreateZoneArgs) Validate() error {
	if a.Name == "" {
		return errors.NotValidf("missing Name")
	}
	return nil
}

func (a *CreateZoneArgs) toParams() *Params {
	params := NewParams()
	params.Add("name", a.Name)
	params.MaybeAdd("description", a.Description)
	return params
}

// CreateZone asks the region to create a new physical zone.
func (m *ZoneManager) CreateZone(ctx context.Context, args CreateZoneArgs) (Zone, error) {
	if err := args.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	obj, err := m.Create(ctx, args.toParams())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return zone{obj}, nil
}

type zone struct {
	obj *ManagedObject
}

// ID implements Zone.
func (z zone) ID() int {
	return z.obj.IntField("id")
}

// Name implements Zone.
func (z zone) Name() string {
	return z.obj.StringField("name")
}

// Description implements Zone.
func (z zone) Description() string {
	return z.obj.StringField("description")
}

func readZone(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(zoneReadFuncs, apiVersion, zoneType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var zoneReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: zone_2_0,
}

func zone_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"id":          schema.ForceInt(),
		"name":        schema.String(),
		"description": schema.String(),
	}
	defaults := schema.Defaults{
		"name":        "",
		"description": "",
	}
	return coerceFields(fields, defaults, source, "zone 2.0")
}

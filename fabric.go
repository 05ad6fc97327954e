// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const fabricType = "fabric"

// FabricManager caches the region's fabrics and keeps them synchronized
// from notifications.
type FabricManager struct {
	*Manager
}

func newFabricManager(conn rpcConn) *FabricManager {
	return &FabricManager{Manager: newManager(conn, fabricType, "id", readFabric)}
}

// Fabrics returns the cached fabrics in region order.
func (m *FabricManager) Fabrics() []Fabric {
	items := m.Items()
	result := make([]Fabric, len(items))
	for i, item := range items {
		result[i] = fabric{item}
	}
	return result
}

// Fabric returns the cached fabric with the given id, or nil.
func (m *FabricManager) Fabric(id int) Fabric {
	if obj := m.Item(id); obj != nil {
		return fabric{obj}
	}
	return nil
}

// CreateFabricArgs is an argument struct for passing parameters to
// FabricManager.CreateFabric.
type CreateFabricArgs struct {
	Name        string
	Description string
	ClassType   string
}

func (a *CreateFabricArgs) toParams() *Params {
	params := NewParams()
	params.MaybeAdd("name", a.Name)
	params.MaybeAdd("description", a.Description)
	params.MaybeAdd("class_type", a.ClassType)
	return params
}

// CreateFabric asks the region to create a new fabric. All arguments are
// optional; the region names unnamed fabrics itself.
func (m *FabricManager) CreateFabric(ctx context.Context, args CreateFabricArgs) (Fabric, error) {
	obj, err := m.Create(ctx, args.toParams())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return fabric{obj}, nil
}

type fabric struct {
	obj *ManagedObject
}

// ID implements Fabric.
func (f fabric) ID() int {
	return f.obj.IntField("id")
}

// Name implements Fabric.
func (f fabric) Name() string {
	return f.obj.StringField("name")
}

// ClassType implements Fabric.
func (f fabric) ClassType() string {
	return f.obj.StringField("class_type")
}

// VLANIDs implements Fabric.
func (f fabric) VLANIDs() []int {
	return f.obj.IntSliceField("vlan_ids")
}

func readFabric(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(fabricReadFuncs, apiVersion, fabricType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var fabricReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: fabric_2_0,
}

func fabric_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"id":         schema.ForceInt(),
		"name":       schema.String(),
		"class_type": schema.OneOf(schema.Nil(""), schema.String()),
		"vlan_ids":   schema.OneOf(schema.Nil(""), schema.List(schema.ForceInt())),
	}
	defaults := schema.Defaults{
		"name":       "",
		"class_type": "",
		"vlan_ids":   schema.Omit,
	}
	return coerceFields(fields, defaults, source, "fabric 2.0")
}

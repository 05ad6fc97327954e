// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const spaceType = "space"

// SpaceManager caches the region's spaces and keeps them synchronized from
// notifications.
type SpaceManager struct {
	*Manager
}

func newSpaceManager(conn rpcConn) *SpaceManager {
	return &SpaceManager{Manager: newManager(conn, spaceType, "id", readSpace)}
}

// Spaces returns the cached spaces in region order.
func (m *SpaceManager) Spaces() []Space {
	items := m.Items()
	result := make([]Space, len(items))
	for i, item := range items {
		result[i] = space{item}
	}
	return result
}

// Space returns the cached space with the given id, or nil.
func (m *SpaceManager) Space(id int) Space {
	if obj := m.Item(id); obj != nil {
		return space{obj}
	}
	return nil
}

// CreateSpaceArgs is an argument struct for passing parameters to
// SpaceManager.CreateSpace.
type CreateSpaceArgs struct {
	Name        string // Required.
	Description string
}

// Validate ensures that all required values are non-empty.
func (a *CreateSpaceArgs) Validate() error {
	if a.Name == "" {
		return errors.NotValidf("missing Name")
	}
	return nil
}

// CreateSpace asks the region to create a new space.
func (m *SpaceManager) CreateSpace(ctx context.Context, args CreateSpaceArgs) (Space, error) {
	if err := args.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	params := NewParams()
	params.Add("name", args.Name)
	params.MaybeAdd("description", args.Description)
	obj, err := m.Create(ctx, params)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return space{obj}, nil
}

type space struct {
	obj *ManagedObject
}

// ID implements Space.
func (s space) ID() int {
	return s.obj.IntField("id")
}

// Name implements Space.
func (s space) Name() string {
	return s.obj.StringField("name")
}

// Description implements Space.
func (s space) Description() string {
	return s.obj.StringField("description")
}

// SubnetIDs implements Space.
func (s space) SubnetIDs() []int {
	return s.obj.IntSliceField("subnet_ids")
}

func readSpace(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(spaceReadFuncs, apiVersion, spaceType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var spaceReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: space_2_0,
}

func space_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"id":          schema.ForceInt(),
		"name":        schema.String(),
		"description": schema.OneOf(schema.Nil(""), schema.String()),
		"subnet_ids":  schema.OneOf(schema.Nil(""), schema.List(schema.ForceInt())),
	}
	defaults := schema.Defaults{
		"name":        "",
		"description": "",
		"subnet_ids":  schema.Omit,
	}
	return coerceFields(fields, defaults, source, "space 2.0")
}

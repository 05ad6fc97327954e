// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const dhcpSnippetType = "dhcpsnippet"

// DHCPSnippetManager caches the region's DHCP configuration snippets and
// keeps them synchronized from notifications.
type DHCPSnippetManager struct {
	*Manager
}

func newDHCPSnippetManager(conn rpcConn) *DHCPSnippetManager {
	return &DHCPSnippetManager{Manager: newManager(conn, dhcpSnippetType, "id", readDHCPSnippet)}
}

// DHCPSnippets returns the cached snippets in region order.
func (m *DHCPSnippetManager) DHCPSnippets() []DHCPSnippet {
	items := m.Items()
	result := make([]DHCPSnippet, len(items))
	for i, item := range items {
		result[i] = dhcpSnippet{item}
	}
	return result
}

// DHCPSnippet returns the cached snippet with the given id, or nil.
func (m *DHCPSnippetManager) DHCPSnippet(id int) DHCPSnippet {
	if obj := m.Item(id); obj != nil {
		return dhcpSnippet{obj}
	}
	return nil
}

// CreateDHCPSnippetArgs is an argument struct for passing parameters to
// DHCPSnippetManager.CreateDHCPSnippet. A snippet applies to the named
// Subnet or Node; with neither it is global.
type CreateDHCPSnippetArgs struct {
	Name        string // Required.
	Value       string // Required.
	Description string
	Enabled     bool
	Subnet      int
	Node        string // A machine or device system id.
}

// Validate ensures that all required values are non-empty.
func (a *CreateDHCPSnippetArgs) Validate() error {
	if a.Name == "" {
		return errors.NotValidf("missing Name")
	}
	if a.Value == "" {
		return errors.NotValidf("missing Value")
	}
	if a.Subnet != 0 && a.Node != "" {
		return errors.NotValidf("both Subnet and Node")
	}
	return nil
}

func (a *CreateDHCPSnippetArgs) toParams() *Params {
	params := NewParams()
	params.Add("name", a.Name)
	params.Add("value", a.Value)
	params.MaybeAdd("description", a.Description)
	params.Add("enabled", a.Enabled)
	params.MaybeAddInt("subnet", a.Subnet)
	params.MaybeAdd("node", a.Node)
	return params
}

// CreateDHCPSnippet asks the region to create a new snippet.
func (m *DHCPSnippetManager) CreateDHCPSnippet(ctx context.Context, args CreateDHCPSnippetArgs) (DHCPSnippet, error) {
	if err := args.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	obj, err := m.Create(ctx, args.toParams())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return dhcpSnippet{obj}, nil
}

type dhcpSnippet struct {
	obj *ManagedObject
}

// ID implements DHCPSnippet.
func (s dhcpSnippet) ID() int {
	return s.obj.IntField("id")
}

// Name implements DHCPSnippet.
func (s dhcpSnippet) Name() string {
	return s.obj.StringField("name")
}

// Description implements DHCPSnippet.
func (s dhcpSnippet) Description() string {
	return s.obj.StringField("description")
}

// Value implements DHCPSnippet.
func (s dhcpSnippet) Value() string {
	return s.obj.StringField("value")
}

// Enabled implements DHCPSnippet.
func (s dhcpSnippet) Enabled() bool {
	return s.obj.BoolField("enabled")
}

// SubnetID implements DHCPSnippet.
func (s dhcpSnippet) SubnetID() int {
	return s.obj.IntField("subnet")
}

// NodeSystemID implements DHCPSnippet.
func (s dhcpSnippet) NodeSystemID() string {
	return s.obj.StringField("node")
}

func readDHCPSnippet(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(dhcpSnippetReadFuncs, apiVersion, dhcpSnippetType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var dhcpSnippetReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: dhcpSnippet_2_0,
}

func dhcpSnippet_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"id":          schema.ForceInt(),
		"name":        schema.String(),
		"description": schema.String(),
		"value":       schema.String(),
		"enabled":     schema.Bool(),
		"subnet":      schema.OneOf(schema.Nil(""), schema.ForceInt()),
		"node":        schema.OneOf(schema.Nil(""), schema.String()),
	}
	defaults := schema.Defaults{
		"description": "",
		"enabled":     false,
		"subnet":      schema.Omit,
		"node":        "",
	}
	return coerceFields(fields, defaults, source, "dhcpsnippet 2.0")
}

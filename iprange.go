// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const ipRangeType = "iprange"

// IPRangeManager caches the region's reserved and dynamic IP ranges and
// keeps them synchronized from notifications.
type IPRangeManager struct {
	*Manager
}

func newIPRangeManager(conn rpcConn) *IPRangeManager {
	return &IPRangeManager{Manager: newManager(conn, ipRangeType, "id", readIPRange)}
}

// IPRanges returns the cached ranges in region order.
func (m *IPRangeManager) IPRanges() []IPRange {
	items := m.Items()
	result := make([]IPRange, len(items))
	for i, item := range items {
		result[i] = ipRange{item}
	}
	return result
}

// IPRange returns the cached range with the given id, or nil.
func (m *IPRangeManager) IPRange(id int) IPRange {
	if obj := m.Item(id); obj != nil {
		return ipRange{obj}
	}
	return nil
}

// CreateIPRangeArgs is an argument struct for passing parameters to
// IPRangeManager.CreateIPRange.
type CreateIPRangeArgs struct {
	Type    string // Required, "reserved" or "dynamic".
	StartIP string // Required.
	EndIP   string // Required.
	Subnet  int
	Comment string
}

// Validate ensures that all required values are non-empty.
func (a *CreateIPRangeArgs) Validate() error {
	if a.Type == "" {
		return errors.NotValidf("missing Type")
	}
	if a.Type != "reserved" && a.Type != "dynamic" {
		return errors.NotValidf("Type %q", a.Type)
	}
	if a.StartIP == "" {
		return errors.NotValidf("missing StartIP")
	}
	if a.EndIP == "" {
		return errors.NotValidf("missing EndIP")
	}
	return nil
}

func (a *CreateIPRangeArgs) toParams() *Params {
	params := NewParams()
	params.Add("type", a.Type)
	params.Add("start_ip", a.StartIP)
	params.Add("end_ip", a.EndIP)
	params.MaybeAddInt("subnet", a.Subnet)
	params.MaybeAdd("comment", a.Comment)
	return params
}

// CreateIPRange asks the region to reserve a new range.
func (m *IPRangeManager) CreateIPRange(ctx context.Context, args CreateIPRangeArgs) (IPRange, error) {
	if err := args.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	obj, err := m.Create(ctx, args.toParams())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return ipRange{obj}, nil
}

type ipRange struct {
	obj *ManagedObject
}

// ID implements IPRange.
func (r ipRange) ID() int {
	return r.obj.IntField("id")
}

// Type implements IPRange.
func (r ipRange) Type() string {
	return r.obj.StringField("type")
}

// StartIP implements IPRange.
func (r ipRange) StartIP() string {
	return r.obj.StringField("start_ip")
}

// EndIP implements IPRange.
func (r ipRange) EndIP() string {
	return r.obj.StringField("end_ip")
}

// Comment implements IPRange.
func (r ipRange) Comment() string {
	return r.obj.StringField("comment")
}

// SubnetID implements IPRange.
func (r ipRange) SubnetID() int {
	return r.obj.IntField("subnet")
}

// User implements IPRange.
func (r ipRange) User() string {
	return r.obj.StringField("user")
}

func readIPRange(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(ipRangeReadFuncs, apiVersion, ipRangeType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var ipRangeReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: ipRange_2_0,
}

func ipRange_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"id":       schema.ForceInt(),
		"type":     schema.String(),
		"start_ip": schema.String(),
		"end_ip":   schema.String(),
		"comment":  schema.OneOf(schema.Nil(""), schema.String()),
		"subnet":   schema.OneOf(schema.Nil(""), schema.ForceInt()),
		"user":     schema.OneOf(schema.Nil(""), schema.String()),
	}
	defaults := schema.Defaults{
		"comment": "",
		"subnet":  schema.Omit,
		"user":    "",
	}
	return coerceFields(fields, defaults, source, "iprange 2.0")
}

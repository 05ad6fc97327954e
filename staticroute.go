// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const staticRouteType = "staticroute"

// StaticRouteManager caches the region's static routes and keeps them
// synchronized from notifications.
type StaticRouteManager struct {
	*Manager
}

func newStaticRouteManager(conn rpcConn) *StaticRouteManager {
	return &StaticRouteManager{Manager: newManager(conn, staticRouteType, "id", readStaticRoute)}
}

// StaticRoutes returns the cached routes in region order.
func (m *StaticRouteManager) StaticRoutes() []StaticRoute {
	items := m.Items()
	result := make([]StaticRoute, len(items))
	for i, item := range items {
		result[i] = staticRoute{item}
	}
	return result
}

// StaticRoute returns the cached route with the given id, or nil.
func (m *StaticRouteManager) StaticRoute(id int) StaticRoute {
	if obj := m.Item(id); obj != nil {
		return staticRoute{obj}
	}
	return nil
}

// CreateStaticRouteArgs is an argument struct for passing parameters to
// StaticRouteManager.CreateStaticRoute.
type CreateStaticRouteArgs struct {
	Source      int    // Required, subnet id.
	Destination int    // Required, subnet id.
	GatewayIP   string // Required.
	Metric      int
}

// Validate ensures that all required values are non-empty.
func (a *CreateStaticRouteArgs) Validate() error {
	if a.Source == 0 {
		return errors.NotValidf("missing Source")
	}
	if a.Destination == 0 {
		return errors.NotValidf("missing Destination")
	}
	if a.GatewayIP == "" {
		return errors.NotValidf("missing GatewayIP")
	}
	return nil
}

func (a *CreateStaticRouteArgs) toParams() *Params {
	params := NewParams()
	params.Add("source", a.Source)
	params.Add("destination", a.Destination)
	params.Add("gateway_ip", a.GatewayIP)
	params.MaybeAddInt("metric", a.Metric)
	return params
}

// CreateStaticRoute asks the region to route traffic between two subnets.
func (m *StaticRouteManager) CreateStaticRoute(ctx context.Context, args CreateStaticRouteArgs) (StaticRoute, error) {
	if err := args.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	obj, err := m.Create(ctx, args.toParams())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return staticRoute{obj}, nil
}

type staticRoute struct {
	obj *ManagedObject
}

// ID implements StaticRoute.
func (r staticRoute) ID() int {
	return r.obj.IntField("id")
}

// SourceID implements StaticRoute.
func (r staticRoute) SourceID() int {
	return r.obj.IntField("source")
}

// DestinationID implements StaticRoute.
func (r staticRoute) DestinationID() int {
	return r.obj.IntField("destination")
}

// GatewayIP implements StaticRoute.
func (r staticRoute) GatewayIP() string {
	return r.obj.StringField("gateway_ip")
}

// Metric implements StaticRoute.
func (r staticRoute) Metric() int {
	return r.obj.IntField("metric")
}

func readStaticRoute(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(staticRouteReadFuncs, apiVersion, staticRouteType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var staticRouteReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: staticRoute_2_0,
}

func staticRoute_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"id":          schema.ForceInt(),
		"source":      schema.ForceInt(),
		"destination": schema.ForceInt(),
		"gateway_ip":  schema.String(),
		"metric":      schema.ForceInt(),
	}
	defaults := schema.Defaults{
		"metric": 0,
	}
	return coerceFields(fields, defaults, source, "staticroute 2.0")
}

// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const domainType = "domain"

// DomainManager caches the DNS domains known to the region and keeps them
// synchronized from notifications.
type DomainManager struct {
	*Manager
}

func newDomainManager(conn rpcConn) *DomainManager {
	return &DomainManager{Manager: newManager(conn, domainType, "id", readDomain)}
}

// Domains returns the cached domains in region order.
func (m *DomainManager) Domains() []Domain {
	items := m.Items()
	result := make([]Domain, len(items))
	for i, item := range items {
		result[i] = domain{item}
	}
	return result
}

// Domain returns the cached domain with the given id, or nil.
func (m *DomainManager) Domain(id int) Domain {
	if obj := m.Item(id); obj != nil {
		return domain{obj}
	}
	return nil
}

// CreateDomainArgs is an argument struct for passing parameters to
// DomainManager.CreateDomain.
type CreateDomainArgs struct {
	Name string // Required.
	// Authoritative makes the region answer DNS queries for the domain
	// itself rather than forwarding them.
	Authoritative bool
}

// Validate ensures that all required values are non-empty.
func (a *CreateDomainArgs) Validate() error {
	if a.Name == "" {
		return errors.NotValidf("missing Name")
	}
	return nil
}

func (a *CreateDomainArgs) toParams() *Params {
	params := NewParams()
	params.Add("name", a.Name)
	params.MaybeAddBool("authoritative", a.Authoritative)
	return params
}

// CreateDomain asks the region to create a new DNS domain.
func (m *DomainManager) CreateDomain(ctx context.Context, args CreateDomainArgs) (Domain, error) {
	if err := args.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	obj, err := m.Create(ctx, args.toParams())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return domain{obj}, nil
}

type domain struct {
	obj *ManagedObject
}

// ID implements Domain.
func (d domain) ID() int {
	return d.obj.IntField("id")
}

// Name implements Domain.
func (d domain) Name() string {
	return d.obj.StringField("name")
}

// Authoritative implements Domain.
func (d domain) Authoritative() bool {
	return d.obj.BoolField("authoritative")
}

// TTL implements Domain.
func (d domain) TTL() int {
	return d.obj.IntField("ttl")
}

// ResourceRecordCount implements Domain.
func (d domain) ResourceRecordCount() int {
	return d.obj.IntField("resource_record_count")
}

// IsDefault implements Domain.
func (d domain) IsDefault() bool {
	return d.obj.BoolField("is_default")
}

func readDomain(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(domainReadFuncs, apiVersion, domainType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var domainReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: domain_2_0,
}

func domain_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"id":                    schema.ForceInt(),
		"name":                  schema.String(),
		"authoritative":         schema.OneOf(schema.Nil(""), schema.Bool()),
		"ttl":                   schema.OneOf(schema.Nil(""), schema.ForceInt()),
		"resource_record_count": schema.ForceInt(),
		"is_default":            schema.Bool(),
	}
	defaults := schema.Defaults{
		"name":                  "",
		"authoritative":         false,
		"ttl":                   0,
		"resource_record_count": 0,
		"is_default":            false,
	}
	return coerceFields(fields, defaults, source, "domain 2.0")
}

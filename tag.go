// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const tagType = "tag"

// TagManager caches the node tags known to the region and keeps them
// synchronized from notifications.
type TagManager struct {
	*Manager
}

func newTagManager(conn rpcConn) *TagManager {
	return &TagManager{Manager: newManager(conn, tagType, "id", readTag)}
}

// Tags returns the cached tags in region order.
func (m *TagManager) Tags() []Tag {
	items := m.Items()
	result := make([]Tag, len(items))
	for i, item := range items {
		result[i] = tag{item}
	}
	return result
}

// Tag returns the cached tag with the given id, or nil.
func (m *TagManager) Tag(id int) Tag {
	if obj := m.Item(id); obj != nil {
		return tag{obj}
	}
	return nil
}

// CreateTagArgs is an argument struct for passing parameters to
// TagManager.CreateTag.
type CreateTagArgs struct {
	Name string // Required.
	// Comment is a description of what the tag will be used for.
	Comment string
	// Definition is an XPATH query that is evaluated against the hardware
	// certification output; matching nodes get the tag automatically.
	Definition string
	// KernelOpts are kernel command line options added when a node with
	// this tag boots.
	KernelOpts string
}

// Validate ensures that all required values are non-empty.
func (a *CreateTagArgs) Validate() error {
	if a.Name == "" {
		return errors.NotValidf("missing Name")
	}
	return nil
}

func (a *CreateTagArgs) toParams() *Params {
	params := NewParams()
	params.Add("name", a.Name)
	params.MaybeAdd("comment", a.Comment)
	params.MaybeAdd("definition", a.Definition)
	params.MaybeAdd("kernel_opts", a.KernelOpts)
	return params
}

// CreateTag asks the region to create a new tag.
func (m *TagManager) CreateTag(ctx context.Context, args CreateTagArgs) (Tag, error) {
	if err := args.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	obj, err := m.Create(ctx, args.toParams())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return tag{obj}, nil
}

type tag struct {
	obj *ManagedObject
}

// ID implements Tag.
func (t tag) ID() int {
	return t.obj.IntField("id")
}

// Name implements Tag.
func (t tag) Name() string {
	return t.obj.StringField("name")
}

// Comment implements Tag.
func (t tag) Comment() string {
	return t.obj.StringField("comment")
}

// Definition implements Tag.
func (t tag) Definition() string {
	return t.obj.StringField("definition")
}

// KernelOpts implements Tag.
func (t tag) KernelOpts() string {
	return t.obj.StringField("kernel_opts")
}

func readTag(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(tagReadFuncs, apiVersion, tagType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var tagReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: tag_2_0,
}

func tag_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"id":          schema.ForceInt(),
		"name":        schema.String(),
		"comment":     schema.String(),
		"definition":  schema.String(),
		"kernel_opts": schema.OneOf(schema.Nil(""), schema.String()),
	}
	defaults := schema.Defaults{
		"comment":     "",
		"definition":  "",
		"kernel_opts": "",
	}
	return coerceFields(fields, defaults, source, "tag 2.0")
}

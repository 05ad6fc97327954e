// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"sync"

	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

var twoDotOh = version.Number{Major: 2, Minor: 0}

// objectReadFunc coerces one raw wire object into typed fields.
type objectReadFunc func(source interface{}) (map[string]interface{}, error)

// getObjectReadFunc returns the newest read func that is not newer than the
// negotiated API version.
func getObjectReadFunc(funcs map[version.Number]objectReadFunc, apiVersion version.Number, typeKey string) (objectReadFunc, error) {
	var deserialisationVersion version.Number
	for v := range funcs {
		if v.Compare(deserialisationVersion) > 0 && v.Compare(apiVersion) <= 0 {
			deserialisationVersion = v
		}
	}
	if deserialisationVersion == version.Zero {
		return nil, NewUnsupportedVersionError("no %s read func for version %v", typeKey, apiVersion)
	}
	return funcs[deserialisationVersion], nil
}

// coerceFields runs a schema field map over one wire object.
func coerceFields(fields schema.Fields, defaults schema.Defaults, source interface{}, label string) (map[string]interface{}, error) {
	checker := schema.FieldMap(fields, defaults)
	coerced, err := checker.Coerce(source, nil)
	if err != nil {
		return nil, WrapWithDeserializationError(err, "%s schema check failed", label)
	}
	// Fine to do a direct cast here because we just coerced the interface.
	return coerced.(map[string]interface{}), nil
}

// ManagedObject is one region-authoritative record held in a manager's
// cache. Identity is the pointer: notifications and authoritative call
// responses replace the fields in place, so a held *ManagedObject observes
// changes without rebinding.
type ManagedObject struct {
	mu     sync.RWMutex
	fields map[string]interface{}
}

func newManagedObject(fields map[string]interface{}) *ManagedObject {
	return &ManagedObject{fields: fields}
}

// Field returns the named field's current value, or nil if the object
// doesn't have it.
func (o *ManagedObject) Field(name string) interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.fields[name]
}

// Fields returns a copy of all current fields.
func (o *ManagedObject) Fields() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()
	result := make(map[string]interface{}, len(o.fields))
	for name, value := range o.fields {
		result[name] = value
	}
	return result
}

// StringField returns the named field as a string. Missing, null and
// differently typed fields come back as "".
func (o *ManagedObject) StringField(name string) string {
	value, _ := o.Field(name).(string)
	return value
}

// IntField returns the named field as an int. Schema coercion stores
// integral fields as int, but raw notification payloads may hold float64.
func (o *ManagedObject) IntField(name string) int {
	switch value := o.Field(name).(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	}
	return 0
}

// BoolField returns the named field as a bool, defaulting to false.
func (o *ManagedObject) BoolField(name string) bool {
	value, _ := o.Field(name).(bool)
	return value
}

// StringSliceField returns the named field as a string slice, skipping
// elements of other types.
func (o *ManagedObject) StringSliceField(name string) []string {
	elements, ok := o.Field(name).([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(elements))
	for _, element := range elements {
		if value, ok := element.(string); ok {
			result = append(result, value)
		}
	}
	return result
}

// IntSliceField returns the named field as an int slice, with the same
// int/float64 tolerance as IntField.
func (o *ManagedObject) IntSliceField(name string) []int {
	elements, ok := o.Field(name).([]interface{})
	if !ok {
		return nil
	}
	result := make([]int, 0, len(elements))
	for _, element := range elements {
		switch value := element.(type) {
		case int:
			result = append(result, value)
		case int64:
			result = append(result, int(value))
		case float64:
			result = append(result, int(value))
		}
	}
	return result
}

// replaceFields swaps the object's contents, preserving its identity.
func (o *ManagedObject) replaceFields(fields map[string]interface{}) {
	o.mu.Lock()
	o.fields = fields
	o.mu.Unlock()
}

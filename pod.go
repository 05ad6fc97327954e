// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const podType = "pod"

// PodManager caches the region's compute pods and keeps them synchronized
// from notifications.
type PodManager struct {
	*Manager
}

func newPodManager(conn rpcConn) *PodManager {
	return &PodManager{Manager: newManager(conn, podType, "id", readPod)}
}

// Pods returns the cached pods in region order.
func (m *PodManager) Pods() []Pod {
	items := m.Items()
	result := make([]Pod, len(items))
	for i, item := range items {
		result[i] = pod{item}
	}
	return result
}

// Pod returns the cached pod with the given id, or nil.
func (m *PodManager) Pod(id int) Pod {
	if obj := m.Item(id); obj != nil {
		return pod{obj}
	}
	return nil
}

// Refresh asks the pod's driver to re-query the underlying host and waits
// for the refreshed view, which is folded into the cache and returned.
func (m *PodManager) Refresh(ctx context.Context, id int) (Pod, error) {
	params := NewParams()
	params.Add("id", id)
	result, err := m.CallMethod(ctx, "refresh", params)
	if err != nil {
		return nil, errors.Trace(err)
	}
	fields, err := m.readItem(m.conn.APIVersion(), result)
	if err != nil {
		return nil, errors.Trace(err)
	}
	key, ok := normalizeKey(fields["id"])
	if !ok {
		return nil, NewDeserializationError("pod.refresh response has no usable id")
	}
	return pod{m.upsert(key, fields)}, nil
}

type pod struct {
	obj *ManagedObject
}

// ID implements Pod.
func (p pod) ID() int {
	return p.obj.IntField("id")
}

// Name implements Pod.
func (p pod) Name() string {
	return p.obj.StringField("name")
}

// Type implements Pod.
func (p pod) Type() string {
	return p.obj.StringField("type")
}

// Zone implements Pod.
func (p pod) Zone() string {
	return p.obj.StringField("zone")
}

// Architectures implements Pod.
func (p pod) Architectures() []string {
	return p.obj.StringSliceField("architectures")
}

// Capabilities implements Pod.
func (p pod) Capabilities() []string {
	return p.obj.StringSliceField("capabilities")
}

// CPUSpeed implements Pod.
func (p pod) CPUSpeed() int {
	return p.obj.IntField("cpu_speed")
}

// TotalCores implements Pod.
func (p pod) TotalCores() int {
	return p.obj.IntField("total_cores")
}

// TotalMemory implements Pod.
func (p pod) TotalMemory() int {
	return p.obj.IntField("total_memory")
}

func readPod(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(podReadFuncs, apiVersion, podType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var podReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: pod_2_0,
}

func pod_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"id":            schema.ForceInt(),
		"name":          schema.String(),
		"type":          schema.String(),
		"zone":          schema.OneOf(schema.Nil(""), schema.String()),
		"architectures": schema.OneOf(schema.Nil(""), schema.List(schema.String())),
		"capabilities":  schema.OneOf(schema.Nil(""), schema.List(schema.String())),
		"cpu_speed":     schema.OneOf(schema.Nil(""), schema.ForceInt()),
		"total":         schema.StringMap(schema.Any()),
	}
	defaults := schema.Defaults{
		"name":          "",
		"type":          "",
		"zone":          "",
		"architectures": schema.Omit,
		"capabilities":  schema.Omit,
		"cpu_speed":     0,
		"total":         schema.Omit,
	}
	coerced, err := coerceFields(fields, defaults, source, "pod 2.0")
	if err != nil {
		return nil, errors.Trace(err)
	}
	// The capacity counters arrive nested; flatten them so views and params
	// stay simple key lookups.
	if raw, ok := coerced["total"]; ok {
		total, err := podCapacity(raw)
		if err != nil {
			return nil, errors.Trace(err)
		}
		coerced["total_cores"] = total.cores
		coerced["total_memory"] = total.memory
		delete(coerced, "total")
	}
	return coerced, nil
}

type capacity struct {
	cores  int
	memory int
}

func podCapacity(source interface{}) (*capacity, error) {
	fields := schema.Fields{
		"cores":  schema.ForceInt(),
		"memory": schema.ForceInt(),
	}
	defaults := schema.Defaults{
		"cores":  0,
		"memory": 0,
	}
	coerced, err := coerceFields(fields, defaults, source, "pod capacity")
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &capacity{
		cores:  coerced["cores"].(int),
		memory: coerced["memory"].(int),
	}, nil
}

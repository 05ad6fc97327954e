// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/pubsub/v2"
	"github.com/juju/version/v2"
	"golang.org/x/sync/singleflight"
)

// Error codes the region attaches to error frames.
const (
	codeNotFound         = "not-found"
	codePermissionDenied = "permission-denied"
	codeValidation       = "validation"
	codeBadRequest       = "bad-request"
)

// rpcConn is the slice of Connection a manager needs. Narrow on purpose so
// manager tests can drive it with a fake.
type rpcConn interface {
	Call(ctx context.Context, method string, params interface{}) (interface{}, error)
	RegisterNotifier(typeKey string, fn NotifyFunc) func()
	APIVersion() version.Number
	Hub() *pubsub.SimpleHub
}

var _ rpcConn = (*Connection)(nil)

// itemReadFunc turns one raw wire object into typed fields, honouring the
// negotiated API version.
type itemReadFunc func(apiVersion version.Number, source interface{}) (map[string]interface{}, error)

// Change describes one mutation applied to a manager's cache.
type Change struct {
	// Action is what happened to the object: ActionCreated,
	// ActionUpdated or ActionDeleted.
	Action Action
	// Object is the affected cache entry. For deletions it holds the
	// removed object's final state.
	Object *ManagedObject
	// ActiveCleared is true when the removal also cleared the active
	// item.
	ActiveCleared bool
}

// Loader is the part of a manager the registry loader drives.
type Loader interface {
	// TypeKey returns the name the region knows this collection by.
	TypeKey() string
	// Load fetches the collection if it isn't cached yet.
	Load(ctx context.Context) ([]*ManagedObject, error)
}

// Manager caches the region's collection for one typeKey and keeps it
// synchronized from notifications. Derived managers embed it and add their
// domain verbs.
//
// The cache preserves the region's insertion order, and every primary key
// maps to exactly one *ManagedObject whose identity survives updates.
type Manager struct {
	conn       rpcConn
	typeKey    string
	primaryKey string
	readItem   itemReadFunc

	flight singleflight.Group

	mu          sync.RWMutex
	loaded      bool
	items       []*ManagedObject
	index       map[string]int
	active      *ManagedObject
	unsubNotify func()

	unsubConnected func()
}

func newManager(conn rpcConn, typeKey, primaryKey string, readItem itemReadFunc) *Manager {
	m := &Manager{
		conn:       conn,
		typeKey:    typeKey,
		primaryKey: primaryKey,
		readItem:   readItem,
		index:      make(map[string]int),
	}
	// The region does not replay notifications missed while disconnected,
	// so a loaded cache has to be re-fetched wholesale on reconnect.
	m.unsubConnected = conn.Hub().Subscribe(ConnectedTopic, func(string, interface{}) {
		m.resync()
	})
	return m
}

// TypeKey returns the name the region knows this collection by. It scopes
// the manager's verbs and its notifications.
func (m *Manager) TypeKey() string {
	return m.typeKey
}

// Loaded reports whether the cache holds a successfully loaded collection.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// Load returns the cached collection, fetching it from the region first
// when needed. Concurrent callers share a single in-flight list call and
// all receive the same slice. Loading again after the cache is populated
// answers from the cache without a region call.
func (m *Manager) Load(ctx context.Context) ([]*ManagedObject, error) {
	m.mu.RLock()
	if m.loaded {
		items := m.snapshotLocked()
		m.mu.RUnlock()
		return items, nil
	}
	m.mu.RUnlock()

	value, err, _ := m.flight.Do("list", func() (interface{}, error) {
		return m.fetch(ctx)
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return value.([]*ManagedObject), nil
}

func (m *Manager) fetch(ctx context.Context) ([]*ManagedObject, error) {
	result, err := m.conn.Call(ctx, m.typeKey+".list", nil)
	if err != nil {
		return nil, mapCallError(err)
	}
	source, ok := result.([]interface{})
	if !ok {
		return nil, NewDeserializationError("unexpected %s.list response %T", m.typeKey, result)
	}
	apiVersion := m.conn.APIVersion()
	keys := make([]string, 0, len(source))
	fieldsList := make([]map[string]interface{}, 0, len(source))
	seen := make(map[string]bool, len(source))
	for i, raw := range source {
		fields, err := m.readItem(apiVersion, raw)
		if err != nil {
			return nil, errors.Annotatef(err, "%s %d", m.typeKey, i)
		}
		key, ok := normalizeKey(fields[m.primaryKey])
		if !ok {
			return nil, NewDeserializationError("%s %d has no usable %s", m.typeKey, i, m.primaryKey)
		}
		if seen[key] {
			logger.Warningf("%s.list repeated %s %q, keeping the first", m.typeKey, m.primaryKey, key)
			continue
		}
		seen[key] = true
		keys = append(keys, key)
		fieldsList = append(fieldsList, fields)
	}

	items, cleared := m.install(keys, fieldsList)
	if cleared != nil {
		m.publish(Change{Action: ActionDeleted, Object: cleared, ActiveCleared: true})
	}
	return items, nil
}

// install replaces the whole cache with the listed objects, reusing the
// existing entry for any key already cached so held pointers stay live.
// Returns the previously active item if the new collection dropped it.
func (m *Manager) install(keys []string, fieldsList []map[string]interface{}) ([]*ManagedObject, *ManagedObject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	previous := m.index
	prevItems := m.items
	items := make([]*ManagedObject, len(keys))
	index := make(map[string]int, len(keys))
	for i, key := range keys {
		if pos, ok := previous[key]; ok {
			obj := prevItems[pos]
			obj.replaceFields(fieldsList[i])
			items[i] = obj
		} else {
			items[i] = newManagedObject(fieldsList[i])
		}
		index[key] = i
	}
	m.items = items
	m.index = index

	var cleared *ManagedObject
	if m.active != nil {
		key, _ := normalizeKey(m.active.Field(m.primaryKey))
		if _, ok := index[key]; !ok {
			cleared = m.active
			m.active = nil
		}
	}

	if m.unsubNotify == nil {
		m.unsubNotify = m.conn.RegisterNotifier(m.typeKey, m.handleNotify)
	}
	m.loaded = true
	return items, cleared
}

// Items returns the collection in region order. The slice is a snapshot;
// the objects are the live cache entries.
func (m *Manager) Items() []*ManagedObject {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() []*ManagedObject {
	return append([]*ManagedObject(nil), m.items...)
}

// Item returns the cached object with the given primary key, or nil if the
// cache has none.
func (m *Manager) Item(pk interface{}) *ManagedObject {
	key, ok := normalizeKey(pk)
	if !ok {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if pos, ok := m.index[key]; ok {
		return m.items[pos]
	}
	return nil
}

// ActiveItem returns the object selected with SetActiveItem, or nil.
func (m *Manager) ActiveItem() *ManagedObject {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// SetActiveItem selects the object with the given primary key, fetching
// its full detail from the region first; list responses may carry the
// abridged form. Selecting the already-active key answers locally. An
// unknown key returns NoMatchError.
func (m *Manager) SetActiveItem(ctx context.Context, pk interface{}) (*ManagedObject, error) {
	key, ok := normalizeKey(pk)
	if !ok {
		return nil, errors.NotValidf("primary key %v", pk)
	}
	m.mu.RLock()
	if m.active != nil {
		activeKey, _ := normalizeKey(m.active.Field(m.primaryKey))
		if activeKey == key {
			active := m.active
			m.mu.RUnlock()
			return active, nil
		}
	}
	m.mu.RUnlock()

	obj, err := m.get(ctx, pk)
	if err != nil {
		return nil, errors.Trace(err)
	}
	m.mu.Lock()
	m.active = obj
	m.mu.Unlock()
	return obj, nil
}

// ClearActiveItem drops the active selection without touching the cache.
func (m *Manager) ClearActiveItem() {
	m.mu.Lock()
	m.active = nil
	m.mu.Unlock()
}

// get fetches one object's full detail and folds it into the cache.
func (m *Manager) get(ctx context.Context, pk interface{}) (*ManagedObject, error) {
	result, err := m.conn.Call(ctx, m.typeKey+".get", map[string]interface{}{
		m.primaryKey: pk,
	})
	if err != nil {
		return nil, mapCallError(err)
	}
	fields, err := m.readItem(m.conn.APIVersion(), result)
	if err != nil {
		return nil, errors.Trace(err)
	}
	key, ok := normalizeKey(fields[m.primaryKey])
	if !ok {
		return nil, NewDeserializationError("%s.get response has no usable %s", m.typeKey, m.primaryKey)
	}
	return m.upsert(key, fields), nil
}

// upsert folds authoritative fields into the cache entry for key,
// appending a new entry when none exists.
func (m *Manager) upsert(key string, fields map[string]interface{}) *ManagedObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pos, ok := m.index[key]; ok {
		obj := m.items[pos]
		obj.replaceFields(fields)
		return obj
	}
	obj := newManagedObject(fields)
	m.index[key] = len(m.items)
	m.items = append(m.items, obj)
	return obj
}

// Create asks the region to create one object. The result is returned
// detached from the cache: insertion happens solely through the created
// notification that follows, so the notification racing the response can't
// produce a duplicate entry.
func (m *Manager) Create(ctx context.Context, params *Params) (*ManagedObject, error) {
	result, err := m.conn.Call(ctx, m.typeKey+".create", paramValues(params))
	if err != nil {
		return nil, mapCallError(err)
	}
	fields, err := m.readItem(m.conn.APIVersion(), result)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return newManagedObject(fields), nil
}

// Update sends changed fields, which must include the primary key, and
// folds the authoritative response into the cache entry in place.
func (m *Manager) Update(ctx context.Context, params *Params) (*ManagedObject, error) {
	if params == nil || params.Values[m.primaryKey] == nil {
		return nil, errors.NotValidf("missing %s", m.primaryKey)
	}
	result, err := m.conn.Call(ctx, m.typeKey+".update", params.Values)
	if err != nil {
		return nil, mapCallError(err)
	}
	fields, err := m.readItem(m.conn.APIVersion(), result)
	if err != nil {
		return nil, errors.Trace(err)
	}
	key, ok := normalizeKey(fields[m.primaryKey])
	if !ok {
		return nil, NewDeserializationError("%s.update response has no usable %s", m.typeKey, m.primaryKey)
	}
	return m.upsert(key, fields), nil
}

// Delete asks the region to delete the object with the given primary key.
// The cache entry stays until the deleted notification arrives; removal has
// a single source, so the notification racing the response can't
// double-remove.
func (m *Manager) Delete(ctx context.Context, pk interface{}) error {
	_, err := m.conn.Call(ctx, m.typeKey+".delete", map[string]interface{}{
		m.primaryKey: pk,
	})
	if err != nil {
		return mapCallError(err)
	}
	return nil
}

// CallMethod invokes one of the type's verbs and returns the raw result.
// Derived managers build their domain calls on it.
func (m *Manager) CallMethod(ctx context.Context, verb string, params *Params) (interface{}, error) {
	result, err := m.conn.Call(ctx, m.typeKey+"."+verb, paramValues(params))
	if err != nil {
		return nil, mapCallError(err)
	}
	return result, nil
}

// Observe subscribes fn to the manager's change stream. Changes are
// delivered asynchronously in publication order. The returned func
// unsubscribes.
func (m *Manager) Observe(fn func(Change)) func() {
	return m.conn.Hub().Subscribe(m.changeTopic(), func(_ string, data interface{}) {
		if change, ok := data.(Change); ok {
			fn(change)
		}
	})
}

func (m *Manager) changeTopic() string {
	return "manager." + m.typeKey + ".change"
}

func (m *Manager) publish(change Change) {
	m.conn.Hub().Publish(m.changeTopic(), change)
}

// handleNotify applies one notification to the cache. It runs on the
// connection's read loop, so applications happen in strict receipt order.
func (m *Manager) handleNotify(action Action, data interface{}) {
	switch action {
	case ActionCreated, ActionUpdated:
		fields, err := m.readItem(m.conn.APIVersion(), data)
		if err != nil {
			logger.Warningf("discarding %s %s notification: %v", m.typeKey, action, err)
			return
		}
		key, ok := normalizeKey(fields[m.primaryKey])
		if !ok {
			logger.Warningf("discarding %s %s notification without %s", m.typeKey, action, m.primaryKey)
			return
		}
		m.applyUpsert(action, key, fields)
	case ActionDeleted:
		key, ok := notificationKey(data, m.primaryKey)
		if !ok {
			logger.Warningf("discarding %s deleted notification without usable key", m.typeKey)
			return
		}
		m.applyDelete(key)
	}
}

// notificationKey extracts the primary key a deleted notification carries:
// either the bare key or an object holding it.
func notificationKey(data interface{}, primaryKey string) (string, bool) {
	if fields, ok := data.(map[string]interface{}); ok {
		return normalizeKey(fields[primaryKey])
	}
	return normalizeKey(data)
}

func (m *Manager) applyUpsert(action Action, key string, fields map[string]interface{}) {
	m.mu.Lock()
	if pos, ok := m.index[key]; ok {
		obj := m.items[pos]
		obj.replaceFields(fields)
		m.mu.Unlock()
		// A created notification for a cached key is the update it
		// really is.
		m.publish(Change{Action: ActionUpdated, Object: obj})
		return
	}
	if action == ActionUpdated {
		m.mu.Unlock()
		// Arrived ahead of the initial list; the load picks it up.
		logger.Debugf("ignoring %s update for unknown %s", m.typeKey, key)
		return
	}
	obj := newManagedObject(fields)
	m.index[key] = len(m.items)
	m.items = append(m.items, obj)
	m.mu.Unlock()
	m.publish(Change{Action: ActionCreated, Object: obj})
}

func (m *Manager) applyDelete(key string) {
	m.mu.Lock()
	pos, ok := m.index[key]
	if !ok {
		m.mu.Unlock()
		return
	}
	obj := m.items[pos]
	// Copy so slices handed out earlier keep their contents.
	items := make([]*ManagedObject, 0, len(m.items)-1)
	items = append(items, m.items[:pos]...)
	items = append(items, m.items[pos+1:]...)
	m.items = items
	delete(m.index, key)
	for k, p := range m.index {
		if p > pos {
			m.index[k] = p - 1
		}
	}
	cleared := m.active == obj
	if cleared {
		m.active = nil
	}
	m.mu.Unlock()
	m.publish(Change{Action: ActionDeleted, Object: obj, ActiveCleared: cleared})
}

// resync marks a loaded cache stale and refreshes it in the background.
// Runs on every connection establishment; the first connect finds nothing
// loaded and leaves the manager alone.
func (m *Manager) resync() {
	m.mu.Lock()
	if !m.loaded {
		m.mu.Unlock()
		return
	}
	m.loaded = false
	m.mu.Unlock()
	go func() {
		if _, err := m.Load(context.Background()); err != nil {
			logger.Warningf("%s resync failed: %v", m.typeKey, err)
		}
	}()
}

// stop detaches the manager from the connection's notification and
// reconnect streams.
func (m *Manager) stop() {
	m.mu.Lock()
	unsubNotify := m.unsubNotify
	m.unsubNotify = nil
	m.mu.Unlock()
	if unsubNotify != nil {
		unsubNotify()
	}
	if m.unsubConnected != nil {
		m.unsubConnected()
	}
}

func paramValues(params *Params) map[string]interface{} {
	if params == nil {
		return map[string]interface{}{}
	}
	return params.Values
}

// mapCallError translates a region error frame into the error the caller
// should see: not-found becomes NoMatchError, permission-denied becomes
// PermissionError, validation becomes ValidationError with its per-field
// messages, and bad-request becomes BadRequestError. Transport and
// deserialization failures pass through untouched.
func mapCallError(err error) error {
	remote, ok := errors.Cause(err).(*RemoteError)
	if !ok {
		return errors.Trace(err)
	}
	switch remote.Code {
	case codeNotFound:
		return errors.Wrap(err, NewNoMatchError(remote.Error()))
	case codePermissionDenied:
		return errors.Wrap(err, NewPermissionError(remote.Error()))
	case codeValidation:
		return errors.Wrap(err, NewValidationError(remote.Error(), remote.Fields))
	case codeBadRequest:
		return errors.Wrap(err, NewBadRequestError(remote.Error()))
	}
	return errors.Trace(err)
}

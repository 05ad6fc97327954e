// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"sync"
)

// NotifyFunc receives one notification for a typeKey: the parsed action and
// the decoded data payload (an object mapping, or a bare primary key for
// deletes).
type NotifyFunc func(action Action, data interface{})

// notificationRouter fans notification frames out to subscribers by
// typeKey. Callbacks run in registration order; a panicking callback is
// logged and does not stop delivery to the rest. Registrations are
// client-local bookkeeping and survive reconnects untouched.
type notificationRouter struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[string][]routerEntry
}

type routerEntry struct {
	id uint64
	fn NotifyFunc
}

func newNotificationRouter() *notificationRouter {
	return &notificationRouter{
		entries: make(map[string][]routerEntry),
	}
}

// register adds fn to the subscription set for typeKey and returns its
// unsubscribe func. Unsubscribing twice is harmless.
func (r *notificationRouter) register(typeKey string, fn NotifyFunc) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.entries[typeKey] = append(r.entries[typeKey], routerEntry{id: id, fn: fn})
	return func() {
		r.unregister(typeKey, id)
	}
}

func (r *notificationRouter) unregister(typeKey string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.entries[typeKey]
	for i, entry := range entries {
		if entry.id != id {
			continue
		}
		// Build a fresh slice so an in-flight dispatch iterating the old
		// one is unaffected.
		replacement := make([]routerEntry, 0, len(entries)-1)
		replacement = append(replacement, entries[:i]...)
		replacement = append(replacement, entries[i+1:]...)
		if len(replacement) == 0 {
			delete(r.entries, typeKey)
		} else {
			r.entries[typeKey] = replacement
		}
		return
	}
}

// dispatch invokes every callback registered for typeKey in registration
// order. Called from the connection read loop, so delivery order matches
// frame receipt order.
func (r *notificationRouter) dispatch(typeKey string, action Action, data interface{}) {
	r.mu.Lock()
	entries := r.entries[typeKey]
	r.mu.Unlock()
	for _, entry := range entries {
		deliverNotification(typeKey, entry.fn, action, data)
	}
}

func deliverNotification(typeKey string, fn NotifyFunc, action Action, data interface{}) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Errorf("%s notification subscriber panicked: %v", typeKey, recovered)
		}
	}()
	fn(action, data)
}

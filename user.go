// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/version/v2"
)

const userType = "user"

// UserManager caches the user accounts known to the region and keeps them
// synchronized from notifications.
type UserManager struct {
	*Manager
}

func newUserManager(conn rpcConn) *UserManager {
	return &UserManager{Manager: newManager(conn, userType, "id", readUser)}
}

// Users returns the cached users in region order.
func (m *UserManager) Users() []User {
	items := m.Items()
	result := make([]User, len(items))
	for i, item := range items {
		result[i] = user{item}
	}
	return result
}

// User returns the cached user with the given id, or nil.
func (m *UserManager) User(id int) User {
	if obj := m.Item(id); obj != nil {
		return user{obj}
	}
	return nil
}

// AuthUser fetches the user the connection is authenticated as. The result
// is folded into the cache.
func (m *UserManager) AuthUser(ctx context.Context) (User, error) {
	result, err := m.CallMethod(ctx, "auth_user", nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	fields, err := m.readItem(m.conn.APIVersion(), result)
	if err != nil {
		return nil, errors.Trace(err)
	}
	key, ok := normalizeKey(fields["id"])
	if !ok {
		return nil, NewDeserializationError("user.auth_user response has no usable id")
	}
	return user{m.upsert(key, fields)}, nil
}

type user struct {
	obj *ManagedObject
}

// ID implements User.
func (u user) ID() int {
	return u.obj.IntField("id")
}

// Username implements User.
func (u user) Username() string {
	return u.obj.StringField("username")
}

// Email implements User.
func (u user) Email() string {
	return u.obj.StringField("email")
}

// IsSuperuser implements User.
func (u user) IsSuperuser() bool {
	return u.obj.BoolField("is_superuser")
}

func readUser(apiVersion version.Number, source interface{}) (map[string]interface{}, error) {
	readFunc, err := getObjectReadFunc(userReadFuncs, apiVersion, userType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return readFunc(source)
}

var userReadFuncs = map[version.Number]objectReadFunc{
	twoDotOh: user_2_0,
}

func user_2_0(source interface{}) (map[string]interface{}, error) {
	fields := schema.Fields{
		"id":           schema.ForceInt(),
		"username":     schema.String(),
		"email":        schema.OneOf(schema.Nil(""), schema.String()),
		"is_superuser": schema.Bool(),
	}
	defaults := schema.Defaults{
		"email":        "",
		"is_superuser": false,
	}
	return coerceFields(fields, defaults, source, "user 2.0")
}

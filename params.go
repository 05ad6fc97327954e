// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

// Params gathers the parameter map for a region call, skipping values the
// caller left unset.
type Params struct {
	Values map[string]interface{}
}

// NewParams allocates a new Params type.
func NewParams() *Params {
	return &Params{Values: make(map[string]interface{})}
}

// Add sets the (name, value) pair unconditionally.
func (p *Params) Add(name string, value interface{}) {
	p.Values[name] = value
}

// MaybeAdd sets the (name, value) pair iff value is not empty.
func (p *Params) MaybeAdd(name, value string) {
	if value != "" {
		p.Values[name] = value
	}
}

// MaybeAddInt sets the (name, value) pair iff value is not zero.
func (p *Params) MaybeAddInt(name string, value int) {
	if value != 0 {
		p.Values[name] = value
	}
}

// MaybeAddBool sets the (name, value) pair iff value is true.
func (p *Params) MaybeAddBool(name string, value bool) {
	if value {
		p.Values[name] = value
	}
}

// MaybeAddMany sets name to the non-empty members of values, if any remain.
func (p *Params) MaybeAddMany(name string, values []string) {
	var filtered []string
	for _, value := range values {
		if value != "" {
			filtered = append(filtered, value)
		}
	}
	if len(filtered) > 0 {
		p.Values[name] = filtered
	}
}

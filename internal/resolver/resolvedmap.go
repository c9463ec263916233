package resolver

import (
	"github.com/kchobantonov/dagger/internal/binding"
	"github.com/kchobantonov/dagger/internal/model"
)

// resolvedMap is an insertion-ordered map of key to resolved bindings.
// Output graphs depend on iteration order, so a hash map alone won't do.
type resolvedMap struct {
	order  []model.Key
	byName map[string]*binding.ResolvedBindings
}

func newResolvedMap() *resolvedMap {
	return &resolvedMap{byName: map[string]*binding.ResolvedBindings{}}
}

func (m *resolvedMap) has(key model.Key) bool {
	_, ok := m.byName[key.ID()]
	return ok
}

func (m *resolvedMap) get(key model.Key) *binding.ResolvedBindings {
	return m.byName[key.ID()]
}

// put stores a resolution. Each key is stored at most once; a second put for
// the same key is ignored, preserving the first resolution.
func (m *resolvedMap) put(key model.Key, resolved *binding.ResolvedBindings) {
	if m.has(key) {
		return
	}
	m.order = append(m.order, key)
	m.byName[key.ID()] = resolved
}

func (m *resolvedMap) values() []*binding.ResolvedBindings {
	values := make([]*binding.ResolvedBindings, len(m.order))
	for i, key := range m.order {
		values[i] = m.byName[key.ID()]
	}
	return values
}

package binding

import (
	"github.com/kchobantonov/dagger/internal/model"
)

// ComponentDeclarations indexes every declaration installed by one
// component's modules, queryable by key. Built once per component by
// DeclarationsFactory and never mutated afterwards.
type ComponentDeclarations struct {
	keys *KeyFactory

	bindings                          map[string][]*Binding
	delegates                         map[string][]*DelegateDeclaration
	multibindingContributions         map[string][]*Binding
	delegateMultibindingContributions map[string][]*DelegateDeclaration
	multibindings                     map[string][]*MultibindingDeclaration
	optionalBindings                  map[string][]*OptionalBindingDeclaration
	subcomponents                     map[string][]*SubcomponentDeclaration
	all                               []Declaration
}

// DeclarationsFactory builds the declaration index of a component from its
// module descriptors.
type DeclarationsFactory struct {
	Keys *KeyFactory
}

// Create indexes the declarations of the component's modules. Modules
// already installed by the direct parent component are skipped; a module
// installed only by a more distant ancestor is indexed again here.
func (f *DeclarationsFactory) Create(parent, descriptor *ComponentDescriptor) *ComponentDeclarations {
	inherited := map[string]bool{}
	if parent != nil {
		for _, module := range parent.Modules {
			inherited[module.Name] = true
		}
	}

	d := &ComponentDeclarations{
		keys:                              f.Keys,
		bindings:                          map[string][]*Binding{},
		delegates:                         map[string][]*DelegateDeclaration{},
		multibindingContributions:         map[string][]*Binding{},
		delegateMultibindingContributions: map[string][]*DelegateDeclaration{},
		multibindings:                     map[string][]*MultibindingDeclaration{},
		optionalBindings:                  map[string][]*OptionalBindingDeclaration{},
		subcomponents:                     map[string][]*SubcomponentDeclaration{},
	}
	for _, module := range descriptor.Modules {
		if inherited[module.Name] {
			continue
		}
		d.indexModule(module)
	}
	return d
}

func (d *ComponentDeclarations) indexModule(module *ModuleDescriptor) {
	for _, b := range module.Bindings {
		d.bindings[b.Key.ID()] = append(d.bindings[b.Key.ID()], b)
		if b.Key.MultibindingContributionIdentifier != "" {
			id := d.contributionTarget(b.Key)
			d.multibindingContributions[id] = append(d.multibindingContributions[id], b)
		}
		d.all = append(d.all, Declaration{Key: b.Key, Module: module.Name})
	}
	for _, delegate := range module.Delegates {
		d.delegates[delegate.Key.ID()] = append(d.delegates[delegate.Key.ID()], delegate)
		if delegate.IsMultibindingContribution() {
			id := d.contributionTarget(delegate.Key)
			d.delegateMultibindingContributions[id] = append(d.delegateMultibindingContributions[id], delegate)
		}
		d.all = append(d.all, Declaration{Key: delegate.Key, Module: module.Name})
	}
	for _, multibinding := range module.Multibindings {
		id := d.keys.UnwrapMapValueType(multibinding.Key).ID()
		d.multibindings[id] = append(d.multibindings[id], multibinding)
		d.all = append(d.all, Declaration{Key: multibinding.Key, Module: module.Name})
	}
	for _, optional := range module.OptionalBindings {
		d.optionalBindings[optional.Key.ID()] = append(d.optionalBindings[optional.Key.ID()], optional)
		d.all = append(d.all, Declaration{Key: model.QualifiedKey(optional.Key.Qualifier, model.OptionalOf(optional.Key.Type)), Module: module.Name})
	}
	for _, subcomponent := range module.Subcomponents {
		d.subcomponents[subcomponent.Key.ID()] = append(d.subcomponents[subcomponent.Key.ID()], subcomponent)
		d.all = append(d.all, Declaration{Key: subcomponent.Key, Module: module.Name})
	}
}

// contributionTarget normalizes a contribution key to the identity of the
// collection it contributes to: the contribution identifier is stripped and
// any framework wrapper on a map value type is removed, so that requests for
// Map<K, V> and Map<K, Provider<V>> find the same contributions.
func (d *ComponentDeclarations) contributionTarget(key model.Key) string {
	return d.keys.UnwrapMapValueType(key.WithoutMultibindingContributionIdentifier()).ID()
}

// Bindings returns the explicit bindings for the key.
func (d *ComponentDeclarations) Bindings(key model.Key) []*Binding {
	return d.bindings[key.ID()]
}

// Delegates returns the delegate declarations indexed under exactly this
// key. Contribution declarations carry their identifier on the key, so a
// plain key only matches non-contribution delegates.
func (d *ComponentDeclarations) Delegates(key model.Key) []*DelegateDeclaration {
	return d.delegates[key.ID()]
}

// MultibindingContributions returns the explicit contributions to the set or
// map requested by the key. Keys that are themselves contributions match
// nothing: their bindings are found through Bindings.
func (d *ComponentDeclarations) MultibindingContributions(key model.Key) []*Binding {
	if key.MultibindingContributionIdentifier != "" {
		return nil
	}
	return d.multibindingContributions[d.keys.UnwrapMapValueType(key).ID()]
}

// DelegateMultibindingContributions returns the delegate contributions to
// the set or map requested by the key.
func (d *ComponentDeclarations) DelegateMultibindingContributions(key model.Key) []*DelegateDeclaration {
	if key.MultibindingContributionIdentifier != "" {
		return nil
	}
	return d.delegateMultibindingContributions[d.keys.UnwrapMapValueType(key).ID()]
}

// Multibindings returns the multibinding declarations for the key.
func (d *ComponentDeclarations) Multibindings(key model.Key) []*MultibindingDeclaration {
	if key.MultibindingContributionIdentifier != "" {
		return nil
	}
	return d.multibindings[d.keys.UnwrapMapValueType(key).ID()]
}

// OptionalBindings returns the optional binding declarations for the key,
// which must already be unwrapped.
func (d *ComponentDeclarations) OptionalBindings(key model.Key) []*OptionalBindingDeclaration {
	return d.optionalBindings[key.ID()]
}

// Subcomponents returns the subcomponent declarations whose creator matches
// the key.
func (d *ComponentDeclarations) Subcomponents(key model.Key) []*SubcomponentDeclaration {
	return d.subcomponents[key.ID()]
}

// AllDeclarations returns every indexed declaration in insertion order.
func (d *ComponentDeclarations) AllDeclarations() []Declaration {
	return d.all
}

package resolver

import (
	"github.com/kchobantonov/dagger/internal/binding"
	"github.com/kchobantonov/dagger/internal/model"
)

// owningResolver returns the resolver at which the binding should be
// installed, or nil to install it at the current resolver. Rules are
// evaluated in order; the first match wins.
func (r *Resolver) owningResolver(b *binding.Binding) *Resolver {
	// Production-colored bindings resolve at the highest component that can
	// hold them: the highest production component for production-scoped
	// constructor injection, otherwise the highest component installing the
	// binding explicitly.
	if b.Scope.IsProduction() || b.Kind == model.BindingProduction {
		for _, resolver := range r.lineage() {
			if b.Kind == model.BindingInjection && resolver.descriptor.Production {
				return resolver
			}
			if resolver.containsExplicitBinding(b) {
				return resolver
			}
		}
	}

	// A reusable binding stays wherever it was already resolved; if nowhere,
	// it installs here.
	if b.Scope.IsReusable() {
		for resolver := r; resolver != nil; resolver = resolver.parent {
			if resolved := resolver.resolvedContributionBindings.get(b.Key); resolved != nil && resolved.Contains(b) {
				return resolver
			}
		}
		return nil
	}

	for resolver := r; resolver != nil; resolver = resolver.parent {
		if resolver.containsExplicitBinding(b) {
			return resolver
		}
	}

	// Scope is matched separately so a scope appearing on more than one
	// component in the lineage still finds the nearest match.
	if b.Scope != model.NoScope {
		for resolver := r; resolver != nil; resolver = resolver.parent {
			if resolver.descriptor.HasScope(b.Scope) {
				return resolver
			}
		}
	}
	return nil
}

// containsExplicitBinding reports whether this resolver's component installs
// the binding explicitly: a matching module binding, a matching delegate
// declaration, or a subcomponent declaration for the binding's key.
func (r *Resolver) containsExplicitBinding(b *binding.Binding) bool {
	return binding.Contains(r.declarations.Bindings(b.Key), b) ||
		r.containsDelegateDeclarationFor(b) ||
		len(r.declarations.Subcomponents(b.Key)) > 0
}

// containsDelegateDeclarationFor reports whether a delegate declaration in
// this resolver's modules produced the binding, matching on contributing
// module and element.
func (r *Resolver) containsDelegateDeclarationFor(b *binding.Binding) bool {
	if b.Kind != model.BindingDelegate {
		return false
	}
	// Map multibinding values may be wrapped with a framework type; undo the
	// wrapper before consulting the delegate declaration index.
	key := b.Key
	if r.factory.options.UseStrictMultibindings(b) {
		key = r.factory.keys.UnwrapMapValueType(key)
	}
	for _, declaration := range r.declarations.Delegates(key) {
		if declaration.Module == b.Module && declaration.Element == b.Element {
			return true
		}
	}
	return false
}

// isCorrectlyScopedInSubcomponent guards implicit injection bindings found
// while resolving a subcomponent in isolation: a scoped binding is accepted
// only if its scope matches a component in the known ancestry. Otherwise the
// binding belongs to a future ancestor, or will surface as an incompatibly
// scoped binding at the root.
func (r *Resolver) isCorrectlyScopedInSubcomponent(b *binding.Binding) bool {
	if !r.rootComponent().Subcomponent || b.Scope == model.NoScope || b.Scope.IsReusable() {
		return true
	}
	owner := r.owningResolver(b)
	if owner == nil {
		owner = r
	}
	return owner.descriptor.HasScope(b.Scope)
}

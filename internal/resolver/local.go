package resolver

import (
	"github.com/kchobantonov/dagger/internal/binding"
	"github.com/kchobantonov/dagger/internal/model"
)

// hasLocalBindings reports whether this component changes a previously
// resolved set: a local multibinding contribution, a duplicate explicit
// binding, or a local optional binding contribution.
func (r *Resolver) hasLocalBindings(resolved *binding.ResolvedBindings) bool {
	return r.hasLocalMultibindingContributions(resolved.Key) ||
		r.hasDuplicateExplicitBinding(resolved.Key, resolved.Bindings()) ||
		r.hasLocalOptionalBindingContribution(resolved.Key, resolved.Bindings())
}

// hasLocalBindingsForBinding is hasLocalBindings with a single binding
// standing in for the previously resolved set.
func (r *Resolver) hasLocalBindingsForBinding(b *binding.Binding) bool {
	previous := []*binding.Binding{b}
	return r.hasLocalMultibindingContributions(b.Key) ||
		r.hasDuplicateExplicitBinding(b.Key, previous) ||
		r.hasLocalOptionalBindingContribution(b.Key, previous)
}

// hasLocalMultibindingContributions reports whether modules of this
// component contribute to the set or map requested by the key.
func (r *Resolver) hasLocalMultibindingContributions(key model.Key) bool {
	return len(r.declarations.MultibindingContributions(key)) > 0 ||
		len(r.declarations.DelegateMultibindingContributions(key)) > 0
}

// hasLocalOptionalBindingContribution reports whether this component
// contributes to an Optional key in a way its ancestors have not. When the
// previously resolved set already holds an optional binding, a local
// explicit binding for the unwrapped key changes its presence. Otherwise a
// fresh optional declaration conflicts with whatever the ancestors bound,
// even without a binding for the unwrapped key itself.
func (r *Resolver) hasLocalOptionalBindingContribution(key model.Key, previous []*binding.Binding) bool {
	for _, b := range previous {
		if b.Kind == model.BindingOptional {
			unwrapped, ok := r.factory.keys.UnwrapOptional(key)
			if !ok {
				return false
			}
			return r.hasLocalExplicitBindings(unwrapped)
		}
	}
	return len(r.optionalBindingDeclarations(key)) > 0
}

// optionalBindingDeclarations returns the optional binding declarations for
// the key installed by this component's own modules. Declarations are keyed
// by the unwrapped type.
func (r *Resolver) optionalBindingDeclarations(key model.Key) []*binding.OptionalBindingDeclaration {
	unwrapped, ok := r.factory.keys.UnwrapOptional(key)
	if !ok {
		return nil
	}
	return r.declarations.OptionalBindings(unwrapped)
}

// hasLocalExplicitBindings reports whether this component's modules bind
// the key explicitly, directly or by delegate declaration.
func (r *Resolver) hasLocalExplicitBindings(key model.Key) bool {
	return len(r.declarations.Bindings(key)) > 0 ||
		len(r.declarations.Delegates(r.factory.keys.UnwrapMapValueType(key))) > 0
}

// hasDuplicateExplicitBinding reports whether a local explicit binding
// duplicates a previously resolved one. Unless explicit-vs-inject conflicts
// are reported as errors, injection bindings are dropped from the previous
// set first: overriding them is allowed, so re-resolving would silently
// swallow the override rather than report it.
func (r *Resolver) hasDuplicateExplicitBinding(key model.Key, previous []*binding.Binding) bool {
	if r.factory.options.ExplicitBindingConflictsWithInject != binding.DiagnosticError {
		var filtered []*binding.Binding
		for _, b := range previous {
			if b.Kind != model.BindingInjection {
				filtered = append(filtered, b)
			}
		}
		previous = filtered
	}
	return len(previous) > 0 && r.hasLocalExplicitBindings(key)
}

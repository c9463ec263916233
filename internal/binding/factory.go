package binding

import (
	"github.com/kchobantonov/dagger/internal/model"
)

// BindingFactory constructs the synthetic bindings materialized during
// resolution: multibound collections, optionals, delegates, subcomponent
// creators and assisted factories.
type BindingFactory struct {
	Keys *KeyFactory
}

// MultiboundSet creates the single binding aggregating all set contributions
// for the key.
func (f *BindingFactory) MultiboundSet(key model.Key, contributions []*Binding) *Binding {
	return &Binding{
		Key:  key,
		Kind: model.BindingMultiboundSet,
		Deps: contributionRequests(contributions),
	}
}

// MultiboundMap creates the single binding aggregating all map contributions
// for the key.
func (f *BindingFactory) MultiboundMap(key model.Key, contributions []*Binding) *Binding {
	return &Binding{
		Key:  key,
		Kind: model.BindingMultiboundMap,
		Deps: contributionRequests(contributions),
	}
}

func contributionRequests(contributions []*Binding) []model.DependencyRequest {
	deps := make([]model.DependencyRequest, len(contributions))
	for i, contribution := range contributions {
		deps[i] = model.Request(contribution.Key)
	}
	return deps
}

// SyntheticOptional creates the binding for an Optional key. When the
// underlying key resolved to nothing, the optional is absent and the binding
// has no dependencies; otherwise it depends on the underlying key with the
// request kind implied by the optional's value type.
func (f *BindingFactory) SyntheticOptional(key model.Key, underlying []*Binding) *Binding {
	binding := &Binding{Key: key, Kind: model.BindingOptional}
	if len(underlying) > 0 {
		unwrapped, ok := f.Keys.UnwrapOptional(key)
		if ok {
			binding.Deps = []model.DependencyRequest{{
				Key:  unwrapped,
				Kind: f.Keys.RequestKindForOptionalValue(key.Type.Args[0]),
			}}
		}
	}
	return binding
}

// SubcomponentCreator creates the binding for a subcomponent's creator type.
func (f *BindingFactory) SubcomponentCreator(key model.Key, declarations []*SubcomponentDeclaration) *Binding {
	binding := &Binding{Key: key, Kind: model.BindingSubcomponentCreator}
	if len(declarations) > 0 {
		binding.Module = declarations[0].Module
	}
	return binding
}

// Delegate creates a delegate binding forwarding the declaration's key to
// the resolved target. The target only anchors the delegate; duplicate
// targets are diagnosed by later validation.
func (f *BindingFactory) Delegate(declaration *DelegateDeclaration, target *Binding) *Binding {
	kind := model.BindingDelegate
	if target.Kind == model.BindingUnresolvedDelegate {
		kind = model.BindingUnresolvedDelegate
	}
	return &Binding{
		Key:     declaration.Key,
		Kind:    kind,
		Scope:   declaration.Scope,
		Module:  declaration.Module,
		Element: declaration.Element,
		Deps:    []model.DependencyRequest{declaration.Delegate},
	}
}

// UnresolvedDelegate creates the placeholder recorded when a delegate's
// target is missing or cyclic.
func (f *BindingFactory) UnresolvedDelegate(declaration *DelegateDeclaration) *Binding {
	return &Binding{
		Key:     declaration.Key,
		Kind:    model.BindingUnresolvedDelegate,
		Scope:   declaration.Scope,
		Module:  declaration.Module,
		Element: declaration.Element,
	}
}

// AssistedFactory creates the binding for an assisted factory type whose
// methods construct the given assisted injection target.
func (f *BindingFactory) AssistedFactory(key model.Key, target model.Key) *Binding {
	return &Binding{
		Key:  key,
		Kind: model.BindingAssistedFactory,
		Deps: []model.DependencyRequest{{Key: target, Kind: model.RequestProvider}},
	}
}

package binding

import (
	"github.com/kchobantonov/dagger/internal/model"
)

// InjectBindingRegistry discovers implicit bindings: constructor-injected
// classes, members-injection bindings and assisted factory types. The
// constructor-injection lookup is consulted only when no other binding
// satisfies a key; members-injector and assisted-factory lookups are made
// for every key.
type InjectBindingRegistry interface {
	// GetOrFindInjectionBinding returns the constructor-injection binding
	// for the key, or nil when the key's type has no injectable constructor.
	GetOrFindInjectionBinding(key model.Key) *Binding
	// GetOrFindMembersInjectionBinding returns the members-injection binding
	// for the key, or nil.
	GetOrFindMembersInjectionBinding(key model.Key) *Binding
	// GetOrFindMembersInjectorBinding returns the contribution binding for a
	// MembersInjector<T> key, or nil.
	GetOrFindMembersInjectorBinding(key model.Key) *Binding
	// AssistedFactoryTarget returns the assisted-injection key constructed
	// by the given factory type, if the type is an assisted factory.
	AssistedFactoryTarget(t model.TypeName) (model.Key, bool)
}

type injectEntry struct {
	scope    model.Scope
	assisted bool
	deps     []model.DependencyRequest
}

// Registry is an in-memory InjectBindingRegistry fed from descriptor files.
// Lookups memoize the constructed bindings so repeated requests observe the
// same binding identity.
type Registry struct {
	inject    map[string]*injectEntry
	members   map[string][]model.DependencyRequest
	factories map[string]model.TypeName

	injectBindings  map[string]*Binding
	memberBindings  map[string]*Binding
	membersInjector map[string]*Binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		inject:          map[string]*injectEntry{},
		members:         map[string][]model.DependencyRequest{},
		factories:       map[string]model.TypeName{},
		injectBindings:  map[string]*Binding{},
		memberBindings:  map[string]*Binding{},
		membersInjector: map[string]*Binding{},
	}
}

// RegisterInjection registers a constructor-injected type with its
// constructor dependencies.
func (r *Registry) RegisterInjection(t model.TypeName, scope model.Scope, assisted bool, deps ...model.DependencyRequest) {
	r.inject[t.String()] = &injectEntry{scope: scope, assisted: assisted, deps: deps}
}

// RegisterMembersInjection registers the member dependencies injected into
// existing instances of a type.
func (r *Registry) RegisterMembersInjection(t model.TypeName, deps ...model.DependencyRequest) {
	r.members[t.String()] = deps
}

// RegisterAssistedFactory registers a factory type whose methods construct
// the given assisted-injection type.
func (r *Registry) RegisterAssistedFactory(factory, target model.TypeName) {
	r.factories[factory.String()] = target
}

func (r *Registry) GetOrFindInjectionBinding(key model.Key) *Binding {
	// Implicit constructor injection never satisfies qualified keys or
	// contribution keys.
	if key.Qualifier != "" || key.MultibindingContributionIdentifier != "" {
		return nil
	}
	if binding, ok := r.injectBindings[key.ID()]; ok {
		return binding
	}
	entry, ok := r.inject[key.Type.String()]
	if !ok {
		return nil
	}
	kind := model.BindingInjection
	if entry.assisted {
		kind = model.BindingAssistedInjection
	}
	binding := &Binding{Key: key, Kind: kind, Scope: entry.scope, Deps: entry.deps}
	r.injectBindings[key.ID()] = binding
	return binding
}

func (r *Registry) GetOrFindMembersInjectionBinding(key model.Key) *Binding {
	if binding, ok := r.memberBindings[key.ID()]; ok {
		return binding
	}
	deps, ok := r.members[key.Type.String()]
	if !ok {
		return nil
	}
	binding := &Binding{Key: key, Kind: model.BindingMembersInjection, Deps: deps}
	r.memberBindings[key.ID()] = binding
	return binding
}

func (r *Registry) GetOrFindMembersInjectorBinding(key model.Key) *Binding {
	if !key.Type.IsMembersInjector() {
		return nil
	}
	if binding, ok := r.membersInjector[key.ID()]; ok {
		return binding
	}
	target := key.Type.Args[0]
	if _, ok := r.members[target.String()]; !ok {
		return nil
	}
	binding := &Binding{
		Key:  key,
		Kind: model.BindingMembersInjector,
		Deps: r.members[target.String()],
	}
	r.membersInjector[key.ID()] = binding
	return binding
}

func (r *Registry) AssistedFactoryTarget(t model.TypeName) (model.Key, bool) {
	target, ok := r.factories[t.String()]
	if !ok {
		return model.Key{}, false
	}
	return model.KeyOf(target), true
}

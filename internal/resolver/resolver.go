package resolver

import (
	"slices"

	"github.com/alecthomas/errors"
	"github.com/kchobantonov/dagger/internal/binding"
	"github.com/kchobantonov/dagger/internal/model"
)

// Resolver holds the resolution state of one component: its resolution
// tables, the caches backing the re-resolution analysis and the queue of
// subcomponents discovered while resolving. A child resolver reads parent
// state but never mutates it, except for appending to an ancestor's
// subcomponent queue when a creator binding resolves there.
type Resolver struct {
	factory       *Factory
	parent        *Resolver
	descriptor    *binding.ComponentDescriptor
	componentPath model.ComponentPath
	declarations  *binding.ComponentDeclarations

	resolvedContributionBindings     *resolvedMap
	resolvedMembersInjectionBindings *resolvedMap
	cycleStack                       []model.Key
	keyDependsOnMissingBindingCache  map[string]bool
	keyDependsOnLocalBindingsCache   map[string]bool
	subcomponentsToResolve           []*binding.ComponentDescriptor
}

func (f *Factory) newResolver(parent *Resolver, descriptor *binding.ComponentDescriptor) *Resolver {
	r := &Resolver{
		factory:                          f,
		parent:                           parent,
		descriptor:                       descriptor,
		resolvedContributionBindings:     newResolvedMap(),
		resolvedMembersInjectionBindings: newResolvedMap(),
		keyDependsOnMissingBindingCache:  map[string]bool{},
		keyDependsOnLocalBindingsCache:   map[string]bool{},
	}
	var parentDescriptor *binding.ComponentDescriptor
	if parent != nil {
		parentDescriptor = parent.descriptor
		r.componentPath = parent.componentPath.Child(descriptor.Name)
	} else {
		r.componentPath = model.RootPath(descriptor.Name)
	}
	r.declarations = f.declarations.Create(parentDescriptor, descriptor)
	r.subcomponentsToResolve = append(r.subcomponentsToResolve, descriptor.FactoryMethodChildren...)
	r.subcomponentsToResolve = append(r.subcomponentsToResolve, descriptor.BuilderEntryPointChildren()...)
	return r
}

// resolve ensures the key is resolved in this resolver or an ancestor, and
// transitively every dependency of every binding installed here.
func (r *Resolver) resolve(key model.Key) error {
	// A key already on the stack is a cycle edge; the frame that pushed it
	// completes the table entry.
	if r.onCycleStack(key) {
		return nil
	}
	if r.resolvedContributionBindings.has(key) {
		return nil
	}

	r.cycleStack = append(r.cycleStack, key)
	defer func() { r.cycleStack = r.cycleStack[:len(r.cycleStack)-1] }()

	r.factory.logger.Debug("resolving key", "component", r.componentPath.String(), "key", key.ID())
	resolved, err := r.lookUpBindings(key)
	if err != nil {
		return err
	}
	r.resolvedContributionBindings.put(key, resolved)
	return r.resolveDependencies(resolved)
}

func (r *Resolver) resolveMembersInjection(key model.Key) error {
	resolved := r.lookUpMembersInjectionBinding(key)
	if err := r.resolveDependencies(resolved); err != nil {
		return err
	}
	r.resolvedMembersInjectionBindings.put(key, resolved)
	return nil
}

// resolveDependencies resolves each dependency of the bindings installed at
// this component. Inherited nodes had their dependencies walked at their
// owning component.
func (r *Resolver) resolveDependencies(resolved *binding.ResolvedBindings) error {
	for _, node := range resolved.NodesOwnedBy(r.componentPath) {
		for _, dependency := range node.Binding.Deps {
			if err := r.resolve(dependency.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

// lookUpBindings produces the complete resolved bindings for a key as seen
// from this component: explicit bindings and delegate bindings from the
// whole resolver lineage, synthetic multibound, optional and subcomponent
// creator bindings, members injector and assisted factory bindings, and
// finally the implicit constructor-injection binding when nothing else
// matched.
func (r *Resolver) lookUpBindings(key model.Key) (*binding.ResolvedBindings, error) {
	var bindings []*binding.Binding
	var multibindingContributions []*binding.Binding
	var multibindingDeclarations []*binding.MultibindingDeclaration
	var optionalBindingDeclarations []*binding.OptionalBindingDeclaration
	var subcomponentDeclarations []*binding.SubcomponentDeclaration

	for _, resolver := range r.lineage() {
		explicit, err := resolver.localExplicitBindings(key)
		if err != nil {
			return nil, err
		}
		for _, b := range explicit {
			bindings = appendUnique(bindings, b)
		}
		contributions, err := resolver.localMultibindingContributions(key)
		if err != nil {
			return nil, err
		}
		for _, b := range contributions {
			multibindingContributions = appendUnique(multibindingContributions, b)
		}
		multibindingDeclarations = append(multibindingDeclarations, resolver.declarations.Multibindings(key)...)
		subcomponentDeclarations = append(subcomponentDeclarations, resolver.declarations.Subcomponents(key)...)
		// Optional binding declarations are keyed by the unwrapped type.
		if unwrapped, ok := r.factory.keys.UnwrapOptional(key); ok {
			optionalBindingDeclarations = append(optionalBindingDeclarations, resolver.declarations.OptionalBindings(unwrapped)...)
		}
	}

	if len(multibindingContributions) > 0 || len(multibindingDeclarations) > 0 {
		switch {
		case key.Type.IsMap():
			bindings = appendUnique(bindings, r.factory.bindings.MultiboundMap(key, multibindingContributions))
		case key.Type.IsSet():
			bindings = appendUnique(bindings, r.factory.bindings.MultiboundSet(key, multibindingContributions))
		default:
			return nil, errors.Errorf("multibinding contributions for key %s, which is neither a map nor a set", key)
		}
	}

	if len(optionalBindingDeclarations) > 0 {
		unwrapped, _ := r.factory.keys.UnwrapOptional(key)
		inner, err := r.lookUpBindings(unwrapped)
		if err != nil {
			return nil, err
		}
		bindings = appendUnique(bindings, r.factory.bindings.SyntheticOptional(key, inner.Bindings()))
	}

	if len(subcomponentDeclarations) > 0 {
		creator := r.factory.bindings.SubcomponentCreator(key, subcomponentDeclarations)
		bindings = appendUnique(bindings, creator)
		if err := r.addSubcomponentToOwningResolver(creator); err != nil {
			return nil, err
		}
	}

	if key.Type.IsMembersInjector() {
		if b := r.factory.registry.GetOrFindMembersInjectorBinding(key); b != nil {
			bindings = appendUnique(bindings, b)
		}
	}

	if target, ok := r.factory.registry.AssistedFactoryTarget(key.Type); ok {
		bindings = appendUnique(bindings, r.factory.bindings.AssistedFactory(key, target))
	}

	if len(bindings) == 0 {
		if b := r.factory.registry.GetOrFindInjectionBinding(key); b != nil && r.isCorrectlyScopedInSubcomponent(b) {
			bindings = append(bindings, b)
		}
	}

	nodes := make([]*binding.BindingNode, 0, len(bindings))
	for _, b := range bindings {
		// A binding owned by an ancestor reuses the ancestor's node verbatim
		// so the ancestor's multi/optional/subcomponent declaration sets are
		// not duplicated in descendants.
		node, err := r.bindingNodeOwnedByAncestor(key, b)
		if err != nil {
			return nil, err
		}
		if node == nil {
			node = binding.NewContributionNode(
				r.componentPath, b, multibindingDeclarations, optionalBindingDeclarations, subcomponentDeclarations)
		}
		nodes = append(nodes, node)
	}
	return binding.NewResolvedBindings(key, nodes...), nil
}

// lookUpMembersInjectionBinding returns the registry's members-injection
// binding for the key, or an empty resolution. Members-injection results
// have no dependency on prior context and are never inherited.
func (r *Resolver) lookUpMembersInjectionBinding(key model.Key) *binding.ResolvedBindings {
	if b := r.factory.registry.GetOrFindMembersInjectionBinding(key); b != nil {
		return binding.NewResolvedBindings(key, binding.NewMembersInjectionNode(r.componentPath, b))
	}
	return binding.NewResolvedBindings(key)
}

// localExplicitBindings returns this resolver's explicit bindings for the
// key, including delegate bindings synthesized from delegate declarations.
// Delegate declarations are looked up with any framework wrapper stripped
// from map value types, since delegate keys are declared unwrapped.
func (r *Resolver) localExplicitBindings(key model.Key) ([]*binding.Binding, error) {
	out := slices.Clone(r.declarations.Bindings(key))
	delegates, err := r.createDelegateBindings(r.declarations.Delegates(r.factory.keys.UnwrapMapValueType(key)))
	if err != nil {
		return nil, err
	}
	return append(out, delegates...), nil
}

// localMultibindingContributions returns this resolver's explicit and
// delegate contributions to the set or map requested by the key.
func (r *Resolver) localMultibindingContributions(key model.Key) ([]*binding.Binding, error) {
	out := slices.Clone(r.declarations.MultibindingContributions(key))
	delegates, err := r.createDelegateBindings(r.declarations.DelegateMultibindingContributions(key))
	if err != nil {
		return nil, err
	}
	return append(out, delegates...), nil
}

func (r *Resolver) createDelegateBindings(declarations []*binding.DelegateDeclaration) ([]*binding.Binding, error) {
	bindings := make([]*binding.Binding, 0, len(declarations))
	for _, declaration := range declarations {
		b, err := r.createDelegateBinding(declaration)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// createDelegateBinding creates one (and only one) delegate binding for a
// delegate declaration, anchored on the first resolved binding of the
// delegate's target key. A missing or cyclic target yields an unresolved
// delegate placeholder; validation diagnoses it later.
func (r *Resolver) createDelegateBinding(declaration *binding.DelegateDeclaration) (*binding.Binding, error) {
	delegateKey := declaration.Delegate.Key
	if r.onCycleStack(delegateKey) {
		return r.factory.bindings.UnresolvedDelegate(declaration), nil
	}

	r.cycleStack = append(r.cycleStack, delegateKey)
	resolved, err := r.lookUpBindings(delegateKey)
	r.cycleStack = r.cycleStack[:len(r.cycleStack)-1]
	if err != nil {
		return nil, err
	}

	if resolved.IsEmpty() {
		return r.factory.bindings.UnresolvedDelegate(declaration), nil
	}
	// Which binding anchors the delegate doesn't matter: duplicates produce
	// a duplicate-binding diagnostic downstream either way.
	return r.factory.bindings.Delegate(declaration, resolved.Bindings()[0]), nil
}

// addSubcomponentToOwningResolver enqueues the child component installed by
// a creator binding on the queue of the resolver that owns the binding.
func (r *Resolver) addSubcomponentToOwningResolver(creator *binding.Binding) error {
	owner := r.owningResolver(creator)
	if owner == nil {
		return errors.Errorf("no owning resolver for subcomponent creator %s", creator.Key)
	}
	child := owner.descriptor.ChildComponentWithBuilderType(creator.Key.Type)
	if child == nil {
		return errors.Errorf("component %s has no child with creator type %s", owner.descriptor.Name, creator.Key.Type)
	}
	owner.subcomponentsToResolve = append(owner.subcomponentsToResolve, child)
	return nil
}

// bindingNodeOwnedByAncestor returns the ancestor's binding node when the
// binding is owned by an ancestor and the current component does not change
// its resolution; otherwise nil.
func (r *Resolver) bindingNodeOwnedByAncestor(key model.Key, b *binding.Binding) (*binding.BindingNode, error) {
	if !r.canBeResolvedInParent(key, b) {
		return nil, nil
	}
	// Resolve in the parent first so the ancestor entry reflects the most
	// recent multibinding and optional contributions.
	if err := r.parent.resolve(key); err != nil {
		return nil, err
	}
	requires, err := r.requiresResolution(b)
	if err != nil || requires {
		return nil, err
	}
	previous := r.previouslyResolvedBindings(key)
	if previous == nil {
		return nil, errors.Errorf("no previously resolved bindings in %s for key %s", r.componentPath, key)
	}
	node := previous.ForBinding(b)
	if node == nil {
		return nil, errors.Errorf("previously resolved bindings for key %s do not contain %s", key, b)
	}
	return node, nil
}

func (r *Resolver) canBeResolvedInParent(key model.Key, b *binding.Binding) bool {
	if r.parent == nil {
		return false
	}
	if owner := r.owningResolver(b); owner != nil {
		return owner != r
	}
	previous := r.previouslyResolvedBindings(key)
	return !r.keyIsComponentOrCreator(key) &&
		// Assisted injection bindings are conservatively never reused from a
		// parent.
		b.Kind != model.BindingAssistedInjection &&
		previous != nil &&
		previous.Contains(b)
}

// previouslyResolvedBindings returns the resolution for the key stored in
// the closest ancestor, or nil. Only contribution bindings are consulted;
// members-injection resolutions are not inherited.
func (r *Resolver) previouslyResolvedBindings(key model.Key) *binding.ResolvedBindings {
	for ancestor := r.parent; ancestor != nil; ancestor = ancestor.parent {
		if resolved := ancestor.resolvedContributionBindings.get(key); resolved != nil {
			return resolved
		}
	}
	return nil
}

// getResolvedContributionBindings returns the resolution for the key from
// this resolver or the closest ancestor holding one. Every dependency of a
// resolved binding is guaranteed to be resolved somewhere in the lineage,
// so a miss is an invariant violation.
func (r *Resolver) getResolvedContributionBindings(key model.Key) (*binding.ResolvedBindings, error) {
	for resolver := r; resolver != nil; resolver = resolver.parent {
		if resolved := resolver.resolvedContributionBindings.get(key); resolved != nil {
			return resolved, nil
		}
	}
	return nil, errors.Errorf("no resolved bindings for key %s", key)
}

// lineage returns the resolver chain ordered root first, this resolver
// last.
func (r *Resolver) lineage() []*Resolver {
	var lineage []*Resolver
	for resolver := r; resolver != nil; resolver = resolver.parent {
		lineage = append(lineage, resolver)
	}
	slices.Reverse(lineage)
	return lineage
}

func (r *Resolver) rootComponent() *binding.ComponentDescriptor {
	root := r
	for root.parent != nil {
		root = root.parent
	}
	return root.descriptor
}

func (r *Resolver) onCycleStack(key model.Key) bool {
	id := key.ID()
	for _, k := range r.cycleStack {
		if k.ID() == id {
			return true
		}
	}
	return false
}

// keyIsComponentOrCreator reports whether the key names a component or a
// component creator anywhere in the lineage. A binding for such a key is
// reused from a parent only when an ancestor owns it.
func (r *Resolver) keyIsComponentOrCreator(key model.Key) bool {
	if key.Qualifier != "" {
		return false
	}
	for resolver := r; resolver != nil; resolver = resolver.parent {
		descriptor := resolver.descriptor
		if key.Type.Equal(model.Type(descriptor.Name)) {
			return true
		}
		if !descriptor.CreatorType.IsZero() && descriptor.CreatorType.Equal(key.Type) {
			return true
		}
		for _, child := range descriptor.Children {
			if key.Type.Equal(model.Type(child.Name)) {
				return true
			}
			if !child.CreatorType.IsZero() && child.CreatorType.Equal(key.Type) {
				return true
			}
		}
	}
	return false
}

func appendUnique(bindings []*binding.Binding, b *binding.Binding) []*binding.Binding {
	if binding.Contains(bindings, b) {
		return bindings
	}
	return append(bindings, b)
}

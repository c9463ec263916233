package resolver

import (
	"github.com/alecthomas/errors"
	"github.com/kchobantonov/dagger/internal/binding"
	"github.com/kchobantonov/dagger/internal/model"
	"github.com/kchobantonov/dagger/internal/tarjan"
)

// requiresResolution decides whether a binding previously resolved in an
// ancestor must be re-resolved here because this component changes the
// answer: a local multibinding or optional contribution, a duplicate
// explicit binding, or a dependency with one of those.
func (r *Resolver) requiresResolution(b *binding.Binding) (bool, error) {
	checker := &requiresResolutionChecker{r}
	return checker.bindingRequiresResolution(b)
}

// requiresResolutionChecker answers requires-resolution queries against one
// resolver. Only keys are cached; for a binding the binding itself is
// checked for local bindings, then the key caches cover its dependencies.
type requiresResolutionChecker struct {
	r *Resolver
}

func (c *requiresResolutionChecker) bindingRequiresResolution(b *binding.Binding) (bool, error) {
	// A binding that isn't allowed to float can never be re-resolved here.
	notAllowed, err := c.isNotAllowedToFloat(b)
	if err != nil || notAllowed {
		return false, err
	}
	if c.r.hasLocalBindingsForBinding(b) {
		return true, nil
	}
	if !c.shouldCheckDependencies(b) {
		return false, nil
	}
	for _, dependency := range b.Deps {
		requires, err := c.keyRequiresResolution(dependency.Key)
		if err != nil || requires {
			return requires, err
		}
	}
	return false, nil
}

func (c *requiresResolutionChecker) keyRequiresResolution(key model.Key) (bool, error) {
	// Keys that depend on missing bindings are re-resolved too: floatable
	// bindings then resolve against the descendant's view, which keeps
	// missing-binding traces from dragging in every floatable binding.
	local, err := c.dependsOnLocalBinding(key)
	if err != nil || local {
		return local, err
	}
	return c.dependsOnMissingBinding(key)
}

// isNotAllowedToFloat reports whether the binding is pinned to its ancestor.
// Non-injection bindings may float to pick up multibinding contributions
// installed in subcomponents, but not to pick up bindings that were missing
// at the ancestor and appear in a descendant.
func (c *requiresResolutionChecker) isNotAllowedToFloat(b *binding.Binding) (bool, error) {
	if b.Kind == model.BindingInjection || b.Kind == model.BindingAssistedInjection {
		return false, nil
	}
	return c.dependsOnMissingBinding(b.Key)
}

func (c *requiresResolutionChecker) dependsOnMissingBinding(key model.Key) (bool, error) {
	if _, ok := c.r.keyDependsOnMissingBindingCache[key.ID()]; !ok {
		if err := c.visitUncachedDependencies(key); err != nil {
			return false, err
		}
	}
	return c.r.keyDependsOnMissingBindingCache[key.ID()], nil
}

func (c *requiresResolutionChecker) dependsOnLocalBinding(key model.Key) (bool, error) {
	if _, ok := c.r.keyDependsOnLocalBindingsCache[key.ID()]; !ok {
		if err := c.visitUncachedDependencies(key); err != nil {
			return false, err
		}
	}
	return c.r.keyDependsOnLocalBindingsCache[key.ID()], nil
}

// visitUncachedDependencies fills both caches for every uncached key
// reachable from the request key. The two predicates propagate identically
// across cycles, so they are computed together per strongly connected
// component, visited in reverse topological order: when a component is
// processed, every dependency outside it is already cached.
func (c *requiresResolutionChecker) visitUncachedDependencies(requestKey model.Key) error {
	components, err := c.stronglyConnectedComponents(requestKey)
	if err != nil {
		return err
	}
	for _, cycleKeys := range components {
		inCycle := map[string]bool{}
		for _, key := range cycleKeys {
			if _, ok := c.r.keyDependsOnLocalBindingsCache[key.ID()]; ok {
				return errors.Errorf("key %s in cycle already has a cached local-bindings value", key)
			}
			if _, ok := c.r.keyDependsOnMissingBindingCache[key.ID()]; ok {
				return errors.Errorf("key %s in cycle already has a cached missing-binding value", key)
			}
			inCycle[key.ID()] = true
		}

		cycleBindings := make([]*binding.ResolvedBindings, 0, len(cycleKeys))
		for _, key := range cycleKeys {
			resolved, err := c.previouslyResolved(key)
			if err != nil {
				return err
			}
			cycleBindings = append(cycleBindings, resolved)
		}

		dependsOnMissing := false
		for _, resolved := range cycleBindings {
			if resolved.IsEmpty() {
				dependsOnMissing = true
				break
			}
		}
		if !dependsOnMissing {
			dependsOnMissing, err = c.anyDependencyOutsideCycle(cycleBindings, inCycle, c.r.keyDependsOnMissingBindingCache)
			if err != nil {
				return err
			}
		}
		// Keys in a cycle all depend on each other, so they share one value.
		for _, key := range cycleKeys {
			c.r.keyDependsOnMissingBindingCache[key.ID()] = dependsOnMissing
		}

		// Scoped bindings are deliberately not filtered out here: a scoped
		// binding that has a local duplicate explicit binding still has to
		// be re-resolved so the duplicate can be reported. Only the
		// traversal below a scoped binding stops.
		dependsOnLocal := false
		for _, resolved := range cycleBindings {
			if c.r.hasLocalBindings(resolved) {
				dependsOnLocal = true
				break
			}
		}
		if !dependsOnLocal {
			dependsOnLocal, err = c.anyDependencyOutsideCycle(cycleBindings, inCycle, c.r.keyDependsOnLocalBindingsCache)
			if err != nil {
				return err
			}
		}
		for _, key := range cycleKeys {
			c.r.keyDependsOnLocalBindingsCache[key.ID()] = dependsOnLocal
		}
	}
	return nil
}

// anyDependencyOutsideCycle reports whether any dependency of any cycle
// binding that lies outside the cycle has a true cache entry. Reverse
// topological order guarantees the entry exists.
func (c *requiresResolutionChecker) anyDependencyOutsideCycle(
	cycleBindings []*binding.ResolvedBindings,
	inCycle map[string]bool,
	cache map[string]bool,
) (bool, error) {
	for _, resolved := range cycleBindings {
		for _, b := range resolved.Bindings() {
			if !c.shouldCheckDependencies(b) {
				continue
			}
			for _, dependency := range b.Deps {
				if inCycle[dependency.Key.ID()] {
					continue
				}
				value, ok := cache[dependency.Key.ID()]
				if !ok {
					return false, errors.Errorf("dependency %s outside cycle has no cached value", dependency.Key)
				}
				if value {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// stronglyConnectedComponents collects the uncached keys reachable from the
// request key through dependencies of previously resolved bindings and
// groups them into strongly connected components in reverse topological
// order. Traversal stops at cached keys, at bindings scoped to a component
// and at production bindings.
func (c *requiresResolutionChecker) stronglyConnectedComponents(requestKey model.Key) ([][]model.Key, error) {
	var uncachedIDs []string
	keysByID := map[string]model.Key{}
	successors := map[string][]string{}

	stack := []model.Key{requestKey}
	for len(stack) > 0 {
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		id := key.ID()
		if _, cached := c.r.keyDependsOnLocalBindingsCache[id]; cached {
			continue
		}
		if _, seen := keysByID[id]; seen {
			continue
		}
		keysByID[id] = key
		uncachedIDs = append(uncachedIDs, id)
		resolved, err := c.previouslyResolved(key)
		if err != nil {
			return nil, err
		}
		for _, b := range resolved.Bindings() {
			if !c.shouldCheckDependencies(b) {
				continue
			}
			for _, dependency := range b.Deps {
				stack = append(stack, dependency.Key)
				successors[id] = append(successors[id], dependency.Key.ID())
			}
		}
	}

	components := tarjan.Compute(uncachedIDs, func(id string) []string {
		// Successors were recorded eagerly above; only those that ended up
		// uncached need visiting.
		var filtered []string
		for _, successor := range successors[id] {
			if _, ok := keysByID[successor]; ok {
				filtered = append(filtered, successor)
			}
		}
		return filtered
	})

	result := make([][]model.Key, len(components))
	for i, component := range components {
		keys := make([]model.Key, len(component))
		for j, id := range component {
			keys[j] = keysByID[id]
		}
		result[i] = keys
	}
	return result, nil
}

// previouslyResolved returns the ancestor resolution for a key; the
// traversal only reaches keys resolved in an ancestor, so a miss is an
// invariant violation.
func (c *requiresResolutionChecker) previouslyResolved(key model.Key) (*binding.ResolvedBindings, error) {
	resolved := c.r.previouslyResolvedBindings(key)
	if resolved == nil {
		return nil, errors.Errorf("no previously resolved bindings in %s for key %s", c.r.componentPath, key)
	}
	return resolved, nil
}

// shouldCheckDependencies reports whether re-resolution analysis should
// traverse the binding's dependencies. Duplicates underneath a scoped
// binding are unused, so they are not validated; production subcomponent
// dependencies are skipped as well.
func (c *requiresResolutionChecker) shouldCheckDependencies(b *binding.Binding) bool {
	return !c.isScopedToComponent(b) && b.Kind != model.BindingProduction
}

func (c *requiresResolutionChecker) isScopedToComponent(b *binding.Binding) bool {
	return b.Scope != model.NoScope && !b.Scope.IsReusable()
}

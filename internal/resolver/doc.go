// Package resolver computes, for each component in a descriptor hierarchy,
// the full set of resolved bindings: which binding satisfies each key, at
// which component the binding is installed, and which synthetic bindings
// (multibound collections, optionals, delegates, subcomponent creators,
// assisted factories, members injectors) must be materialized.
//
// Resolution is demand-driven: the factory seeds each component's entry
// point keys and follows binding dependencies recursively. Subcomponents
// are resolved from a queue, since resolving one subcomponent can surface a
// creator binding owned by an ancestor.
//
// The component at which a binding is installed is decided by the ownership
// rules, evaluated in order:
//
//  1. Production-colored bindings (production scope or a produces binding)
//     install at the highest component in the lineage that can hold them.
//  2. Reusable-scoped bindings stay wherever they were already resolved.
//  3. Otherwise the nearest component installing the binding explicitly
//     wins, then the nearest component declaring the binding's scope.
//  4. With no match, the binding installs at the requesting component.
//
// A binding owned by an ancestor is normally inherited by reusing the
// ancestor's node. The exception is when the requesting component changes
// the answer: it contributes to an inherited multibinding, contributes an
// optional binding, or installs a duplicate explicit binding. Those checks
// are answered by a pair of caches (depends-on-missing, depends-on-local)
// filled together over the strongly connected components of the previously
// resolved dependency graph, in reverse topological order, so the
// predicates converge on cycles.
//
// Missing bindings are never errors here: they resolve to empty sets that
// later validation passes diagnose. Errors surfacing from this package
// indicate invariant violations, not user mistakes.
package resolver

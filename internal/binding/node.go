package binding

import (
	"github.com/kchobantonov/dagger/internal/model"
)

// BindingNode ties a binding to the component path at which it is installed,
// together with the multibinding, optional and subcomponent declarations
// that were in view at the owning component. Node identity is pointer
// identity: descendants that inherit a binding reuse the owner's node so
// downstream consumers can de-duplicate.
type BindingNode struct {
	// ComponentPath is the installation path of the binding.
	ComponentPath model.ComponentPath
	Binding       *Binding

	MultibindingDeclarations    []*MultibindingDeclaration
	OptionalBindingDeclarations []*OptionalBindingDeclaration
	SubcomponentDeclarations    []*SubcomponentDeclaration
}

// NewContributionNode creates a node for a contribution binding installed at
// the given component path.
func NewContributionNode(
	path model.ComponentPath,
	binding *Binding,
	multibindings []*MultibindingDeclaration,
	optionals []*OptionalBindingDeclaration,
	subcomponents []*SubcomponentDeclaration,
) *BindingNode {
	return &BindingNode{
		ComponentPath:               path,
		Binding:                     binding,
		MultibindingDeclarations:    multibindings,
		OptionalBindingDeclarations: optionals,
		SubcomponentDeclarations:    subcomponents,
	}
}

// NewMembersInjectionNode creates a node for a members-injection binding.
func NewMembersInjectionNode(path model.ComponentPath, binding *Binding) *BindingNode {
	return &BindingNode{ComponentPath: path, Binding: binding}
}

// ResolvedBindings is the set of binding nodes that satisfy a key as seen
// from one component. An empty set means the key is missing; missing keys
// are diagnosed by later validation passes, never here.
type ResolvedBindings struct {
	Key   model.Key
	Nodes []*BindingNode
}

// NewResolvedBindings creates the resolved binding set for a key.
func NewResolvedBindings(key model.Key, nodes ...*BindingNode) *ResolvedBindings {
	return &ResolvedBindings{Key: key, Nodes: nodes}
}

func (r *ResolvedBindings) IsEmpty() bool { return len(r.Nodes) == 0 }

// Bindings returns the bindings of all nodes, in node order.
func (r *ResolvedBindings) Bindings() []*Binding {
	bindings := make([]*Binding, len(r.Nodes))
	for i, node := range r.Nodes {
		bindings[i] = node.Binding
	}
	return bindings
}

// Contains reports whether the set contains a binding with the same identity.
func (r *ResolvedBindings) Contains(binding *Binding) bool {
	return Contains(r.Bindings(), binding)
}

// NodesOwnedBy returns the nodes installed at the given component path.
func (r *ResolvedBindings) NodesOwnedBy(path model.ComponentPath) []*BindingNode {
	var owned []*BindingNode
	for _, node := range r.Nodes {
		if node.ComponentPath.Equal(path) {
			owned = append(owned, node)
		}
	}
	return owned
}

// ForBinding returns the node holding the binding with the same identity,
// or nil if the set has none.
func (r *ResolvedBindings) ForBinding(binding *Binding) *BindingNode {
	id := binding.ID()
	for _, node := range r.Nodes {
		if node.Binding.ID() == id {
			return node
		}
	}
	return nil
}

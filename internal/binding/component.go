package binding

import (
	"github.com/kchobantonov/dagger/internal/model"
)

// ModuleDescriptor is the pre-parsed declaration content of one module.
type ModuleDescriptor struct {
	Name             string
	Bindings         []*Binding
	Delegates        []*DelegateDeclaration
	Multibindings    []*MultibindingDeclaration
	OptionalBindings []*OptionalBindingDeclaration
	Subcomponents    []*SubcomponentDeclaration
}

// ComponentDescriptor describes one component in the hierarchy: its scopes,
// installed modules, entry points and child components.
type ComponentDescriptor struct {
	Name         string
	Scopes       []model.Scope
	Production   bool
	Subcomponent bool
	// CreatorType is the builder/factory type that constructs this
	// component, or the zero value when the component has none.
	CreatorType model.TypeName
	Modules     []*ModuleDescriptor
	// EntryPoints are the component's exposed dependency requests, in
	// declaration order.
	EntryPoints []model.DependencyRequest
	// FactoryMethodChildren are subcomponents declared by factory methods on
	// the component itself; they are resolved unconditionally.
	FactoryMethodChildren []*ComponentDescriptor
	// Children are all known child components, including those installed via
	// module subcomponent declarations.
	Children []*ComponentDescriptor
}

// HasScope reports whether the component declares the given scope.
func (c *ComponentDescriptor) HasScope(scope model.Scope) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// BuilderEntryPointChildren returns the children whose creator type appears
// as an entry point on this component.
func (c *ComponentDescriptor) BuilderEntryPointChildren() []*ComponentDescriptor {
	var children []*ComponentDescriptor
	for _, entry := range c.EntryPoints {
		if child := c.ChildComponentWithBuilderType(entry.Key.Type); child != nil {
			children = append(children, child)
		}
	}
	return children
}

// ChildComponentWithBuilderType returns the child component constructed by
// the given creator type, or nil.
func (c *ComponentDescriptor) ChildComponentWithBuilderType(builder model.TypeName) *ComponentDescriptor {
	for _, child := range c.Children {
		if !child.CreatorType.IsZero() && child.CreatorType.Equal(builder) {
			return child
		}
	}
	return nil
}

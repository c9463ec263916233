package resolver

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/kchobantonov/dagger/internal/binding"
	"github.com/kchobantonov/dagger/internal/descriptorparser"
	"github.com/kchobantonov/dagger/internal/model"
)

func buildTestGraph(t *testing.T, source string) *Graph {
	t.Helper()
	return buildTestGraphFull(t, source, false)
}

func buildTestGraphFull(t *testing.T, source string, full bool) *Graph {
	t.Helper()
	parsed, err := descriptorparser.Parse(source)
	assert.NoError(t, err)
	factory, err := NewFactory(parsed.Registry)
	assert.NoError(t, err)
	graph, err := factory.Create(parsed.Root, full)
	assert.NoError(t, err)
	return graph
}

// subgraph returns the immediate subgraph for the named component.
func subgraph(t *testing.T, graph *Graph, name string) *Graph {
	t.Helper()
	for _, sub := range graph.Subgraphs() {
		if sub.ComponentDescriptor().Name == name {
			return sub
		}
	}
	t.Fatalf("no subgraph for component %s", name)
	return nil
}

// locallyResolved returns the resolution stored in this component for the
// key, or nil if the key was resolved in an ancestor only.
func locallyResolved(graph *Graph, key model.Key) *binding.ResolvedBindings {
	for _, resolved := range graph.AllResolvedBindings() {
		if resolved.Key.ID() == key.ID() {
			return resolved
		}
	}
	return nil
}

func key(name string) model.Key { return model.KeyOf(model.Type(name)) }

func TestHoistedSingletonInjection(t *testing.T) {
	// An @Inject binding scoped to the root is installed at the root even
	// when only a subcomponent requests it, and its unscoped dependencies
	// are hoisted along with it.
	graph := buildTestGraph(t, `
component Root scoped Singleton {
	subcomponent Sub {
		entry Foo
	}
}
inject Foo (Bar) scoped Singleton
inject Bar ()
`)
	sub := subgraph(t, graph, "Sub")

	rootFoo := locallyResolved(graph, key("Foo"))
	assert.True(t, rootFoo != nil)
	assert.Equal(t, 1, len(rootFoo.Nodes))
	assert.True(t, rootFoo.Nodes[0].ComponentPath.Equal(model.RootPath("Root")))

	rootBar := locallyResolved(graph, key("Bar"))
	assert.True(t, rootBar != nil)
	assert.True(t, rootBar.Nodes[0].ComponentPath.Equal(model.RootPath("Root")))

	// The subcomponent inherits the root's node verbatim.
	subFoo := locallyResolved(sub, key("Foo"))
	assert.True(t, subFoo != nil)
	assert.True(t, subFoo.Nodes[0] == rootFoo.Nodes[0])

	// Bar is not re-resolved in the subcomponent, but remains reachable.
	assert.Zero(t, locallyResolved(sub, key("Bar")))
	viaSub, err := sub.ResolvedBindings(model.Request(key("Bar")))
	assert.NoError(t, err)
	assert.True(t, viaSub == rootBar)
}

func TestMultibindingInheritanceRequiresResolution(t *testing.T) {
	// A subcomponent that contributes to an inherited set re-resolves the
	// set locally with all contributions; the parent's resolution keeps
	// only its own.
	graph := buildTestGraph(t, `
component Root {
	module RootModule {
		provides into set String
	}
	entry Set<String>
	subcomponent Sub {
		module SubModule {
			provides into set String
		}
		entry Set<String>
	}
}
`)
	setKey := model.KeyOf(model.SetOf(model.Type("String")))
	sub := subgraph(t, graph, "Sub")

	rootSet := locallyResolved(graph, setKey)
	assert.True(t, rootSet != nil)
	assert.Equal(t, 1, len(rootSet.Nodes))
	assert.Equal(t, model.BindingMultiboundSet, rootSet.Nodes[0].Binding.Kind)
	assert.Equal(t, 1, len(rootSet.Nodes[0].Binding.Deps))

	subSet := locallyResolved(sub, setKey)
	assert.True(t, subSet != nil)
	assert.Equal(t, 1, len(subSet.Nodes))
	assert.Equal(t, 2, len(subSet.Nodes[0].Binding.Deps))
	assert.True(t, subSet.Nodes[0].ComponentPath.Equal(model.ComponentPath{"Root", "Sub"}))

	// The root's contribution is owned by the root and reused by the sub.
	rootContribution := rootSet.Nodes[0].Binding.Deps[0].Key
	inherited := locallyResolved(sub, rootContribution)
	assert.True(t, inherited != nil)
	assert.True(t, inherited.Nodes[0] == locallyResolved(graph, rootContribution).Nodes[0])
}

func TestOptionalWithMissingInner(t *testing.T) {
	// An optional declaration with no binding for the inner key resolves to
	// a single absent optional binding; missing inner bindings are not an
	// error at this layer.
	graph := buildTestGraph(t, `
component Root {
	module RootModule {
		optional Foo
	}
	entry Optional<Foo>
}
`)
	optionalKey := model.KeyOf(model.OptionalOf(model.Type("Foo")))
	resolved := locallyResolved(graph, optionalKey)
	assert.True(t, resolved != nil)
	assert.Equal(t, 1, len(resolved.Nodes))
	assert.Equal(t, model.BindingOptional, resolved.Nodes[0].Binding.Kind)
	assert.Equal(t, 0, len(resolved.Nodes[0].Binding.Deps))
}

func TestOptionalPresentDerivesRequestKind(t *testing.T) {
	graph := buildTestGraph(t, `
component Root {
	module RootModule {
		optional Foo
		provides Foo ()
	}
	entry Optional<Provider<Foo>>
}
`)
	optionalKey := model.KeyOf(model.OptionalOf(model.Type(model.ProviderType, model.Type("Foo"))))
	resolved := locallyResolved(graph, optionalKey)
	assert.True(t, resolved != nil)
	optional := resolved.Nodes[0].Binding
	assert.Equal(t, model.BindingOptional, optional.Kind)
	assert.Equal(t, []model.DependencyRequest{{Key: key("Foo"), Kind: model.RequestProvider}}, optional.Deps)

	// The underlying key is resolved through the optional's dependency.
	assert.True(t, locallyResolved(graph, key("Foo")) != nil)
}

func TestFloatingProvisionBlockedByMissingDependency(t *testing.T) {
	// Root provides Foo(Bar) with no Bar in sight; Sub provides Bar. Foo
	// depends on a binding that was missing at the root, so it must not
	// float down to pick Bar up.
	graph := buildTestGraph(t, `
component Root {
	module RootModule {
		provides Foo (Bar)
	}
	subcomponent Sub {
		module SubModule {
			provides Bar ()
		}
		entry Foo
		entry Bar
	}
}
`)
	sub := subgraph(t, graph, "Sub")

	rootFoo := locallyResolved(graph, key("Foo"))
	assert.True(t, rootFoo != nil)
	assert.True(t, rootFoo.Nodes[0].ComponentPath.Equal(model.RootPath("Root")))

	// The root's Bar resolution is empty.
	rootBar := locallyResolved(graph, key("Bar"))
	assert.True(t, rootBar != nil)
	assert.True(t, rootBar.IsEmpty())

	// Foo is inherited, not re-resolved at Sub.
	subFoo := locallyResolved(sub, key("Foo"))
	assert.True(t, subFoo != nil)
	assert.True(t, subFoo.Nodes[0] == rootFoo.Nodes[0])

	// Sub's own Bar resolves locally.
	subBar := locallyResolved(sub, key("Bar"))
	assert.True(t, subBar != nil)
	assert.False(t, subBar.IsEmpty())
	assert.True(t, subBar.Nodes[0].ComponentPath.Equal(model.ComponentPath{"Root", "Sub"}))

	// Queries from Sub see the root's Foo and Sub's Bar.
	viaFoo, err := sub.ResolvedBindings(model.Request(key("Foo")))
	assert.NoError(t, err)
	assert.True(t, viaFoo == subFoo)
	viaBar, err := sub.ResolvedBindings(model.Request(key("Bar")))
	assert.NoError(t, err)
	assert.True(t, viaBar == subBar)
}

func TestDelegateCycleYieldsUnresolvedDelegates(t *testing.T) {
	graph := buildTestGraph(t, `
component Root {
	module RootModule {
		binds A to B
		binds B to A
	}
	entry A
	entry B
}
`)
	for _, name := range []string{"A", "B"} {
		resolved := locallyResolved(graph, key(name))
		assert.True(t, resolved != nil)
		assert.Equal(t, 1, len(resolved.Nodes))
		assert.Equal(t, model.BindingUnresolvedDelegate, resolved.Nodes[0].Binding.Kind)
	}
}

func TestDelegateChainResolves(t *testing.T) {
	graph := buildTestGraph(t, `
component Root {
	module RootModule {
		binds Iface to Impl
	}
	entry Iface
}
inject Impl ()
`)
	resolved := locallyResolved(graph, key("Iface"))
	assert.True(t, resolved != nil)
	delegate := resolved.Nodes[0].Binding
	assert.Equal(t, model.BindingDelegate, delegate.Kind)
	assert.Equal(t, []model.DependencyRequest{model.Request(key("Impl"))}, delegate.Deps)

	impl := locallyResolved(graph, key("Impl"))
	assert.True(t, impl != nil)
	assert.Equal(t, model.BindingInjection, impl.Nodes[0].Binding.Kind)
}

func TestSubcomponentCreatorDiscovery(t *testing.T) {
	// No entry point names Sub.Builder, but a provision depends on it; the
	// creator binding enqueues Sub exactly once however often the creator
	// key is requested.
	graph := buildTestGraph(t, `
component Root {
	module RootModule {
		provides Widget (Sub.Builder)
		provides Gadget (Sub.Builder)
		declares subcomponent Sub creator Sub.Builder {
			module SubModule {
				provides Bar ()
			}
			entry Bar
		}
	}
	entry Widget
	entry Gadget
}
`)
	assert.Equal(t, 1, len(graph.Subgraphs()))
	sub := subgraph(t, graph, "Sub")
	assert.True(t, sub.ComponentPath().Equal(model.ComponentPath{"Root", "Sub"}))

	creator := locallyResolved(graph, key("Sub.Builder"))
	assert.True(t, creator != nil)
	assert.Equal(t, model.BindingSubcomponentCreator, creator.Nodes[0].Binding.Kind)

	subBar := locallyResolved(sub, key("Bar"))
	assert.True(t, subBar != nil)
}

func TestUndiscoveredSubcomponentGetsNoSubgraph(t *testing.T) {
	graph := buildTestGraph(t, `
component Root {
	module RootModule {
		declares subcomponent Sub creator Sub.Builder {
			entry Foo
		}
	}
	entry Bar
}
inject Bar ()
inject Foo ()
`)
	assert.Equal(t, 0, len(graph.Subgraphs()))
}

func TestFactoryMethodSubcomponentAlwaysResolved(t *testing.T) {
	graph := buildTestGraph(t, `
component Root {
	subcomponent Sub {
		entry Foo
	}
}
inject Foo ()
`)
	assert.Equal(t, 1, len(graph.Subgraphs()))
	sub := subgraph(t, graph, "Sub")
	assert.True(t, locallyResolved(sub, key("Foo")) != nil)
}

func TestMembersInjectionEntryPoint(t *testing.T) {
	graph := buildTestGraph(t, `
component Root {
	entry members Widget
}
inject Widget () members (Dep)
inject Dep ()
`)
	request := model.DependencyRequest{Key: key("Widget"), Kind: model.RequestMembersInjection}
	resolved, err := graph.ResolvedBindings(request)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(resolved.Nodes))
	assert.Equal(t, model.BindingMembersInjection, resolved.Nodes[0].Binding.Kind)

	// Member dependencies are resolved as contribution bindings.
	assert.True(t, locallyResolved(graph, key("Dep")) != nil)
}

func TestMembersInjectionNotInherited(t *testing.T) {
	graph := buildTestGraph(t, `
component Root {
	entry members Widget
	subcomponent Sub {
		entry Dep
	}
}
inject Widget () members (Dep)
inject Dep ()
`)
	sub := subgraph(t, graph, "Sub")
	request := model.DependencyRequest{Key: key("Widget"), Kind: model.RequestMembersInjection}
	_, err := sub.ResolvedBindings(request)
	assert.Error(t, err)
}

func TestMembersInjectorBinding(t *testing.T) {
	graph := buildTestGraph(t, `
component Root {
	module RootModule {
		provides Holder (MembersInjector<Widget>)
	}
	entry Holder
}
inject Widget () members (Dep)
inject Dep ()
`)
	injectorKey := model.KeyOf(model.Type(model.MembersInjectorType, model.Type("Widget")))
	resolved := locallyResolved(graph, injectorKey)
	assert.True(t, resolved != nil)
	assert.Equal(t, model.BindingMembersInjector, resolved.Nodes[0].Binding.Kind)
	assert.True(t, locallyResolved(graph, key("Dep")) != nil)
}

func TestAssistedFactory(t *testing.T) {
	graph := buildTestGraph(t, `
component Root {
	entry WidgetFactory
}
factory WidgetFactory for Widget
inject assisted Widget (Dep)
inject Dep ()
`)
	resolved := locallyResolved(graph, key("WidgetFactory"))
	assert.True(t, resolved != nil)
	factory := resolved.Nodes[0].Binding
	assert.Equal(t, model.BindingAssistedFactory, factory.Kind)
	assert.Equal(t, []model.DependencyRequest{{Key: key("Widget"), Kind: model.RequestProvider}}, factory.Deps)

	widget := locallyResolved(graph, key("Widget"))
	assert.True(t, widget != nil)
	assert.Equal(t, model.BindingAssistedInjection, widget.Nodes[0].Binding.Kind)
}

func TestReusableBindingStaysWhereResolved(t *testing.T) {
	graph := buildTestGraph(t, `
component Root {
	module RootModule {
		provides Conn () scoped Reusable
	}
	entry Conn
	subcomponent Sub {
		entry Conn
	}
}
`)
	sub := subgraph(t, graph, "Sub")
	rootConn := locallyResolved(graph, key("Conn"))
	subConn := locallyResolved(sub, key("Conn"))
	assert.True(t, rootConn != nil)
	assert.True(t, subConn != nil)
	assert.True(t, subConn.Nodes[0] == rootConn.Nodes[0])
}

func TestProductionBindingResolvesAtHighestInstallingComponent(t *testing.T) {
	graph := buildTestGraph(t, `
production component Root {
	module RootModule {
		produces Stream (Foo)
	}
	entry Stream
	subcomponent Sub {
		entry Stream
	}
}
inject Foo ()
`)
	sub := subgraph(t, graph, "Sub")
	rootStream := locallyResolved(graph, key("Stream"))
	subStream := locallyResolved(sub, key("Stream"))
	assert.True(t, rootStream != nil)
	assert.True(t, subStream != nil)
	assert.Equal(t, model.BindingProduction, rootStream.Nodes[0].Binding.Kind)
	assert.True(t, subStream.Nodes[0] == rootStream.Nodes[0])
}

func TestDuplicateExplicitBindingForcesReResolution(t *testing.T) {
	// A local explicit binding duplicating an inherited one re-resolves the
	// key so the validator can see both.
	graph := buildTestGraph(t, `
component Root {
	module RootModule {
		provides Foo ()
	}
	entry Foo
	subcomponent Sub {
		module SubModule {
			provides Foo ()
		}
		entry Foo
	}
}
`)
	sub := subgraph(t, graph, "Sub")
	rootFoo := locallyResolved(graph, key("Foo"))
	subFoo := locallyResolved(sub, key("Foo"))
	assert.Equal(t, 1, len(rootFoo.Nodes))
	assert.Equal(t, 2, len(subFoo.Nodes))
}

func TestFullBindingGraphResolvesModuleDeclarations(t *testing.T) {
	source := `
component Root {
	module RootModule {
		provides Foo (Bar)
		provides into set String
	}
}
inject Bar ()
`
	sparse := buildTestGraphFull(t, source, false)
	assert.Equal(t, 0, len(sparse.AllResolvedBindings()))

	full := buildTestGraphFull(t, source, true)
	assert.True(t, locallyResolved(full, key("Foo")) != nil)
	assert.True(t, locallyResolved(full, key("Bar")) != nil)
	// The contribution's key is resolved as the multibound set itself.
	set := locallyResolved(full, model.KeyOf(model.SetOf(model.Type("String"))))
	assert.True(t, set != nil)
	assert.Equal(t, model.BindingMultiboundSet, set.Nodes[0].Binding.Kind)
}

func TestCreateIsDeterministic(t *testing.T) {
	source := `
component Root scoped Singleton {
	module RootModule {
		provides Foo (Bar, Baz)
		provides into set String
		provides into set String
		binds Iface to Impl
	}
	entry Foo
	entry Set<String>
	entry Iface
	subcomponent Sub {
		module SubModule {
			provides into set String
		}
		entry Set<String>
	}
}
inject Bar ()
inject Baz (Bar)
inject Impl ()
`
	first := buildTestGraph(t, source)
	second := buildTestGraph(t, source)

	var render func(g *Graph) []string
	render = func(g *Graph) []string {
		var out []string
		out = append(out, g.ComponentPath().String())
		for _, resolved := range g.AllResolvedBindings() {
			out = append(out, resolved.Key.ID())
			for _, node := range resolved.Nodes {
				out = append(out, node.Binding.ID()+"@"+node.ComponentPath.String())
			}
		}
		for _, sub := range g.Subgraphs() {
			out = append(out, render(sub)...)
		}
		return out
	}
	assert.Equal(t, render(first), render(second))
}

func TestMissingBindingIsNotAnError(t *testing.T) {
	graph := buildTestGraph(t, `
component Root {
	entry Ghost
}
`)
	resolved := locallyResolved(graph, key("Ghost"))
	assert.True(t, resolved != nil)
	assert.True(t, resolved.IsEmpty())
}

func TestScopedInjectBindingRejectedInIsolatedSubcomponent(t *testing.T) {
	// Building a graph rooted at a subcomponent: a Singleton-scoped inject
	// binding has no matching component in the known ancestry, so the
	// fallback is rejected and the key stays unresolved for the validator.
	graph := buildTestGraph(t, `
subcomponent Sub scoped Child {
	entry Foo
	entry Bar
}
inject Foo () scoped Singleton
inject Bar () scoped Child
`)
	foo := locallyResolved(graph, key("Foo"))
	assert.True(t, foo != nil)
	assert.True(t, foo.IsEmpty())

	bar := locallyResolved(graph, key("Bar"))
	assert.True(t, bar != nil)
	assert.False(t, bar.IsEmpty())
}

func TestMultibindingDeclarationAloneMaterializesEmptyCollection(t *testing.T) {
	graph := buildTestGraph(t, `
component Root {
	module RootModule {
		multibinds Set<String>
	}
	entry Set<String>
}
`)
	set := locallyResolved(graph, model.KeyOf(model.SetOf(model.Type("String"))))
	assert.True(t, set != nil)
	assert.Equal(t, model.BindingMultiboundSet, set.Nodes[0].Binding.Kind)
	assert.Equal(t, 0, len(set.Nodes[0].Binding.Deps))
}

func TestMultibindingOnNonCollectionKeyFails(t *testing.T) {
	parsed, err := descriptorparser.Parse(`
component Root {
	module RootModule {
		multibinds Foo
	}
	entry Foo
}
`)
	assert.NoError(t, err)
	factory, err := NewFactory(parsed.Registry)
	assert.NoError(t, err)
	_, err = factory.Create(parsed.Root, false)
	assert.Error(t, err)
}

package descriptorparser

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/kchobantonov/dagger/internal/model"
)

func TestParseComponent(t *testing.T) {
	parsed, err := Parse(`
// A root component with one module.
component Root scoped Singleton {
	module RootModule {
		provides Foo (Bar, provider Baz) scoped Singleton
		binds Iface to Impl
	}
	entry Foo
	entry provider Foo
}
inject Bar ()
inject Baz ()
`)
	assert.NoError(t, err)
	assert.Equal(t, "Root", parsed.Root.Name)
	assert.Equal(t, []model.Scope{"Singleton"}, parsed.Root.Scopes)
	assert.False(t, parsed.Root.Subcomponent)

	assert.Equal(t, 1, len(parsed.Root.Modules))
	module := parsed.Root.Modules[0]
	assert.Equal(t, "RootModule", module.Name)
	assert.Equal(t, 1, len(module.Bindings))
	assert.Equal(t, 1, len(module.Delegates))

	provides := module.Bindings[0]
	assert.Equal(t, "Foo", provides.Key.ID())
	assert.Equal(t, model.BindingProvision, provides.Kind)
	assert.Equal(t, model.Scope("Singleton"), provides.Scope)
	assert.Equal(t, []model.DependencyRequest{
		{Key: model.KeyOf(model.Type("Bar")), Kind: model.RequestInstance},
		{Key: model.KeyOf(model.Type("Baz")), Kind: model.RequestProvider},
	}, provides.Deps)

	binds := module.Delegates[0]
	assert.Equal(t, "Iface", binds.Key.ID())
	assert.Equal(t, "Impl", binds.Delegate.Key.ID())

	assert.Equal(t, 2, len(parsed.Root.EntryPoints))
	assert.Equal(t, model.RequestInstance, parsed.Root.EntryPoints[0].Kind)
	assert.Equal(t, model.RequestProvider, parsed.Root.EntryPoints[1].Kind)
}

func TestParseContributions(t *testing.T) {
	parsed, err := Parse(`
component Root {
	module M {
		provides into set String
		provides into map Widget key "blue"
		binds into set String to Impl
		multibinds Set<Widget>
		optional Foo
	}
	entry Set<String>
}
`)
	assert.NoError(t, err)
	module := parsed.Root.Modules[0]

	set := module.Bindings[0]
	assert.Equal(t, "Set<String>", set.Key.WithoutMultibindingContributionIdentifier().ID())
	assert.NotZero(t, set.Key.MultibindingContributionIdentifier)

	mapped := module.Bindings[1]
	assert.Equal(t, "Map<String, Widget>", mapped.Key.WithoutMultibindingContributionIdentifier().ID())

	delegate := module.Delegates[0]
	assert.True(t, delegate.IsMultibindingContribution())

	assert.Equal(t, 1, len(module.Multibindings))
	assert.Equal(t, "Set<Widget>", module.Multibindings[0].Key.ID())
	assert.Equal(t, 1, len(module.OptionalBindings))
	assert.Equal(t, "Foo", module.OptionalBindings[0].Key.ID())
}

func TestParseSubcomponents(t *testing.T) {
	parsed, err := Parse(`
component Root {
	module M {
		declares subcomponent Sub creator Sub.Builder {
			module SM {
				provides Bar ()
			}
			entry Bar
		}
	}
	subcomponent Nested {
		entry Nested.Thing
	}
	entry Foo
}
inject Foo ()
inject Nested.Thing ()
`)
	assert.NoError(t, err)
	root := parsed.Root
	assert.Equal(t, 2, len(root.Children))
	assert.Equal(t, 1, len(root.FactoryMethodChildren))
	assert.Equal(t, "Nested", root.FactoryMethodChildren[0].Name)

	assert.Equal(t, 1, len(root.Modules[0].Subcomponents))
	declaration := root.Modules[0].Subcomponents[0]
	assert.Equal(t, "Sub.Builder", declaration.Key.ID())
	assert.Equal(t, "Sub", declaration.Subcomponent)

	sub := root.ChildComponentWithBuilderType(model.Type("Sub.Builder"))
	assert.True(t, sub != nil)
	assert.True(t, sub.Subcomponent)
	assert.Equal(t, 1, len(sub.Modules))
}

func TestParseInjectAndFactories(t *testing.T) {
	parsed, err := Parse(`
component Root {
	entry WidgetFactory
}
inject assisted Widget (Dep)
inject Holder () members (Dep, provider Widget)
factory WidgetFactory for Widget
`)
	assert.NoError(t, err)
	registry := parsed.Registry

	widget := registry.GetOrFindInjectionBinding(model.KeyOf(model.Type("Widget")))
	assert.True(t, widget != nil)
	assert.Equal(t, model.BindingAssistedInjection, widget.Kind)

	members := registry.GetOrFindMembersInjectionBinding(model.KeyOf(model.Type("Holder")))
	assert.True(t, members != nil)
	assert.Equal(t, 2, len(members.Deps))

	target, ok := registry.AssistedFactoryTarget(model.Type("WidgetFactory"))
	assert.True(t, ok)
	assert.Equal(t, "Widget", target.ID())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(`inject Foo ()`)
	assert.Error(t, err)

	_, err = Parse(`
component Root {
	module M {
		declares subcomponent Sub {
		}
	}
}
`)
	assert.Error(t, err)

	_, err = Parse(`component {`)
	assert.Error(t, err)
}

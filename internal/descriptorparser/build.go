package descriptorparser

import (
	"fmt"

	"github.com/alecthomas/errors"
	"github.com/kchobantonov/dagger/internal/binding"
	"github.com/kchobantonov/dagger/internal/model"
)

// Parsed is the result of parsing a descriptor file: the root component,
// every declared component and the inject binding registry.
type Parsed struct {
	Root       *binding.ComponentDescriptor
	Components []*binding.ComponentDescriptor
	Registry   *binding.Registry
}

func build(file *File) (*Parsed, error) {
	parsed := &Parsed{Registry: binding.NewRegistry()}
	for _, decl := range file.Decls {
		switch {
		case decl.Component != nil:
			component, err := buildComponent(decl.Component, parsed)
			if err != nil {
				return nil, err
			}
			if parsed.Root == nil {
				parsed.Root = component
			}
		case decl.Inject != nil:
			buildInject(decl.Inject, parsed.Registry)
		case decl.Factory != nil:
			parsed.Registry.RegisterAssistedFactory(typeName(decl.Factory.Type), typeName(decl.Factory.Target))
		}
	}
	if parsed.Root == nil {
		return nil, errors.Errorf("descriptor declares no component")
	}
	return parsed, nil
}

func buildComponent(decl *ComponentDecl, parsed *Parsed) (*binding.ComponentDescriptor, error) {
	component := &binding.ComponentDescriptor{
		Name:         decl.Name,
		Production:   decl.Production,
		Subcomponent: decl.Subcomponent,
	}
	if decl.Creator != nil {
		component.CreatorType = typeName(decl.Creator)
	}
	for _, scope := range decl.Scopes {
		component.Scopes = append(component.Scopes, model.Scope(scope))
	}

	for _, entry := range decl.Entries {
		switch {
		case entry.Module != nil:
			module, err := buildModule(entry.Module, component, parsed)
			if err != nil {
				return nil, err
			}
			component.Modules = append(component.Modules, module)

		case entry.Entry != nil:
			component.EntryPoints = append(component.EntryPoints, entryRequest(entry.Entry))

		case entry.Child != nil:
			child, err := buildComponent(entry.Child, parsed)
			if err != nil {
				return nil, err
			}
			if !child.Subcomponent {
				return nil, errors.Errorf("child component %s of %s must be a subcomponent", child.Name, component.Name)
			}
			component.FactoryMethodChildren = append(component.FactoryMethodChildren, child)
			component.Children = append(component.Children, child)
		}
	}
	parsed.Components = append(parsed.Components, component)
	return component, nil
}

func buildModule(decl *ModuleDecl, component *binding.ComponentDescriptor, parsed *Parsed) (*binding.ModuleDescriptor, error) {
	module := &binding.ModuleDescriptor{Name: decl.Name}
	for i, entry := range decl.Entries {
		switch {
		case entry.Provides != nil:
			module.Bindings = append(module.Bindings, buildProvides(entry.Provides, module.Name, i))

		case entry.Binds != nil:
			module.Delegates = append(module.Delegates, buildBinds(entry.Binds, module.Name, i))

		case entry.Multibinds != nil:
			module.Multibindings = append(module.Multibindings, &binding.MultibindingDeclaration{
				Key:    model.KeyOf(typeName(entry.Multibinds.Type)),
				Module: module.Name,
			})

		case entry.Optional != nil:
			module.OptionalBindings = append(module.OptionalBindings, &binding.OptionalBindingDeclaration{
				Key:    model.QualifiedKey(entry.Optional.Qualifier, typeName(entry.Optional.Type)),
				Module: module.Name,
			})

		case entry.Subcomponent != nil:
			child, err := buildComponent(entry.Subcomponent, parsed)
			if err != nil {
				return nil, err
			}
			if child.CreatorType.IsZero() {
				return nil, errors.Errorf("subcomponent %s declared by module %s needs a creator type", child.Name, module.Name)
			}
			if !child.Subcomponent {
				return nil, errors.Errorf("component %s declared by module %s must be a subcomponent", child.Name, module.Name)
			}
			module.Subcomponents = append(module.Subcomponents, &binding.SubcomponentDeclaration{
				Key:          model.KeyOf(child.CreatorType),
				Module:       module.Name,
				Subcomponent: child.Name,
			})
			component.Children = append(component.Children, child)
		}
	}
	return module, nil
}

func buildProvides(decl *ProvidesDecl, moduleName string, ordinal int) *binding.Binding {
	kind := model.BindingProvision
	element := fmt.Sprintf("provides%d", ordinal)
	if decl.Produces {
		kind = model.BindingProduction
		element = fmt.Sprintf("produces%d", ordinal)
	}
	key := model.QualifiedKey(decl.Qualifier, typeName(decl.Type))
	key = contributionKey(key, decl.Into, decl.MapKey, moduleName, element)
	return &binding.Binding{
		Key:     key,
		Kind:    kind,
		Scope:   model.Scope(decl.Scope),
		Module:  moduleName,
		Element: element,
		Deps:    dependencyRequests(decl.Deps),
	}
}

func buildBinds(decl *BindsDecl, moduleName string, ordinal int) *binding.DelegateDeclaration {
	element := fmt.Sprintf("binds%d", ordinal)
	key := model.QualifiedKey(decl.Qualifier, typeName(decl.Type))
	key = contributionKey(key, decl.Into, decl.MapKey, moduleName, element)
	return &binding.DelegateDeclaration{
		Key:      key,
		Delegate: dependencyRequest(decl.To),
		Module:   moduleName,
		Element:  element,
		Scope:    model.Scope(decl.Scope),
	}
}

// contributionKey wraps a contributed element type into its collection key:
// Set<T> for set contributions, Map<String, T> for map contributions, each
// tagged with a contribution identifier unique to the declaring element.
func contributionKey(key model.Key, into, mapKey, moduleName, element string) model.Key {
	switch into {
	case "set":
		key.Type = model.SetOf(key.Type)
	case "map":
		key.Type = model.MapOf(model.Type("String"), key.Type)
	default:
		return key
	}
	key.MultibindingContributionIdentifier = moduleName + "." + element
	if mapKey != "" {
		key.MultibindingContributionIdentifier += "[" + mapKey + "]"
	}
	return key
}

func buildInject(decl *InjectDecl, registry *binding.Registry) {
	registry.RegisterInjection(typeName(decl.Type), model.Scope(decl.Scope), decl.Assisted, dependencyRequests(decl.Deps)...)
	if decl.Members != nil {
		registry.RegisterMembersInjection(typeName(decl.Type), dependencyRequests(decl.Members)...)
	}
}

func entryRequest(decl *EntryDecl) model.DependencyRequest {
	request := model.DependencyRequest{
		Key:  model.QualifiedKey(decl.Qualifier, typeName(decl.Type)),
		Kind: requestKind(decl.Kind),
	}
	if decl.Members {
		request.Kind = model.RequestMembersInjection
	}
	return request
}

func dependencyRequests(deps []*Dep) []model.DependencyRequest {
	requests := make([]model.DependencyRequest, len(deps))
	for i, dep := range deps {
		requests[i] = dependencyRequest(dep)
	}
	return requests
}

func dependencyRequest(dep *Dep) model.DependencyRequest {
	return model.DependencyRequest{
		Key:  model.QualifiedKey(dep.Qualifier, typeName(dep.Type)),
		Kind: requestKind(dep.Kind),
	}
}

func requestKind(kind string) model.RequestKind {
	switch kind {
	case "provider":
		return model.RequestProvider
	case "lazy":
		return model.RequestLazy
	case "producer":
		return model.RequestProducer
	case "produced":
		return model.RequestProduced
	case "future":
		return model.RequestFuture
	case "members":
		return model.RequestMembersInjection
	}
	return model.RequestInstance
}

func typeName(ref *TypeRef) model.TypeName {
	args := make([]model.TypeName, len(ref.Args))
	for i, arg := range ref.Args {
		args[i] = typeName(arg)
	}
	return model.TypeName{Name: ref.Name, Args: args}
}

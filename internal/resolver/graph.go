package resolver

import (
	"log/slog"

	"github.com/alecthomas/errors"
	"github.com/kchobantonov/dagger/internal/binding"
	"github.com/kchobantonov/dagger/internal/model"
)

// Factory builds binding graphs from component descriptors.
type Factory struct {
	registry     binding.InjectBindingRegistry
	keys         *binding.KeyFactory
	bindings     *binding.BindingFactory
	declarations *binding.DeclarationsFactory
	options      *binding.CompilerOptions
	logger       *slog.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory) error

// WithLogger directs the factory's debug logging to the given logger. A nil
// logger discards.
func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *Factory) error {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		f.logger = logger
		return nil
	}
}

// WithCompilerOptions overrides the default compiler options.
func WithCompilerOptions(options *binding.CompilerOptions) FactoryOption {
	return func(f *Factory) error {
		if options == nil {
			return errors.Errorf("compiler options must not be nil")
		}
		f.options = options
		return nil
	}
}

// NewFactory creates a graph factory consulting the given inject binding
// registry for implicit bindings.
func NewFactory(registry binding.InjectBindingRegistry, options ...FactoryOption) (*Factory, error) {
	keys := &binding.KeyFactory{}
	f := &Factory{
		registry:     registry,
		keys:         keys,
		bindings:     &binding.BindingFactory{Keys: keys},
		declarations: &binding.DeclarationsFactory{Keys: keys},
		options:      binding.DefaultCompilerOptions(),
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, option := range options {
		if err := option(f); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return f, nil
}

// Create builds the binding graph for a root component. When fullGraph is
// set, the keys of all module-originated declarations are resolved in
// addition to the entry points, so the graph includes bindings no entry
// point reaches.
func (f *Factory) Create(root *binding.ComponentDescriptor, fullGraph bool) (*Graph, error) {
	graph, err := f.createGraph(nil, root, fullGraph)
	return graph, errors.WithStack(err)
}

func (f *Factory) createGraph(parent *Resolver, descriptor *binding.ComponentDescriptor, fullGraph bool) (*Graph, error) {
	resolver := f.newResolver(parent, descriptor)

	for _, entry := range descriptor.EntryPoints {
		if entry.Kind == model.RequestMembersInjection {
			if err := resolver.resolveMembersInjection(entry.Key); err != nil {
				return nil, err
			}
		} else if err := resolver.resolve(entry.Key); err != nil {
			return nil, err
		}
	}

	if fullGraph {
		// Resolve the key of every declaration installed by a module,
		// stripping contribution identifiers so the multibinding itself is
		// resolved rather than individual contributions.
		for _, declaration := range resolver.declarations.AllDeclarations() {
			if declaration.Module == "" {
				continue
			}
			if err := resolver.resolve(declaration.Key.WithoutMultibindingContributionIdentifier()); err != nil {
				return nil, err
			}
		}
	}

	// Drain the subcomponent queue. Resolving one subcomponent can enqueue
	// further subcomponents on this resolver, so the loop re-reads the queue
	// until it is empty. Subcomponents whose creator key is never resolved
	// get no subgraph.
	resolved := map[*binding.ComponentDescriptor]bool{}
	var subgraphs []*Graph
	for len(resolver.subcomponentsToResolve) > 0 {
		subcomponent := resolver.subcomponentsToResolve[0]
		resolver.subcomponentsToResolve = resolver.subcomponentsToResolve[1:]
		if resolved[subcomponent] {
			continue
		}
		resolved[subcomponent] = true
		subgraph, err := f.createGraph(resolver, subcomponent, fullGraph)
		if err != nil {
			return nil, err
		}
		subgraphs = append(subgraphs, subgraph)
	}

	return &Graph{resolver: resolver, subgraphs: subgraphs}, nil
}

// Graph is a fully resolved binding graph for one component, with subgraphs
// for every subcomponent whose creator key was resolved.
type Graph struct {
	resolver  *Resolver
	subgraphs []*Graph
}

// ComponentPath returns the path from the root component to this graph's
// component.
func (g *Graph) ComponentPath() model.ComponentPath { return g.resolver.componentPath }

// ComponentDescriptor returns the descriptor this graph was resolved for.
func (g *Graph) ComponentDescriptor() *binding.ComponentDescriptor { return g.resolver.descriptor }

// ResolvedBindings returns the resolved bindings for a request, consulting
// ancestor graphs for contribution requests not resolved locally.
// Members-injection resolutions are never inherited.
func (g *Graph) ResolvedBindings(request model.DependencyRequest) (*binding.ResolvedBindings, error) {
	if request.Kind == model.RequestMembersInjection {
		resolved := g.resolver.resolvedMembersInjectionBindings.get(request.Key)
		if resolved == nil {
			return nil, errors.Errorf("no resolved members-injection bindings for key %s", request.Key)
		}
		return resolved, nil
	}
	return g.resolver.getResolvedContributionBindings(request.Key)
}

// AllResolvedBindings returns every resolution stored in this component, in
// insertion order, members-injection resolutions first. Resolutions stored
// in ancestors are not included.
func (g *Graph) AllResolvedBindings() []*binding.ResolvedBindings {
	members := g.resolver.resolvedMembersInjectionBindings.values()
	contributions := g.resolver.resolvedContributionBindings.values()
	all := make([]*binding.ResolvedBindings, 0, len(members)+len(contributions))
	all = append(all, members...)
	return append(all, contributions...)
}

// Subgraphs returns the resolved subcomponent graphs in the order their
// descriptors were drained from the queue.
func (g *Graph) Subgraphs() []*Graph { return g.subgraphs }

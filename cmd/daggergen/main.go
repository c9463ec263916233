package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	"github.com/alecthomas/repr"
	"github.com/lmittmann/tint"

	"github.com/kchobantonov/dagger/internal/binding"
	"github.com/kchobantonov/dagger/internal/descriptorparser"
	"github.com/kchobantonov/dagger/internal/resolver"
)

var cli struct {
	Version kong.VersionFlag `help:"Print the version and exit."`
	Debug   bool             `help:"Enable debug logging."`
	Full    bool             `help:"Resolve all module declarations, not just entry points."`
	Strict  bool             `help:"Report explicit bindings conflicting with inject bindings as errors."`
	Dump    bool             `help:"Dump the raw resolution tables instead of the summary."`
	File    string           `help:"Component descriptor file." arg:"" type:"existingfile"`
}

func main() {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		version = info.Main.Version
	}
	kctx := kong.Parse(&cli,
		kong.Vars{"version": version},
		kong.Configuration(kongtoml.Loader, "daggergen.toml"),
	)

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))

	data, err := os.ReadFile(cli.File)
	kctx.FatalIfErrorf(err)

	parsed, err := descriptorparser.Parse(string(data))
	kctx.FatalIfErrorf(err)

	options := binding.DefaultCompilerOptions()
	if cli.Strict {
		options.ExplicitBindingConflictsWithInject = binding.DiagnosticError
	}
	factory, err := resolver.NewFactory(parsed.Registry,
		resolver.WithLogger(logger),
		resolver.WithCompilerOptions(options),
	)
	kctx.FatalIfErrorf(err)

	graph, err := factory.Create(parsed.Root, cli.Full)
	kctx.FatalIfErrorf(err)

	if cli.Dump {
		fmt.Println(repr.String(graph.AllResolvedBindings(), repr.Indent("  ")))
		kctx.Exit(0)
	}
	printGraph(graph, 0)
}

func printGraph(graph *resolver.Graph, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%scomponent %s\n", indent, graph.ComponentPath())
	for _, resolved := range graph.AllResolvedBindings() {
		if resolved.IsEmpty() {
			fmt.Printf("%s  %s => MISSING\n", indent, resolved.Key)
			continue
		}
		for _, node := range resolved.Nodes {
			fmt.Printf("%s  %s => %s @ %s\n", indent, resolved.Key, node.Binding, node.ComponentPath)
		}
	}
	for _, subgraph := range graph.Subgraphs() {
		printGraph(subgraph, depth+1)
	}
}

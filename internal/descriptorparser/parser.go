// Package descriptorparser parses the textual component descriptor format
// consumed by the daggergen CLI and the resolver test suite. The resolver
// core never sees this format; it receives the descriptors the parser
// builds.
package descriptorparser

import (
	"strings"

	"github.com/alecthomas/errors"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	descriptorParser = participle.MustBuild[File](
		participle.Lexer(descriptorLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.Unquote("String"),
		participle.UseLookahead(4),
	)
	descriptorLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `//[^\n]*`},
		{Name: "String", Pattern: `"(\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)*`},
		{Name: "Punct", Pattern: `[{}<>(),@]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})
)

// File is the root of a parsed descriptor file.
type File struct {
	Decls []*Decl `parser:"@@*"`
}

type Decl struct {
	Component *ComponentDecl `parser:"  @@"`
	Inject    *InjectDecl    `parser:"| @@"`
	Factory   *FactoryDecl   `parser:"| @@"`
}

// ComponentDecl declares a component or subcomponent, its scopes, creator
// type, modules, entry points and nested children.
type ComponentDecl struct {
	Production   bool              `parser:"@'production'?"`
	Subcomponent bool              `parser:"('component' | @'subcomponent')"`
	Name         string            `parser:"@Ident"`
	Creator      *TypeRef          `parser:"('creator' @@)?"`
	Scopes       []string          `parser:"('scoped' @Ident (',' @Ident)*)?"`
	Entries      []*ComponentEntry `parser:"'{' @@* '}'"`
}

type ComponentEntry struct {
	Module *ModuleDecl    `parser:"  @@"`
	Entry  *EntryDecl     `parser:"| @@"`
	Child  *ComponentDecl `parser:"| @@"`
}

// EntryDecl declares an entry point request on the component.
type EntryDecl struct {
	Members   bool     `parser:"'entry' @'members'?"`
	Kind      string   `parser:"@('provider' | 'lazy' | 'producer' | 'produced' | 'future')?"`
	Qualifier string   `parser:"('@' @Ident)?"`
	Type      *TypeRef `parser:"@@"`
}

type ModuleDecl struct {
	Name    string         `parser:"'module' @Ident"`
	Entries []*ModuleEntry `parser:"'{' @@* '}'"`
}

type ModuleEntry struct {
	Provides     *ProvidesDecl   `parser:"  @@"`
	Binds        *BindsDecl      `parser:"| @@"`
	Multibinds   *MultibindsDecl `parser:"| @@"`
	Optional     *OptionalDecl   `parser:"| @@"`
	Subcomponent *ComponentDecl  `parser:"| 'declares' @@"`
}

// ProvidesDecl declares a provision or production binding, optionally a
// set or map contribution.
type ProvidesDecl struct {
	Produces  bool     `parser:"('provides' | @'produces')"`
	Into      string   `parser:"('into' @('set' | 'map'))?"`
	Qualifier string   `parser:"('@' @Ident)?"`
	Type      *TypeRef `parser:"@@"`
	Deps      []*Dep   `parser:"('(' (@@ (',' @@)*)? ')')?"`
	MapKey    string   `parser:"('key' @String)?"`
	Scope     string   `parser:"('scoped' @Ident)?"`
}

// BindsDecl declares a delegate: the left-hand key is satisfied by whatever
// satisfies the right-hand request.
type BindsDecl struct {
	Into      string   `parser:"'binds' ('into' @('set' | 'map'))?"`
	Qualifier string   `parser:"('@' @Ident)?"`
	Type      *TypeRef `parser:"@@"`
	To        *Dep     `parser:"'to' @@"`
	MapKey    string   `parser:"('key' @String)?"`
	Scope     string   `parser:"('scoped' @Ident)?"`
}

// MultibindsDecl declares that a set or map key is multibound even with no
// contributions.
type MultibindsDecl struct {
	Type *TypeRef `parser:"'multibinds' @@"`
}

// OptionalDecl declares that Optional of the key must resolve, present or
// absent.
type OptionalDecl struct {
	Qualifier string   `parser:"'optional' ('@' @Ident)?"`
	Type      *TypeRef `parser:"@@"`
}

// InjectDecl registers a constructor-injected type, optionally assisted,
// with constructor and member dependencies.
type InjectDecl struct {
	Assisted bool     `parser:"'inject' @'assisted'?"`
	Type     *TypeRef `parser:"@@"`
	Deps     []*Dep   `parser:"('(' (@@ (',' @@)*)? ')')?"`
	Members  []*Dep   `parser:"('members' '(' (@@ (',' @@)*)? ')')?"`
	Scope    string   `parser:"('scoped' @Ident)?"`
}

// FactoryDecl registers an assisted factory type and its target.
type FactoryDecl struct {
	Type   *TypeRef `parser:"'factory' @@"`
	Target *TypeRef `parser:"'for' @@"`
}

// TypeRef is a possibly parameterized type reference.
type TypeRef struct {
	Name string     `parser:"@Ident"`
	Args []*TypeRef `parser:"('<' @@ (',' @@)* '>')?"`
}

func (t *TypeRef) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

// Dep is a dependency request: an optional request kind, an optional
// qualifier and a type.
type Dep struct {
	Kind      string   `parser:"@('provider' | 'lazy' | 'producer' | 'produced' | 'future' | 'members')?"`
	Qualifier string   `parser:"('@' @Ident)?"`
	Type      *TypeRef `parser:"@@"`
}

// Parse parses descriptor text and builds the component descriptors and
// inject registry it declares.
func Parse(input string) (*Parsed, error) {
	file, err := descriptorParser.ParseString("", input)
	if err != nil {
		return nil, errors.Errorf("failed to parse descriptor: %w", err)
	}
	return build(file)
}

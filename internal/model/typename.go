// Package model defines the value types shared by the binding graph
// resolver: type names, keys, scopes, request and binding kinds, dependency
// requests and component paths.
package model

import (
	"strings"
)

// Well-known framework type names recognised by the resolver.
const (
	ProviderType        = "Provider"
	LazyType            = "Lazy"
	ProducerType        = "Producer"
	ProducedType        = "Produced"
	FutureType          = "ListenableFuture"
	OptionalType        = "Optional"
	SetType             = "Set"
	MapType             = "Map"
	MembersInjectorType = "MembersInjector"
)

// TypeName is a structural name for a type in the dependency graph: a
// possibly dotted name plus optional type arguments. The resolver never sees
// real type systems; collaborators hand it pre-parsed names.
type TypeName struct {
	Name string
	Args []TypeName
}

// Type constructs a TypeName from a name and optional type arguments.
func Type(name string, args ...TypeName) TypeName {
	return TypeName{Name: name, Args: args}
}

// SetOf returns the type Set<elem>.
func SetOf(elem TypeName) TypeName { return Type(SetType, elem) }

// MapOf returns the type Map<key, value>.
func MapOf(key, value TypeName) TypeName { return Type(MapType, key, value) }

// OptionalOf returns the type Optional<value>.
func OptionalOf(value TypeName) TypeName { return Type(OptionalType, value) }

func (t TypeName) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

// IsZero reports whether the type name is the zero value.
func (t TypeName) IsZero() bool { return t.Name == "" }

func (t TypeName) Equal(o TypeName) bool {
	if t.Name != o.Name || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// IsSet reports whether the type is a multibound set type.
func (t TypeName) IsSet() bool { return t.Name == SetType && len(t.Args) == 1 }

// IsMap reports whether the type is a multibound map type.
func (t TypeName) IsMap() bool { return t.Name == MapType && len(t.Args) == 2 }

// IsOptional reports whether the type is an Optional wrapper.
func (t TypeName) IsOptional() bool { return t.Name == OptionalType && len(t.Args) == 1 }

// IsMembersInjector reports whether the type is a MembersInjector wrapper.
func (t TypeName) IsMembersInjector() bool {
	return t.Name == MembersInjectorType && len(t.Args) == 1
}

// IsFrameworkWrapper reports whether the type is one of the request wrapper
// types that carry an underlying instance type.
func (t TypeName) IsFrameworkWrapper() bool {
	if len(t.Args) != 1 {
		return false
	}
	switch t.Name {
	case ProviderType, LazyType, ProducerType, ProducedType, FutureType:
		return true
	}
	return false
}

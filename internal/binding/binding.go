// Package binding defines bindings, binding declarations, component
// descriptors and the collaborators the resolver consumes: the declaration
// index, the binding and key factories, the inject binding registry and the
// compiler options.
package binding

import (
	"fmt"
	"strings"

	"github.com/kchobantonov/dagger/internal/model"
)

// Binding is a rule for satisfying a key. Contribution bindings and
// members-injection bindings share this representation, distinguished by
// Kind. Bindings are value-semantic: identity is the ID over the
// identity-forming subset of fields, enough to distinguish the same
// declaration installed via different modules.
type Binding struct {
	Key   model.Key
	Kind  model.BindingKind
	Scope model.Scope
	// Module is the contributing module, or empty for bindings that do not
	// originate in a module (injection, synthetic bindings).
	Module string
	// Element names the declaring element within the module.
	Element string
	Deps    []model.DependencyRequest
}

// ID returns the identity of the binding.
func (b *Binding) ID() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", b.Kind, b.Key.ID(), b.Scope, b.Module, b.Element)
}

// HasContributingModule reports whether the binding originates in a module.
func (b *Binding) HasContributingModule() bool { return b.Module != "" }

func (b *Binding) String() string {
	var w strings.Builder
	w.WriteString(b.Kind.String())
	w.WriteString(" ")
	w.WriteString(b.Key.String())
	if b.Scope != model.NoScope {
		w.WriteString(" scoped ")
		w.WriteString(string(b.Scope))
	}
	if b.Module != "" {
		fmt.Fprintf(&w, " from %s.%s", b.Module, b.Element)
	}
	return w.String()
}

// Contains reports whether any binding in bindings has the same identity.
func Contains(bindings []*Binding, binding *Binding) bool {
	id := binding.ID()
	for _, b := range bindings {
		if b.ID() == id {
			return true
		}
	}
	return false
}

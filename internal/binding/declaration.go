package binding

import (
	"github.com/kchobantonov/dagger/internal/model"
)

// DelegateDeclaration records a declaration that binds a key to whatever
// satisfies another key. Multibinding contributions carry a contribution
// identifier on their key.
type DelegateDeclaration struct {
	Key model.Key
	// Delegate is the right-hand side: the request the bound key forwards to.
	Delegate model.DependencyRequest
	Module   string
	Element  string
	Scope    model.Scope
}

// IsMultibindingContribution reports whether the declaration contributes to
// a multibound set or map.
func (d *DelegateDeclaration) IsMultibindingContribution() bool {
	return d.Key.MultibindingContributionIdentifier != ""
}

// MultibindingDeclaration declares that a set or map key is multibound even
// when no contributions exist, so that an empty collection is materialized.
type MultibindingDeclaration struct {
	Key    model.Key
	Module string
}

// OptionalBindingDeclaration declares that Optional<Key> must resolve, to a
// present or absent value depending on whether Key itself resolves. The key
// stored here is the unwrapped key.
type OptionalBindingDeclaration struct {
	Key    model.Key
	Module string
}

// SubcomponentDeclaration records a module installing a subcomponent; the
// key is the subcomponent's creator type.
type SubcomponentDeclaration struct {
	Key    model.Key
	Module string
	// Subcomponent is the name of the installed child component.
	Subcomponent string
}

// Declaration is the flattened view of any declaration, used when resolving
// every module-originated key in full binding graph mode.
type Declaration struct {
	Key    model.Key
	Module string
}

package binding

// DiagnosticKind is the severity a validation pass will report a condition
// at. The resolver never reports diagnostics itself, but some resolution
// decisions depend on the configured severity.
type DiagnosticKind int

const (
	DiagnosticNone DiagnosticKind = iota
	DiagnosticNote
	DiagnosticWarning
	DiagnosticError
)

// CompilerOptions carries the configuration switches the resolver honours.
type CompilerOptions struct {
	// ExplicitBindingConflictsWithInject is the severity at which a later
	// validation pass reports an explicit binding overriding a constructor
	// injection binding. Unless it is DiagnosticError, injection bindings
	// are excluded from the duplicate-binding re-resolution test so they are
	// silently overridden rather than half-reported.
	ExplicitBindingConflictsWithInject DiagnosticKind
	// StrictMultibindings unwraps framework-wrapped map value types when
	// matching delegate declarations against delegate bindings.
	StrictMultibindings bool
}

// DefaultCompilerOptions mirrors the default behavior of the enclosing
// compiler: explicit-vs-inject conflicts are warnings and strict
// multibindings are enabled.
func DefaultCompilerOptions() *CompilerOptions {
	return &CompilerOptions{
		ExplicitBindingConflictsWithInject: DiagnosticWarning,
		StrictMultibindings:                true,
	}
}

// UseStrictMultibindings reports whether strict multibinding key matching
// applies to the given binding.
func (o *CompilerOptions) UseStrictMultibindings(binding *Binding) bool {
	return o.StrictMultibindings && binding.Key.MultibindingContributionIdentifier != ""
}

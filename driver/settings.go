// Package driver is the module loader and compilation pipeline the CLI
// drives: file discovery, dependency resolution, auto-include of the
// two built-in modules, the kind-check/translate/check pipeline, and
// the interface-compatibility post-check, all described in spec.md §6.
package driver

// Settings configures one compilation invocation. It is constructed by
// the CLI and passed explicitly into CompileModule rather than held as
// a package variable, so one process can run independent compiles
// without any of them observing another's flags (§5, §9 "global state
// in source").
type Settings struct {
	// IncludeDirs are searched left-to-right for a dependency's .mzi;
	// the first hit wins (§6).
	IncludeDirs []string
	// NoAutoInclude disables the two built-in modules.
	NoAutoInclude bool
	// DebugLevel is the CLI's raw --debug integer, handed to
	// internal/log.SetLevel as a slog.Level.
	DebugLevel int
	// Explain renders a derivation tree under each permission error
	// that carries one.
	Explain bool
}

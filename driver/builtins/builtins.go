// Package builtins embeds the two modules the driver auto-includes in
// every compilation unless disabled (spec.md §6): pervasives and core.
// Their text lives here as literal .mzi/.mz source rather than as Go
// data structures, so they are parsed by the exact same lexer/parser
// path as any other module and can never drift from what a user-written
// module of the same shape would look like.
package builtins

import (
	"embed"
	"io/fs"
)

//go:embed pervasives.mz pervasives.mzi core.mz core.mzi
var files embed.FS

// Names lists the built-in modules auto-included per §6, in the order
// they are merged into a compiled module.
var Names = []string{"pervasives", "core"}

// Interface returns the embedded .mzi source for a built-in module
// name, or false if name is not one of Names.
func Interface(name string) (string, bool) {
	return readBuiltin(name, ".mzi")
}

// Implementation returns the embedded .mz source for a built-in
// module name, or false if name is not one of Names.
func Implementation(name string) (string, bool) {
	return readBuiltin(name, ".mz")
}

func readBuiltin(name, suffix string) (string, bool) {
	found := false
	for _, n := range Names {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return "", false
	}
	data, err := fs.ReadFile(files, name+suffix)
	if err != nil {
		return "", false
	}
	return string(data), true
}

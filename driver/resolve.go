package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mezzolang/mezzo/driver/builtins"
	"github.com/mezzolang/mezzo/frontend"
	"github.com/mezzolang/mezzo/frontend/ast"
)

// findInterface locates name's .mzi, searching dirs left-to-right and
// falling back to the embedded built-ins, per §6 "look up <name>.mzi
// in each include directory; first hit wins". Absence is fatal at the
// call site, not here.
func findInterface(name string, dirs []string) (src string, from string, err error) {
	for _, dir := range dirs {
		p := filepath.Join(dir, name+".mzi")
		data, rerr := os.ReadFile(p)
		if rerr == nil {
			return string(data), p, nil
		}
	}
	if src, ok := builtins.Interface(name); ok {
		return src, "<builtin:" + name + ">", nil
	}
	return "", "", fmt.Errorf("no %s.mzi in any include directory", name)
}

// dependencyNames is the `open`/qualified-reference scan of §6: every
// module file.Opens names, plus the two built-ins auto-included
// unless disabled, deduplicated and excluding the module's own name
// (a built-in never auto-imports itself).
func dependencyNames(file *ast.File, selfName string, noAutoInclude bool) []string {
	seen := map[string]bool{selfName: true}
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if !noAutoInclude {
		for _, b := range builtins.Names {
			add(b)
		}
	}
	for _, o := range file.Opens {
		add(o.ModuleName)
	}
	return names
}

// renumberGroups offsets every DataDecl's Group id in decls so a
// dependency module's `data ... and ...` groups can never collide
// with another module's after being merged into one declaration list
// (§2's translator expects Group ids to be unique per mutually
// recursive cluster, not per file).
func renumberGroups(decls []ast.Declaration, offset int) []ast.Declaration {
	out := make([]ast.Declaration, len(decls))
	for i, decl := range decls {
		if d, ok := decl.(*ast.DataDecl); ok {
			renumbered := *d
			renumbered.Group += offset
			out[i] = &renumbered
			continue
		}
		out[i] = decl
	}
	return out
}

// exportedEnv collects a module's publicly visible value signatures —
// top-level vals and interface-block signatures — for use as an
// opaque-value ImportEnv the way frontend.KindCheck expects (§2's
// "import environment").
func exportedEnv(file *ast.File) frontend.ImportEnv {
	env := frontend.ImportEnv{}
	for _, decl := range file.Declarations {
		switch d := decl.(type) {
		case *ast.ValDecl:
			if d.TypeAnn != nil {
				env[d.Name] = d.TypeAnn
			}
		case *ast.InterfaceDecl:
			for _, sig := range d.Signatures {
				if sig.TypeAnn != nil {
					env[sig.Name] = sig.TypeAnn
				}
			}
		}
	}
	return env
}

// signaturesOf flattens a module's val/interface declarations into one
// list of name+declared-type pairs, used by checkAgainstInterface.
func signaturesOf(file *ast.File) []ast.ValDecl {
	var out []ast.ValDecl
	for _, decl := range file.Declarations {
		switch d := decl.(type) {
		case *ast.ValDecl:
			out = append(out, *d)
		case *ast.InterfaceDecl:
			out = append(out, d.Signatures...)
		}
	}
	return out
}

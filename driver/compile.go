package driver

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mezzolang/mezzo/checker"
	"github.com/mezzolang/mezzo/checker/ilerr"
	"github.com/mezzolang/mezzo/frontend"
	"github.com/mezzolang/mezzo/frontend/ast"
	"github.com/mezzolang/mezzo/parser"
)

// groupOffset spaces each merged module's DataDecl.Group ids far
// enough apart that no two modules' groups can ever collide; it is
// generous rather than tight since Group ids are only ever compared
// for equality within one merged file.
const groupOffset = 1_000_000

// InterfaceCache memoizes a parsed dependency interface by module
// name for the lifetime of one invocation (§6: "an optional cache of
// parsed interfaces lives in memory for the lifetime of one
// invocation, keyed by module name"). The caller constructs one fresh
// per CompileModule call; it is never a package variable.
type InterfaceCache struct {
	files map[string]*ast.File
}

// NewInterfaceCache returns an empty cache.
func NewInterfaceCache() *InterfaceCache {
	return &InterfaceCache{files: map[string]*ast.File{}}
}

func (c *InterfaceCache) get(fset *token.FileSet, name string, dirs []string) (*ast.File, error) {
	if f, ok := c.files[name]; ok {
		return f, nil
	}
	src, from, err := findInterface(name, dirs)
	if err != nil {
		return nil, err
	}
	file, perrs := parser.Parse(fset, from, src)
	if perrs.HasError() {
		return nil, fmt.Errorf("parsing %s: %s", from, perrs.Errors()[0].Error())
	}
	c.files[name] = file
	return file, nil
}

// CompileModule runs the full pipeline over the file at path: parse,
// resolve and merge its dependencies (including the two built-ins
// unless disabled), kind-check, translate and check every top-level
// val, then verify the result against an accompanying .mzi if one is
// found next to path. It is the single top-level catch of §9's design
// note: a fatal failure that aborts the whole compilation (a missing
// file, an unresolved module) comes back as err, wrapped with a stack
// by pkg/errors; recoverable, per-declaration diagnostics come back
// accumulated in errs with env still holding whatever did check.
func CompileModule(fset *token.FileSet, path string, settings Settings, cache *InterfaceCache) (env *checker.Env, errs *ilerr.Errors, err error) {
	data, rerr := os.ReadFile(path)
	if rerr != nil {
		return nil, nil, errors.Wrapf(rerr, "reading %s", path)
	}

	moduleName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	file, perrs := parser.Parse(fset, path, string(data))
	if perrs.HasError() {
		return nil, perrs, nil
	}

	dirs := append([]string{filepath.Dir(path)}, settings.IncludeDirs...)

	opens := dependencyNames(file, moduleName, settings.NoAutoInclude)

	merged := &ast.File{Range: file.Range, ModuleName: file.ModuleName}
	imports := map[string]frontend.ImportEnv{}

	for i, name := range opens {
		depFile, derr := cache.get(fset, name, dirs)
		if derr != nil {
			return nil, (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewUnresolvedImport{Positioner: file, ModuleName: name})), nil
		}
		merged.Declarations = append(merged.Declarations, renumberGroups(depFile.Declarations, (i+1)*groupOffset)...)
		imports[name] = exportedEnv(depFile)
	}
	merged.Declarations = append(merged.Declarations, file.Declarations...)

	merged, kerrs := frontend.KindCheck(merged, imports)
	errs = errs.Merge(kerrs)
	if errs.HasError() {
		return nil, errs, nil
	}

	env, terrs := frontend.Translate(checker.NewCheckingEnv(), merged)
	errs = errs.Merge(terrs)
	if errs.HasError() {
		return env, errs, nil
	}

	errs = errs.Merge(checkAgainstInterface(fset, env, moduleName, dirs))
	errs = errs.Merge(checkDependenciesPreserved(env, imports))
	return env, errs, nil
}

// checkAgainstInterface implements §6's post-check: if moduleName has
// an accompanying .mzi, every name it declares must already be bound
// in env with a permission that sub_types the declared type. A module
// with no .mzi (an executable entry point, in practice) has nothing
// to check here.
func checkAgainstInterface(fset *token.FileSet, env *checker.Env, moduleName string, dirs []string) *ilerr.Errors {
	src, from, err := findInterface(moduleName, dirs)
	if err != nil {
		return nil
	}
	ifaceFile, perrs := parser.Parse(fset, from, src)
	if perrs.HasError() {
		return perrs
	}

	var errs *ilerr.Errors
	for _, sig := range signaturesOf(ifaceFile) {
		if sig.TypeAnn == nil {
			continue
		}
		id, bound := env.LookupName(sig.Name)
		if !bound {
			errs = errs.With(ilerr.New(ilerr.NewInterfaceMismatch{
				Positioner: sig.TypeAnn,
				Name:       sig.Name,
				Reason:     "declared in the interface but not defined in the implementation",
			}))
			continue
		}
		declared, derrs := checker.ResolveType(env, sig.TypeAnn)
		errs = errs.Merge(derrs)
		if derrs.HasError() {
			continue
		}
		satisfied := false
		for _, perm := range env.Permissions(id) {
			if _, ok := checker.SubType(env, perm, declared); ok {
				satisfied = true
				break
			}
		}
		if !satisfied {
			errs = errs.With(ilerr.New(ilerr.NewInterfaceMismatch{
				Positioner: sig.TypeAnn,
				Name:       sig.Name,
				Reason:     "the implementation does not provide the declared type",
			}))
		}
	}
	return errs
}

// checkDependenciesPreserved implements §6's separate post-check: after
// the module has been fully translated and checked, re-import every
// dependency it opened and re-verify that the exported type env still
// binds a permission that sub_types what the dependency originally
// declared. checkAgainstInterface only matches the module's own .mzi;
// nothing else re-confirms a dependency's exports weren't perturbed by
// merging, renumbering groups, and running the module's own body through
// them. A dependency name frontend.Translate never bound in env at all
// (an opaque interface-only import with no value to materialize, see
// frontend/translate.go) is skipped rather than flagged — there is
// nothing in env to re-check it against.
func checkDependenciesPreserved(env *checker.Env, imports map[string]frontend.ImportEnv) *ilerr.Errors {
	var errs *ilerr.Errors
	for depName, sigs := range imports {
		for name, declAst := range sigs {
			id, bound := env.LookupName(name)
			if !bound {
				continue
			}
			declared, derrs := checker.ResolveType(env, declAst)
			errs = errs.Merge(derrs)
			if derrs.HasError() {
				continue
			}
			satisfied := false
			for _, perm := range env.Permissions(id) {
				if _, ok := checker.SubType(env, perm, declared); ok {
					satisfied = true
					break
				}
			}
			if !satisfied {
				errs = errs.With(ilerr.New(ilerr.NewInterfaceMismatch{
					Positioner: declAst,
					Name:       name,
					Reason:     fmt.Sprintf("lost the permission imported from %q", depName),
				}))
			}
		}
	}
	return errs
}

// ExitCodeFor maps a CompileModule outcome to the process exit status
// of §6. A fatal err (I/O, unresolvable module) is file-not-found;
// accumulated diagnostics are classified by the worst error code they
// contain.
func ExitCodeFor(err error, errs *ilerr.Errors) ExitCode {
	if err != nil {
		return ExitFileNotFound
	}
	if !errs.HasError() {
		return ExitOK
	}
	worst := ExitOK
	for _, e := range errs.Errors() {
		code := exitCodeForErrCode(e.Code())
		if code > worst {
			worst = code
		}
	}
	if worst == ExitOK {
		worst = ExitTypeError
	}
	return worst
}

func exitCodeForErrCode(code ilerr.ErrCode) ExitCode {
	switch code {
	case ilerr.Parse:
		return ExitParseError
	case ilerr.UndefinedVariable, ilerr.UndefinedDatacon, ilerr.UndefinedField, ilerr.ArityMismatch, ilerr.KindMismatch:
		return ExitKindError
	case ilerr.UnresolvedImport:
		return ExitFileNotFound
	default:
		return ExitTypeError
	}
}

// Package frontend resolves a parsed ast.File's names and kinds, then
// translates its declarations into the checker's core representation,
// binding the resulting module in a checker.Env ready for Check.
package frontend

import (
	"github.com/mezzolang/mezzo/checker"
	"github.com/mezzolang/mezzo/checker/ilerr"
	"github.com/mezzolang/mezzo/core"
	"github.com/mezzolang/mezzo/frontend/ast"
	"github.com/mezzolang/mezzo/internal/log"
)

var translateLogger = log.DefaultLogger.With("section", "frontend")

// ImportEnv is what a dependency module exposes to a module that opens
// it: every exported name's surface type annotation, keyed by name.
type ImportEnv map[string]ast.Type

// KindCheck resolves every name mentioned in a file's type annotations
// against its own data declarations plus the given import environment,
// and checks arities: a data-constructor application or abstract-type
// reference must supply exactly as many arguments as its declaration's
// arity. It does not mutate file; the returned file is the same value,
// returned for symmetry with a pipeline that might one day desugar here.
func KindCheck(file *ast.File, imports map[string]ImportEnv) (*ast.File, *ilerr.Errors) {
	dataDecls := flattenDataDecls(file)

	arity := map[string]int{}
	for _, d := range dataDecls {
		arity[d.Name] = len(d.Params)
	}
	for _, decl := range file.Declarations {
		if d, ok := decl.(*ast.AbstractTypeDecl); ok {
			arity[d.Name] = d.Arity
		}
	}
	for _, env := range imports {
		for name := range env {
			if _, ok := arity[name]; !ok {
				arity[name] = -1 // unknown arity: imported as an opaque value, not a type
			}
		}
	}

	var errs *ilerr.Errors
	for _, d := range dataDecls {
		scope := append([]string{}, d.Params...)
		for _, b := range d.Branches {
			for _, f := range b.Fields {
				errs = errs.Merge(checkKindsOf(f.Type, scope, arity))
			}
		}
		if d.AdoptsClause != nil {
			errs = errs.Merge(checkKindsOf(d.AdoptsClause, scope, arity))
		}
	}
	for _, decl := range file.Declarations {
		if d, ok := decl.(*ast.ValDecl); ok && d.TypeAnn != nil {
			errs = errs.Merge(checkKindsOf(d.TypeAnn, nil, arity))
		}
	}
	return file, errs
}

// flattenDataDecls collects every data declaration in a file, in
// source order; a `data ... and ...` group's members appear as
// separate *ast.DataDecl values sharing a Group id, already flat.
func flattenDataDecls(file *ast.File) []*ast.DataDecl {
	var out []*ast.DataDecl
	for _, decl := range file.Declarations {
		if d, ok := decl.(*ast.DataDecl); ok {
			out = append(out, d)
		}
	}
	return out
}

func checkKindsOf(t ast.Type, scope []string, arity map[string]int) *ilerr.Errors {
	switch t := t.(type) {
	case *ast.TypeVarRef:
		for _, s := range scope {
			if s == t.Name {
				return nil
			}
		}
		if n, ok := arity[t.Name]; ok && n <= 0 {
			return nil
		}
		return (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewUndefinedVariable{Positioner: t, Name: t.Name}))
	case *ast.TypeApp:
		n, ok := arity[t.Name]
		var errs *ilerr.Errors
		if !ok {
			errs = errs.With(ilerr.New(ilerr.NewUndefinedVariable{Positioner: t, Name: t.Name}))
		} else if n >= 0 && n != len(t.Args) {
			errs = errs.With(ilerr.New(ilerr.NewArityMismatch{Positioner: t, Name: t.Name, Expected: n, Got: len(t.Args)}))
		}
		for _, a := range t.Args {
			errs = errs.Merge(checkKindsOf(a, scope, arity))
		}
		return errs
	case *ast.TupleTypeExpr:
		var errs *ilerr.Errors
		for _, f := range t.Fields {
			errs = errs.Merge(checkKindsOf(f, scope, arity))
		}
		return errs
	case *ast.ArrowTypeExpr:
		return checkKindsOf(t.Domain, scope, arity).Merge(checkKindsOf(t.Codomain, scope, arity))
	case *ast.ForallTypeExpr:
		return checkKindsOf(t.Body, append(scope, t.VarName), arity)
	case *ast.ExistsTypeExpr:
		return checkKindsOf(t.Body, append(scope, t.VarName), arity)
	case *ast.AnchoredTypeExpr:
		return checkKindsOf(t.Type, scope, arity)
	case *ast.StarTypeExpr:
		return checkKindsOf(t.Left, scope, arity).Merge(checkKindsOf(t.Right, scope, arity))
	case *ast.AndTypeExpr:
		var errs *ilerr.Errors
		for _, c := range t.Constraints {
			errs = errs.Merge(checkKindsOf(c.Type, scope, arity))
		}
		return errs.Merge(checkKindsOf(t.Body, scope, arity))
	case *ast.ImplyTypeExpr:
		var errs *ilerr.Errors
		for _, c := range t.Constraints {
			errs = errs.Merge(checkKindsOf(c.Type, scope, arity))
		}
		return errs.Merge(checkKindsOf(t.Body, scope, arity))
	default:
		return nil
	}
}

// Translate registers a file's data-type groups and abstract types in
// e, runs the fact-inference worklist over each group, binds every
// top-level val in declaration order (so later vals may reference
// earlier ones, and a `val rec`-free language still gets ordinary
// forward recursion via the same name table letrec uses internally),
// and returns the resulting environment.
func Translate(e *checker.Env, file *ast.File) (*checker.Env, *ilerr.Errors) {
	var errs *ilerr.Errors
	next := e

	groups := map[int][]*ast.DataDecl{}
	var groupOrder []int
	for _, d := range flattenDataDecls(file) {
		if _, seen := groups[d.Group]; !seen {
			groupOrder = append(groupOrder, d.Group)
		}
		groups[d.Group] = append(groups[d.Group], d)
	}

	for _, gid := range groupOrder {
		members := groups[gid]
		heads := make([]core.VarID, len(members))
		defs := map[core.VarID]*core.DataDefinition{}
		for i, d := range members {
			var id core.VarID
			next, id = next.BindRigid(d.Name, core.TypeKind{})
			next = next.BindName(d.Name, id)
			heads[i] = id
		}
		for i, d := range members {
			def, derrs := translateDataDecl(next, d, heads[i])
			errs = errs.Merge(derrs)
			defs[heads[i]] = def
			next = next.DeclareDataDefinition(heads[i], def)
		}
		next = checker.InferGroupFacts(next, heads, defs)
		checker.InferVariance(next, heads, defs)
	}

	for _, decl := range file.Declarations {
		d, ok := decl.(*ast.AbstractTypeDecl)
		if !ok {
			continue
		}
		bound, id := next.BindRigid(d.Name, arrowKindOf(d.Arity))
		next = bound
		next = next.BindName(d.Name, id)
	}

	for _, decl := range file.Declarations {
		d, ok := decl.(*ast.ValDecl)
		if !ok {
			continue
		}
		res := checker.Check(next, d.Value, nil)
		errs = errs.Merge(res.Errs)
		if res.Errs.HasError() {
			translateLogger.Warn("val failed to check", "name", d.Name)
			continue
		}
		next = res.Env.BindName(d.Name, res.Value)
	}

	return next, errs
}

func arrowKindOf(arity int) core.Kind {
	k := core.Kind(core.TypeKind{})
	for i := 0; i < arity; i++ {
		k = core.ArrowKind{Domain: core.TypeKind{}, Codomain: k}
	}
	return k
}

// translateDataDecl builds the ConcreteType branches of one member of a
// (possibly mutually-recursive) data-type group: every field type is
// resolved with the group's own parameters bound to BoundType indices
// and every sibling group member already bound by name to its head, so
// recursive and mutually-recursive references both resolve to that
// head: an AppType when applied, an OpenType when written bare.
func translateDataDecl(e *checker.Env, d *ast.DataDecl, head core.VarID) (*core.DataDefinition, *ilerr.Errors) {
	var errs *ilerr.Errors
	params := make([]core.Param, len(d.Params))
	for i, p := range d.Params {
		params[i] = core.Param{Binding: core.Binding{NameHint: p, Kind: core.TypeKind{}}, Variance: core.Invariant}
	}

	branches := make([]core.ConcreteType, len(d.Branches))
	for i, b := range d.Branches {
		fields := make([]core.Field, len(b.Fields))
		for j, f := range b.Fields {
			t, ferrs := checker.ResolveFieldType(e, d.Params, f.Type)
			errs = errs.Merge(ferrs)
			fields[j] = core.Field{Name: f.Name, Type: t}
		}
		var adopts core.Type
		if d.AdoptsClause != nil {
			t, aerrs := checker.ResolveFieldType(e, d.Params, d.AdoptsClause)
			errs = errs.Merge(aerrs)
			adopts = t
		}
		branches[i] = core.ConcreteType{Datacon: b.Datacon, Fields: fields, Adopts: adopts}
	}

	flavor := core.DataImmutable
	if d.Exclusive {
		flavor = core.DataExclusive
	}
	def := &core.DataDefinition{
		Name:     d.Name,
		Head:     head,
		Params:   params,
		Flavor:   flavor,
		Branches: branches,
		AdoptsOk: d.AdoptsClause != nil,
	}
	if !errs.HasError() {
		translateLogger.Debug("translated data declaration", "name", d.Name, "branches", len(branches))
	}
	return def, errs
}

package checker

import (
	"fmt"

	"github.com/mezzolang/mezzo/checker/ilerr"
	"github.com/mezzolang/mezzo/core"
	"github.com/mezzolang/mezzo/frontend/ast"
)

// ResolveType translates a surface type expression into a core.Type,
// resolving every TypeVarRef against either a quantifier bound earlier
// in the same expression (producing a BoundType de-Bruijn index) or a
// name already bound in e (producing an OpenType). This is the one
// place surface syntax and core syntax meet; everything past this
// point in the checker only ever sees core.Type.
func ResolveType(e *Env, t ast.Type) (core.Type, *ilerr.Errors) {
	return resolveType(e, nil, t)
}

// ResolveFieldType translates a data branch's field or adopts clause,
// seeding the quantifier scope with the owning group's own parameters
// (outermost first) before resolving. A reference to a group parameter
// is then just an ordinary TypeVarRef hit in scope, the same as a
// ForallTypeExpr's own bound variable — so it resolves correctly
// through every compound form resolveType already handles (arrows,
// nested foralls/exists, star/anchored permissions, and/imply), not
// only the two node types a hand-rolled special case would have to
// enumerate. params[i] resolves to core.BoundType{Index: i} when
// referenced directly, matching core.DataDefinition.Instantiate's own
// indexing of a group's parameters.
func ResolveFieldType(e *Env, params []string, t ast.Type) (core.Type, *ilerr.Errors) {
	scope := make([]string, len(params))
	for i, p := range params {
		scope[len(params)-1-i] = p
	}
	return resolveType(e, scope, t)
}

func resolveType(e *Env, scope []string, t ast.Type) (core.Type, *ilerr.Errors) {
	switch t := t.(type) {
	case *ast.TypeVarRef:
		for depth, name := range reversed(scope) {
			if name == t.Name {
				return core.BoundType{Index: depth}, nil
			}
		}
		id, ok := e.LookupName(t.Name)
		if !ok {
			return nil, (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewUndefinedVariable{Positioner: t, Name: t.Name}))
		}
		return core.OpenType{Var: id}, nil

	case *ast.TypeApp:
		id, ok := e.LookupName(t.Name)
		if !ok {
			return nil, (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewUndefinedVariable{Positioner: t, Name: t.Name}))
		}
		args := make([]core.Type, len(t.Args))
		var errs *ilerr.Errors
		for i, a := range t.Args {
			resolved, aerrs := resolveType(e, scope, a)
			errs = errs.Merge(aerrs)
			args[i] = resolved
		}
		if errs.HasError() {
			return nil, errs
		}
		return core.AppType{Head: id, Args: args}, nil

	case *ast.TupleTypeExpr:
		fields := make([]core.Type, len(t.Fields))
		var errs *ilerr.Errors
		for i, f := range t.Fields {
			resolved, ferrs := resolveType(e, scope, f)
			errs = errs.Merge(ferrs)
			fields[i] = resolved
		}
		if errs.HasError() {
			return nil, errs
		}
		return core.TupleType{Fields: fields}, nil

	case *ast.ArrowTypeExpr:
		domain, errs1 := resolveType(e, scope, t.Domain)
		codomain, errs2 := resolveType(e, scope, t.Codomain)
		errs := errs1.Merge(errs2)
		if errs.HasError() {
			return nil, errs
		}
		return core.ArrowType{Domain: domain, Codomain: codomain}, nil

	case *ast.ForallTypeExpr:
		body, errs := resolveType(e, append(scope, t.VarName), t.Body)
		if errs.HasError() {
			return nil, errs
		}
		return core.ForallType{
			Binding: core.Binding{NameHint: t.VarName, Kind: coreKindOf(t.Kind), Flavor: core.CannotInstantiate},
			Body:    body,
		}, nil

	case *ast.ExistsTypeExpr:
		body, errs := resolveType(e, append(scope, t.VarName), t.Body)
		if errs.HasError() {
			return nil, errs
		}
		return core.ExistsType{
			Binding: core.Binding{NameHint: t.VarName, Kind: coreKindOf(t.Kind), Flavor: core.CannotInstantiate},
			Body:    body,
		}, nil

	case *ast.AnchoredTypeExpr:
		id, ok := e.LookupName(t.VarName)
		if !ok {
			return nil, (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewUndefinedVariable{Positioner: t, Name: t.VarName}))
		}
		inner, errs := resolveType(e, scope, t.Type)
		if errs.HasError() {
			return nil, errs
		}
		return core.AnchoredPerm{Var: id, Type: inner}, nil

	case *ast.StarTypeExpr:
		left, errs1 := resolveType(e, scope, t.Left)
		right, errs2 := resolveType(e, scope, t.Right)
		errs := errs1.Merge(errs2)
		if errs.HasError() {
			return nil, errs
		}
		return core.StarPerm{Left: left, Right: right}, nil

	case *ast.EmptyTypeExpr:
		return core.EmptyPerm{}, nil

	case *ast.DynamicTypeExpr:
		return core.DynamicType{}, nil

	case *ast.UnknownTypeExpr:
		return core.UnknownType{}, nil

	case *ast.AndTypeExpr:
		constraints, errs1 := resolveConstraints(e, scope, t.Constraints)
		body, errs2 := resolveType(e, scope, t.Body)
		errs := errs1.Merge(errs2)
		if errs.HasError() {
			return nil, errs
		}
		return core.AndType{Constraints: constraints, Body: body}, nil

	case *ast.ImplyTypeExpr:
		constraints, errs1 := resolveConstraints(e, scope, t.Constraints)
		body, errs2 := resolveType(e, scope, t.Body)
		errs := errs1.Merge(errs2)
		if errs.HasError() {
			return nil, errs
		}
		return core.ImplyType{Constraints: constraints, Body: body}, nil

	default:
		return nil, (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewKindMismatch{Positioner: t, Expected: "type", Got: fmt.Sprintf("%T", t)}))
	}
}

func resolveConstraints(e *Env, scope []string, cs []ast.ConstraintExpr) ([]core.Constraint, *ilerr.Errors) {
	out := make([]core.Constraint, len(cs))
	var errs *ilerr.Errors
	for i, c := range cs {
		resolved, cerrs := resolveType(e, scope, c.Type)
		errs = errs.Merge(cerrs)
		kind := core.ConstraintDuplicable
		if c.Exclusive {
			kind = core.ConstraintExclusive
		}
		out[i] = core.Constraint{Kind: kind, Type: resolved}
	}
	return out, errs
}

func coreKindOf(k ast.QuantifierKind) core.Kind {
	switch k {
	case ast.KindTerm:
		return core.TermKind{}
	case ast.KindPerm:
		return core.PermKind{}
	default:
		return core.TypeKind{}
	}
}

// reversed yields (depth, name) pairs innermost-first, so the most
// recently opened quantifier shadows an outer one of the same name.
func reversed(scope []string) func(func(int, string) bool) {
	return func(yield func(int, string) bool) {
		for depth := 0; depth < len(scope); depth++ {
			name := scope[len(scope)-1-depth]
			if !yield(depth, name) {
				return
			}
		}
	}
}

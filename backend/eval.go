package backend

import (
	"errors"
	"fmt"

	"github.com/mezzolang/mezzo/frontend/ast"
)

// ErrFail is returned when evaluation runs into an explicit `fail`
// expression.
var ErrFail = errors.New("fail")

// Eval walks a checked expression to a value under env. It performs no
// checking of its own: a program that reaches Eval is assumed to have
// already passed Check, so the only errors Eval can return are ErrFail
// and a handful of adopts-bookkeeping violations that the permission
// discipline rules out statically but this evaluator still guards at
// runtime since it does not share the checker's proof.
func Eval(expr Expr, env *RuntimeEnv) (Value, error) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return IntValue(e.Value), nil
	case *ast.BoolLit:
		return BoolValue(e.Value), nil
	case *ast.StringLit:
		return StringValue(e.Value), nil

	case *ast.VarExpr:
		v, ok := env.Lookup(e.Name)
		if !ok {
			return nil, fmt.Errorf("backend: unbound variable %q", e.Name)
		}
		return v, nil

	case *ast.TupleExpr:
		if len(e.Elems) == 0 {
			return UnitValue{}, nil
		}
		elems := make([]Value, len(e.Elems))
		for i, el := range e.Elems {
			v, err := Eval(el, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &TupleValue{Elems: elems}, nil

	case *ast.ConstructExpr:
		fields := make(map[string]Value, len(e.Fields))
		for _, fi := range e.Fields {
			v, err := Eval(fi.Value, env)
			if err != nil {
				return nil, err
			}
			fields[fi.Name] = v
		}
		return &RecordValue{Datacon: e.Datacon, Fields: fields, Adopted: map[Value]bool{}}, nil

	case *ast.FieldAccessExpr:
		recv, err := Eval(e.Receiver, env)
		if err != nil {
			return nil, err
		}
		rec, ok := recv.(*RecordValue)
		if !ok {
			return nil, fmt.Errorf("backend: field access on non-record value %s", recv)
		}
		v, ok := rec.Fields[e.Field]
		if !ok {
			return nil, fmt.Errorf("backend: %s has no field %q", rec.Datacon, e.Field)
		}
		return v, nil

	case *ast.AssignExpr:
		recv, err := Eval(e.Receiver, env)
		if err != nil {
			return nil, err
		}
		rec, ok := recv.(*RecordValue)
		if !ok {
			return nil, fmt.Errorf("backend: assignment to non-record value %s", recv)
		}
		v, err := Eval(e.Value, env)
		if err != nil {
			return nil, err
		}
		rec.Fields[e.Field] = v
		return UnitValue{}, nil

	case *ast.AppExpr:
		fv, err := Eval(e.Func, env)
		if err != nil {
			return nil, err
		}
		clos, ok := fv.(*ClosureValue)
		if !ok {
			return nil, fmt.Errorf("backend: applying non-function value %s", fv)
		}
		arg, err := Eval(e.Arg, env)
		if err != nil {
			return nil, err
		}
		callEnv, ok := matchPattern(clos.Param, arg, clos.Env)
		if !ok {
			return nil, fmt.Errorf("backend: argument does not match parameter pattern")
		}
		return Eval(clos.Body, callEnv)

	case *ast.LambdaExpr:
		return &ClosureValue{Param: e.Param, Body: e.Body, Env: env}, nil

	case *ast.LetExpr:
		v, err := Eval(e.Value, env)
		if err != nil {
			return nil, err
		}
		bound, ok := matchPattern(e.Pattern, v, env)
		if !ok {
			return nil, fmt.Errorf("backend: let-bound pattern did not match its value")
		}
		return Eval(e.Body, bound)

	case *ast.LetRecExpr:
		bound := env
		cells := make([]*Value, len(e.Names))
		for i, name := range e.Names {
			var cell *Value
			bound, cell = bound.BindCell(name)
			cells[i] = cell
		}
		for i, val := range e.Values {
			v, err := Eval(val, bound)
			if err != nil {
				return nil, err
			}
			*cells[i] = v
		}
		return Eval(e.Body, bound)

	case *ast.SeqExpr:
		if _, err := Eval(e.First, env); err != nil {
			return nil, err
		}
		return Eval(e.Second, env)

	case *ast.IfExpr:
		cv, err := Eval(e.Cond, env)
		if err != nil {
			return nil, err
		}
		b, ok := cv.(BoolValue)
		if !ok {
			return nil, fmt.Errorf("backend: if condition is not a bool: %s", cv)
		}
		if bool(b) {
			return Eval(e.Then, env)
		}
		return Eval(e.Else, env)

	case *ast.MatchExpr:
		sv, err := Eval(e.Scrutinee, env)
		if err != nil {
			return nil, err
		}
		for _, c := range e.Cases {
			if caseEnv, ok := matchPattern(c.Pattern, sv, env); ok {
				return Eval(c.Body, caseEnv)
			}
		}
		return nil, fmt.Errorf("backend: no match case applies to %s", sv)

	case *ast.GiveExpr:
		adoptee, err := Eval(e.Adoptee, env)
		if err != nil {
			return nil, err
		}
		adopterV, err := Eval(e.Adopter, env)
		if err != nil {
			return nil, err
		}
		adopter, ok := adopterV.(*RecordValue)
		if !ok {
			return nil, fmt.Errorf("backend: give to non-record value %s", adopterV)
		}
		adopter.Adopted[adoptee] = true
		return UnitValue{}, nil

	case *ast.TakeExpr:
		adoptee, err := Eval(e.Adoptee, env)
		if err != nil {
			return nil, err
		}
		adopterV, err := Eval(e.Adopter, env)
		if err != nil {
			return nil, err
		}
		adopter, ok := adopterV.(*RecordValue)
		if !ok {
			return nil, fmt.Errorf("backend: take from non-record value %s", adopterV)
		}
		if !adopter.Adopted[adoptee] {
			return nil, fmt.Errorf("backend: take of a value not currently adopted")
		}
		delete(adopter.Adopted, adoptee)
		return UnitValue{}, nil

	case *ast.OwnsExpr:
		adopterV, err := Eval(e.Adopter, env)
		if err != nil {
			return nil, err
		}
		adoptee, err := Eval(e.Adoptee, env)
		if err != nil {
			return nil, err
		}
		adopter, ok := adopterV.(*RecordValue)
		if !ok {
			return nil, fmt.Errorf("backend: owns on non-record value %s", adopterV)
		}
		return BoolValue(adopter.Adopted[adoptee]), nil

	case *ast.FailExpr:
		return nil, ErrFail

	case *ast.TypeAscExpr:
		return Eval(e.Value, env)

	default:
		return nil, fmt.Errorf("backend: unsupported expression %T", expr)
	}
}

// matchPattern tries to match v against pat, returning env extended
// with every variable pat binds. Every pattern the checker accepts at
// a let or a lambda parameter is irrefutable, so failure there signals
// a genuine evaluator bug; a match case's pattern may legitimately
// fail, which is how MatchExpr finds its case.
func matchPattern(pat ast.Pattern, v Value, env *RuntimeEnv) (*RuntimeEnv, bool) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return env, true
	case *ast.VarPattern:
		return env.Bind(p.Name, v), true
	case *ast.TuplePattern:
		tv, ok := v.(*TupleValue)
		if !ok || len(tv.Elems) != len(p.Elems) {
			return env, false
		}
		cur := env
		for i, ep := range p.Elems {
			next, ok := matchPattern(ep, tv.Elems[i], cur)
			if !ok {
				return env, false
			}
			cur = next
		}
		return cur, true
	case *ast.ConstructPattern:
		rv, ok := v.(*RecordValue)
		if !ok || rv.Datacon != p.Datacon {
			return env, false
		}
		cur := env
		for _, fp := range p.Fields {
			fv, ok := rv.Fields[fp.Name]
			if !ok {
				return env, false
			}
			next, ok := matchPattern(fp.Pattern, fv, cur)
			if !ok {
				return env, false
			}
			cur = next
		}
		return cur, true
	default:
		return env, false
	}
}

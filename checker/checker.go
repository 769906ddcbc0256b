package checker

import (
	"fmt"

	"github.com/mezzolang/mezzo/checker/ilerr"
	"github.com/mezzolang/mezzo/core"
	"github.com/mezzolang/mezzo/frontend/ast"
)

// builtin head IDs are reserved at the start of every Env's lifetime so
// literal expressions have somewhere to anchor their type without a
// full builtins module having been checked; no builtins module
// declares these heads.
const (
	HeadInt    core.VarID = 1
	HeadBool   core.VarID = 2
	HeadString core.VarID = 3
	firstUserID            = 4
)

// NewCheckingEnv returns a root Env with the literal-type heads
// reserved, marked unconditionally duplicable, and the shared fresh-ID
// counter advanced past them.
func NewCheckingEnv() *Env {
	e := NewEnv()
	*e.fresh = uint64(firstUserID - 1)
	next := e.clone()
	next.facts = e.facts.Set(HeadInt, DuplicableAlways()).Set(HeadBool, DuplicableAlways()).Set(HeadString, DuplicableAlways())
	return next
}

// Result is what Check returns for one expression: the environment
// after checking it, the fresh Term variable it is bound to, and any
// non-fatal errors accumulated along the way.
type Result struct {
	Env   *Env
	Value core.VarID
	Errs  *ilerr.Errors
}

func fail(e *Env, errs *ilerr.Errors) Result {
	return Result{Env: e, Errs: errs}
}

func ok(e *Env, v core.VarID, errs *ilerr.Errors) Result {
	return Result{Env: e, Value: v, Errs: errs}
}

// Check implements component C, §4.7: the bidirectional expression
// walker. expected may be nil (pure inference); when non-nil it is
// passed down to the lambda, let, letrec, sequence, if and match
// rules, where a lambda uses an arrow's codomain as its body's
// expected type. No rule checks the result against expected, so an
// ascription or annotation does not constrain the checked value.
func Check(e *Env, expr ast.Expr, expected core.Type) Result {
	switch expr := expr.(type) {
	case *ast.IntLit:
		return checkLiteral(e, expr, core.AppType{Head: HeadInt})
	case *ast.BoolLit:
		return checkLiteral(e, expr, core.AppType{Head: HeadBool})
	case *ast.StringLit:
		return checkLiteral(e, expr, core.AppType{Head: HeadString})
	case *ast.VarExpr:
		return checkVar(e, expr)
	case *ast.TupleExpr:
		return checkTuple(e, expr)
	case *ast.ConstructExpr:
		return checkConstruct(e, expr)
	case *ast.FieldAccessExpr:
		return checkFieldAccess(e, expr)
	case *ast.AssignExpr:
		return checkAssign(e, expr)
	case *ast.LambdaExpr:
		return checkLambda(e, expr, expected)
	case *ast.AppExpr:
		return checkApp(e, expr)
	case *ast.LetExpr:
		return checkLet(e, expr, expected)
	case *ast.LetRecExpr:
		return checkLetRec(e, expr, expected)
	case *ast.SeqExpr:
		first := Check(e, expr.First, nil)
		if first.Errs.HasError() {
			return first
		}
		second := Check(first.Env, expr.Second, expected)
		return ok(second.Env, second.Value, first.Errs.Merge(second.Errs))
	case *ast.IfExpr:
		return checkIf(e, expr, expected)
	case *ast.MatchExpr:
		return checkMatch(e, expr, expected)
	case *ast.GiveExpr:
		return checkGive(e, expr)
	case *ast.TakeExpr:
		return checkTake(e, expr)
	case *ast.OwnsExpr:
		return checkOwns(e, expr)
	case *ast.FailExpr:
		id, next := allocValue(e)
		return ok(next.MarkInconsistent(), id, nil)
	case *ast.TypeAscExpr:
		t, errs := ResolveType(e, expr.Type)
		if errs.HasError() {
			return fail(e, errs)
		}
		return Check(e, expr.Value, t)
	default:
		return fail(e, (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewUndefinedVariable{Positioner: expr, Name: fmt.Sprintf("<unsupported expression %T>", expr)})))
	}
}

func allocValue(e *Env) (core.VarID, *Env) {
	return e.freshID(), e
}

// bindValue allocates a fresh variable and gives it permission t,
// returning the updated Env and the variable — the common tail of
// every leaf-expression rule in §4.7.
func bindValue(e *Env, t core.Type) (*Env, core.VarID) {
	id := e.freshID()
	next := Add(e, id, t)
	return next, id
}

func checkLiteral(e *Env, pos ast.Positioner, t core.Type) Result {
	next, v := bindValue(e, t)
	return ok(next, v, nil)
}

func checkVar(e *Env, expr *ast.VarExpr) Result {
	id, ok2 := e.LookupName(expr.Name)
	if !ok2 {
		return fail(e, (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewUndefinedVariable{Positioner: expr, Name: expr.Name})))
	}
	return ok(e, id, nil)
}

func checkTuple(e *Env, expr *ast.TupleExpr) Result {
	next := e
	fields := make([]core.Type, len(expr.Elems))
	var errs *ilerr.Errors
	for i, el := range expr.Elems {
		res := Check(next, el, nil)
		next = res.Env
		errs = errs.Merge(res.Errs)
		if res.Errs.HasError() {
			continue
		}
		fields[i] = core.SingletonType{Value: core.OpenType{Var: res.Value}}
	}
	vNext, v := bindValue(next, core.TupleType{Fields: fields})
	return ok(vNext, v, errs)
}

func checkConstruct(e *Env, expr *ast.ConstructExpr) Result {
	template, found := e.DataconTemplate(expr.Datacon)
	if !found {
		return fail(e, (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewUndefinedDatacon{Positioner: expr, Name: expr.Datacon})))
	}
	var args []core.Type
	if head, ok := e.DataconOwner(expr.Datacon); ok {
		if def, ok := e.DataDefinition(head); ok {
			args = make([]core.Type, len(def.Params))
			for i := range args {
				args[i] = core.UnknownType{}
			}
		}
	}
	next := e
	var errs *ilerr.Errors
	fields := make([]core.Field, 0, len(template.Fields))
	for _, f := range template.Fields {
		if f.IsPermission {
			fields = append(fields, f)
			continue
		}
		init := findFieldInit(expr.Fields, f.Name)
		if init == nil {
			errs = errs.With(ilerr.New(ilerr.NewUndefinedField{Positioner: expr, Datacon: expr.Datacon, Field: f.Name}))
			continue
		}
		res := Check(next, init.Value, nil)
		next = res.Env
		errs = errs.Merge(res.Errs)
		fields = append(fields, core.Field{Name: f.Name, Type: core.SingletonType{Value: core.OpenType{Var: res.Value}}})
		if bound, ok := f.Type.(core.BoundType); ok && bound.Index < len(args) {
			if perms := next.Permissions(res.Value); len(perms) > 0 {
				args[bound.Index] = perms[0]
			}
		}
	}
	vNext, v := bindValue(next, core.ConcreteType{Datacon: template.Datacon, Fields: fields, Adopts: instantiateAdopts(template.Adopts, args)})
	return ok(vNext, v, errs)
}

// instantiateAdopts substitutes the constructor's inferred type
// arguments into a parametric adopter's adopts clause before it is
// stored, with the same per-parameter core.Subst loop
// core.DataDefinition.Instantiate already uses to instantiate a
// branch's fields. Left uncalled, a parametric adopter (e.g. `data cell
// a = Cell adopts ref(a)`) would store the adopts clause's BoundType
// verbatim in a fully-opened permission, which invariant 5 forbids. A
// parameter this constructor's fields never name directly (no field
// typed as exactly that bound index) keeps its core.UnknownType{}
// placeholder rather than being left unsubstituted.
func instantiateAdopts(adopts core.Type, args []core.Type) core.Type {
	if adopts == nil {
		return nil
	}
	t := adopts
	for i := len(args) - 1; i >= 0; i-- {
		t = core.Subst(t, i, args[i])
	}
	return t
}

func findFieldInit(fields []ast.FieldInit, name string) *ast.FieldInit {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}

func checkFieldAccess(e *Env, expr *ast.FieldAccessExpr) Result {
	recv := Check(e, expr.Receiver, nil)
	if recv.Errs.HasError() {
		return recv
	}
	for _, p := range recv.Env.Permissions(recv.Value) {
		c, ok2 := p.(core.ConcreteType)
		if !ok2 {
			continue
		}
		for _, f := range c.Fields {
			if f.Name == expr.Field {
				if open, ok3 := singletonOpenVar(f.Type); ok3 {
					return ok(recv.Env, open, recv.Errs)
				}
			}
		}
	}
	return fail(recv.Env, recv.Errs.With(ilerr.New(ilerr.NewUndefinedField{Positioner: expr, Field: expr.Field})))
}

// checkAssign implements §4.7 "Assign": find the unique writable
// concrete permission on the target, requiring Exclusive, and rebind
// the field.
func checkAssign(e *Env, expr *ast.AssignExpr) Result {
	recv := Check(e, expr.Receiver, nil)
	if recv.Errs.HasError() {
		return recv
	}
	val := Check(recv.Env, expr.Value, nil)
	errs := recv.Errs.Merge(val.Errs)
	if val.Errs.HasError() {
		return fail(val.Env, errs)
	}
	perms := val.Env.Permissions(recv.Value)
	for i, p := range perms {
		c, ok2 := p.(core.ConcreteType)
		if !ok2 || !IsExclusive(val.Env, c) {
			continue
		}
		found := false
		newFields := make([]core.Field, len(c.Fields))
		copy(newFields, c.Fields)
		for j, f := range c.Fields {
			if f.Name == expr.Field {
				newFields[j] = core.Field{Name: f.Name, Type: core.SingletonType{Value: core.OpenType{Var: val.Value}}}
				found = true
			}
		}
		if !found {
			continue
		}
		updated := core.ConcreteType{Datacon: c.Datacon, Fields: newFields, Adopts: c.Adopts}
		replaced := append([]core.Type{}, perms[:i]...)
		replaced = append(replaced, updated)
		replaced = append(replaced, perms[i+1:]...)
		next := val.Env.SetPermissions(recv.Value, replaced)
		vNext, v := bindValue(next, core.TupleType{})
		return ok(vNext, v, errs)
	}
	return fail(val.Env, errs.With(ilerr.New(ilerr.NewMutationWithoutExclusive{Positioner: expr})))
}

// checkLambda implements §4.7 "Lambda": strip E to duplicable, bind
// the parameter's permission on a fresh rigid variable, check the
// body with the declared return type as its expected type (which, as
// Check notes, does not constrain the body), and return the arrow.
func checkLambda(e *Env, expr *ast.LambdaExpr, expected core.Type) Result {
	stripped := stripNonDuplicable(e)
	paramID := stripped.freshID()
	bodyEnv := stripped.BindName(patternRootName(expr.Param), paramID)

	var paramType core.Type = core.UnknownType{}
	if expr.ParamType != nil {
		t, errs := ResolveType(bodyEnv, expr.ParamType)
		if errs.HasError() {
			return fail(e, errs)
		}
		paramType = t
	}
	bodyEnv = Add(bodyEnv, paramID, paramType)

	var expectedReturn core.Type
	if expr.ReturnType != nil {
		t, errs := ResolveType(bodyEnv, expr.ReturnType)
		if errs.HasError() {
			return fail(e, errs)
		}
		expectedReturn = t
	} else if arrow, ok2 := expected.(core.ArrowType); ok2 {
		expectedReturn = arrow.Codomain
	}

	bodyRes := Check(bodyEnv, expr.Body, expectedReturn)
	if bodyRes.Errs.HasError() {
		return fail(e, bodyRes.Errs)
	}
	codomain := core.SingletonType{Value: core.OpenType{Var: bodyRes.Value}}
	arrowType := core.ArrowType{Domain: paramType, Codomain: codomain}
	next, v := bindValue(e, arrowType)
	return ok(next, v, bodyRes.Errs)
}

func patternRootName(p ast.Pattern) string {
	if v, ok := p.(*ast.VarPattern); ok {
		return v.Name
	}
	return "_"
}

// checkApp implements §4.7 "App": find an arrow permission on f,
// instantiate its universals flexibly, subtract the argument, and
// bind the codomain.
func checkApp(e *Env, expr *ast.AppExpr) Result {
	fres := Check(e, expr.Func, nil)
	if fres.Errs.HasError() {
		return fres
	}
	arg := Check(fres.Env, expr.Arg, nil)
	errs := fres.Errs.Merge(arg.Errs)
	if arg.Errs.HasError() {
		return fail(arg.Env, errs)
	}
	next := arg.Env
	var tried []ilerr.Derivation
	for _, p := range next.Permissions(fres.Value) {
		t := p
		for {
			forall, ok2 := t.(core.ForallType)
			if !ok2 {
				break
			}
			var opened core.Type
			next, _, opened = next.OpenForall(flipFlavor(forall))
			t = opened
		}
		arrow, ok2 := t.(core.ArrowType)
		if !ok2 {
			tried = append(tried, ilerr.Derivation{Rule: "App: not an arrow", Expected: "arrow", Actual: t.String()})
			continue
		}
		domainEnv, success := Sub(next, arg.Value, domainTypeOf(arrow.Domain))
		if !success {
			tried = append(tried, ilerr.Derivation{Rule: "App: sub(argument, domain)", Expected: domainTypeOf(arrow.Domain).String()})
			continue
		}
		result, v := bindValue(domainEnv, arrow.Codomain)
		return ok(result, v, errs)
	}
	return fail(next, errs.With(ilerr.New(ilerr.NewPermissionNotFound{
		Positioner: expr,
		Variable:   exprName(expr.Func),
		Wanted:     "arrow",
		Derivation: ilerr.Derivation{Rule: "App", Expected: "arrow", Premises: tried},
	})))
}

func domainTypeOf(t core.Type) core.Type {
	if anchored, ok := t.(core.AnchoredPerm); ok {
		return anchored.Type
	}
	return t
}

func exprName(e ast.Expr) string {
	if v, ok := e.(*ast.VarExpr); ok {
		return v.Name
	}
	return "<expr>"
}

// checkLet implements §4.7 "Let": check the value, then unify the
// pattern against the resulting variable.
func checkLet(e *Env, expr *ast.LetExpr, expected core.Type) Result {
	nested := e.Nest()
	valRes := Check(nested, expr.Value, nil)
	if valRes.Errs.HasError() {
		return fail(e, valRes.Errs)
	}
	bound, errs := bindPattern(valRes.Env, expr.Pattern, valRes.Value)
	errs = valRes.Errs.Merge(errs)
	bodyRes := Check(bound, expr.Body, expected)
	return ok(bodyRes.Env, bodyRes.Value, errs.Merge(bodyRes.Errs))
}

// checkLetRec pre-installs arrow types derived syntactically from each
// annotated lambda (§4.7) before checking any of the bodies, so mutual
// recursion can resolve.
func checkLetRec(e *Env, expr *ast.LetRecExpr, expected core.Type) Result {
	next := e
	ids := make([]core.VarID, len(expr.Names))
	var errs *ilerr.Errors
	for i, name := range expr.Names {
		id := next.freshID()
		ids[i] = id
		if lambda, ok2 := expr.Values[i].(*ast.LambdaExpr); ok2 && lambda.ParamType != nil && lambda.ReturnType != nil {
			paramT, perr := ResolveType(next, lambda.ParamType)
			errs = errs.Merge(perr)
			retT, rerr := ResolveType(next, lambda.ReturnType)
			errs = errs.Merge(rerr)
			next = Add(next, id, core.ArrowType{Domain: paramT, Codomain: retT})
		}
		next = next.BindName(name, id)
	}
	for i := range expr.Names {
		res := Check(next, expr.Values[i], nil)
		errs = errs.Merge(res.Errs)
		next = unify(res.Env, ids[i], res.Value)
	}
	bodyRes := Check(next, expr.Body, expected)
	return ok(bodyRes.Env, bodyRes.Value, errs.Merge(bodyRes.Errs))
}

// bindPattern implements §4.7's pattern unification: tuple patterns
// merge field singletons, variable patterns simply alias, and concrete
// patterns bind their fields from a concrete permission with the same
// datacon that value already holds. A concrete pattern does not refine
// or instantiate an applied or nominal permission; without such a
// concrete permission it reports an error.
func bindPattern(e *Env, p ast.Pattern, value core.VarID) (*Env, *ilerr.Errors) {
	switch p := p.(type) {
	case *ast.VarPattern:
		return e.BindName(p.Name, value), nil
	case *ast.WildcardPattern:
		return e, nil
	case *ast.TuplePattern:
		next := e
		for _, perm := range e.Permissions(value) {
			tup, ok2 := perm.(core.TupleType)
			if !ok2 || len(tup.Fields) != len(p.Elems) {
				continue
			}
			var errs *ilerr.Errors
			for i, sub := range p.Elems {
				open, ok3 := singletonOpenVar(tup.Fields[i])
				if !ok3 {
					continue
				}
				var subErrs *ilerr.Errors
				next, subErrs = bindPattern(next, sub, open)
				errs = errs.Merge(subErrs)
			}
			return next, errs
		}
		return e, (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewMergeIncompatible{Positioner: p, Variable: "<tuple>"}))
	case *ast.ConstructPattern:
		for _, perm := range e.Permissions(value) {
			c, ok2 := perm.(core.ConcreteType)
			if !ok2 || c.Datacon != p.Datacon {
				continue
			}
			next := e
			var errs *ilerr.Errors
			for _, fp := range p.Fields {
				for _, f := range c.Fields {
					if f.Name == fp.Name {
						if open, ok3 := singletonOpenVar(f.Type); ok3 {
							var subErrs *ilerr.Errors
							next, subErrs = bindPattern(next, fp.Pattern, open)
							errs = errs.Merge(subErrs)
						}
					}
				}
			}
			return next, errs
		}
		return e, (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewUndefinedDatacon{Positioner: p, Name: p.Datacon}))
	default:
		return e, nil
	}
}

func checkIf(e *Env, expr *ast.IfExpr, expected core.Type) Result {
	cond := Check(e, expr.Cond, nil)
	if cond.Errs.HasError() {
		return cond
	}
	thenRes := Check(cond.Env, expr.Then, expected)
	var elseRes Result
	if expr.Else != nil {
		elseRes = Check(cond.Env, expr.Else, expected)
	} else {
		elseRes = ok(cond.Env, thenRes.Value, nil)
	}
	errs := cond.Errs.Merge(thenRes.Errs).Merge(elseRes.Errs)
	merged := Merge(cond.Env, thenRes.Env, elseRes.Env)
	return ok(merged, thenRes.Value, errs)
}

// checkMatch implements §4.7 "Match": for each branch, bind the
// pattern against the scrutinee with bindPattern, check the body, then
// merge every branch's resulting environment. The scrutinee's
// permissions are not refined to the matched branch.
func checkMatch(e *Env, expr *ast.MatchExpr, expected core.Type) Result {
	scrut := Check(e, expr.Scrutinee, nil)
	if scrut.Errs.HasError() {
		return scrut
	}
	var merged *Env
	var resultValue core.VarID
	errs := scrut.Errs
	sawDiscard := false
	for i, c := range expr.Cases {
		if _, ok2 := c.Pattern.(*ast.WildcardPattern); ok2 && i == len(expr.Cases)-1 {
			sawDiscard = true
		}
		branchEnv, perr := bindPattern(scrut.Env, c.Pattern, scrut.Value)
		errs = errs.Merge(perr)
		res := Check(branchEnv, c.Body, expected)
		errs = errs.Merge(res.Errs)
		if res.Env.IsInconsistent() {
			continue
		}
		if merged == nil {
			merged, resultValue = res.Env, res.Value
		} else {
			merged = Merge(scrut.Env, merged, res.Env)
		}
	}
	if !sawDiscard {
		errs = errs.With(ilerr.New(ilerr.NewMissingDiscardCase{Positioner: expr}))
	}
	if merged == nil {
		merged = scrut.Env.MarkInconsistent()
	}
	return ok(merged, resultValue, errs)
}

// checkGive implements §4.7 "Give x to y": find an exclusive
// permission on x matching y's adopts clause, and subtract it.
func checkGive(e *Env, expr *ast.GiveExpr) Result {
	adoptee := Check(e, expr.Adoptee, nil)
	if adoptee.Errs.HasError() {
		return adoptee
	}
	adopter := Check(adoptee.Env, expr.Adopter, nil)
	errs := adoptee.Errs.Merge(adopter.Errs)
	if adopter.Errs.HasError() {
		return fail(adopter.Env, errs)
	}
	for _, p := range adopter.Env.Permissions(adopter.Value) {
		c, ok2 := p.(core.ConcreteType)
		if !ok2 || c.Adopts == nil {
			continue
		}
		next, success := Sub(adopter.Env, adoptee.Value, c.Adopts)
		if !success {
			continue
		}
		vNext, v := bindValue(next, core.TupleType{})
		return ok(vNext, v, errs)
	}
	return fail(adopter.Env, errs.With(ilerr.New(ilerr.NewAdoptsClauseMissing{Positioner: expr, Datacon: "<adopter>"})))
}

// checkTake implements §4.7 "Take x from y": find the first concrete
// permission on y that carries an adopts clause and add that clause as
// a permission on x, leaving the runtime ownership check to the
// backend. Whether x holds Dynamic is not checked.
func checkTake(e *Env, expr *ast.TakeExpr) Result {
	adoptee := Check(e, expr.Adoptee, nil)
	if adoptee.Errs.HasError() {
		return adoptee
	}
	adopter := Check(adoptee.Env, expr.Adopter, nil)
	errs := adoptee.Errs.Merge(adopter.Errs)
	for _, p := range adopter.Env.Permissions(adopter.Value) {
		c, ok2 := p.(core.ConcreteType)
		if !ok2 || c.Adopts == nil {
			continue
		}
		next := Add(adopter.Env, adoptee.Value, c.Adopts)
		vNext, v := bindValue(next, core.TupleType{})
		return ok(vNext, v, errs)
	}
	return fail(adopter.Env, errs.With(ilerr.New(ilerr.NewAdoptsClauseMissing{Positioner: expr, Datacon: "<adopter>"})))
}

// checkOwns implements §4.7 "y owns x": a boolean runtime test. Both
// operands are checked and the result is bound to bool; neither
// operand's permissions are inspected, so no exclusive form on y and
// no Dynamic on x is required.
func checkOwns(e *Env, expr *ast.OwnsExpr) Result {
	adopter := Check(e, expr.Adopter, nil)
	if adopter.Errs.HasError() {
		return adopter
	}
	adoptee := Check(adopter.Env, expr.Adoptee, nil)
	errs := adopter.Errs.Merge(adoptee.Errs)
	next, v := bindValue(adoptee.Env, core.AppType{Head: HeadBool})
	return ok(next, v, errs)
}

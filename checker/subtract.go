package checker

import (
	"slices"

	"github.com/mezzolang/mezzo/core"
)

// SubType implements §4.4 `sub_type(E, t1, t2)`: does t1 provide t2?
// On success it returns the environment with any flexible
// instantiations recorded and the consumed portion of t1 accounted
// for; ok is false when no rule applies.
//
// Rules are tried in the priority order of §4.4; the first applicable
// one wins and its result (success or failure) is final — later rules
// are never consulted once an earlier one matched the shape.
func SubType(e *Env, t1, t2 core.Type) (*Env, bool) {
	// 1. Inconsistency.
	if e.IsInconsistent() {
		return e, true
	}

	t1 = core.ModuloFlex(e, t1)
	t2 = core.ModuloFlex(e, t2)

	// 2. Trivial, modulo flex.
	if equalModuloFlex(e, t1, t2) {
		return e, true
	}

	// 2.5. Top: Unknown accepts anything, without instantiating or
	// consuming whatever t1 turns out to be.
	if _, ok := t2.(core.UnknownType); ok {
		return e, true
	}

	// 3. Flexible shortcut: the variable must both be un-instantiated
	// (IsFlexible) and have been bound with a flavor that permits
	// instantiation at all (CanInstantiate) — a rigid skolem bound
	// under a CannotInstantiate quantifier must never be solved here,
	// nor may one that occurs in the type it would be solved to.
	if open, ok := t1.(core.OpenType); ok && e.IsFlexible(open.Var) && e.CanInstantiate(open.Var) {
		if occursIn(open.Var, t2) {
			return e, false
		}
		return e.InstantiateFlexible(open.Var, t2), true
	}
	if open, ok := t2.(core.OpenType); ok && e.IsFlexible(open.Var) && e.CanInstantiate(open.Var) {
		if occursIn(open.Var, t1) {
			return e, false
		}
		return e.InstantiateFlexible(open.Var, t1), true
	}

	// 4. And/Imply rewriting.
	if imply, ok := t1.(core.ImplyType); ok {
		return SubType(e, imply.Body, core.AndType{Constraints: imply.Constraints, Body: t2})
	}
	if and, ok := t2.(core.AndType); ok {
		next, ok := SubType(e, t1, and.Body)
		if !ok {
			return e, false
		}
		return installConstraints(next, and.Constraints)
	}
	if and, ok := t1.(core.AndType); ok {
		// c was already installed when t1 was added; just drop it here.
		return SubType(e, and.Body, t2)
	}

	// 5. Bind rigid before flexible: Forall on the right, Exists on the left, as rigid.
	if exists, ok := t1.(core.ExistsType); ok {
		next, _, body := e.OpenExists(exists)
		return SubType(next, body, t2)
	}
	if forall, ok := t2.(core.ForallType); ok {
		next, _, body := e.OpenForall(forall)
		return SubType(next, t1, body)
	}
	// then Forall on the left, Exists on the right, as flexible.
	if forall, ok := t1.(core.ForallType); ok {
		next, _, body := e.OpenForall(flipFlavor(forall))
		return SubType(next, body, t2)
	}
	if exists, ok := t2.(core.ExistsType); ok {
		next, _, body := e.OpenExists(flipFlavorExists(exists))
		return SubType(next, t1, body)
	}

	// 6. Structural congruence.
	if tup1, ok1 := t1.(core.TupleType); ok1 {
		if tup2, ok2 := t2.(core.TupleType); ok2 {
			return subTuples(e, tup1, tup2)
		}
	}
	if c1, ok1 := t1.(core.ConcreteType); ok1 {
		if c2, ok2 := t2.(core.ConcreteType); ok2 {
			return subConcrete(e, c1, c2)
		}
	}
	if a1, ok1 := t1.(core.ArrowType); ok1 {
		if a2, ok2 := t2.(core.ArrowType); ok2 {
			return subArrow(e, a1, a2)
		}
	}

	// 7. Application vs application, same head.
	if app1, ok1 := t1.(core.AppType); ok1 {
		if app2, ok2 := t2.(core.AppType); ok2 && app1.Head == app2.Head {
			return subApplication(e, app1, app2)
		}
	}

	// 8. Concrete vs application: expand the application and retry.
	if app2, ok := t2.(core.AppType); ok {
		if expanded := core.ExpandIfOneBranch(e, app2); !isSameApp(expanded, app2) {
			return SubType(e, t1, expanded)
		}
	}
	if app1, ok := t1.(core.AppType); ok {
		if expanded := core.ExpandIfOneBranch(e, app1); !isSameApp(expanded, app1) {
			return SubType(e, expanded, t2)
		}
	}
	// A bare name of a nullary data type resolves to an OpenType naming
	// its head; compare against the nullary application it stands for.
	if open, ok := t2.(core.OpenType); ok {
		if def, isData := e.DataDefinition(open.Var); isData && len(def.Params) == 0 {
			return SubType(e, t1, core.AppType{Head: open.Var})
		}
	}

	// 9. Bar/Star handling: the add_sub dance. Only actually fires when
	// one side carries a real permission to dance with; asBar wraps any
	// type in an empty-permission Bar, so gating on a genuine BarType or
	// StarPerm keeps two plain, structurally-incompatible values (e.g.
	// two different primitive applications) from re-entering SubType
	// with the very same arguments and looping forever.
	if isBarOrStar(t1) || isBarOrStar(t2) {
		bar1, _ := asBar(t1)
		bar2, _ := asBar(t2)
		return addSubDance(e, bar1, bar2)
	}

	// 10. Singleton unfolding.
	if sg, ok := t1.(core.SingletonType); ok {
		if open, ok := sg.Value.(core.OpenType); ok {
			for _, candidate := range e.Permissions(open.Var) {
				if next, ok := SubType(e, candidate, t2); ok {
					return next, true
				}
			}
			return e, false
		}
	}

	return e, false
}

// Sub implements §4.4 `sub(E, x, t) = sub_type(E, =x, t)`.
func Sub(e *Env, x core.VarID, t core.Type) (*Env, bool) {
	return SubFromList(e, x, t)
}

// SubFromList implements rule 11, "try each permission": iterate x's
// permission list in the order duplicable-last (non-duplicable first,
// then other duplicable permissions, then Singleton, then Unknown) so
// that burning a unique permission
// only happens once cheaper alternatives are exhausted.
func SubFromList(e *Env, x core.VarID, t core.Type) (*Env, bool) {
	perms := e.Permissions(x)
	order := orderForSub(e, perms)
	for _, i := range order {
		candidate := perms[i]
		if next, ok := SubType(e, candidate, t); ok {
			if IsDuplicable(next, candidate) {
				return next, true
			}
			remaining := slices.Delete(slices.Clone(perms), i, i+1)
			return next.SetPermissions(x, remaining), true
		}
	}
	return e, false
}

func orderForSub(e *Env, perms []core.Type) []int {
	rank := func(t core.Type) int {
		switch t.(type) {
		case core.UnknownType:
			return 3
		case core.SingletonType:
			return 2
		default:
			if IsDuplicable(e, t) {
				return 1
			}
			return 0
		}
	}
	idx := make([]int, len(perms))
	for i := range perms {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return rank(perms[a]) - rank(perms[b])
	})
	return idx
}

func equalModuloFlex(e *Env, t1, t2 core.Type) bool {
	t1, t2 = core.ModuloFlex(e, t1), core.ModuloFlex(e, t2)
	if h1, ok1 := t1.(core.Hashable); ok1 {
		if h2, ok2 := t2.(core.Hashable); ok2 {
			return h1.Hash() == h2.Hash()
		}
	}
	return t1.String() == t2.String()
}

func occursIn(v core.VarID, t core.Type) bool {
	switch t := t.(type) {
	case core.OpenType:
		return t.Var == v
	case core.AppType:
		for _, a := range t.Args {
			if occursIn(v, a) {
				return true
			}
		}
		return t.Head == v
	case core.TupleType:
		for _, f := range t.Fields {
			if occursIn(v, f) {
				return true
			}
		}
	case core.ArrowType:
		return occursIn(v, t.Domain) || occursIn(v, t.Codomain)
	case core.BarType:
		return occursIn(v, t.Value) || occursIn(v, t.Perm)
	case core.StarPerm:
		return occursIn(v, t.Left) || occursIn(v, t.Right)
	case core.AnchoredPerm:
		return t.Var == v || occursIn(v, t.Type)
	case core.SingletonType:
		return occursIn(v, t.Value)
	}
	return false
}

func installConstraints(e *Env, constraints []core.Constraint) (*Env, bool) {
	next := e
	for _, c := range constraints {
		open, ok := c.Type.(core.OpenType)
		if !ok {
			continue
		}
		switch c.Kind {
		case core.ConstraintDuplicable:
			if IsExclusive(next, core.OpenType{Var: open.Var}) {
				return e, false
			}
		case core.ConstraintExclusive:
			if IsDuplicable(next, core.OpenType{Var: open.Var}) {
				return e, false
			}
		}
	}
	return next, true
}

func flipFlavor(f core.ForallType) core.ForallType {
	f.Binding.Flavor = core.CanInstantiate
	return f
}

func flipFlavorExists(f core.ExistsType) core.ExistsType {
	f.Binding.Flavor = core.CanInstantiate
	return f
}

func subTuples(e *Env, t1, t2 core.TupleType) (*Env, bool) {
	if len(t1.Fields) != len(t2.Fields) {
		return e, false
	}
	next := e
	for i := range t1.Fields {
		var ok bool
		next, ok = SubType(next, t1.Fields[i], t2.Fields[i])
		if !ok {
			return e, false
		}
	}
	return next, true
}

func subConcrete(e *Env, c1, c2 core.ConcreteType) (*Env, bool) {
	if c1.Datacon != c2.Datacon || len(c1.Fields) != len(c2.Fields) {
		return e, false
	}
	if (c1.Adopts == nil) != (c2.Adopts == nil) {
		return e, false
	}
	next := e
	for i := range c1.Fields {
		if c1.Fields[i].Name != c2.Fields[i].Name {
			return e, false
		}
		var ok bool
		next, ok = SubType(next, c1.Fields[i].Type, c2.Fields[i].Type)
		if !ok {
			return e, false
		}
	}
	if c1.Adopts != nil {
		var ok bool
		next, ok = SubType(next, c1.Adopts, c2.Adopts)
		if !ok {
			return e, false
		}
	}
	return next, true
}

// subArrow compares domain contravariantly and codomain covariantly,
// after stripping the caller's non-duplicable permissions: a function
// value only ever captures duplicable state, so the comparison must
// not let it "consume" anything unique belonging to the caller (§4.4
// tie-break notes).
func subArrow(e *Env, a1, a2 core.ArrowType) (*Env, bool) {
	stripped := stripNonDuplicable(e)
	next, ok := SubType(stripped, a2.Domain, a1.Domain)
	if !ok {
		return e, false
	}
	next, ok = SubType(next, a1.Codomain, a2.Codomain)
	if !ok {
		return e, false
	}
	// Import flexible instantiations back into the caller's E; consumed
	// permissions inside the stripped copy are not (they never left it).
	imported := e.clone()
	imported.vars = next.vars
	imported.facts = next.facts
	imported.dataDefs = next.dataDefs
	return imported, true
}

func subApplication(e *Env, a1, a2 core.AppType) (*Env, bool) {
	if len(a1.Args) != len(a2.Args) {
		return e, false
	}
	def, ok := e.DataDefinition(a1.Head)
	next := e
	for i := range a1.Args {
		variance := core.Invariant
		if ok && i < len(def.Params) {
			variance = def.Params[i].Variance
		}
		var success bool
		switch variance {
		case core.Covariant:
			next, success = SubType(next, a1.Args[i], a2.Args[i])
		case core.Contravariant:
			next, success = SubType(next, a2.Args[i], a1.Args[i])
		case core.Bivariant:
			success = true
		default: // Invariant: both directions
			next, success = SubType(next, a1.Args[i], a2.Args[i])
			if success {
				next, success = SubType(next, a2.Args[i], a1.Args[i])
			}
		}
		if !success {
			return e, false
		}
	}
	return next, true
}

func isSameApp(t core.Type, app core.AppType) bool {
	other, ok := t.(core.AppType)
	return ok && other.Head == app.Head && len(other.Args) == len(app.Args)
}

func isBarOrStar(t core.Type) bool {
	switch t.(type) {
	case core.BarType, core.StarPerm:
		return true
	default:
		return false
	}
}

// asBar views t as a Bar(value, perm) pair. A StarPerm carries no
// value of its own — it is a conjunction of permissions — so it must
// decompose via core.Collect into Perm position, not sit as asBar's
// Value: wrapping it as BarType{Value: star, Perm: Empty} would put
// the very same star back in value position, and addSubDance's first
// step (SubType on the two Values) would re-enter rule 9 on that same
// star forever instead of ever reaching its conjuncts.
func asBar(t core.Type) (core.BarType, bool) {
	switch t := t.(type) {
	case core.BarType:
		return t, true
	case core.StarPerm:
		value, perm := core.Collect(t)
		return core.BarType{Value: value, Perm: perm}, true
	default:
		return core.BarType{Value: t, Perm: core.EmptyPerm{}}, true
	}
}

// addSubDance implements rule 9: split (t1|p1) <= (t2|p2), compare
// values, then alternate add(p1-conjunct) / sub(p2-conjunct) until no
// more non-flexible progress can be made, finally trying to close any
// leftover flexible permission variables.
func addSubDance(e *Env, b1, b2 core.BarType) (*Env, bool) {
	next, ok := SubType(e, b1.Value, b2.Value)
	if !ok {
		return e, false
	}
	p1 := flattenStar(b1.Perm)
	p2 := flattenStar(b2.Perm)
	progress := true
	for progress {
		progress = false
		for i := 0; i < len(p1); i++ {
			if isFlexibleAnchor(next, p1[i]) {
				continue
			}
			next = AddPerm(next, p1[i])
			p1 = slices.Delete(p1, i, i+1)
			progress = true
			break
		}
		for i := 0; i < len(p2); i++ {
			if candidate, ok := SubPerm(next, p2[i]); ok {
				next = candidate
				p2 = slices.Delete(p2, i, i+1)
				progress = true
				break
			}
		}
	}
	if len(p2) == 0 {
		return next, true
	}
	if len(p2) == 1 {
		if open, ok := singletonFlexible(next, p2[0]); ok {
			rest := core.Type(core.EmptyPerm{})
			for _, p := range p1 {
				rest = core.StarPerm{Left: rest, Right: p}
			}
			return next.InstantiateFlexible(open, rest), true
		}
	}
	return e, false
}

func flattenStar(t core.Type) []core.Type {
	switch t := t.(type) {
	case core.StarPerm:
		return append(flattenStar(t.Left), flattenStar(t.Right)...)
	case core.EmptyPerm:
		return nil
	default:
		return []core.Type{t}
	}
}

func isFlexibleAnchor(e *Env, p core.Type) bool {
	anchored, ok := p.(core.AnchoredPerm)
	if !ok {
		return false
	}
	return e.IsFlexible(anchored.Var)
}

func singletonFlexible(e *Env, p core.Type) (core.VarID, bool) {
	anchored, ok := p.(core.AnchoredPerm)
	if !ok {
		return 0, false
	}
	if e.IsFlexible(anchored.Var) {
		return anchored.Var, true
	}
	return 0, false
}

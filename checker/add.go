package checker

import (
	"github.com/mezzolang/mezzo/core"
)

// Add implements §4.5 `add(E, x, T)`: assimilate permission T for
// variable x into the environment, unfolding structurals so every
// stored concrete/tuple field is a singleton, and co-unifying against
// any existing concrete permission x already carries for the same
// datacon.
func Add(e *Env, x core.VarID, t core.Type) *Env {
	if e.IsInconsistent() {
		return e
	}
	t = core.ModuloFlex(e, t)
	next, unfolded := unfoldTop(e, t)
	value, perm := core.Collect(unfolded)

	switch value := value.(type) {
	case core.SingletonType:
		if open, ok := value.Value.(core.OpenType); ok {
			merged := unify(next, x, open.Var)
			return addPermStar(merged, perm)
		}
	case core.ExistsType:
		opened, _, body := next.OpenExists(value)
		return Add(opened, x, core.BarType{Value: body, Perm: perm})
	case core.AndType:
		installed, ok := installConstraints(next, value.Constraints)
		if !ok {
			return installed.MarkInconsistent()
		}
		return Add(installed, x, core.BarType{Value: value.Body, Perm: perm})
	case core.ConcreteType:
		return addPermStar(addConcrete(next, x, value), perm)
	case core.TupleType:
		return addPermStar(addTuple(next, x, value), perm)
	}

	// Otherwise: try sub(E, x, T) first.
	if after, ok := Sub(next, x, value); ok {
		if IsExclusive(after, value) {
			return after.MarkInconsistent()
		}
		return addPermStar(after, perm)
	}
	if IsDuplicable(next, value) && slicesContainsType(next.Permissions(x), value) {
		return addPermStar(next, perm)
	}
	return addPermStar(next.AddPermission(x, value), perm)
}

func slicesContainsType(perms []core.Type, t core.Type) bool {
	th, ok1 := t.(core.Hashable)
	if !ok1 {
		return false
	}
	for _, p := range perms {
		if ph, ok2 := p.(core.Hashable); ok2 && ph.Hash() == th.Hash() {
			return true
		}
	}
	return false
}

// addConcrete is the co-unify case: if x already carries a concrete
// permission for the same datacon, merge field sub-variables pairwise
// (propagating structural equalities) rather than stacking a second,
// redundant permission. Incompatible adopts clauses, or a second
// exclusive arrival, mark the environment inconsistent.
func addConcrete(e *Env, x core.VarID, c core.ConcreteType) *Env {
	for _, existing := range e.Permissions(x) {
		other, ok := existing.(core.ConcreteType)
		if !ok || other.Datacon != c.Datacon {
			continue
		}
		if len(other.Fields) != len(c.Fields) {
			return e.MarkInconsistent()
		}
		next := e
		for i := range c.Fields {
			oFld, nFld := other.Fields[i], c.Fields[i]
			oOpen, ok1 := singletonOpenVar(oFld.Type)
			nOpen, ok2 := singletonOpenVar(nFld.Type)
			if ok1 && ok2 {
				next = unify(next, oOpen, nOpen)
			}
		}
		if (other.Adopts == nil) != (c.Adopts == nil) {
			return next.MarkInconsistent()
		}
		if other.Adopts != nil {
			oOpen, ok1 := singletonOpenVar(other.Adopts)
			nOpen, ok2 := singletonOpenVar(c.Adopts)
			if ok1 && ok2 {
				next = unify(next, oOpen, nOpen)
			}
		}
		return next
	}
	return e.AddPermission(x, c)
}

func addTuple(e *Env, x core.VarID, tup core.TupleType) *Env {
	for _, existing := range e.Permissions(x) {
		other, ok := existing.(core.TupleType)
		if !ok || len(other.Fields) != len(tup.Fields) {
			continue
		}
		next := e
		for i := range tup.Fields {
			oOpen, ok1 := singletonOpenVar(other.Fields[i])
			nOpen, ok2 := singletonOpenVar(tup.Fields[i])
			if ok1 && ok2 {
				next = unify(next, oOpen, nOpen)
			}
		}
		return next
	}
	return e.AddPermission(x, tup)
}

func singletonOpenVar(t core.Type) (core.VarID, bool) {
	sg, ok := t.(core.SingletonType)
	if !ok {
		return 0, false
	}
	open, ok := sg.Value.(core.OpenType)
	return open.Var, ok
}

// unify implements §4.4/§4.5's union-find-style merge_left: fold y's
// permission list into x's and make every future reference to y
// resolve through x, by instantiating y (if flexible) to =x; two rigid
// variables unify by migrating y's permissions onto x and leaving y's
// list empty.
func unify(e *Env, x, y core.VarID) *Env {
	if x == y {
		return e
	}
	if e.IsFlexible(y) {
		next := e.InstantiateFlexible(y, core.SingletonType{Value: core.OpenType{Var: x}})
		for _, p := range e.Permissions(y) {
			next = Add(next, x, p)
		}
		return next.SetPermissions(y, nil)
	}
	next := e
	for _, p := range e.Permissions(y) {
		next = Add(next, x, p)
	}
	return next.SetPermissions(y, nil)
}

// AddPerm implements §4.5 `add_perm(E, p)`: walk Star/Anchored/Empty
// and dispatch to Add, or to the floating-perm list for everything
// else (a bare duplicable fact with no anchor).
func AddPerm(e *Env, p core.Type) *Env {
	switch p := p.(type) {
	case core.EmptyPerm:
		return e
	case core.StarPerm:
		return AddPerm(AddPerm(e, p.Left), p.Right)
	case core.AnchoredPerm:
		return Add(e, p.Var, p.Type)
	default:
		return e.AddFloating(p)
	}
}

func addPermStar(e *Env, p core.Type) *Env {
	return AddPerm(e, p)
}

// SubPerm tries to subtract one conjunct of a permission from the
// environment without a named anchor target — used by the add_sub
// dance (§4.4 rule 9) to retire conjuncts of p2 as soon as something
// in the environment (floating, or already on some x) provides them.
func SubPerm(e *Env, p core.Type) (*Env, bool) {
	anchored, ok := p.(core.AnchoredPerm)
	if !ok {
		for i, f := range e.Floating() {
			if next, ok := SubType(e, f, p); ok {
				remaining := append([]core.Type{}, e.Floating()[:i]...)
				remaining = append(remaining, e.Floating()[i+1:]...)
				clone := next.clone()
				clone.floating = remaining
				return clone, true
			}
		}
		return e, false
	}
	return Sub(e, anchored.Var, anchored.Type)
}

// unfoldTop implements the value-position half of §4.5's `unfold`:
// rewrite a top-level structural type's fields so every field that is
// not already a singleton becomes `=v` for a fresh Term variable v,
// which is then bound to the field's original type by Add. The
// top-level value itself is left as the structural shape (Concrete or
// Tuple) with singleton fields, matching the representation invariant
// that a stored concrete/tuple type names its fields, never nests them.
// Permission fields (a datacon's own adopts-style `x @ ...` slots) are
// left untouched: unfold only applies to value positions.
func unfoldTop(e *Env, t core.Type) (*Env, core.Type) {
	switch t := t.(type) {
	case core.ConcreteType:
		next := e
		fields := make([]core.Field, len(t.Fields))
		for i, f := range t.Fields {
			if f.IsPermission {
				fields[i] = f
				continue
			}
			var unfolded core.Type
			next, unfolded = unfoldField(next, f.Type)
			fields[i] = core.Field{Name: f.Name, Type: unfolded}
		}
		return next, core.ConcreteType{Datacon: t.Datacon, Fields: fields, Adopts: t.Adopts}
	case core.TupleType:
		next := e
		fields := make([]core.Type, len(t.Fields))
		for i, f := range t.Fields {
			var unfolded core.Type
			next, unfolded = unfoldField(next, f)
			fields[i] = unfolded
		}
		return next, core.TupleType{Fields: fields}
	default:
		return e, t
	}
}

// unfoldField is §4.5's `unfold` proper: a field type that is already
// `=v` for some Term variable v needs no work, and everything else —
// a lambda parameter's structural annotation, an adopts clause, an
// opened existential's body carried into a field position — is
// allocated a fresh Term variable and staged onto it via Add, so the
// field's stored type becomes the singleton `=v` that addConcrete,
// addTuple, and bindPattern's singletonOpenVar all require. Add's own
// unfoldTop call on that staged value continues the same rewrite one
// level down for any further nested structural type.
func unfoldField(e *Env, t core.Type) (*Env, core.Type) {
	t = core.ModuloFlex(e, t)
	if sg, ok := t.(core.SingletonType); ok {
		if _, ok := sg.Value.(core.OpenType); ok {
			return e, t
		}
	}
	id := e.freshID()
	next := Add(e, id, t)
	return next, core.SingletonType{Value: core.OpenType{Var: id}}
}

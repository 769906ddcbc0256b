package core

// Lift shifts every free Bound index by k (§4.1 "lift(k, T)"). Indices
// bound by a quantifier the traversal passes under are not free from
// the top, so the cutoff increases by one under each Forall/Exists.
func Lift(k int, t Type) Type {
	return liftAt(k, 0, t)
}

func liftAt(k, cutoff int, t Type) Type {
	switch t := t.(type) {
	case BoundType:
		if t.Index >= cutoff {
			return BoundType{Index: t.Index + k}
		}
		return t
	case ForallType:
		return ForallType{Binding: t.Binding, Body: liftAt(k, cutoff+1, t.Body)}
	case ExistsType:
		return ExistsType{Binding: t.Binding, Body: liftAt(k, cutoff+1, t.Body)}
	case AppType:
		return AppType{Head: t.Head, Args: mapTypes(t.Args, func(a Type) Type { return liftAt(k, cutoff, a) })}
	case TupleType:
		return TupleType{Fields: mapTypes(t.Fields, func(a Type) Type { return liftAt(k, cutoff, a) })}
	case ConcreteType:
		return ConcreteType{Datacon: t.Datacon, Fields: mapFields(t.Fields, func(a Type) Type { return liftAt(k, cutoff, a) }), Adopts: liftMaybe(k, cutoff, t.Adopts)}
	case SingletonType:
		return SingletonType{Value: liftAt(k, cutoff, t.Value)}
	case ArrowType:
		return ArrowType{Domain: liftAt(k, cutoff, t.Domain), Codomain: liftAt(k, cutoff, t.Codomain)}
	case AnchoredPerm:
		return AnchoredPerm{Var: t.Var, Type: liftAt(k, cutoff, t.Type)}
	case StarPerm:
		return StarPerm{Left: liftAt(k, cutoff, t.Left), Right: liftAt(k, cutoff, t.Right)}
	case BarType:
		return BarType{Value: liftAt(k, cutoff, t.Value), Perm: liftAt(k, cutoff, t.Perm)}
	case AndType:
		return AndType{Constraints: mapConstraints(t.Constraints, func(a Type) Type { return liftAt(k, cutoff, a) }), Body: liftAt(k, cutoff, t.Body)}
	case ImplyType:
		return ImplyType{Constraints: mapConstraints(t.Constraints, func(a Type) Type { return liftAt(k, cutoff, a) }), Body: liftAt(k, cutoff, t.Body)}
	default:
		// UnknownType, DynamicType, OpenType, EmptyPerm carry no indices.
		return t
	}
}

func liftMaybe(k, cutoff int, t Type) Type {
	if t == nil {
		return nil
	}
	return liftAt(k, cutoff, t)
}

func mapTypes(ts []Type, f func(Type) Type) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = f(t)
	}
	return out
}

func mapFields(fs []Field, f func(Type) Type) []Field {
	if fs == nil {
		return nil
	}
	out := make([]Field, len(fs))
	for i, fld := range fs {
		out[i] = Field{Name: fld.Name, Type: f(fld.Type), IsPermission: fld.IsPermission}
	}
	return out
}

func mapConstraints(cs []Constraint, f func(Type) Type) []Constraint {
	if cs == nil {
		return nil
	}
	out := make([]Constraint, len(cs))
	for i, c := range cs {
		out[i] = Constraint{Kind: c.Kind, Type: f(c.Type)}
	}
	return out
}

// Subst replaces Bound(i) with u throughout t, adjusting indices as it
// passes under binders (§4.1 "subst(T, i, U)"). This is capture-avoiding
// by construction: u is only ever substituted in at the depth it was
// requested for, and indices deeper than i are never touched by this
// call (a quantifier opening always substitutes index 0, see
// checker.Env.OpenForall/OpenExists).
func Subst(t Type, i int, u Type) Type {
	return substAt(t, i, u)
}

func substAt(t Type, i int, u Type) Type {
	switch t := t.(type) {
	case BoundType:
		if t.Index == i {
			return u
		}
		return t
	case ForallType:
		return ForallType{Binding: t.Binding, Body: substAt(t.Body, i+1, Lift(1, u))}
	case ExistsType:
		return ExistsType{Binding: t.Binding, Body: substAt(t.Body, i+1, Lift(1, u))}
	case AppType:
		return AppType{Head: t.Head, Args: mapTypes(t.Args, func(a Type) Type { return substAt(a, i, u) })}
	case TupleType:
		return TupleType{Fields: mapTypes(t.Fields, func(a Type) Type { return substAt(a, i, u) })}
	case ConcreteType:
		var adopts Type
		if t.Adopts != nil {
			adopts = substAt(t.Adopts, i, u)
		}
		return ConcreteType{Datacon: t.Datacon, Fields: mapFields(t.Fields, func(a Type) Type { return substAt(a, i, u) }), Adopts: adopts}
	case SingletonType:
		return SingletonType{Value: substAt(t.Value, i, u)}
	case ArrowType:
		return ArrowType{Domain: substAt(t.Domain, i, u), Codomain: substAt(t.Codomain, i, u)}
	case AnchoredPerm:
		return AnchoredPerm{Var: t.Var, Type: substAt(t.Type, i, u)}
	case StarPerm:
		return StarPerm{Left: substAt(t.Left, i, u), Right: substAt(t.Right, i, u)}
	case BarType:
		return BarType{Value: substAt(t.Value, i, u), Perm: substAt(t.Perm, i, u)}
	case AndType:
		return AndType{Constraints: mapConstraints(t.Constraints, func(a Type) Type { return substAt(a, i, u) }), Body: substAt(t.Body, i, u)}
	case ImplyType:
		return ImplyType{Constraints: mapConstraints(t.Constraints, func(a Type) Type { return substAt(a, i, u) }), Body: substAt(t.Body, i, u)}
	default:
		return t
	}
}

// FlexResolver chases a flexible variable to its current
// instantiation, if any (union-find representative lookup). checker.Env
// implements this; core stays ignorant of what an Env actually is.
type FlexResolver interface {
	Representative(VarID) (Type, bool)
}

// ModuloFlex implements §4.1 "modulo_flex(E, T)": if T is an Open
// variable that has been instantiated, return its representative;
// otherwise return T unchanged. It does not recurse — callers chase
// repeatedly at the point of use, the way union-find chases a root.
func ModuloFlex(r FlexResolver, t Type) Type {
	open, ok := t.(OpenType)
	if !ok {
		return t
	}
	if repr, ok := r.Representative(open.Var); ok {
		return repr
	}
	return t
}

// Collect implements §4.1 "collect(T)": split a value type from its
// attached permissions, rewriting Bar(T, p) as (T, p) and pushing
// Star/Anchored accordingly so every Bar in the tree is flattened into
// one top-level permission.
func Collect(t Type) (value Type, perm Type) {
	switch t := t.(type) {
	case BarType:
		innerValue, innerPerm := Collect(t.Value)
		if _, ok := innerPerm.(EmptyPerm); ok {
			return innerValue, t.Perm
		}
		return innerValue, StarPerm{Left: t.Perm, Right: innerPerm}
	case StarPerm:
		leftValue, leftPerm := Collect(t.Left)
		rightValue, rightPerm := Collect(t.Right)
		// Star's children are Perm-kind; a child that collects to a
		// non-empty "value" (e.g. a bare AnchoredPerm, which Collect's
		// default case treats as its own value with no perm) is not a
		// genuine value to discard — fold it back into the perm side
		// instead of dropping it.
		return EmptyPerm{}, StarPerm{Left: foldValueIntoPerm(leftValue, leftPerm), Right: foldValueIntoPerm(rightValue, rightPerm)}
	default:
		return t, EmptyPerm{}
	}
}

func foldValueIntoPerm(value, perm Type) Type {
	if _, ok := value.(EmptyPerm); ok {
		return perm
	}
	return StarPerm{Left: value, Right: perm}
}

// DataDefinitionView is the slice of a data-type definition that
// ExpandIfOneBranch needs: its branches, already instantiated for a
// concrete set of type arguments.
type DataDefinitionView struct {
	Branches []Type // each a ConcreteType or TupleType
}

// DataTypeResolver looks up the definition that an AppType's head
// names. checker.Env implements this.
type DataTypeResolver interface {
	LookupExpanded(head VarID, args []Type) (DataDefinitionView, bool)
}

// ExpandIfOneBranch implements §4.1: if T is a concrete or applied type
// whose defining data-type group has exactly one branch, return its
// unfolded structural form; otherwise return T unchanged.
func ExpandIfOneBranch(r DataTypeResolver, t Type) Type {
	app, ok := t.(AppType)
	if !ok {
		return t
	}
	view, ok := r.LookupExpanded(app.Head, app.Args)
	if !ok || len(view.Branches) != 1 {
		return t
	}
	return view.Branches[0]
}

package checker

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"
	"github.com/mezzolang/mezzo/core"
)

// FactKind is one of the three base facts a type can have, §4.3.
// Exclusive and Affine are absolute; Duplicable may be "fuzzy" —
// conditional on which of a data-type group's own parameters are
// themselves duplicable — which Fact.Mask records.
type FactKind uint8

const (
	FactAffine FactKind = iota
	FactExclusive
	FactDuplicable
)

// Fact is a data-type group's or abstract type's fact, parameterised
// over its own type parameters: Duplicable with Mask = {0, 2} means
// "duplicable whenever parameters 0 and 2 are duplicable" (the
// parameter bitmap of §4.3's fuzzy duplicability).
type Fact struct {
	Kind FactKind
	Mask *set.Set[int]
}

func (f Fact) String() string {
	switch f.Kind {
	case FactExclusive:
		return "exclusive"
	case FactDuplicable:
		if f.Mask == nil || f.Mask.Empty() {
			return "duplicable"
		}
		return fmt.Sprintf("duplicable(mask=%v)", f.Mask.Slice())
	default:
		return "affine"
	}
}

// leq is the fact lattice's ordering (§4.3): Exclusive and Affine are
// both bottom (no type is both), Duplicable is only above itself with
// a wider mask. We encode it as: Affine/Exclusive are incomparable
// bottoms used only as defaults, Duplicable(mask) <= Duplicable(mask2)
// iff mask subset mask2 (a smaller conditional set is a stronger fact).
func (f Fact) leq(other Fact) bool {
	if f.Kind != FactDuplicable || other.Kind != FactDuplicable {
		return f.Kind == other.Kind
	}
	if f.Mask == nil {
		return true
	}
	if other.Mask == nil {
		return false
	}
	return other.Mask.Subset(f.Mask)
}

// DuplicableAlways is the fact of a type that is duplicable
// unconditionally — tuples of duplicable fields, immutable data
// groups whose fields are all duplicable, function types (arrows are
// always duplicable per §4.3), Unknown, and singleton types.
func DuplicableAlways() Fact { return Fact{Kind: FactDuplicable} }

func Exclusive() Fact { return Fact{Kind: FactExclusive} }

func Affine() Fact { return Fact{Kind: FactAffine} }

// FactOf computes t's fact given the environment's knowledge of
// applied type heads (§4.3's structural + nominal rules). It does not
// itself run the fixed-point worklist for mutually-recursive data
// groups — InferGroupFacts does that once, at declaration time, and
// FactOf for an AppType just looks the memoized result up.
func FactOf(e *Env, t core.Type) Fact {
	switch t := t.(type) {
	case core.UnknownType, core.SingletonType, core.ArrowType, core.EmptyPerm,
		core.BarType:
		return DuplicableAlways()
	case core.AnchoredPerm:
		return FactOf(e, t.Type)
	case core.StarPerm:
		return meet(FactOf(e, t.Left), FactOf(e, t.Right))
	case core.DynamicType:
		return Affine()
	case core.TupleType:
		acc := DuplicableAlways()
		for _, f := range t.Fields {
			acc = meet(acc, FactOf(e, f))
		}
		return acc
	case core.ConcreteType:
		acc := DuplicableAlways()
		if head, ok := e.DataconOwner(t.Datacon); ok {
			if groupFact, ok := e.facts.Get(head); ok {
				acc = groupFact
			}
		}
		for _, f := range t.Fields {
			if f.IsPermission {
				continue
			}
			acc = meet(acc, FactOf(e, f.Type))
		}
		return acc
	case core.OpenType:
		if f, ok := e.facts.Get(t.Var); ok {
			return f
		}
		return Affine()
	case core.BoundType:
		// A group's own parameter is duplicable exactly when whatever
		// gets substituted for it is: fold that condition into the
		// enclosing group's mask instead of picking a fixed fact.
		return Fact{Kind: FactDuplicable, Mask: set.From([]int{t.Index})}
	case core.AppType:
		head, ok := e.facts.Get(t.Head)
		if !ok {
			return Affine()
		}
		if head.Kind != FactDuplicable || head.Mask == nil || head.Mask.Empty() {
			return head
		}
		for _, idx := range head.Mask.Slice() {
			if idx < 0 || idx >= len(t.Args) {
				continue
			}
			if FactOf(e, t.Args[idx]).Kind != FactDuplicable {
				return Affine()
			}
		}
		return DuplicableAlways()
	case core.ForallType, core.ExistsType, core.AndType, core.ImplyType:
		return Affine()
	default:
		return Affine()
	}
}

// meet is the fact lattice's infimum, used to combine a structural
// type's fields: the whole is duplicable only where every field is.
func meet(a, b Fact) Fact {
	if a.Kind == FactDuplicable && b.Kind == FactDuplicable {
		switch {
		case a.Mask == nil && b.Mask == nil:
			return DuplicableAlways()
		case a.Mask == nil:
			return b
		case b.Mask == nil:
			return a
		default:
			return Fact{Kind: FactDuplicable, Mask: a.Mask.Union(b.Mask).(*set.Set[int])}
		}
	}
	if a.Kind == FactExclusive || b.Kind == FactExclusive {
		return Exclusive()
	}
	return Affine()
}

// InferGroupFacts runs the monotone fixed-point worklist of §4.3 over
// a set of mutually-recursive data-type definitions: start every
// member at FactDuplicable (top) and repeatedly weaken to the least
// fixed point any member whose branches turn out not to be
// unconditionally duplicable, until no member changes. Declared
// Exclusive/Mutable groups skip the worklist and get Exclusive
// immediately. Abstract types never pass through here and get no fact
// entry, so FactOf treats them as Affine; a fact written on an
// abstract type's declaration is not recorded.
func InferGroupFacts(e *Env, heads []core.VarID, defs map[core.VarID]*core.DataDefinition) *Env {
	worklist := set.New[core.VarID](len(heads))
	for _, h := range heads {
		worklist.Insert(h)
	}
	next := e.clone()
	current := make(map[core.VarID]Fact, len(heads))
	for _, h := range heads {
		def := defs[h]
		if def.Flavor == core.DataExclusive {
			current[h] = Exclusive()
		} else {
			current[h] = DuplicableAlways()
		}
		next.facts = next.facts.Set(h, current[h])
	}
	for !worklist.Empty() {
		h := worklist.Slice()[0]
		worklist.Remove(h)
		def := defs[h]
		if def.Flavor == core.DataExclusive {
			continue
		}
		recomputed := DuplicableAlways()
		for _, branch := range def.Branches {
			for _, f := range branch.Fields {
				if f.IsPermission {
					continue
				}
				recomputed = meet(recomputed, FactOf(next, f.Type))
			}
		}
		if !factEqual(recomputed, current[h]) {
			current[h] = recomputed
			next.facts = next.facts.Set(h, recomputed)
			worklist.Insert(h)
			for _, other := range heads {
				if other != h {
					worklist.Insert(other)
				}
			}
		}
	}
	return next
}

func factEqual(a, b Fact) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind != FactDuplicable {
		return true
	}
	switch {
	case a.Mask == nil && b.Mask == nil:
		return true
	case a.Mask == nil || b.Mask == nil:
		return false
	default:
		return a.Mask.Equal(b.Mask)
	}
}

// InferVariance computes each data-type group member's variance vector
// (§4.3): start every parameter at Bivariant (top — unconstrained, as
// for a phantom parameter) and repeatedly recompute each member's
// per-parameter polarity from its branches and adopts clause, joining
// the result against what is already stored, until nothing changes; a
// parameter never observed at any occurrence finalizes to Invariant,
// the safe default for an unused parameter. A mutable or exclusive
// group's fields are always Invariant regardless of occurrence — a
// field reachable through Assign is both read and written, so treating
// it as covariant would let a supertype's write violate a subtype's
// stronger field type, the same reasoning that keeps InferGroupFacts
// from running its worklist on these flavors. Mutates def.Params[i]
// .Variance in place — every *core.DataDefinition here is shared by
// pointer with the environment, so no re-registration is needed for
// the update to be visible to later readers such as subApplication.
func InferVariance(e *Env, heads []core.VarID, defs map[core.VarID]*core.DataDefinition) {
	for _, h := range heads {
		def := defs[h]
		for i := range def.Params {
			def.Params[i].Variance = core.Bivariant
		}
	}
	for changed := true; changed; {
		changed = false
		for _, h := range heads {
			def := defs[h]
			if def.Flavor == core.DataExclusive {
				continue
			}
			observed := make([]core.Variance, len(def.Params))
			for i := range observed {
				observed[i] = core.Bivariant
			}
			for _, branch := range def.Branches {
				for _, f := range branch.Fields {
					if f.IsPermission {
						continue
					}
					collectVariance(e, defs, f.Type, core.Covariant, observed)
				}
				if branch.Adopts != nil {
					collectVariance(e, defs, branch.Adopts, core.Covariant, observed)
				}
			}
			for i := range def.Params {
				joined := joinVariance(def.Params[i].Variance, observed[i])
				if joined != def.Params[i].Variance {
					def.Params[i].Variance = joined
					changed = true
				}
			}
		}
	}
	for _, h := range heads {
		def := defs[h]
		if def.Flavor == core.DataExclusive {
			for i := range def.Params {
				def.Params[i].Variance = core.Invariant
			}
		}
	}
	for _, h := range heads {
		def := defs[h]
		for i := range def.Params {
			if def.Params[i].Variance == core.Bivariant {
				def.Params[i].Variance = core.Invariant
			}
		}
	}
}

// collectVariance walks a field or adopts-clause type, recording each
// occurrence of one of the enclosing group's own BoundType parameters
// at the polarity reached by descent: an arrow's domain flips it, an
// applied type's argument composes it with that head's own (in-group
// or already-finalized) parameter variance, and every other structural
// position (tuple field, anchored/star/bar permission, singleton
// value, quantifier body) preserves it.
func collectVariance(e *Env, inGroup map[core.VarID]*core.DataDefinition, t core.Type, polarity core.Variance, result []core.Variance) {
	if polarity == core.Bivariant {
		return
	}
	switch t := t.(type) {
	case core.BoundType:
		if t.Index >= 0 && t.Index < len(result) {
			result[t.Index] = joinVariance(result[t.Index], polarity)
		}
	case core.TupleType:
		for _, f := range t.Fields {
			collectVariance(e, inGroup, f, polarity, result)
		}
	case core.ConcreteType:
		for _, f := range t.Fields {
			if f.IsPermission {
				continue
			}
			collectVariance(e, inGroup, f.Type, polarity, result)
		}
		if t.Adopts != nil {
			collectVariance(e, inGroup, t.Adopts, polarity, result)
		}
	case core.ArrowType:
		collectVariance(e, inGroup, t.Domain, flipPolarity(polarity), result)
		collectVariance(e, inGroup, t.Codomain, polarity, result)
	case core.AnchoredPerm:
		collectVariance(e, inGroup, t.Type, polarity, result)
	case core.StarPerm:
		collectVariance(e, inGroup, t.Left, polarity, result)
		collectVariance(e, inGroup, t.Right, polarity, result)
	case core.SingletonType:
		collectVariance(e, inGroup, t.Value, polarity, result)
	case core.BarType:
		collectVariance(e, inGroup, t.Value, polarity, result)
		collectVariance(e, inGroup, t.Perm, polarity, result)
	case core.ForallType:
		collectVariance(e, inGroup, t.Body, polarity, result)
	case core.ExistsType:
		collectVariance(e, inGroup, t.Body, polarity, result)
	case core.AndType:
		collectVariance(e, inGroup, t.Body, polarity, result)
	case core.ImplyType:
		collectVariance(e, inGroup, t.Body, polarity, result)
	case core.AppType:
		var params []core.Param
		if def, ok := inGroup[t.Head]; ok {
			params = def.Params
		} else if def, ok := e.DataDefinition(t.Head); ok {
			params = def.Params
		}
		for i, arg := range t.Args {
			argPolarity := core.Bivariant
			if i < len(params) {
				argPolarity = composeVariance(polarity, params[i].Variance)
			}
			collectVariance(e, inGroup, arg, argPolarity, result)
		}
	}
}

// joinVariance is the variance lattice's supremum used to accumulate
// independent observations of the same parameter: Bivariant is the
// identity (no observation yet), and two observations that disagree —
// or either one already Invariant — collapse to Invariant, since a
// parameter used both covariantly and contravariantly admits no sound
// subtyping direction.
func joinVariance(a, b core.Variance) core.Variance {
	switch {
	case a == core.Bivariant:
		return b
	case b == core.Bivariant:
		return a
	case a == b:
		return a
	default:
		return core.Invariant
	}
}

// flipPolarity swaps the descent polarity across a contravariant
// position such as an arrow's domain; Bivariant and Invariant carry no
// direction, so they pass through unchanged.
func flipPolarity(v core.Variance) core.Variance {
	switch v {
	case core.Covariant:
		return core.Contravariant
	case core.Contravariant:
		return core.Covariant
	default:
		return v
	}
}

// composeVariance combines the polarity reached by descent with the
// variance of the parameter position being descended into — the same
// composition subApplication uses in reverse when deciding which
// direction to check subtyping in.
func composeVariance(outer, inner core.Variance) core.Variance {
	switch {
	case outer == core.Bivariant || inner == core.Bivariant:
		return core.Bivariant
	case outer == core.Invariant || inner == core.Invariant:
		return core.Invariant
	case outer == inner:
		return core.Covariant
	default:
		return core.Contravariant
	}
}

// IsDuplicable is the predicate S/A consult before deciding whether a
// permission can be kept after being "used" (§1, §4.4): duplicable
// permissions survive subtraction, everything else is consumed.
func IsDuplicable(e *Env, t core.Type) bool {
	return FactOf(e, t).Kind == FactDuplicable
}

func IsExclusive(e *Env, t core.Type) bool {
	return FactOf(e, t).Kind == FactExclusive
}

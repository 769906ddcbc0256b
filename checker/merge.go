package checker

import (
	"sort"

	"github.com/xtgo/set"

	"github.com/mezzolang/mezzo/core"
)

// hashSortable lets two already-hashed, already-sorted permission runs
// be intersected via github.com/xtgo/set's in-place algorithms: each
// entry pairs a permission's syntactic-equality key (its Hash modulo
// flex) with the permission itself, so Inter can run over the keys
// while dragging the original Type values along as sort.Interface.Swap
// payload.
type hashSortable struct {
	keys  []uint64
	perms []core.Type
}

func (h hashSortable) Len() int           { return len(h.keys) }
func (h hashSortable) Less(i, j int) bool { return h.keys[i] < h.keys[j] }
func (h hashSortable) Swap(i, j int) {
	h.keys[i], h.keys[j] = h.keys[j], h.keys[i]
	h.perms[i], h.perms[j] = h.perms[j], h.perms[i]
}

func newHashSortable(e *Env, perms []core.Type) hashSortable {
	hs := hashSortable{keys: make([]uint64, len(perms)), perms: make([]core.Type, len(perms))}
	for i, p := range perms {
		resolved := core.ModuloFlex(e, p)
		hs.keys[i] = resolved.(core.Hashable).Hash()
		hs.perms[i] = resolved
	}
	sort.Sort(hs)
	n := set.Uniq(hs)
	hs.keys = hs.keys[:n]
	hs.perms = hs.perms[:n]
	return hs
}

// intersectPermissions implements the Term-variable rule of §4.6:
// "the largest intersection of E1[v] and E2[v] up to syntactic
// equality modulo flex", using xtgo/set.Inter over the two runs.
func intersectPermissions(e1, e2 *Env, v core.VarID) []core.Type {
	left := newHashSortable(e1, e1.Permissions(v))
	right := newHashSortable(e2, e2.Permissions(v))
	combined := hashSortable{
		keys:  append(append([]uint64{}, left.keys...), right.keys...),
		perms: append(append([]core.Type{}, left.perms...), right.perms...),
	}
	n := set.Inter(combined, left.Len())
	return combined.perms[:n]
}

// Merge implements §4.6: reconcile two child environments at a
// control-flow join, given the environment before the branch so it
// knows which variables were in scope at all.
func Merge(before, e1, e2 *Env) *Env {
	if e1.IsInconsistent() {
		return e2
	}
	if e2.IsInconsistent() {
		return e1
	}

	next := before.clone()
	next.level = maxLevel(e1.level, e2.level)
	next.fresh = e1.fresh
	next.vars = e1.vars
	next.facts = e1.facts
	next.dataDefs = e1.dataDefs

	pitr := before.perms.Iterator()
	for !pitr.Done() {
		v, _, _ := pitr.Next()
		// Permissions present on only one branch were already dropped
		// by intersectPermissions's syntactic-equality intersection;
		// what survives is kept regardless of duplicability.
		next.perms = next.perms.Set(v, intersectPermissions(e1, e2, v))
	}

	itr := before.vars.Iterator()
	for !itr.Done() {
		v, variable, _ := itr.Next()
		if variable.Flexible {
			next = mergeFlexible(next, v, e1, e2)
		}
	}
	return next
}

// mergeFlexible implements §4.6's flexible-variable rule: instantiated
// in only one branch -> re-flexibilize (drop the instantiation);
// instantiated in both -> keep iff the two instantiations unify, else
// re-flexibilize rather than silently keeping one branch's arbitrary
// choice.
func mergeFlexible(e *Env, v core.VarID, e1, e2 *Env) *Env {
	r1, ok1 := e1.Representative(v)
	r2, ok2 := e2.Representative(v)
	switch {
	case ok1 && ok2:
		if equalModuloFlex(e, r1, r2) {
			return e.InstantiateFlexible(v, r1)
		}
		if merged, ok := SubType(e, r1, r2); ok {
			return merged
		}
		return e.Reflexibilize(v)
	case ok1 || ok2:
		return e.Reflexibilize(v)
	default:
		return e
	}
}

func maxLevel(a, b level) level {
	if a > b {
		return a
	}
	return b
}

package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mezzolang/mezzo/core"
)

// TestLiftShiftsOnlyFreeIndices covers §8's "opening then closing a
// quantifier is the identity on types" by checking Lift's half of that
// invariant directly: a Forall's own bound occurrence (index 0, under
// its own binder) must not be shifted, while a free occurrence deeper
// in the body must be.
func TestLiftShiftsOnlyFreeIndices(t *testing.T) {
	inner := core.ForallType{
		Binding: core.Binding{NameHint: "b", Kind: core.TypeKind{}},
		Body:    core.TupleType{Fields: []core.Type{core.BoundType{Index: 0}, core.BoundType{Index: 1}}},
	}
	lifted := core.Lift(1, inner).(core.ForallType)
	fields := lifted.Body.(core.TupleType).Fields
	assert.Equal(t, core.BoundType{Index: 0}, fields[0], "the Forall's own bound variable must not shift")
	assert.Equal(t, core.BoundType{Index: 2}, fields[1], "a free reference to the outer binder must shift by k")
}

// TestSubstReplacesBoundIndexAndLiftsUnderBinders is the substitution
// half of the same invariant: substituting under a Forall must lift
// the replacement so its own free indices still point at the right
// outer binder once it is spliced in one level deeper.
func TestSubstReplacesBoundIndexAndLiftsUnderBinders(t *testing.T) {
	body := core.ForallType{
		Binding: core.Binding{NameHint: "b", Kind: core.TypeKind{}},
		Body:    core.BoundType{Index: 1}, // refers to the outer index 0, from one binder down
	}
	replacement := core.BoundType{Index: 5}
	result := core.Subst(body, 0, replacement).(core.ForallType)
	assert.Equal(t, core.BoundType{Index: 6}, result.Body, "the replacement must be lifted by one under the Forall it is spliced into")
}

// TestSubstLeavesOtherIndicesAlone confirms Subst is not a blanket
// rewrite: only the exact requested index is touched.
func TestSubstLeavesOtherIndicesAlone(t *testing.T) {
	tuple := core.TupleType{Fields: []core.Type{core.BoundType{Index: 0}, core.BoundType{Index: 1}}}
	result := core.Subst(tuple, 1, core.AppType{Head: 42}).(core.TupleType)
	assert.Equal(t, core.BoundType{Index: 0}, result.Fields[0])
	assert.Equal(t, core.AppType{Head: 42}, result.Fields[1])
}

// fakeResolver is a minimal FlexResolver/DataTypeResolver double for
// exercising ModuloFlex/ExpandIfOneBranch without a full checker.Env.
type fakeResolver struct {
	reprs map[core.VarID]core.Type
	views map[core.VarID]core.DataDefinitionView
}

func (f fakeResolver) Representative(id core.VarID) (core.Type, bool) {
	t, ok := f.reprs[id]
	return t, ok
}

func (f fakeResolver) LookupExpanded(head core.VarID, args []core.Type) (core.DataDefinitionView, bool) {
	v, ok := f.views[head]
	return v, ok
}

// TestModuloFlexChasesInstantiatedVariableOnce checks that an
// uninstantiated flexible passes through unchanged and an instantiated
// one resolves to its representative without recursing further.
func TestModuloFlexChasesInstantiatedVariableOnce(t *testing.T) {
	r := fakeResolver{reprs: map[core.VarID]core.Type{1: core.AppType{Head: 99}}}

	resolved := core.ModuloFlex(r, core.OpenType{Var: 1})
	assert.Equal(t, core.AppType{Head: 99}, resolved)

	unresolved := core.ModuloFlex(r, core.OpenType{Var: 2})
	assert.Equal(t, core.OpenType{Var: 2}, unresolved)

	nonVariable := core.ModuloFlex(r, core.AppType{Head: 7})
	assert.Equal(t, core.AppType{Head: 7}, nonVariable)
}

// TestCollectFlattensBarAndStar is §4.1's collect(T): every Bar in the
// tree folds into one top-level Star of permissions, with the bare
// value left at the root.
func TestCollectFlattensBarAndStar(t *testing.T) {
	intApp := core.AppType{Head: 1}
	boolApp := core.AppType{Head: 2}
	nested := core.BarType{
		Value: intApp,
		Perm: core.StarPerm{
			Left:  boolApp,
			Right: core.EmptyPerm{},
		},
	}
	value, perm := core.Collect(nested)
	assert.Equal(t, intApp, value)
	assert.Equal(t, core.StarPerm{Left: boolApp, Right: core.EmptyPerm{}}, perm)
}

// TestCollectOnPlainValueYieldsEmptyPerm covers the base case: a value
// with no Bar wrapping it collects to itself and an empty permission.
func TestCollectOnPlainValueYieldsEmptyPerm(t *testing.T) {
	intApp := core.AppType{Head: 1}
	value, perm := core.Collect(intApp)
	assert.Equal(t, intApp, value)
	assert.Equal(t, core.EmptyPerm{}, perm)
}

// TestExpandIfOneBranchUnfoldsSingleConstructorGroups covers §4.1: a
// data group with exactly one branch expands transparently; a group
// with more than one, or an unrelated type, passes through unchanged.
func TestExpandIfOneBranchUnfoldsSingleConstructorGroups(t *testing.T) {
	branch := core.ConcreteType{Datacon: "Pair", Fields: []core.Field{
		{Name: "fst", Type: core.SingletonType{Value: core.OpenType{Var: 10}}},
	}}
	r := fakeResolver{views: map[core.VarID]core.DataDefinitionView{
		5: {Branches: []core.Type{branch}},
		6: {Branches: []core.Type{branch, branch}},
	}}

	expanded := core.ExpandIfOneBranch(r, core.AppType{Head: 5})
	assert.Equal(t, branch, expanded)

	multiway := core.AppType{Head: 6}
	assert.Equal(t, multiway, core.ExpandIfOneBranch(r, multiway))

	notApplied := core.SingletonType{Value: core.OpenType{Var: 1}}
	assert.Equal(t, notApplied, core.ExpandIfOneBranch(r, notApplied))
}
